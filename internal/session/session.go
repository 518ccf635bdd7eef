// Package session carries the acting user's identity through coordinator
// calls. There is no ambient "current user" state anywhere in this module;
// whoever invokes a coordinator says who is acting.
package session

import "github.com/mercadolocal/catalogsync/internal/model"

// Session identifies the acting user for a coordinator call.
type Session struct {
	UserID int64
	Role   model.Role
	Token  string // bearer token for the remote authority, may be empty
}

// Anonymous is the session of an unauthenticated caller.
var Anonymous = Session{}

// IsSeller reports whether the session belongs to a seller account.
func (s Session) IsSeller() bool { return s.Role == model.RoleSeller }

// Owns reports whether the session user owns the given owner id.
func (s Session) Owns(ownerID *int64) bool {
	return ownerID != nil && s.UserID != 0 && s.UserID == *ownerID
}
