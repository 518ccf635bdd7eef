// Package model defines domain entities used by coordinators, stores and the remote client.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role is a user's marketplace role.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleSeller Role = "SELLER"
)

// MaxProductImages bounds the image list on a product.
const MaxProductImages = 10

// Product is a catalog listing. Producer denormalizes the owning seller's
// entrepreneurship name and must track it (see sync.ConsistencyPropagator).
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Producer    string          `json:"producer"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	Price       decimal.Decimal `json:"price"`
	Location    string          `json:"location"`
	OwnerID     *int64          `json:"ownerId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OwnedBy reports whether the product belongs to the given user.
func (p *Product) OwnedBy(userID int64) bool {
	return p.OwnerID != nil && *p.OwnerID == userID
}

// Seller is the seller profile of a user. There is no independent seller
// identifier: UserID is the primary key, so a seller record can only exist
// for an existing user (co-identity).
type Seller struct {
	UserID           int64   `json:"id"`
	Name             string  `json:"name"`
	LastName         string  `json:"lastname"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	Address          string  `json:"address"`
	Entrepreneurship string  `json:"entrepreneurship"`
	PhotoRef         string  `json:"photo"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// User is a marketplace account. PasswordHash is an opaque digest produced by
// the hashing service; this core never inspects it.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PasswordHash string `json:"password,omitempty"`
	Role         Role   `json:"role"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PhotoRef     string `json:"photo"`
	VerifyCode   string `json:"verifyCode,omitempty"`
	ResetCode    string `json:"resetCode,omitempty"`
}

// Favorite marks a product as favorited by a user. Purely local; there is no
// remote mirror. (UserID, ProductID) is the composite key.
type Favorite struct {
	UserID    int64 `json:"userId"`
	ProductID int64 `json:"productId"`
}

// EmailEquals compares emails case-insensitively.
func EmailEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
