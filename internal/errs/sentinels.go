// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across store/coordinator layers.
var (
	// ErrNotFound indicates the requested entity does not exist locally.
	ErrNotFound = errors.New("not found")

	// ErrRemoteUnavailable indicates a network-level failure reaching the
	// remote authority (dial, timeout, broken transport).
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrNotFoundRemotely indicates the remote authority answered 404.
	ErrNotFoundRemotely = errors.New("not found remotely")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// RemoteError is a non-2xx response from the remote authority with the
// status code and response body preserved for diagnostics.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote rejected: status %d: %s", e.Status, e.Body)
}

// Is lets errors.Is match a 404 RemoteError against ErrNotFoundRemotely.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFoundRemotely && e.Status == 404
}

// IsRemote reports whether err originated at the remote boundary, either as
// a transport failure or a rejected request. Coordinators use it to decide
// between "degrade to local-only" and "real fault".
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.Is(err, ErrRemoteUnavailable) || errors.As(err, &re)
}
