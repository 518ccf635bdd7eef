// Package store defines the on-device catalog store interfaces. Backends are
// simple keyed stores with reactive point/list queries; schema mechanics stay
// behind these interfaces. Per-key write ordering is the backend's job:
// coordinators add no locking of their own.
package store

import (
	"context"

	"github.com/mercadolocal/catalogsync/internal/model"
)

// ProductFilter narrows List. Zero value means "all products".
// SellerName matches the denormalized producer name, case-insensitive
// substring (free-text search).
type ProductFilter struct {
	OwnerID    *int64
	Category   string
	City       string
	SellerName string
}

// ProductStore is the local replica of the product catalog.
type ProductStore interface {
	// Get returns the product or errs.ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Product, error)
	// Observe streams the current value for id, then every subsequent
	// change; nil is sent when the row disappears. The stream closes when
	// ctx is done.
	Observe(ctx context.Context, id int64) (<-chan *model.Product, error)
	// List returns products matching the filter.
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)
	// ObserveList streams the filtered list on every product change.
	ObserveList(ctx context.Context, f ProductFilter) (<-chan []model.Product, error)
	// Upsert inserts or replaces by id.
	Upsert(ctx context.Context, p *model.Product) error
	// Delete removes by id; deleting an absent row is a no-op.
	Delete(ctx context.Context, id int64) error
	// BulkUpsert replaces-on-conflict every given product in one pass.
	BulkUpsert(ctx context.Context, ps []model.Product) error
}

// SellerStore is the local replica of seller profiles, keyed by user id.
type SellerStore interface {
	Get(ctx context.Context, userID int64) (*model.Seller, error)
	GetByEmail(ctx context.Context, email string) (*model.Seller, error)
	List(ctx context.Context) ([]model.Seller, error)
	Upsert(ctx context.Context, s *model.Seller) error
	Delete(ctx context.Context, userID int64) error
}

// UserStore is the local replica of accounts.
type UserStore interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Upsert(ctx context.Context, u *model.User) error
	// SetRole updates only the role of an existing user.
	SetRole(ctx context.Context, id int64, role model.Role) error
}

// FavoriteStore holds the purely local favorites set.
type FavoriteStore interface {
	// Put inserts or replaces the (userID, productID) row; re-adding an
	// existing favorite is idempotent.
	Put(ctx context.Context, f model.Favorite) error
	// Delete removes by composite key; absent rows are a no-op.
	Delete(ctx context.Context, userID, productID int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
	// ObserveByUser streams the user's favorites on every favorites change.
	ObserveByUser(ctx context.Context, userID int64) (<-chan []model.Favorite, error)
}

// Promoter applies the seller-promotion multi-write: the seller profile
// upsert and the owning user's role flip commit in a single local
// transaction, so a crash can not leave a seller profile owned by a CLIENT.
type Promoter interface {
	PromoteSeller(ctx context.Context, s *model.Seller) error
}
