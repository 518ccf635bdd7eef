// Package repository defines catalogd-side storage interfaces implemented by
// concrete backends.
package repository

import (
	"context"

	"github.com/mercadolocal/catalogsync/internal/model"
)

// ProductRepository is the authoritative product table.
type ProductRepository interface {
	// List returns every product ordered by id.
	List(ctx context.Context) ([]model.Product, error)
	// Get returns one product or errs.ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Product, error)
	// Create inserts a product. A positive p.ID is honored as a
	// client-assigned identifier; zero means "assign one".
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	// Update replaces the row with id p.ID.
	Update(ctx context.Context, p *model.Product) (*model.Product, error)
	// Delete removes by id; errs.ErrNotFound when no row matched.
	Delete(ctx context.Context, id int64) error
}

// SellerRepository is the authoritative seller profile table, keyed by user id.
type SellerRepository interface {
	List(ctx context.Context) ([]model.Seller, error)
	ListByEmail(ctx context.Context, email string) ([]model.Seller, error)
	Get(ctx context.Context, userID int64) (*model.Seller, error)
	// Create inserts the profile under the caller-supplied user id.
	Create(ctx context.Context, s *model.Seller) (*model.Seller, error)
	// Save replaces the stored profile.
	Save(ctx context.Context, s *model.Seller) (*model.Seller, error)
}

// UserRepository is the authoritative account table.
type UserRepository interface {
	// Create inserts a user and returns the row with its assigned id.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) (*model.User, error)
	// SetRole flips only the role column.
	SetRole(ctx context.Context, id int64, role model.Role) error
}
