// Package sync contains the local/remote synchronization core: coordinators
// that try the remote authority first and degrade to local-only writes where
// the entity semantics allow it.
package sync

import (
	"context"

	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/remote"
)

// ProductRemote is the slice of the remote authority the product side needs.
type ProductRemote interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// SellerRemote is the slice of the remote authority the seller side needs.
type SellerRemote interface {
	ListSellers(ctx context.Context) ([]model.Seller, error)
	ListSellersByEmail(ctx context.Context, email string) ([]model.Seller, error)
	GetSeller(ctx context.Context, userID int64) (*model.Seller, error)
	CreateSeller(ctx context.Context, s *model.Seller) (*model.Seller, error)
	PatchSeller(ctx context.Context, userID int64, partial map[string]any) (*model.Seller, error)
	PutSeller(ctx context.Context, userID int64, partial map[string]any) (*model.Seller, error)
}

var (
	_ ProductRemote = (*remote.Client)(nil)
	_ SellerRemote  = (*remote.Client)(nil)
)
