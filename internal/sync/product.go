package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/session"
	"github.com/mercadolocal/catalogsync/internal/store"
)

// CreateResult tags a created product with its sync state so callers can
// decide whether to retry later. Creation itself never fails on remote
// trouble; the product is always persisted somewhere.
type CreateResult struct {
	Product model.Product
	Synced  bool   // true when the remote authority confirmed the create
	Reason  string // why the write stayed local-only; empty when Synced
}

// ProductCoordinator orchestrates product mutations against the remote
// authority with fallback to local-only commits, plus the local read paths.
type ProductCoordinator struct {
	remote   ProductRemote
	products store.ProductStore
	sellers  store.SellerStore
	alloc    *IdentifierAllocator
	log      *zap.Logger
	now      func() time.Time
}

// NewProductCoordinator wires the product sync coordinator. log may be nil.
func NewProductCoordinator(r ProductRemote, products store.ProductStore, sellers store.SellerStore, alloc *IdentifierAllocator, log *zap.Logger) *ProductCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductCoordinator{
		remote:   r,
		products: products,
		sellers:  sellers,
		alloc:    alloc,
		log:      log,
		now:      time.Now,
	}
}

func validateProduct(p *model.Product) error {
	if p == nil {
		return errors.New("validation: nil product")
	}
	if p.Name == "" {
		return errors.New("validation: empty name")
	}
	if len(p.Images) > model.MaxProductImages {
		return fmt.Errorf("validation: too many images (%d > %d)", len(p.Images), model.MaxProductImages)
	}
	if p.Price.IsNegative() {
		return errors.New("validation: negative price")
	}
	return nil
}

// CreateWithSync creates a product, remote-first. The returned CreateResult
// always carries a persisted product with a non-zero identifier; Synced
// tells whether the remote authority has it too. Only local store failures
// and validation errors surface as errors.
func (c *ProductCoordinator) CreateWithSync(ctx context.Context, sess session.Session, p *model.Product) (CreateResult, error) {
	if err := validateProduct(p); err != nil {
		return CreateResult{}, err
	}
	if p.OwnerID == nil && sess.UserID != 0 {
		owner := sess.UserID
		p.OwnerID = &owner
	}
	// Denormalized producer name must reflect the owner's current
	// entrepreneurship at creation time.
	if p.OwnerID != nil {
		if s, err := c.sellers.Get(ctx, *p.OwnerID); err == nil {
			p.Producer = s.Entrepreneurship
		} else if !errors.Is(err, errs.ErrNotFound) {
			return CreateResult{}, err
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = c.now()
	}
	p.ID = c.alloc.NextProductID(ctx)

	created, err := c.remote.CreateProduct(ctx, p)
	if err != nil {
		// Any remote failure is absorbed: the product survives locally
		// under a time-derived id and a later sync pass reconciles it.
		p.ID = c.alloc.FallbackID()
		if werr := c.products.Upsert(ctx, p); werr != nil {
			return CreateResult{}, werr
		}
		c.log.Warn("product created local-only",
			zap.Int64("id", p.ID), zap.Error(err))
		return CreateResult{Product: *p, Synced: false, Reason: err.Error()}, nil
	}
	if created == nil {
		// 2xx with an empty body: the authority accepted our payload as-is
		created = p
	}
	if err := c.products.Upsert(ctx, created); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Product: *created, Synced: true}, nil
}

// UpdateWithSync updates a product remote-first but always commits locally.
// The boolean reports whether the remote authority confirmed the update.
func (c *ProductCoordinator) UpdateWithSync(ctx context.Context, sess session.Session, p *model.Product) (bool, error) {
	if err := validateProduct(p); err != nil {
		return false, err
	}
	if p.OwnerID != nil && !sess.Owns(p.OwnerID) {
		return false, fmt.Errorf("update product %d: %w", p.ID, errs.ErrUnauthorized)
	}

	synced := true
	stored := p
	if updated, err := c.remote.UpdateProduct(ctx, p); err != nil {
		synced = false
		c.log.Warn("product update local-only", zap.Int64("id", p.ID), zap.Error(err))
	} else if updated != nil {
		// a nil body on 2xx means the authority echoed nothing back
		stored = updated
	}
	if err := c.products.Upsert(ctx, stored); err != nil {
		return false, err
	}
	return synced, nil
}

// DeleteWithSync deletes a product remotely and locally. A remote 404 counts
// as remote confirmation (idempotent delete); other remote failures degrade
// to a local-only delete reported through the boolean.
func (c *ProductCoordinator) DeleteWithSync(ctx context.Context, sess session.Session, p *model.Product) (bool, error) {
	if p == nil {
		return false, errors.New("validation: nil product")
	}
	if p.OwnerID != nil && !sess.Owns(p.OwnerID) {
		return false, fmt.Errorf("delete product %d: %w", p.ID, errs.ErrUnauthorized)
	}

	synced := true
	if err := c.remote.DeleteProduct(ctx, p.ID); err != nil && !errors.Is(err, errs.ErrNotFoundRemotely) {
		synced = false
		c.log.Warn("product delete local-only", zap.Int64("id", p.ID), zap.Error(err))
	}
	if err := c.products.Delete(ctx, p.ID); err != nil {
		return false, err
	}
	return synced, nil
}

// PullAndMergeAll lists every remote product and bulk-upserts the result
// into the local store, replacing on conflict by id. Best-effort: failures
// are logged and swallowed. Returns the number of merged products.
func (c *ProductCoordinator) PullAndMergeAll(ctx context.Context) int {
	var ps []model.Product
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var lerr error
		ps, lerr = c.remote.ListProducts(ctx)
		if errors.Is(lerr, errs.ErrRemoteUnavailable) {
			return retry.RetryableError(lerr)
		}
		// a definitive rejection will not improve with backoff
		return lerr
	})
	if err != nil {
		c.log.Warn("product pull skipped, remote list failed", zap.Error(err))
		return 0
	}
	if err := c.products.BulkUpsert(ctx, ps); err != nil {
		c.log.Error("product pull merge failed", zap.Error(err))
		return 0
	}
	c.log.Info("product pull merged", zap.Int("count", len(ps)))
	return len(ps)
}

// ---- local read paths ----

// ByID returns the locally stored product.
func (c *ProductCoordinator) ByID(ctx context.Context, id int64) (*model.Product, error) {
	return c.products.Get(ctx, id)
}

// ObserveByID streams the locally stored product as it changes.
func (c *ProductCoordinator) ObserveByID(ctx context.Context, id int64) (<-chan *model.Product, error) {
	return c.products.Observe(ctx, id)
}

// All returns every locally stored product.
func (c *ProductCoordinator) All(ctx context.Context) ([]model.Product, error) {
	return c.products.List(ctx, store.ProductFilter{})
}

// ByOwner returns the owner's locally stored products.
func (c *ProductCoordinator) ByOwner(ctx context.Context, ownerID int64) ([]model.Product, error) {
	return c.products.List(ctx, store.ProductFilter{OwnerID: &ownerID})
}

// ObserveByOwner streams the owner's products (dashboard read path).
func (c *ProductCoordinator) ObserveByOwner(ctx context.Context, ownerID int64) (<-chan []model.Product, error) {
	return c.products.ObserveList(ctx, store.ProductFilter{OwnerID: &ownerID})
}

// ByCategory filters locally by category.
func (c *ProductCoordinator) ByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return c.products.List(ctx, store.ProductFilter{Category: category})
}

// ByCity filters locally by location text.
func (c *ProductCoordinator) ByCity(ctx context.Context, city string) ([]model.Product, error) {
	return c.products.List(ctx, store.ProductFilter{City: city})
}

// BySellerNameSearch free-text-matches the denormalized producer name.
func (c *ProductCoordinator) BySellerNameSearch(ctx context.Context, q string) ([]model.Product, error) {
	return c.products.List(ctx, store.ProductFilter{SellerName: q})
}
