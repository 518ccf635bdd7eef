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

// SellerCoordinator orchestrates seller registration and profile edits.
// Unlike the product side, a profile edit that the remote authority rejects
// entirely is NOT committed locally: sellers are discoverable by other
// users, so their profile must not silently diverge from the remote one.
type SellerCoordinator struct {
	remote     SellerRemote
	sellers    store.SellerStore
	promoter   store.Promoter
	propagator *ConsistencyPropagator
	log        *zap.Logger
}

// NewSellerCoordinator wires the seller sync coordinator. propagator is
// required; log may be nil.
func NewSellerCoordinator(r SellerRemote, sellers store.SellerStore, promoter store.Promoter, propagator *ConsistencyPropagator, log *zap.Logger) *SellerCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &SellerCoordinator{
		remote:     r,
		sellers:    sellers,
		promoter:   promoter,
		propagator: propagator,
		log:        log,
	}
}

// sellerPatch is the payload shape both PATCH and PUT accept.
func sellerPatch(s *model.Seller) map[string]any {
	return map[string]any{
		"name":             s.Name,
		"lastname":         s.LastName,
		"email":            s.Email,
		"phone":            s.Phone,
		"address":          s.Address,
		"entrepreneurship": s.Entrepreneurship,
		"photo":            s.PhotoRef,
		"latitude":         s.Latitude,
		"longitude":        s.Longitude,
	}
}

// ConvertToSeller promotes a CLIENT user into a seller. The seller record
// shares the user's identifier (co-identity). Remote existence is decided by
// scanning the remote seller list rather than a direct lookup, since the
// authority is not trusted to distinguish 404 from empty result here. The
// remote step runs first; when it fails, no local state changes. The local
// seller write and the role flip commit in one store transaction.
func (c *SellerCoordinator) ConvertToSeller(ctx context.Context, sess session.Session, user *model.User, entrepreneurship, address string) (*model.Seller, error) {
	if user == nil || user.ID == 0 {
		return nil, errors.New("validation: empty user")
	}
	if entrepreneurship == "" {
		return nil, errors.New("validation: empty entrepreneurship name")
	}
	if sess.UserID != user.ID {
		return nil, fmt.Errorf("convert user %d: %w", user.ID, errs.ErrUnauthorized)
	}
	if address == "" {
		address = user.Address
	}
	s := &model.Seller{
		UserID:           user.ID,
		Name:             user.Name,
		LastName:         user.LastName,
		Email:            user.Email,
		Phone:            user.Phone,
		Address:          address,
		Entrepreneurship: entrepreneurship,
		PhotoRef:         user.PhotoRef,
	}

	existing, err := c.remote.ListSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("convert user %d: list sellers: %w", user.ID, err)
	}
	found := false
	for i := range existing {
		if existing[i].UserID == user.ID {
			found = true
			break
		}
	}

	var saved *model.Seller
	if found {
		saved, err = c.remote.PatchSeller(ctx, user.ID, sellerPatch(s))
	} else {
		// relies on the authority honoring the client-assigned id
		saved, err = c.remote.CreateSeller(ctx, s)
	}
	if err != nil {
		return nil, fmt.Errorf("convert user %d: %w", user.ID, err)
	}
	if saved == nil {
		saved = s
	}

	if err := c.promoter.PromoteSeller(ctx, saved); err != nil {
		return nil, fmt.Errorf("convert user %d: local promote: %w", user.ID, err)
	}
	c.log.Info("user promoted to seller", zap.Int64("userId", user.ID))
	return saved, nil
}

// UpdateSellerAPI edits the seller profile. The remote copy is checked by a
// direct get first; when that fails, the caller gets a distinct
// not-found-remotely failure and the local store stays untouched. PATCH is
// tried first, PUT with the same payload on PATCH rejection. Only a remote
// success is mirrored locally.
func (c *SellerCoordinator) UpdateSellerAPI(ctx context.Context, sess session.Session, s *model.Seller) error {
	if s == nil || s.UserID == 0 {
		return errors.New("validation: empty seller")
	}
	if sess.UserID != s.UserID {
		return fmt.Errorf("update seller %d: %w", s.UserID, errs.ErrUnauthorized)
	}

	if _, err := c.remote.GetSeller(ctx, s.UserID); err != nil {
		return fmt.Errorf("update seller %d: %w: %v", s.UserID, errs.ErrNotFoundRemotely, err)
	}

	// previous local copy decides whether a rename fan-out is due
	prev, prevErr := c.sellers.Get(ctx, s.UserID)

	patch := sellerPatch(s)
	saved, err := c.remote.PatchSeller(ctx, s.UserID, patch)
	if err != nil {
		c.log.Warn("seller patch rejected, falling back to put",
			zap.Int64("userId", s.UserID), zap.Error(err))
		saved, err = c.remote.PutSeller(ctx, s.UserID, patch)
	}
	if err != nil {
		return fmt.Errorf("update seller %d: %w", s.UserID, err)
	}
	if saved == nil {
		saved = s
	}
	if err := c.sellers.Upsert(ctx, saved); err != nil {
		return err
	}

	if prevErr == nil && prev.Entrepreneurship != saved.Entrepreneurship {
		if err := c.propagator.PropagateProducerRename(ctx, saved.UserID, saved.Entrepreneurship); err != nil {
			return err
		}
	}
	return nil
}

// SyncSellersWithAPI pulls the full remote seller list and upserts each into
// the local store, tallying inserts and updates. One bad record does not
// abort the batch; per-seller failures are logged individually. The remote
// list is returned regardless of individual local-write outcomes.
func (c *SellerCoordinator) SyncSellersWithAPI(ctx context.Context) ([]model.Seller, error) {
	var sellers []model.Seller
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var lerr error
		sellers, lerr = c.remote.ListSellers(ctx)
		if errors.Is(lerr, errs.ErrRemoteUnavailable) {
			return retry.RetryableError(lerr)
		}
		// a definitive rejection will not improve with backoff
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("sync sellers: %w", err)
	}

	var inserted, updated, failed int
	for i := range sellers {
		_, gerr := c.sellers.Get(ctx, sellers[i].UserID)
		fresh := errors.Is(gerr, errs.ErrNotFound)
		if uerr := c.sellers.Upsert(ctx, &sellers[i]); uerr != nil {
			failed++
			c.log.Warn("seller upsert failed",
				zap.Int64("userId", sellers[i].UserID), zap.Error(uerr))
			continue
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}
	c.log.Info("sellers synced",
		zap.Int("inserted", inserted), zap.Int("updated", updated), zap.Int("failed", failed))
	return sellers, nil
}

// GetSellerByEmail resolves a seller through the server-side email filter,
// falling back to a client-side case-insensitive scan of the full list when
// the filter endpoint returns nothing.
func (c *SellerCoordinator) GetSellerByEmail(ctx context.Context, email string) (*model.Seller, error) {
	if email == "" {
		return nil, errors.New("validation: empty email")
	}
	if found, err := c.remote.ListSellersByEmail(ctx, email); err == nil && len(found) > 0 {
		return &found[0], nil
	}
	all, err := c.remote.ListSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("seller by email: %w", err)
	}
	for i := range all {
		if model.EmailEquals(all[i].Email, email) {
			return &all[i], nil
		}
	}
	return nil, errs.ErrNotFound
}
