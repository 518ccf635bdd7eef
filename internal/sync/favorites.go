package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store"
)

// FavoritesIndex is the join-style read path over the purely local
// favorites set. Favorites never touch the remote authority.
type FavoritesIndex struct {
	favorites store.FavoriteStore
	products  store.ProductStore
	log       *zap.Logger
}

// NewFavoritesIndex wires the favorites index. log may be nil.
func NewFavoritesIndex(favorites store.FavoriteStore, products store.ProductStore, log *zap.Logger) *FavoritesIndex {
	if log == nil {
		log = zap.NewNop()
	}
	return &FavoritesIndex{favorites: favorites, products: products, log: log}
}

// Add marks a product as a favorite. Re-adding an existing favorite is
// idempotent, not an error.
func (f *FavoritesIndex) Add(ctx context.Context, userID, productID int64) error {
	if userID == 0 || productID == 0 {
		return errors.New("validation: empty userID/productID")
	}
	return f.favorites.Put(ctx, model.Favorite{UserID: userID, ProductID: productID})
}

// Remove unmarks a favorite. Removing an absent pair is a no-op.
func (f *FavoritesIndex) Remove(ctx context.Context, userID, productID int64) error {
	if userID == 0 || productID == 0 {
		return errors.New("validation: empty userID/productID")
	}
	return f.favorites.Delete(ctx, userID, productID)
}

// FavoritesForUser joins favorite rows against the product store. Favorites
// pointing at products no longer cached locally are skipped.
func (f *FavoritesIndex) FavoritesForUser(ctx context.Context, userID int64) ([]model.Product, error) {
	favs, err := f.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(favs))
	for _, fav := range favs {
		p, err := f.products.Get(ctx, fav.ProductID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// ObserveFavoritesForUser streams the joined favorite products on every
// favorites change; the join against products is re-read at emit time.
func (f *FavoritesIndex) ObserveFavoritesForUser(ctx context.Context, userID int64) (<-chan []model.Product, error) {
	favCh, err := f.favorites.ObserveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(chan []model.Product, 1)
	go func() {
		defer close(out)
		for range favCh {
			ps, err := f.FavoritesForUser(ctx, userID)
			if err != nil {
				f.log.Warn("favorites join failed", zap.Int64("userId", userID), zap.Error(err))
				continue
			}
			select {
			case out <- ps:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
