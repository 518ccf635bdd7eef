package sqlite

import (
	"context"

	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store"
)

// FavoriteStore implements store.FavoriteStore over the favorites table.
type FavoriteStore struct{ d *DB }

var _ store.FavoriteStore = (*FavoriteStore)(nil)

func (s *FavoriteStore) Put(ctx context.Context, f model.Favorite) error {
	_, err := s.d.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, product_id) VALUES (?, ?)
		 ON CONFLICT(user_id, product_id) DO NOTHING`,
		f.UserID, f.ProductID)
	if err != nil {
		return err
	}
	s.d.favoritesN.broadcast()
	return nil
}

func (s *FavoriteStore) Delete(ctx context.Context, userID, productID int64) error {
	_, err := s.d.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return err
	}
	s.d.favoritesN.broadcast()
	return nil
}

func (s *FavoriteStore) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	rows, err := s.d.db.QueryContext(ctx,
		`SELECT user_id, product_id FROM favorites WHERE user_id = ? ORDER BY product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Favorite
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.UserID, &f.ProductID); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *FavoriteStore) ObserveByUser(ctx context.Context, userID int64) (<-chan []model.Favorite, error) {
	return observe(ctx, s.d.favoritesN, func(ctx context.Context) ([]model.Favorite, error) {
		return s.ListByUser(ctx, userID)
	})
}
