package sqlite

import (
	"context"
	"encoding/json"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store"
)

// SellerStore implements store.SellerStore over the sellers table.
type SellerStore struct{ d *DB }

var _ store.SellerStore = (*SellerStore)(nil)

func (s *SellerStore) Get(ctx context.Context, userID int64) (*model.Seller, error) {
	return getJSON[model.Seller](ctx, s.d, `SELECT data FROM sellers WHERE user_id = ?`, userID)
}

func (s *SellerStore) GetByEmail(ctx context.Context, email string) (*model.Seller, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if model.EmailEquals(all[i].Email, email) {
			return &all[i], nil
		}
	}
	return nil, errs.ErrNotFound
}

func (s *SellerStore) List(ctx context.Context) ([]model.Seller, error) {
	return listJSON[model.Seller](ctx, s.d, `SELECT data FROM sellers ORDER BY user_id`)
}

func (s *SellerStore) Upsert(ctx context.Context, sl *model.Seller) error {
	blob, err := json.Marshal(sl)
	if err != nil {
		return err
	}
	_, err = s.d.db.ExecContext(ctx,
		`INSERT INTO sellers (user_id, data) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data`,
		sl.UserID, string(blob))
	if err != nil {
		return err
	}
	s.d.sellersN.broadcast()
	return nil
}

func (s *SellerStore) Delete(ctx context.Context, userID int64) error {
	if _, err := s.d.db.ExecContext(ctx, `DELETE FROM sellers WHERE user_id = ?`, userID); err != nil {
		return err
	}
	s.d.sellersN.broadcast()
	return nil
}
