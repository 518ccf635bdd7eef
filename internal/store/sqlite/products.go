package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store"
)

// ProductStore implements store.ProductStore over the products table.
type ProductStore struct{ d *DB }

var _ store.ProductStore = (*ProductStore)(nil)

func (s *ProductStore) Get(ctx context.Context, id int64) (*model.Product, error) {
	return getJSON[model.Product](ctx, s.d, `SELECT data FROM products WHERE id = ?`, id)
}

func (s *ProductStore) Observe(ctx context.Context, id int64) (<-chan *model.Product, error) {
	return observe(ctx, s.d.productsN, func(ctx context.Context) (*model.Product, error) {
		p, err := s.Get(ctx, id)
		if err != nil {
			// row gone: emit nil rather than tearing the stream down
			return nil, nil //nolint:nilerr
		}
		return p, nil
	})
}

func (s *ProductStore) List(ctx context.Context, f store.ProductFilter) ([]model.Product, error) {
	all, err := listJSON[model.Product](ctx, s.d, `SELECT data FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(all))
	for _, p := range all {
		if matches(&p, f) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *ProductStore) ObserveList(ctx context.Context, f store.ProductFilter) (<-chan []model.Product, error) {
	return observe(ctx, s.d.productsN, func(ctx context.Context) ([]model.Product, error) {
		return s.List(ctx, f)
	})
}

func (s *ProductStore) Upsert(ctx context.Context, p *model.Product) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.d.db.ExecContext(ctx,
		`INSERT INTO products (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		p.ID, string(blob))
	if err != nil {
		return err
	}
	s.d.productsN.broadcast()
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.d.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return err
	}
	s.d.productsN.broadcast()
	return nil
}

func (s *ProductStore) BulkUpsert(ctx context.Context, ps []model.Product) (err error) {
	if len(ps) == 0 {
		return nil
	}
	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for i := range ps {
		blob, merr := json.Marshal(&ps[i])
		if merr != nil {
			err = merr
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO products (id, data) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
			ps[i].ID, string(blob)); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	s.d.productsN.broadcast()
	return nil
}

func matches(p *model.Product, f store.ProductFilter) bool {
	if f.OwnerID != nil && !p.OwnedBy(*f.OwnerID) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.City != "" && !containsFold(p.Location, f.City) {
		return false
	}
	if f.SellerName != "" && !containsFold(p.Producer, f.SellerName) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
