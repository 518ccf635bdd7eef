package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store"
)

// UserStore implements store.UserStore over the users table.
type UserStore struct{ d *DB }

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Get(ctx context.Context, id int64) (*model.User, error) {
	return getJSON[model.User](ctx, s.d, `SELECT data FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	all, err := listJSON[model.User](ctx, s.d, `SELECT data FROM users ORDER BY id`)
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

func (s *UserStore) Upsert(ctx context.Context, u *model.User) error {
	blob, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = s.d.db.ExecContext(ctx,
		`INSERT INTO users (id, data) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		u.ID, string(blob))
	if err != nil {
		return err
	}
	s.d.usersN.broadcast()
	return nil
}

func (s *UserStore) SetRole(ctx context.Context, id int64, role model.Role) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("set role %d: %w", id, err)
	}
	u.Role = role
	return s.Upsert(ctx, u)
}
