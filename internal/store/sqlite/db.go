// Package sqlite implements store.Store over an embedded SQLite database.
// Each entity lives in a keyed table holding the JSON-encoded row; reactive
// queries are driven by an in-process per-table change notifier.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS products  (id INTEGER PRIMARY KEY, data TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS sellers   (user_id INTEGER PRIMARY KEY, data TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS users     (id INTEGER PRIMARY KEY, data TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS favorites (user_id INTEGER NOT NULL, product_id INTEGER NOT NULL,
                                      PRIMARY KEY (user_id, product_id));
`

// DB is the sqlite-backed store aggregate.
type DB struct {
	db *sql.DB

	productsN  *notifier
	sellersN   *notifier
	usersN     *notifier
	favoritesN *notifier
}

// Open creates (if needed) and opens the on-device database at path.
// ":memory:" is accepted for tests. Writes are serialized through a single
// connection, which gives the per-key write ordering coordinators rely on.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{
		db:         db,
		productsN:  newNotifier(),
		sellersN:   newNotifier(),
		usersN:     newNotifier(),
		favoritesN: newNotifier(),
	}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error { return d.db.Close() }

// Products returns the product store view.
func (d *DB) Products() *ProductStore { return &ProductStore{d: d} }

// Sellers returns the seller store view.
func (d *DB) Sellers() *SellerStore { return &SellerStore{d: d} }

// Users returns the user store view.
func (d *DB) Users() *UserStore { return &UserStore{d: d} }

// Favorites returns the favorites store view.
func (d *DB) Favorites() *FavoriteStore { return &FavoriteStore{d: d} }

// PromoteSeller upserts the seller profile and flips the owning user's role
// to SELLER in one transaction.
func (d *DB) PromoteSeller(ctx context.Context, s *model.Seller) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	blob, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sellers (user_id, data) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data`,
		s.UserID, string(blob)); err != nil {
		return err
	}

	var raw string
	if err = tx.QueryRowContext(ctx, `SELECT data FROM users WHERE id = ?`, s.UserID).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			err = fmt.Errorf("promote seller %d: user: %w", s.UserID, errs.ErrNotFound)
		}
		return err
	}
	var u model.User
	if err = json.Unmarshal([]byte(raw), &u); err != nil {
		return err
	}
	u.Role = model.RoleSeller
	ub, err := json.Marshal(&u)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE users SET data = ? WHERE id = ?`, string(ub), s.UserID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	d.sellersN.broadcast()
	d.usersN.broadcast()
	return nil
}

// ---- change notification ----

// notifier fans a coalesced change signal out to subscribers.
type notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[chan struct{}]struct{})}
}

func (n *notifier) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.subs, ch)
	n.mu.Unlock()
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default: // a pending signal already covers this change
		}
	}
	n.mu.Unlock()
}

// observe emits the current query result, then re-runs the query after each
// change signal. The output channel closes when ctx is done.
func observe[T any](ctx context.Context, n *notifier, query func(context.Context) (T, error)) (<-chan T, error) {
	cur, err := query(ctx)
	if err != nil {
		return nil, err
	}
	sig := n.subscribe()
	out := make(chan T, 1)
	out <- cur
	go func() {
		defer close(out)
		defer n.unsubscribe(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				v, err := query(ctx)
				if err != nil {
					continue
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// getJSON loads one JSON row into T; errs.ErrNotFound when absent.
func getJSON[T any](ctx context.Context, d *DB, q string, key any) (*T, error) {
	var raw string
	if err := d.db.QueryRowContext(ctx, q, key).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// listJSON loads every JSON row of a table into a slice of T.
func listJSON[T any](ctx context.Context, d *DB, q string, args ...any) ([]T, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
