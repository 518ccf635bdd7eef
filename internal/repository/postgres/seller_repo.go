package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
)

// SellerRepo implements SellerRepository using PostgreSQL. Rows are keyed by
// the owning user's id.
type SellerRepo struct{ db *DB }

// NewSellerRepo constructs a seller repository.
func NewSellerRepo(db *DB) *SellerRepo { return &SellerRepo{db: db} }

const sellerCols = `user_id, name, last_name, email, phone, address, entrepreneurship, photo, latitude, longitude`

func scanSeller(row pgx.Row) (*model.Seller, error) {
	var s model.Seller
	err := row.Scan(&s.UserID, &s.Name, &s.LastName, &s.Email, &s.Phone, &s.Address,
		&s.Entrepreneurship, &s.PhotoRef, &s.Latitude, &s.Longitude)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SellerRepo) list(ctx context.Context, q string, args ...any) ([]model.Seller, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seller
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// List returns every seller profile ordered by user id.
func (r *SellerRepo) List(ctx context.Context) ([]model.Seller, error) {
	return r.list(ctx, `SELECT `+sellerCols+` FROM sellers ORDER BY user_id`)
}

// ListByEmail returns profiles matching the email, case-insensitive.
func (r *SellerRepo) ListByEmail(ctx context.Context, email string) ([]model.Seller, error) {
	return r.list(ctx, `SELECT `+sellerCols+` FROM sellers WHERE lower(email)=lower($1)`, email)
}

// Get selects one profile by user id.
func (r *SellerRepo) Get(ctx context.Context, userID int64) (*model.Seller, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+sellerCols+` FROM sellers WHERE user_id=$1`, userID)
	s, err := scanSeller(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return s, err
}

// Create inserts the profile under the caller-supplied user id.
func (r *SellerRepo) Create(ctx context.Context, s *model.Seller) (*model.Seller, error) {
	const q = `
INSERT INTO sellers (user_id, name, last_name, email, phone, address, entrepreneurship, photo, latitude, longitude)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + sellerCols
	row := r.db.Pool.QueryRow(ctx, q, s.UserID, s.Name, s.LastName, s.Email, s.Phone,
		s.Address, s.Entrepreneurship, s.PhotoRef, s.Latitude, s.Longitude)
	created, err := scanSeller(row)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	return created, err
}

// Save replaces the stored profile.
func (r *SellerRepo) Save(ctx context.Context, s *model.Seller) (*model.Seller, error) {
	const q = `
UPDATE sellers
SET name=$2, last_name=$3, email=$4, phone=$5, address=$6, entrepreneurship=$7, photo=$8, latitude=$9, longitude=$10
WHERE user_id=$1
RETURNING ` + sellerCols
	row := r.db.Pool.QueryRow(ctx, q, s.UserID, s.Name, s.LastName, s.Email, s.Phone,
		s.Address, s.Entrepreneurship, s.PhotoRef, s.Latitude, s.Longitude)
	saved, err := scanSeller(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return saved, err
}
