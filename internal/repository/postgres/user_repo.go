package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, name, last_name, email, pwd_hash, role, phone, address, photo, verify_code, reset_code`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.LastName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Phone, &u.Address, &u.PhotoRef, &u.VerifyCode, &u.ResetCode)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and returns the row with its assigned id.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
INSERT INTO users (name, last_name, email, pwd_hash, role, phone, address, photo, verify_code, reset_code)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + userCols
	row := r.db.Pool.QueryRow(ctx, q, u.Name, u.LastName, u.Email, u.PasswordHash, u.Role,
		u.Phone, u.Address, u.PhotoRef, u.VerifyCode, u.ResetCode)
	created, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	return created, err
}

// GetByID selects a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return u, err
}

// GetByEmail selects a user by email, case-insensitive.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(email)=lower($1)`, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return u, err
}

// Update replaces the mutable account fields.
func (r *UserRepo) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
UPDATE users
SET name=$2, last_name=$3, email=$4, role=$5, phone=$6, address=$7, photo=$8, verify_code=$9, reset_code=$10
WHERE id=$1
RETURNING ` + userCols
	row := r.db.Pool.QueryRow(ctx, q, u.ID, u.Name, u.LastName, u.Email, u.Role,
		u.Phone, u.Address, u.PhotoRef, u.VerifyCode, u.ResetCode)
	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return updated, err
}

// SetRole flips only the role column.
func (r *UserRepo) SetRole(ctx context.Context, id int64, role model.Role) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET role=$2 WHERE id=$1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
