package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
)

// ProductRepo implements ProductRepository using PostgreSQL.
type ProductRepo struct{ db *DB }

// NewProductRepo constructs a product repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, description, producer, category, images, price, location, owner_id, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Producer, &p.Category,
		&images, &p.Price, &p.Location, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// List returns every product ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Get selects a product by id.
func (r *ProductRepo) Get(ctx context.Context, id int64) (*model.Product, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return p, err
}

// Create inserts a product, honoring a client-assigned positive id.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return nil, err
	}
	var row pgx.Row
	if p.ID > 0 {
		const q = `
INSERT INTO products (id, name, description, producer, category, images, price, location, owner_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + productCols
		row = r.db.Pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.Producer, p.Category,
			images, p.Price, p.Location, p.OwnerID, p.CreatedAt)
	} else {
		const q = `
INSERT INTO products (name, description, producer, category, images, price, location, owner_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING ` + productCols
		row = r.db.Pool.QueryRow(ctx, q, p.Name, p.Description, p.Producer, p.Category,
			images, p.Price, p.Location, p.OwnerID, p.CreatedAt)
	}
	created, err := scanProduct(row)
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	return created, err
}

// Update replaces the row with id p.ID.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) (*model.Product, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE products
SET name=$2, description=$3, producer=$4, category=$5, images=$6, price=$7, location=$8, owner_id=$9
WHERE id=$1
RETURNING ` + productCols
	row := r.db.Pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.Producer, p.Category,
		images, p.Price, p.Location, p.OwnerID)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return updated, err
}

// Delete removes a product by id.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
