package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var productColNames = []string{"id", "name", "description", "producer", "category", "images", "price", "location", "owner_id", "created_at"}

func productRow(id int64, name string, owner *int64) *pgxmock.Rows {
	return pgxmock.NewRows(productColNames).
		AddRow(id, name, "", "Valle Verde", "food", []byte(`["img-a"]`),
			decimal.RequireFromString("4.50"), "Cuenca", owner, time.Now().UTC())
}

func TestProductRepo_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	owner := int64(7)
	mock.ExpectQuery(`SELECT id, name, description, producer, category, images, price, location, owner_id, created_at FROM products WHERE id=\$1`).
		WithArgs(int64(42)).
		WillReturnRows(productRow(42, "honey", &owner))

	p, err := r.Get(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), p.ID)
	require.Equal(t, []string{"img-a"}, p.Images)
	require.True(t, p.Price.Equal(decimal.RequireFromString("4.50")))
	require.Equal(t, owner, *p.OwnerID)
}

func TestProductRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE id=\$1`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), 9)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_Create_ClientAssignedID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	p := &model.Product{
		ID: 42, Name: "honey", Producer: "Valle Verde", Category: "food",
		Images: []string{"img-a"}, Price: decimal.RequireFromString("4.50"),
		Location: "Cuenca", CreatedAt: time.Now().UTC(),
	}
	mock.ExpectQuery(`INSERT INTO products \(id, name, description, producer, category, images, price, location, owner_id, created_at\)`).
		WithArgs(p.ID, p.Name, p.Description, p.Producer, p.Category,
			[]byte(`["img-a"]`), p.Price, p.Location, p.OwnerID, p.CreatedAt).
		WillReturnRows(productRow(42, "honey", nil))

	created, err := r.Create(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, int64(42), created.ID)
}

func TestProductRepo_Create_AssignsIDWhenZero(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	p := &model.Product{Name: "bread", Price: decimal.Zero, CreatedAt: time.Now().UTC()}
	mock.ExpectQuery(`INSERT INTO products \(name, description, producer, category, images, price, location, owner_id, created_at\)`).
		WithArgs(p.Name, p.Description, p.Producer, p.Category,
			[]byte(`null`), p.Price, p.Location, p.OwnerID, p.CreatedAt).
		WillReturnRows(productRow(1, "bread", nil))

	created, err := r.Create(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
}

func TestProductRepo_Update_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	p := &model.Product{ID: 5, Name: "honey"}
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(p.ID, p.Name, p.Description, p.Producer, p.Category,
			[]byte(`null`), p.Price, p.Location, p.OwnerID).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Update(context.Background(), p)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	mock.ExpectExec(`DELETE FROM products WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), 5))

	mock.ExpectExec(`DELETE FROM products WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), 5), errs.ErrNotFound)
}

func TestProductRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	rows := pgxmock.NewRows(productColNames).
		AddRow(int64(1), "a", "", "", "", []byte(nil), decimal.Zero, "", (*int64)(nil), time.Now().UTC()).
		AddRow(int64(2), "b", "", "", "", []byte(`[]`), decimal.Zero, "", (*int64)(nil), time.Now().UTC())
	mock.ExpectQuery(`SELECT .+ FROM products ORDER BY id`).WillReturnRows(rows)

	out, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Nil(t, out[0].Images)
}

func TestProductRepo_List_QueryErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM products ORDER BY id`).
		WillReturnError(errors.New("q-fail"))
	_, err := r.List(context.Background())
	require.Error(t, err)
}
