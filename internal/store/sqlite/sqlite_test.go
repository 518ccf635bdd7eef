package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func int64p(v int64) *int64 { return &v }

func TestProducts_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	ps := db.Products()

	p := &model.Product{
		ID: 1, Name: "honey", Category: "food",
		Price:     decimal.RequireFromString("4.50"),
		Images:    []string{"img-a"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, ps.Upsert(ctx, p))

	got, err := ps.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "honey", got.Name)
	require.True(t, got.Price.Equal(p.Price))

	// replace on conflict
	p.Name = "raw honey"
	require.NoError(t, ps.Upsert(ctx, p))
	got, err = ps.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "raw honey", got.Name)

	require.NoError(t, ps.Delete(ctx, 1))
	_, err = ps.Get(ctx, 1)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// deleting an absent row is a no-op
	require.NoError(t, ps.Delete(ctx, 1))
}

func TestProducts_ListFilters(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	ps := db.Products()

	require.NoError(t, ps.BulkUpsert(ctx, []model.Product{
		{ID: 1, Name: "apples", Category: "fruit", Location: "Cuenca centro", Producer: "Valle Verde", OwnerID: int64p(7)},
		{ID: 2, Name: "pears", Category: "Fruit", Location: "Loja", Producer: "La Granja", OwnerID: int64p(8)},
		{ID: 3, Name: "bread", Category: "bakery", Location: "Cuenca", Producer: "valle verde", OwnerID: int64p(7)},
	}))

	byOwner, err := ps.List(ctx, store.ProductFilter{OwnerID: int64p(7)})
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	byCat, err := ps.List(ctx, store.ProductFilter{Category: "fruit"})
	require.NoError(t, err)
	require.Len(t, byCat, 2, "category matches case-insensitively")

	byCity, err := ps.List(ctx, store.ProductFilter{City: "cuenca"})
	require.NoError(t, err)
	require.Len(t, byCity, 2)

	bySeller, err := ps.List(ctx, store.ProductFilter{SellerName: "Valle"})
	require.NoError(t, err)
	require.Len(t, bySeller, 2)

	none, err := ps.List(ctx, store.ProductFilter{Category: "fish"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestProducts_ObserveEmitsOnChange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db := openTest(t)
	ps := db.Products()

	require.NoError(t, ps.Upsert(ctx, &model.Product{ID: 1, Name: "v1"}))

	ch, err := ps.Observe(ctx, 1)
	require.NoError(t, err)

	select {
	case got := <-ch:
		require.Equal(t, "v1", got.Name)
	case <-ctx.Done():
		t.Fatal("no initial emission")
	}

	require.NoError(t, ps.Upsert(ctx, &model.Product{ID: 1, Name: "v2"}))
	select {
	case got := <-ch:
		require.Equal(t, "v2", got.Name)
	case <-ctx.Done():
		t.Fatal("no emission after change")
	}

	// deletion is observed as nil, the stream stays open
	require.NoError(t, ps.Delete(ctx, 1))
	select {
	case got := <-ch:
		require.Nil(t, got)
	case <-ctx.Done():
		t.Fatal("no emission after delete")
	}
}

func TestPromoteSeller_Atomic(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	require.NoError(t, db.Users().Upsert(ctx, &model.User{ID: 7, Name: "Vera", Email: "v@e.co", Role: model.RoleClient}))

	require.NoError(t, db.PromoteSeller(ctx, &model.Seller{UserID: 7, Entrepreneurship: "Valle Verde"}))

	s, err := db.Sellers().Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Valle Verde", s.Entrepreneurship)

	u, err := db.Users().Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, model.RoleSeller, u.Role)
}

func TestPromoteSeller_MissingUserRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	err := db.PromoteSeller(ctx, &model.Seller{UserID: 99, Entrepreneurship: "Ghost"})
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = db.Sellers().Get(ctx, 99)
	require.ErrorIs(t, err, errs.ErrNotFound, "seller write must roll back with the failed role flip")
}

func TestUsers_GetByEmail(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	require.NoError(t, db.Users().Upsert(ctx, &model.User{ID: 1, Email: "Vera@E.co"}))

	u, err := db.Users().GetByEmail(ctx, "vera@e.CO")
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)

	_, err = db.Users().GetByEmail(ctx, "missing@e.co")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFavorites_CompositeKey(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	fs := db.Favorites()

	require.NoError(t, fs.Put(ctx, model.Favorite{UserID: 1, ProductID: 10}))
	require.NoError(t, fs.Put(ctx, model.Favorite{UserID: 1, ProductID: 10}))
	require.NoError(t, fs.Put(ctx, model.Favorite{UserID: 1, ProductID: 11}))
	require.NoError(t, fs.Put(ctx, model.Favorite{UserID: 2, ProductID: 10}))

	favs, err := fs.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, favs, 2)

	require.NoError(t, fs.Delete(ctx, 1, 10))
	require.NoError(t, fs.Delete(ctx, 1, 10)) // second delete is a no-op

	favs, err = fs.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, favs, 1)
}
