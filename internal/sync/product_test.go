package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/remote"
	"github.com/mercadolocal/catalogsync/internal/session"
)

func TestProductCreateWithSync_RemoteConfirmed(t *testing.T) {
	ctx := context.Background()
	r := newFakeRemote()
	r.products[5] = model.Product{ID: 5, Name: "bread"}

	db := newTestDB(t)
	require.NoError(t, db.Sellers().Upsert(ctx, &model.Seller{
		UserID: 7, Email: "v@e.co", Entrepreneurship: "Valle Verde",
	}))
	c := NewProductCoordinator(r, db.Products(), db.Sellers(), NewIdentifierAllocator(r, nil), nil)

	sess := session.Session{UserID: 7, Role: model.RoleSeller}
	res, err := c.CreateWithSync(ctx, sess, &model.Product{
		Name:   "honey",
		Images: []string{"img-1"},
		Price:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.True(t, res.Synced)
	require.Equal(t, int64(6), res.Product.ID) // max remote id + 1
	require.Equal(t, "Valle Verde", res.Product.Producer)
	require.Equal(t, int64(7), *res.Product.OwnerID)

	got, err := c.ByID(ctx, 6)
	require.NoError(t, err)
	require.Equal(t, "honey", got.Name)

	_, ok := r.products[6]
	require.True(t, ok, "remote must hold the created product")
}

func TestProductCreateWithSync_RemoteDown_LocalOnly(t *testing.T) {
	ctx := context.Background()
	r := newFakeRemote()
	r.listProductsErr = errors.New("offline")
	r.createErr = errors.New("offline")

	db := newTestDB(t)
	c := NewProductCoordinator(r, db.Products(), db.Sellers(), NewIdentifierAllocator(r, nil), nil)

	res, err := c.CreateWithSync(ctx, session.Session{UserID: 7}, &model.Product{
		Name: "cheese", Price: decimal.NewFromInt(3),
	})
	require.NoError(t, err, "creation never fails visibly on remote trouble")
	require.False(t, res.Synced)
	require.NotEmpty(t, res.Reason)
	require.NotZero(t, res.Product.ID)

	got, err := c.ByID(ctx, res.Product.ID)
	require.NoError(t, err)
	require.Equal(t, "cheese", got.Name)
	require.Empty(t, r.products, "nothing must reach the remote store")
}

func TestProductCreateWithSync_Validation(t *testing.T) {
	ctx := context.Background()
	c, _ := newProductCoordinatorSimple(t)

	_, err := c.CreateWithSync(ctx, session.Anonymous, &model.Product{})
	require.Error(t, err)

	imgs := make([]string, model.MaxProductImages+1)
	_, err = c.CreateWithSync(ctx, session.Anonymous, &model.Product{Name: "x", Images: imgs})
	require.Error(t, err)
}

func newProductCoordinatorSimple(t *testing.T) (*ProductCoordinator, *fakeRemote) {
	t.Helper()
	r := newFakeRemote()
	db := newTestDB(t)
	return NewProductCoordinator(r, db.Products(), db.Sellers(), NewIdentifierAllocator(r, nil), nil), r
}

func TestProductUpdateWithSync_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, r := newProductCoordinatorSimple(t)

	p := &model.Product{ID: 12, Name: "jam", Price: decimal.NewFromInt(4), OwnerID: int64p(3)}
	r.products[12] = *p

	sess := session.Session{UserID: 3, Role: model.RoleSeller}
	p.Name = "berry jam"
	synced, err := c.UpdateWithSync(ctx, sess, p)
	require.NoError(t, err)
	require.True(t, synced)

	got, err := c.ByID(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, "berry jam", got.Name)
	require.Equal(t, "berry jam", r.products[12].Name)
}

func TestProductUpdateWithSync_RemoteDown_StillWritesLocally(t *testing.T) {
	ctx := context.Background()
	c, r := newProductCoordinatorSimple(t)
	r.updateErr = errors.New("503")

	p := &model.Product{ID: 12, Name: "jam", OwnerID: int64p(3)}
	synced, err := c.UpdateWithSync(ctx, session.Session{UserID: 3}, p)
	require.NoError(t, err)
	require.False(t, synced)

	got, err := c.ByID(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, "jam", got.Name)
}

func TestProductUpdateWithSync_EmptyRemoteBody(t *testing.T) {
	ctx := context.Background()
	c, r := newProductCoordinatorSimple(t)
	r.emptyBodies = true

	p := &model.Product{ID: 12, Name: "jam", Price: decimal.NewFromInt(4), OwnerID: int64p(3)}
	synced, err := c.UpdateWithSync(ctx, session.Session{UserID: 3}, p)
	require.NoError(t, err)
	require.True(t, synced, "an empty 2xx body is still remote confirmation")

	got, err := c.ByID(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, "jam", got.Name)
}

func TestProductCreateWithSync_EmptyRemoteBody(t *testing.T) {
	ctx := context.Background()
	r := newFakeRemote()
	r.products[5] = model.Product{ID: 5, Name: "bread"}
	r.emptyBodies = true

	db := newTestDB(t)
	c := NewProductCoordinator(r, db.Products(), db.Sellers(), NewIdentifierAllocator(r, nil), nil)

	res, err := c.CreateWithSync(ctx, session.Session{UserID: 7}, &model.Product{
		Name: "honey", Price: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.True(t, res.Synced)
	require.Equal(t, int64(6), res.Product.ID)

	got, err := c.ByID(ctx, 6)
	require.NoError(t, err)
	require.Equal(t, "honey", got.Name)
}

// The authority may legally answer a mutation with 204 and no body; the
// coordinator must survive that end to end through the real client.
func TestProductUpdateWithSync_NoContentResponse(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	db := newTestDB(t)
	client := remote.New(srv.URL, srv.Client())
	c := NewProductCoordinator(client, db.Products(), db.Sellers(), NewIdentifierAllocator(client, nil), nil)

	p := &model.Product{ID: 3, Name: "jam", OwnerID: int64p(3)}
	synced, err := c.UpdateWithSync(ctx, session.Session{UserID: 3}, p)
	require.NoError(t, err)
	require.True(t, synced)

	got, err := c.ByID(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "jam", got.Name)
}

func TestProductUpdateWithSync_NotOwner(t *testing.T) {
	ctx := context.Background()
	c, _ := newProductCoordinatorSimple(t)

	p := &model.Product{ID: 12, Name: "jam", OwnerID: int64p(3)}
	_, err := c.UpdateWithSync(ctx, session.Session{UserID: 4}, p)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestProductDeleteWithSync_Remote404CountsAsSuccess(t *testing.T) {
	ctx := context.Background()
	c, _ := newProductCoordinatorSimple(t)

	p := &model.Product{ID: 9, Name: "gone", OwnerID: int64p(3)}
	require.NoError(t, c.products.Upsert(ctx, p))

	synced, err := c.DeleteWithSync(ctx, session.Session{UserID: 3}, p)
	require.NoError(t, err)
	require.True(t, synced, "remote 404 is idempotent-delete success")

	_, err = c.ByID(ctx, 9)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductDeleteWithSync_RemoteDown(t *testing.T) {
	ctx := context.Background()
	c, r := newProductCoordinatorSimple(t)
	r.deleteErr = errors.New("offline")

	p := &model.Product{ID: 9, Name: "gone", OwnerID: int64p(3)}
	require.NoError(t, c.products.Upsert(ctx, p))

	synced, err := c.DeleteWithSync(ctx, session.Session{UserID: 3}, p)
	require.NoError(t, err)
	require.False(t, synced)

	_, err = c.ByID(ctx, 9)
	require.ErrorIs(t, err, errs.ErrNotFound, "local delete always happens")
}

func TestProductPullAndMergeAll(t *testing.T) {
	ctx := context.Background()
	c, r := newProductCoordinatorSimple(t)
	r.products[1] = model.Product{ID: 1, Name: "a"}
	r.products[2] = model.Product{ID: 2, Name: "b"}

	// a stale local copy must be replaced on conflict by id
	require.NoError(t, c.products.Upsert(ctx, &model.Product{ID: 1, Name: "old-a"}))

	require.Equal(t, 2, c.PullAndMergeAll(ctx))

	got, err := c.ByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "a", got.Name)
}

func TestProductPullAndMergeAll_RemoteDown_Swallowed(t *testing.T) {
	ctx := context.Background()
	c, r := newProductCoordinatorSimple(t)
	r.listProductsErr = errors.New("offline")

	require.Equal(t, 0, c.PullAndMergeAll(ctx))
}

func TestProductPullAndMergeAll_RetryPolicy(t *testing.T) {
	ctx := context.Background()

	// unavailability retries with backoff
	c, r := newProductCoordinatorSimple(t)
	r.listProductsErr = fmt.Errorf("%w: dial tcp", errs.ErrRemoteUnavailable)
	require.Equal(t, 0, c.PullAndMergeAll(ctx))
	require.Equal(t, 3, r.listProductCalls)

	// a definitive rejection fails fast
	c, r = newProductCoordinatorSimple(t)
	r.listProductsErr = &errs.RemoteError{Status: 401, Body: "unauthorized"}
	require.Equal(t, 0, c.PullAndMergeAll(ctx))
	require.Equal(t, 1, r.listProductCalls)
}

func TestProductReadPaths(t *testing.T) {
	ctx := context.Background()
	c, _ := newProductCoordinatorSimple(t)

	seed := []model.Product{
		{ID: 1, Name: "apples", Category: "fruit", Location: "Cuenca", Producer: "Valle Verde", OwnerID: int64p(7)},
		{ID: 2, Name: "pears", Category: "fruit", Location: "Loja", Producer: "La Granja", OwnerID: int64p(8)},
		{ID: 3, Name: "bread", Category: "bakery", Location: "Cuenca", Producer: "Valle Verde", OwnerID: int64p(7)},
	}
	require.NoError(t, c.products.BulkUpsert(ctx, seed))

	byOwner, err := c.ByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	byCat, err := c.ByCategory(ctx, "FRUIT")
	require.NoError(t, err)
	require.Len(t, byCat, 2)

	byCity, err := c.ByCity(ctx, "cuenca")
	require.NoError(t, err)
	require.Len(t, byCity, 2)

	bySearch, err := c.BySellerNameSearch(ctx, "valle")
	require.NoError(t, err)
	require.Len(t, bySearch, 2)

	all, err := c.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
