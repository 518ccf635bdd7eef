package sync

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/mercadolocal/catalogsync/internal/errs"
	"github.com/mercadolocal/catalogsync/internal/model"
	"github.com/mercadolocal/catalogsync/internal/store/sqlite"
)

// fakeRemote is an in-memory remote authority with programmable failures.
type fakeRemote struct {
	products map[int64]model.Product
	sellers  map[int64]model.Seller

	listProductsErr error
	createErr       error
	updateErr       error
	deleteErr       error
	emptyBodies     bool // 2xx with no response body: writes apply, nil comes back

	listProductCalls int
	listSellerCalls  int

	listSellersErr  error
	getSellerErr    error
	createSellerErr error
	patchErr        error
	putErr          error
	emailFilterOff  bool

	productUpdates []int64
	sellerCreates  []int64
	sellerPatches  []int64
	sellerPuts     []int64
}

var (
	_ ProductRemote = (*fakeRemote)(nil)
	_ SellerRemote  = (*fakeRemote)(nil)
)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		products: map[int64]model.Product{},
		sellers:  map[int64]model.Seller{},
	}
}

func (f *fakeRemote) ListProducts(context.Context) ([]model.Product, error) {
	f.listProductCalls++
	if f.listProductsErr != nil {
		return nil, f.listProductsErr
	}
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRemote) CreateProduct(_ context.Context, p *model.Product) (*model.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *p
	f.products[cp.ID] = cp
	if f.emptyBodies {
		return nil, nil
	}
	return &cp, nil
}

func (f *fakeRemote) UpdateProduct(_ context.Context, p *model.Product) (*model.Product, error) {
	f.productUpdates = append(f.productUpdates, p.ID)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	cp := *p
	f.products[cp.ID] = cp
	if f.emptyBodies {
		return nil, nil
	}
	return &cp, nil
}

func (f *fakeRemote) DeleteProduct(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.products[id]; !ok {
		return &errs.RemoteError{Status: 404, Body: "not found"}
	}
	delete(f.products, id)
	return nil
}

func (f *fakeRemote) ListSellers(context.Context) ([]model.Seller, error) {
	f.listSellerCalls++
	if f.listSellersErr != nil {
		return nil, f.listSellersErr
	}
	out := make([]model.Seller, 0, len(f.sellers))
	for _, s := range f.sellers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeRemote) ListSellersByEmail(_ context.Context, email string) ([]model.Seller, error) {
	if f.emailFilterOff {
		return []model.Seller{}, nil // endpoint "works" but never filters
	}
	var out []model.Seller
	for _, s := range f.sellers {
		if s.Email == email {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetSeller(_ context.Context, userID int64) (*model.Seller, error) {
	if f.getSellerErr != nil {
		return nil, f.getSellerErr
	}
	s, ok := f.sellers[userID]
	if !ok {
		return nil, &errs.RemoteError{Status: 404, Body: "not found"}
	}
	return &s, nil
}

func (f *fakeRemote) CreateSeller(_ context.Context, s *model.Seller) (*model.Seller, error) {
	f.sellerCreates = append(f.sellerCreates, s.UserID)
	if f.createSellerErr != nil {
		return nil, f.createSellerErr
	}
	cp := *s
	f.sellers[cp.UserID] = cp
	return &cp, nil
}

func (f *fakeRemote) applyPatch(userID int64, partial map[string]any) *model.Seller {
	s := f.sellers[userID]
	if v, ok := partial["entrepreneurship"].(string); ok {
		s.Entrepreneurship = v
	}
	if v, ok := partial["address"].(string); ok {
		s.Address = v
	}
	if v, ok := partial["phone"].(string); ok {
		s.Phone = v
	}
	if v, ok := partial["name"].(string); ok {
		s.Name = v
	}
	if v, ok := partial["email"].(string); ok {
		s.Email = v
	}
	f.sellers[userID] = s
	return &s
}

func (f *fakeRemote) PatchSeller(_ context.Context, userID int64, partial map[string]any) (*model.Seller, error) {
	f.sellerPatches = append(f.sellerPatches, userID)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return f.applyPatch(userID, partial), nil
}

func (f *fakeRemote) PutSeller(_ context.Context, userID int64, partial map[string]any) (*model.Seller, error) {
	f.sellerPuts = append(f.sellerPuts, userID)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return f.applyPatch(userID, partial), nil
}

// newTestDB opens a throwaway local store.
func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func int64p(v int64) *int64 { return &v }
