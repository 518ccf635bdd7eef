package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercadolocal/catalogsync/internal/model"
)

func TestIdentifierAllocator_MaxPlusOne(t *testing.T) {
	t.Parallel()
	r := newFakeRemote()
	r.products[5] = model.Product{ID: 5, Name: "honey"}

	a := NewIdentifierAllocator(r, nil)
	require.Equal(t, int64(6), a.NextProductID(context.Background()))
}

func TestIdentifierAllocator_EmptyRemote(t *testing.T) {
	t.Parallel()
	a := NewIdentifierAllocator(newFakeRemote(), nil)
	require.Equal(t, int64(1), a.NextProductID(context.Background()))
}

func TestIdentifierAllocator_OfflineFallback(t *testing.T) {
	t.Parallel()
	r := newFakeRemote()
	r.listProductsErr = errors.New("dial tcp: connection refused")

	a := NewIdentifierAllocator(r, nil)
	id := a.NextProductID(context.Background())
	require.Greater(t, id, int64(0))
	require.Less(t, id, int64(1_000_000))
}

func TestIdentifierAllocator_FallbackIsTimeDerived(t *testing.T) {
	t.Parallel()
	r := newFakeRemote()
	r.listProductsErr = errors.New("offline")

	a := NewIdentifierAllocator(r, nil)
	a.now = func() time.Time { return time.UnixMilli(123_456_789) }
	require.Equal(t, int64(456_789), a.NextProductID(context.Background()))

	// a wall clock landing exactly on the modulus must not produce zero
	a.now = func() time.Time { return time.UnixMilli(1_000_000) }
	require.Equal(t, int64(1), a.NextProductID(context.Background()))
}
