package sync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// fallbackIDMod bounds the wall-clock-derived fallback identifier.
const fallbackIDMod = 1_000_000

// IdentifierAllocator derives the next usable product identifier. Online it
// takes max(remote ids)+1; offline it degrades to a coarse time-derived
// integer. The scheme is deliberately non-transactional: two offline callers
// can collide, and the design accepts that in exchange for simplicity.
type IdentifierAllocator struct {
	remote ProductRemote
	now    func() time.Time
	log    *zap.Logger
}

// NewIdentifierAllocator constructs an allocator. log may be nil.
func NewIdentifierAllocator(r ProductRemote, log *zap.Logger) *IdentifierAllocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentifierAllocator{remote: r, now: time.Now, log: log}
}

// NextProductID returns a positive identifier. It never blocks beyond the
// remote list call's own timeout.
func (a *IdentifierAllocator) NextProductID(ctx context.Context) int64 {
	ps, err := a.remote.ListProducts(ctx)
	if err != nil {
		id := a.FallbackID()
		a.log.Warn("id allocation offline, using time-derived id",
			zap.Int64("id", id), zap.Error(err))
		return id
	}
	var max int64
	for i := range ps {
		if ps[i].ID > max {
			max = ps[i].ID
		}
	}
	return max + 1
}

// FallbackID synthesizes a local identifier from the wall clock
// (milliseconds modulo 1,000,000), clamped to stay positive.
func (a *IdentifierAllocator) FallbackID() int64 {
	id := a.now().UnixMilli() % fallbackIDMod
	if id <= 0 {
		id = 1
	}
	return id
}
