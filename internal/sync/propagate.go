package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mercadolocal/catalogsync/internal/store"
)

// ConsistencyPropagator rewrites the denormalized producer name on every
// product owned by a seller after a rename. Local is authoritative for this
// fan-out: each product is updated remotely best-effort, but the local
// rewrite happens regardless, so the invariant producer ==
// seller.entrepreneurship holds locally when the pass completes.
type ConsistencyPropagator struct {
	remote   ProductRemote
	products store.ProductStore
	log      *zap.Logger
}

// NewConsistencyPropagator wires the propagator. log may be nil.
func NewConsistencyPropagator(r ProductRemote, products store.ProductStore, log *zap.Logger) *ConsistencyPropagator {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsistencyPropagator{remote: r, products: products, log: log}
}

// PropagateProducerRename fans the new producer name out across the owner's
// locally known products. No cached products is a no-op, not a fault.
// Remote failures are logged per product and do not halt the fan-out; a
// local store failure is fatal and aborts the pass.
func (p *ConsistencyPropagator) PropagateProducerRename(ctx context.Context, ownerID int64, newProducerName string) error {
	owned, err := p.products.List(ctx, store.ProductFilter{OwnerID: &ownerID})
	if err != nil {
		return fmt.Errorf("propagate rename for %d: %w", ownerID, err)
	}
	if len(owned) == 0 {
		p.log.Info("producer rename: no cached products", zap.Int64("ownerId", ownerID))
		return nil
	}

	for i := range owned {
		renamed := owned[i]
		renamed.Producer = newProducerName
		if _, rerr := p.remote.UpdateProduct(ctx, &renamed); rerr != nil {
			p.log.Warn("producer rename not confirmed remotely",
				zap.Int64("productId", renamed.ID), zap.Error(rerr))
		}
		if err := p.products.Upsert(ctx, &renamed); err != nil {
			return fmt.Errorf("propagate rename for %d: product %d: %w", ownerID, renamed.ID, err)
		}
	}
	p.log.Info("producer rename propagated",
		zap.Int64("ownerId", ownerID), zap.Int("products", len(owned)),
		zap.String("producer", newProducerName))
	return nil
}
