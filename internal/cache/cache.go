package cache

import (
	"context"
	"errors"

	"github.com/MiSArch/shoppingcart/internal/domain"
)

// CartCache caches carts keyed by owner id. Entries are invalidated on every
// item-mutating write and on order events.
type CartCache interface {
	Get(ctx context.Context, ownerID string) (*domain.ShoppingCart, error)
	Set(ctx context.Context, ownerID string, cart *domain.ShoppingCart) error
	Delete(ctx context.Context, ownerID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache is used when no Redis address is configured; every read misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.ShoppingCart, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, *domain.ShoppingCart) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }
