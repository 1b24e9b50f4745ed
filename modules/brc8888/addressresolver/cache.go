package addressresolver

import (
	"context"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 10_000

var _ AddressResolver = (*CachedResolver)(nil)

// CachedResolver memoizes successful resolutions of another resolver by
// txid. Failures are never cached so that transient errors are retried.
type CachedResolver struct {
	resolver AddressResolver
	cache    *lru.Cache[string, DerivedAddresses]
}

func NewCachedResolver(resolver AddressResolver, size int) (*CachedResolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, DerivedAddresses](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create address cache")
	}
	return &CachedResolver{
		resolver: resolver,
		cache:    cache,
	}, nil
}

func (r *CachedResolver) ResolveAddresses(ctx context.Context, txHash string) (DerivedAddresses, error) {
	if derived, ok := r.cache.Get(txHash); ok {
		return derived, nil
	}
	derived, err := r.resolver.ResolveAddresses(ctx, txHash)
	if err != nil {
		return DerivedAddresses{}, errors.WithStack(err)
	}
	r.cache.Add(txHash, derived)
	return derived, nil
}

func (r *CachedResolver) Len() int {
	return r.cache.Len()
}
