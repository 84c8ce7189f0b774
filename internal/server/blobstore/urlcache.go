package blobstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	urlCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_blob_url_cache_hits_total",
		Help: "Retrieval URLs served from the cache.",
	})
	urlCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classdocs_blob_url_cache_misses_total",
		Help: "Retrieval URLs that had to be generated.",
	})
)

// URLCache wraps a Store and remembers URL results for ttl. Presigning is
// local CPU work but listing a classroom would otherwise sign every record on
// every call. ttl must stay below the presign expiry.
type URLCache struct {
	Store
	cache *expirable.LRU[string, string]
}

func NewURLCache(s Store, size int, ttl time.Duration) *URLCache {
	return &URLCache{
		Store: s,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *URLCache) URL(ctx context.Context, name string) (string, error) {
	if u, ok := c.cache.Get(name); ok {
		urlCacheHitsTotal.Inc()
		return u, nil
	}
	urlCacheMissesTotal.Inc()

	u, err := c.Store.URL(ctx, name)
	if err != nil {
		return "", err
	}
	c.cache.Add(name, u)
	return u, nil
}

// Delete drops the cached URL along with the blob.
func (c *URLCache) Delete(ctx context.Context, name string) error {
	c.cache.Remove(name)
	return c.Store.Delete(ctx, name)
}
