package ingest

import (
	"context"

	"arbdash/internal/cache"
	"arbdash/internal/core"
)

// CachingIngester remembers successful batches per sheet URL and period so
// repeated dashboard reads of the same month do not refetch the tab.
// Failures are never cached.
type CachingIngester struct {
	next  Ingester
	cache *cache.LRU[*Batch]
}

func NewCachingIngester(next Ingester, c *cache.LRU[*Batch]) *CachingIngester {
	return &CachingIngester{next: next, cache: c}
}

func (c *CachingIngester) Ingest(ctx context.Context, sheetURL string, period core.Period) (*Batch, error) {
	key := sheetURL + "|" + period.String()
	if b, ok := c.cache.Get(key); ok {
		return b, nil
	}
	b, err := c.next.Ingest(ctx, sheetURL, period)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, b)
	return b, nil
}

// Invalidate drops every cached batch. Call it whenever the sheet URL or
// month tabs change.
func (c *CachingIngester) Invalidate() {
	c.cache.Purge()
}
