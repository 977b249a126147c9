package catalog

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedSource caches quiz file fetches with a TTL to avoid re-reading the
// backing source on every load; concurrent fetches of the same file are
// collapsed. Manifest and listing reads pass through uncached so new files
// show up immediately.
type CachedSource struct {
	src   Source
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	data      []byte
	expiresAt time.Time
}

func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		src:   src,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuiz),
	}
}

func (c *CachedSource) Manifest(ctx context.Context) ([]byte, error) {
	return c.src.Manifest(ctx)
}

func (c *CachedSource) Listing(ctx context.Context) (string, error) {
	return c.src.Listing(ctx)
}

func (c *CachedSource) Quiz(ctx context.Context, file string) ([]byte, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[file]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.data, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(file, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[file]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.data, nil
		}
		c.mu.RUnlock()

		data, err := c.src.Quiz(ctx, file)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[file] = cachedQuiz{data: data, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *CachedSource) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
