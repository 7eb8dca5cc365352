package songbpm

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
)

// CachingEstimator wraps an estimator with an in-memory cache keyed by
// track id. Duplicate concurrent requests for the same track collapse into
// one upstream call, so concurrent batch workers never burn the rate limit
// on the same lookup. Misses (ErrEstimateNotFound) are cached; transient
// unavailability is not, so a later run can retry.
type CachingEstimator struct {
	inner ports.TempoKeyEstimator
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	estimate domain.TempoKeyEstimate
	notFound bool
}

var _ ports.TempoKeyEstimator = (*CachingEstimator)(nil)

// NewCachingEstimator wraps inner with the cache.
func NewCachingEstimator(inner ports.TempoKeyEstimator) *CachingEstimator {
	return &CachingEstimator{
		inner:   inner,
		entries: make(map[string]cacheEntry),
	}
}

// Estimate returns the cached answer for the track, or performs at most one
// in-flight upstream lookup per key.
func (c *CachingEstimator) Estimate(ctx context.Context, track domain.Track) (domain.TempoKeyEstimate, error) {
	c.mu.RLock()
	entry, ok := c.entries[track.ID]
	c.mu.RUnlock()
	if ok {
		if entry.notFound {
			return domain.TempoKeyEstimate{}, domain.ErrEstimateNotFound
		}
		return entry.estimate, nil
	}

	v, err, _ := c.group.Do(track.ID, func() (any, error) {
		est, err := c.inner.Estimate(ctx, track)
		switch {
		case err == nil:
			c.store(track.ID, cacheEntry{estimate: est})
		case errors.Is(err, domain.ErrEstimateNotFound):
			c.store(track.ID, cacheEntry{notFound: true})
		}
		return est, err
	})
	if err != nil {
		return domain.TempoKeyEstimate{}, err
	}
	return v.(domain.TempoKeyEstimate), nil
}

func (c *CachingEstimator) store(id string, entry cacheEntry) {
	c.mu.Lock()
	c.entries[id] = entry
	c.mu.Unlock()
}
