package songbpm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mfleury/setcrate/internal/core/domain"
)

type countingEstimator struct {
	calls  int32
	result domain.TempoKeyEstimate
	err    error
}

func (c *countingEstimator) Estimate(ctx context.Context, track domain.Track) (domain.TempoKeyEstimate, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.result, c.err
}

func TestCachingEstimator_CachesHits(t *testing.T) {
	inner := &countingEstimator{result: domain.TempoKeyEstimate{BPM: 128}}
	cache := NewCachingEstimator(inner)
	track := domain.Track{ID: "t1", Title: "Strobe", Artist: "deadmau5"}

	for i := 0; i < 3; i++ {
		est, err := cache.Estimate(context.Background(), track)
		if err != nil {
			t.Fatalf("estimate: %v", err)
		}
		if est.BPM != 128 {
			t.Fatalf("bpm: got %v, want 128", est.BPM)
		}
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestCachingEstimator_CachesMisses(t *testing.T) {
	inner := &countingEstimator{err: domain.ErrEstimateNotFound}
	cache := NewCachingEstimator(inner)
	track := domain.Track{ID: "t1"}

	for i := 0; i < 3; i++ {
		if _, err := cache.Estimate(context.Background(), track); !errors.Is(err, domain.ErrEstimateNotFound) {
			t.Fatalf("expected ErrEstimateNotFound, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Fatalf("a definitive miss must be cached, got %d calls", got)
	}
}

func TestCachingEstimator_DoesNotCacheTransientFailures(t *testing.T) {
	inner := &countingEstimator{err: domain.ErrLookupUnavailable}
	cache := NewCachingEstimator(inner)
	track := domain.Track{ID: "t1"}

	for i := 0; i < 2; i++ {
		if _, err := cache.Estimate(context.Background(), track); !errors.Is(err, domain.ErrLookupUnavailable) {
			t.Fatalf("expected ErrLookupUnavailable, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&inner.calls); got != 2 {
		t.Fatalf("transient failures must not be cached, got %d calls", got)
	}
}

func TestCachingEstimator_CollapsesConcurrentLookups(t *testing.T) {
	inner := &countingEstimator{result: domain.TempoKeyEstimate{BPM: 174}}
	cache := NewCachingEstimator(inner)
	track := domain.Track{ID: "t1"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Estimate(context.Background(), track); err != nil {
				t.Errorf("estimate: %v", err)
			}
		}()
	}
	wg.Wait()

	// Concurrent duplicates collapse into one flight; later callers hit the
	// cache. Either way the upstream sees exactly one call.
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestCachingEstimator_IndependentTracks(t *testing.T) {
	inner := &countingEstimator{result: domain.TempoKeyEstimate{BPM: 120}}
	cache := NewCachingEstimator(inner)

	if _, err := cache.Estimate(context.Background(), domain.Track{ID: "a"}); err != nil {
		t.Fatalf("estimate a: %v", err)
	}
	if _, err := cache.Estimate(context.Background(), domain.Track{ID: "b"}); err != nil {
		t.Fatalf("estimate b: %v", err)
	}
	if got := atomic.LoadInt32(&inner.calls); got != 2 {
		t.Fatalf("distinct tracks need distinct lookups, got %d calls", got)
	}
}
