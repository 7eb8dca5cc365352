package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
)

const defaultConcurrency = 4

// TrackError records a single track's failure inside a batch run.
type TrackError struct {
	TrackID string
	Err     error
}

// RunSummary is the end-of-run report for a classification batch. Per-track
// failures are isolated here; they never abort the run.
type RunSummary struct {
	Total      int
	Classified int
	Skipped    int // missing features
	Degraded   int // external lookup unavailable, classified anyway
	Errors     []TrackError
}

// Pipeline runs the batch refresh: per track, look up tempo/key, aggregate
// features and classify, then append the result. Tracks are independent and
// processed concurrently, bounded to respect the lookup service's rate
// limits.
type Pipeline struct {
	repo        ports.LibraryRepository
	estimator   ports.TempoKeyEstimator
	aggregator  *Aggregator
	classifier  *Classifier
	concurrency int
}

// NewPipeline constructs a Pipeline. estimator may be nil to classify from
// provider data alone. concurrency <= 0 selects the default.
func NewPipeline(repo ports.LibraryRepository, estimator ports.TempoKeyEstimator, aggregator *Aggregator, classifier *Classifier, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pipeline{
		repo:        repo,
		estimator:   estimator,
		aggregator:  aggregator,
		classifier:  classifier,
		concurrency: concurrency,
	}
}

// Refresh classifies the whole library. The returned error covers only
// wholesale failures (listing tracks or loading history); individual track
// failures land in the summary.
func (p *Pipeline) Refresh(ctx context.Context) (RunSummary, error) {
	tracks, err := p.repo.AllTracks(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pipeline: list tracks: %w", err)
	}
	events, err := p.repo.AllPlays(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pipeline: load history: %w", err)
	}
	stats := domain.ComputeSessionStats(events)

	summary := RunSummary{Total: len(tracks)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, track := range tracks {
		track := track
		g.Go(func() error {
			outcome, err := p.classifyOne(gctx, track, stats[track.ID])

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, domain.ErrMissingFeatures):
				summary.Skipped++
				log.Printf("WARN pipeline: skipping %s: %v", track.ID, err)
			case err != nil:
				summary.Errors = append(summary.Errors, TrackError{TrackID: track.ID, Err: err})
				log.Printf("WARN pipeline: track %s failed: %v", track.ID, err)
			default:
				summary.Classified++
				if outcome.degraded {
					summary.Degraded++
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("pipeline: %w", err)
	}
	return summary, nil
}

type classifyOutcome struct {
	degraded bool
}

// classifyOne handles a single track end to end. Lookup failures degrade to
// a nil estimate rather than failing the track.
func (p *Pipeline) classifyOne(ctx context.Context, track domain.Track, stats *domain.HistoryStats) (classifyOutcome, error) {
	var outcome classifyOutcome

	var estimate *domain.TempoKeyEstimate
	if p.estimator != nil {
		est, err := p.estimator.Estimate(ctx, track)
		switch {
		case err == nil:
			estimate = &est
		case errors.Is(err, domain.ErrEstimateNotFound):
			// Valid answer: the estimator simply has no entry.
		case errors.Is(err, domain.ErrLookupUnavailable):
			outcome.degraded = true
			log.Printf("WARN pipeline: lookup unavailable for %s, degrading: %v", track.ID, err)
		default:
			outcome.degraded = true
			log.Printf("WARN pipeline: lookup error for %s, degrading: %v", track.ID, err)
		}
	}

	fv, err := p.aggregator.Aggregate(track, stats, estimate)
	if err != nil {
		return outcome, err
	}

	c := p.classifier.Classify(fv)
	c.ClassifiedAt = time.Now().UTC()

	if err := p.repo.SaveClassification(ctx, c); err != nil {
		return outcome, fmt.Errorf("save classification: %w", err)
	}
	return outcome, nil
}
