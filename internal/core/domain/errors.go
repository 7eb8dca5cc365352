package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a record does not exist in the library store.
	ErrNotFound = errors.New("domain: not found")

	// ErrMissingFeatures indicates a track has no provider audio features.
	// Such tracks are skipped rather than classified on fabricated data.
	ErrMissingFeatures = errors.New("domain: missing audio features")

	// ErrLookupUnavailable indicates the external tempo/key estimator failed
	// after retries. Callers degrade to unknown, never abort the batch.
	ErrLookupUnavailable = errors.New("domain: tempo/key lookup unavailable")

	// ErrEstimateNotFound indicates the external estimator has no entry for
	// the track. This is a valid answer, not a failure.
	ErrEstimateNotFound = errors.New("domain: no tempo/key estimate found")

	// ErrTaxonomyEmpty indicates no category taxonomy is configured.
	// Classification is meaningless without one, so this is fatal.
	ErrTaxonomyEmpty = errors.New("domain: taxonomy has no categories")

	// ErrNoCompatibleOrdering indicates strict harmonic ordering exhausted its
	// backtracking budget. The playlist is still returned, flagged incomplete.
	ErrNoCompatibleOrdering = errors.New("domain: no compatible harmonic ordering")
)

// MissingFeaturesError identifies which track could not be aggregated.
type MissingFeaturesError struct {
	TrackID string
}

func (e MissingFeaturesError) Error() string {
	if e.TrackID == "" {
		return ErrMissingFeatures.Error()
	}
	return fmt.Sprintf("domain: track %s has no audio features", e.TrackID)
}

func (e MissingFeaturesError) Is(target error) bool {
	return target == ErrMissingFeatures
}
