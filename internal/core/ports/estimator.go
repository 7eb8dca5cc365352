package ports

import (
	"context"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// TempoKeyEstimator is the boundary to the external tempo/key lookup
// service. It is unreliable and optional, never required: callers must treat
// domain.ErrEstimateNotFound as a valid answer and degrade on
// domain.ErrLookupUnavailable rather than failing a batch.
type TempoKeyEstimator interface {
	Estimate(ctx context.Context, track domain.Track) (domain.TempoKeyEstimate, error)
}
