package ports

import (
	"context"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// StreamingProvider is the boundary to the streaming service. The engine
// consumes already-decoded structured records; auth and wire formats are the
// adapter's concern.
type StreamingProvider interface {
	// RecentlyPlayed returns recent play events with their tracks, newest
	// first. The provider caps limit at its own maximum.
	RecentlyPlayed(ctx context.Context, limit int) ([]domain.Track, []domain.PlayEvent, error)

	// SavedTracks returns the user's saved library. limit <= 0 means all.
	SavedTracks(ctx context.Context, limit int) ([]domain.Track, error)

	// AudioFeatures fetches feature bundles for up to 100 track ids.
	AudioFeatures(ctx context.Context, trackIDs []string) (map[string]domain.AudioFeatures, error)
}
