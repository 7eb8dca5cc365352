package ports

import (
	"context"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// LibraryRepository is the persistence port for the track library. Results
// are appended, never patched in place, so a batch run aborted between
// tracks leaves no partial-state corruption.
type LibraryRepository interface {
	UpsertTracks(ctx context.Context, tracks []domain.Track) error
	AllTracks(ctx context.Context) ([]domain.Track, error)
	UpdateTrackAnalysis(ctx context.Context, trackID string, energy, loudness float64) error

	RecordPlays(ctx context.Context, events []domain.PlayEvent) error
	AllPlays(ctx context.Context) ([]domain.PlayEvent, error)

	// SaveClassification appends a classification; the latest one per track
	// supersedes earlier ones.
	SaveClassification(ctx context.Context, c domain.Classification) error
	LatestClassifications(ctx context.Context) ([]domain.ClassifiedTrack, error)

	SavePlaylist(ctx context.Context, p domain.Playlist) error
	GetPlaylist(ctx context.Context, id string) (domain.Playlist, []domain.Track, error)
}
