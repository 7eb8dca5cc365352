package spotify

import (
	"strings"
	"time"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a domain track. Audio
// features arrive separately and are left zero here.
func mapTrackToDomain(wt wireTrack) domain.Track {
	names := make([]string, 0, len(wt.Artists))
	for _, a := range wt.Artists {
		names = append(names, a.Name)
	}

	return domain.Track{
		ID:         wt.ID,
		Title:      wt.Name,
		Artist:     strings.Join(names, ", "),
		Album:      wt.Album.Name,
		DurationMs: wt.DurationMs,
		PreviewURL: wt.PreviewURL,
		// Key/Mode default to "not reported" until features are fetched.
		Features: domain.AudioFeatures{Key: -1, Mode: -1},
	}
}

// mapPlayToDomain converts a play-history item to a domain event. The API
// only reports plays that ran past its minimum listen threshold, so every
// reported play counts as completed.
func mapPlayToDomain(item playHistoryItem) domain.PlayEvent {
	playedAt, err := time.Parse(time.RFC3339, item.PlayedAt)
	if err != nil {
		playedAt = time.Time{}
	}
	return domain.PlayEvent{
		TrackID:   item.Track.ID,
		PlayedAt:  playedAt,
		Completed: true,
	}
}

func mapFeaturesToDomain(wf wireAudioFeatures) domain.AudioFeatures {
	return domain.AudioFeatures{
		Danceability:     wf.Danceability,
		Energy:           wf.Energy,
		Valence:          wf.Valence,
		Acousticness:     wf.Acousticness,
		Instrumentalness: wf.Instrumentalness,
		Loudness:         wf.Loudness,
		Tempo:            wf.Tempo,
		Key:              wf.Key,
		Mode:             wf.Mode,
	}
}
