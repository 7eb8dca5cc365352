// Package export writes generated playlists out for DJ software: extended
// M3U files and ID3 comment tags carrying the Camelot key and energy.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// WriteM3U writes an extended M3U playlist. Each entry's location is the
// track's open URL so DJ tools and players can resolve it; duration is in
// whole seconds per the EXTINF convention.
func WriteM3U(w io.Writer, p domain.Playlist, tracks []domain.Track) error {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	sb.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", sanitizeLine(p.Name)))

	byID := make(map[string]domain.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	for _, id := range p.TrackIDs {
		t, ok := byID[id]
		if !ok {
			return fmt.Errorf("export: playlist references unknown track %s", id)
		}
		seconds := t.DurationMs / 1000
		sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", seconds, sanitizeLine(t.Artist), sanitizeLine(t.Title)))
		sb.WriteString(trackLocation(t) + "\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("export: write m3u: %w", err)
	}
	return nil
}

func trackLocation(t domain.Track) string {
	if t.PreviewURL != "" {
		return t.PreviewURL
	}
	return "https://open.spotify.com/track/" + t.ID
}

// sanitizeLine strips newlines so a hostile title cannot inject entries.
func sanitizeLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
