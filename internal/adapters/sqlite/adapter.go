// Package sqlite provides a SQLite-backed implementation of the library
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the repository port for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.LibraryRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local use
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// UpsertTracks writes tracks wholesale: a re-synced track replaces its
// previous row.
func (a *Adapter) UpsertTracks(ctx context.Context, tracks []domain.Track) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error before commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (
			id, title, artist, album, duration_ms, preview_url,
			danceability, energy, valence, acousticness, instrumentalness,
			loudness, tempo, pitch_class, mode
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			album=excluded.album,
			duration_ms=excluded.duration_ms,
			preview_url=excluded.preview_url,
			danceability=excluded.danceability,
			energy=excluded.energy,
			valence=excluded.valence,
			acousticness=excluded.acousticness,
			instrumentalness=excluded.instrumentalness,
			loudness=excluded.loudness,
			tempo=excluded.tempo,
			pitch_class=excluded.pitch_class,
			mode=excluded.mode;
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tracks {
		f := t.Features
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Title, t.Artist, t.Album, t.DurationMs, t.PreviewURL,
			f.Danceability, f.Energy, f.Valence, f.Acousticness, f.Instrumentalness,
			f.Loudness, f.Tempo, f.Key, f.Mode,
		); err != nil {
			return fmt.Errorf("failed to save track %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// AllTracks loads the whole library.
func (a *Adapter) AllTracks(ctx context.Context) ([]domain.Track, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, title, artist, IFNULL(album, ''), IFNULL(duration_ms, 0), IFNULL(preview_url, ''),
			IFNULL(danceability, 0), IFNULL(energy, 0), IFNULL(valence, 0),
			IFNULL(acousticness, 0), IFNULL(instrumentalness, 0), IFNULL(loudness, 0),
			IFNULL(tempo, 0), IFNULL(pitch_class, -1), IFNULL(mode, -1)
		FROM tracks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// UpdateTrackAnalysis backfills measured energy and loudness from preview
// audio without touching the rest of the feature bundle.
func (a *Adapter) UpdateTrackAnalysis(ctx context.Context, trackID string, energy, loudness float64) error {
	if _, err := a.db.ExecContext(ctx,
		"UPDATE tracks SET energy = ?, loudness = ? WHERE id = ?",
		energy, loudness, trackID,
	); err != nil {
		return fmt.Errorf("failed to update track analysis: %w", err)
	}
	return nil
}

// RecordPlays appends play events. A play is identified by (track, time), so
// overlapping sync windows never double-count.
func (a *Adapter) RecordPlays(ctx context.Context, events []domain.PlayEvent) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO plays (track_id, played_at, completed)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.TrackID, ev.PlayedAt.UTC().Format(time.RFC3339), ev.Completed); err != nil {
			return fmt.Errorf("failed to record play for %s: %w", ev.TrackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// AllPlays loads the listening history, oldest first.
func (a *Adapter) AllPlays(ctx context.Context) ([]domain.PlayEvent, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id, played_at, completed FROM plays ORDER BY played_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load plays: %w", err)
	}
	defer rows.Close()

	var events []domain.PlayEvent
	for rows.Next() {
		var ev domain.PlayEvent
		var playedAt string
		if err := rows.Scan(&ev.TrackID, &playedAt, &ev.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, playedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse play timestamp: %w", err)
		}
		ev.PlayedAt = ts
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SaveClassification appends a classification row. Rows are never updated;
// the highest rowid per track is the current classification, so history
// stays auditable.
func (a *Adapter) SaveClassification(ctx context.Context, c domain.Classification) error {
	keyPitch, keyMode := -1, -1
	if !c.Key.Unknown() {
		keyPitch = c.Key.Key.PitchClass
		keyMode = c.Key.Key.Mode
	}
	if _, err := a.db.ExecContext(ctx, `
		INSERT INTO classifications (
			track_id, category_index, category_name,
			position_score, texture_score, rhythm_score, emotion_score,
			confidence, vector_confidence,
			bpm, alt_bpm, bpm_confidence, bpm_source,
			key_pitch, key_mode, key_confidence, key_source,
			classified_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.TrackID, c.CategoryIndex, c.CategoryName,
		c.AxisScores.Position, c.AxisScores.Texture, c.AxisScores.Rhythm, c.AxisScores.Emotion,
		c.Confidence, c.VectorConfidence,
		c.Tempo.BPM, c.Tempo.AltBPM, int(c.Tempo.Confidence), string(c.Tempo.Source),
		keyPitch, keyMode, int(c.Key.Confidence), string(c.Key.Source),
		c.ClassifiedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to save classification for %s: %w", c.TrackID, err)
	}
	return nil
}

// LatestClassifications joins each track with its most recent classification.
// Tracks never classified are omitted.
func (a *Adapter) LatestClassifications(ctx context.Context) ([]domain.ClassifiedTrack, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			t.id, t.title, t.artist, IFNULL(t.album, ''), IFNULL(t.duration_ms, 0), IFNULL(t.preview_url, ''),
			IFNULL(t.danceability, 0), IFNULL(t.energy, 0), IFNULL(t.valence, 0),
			IFNULL(t.acousticness, 0), IFNULL(t.instrumentalness, 0), IFNULL(t.loudness, 0),
			IFNULL(t.tempo, 0), IFNULL(t.pitch_class, -1), IFNULL(t.mode, -1),
			c.category_index, c.category_name,
			c.position_score, c.texture_score, c.rhythm_score, c.emotion_score,
			c.confidence, c.vector_confidence,
			c.bpm, c.alt_bpm, c.bpm_confidence, c.bpm_source,
			c.key_pitch, c.key_mode, c.key_confidence, c.key_source,
			c.classified_at
		FROM tracks t
		JOIN classifications c ON c.id = (
			SELECT MAX(id) FROM classifications WHERE track_id = t.id
		)
		ORDER BY t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifications: %w", err)
	}
	defer rows.Close()

	var out []domain.ClassifiedTrack
	for rows.Next() {
		var ct domain.ClassifiedTrack
		t := &ct.Track
		f := &t.Features
		c := &ct.Classification
		var (
			tempoConf, keyConf int
			tempoSrc, keySrc   string
			keyPitch, keyMode  int
			classifiedAt       string
		)
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Artist, &t.Album, &t.DurationMs, &t.PreviewURL,
			&f.Danceability, &f.Energy, &f.Valence,
			&f.Acousticness, &f.Instrumentalness, &f.Loudness,
			&f.Tempo, &f.Key, &f.Mode,
			&c.CategoryIndex, &c.CategoryName,
			&c.AxisScores.Position, &c.AxisScores.Texture, &c.AxisScores.Rhythm, &c.AxisScores.Emotion,
			&c.Confidence, &c.VectorConfidence,
			&c.Tempo.BPM, &c.Tempo.AltBPM, &tempoConf, &tempoSrc,
			&keyPitch, &keyMode, &keyConf, &keySrc,
			&classifiedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		c.TrackID = t.ID
		c.Tempo.Confidence = domain.Confidence(tempoConf)
		c.Tempo.Source = domain.Source(tempoSrc)
		c.Key.Confidence = domain.Confidence(keyConf)
		c.Key.Source = domain.Source(keySrc)
		if keyPitch >= 0 && keyMode >= 0 {
			c.Key.Key = domain.Key{PitchClass: keyPitch, Mode: keyMode}
		}
		if ts, err := time.Parse(time.RFC3339Nano, classifiedAt); err == nil {
			c.ClassifiedAt = ts
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// SavePlaylist persists a generated playlist and its track order.
func (a *Adapter) SavePlaylist(ctx context.Context, p domain.Playlist) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO playlists (
			id, name, target_duration_sec, min_bpm, max_bpm, harmonic,
			duration_satisfied, harmonic_satisfied, warnings, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Name,
		p.Constraints.TargetDurationSec, p.Constraints.MinBPM, p.Constraints.MaxBPM, string(p.Constraints.Harmonic),
		p.DurationSatisfied, p.HarmonicSatisfied,
		strings.Join(p.Warnings, "\n"),
		p.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to save playlist metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, trackID := range p.TrackIDs {
		if _, err := stmt.ExecContext(ctx, p.ID, i, trackID); err != nil {
			return fmt.Errorf("failed to link track %s: %w", trackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// GetPlaylist loads a playlist and its tracks in playlist order.
func (a *Adapter) GetPlaylist(ctx context.Context, id string) (domain.Playlist, []domain.Track, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, name, target_duration_sec, min_bpm, max_bpm, harmonic,
			duration_satisfied, harmonic_satisfied, warnings, created_at
		FROM playlists WHERE id = ?
	`, id)

	var p domain.Playlist
	var harmonic, warnings, createdAt string
	if err := row.Scan(
		&p.ID, &p.Name,
		&p.Constraints.TargetDurationSec, &p.Constraints.MinBPM, &p.Constraints.MaxBPM, &harmonic,
		&p.DurationSatisfied, &p.HarmonicSatisfied, &warnings, &createdAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Playlist{}, nil, domain.ErrNotFound
		}
		return domain.Playlist{}, nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	p.Constraints.Harmonic = domain.HarmonicMode(harmonic)
	if warnings != "" {
		p.Warnings = strings.Split(warnings, "\n")
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = ts
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, IFNULL(t.album, ''), IFNULL(t.duration_ms, 0), IFNULL(t.preview_url, ''),
			IFNULL(t.danceability, 0), IFNULL(t.energy, 0), IFNULL(t.valence, 0),
			IFNULL(t.acousticness, 0), IFNULL(t.instrumentalness, 0), IFNULL(t.loudness, 0),
			IFNULL(t.tempo, 0), IFNULL(t.pitch_class, -1), IFNULL(t.mode, -1)
		FROM tracks t
		JOIN playlist_tracks pt ON pt.track_id = t.id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`, p.ID)
	if err != nil {
		return domain.Playlist{}, nil, fmt.Errorf("failed to load playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return domain.Playlist{}, nil, err
		}
		p.TrackIDs = append(p.TrackIDs, t.ID)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return domain.Playlist{}, nil, fmt.Errorf("failed to iterate playlist tracks: %w", err)
	}
	return p, tracks, nil
}

func scanTrack(rows *sql.Rows) (domain.Track, error) {
	var t domain.Track
	f := &t.Features
	if err := rows.Scan(
		&t.ID, &t.Title, &t.Artist, &t.Album, &t.DurationMs, &t.PreviewURL,
		&f.Danceability, &f.Energy, &f.Valence,
		&f.Acousticness, &f.Instrumentalness, &f.Loudness,
		&f.Tempo, &f.Key, &f.Mode,
	); err != nil {
		return domain.Track{}, fmt.Errorf("failed to scan track: %w", err)
	}
	return t, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		duration_ms INTEGER,
		preview_url TEXT,
		danceability REAL,
		energy REAL,
		valence REAL,
		acousticness REAL,
		instrumentalness REAL,
		loudness REAL,
		tempo REAL,
		pitch_class INTEGER,
		mode INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track_id TEXT NOT NULL,
		played_at TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 1,
		UNIQUE(track_id, played_at)
	);

	CREATE TABLE IF NOT EXISTS classifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track_id TEXT NOT NULL,
		category_index INTEGER NOT NULL,
		category_name TEXT NOT NULL,
		position_score REAL,
		texture_score REAL,
		rhythm_score REAL,
		emotion_score REAL,
		confidence REAL,
		vector_confidence REAL,
		bpm REAL,
		alt_bpm REAL,
		bpm_confidence INTEGER,
		bpm_source TEXT,
		key_pitch INTEGER,
		key_mode INTEGER,
		key_confidence INTEGER,
		key_source TEXT,
		classified_at TEXT
	);

	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		target_duration_sec INTEGER,
		min_bpm REAL,
		max_bpm REAL,
		harmonic TEXT,
		duration_satisfied INTEGER,
		harmonic_satisfied INTEGER,
		warnings TEXT,
		created_at TEXT
	);

	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id TEXT,
		position INTEGER,
		track_id TEXT,
		PRIMARY KEY (playlist_id, position),
		FOREIGN KEY(playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_plays_track ON plays(track_id);
	CREATE INDEX IF NOT EXISTS idx_plays_time ON plays(played_at);
	CREATE INDEX IF NOT EXISTS idx_classifications_track ON classifications(track_id);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	if _, err := a.db.Exec("ALTER TABLE tracks ADD COLUMN loudness REAL"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	if _, err := a.db.Exec("ALTER TABLE tracks ADD COLUMN pitch_class INTEGER"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	if _, err := a.db.Exec("ALTER TABLE tracks ADD COLUMN mode INTEGER"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
