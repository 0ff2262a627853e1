// Package cache persists fetched playlists and run history in SQLite so
// later runs can skip the network.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"gemporter/internal/playlist"
)

// ErrNotFound is returned when a playlist or run is not cached.
var ErrNotFound = errors.New("cache: not found")

// Run is one recorded pipeline run.
type Run struct {
	ID              string    `db:"id" json:"id"`
	StartedAt       time.Time `db:"started_at" json:"started_at"`
	FinishedAt      time.Time `db:"finished_at" json:"finished_at"`
	PlaylistIDsJSON string    `db:"playlist_ids" json:"-"`
	PlaylistIDs     []string  `db:"-" json:"playlist_ids"`
	Tracks          int       `db:"tracks" json:"tracks"`
	Eligible        int       `db:"eligible" json:"eligible"`
	Skipped         int       `db:"skipped" json:"skipped"`
	TopIDsJSON      string    `db:"top_ids" json:"-"`
	TopIDs          []string  `db:"-" json:"top_ids"`
	CreatedPlaylist string    `db:"created_playlist" json:"created_playlist,omitempty"`
}

// Entry summarizes a cached playlist without its tracks.
type Entry struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Owner      string    `db:"owner"`
	TrackCount int       `db:"track_count"`
	FetchedAt  time.Time `db:"fetched_at"`
}

type playlistRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Owner       string    `db:"owner"`
	Description string    `db:"description"`
	URL         string    `db:"url"`
	TrackCount  int       `db:"track_count"`
	TracksJSON  string    `db:"tracks"`
	FetchedAt   time.Time `db:"fetched_at"`
}

// Store is a SQLite backed playlist and run cache.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Fetch workers share the handle; SQLite allows one writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SavePlaylist stores p and its tracks, replacing any earlier copy.
func (s *Store) SavePlaylist(ctx context.Context, p playlist.Playlist) error {
	tracksJSON, err := json.Marshal(p.Tracks)
	if err != nil {
		return fmt.Errorf("encode tracks of %s: %w", p.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO playlists (id, name, owner, description, url, track_count, tracks, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner = excluded.owner,
			description = excluded.description,
			url = excluded.url,
			track_count = excluded.track_count,
			tracks = excluded.tracks,
			fetched_at = excluded.fetched_at
	`, p.ID, p.Name, p.Owner, p.Description, p.URL, len(p.Tracks), string(tracksJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save playlist %s: %w", p.ID, err)
	}
	return nil
}

// GetPlaylist returns the cached copy of playlist id.
func (s *Store) GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error) {
	var row playlistRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, owner, description, url, track_count, tracks, fetched_at
		FROM playlists WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return playlist.Playlist{}, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("get playlist %s: %w", id, err)
	}

	p := playlist.Playlist{
		ID:          row.ID,
		Name:        row.Name,
		Owner:       row.Owner,
		Description: row.Description,
		URL:         row.URL,
		TrackCount:  row.TrackCount,
		CreatedAt:   row.FetchedAt,
	}
	if err := json.Unmarshal([]byte(row.TracksJSON), &p.Tracks); err != nil {
		return playlist.Playlist{}, fmt.Errorf("decode tracks of %s: %w", id, err)
	}
	return p, nil
}

// HasPlaylist reports whether playlist id is cached.
func (s *Store) HasPlaylist(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM playlists WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("lookup playlist %s: %w", id, err)
	}
	return n > 0, nil
}

// ListPlaylists returns every cached playlist, most recently fetched first.
func (s *Store) ListPlaylists(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, name, owner, track_count, fetched_at
		FROM playlists ORDER BY fetched_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return entries, nil
}

// SaveRun records a finished run.
func (s *Store) SaveRun(ctx context.Context, r Run) error {
	playlistIDs, _ := json.Marshal(nonNil(r.PlaylistIDs))
	topIDs, _ := json.Marshal(nonNil(r.TopIDs))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, playlist_ids, tracks, eligible, skipped, top_ids, created_playlist)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt.UTC(), r.FinishedAt.UTC(), string(playlistIDs),
		r.Tracks, r.Eligible, r.Skipped, string(topIDs), r.CreatedPlaylist)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun returns run id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	return s.getRun(ctx, "SELECT * FROM runs WHERE id = ?", id)
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	return s.getRun(ctx, "SELECT * FROM runs ORDER BY started_at DESC LIMIT 1")
}

// SetCreatedPlaylist records the playlist created from run id.
func (s *Store) SetCreatedPlaylist(ctx context.Context, id, url string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE runs SET created_playlist = ? WHERE id = ?", url, id)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) getRun(ctx context.Context, query string, args ...any) (Run, error) {
	var r Run
	err := s.db.GetContext(ctx, &r, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run: %w", ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	if err := json.Unmarshal([]byte(r.PlaylistIDsJSON), &r.PlaylistIDs); err != nil {
		return Run{}, fmt.Errorf("decode playlist ids of run %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TopIDsJSON), &r.TopIDs); err != nil {
		return Run{}, fmt.Errorf("decode top ids of run %s: %w", r.ID, err)
	}
	return r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
