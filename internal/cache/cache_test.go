package cache

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"gemporter/internal/playlist"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePlaylist(id string, tracks int) playlist.Playlist {
	p := playlist.Playlist{ID: id, Name: "Late Night " + id, Owner: "dj", URL: "https://open.spotify.com/playlist/" + id}
	for i := 0; i < tracks; i++ {
		p.Tracks = append(p.Tracks, playlist.Track{
			ID:              id + "-t" + string(rune('a'+i)),
			Name:            "Song",
			Artists:         []string{"A", "B"},
			ArtistIDs:       []string{"a", "b"},
			Popularity:      10 + i,
			DurationMs:      390000,
			AlbumType:       "single",
			AlbumTrackCount: 2,
		})
	}
	return p
}

func TestStore_PlaylistRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if ok, err := s.HasPlaylist(ctx, "pl1"); err != nil || ok {
		t.Fatalf("empty cache reported a hit: %v %v", ok, err)
	}
	if _, err := s.GetPlaylist(ctx, "pl1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := samplePlaylist("pl1", 3)
	if err := s.SavePlaylist(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetPlaylist(ctx, "pl1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != want.Name || got.Owner != want.Owner || got.TrackCount != 3 {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if !reflect.DeepEqual(got.Tracks, want.Tracks) {
		t.Fatalf("tracks mismatch:\n got %+v\nwant %+v", got.Tracks, want.Tracks)
	}
	if ok, _ := s.HasPlaylist(ctx, "pl1"); !ok {
		t.Fatalf("saved playlist not reported as cached")
	}
}

func TestStore_SavePlaylistReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.SavePlaylist(ctx, samplePlaylist("pl1", 3)); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePlaylist(ctx, samplePlaylist("pl1", 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePlaylist(ctx, samplePlaylist("pl2", 2)); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPlaylist(ctx, "pl1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tracks) != 1 {
		t.Fatalf("expected the second save to replace the tracks, got %d", len(got.Tracks))
	}

	entries, err := s.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 cached playlists, got %d", len(entries))
	}
}

func TestStore_Runs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.LatestRun(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty history, got %v", err)
	}

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	older := Run{ID: "run-1", StartedAt: base, FinishedAt: base.Add(time.Minute), PlaylistIDs: []string{"pl1"}, Tracks: 10, Eligible: 4, TopIDs: []string{"a", "b"}}
	newer := Run{ID: "run-2", StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(3 * time.Hour), PlaylistIDs: []string{"pl1", "pl2"}, Tracks: 20, Eligible: 7, Skipped: 1}

	for _, r := range []Run{older, newer} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("save run %s: %v", r.ID, err)
		}
	}

	latest, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "run-2" || latest.Skipped != 1 || !reflect.DeepEqual(latest.PlaylistIDs, []string{"pl1", "pl2"}) {
		t.Fatalf("unexpected latest run: %+v", latest)
	}
	if len(latest.TopIDs) != 0 {
		t.Fatalf("expected no top ids, got %v", latest.TopIDs)
	}

	first, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(first.TopIDs, []string{"a", "b"}) || !first.StartedAt.Equal(base) {
		t.Fatalf("unexpected run: %+v", first)
	}

	if err := s.SetCreatedPlaylist(ctx, "run-1", "https://open.spotify.com/playlist/new"); err != nil {
		t.Fatalf("set created playlist: %v", err)
	}
	first, _ = s.GetRun(ctx, "run-1")
	if first.CreatedPlaylist == "" {
		t.Fatalf("created playlist not stored")
	}
	if err := s.SetCreatedPlaylist(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetRunCorruptIDs(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run := Run{ID: "run-1", StartedAt: time.Now(), TopIDs: []string{"a"}}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE runs SET top_ids = ? WHERE id = ?", "{broken", "run-1"); err != nil {
		t.Fatal(err)
	}

	_, err := s.GetRun(ctx, "run-1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}
