package utils

import (
	"errors"
	"testing"
)

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "web url with share param", ref: "https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd?si=abc", want: "37i9dQZF1DX0XUsuxWHRQd"},
		{name: "url without scheme", ref: "open.spotify.com/playlist/abc123", want: "abc123"},
		{name: "locale prefix", ref: "https://open.spotify.com/intl-de/playlist/abc123", want: "abc123"},
		{name: "uri", ref: "spotify:playlist:abc123", want: "abc123"},
		{name: "bare id with whitespace", ref: "  abc123 \n", want: "abc123"},
		{name: "empty", ref: "", wantErr: true},
		{name: "empty uri id", ref: "spotify:playlist:", wantErr: true},
		{name: "foreign host", ref: "https://example.com/playlist/abc123", wantErr: true},
		{name: "album url", ref: "https://open.spotify.com/album/abc123", wantErr: true},
		{name: "garbage id", ref: "abc?123", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tc.ref)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidLink) {
					t.Fatalf("expected ErrInvalidLink, got %v (id %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseTrackID(t *testing.T) {
	got, err := ParseTrackID(TrackURL("4uLU6hMCjMI75M1A2tKUQC"))
	if err != nil || got != "4uLU6hMCjMI75M1A2tKUQC" {
		t.Fatalf("round trip through TrackURL failed: %q, %v", got, err)
	}
	if _, err := ParseTrackID(PlaylistURL("abc")); !errors.Is(err, ErrInvalidLink) {
		t.Fatalf("playlist url should not parse as a track: %v", err)
	}
}
