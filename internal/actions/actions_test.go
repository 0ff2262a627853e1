package actions

import (
	"flag"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"gemporter/internal/config"
	"gemporter/internal/playlist"
	"gemporter/internal/utils"
)

func TestParseRefs(t *testing.T) {
	tests := []struct {
		name    string
		refs    []string
		want    string
		wantErr bool
	}{
		{
			name: "urls and uris",
			refs: []string{
				"https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd?si=abc",
				"spotify:playlist:5ABHKGoOzxkaa28ttQV9sE",
				"37i9dQZF1DX0XUsuxWHRQd",
			},
			want: "37i9dQZF1DX0XUsuxWHRQd,5ABHKGoOzxkaa28ttQV9sE",
		},
		{name: "invalid", refs: []string{"https://example.com/x"}, wantErr: true},
		{name: "empty", refs: nil, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := parseRefs(tc.refs, utils.ParsePlaylistID)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %v", ids)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Join(ids, ","); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTrackIDs(t *testing.T) {
	ids, err := trackIDs([]string{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "spotify:track:4uLU6hMCjMI75M1A2tKUQC"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "4uLU6hMCjMI75M1A2tKUQC" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestResolveExportID(t *testing.T) {
	id, err := resolveExportID("spotify", "https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd")
	if err != nil || id != "37i9dQZF1DX0XUsuxWHRQd" {
		t.Fatalf("got %q, %v", id, err)
	}
	if id, _ := resolveExportID("youtube", "PLabc"); id != "PLabc" {
		t.Fatalf("youtube ids must pass through, got %q", id)
	}
}

func TestGetPlaylistOptions(t *testing.T) {
	opts := getPlaylistOptions([]playlist.Playlist{{ID: "a", Name: "Night", TrackCount: 3}})
	if len(opts) != 1 || opts[0].Key != "Night (3 tracks)" || opts[0].Value != "a" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestApplyGemsFlags(t *testing.T) {
	set := flag.NewFlagSet("gems", flag.ContinueOnError)
	set.Int("min-popularity", 0, "")
	set.Int("max-popularity", 0, "")
	set.Int("min-score", 0, "")
	set.Int("workers", 0, "")
	if err := set.Parse([]string{"--min-popularity", "5", "--max-popularity", "30"}); err != nil {
		t.Fatal(err)
	}
	c := cli.NewContext(nil, set, nil)

	s := &session{cfg: config.Default()}
	defaults := *s.cfg
	applyGemsFlags(c, s)

	if s.cfg.Gems.MinPopularity != 5 || s.cfg.Gems.MaxPopularity != 30 {
		t.Errorf("popularity band = [%d, %d], want [5, 30]", s.cfg.Gems.MinPopularity, s.cfg.Gems.MaxPopularity)
	}
	if s.cfg.Gems.MinScore != defaults.Gems.MinScore || s.cfg.Fetch.Workers != defaults.Fetch.Workers {
		t.Errorf("unset flags changed the config: %+v", s.cfg)
	}
	if err := s.cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
