package gems

import (
	"errors"
	"fmt"
	"testing"

	"gemporter/internal/playlist"
)

func TestRun_SkipsInvalidAndRanksTheRest(t *testing.T) {
	var raws []playlist.Track
	for i := 0; i < 9; i++ {
		r := rawTrack(fmt.Sprintf("t%d", i))
		r.Popularity = 2 * i
		raws = append(raws, r)
	}
	broken := rawTrack("broken")
	broken.Artists, broken.ArtistIDs = nil, nil
	raws = append(raws[:4], append([]playlist.Track{broken}, raws[4:]...)...)

	res := Run(DefaultConfig(), []Batch{{PlaylistID: "pl-1", Tracks: raws}})

	if len(res.Skips) != 1 {
		t.Fatalf("expected 1 skip, got %d", len(res.Skips))
	}
	if s := res.Skips[0]; s.TrackID != "broken" || !errors.Is(s.Err, ErrInvalidTrackData) {
		t.Fatalf("unexpected skip: %+v", s)
	}
	if len(res.Analysis.Entries) != 9 {
		t.Fatalf("expected 9 scored entries, got %d", len(res.Analysis.Entries))
	}
	if res.Ranking.Len() != 9 {
		t.Fatalf("expected all 9 to rank, got %d", res.Ranking.Len())
	}
	// Equal scores up to popularity 20, so popularity decides.
	if got := res.Ranking.Entries()[0].Track.ID; got != "t0" {
		t.Fatalf("expected t0 first, got %s", got)
	}
}

func TestRun_EarlierPlaylistWinsDuplicates(t *testing.T) {
	first := rawTrack("dup")
	second := rawTrack("dup")
	second.Popularity = 35

	res := Run(DefaultConfig(), []Batch{
		{PlaylistID: "pl-1", Tracks: []playlist.Track{first}},
		{PlaylistID: "pl-2", Tracks: []playlist.Track{second, rawTrack("other")}},
	})

	if len(res.Analysis.Entries) != 2 {
		t.Fatalf("expected 2 unique entries, got %d", len(res.Analysis.Entries))
	}
	if e := res.Analysis.Entries[0]; e.PlaylistID != "pl-1" || e.Track.Popularity != 12 {
		t.Fatalf("first playlist should win: %+v", e)
	}
	if len(res.Analysis.Conflicts) != 1 {
		t.Fatalf("expected a popularity conflict, got %+v", res.Analysis.Conflicts)
	}
}

func TestRun_Empty(t *testing.T) {
	res := Run(DefaultConfig(), nil)
	if res.Ranking.Len() != 0 || len(res.Skips) != 0 || len(res.Analysis.Entries) != 0 {
		t.Fatalf("empty run should produce empty results: %+v", res)
	}
}
