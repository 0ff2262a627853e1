package gems

import (
	"reflect"
	"testing"
)

func TestAnalyzer_Deduplicates(t *testing.T) {
	an := NewAnalyzer(NewAggregator(DefaultConfig()))

	items := []Sourced{
		{PlaylistID: "pl-1", Track: gemTrack("t1", 12)},
		{PlaylistID: "pl-1", Track: gemTrack("t2", 15)},
		{PlaylistID: "pl-2", Track: gemTrack("t1", 12)},
		{PlaylistID: "pl-2", Track: gemTrack("t3", 70)},
	}

	got := an.Analyze(items)

	if len(got.Entries) != 3 {
		t.Fatalf("expected 3 unique entries, got %d", len(got.Entries))
	}
	if got.Entries[0].PlaylistID != "pl-1" || got.Entries[0].Track.ID != "t1" {
		t.Fatalf("first occurrence should win, got %+v", got.Entries[0])
	}
	if got.Stats.Duplicates != 1 {
		t.Fatalf("duplicates: got %d, want 1", got.Stats.Duplicates)
	}
	if len(got.Conflicts) != 0 {
		t.Fatalf("identical duplicates should not conflict: %+v", got.Conflicts)
	}

	want := []PlaylistSummary{
		{PlaylistID: "pl-1", Tracks: 2, Duplicates: 0, Eligible: 2},
		{PlaylistID: "pl-2", Tracks: 2, Duplicates: 1, Eligible: 0},
	}
	if !reflect.DeepEqual(got.Stats.Playlists, want) {
		t.Fatalf("playlists: got %+v, want %+v", got.Stats.Playlists, want)
	}
}

func TestAnalyzer_FlagsConflictingDuplicates(t *testing.T) {
	an := NewAnalyzer(NewAggregator(DefaultConfig()))

	changed := gemTrack("t1", 33, "Someone Else")
	got := an.Analyze([]Sourced{
		{PlaylistID: "pl-1", Track: gemTrack("t1", 12)},
		{PlaylistID: "pl-2", Track: changed},
	})

	if len(got.Entries) != 1 || got.Entries[0].Track.Popularity != 12 {
		t.Fatalf("conflicting duplicate must not replace the first record: %+v", got.Entries)
	}
	if len(got.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %d", len(got.Conflicts))
	}
	c := got.Conflicts[0]
	if c.KeptPlaylistID != "pl-1" || c.DroppedPlaylistID != "pl-2" {
		t.Fatalf("unexpected conflict playlists: %+v", c)
	}
	if want := []string{"popularity", "artists"}; !reflect.DeepEqual(c.Fields, want) {
		t.Fatalf("fields: got %v, want %v", c.Fields, want)
	}
}

func TestAnalyzer_RepeatArtistsAndHistogram(t *testing.T) {
	an := NewAnalyzer(NewAggregator(DefaultConfig()))

	items := []Sourced{
		{PlaylistID: "pl-1", Track: gemTrack("t1", 3, "Nova", "Kite")},
		{PlaylistID: "pl-1", Track: gemTrack("t2", 18, "nova")},
		{PlaylistID: "pl-2", Track: gemTrack("t3", 25, "Kite", "Kite")},
		{PlaylistID: "pl-2", Track: gemTrack("t4", 90, "Nova")},
		{PlaylistID: "pl-2", Track: gemTrack("t5", 40, "Solo")},
	}

	got := an.Analyze(items)

	want := []ArtistCount{
		{Key: "kite", Name: "Kite", Tracks: 2},
		{Key: "nova", Name: "Nova", Tracks: 2},
	}
	if !reflect.DeepEqual(got.Stats.RepeatArtists, want) {
		t.Fatalf("repeat artists: got %+v, want %+v", got.Stats.RepeatArtists, want)
	}
	if got.Stats.RepeatCount("solo") != 0 {
		t.Fatalf("single-track artist must not be a repeat artist")
	}

	counts := map[string]int{}
	for _, b := range got.Stats.Histogram {
		counts[b.Label] = b.Count
	}
	wantCounts := map[string]int{"0-10": 1, "11-20": 1, "21-40": 2, "41-100": 1}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Fatalf("histogram: got %v, want %v", counts, wantCounts)
	}
	if HistogramBuckets[0].Count != 0 {
		t.Fatalf("analysis must not mutate the shared bucket table")
	}
}

func TestAnalyzer_NoEligibleTracks(t *testing.T) {
	an := NewAnalyzer(NewAggregator(DefaultConfig()))

	got := an.Analyze([]Sourced{
		{PlaylistID: "pl-1", Track: gemTrack("t1", 80)},
		{PlaylistID: "pl-1", Track: gemTrack("t2", 95)},
	})
	if len(got.Eligible()) != 0 {
		t.Fatalf("expected no eligible entries")
	}
	if len(got.Stats.RepeatArtists) != 0 {
		t.Fatalf("expected no repeat artists")
	}

	empty := an.Analyze(nil)
	if len(empty.Entries) != 0 || len(empty.Stats.Histogram) != len(HistogramBuckets) {
		t.Fatalf("empty input should still produce an empty histogram: %+v", empty.Stats)
	}
}
