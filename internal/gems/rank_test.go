package gems

import (
	"reflect"
	"testing"
)

func entry(id string, score, popularity int, eligible bool) Entry {
	// Spread the score over the components; Rank only looks at the total.
	var b Breakdown
	b.scores[PopularityInverse] = min(score, 20)
	rest := score - b.scores[PopularityInverse]
	for _, c := range []Component{Collaboration, DurationFit, ReleaseFocus} {
		b.scores[c] = min(rest, 10)
		rest -= b.scores[c]
	}
	return Entry{
		PlaylistID: "pl",
		Track:      Track{ID: id, Popularity: popularity},
		Breakdown:  b,
		Eligible:   eligible,
	}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Track.ID
	}
	return out
}

func TestRank_Order(t *testing.T) {
	entries := []Entry{
		entry("c", 30, 10, true),
		entry("a", 45, 20, true),
		entry("b", 45, 5, true),
		entry("d", 30, 10, true),
		entry("x", 50, 5, false),
		entry("e", 20, 40, true),
	}

	r := Rank(entries, DefaultConfig())

	want := []string{"b", "a", "c", "d", "e"}
	if got := ids(r.Entries()); !reflect.DeepEqual(got, want) {
		t.Fatalf("order: got %v, want %v", got, want)
	}
	if r.Len() != 5 {
		t.Fatalf("ineligible entries must be dropped, len %d", r.Len())
	}
}

func TestRank_StrictTotalOrder(t *testing.T) {
	var entries []Entry
	for i, score := range []int{20, 35, 35, 41, 20, 50, 29} {
		entries = append(entries, entry(string(rune('a'+i)), score, (i*7)%40, true))
	}
	r := Rank(entries, DefaultConfig()).Entries()
	for i := 1; i < len(r); i++ {
		if !Less(r[i-1], r[i]) {
			t.Fatalf("entries %d and %d out of order: %+v / %+v", i-1, i, r[i-1].Track, r[i].Track)
		}
		if Less(r[i], r[i-1]) {
			t.Fatalf("order is not antisymmetric at %d", i)
		}
	}
}

func TestRank_Buckets(t *testing.T) {
	entries := []Entry{
		entry("elite", 44, 3, true),
		entry("quality", 33, 15, true),
		entry("standard", 22, 35, true),
		entry("edge40", 40, 11, true),
		entry("edge30", 30, 10, true),
		entry("low", 15, 5, true),
	}
	cfg := DefaultConfig()
	cfg.MinScore = 10

	r := Rank(entries, cfg)

	tiers := map[Tier][]string{
		TierElite:    {"elite", "edge40"},
		TierQuality:  {"quality", "edge30"},
		TierStandard: {"standard"},
	}
	for tier, want := range tiers {
		if got := ids(r.Tier(tier)); !reflect.DeepEqual(got, want) {
			t.Fatalf("tier %s: got %v, want %v", tier, got, want)
		}
	}

	brackets := map[Bracket][]string{
		UltraUnderground:  {"elite", "edge30", "low"},
		DeepUnderground:   {"edge40", "quality"},
		RisingUnderground: {"standard"},
	}
	for bracket, want := range brackets {
		if got := ids(r.Bracket(bracket)); !reflect.DeepEqual(got, want) {
			t.Fatalf("bracket %s: got %v, want %v", bracket, got, want)
		}
	}
}

func TestRank_TopIDs(t *testing.T) {
	entries := []Entry{
		entry("a", 25, 5, true),
		entry("b", 35, 5, true),
		entry("c", 45, 5, true),
	}

	tests := []struct {
		name string
		top  int
		want []string
	}{
		{name: "fewer than available", top: 2, want: []string{"c", "b"}},
		{name: "more than available", top: 10, want: []string{"c", "b", "a"}},
		{name: "zero", top: 0, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TopGems = tc.top
			if got := Rank(entries, cfg).TopIDs(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRank_Empty(t *testing.T) {
	r := Rank(nil, DefaultConfig())
	if r.Len() != 0 || len(r.TopIDs()) != 0 || len(r.Tier(TierElite)) != 0 {
		t.Fatalf("empty ranking should be valid and empty")
	}
}

func TestTierAndBracketBoundaries(t *testing.T) {
	tierCases := map[int]Tier{19: TierNone, 20: TierStandard, 29: TierStandard, 30: TierQuality, 39: TierQuality, 40: TierElite, 50: TierElite}
	for score, want := range tierCases {
		if got := TierFor(score); got != want {
			t.Fatalf("TierFor(%d): got %s, want %s", score, got, want)
		}
	}
	bracketCases := map[int]Bracket{0: UltraUnderground, 10: UltraUnderground, 11: DeepUnderground, 20: DeepUnderground, 21: RisingUnderground, 40: RisingUnderground, 41: BracketNone}
	for pop, want := range bracketCases {
		if got := BracketFor(pop); got != want {
			t.Fatalf("BracketFor(%d): got %s, want %s", pop, got, want)
		}
	}
}
