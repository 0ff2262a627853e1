package gems

import (
	"encoding/json"
	"testing"
)

func TestAggregator_ExampleGem(t *testing.T) {
	agg := NewAggregator(DefaultConfig())
	track := gemTrack("gem", 12, "A", "B", "C")

	e := agg.Evaluate("pl-1", track)

	want := map[Component]int{
		PopularityInverse: 20,
		Collaboration:     10,
		DurationFit:       10,
		ReleaseFocus:      10,
	}
	for c, w := range want {
		if got := e.Breakdown.Get(c); got != w {
			t.Fatalf("%s: got %d, want %d", c, got, w)
		}
	}
	if e.Score() != 50 {
		t.Fatalf("total: got %d, want 50", e.Score())
	}
	if !e.Eligible {
		t.Fatalf("expected example gem to be eligible")
	}
	if got := TierFor(e.Score()); got != TierElite {
		t.Fatalf("tier: got %s", got)
	}
	if got := BracketFor(track.Popularity); got != DeepUnderground {
		t.Fatalf("bracket: got %s", got)
	}
}

func TestAggregator_Eligibility(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func(c *Config)
		track Track
		want  bool
	}{
		{
			name:  "popular track excluded regardless of sub-scores",
			track: gemTrack("t", 85, "A", "B", "C"),
			want:  false,
		},
		{
			name:  "just above band",
			track: gemTrack("t", 41, "A", "B", "C"),
			want:  false,
		},
		{
			name:  "score below threshold",
			track: withRelease(withDuration(gemTrack("t", 35), 120000), AlbumAlbum, 14),
			want:  false,
		},
		{
			name:  "low popularity alone reaches threshold",
			track: withRelease(withDuration(gemTrack("t", 5), 120000), AlbumAlbum, 14),
			want:  true,
		},
		{
			name:  "below raised min popularity",
			cfg:   func(c *Config) { c.MinPopularity = 10 },
			track: gemTrack("t", 5, "A", "B", "C"),
			want:  false,
		},
		{
			name:  "raised min score",
			cfg:   func(c *Config) { c.MinScore = 46 },
			track: gemTrack("t", 25, "A", "B", "C"),
			want:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tc.cfg != nil {
				tc.cfg(&cfg)
			}
			e := NewAggregator(cfg).Evaluate("pl", tc.track)
			if e.Eligible != tc.want {
				t.Fatalf("eligible: got %v, want %v (score %d)", e.Eligible, tc.want, e.Score())
			}
		})
	}
}

func TestAggregator_TotalIsSumAndDeterministic(t *testing.T) {
	agg := NewAggregator(DefaultConfig())
	for pop := 0; pop <= 100; pop += 3 {
		for n := 1; n <= 4; n++ {
			names := []string{"A", "B", "C", "D"}[:n]
			track := withDuration(gemTrack("t", pop, names...), 200000+pop*5000)

			first := agg.Score(track)
			second := agg.Score(track)
			if first != second {
				t.Fatalf("score not deterministic for %+v", track)
			}

			sum := 0
			for _, c := range Components {
				sum += first.Get(c)
			}
			if sum != first.Total() {
				t.Fatalf("total %d != sum %d", first.Total(), sum)
			}
			if first.Total() < 0 || first.Total() > MaxTotal {
				t.Fatalf("total %d outside [0, %d]", first.Total(), MaxTotal)
			}
		}
	}
}

func TestBreakdown_MarshalJSON(t *testing.T) {
	b := NewAggregator(DefaultConfig()).Score(gemTrack("gem", 12, "A", "B"))

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		Components map[string]int `json:"components"`
		Total      int            `json:"total"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Total != 45 || got.Components["artist_collaboration"] != 5 {
		t.Fatalf("unexpected json: %s", data)
	}
}
