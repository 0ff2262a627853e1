package gems

import "encoding/json"

// Breakdown holds one sub-score per component. It is a value type and is
// never modified after Aggregator.Score returns it.
type Breakdown struct {
	scores [numComponents]int
}

// Get returns the sub-score of c.
func (b Breakdown) Get(c Component) int {
	if c < 0 || c >= numComponents {
		return 0
	}
	return b.scores[c]
}

// Total is the sum of all sub-scores.
func (b Breakdown) Total() int {
	total := 0
	for _, s := range b.scores {
		total += s
	}
	return total
}

// Map returns the sub-scores keyed by component name.
func (b Breakdown) Map() map[string]int {
	m := make(map[string]int, numComponents)
	for _, c := range Components {
		m[c.String()] = b.scores[c]
	}
	return m
}

func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Components map[string]int `json:"components"`
		Total      int            `json:"total"`
	}{b.Map(), b.Total()})
}

// Entry pairs a track with its score and the playlist it came from.
type Entry struct {
	PlaylistID string    `json:"playlist_id"`
	Track      Track     `json:"track"`
	Breakdown  Breakdown `json:"score"`
	Eligible   bool      `json:"eligible"`
}

// Score is shorthand for e.Breakdown.Total().
func (e Entry) Score() int { return e.Breakdown.Total() }

// Aggregator runs every component scorer and applies the inclusion filter.
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an aggregator for cfg. The config is copied.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Score computes a fresh breakdown for t.
func (a *Aggregator) Score(t Track) Breakdown {
	var b Breakdown
	for _, c := range Components {
		b.scores[c] = a.cfg.Policy.Score(c, t)
	}
	return b
}

// InBand reports whether popularity lies inside the configured band.
func (a *Aggregator) InBand(popularity int) bool {
	return popularity >= a.cfg.MinPopularity && popularity <= a.cfg.MaxPopularity
}

// Evaluate scores t and decides eligibility.
func (a *Aggregator) Evaluate(playlistID string, t Track) Entry {
	b := a.Score(t)
	return Entry{
		PlaylistID: playlistID,
		Track:      t,
		Breakdown:  b,
		Eligible:   a.InBand(t.Popularity) && b.Total() >= a.cfg.MinScore,
	}
}

// EvaluateAll scores every track of one playlist, keeping input order.
func (a *Aggregator) EvaluateAll(playlistID string, tracks []Track) []Entry {
	entries := make([]Entry, len(tracks))
	for i, t := range tracks {
		entries[i] = a.Evaluate(playlistID, t)
	}
	return entries
}
