package gems

import (
	"slices"
	"strings"
)

// Tier classifies a gem by total score.
type Tier int

const (
	TierNone Tier = iota
	TierStandard
	TierQuality
	TierElite
)

// Tiers lists the reportable tiers, best first.
var Tiers = []Tier{TierElite, TierQuality, TierStandard}

// TierFor returns the tier of a total score. Scores below 20 have no tier.
func TierFor(score int) Tier {
	switch {
	case score >= 40:
		return TierElite
	case score >= 30:
		return TierQuality
	case score >= 20:
		return TierStandard
	}
	return TierNone
}

func (t Tier) String() string {
	switch t {
	case TierElite:
		return "Elite"
	case TierQuality:
		return "Quality"
	case TierStandard:
		return "Standard"
	}
	return ""
}

// Range is the human-readable score range of the tier.
func (t Tier) Range() string {
	switch t {
	case TierElite:
		return "40+"
	case TierQuality:
		return "30-39"
	case TierStandard:
		return "20-29"
	}
	return ""
}

// Bracket classifies a gem by popularity.
type Bracket int

const (
	BracketNone Bracket = iota
	UltraUnderground
	DeepUnderground
	RisingUnderground
)

// Brackets lists the reportable brackets, least popular first.
var Brackets = []Bracket{UltraUnderground, DeepUnderground, RisingUnderground}

// BracketFor returns the bracket of a popularity value. Values above 40
// have no bracket.
func BracketFor(popularity int) Bracket {
	switch {
	case popularity < 0:
		return BracketNone
	case popularity <= 10:
		return UltraUnderground
	case popularity <= 20:
		return DeepUnderground
	case popularity <= 40:
		return RisingUnderground
	}
	return BracketNone
}

func (b Bracket) String() string {
	switch b {
	case UltraUnderground:
		return "Ultra Underground"
	case DeepUnderground:
		return "Deep Underground"
	case RisingUnderground:
		return "Rising Underground"
	}
	return ""
}

// Range is the human-readable popularity range of the bracket.
func (b Bracket) Range() string {
	switch b {
	case UltraUnderground:
		return "0-10"
	case DeepUnderground:
		return "11-20"
	case RisingUnderground:
		return "21-40"
	}
	return ""
}

// Less orders entries by score descending, then popularity ascending, then
// track ID.
func Less(a, b Entry) bool {
	return Compare(a, b) < 0
}

// Compare is the three-way form of Less.
func Compare(a, b Entry) int {
	if sa, sb := a.Score(), b.Score(); sa != sb {
		if sa > sb {
			return -1
		}
		return 1
	}
	if a.Track.Popularity != b.Track.Popularity {
		if a.Track.Popularity < b.Track.Popularity {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Track.ID, b.Track.ID)
}

// Ranking is the read-only ranked view over the eligible entries.
type Ranking struct {
	ordered  []Entry
	tiers    map[Tier][]Entry
	brackets map[Bracket][]Entry
	top      int
}

// Rank keeps the eligible entries, orders them and buckets them by tier
// and popularity bracket. Ineligible entries are dropped.
func Rank(entries []Entry, cfg Config) Ranking {
	var ordered []Entry
	for _, e := range entries {
		if e.Eligible {
			ordered = append(ordered, e)
		}
	}
	slices.SortFunc(ordered, Compare)

	r := Ranking{
		ordered:  ordered,
		tiers:    make(map[Tier][]Entry),
		brackets: make(map[Bracket][]Entry),
		top:      cfg.TopGems,
	}
	for _, e := range ordered {
		if t := TierFor(e.Score()); t != TierNone {
			r.tiers[t] = append(r.tiers[t], e)
		}
		if b := BracketFor(e.Track.Popularity); b != BracketNone {
			r.brackets[b] = append(r.brackets[b], e)
		}
	}
	return r
}

// Len is the number of ranked entries.
func (r Ranking) Len() int { return len(r.ordered) }

// Entries returns a copy of the ranked entries.
func (r Ranking) Entries() []Entry { return slices.Clone(r.ordered) }

// Top returns at most n entries from the head of the ranking.
func (r Ranking) Top(n int) []Entry {
	if n < 0 {
		n = 0
	}
	return slices.Clone(r.ordered[:min(n, len(r.ordered))])
}

// Tier returns the ranked entries of tier t.
func (r Ranking) Tier(t Tier) []Entry { return slices.Clone(r.tiers[t]) }

// Bracket returns the ranked entries of bracket b.
func (r Ranking) Bracket(b Bracket) []Entry { return slices.Clone(r.brackets[b]) }

// TopIDs returns the track IDs of the configured number of top gems, in
// rank order. This is the input of playlist creation.
func (r Ranking) TopIDs() []string {
	top := r.Top(r.top)
	ids := make([]string, len(top))
	for i, e := range top {
		ids[i] = e.Track.ID
	}
	return ids
}
