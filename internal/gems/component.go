package gems

import "fmt"

// Component is one of the fixed sub-scores that make up a gem score.
type Component int

const (
	PopularityInverse Component = iota
	Collaboration
	DurationFit
	ReleaseFocus

	numComponents
)

// MaxTotal is the highest possible total score.
const MaxTotal = 50

// Components lists every component in report order.
var Components = [numComponents]Component{PopularityInverse, Collaboration, DurationFit, ReleaseFocus}

func (c Component) String() string {
	switch c {
	case PopularityInverse:
		return "popularity_inverse"
	case Collaboration:
		return "artist_collaboration"
	case DurationFit:
		return "duration"
	case ReleaseFocus:
		return "release_focus"
	}
	return fmt.Sprintf("component(%d)", int(c))
}

// Label is the human-readable component name.
func (c Component) Label() string {
	switch c {
	case PopularityInverse:
		return "Low popularity"
	case Collaboration:
		return "Artist collaboration"
	case DurationFit:
		return "Extended track length"
	case ReleaseFocus:
		return "Focus release"
	}
	return c.String()
}

// Max is the upper bound of the component's range. The lower bound is 0.
func (c Component) Max() int {
	switch c {
	case PopularityInverse:
		return 20
	case Collaboration, DurationFit, ReleaseFocus:
		return 10
	}
	return 0
}

// Score computes a single component for t.
func (p Policy) Score(c Component, t Track) int {
	switch c {
	case PopularityInverse:
		return p.Popularity.score(t.Popularity)
	case Collaboration:
		return p.Collaboration.score(len(t.Artists))
	case DurationFit:
		return p.Duration.score(t.DurationMs)
	case ReleaseFocus:
		return p.Release.score(t.AlbumType, t.AlbumTrackCount)
	}
	return 0
}

func (p PopularityPolicy) score(popularity int) int {
	full := PopularityInverse.Max()
	if popularity >= p.ZeroFrom {
		return 0
	}
	if popularity < 0 {
		popularity = 0
	}
	if p.Interpolation == Linear {
		if popularity <= p.FullUntil {
			return full
		}
		return full * (p.ZeroFrom - popularity) / (p.ZeroFrom - p.FullUntil)
	}
	for _, s := range p.Steps {
		if popularity <= s.Ceiling {
			return s.Points
		}
	}
	return 0
}

func (p CollaborationPolicy) score(artists int) int {
	if artists <= 1 || p.Cap < 2 {
		return 0
	}
	return Collaboration.Max() * (min(artists, p.Cap) - 1) / (p.Cap - 1)
}

func (p DurationPolicy) score(ms int) int {
	switch {
	case ms >= p.WindowMinMs && ms <= p.WindowMaxMs:
		return DurationFit.Max()
	case ms >= p.WindowMinMs-p.ShoulderMs && ms < p.WindowMinMs:
		return p.ShoulderPoints
	case ms > p.WindowMaxMs && ms <= p.WindowMaxMs+p.ShoulderMs:
		return p.ShoulderPoints
	}
	return 0
}

func (p ReleasePolicy) score(albumType AlbumType, tracks int) int {
	points := 0
	for _, t := range p.Tiers {
		if tracks <= t.MaxTracks {
			points = t.Points
			break
		}
	}
	if albumType == AlbumSingle {
		points += p.SingleBonus
	}
	return min(points, ReleaseFocus.Max())
}
