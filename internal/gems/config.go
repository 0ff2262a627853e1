package gems

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate for thresholds or policies that
// would break the score ranges.
var ErrInvalidConfig = errors.New("gems: invalid config")

// Interpolation selects how popularity points fall between breakpoints.
type Interpolation string

const (
	Step   Interpolation = "step"
	Linear Interpolation = "linear"
)

// PopularityStep awards Points to every popularity up to and including Ceiling.
type PopularityStep struct {
	Ceiling int `yaml:"ceiling" json:"ceiling"`
	Points  int `yaml:"points" json:"points"`
}

// PopularityPolicy configures the popularity-inverse scorer.
//
// Step mode walks Steps in order; Linear mode awards full points up to
// FullUntil and falls linearly to zero at ZeroFrom. In both modes every
// popularity at or above ZeroFrom scores zero.
type PopularityPolicy struct {
	Interpolation Interpolation    `yaml:"interpolation" json:"interpolation"`
	Steps         []PopularityStep `yaml:"steps" json:"steps"`
	FullUntil     int              `yaml:"full_until" json:"full_until"`
	ZeroFrom      int              `yaml:"zero_from" json:"zero_from"`
}

// CollaborationPolicy configures the artist-collaboration scorer. Tracks
// with Cap or more artists score the maximum.
type CollaborationPolicy struct {
	Cap int `yaml:"cap" json:"cap"`
}

// DurationPolicy configures the extended-length scorer.
type DurationPolicy struct {
	WindowMinMs    int `yaml:"window_min_ms" json:"window_min_ms"`
	WindowMaxMs    int `yaml:"window_max_ms" json:"window_max_ms"`
	ShoulderMs     int `yaml:"shoulder_ms" json:"shoulder_ms"`
	ShoulderPoints int `yaml:"shoulder_points" json:"shoulder_points"`
}

// CountTier awards Points to releases with at most MaxTracks tracks.
type CountTier struct {
	MaxTracks int `yaml:"max_tracks" json:"max_tracks"`
	Points    int `yaml:"points" json:"points"`
}

// ReleasePolicy configures the release-focus scorer.
type ReleasePolicy struct {
	Tiers       []CountTier `yaml:"tiers" json:"tiers"`
	SingleBonus int         `yaml:"single_bonus" json:"single_bonus"`
}

// Policy holds the breakpoints of all four component scorers.
type Policy struct {
	Popularity    PopularityPolicy    `yaml:"popularity" json:"popularity"`
	Collaboration CollaborationPolicy `yaml:"collaboration" json:"collaboration"`
	Duration      DurationPolicy      `yaml:"duration" json:"duration"`
	Release       ReleasePolicy       `yaml:"release" json:"release"`
}

// Config is the value object threaded through aggregation and ranking.
type Config struct {
	MinPopularity int    `yaml:"min_popularity" json:"min_popularity"`
	MaxPopularity int    `yaml:"max_popularity" json:"max_popularity"`
	MinScore      int    `yaml:"min_score" json:"min_score"`
	TopGems       int    `yaml:"top_gems" json:"top_gems"`
	Policy        Policy `yaml:"policy" json:"policy"`
}

// DefaultPolicy returns the stock scoring breakpoints.
func DefaultPolicy() Policy {
	return Policy{
		Popularity: PopularityPolicy{
			Interpolation: Step,
			Steps: []PopularityStep{
				{Ceiling: 20, Points: 20},
				{Ceiling: 29, Points: 15},
			},
			FullUntil: 20,
			ZeroFrom:  30,
		},
		Collaboration: CollaborationPolicy{Cap: 3},
		Duration: DurationPolicy{
			WindowMinMs:    5 * 60 * 1000,
			WindowMaxMs:    9 * 60 * 1000,
			ShoulderMs:     60 * 1000,
			ShoulderPoints: 5,
		},
		Release: ReleasePolicy{
			Tiers: []CountTier{
				{MaxTracks: 4, Points: 6},
				{MaxTracks: 8, Points: 3},
			},
			SingleBonus: 4,
		},
	}
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinPopularity: 0,
		MaxPopularity: 40,
		MinScore:      20,
		TopGems:       30,
		Policy:        DefaultPolicy(),
	}
}

// Validate checks the thresholds and the scoring policy.
func (c Config) Validate() error {
	if c.MinPopularity < 0 || c.MaxPopularity > 100 || c.MinPopularity > c.MaxPopularity {
		return fmt.Errorf("%w: popularity band [%d, %d] must lie within [0, 100]", ErrInvalidConfig, c.MinPopularity, c.MaxPopularity)
	}
	if c.MinScore < 0 || c.MinScore > MaxTotal {
		return fmt.Errorf("%w: min score %d outside [0, %d]", ErrInvalidConfig, c.MinScore, MaxTotal)
	}
	if c.TopGems < 0 {
		return fmt.Errorf("%w: top gems must not be negative", ErrInvalidConfig)
	}
	return c.Policy.Validate()
}

// Validate checks that every scorer stays inside its range and keeps its
// direction of monotonicity.
func (p Policy) Validate() error {
	if err := p.Popularity.validate(); err != nil {
		return err
	}
	if p.Collaboration.Cap < 2 {
		return fmt.Errorf("%w: collaboration cap must be at least 2, got %d", ErrInvalidConfig, p.Collaboration.Cap)
	}
	if err := p.Duration.validate(); err != nil {
		return err
	}
	return p.Release.validate()
}

func (p PopularityPolicy) validate() error {
	max := PopularityInverse.Max()
	if p.ZeroFrom <= 0 || p.ZeroFrom > 30 {
		return fmt.Errorf("%w: popularity zero_from must be in (0, 30], got %d", ErrInvalidConfig, p.ZeroFrom)
	}
	switch p.Interpolation {
	case Step:
		if len(p.Steps) == 0 {
			return fmt.Errorf("%w: step interpolation needs at least one step", ErrInvalidConfig)
		}
		if p.Steps[0].Points != max || p.Steps[0].Ceiling < 0 {
			return fmt.Errorf("%w: first popularity step must award %d points", ErrInvalidConfig, max)
		}
		for i, s := range p.Steps {
			if s.Points < 0 || s.Points > max {
				return fmt.Errorf("%w: popularity step %d awards %d points", ErrInvalidConfig, i, s.Points)
			}
			if s.Ceiling >= p.ZeroFrom {
				return fmt.Errorf("%w: popularity step %d ceiling %d reaches zero_from %d", ErrInvalidConfig, i, s.Ceiling, p.ZeroFrom)
			}
			if i > 0 && (s.Ceiling <= p.Steps[i-1].Ceiling || s.Points > p.Steps[i-1].Points) {
				return fmt.Errorf("%w: popularity steps must ascend in ceiling and not increase in points", ErrInvalidConfig)
			}
		}
	case Linear:
		if p.FullUntil < 0 || p.FullUntil >= p.ZeroFrom {
			return fmt.Errorf("%w: linear popularity needs 0 <= full_until < zero_from", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown popularity interpolation %q", ErrInvalidConfig, p.Interpolation)
	}
	return nil
}

func (p DurationPolicy) validate() error {
	if p.WindowMinMs < 0 || p.WindowMinMs > p.WindowMaxMs {
		return fmt.Errorf("%w: duration window [%d, %d] is inverted", ErrInvalidConfig, p.WindowMinMs, p.WindowMaxMs)
	}
	if p.ShoulderMs < 0 {
		return fmt.Errorf("%w: duration shoulder must not be negative", ErrInvalidConfig)
	}
	if p.ShoulderPoints < 0 || p.ShoulderPoints > DurationFit.Max() {
		return fmt.Errorf("%w: duration shoulder points %d outside [0, %d]", ErrInvalidConfig, p.ShoulderPoints, DurationFit.Max())
	}
	return nil
}

func (p ReleasePolicy) validate() error {
	if p.SingleBonus < 0 {
		return fmt.Errorf("%w: single bonus must not be negative", ErrInvalidConfig)
	}
	best := 0
	for i, t := range p.Tiers {
		if t.MaxTracks < 1 || t.Points < 0 {
			return fmt.Errorf("%w: release tier %d is malformed", ErrInvalidConfig, i)
		}
		if i > 0 && (t.MaxTracks <= p.Tiers[i-1].MaxTracks || t.Points > p.Tiers[i-1].Points) {
			return fmt.Errorf("%w: release tiers must ascend in size and not increase in points", ErrInvalidConfig)
		}
		if t.Points > best {
			best = t.Points
		}
	}
	if best+p.SingleBonus > ReleaseFocus.Max() {
		return fmt.Errorf("%w: release tier points plus single bonus exceed %d", ErrInvalidConfig, ReleaseFocus.Max())
	}
	return nil
}
