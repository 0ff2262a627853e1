// Package gems scores playlist tracks with the hidden gems heuristic and
// ranks the results. Every stage is a pure function over in-memory values.
package gems

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gemporter/internal/playlist"

	"github.com/samber/lo"
)

// ErrInvalidTrackData marks a raw record that cannot be normalized.
var ErrInvalidTrackData = errors.New("gems: invalid track data")

// InvalidTrackError describes which field of a raw record was rejected.
type InvalidTrackError struct {
	TrackID string
	Field   string
	Reason  string
}

func (e *InvalidTrackError) Error() string {
	id := e.TrackID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("invalid track data %s: %s %s", id, e.Field, e.Reason)
}

func (e *InvalidTrackError) Unwrap() error { return ErrInvalidTrackData }

// AlbumType is the release type of the album a track belongs to.
type AlbumType string

const (
	AlbumSingle      AlbumType = "single"
	AlbumAlbum       AlbumType = "album"
	AlbumCompilation AlbumType = "compilation"
)

// Artist identifies a credited artist. Either field may be empty, not both.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Key is the identity used for repeat-artist detection.
func (a Artist) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return strings.ToLower(strings.TrimSpace(a.Name))
}

func (a Artist) String() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Track is the canonical, bounds-checked record the scorers work on.
type Track struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Artists          []Artist  `json:"artists"`
	Popularity       int       `json:"popularity"`
	DurationMs       int       `json:"duration_ms"`
	AlbumType        AlbumType `json:"album_type"`
	AlbumTrackCount  int       `json:"album_track_count"`
	AvailableMarkets []string  `json:"available_markets,omitempty"`

	Album       string `json:"album,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ArtistNames returns the display names in credit order.
func (t Track) ArtistNames() []string {
	return lo.Map(t.Artists, func(a Artist, _ int) string { return a.String() })
}

// Normalize converts a raw playlist record into a Track. It never clamps:
// out-of-range values are reported as an *InvalidTrackError.
func Normalize(raw playlist.Track) (Track, error) {
	invalid := func(field, reason string) (Track, error) {
		return Track{}, &InvalidTrackError{TrackID: raw.ID, Field: field, Reason: reason}
	}

	if strings.TrimSpace(raw.ID) == "" {
		return invalid("id", "is empty")
	}
	if raw.Popularity < 0 || raw.Popularity > 100 {
		return invalid("popularity", fmt.Sprintf("%d is outside [0, 100]", raw.Popularity))
	}
	if raw.DurationMs < 0 {
		return invalid("duration_ms", fmt.Sprintf("%d is negative", raw.DurationMs))
	}

	n := max(len(raw.Artists), len(raw.ArtistIDs))
	if n == 0 {
		return invalid("artists", "is empty")
	}
	artists := make([]Artist, n)
	for i := range artists {
		if i < len(raw.Artists) {
			artists[i].Name = raw.Artists[i]
		}
		if i < len(raw.ArtistIDs) {
			artists[i].ID = raw.ArtistIDs[i]
		}
		if artists[i].Key() == "" {
			return invalid("artists", fmt.Sprintf("entry %d has neither id nor name", i))
		}
	}

	albumType := AlbumType(strings.ToLower(strings.TrimSpace(raw.AlbumType)))
	switch albumType {
	case AlbumSingle, AlbumAlbum, AlbumCompilation:
	default:
		return invalid("album_type", fmt.Sprintf("%q is not single, album or compilation", raw.AlbumType))
	}
	if raw.AlbumTrackCount < 1 {
		return invalid("album_track_count", fmt.Sprintf("%d is not positive", raw.AlbumTrackCount))
	}

	markets := lo.Uniq(raw.AvailableMarkets)
	slices.Sort(markets)

	return Track{
		ID:               raw.ID,
		Name:             raw.Name,
		Artists:          artists,
		Popularity:       raw.Popularity,
		DurationMs:       raw.DurationMs,
		AlbumType:        albumType,
		AlbumTrackCount:  raw.AlbumTrackCount,
		AvailableMarkets: markets,
		Album:            raw.Album,
		ReleaseDate:      raw.ReleaseDate,
		URL:              raw.URL,
	}, nil
}

// Skip records a raw record that was dropped during normalization.
type Skip struct {
	PlaylistID string
	TrackID    string
	Name       string
	Err        error
}

// NormalizeBatch normalizes every record of one playlist. Rejected records
// are returned as skips; the batch itself never fails.
func NormalizeBatch(playlistID string, raws []playlist.Track) ([]Track, []Skip) {
	tracks := make([]Track, 0, len(raws))
	var skips []Skip
	for _, raw := range raws {
		t, err := Normalize(raw)
		if err != nil {
			skips = append(skips, Skip{PlaylistID: playlistID, TrackID: raw.ID, Name: raw.Name, Err: err})
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, skips
}
