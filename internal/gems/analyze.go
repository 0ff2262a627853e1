package gems

import (
	"slices"
	"sort"
)

// Sourced is a track tagged with the playlist it was read from.
type Sourced struct {
	PlaylistID string
	Track      Track
}

// Conflict flags a duplicate track ID whose metadata differs from the
// retained record. The first record is kept; nothing is merged.
type Conflict struct {
	TrackID           string   `json:"track_id"`
	KeptPlaylistID    string   `json:"kept_playlist_id"`
	DroppedPlaylistID string   `json:"dropped_playlist_id"`
	Fields            []string `json:"fields"`
}

// Bucket is one fixed bin of the popularity histogram.
type Bucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// HistogramBuckets are the fixed popularity bins, in order.
var HistogramBuckets = []Bucket{
	{Label: "0-10", Min: 0, Max: 10},
	{Label: "11-20", Min: 11, Max: 20},
	{Label: "21-40", Min: 21, Max: 40},
	{Label: "41-100", Min: 41, Max: 100},
}

// ArtistCount is an artist credited on several eligible gems.
type ArtistCount struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Tracks int    `json:"tracks"`
}

// PlaylistSummary counts what one playlist contributed to the run.
type PlaylistSummary struct {
	PlaylistID string `json:"playlist_id"`
	Tracks     int    `json:"tracks"`
	Duplicates int    `json:"duplicates"`
	Eligible   int    `json:"eligible"`
}

// AggregateStats is built once per run and not modified afterwards.
type AggregateStats struct {
	RepeatArtists []ArtistCount     `json:"repeat_artists"`
	Histogram     []Bucket          `json:"popularity_histogram"`
	Duplicates    int               `json:"duplicates"`
	Playlists     []PlaylistSummary `json:"playlists"`
}

// RepeatCount returns how many eligible gems credit the artist with key,
// or 0 when the artist is not a repeat artist.
func (s AggregateStats) RepeatCount(key string) int {
	for _, a := range s.RepeatArtists {
		if a.Key == key {
			return a.Tracks
		}
	}
	return 0
}

// Analysis is the merged view of a multi-playlist run.
type Analysis struct {
	Entries   []Entry        `json:"entries"`
	Conflicts []Conflict     `json:"conflicts,omitempty"`
	Stats     AggregateStats `json:"stats"`
}

// Eligible returns the entries that passed both filters, in input order.
func (a Analysis) Eligible() []Entry {
	var out []Entry
	for _, e := range a.Entries {
		if e.Eligible {
			out = append(out, e)
		}
	}
	return out
}

// Analyzer merges tracks across playlists.
type Analyzer struct {
	agg *Aggregator
}

// NewAnalyzer creates an analyzer that scores with agg.
func NewAnalyzer(agg *Aggregator) *Analyzer {
	return &Analyzer{agg: agg}
}

// Analyze de-duplicates items by track ID (first occurrence wins), scores
// the survivors and computes the aggregate statistics.
func (an *Analyzer) Analyze(items []Sourced) Analysis {
	var (
		entries   []Entry
		conflicts []Conflict
		kept      = make(map[string]int)
		summaries []PlaylistSummary
		byID      = make(map[string]int)
		dups      int
	)

	summary := func(playlistID string) *PlaylistSummary {
		i, ok := byID[playlistID]
		if !ok {
			i = len(summaries)
			byID[playlistID] = i
			summaries = append(summaries, PlaylistSummary{PlaylistID: playlistID})
		}
		return &summaries[i]
	}

	for _, it := range items {
		s := summary(it.PlaylistID)
		s.Tracks++

		if i, seen := kept[it.Track.ID]; seen {
			dups++
			s.Duplicates++
			first := entries[i]
			if fields := diffFields(first.Track, it.Track); len(fields) > 0 {
				conflicts = append(conflicts, Conflict{
					TrackID:           it.Track.ID,
					KeptPlaylistID:    first.PlaylistID,
					DroppedPlaylistID: it.PlaylistID,
					Fields:            fields,
				})
			}
			continue
		}

		e := an.agg.Evaluate(it.PlaylistID, it.Track)
		kept[it.Track.ID] = len(entries)
		entries = append(entries, e)
		if e.Eligible {
			s.Eligible++
		}
	}

	return Analysis{
		Entries:   entries,
		Conflicts: conflicts,
		Stats: AggregateStats{
			RepeatArtists: repeatArtists(entries),
			Histogram:     histogram(entries),
			Duplicates:    dups,
			Playlists:     summaries,
		},
	}
}

func repeatArtists(entries []Entry) []ArtistCount {
	counts := make(map[string]*ArtistCount)
	for _, e := range entries {
		if !e.Eligible {
			continue
		}
		seen := make(map[string]bool, len(e.Track.Artists))
		for _, a := range e.Track.Artists {
			key := a.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			c, ok := counts[key]
			if !ok {
				c = &ArtistCount{Key: key, Name: a.String()}
				counts[key] = c
			}
			c.Tracks++
		}
	}

	var out []ArtistCount
	for _, c := range counts {
		if c.Tracks >= 2 {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tracks != out[j].Tracks {
			return out[i].Tracks > out[j].Tracks
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func histogram(entries []Entry) []Bucket {
	buckets := slices.Clone(HistogramBuckets)
	for _, e := range entries {
		for i := range buckets {
			if e.Track.Popularity >= buckets[i].Min && e.Track.Popularity <= buckets[i].Max {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

func diffFields(a, b Track) []string {
	var fields []string
	if a.Name != b.Name {
		fields = append(fields, "name")
	}
	if a.Popularity != b.Popularity {
		fields = append(fields, "popularity")
	}
	if a.DurationMs != b.DurationMs {
		fields = append(fields, "duration_ms")
	}
	if a.AlbumType != b.AlbumType {
		fields = append(fields, "album_type")
	}
	if a.AlbumTrackCount != b.AlbumTrackCount {
		fields = append(fields, "album_track_count")
	}
	if !slices.EqualFunc(a.Artists, b.Artists, func(x, y Artist) bool { return x.Key() == y.Key() }) {
		fields = append(fields, "artists")
	}
	return fields
}
