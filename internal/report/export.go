package report

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"time"

	"gemporter/internal/gems"
	"gemporter/internal/utils"
)

// GemRow is one ranked gem in the CSV report.
type GemRow struct {
	Rank          int      `csv:"rank"`
	ID            string   `csv:"id"`
	Name          string   `csv:"name"`
	Artists       []string `csv:"artists"`
	Album         string   `csv:"album"`
	ReleaseDate   string   `csv:"release_date"`
	Popularity    int      `csv:"popularity"`
	Duration      string   `csv:"duration"`
	Score         int      `csv:"score"`
	PopularityPts int      `csv:"popularity_inverse"`
	Collaboration int      `csv:"artist_collaboration"`
	DurationPts   int      `csv:"duration_fit"`
	ReleasePts    int      `csv:"release_focus"`
	Tier          string   `csv:"tier"`
	Bracket       string   `csv:"bracket"`
	Playlist      string   `csv:"playlist"`
	URL           string   `csv:"url"`
}

// Rows converts the ranking into CSV rows, in rank order.
func Rows(r Report) []GemRow {
	ranked := r.Result.Ranking.Entries()
	rows := make([]GemRow, len(ranked))
	for i, e := range ranked {
		rows[i] = GemRow{
			Rank:          i + 1,
			ID:            e.Track.ID,
			Name:          e.Track.Name,
			Artists:       e.Track.ArtistNames(),
			Album:         e.Track.Album,
			ReleaseDate:   e.Track.ReleaseDate,
			Popularity:    e.Track.Popularity,
			Duration:      utils.FormatDuration(e.Track.DurationMs),
			Score:         e.Score(),
			PopularityPts: e.Breakdown.Get(gems.PopularityInverse),
			Collaboration: e.Breakdown.Get(gems.Collaboration),
			DurationPts:   e.Breakdown.Get(gems.DurationFit),
			ReleasePts:    e.Breakdown.Get(gems.ReleaseFocus),
			Tier:          gems.TierFor(e.Score()).String(),
			Bracket:       gems.BracketFor(e.Track.Popularity).String(),
			Playlist:      r.playlistName(e.PlaylistID),
			URL:           trackURL(e.Track),
		}
	}
	return rows
}

// WriteCSV writes the ranked gems as CSV.
func WriteCSV(w io.Writer, r Report) error {
	headers := utils.StructToCsvHeader(reflect.TypeOf(GemRow{}))
	return utils.WriteCsv(w, headers, Rows(r))
}

type jsonGem struct {
	Rank    int        `json:"rank"`
	Tier    string     `json:"tier,omitempty"`
	Bracket string     `json:"bracket,omitempty"`
	Reasons []string   `json:"reasons"`
	Entry   gems.Entry `json:"entry"`
}

type jsonPlaylist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	URL   string `json:"url,omitempty"`
}

type jsonSkip struct {
	PlaylistID string `json:"playlist_id"`
	TrackID    string `json:"track_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

type jsonReport struct {
	RunID     string              `json:"run_id,omitempty"`
	Generated time.Time           `json:"generated"`
	Config    gems.Config         `json:"config"`
	Playlists []jsonPlaylist      `json:"playlists"`
	Tracks    int                 `json:"tracks_analyzed"`
	Gems      []jsonGem           `json:"gems"`
	TopIDs    []string            `json:"top_ids"`
	Stats     gems.AggregateStats `json:"stats"`
	Conflicts []gems.Conflict     `json:"conflicts,omitempty"`
	Skipped   []jsonSkip          `json:"skipped,omitempty"`
}

// WriteJSON writes the full run, including configuration and statistics,
// as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	res := r.Result
	out := jsonReport{
		RunID:     r.RunID,
		Generated: r.Generated,
		Config:    res.Config,
		Tracks:    len(res.Analysis.Entries),
		TopIDs:    res.Ranking.TopIDs(),
		Stats:     res.Analysis.Stats,
		Conflicts: res.Analysis.Conflicts,
		Playlists: []jsonPlaylist{},
		Gems:      []jsonGem{},
	}
	for _, p := range r.Playlists {
		out.Playlists = append(out.Playlists, jsonPlaylist{ID: p.ID, Name: p.Name, Owner: p.Owner, URL: p.URL})
	}
	for i, e := range res.Ranking.Entries() {
		out.Gems = append(out.Gems, jsonGem{
			Rank:    i + 1,
			Tier:    gems.TierFor(e.Score()).String(),
			Bracket: gems.BracketFor(e.Track.Popularity).String(),
			Reasons: Reasons(e.Breakdown),
			Entry:   e,
		})
	}
	for _, s := range res.Skips {
		reason := ""
		if s.Err != nil {
			reason = strings.TrimSpace(s.Err.Error())
		}
		out.Skipped = append(out.Skipped, jsonSkip{PlaylistID: s.PlaylistID, TrackID: s.TrackID, Name: s.Name, Reason: reason})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
