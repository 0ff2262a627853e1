package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"

	"gemporter/internal/gems"
	"gemporter/internal/utils"
)

// printer keeps the first write error so the text writers can print
// without checking every line.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) f(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) heading(title string) {
	p.f("%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// WriteGems writes the hidden gems summary. urlsFile is mentioned in the
// playlist creation section.
func WriteGems(w io.Writer, r Report, urlsFile string) error {
	p := &printer{w: w}
	res := r.Result
	ranked := res.Ranking.Entries()
	total := len(res.Analysis.Entries)

	p.f("HIDDEN GEMS ANALYSIS\n====================\n\n")
	if r.RunID != "" {
		p.f("Run: %s\n", r.RunID)
	}
	p.f("Generated: %s\n", r.Generated.Format("2006-01-02 15:04:05"))
	for _, pl := range r.Playlists {
		p.f("Playlist: %s\n", pl.Name)
	}
	p.f("\n")

	p.heading("ANALYSIS STATISTICS")
	p.f("Total Tracks Analyzed: %d\n", total)
	p.f("Hidden Gems Found: %d (%.1f%% of tracks)\n", len(ranked), percent(len(ranked), total))
	p.f("Average Gem Score: %.1f / %d\n", averageScore(ranked), gems.MaxTotal)
	for _, t := range gems.Tiers {
		p.f("%s Gems (%s points): %d\n", t, t.Range(), len(res.Ranking.Tier(t)))
	}
	if len(res.Skips) > 0 {
		p.f("Skipped Records: %d\n", len(res.Skips))
	}
	p.f("\n")

	p.heading("TOP HIDDEN GEMS")
	top := res.Ranking.Top(res.Config.TopGems)
	if len(top) == 0 {
		p.f("None found\n")
	}
	for i, e := range top {
		p.f("%d. [%2d/%d] %s by %s\n", i+1, e.Score(), gems.MaxTotal, e.Track.Name, artists(e.Track))
		p.f("   Popularity: %d/100\n", e.Track.Popularity)
		p.f("   Album: %s (%s)\n", e.Track.Album, e.Track.ReleaseDate)
		p.f("   Scoring: %d points\n", e.Score())
		for _, reason := range Reasons(e.Breakdown) {
			p.f("    - %s\n", reason)
		}
		p.f("   URL: %s\n\n", trackURL(e.Track))
	}
	p.f("\n")

	p.heading("GEMS BY SCORE CATEGORY")
	for _, t := range gems.Tiers {
		p.f("%s Gems (%s points):\n", t, t.Range())
		writeShortList(p, res.Ranking.Tier(t))
	}

	p.heading("GEMS BY POPULARITY BRACKET")
	for _, b := range gems.Brackets {
		p.f("%s (%s popularity):\n", b, b.Range())
		writeShortList(p, res.Ranking.Bracket(b))
	}

	p.heading("PLAYLIST CREATION")
	if urlsFile != "" {
		p.f("A file with the top %d gem URLs has been created at:\n%s\n\n", len(top), urlsFile)
	}
	p.f("Run `gemporter create` to turn the top gems into a playlist.\n\n")
	p.f("First 10 tracks for the playlist:\n")
	for i, e := range res.Ranking.Top(10) {
		p.f("%d. %s by %s\n", i+1, e.Track.Name, artists(e.Track))
	}
	return p.err
}

func writeShortList(p *printer, entries []gems.Entry) {
	if len(entries) == 0 {
		p.f("None found\n\n")
		return
	}
	for _, e := range entries {
		p.f("- [%2d/%d] %s by %s (Pop: %d)\n", e.Score(), gems.MaxTotal, e.Track.Name, artists(e.Track), e.Track.Popularity)
	}
	p.f("\n")
}

// WriteAnalytics writes per-track analytics over every unique track of the
// run, eligible or not.
func WriteAnalytics(w io.Writer, r Report) error {
	p := &printer{w: w}
	entries := byPopularity(r.Result.Analysis.Entries)

	var durationMs, popularity int
	for _, e := range entries {
		durationMs += e.Track.DurationMs
		popularity += e.Track.Popularity
	}

	p.f("Playlist Analytics\n==================\n\n")
	p.f("Total Tracks: %d\n", len(entries))
	p.f("Total Duration: %.1f minutes\n", float64(durationMs)/60000)
	avg := 0.0
	if len(entries) > 0 {
		avg = float64(popularity) / float64(len(entries))
	}
	p.f("Average Popularity: %.1f/100\n\n", avg)

	p.heading("All Tracks Sorted by Popularity")
	for _, e := range entries {
		p.f("[%3d/100] %s by %s\n", e.Track.Popularity, e.Track.Name, artists(e.Track))
		p.f("          Album: %s (%s)\n", e.Track.Album, e.Track.ReleaseDate)
		p.f("          Length: %s | Score: %d\n", utils.FormatDuration(e.Track.DurationMs), e.Score())
		p.f("          URL: %s\n\n", trackURL(e.Track))
	}

	underground := lo.Filter(entries, func(e gems.Entry, _ int) bool { return e.Track.Popularity <= 20 })
	rising := lo.Filter(entries, func(e gems.Entry, _ int) bool {
		return e.Track.Popularity > 20 && e.Track.Popularity <= 40
	})
	for _, group := range []struct {
		title   string
		entries []gems.Entry
	}{
		{"Underground Tracks (Popularity <= 20):", underground},
		{"Rising Tracks (Popularity 21-40):", rising},
	} {
		p.f("%s\n", group.title)
		for _, e := range group.entries {
			p.f("- %s by %s (%d/100)\n", e.Track.Name, artists(e.Track), e.Track.Popularity)
		}
		p.f("Total: %d tracks\n\n", len(group.entries))
	}

	years := lo.CountValuesBy(entries, func(e gems.Entry) string { return releaseYear(e.Track.ReleaseDate) })
	delete(years, "")
	if len(years) > 0 {
		p.f("Timeline Analysis:\n")
		keys := lo.Keys(years)
		slices.Sort(keys)
		for _, y := range keys {
			p.f("%s: %d tracks\n", y, years[y])
		}
	}
	return p.err
}

// WriteCombined writes the cross-playlist overview: contributions,
// histogram, repeat artists, duplicates and skipped records.
func WriteCombined(w io.Writer, r Report) error {
	p := &printer{w: w}
	a := r.Result.Analysis
	stats := a.Stats
	unique := len(a.Entries)

	p.f("Combined Playlist Analysis\n==========================\n\n")
	p.heading("Playlist Overview")
	p.f("Total Playlists Analyzed: %d\n", len(r.Playlists))
	p.f("Unique Tracks: %d\n", unique)
	p.f("Duplicates Removed: %d\n\n", stats.Duplicates)

	p.f("Included Playlists:\n")
	for _, s := range stats.Playlists {
		owner := ""
		for _, pl := range r.Playlists {
			if pl.ID == s.PlaylistID && pl.Owner != "" {
				owner = " by " + pl.Owner
			}
		}
		p.f("- %s%s (%d tracks, %d duplicates, %d gems)\n",
			r.playlistName(s.PlaylistID), owner, s.Tracks, s.Duplicates, s.Eligible)
	}
	p.f("\n")

	p.heading("Popularity Distribution")
	for _, b := range stats.Histogram {
		pct := percent(b.Count, unique)
		p.f("%7s: %-20s %4d tracks (%5.1f%%)\n", b.Label, strings.Repeat("#", int(pct/5)), b.Count, pct)
	}
	p.f("\n")

	p.heading("Repeat Artists")
	if len(stats.RepeatArtists) == 0 {
		p.f("None found\n")
	}
	for _, ac := range stats.RepeatArtists {
		p.f("- %s: %d gems\n", ac.Name, ac.Tracks)
	}
	p.f("\n")

	if len(a.Conflicts) > 0 {
		p.heading("Conflicting Duplicates")
		for _, c := range a.Conflicts {
			p.f("- %s: kept from %s, differs in %s from %s\n", c.TrackID,
				r.playlistName(c.KeptPlaylistID), strings.Join(c.Fields, ", "), r.playlistName(c.DroppedPlaylistID))
		}
		p.f("\n")
	}

	if len(r.Result.Skips) > 0 {
		p.heading("Skipped Records")
		for _, s := range r.Result.Skips {
			p.f("- %s %q in %s: %v\n", s.TrackID, s.Name, r.playlistName(s.PlaylistID), s.Err)
		}
		p.f("\n")
	}
	return p.err
}

// Reasons lists the non-zero components of b with their points.
func Reasons(b gems.Breakdown) []string {
	var out []string
	for _, c := range gems.Components {
		if v := b.Get(c); v > 0 {
			out = append(out, fmt.Sprintf("%s (+%d)", c.Label(), v))
		}
	}
	return out
}

func artists(t gems.Track) string {
	return strings.Join(t.ArtistNames(), ", ")
}

func trackURL(t gems.Track) string {
	if t.URL != "" {
		return t.URL
	}
	return utils.TrackURL(t.ID)
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func byPopularity(entries []gems.Entry) []gems.Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b gems.Entry) int { return a.Track.Popularity - b.Track.Popularity })
	return out
}

func averageScore(entries []gems.Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := lo.SumBy(entries, func(e gems.Entry) int { return e.Score() })
	return float64(sum) / float64(len(entries))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
