// Package report renders the results of a gems run as text, JSON and CSV
// files and as a console table.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gemporter/internal/gems"
	"gemporter/internal/playlist"
)

// TimestampLayout is used in every output file name.
const TimestampLayout = "20060102_150405"

// Report is the input of every writer. Playlists carry metadata only; the
// scored tracks live in Result.
type Report struct {
	RunID     string
	Generated time.Time
	Playlists []playlist.Playlist
	Result    gems.Result
}

// Files lists the paths Write produced. Combined is empty for single
// playlist runs.
type Files struct {
	Gems      string
	JSON      string
	CSV       string
	URLs      string
	Analytics string
	Combined  string
}

// All returns the non-empty paths in write order.
func (f Files) All() []string {
	var out []string
	for _, p := range []string{f.Gems, f.JSON, f.CSV, f.URLs, f.Analytics, f.Combined} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilesFor returns the paths a report generated at ts is written to.
func FilesFor(dir string, ts time.Time, playlists int) Files {
	stamp := ts.Format(TimestampLayout)
	f := Files{
		Gems:      filepath.Join(dir, "hidden_gems_"+stamp+".txt"),
		JSON:      filepath.Join(dir, "hidden_gems_"+stamp+".json"),
		CSV:       filepath.Join(dir, "hidden_gems_"+stamp+".csv"),
		URLs:      filepath.Join(dir, "gem_urls_"+stamp+".txt"),
		Analytics: filepath.Join(dir, "track_analytics_"+stamp+".txt"),
	}
	if playlists > 1 {
		f.Combined = filepath.Join(dir, "combined_analysis_"+stamp+".txt")
	}
	return f
}

// Write renders every report into dir, creating it when needed.
func Write(dir string, r Report) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if r.Generated.IsZero() {
		r.Generated = time.Now()
	}
	files := FilesFor(dir, r.Generated, len(r.Playlists))

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{files.Gems, func(w io.Writer) error { return WriteGems(w, r, files.URLs) }},
		{files.JSON, func(w io.Writer) error { return WriteJSON(w, r) }},
		{files.CSV, func(w io.Writer) error { return WriteCSV(w, r) }},
		{files.URLs, func(w io.Writer) error { return WriteURLs(w, r) }},
		{files.Analytics, func(w io.Writer) error { return WriteAnalytics(w, r) }},
		{files.Combined, func(w io.Writer) error { return WriteCombined(w, r) }},
	}
	for _, wr := range writers {
		if wr.path == "" {
			continue
		}
		if err := writeFile(wr.path, wr.write); err != nil {
			return files, err
		}
	}
	return files, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteURLs writes the top gem URLs one per line, in rank order.
func WriteURLs(w io.Writer, r Report) error {
	top := r.Result.Ranking.Top(r.Result.Config.TopGems)
	for _, e := range top {
		if _, err := fmt.Fprintln(w, trackURL(e.Track)); err != nil {
			return err
		}
	}
	return nil
}

func (r Report) playlistName(id string) string {
	for _, p := range r.Playlists {
		if p.ID == id && p.Name != "" {
			return p.Name
		}
	}
	return id
}
