// Package download fetches audio for tracks with yt-dlp.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gemporter/internal/playlist"
)

// Item is a track to download.
type Item struct {
	ID          string
	Name        string
	Artists     []string
	Album       string
	ReleaseDate string
}

// ItemFromTrack builds an Item from fetched track data.
func ItemFromTrack(t playlist.Track) Item {
	return Item{ID: t.ID, Name: t.Name, Artists: t.Artists, Album: t.Album, ReleaseDate: t.ReleaseDate}
}

// Result is the outcome of one download.
type Result struct {
	Item     Item
	Query    string
	Target   string
	Path     string
	Skipped  bool
	Attempts int
	Err      error
}

// OK reports whether the file is on disk.
func (r Result) OK() bool { return r.Err == nil }

// Searcher resolves a search query to concrete videos.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]playlist.Track, error)
}

// Options configures a Downloader.
type Options struct {
	Dir          string
	Format       string
	Workers      int
	Retries      int
	RetryDelay   time.Duration
	SkipExisting bool
	YtDlp        string
	FFmpeg       string
}

// Downloader runs yt-dlp for many tracks with bounded concurrency.
type Downloader struct {
	opts     Options
	runner   Runner
	searcher Searcher
	log      *zap.Logger
}

// New returns a Downloader. searcher may be nil, in which case yt-dlp's own
// search picks the video.
func New(opts Options, runner Runner, searcher Searcher, logger *zap.Logger) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Format == "" {
		opts.Format = "mp3"
	}
	if opts.YtDlp == "" {
		opts.YtDlp = "yt-dlp"
	}
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{opts: opts, runner: runner, searcher: searcher, log: logger}
}

// CheckDeps verifies that yt-dlp and ffmpeg can be executed.
func (d *Downloader) CheckDeps(ctx context.Context) error {
	var errs []error
	for _, dep := range [][]string{{d.opts.YtDlp, "--version"}, {d.opts.FFmpeg, "-version"}} {
		if _, _, err := d.runner.Run(ctx, dep[0], dep[1:]...); err != nil {
			d.log.Debug("dependency check failed", zap.String("binary", dep[0]), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", dep[0], ErrMissingDependency))
		}
	}
	return errors.Join(errs...)
}

// DownloadAll downloads items with at most Workers in flight. Per-track
// failures are reported in the results; the error is only set when ctx is
// cancelled or the output directory cannot be created. progress, when not
// nil, is called once per finished item from worker goroutines.
func (d *Downloader) DownloadAll(ctx context.Context, items []Item, progress func(Result)) ([]Result, error) {
	if err := os.MkdirAll(d.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir %s: %w", d.opts.Dir, err)
	}

	bases := fileBases(items)
	results := make([]Result, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.download(gctx, item, bases[i])
			if progress != nil {
				progress(results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	ok := 0
	for _, r := range results {
		if r.OK() {
			ok++
		}
	}
	d.log.Info("downloads finished", zap.Int("ok", ok), zap.Int("total", len(items)))
	return results, nil
}

// Download fetches a single item, retrying failed attempts.
func (d *Downloader) Download(ctx context.Context, item Item) Result {
	return d.download(ctx, item, SafeName(SearchQuery(item)))
}

// fileBases returns the file name, without extension, for each item. Names
// shared by different tracks get the track ID appended.
func fileBases(items []Item) []string {
	bases := lo.Map(items, func(item Item, _ int) string { return SafeName(SearchQuery(item)) })
	owners := make(map[string][]string)
	for i, base := range bases {
		owners[base] = append(owners[base], items[i].ID)
	}
	for i, base := range bases {
		if len(lo.Uniq(owners[base])) > 1 {
			bases[i] = base + " [" + SafeName(items[i].ID) + "]"
		}
	}
	return bases
}

func (d *Downloader) download(ctx context.Context, item Item, base string) Result {
	query := SearchQuery(item)
	res := Result{Item: item, Query: query}
	res.Path = filepath.Join(d.opts.Dir, base+"."+d.opts.Format)

	if d.opts.SkipExisting {
		if _, err := os.Stat(res.Path); err == nil {
			res.Skipped = true
			return res
		}
	}

	res.Target = d.resolve(ctx, query)
	template := filepath.Join(d.opts.Dir, base+".%(ext)s")
	args := []string{
		"-x",
		"--audio-format=" + d.opts.Format,
		"--audio-quality=0",
		"-o", template,
		"--embed-metadata",
		"--max-filesize", "25m",
		"--no-playlist",
		res.Target,
	}

	for attempt := 1; attempt <= d.opts.Retries; attempt++ {
		res.Attempts = attempt
		if attempt > 1 {
			d.log.Info("retrying download", zap.String("query", query), zap.Int("attempt", attempt))
			select {
			case <-time.After(d.opts.RetryDelay):
			case <-ctx.Done():
				res.Err = ctx.Err()
				return res
			}
		}

		_, stderr, err := d.runner.Run(ctx, d.opts.YtDlp, args...)
		if err != nil {
			if errors.Is(err, ErrMissingDependency) {
				res.Err = err
				return res
			}
			res.Err = fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(string(stderr)))
			d.log.Warn("download failed", zap.String("query", query), zap.Error(res.Err))
			continue
		}
		if _, err := os.Stat(res.Path); err != nil {
			res.Err = fmt.Errorf("download reported success but %s is missing", res.Path)
			d.log.Warn("download file not found", zap.String("query", query))
			continue
		}

		res.Err = nil
		d.tag(ctx, res.Path, item)
		return res
	}
	return res
}

// resolve picks a concrete video through the searcher and falls back to
// yt-dlp's first search hit.
func (d *Downloader) resolve(ctx context.Context, query string) string {
	if d.searcher != nil {
		hits, err := d.searcher.SearchTracks(ctx, query, 1)
		if err == nil && len(hits) > 0 && hits[0].URL != "" {
			return hits[0].URL
		}
		if err != nil {
			d.log.Debug("video search failed, using ytsearch", zap.String("query", query), zap.Error(err))
		}
	}
	return "ytsearch1:" + query
}

// tag rewrites the file's title, artist, album and date with ffmpeg. A
// failure leaves the yt-dlp tags in place.
func (d *Downloader) tag(ctx context.Context, path string, item Item) {
	ext := filepath.Ext(path)
	tmp := strings.TrimSuffix(path, ext) + ".tagging" + ext
	args := []string{
		"-i", path,
		"-c", "copy",
		"-metadata", "title=" + item.Name,
		"-metadata", "artist=" + strings.Join(item.Artists, ", "),
		"-metadata", "album=" + item.Album,
		"-metadata", "date=" + item.ReleaseDate,
		"-y", tmp,
	}
	if _, _, err := d.runner.Run(ctx, d.opts.FFmpeg, args...); err != nil {
		d.log.Debug("tagging failed", zap.String("path", path), zap.Error(err))
		os.Remove(tmp)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		d.log.Debug("replacing tagged file failed", zap.String("path", path), zap.Error(err))
	}
}

// SearchQuery builds "artists - title" with featuring credits, version
// suffixes and bracketed notes cut from the title.
func SearchQuery(item Item) string {
	name := item.Name
	for _, sep := range []string{" - ", " (feat", " (with", " ["} {
		if i := strings.Index(name, sep); i >= 0 {
			name = name[:i]
		}
	}
	return strings.Join(item.Artists, ", ") + " - " + strings.TrimSpace(name)
}

// SafeName replaces every character outside letters, digits and " -_.,()[]"
// with an underscore.
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case strings.ContainsRune(" -_.,()[]", r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
