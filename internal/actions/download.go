package actions

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"gemporter/internal/download"
	"gemporter/internal/playlist"
)

func (s *session) downloader(c *cli.Context, searcher download.Searcher) *download.Downloader {
	cfg := &s.cfg.Download
	if c.IsSet("dir") {
		cfg.Dir = c.String("dir")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	return download.New(download.Options{
		Dir:          cfg.Dir,
		Format:       cfg.Format,
		Workers:      cfg.Workers,
		Retries:      cfg.Retries,
		RetryDelay:   2 * time.Second,
		SkipExisting: c.Bool("skip-existing"),
		YtDlp:        cfg.YtDlp,
		FFmpeg:       cfg.FFmpeg,
	}, download.ExecRunner{}, searcher, s.log)
}

// DownloadGems downloads audio for the top gems of a run, a gem_urls file
// or a gems CSV with yt-dlp.
func DownloadGems(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()
	if c.IsSet("cache") {
		s.cfg.Cache.Path = c.String("cache")
	}

	ctx := c.Context
	ids, _, err := selectedTrackIDs(ctx, c, s)
	if err != nil {
		return err
	}
	if limit := c.Int("limit"); limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	// The API key resolves queries to concrete videos; without it yt-dlp
	// searches on its own.
	var searcher download.Searcher
	if s.cfg.YouTube.APIKey != "" && !c.Bool("no-api-search") {
		yt, err := s.youtube(ctx, true)
		if err != nil {
			s.log.Warn("youtube search unavailable, using yt-dlp search", zap.Error(err))
		} else {
			searcher = yt
		}
	}

	d := s.downloader(c, searcher)
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if err := d.CheckDeps(ctx); err != nil {
		return fmt.Errorf("%w\ninstall yt-dlp and ffmpeg, then run `gemporter check-deps`", err)
	}

	spotify, err := s.spotify(ctx, false)
	if err != nil {
		return err
	}
	tracks, err := spotify.GetTracks(ctx, ids)
	if err != nil {
		return err
	}
	items := lo.Map(tracks, func(t playlist.Track, _ int) download.Item { return download.ItemFromTrack(t) })

	fmt.Printf("Downloading %d tracks...\n", len(items))
	var (
		mu   sync.Mutex
		done int
	)
	results, err := d.DownloadAll(ctx, items, func(r download.Result) {
		mu.Lock()
		defer mu.Unlock()
		done++
		switch {
		case r.Skipped:
			fmt.Printf("[%d/%d] skipped %s (already downloaded)\n", done, len(items), r.Query)
		case r.OK():
			fmt.Printf("[%d/%d] downloaded %s\n", done, len(items), r.Query)
		default:
			fmt.Printf("[%d/%d] failed %s: %v\n", done, len(items), r.Query, r.Err)
		}
	})
	if err != nil {
		return err
	}

	failed := lo.Filter(results, func(r download.Result, _ int) bool { return !r.OK() })
	fmt.Printf("\nDownloaded %d of %d tracks to %s\n", len(results)-len(failed), len(results), s.cfg.Download.Dir)
	if len(failed) > 0 {
		return fmt.Errorf("%d downloads failed", len(failed))
	}
	return nil
}

// CheckDeps reports whether yt-dlp and ffmpeg are installed.
func CheckDeps(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	d := s.downloader(c, nil)
	err = d.CheckDeps(c.Context)
	if err == nil {
		fmt.Println("yt-dlp and ffmpeg are installed")
		return nil
	}
	if errors.Is(err, download.ErrMissingDependency) {
		fmt.Println("Missing dependencies:")
		fmt.Println(err)
	}
	return err
}
