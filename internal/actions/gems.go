package actions

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"gemporter/internal/porter"
	"gemporter/internal/report"
)

// applyGemsFlags copies command line overrides into the config.
func applyGemsFlags(c *cli.Context, s *session) {
	cfg := s.cfg
	if c.IsSet("min-score") {
		cfg.Gems.MinScore = c.Int("min-score")
	}
	if c.IsSet("min-popularity") {
		cfg.Gems.MinPopularity = c.Int("min-popularity")
	}
	if c.IsSet("max-popularity") {
		cfg.Gems.MaxPopularity = c.Int("max-popularity")
	}
	if c.IsSet("top") {
		cfg.Gems.TopGems = c.Int("top")
	}
	if c.IsSet("workers") {
		cfg.Fetch.Workers = c.Int("workers")
	}
	if c.IsSet("retry-limit") {
		cfg.Fetch.RetryLimit = c.Int("retry-limit")
	}
	if c.IsSet("output-dir") {
		cfg.Output.Dir = c.String("output-dir")
	}
	if c.IsSet("cache") {
		cfg.Cache.Path = c.String("cache")
	}
}

// FindGems fetches playlists, scores their tracks, writes the reports and
// optionally creates a playlist from the top gems.
func FindGems(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	applyGemsFlags(c, s)
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	ids, err := playlistIDs(c)
	if err != nil {
		return err
	}

	store, err := s.openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := c.Context
	opts := porter.Options{
		Gems:         s.cfg.Gems,
		Workers:      s.cfg.Fetch.Workers,
		RetryLimit:   s.cfg.Fetch.RetryLimit,
		SkipExisting: c.Bool("skip-existing"),
		FromCache:    c.Bool("from-cache"),
	}

	var p *porter.Porter
	if opts.FromCache {
		p = porter.NewPorter(nil, store, opts, s.log)
	} else {
		spotify, err := s.spotify(ctx, false)
		if err != nil {
			return err
		}
		p = porter.NewPorter(spotify, store, opts, s.log)
	}

	var run porter.Run
	analyze := func(ctx context.Context) error {
		var err error
		run, err = p.Analyze(ctx, ids)
		return err
	}
	title := fmt.Sprintf("Analyzing %d playlist(s)...", len(ids))
	if err := spinner.New().Title(title).Context(ctx).ActionWithErr(analyze).Run(); err != nil {
		return err
	}

	for _, f := range run.Fetch.Failed {
		fmt.Printf("Failed to fetch playlist %s: %v\n", f.PlaylistID, f.Err)
	}
	if len(run.Fetch.Cached) > 0 {
		fmt.Printf("Used cached data for %d playlist(s)\n", len(run.Fetch.Cached))
	}

	rep := report.Report{
		RunID:     run.ID,
		Generated: run.FinishedAt,
		Playlists: run.Fetch.Playlists,
		Result:    run.Result,
	}
	files, err := report.Write(s.cfg.Output.Dir, rep)
	if err != nil {
		return err
	}

	ranking := run.Result.Ranking
	fmt.Printf("\nFound %d hidden gems in %d tracks (run %s)\n",
		ranking.Len(), len(run.Result.Analysis.Entries), run.ID)
	if !c.Bool("no-table") && ranking.Len() > 0 {
		report.PrintTable(os.Stdout, ranking.Top(s.cfg.Gems.TopGems))
	}
	fmt.Println("\nReports written:")
	for _, f := range files.All() {
		fmt.Println("  " + f)
	}

	if !c.Bool("create-playlist") {
		return nil
	}
	if ranking.Len() == 0 {
		fmt.Println("No gems to put in a playlist")
		return nil
	}

	spotify, err := s.spotify(ctx, true)
	if err != nil {
		return err
	}
	creator := porter.NewPorter(spotify, store, opts, s.log)
	created, err := creator.CreatePlaylist(ctx, c.String("playlist-name"), "", ranking.TopIDs(), c.Bool("public"), run.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Created playlist %q with %d tracks: %s\n", created.Name, created.TrackCount, created.URL)
	s.log.Debug("gems run finished", zap.String("run", run.ID), zap.String("playlist", created.URL))
	return nil
}
