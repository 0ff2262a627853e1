package actions

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"gemporter/internal/download"
	"gemporter/internal/playlist"
	"gemporter/internal/porter"
)

// CreatePlaylist creates a playlist from the top gems of a recorded run,
// a gem_urls file or a gems CSV. With --youtube the gems are matched on
// YouTube and a YouTube playlist is created instead.
func CreatePlaylist(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()
	if c.IsSet("cache") {
		s.cfg.Cache.Path = c.String("cache")
	}

	ctx := c.Context
	ids, runID, err := selectedTrackIDs(ctx, c, s)
	if err != nil {
		return err
	}
	if top := c.Int("top"); top > 0 && len(ids) > top {
		ids = ids[:top]
	}

	name := c.String("name")
	if !c.IsSet("name") {
		err := huh.NewInput().
			Title("Name of the new playlist").
			Value(&name).
			Run()
		if err != nil {
			return err
		}
	}

	store, err := s.openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	if !c.Bool("youtube") {
		spotify, err := s.spotify(ctx, true)
		if err != nil {
			return err
		}
		p := porter.NewPorter(spotify, store, porter.Options{}, s.log)
		created, err := p.CreatePlaylist(ctx, name, c.String("description"), ids, c.Bool("public"), runID)
		if err != nil {
			return err
		}
		fmt.Printf("Created playlist %q with %d tracks: %s\n", created.Name, created.TrackCount, created.URL)
		return nil
	}

	spotify, err := s.spotify(ctx, false)
	if err != nil {
		return err
	}
	tracks, err := spotify.GetTracks(ctx, ids)
	if err != nil {
		return err
	}

	yt, err := s.youtube(ctx, false)
	if err != nil {
		return err
	}
	p := porter.NewPorter(yt, store, porter.Options{}, s.log)

	var matches []porter.Match
	search := func(ctx context.Context) error {
		queries := lo.Map(tracks, func(t playlist.Track, _ int) string {
			return download.SearchQuery(download.ItemFromTrack(t))
		})
		var err error
		matches, err = p.MatchTracks(ctx, queries)
		return err
	}
	title := fmt.Sprintf("Searching YouTube for %d tracks...", len(tracks))
	if err := spinner.New().Title(title).Context(ctx).ActionWithErr(search).Run(); err != nil {
		return err
	}

	videoIDs := lo.FilterMap(matches, func(m porter.Match, _ int) (string, bool) {
		return m.Track.ID, m.Found
	})
	for _, m := range matches {
		if !m.Found {
			fmt.Printf("No video found for %s\n", m.Query)
		}
	}

	created, err := p.CreatePlaylist(ctx, name, c.String("description"), videoIDs, c.Bool("public"), runID)
	if err != nil {
		return err
	}
	fmt.Printf("Created YouTube playlist %q with %d of %d tracks: %s\n",
		created.Name, created.TrackCount, len(tracks), created.URL)
	return nil
}
