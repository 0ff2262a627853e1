package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"gemporter/internal/adapters"
	"gemporter/internal/cache"
	"gemporter/internal/config"
	"gemporter/internal/logging"
	"gemporter/internal/porter"
	"gemporter/internal/utils"
)

// session is the state every command builds from the global flags.
type session struct {
	cfg *config.Config
	log *zap.Logger
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, err
	}
	log, err := logging.New(c.Bool("verbose"))
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log}, nil
}

func (s *session) close() {
	s.log.Sync()
}

func (s *session) adapterOptions(platform adapters.PlatformType) adapters.Options {
	opts := adapters.Options{HTTPRetry: s.cfg.Fetch.HTTPRetry, Logger: s.log}
	switch platform {
	case adapters.SpotifyPlatform:
		opts.ClientID = s.cfg.Spotify.ClientID
		opts.ClientSecret = s.cfg.Spotify.ClientSecret
		opts.RedirectURL = s.cfg.Spotify.RedirectURL
	case adapters.YoutubePlatform:
		opts.ClientID = s.cfg.YouTube.ClientID
		opts.ClientSecret = s.cfg.YouTube.ClientSecret
		opts.RedirectURL = s.cfg.YouTube.RedirectURL
		opts.APIKey = s.cfg.YouTube.APIKey
	}
	return opts
}

// spotify returns a Spotify adapter. With user set it runs the browser
// login needed to modify playlists, otherwise the app-only flow.
func (s *session) spotify(ctx context.Context, user bool) (*adapters.SpotifyAdapter, error) {
	a, err := adapters.NewSpotifyAdapter(s.adapterOptions(adapters.SpotifyPlatform))
	if err != nil {
		return nil, err
	}
	if user {
		err = a.Authenticate(ctx)
	} else {
		err = a.AuthenticateApp(ctx)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// youtube returns a YouTube adapter. Search-only callers use the API key
// when one is configured.
func (s *session) youtube(ctx context.Context, searchOnly bool) (*adapters.YouTubeAdapter, error) {
	a, err := adapters.NewYouTubeAdapter(s.adapterOptions(adapters.YoutubePlatform))
	if err != nil {
		return nil, err
	}
	if searchOnly && a.CanSearchWithKey() {
		err = a.AuthenticateKey(ctx)
	} else {
		err = a.Authenticate(ctx)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *session) openCache() (*cache.Store, error) {
	return cache.Open(s.cfg.Cache.Path)
}

// playlistIDs collects playlist references from the arguments and the
// --file flag, prompting when neither gives any.
func playlistIDs(c *cli.Context) ([]string, error) {
	refs := c.Args().Slice()
	if path := c.String("file"); path != "" {
		lines, err := utils.ReadLines(path)
		if err != nil {
			return nil, err
		}
		refs = append(refs, lines...)
	}

	if len(refs) == 0 {
		var input string
		err := huh.NewText().
			Title("Enter Spotify playlist URLs, one per line").
			Value(&input).
			Run()
		if err != nil {
			return nil, err
		}
		refs = strings.Fields(input)
	}

	return parseRefs(refs, utils.ParsePlaylistID)
}

// trackIDs parses track references, for example the lines of a gem_urls
// file.
func trackIDs(refs []string) ([]string, error) {
	return parseRefs(refs, utils.ParseTrackID)
}

func parseRefs(refs []string, parse func(string) (string, error)) ([]string, error) {
	var (
		ids  []string
		errs []error
	)
	for _, ref := range refs {
		id, err := parse(ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no playlists or tracks given")
	}
	return ids, nil
}

// loadRun returns run id, or the latest run when id is empty.
func loadRun(ctx context.Context, store *cache.Store, id string) (cache.Run, error) {
	var (
		run cache.Run
		err error
	)
	if id == "" {
		run, err = store.LatestRun(ctx)
	} else {
		run, err = store.GetRun(ctx, id)
	}
	if errors.Is(err, cache.ErrNotFound) {
		return run, fmt.Errorf("no recorded run found, run `gemporter gems` first: %w", err)
	}
	return run, err
}

// selectedTrackIDs resolves the tracks a create or download command works
// on: --urls-file, then --csv, then a recorded run.
func selectedTrackIDs(ctx context.Context, c *cli.Context, s *session) ([]string, string, error) {
	switch {
	case c.String("urls-file") != "":
		lines, err := utils.ReadLines(c.String("urls-file"))
		if err != nil {
			return nil, "", err
		}
		ids, err := trackIDs(lines)
		return ids, "", err
	case c.String("csv") != "":
		ids, err := porter.TrackIDsFromCSV(c.String("csv"))
		return ids, "", err
	}

	store, err := s.openCache()
	if err != nil {
		return nil, "", err
	}
	defer store.Close()

	run, err := loadRun(ctx, store, c.String("run"))
	if err != nil {
		return nil, "", err
	}
	if len(run.TopIDs) == 0 {
		return nil, "", fmt.Errorf("run %s found no gems", run.ID)
	}
	return run.TopIDs, run.ID, nil
}
