package porter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gemporter/internal/adapters"
	"gemporter/internal/cache"
	"gemporter/internal/gems"
	"gemporter/internal/playlist"
	"gemporter/internal/utils"
)

// ErrNoPlaylists is returned when a run has no playlist that could be read.
var ErrNoPlaylists = errors.New("no playlists could be fetched")

// Store is the subset of the cache the porter uses.
type Store interface {
	HasPlaylist(ctx context.Context, id string) (bool, error)
	GetPlaylist(ctx context.Context, id string) (playlist.Playlist, error)
	SavePlaylist(ctx context.Context, p playlist.Playlist) error
	SaveRun(ctx context.Context, r cache.Run) error
	SetCreatedPlaylist(ctx context.Context, runID, url string) error
}

// Options controls fetching and scoring.
type Options struct {
	Gems gems.Config
	// Workers bounds concurrent playlist fetches.
	Workers int
	// RetryLimit is the number of extra rounds for failed playlists.
	RetryLimit int
	// SkipExisting reuses cached playlists instead of refetching them.
	SkipExisting bool
	// FromCache reads only from the cache and never calls the adapter.
	FromCache bool
}

// Porter runs the hidden gems workflow against one platform adapter.
type Porter struct {
	adapter adapters.ApiAdapter
	store   Store
	opts    Options
	log     *zap.Logger
	now     func() time.Time
}

// NewPorter creates a porter. store may be nil, which disables caching
// and run history.
func NewPorter(adapter adapters.ApiAdapter, store Store, opts Options, logger *zap.Logger) *Porter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Porter{adapter: adapter, store: store, opts: opts, log: logger, now: time.Now}
}

// Authenticate delegates authentication to the adapter
func (s *Porter) Authenticate(ctx context.Context) error {
	return s.adapter.Authenticate(ctx)
}

// IsAuthenticated checks if the service is authenticated
func (s *Porter) IsAuthenticated() bool {
	return s.adapter.IsAuthenticated()
}

// GetPlaylists retrieves all playlists via the adapter
func (s *Porter) GetPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	return s.adapter.GetUserPlaylists(ctx)
}

// GetPlaylistTracks retrieves all tracks in a playlist
func (s *Porter) GetPlaylistTracks(ctx context.Context, playlistID string) ([]playlist.Track, error) {
	return s.adapter.GetPlaylistItems(ctx, playlistID)
}

// Failure is a playlist that could not be read after every retry.
type Failure struct {
	PlaylistID string
	Err        error
}

// FetchResult holds the playlists of a fetch in input order.
type FetchResult struct {
	Playlists []playlist.Playlist
	Failed    []Failure
	// Cached lists the IDs served from the cache.
	Cached []string
}

// FetchPlaylists reads every playlist with at most Workers in flight.
// Failed playlists are retried RetryLimit more times; what still fails is
// reported in Failed rather than as an error. Duplicate IDs are fetched
// once.
func (s *Porter) FetchPlaylists(ctx context.Context, ids []string) (FetchResult, error) {
	ids = lo.Uniq(ids)
	if s.opts.FromCache && s.store == nil {
		return FetchResult{}, fmt.Errorf("reading from cache: no cache configured")
	}

	got := make(map[string]playlist.Playlist, len(ids))
	cached := make(map[string]bool)
	errs := make(map[string]error)
	pending := ids

	for round := 0; round <= s.opts.RetryLimit && len(pending) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return FetchResult{}, err
		}
		if round > 0 {
			s.log.Info("retrying failed playlists", zap.Int("round", round), zap.Int("count", len(pending)))
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Workers)
		for _, id := range pending {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				p, fromCache, err := s.fetchOne(gctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					s.log.Warn("fetching playlist failed", zap.String("playlist", id), zap.Error(err))
					errs[id] = err
					return nil
				}
				delete(errs, id)
				got[id] = p
				cached[id] = fromCache
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return FetchResult{}, err
		}

		pending = lo.Filter(ids, func(id string, _ int) bool { return errs[id] != nil })
		if s.opts.FromCache {
			break
		}
	}

	var res FetchResult
	for _, id := range ids {
		if p, ok := got[id]; ok {
			res.Playlists = append(res.Playlists, p)
			if cached[id] {
				res.Cached = append(res.Cached, id)
			}
			continue
		}
		res.Failed = append(res.Failed, Failure{PlaylistID: id, Err: errs[id]})
	}
	return res, nil
}

func (s *Porter) fetchOne(ctx context.Context, id string) (playlist.Playlist, bool, error) {
	if s.store != nil && (s.opts.FromCache || s.opts.SkipExisting) {
		ok, err := s.store.HasPlaylist(ctx, id)
		if err != nil {
			return playlist.Playlist{}, false, err
		}
		if ok {
			p, err := s.store.GetPlaylist(ctx, id)
			return p, err == nil, err
		}
		if s.opts.FromCache {
			return playlist.Playlist{}, false, fmt.Errorf("playlist %s: %w", id, cache.ErrNotFound)
		}
	}

	p, err := s.adapter.GetPlaylist(ctx, id)
	if err != nil {
		return playlist.Playlist{}, false, err
	}
	s.log.Debug("fetched playlist", zap.String("playlist", id), zap.String("name", p.Name), zap.Int("tracks", len(p.Tracks)))

	if s.store != nil {
		if err := s.store.SavePlaylist(ctx, p); err != nil {
			s.log.Warn("caching playlist failed", zap.String("playlist", id), zap.Error(err))
		}
	}
	return p, false, nil
}

// Run is the outcome of one hidden gems run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Fetch      FetchResult
	Result     gems.Result
}

// Analyze fetches the playlists, scores and ranks their tracks and records
// the run in the cache. It fails only when no playlist could be read.
func (s *Porter) Analyze(ctx context.Context, ids []string) (Run, error) {
	run := Run{ID: uuid.NewString(), StartedAt: s.now()}

	fetched, err := s.FetchPlaylists(ctx, ids)
	if err != nil {
		return run, err
	}
	run.Fetch = fetched
	if len(fetched.Playlists) == 0 {
		if len(fetched.Failed) > 0 {
			return run, fmt.Errorf("%w: %w", ErrNoPlaylists, fetched.Failed[0].Err)
		}
		return run, ErrNoPlaylists
	}

	batches := lo.Map(fetched.Playlists, func(p playlist.Playlist, _ int) gems.Batch {
		return gems.Batch{PlaylistID: p.ID, Tracks: p.Tracks}
	})
	run.Result = gems.Run(s.opts.Gems, batches)
	run.FinishedAt = s.now()

	for _, skip := range run.Result.Skips {
		s.log.Debug("skipped track", zap.String("playlist", skip.PlaylistID),
			zap.String("track", skip.TrackID), zap.Error(skip.Err))
	}
	s.log.Info("analysis complete",
		zap.String("run", run.ID),
		zap.Int("playlists", len(fetched.Playlists)),
		zap.Int("tracks", len(run.Result.Analysis.Entries)),
		zap.Int("gems", run.Result.Ranking.Len()),
		zap.Int("skipped", len(run.Result.Skips)))

	if s.store != nil {
		err := s.store.SaveRun(ctx, cache.Run{
			ID:          run.ID,
			StartedAt:   run.StartedAt,
			FinishedAt:  run.FinishedAt,
			PlaylistIDs: lo.Map(fetched.Playlists, func(p playlist.Playlist, _ int) string { return p.ID }),
			Tracks:      len(run.Result.Analysis.Entries),
			Eligible:    run.Result.Ranking.Len(),
			Skipped:     len(run.Result.Skips),
			TopIDs:      run.Result.Ranking.TopIDs(),
		})
		if err != nil {
			s.log.Warn("saving run history failed", zap.String("run", run.ID), zap.Error(err))
		}
	}
	return run, nil
}

// PlaylistName appends the date to name the way created gem playlists are
// titled.
func PlaylistName(name string, date time.Time) string {
	return fmt.Sprintf("%s (%s)", name, date.Format("2006-01-02"))
}

// CreatePlaylist creates a dated playlist holding trackIDs in order. When
// runID is set the new playlist's URL is recorded on that run.
func (s *Porter) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string, public bool, runID string) (playlist.Playlist, error) {
	if len(trackIDs) == 0 {
		return playlist.Playlist{}, fmt.Errorf("no tracks to add to %q", name)
	}
	now := s.now()
	if description == "" {
		description = fmt.Sprintf("Hidden gems selected by gemporter on %s", now.Format("2006-01-02"))
	}

	p, err := s.adapter.CreateNewPlaylist(ctx, PlaylistName(name, now), description, public)
	if err != nil {
		return playlist.Playlist{}, err
	}
	if err := s.adapter.AddItemsToPlaylist(ctx, p.ID, trackIDs); err != nil {
		return p, fmt.Errorf("adding tracks to %s: %w", p.Name, err)
	}
	p.TrackCount = len(trackIDs)

	if runID != "" && s.store != nil {
		if err := s.store.SetCreatedPlaylist(ctx, runID, p.URL); err != nil {
			s.log.Warn("recording created playlist failed", zap.String("run", runID), zap.Error(err))
		}
	}
	s.log.Info("created playlist", zap.String("name", p.Name), zap.String("url", p.URL), zap.Int("tracks", len(trackIDs)))
	return p, nil
}

// Match is a search query and the track found for it, if any.
type Match struct {
	Query string
	Track playlist.Track
	Found bool
}

// MatchTracks searches the adapter's platform for every query, keeping
// the first hit. Queries are searched one at a time to stay within search
// quotas; a failed search leaves that query unmatched.
func (s *Porter) MatchTracks(ctx context.Context, queries []string) ([]Match, error) {
	matches := make([]Match, len(queries))
	for i, q := range queries {
		matches[i].Query = q
		hits, err := s.adapter.SearchTracks(ctx, q, 1)
		if err != nil {
			if ctx.Err() != nil {
				return matches, ctx.Err()
			}
			s.log.Warn("search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if len(hits) > 0 {
			matches[i].Track = hits[0]
			matches[i].Found = true
		}
	}
	return matches, nil
}

// ExportPlaylistToCSV exports a playlist to a CSV file
func (s *Porter) ExportPlaylistToCSV(ctx context.Context, playlistID, filepath string) (int, error) {
	tracks, err := s.adapter.GetPlaylistItems(ctx, playlistID)
	if err != nil {
		return 0, fmt.Errorf("failed to get playlist tracks: %w", err)
	}

	if !strings.HasSuffix(filepath, ".csv") {
		filepath += ".csv"
	}

	headers := utils.StructToCsvHeader(reflect.TypeOf(playlist.Track{}))
	if err := utils.WriteToCsvFile(filepath, headers, tracks); err != nil {
		return 0, err
	}
	return len(tracks), nil
}

// TrackIDsFromCSV reads the track ID column of a CSV written by the export
// command or the gems report. The column is the first header named "id"
// or containing "track id".
func TrackIDsFromCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer file.Close()
	return readTrackIDs(file)
}

func readTrackIDs(r io.Reader) ([]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or contains only header")
	}

	idx := -1
	for i, col := range records[0] {
		col = strings.ToLower(strings.TrimSpace(col))
		if col == "id" || strings.Contains(col, "track id") {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("track ID column not found in CSV")
	}

	var ids []string
	for _, record := range records[1:] {
		if len(record) <= idx || strings.TrimSpace(record[idx]) == "" {
			continue
		}
		ids = append(ids, strings.TrimSpace(record[idx]))
	}
	return lo.Uniq(ids), nil
}
