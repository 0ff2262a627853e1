package adapters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"gemporter/internal/playlist"
	"gemporter/internal/utils"
)

const (
	spotifyRedirectURI = "http://localhost:8080/callback"

	// Page and batch sizes accepted by the Web API.
	spotifyPageLimit  = 50
	spotifyAlbumBatch = 20
	spotifyTrackBatch = 50
	spotifyAddBatch   = 100
)

// SpotifyAdapter adapts the Spotify API to our common adapter interface
type SpotifyAdapter struct {
	BaseAdapter
	client       *spotify.Client
	clientID     string
	clientSecret string
	redirectURL  string
	retries      int
	baseURL      string
	log          *zap.Logger
}

// NewSpotifyAdapter creates a new SpotifyAdapter
func NewSpotifyAdapter(opts Options) (*SpotifyAdapter, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret must be provided or set in SPOTIFY_ID/SPOTIFY_SECRET")
	}
	redirect := opts.RedirectURL
	if redirect == "" {
		redirect = spotifyRedirectURI
	}

	return &SpotifyAdapter{
		BaseAdapter:  NewBaseAdapter("Spotify"),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURL:  redirect,
		retries:      opts.HTTPRetry,
		log:          opts.logger(),
	}, nil
}

// connect builds the API client on top of an authorized HTTP client.
func (a *SpotifyAdapter) connect(httpClient *http.Client) {
	var clientOpts []spotify.ClientOption
	if a.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(a.baseURL))
	}
	a.client = spotify.New(newRetryClient(httpClient, a.retries, a.log), clientOpts...)
	a.SetAuthenticated(true)
}

// AuthenticateApp uses the client-credentials flow. It needs no browser and
// is enough for reading public playlists.
func (a *SpotifyAdapter) AuthenticateApp(ctx context.Context) error {
	config := &clientcredentials.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	tokenCtx := context.WithoutCancel(ctx)
	if _, err := config.Token(tokenCtx); err != nil {
		return fmt.Errorf("spotify client credentials: %w", err)
	}

	a.connect(config.Client(tokenCtx))
	a.log.Debug("spotify app authentication complete")
	return nil
}

// Authenticate handles user authentication with Spotify
func (a *SpotifyAdapter) Authenticate(ctx context.Context) error {
	state, err := utils.GenerateState()
	if err != nil {
		return err
	}
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(a.redirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		),
		spotifyauth.WithClientID(a.clientID),
		spotifyauth.WithClientSecret(a.clientSecret),
	)

	complete := func(r *http.Request) error {
		tok, err := auth.Token(r.Context(), state, r)
		if err != nil {
			return fmt.Errorf("spotify token exchange: %w", err)
		}
		a.connect(auth.Client(context.WithoutCancel(ctx), tok))
		return nil
	}
	if err := awaitCallback(ctx, a.log, "Spotify", auth.AuthURL(state), a.redirectURL, complete); err != nil {
		return err
	}

	// Verify authentication by getting user info
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		a.SetAuthenticated(false)
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println("You are logged in as:", user.ID)
	return nil
}

// GetUserPlaylists retrieves all playlists for the authenticated user
func (a *SpotifyAdapter) GetUserPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	var allPlaylists []playlist.Playlist
	offset := 0

	for {
		playlistPage, err := a.client.CurrentUsersPlaylists(ctx, spotify.Limit(spotifyPageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("error getting playlists: %w", err)
		}

		for _, p := range playlistPage.Playlists {
			allPlaylists = append(allPlaylists, playlist.Playlist{
				ID:          string(p.ID),
				Name:        p.Name,
				Owner:       p.Owner.DisplayName,
				Description: p.Description,
				URL:         utils.PlaylistURL(string(p.ID)),
				TrackCount:  int(p.Tracks.Total),
			})
		}

		if len(playlistPage.Playlists) < spotifyPageLimit {
			break
		}
		offset += spotifyPageLimit
	}

	return allPlaylists, nil
}

// GetPlaylist retrieves playlist metadata together with all of its tracks.
func (a *SpotifyAdapter) GetPlaylist(ctx context.Context, playlistID string) (playlist.Playlist, error) {
	if err := a.CheckAuth(); err != nil {
		return playlist.Playlist{}, err
	}

	p, err := a.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error getting playlist %s: %w", playlistID, err)
	}
	tracks, err := a.GetPlaylistItems(ctx, playlistID)
	if err != nil {
		return playlist.Playlist{}, err
	}

	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}
	return playlist.Playlist{
		ID:          playlistID,
		Name:        p.Name,
		Owner:       owner,
		Description: p.Description,
		URL:         utils.PlaylistURL(playlistID),
		TrackCount:  len(tracks),
		Tracks:      tracks,
		CreatedAt:   time.Now(),
	}, nil
}

// GetPlaylistItems retrieves all tracks in a playlist, including the
// popularity, duration and release data the scorers need. Episodes and
// unavailable items are left out.
func (a *SpotifyAdapter) GetPlaylistItems(ctx context.Context, playlistID string) ([]playlist.Track, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	var tracks []playlist.Track
	offset := 0

	for {
		playlistItems, err := a.client.GetPlaylistItems(
			ctx,
			spotify.ID(playlistID),
			spotify.Limit(spotifyPageLimit),
			spotify.Offset(offset),
		)
		if err != nil {
			return nil, fmt.Errorf("error getting playlist items: %w", err)
		}

		for _, item := range playlistItems.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, convertTrack(item.Track.Track))
		}

		offset += len(playlistItems.Items)
		if len(playlistItems.Items) < spotifyPageLimit || offset >= int(playlistItems.Total) {
			break
		}
	}

	if err := a.fillAlbumTrackCounts(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// GetTracks looks up tracks by ID, keeping the order of ids. Unknown IDs
// are left out.
func (a *SpotifyAdapter) GetTracks(ctx context.Context, ids []string) ([]playlist.Track, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	spotifyIDs := lo.Map(ids, func(id string, _ int) spotify.ID { return spotify.ID(id) })
	tracks := make([]playlist.Track, 0, len(ids))
	for _, batch := range lo.Chunk(spotifyIDs, spotifyTrackBatch) {
		full, err := a.client.GetTracks(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("error getting tracks: %w", err)
		}
		for _, t := range full {
			if t != nil {
				tracks = append(tracks, convertTrack(t))
			}
		}
	}
	return tracks, nil
}

// fillAlbumTrackCounts looks up the size of each track's release. Playlist
// items only carry the simplified album.
func (a *SpotifyAdapter) fillAlbumTrackCounts(ctx context.Context, tracks []playlist.Track) error {
	albumIDs := lo.Uniq(lo.FilterMap(tracks, func(t playlist.Track, _ int) (spotify.ID, bool) {
		return spotify.ID(t.AlbumID), t.AlbumID != ""
	}))

	counts := make(map[string]int, len(albumIDs))
	for _, batch := range lo.Chunk(albumIDs, spotifyAlbumBatch) {
		albums, err := a.client.GetAlbums(ctx, batch)
		if err != nil {
			return fmt.Errorf("error getting albums: %w", err)
		}
		for _, album := range albums {
			if album == nil {
				continue
			}
			counts[string(album.ID)] = int(album.Tracks.Total)
		}
	}

	for i := range tracks {
		if n, ok := counts[tracks[i].AlbumID]; ok {
			tracks[i].AlbumTrackCount = n
		} else if tracks[i].AlbumID != "" {
			a.log.Debug("album track count unavailable",
				zap.String("track", tracks[i].ID), zap.String("album", tracks[i].AlbumID))
		}
	}
	return nil
}

// CreateNewPlaylist creates a new Spotify playlist
func (a *SpotifyAdapter) CreateNewPlaylist(ctx context.Context, name, description string, public bool) (playlist.Playlist, error) {
	if err := a.CheckAuth(); err != nil {
		return playlist.Playlist{}, err
	}

	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error getting current user: %w", err)
	}

	p, err := a.client.CreatePlaylistForUser(ctx, user.ID, name, description, public, false)
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error creating playlist: %w", err)
	}

	return playlist.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Owner:       user.ID,
		Description: p.Description,
		URL:         utils.PlaylistURL(string(p.ID)),
		CreatedAt:   time.Now(),
	}, nil
}

// AddItemsToPlaylist adds tracks to a Spotify playlist in batches of 100.
func (a *SpotifyAdapter) AddItemsToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := a.CheckAuth(); err != nil {
		return err
	}

	ids := lo.Map(trackIDs, func(id string, _ int) spotify.ID { return spotify.ID(id) })
	for i, batch := range lo.Chunk(ids, spotifyAddBatch) {
		if _, err := a.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return fmt.Errorf("error adding batch %d to playlist: %w", i+1, err)
		}
	}
	return nil
}

// SearchTracks searches for tracks on Spotify
func (a *SpotifyAdapter) SearchTracks(ctx context.Context, query string, limit int) ([]playlist.Track, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > spotifyPageLimit {
		limit = spotifyPageLimit
	}

	results, err := a.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("error searching tracks: %w", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	tracks := make([]playlist.Track, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		tracks = append(tracks, convertTrack(&results.Tracks.Tracks[i]))
	}
	return tracks, nil
}

func convertTrack(track *spotify.FullTrack) playlist.Track {
	artistNames := make([]string, 0, len(track.Artists))
	artistIDs := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artistNames = append(artistNames, artist.Name)
		artistIDs = append(artistIDs, string(artist.ID))
	}

	return playlist.Track{
		Name:             track.Name,
		Artists:          artistNames,
		Album:            track.Album.Name,
		ID:               string(track.ID),
		ArtistIDs:        artistIDs,
		AlbumID:          string(track.Album.ID),
		URL:              utils.TrackURL(string(track.ID)),
		Popularity:       int(track.Popularity),
		DurationMs:       int(track.Duration),
		AlbumType:        track.Album.AlbumType,
		ReleaseDate:      track.Album.ReleaseDate,
		AvailableMarkets: track.AvailableMarkets,
	}
}
