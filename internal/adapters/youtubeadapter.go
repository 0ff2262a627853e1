package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"gemporter/internal/playlist"
	"gemporter/internal/utils"
)

const (
	youtubeRedirectURI = "http://localhost:8080/callback"
	youtubePageLimit   = 50
)

// YouTubeAdapter adapts the YouTube API to our common adapter interface
type YouTubeAdapter struct {
	BaseAdapter
	service      *youtube.Service
	clientID     string
	clientSecret string
	apiKey       string
	redirectURL  string
	endpoint     string
	insertDelay  time.Duration
	log          *zap.Logger
}

// NewYouTubeAdapter creates a new YouTubeAdapter. Either an API key or an
// OAuth client is required; the key only allows searching.
func NewYouTubeAdapter(opts Options) (*YouTubeAdapter, error) {
	hasOAuth := opts.ClientID != "" && opts.ClientSecret != ""
	if !hasOAuth && opts.APIKey == "" {
		return nil, fmt.Errorf("youtube needs YOUTUBE_API_KEY or YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET")
	}
	redirect := opts.RedirectURL
	if redirect == "" {
		redirect = youtubeRedirectURI
	}

	return &YouTubeAdapter{
		BaseAdapter:  NewBaseAdapter("YouTube"),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		apiKey:       opts.APIKey,
		redirectURL:  redirect,
		insertDelay:  100 * time.Millisecond,
		log:          opts.logger(),
	}, nil
}

// CanSearchWithKey reports whether search works without a user login.
func (a *YouTubeAdapter) CanSearchWithKey() bool { return a.apiKey != "" }

func (a *YouTubeAdapter) serviceOptions(extra ...option.ClientOption) []option.ClientOption {
	if a.endpoint != "" {
		extra = append(extra, option.WithEndpoint(a.endpoint))
	}
	return extra
}

// AuthenticateKey creates a key-only service. It needs no browser but
// cannot touch user playlists.
func (a *YouTubeAdapter) AuthenticateKey(ctx context.Context) error {
	if a.apiKey == "" {
		return fmt.Errorf("youtube: no API key configured")
	}
	service, err := youtube.NewService(ctx, a.serviceOptions(option.WithAPIKey(a.apiKey))...)
	if err != nil {
		return fmt.Errorf("error creating YouTube client: %w", err)
	}
	a.service = service
	a.SetAuthenticated(true)
	return nil
}

// Authenticate handles user authentication with YouTube API
func (a *YouTubeAdapter) Authenticate(ctx context.Context) error {
	if a.clientID == "" || a.clientSecret == "" {
		return fmt.Errorf("youtube client ID and secret must be provided or set in environment variables")
	}
	state, err := utils.GenerateState()
	if err != nil {
		return err
	}

	config := &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		RedirectURL:  a.redirectURL,
		Scopes: []string{
			youtube.YoutubeReadonlyScope,
			youtube.YoutubeScope,
		},
		Endpoint: google.Endpoint,
	}

	complete := func(r *http.Request) error {
		if got := r.FormValue("state"); got != state {
			return fmt.Errorf("youtube oauth state mismatch: %s != %s", got, state)
		}
		token, err := config.Exchange(r.Context(), r.FormValue("code"))
		if err != nil {
			return fmt.Errorf("error exchanging code for token: %w", err)
		}
		client := config.Client(context.WithoutCancel(ctx), token)
		service, err := youtube.NewService(ctx, a.serviceOptions(option.WithHTTPClient(client))...)
		if err != nil {
			return fmt.Errorf("error creating YouTube client: %w", err)
		}
		a.service = service
		a.SetAuthenticated(true)
		return nil
	}

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if err := awaitCallback(ctx, a.log, "YouTube", authURL, a.redirectURL, complete); err != nil {
		return err
	}

	fmt.Println("YouTube authentication successful!")
	return nil
}

// GetUserPlaylists retrieves all playlists for the authenticated user
func (a *YouTubeAdapter) GetUserPlaylists(ctx context.Context) ([]playlist.Playlist, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	var playlists []playlist.Playlist
	var nextPageToken string

	for {
		call := a.service.Playlists.List([]string{"snippet", "contentDetails"}).
			Mine(true).
			MaxResults(youtubePageLimit).
			Context(ctx)

		if nextPageToken != "" {
			call = call.PageToken(nextPageToken)
		}

		response, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("error fetching playlists: %w", err)
		}

		for _, item := range response.Items {
			playlists = append(playlists, convertPlaylist(item))
		}

		nextPageToken = response.NextPageToken
		if nextPageToken == "" {
			break
		}
	}

	return playlists, nil
}

// GetPlaylist retrieves playlist metadata together with its videos.
func (a *YouTubeAdapter) GetPlaylist(ctx context.Context, playlistID string) (playlist.Playlist, error) {
	if err := a.CheckAuth(); err != nil {
		return playlist.Playlist{}, err
	}

	response, err := a.service.Playlists.List([]string{"snippet", "contentDetails"}).
		Id(playlistID).
		Context(ctx).
		Do()
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error fetching playlist %s: %w", playlistID, err)
	}
	if len(response.Items) == 0 {
		return playlist.Playlist{}, fmt.Errorf("youtube playlist %s not found", playlistID)
	}

	p := convertPlaylist(response.Items[0])
	if p.Tracks, err = a.GetPlaylistItems(ctx, playlistID); err != nil {
		return playlist.Playlist{}, err
	}
	p.TrackCount = len(p.Tracks)
	return p, nil
}

// GetPlaylistItems retrieves all tracks (videos) in a playlist
func (a *YouTubeAdapter) GetPlaylistItems(ctx context.Context, playlistID string) ([]playlist.Track, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	var tracks []playlist.Track
	var nextPageToken string

	for {
		call := a.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(youtubePageLimit).
			Context(ctx)

		if nextPageToken != "" {
			call = call.PageToken(nextPageToken)
		}

		response, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("error fetching playlist items: %w", err)
		}

		for _, item := range response.Items {
			videoID := item.ContentDetails.VideoId
			tracks = append(tracks, playlist.Track{
				Name:      item.Snippet.Title,
				Artists:   []string{item.Snippet.VideoOwnerChannelTitle},
				ID:        videoID,
				ArtistIDs: []string{item.Snippet.VideoOwnerChannelId},
				URL:       videoURL(videoID),
			})
		}

		nextPageToken = response.NextPageToken
		if nextPageToken == "" {
			break
		}
	}

	return tracks, nil
}

// CreateNewPlaylist creates a new YouTube playlist
func (a *YouTubeAdapter) CreateNewPlaylist(ctx context.Context, name, description string, public bool) (playlist.Playlist, error) {
	if err := a.CheckAuth(); err != nil {
		return playlist.Playlist{}, err
	}

	privacy := "private"
	if public {
		privacy = "public"
	}
	p := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       name,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{
			PrivacyStatus: privacy,
		},
	}

	response, err := a.service.Playlists.Insert([]string{"snippet", "status"}, p).Context(ctx).Do()
	if err != nil {
		return playlist.Playlist{}, fmt.Errorf("error creating playlist: %w", err)
	}
	return convertPlaylist(response), nil
}

// AddItemsToPlaylist adds videos to a YouTube playlist. IDs may be bare
// video IDs or watch URLs.
func (a *YouTubeAdapter) AddItemsToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := a.CheckAuth(); err != nil {
		return err
	}

	for i, ref := range trackIDs {
		videoID := VideoID(ref)
		playlistItem := &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{
					Kind:    "youtube#video",
					VideoId: videoID,
				},
			},
		}

		if _, err := a.service.PlaylistItems.Insert([]string{"snippet"}, playlistItem).Context(ctx).Do(); err != nil {
			return fmt.Errorf("error adding video %s to playlist: %w", videoID, err)
		}

		// Inserts count against a tight quota; space them out.
		if i < len(trackIDs)-1 && a.insertDelay > 0 {
			select {
			case <-time.After(a.insertDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

// SearchTracks searches for videos on YouTube
func (a *YouTubeAdapter) SearchTracks(ctx context.Context, query string, limit int) ([]playlist.Track, error) {
	if err := a.CheckAuth(); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > youtubePageLimit {
		limit = youtubePageLimit
	}

	response, err := a.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error searching for videos: %w", err)
	}

	var tracks []playlist.Track
	for _, item := range response.Items {
		if item.Id == nil || item.Snippet == nil {
			continue
		}
		videoID := item.Id.VideoId
		tracks = append(tracks, playlist.Track{
			Name:      item.Snippet.Title,
			Artists:   []string{item.Snippet.ChannelTitle},
			ID:        videoID,
			ArtistIDs: []string{item.Snippet.ChannelId},
			URL:       videoURL(videoID),
		})
	}

	return tracks, nil
}

// VideoID extracts the video ID from a watch or youtu.be URL. Anything
// else is returned unchanged.
func VideoID(ref string) string {
	if _, rest, ok := strings.Cut(ref, "youtube.com/watch?v="); ok {
		return strings.Split(rest, "&")[0]
	}
	if _, rest, ok := strings.Cut(ref, "youtu.be/"); ok {
		return strings.Split(rest, "?")[0]
	}
	return ref
}

func videoURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func convertPlaylist(item *youtube.Playlist) playlist.Playlist {
	p := playlist.Playlist{
		ID:  item.Id,
		URL: "https://www.youtube.com/playlist?list=" + item.Id,
	}
	if item.Snippet != nil {
		p.Name = item.Snippet.Title
		p.Description = item.Snippet.Description
		p.Owner = item.Snippet.ChannelTitle
		p.CreatedAt, _ = time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	}
	if item.ContentDetails != nil {
		p.TrackCount = int(item.ContentDetails.ItemCount)
	}
	return p
}
