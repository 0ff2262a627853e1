package adapters

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gemporter/internal/playlist"
)

// ErrNotAuthenticated is returned by adapter calls made before Authenticate.
var ErrNotAuthenticated = errors.New("not authenticated")

// ApiAdapter defines the interface for adapting different music platform APIs
// to a common interface that can be used by the application
type ApiAdapter interface {
	// Authentication methods
	Authenticate(ctx context.Context) error
	IsAuthenticated() bool

	// Platform-specific methods
	GetUserPlaylists(ctx context.Context) ([]playlist.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (playlist.Playlist, error)
	GetPlaylistItems(ctx context.Context, playlistID string) ([]playlist.Track, error)
	CreateNewPlaylist(ctx context.Context, name, description string, public bool) (playlist.Playlist, error)
	AddItemsToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error

	// Search functionality
	SearchTracks(ctx context.Context, query string, limit int) ([]playlist.Track, error)
}

// PlatformType represents the supported music platforms
type PlatformType string

const (
	SpotifyPlatform PlatformType = "spotify"
	YoutubePlatform PlatformType = "youtube"
)

// Options carries credentials and shared plumbing for an adapter.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// APIKey enables key-only YouTube access for search.
	APIKey string
	// HTTPRetry is the number of retries on 429 and 5xx responses.
	HTTPRetry int
	Logger    *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// NewApiAdapter is a factory function that creates a new adapter for the specified platform
func NewApiAdapter(platform string, opts Options) (ApiAdapter, error) {
	switch PlatformType(platform) {
	case SpotifyPlatform:
		return NewSpotifyAdapter(opts)
	case YoutubePlatform:
		return NewYouTubeAdapter(opts)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}
