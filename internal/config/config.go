// Package config loads gemporter settings from defaults, an optional YAML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gemporter/internal/gems"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "gemporter.yaml"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is the root configuration.
type Config struct {
	Spotify  SpotifyConfig  `yaml:"spotify"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Gems     gems.Config    `yaml:"gems"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Cache    CacheConfig    `yaml:"cache"`
	Output   OutputConfig   `yaml:"output"`
	Download DownloadConfig `yaml:"download"`
}

// SpotifyConfig holds the Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// YouTubeConfig holds the YouTube Data API credentials. APIKey is enough
// for search; playlist creation needs the OAuth client.
type YouTubeConfig struct {
	APIKey       string `yaml:"api_key"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// FetchConfig controls playlist fetching.
type FetchConfig struct {
	Workers    int `yaml:"workers"`
	RetryLimit int `yaml:"retry_limit"`
	HTTPRetry  int `yaml:"http_retry"`
}

// CacheConfig configures the SQLite playlist cache.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig configures report files.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DownloadConfig configures yt-dlp downloads.
type DownloadConfig struct {
	Dir     string `yaml:"dir"`
	Format  string `yaml:"format"`
	Workers int    `yaml:"workers"`
	Retries int    `yaml:"retries"`
	YtDlp   string `yaml:"yt_dlp"`
	FFmpeg  string `yaml:"ffmpeg"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{RedirectURL: "http://localhost:8080/callback"},
		YouTube: YouTubeConfig{RedirectURL: "http://localhost:8080/callback"},
		Gems:    gems.DefaultConfig(),
		Fetch:   FetchConfig{Workers: 4, RetryLimit: 1, HTTPRetry: 3},
		Cache:   CacheConfig{Path: "./gemporter.db"},
		Output:  OutputConfig{Dir: "./output"},
		Download: DownloadConfig{
			Dir:     "./downloads",
			Format:  "mp3",
			Workers: 3,
			Retries: 3,
			YtDlp:   "yt-dlp",
			FFmpeg:  "ffmpeg",
		},
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile
// when it exists. envFile is loaded with godotenv when present; variables
// already set in the environment win.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := firstEnv("SPOTIFY_ID", "SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := firstEnv("SPOTIFY_SECRET", "SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
	if v := firstEnv("SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.Spotify.RedirectURL = v
	}
	if v := firstEnv("YOUTUBE_API_KEY"); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := firstEnv("YOUTUBE_CLIENT_ID"); v != "" {
		cfg.YouTube.ClientID = v
	}
	if v := firstEnv("YOUTUBE_CLIENT_SECRET"); v != "" {
		cfg.YouTube.ClientSecret = v
	}
	if v := firstEnv("GEMPORTER_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := firstEnv("GEMPORTER_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := firstEnv("GEMPORTER_DOWNLOAD_DIR"); v != "" {
		cfg.Download.Dir = v
	}
	if v := firstEnv("GEMPORTER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: GEMPORTER_WORKERS=%q is not a number", ErrInvalid, v)
		}
		cfg.Fetch.Workers = n
	}
	return nil
}

// Validate checks the settings every command relies on. Credentials are
// checked by the adapters that need them.
func (c *Config) Validate() error {
	if err := c.Gems.Validate(); err != nil {
		return err
	}
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("%w: fetch.workers must be at least 1", ErrInvalid)
	}
	if c.Fetch.RetryLimit < 0 || c.Fetch.HTTPRetry < 0 {
		return fmt.Errorf("%w: retry limits must not be negative", ErrInvalid)
	}
	if c.Download.Workers < 1 {
		return fmt.Errorf("%w: download.workers must be at least 1", ErrInvalid)
	}
	if c.Download.Retries < 1 {
		return fmt.Errorf("%w: download.retries must be at least 1", ErrInvalid)
	}
	switch c.Download.Format {
	case "mp3", "m4a", "flac", "opus", "wav":
	default:
		return fmt.Errorf("%w: unsupported download format %q", ErrInvalid, c.Download.Format)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is empty", ErrInvalid)
	}
	return nil
}
