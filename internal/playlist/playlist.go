package playlist

import "time"

// Track represents a single music track with essential metadata
type Track struct {
	Name             string   `csv:"name" json:"name"`
	Artists          []string `csv:"artists" json:"artists"`
	Album            string   `csv:"album" json:"album"`
	ID               string   `csv:"id" json:"id"`
	ArtistIDs        []string `csv:"artist_ids" json:"artist_ids"`
	AlbumID          string   `csv:"album_id" json:"album_id"`
	URL              string   `csv:"url" json:"url"`
	Popularity       int      `csv:"popularity" json:"popularity"`
	DurationMs       int      `csv:"duration_ms" json:"duration_ms"`
	AlbumType        string   `csv:"album_type" json:"album_type"`
	AlbumTrackCount  int      `csv:"album_track_count" json:"album_track_count"`
	ReleaseDate      string   `csv:"release_date" json:"release_date"`
	AvailableMarkets []string `csv:"-" json:"available_markets,omitempty"`
}

// Playlist represents a collection of tracks
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Owner       string    `json:"owner,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	TrackCount  int       `json:"track_count"`
	Tracks      []Track   `json:"tracks"`
	CreatedAt   time.Time `json:"created_at"`
}
