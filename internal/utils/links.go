package utils

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidLink is returned when a playlist or track reference cannot be
// parsed.
var ErrInvalidLink = errors.New("invalid spotify link")

var spotifyID = regexp.MustCompile(`^[A-Za-z0-9]{1,64}$`)

// ParsePlaylistID extracts a playlist ID from an open.spotify.com URL, a
// spotify:playlist: URI or a bare ID.
func ParsePlaylistID(ref string) (string, error) {
	return parseID(ref, "playlist")
}

// ParseTrackID extracts a track ID from an open.spotify.com URL, a
// spotify:track: URI or a bare ID.
func ParseTrackID(ref string) (string, error) {
	return parseID(ref, "track")
}

// TrackURL is the public web URL of a track.
func TrackURL(id string) string {
	return "https://open.spotify.com/track/" + id
}

// PlaylistURL is the public web URL of a playlist.
func PlaylistURL(id string) string {
	return "https://open.spotify.com/playlist/" + id
}

func parseID(ref, kind string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty %s reference", ErrInvalidLink, kind)
	}

	if rest, ok := strings.CutPrefix(ref, "spotify:"+kind+":"); ok {
		return checkID(rest, ref)
	}

	if !strings.Contains(ref, "/") {
		return checkID(ref, ref)
	}

	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidLink, ref, err)
	}
	if u.Host != "open.spotify.com" && u.Host != "spotify.com" {
		return "", fmt.Errorf("%w: %s is not a spotify host", ErrInvalidLink, u.Host)
	}

	// Paths may carry a locale prefix such as /intl-de/playlist/<id>.
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == kind {
			return checkID(parts[i+1], ref)
		}
	}
	return "", fmt.Errorf("%w: no %s id in %s", ErrInvalidLink, kind, ref)
}

func checkID(id, ref string) (string, error) {
	if !spotifyID.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, ref)
	}
	return id, nil
}
