package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/urfave/cli/v2"

	"gemporter/internal/adapters"
	"gemporter/internal/playlist"
	"gemporter/internal/porter"
	"gemporter/internal/utils"
)

// ExportPlaylist writes a playlist's tracks, including the scoring fields,
// to a CSV file. Without --playlist the user picks one of their own.
func ExportPlaylist(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.close()

	platform := strings.ToLower(c.String("from"))
	destFile := c.String("file")
	playlistID := c.String("playlist")

	if platform == "" {
		err := huh.NewSelect[string]().
			Title("Choose the platform to export from").
			Options(
				huh.NewOption("Spotify", string(adapters.SpotifyPlatform)),
				huh.NewOption("YouTube Music", string(adapters.YoutubePlatform)),
			).
			Value(&platform).
			Run()
		if err != nil {
			return err
		}
	}

	ctx := c.Context
	adapter, err := adapters.NewApiAdapter(platform, s.adapterOptions(adapters.PlatformType(platform)))
	if err != nil {
		return fmt.Errorf("failed to create adapter for platform %s: %w", platform, err)
	}
	p := porter.NewPorter(adapter, nil, porter.Options{}, s.log)

	if playlistID != "" {
		if playlistID, err = resolveExportID(platform, playlistID); err != nil {
			return err
		}
	}

	// A known Spotify playlist can be read without a user login.
	if spotify, ok := adapter.(*adapters.SpotifyAdapter); ok && playlistID != "" {
		err = spotify.AuthenticateApp(ctx)
	} else {
		err = p.Authenticate(ctx)
	}
	if err != nil {
		return err
	}

	name := playlistID
	if playlistID == "" {
		playlists, err := p.GetPlaylists(ctx)
		if err != nil {
			return err
		}
		err = huh.NewSelect[string]().
			Height(10).
			Title("Choose a playlist to export").
			Options(getPlaylistOptions(playlists)...).
			Value(&playlistID).
			Run()
		if err != nil {
			return err
		}
		for _, pl := range playlists {
			if pl.ID == playlistID {
				name = pl.Name
			}
		}
	}

	if destFile == "" {
		destFile = utils.SafeFilename(name, "playlist") + ".csv"
		err := huh.NewInput().
			Title("Enter the file path to save the exported playlist").
			Value(&destFile).
			Run()
		if err != nil {
			return err
		}
	}
	if !strings.HasSuffix(destFile, ".csv") {
		destFile += ".csv"
	}

	var exported int
	export := func(ctx context.Context) error {
		n, err := p.ExportPlaylistToCSV(ctx, playlistID, destFile)
		if err != nil {
			return fmt.Errorf("failed to export playlist %s: %w", playlistID, err)
		}
		exported = n
		return nil
	}

	if err := spinner.New().Title("Exporting...").Context(ctx).ActionWithErr(export).Run(); err != nil {
		return err
	}
	fmt.Printf("Exported %d tracks to %s\n", exported, destFile)
	return nil
}

func resolveExportID(platform, ref string) (string, error) {
	if adapters.PlatformType(platform) == adapters.SpotifyPlatform {
		return utils.ParsePlaylistID(ref)
	}
	return ref, nil
}

func getPlaylistOptions(p []playlist.Playlist) []huh.Option[string] {
	playlistOptions := make([]huh.Option[string], len(p))
	for i, pl := range p {
		label := fmt.Sprintf("%s (%d tracks)", pl.Name, pl.TrackCount)
		playlistOptions[i] = huh.NewOption(label, pl.ID)
	}
	return playlistOptions
}
