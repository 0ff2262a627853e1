package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"gemporter/internal/actions"
	"gemporter/internal/config"
)

func main() {
	cacheFlag := &cli.StringFlag{Name: "cache", Usage: "SQLite cache `PATH` (default from config)"}
	sourceFlags := []cli.Flag{
		&cli.StringFlag{Name: "run", Usage: "use the top gems of run `ID` (default: latest run)"},
		&cli.StringFlag{Name: "urls-file", Usage: "read track URLs from a gem_urls `FILE`"},
		&cli.StringFlag{Name: "csv", Usage: "read track IDs from a gems or export CSV `FILE`"},
		cacheFlag,
	}

	app := &cli.App{
		Name:  "gemporter",
		Usage: "Find hidden gems in Spotify playlists and turn them into playlists or downloads.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config `FILE` (default ./" + config.DefaultFile + " if present)"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv `FILE` with credentials"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:      "gems",
				Usage:     "Score playlist tracks and report the hidden gems",
				ArgsUsage: "[playlist URL...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read playlist URLs from `FILE`, one per line"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "write reports to `DIR`"},
					&cli.IntFlag{Name: "min-score", Usage: "minimum gem score"},
					&cli.IntFlag{Name: "min-popularity", Usage: "minimum popularity of a gem"},
					&cli.IntFlag{Name: "max-popularity", Usage: "maximum popularity of a gem"},
					&cli.IntFlag{Name: "top", Usage: "number of top gems for the playlist"},
					&cli.IntFlag{Name: "workers", Usage: "concurrent playlist fetches"},
					&cli.IntFlag{Name: "retry-limit", Usage: "extra rounds for failed playlists"},
					&cli.BoolFlag{Name: "skip-existing", Usage: "reuse cached playlists instead of refetching"},
					&cli.BoolFlag{Name: "from-cache", Usage: "analyze cached playlists without network access"},
					&cli.BoolFlag{Name: "no-table", Usage: "do not print the gems table"},
					&cli.BoolFlag{Name: "create-playlist", Usage: "create a Spotify playlist from the top gems"},
					&cli.StringFlag{Name: "playlist-name", Value: "Hidden Gems", Usage: "`NAME` of the created playlist"},
					&cli.BoolFlag{Name: "public", Usage: "make the created playlist public"},
					cacheFlag,
				},
				Action: actions.FindGems,
			},
			{
				Name:  "create",
				Usage: "Create a playlist from previously found gems",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "name", Value: "Hidden Gems", Usage: "playlist `NAME`, the date is appended"},
					&cli.StringFlag{Name: "description", Usage: "playlist description"},
					&cli.IntFlag{Name: "top", Usage: "only add the first `N` tracks"},
					&cli.BoolFlag{Name: "public", Usage: "make the playlist public"},
					&cli.BoolFlag{Name: "youtube", Usage: "create a YouTube playlist by searching each gem"},
				}, sourceFlags...),
				Action: actions.CreatePlaylist,
			},
			{
				Name:  "download",
				Usage: "Download gems as audio files with yt-dlp",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "download `DIR`"},
					&cli.StringFlag{Name: "format", Usage: "audio format: mp3, m4a, flac, opus or wav"},
					&cli.IntFlag{Name: "workers", Usage: "concurrent downloads"},
					&cli.IntFlag{Name: "limit", Usage: "download at most `N` tracks"},
					&cli.BoolFlag{Name: "skip-existing", Usage: "skip tracks already in the download dir"},
					&cli.BoolFlag{Name: "no-api-search", Usage: "let yt-dlp pick the video instead of the YouTube API"},
				}, sourceFlags...),
				Action: actions.DownloadGems,
			},
			{
				Name:  "export",
				Usage: "Export a playlist to CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "platform: spotify or youtube"},
					&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "playlist URL or `ID`"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "destination CSV `FILE`"},
				},
				Action: actions.ExportPlaylist,
			},
			{
				Name:   "check-deps",
				Usage:  "Check that yt-dlp and ffmpeg are installed",
				Action: actions.CheckDeps,
			},
		},
	}

	// Ctrl-C cancels fetches and downloads that have not started yet.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
