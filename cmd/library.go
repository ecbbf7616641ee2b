package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ymde/internal/library"
	"github.com/desertthunder/ymde/internal/models"
	"github.com/desertthunder/ymde/internal/normalize"
	"github.com/desertthunder/ymde/internal/shared"
	"github.com/desertthunder/ymde/internal/sources"
	"github.com/desertthunder/ymde/internal/tasks"
	"github.com/urfave/cli/v3"
)

type indexReport struct {
	Root     string                `json:"root"`
	Files    int                   `json:"files"`
	Tagged   int                   `json:"tagged"`
	Fallback int                   `json:"fallback"`
	Skipped  int                   `json:"skipped"`
	Keys     int                   `json:"keys"`
	Entries  []models.LibraryEntry `json:"entries,omitempty"`
}

// Index scans the library read-only and reports what a run would deduplicate against.
func (r *Runner) Index(ctx context.Context, cmd *cli.Command) error {
	root := cmd.String("library")
	if root == "" {
		root = r.config.Library.Root
	}

	index, stats, err := library.Build(ctx, root, library.BuildOptions{Logger: r.logger})
	if err != nil {
		return fmt.Errorf("failed to index library: %w", err)
	}

	report := indexReport{
		Root:     root,
		Files:    stats.Files,
		Tagged:   stats.Tagged,
		Fallback: stats.Fallback,
		Skipped:  stats.Skipped,
		Keys:     index.Stats().Keys,
	}
	if cmd.Bool("entries") {
		report.Entries = index.Entries()
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlainHeader("Library: " + root)
	r.writePlain("Audio files:    %d\n", report.Files)
	r.writePlain("With source id: %d\n", report.Tagged)
	r.writePlain("Fuzzy key only: %d\n", report.Fallback)
	r.writePlain("Unkeyed:        %d\n", report.Skipped)
	r.writePlain("Index keys:     %d\n", report.Keys)

	if len(report.Entries) > 0 {
		r.writePlain("\n")
		for _, e := range report.Entries {
			id := e.SourceID
			if id == "" {
				id = "-----------"
			}
			r.writePlain("%s  %s\n", id, e.Path)
		}
	}
	return nil
}

// Like marks tracks as Jellyfin favorites, either every keyed file of a library or one playlist document.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("jellyfin-url") {
		r.config.Jellyfin.URL = cmd.String("jellyfin-url")
	}
	if cmd.IsSet("jellyfin-api-key") {
		r.config.Jellyfin.APIKey = cmd.String("jellyfin-api-key")
	}

	libraryRoot := cmd.String("library")
	playlistPath := cmd.String("playlist-json")

	var targets []tasks.FavoriteTarget
	switch {
	case libraryRoot != "" && playlistPath != "":
		return fmt.Errorf("%w: cannot specify both --library and --playlist-json", shared.ErrInvalidArgument)
	case playlistPath != "":
		raw, err := sources.ReadPlaylistJSON(playlistPath)
		if err != nil {
			return err
		}
		playlists, _ := normalize.Normalize([]models.RawPlaylist{*raw}, normalize.Options{Logger: r.logger})
		targets = tasks.TargetsFromPlaylists(playlists)
	case libraryRoot != "":
		index, _, err := library.Build(ctx, libraryRoot, library.BuildOptions{Logger: r.logger})
		if err != nil {
			return fmt.Errorf("failed to index library: %w", err)
		}
		targets = tasks.TargetsFromEntries(index.Entries())
	default:
		return fmt.Errorf("%w: --library or --playlist-json must be provided", shared.ErrMissingArgument)
	}

	if len(targets) == 0 {
		r.writePlain("Nothing to mark.\n")
		return nil
	}
	return r.markFavorites(ctx, targets)
}

func (r *Runner) markFavorites(ctx context.Context, targets []tasks.FavoriteTarget) error {
	client, err := r.favoriteClient()
	if err != nil {
		return err
	}

	stats, err := tasks.MarkFavorites(ctx, client, targets, r.logger)
	if err != nil {
		return err
	}

	r.writePlain("Favorites: %d marked, %d not found, %d failed\n", stats.Marked, stats.Missing, stats.Failed)
	return nil
}
