package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ymde/internal/shared"
	"github.com/desertthunder/ymde/internal/sources"
	"github.com/urfave/cli/v3"
)

// ExportLiked writes the account's liked music as a takeout playlist document.
func (r *Runner) ExportLiked(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("cookies") {
		r.config.Download.Cookies = cmd.String("cookies")
	}
	if !r.config.HasCookies() {
		return fmt.Errorf("%w: liked export requires a readable cookies file", shared.ErrMissingCredentials)
	}

	name := cmd.String("name")
	if name == "" {
		name = r.config.Source.LikedName
	}

	doc, err := sources.ExportLiked(ctx, r.mediaClient(), name)
	if err != nil {
		return err
	}

	path := filepath.Join(cmd.String("out-dir"), shared.SanitizeFilename(doc.Name, "liked")+".json")
	if err := sources.WritePlaylistJSON(path, doc); err != nil {
		return err
	}

	r.logger.Info("liked songs exported", "path", path, "tracks", len(doc.Tracks))
	r.writePlain("✓ %d liked tracks written to %s\n", len(doc.Tracks), path)
	return nil
}

// ConvertCSV converts every CSV playlist under a path (or a single CSV file) into playlist JSON.
func (r *Runner) ConvertCSV(ctx context.Context, cmd *cli.Command) error {
	base := cmd.StringArg("path")
	if base == "" {
		base = r.config.Source.Path
	}
	suffix := cmd.String("suffix")
	if suffix == "" {
		suffix = r.config.Source.Suffix
	}
	strip := cmd.Bool("remove-videos-suffix")

	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingSource, err)
	}
	if len(files) == 0 {
		r.writePlain("No CSV files found under %s\n", base)
		return nil
	}

	var converted int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}

		out, tracks, err := sources.ConvertCSV(path, strip, suffix, r.logger)
		if err != nil {
			r.logger.Warn("skipping csv", "path", path, "error", err)
			r.writePlain("✗ %s: %v\n", path, err)
			continue
		}
		converted++
		r.writePlain("✓ %s → %s (%d tracks)\n", path, out, tracks)
	}

	r.writePlainln("Converted %d of %d CSV files", converted, len(files))
	if converted == 0 {
		return fmt.Errorf("%w: no CSV file could be converted", shared.ErrInvalidInput)
	}
	return nil
}
