package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/ymde/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file populated with the embedded defaults.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Edit [library] root and [source] path, then run 'ymde download'\n")
	return nil
}

// SetupDatabase initializes the run history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	r.logger.Info("initializing database", "path", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ Database ready at %s\n", path)
	return nil
}

// SetupCookies converts a browser "Copy as cURL" capture into a Netscape cookies file.
//
// The cookies file is what yt-dlp reads for authenticated requests and for the liked source.
func (r *Runner) SetupCookies(ctx context.Context, cmd *cli.Command) error {
	curlFile := cmd.String("curl-file")
	if curlFile == "" {
		return fmt.Errorf("%w: --curl-file must be provided", shared.ErrMissingArgument)
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = r.config.Download.Cookies
	}
	if outputPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(homeDir, ".ymde", "cookies.txt")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	count, err := shared.WriteCookiesFile(curlFile, outputPath)
	if err != nil {
		return fmt.Errorf("failed to convert cURL capture: %w", err)
	}

	r.logger.Info("cookies saved", "path", outputPath, "cookies", count)

	r.writePlain("✓ %d cookies written to %s\n", count, outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Update config.toml with: download.cookies = \"%s\"\n", outputPath)
	r.writePlain("2. Run 'ymde export liked' to test authentication\n")
	return nil
}
