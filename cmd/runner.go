package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ymde/internal/services"
	"github.com/desertthunder/ymde/internal/shared"
	"github.com/desertthunder/ymde/internal/sources"
	"github.com/desertthunder/ymde/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// MediaClient is the external fetch operation as the commands use it:
// fetch and probe for the pipeline, search for fallback, playlist dumps for liked export.
type MediaClient interface {
	services.Fetcher
	services.Searcher
	sources.PlaylistDumper
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer

	media     MediaClient
	trimmer   services.Trimmer
	favorites tasks.FavoriteClient
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Media, Trimmer and Favorites are built from the config on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer

	Media     MediaClient
	Trimmer   services.Trimmer
	Favorites tasks.FavoriteClient
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		media:      opts.Media,
		trimmer:    opts.Trimmer,
		favorites:  opts.Favorites,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		downloadCommand, tuiCommand, indexCommand, likeCommand, historyCommand,
		exportCommand, convertCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure runs before every command: it loads --config when given and applies --log-level.
//
// Without --config, config.toml in the working directory is used when present.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	explicit := cmd.IsSet("config")
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
		r.logger.Debug("config loaded", "path", path)
	} else if explicit {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if level := cmd.String("log-level"); level != "" {
		if err := shared.SetLogLevel(r.logger, level); err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

// SetLogger replaces the logger, e.g. to keep log lines off a terminal owned by the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) mediaClient() MediaClient {
	if r.media == nil {
		var cookies string
		if r.config.HasCookies() {
			cookies = r.config.Download.Cookies
		}
		r.media = services.NewYtdlpClient(r.config.Download.YtdlpPath, r.config.Download.FFmpegPath, cookies, r.logger)
	}
	return r.media
}

// trimmerFor returns nil when trimming is disabled.
func (r *Runner) trimmerFor() services.Trimmer {
	if !r.config.Trim.Enabled {
		return nil
	}
	if r.trimmer == nil {
		r.trimmer = services.NewSponsorBlockTrimmer(
			r.config.Trim.APIURL, r.config.Trim.Categories, r.config.Download.FFmpegPath, r.logger)
	}
	return r.trimmer
}

func (r *Runner) favoriteClient() (tasks.FavoriteClient, error) {
	if r.favorites != nil {
		return r.favorites, nil
	}
	if !r.config.JellyfinEnabled() {
		return nil, fmt.Errorf("%w: jellyfin url and api key are required", shared.ErrMissingCredentials)
	}
	r.favorites = services.NewJellyfinService(
		r.config.Jellyfin.URL, r.config.Jellyfin.APIKey, r.config.Jellyfin.RequestsPerSecond, nil, r.logger)
	return r.favorites, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
