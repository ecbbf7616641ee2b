package shared

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Source modes select where tracks come from.
const (
	ModeTakeout = "takeout"
	ModeLiked   = "liked"
)

var audioFormats = []string{"m4a", "mp3", "opus", "flac"}

// Config represents the application configuration loaded from a TOML file.
//
// It is constructed once at startup, overridden by flags, validated and then passed down.
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Download DownloadConfig `toml:"download"`
	Source   SourceConfig   `toml:"source"`
	Trim     TrimConfig     `toml:"trim"`
	Fallback FallbackConfig `toml:"fallback"`
	Jellyfin JellyfinConfig `toml:"jellyfin"`
	Database DatabaseConfig `toml:"database"`
}

// LibraryConfig describes the output library tree.
type LibraryConfig struct {
	Root           string `toml:"root"`
	PlaylistsDir   string `toml:"playlists_dir"`
	WritePlaylists bool   `toml:"write_playlists"`
	AbsolutePaths  bool   `toml:"absolute_paths"`
}

// DownloadConfig contains fetch and scheduling settings.
type DownloadConfig struct {
	AudioFormat        string  `toml:"audio_format"`
	AudioQuality       string  `toml:"audio_quality"`
	Concurrency        int     `toml:"concurrency"`
	RateLimit          string  `toml:"rate_limit"`
	Sleep              string  `toml:"sleep"`
	MaxStartsPerSecond float64 `toml:"max_starts_per_second"`
	SleepRequests      float64 `toml:"sleep_requests"`
	Retries            int     `toml:"retries"`
	DryRun             bool    `toml:"dry_run"`
	Cookies            string  `toml:"cookies"`
	PreferMusicHost    bool    `toml:"prefer_music_host"`
	YtdlpPath          string  `toml:"ytdlp_path"`
	FFmpegPath         string  `toml:"ffmpeg_path"`
}

// SourceConfig selects and locates the track source.
type SourceConfig struct {
	Mode        string `toml:"mode"`
	Path        string `toml:"path"`
	StripSuffix bool   `toml:"strip_suffix"`
	Suffix      string `toml:"suffix"`
	LikedName   string `toml:"liked_name"`
}

// TrimConfig controls non-music segment removal.
type TrimConfig struct {
	Enabled    bool     `toml:"enabled"`
	Categories []string `toml:"categories"`
	APIURL     string   `toml:"api_url"`
}

// FallbackConfig controls the replacement search for unavailable sources.
type FallbackConfig struct {
	Enabled           bool    `toml:"enabled"`
	MaxCandidates     int     `toml:"max_candidates"`
	Threshold         float64 `toml:"threshold"`
	DurationTolerance int     `toml:"duration_tolerance"` // seconds
}

// JellyfinConfig locates the companion media server used for favorite marking.
type JellyfinConfig struct {
	URL               string  `toml:"url"`
	APIKey            string  `toml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads a TOML file on top of the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// HasCookies reports whether session credential material is configured and readable.
func (c *Config) HasCookies() bool {
	if c.Download.Cookies == "" {
		return false
	}
	info, err := os.Stat(c.Download.Cookies)
	return err == nil && !info.IsDir()
}

// JellyfinEnabled reports whether a companion media server is configured.
func (c *Config) JellyfinEnabled() bool {
	return c.Jellyfin.URL != "" && c.Jellyfin.APIKey != ""
}

// Validate checks every enumerated field.
//
// Errors wrap [ErrInvalidConfig], [ErrInvalidMode] or [ErrMissingSource] and are fatal to a run.
func (c *Config) Validate() error {
	switch c.Source.Mode {
	case ModeTakeout:
		if c.Source.Path == "" {
			return fmt.Errorf("%w: source.path is required in %s mode", ErrMissingSource, ModeTakeout)
		}
		if _, err := os.Stat(c.Source.Path); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingSource, c.Source.Path)
		}
	case ModeLiked:
		if !c.HasCookies() {
			return fmt.Errorf("%w: %s mode requires a readable cookies file", ErrMissingSource, ModeLiked)
		}
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidMode, c.Source.Mode, ModeTakeout, ModeLiked)
	}

	if c.Library.Root == "" {
		return fmt.Errorf("%w: library.root is required", ErrInvalidConfig)
	}
	if !slices.Contains(audioFormats, c.Download.AudioFormat) {
		return fmt.Errorf("%w: audio format %q", ErrInvalidConfig, c.Download.AudioFormat)
	}
	if c.Download.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Download.MaxStartsPerSecond < 0 || c.Download.SleepRequests < 0 || c.Download.Retries < 0 {
		return fmt.Errorf("%w: negative download limits", ErrInvalidConfig)
	}
	if _, err := ParseDelay(c.Download.Sleep); err != nil {
		return err
	}
	if _, err := ResolveRateLimit(c.Download.RateLimit, true); err != nil {
		return err
	}
	if c.Source.StripSuffix && c.Source.Suffix == "" {
		return fmt.Errorf("%w: source.suffix is empty while strip_suffix is set", ErrInvalidConfig)
	}
	if c.Trim.Enabled && len(c.Trim.Categories) == 0 {
		return fmt.Errorf("%w: trim enabled without categories", ErrInvalidConfig)
	}
	if c.Fallback.MaxCandidates < 1 {
		return fmt.Errorf("%w: fallback.max_candidates must be at least 1", ErrInvalidConfig)
	}
	if c.Fallback.Threshold <= 0 || c.Fallback.Threshold > 1 {
		return fmt.Errorf("%w: fallback.threshold must be in (0, 1]", ErrInvalidConfig)
	}
	if c.Fallback.DurationTolerance < 0 {
		return fmt.Errorf("%w: fallback.duration_tolerance must not be negative", ErrInvalidConfig)
	}
	if (c.Jellyfin.URL == "") != (c.Jellyfin.APIKey == "") {
		return fmt.Errorf("%w: jellyfin url and api_key must be set together", ErrMissingCredentials)
	}
	return nil
}
