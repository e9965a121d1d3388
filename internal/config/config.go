// Package config loads and validates the organizer's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jpixy/media-organizer/internal/paths"
	"github.com/spf13/viper"
)

// TmdbConfig configures the metadata-service adapter.
type TmdbConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
}

// OllamaConfig configures the local LLM fallback parser.
type OllamaConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Model         string        `mapstructure:"model" validate:"required_if=Enabled true"`
	TimeoutSec    int     `mapstructure:"timeout_seconds" validate:"min=1"`
	MinConfidence float64 `mapstructure:"min_confidence" validate:"min=0,max=1"`
}

// Timeout returns OllamaConfig.TimeoutSec as a time.Duration.
func (o OllamaConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSec) * time.Second
}

// ProbeConfig configures the technical probe adapter.
type ProbeConfig struct {
	FfprobePath string `mapstructure:"ffprobe_path"`
}

// PlannerConfig configures the plan builder and executor.
type PlannerConfig struct {
	MoviesLibrary    string `mapstructure:"movies_library" validate:"required"`
	TVShowsLibrary   string `mapstructure:"tvshows_library" validate:"required"`
	DownloadWorkers  int    `mapstructure:"download_workers" validate:"min=1"`
	VerifyChecksums  bool   `mapstructure:"verify_checksums"`
	DeleteSourceOnMv bool   `mapstructure:"delete_source_on_move"`
}

// IndexConfig configures the central cross-disk index store.
type IndexConfig struct {
	CentralPath string `mapstructure:"central_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	// ComponentLevels overrides Level per component, e.g. {"executor": "debug"}.
	ComponentLevels map[string]string `mapstructure:"component_levels"`
}

// Config is the full organizer configuration.
type Config struct {
	Tmdb    TmdbConfig    `mapstructure:"tmdb" validate:"required"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Planner PlannerConfig `mapstructure:"planner" validate:"required"`
	Index   IndexConfig   `mapstructure:"index"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DefaultConfig returns the organizer's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Enabled:       false,
			Endpoint:      "http://localhost:11434",
			Model:         "qwen2.5:7b",
			TimeoutSec:    30,
			MinConfidence: 0.5,
		},
		Probe: ProbeConfig{
			FfprobePath: "ffprobe",
		},
		Planner: PlannerConfig{
			DownloadWorkers:  4,
			VerifyChecksums:  true,
			DeleteSourceOnMv: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

var validate = validator.New()

// Load reads configuration from the user's config file, falling back to
// defaults for anything unset, then validates the result.
func Load() (*Config, error) {
	v := viper.New()

	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("ORGANIZER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Index.CentralPath == "" {
		if p, err := paths.CentralIndexPath(); err == nil {
			cfg.Index.CentralPath = p
		}
	}

	return cfg, nil
}

// Save writes the configuration to the user's config file as TOML.
func (c *Config) Save() error {
	configFile, err := paths.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}
	return os.WriteFile(configFile, []byte(c.ToTOML()), 0o644)
}

// ToTOML renders the configuration as a commented TOML document.
func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# media-organizer configuration

[tmdb]
# v3 api_key or v4 bearer token (tokens starting "eyJ" use bearer auth)
api_key = "%s"

[ollama]
enabled = %v
endpoint = "%s"
model = "%s"
timeout_seconds = %d
min_confidence = %.2f

[probe]
ffprobe_path = "%s"

[planner]
movies_library = "%s"
tvshows_library = "%s"
download_workers = %d
verify_checksums = %v
delete_source_on_move = %v

[index]
central_path = "%s"

[logging]
level = "%s"
file = "%s"
max_size_mb = %d
max_backups = %d
`,
		c.Tmdb.APIKey,
		c.Ollama.Enabled, c.Ollama.Endpoint, c.Ollama.Model, c.Ollama.TimeoutSec, c.Ollama.MinConfidence,
		c.Probe.FfprobePath,
		c.Planner.MoviesLibrary, c.Planner.TVShowsLibrary, c.Planner.DownloadWorkers,
		c.Planner.VerifyChecksums, c.Planner.DeleteSourceOnMv,
		c.Index.CentralPath,
		c.Logging.Level, c.Logging.File, c.Logging.MaxSizeMB, c.Logging.MaxBackups,
	)
}

// ConfigExists reports whether a config file already exists for this user.
func ConfigExists() bool {
	path, err := paths.ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
