package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPassesValidationOnceRequiredFieldsSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tmdb.APIKey = "test-key"
	cfg.Planner.MoviesLibrary = "/media/movies"
	cfg.Planner.TVShowsLibrary = "/media/tvshows"

	require.NoError(t, validate.Struct(cfg))
}

func TestDefaultConfigRejectsMissingTmdbKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Planner.MoviesLibrary = "/media/movies"
	cfg.Planner.TVShowsLibrary = "/media/tvshows"

	err := validate.Struct(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey")
}

func TestOllamaConfigTimeoutConversion(t *testing.T) {
	o := OllamaConfig{TimeoutSec: 30}
	assert.Equal(t, "30s", o.Timeout().String())
}

func TestToTOMLRoundTripsKeyValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tmdb.APIKey = "abc123"
	cfg.Planner.MoviesLibrary = "/media/movies"
	cfg.Planner.TVShowsLibrary = "/media/tvshows"

	toml := cfg.ToTOML()
	assert.True(t, strings.Contains(toml, `api_key = "abc123"`))
	assert.True(t, strings.Contains(toml, `movies_library = "/media/movies"`))
}

func TestDefaultConfigPlannerDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 4, cfg.Planner.DownloadWorkers)
	assert.True(t, cfg.Planner.VerifyChecksums)
}
