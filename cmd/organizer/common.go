package main

import (
	"context"
	"path/filepath"

	"github.com/jpixy/media-organizer/internal/config"
	"github.com/jpixy/media-organizer/internal/logging"
	"github.com/jpixy/media-organizer/internal/model"
	"github.com/jpixy/media-organizer/internal/paths"
	"github.com/jpixy/media-organizer/internal/techprobe"
)

var prober = techprobe.New()

// buildLogger constructs the shared structured logger from config, defaulting
// its file into the app's log directory when config leaves it unset.
func buildLogger(cfg *config.Config) *logging.Logger {
	logFile := cfg.Logging.File
	if logFile == "" {
		if dir, err := paths.LogDir(); err == nil {
			logFile = filepath.Join(dir, "organizer.log")
		}
	}
	log, err := logging.New(logging.Config{
		Level:           cfg.Logging.Level,
		File:            logFile,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		ComponentLevels: cfg.Logging.ComponentLevels,
	})
	if err != nil {
		return logging.Nop()
	}
	return log
}

// configureProber points the shared Prober at the ffprobe binary named in
// config, if any.
func configureProber(cfg *config.Config) {
	if cfg.Probe.FfprobePath != "" {
		prober.FfprobePath = cfg.Probe.FfprobePath
	}
}

// techProbe runs ffprobe against path, then merges in the filename-derived
// heuristic (per spec §4.B's merge(primary, secondary) step) so any field
// ffprobe left at its unknown sentinel still gets filled from the name when
// the name carries that information (e.g. "1080p.BluRay.x264").
func techProbe(ctx context.Context, path, name string) model.TechMeta {
	primary := prober.Probe(ctx, path)
	return primary.Merge(techprobe.FromFilename(name))
}
