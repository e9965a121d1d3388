package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/config"
	"github.com/jpixy/media-organizer/internal/identify"
	identifyllm "github.com/jpixy/media-organizer/internal/identify/llm"
	"github.com/jpixy/media-organizer/internal/identify/tmdb"
	"github.com/jpixy/media-organizer/internal/model"
	"github.com/jpixy/media-organizer/internal/planner"
	"github.com/jpixy/media-organizer/internal/scanner"
	"github.com/jpixy/media-organizer/internal/ui"
)

var (
	planTarget  string
	planOutput  string
	planNFO     bool
	planPoster  bool
	posterSize  string
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Identify source files and compose a reviewable Plan",
		Long: `plan walks a source directory, identifies every video against TMDB
(with an optional local LLM fallback for files the evidence cascade can't
resolve), and writes a Plan describing every filesystem change a later
"organizer execute" would make. No files are touched.`,
	}

	cmd.PersistentFlags().StringVarP(&planTarget, "target", "t", "", "target library root (defaults to config)")
	cmd.PersistentFlags().StringVarP(&planOutput, "output", "o", "", "write plan JSON here instead of stdout")
	cmd.PersistentFlags().BoolVar(&planNFO, "nfo", true, "include NFO Create operations")
	cmd.PersistentFlags().BoolVar(&planPoster, "poster", true, "include poster Download operations")
	cmd.PersistentFlags().StringVar(&posterSize, "poster-size", "original", "TMDB poster size")

	cmd.AddCommand(newPlanMoviesCmd())
	cmd.AddCommand(newPlanTVShowsCmd())
	return cmd
}

func buildPipeline(cfg *config.Config) *identify.Pipeline {
	client := tmdb.New(cfg.Tmdb.APIKey)
	var ai identify.AIParser
	if cfg.Ollama.Enabled {
		ai = identifyllm.New(identifyllm.Config{
			Endpoint: cfg.Ollama.Endpoint,
			Model:    cfg.Ollama.Model,
			Timeout:  cfg.Ollama.Timeout(),
		})
	}
	return identify.NewPipeline(client, ai)
}

func resolveTargetRoot(cfgRoot string) (string, error) {
	if planTarget != "" {
		return planTarget, nil
	}
	if cfgRoot != "" {
		return cfgRoot, nil
	}
	return "", fmt.Errorf("no target library specified (use --target or set planner.movies_library/tvshows_library in config)")
}

func writePlan(plan *model.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if planOutput == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(planOutput), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(planOutput, data, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	fmt.Printf("Plan written to %s (%d items, %d unknown)\n", planOutput, len(plan.Items), len(plan.Unknown))
	return nil
}

func newPlanMoviesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies <source>",
		Short: "Plan organizing a directory of movie files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			configureProber(cfg)
			target, err := resolveTargetRoot(cfg.Planner.MoviesLibrary)
			if err != nil {
				return err
			}

			result, err := scanner.Scan(source)
			if err != nil {
				return fmt.Errorf("scan %s: %w", source, err)
			}

			ctx := context.Background()
			pipeline := buildPipeline(cfg)

			var movies []planner.ResolvedMovie
			for _, video := range result.Videos {
				cand := pipeline.ResolveCandidate(ctx, video.Path)
				tech := techProbe(ctx, video.Path, video.Name)

				var reason string
				var meta *model.MovieMeta
				if !cand.HasSearchableInfo() {
					reason = "no searchable title or TMDB ID evidence"
				} else {
					meta, err = pipeline.IdentifyMovie(ctx, cand)
					if err != nil {
						reason = fmt.Sprintf("TMDB lookup failed: %v", err)
					} else if meta == nil {
						reason = fmt.Sprintf("no confident TMDB match for %q", cand.DisplayTitle())
					}
				}

				movies = append(movies, planner.ResolvedMovie{
					Video:     video,
					Tech:      tech,
					Candidate: cand,
					Meta:      meta,
					Reason:    reason,
				})
				if verbose {
					status := ui.Identified("identified")
					if meta == nil {
						status = ui.Unresolved("unresolved: " + reason)
					}
					fmt.Fprintf(os.Stderr, "  %s -> %s\n", ui.Path(video.Name), status)
				}
			}

			plan, err := planner.BuildMoviePlan(movies, result.Samples, planner.Options{
				TargetRoot:     target,
				GenerateNFO:    planNFO,
				DownloadPoster: planPoster,
				PosterSize:     posterSize,
			})
			if err != nil {
				return err
			}
			plan.SourcePath = source
			return writePlan(plan)
		},
	}
	return cmd
}

func newPlanTVShowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tvshows <source>",
		Short: "Plan organizing a directory of TV episode files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			configureProber(cfg)
			target, err := resolveTargetRoot(cfg.Planner.TVShowsLibrary)
			if err != nil {
				return err
			}

			result, err := scanner.Scan(source)
			if err != nil {
				return fmt.Errorf("scan %s: %w", source, err)
			}
			groups := scanner.GroupByParent(result.Videos)

			ctx := context.Background()
			pipeline := buildPipeline(cfg)

			var episodes []planner.ResolvedEpisode
			for _, group := range groups {
				folderName := filepath.Base(group.Dir)
				for _, video := range group.Videos {
					cand := pipeline.ResolveCandidate(ctx, video.Path)
					tech := techProbe(ctx, video.Path, video.Name)

					var reason string
					var show *model.ShowMeta
					var episode *model.EpisodeMeta
					show, tvID, err := pipeline.IdentifyShow(ctx, group.Dir, cand, folderName)
					switch {
					case err != nil:
						reason = fmt.Sprintf("TMDB lookup failed: %v", err)
					case show == nil:
						reason = fmt.Sprintf("no confident TMDB match for %q", cand.DisplayTitle())
					case cand.Episode == nil:
						reason = "could not determine episode number from filename"
					default:
						season := 1
						if cand.Season != nil {
							season = *cand.Season
						}
						episode = pipeline.IdentifyEpisode(ctx, tvID, season, *cand.Episode)
					}

					episodes = append(episodes, planner.ResolvedEpisode{
						Video:     video,
						Tech:      tech,
						Candidate: cand,
						Show:      show,
						Episode:   episode,
						Reason:    reason,
					})
					if verbose {
						status := ui.Identified("identified")
						if episode == nil {
							status = ui.Unresolved("unresolved: " + reason)
						}
						fmt.Fprintf(os.Stderr, "  %s -> %s\n", ui.Path(video.Name), status)
					}
				}
			}

			plan, err := planner.BuildShowPlan(episodes, result.Samples, planner.Options{
				TargetRoot:     target,
				GenerateNFO:    planNFO,
				DownloadPoster: planPoster,
				PosterSize:     posterSize,
			})
			if err != nil {
				return err
			}
			plan.SourcePath = source
			return writePlan(plan)
		},
	}
	return cmd
}
