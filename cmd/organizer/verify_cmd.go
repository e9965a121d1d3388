package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/identify"
	"github.com/jpixy/media-organizer/internal/scanner"
	"github.com/jpixy/media-organizer/internal/ui"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Re-check a directory for files identification would reject",
		Long: `verify re-scans a path the same way "organizer plan" does and runs the
evidence cascade in dry-mode: no TMDB or local-LLM client is configured, so
only the filename/directory grammar that decides whether a file carries
enough evidence to be looked up at all ever runs. It reports every file for
which that grammar finds no searchable title or TMDB ID, without touching
anything. It does not check whether the other files find a TMDB match, and a
real plan run with the local LLM enabled may still resolve a reported file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("path not found: %s", path)
			}

			result, err := scanner.Scan(path)
			if err != nil {
				return fmt.Errorf("scan %s: %w", path, err)
			}
			if len(result.Videos) == 0 {
				fmt.Println("No video files found.")
				return nil
			}

			ctx := context.Background()
			pipeline := identify.NewPipeline(nil, nil)

			var ok, failed int
			ui.Section("Verification")
			for _, video := range result.Videos {
				cand := pipeline.ResolveCandidate(ctx, video.Path)
				if cand.HasSearchableInfo() {
					ok++
					continue
				}
				failed++
				fmt.Printf("  %s %s\n", ui.Path(video.Path), ui.Unresolved("no searchable title or TMDB ID evidence"))
			}

			fmt.Printf("\n%s, %s\n",
				ui.Identified(fmt.Sprintf("%d/%d files carry enough evidence to identify", ok, len(result.Videos))),
				ui.Unresolved(fmt.Sprintf("%d would be Unknown", failed)))
			if failed > 0 {
				return fmt.Errorf("%d files failed the dry-run identification check", failed)
			}
			return nil
		},
	}
	return cmd
}
