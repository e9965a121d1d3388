package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/config"
	"github.com/jpixy/media-organizer/internal/executor"
	"github.com/jpixy/media-organizer/internal/model"
	"github.com/jpixy/media-organizer/internal/paths"
	"github.com/jpixy/media-organizer/internal/planner"
	"github.com/jpixy/media-organizer/internal/ui"
)

var (
	executeOutput  string
	executeWorkers int
	executeVerify  bool
)

func newExecuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <plan.json>",
		Short: "Commit a Plan, producing a Rollback journal",
		Long: `execute reads a Plan written by "organizer plan", runs its preflight
checks, then commits every Mkdir, Move, Create, and Download operation. A
Rollback journal recording everything actually committed is written to
~/.config/media-organizer/sessions so the run can later be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}

			workers := executeWorkers
			if workers <= 0 {
				workers = cfg.Planner.DownloadWorkers
			}

			ex := executor.New(executor.Options{
				DownloadWorkers: workers,
				VerifyChecksums: executeVerify || cfg.Planner.VerifyChecksums,
				Content:         planContentResolver(plan),
			}, buildLogger(cfg))

			planID := uuid.NewString()
			started := time.Now()
			result, err := ex.Execute(context.Background(), plan, planID)
			if err != nil {
				return fmt.Errorf("execute plan: %w", err)
			}

			ui.Section("Results")
			fmt.Printf("Executed plan %s in %s: %s, %s\n", planID, ui.FormatDuration(time.Since(started)),
				ui.Success(fmt.Sprintf("%d succeeded", result.Succeeded)),
				ui.Error(fmt.Sprintf("%d failed", result.Failed)))
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s\n", ui.Error(e.Error()))
			}

			dest, err := saveRollback(&result.Rollback)
			if err != nil {
				return fmt.Errorf("save rollback journal: %w", err)
			}
			fmt.Printf("Rollback journal written to %s\n", dest)

			if result.Failed > 0 {
				return fmt.Errorf("%d operations failed", result.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&executeOutput, "output", "o", "", "write rollback journal here instead of the sessions directory")
	cmd.Flags().IntVar(&executeWorkers, "workers", 0, "download worker count (defaults to config)")
	cmd.Flags().BoolVar(&executeVerify, "verify-checksums", false, "verify checksums on cross-device moves")
	return cmd
}

func loadPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}

// planContentResolver builds a Create-operation content resolver backed by
// the PlanItems the Plan itself carries: a Create op's itemID is the
// PlanItem's ID, and that item already holds the MovieMeta or ShowMeta
// needed to regenerate its NFO bytes at commit time.
func planContentResolver(plan *model.Plan) executor.ContentResolver {
	items := make(map[string]model.PlanItem, len(plan.Items))
	for _, item := range plan.Items {
		items[item.ID] = item
	}

	return func(itemID, ref string) ([]byte, error) {
		item, ok := items[itemID]
		if !ok {
			return nil, fmt.Errorf("no plan item %q", itemID)
		}
		switch ref {
		case "nfo":
			switch {
			case item.Movie != nil:
				return planner.GenerateMovieNFO(item.Movie)
			case item.Show != nil && item.Episode != nil:
				return planner.GenerateShowNFO(item.Show)
			default:
				return nil, fmt.Errorf("plan item %q has neither movie nor show metadata", itemID)
			}
		case "episode-nfo":
			if item.Show == nil || item.Episode == nil {
				return nil, fmt.Errorf("plan item %q has no episode metadata", itemID)
			}
			return planner.GenerateEpisodeNFO(item.Show, item.Episode)
		default:
			return nil, fmt.Errorf("unknown content ref %q", ref)
		}
	}
}

func saveRollback(rb *model.Rollback) (string, error) {
	dest := executeOutput
	if dest == "" {
		dir, err := paths.SessionsDir()
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s-%s.json", rb.ExecutedAt.Format("20060102-150405"), rb.PlanID))
	} else if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(rb, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}
