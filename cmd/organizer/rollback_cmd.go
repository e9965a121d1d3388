package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/config"
	"github.com/jpixy/media-organizer/internal/model"
	"github.com/jpixy/media-organizer/internal/rollback"
	"github.com/jpixy/media-organizer/internal/ui"
)

var (
	rollbackDryRun bool
	rollbackVerify bool
	rollbackYes    bool
)

func newRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <rollback.json>",
		Short: "Undo a committed run from its journal",
		Long: `rollback replays a Rollback journal written by "organizer execute" in
reverse: moved files go back to their source paths, created NFOs and
posters are deleted, and directories the run created are removed if still
empty. Conflicts (a source path now occupied, a moved file gone missing or
changed) are reported but never block the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rb, err := loadRollback(args[0])
			if err != nil {
				return err
			}

			ex := rollback.New(buildLogger(cfg))
			opts := rollback.Options{DryRun: rollbackDryRun, VerifyChecksums: rollbackVerify}

			conflicts := ex.Preflight(rb, opts)
			if len(conflicts) > 0 {
				ui.Section("Conflicts")
				for _, c := range conflicts {
					fmt.Fprintf(os.Stderr, "seq %d (%s %s): %s\n", c.Seq, c.Kind, c.Target, ui.Warning(c.Reason))
				}
			}
			if !rollbackDryRun && !rollbackYes && !ui.Confirm(fmt.Sprintf("Undo %d operations from plan %s?", len(rb.Ops), rb.PlanID)) {
				fmt.Println("Aborted.")
				return nil
			}

			result, err := ex.Execute(rb, opts)
			if err != nil {
				return fmt.Errorf("rollback: %w", err)
			}

			if rollbackDryRun {
				fmt.Printf("Dry run: %d steps would be undone\n", result.Skipped)
				return nil
			}
			ui.Section("Results")
			fmt.Printf("Rollback complete: %s, %s, %d skipped\n",
				ui.Success(fmt.Sprintf("%d undone", result.Success)),
				ui.Error(fmt.Sprintf("%d failed", result.ErrorCount)),
				result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  %s\n", ui.Error(e))
			}
			if result.ErrorCount > 0 {
				return fmt.Errorf("%d undo steps failed", result.ErrorCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollbackDryRun, "dry-run", false, "report what would be undone without changing anything")
	cmd.Flags().BoolVar(&rollbackVerify, "verify-checksums", false, "verify checksums before undoing a move")
	cmd.Flags().BoolVarP(&rollbackYes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func loadRollback(path string) (*model.Rollback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rollback journal: %w", err)
	}
	var rb model.Rollback
	if err := json.Unmarshal(data, &rb); err != nil {
		return nil, fmt.Errorf("parse rollback journal: %w", err)
	}
	return &rb, nil
}
