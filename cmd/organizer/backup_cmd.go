package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/archive"
	"github.com/jpixy/media-organizer/internal/paths"
	"github.com/jpixy/media-organizer/internal/ui"
)

var (
	backupOutput          string
	backupIncludeConfig   bool
	backupIncludeIndexes  bool
	backupIncludeSessions bool

	importDryRun      bool
	importOnly        string
	importMerge       bool
	importForce       bool
	importBackupFirst bool
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import a full config/index/session backup archive",
	}
	cmd.AddCommand(newBackupExportCmd())
	cmd.AddCommand(newBackupImportCmd())
	return cmd
}

func newBackupExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup ZIP of config, indexes, and session journals",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := paths.ConfigPath()
			if err != nil {
				return err
			}
			indexDir, err := paths.IndexDir()
			if err != nil {
				return err
			}
			sessionsDir, err := paths.SessionsDir()
			if err != nil {
				return err
			}

			dest := backupOutput
			if dest == "" {
				dest = archive.AutoFilename()
			}

			spinner := ui.NewSpinner("Writing backup archive")
			spinner.Start()
			manifest, err := archive.ExportToFile(dest, archive.ExportOptions{
				IncludeConfig:   backupIncludeConfig,
				IncludeIndexes:  backupIncludeIndexes,
				IncludeSessions: backupIncludeSessions,
				ConfigPath:      configPath,
				IndexDir:        indexDir,
				SessionsDir:     sessionsDir,
			})
			spinner.Stop()
			if err != nil {
				return fmt.Errorf("export backup: %w", err)
			}

			fmt.Println(ui.Success(fmt.Sprintf("Backup written to %s (%d files, sections: %v)", dest, len(manifest.Files), manifest.Sections)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&backupOutput, "output", "o", "", "archive path (defaults to an auto-named file in the current directory)")
	cmd.Flags().BoolVar(&backupIncludeConfig, "config", true, "include the config file")
	cmd.Flags().BoolVar(&backupIncludeIndexes, "indexes", true, "include the central and per-disk indexes")
	cmd.Flags().BoolVar(&backupIncludeSessions, "sessions", false, "include saved rollback journals")
	return cmd
}

func newBackupImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Restore config, indexes, and/or sessions from a backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath := args[0]

			configDir, err := paths.AppDir()
			if err != nil {
				return err
			}
			indexDir, err := paths.IndexDir()
			if err != nil {
				return err
			}
			sessionsDir, err := paths.SessionsDir()
			if err != nil {
				return err
			}

			opts := archive.ImportOptions{
				DryRun:      importDryRun,
				Only:        importOnly,
				Merge:       importMerge,
				Force:       importForce,
				BackupFirst: importBackupFirst,
				ConfigDir:   configDir,
				IndexDir:    indexDir,
				SessionsDir: sessionsDir,
			}

			if importDryRun {
				entries, err := archive.Preview(archivePath, opts)
				if err != nil {
					return fmt.Errorf("preview backup: %w", err)
				}
				for _, e := range entries {
					status := "import"
					if e.WillSkip {
						status = "skip"
					}
					line := fmt.Sprintf("%s: %s", status, e.Name)
					if e.Reason != "" {
						line += " (" + e.Reason + ")"
					}
					fmt.Println(line)
				}
				return nil
			}

			spinner := ui.NewSpinner("Importing backup archive")
			spinner.Start()
			result, err := archive.ImportFromFile(archivePath, opts)
			spinner.Stop()
			if err != nil {
				return fmt.Errorf("import backup: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Imported %d files, skipped %d (merged=%v)", result.Imported, result.Skipped, result.Merged)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "preview what would be imported without changing anything")
	cmd.Flags().StringVar(&importOnly, "only", "", "restrict to one section: config, indexes, or sessions")
	cmd.Flags().BoolVar(&importMerge, "merge", false, "merge the central index instead of replacing it")
	cmd.Flags().BoolVar(&importForce, "force", false, "overwrite existing files even without --merge")
	cmd.Flags().BoolVar(&importBackupFirst, "backup-first", false, "rename the existing config dir aside before importing")
	return cmd
}
