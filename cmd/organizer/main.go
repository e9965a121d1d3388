// Command organizer identifies, plans, executes, and indexes a media
// library: it turns a pile of loosely-named video files into a
// Jellyfin-ready tree, keeping an inspectable, reversible record of every
// run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev" // set by build flags: -ldflags="-X main.version=1.0.0"
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "organizer",
		Short: "Identify, plan, and organize a media library",
		Long: `organizer turns loosely-named video files into a Jellyfin-ready
library tree.

It runs in three stages:
  1. plan    - identify files and compose a reviewable Plan (no changes made)
  2. execute - commit a Plan, producing a Rollback journal
  3. rollback - undo a committed run from its journal

A central cross-disk index and a backup archive format are also provided
for cataloging and portability across machines.`,
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newExecuteCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
