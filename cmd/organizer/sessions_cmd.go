package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/paths"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List and inspect past execution journals",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved Rollback journals",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := paths.SessionsDir()
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("no sessions recorded yet")
					return nil
				}
				return err
			}

			var names []string
			for _, entry := range entries {
				if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
					names = append(names, entry.Name())
				}
			}
			sort.Strings(names)
			for _, name := range names {
				rb, err := loadRollback(filepath.Join(dir, name))
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
					continue
				}
				fmt.Printf("%s  plan=%s  executed=%s  ops=%d\n", name, rb.PlanID, rb.ExecutedAt.Format("2006-01-02 15:04:05"), len(rb.Ops))
			}
			return nil
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-file-or-id>",
		Short: "Print a saved Rollback journal as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSessionPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			var pretty interface{}
			if err := json.Unmarshal(data, &pretty); err != nil {
				return fmt.Errorf("parse session: %w", err)
			}
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// resolveSessionPath accepts either a direct path to a session file or a
// bare name/plan ID, in which case it is looked up inside the sessions
// directory (an exact filename, the name plus ".json", or any filename
// containing it).
func resolveSessionPath(ref string) (string, error) {
	if _, err := os.Stat(ref); err == nil {
		return ref, nil
	}

	dir, err := paths.SessionsDir()
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("no session matching %q: %w", ref, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == ref || name == ref+".json" || strings.Contains(name, ref) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no session matching %q in %s", ref, dir)
}
