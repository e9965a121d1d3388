package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/config"
	"github.com/jpixy/media-organizer/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize the organizer's configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file, if one does not already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ConfigExists() {
				path, _ := paths.ConfigPath()
				return fmt.Errorf("config already exists at %s (edit it directly, or remove it to re-init)", path)
			}
			cfg := config.DefaultConfig()
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			path, err := paths.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Printf("Wrote default config to %s\nSet tmdb.api_key and planner.movies_library/tvshows_library before running \"organizer plan\".\n", path)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Print(cfg.ToTOML())
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := paths.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
