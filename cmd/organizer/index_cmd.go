package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpixy/media-organizer/internal/index"
	"github.com/jpixy/media-organizer/internal/model"
	"github.com/jpixy/media-organizer/internal/paths"
	"github.com/jpixy/media-organizer/internal/ui"
)

var (
	indexMediaType string
	indexDiskUUID  string

	searchTitle      string
	searchActor      string
	searchDirector   string
	searchGenre      string
	searchCountry    string
	searchCollection string
	searchYear       int
	searchYearFrom   int
	searchYearTo     int
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain and search the central cross-disk media index",
		Long: `index scans a disk's organized library tree for movie.nfo/tvshow.nfo
files (the source of truth left behind by "organizer execute"), merges the
result into the aggregated central index, and lets that index be searched
by actor, director, genre, year, country, or collection.`,
	}
	cmd.AddCommand(newIndexScanCmd())
	cmd.AddCommand(newIndexSearchCmd())
	cmd.AddCommand(newIndexSummaryCmd())
	cmd.AddCommand(newIndexMergeCmd())
	return cmd
}

func openIndexStore() (*index.Store, error) {
	dir, err := paths.IndexDir()
	if err != nil {
		return nil, err
	}
	return index.NewStore(dir), nil
}

func newIndexScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <root> <disk-label>",
		Short: "Scan a disk's library tree and merge it into the central index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, label := args[0], args[1]
			if label == "" {
				label = index.DetectDiskLabel(root)
			}

			mediaType := indexMediaType
			if mediaType == "" {
				mediaType = "movies"
			}

			spinner := ui.NewSpinner(fmt.Sprintf("Scanning %s", root))
			spinner.Start()
			disk, err := index.ScanDirectory(root, label, indexDiskUUID, mediaType)
			spinner.Stop()
			if err != nil {
				return fmt.Errorf("scan %s: %w", root, err)
			}

			store, err := openIndexStore()
			if err != nil {
				return err
			}
			central, err := store.LoadCentral()
			if err != nil {
				return fmt.Errorf("load central index: %w", err)
			}

			index.MergeDiskIntoCentral(central, disk)

			if err := store.SaveDisk(disk); err != nil {
				return fmt.Errorf("save disk index: %w", err)
			}
			if err := store.SaveCentral(central); err != nil {
				return fmt.Errorf("save central index: %w", err)
			}

			fmt.Println(ui.Success(fmt.Sprintf("Indexed disk %q: %d movies, %d TV shows, merged into central index", label, disk.MovieCount, disk.TvShowCount)))
			return nil
		},
	}
	cmd.Flags().StringVar(&indexMediaType, "media-type", "movies", "movies or tvshows")
	cmd.Flags().StringVar(&indexDiskUUID, "disk-uuid", "", "disk UUID to record, if known")
	return cmd
}

func newIndexSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the central index",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openIndexStore()
			if err != nil {
				return err
			}
			central, err := store.LoadCentral()
			if err != nil {
				return fmt.Errorf("load central index: %w", err)
			}

			movies, shows, collections := index.Search(central, index.Filters{
				Title:      searchTitle,
				Actor:      searchActor,
				Director:   searchDirector,
				Genre:      searchGenre,
				Country:    searchCountry,
				Collection: searchCollection,
				Year:       searchYear,
				YearFrom:   searchYearFrom,
				YearTo:     searchYearTo,
			})

			if len(movies) > 0 {
				table := ui.NewTable("Title", "Year", "Size", "Disk", "Path")
				for _, m := range movies {
					table.AddRow(ui.Movie(m.Meta.Title), fmt.Sprintf("%d", m.Meta.Year), ui.FormatBytes(m.SizeBytes), m.Disk, ui.Path(m.RelativePath))
				}
				table.Render()
			}
			if len(shows) > 0 {
				table := ui.NewTable("Show", "Year", "Size", "Disk", "Path")
				for _, s := range shows {
					table.AddRow(ui.TVShow(s.Meta.Name), fmt.Sprintf("%d", s.Meta.Year), ui.FormatBytes(s.SizeBytes), s.Disk, ui.Path(s.RelativePath))
				}
				table.Render()
			}
			for _, c := range collections {
				fmt.Printf("[collection] %s: %d/%d owned\n", c.Name, c.OwnedCount, c.TotalInCollection)
			}
			if len(movies)+len(shows)+len(collections) == 0 {
				fmt.Println(ui.Dim("no matches"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&searchTitle, "title", "", "title substring")
	cmd.Flags().StringVar(&searchActor, "actor", "", "actor name")
	cmd.Flags().StringVar(&searchDirector, "director", "", "director name")
	cmd.Flags().StringVar(&searchGenre, "genre", "", "genre")
	cmd.Flags().StringVar(&searchCountry, "country", "", "country")
	cmd.Flags().StringVar(&searchCollection, "collection", "", "collection name substring")
	cmd.Flags().IntVar(&searchYear, "year", 0, "exact release year")
	cmd.Flags().IntVar(&searchYearFrom, "year-from", 0, "minimum release year")
	cmd.Flags().IntVar(&searchYearTo, "year-to", 0, "maximum release year")
	return cmd
}

func newIndexMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <other-central.json>",
		Short: "Fold another central index file into this one",
		Long: `merge reads a standalone central index JSON file (as produced by a
different machine's own index directory, or extracted from a backup archive)
and folds it into this machine's central index: disks are added if missing,
and movies/shows are deduped by TMDB ID, preferring what is already here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var src model.CentralIndex
			if err := json.Unmarshal(data, &src); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			store, err := openIndexStore()
			if err != nil {
				return err
			}
			dst, err := store.LoadCentral()
			if err != nil {
				return fmt.Errorf("load central index: %w", err)
			}

			index.MergeCentral(dst, &src)

			if err := store.SaveCentral(dst); err != nil {
				return fmt.Errorf("save central index: %w", err)
			}
			fmt.Println(index.Summary(dst))
			return nil
		},
	}
}

func newIndexSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print a digest of the central index",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openIndexStore()
			if err != nil {
				return err
			}
			central, err := store.LoadCentral()
			if err != nil {
				return fmt.Errorf("load central index: %w", err)
			}
			fmt.Println(index.Summary(central))
			return nil
		},
	}
}
