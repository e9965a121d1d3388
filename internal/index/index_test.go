package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpixy/media-organizer/internal/model"
)

func TestDetectDiskLabelMatchesMountConventions(t *testing.T) {
	cases := map[string]string{
		"/run/media/alice/MOVIES_4TB/Movies":        "MOVIES_4TB",
		"/media/alice/Archive1/TvShows":             "Archive1",
		"/mnt/bigdisk/Movies":                       "bigdisk",
		"/home/alice/media/Movies":                  "Movies",
	}
	for path, want := range cases {
		if got := DetectDiskLabel(path); got != want {
			t.Errorf("DetectDiskLabel(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestParseMovieNFOExtractsCoreFields(t *testing.T) {
	content := `<movie>
  <title>Arrival</title>
  <originaltitle>Arrival</originaltitle>
  <year>2016</year>
  <runtime>116</runtime>
  <rating>7.9</rating>
  <genre>Drama</genre>
  <genre>Sci-Fi</genre>
  <director>Denis Villeneuve</director>
  <country>USA</country>
  <uniqueid type="tmdb">329865</uniqueid>
  <actor><name>Amy Adams</name></actor>
</movie>`

	entry := ParseMovieNFO(content, "MOVIES_4TB", "", "Arrival (2016)", 4_000_000_000)

	if entry.Meta.Title != "Arrival" {
		t.Errorf("Title = %q", entry.Meta.Title)
	}
	if entry.Meta.Year != 2016 {
		t.Errorf("Year = %d", entry.Meta.Year)
	}
	if entry.Meta.TmdbID != 329865 {
		t.Errorf("TmdbID = %d", entry.Meta.TmdbID)
	}
	if len(entry.Meta.Genres) != 2 {
		t.Errorf("Genres = %v", entry.Meta.Genres)
	}
	if len(entry.Meta.Actors) != 1 || entry.Meta.Actors[0].Name != "Amy Adams" {
		t.Errorf("Actors = %v", entry.Meta.Actors)
	}
	if entry.Disk != "MOVIES_4TB" {
		t.Errorf("Disk = %q", entry.Disk)
	}
}

func TestParseTvShowNFOFallsBackToPremieredYear(t *testing.T) {
	content := `<tvshow>
  <title>Severance</title>
  <premiered>2022-02-18</premiered>
  <genre>Thriller</genre>
</tvshow>`

	entry := ParseTvShowNFO(content, "MOVIES_4TB", "", "Severance", 0)
	if entry.Meta.Year != 2022 {
		t.Errorf("Year = %d", entry.Meta.Year)
	}
	if entry.Meta.Name != "Severance" {
		t.Errorf("Name = %q", entry.Meta.Name)
	}
}

func TestMergeDiskIntoCentralReplacesStaleSameDiskEntries(t *testing.T) {
	central := emptyCentral()
	oldDisk := &model.DiskIndex{
		Label:   "DISK1",
		Movies:  []model.MovieEntry{{ID: "stale", Disk: "DISK1", Meta: model.MovieMeta{Title: "Old Movie", Year: 2000}}},
		Paths:   map[string]string{"movies": "/mnt/DISK1"},
	}
	MergeDiskIntoCentral(central, oldDisk)
	if len(central.Movies) != 1 {
		t.Fatalf("expected 1 movie after first merge, got %d", len(central.Movies))
	}

	newDisk := &model.DiskIndex{
		Label:  "DISK1",
		Movies: []model.MovieEntry{{ID: "fresh", Disk: "DISK1", Meta: model.MovieMeta{Title: "New Movie", Year: 2020}}},
		Paths:  map[string]string{"movies": "/mnt/DISK1"},
	}
	MergeDiskIntoCentral(central, newDisk)

	if len(central.Movies) != 1 {
		t.Fatalf("expected stale entry dropped, got %d movies", len(central.Movies))
	}
	if central.Movies[0].ID != "fresh" {
		t.Fatalf("expected fresh entry to survive, got %q", central.Movies[0].ID)
	}
	if central.Stats.TotalMovies != 1 {
		t.Fatalf("expected stats recomputed, got %d", central.Stats.TotalMovies)
	}
}

func TestRebuildIndexesPopulatesSecondaryIndexes(t *testing.T) {
	central := emptyCentral()
	central.Movies = []model.MovieEntry{
		{
			ID: "m1",
			Meta: model.MovieMeta{
				Title:     "Arrival",
				Year:      2016,
				Genres:    []string{"Sci-Fi"},
				Directors: []string{"Denis Villeneuve"},
				Actors:    []model.Actor{{Name: "Amy Adams"}},
				Countries: []model.Country{{Name: "USA"}},
			},
		},
	}
	RebuildIndexes(central)

	if ids := central.ByGenre["Sci-Fi"]; len(ids) != 1 || ids[0] != "m1" {
		t.Errorf("ByGenre = %v", central.ByGenre)
	}
	if ids := central.ByActor["Amy Adams"]; len(ids) != 1 {
		t.Errorf("ByActor = %v", central.ByActor)
	}
	if ids := central.ByYear[2016]; len(ids) != 1 {
		t.Errorf("ByYear = %v", central.ByYear)
	}
}

func TestSearchIntersectsFiltersAndAppliesTitleSubstring(t *testing.T) {
	central := emptyCentral()
	central.Movies = []model.MovieEntry{
		{ID: "m1", Meta: model.MovieMeta{Title: "Arrival", Year: 2016, Genres: []string{"Sci-Fi"}}},
		{ID: "m2", Meta: model.MovieMeta{Title: "Dune", Year: 2021, Genres: []string{"Sci-Fi"}}},
		{ID: "m3", Meta: model.MovieMeta{Title: "Amelie", Year: 2001, Genres: []string{"Romance"}}},
	}
	RebuildIndexes(central)

	movies, _, _ := Search(central, Filters{Genre: "Sci-Fi", Title: "dune"})
	if len(movies) != 1 || movies[0].ID != "m2" {
		t.Fatalf("expected only Dune to match, got %v", movies)
	}
}

func TestSearchByCountryNormalizesFreeTextNamesToISOCodes(t *testing.T) {
	central := emptyCentral()
	central.Movies = []model.MovieEntry{
		{ID: "m1", Meta: model.MovieMeta{Title: "Arrival", Year: 2016, Countries: []model.Country{{Name: "United States of America"}}}},
		{ID: "m2", Meta: model.MovieMeta{Title: "Parasite", Year: 2019, Countries: []model.Country{{Name: "South Korea"}}}},
	}
	RebuildIndexes(central)

	movies, _, _ := Search(central, Filters{Country: "us"})
	if len(movies) != 1 || movies[0].ID != "m1" {
		t.Fatalf("expected only Arrival to match country us, got %v", movies)
	}

	movies, _, _ = Search(central, Filters{Country: "kr"})
	if len(movies) != 1 || movies[0].ID != "m2" {
		t.Fatalf("expected only Parasite to match country kr, got %v", movies)
	}
}

func TestMergeCentralDedupesByTmdbID(t *testing.T) {
	dst := emptyCentral()
	dst.Movies = []model.MovieEntry{{ID: "existing", Meta: model.MovieMeta{TmdbID: 42, Title: "Kept"}}}

	src := emptyCentral()
	src.Movies = []model.MovieEntry{
		{ID: "dup", Meta: model.MovieMeta{TmdbID: 42, Title: "Duplicate"}},
		{ID: "new", Meta: model.MovieMeta{TmdbID: 99, Title: "Fresh"}},
	}

	MergeCentral(dst, src)

	if len(dst.Movies) != 2 {
		t.Fatalf("expected dedup to leave 2 movies, got %d: %v", len(dst.Movies), dst.Movies)
	}
}

func TestStoreSaveCentralWritesBackupOnSecondSave(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	first := emptyCentral()
	if err := store.SaveCentral(first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := emptyCentral()
	second.Movies = []model.MovieEntry{{ID: "m1", Meta: model.MovieMeta{Title: "Arrival"}}}
	if err := store.SaveCentral(second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "central.json.backup")); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}

	loaded, err := store.LoadCentral()
	if err != nil {
		t.Fatalf("LoadCentral: %v", err)
	}
	if len(loaded.Movies) != 1 {
		t.Fatalf("expected loaded index to reflect second save, got %d movies", len(loaded.Movies))
	}
}

func TestScanDirectoryFindsMovieNFOAndComputesSize(t *testing.T) {
	root := t.TempDir()
	movieDir := filepath.Join(root, "Arrival (2016)")
	if err := os.MkdirAll(movieDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(movieDir, "movie.nfo"), []byte("<movie><title>Arrival</title><year>2016</year></movie>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(movieDir, "Arrival (2016).mkv"), make([]byte, 1024), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := ScanDirectory(root, "MOVIES_4TB", "", "movies")
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if idx.MovieCount != 1 {
		t.Fatalf("expected 1 movie, got %d", idx.MovieCount)
	}
	if idx.TotalSizeBytes != 1024 {
		t.Fatalf("expected total size 1024, got %d", idx.TotalSizeBytes)
	}
}
