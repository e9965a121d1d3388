package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpixy/media-organizer/internal/index"
	"github.com/jpixy/media-organizer/internal/model"
)

func TestScrubSecretsRedactsCredentialLines(t *testing.T) {
	content := "[tmdb]\napi_key = \"abc123\"\n[ollama]\nenabled = true\n"
	scrubbed := scrubSecrets(content)

	if !contains(scrubbed, "# [REMOVED] api_key = \"abc123\"") {
		t.Fatalf("expected api_key line redacted, got:\n%s", scrubbed)
	}
	if !contains(scrubbed, "enabled = true") {
		t.Fatalf("expected unrelated line preserved, got:\n%s", scrubbed)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}

func TestExportToFileWritesScrubbedConfigAndIndexes(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[tmdb]\napi_key = \"secretvalue\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	indexDir := filepath.Join(dir, "index")
	store := index.NewStore(indexDir)
	central := &model.CentralIndex{
		Disks:   map[string]model.DiskInfo{},
		Movies:  []model.MovieEntry{{ID: "m1", Meta: model.MovieMeta{Title: "Arrival"}}},
	}
	if err := store.SaveCentral(central); err != nil {
		t.Fatal(err)
	}

	archivePath := filepath.Join(dir, "backup.zip")
	manifest, err := ExportToFile(archivePath, ExportOptions{
		IncludeConfig:  true,
		IncludeIndexes: true,
		ConfigPath:     configPath,
		IndexDir:       indexDir,
	})
	if err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if !manifest.Sections["config"] || !manifest.Sections["indexes"] {
		t.Fatalf("expected both sections recorded, got %v", manifest.Sections)
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("expected archive file to exist: %v", err)
	}
}

func TestImportFromFileSkipsExistingWithoutForceOrMerge(t *testing.T) {
	dir := t.TempDir()
	srcConfigDir := filepath.Join(dir, "src-config")
	if err := os.MkdirAll(srcConfigDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(srcConfigDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[tmdb]\napi_key = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	archivePath := filepath.Join(dir, "backup.zip")
	if _, err := ExportToFile(archivePath, ExportOptions{IncludeConfig: true, ConfigPath: configPath}); err != nil {
		t.Fatal(err)
	}

	destConfigDir := filepath.Join(dir, "dest-config")
	if err := os.MkdirAll(destConfigDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destConfigDir, "config.toml"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ImportFromFile(archivePath, ImportOptions{ConfigDir: destConfigDir})
	if err != nil {
		t.Fatalf("ImportFromFile: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected existing file skipped, got %+v", result)
	}

	data, _ := os.ReadFile(filepath.Join(destConfigDir, "config.toml"))
	if string(data) != "existing" {
		t.Fatalf("expected destination untouched, got %q", data)
	}
}

func TestImportFromFileMergesCentralIndexWhenMergeSet(t *testing.T) {
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "index")
	store := index.NewStore(indexDir)
	existing := &model.CentralIndex{
		Disks:  map[string]model.DiskInfo{},
		Movies: []model.MovieEntry{{ID: "local", Meta: model.MovieMeta{TmdbID: 1, Title: "Local Movie"}}},
	}
	if err := store.SaveCentral(existing); err != nil {
		t.Fatal(err)
	}

	archived := &model.CentralIndex{
		Disks:  map[string]model.DiskInfo{},
		Movies: []model.MovieEntry{{ID: "remote", Meta: model.MovieMeta{TmdbID: 2, Title: "Remote Movie"}}},
	}
	data, err := json.Marshal(archived)
	if err != nil {
		t.Fatal(err)
	}
	archivePath := filepath.Join(dir, "backup.zip")
	if err := writeArchiveWithCentralIndex(archivePath, data); err != nil {
		t.Fatal(err)
	}

	result, err := ImportFromFile(archivePath, ImportOptions{IndexDir: indexDir, Merge: true})
	if err != nil {
		t.Fatalf("ImportFromFile: %v", err)
	}
	if !result.Merged {
		t.Fatalf("expected Merged=true, got %+v", result)
	}

	merged, err := store.LoadCentral()
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.Movies) != 2 {
		t.Fatalf("expected 2 movies after merge, got %d", len(merged.Movies))
	}
}

func writeArchiveWithCentralIndex(archivePath string, centralData []byte) error {
	dir := filepath.Dir(archivePath)
	indexDir := filepath.Join(dir, "tmp-export-index")
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(indexDir, "central.json"), centralData, 0o644); err != nil {
		return err
	}
	_, err := ExportToFile(archivePath, ExportOptions{IncludeIndexes: true, IndexDir: indexDir})
	return err
}
