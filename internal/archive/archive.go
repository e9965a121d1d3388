// Package archive exports and imports a full backup of the organizer's
// config, indexes, and session journals as a single ZIP file.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jpixy/media-organizer/internal/index"
	"github.com/jpixy/media-organizer/internal/model"
)

// Manifest describes the contents of an export archive.
type Manifest struct {
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	Files       []string          `json:"files"`
	Sections    map[string]bool   `json:"sections"`
}

// ExportOptions selects which sections an export archive includes.
type ExportOptions struct {
	IncludeConfig  bool
	IncludeIndexes bool
	IncludeSessions bool
	ConfigPath     string
	IndexDir       string
	SessionsDir    string
}

// ExportToFile writes a backup ZIP to destPath per opts.
func ExportToFile(destPath string, opts ExportOptions) (*Manifest, error) {
	out, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	manifest := &Manifest{
		Version:   1,
		CreatedAt: time.Now(),
		Sections:  map[string]bool{},
	}

	if opts.IncludeConfig && opts.ConfigPath != "" {
		if err := addConfigSection(zw, opts.ConfigPath, manifest); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if opts.IncludeIndexes && opts.IndexDir != "" {
		if err := addIndexesSection(zw, opts.IndexDir, manifest); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if opts.IncludeSessions && opts.SessionsDir != "" {
		if err := addSessionsSection(zw, opts.SessionsDir, manifest); err != nil {
			zw.Close()
			return nil, err
		}
	}

	sort.Strings(manifest.Files)
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		zw.Close()
		return nil, err
	}
	w, err := zw.Create("manifest.json")
	if err != nil {
		zw.Close()
		return nil, err
	}
	if _, err := w.Write(manifestData); err != nil {
		zw.Close()
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func addConfigSection(zw *zip.Writer, configPath string, manifest *Manifest) error {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	scrubbed := scrubSecrets(string(data))
	name := "config/" + filepath.Base(configPath)
	if err := writeZipEntry(zw, name, []byte(scrubbed)); err != nil {
		return err
	}
	manifest.Files = append(manifest.Files, name)
	manifest.Sections["config"] = true
	return nil
}

func addIndexesSection(zw *zip.Writer, indexDir string, manifest *Manifest) error {
	added := false

	central := filepath.Join(indexDir, "central.json")
	if data, err := os.ReadFile(central); err == nil {
		name := "indexes/central_index.json"
		if err := writeZipEntry(zw, name, data); err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, name)
		added = true
	}

	diskDir := filepath.Join(indexDir, "disk_indexes")
	entries, err := os.ReadDir(diskDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(diskDir, entry.Name()))
			if err != nil {
				continue
			}
			name := "indexes/disk_indexes/" + entry.Name()
			if err := writeZipEntry(zw, name, data); err != nil {
				return err
			}
			manifest.Files = append(manifest.Files, name)
			added = true
		}
	}

	if added {
		manifest.Sections["indexes"] = true
	}
	return nil
}

func addSessionsSection(zw *zip.Writer, sessionsDir string, manifest *Manifest) error {
	entries, err := os.ReadDir(sessionsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read sessions dir: %w", err)
	}
	added := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sessionsDir, entry.Name()))
		if err != nil {
			continue
		}
		name := "sessions/" + entry.Name()
		if err := writeZipEntry(zw, name, data); err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, name)
		added = true
	}
	if added {
		manifest.Sections["sessions"] = true
	}
	return nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var secretMarkers = []string{"api_key", "token", "secret"}

// scrubSecrets prefixes any config line whose lowercased text mentions a
// credential-bearing key with "# [REMOVED] ", so exported archives never
// leak TMDB keys or bearer tokens even when shared casually.
func scrubSecrets(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range secretMarkers {
			if strings.Contains(lower, marker) {
				lines[i] = "# [REMOVED] " + line
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// ImportOptions controls how an archive is applied to the local install.
type ImportOptions struct {
	DryRun      bool
	Only        string // "", "config", "indexes", "sessions"
	Merge       bool   // merge central index instead of replacing it
	Force       bool   // overwrite existing files even without merge
	BackupFirst bool   // rename the existing config dir aside before importing

	ConfigDir   string
	IndexDir    string
	SessionsDir string
}

// PreviewEntry describes what would happen to one archived file on import.
type PreviewEntry struct {
	Name     string
	WillSkip bool
	Reason   string
}

// Preview inspects an archive and reports what an Import with the given
// options would do, without touching the filesystem.
func Preview(archivePath string, opts ImportOptions) ([]PreviewEntry, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	var entries []PreviewEntry
	for _, f := range r.File {
		if f.Name == "manifest.json" {
			continue
		}
		section := sectionOf(f.Name)
		if opts.Only != "" && section != opts.Only {
			continue
		}
		dest := destinationFor(f.Name, opts)
		if dest == "" {
			continue
		}
		entry := PreviewEntry{Name: f.Name}
		if f.Name == "indexes/central_index.json" && opts.Merge {
			entry.Reason = "will merge into existing central index"
		} else if _, statErr := os.Stat(dest); statErr == nil && !opts.Force && !opts.Merge {
			entry.WillSkip = true
			entry.Reason = "destination already exists"
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Result summarizes a completed import.
type Result struct {
	Imported int
	Skipped  int
	Merged   bool
}

// ImportFromFile applies an archive to the local install per opts.
func ImportFromFile(archivePath string, opts ImportOptions) (*Result, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	if opts.BackupFirst && !opts.DryRun && opts.ConfigDir != "" {
		if _, err := os.Stat(opts.ConfigDir); err == nil {
			backupDir := opts.ConfigDir + ".backup-" + time.Now().Format("20060102-150405")
			if err := os.Rename(opts.ConfigDir, backupDir); err != nil {
				return nil, fmt.Errorf("backup existing config dir: %w", err)
			}
		}
	}

	result := &Result{}
	for _, f := range r.File {
		if f.Name == "manifest.json" {
			continue
		}
		section := sectionOf(f.Name)
		if opts.Only != "" && section != opts.Only {
			continue
		}

		if f.Name == "indexes/central_index.json" && opts.Merge {
			if err := importMergedCentral(f, opts); err != nil {
				return nil, err
			}
			result.Imported++
			result.Merged = true
			continue
		}

		dest := destinationFor(f.Name, opts)
		if dest == "" {
			continue
		}
		if _, statErr := os.Stat(dest); statErr == nil && !opts.Force && !opts.Merge {
			result.Skipped++
			continue
		}
		if opts.DryRun {
			result.Imported++
			continue
		}
		if err := extractEntry(f, dest); err != nil {
			return nil, err
		}
		result.Imported++
	}
	return result, nil
}

func importMergedCentral(f *zip.File, opts ImportOptions) error {
	if opts.DryRun {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	var incoming model.CentralIndex
	if err := json.Unmarshal(data, &incoming); err != nil {
		return fmt.Errorf("parse archived central index: %w", err)
	}

	store := index.NewStore(opts.IndexDir)
	existing, err := store.LoadCentral()
	if err != nil {
		return err
	}
	index.MergeCentral(existing, &incoming)
	return store.SaveCentral(existing)
}

func sectionOf(name string) string {
	switch {
	case strings.HasPrefix(name, "config/"):
		return "config"
	case strings.HasPrefix(name, "indexes/"):
		return "indexes"
	case strings.HasPrefix(name, "sessions/"):
		return "sessions"
	default:
		return ""
	}
}

func destinationFor(name string, opts ImportOptions) string {
	switch {
	case strings.HasPrefix(name, "config/"):
		if opts.ConfigDir == "" {
			return ""
		}
		return filepath.Join(opts.ConfigDir, strings.TrimPrefix(name, "config/"))
	case name == "indexes/central_index.json":
		if opts.IndexDir == "" {
			return ""
		}
		return filepath.Join(opts.IndexDir, "central.json")
	case strings.HasPrefix(name, "indexes/disk_indexes/"):
		if opts.IndexDir == "" {
			return ""
		}
		return filepath.Join(opts.IndexDir, "disk_indexes", strings.TrimPrefix(name, "indexes/disk_indexes/"))
	case strings.HasPrefix(name, "sessions/"):
		if opts.SessionsDir == "" {
			return ""
		}
		return filepath.Join(opts.SessionsDir, strings.TrimPrefix(name, "sessions/"))
	default:
		return ""
	}
}

func extractEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// AutoFilename generates a timestamped default archive filename.
func AutoFilename() string {
	return fmt.Sprintf("media_organizer_backup_%s.zip", time.Now().Format("20060102_150405"))
}
