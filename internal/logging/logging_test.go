package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestComponentLevelOverridesGlobalLevel(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "organizer.log")

	l, err := New(Config{
		Level:           "warn",
		File:            logPath,
		MaxSizeMB:       10,
		MaxBackups:      1,
		ComponentLevels: map[string]string{"Executor": "debug"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Debug("executor", "dry run probe")
	l.Debug("scanner", "should be filtered out")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "dry run probe") {
		t.Errorf("expected executor debug line to pass its override, got: %s", content)
	}
	if strings.Contains(content, "should be filtered out") {
		t.Errorf("expected scanner debug line to be filtered by the global warn level, got: %s", content)
	}
}

func TestRotateFilesShiftsBackupsAndDropsOldest(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "organizer.log")

	if err := os.WriteFile(base, []byte("current"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "organizer.1.log"), []byte("backup-1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rotateFiles(base, 2); err != nil {
		t.Fatalf("rotateFiles: %v", err)
	}

	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Errorf("expected current log to be renamed away, got err=%v", err)
	}
	if data, err := os.ReadFile(filepath.Join(dir, "organizer.1.log")); err != nil || string(data) != "current" {
		t.Errorf("expected .1 to hold the former current log, got data=%q err=%v", data, err)
	}
	if data, err := os.ReadFile(filepath.Join(dir, "organizer.2.log")); err != nil || string(data) != "backup-1" {
		t.Errorf("expected .2 to hold the former .1 backup, got data=%q err=%v", data, err)
	}
}
