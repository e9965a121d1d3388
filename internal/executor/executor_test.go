package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpixy/media-organizer/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExecuteMovesFileAndJournalsMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	dst := filepath.Join(dir, "Movies", "Target Folder", "target.mkv")
	writeFile(t, src, "video bytes")

	plan := &model.Plan{
		Items: []model.PlanItem{
			{
				ID:     "item-1",
				Source: model.VideoFile{Path: src},
				Operations: []model.Operation{
					{Op: model.OpMkdir, To: filepath.Dir(dst)},
					{Op: model.OpMove, From: src, To: dst},
				},
			},
		},
	}

	ex := New(Options{VerifyChecksums: true}, nil)
	result, err := ex.Execute(context.Background(), plan, "plan-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("expected no failures, got %d: %v", result.Failed, result.Errors)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("expected target to exist: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source to be removed")
	}

	var moveSeq, mkdirSeq int
	for _, op := range result.Rollback.Ops {
		if op.Kind == model.OpMove {
			moveSeq = op.Seq
			if op.Checksum == "" {
				t.Error("expected checksum to be recorded for verified move")
			}
		}
		if op.Kind == model.OpMkdir {
			mkdirSeq = op.Seq
		}
	}
	if mkdirSeq == 0 || moveSeq == 0 || mkdirSeq >= moveSeq {
		t.Fatalf("expected mkdir to journal before move, got mkdir=%d move=%d", mkdirSeq, moveSeq)
	}
}

func TestExecutePreflightRejectsMissingSource(t *testing.T) {
	dir := t.TempDir()
	plan := &model.Plan{
		Items: []model.PlanItem{
			{
				ID:     "item-1",
				Source: model.VideoFile{Path: filepath.Join(dir, "missing.mkv")},
				Operations: []model.Operation{
					{Op: model.OpMove, From: filepath.Join(dir, "missing.mkv"), To: filepath.Join(dir, "target.mkv")},
				},
			},
		},
	}

	ex := New(Options{}, nil)
	if _, err := ex.Execute(context.Background(), plan, "plan-1"); err == nil {
		t.Fatal("expected preflight validation to fail")
	}
}

func TestExecutePreflightRejectsExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	dst := filepath.Join(dir, "target.mkv")
	writeFile(t, src, "a")
	writeFile(t, dst, "b")

	plan := &model.Plan{
		Items: []model.PlanItem{
			{
				ID:         "item-1",
				Source:     model.VideoFile{Path: src},
				Operations: []model.Operation{{Op: model.OpMove, From: src, To: dst}},
			},
		},
	}

	ex := New(Options{}, nil)
	if _, err := ex.Execute(context.Background(), plan, "plan-1"); err == nil {
		t.Fatal("expected preflight validation to reject an occupied target")
	}
}

func TestExecuteCreateWritesResolvedContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	dst := filepath.Join(dir, "Movies", "target.mkv")
	nfoPath := filepath.Join(dir, "Movies", "movie.nfo")
	writeFile(t, src, "video bytes")

	plan := &model.Plan{
		Items: []model.PlanItem{
			{
				ID:     "item-1",
				Source: model.VideoFile{Path: src},
				Operations: []model.Operation{
					{Op: model.OpMkdir, To: filepath.Dir(dst)},
					{Op: model.OpMove, From: src, To: dst},
					{Op: model.OpCreate, To: nfoPath, ContentRef: "nfo"},
				},
			},
		},
	}

	ex := New(Options{Content: func(itemID, ref string) ([]byte, error) {
		return []byte("<movie/>"), nil
	}}, nil)

	result, err := ex.Execute(context.Background(), plan, "plan-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("expected no failures, got %v", result.Errors)
	}
	data, err := os.ReadFile(nfoPath)
	if err != nil {
		t.Fatalf("expected nfo file to exist: %v", err)
	}
	if string(data) != "<movie/>" {
		t.Fatalf("unexpected nfo content: %q", data)
	}
}

func TestExecuteCreateSkipsWhenTargetAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	dst := filepath.Join(dir, "target.mkv")
	nfoPath := filepath.Join(dir, "tvshow.nfo")
	writeFile(t, src, "video bytes")
	writeFile(t, nfoPath, "<tvshow>original</tvshow>")

	calls := 0
	plan := &model.Plan{
		Items: []model.PlanItem{
			{
				ID:     "item-1",
				Source: model.VideoFile{Path: src},
				Operations: []model.Operation{
					{Op: model.OpMove, From: src, To: dst},
					{Op: model.OpCreate, To: nfoPath, ContentRef: "nfo"},
				},
			},
		},
	}

	ex := New(Options{Content: func(itemID, ref string) ([]byte, error) {
		calls++
		return []byte("<tvshow>new</tvshow>"), nil
	}}, nil)

	if _, err := ex.Execute(context.Background(), plan, "plan-1"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected content resolver not to run when nfo already exists, called %d times", calls)
	}
	data, _ := os.ReadFile(nfoPath)
	if string(data) != "<tvshow>original</tvshow>" {
		t.Fatalf("expected existing nfo to remain untouched, got %q", data)
	}
}

func TestExecuteDownloadFailureIsCountedNotFatal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	writeFile(t, src, "video bytes")

	plan := &model.Plan{
		Items: []model.PlanItem{
			{
				ID:     "item-1",
				Source: model.VideoFile{Path: src},
				Operations: []model.Operation{
					{Op: model.OpDownload, To: filepath.Join(dir, "poster.jpg"), URL: "http://127.0.0.1:1/does-not-resolve"},
				},
			},
		},
	}

	ex := New(Options{}, nil)
	result, err := ex.Execute(context.Background(), plan, "plan-1")
	if err != nil {
		t.Fatalf("expected Execute to succeed overall despite a download failure: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("expected 1 counted failure, got %d", result.Failed)
	}
}
