package rollback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpixy/media-organizer/internal/executor"
	"github.com/jpixy/media-organizer/internal/model"
)

func TestExecuteUndoesMoveAndRmdirInReverseOrder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	folder := filepath.Join(dir, "Movies", "Target Folder")
	dst := filepath.Join(folder, "target.mkv")

	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	checksum, err := executor.MoveFile(src, dst, true)
	if err != nil {
		t.Fatal(err)
	}

	rb := &model.Rollback{
		Ops: []model.JournalOp{
			{Seq: 1, Kind: model.OpMkdir, To: folder, Undo: model.UndoRmdir, Executed: true},
			{Seq: 2, Kind: model.OpMove, From: src, To: dst, Checksum: checksum, Undo: model.UndoMove, Executed: true},
		},
	}

	ex := New(nil)
	result, err := ex.Execute(rb, Options{VerifyChecksums: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ErrorCount != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
	if result.Success != 2 {
		t.Fatalf("expected 2 successful undos, got %d", result.Success)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("expected source file restored: %v", err)
	}
	if _, err := os.Stat(folder); !os.IsNotExist(err) {
		t.Fatalf("expected empty folder to be removed")
	}
}

func TestExecuteTwiceOnSameJournalSkipsInsteadOfErroring(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.mkv")
	folder := filepath.Join(dir, "Movies", "Target Folder")
	dst := filepath.Join(folder, "target.mkv")

	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	checksum, err := executor.MoveFile(src, dst, true)
	if err != nil {
		t.Fatal(err)
	}

	rb := &model.Rollback{
		Ops: []model.JournalOp{
			{Seq: 1, Kind: model.OpMkdir, To: folder, Undo: model.UndoRmdir, Executed: true},
			{Seq: 2, Kind: model.OpMove, From: src, To: dst, Checksum: checksum, Undo: model.UndoMove, Executed: true},
		},
	}

	ex := New(nil)
	first, err := ex.Execute(rb, Options{VerifyChecksums: true})
	if err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	if first.Success != 2 || first.ErrorCount != 0 {
		t.Fatalf("expected first run to undo cleanly, got %+v", first)
	}

	second, err := ex.Execute(rb, Options{VerifyChecksums: true})
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if second.ErrorCount != 0 {
		t.Fatalf("expected second rollback to report no errors, got %v", second.Errors)
	}
	if second.Skipped != 2 {
		t.Fatalf("expected both already-undone ops reported skipped, got %+v", second)
	}
}

func TestPreflightReportsConflictWhenTargetAlreadyOccupied(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "original.mkv")
	to := filepath.Join(dir, "moved.mkv")
	if err := os.WriteFile(from, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(to, []byte("moved"), 0o644); err != nil {
		t.Fatal(err)
	}

	rb := &model.Rollback{
		Ops: []model.JournalOp{
			{Seq: 1, Kind: model.OpMove, From: from, To: to, Undo: model.UndoMove, Executed: true},
		},
	}

	ex := New(nil)
	conflicts := ex.Preflight(rb, Options{})
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d: %v", len(conflicts), conflicts)
	}
}

func TestExecuteDryRunSkipsWithoutChangingDisk(t *testing.T) {
	dir := t.TempDir()
	to := filepath.Join(dir, "moved.mkv")
	if err := os.WriteFile(to, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	rb := &model.Rollback{
		Ops: []model.JournalOp{
			{Seq: 1, Kind: model.OpMove, From: filepath.Join(dir, "original.mkv"), To: to, Undo: model.UndoMove, Executed: true},
		},
	}

	ex := New(nil)
	result, err := ex.Execute(rb, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped step, got %d", result.Skipped)
	}
	if _, err := os.Stat(to); err != nil {
		t.Fatalf("expected dry-run to leave file untouched: %v", err)
	}
}
