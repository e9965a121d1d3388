// Package rollback replays an executor's Rollback journal in reverse,
// undoing a committed run.
package rollback

import (
	"fmt"
	"os"
	"sort"

	"github.com/jpixy/media-organizer/internal/executor"
	"github.com/jpixy/media-organizer/internal/logging"
	"github.com/jpixy/media-organizer/internal/model"
)

// Conflict is a condition found during the pre-flight scan that makes an
// undo step risky. Conflicts are reported, never used to block the run.
type Conflict struct {
	Seq    int
	Kind   model.OperationKind
	Target string
	Reason string
}

// Result aggregates the outcome of a rollback run.
type Result struct {
	Success   int
	Skipped   int
	ErrorCount int
	Errors    []string
	Conflicts []Conflict
}

// Options configures a rollback run.
type Options struct {
	DryRun          bool
	VerifyChecksums bool
}

// Executor replays a Rollback journal.
type Executor struct {
	log *logging.Logger
}

// New builds a rollback Executor. log may be nil, in which case
// logging.Nop() is used.
func New(log *logging.Logger) *Executor {
	if log == nil {
		log = logging.Nop()
	}
	return &Executor{log: log}
}

// Preflight scans the journal for conditions that would make an undo step
// unsafe or surprising, without blocking the run: a Move-undo whose target
// (the original source path) is already occupied, or whose recorded
// destination has gone missing or no longer matches its checksum; a
// Rmdir-undo whose directory is no longer empty.
func (e *Executor) Preflight(rb *model.Rollback, opts Options) []Conflict {
	var conflicts []Conflict
	for _, op := range rb.Ops {
		if !op.Executed {
			continue
		}
		switch op.Undo {
		case model.UndoMove:
			if _, err := os.Stat(op.From); err == nil {
				conflicts = append(conflicts, Conflict{Seq: op.Seq, Kind: op.Kind, Target: op.From, Reason: "undo target already exists"})
			}
			if _, err := os.Stat(op.To); err != nil {
				conflicts = append(conflicts, Conflict{Seq: op.Seq, Kind: op.Kind, Target: op.To, Reason: "moved file is no longer at its recorded location"})
				continue
			}
			if opts.VerifyChecksums && op.Checksum != "" {
				sum, err := executor.SHA256File(op.To)
				if err != nil {
					conflicts = append(conflicts, Conflict{Seq: op.Seq, Kind: op.Kind, Target: op.To, Reason: fmt.Sprintf("unable to verify checksum: %v", err)})
				} else if sum != op.Checksum {
					conflicts = append(conflicts, Conflict{Seq: op.Seq, Kind: op.Kind, Target: op.To, Reason: "file content changed since it was moved"})
				}
			}
		case model.UndoRmdir:
			if !dirEmpty(op.To) {
				conflicts = append(conflicts, Conflict{Seq: op.Seq, Kind: op.Kind, Target: op.To, Reason: "directory is no longer empty"})
			}
		case model.UndoDelete:
			// A missing file just means the delete-undo has nothing to do;
			// never a conflict worth reporting.
		}
	}
	return conflicts
}

// Execute replays rb in descending sequence order, undoing Move, Create,
// and Mkdir operations in the reverse of the order they were committed.
// Conflicts found during Preflight are attached to the result but do not
// stop the run; each step is attempted independently and failures are
// counted, not fatal.
func (e *Executor) Execute(rb *model.Rollback, opts Options) (*Result, error) {
	result := &Result{Conflicts: e.Preflight(rb, opts)}

	ops := append([]model.JournalOp(nil), rb.Ops...)
	sort.Slice(ops, func(i, j int) bool { return ops[i].Seq > ops[j].Seq })

	for _, op := range ops {
		if !op.Executed {
			continue
		}
		if opts.DryRun {
			result.Skipped++
			continue
		}
		skipped, err := e.undoOne(op, opts)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("seq %d (%s %s): %v", op.Seq, op.Kind, op.To, err))
			e.log.Warn("rollback", "undo failed", logging.F("seq", op.Seq), logging.F("kind", string(op.Kind)), logging.F("target", op.To), logging.F("error", err.Error()))
			continue
		}
		if skipped {
			result.Skipped++
			continue
		}
		result.Success++
	}
	return result, nil
}

// undoOne performs the reverse of one journaled op. A missing target (the
// op has already been undone, e.g. by a prior rollback of the same journal)
// is reported as skipped, never as an error.
func (e *Executor) undoOne(op model.JournalOp, opts Options) (skipped bool, err error) {
	switch op.Undo {
	case model.UndoMove:
		if _, statErr := os.Stat(op.To); os.IsNotExist(statErr) {
			return true, nil
		}
		_, err := executor.MoveFile(op.To, op.From, opts.VerifyChecksums)
		return false, err
	case model.UndoRmdir:
		if _, statErr := os.Stat(op.To); os.IsNotExist(statErr) {
			return true, nil
		}
		return false, os.Remove(op.To)
	case model.UndoDelete:
		if _, statErr := os.Stat(op.To); os.IsNotExist(statErr) {
			return true, nil
		}
		return false, os.Remove(op.To)
	default:
		return false, fmt.Errorf("unknown undo action %q", op.Undo)
	}
}

func dirEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return true
	}
	return len(entries) == 0
}
