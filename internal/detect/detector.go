package detect

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourusername/warehousekeeper/internal/ledger"
)

// StatusSource yields raw `git status --porcelain` output. The git
// adapter implements it; tests feed canned strings.
type StatusSource interface {
	Status(ctx context.Context) (string, error)
}

// Option customizes a Detector.
type Option func(*Detector)

// StagedOnly restricts detection to entries already staged in the
// index; unstaged changes are reported as skipped instead.
func StagedOnly() Option {
	return func(d *Detector) { d.stagedOnly = true }
}

// Detector turns the repository's status into an ordered change set
// of blueprint files. It is read-only: nothing on disk moves here.
type Detector struct {
	src        StatusSource
	ext        string
	exclude    map[string]struct{}
	stagedOnly bool
}

// New creates a detector for blueprint files carrying ext. The ledger
// metadata files are excluded so a half-finished cycle's uncommitted
// counter files are never mistaken for changed blueprints.
func New(src StatusSource, ext string, excludePaths []string, opts ...Option) *Detector {
	d := &Detector{
		src:     src,
		ext:     ext,
		exclude: make(map[string]struct{}, len(excludePaths)),
	}
	for _, path := range excludePaths {
		d.exclude[filepath.ToSlash(path)] = struct{}{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Changes returns the ordered change set plus the paths that were
// seen but skipped (non-blueprint files, and unstaged entries in
// staged-only mode). An empty change set is a valid result meaning
// there is nothing to release.
func (d *Detector) Changes(ctx context.Context) ([]ledger.Change, []string, error) {
	output, err := d.src.Status(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("detect: read repository status: %w", err)
	}
	statuses, err := parsePorcelain(output)
	if err != nil {
		return nil, nil, err
	}

	var changes []ledger.Change
	var skipped []string
	for _, status := range statuses {
		if status.conflicted() {
			return nil, nil, fmt.Errorf("detect: unresolved conflict on %s", status.Path)
		}
		if d.stagedOnly && !status.Staged() {
			skipped = append(skipped, status.Path)
			continue
		}
		if !d.isBlueprint(status.Path) {
			skipped = append(skipped, status.Path)
			continue
		}
		op, err := operationFor(status.Code())
		if err != nil {
			return nil, nil, err
		}
		changes = append(changes, ledger.Change{Path: status.Path, Op: op})
	}
	return changes, skipped, nil
}

func (d *Detector) isBlueprint(path string) bool {
	if _, excluded := d.exclude[filepath.ToSlash(path)]; excluded {
		return false
	}
	return strings.HasSuffix(path, d.ext)
}

// operationFor maps a porcelain code to a ledger operation. Untracked
// files count as additions, the way they end up once staged.
func operationFor(code string) (ledger.Op, error) {
	switch code {
	case "A", "C", "??":
		return ledger.OpAdd, nil
	case "M", "T":
		return ledger.OpUpdate, nil
	case "D":
		return ledger.OpDelete, nil
	case "R":
		return ledger.OpRename, nil
	default:
		return "", fmt.Errorf("detect: unsupported status code %q", code)
	}
}
