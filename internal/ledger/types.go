// internal/ledger/types.go
//
// This package owns the revision counters for a blueprint warehouse.
// Two files back it: iteration.json (one record per blueprint) and
// version.json (the warehouse-wide release counter). Both are plain
// JSON so their history reads naturally in git diffs.

package ledger

import (
	"path/filepath"
	"strings"
)

// FirstIteration is the counter value assigned to a blueprint the
// first time it is released.
const FirstIteration = 1

// BlueprintRecord is the persisted per-blueprint revision state,
// keyed by the blueprint's repository-relative path.
type BlueprintRecord struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Iteration int    `json:"iteration"`
}

// State is the full ledger snapshot: every blueprint record plus the
// warehouse version. ComputeNextState takes and returns whole State
// values so persistence stays a separate, injectable step.
type State struct {
	Blueprints map[string]BlueprintRecord
	Version    int
}

// NewState returns an empty ledger with version zero. The first
// release cycle advances it to one.
func NewState() State {
	return State{Blueprints: map[string]BlueprintRecord{}}
}

// Clone returns a deep copy so callers can mutate freely.
func (s State) Clone() State {
	out := State{
		Blueprints: make(map[string]BlueprintRecord, len(s.Blueprints)),
		Version:    s.Version,
	}
	for path, rec := range s.Blueprints {
		out.Blueprints[path] = rec
	}
	return out
}

// Record returns the stored record for a blueprint path.
func (s State) Record(path string) (BlueprintRecord, bool) {
	rec, ok := s.Blueprints[path]
	return rec, ok
}

// Op describes what happened to a blueprint since the last commit.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpRename Op = "rename"
)

// Verb returns the word used for this operation in commit summaries.
func (o Op) Verb() string {
	switch o {
	case OpAdd:
		return "Add"
	case OpUpdate:
		return "Update"
	case OpDelete:
		return "Delete"
	case OpRename:
		return "Move|Rename"
	default:
		return "Update"
	}
}

// Change is one entry of a change set: a blueprint path plus the
// operation the working tree reports for it. Change sets are ordered
// and transient; they are the input to ComputeNextState, never stored.
type Change struct {
	Path string
	Op   Op
}

// Stem returns the file name without its extension, the way release
// summaries refer to blueprints.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
