package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNothingToRelease reports an empty change set. It is a clean
// no-op signal for the caller, not a crash: no counter may move and
// no tag may be created when nothing changed.
var ErrNothingToRelease = errors.New("ledger: nothing to release")

// Tag returns the release tag for this ledger state: the literal "v"
// followed by the warehouse version. Versions are never reused, so
// tags never collide.
func (s State) Tag() string {
	return fmt.Sprintf("v%d", s.Version)
}

// ComputeNextState advances the ledger for one release cycle.
//
// Every changed blueprint gets the next iteration number (or
// FirstIteration when it has never been released), deleted blueprints
// drop their record, and the warehouse version moves up by exactly
// one regardless of how many blueprints changed. The returned summary
// is the commit message: deterministic for a given state and change
// set, one line per blueprint in change-set order.
//
// The function is pure. It never touches disk and never mutates its
// inputs, which is what keeps it independently testable.
func ComputeNextState(state State, changes []Change) (State, string, error) {
	if len(changes) == 0 {
		return State{}, "", ErrNothingToRelease
	}

	next := state.Clone()
	next.Version = state.Version + 1

	lines := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.Op == OpDelete {
			delete(next.Blueprints, change.Path)
			lines = append(lines, fmt.Sprintf("- %s %s", change.Op.Verb(), change.Path))
			continue
		}
		iteration := FirstIteration
		if prev, ok := next.Blueprints[change.Path]; ok {
			iteration = prev.Iteration + 1
		}
		next.Blueprints[change.Path] = BlueprintRecord{
			Name:      Stem(change.Path),
			Path:      change.Path,
			Iteration: iteration,
		}
		lines = append(lines, fmt.Sprintf("- %s %s (iteration %d)", change.Op.Verb(), change.Path, iteration))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Release v%d\n\n", next.Version)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")

	return next, b.String(), nil
}
