package release

import (
	"errors"
	"fmt"
)

// ErrDeclined reports that the user rejected the confirmation prompt.
// Nothing was written; the cycle ends cleanly.
var ErrDeclined = errors.New("release: declined by user")

// DetectionError means the change detector could not produce a
// reliable diff. Fatal for the cycle; nothing was mutated.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("release: change detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// PersistenceError means the ledger metadata could not be read or
// written. Fatal; it always precedes any commit attempt.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("release: ledger persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PublishError means staging, committing, tagging or pushing failed
// after the metadata write. The working tree is left with uncommitted
// counter files; re-running the cycle recomputes the same state from
// the committed ledger, so the recovery is a plain re-invocation.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("release: %s failed: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
