package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// HeadReader exposes the contents of a file as of the last commit.
// The git adapter implements it; tests use an in-memory fake.
type HeadReader interface {
	ShowHead(ctx context.Context, path string) ([]byte, error)
}

// ErrNotCommitted is the sentinel a HeadReader returns when the file
// does not exist in the last commit (or there is no commit yet).
var ErrNotCommitted = errors.New("ledger: file not in last commit")

// iterationFile mirrors the iteration.json layout.
type iterationFile struct {
	Iterations map[string]BlueprintRecord `json:"iterations"`
}

// versionFile mirrors the version.json layout.
type versionFile struct {
	Version int `json:"version"`
}

// Store reads and writes the two ledger files at the warehouse root.
// Writes land in the working tree only; making them durable is the
// commit step's job, which is what keeps a failed cycle recoverable.
type Store struct {
	root          string
	iterationName string
	versionName   string
}

// NewStore creates a store rooted at the warehouse directory.
func NewStore(root, iterationName, versionName string) *Store {
	return &Store{root: root, iterationName: iterationName, versionName: versionName}
}

// Filenames returns the repository-relative ledger file names, in the
// order they should be staged.
func (s *Store) Filenames() []string {
	return []string{s.iterationName, s.versionName}
}

// IterationPath returns the absolute path of the iteration file.
func (s *Store) IterationPath() string {
	return filepath.Join(s.root, s.iterationName)
}

// VersionPath returns the absolute path of the version file.
func (s *Store) VersionPath() string {
	return filepath.Join(s.root, s.versionName)
}

// Load reads the ledger from the working tree. Missing files yield
// their zero value: no blueprint records, version zero.
func (s *Store) Load() (State, error) {
	state := NewState()

	data, err := os.ReadFile(s.IterationPath())
	switch {
	case err == nil:
		if err := decodeIterations(data, &state); err != nil {
			return State{}, fmt.Errorf("ledger: parse %s: %w", s.iterationName, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return State{}, fmt.Errorf("ledger: read %s: %w", s.iterationName, err)
	}

	data, err = os.ReadFile(s.VersionPath())
	switch {
	case err == nil:
		if err := decodeVersion(data, &state); err != nil {
			return State{}, fmt.Errorf("ledger: parse %s: %w", s.versionName, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return State{}, fmt.Errorf("ledger: read %s: %w", s.versionName, err)
	}

	return state, nil
}

// LoadCommitted reads the ledger as of the last commit. A cycle that
// wrote metadata and then failed before committing leaves incremented
// counters in the working tree; computing the next state from the
// committed snapshot instead makes a re-run land on the same numbers
// rather than incrementing twice.
func (s *Store) LoadCommitted(ctx context.Context, head HeadReader) (State, error) {
	state := NewState()

	data, err := head.ShowHead(ctx, s.iterationName)
	switch {
	case err == nil:
		if err := decodeIterations(data, &state); err != nil {
			return State{}, fmt.Errorf("ledger: parse committed %s: %w", s.iterationName, err)
		}
	case errors.Is(err, ErrNotCommitted):
	default:
		return State{}, fmt.Errorf("ledger: read committed %s: %w", s.iterationName, err)
	}

	data, err = head.ShowHead(ctx, s.versionName)
	switch {
	case err == nil:
		if err := decodeVersion(data, &state); err != nil {
			return State{}, fmt.Errorf("ledger: parse committed %s: %w", s.versionName, err)
		}
	case errors.Is(err, ErrNotCommitted):
	default:
		return State{}, fmt.Errorf("ledger: read committed %s: %w", s.versionName, err)
	}

	return state, nil
}

// Save writes both ledger files to the working tree. The caller must
// stage and commit them together with the changed blueprints so the
// counters and the commit recording them form one atomic unit.
func (s *Store) Save(state State) error {
	if err := s.writeIterations(state); err != nil {
		return err
	}
	return s.writeVersion(state)
}

func (s *Store) writeIterations(state State) error {
	iterations := iterationFile{Iterations: state.Blueprints}
	if iterations.Iterations == nil {
		iterations.Iterations = map[string]BlueprintRecord{}
	}
	data, err := json.MarshalIndent(iterations, "", "    ")
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", s.iterationName, err)
	}
	if err := os.WriteFile(s.IterationPath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", s.iterationName, err)
	}
	return nil
}

func (s *Store) writeVersion(state State) error {
	data, err := json.MarshalIndent(versionFile{Version: state.Version}, "", "    ")
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", s.versionName, err)
	}
	if err := os.WriteFile(s.VersionPath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", s.versionName, err)
	}
	return nil
}

func decodeIterations(data []byte, state *State) error {
	var parsed iterationFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	if parsed.Iterations != nil {
		state.Blueprints = parsed.Iterations
	}
	return nil
}

func decodeVersion(data []byte, state *State) error {
	var parsed versionFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	if parsed.Version < 0 {
		return fmt.Errorf("version must not be negative: %d", parsed.Version)
	}
	state.Version = parsed.Version
	return nil
}
