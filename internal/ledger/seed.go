package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrAlreadySeeded guards against clobbering an established ledger.
var ErrAlreadySeeded = errors.New("ledger: iteration file already exists")

// Seed scans the warehouse for blueprint files and writes a fresh
// iteration file giving each one the first iteration number. The
// version file is left alone: the warehouse version record is created
// by the first release cycle, not by seeding.
//
// Seeding refuses to run when a non-empty iteration file is already
// present.
func Seed(store *Store, ext string) (State, error) {
	data, err := os.ReadFile(store.IterationPath())
	switch {
	case err == nil:
		if strings.TrimSpace(string(data)) != "" {
			return State{}, fmt.Errorf("%w: %s", ErrAlreadySeeded, store.IterationPath())
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return State{}, fmt.Errorf("ledger: read %s: %w", store.IterationPath(), err)
	}

	paths, err := findBlueprints(store.root, ext)
	if err != nil {
		return State{}, err
	}

	state := NewState()
	for _, path := range paths {
		state.Blueprints[path] = BlueprintRecord{
			Name:      Stem(path),
			Path:      path,
			Iteration: FirstIteration,
		}
	}

	if err := store.writeIterations(state); err != nil {
		return State{}, err
	}
	return state, nil
}

// findBlueprints walks the warehouse collecting repository-relative
// blueprint paths. Hidden directories (.git and friends) are skipped.
func findBlueprints(root, ext string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ext {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: scan blueprints: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
