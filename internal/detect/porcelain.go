// internal/detect/porcelain.go
//
// Parsing for `git status --porcelain` output. Each line starts with
// a two-column status (index column, worktree column) followed by a
// space and the path. Renames carry "old -> new"; paths with special
// characters arrive quoted.

package detect

import (
	"fmt"
	"strings"
)

// FileStatus is one parsed porcelain entry.
type FileStatus struct {
	// Index and Worktree are the two porcelain status columns. A
	// space means "no change" in that column.
	Index    byte
	Worktree byte
	Path     string
}

// Code returns the effective one-letter status, preferring the index
// column: "A", "D", "M", "R" or "??" for untracked files.
func (fs FileStatus) Code() string {
	if fs.Index == '?' && fs.Worktree == '?' {
		return "??"
	}
	if fs.Index != ' ' {
		return string(fs.Index)
	}
	return string(fs.Worktree)
}

// Staged reports whether the index column records a change. Untracked
// files count: their first column is '?', not a space, and staging
// them is exactly what the release commit will do.
func (fs FileStatus) Staged() bool {
	return fs.Index != ' '
}

// conflicted reports unmerged states, which make the working tree
// unreadable for release purposes.
func (fs FileStatus) conflicted() bool {
	if fs.Index == 'U' || fs.Worktree == 'U' {
		return true
	}
	pair := string(fs.Index) + string(fs.Worktree)
	return pair == "AA" || pair == "DD"
}

// parsePorcelain splits raw porcelain output into file statuses.
func parsePorcelain(output string) ([]FileStatus, error) {
	var statuses []FileStatus
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 4 {
			return nil, fmt.Errorf("detect: malformed status line %q", line)
		}
		status := FileStatus{
			Index:    line[0],
			Worktree: line[1],
			Path:     cleanPath(line[3:]),
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// cleanPath strips quoting and resolves "old -> new" rename forms to
// the new path.
func cleanPath(raw string) string {
	path := raw
	if idx := strings.Index(path, " -> "); idx >= 0 {
		path = path[idx+len(" -> "):]
	}
	path = strings.TrimSpace(path)
	return strings.Trim(path, `"`)
}
