package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/warehousekeeper/internal/ledger"
	"github.com/yourusername/warehousekeeper/internal/release"
)

var (
	boldStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	cyanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B8D4"))
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func fail(format string, args ...any) {
	fmt.Fprintln(os.Stderr, redStyle.Render(fmt.Sprintf(format, args...)))
}

func printSeeded(state ledger.State, iterationFile string) {
	fmt.Println(boldStyle.Render(fmt.Sprintf("Seeded %s", iterationFile)))
	paths := make([]string, 0, len(state.Blueprints))
	for path := range state.Blueprints {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Printf("  %s\n", cyanStyle.Render(path))
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("Tracking %d blueprint(s)", len(paths))))
}

func printReleased(result release.Result) {
	fmt.Println(boldStyle.Render(fmt.Sprintf("Released %s", result.Tag)))
	fmt.Printf("  commit %s\n", cyanStyle.Render(result.Commit))
	for _, path := range result.Skipped {
		fmt.Println(dimStyle.Render(fmt.Sprintf("  skipped %s", path)))
	}
	if result.Pushed {
		fmt.Println(greenStyle.Render("  pushed with tags"))
	} else {
		fmt.Println(dimStyle.Render("  not pushed; run `git push --follow-tags` when ready"))
	}
}

func printNothingToRelease() {
	fmt.Println(boldStyle.Render("Nothing to release"))
	for _, line := range nothingToReleaseLines() {
		fmt.Println(dimStyle.Render(line))
	}
}

// nothingToReleaseLines explains the no-op and reminds the user that a
// prior run may have committed and tagged without pushing.
func nothingToReleaseLines() []string {
	return []string{
		"No blueprint files differ from the last commit.",
		"If a previous run stopped after committing, run `git push --follow-tags` to publish it.",
	}
}

func printDeclined() {
	fmt.Println(dimStyle.Render("Release declined; repository untouched."))
}

func printPublishFailure(err *release.PublishError, logTail []string) {
	fail("%v", err)
	if len(logTail) > 0 {
		fmt.Fprintln(os.Stderr, dimStyle.Render("recent log:"))
		for _, line := range logTail {
			fmt.Fprintln(os.Stderr, dimStyle.Render("  "+line))
		}
	}
	fmt.Fprintln(os.Stderr, dimStyle.Render(
		"The ledger files may hold uncommitted counters; re-running `warehousekeeper release` is safe and will not double-increment."))
}
