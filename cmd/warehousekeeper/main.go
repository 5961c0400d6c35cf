// cmd/warehousekeeper/main.go
//
// Entry point for the warehousekeeper CLI.
//
// Two subcommands:
//
//	warehousekeeper init      seed iteration.json from the blueprints on disk
//	warehousekeeper release   run one full release cycle
//
// A release cycle detects changed blueprints, advances the revision
// ledger, then commits, tags and pushes the result.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/yourusername/warehousekeeper/internal/config"
	"github.com/yourusername/warehousekeeper/internal/detect"
	"github.com/yourusername/warehousekeeper/internal/gitcli"
	"github.com/yourusername/warehousekeeper/internal/ledger"
	"github.com/yourusername/warehousekeeper/internal/logbook"
	"github.com/yourusername/warehousekeeper/internal/release"
	"github.com/yourusername/warehousekeeper/internal/tui"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		os.Exit(runInit(cwd, os.Args[2:]))
	case "release":
		os.Exit(runRelease(cwd, os.Args[2:]))
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: warehousekeeper <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  init       seed the iteration ledger from the blueprints on disk")
	fmt.Fprintln(os.Stderr, "  release    version changed blueprints, then commit, tag and push")
}

func runInit(cwd string, args []string) int {
	flags := flag.NewFlagSet("init", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(cwd)
	if err != nil {
		fail("%v", err)
		return 1
	}
	iterationFile, versionFile := cfg.LedgerFiles()
	store := ledger.NewStore(cwd, iterationFile, versionFile)

	state, err := ledger.Seed(store, cfg.Extension())
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadySeeded) {
			fail("%s already exists; refusing to overwrite an established ledger", iterationFile)
			return 1
		}
		fail("%v", err)
		return 1
	}
	printSeeded(state, iterationFile)
	return 0
}

func runRelease(cwd string, args []string) int {
	flags := flag.NewFlagSet("release", flag.ExitOnError)
	stagedOnly := flags.Bool("staged-only", false, "only consider changes already staged in the index")
	yes := flags.Bool("yes", false, "skip the confirmation prompt")
	noPush := flags.Bool("no-push", false, "commit and tag without pushing")
	message := flags.String("m", "", "custom message appended to the commit and tag (implies --yes)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(cwd)
	if err != nil {
		fail("%v", err)
		return 1
	}

	book, err := logbook.New(cfg.LogsDir())
	if err != nil {
		fail("open release log: %v", err)
		return 1
	}

	iterationFile, versionFile := cfg.LedgerFiles()
	store := ledger.NewStore(cwd, iterationFile, versionFile)
	repo := gitcli.New(cwd)

	var detectorOpts []detect.Option
	if *stagedOnly {
		detectorOpts = append(detectorOpts, detect.StagedOnly())
	}
	detector := detect.New(repo, cfg.Extension(), store.Filenames(), detectorOpts...)

	opts := []release.Option{release.WithLogger(book)}
	if !cfg.PushEnabled() || *noPush {
		opts = append(opts, release.WithoutPush())
	}
	switch {
	case *yes || *message != "":
		opts = append(opts, release.WithConfirmer(autoConfirmer{message: *message}))
	default:
		opts = append(opts, release.WithConfirmer(tui.NewConfirmPrompt()))
	}

	cycle := release.NewCycle(repo, detector, store, opts...)
	result, err := cycle.Run(context.Background())
	if err != nil {
		return reportCycleError(err, book)
	}
	printReleased(result)
	return 0
}

// loadConfig ensures the .warehouse directory exists and reads the
// project configuration.
func loadConfig(cwd string) (*config.Config, error) {
	if err := config.InitWarehouseDir(cwd); err != nil {
		return nil, fmt.Errorf("initialize %s directory: %w", config.WarehouseDir, err)
	}
	return config.NewConfig(cwd)
}

// autoConfirmer approves every plan, used for scripted runs.
type autoConfirmer struct {
	message string
}

func (a autoConfirmer) Confirm(release.Plan) (release.Decision, error) {
	return release.Decision{Confirmed: true, Message: a.message}, nil
}

// reportCycleError renders a failed cycle and picks the exit code.
func reportCycleError(err error, book *logbook.Logbook) int {
	switch {
	case errors.Is(err, ledger.ErrNothingToRelease):
		printNothingToRelease()
		return 1
	case errors.Is(err, release.ErrDeclined):
		printDeclined()
		return 0
	}

	var pubErr *release.PublishError
	if errors.As(err, &pubErr) {
		printPublishFailure(pubErr, book.Tail(5))
		return 1
	}
	fail("%v", err)
	return 1
}
