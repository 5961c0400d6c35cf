// internal/release/cycle.go
//
// One release cycle, start to finish: detect changed blueprints,
// advance the ledger, persist the counters, then stage, commit, tag
// and push. The ordering is the correctness mechanism: counters land
// in the working tree first and ride along in the same commit, so
// the metadata and the commit recording it are one atomic unit.

package release

import (
	"context"
	"fmt"

	"github.com/yourusername/warehousekeeper/internal/ledger"
)

// Repository is the version-control capability surface the cycle
// consumes. internal/gitcli provides the real implementation.
type Repository interface {
	Status(ctx context.Context) (string, error)
	ShowHead(ctx context.Context, path string) ([]byte, error)
	Stage(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) (string, error)
	Tag(ctx context.Context, name, message string) error
	Push(ctx context.Context, includeTags bool) error
}

// ChangeSource produces the ordered change set for this cycle.
// internal/detect provides the real implementation.
type ChangeSource interface {
	Changes(ctx context.Context) ([]ledger.Change, []string, error)
}

// Plan is everything the user needs to see before side effects run.
type Plan struct {
	Changes []ledger.Change
	Skipped []string
	Summary string
	Tag     string
	Push    bool
}

// Decision is the outcome of a confirmation prompt.
type Decision struct {
	Confirmed bool
	// Message is an optional note appended to the commit and tag
	// messages.
	Message string
}

// Confirmer asks the user to approve the plan. A nil Confirmer means
// non-interactive mode: the plan is always approved as-is.
type Confirmer interface {
	Confirm(plan Plan) (Decision, error)
}

// Logger receives cycle progress lines. *logbook.Logbook satisfies it.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Result reports a completed cycle.
type Result struct {
	State   ledger.State
	Summary string
	Tag     string
	Commit  string
	Skipped []string
	Pushed  bool
}

// Option customizes a Cycle.
type Option func(*Cycle)

// WithConfirmer installs an interactive confirmation step.
func WithConfirmer(confirmer Confirmer) Option {
	return func(c *Cycle) { c.confirm = confirmer }
}

// WithLogger routes progress lines to a logbook.
func WithLogger(log Logger) Option {
	return func(c *Cycle) { c.log = log }
}

// WithoutPush keeps the release local: commit and tag, no push.
func WithoutPush() Option {
	return func(c *Cycle) { c.push = false }
}

// Cycle wires the detector, the ledger store and the repository into
// one run-to-completion release.
type Cycle struct {
	repo    Repository
	source  ChangeSource
	store   *ledger.Store
	confirm Confirmer
	log     Logger
	push    bool
}

// NewCycle builds a release cycle.
func NewCycle(repo Repository, source ChangeSource, store *ledger.Store, opts ...Option) *Cycle {
	c := &Cycle{
		repo:   repo,
		source: source,
		store:  store,
		log:    nopLogger{},
		push:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Run executes one release cycle. It returns ledger.ErrNothingToRelease
// when no blueprint changed, ErrDeclined when the user rejects the
// plan, and one of the typed errors from errors.go otherwise.
func (c *Cycle) Run(ctx context.Context) (Result, error) {
	changes, skipped, err := c.source.Changes(ctx)
	if err != nil {
		c.log.Error("change detection failed: %v", err)
		return Result{}, &DetectionError{Err: err}
	}
	for _, path := range skipped {
		c.log.Info("skipping %s", path)
	}
	if len(changes) == 0 {
		c.log.Info("no blueprint changes detected")
		return Result{Skipped: skipped}, ledger.ErrNothingToRelease
	}
	c.log.Info("detected %d changed blueprint(s)", len(changes))

	// The committed ledger is the compute input. A previous cycle may
	// have written counters and then failed before its commit; reading
	// from HEAD makes this run land on the same numbers instead of
	// incrementing twice.
	state, err := c.store.LoadCommitted(ctx, c.repo)
	if err != nil {
		c.log.Error("load ledger: %v", err)
		return Result{}, &PersistenceError{Err: err}
	}

	next, summary, err := ledger.ComputeNextState(state, changes)
	if err != nil {
		return Result{}, err
	}
	message := summary

	if c.confirm != nil {
		decision, err := c.confirm.Confirm(Plan{
			Changes: changes,
			Skipped: skipped,
			Summary: summary,
			Tag:     next.Tag(),
			Push:    c.push,
		})
		if err != nil {
			return Result{}, fmt.Errorf("release: confirmation: %w", err)
		}
		if !decision.Confirmed {
			c.log.Info("release v%d declined", next.Version)
			return Result{}, ErrDeclined
		}
		if decision.Message != "" {
			message = fmt.Sprintf("%s\n%s\n", summary, decision.Message)
		}
	}

	if err := c.store.Save(next); err != nil {
		c.log.Error("write ledger: %v", err)
		return Result{}, &PersistenceError{Err: err}
	}
	c.log.Info("ledger advanced to version %d", next.Version)

	commit, err := c.publish(ctx, changes, next, message)
	if err != nil {
		return Result{}, err
	}

	c.log.Info("released %s as commit %s", next.Tag(), commit)
	return Result{
		State:   next,
		Summary: message,
		Tag:     next.Tag(),
		Commit:  commit,
		Skipped: skipped,
		Pushed:  c.push,
	}, nil
}

// publish performs the side-effect sequence: stage, commit, tag,
// push. Any failure aborts the cycle with a PublishError naming the
// step that broke.
func (c *Cycle) publish(ctx context.Context, changes []ledger.Change, next ledger.State, message string) (string, error) {
	paths := make([]string, 0, len(changes)+2)
	paths = append(paths, c.store.Filenames()...)
	for _, change := range changes {
		paths = append(paths, change.Path)
	}
	if err := c.repo.Stage(ctx, paths...); err != nil {
		c.log.Error("stage: %v", err)
		return "", &PublishError{Step: "stage", Err: err}
	}

	commit, err := c.repo.Commit(ctx, message)
	if err != nil {
		c.log.Error("commit: %v", err)
		return "", &PublishError{Step: "commit", Err: err}
	}

	if err := c.repo.Tag(ctx, next.Tag(), message); err != nil {
		c.log.Error("tag %s: %v", next.Tag(), err)
		return "", &PublishError{Step: "tag", Err: err}
	}

	if c.push {
		if err := c.repo.Push(ctx, true); err != nil {
			c.log.Error("push: %v", err)
			return "", &PublishError{Step: "push", Err: err}
		}
	}
	return commit, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
