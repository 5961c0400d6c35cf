package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yourusername/warehousekeeper/internal/detect"
	"github.com/yourusername/warehousekeeper/internal/ledger"
)

// fakeRepo mimics just enough of git for a cycle: porcelain status is
// canned, Commit snapshots the staged files as the new HEAD, and Tag
// refuses duplicate names the way git does.
type fakeRepo struct {
	root      string
	porcelain string
	statusErr error
	failStep  string

	head    map[string][]byte
	staged  []string
	commits []string
	tags    []string
	pushes  int
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	return &fakeRepo{root: t.TempDir(), head: map[string][]byte{}}
}

func (f *fakeRepo) Status(context.Context) (string, error) {
	return f.porcelain, f.statusErr
}

func (f *fakeRepo) ShowHead(_ context.Context, path string) ([]byte, error) {
	data, ok := f.head[path]
	if !ok {
		return nil, ledger.ErrNotCommitted
	}
	return data, nil
}

func (f *fakeRepo) Stage(_ context.Context, paths ...string) error {
	if f.failStep == "stage" {
		return errors.New("stage refused")
	}
	f.staged = append([]string(nil), paths...)
	return nil
}

func (f *fakeRepo) Commit(_ context.Context, message string) (string, error) {
	if f.failStep == "commit" {
		return "", errors.New("commit refused")
	}
	for _, path := range f.staged {
		data, err := os.ReadFile(filepath.Join(f.root, path))
		if err != nil {
			if os.IsNotExist(err) {
				delete(f.head, path)
				continue
			}
			return "", err
		}
		f.head[path] = data
	}
	f.commits = append(f.commits, message)
	return fmt.Sprintf("commit-%d", len(f.commits)), nil
}

func (f *fakeRepo) Tag(_ context.Context, name, _ string) error {
	if f.failStep == "tag" {
		return errors.New("tag refused")
	}
	for _, existing := range f.tags {
		if existing == name {
			return fmt.Errorf("tag %s already exists", name)
		}
	}
	f.tags = append(f.tags, name)
	return nil
}

func (f *fakeRepo) Push(context.Context, bool) error {
	if f.failStep == "push" {
		return errors.New("push refused")
	}
	f.pushes++
	return nil
}

type stubConfirmer struct {
	decision Decision
	plans    []Plan
}

func (s *stubConfirmer) Confirm(plan Plan) (Decision, error) {
	s.plans = append(s.plans, plan)
	return s.decision, nil
}

func newTestCycle(repo *fakeRepo, opts ...Option) (*Cycle, *ledger.Store) {
	store := ledger.NewStore(repo.root, "iteration.json", "version.json")
	source := detect.New(repo, ".spz2bp", store.Filenames())
	return NewCycle(repo, source, store, opts...), store
}

func seedBlueprint(t *testing.T, repo *fakeRepo, path string) {
	t.Helper()
	full := filepath.Join(repo.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte("blueprint"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRunFirstReleaseTagsV1(t *testing.T) {
	repo := newFakeRepo(t)
	repo.porcelain = "?? designs/a.spz2bp\n"
	seedBlueprint(t, repo, "designs/a.spz2bp")
	cycle, store := newTestCycle(repo)

	result, err := cycle.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Tag != "v1" {
		t.Fatalf("tag = %q, want v1", result.Tag)
	}
	if result.State.Version != 1 {
		t.Fatalf("version = %d, want 1", result.State.Version)
	}
	if got := result.State.Blueprints["designs/a.spz2bp"].Iteration; got != 1 {
		t.Fatalf("iteration = %d, want 1", got)
	}
	if len(repo.commits) != 1 || !strings.Contains(repo.commits[0], "Add designs/a.spz2bp (iteration 1)") {
		t.Fatalf("commits = %q", repo.commits)
	}
	if repo.pushes != 1 {
		t.Fatalf("pushes = %d, want 1", repo.pushes)
	}
	// Ledger files ride in the same commit as the blueprint.
	want := []string{"iteration.json", "version.json", "designs/a.spz2bp"}
	if len(repo.staged) != len(want) {
		t.Fatalf("staged = %v, want %v", repo.staged, want)
	}
	for i, path := range want {
		if repo.staged[i] != path {
			t.Fatalf("staged[%d] = %q, want %q", i, repo.staged[i], path)
		}
	}
	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if persisted.Version != 1 {
		t.Fatalf("persisted version = %d, want 1", persisted.Version)
	}
}

func TestRunSuccessiveCyclesStayMonotonic(t *testing.T) {
	repo := newFakeRepo(t)
	cycle, _ := newTestCycle(repo)
	seedBlueprint(t, repo, "a.spz2bp")
	seedBlueprint(t, repo, "b.spz2bp")

	statuses := []string{
		"?? a.spz2bp\n",
		" M a.spz2bp\n?? b.spz2bp\n",
		" M a.spz2bp\n",
	}
	for i, porcelain := range statuses {
		repo.porcelain = porcelain
		result, err := cycle.Run(context.Background())
		if err != nil {
			t.Fatalf("cycle %d: %v", i+1, err)
		}
		if result.State.Version != i+1 {
			t.Fatalf("cycle %d: version = %d, want %d", i+1, result.State.Version, i+1)
		}
	}
	if len(repo.tags) != 3 {
		t.Fatalf("tags = %v, want 3 unique tags", repo.tags)
	}
	seen := map[string]bool{}
	for _, tag := range repo.tags {
		if seen[tag] {
			t.Fatalf("duplicate tag %s in %v", tag, repo.tags)
		}
		seen[tag] = true
	}

	if _, ok := repo.head["iteration.json"]; !ok {
		t.Fatalf("iteration.json never committed")
	}
	store := ledger.NewStore(repo.root, "iteration.json", "version.json")
	finalState, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := finalState.Blueprints["a.spz2bp"].Iteration; got != 3 {
		t.Fatalf("a iterations = %d, want 3 with no gaps", got)
	}
	if got := finalState.Blueprints["b.spz2bp"].Iteration; got != 1 {
		t.Fatalf("b iteration = %d, want 1", got)
	}
}

func TestRunNothingToRelease(t *testing.T) {
	repo := newFakeRepo(t)
	repo.porcelain = " M README.md\n"
	cycle, store := newTestCycle(repo)

	_, err := cycle.Run(context.Background())
	if !errors.Is(err, ledger.ErrNothingToRelease) {
		t.Fatalf("err = %v, want ErrNothingToRelease", err)
	}
	if _, statErr := os.Stat(store.IterationPath()); !os.IsNotExist(statErr) {
		t.Fatalf("ledger written despite no-op cycle")
	}
	if len(repo.commits) != 0 || len(repo.tags) != 0 || repo.pushes != 0 {
		t.Fatalf("side effects on no-op cycle: %+v", repo)
	}
}

func TestRunDetectionFailure(t *testing.T) {
	repo := newFakeRepo(t)
	repo.statusErr = errors.New("not a repository")
	cycle, _ := newTestCycle(repo)

	_, err := cycle.Run(context.Background())
	var detErr *DetectionError
	if !errors.As(err, &detErr) {
		t.Fatalf("err = %v, want DetectionError", err)
	}
}

func TestRunPublishFailureLeavesRecoverableState(t *testing.T) {
	repo := newFakeRepo(t)
	repo.porcelain = "?? a.spz2bp\n"
	repo.failStep = "commit"
	seedBlueprint(t, repo, "a.spz2bp")
	cycle, store := newTestCycle(repo)

	_, err := cycle.Run(context.Background())
	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("err = %v, want PublishError", err)
	}
	if pubErr.Step != "commit" {
		t.Fatalf("step = %q, want commit", pubErr.Step)
	}

	// The counters were written but never committed. A re-run must
	// land on the same numbers, not increment twice.
	dirty, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dirty.Version != 1 {
		t.Fatalf("dirty version = %d, want 1", dirty.Version)
	}

	repo.failStep = ""
	result, err := cycle.Run(context.Background())
	if err != nil {
		t.Fatalf("recovery run: %v", err)
	}
	if result.State.Version != 1 || result.Tag != "v1" {
		t.Fatalf("recovery produced version %d tag %s, want 1/v1", result.State.Version, result.Tag)
	}
	if got := result.State.Blueprints["a.spz2bp"].Iteration; got != 1 {
		t.Fatalf("recovery iteration = %d, want 1", got)
	}
}

func TestRunDeclinedLeavesEverythingUntouched(t *testing.T) {
	repo := newFakeRepo(t)
	repo.porcelain = "?? a.spz2bp\n"
	seedBlueprint(t, repo, "a.spz2bp")
	confirmer := &stubConfirmer{decision: Decision{Confirmed: false}}
	cycle, store := newTestCycle(repo, WithConfirmer(confirmer))

	_, err := cycle.Run(context.Background())
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}
	if _, statErr := os.Stat(store.IterationPath()); !os.IsNotExist(statErr) {
		t.Fatalf("ledger written despite declined plan")
	}
	if len(repo.commits) != 0 {
		t.Fatalf("commit ran despite declined plan")
	}
	if len(confirmer.plans) != 1 || confirmer.plans[0].Tag != "v1" {
		t.Fatalf("plan = %+v, want tag v1 shown", confirmer.plans)
	}
}

func TestRunAppendsCustomMessage(t *testing.T) {
	repo := newFakeRepo(t)
	repo.porcelain = "?? a.spz2bp\n"
	seedBlueprint(t, repo, "a.spz2bp")
	confirmer := &stubConfirmer{decision: Decision{Confirmed: true, Message: "ship it"}}
	cycle, _ := newTestCycle(repo, WithConfirmer(confirmer))

	result, err := cycle.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(result.Summary, "ship it") {
		t.Fatalf("summary missing custom message:\n%s", result.Summary)
	}
	if !strings.Contains(repo.commits[0], "ship it") {
		t.Fatalf("commit message missing custom message:\n%s", repo.commits[0])
	}
}

func TestRunWithoutPushStaysLocal(t *testing.T) {
	repo := newFakeRepo(t)
	repo.porcelain = "?? a.spz2bp\n"
	seedBlueprint(t, repo, "a.spz2bp")
	cycle, _ := newTestCycle(repo, WithoutPush())

	result, err := cycle.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.pushes != 0 {
		t.Fatalf("pushes = %d, want 0", repo.pushes)
	}
	if result.Pushed {
		t.Fatalf("result claims a push happened")
	}
}
