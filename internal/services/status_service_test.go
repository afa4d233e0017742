package services

import (
	"context"
	"errors"
	"testing"

	"github.com/xvierd/gitprompt/internal/domain"
	"github.com/xvierd/gitprompt/internal/ports"
)

const (
	headHash    = "abcdef1234567890abcdef1234567890abcdef12"
	mergeHash   = "1111111111111111111111111111111111111111"
	unknownHash = "2222222222222222222222222222222222222222"
)

// fakeReader is an in-memory ports.StatusReader for classifier tests.
type fakeReader struct {
	entries  []ports.Entry
	head     ports.Head
	upstream *ports.Upstream
	merge    string
	rebase   string
	tips     map[string]string // commit hash -> branch name
	stash    int
}

func (f *fakeReader) Entries(ctx context.Context) ([]ports.Entry, error) {
	return f.entries, nil
}

func (f *fakeReader) Head(ctx context.Context) (ports.Head, error) {
	return f.head, nil
}

func (f *fakeReader) Upstream(ctx context.Context, branch string) (*ports.Upstream, error) {
	return f.upstream, nil
}

func (f *fakeReader) ConflictHeads(ctx context.Context) (string, string, error) {
	return f.merge, f.rebase, nil
}

func (f *fakeReader) BranchForCommit(ctx context.Context, hash string) (string, bool, error) {
	name, ok := f.tips[hash]
	return name, ok, nil
}

func (f *fakeReader) StashCount(ctx context.Context) (int, error) {
	return f.stash, nil
}

func classify(t *testing.T, reader *fakeReader) domain.RepoState {
	t.Helper()
	state, err := NewStatusService(reader).Classify(context.Background())
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if state == nil {
		t.Fatal("Classify() returned nil state")
	}
	return state
}

func changed(index, worktree byte) ports.Entry {
	return ports.Entry{Class: ports.EntryChanged, Index: index, Worktree: worktree}
}

func TestClassifyHeadless(t *testing.T) {
	reader := &fakeReader{
		entries: []ports.Entry{{Class: ports.EntryUntracked}},
	}

	state := classify(t, reader)
	headless, ok := state.(domain.Headless)
	if !ok {
		t.Fatalf("Classify() = %T, want Headless", state)
	}
	if got := headless.WorkingTree.Count(domain.ChangeAdd); got != 1 {
		t.Errorf("worktree adds = %d, want 1", got)
	}
	if headless.Index.Any() {
		t.Error("index has changes, want none")
	}
}

func TestClassifyHeadlessIgnoresConflictTally(t *testing.T) {
	// Conflicts are unreachable before the first commit; an unborn
	// HEAD always classifies as Headless.
	reader := &fakeReader{
		entries: []ports.Entry{{Class: ports.EntryUnmerged}, {Class: ports.EntryUnmerged}},
	}

	if _, ok := classify(t, reader).(domain.Headless); !ok {
		t.Errorf("unborn HEAD with conflict entries did not classify as Headless")
	}
}

func TestClassifyCleanNoUpstream(t *testing.T) {
	reader := &fakeReader{
		head: ports.Head{Commit: headHash, Branch: "main"},
	}

	state := classify(t, reader)
	clean, ok := state.(domain.Clean)
	if !ok {
		t.Fatalf("Classify() = %T, want Clean", state)
	}
	if clean.Head.Local != "main" {
		t.Errorf("local = %q, want %q", clean.Head.Local, "main")
	}
	if clean.Head.Tracking != nil {
		t.Errorf("tracking = %+v, want nil", clean.Head.Tracking)
	}
}

func TestClassifyCleanInSync(t *testing.T) {
	reader := &fakeReader{
		head:     ports.Head{Commit: headHash, Branch: "main"},
		upstream: &ports.Upstream{Remote: "origin", Branch: "main"},
	}

	clean, ok := classify(t, reader).(domain.Clean)
	if !ok {
		t.Fatal("want Clean")
	}
	tracking := clean.Head.Tracking
	if tracking == nil {
		t.Fatal("tracking = nil, want upstream")
	}
	if tracking.Remote.Remote != "origin" || tracking.Remote.Branch != "main" {
		t.Errorf("remote = %+v", tracking.Remote)
	}
	if tracking.Divergence != nil {
		t.Errorf("divergence = %+v, want nil for in-sync upstream", tracking.Divergence)
	}
}

func TestClassifyCleanDiverged(t *testing.T) {
	// Divergence belongs to the branch, not to the Clean/Working
	// split: a clean tree still reports ahead/behind.
	reader := &fakeReader{
		head:     ports.Head{Commit: headHash, Branch: "main"},
		upstream: &ports.Upstream{Remote: "origin", Branch: "main", Ahead: 2, Behind: 1},
	}

	clean, ok := classify(t, reader).(domain.Clean)
	if !ok {
		t.Fatal("want Clean")
	}
	div := clean.Head.Tracking.Divergence
	if div == nil || div.Ahead != 2 || div.Behind != 1 {
		t.Errorf("divergence = %+v, want ahead 2 behind 1", div)
	}
}

func TestClassifyWorking(t *testing.T) {
	reader := &fakeReader{
		head: ports.Head{Commit: headHash, Branch: "main"},
		entries: []ports.Entry{
			changed('A', '.'),
			changed('.', 'M'),
		},
	}

	working, ok := classify(t, reader).(domain.Working)
	if !ok {
		t.Fatal("want Working")
	}
	if got := working.Index.Count(domain.ChangeAdd); got != 1 {
		t.Errorf("index adds = %d, want 1", got)
	}
	if got := working.WorkingTree.Count(domain.ChangeModify); got != 1 {
		t.Errorf("worktree modifies = %d, want 1", got)
	}
}

func TestClassifyEntryMapping(t *testing.T) {
	reader := &fakeReader{
		head: ports.Head{Commit: headHash, Branch: "main"},
		entries: []ports.Entry{
			changed('A', '.'),
			changed('M', 'M'),
			changed('D', '.'),
			changed('T', 'T'),
			{Class: ports.EntryRenamed, Index: 'R', Worktree: '.'},
			{Class: ports.EntryRenamed, Index: 'C', Worktree: '.'}, // copies dropped
			{Class: ports.EntryUntracked},
			{Class: ports.EntryIgnored},                                        // never surfaced
			{Class: ports.EntryChanged, Index: 'M', Worktree: '.', Submodule: true}, // skipped
		},
	}

	working, ok := classify(t, reader).(domain.Working)
	if !ok {
		t.Fatal("want Working")
	}

	wantIndex := map[domain.ChangeKind]int{
		domain.ChangeAdd:        1,
		domain.ChangeModify:     1,
		domain.ChangeDelete:     1,
		domain.ChangeRename:     1,
		domain.ChangeTypeChange: 1,
	}
	for kind, want := range wantIndex {
		if got := working.Index.Count(kind); got != want {
			t.Errorf("index %v = %d, want %d", kind, got, want)
		}
	}

	wantWorktree := map[domain.ChangeKind]int{
		domain.ChangeAdd:        1, // the untracked entry
		domain.ChangeModify:     1,
		domain.ChangeTypeChange: 1,
	}
	for _, kind := range domain.ChangeKinds {
		if got := working.WorkingTree.Count(kind); got != wantWorktree[kind] {
			t.Errorf("worktree %v = %d, want %d", kind, got, wantWorktree[kind])
		}
	}
}

func TestClassifyDetachedCommit(t *testing.T) {
	reader := &fakeReader{
		head: ports.Head{Commit: headHash},
	}

	detached, ok := classify(t, reader).(domain.Detached)
	if !ok {
		t.Fatal("want Detached")
	}
	commit, ok := detached.Head.(domain.Commit)
	if !ok {
		t.Fatalf("head = %T, want Commit", detached.Head)
	}
	if commit.Hash() != headHash {
		t.Errorf("hash = %q, want %q", commit.Hash(), headHash)
	}
}

func TestClassifyDetachedTag(t *testing.T) {
	reader := &fakeReader{
		head: ports.Head{Commit: headHash, Tag: "v1.2.0"},
	}

	detached, ok := classify(t, reader).(domain.Detached)
	if !ok {
		t.Fatal("want Detached")
	}
	tag, ok := detached.Head.(domain.Tag)
	if !ok {
		t.Fatalf("head = %T, want Tag", detached.Head)
	}
	if tag.Name != "v1.2.0" {
		t.Errorf("tag = %q, want v1.2.0", tag.Name)
	}
}

func TestClassifyMergeConflict(t *testing.T) {
	reader := &fakeReader{
		head:  ports.Head{Commit: headHash, Branch: "main"},
		merge: mergeHash,
		tips:  map[string]string{mergeHash: "feature"},
		entries: []ports.Entry{
			{Class: ports.EntryUnmerged},
			{Class: ports.EntryUnmerged},
		},
	}

	conflicted, ok := classify(t, reader).(domain.Conflicted)
	if !ok {
		t.Fatal("want Conflicted")
	}
	if conflicted.Kind != domain.ConflictMerge {
		t.Errorf("kind = %v, want merge", conflicted.Kind)
	}
	if conflicted.Conflicts != 2 {
		t.Errorf("conflicts = %d, want 2", conflicted.Conflicts)
	}
	source, ok := conflicted.Source.(domain.Branch)
	if !ok || source.Local != "main" {
		t.Errorf("source = %#v, want branch main", conflicted.Source)
	}
	target, ok := conflicted.Target.(domain.Branch)
	if !ok || target.Local != "feature" {
		t.Errorf("target = %#v, want branch feature", conflicted.Target)
	}
}

func TestClassifyMergeConflictUnresolvableTarget(t *testing.T) {
	reader := &fakeReader{
		head:    ports.Head{Commit: headHash, Branch: "main"},
		merge:   unknownHash,
		entries: []ports.Entry{{Class: ports.EntryUnmerged}},
	}

	conflicted, ok := classify(t, reader).(domain.Conflicted)
	if !ok {
		t.Fatal("want Conflicted")
	}
	commit, ok := conflicted.Target.(domain.Commit)
	if !ok {
		t.Fatalf("target = %T, want Commit", conflicted.Target)
	}
	if commit.Hash() != unknownHash {
		t.Errorf("target hash = %q, want %q", commit.Hash(), unknownHash)
	}
}

func TestClassifyRebaseConflictDetachedAnchor(t *testing.T) {
	// Mid-rebase HEAD is detached onto the commit being replayed; with
	// a nonzero conflict tally the state must not report Detached.
	reader := &fakeReader{
		head:    ports.Head{Commit: headHash},
		rebase:  mergeHash,
		tips:    map[string]string{mergeHash: "feature"},
		entries: []ports.Entry{{Class: ports.EntryUnmerged}},
	}

	state := classify(t, reader)
	conflicted, ok := state.(domain.Conflicted)
	if !ok {
		t.Fatalf("Classify() = %T, want Conflicted", state)
	}
	if conflicted.Kind != domain.ConflictRebase {
		t.Errorf("kind = %v, want rebase", conflicted.Kind)
	}
	source, ok := conflicted.Source.(domain.Commit)
	if !ok || source.Hash() != headHash {
		t.Errorf("source = %#v, want raw commit anchor", conflicted.Source)
	}
}

func TestClassifyConflictOnBranchNeverDetached(t *testing.T) {
	reader := &fakeReader{
		head:    ports.Head{Commit: headHash, Branch: "main"},
		rebase:  mergeHash,
		entries: []ports.Entry{{Class: ports.EntryUnmerged}},
	}

	state := classify(t, reader)
	if _, ok := state.(domain.Detached); ok {
		t.Error("conflicted state with resolvable branch classified as Detached")
	}
	if _, ok := state.(domain.Conflicted); !ok {
		t.Errorf("Classify() = %T, want Conflicted", state)
	}
}

func TestClassifyMergeMarkerWinsOverRebase(t *testing.T) {
	reader := &fakeReader{
		head:    ports.Head{Commit: headHash, Branch: "main"},
		merge:   mergeHash,
		rebase:  unknownHash,
		entries: []ports.Entry{{Class: ports.EntryUnmerged}},
	}

	conflicted, ok := classify(t, reader).(domain.Conflicted)
	if !ok {
		t.Fatal("want Conflicted")
	}
	if conflicted.Kind != domain.ConflictMerge {
		t.Errorf("kind = %v, want merge", conflicted.Kind)
	}
}

func TestClassifyConflictWithoutMarkersFails(t *testing.T) {
	reader := &fakeReader{
		head:    ports.Head{Commit: headHash, Branch: "main"},
		entries: []ports.Entry{{Class: ports.EntryUnmerged}},
	}

	_, err := NewStatusService(reader).Classify(context.Background())
	if !errors.Is(err, ErrInconsistentState) {
		t.Errorf("Classify() error = %v, want ErrInconsistentState", err)
	}
}

func TestClassifyStashCarried(t *testing.T) {
	reader := &fakeReader{
		head:  ports.Head{Commit: headHash, Branch: "main"},
		stash: 3,
	}

	clean, ok := classify(t, reader).(domain.Clean)
	if !ok {
		t.Fatal("want Clean")
	}
	if clean.Stash != 3 {
		t.Errorf("stash = %d, want 3", clean.Stash)
	}
}
