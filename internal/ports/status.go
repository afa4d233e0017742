// Package ports defines the interfaces between the classification
// logic and the repository backends, following hexagonal architecture
// principles. The classifier is written against these contracts only;
// the subprocess and in-process backends are interchangeable behind
// them.
package ports

import (
	"context"
	"errors"
)

// ErrNoRepository is returned when no repository exists at or above the
// inspected path. This is an expected outcome, not an internal error.
var ErrNoRepository = errors.New("no git repository found")

// EntryClass tells which record class a status entry belongs to.
type EntryClass int

const (
	// EntryChanged is an ordinary tracked-file change.
	EntryChanged EntryClass = iota
	// EntryRenamed is a rename or copy detection record.
	EntryRenamed
	// EntryUnmerged is a both-sides-conflicted path.
	EntryUnmerged
	// EntryUntracked is a path not known to the index.
	EntryUntracked
	// EntryIgnored is a path matched by an ignore rule.
	EntryIgnored
)

// Entry is one working-copy path with its index-side and worktree-side
// status letters. Letters use the porcelain vocabulary ('A', 'M', 'D',
// 'R', 'C', 'T', or '.' for no change on that side); backends with a
// native status model translate into it.
type Entry struct {
	Class    EntryClass
	Index    byte
	Worktree byte
	// Submodule marks entries whose extended submodule state is set;
	// the classifier skips these for change-count purposes.
	Submodule bool
}

// Head describes what HEAD currently resolves to. Commit is the full
// hex hash, empty on an unborn HEAD. Branch is the checked-out branch
// name, empty when HEAD is detached. Tag is set when a tag directly
// names the checked-out commit.
type Head struct {
	Commit string
	Branch string
	Tag    string
}

// Upstream is the configured tracking branch of a local branch plus
// its ahead/behind commit counts (graph reachability, not diff size).
type Upstream struct {
	Remote string
	Branch string
	Ahead  int
	Behind int
}

// StatusReader is the driven port yielding raw repository state. Both
// backends are read-only; no method mutates the repository. Any error
// other than ErrNoRepository is fatal to the invocation.
type StatusReader interface {
	// Entries enumerates every reported working-copy entry once.
	Entries(ctx context.Context) ([]Entry, error)

	// Head reports the current HEAD resolution.
	Head(ctx context.Context) (Head, error)

	// Upstream reports the tracking branch configured for the named
	// local branch, or nil when none is configured.
	Upstream(ctx context.Context, branch string) (*Upstream, error)

	// ConflictHeads reports the merge and rebase in-progress markers:
	// the commit hash each marker points at, or "" when the marker is
	// absent.
	ConflictHeads(ctx context.Context) (merge, rebase string, err error)

	// BranchForCommit resolves a commit hash to the name of a local
	// branch whose tip equals it, if any.
	BranchForCommit(ctx context.Context, hash string) (string, bool, error)

	// StashCount reports how many stash entries exist.
	StashCount(ctx context.Context) (int, error)
}
