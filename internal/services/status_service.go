// Package services contains the repository state classifier. It is
// written against ports.StatusReader only, so either acquisition
// backend can sit behind it.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/xvierd/gitprompt/internal/domain"
	"github.com/xvierd/gitprompt/internal/ports"
)

// ErrInconsistentState marks a repository shape the decision procedure
// does not model, e.g. unresolved conflicts with neither a merge nor a
// rebase marker present. It must surface as a failure rather than a
// silently wrong classification.
var ErrInconsistentState = errors.New("inconsistent repository state")

// StatusService turns raw repository introspection data into exactly
// one domain.RepoState.
type StatusService struct {
	reader ports.StatusReader
}

// NewStatusService creates a classifier over the given backend.
func NewStatusService(reader ports.StatusReader) *StatusService {
	return &StatusService{reader: reader}
}

// tally is the result of the single entry walk: per-side change counts
// plus the unresolved-conflict count. Ignored entries are counted but
// never surfaced.
type tally struct {
	workingTree domain.ChangeCounts
	index       domain.ChangeCounts
	conflicts   int
	ignored     int
}

// Classify runs the decision procedure and returns one RepoState.
func (s *StatusService) Classify(ctx context.Context) (domain.RepoState, error) {
	entries, err := s.reader.Entries(ctx)
	if err != nil {
		return nil, err
	}
	t := countEntries(entries)

	stash, err := s.reader.StashCount(ctx)
	if err != nil {
		return nil, err
	}

	head, err := s.reader.Head(ctx)
	if err != nil {
		return nil, err
	}

	// Unborn HEAD: nothing can be resolved further, and conflicts
	// cannot exist before the first commit.
	if head.Commit == "" {
		return domain.Headless{
			WorkingTree: t.workingTree,
			Index:       t.index,
			Stash:       stash,
		}, nil
	}

	if head.Branch == "" {
		if t.conflicts == 0 {
			ref, err := detachedRef(head)
			if err != nil {
				return nil, err
			}
			return domain.Detached{
				Head:        ref,
				WorkingTree: t.workingTree,
				Index:       t.index,
				Stash:       stash,
			}, nil
		}
		// A conflicted detached HEAD is almost always the rebase
		// machinery replaying commits; use the raw commit as the
		// local anchor instead of reporting Detached.
		return s.classifyConflict(ctx, head, t, stash)
	}

	if t.conflicts != 0 {
		return s.classifyConflict(ctx, head, t, stash)
	}

	branch, err := s.resolveBranch(ctx, head.Branch)
	if err != nil {
		return nil, err
	}

	if t.workingTree.Any() || t.index.Any() {
		return domain.Working{
			Branch:      branch,
			WorkingTree: t.workingTree,
			Index:       t.index,
			Stash:       stash,
		}, nil
	}
	return domain.Clean{Head: branch, Stash: stash}, nil
}

// countEntries walks every reported entry once, accumulating the two
// change-count sides and the conflict tally.
func countEntries(entries []ports.Entry) tally {
	var t tally
	for _, e := range entries {
		switch e.Class {
		case ports.EntryUnmerged:
			t.conflicts++
		case ports.EntryUntracked:
			t.workingTree.Increment(domain.ChangeAdd)
		case ports.EntryIgnored:
			t.ignored++
		case ports.EntryChanged, ports.EntryRenamed:
			if e.Submodule {
				continue
			}
			if kind, ok := changeKind(e.Index); ok {
				t.index.Increment(kind)
			}
			if kind, ok := changeKind(e.Worktree); ok {
				t.workingTree.Increment(kind)
			}
		}
	}
	return t
}

// changeKind maps a porcelain status letter into the five-kind
// vocabulary. Copies ('C') are deliberately dropped: they are not
// distinguished from renames or modifications at this layer.
func changeKind(letter byte) (domain.ChangeKind, bool) {
	switch letter {
	case 'A':
		return domain.ChangeAdd, true
	case 'M':
		return domain.ChangeModify, true
	case 'D':
		return domain.ChangeDelete, true
	case 'R':
		return domain.ChangeRename, true
	case 'T':
		return domain.ChangeTypeChange, true
	}
	return 0, false
}

// detachedRef resolves what a detached HEAD should display as: a tag
// when one directly names the commit, otherwise the commit itself.
func detachedRef(head ports.Head) (domain.DetachedRef, error) {
	if head.Tag != "" {
		return domain.Tag{Name: head.Tag}, nil
	}
	commit, err := domain.NewCommit(head.Commit)
	if err != nil {
		return nil, fmt.Errorf("resolve detached head: %w", err)
	}
	return commit, nil
}

// classifyConflict determines the in-progress operation and its two
// endpoints. The merge marker is checked before the rebase marker;
// neither being present is a state the procedure does not model.
func (s *StatusService) classifyConflict(ctx context.Context, head ports.Head, t tally, stash int) (domain.RepoState, error) {
	merge, rebase, err := s.reader.ConflictHeads(ctx)
	if err != nil {
		return nil, err
	}

	var kind domain.ConflictKind
	var sourceHash, targetHash string
	switch {
	case merge != "":
		kind = domain.ConflictMerge
		sourceHash, targetHash = head.Commit, merge
	case rebase != "":
		kind = domain.ConflictRebase
		sourceHash, targetHash = head.Commit, rebase
	default:
		return nil, fmt.Errorf("%w: %d unresolved conflicts but no merge or rebase marker", ErrInconsistentState, t.conflicts)
	}

	source, err := s.conflictRef(ctx, head.Branch, sourceHash)
	if err != nil {
		return nil, err
	}
	target, err := s.conflictRef(ctx, "", targetHash)
	if err != nil {
		return nil, err
	}

	return domain.Conflicted{
		Kind:        kind,
		Source:      source,
		Target:      target,
		WorkingTree: t.workingTree,
		Index:       t.index,
		Conflicts:   t.conflicts,
		Stash:       stash,
	}, nil
}

// conflictRef resolves one conflict endpoint. A known branch name wins;
// otherwise any local branch whose tip equals the commit names it; as a
// last resort the raw commit identity is used.
func (s *StatusService) conflictRef(ctx context.Context, branch, hash string) (domain.ConflictRef, error) {
	if branch != "" {
		return domain.Branch{Local: branch}, nil
	}
	if name, ok, err := s.reader.BranchForCommit(ctx, hash); err != nil {
		return nil, err
	} else if ok {
		return domain.Branch{Local: name}, nil
	}
	commit, err := domain.NewCommit(hash)
	if err != nil {
		return nil, fmt.Errorf("resolve conflict endpoint: %w", err)
	}
	return commit, nil
}

// resolveBranch attaches upstream and divergence information to the
// checked-out branch name.
func (s *StatusService) resolveBranch(ctx context.Context, local string) (domain.Branch, error) {
	upstream, err := s.reader.Upstream(ctx, local)
	if err != nil {
		return domain.Branch{}, err
	}
	if upstream == nil {
		return domain.Branch{Local: local}, nil
	}
	return domain.Branch{
		Local: local,
		Tracking: &domain.Tracking{
			Remote:     domain.RemoteBranch{Remote: upstream.Remote, Branch: upstream.Branch},
			Divergence: domain.NewDivergence(upstream.Ahead, upstream.Behind),
		},
	}, nil
}
