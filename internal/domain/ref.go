package domain

import (
	"fmt"
)

// Commit is a full 40-character hexadecimal commit hash.
type Commit struct {
	hash string
}

// NewCommit validates and wraps a textual commit hash. Backends that
// hold a native binary id must convert it to the 40-character hex form
// before constructing a Commit.
func NewCommit(hash string) (Commit, error) {
	if len(hash) != 40 {
		return Commit{}, fmt.Errorf("commit hash must be 40 chars, got %d (%q)", len(hash), hash)
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return Commit{}, fmt.Errorf("commit hash contains non-hex character %q", r)
		}
	}
	return Commit{hash: hash}, nil
}

// Hash returns the full 40-character hash.
func (c Commit) Hash() string {
	return c.hash
}

// Short returns the hash truncated to n characters for display. Values
// of n outside 1..40 return the full hash.
func (c Commit) Short(n int) string {
	if n <= 0 || n > len(c.hash) {
		return c.hash
	}
	return c.hash[:n]
}

// Tag names a fixed reference; used only as a detached-head target when
// HEAD is directly pointed at by a tag.
type Tag struct {
	Name string
}

// DetachedRef is what a detached HEAD points at: a commit, or a tag
// when one directly names the checked-out commit.
type DetachedRef interface {
	detachedRef()
}

func (Commit) detachedRef() {}
func (Tag) detachedRef()    {}

// RemoteBranch identifies an upstream tracking branch.
type RemoteBranch struct {
	Remote string
	Branch string
}

// Divergence is the ahead/behind commit count of a local branch
// relative to its upstream tip. It is never constructed with both
// counts zero; "no divergence" is a nil *Divergence on Tracking.
type Divergence struct {
	Ahead  int
	Behind int
}

// NewDivergence wraps nonzero ahead/behind counts, returning nil when
// the branch is in sync with its upstream.
func NewDivergence(ahead, behind int) *Divergence {
	if ahead == 0 && behind == 0 {
		return nil
	}
	return &Divergence{Ahead: ahead, Behind: behind}
}

// Tracking pairs a configured upstream with its optional divergence.
type Tracking struct {
	Remote     RemoteBranch
	Divergence *Divergence
}

// Branch is a local branch with optional upstream information. A nil
// Tracking means no upstream is configured; a Tracking with nil
// Divergence means the upstream is in sync.
type Branch struct {
	Local    string
	Tracking *Tracking
}

// ConflictKind distinguishes the two in-progress operations that can
// leave unresolved conflicts behind.
type ConflictKind int

const (
	ConflictMerge ConflictKind = iota
	ConflictRebase
)

func (k ConflictKind) String() string {
	if k == ConflictMerge {
		return "merge"
	}
	return "rebase"
}

// ConflictRef identifies one side of an in-progress merge or rebase:
// a branch name when some local branch tip equals the endpoint commit,
// otherwise the raw commit identity.
type ConflictRef interface {
	conflictRef()
}

func (Commit) conflictRef() {}
func (Branch) conflictRef() {}
