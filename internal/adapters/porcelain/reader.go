// Package porcelain implements the ports.StatusReader interface by
// shelling out to git and parsing `git status --porcelain=v2` output.
package porcelain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/xvierd/gitprompt/internal/ports"
	"github.com/xvierd/gitprompt/internal/repopath"
)

// Reader reads repository state through the git binary. One status
// invocation is run lazily and its parse reused by every port method;
// a Reader serves a single classification.
type Reader struct {
	root string

	loaded bool
	snap   snapshot
}

// New creates a reader for the repository rooted at root.
func New(root string) *Reader {
	return &Reader{root: root}
}

// Ensure Reader implements ports.StatusReader.
var _ ports.StatusReader = (*Reader)(nil)

// load runs git status once and memoizes the parsed result.
func (r *Reader) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	out, err := r.git(ctx, "status", "--porcelain=v2", "--branch", "--show-stash")
	if err != nil {
		return err
	}
	snap, err := parseStatus(out)
	if err != nil {
		return err
	}
	r.snap = snap
	r.loaded = true
	return nil
}

// git runs one git subcommand in the repository root and returns its
// stdout. A non-zero exit is fatal: the repository was already located,
// so failure here means the metadata could not be queried.
func (r *Reader) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (%s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Entries implements ports.StatusReader.
func (r *Reader) Entries(ctx context.Context) ([]ports.Entry, error) {
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r.snap.entries, nil
}

// Head implements ports.StatusReader. For a detached HEAD the reader
// additionally asks git whether a tag directly names the commit.
func (r *Reader) Head(ctx context.Context) (ports.Head, error) {
	if err := r.load(ctx); err != nil {
		return ports.Head{}, err
	}
	head := ports.Head{Commit: r.snap.commit, Branch: r.snap.branch}
	if head.Commit != "" && head.Branch == "" {
		// Exits non-zero when no tag matches; that is the common case,
		// not a failure.
		cmd := exec.CommandContext(ctx, "git", "describe", "--tags", "--exact-match", "HEAD")
		cmd.Dir = r.root
		if out, err := cmd.Output(); err == nil {
			head.Tag = strings.TrimSpace(string(out))
		}
	}
	return head, nil
}

// Upstream implements ports.StatusReader. The porcelain branch headers
// already carry the upstream name and ahead/behind counts.
func (r *Reader) Upstream(ctx context.Context, branch string) (*ports.Upstream, error) {
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	if r.snap.upstream == "" {
		return nil, nil
	}
	remote, name, ok := strings.Cut(r.snap.upstream, "/")
	if !ok {
		return nil, fmt.Errorf("malformed upstream name %q", r.snap.upstream)
	}
	return &ports.Upstream{
		Remote: remote,
		Branch: name,
		Ahead:  r.snap.ahead,
		Behind: r.snap.behind,
	}, nil
}

// ConflictHeads implements ports.StatusReader by reading the marker
// files from the git directory.
func (r *Reader) ConflictHeads(ctx context.Context) (string, string, error) {
	gitDir, err := repopath.GitDir(r.root)
	if err != nil {
		return "", "", err
	}
	merge, err := repopath.MarkerCommit(gitDir, "MERGE_HEAD")
	if err != nil {
		return "", "", err
	}
	rebase, err := repopath.MarkerCommit(gitDir, "REBASE_HEAD")
	if err != nil {
		return "", "", err
	}
	return merge, rebase, nil
}

// BranchForCommit implements ports.StatusReader using show-ref output,
// considering local branch refs only.
func (r *Reader) BranchForCommit(ctx context.Context, hash string) (string, bool, error) {
	out, err := r.git(ctx, "show-ref")
	if err != nil {
		return "", false, err
	}
	for _, line := range strings.Split(out, "\n") {
		id, ref, ok := strings.Cut(line, " ")
		if !ok || id != hash {
			continue
		}
		if name, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

// StashCount implements ports.StatusReader.
func (r *Reader) StashCount(ctx context.Context) (int, error) {
	if err := r.load(ctx); err != nil {
		return 0, err
	}
	return r.snap.stash, nil
}
