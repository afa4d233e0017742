// Package gogit implements the ports.StatusReader interface in
// process using go-git, with no dependency on an installed git binary.
package gogit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/xvierd/gitprompt/internal/ports"
	"github.com/xvierd/gitprompt/internal/repopath"
)

// Reader reads repository state through an opened go-git repository.
// A Reader serves a single classification.
type Reader struct {
	root string
	repo *git.Repository
}

// New opens the repository rooted at root.
func New(root string) (*Reader, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &Reader{root: root, repo: repo}, nil
}

// Ensure Reader implements ports.StatusReader.
var _ ports.StatusReader = (*Reader)(nil)

// Entries implements ports.StatusReader. go-git's status model is
// translated into the porcelain letter vocabulary; it reports neither
// ignored paths nor type changes, which only narrows the counts.
func (r *Reader) Entries(ctx context.Context) ([]ports.Entry, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	entries := make([]ports.Entry, 0, len(status))
	for _, fs := range status {
		entries = append(entries, translateStatus(fs))
	}
	return entries, nil
}

// translateStatus maps one go-git file status onto a port entry.
func translateStatus(fs *git.FileStatus) ports.Entry {
	if fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged {
		return ports.Entry{Class: ports.EntryUnmerged}
	}
	if fs.Staging == git.Untracked || fs.Worktree == git.Untracked {
		return ports.Entry{Class: ports.EntryUntracked}
	}
	class := ports.EntryChanged
	if fs.Staging == git.Renamed || fs.Worktree == git.Renamed ||
		fs.Staging == git.Copied || fs.Worktree == git.Copied {
		class = ports.EntryRenamed
	}
	return ports.Entry{
		Class:    class,
		Index:    statusLetter(fs.Staging),
		Worktree: statusLetter(fs.Worktree),
	}
}

func statusLetter(code git.StatusCode) byte {
	if code == git.Unmodified {
		return '.'
	}
	return byte(code)
}

// Head implements ports.StatusReader.
func (r *Reader) Head(ctx context.Context) (ports.Head, error) {
	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return ports.Head{}, fmt.Errorf("failed to read HEAD: %w", err)
	}

	if ref.Type() == plumbing.SymbolicReference {
		target := ref.Target()
		resolved, err := r.repo.Reference(target, true)
		if err == plumbing.ErrReferenceNotFound {
			// Unborn HEAD: the branch exists in name only.
			return ports.Head{}, nil
		}
		if err != nil {
			return ports.Head{}, fmt.Errorf("failed to resolve %s: %w", target, err)
		}
		return ports.Head{
			Commit: resolved.Hash().String(),
			Branch: target.Short(),
		}, nil
	}

	head := ports.Head{Commit: ref.Hash().String()}
	tag, err := r.tagAt(ref.Hash())
	if err != nil {
		return ports.Head{}, err
	}
	head.Tag = tag
	return head, nil
}

// tagAt looks for a tag directly naming the given commit, following
// annotated tags to their target.
func (r *Reader) tagAt(hash plumbing.Hash) (string, error) {
	tags, err := r.repo.Tags()
	if err != nil {
		return "", fmt.Errorf("failed to list tags: %w", err)
	}
	defer tags.Close()

	var found string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObj, err := r.repo.TagObject(target); err == nil {
			target = tagObj.Target
		}
		if target == hash {
			found = ref.Name().Short()
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan tags: %w", err)
	}
	return found, nil
}

// Upstream implements ports.StatusReader. The tracking branch comes
// from the branch configuration; ahead/behind is a commit graph walk
// from both tips down to their merge base.
func (r *Reader) Upstream(ctx context.Context, branch string) (*ports.Upstream, error) {
	cfg, err := r.repo.Branch(branch)
	if err == git.ErrBranchNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read branch config: %w", err)
	}
	if cfg.Remote == "" || cfg.Merge == "" {
		return nil, nil
	}

	upstream := &ports.Upstream{
		Remote: cfg.Remote,
		Branch: cfg.Merge.Short(),
	}

	remoteRef, err := r.repo.Reference(plumbing.NewRemoteReferenceName(cfg.Remote, upstream.Branch), true)
	if err == plumbing.ErrReferenceNotFound {
		// Upstream configured but never fetched: no commit to compare.
		return upstream, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upstream ref: %w", err)
	}

	localRef, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local branch: %w", err)
	}

	upstream.Ahead, upstream.Behind, err = r.aheadBehind(localRef.Hash(), remoteRef.Hash())
	if err != nil {
		return nil, err
	}
	return upstream, nil
}

// aheadBehind counts the commits reachable from each tip but not from
// their merge base (standard graph ahead/behind semantics).
func (r *Reader) aheadBehind(local, remote plumbing.Hash) (int, int, error) {
	if local == remote {
		return 0, 0, nil
	}
	localCommit, err := r.repo.CommitObject(local)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load local tip: %w", err)
	}
	remoteCommit, err := r.repo.CommitObject(remote)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load upstream tip: %w", err)
	}

	bases, err := localCommit.MergeBase(remoteCommit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute merge base: %w", err)
	}
	stop := make([]plumbing.Hash, len(bases))
	for i, base := range bases {
		stop[i] = base.Hash
	}

	ahead, err := countReachable(localCommit, stop)
	if err != nil {
		return 0, 0, err
	}
	behind, err := countReachable(remoteCommit, stop)
	if err != nil {
		return 0, 0, err
	}
	return ahead, behind, nil
}

func countReachable(from *object.Commit, stop []plumbing.Hash) (int, error) {
	iter := object.NewCommitPreorderIter(from, nil, stop)
	defer iter.Close()

	count := 0
	err := iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk commits: %w", err)
	}
	return count, nil
}

// ConflictHeads implements ports.StatusReader by reading the marker
// files from the resolved git directory.
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

// BranchForCommit implements ports.StatusReader by scanning the local
// branch refs for a tip equal to the given hash.
func (r *Reader) BranchForCommit(ctx context.Context, hash string) (string, bool, error) {
	branches, err := r.repo.Branches()
	if err != nil {
		return "", false, fmt.Errorf("failed to list branches: %w", err)
	}
	defer branches.Close()

	var found string
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		if ref.Hash().String() == hash {
			found = ref.Name().Short()
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to scan branches: %w", err)
	}
	return found, found != "", nil
}

// StashCount implements ports.StatusReader. go-git has no stash API;
// the stash reflog is counted directly, one line per entry.
func (r *Reader) StashCount(ctx context.Context) (int, error) {
	gitDir, err := repopath.GitDir(r.root)
	if err != nil {
		return 0, err
	}
	content, err := os.ReadFile(filepath.Join(gitDir, "logs", "refs", "stash"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read stash reflog: %w", err)
	}

	count := 0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}
