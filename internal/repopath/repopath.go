// Package repopath resolves the directory a classification starts
// from and locates the repository that contains it.
package repopath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xvierd/gitprompt/internal/ports"
)

// Resolve turns an optional path argument into an absolute directory.
// An absolute argument is used as-is, a relative one is joined onto
// pwd, and an empty one yields pwd itself.
func Resolve(pwd, arg string) string {
	if arg == "" {
		return pwd
	}
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg)
	}
	return filepath.Join(pwd, arg)
}

// FindRepoRoot walks from start up through its ancestors looking for
// the nearest directory containing a .git entry (directory, or the
// gitdir-reference file a linked worktree carries). It returns
// ports.ErrNoRepository when the walk reaches the filesystem root
// without a match.
func FindRepoRoot(start string) (string, error) {
	current := start
	for {
		gitPath := filepath.Join(current, ".git")
		info, err := os.Stat(gitPath)
		if err == nil {
			if info.IsDir() {
				return current, nil
			}
			content, err := os.ReadFile(gitPath)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", gitPath, err)
			}
			if strings.HasPrefix(string(content), "gitdir: ") {
				return current, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", gitPath, err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ports.ErrNoRepository
		}
		current = parent
	}
}

// GitDir returns the actual git directory for a repository root,
// following the gitdir reference a linked worktree's .git file holds.
func GitDir(root string) (string, error) {
	gitPath := filepath.Join(root, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", gitPath, err)
	}
	if info.IsDir() {
		return gitPath, nil
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", gitPath, err)
	}
	dir, ok := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir: ")
	if !ok {
		return "", fmt.Errorf("%s is not a gitdir reference", gitPath)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir), nil
}

// MarkerCommit reads an in-progress marker file (MERGE_HEAD,
// REBASE_HEAD) from the git directory. A missing marker yields "",
// which is the normal case; any other read failure is fatal.
func MarkerCommit(gitDir, name string) (string, error) {
	content, err := os.ReadFile(filepath.Join(gitDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s marker: %w", name, err)
	}
	return strings.TrimSpace(string(content)), nil
}
