package porcelain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xvierd/gitprompt/internal/ports"
)

// snapshot is the parse of one `git status --porcelain=v2 --branch
// --show-stash` run.
type snapshot struct {
	commit   string // "" on an unborn HEAD
	branch   string // "" when detached
	upstream string // "remote/branch", "" when not configured
	ahead    int
	behind   int
	stash    int
	entries  []ports.Entry
}

// parseStatus parses porcelain v2 output. See git-status(1) for the
// format; header lines start with '#', entry lines with their record
// class.
func parseStatus(out string) (snapshot, error) {
	var snap snapshot
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			if err := parseHeader(rest, &snap); err != nil {
				return snapshot{}, err
			}
			continue
		}
		entry, ok, err := parseEntry(line)
		if err != nil {
			return snapshot{}, err
		}
		if ok {
			snap.entries = append(snap.entries, entry)
		}
	}
	return snap, nil
}

func parseHeader(rest string, snap *snapshot) error {
	switch {
	case strings.HasPrefix(rest, "branch.oid "):
		oid := strings.TrimPrefix(rest, "branch.oid ")
		if oid != "(initial)" {
			snap.commit = oid
		}
	case strings.HasPrefix(rest, "branch.head "):
		name := strings.TrimPrefix(rest, "branch.head ")
		if name != "(detached)" {
			snap.branch = name
		}
	case strings.HasPrefix(rest, "branch.upstream "):
		snap.upstream = strings.TrimPrefix(rest, "branch.upstream ")
	case strings.HasPrefix(rest, "branch.ab "):
		ab := strings.TrimPrefix(rest, "branch.ab ")
		aheadStr, behindStr, ok := strings.Cut(ab, " ")
		if !ok {
			return fmt.Errorf("malformed branch.ab header %q", ab)
		}
		ahead, err := strconv.Atoi(strings.TrimPrefix(aheadStr, "+"))
		if err != nil {
			return fmt.Errorf("malformed ahead count %q: %w", aheadStr, err)
		}
		behind, err := strconv.Atoi(strings.TrimPrefix(behindStr, "-"))
		if err != nil {
			return fmt.Errorf("malformed behind count %q: %w", behindStr, err)
		}
		snap.ahead, snap.behind = ahead, behind
	case strings.HasPrefix(rest, "stash "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(rest, "stash ")))
		if err != nil {
			return fmt.Errorf("malformed stash header %q: %w", rest, err)
		}
		snap.stash = n
	}
	return nil
}

// parseEntry parses one non-header line. Unknown record classes are
// skipped rather than rejected so newer git versions stay readable.
func parseEntry(line string) (ports.Entry, bool, error) {
	switch line[0] {
	case '?':
		return ports.Entry{Class: ports.EntryUntracked}, true, nil
	case '!':
		return ports.Entry{Class: ports.EntryIgnored}, true, nil
	case '1', '2', 'u':
		// <class> <XY> <sub> ...
		fields := strings.SplitN(line, " ", 4)
		if len(fields) < 4 || len(fields[1]) != 2 || len(fields[2]) != 4 {
			return ports.Entry{}, false, fmt.Errorf("malformed status entry %q", line)
		}
		entry := ports.Entry{
			Index:     fields[1][0],
			Worktree:  fields[1][1],
			Submodule: fields[2] != "N...",
		}
		switch line[0] {
		case '1':
			entry.Class = ports.EntryChanged
		case '2':
			entry.Class = ports.EntryRenamed
		case 'u':
			entry.Class = ports.EntryUnmerged
		}
		return entry, true, nil
	}
	return ports.Entry{}, false, nil
}
