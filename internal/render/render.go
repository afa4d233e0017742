// Package render turns a classified repository state into the single
// prompt line. Rendering is a pure function of its inputs: no I/O, no
// mutation, byte-identical output for identical (state, options)
// pairs.
package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/gitprompt/internal/config"
	"github.com/xvierd/gitprompt/internal/domain"
)

// DefaultHashLen is how many characters of a commit hash are shown
// when no explicit length is requested.
const DefaultHashLen = 7

// Options selects the output shape. Decorate toggles styling markup
// around the same structural output; it never changes which fields are
// shown. Sparse shortens the upstream portion of the line.
type Options struct {
	Decorate bool
	Sparse   bool
	HashLen  int
	Theme    config.ThemeConfig
}

// styles holds the compiled lipgloss styles for one render pass. In
// plain mode every style is the zero style, which renders text
// unchanged.
type styles struct {
	branch     lipgloss.Style
	remote     lipgloss.Style
	headless   lipgloss.Style
	commit     lipgloss.Style
	conflict   lipgloss.Style
	divergence lipgloss.Style
	sync       lipgloss.Style
	work       lipgloss.Style
	index      lipgloss.Style
	stash      lipgloss.Style
	kinds      [5]lipgloss.Style
}

func newStyles(opts Options) styles {
	if !opts.Decorate {
		plain := lipgloss.NewStyle()
		return styles{
			branch: plain, remote: plain, headless: plain, commit: plain,
			conflict: plain, divergence: plain, sync: plain, work: plain,
			index: plain, stash: plain,
			kinds: [5]lipgloss.Style{plain, plain, plain, plain, plain},
		}
	}
	t := opts.Theme
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return styles{
		branch:     fg(t.ColorBranch).Bold(true),
		remote:     fg(t.ColorRemote),
		headless:   fg(t.ColorHeadless).Bold(true),
		commit:     fg(t.ColorCommit).Bold(true),
		conflict:   fg(t.ColorConflict).Bold(true),
		divergence: fg(t.ColorDivergence),
		sync:       fg(t.ColorSync),
		work:       fg(t.ColorWorkingTree),
		index:      fg(t.ColorIndex),
		stash:      fg(t.ColorStash),
		kinds: [5]lipgloss.Style{
			domain.ChangeAdd:        fg(t.ColorAdd),
			domain.ChangeModify:     fg(t.ColorModify),
			domain.ChangeDelete:     fg(t.ColorDelete),
			domain.ChangeRename:     fg(t.ColorRename),
			domain.ChangeTypeChange: fg(t.ColorTypeChange),
		},
	}
}

// Line renders one repository state as a single line of text.
func Line(state domain.RepoState, opts Options) string {
	if opts.HashLen <= 0 {
		opts.HashLen = DefaultHashLen
	}
	st := newStyles(opts)

	var b strings.Builder
	switch s := state.(type) {
	case domain.Headless:
		b.WriteString("[" + st.headless.Render("headless") + "]")
		writeSuffix(&b, st, s.WorkingTree, s.Index, 0, s.Stash)
	case domain.Clean:
		writeBranch(&b, st, opts, s.Head)
		writeSuffix(&b, st, domain.ChangeCounts{}, domain.ChangeCounts{}, 0, s.Stash)
	case domain.Detached:
		writeDetached(&b, st, opts, s.Head)
		writeSuffix(&b, st, s.WorkingTree, s.Index, 0, s.Stash)
	case domain.Working:
		writeBranch(&b, st, opts, s.Branch)
		writeSuffix(&b, st, s.WorkingTree, s.Index, 0, s.Stash)
	case domain.Conflicted:
		writeConflict(&b, st, opts, s)
		writeSuffix(&b, st, s.WorkingTree, s.Index, s.Conflicts, s.Stash)
	}
	return b.String()
}

// writeBranch emits the local branch name plus its upstream brackets:
// `local[-]` with no upstream, `local[remote/branch][divergence]` with
// one. Sparse mode shows the upstream branch name as `~` and drops the
// divergence bracket when the upstream branch name equals the local.
func writeBranch(b *strings.Builder, st styles, opts Options, branch domain.Branch) {
	b.WriteString(st.branch.Render(branch.Local))

	if branch.Tracking == nil {
		b.WriteString("[" + st.remote.Render("-") + "]")
		return
	}

	remote := branch.Tracking.Remote
	name := remote.Branch
	if opts.Sparse {
		name = "~"
	}
	b.WriteString("[" + st.remote.Render(remote.Remote+"/"+name) + "]")

	if opts.Sparse && remote.Branch == branch.Local {
		return
	}

	div := branch.Tracking.Divergence
	if div == nil {
		b.WriteString("[" + st.sync.Render("") + "]")
		return
	}
	var figures strings.Builder
	if div.Ahead != 0 {
		figures.WriteString(strconv.Itoa(div.Ahead))
	}
	if div.Behind != 0 {
		figures.WriteString(strconv.Itoa(div.Behind))
	}
	b.WriteString("[" + st.divergence.Render(figures.String()) + "]")
}

// writeDetached emits the detached-head target: a tag name when one
// directly names the commit, else the truncated hash. No upstream
// bracket is emitted for a detached head.
func writeDetached(b *strings.Builder, st styles, opts Options, head domain.DetachedRef) {
	switch h := head.(type) {
	case domain.Tag:
		b.WriteString(st.commit.Render(h.Name))
	case domain.Commit:
		b.WriteString(st.commit.Render(h.Short(opts.HashLen)))
	}
}

// writeConflict emits the two endpoints of an in-progress operation.
// A merge reads `source <- target`; a rebase reverses both the arrow
// and the display order.
func writeConflict(b *strings.Builder, st styles, opts Options, s domain.Conflicted) {
	if s.Kind == domain.ConflictMerge {
		writeConflictRef(b, st, opts, s.Source)
		b.WriteString(" <- ")
		writeConflictRef(b, st, opts, s.Target)
		return
	}
	writeConflictRef(b, st, opts, s.Target)
	b.WriteString(" -> ")
	writeConflictRef(b, st, opts, s.Source)
}

func writeConflictRef(b *strings.Builder, st styles, opts Options, ref domain.ConflictRef) {
	switch r := ref.(type) {
	case domain.Branch:
		b.WriteString(st.branch.Render(r.Local))
	case domain.Commit:
		b.WriteString(st.commit.Render(r.Short(opts.HashLen)))
	}
}

// writeSuffix emits the ` :: ...` change groups: conflict tally first,
// then worktree, index, and stash, each only when nonzero.
func writeSuffix(b *strings.Builder, st styles, workingTree, index domain.ChangeCounts, conflicts, stash int) {
	if !workingTree.Any() && !index.Any() && conflicts == 0 && stash == 0 {
		return
	}
	b.WriteString(" ::")

	if conflicts != 0 {
		b.WriteString(" [" + st.conflict.Render("!"+strconv.Itoa(conflicts)) + "]")
	}
	if workingTree.Any() {
		b.WriteString(" " + st.work.Render("w") + "[")
		writeCounts(b, st, workingTree)
		b.WriteString("]")
	}
	if index.Any() {
		b.WriteString(" " + st.index.Render("i") + "[")
		writeCounts(b, st, index)
		b.WriteString("]")
	}
	if stash != 0 {
		b.WriteString(" " + st.stash.Render("s") + "[" + strconv.Itoa(stash) + "]")
	}
}

// writeCounts emits the nonzero kinds in declaration order, each as its
// sigil followed by the count, with no separators.
func writeCounts(b *strings.Builder, st styles, counts domain.ChangeCounts) {
	for _, kind := range domain.ChangeKinds {
		n := counts.Count(kind)
		if n == 0 {
			continue
		}
		b.WriteString(st.kinds[kind].Render(kind.Sigil() + strconv.Itoa(n)))
	}
}
