package domain

// RepoState is the classification result: exactly one of the five
// variants below. The renderer type-switches over it and treats an
// unknown variant as a programming error, which keeps the set closed.
type RepoState interface {
	repoState()
}

// Headless is a repository with no commits yet; HEAD cannot resolve.
type Headless struct {
	WorkingTree ChangeCounts
	Index       ChangeCounts
	Stash       int
}

// Clean is a resolved branch with no changes and no conflict.
type Clean struct {
	Head  Branch
	Stash int
}

// Detached is a checkout pointing directly at a commit or tag.
type Detached struct {
	Head        DetachedRef
	WorkingTree ChangeCounts
	Index       ChangeCounts
	Stash       int
}

// Working is a resolved branch with staged or unstaged changes.
type Working struct {
	Branch      Branch
	WorkingTree ChangeCounts
	Index       ChangeCounts
	Stash       int
}

// Conflicted is an unresolved merge or rebase in progress. Conflicts
// is strictly positive by construction: the classifier only enters the
// conflict path when the tally is nonzero.
type Conflicted struct {
	Kind        ConflictKind
	Source      ConflictRef
	Target      ConflictRef
	WorkingTree ChangeCounts
	Index       ChangeCounts
	Conflicts   int
	Stash       int
}

func (Headless) repoState()   {}
func (Clean) repoState()      {}
func (Detached) repoState()   {}
func (Working) repoState()    {}
func (Conflicted) repoState() {}
