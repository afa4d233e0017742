// Package domain holds the value types a repository classification is
// built from. Everything in this package is immutable after
// construction and computed fresh on every invocation.
package domain

// ChangeKind classifies a single tracked-file change.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeModify
	ChangeDelete
	ChangeRename
	ChangeTypeChange

	numChangeKinds
)

// ChangeKinds lists every kind in declaration order. Rendering iterates
// this slice, so the order is part of the output contract.
var ChangeKinds = [...]ChangeKind{
	ChangeAdd,
	ChangeModify,
	ChangeDelete,
	ChangeRename,
	ChangeTypeChange,
}

// Sigil returns the one-character marker used when rendering the kind.
func (k ChangeKind) Sigil() string {
	switch k {
	case ChangeAdd:
		return "+"
	case ChangeModify:
		return "~"
	case ChangeDelete:
		return "-"
	case ChangeRename:
		return "*"
	case ChangeTypeChange:
		return "?"
	}
	return ""
}

// String returns a stable name for diagnostics.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeModify:
		return "modify"
	case ChangeDelete:
		return "delete"
	case ChangeRename:
		return "rename"
	case ChangeTypeChange:
		return "typechange"
	}
	return "unknown"
}

// ChangeCounts is a fixed-domain multiset over the five change kinds.
// The zero value is ready to use with every count at zero.
type ChangeCounts struct {
	counts [numChangeKinds]int
}

// Increment adds one occurrence of kind.
func (c *ChangeCounts) Increment(kind ChangeKind) {
	c.counts[kind]++
}

// Count reports how many occurrences of kind were recorded.
func (c ChangeCounts) Count(kind ChangeKind) int {
	return c.counts[kind]
}

// Any reports whether any kind has a nonzero count.
func (c ChangeCounts) Any() bool {
	for _, n := range c.counts {
		if n != 0 {
			return true
		}
	}
	return false
}
