package models

// EntryKind classifies a path on one side of the comparison
type EntryKind int

const (
	// KindError means the path could not be classified
	KindError EntryKind = iota
	// KindDangling means a followed symlink points at nothing
	KindDangling
	// KindSpecial covers devices, sockets, FIFOs and other non-regular entries
	KindSpecial
	// KindFile is a regular file
	KindFile
	// KindDir is a directory whose children could be listed
	KindDir
	// KindSymlink is an unfollowed symlink
	KindSymlink
)

// String returns the lowercase kind name used in mismatch messages
func (k EntryKind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindDangling:
		return "dangling"
	case KindSpecial:
		return "special"
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is the result of classifying one path.
// Only the fields relevant to Kind are set.
type Entry struct {
	Kind EntryKind

	// Err is the cause when Kind is KindError
	Err error

	// Size in bytes when Kind is KindFile
	Size int64

	// Dev is the device ID of the entry when Kind is KindDir
	Dev uint64

	// Children are the bytewise sorted names when Kind is KindDir
	Children []string
}

// IsConcrete reports whether the entry is a file, directory or symlink
func (e Entry) IsConcrete() bool {
	return e.Kind == KindFile || e.Kind == KindDir || e.Kind == KindSymlink
}

// Direction says which side a one-sided subtree lives on
type Direction int

const (
	// Missing marks entries present in the original only
	Missing Direction = iota
	// Extra marks entries present in the backup only
	Extra
)

// Prefix returns the label prefix for the direction
func (d Direction) Prefix() string {
	if d == Extra {
		return "EXTRA"
	}
	return "MISSING"
}

// Label returns the event label for an entry of the given kind
func (d Direction) Label(kind EntryKind) Label {
	switch kind {
	case KindDir:
		return Label(d.Prefix() + "-DIR")
	case KindSymlink:
		return Label(d.Prefix() + "-SYMLINK")
	default:
		return Label(d.Prefix() + "-FILE")
	}
}

// String returns the direction name
func (d Direction) String() string {
	if d == Extra {
		return "extra"
	}
	return "missing"
}
