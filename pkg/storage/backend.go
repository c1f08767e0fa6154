package storage

import (
	"context"
	"io"
	"io/fs"
)

// FileInfo represents metadata about a single path
type FileInfo struct {
	Path string
	Size int64
	Mode fs.FileMode
	// Dev is the ID of the device holding the entry, 0 when unknown
	Dev uint64
}

// IsDir reports whether the entry is a directory
func (fi *FileInfo) IsDir() bool { return fi.Mode.IsDir() }

// IsRegular reports whether the entry is a regular file
func (fi *FileInfo) IsRegular() bool { return fi.Mode.IsRegular() }

// IsSymlink reports whether the entry is a symbolic link
func (fi *FileInfo) IsSymlink() bool { return fi.Mode&fs.ModeSymlink != 0 }

// File is an open regular file supporting streaming and positional reads
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer
}

// Backend defines the read-only operations the verifier needs from one tree.
// Paths are relative to the backend root; "" or "." is the root itself.
type Backend interface {
	// Root returns the absolute root path of the tree
	Root() string

	// FullPath joins a relative path onto the root
	FullPath(path string) string

	// Lstat returns metadata without following a terminal symlink
	Lstat(ctx context.Context, path string) (*FileInfo, error)

	// Stat returns metadata of the entry a symlink resolves to
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ReadDirNames lists the names in a directory, in no particular order
	ReadDirNames(ctx context.Context, path string) ([]string, error)

	// Readlink returns the target of a symlink as stored
	Readlink(ctx context.Context, path string) (string, error)

	// Open opens a regular file for reading
	Open(ctx context.Context, path string) (File, error)

	// Close releases any resources held by the backend
	Close() error
}
