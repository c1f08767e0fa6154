package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend rooted at a directory
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

// FullPath joins a relative path onto the root
func (l *Local) FullPath(path string) string {
	if path == "" || path == "." {
		return l.rootPath
	}
	return filepath.Join(l.rootPath, path)
}

// Lstat returns metadata without following a terminal symlink.
// Errors are returned unwrapped so callers can render the OS message as is.
func (l *Local) Lstat(ctx context.Context, path string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := l.FullPath(path)
	info, err := os.Lstat(fullPath)
	if err != nil {
		return nil, err
	}
	return toFileInfo(fullPath, info), nil
}

// Stat returns metadata of the entry the path resolves to
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := l.FullPath(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}
	return toFileInfo(fullPath, info), nil
}

// ReadDirNames lists the entry names of a directory
func (l *Local) ReadDirNames(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.Open(l.FullPath(path))
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	return dir.Readdirnames(-1)
}

// Readlink returns the stored target of a symlink
func (l *Local) Readlink(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return os.Readlink(l.FullPath(path))
}

// Open opens a regular file for reading
func (l *Local) Open(ctx context.Context, path string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(l.FullPath(path))
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func toFileInfo(fullPath string, info os.FileInfo) *FileInfo {
	return &FileInfo{
		Path: fullPath,
		Size: info.Size(),
		Mode: info.Mode(),
		Dev:  deviceOf(info),
	}
}
