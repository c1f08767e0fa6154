package storage

import (
	"errors"
	"io/fs"
	"os"
)

// Describe returns the underlying OS message of an error, without the
// operation and path prefix that fs.PathError adds.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Err.Error()
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Err.Error()
	}

	return err.Error()
}
