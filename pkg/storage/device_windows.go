//go:build windows

package storage

import "os"

// deviceOf is unsupported on Windows; every entry reports device 0,
// so one-filesystem mode never splits a tree there.
func deviceOf(info os.FileInfo) uint64 {
	return 0
}
