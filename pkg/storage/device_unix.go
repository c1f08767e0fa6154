//go:build !windows

package storage

import (
	"os"
	"syscall"
)

// deviceOf extracts the device ID from platform stat data
func deviceOf(info os.FileInfo) uint64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(stat.Dev)
}
