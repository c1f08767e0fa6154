//go:build unix

package verify

import (
	"syscall"
	"testing"
)

func makeFifo(t *testing.T, path string) {
	t.Helper()
	if err := syscall.Mkfifo(path, 0644); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}
}
