//go:build !unix

package verify

import "testing"

func makeFifo(t *testing.T, path string) {
	t.Skip("named pipes are not supported on this platform")
}
