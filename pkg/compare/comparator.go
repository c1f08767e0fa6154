package compare

import (
	"io"

	"github.com/sdejongh/backupverify/pkg/models"
)

// Result represents the outcome of comparing two files
type Result int

const (
	// Same indicates every enabled tier matched
	Same Result = iota
	// Different indicates a tier found a mismatch; see Comparison.Reason
	Different
	// Void indicates a read failure; the failures are in Comparison.Errors
	Void
)

// String returns the result name
func (r Result) String() string {
	switch r {
	case Same:
		return "same"
	case Different:
		return "different"
	case Void:
		return "void"
	default:
		return "unknown"
	}
}

// Comparison holds the result of comparing two files
type Comparison struct {
	OrigPath   string
	BackupPath string
	Result     Result

	// Reason is the first tier that mismatched
	Reason models.Reason

	// Errors holds one ERROR finding per failing side, in original-then-backup order
	Errors []models.Finding

	// Digests are the hex BLAKE3 sums, set when the hash tier completed on both sides
	OrigDigest   string
	BackupDigest string
}

// ReaderWrapper wraps content readers (e.g., for rate limiting)
type ReaderWrapper func(io.Reader) io.Reader
