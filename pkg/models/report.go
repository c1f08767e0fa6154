package models

import (
	"time"
)

// Process exit codes
const (
	ExitClean       = 0
	ExitFindings    = 1
	ExitStartup     = 2
	ExitInterrupted = 130
)

// RunReport represents the results of one verification run
type RunReport struct {
	// Run details
	RunID        string
	OriginalRoot string
	BackupRoot   string
	Options      RunOptions

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Final counters
	Stats StatsSnapshot

	// Every non-debug event, including those hidden by verbosity
	Findings []Finding

	Interrupted bool
}

// RunOptions records the switches a run was made with
type RunOptions struct {
	Samples       int  `json:"samples"`
	HashAll       bool `json:"hash_all"`
	Follow        bool `json:"follow"`
	OneFilesystem bool `json:"one_filesystem"`
	Verbosity     int  `json:"verbosity"`

	// BandwidthLimit is the hashing read limit in bytes per second, 0 when unlimited
	BandwidthLimit int64 `json:"bandwidth_limit,omitempty"`
}

// ExitCode returns the process exit code for the report
func (r *RunReport) ExitCode() int {
	if r.Interrupted {
		return ExitInterrupted
	}
	return ExitCodeFor(r.Stats)
}

// ExitCodeFor maps final counters to 0 or 1
func ExitCodeFor(s StatsSnapshot) int {
	if s.Clean() {
		return ExitClean
	}
	return ExitFindings
}
