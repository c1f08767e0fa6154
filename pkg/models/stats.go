package models

import "sync/atomic"

// Stats accumulates verification counters.
// Counters only grow; they are atomic so an interrupt handler may read them
// while the traversal is still running.
type Stats struct {
	origItems    atomic.Int64
	backupItems  atomic.Int64
	similarities atomic.Int64
	differences  atomic.Int64
	missing      atomic.Int64
	extras       atomic.Int64
	skipped      atomic.Int64
	errors       atomic.Int64
	special      atomic.Int64
}

// NewStats creates a zeroed counter set
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) AddOrigItem()   { s.origItems.Add(1) }
func (s *Stats) AddBackupItem() { s.backupItems.Add(1) }
func (s *Stats) AddSimilarity() { s.similarities.Add(1) }
func (s *Stats) AddDifference() { s.differences.Add(1) }
func (s *Stats) AddMissing()    { s.missing.Add(1) }
func (s *Stats) AddExtra()      { s.extras.Add(1) }
func (s *Stats) AddSkipped()    { s.skipped.Add(1) }
func (s *Stats) AddError()      { s.errors.Add(1) }
func (s *Stats) AddSpecial()    { s.special.Add(1) }

// AddItem counts one item on the side the direction refers to
func (s *Stats) AddItem(d Direction) {
	if d == Extra {
		s.AddBackupItem()
		return
	}
	s.AddOrigItem()
}

// AddOneSided counts a missing or extra entry
func (s *Stats) AddOneSided(d Direction) {
	if d == Extra {
		s.AddExtra()
		return
	}
	s.AddMissing()
}

// Snapshot returns a point-in-time copy of all counters
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		OrigItems:    s.origItems.Load(),
		BackupItems:  s.backupItems.Load(),
		Similarities: s.similarities.Load(),
		Differences:  s.differences.Load(),
		Missing:      s.missing.Load(),
		Extras:       s.extras.Load(),
		Skipped:      s.skipped.Load(),
		Errors:       s.errors.Load(),
		Special:      s.special.Load(),
	}
}

// StatsSnapshot is a plain copy of Stats
type StatsSnapshot struct {
	OrigItems    int64 `json:"original_items"`
	BackupItems  int64 `json:"backup_items"`
	Similarities int64 `json:"similarities"`
	Differences  int64 `json:"differences"`
	Missing      int64 `json:"missing"`
	Extras       int64 `json:"extras"`
	Skipped      int64 `json:"skipped"`
	Errors       int64 `json:"errors"`
	Special      int64 `json:"special_files"`
}

// MissingPercent is Missing relative to original items, 0 when there are none
func (s StatsSnapshot) MissingPercent() float64 {
	return percentOf(s.Missing, s.OrigItems)
}

// DifferentPercent is Differences relative to original items, 0 when there are none
func (s StatsSnapshot) DifferentPercent() float64 {
	return percentOf(s.Differences, s.OrigItems)
}

// Clean reports whether the run found nothing to complain about
func (s StatsSnapshot) Clean() bool {
	return s.Missing == 0 && s.Differences == 0 && s.Extras == 0 &&
		s.Special == 0 && s.Errors == 0
}

func percentOf(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
