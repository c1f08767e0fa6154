package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sdejongh/backupverify/pkg/compare"
	"github.com/sdejongh/backupverify/pkg/logging"
	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/output"
	"github.com/sdejongh/backupverify/pkg/storage"
)

// Verbosity levels
const (
	VerbositySummary = 0
	VerbosityDirs    = 1
	VerbosityFiles   = 2
)

// Options controls one verification run
type Options struct {
	Verbosity     int
	Follow        bool
	OneFilesystem bool
	Ignore        *IgnoreSet
}

// Verifier walks an original tree and its backup side by side
type Verifier struct {
	orig    storage.Backend
	backup  storage.Backend
	content *compare.ContentComparer
	sink    output.Sink
	logger  logging.Logger
	opts    Options
	stats   *models.Stats

	origRootDev   uint64
	backupRootDev uint64
}

// New creates a verifier. A nil logger discards log output.
func New(orig, backup storage.Backend, content *compare.ContentComparer, sink output.Sink, logger logging.Logger, opts Options) *Verifier {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Verifier{
		orig:    orig,
		backup:  backup,
		content: content,
		sink:    sink,
		logger:  logger,
		opts:    opts,
		stats:   models.NewStats(),
	}
}

// Stats returns the live counters
func (v *Verifier) Stats() *models.Stats {
	return v.stats
}

// Run verifies the whole tree. It returns ctx.Err() when interrupted and
// an error if a root cannot be examined; findings never produce an error.
func (v *Verifier) Run(ctx context.Context) error {
	start := time.Now()
	v.logger.Info(ctx, "verification started", logging.Fields{
		"original": v.orig.Root(),
		"backup":   v.backup.Root(),
		"follow":   v.opts.Follow,
	})

	if v.opts.OneFilesystem {
		origInfo, err := v.orig.Stat(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to stat original root: %w", err)
		}
		backupInfo, err := v.backup.Stat(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to stat backup root: %w", err)
		}
		v.origRootDev = origInfo.Dev
		v.backupRootDev = backupInfo.Dev
	}

	err := v.compare(ctx, "", false)

	snap := v.stats.Snapshot()
	fields := logging.Fields{
		"duration":     time.Since(start).String(),
		"orig_items":   snap.OrigItems,
		"backup_items": snap.BackupItems,
		"missing":      snap.Missing,
		"different":    snap.Differences,
		"extras":       snap.Extras,
		"errors":       snap.Errors,
	}
	if err != nil {
		v.logger.Warn(ctx, "verification interrupted", fields)
		return err
	}
	v.logger.Info(ctx, "verification finished", fields)
	return nil
}

// compare visits the same relative path in both trees.
// Neither side has been counted on entry; both are counted on return.
func (v *Verifier) compare(ctx context.Context, rel string, follow bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	origPath := v.orig.FullPath(rel)

	if v.opts.Ignore.Contains(rel) {
		v.record(ctx, models.Finding{Label: models.LabelSkip, Path: origPath}, true)
		v.stats.AddSkipped()
		return nil
	}

	o, err := Load(ctx, v.orig, rel, follow)
	if err != nil {
		return err
	}
	b, err := Load(ctx, v.backup, rel, follow)
	if err != nil {
		return err
	}

	origSettled := v.settleFailure(ctx, o, origPath, models.Missing)
	backupSettled := v.settleFailure(ctx, b, v.backup.FullPath(rel), models.Extra)
	if origSettled && backupSettled {
		return nil
	}

	if !origSettled {
		origSettled = v.settleSpecial(ctx, o, origPath, models.Missing)
	}
	if !backupSettled {
		backupSettled = v.settleSpecial(ctx, b, v.backup.FullPath(rel), models.Extra)
	}
	if origSettled && backupSettled {
		return nil
	}

	if o.IsConcrete() && b.IsConcrete() {
		if o.Kind == b.Kind {
			switch o.Kind {
			case models.KindFile:
				return v.compareFiles(ctx, rel, o, b)
			case models.KindDir:
				return v.compareDirectories(ctx, rel, o, b)
			case models.KindSymlink:
				return v.compareSymlinks(ctx, rel)
			}
		}
		v.recordMismatch(ctx, origPath, o, b)
	}

	return v.settleRemaining(ctx, rel, follow, o, b)
}

// settleFailure counts and reports an Error or Dangling entry
func (v *Verifier) settleFailure(ctx context.Context, e models.Entry, path string, side models.Direction) bool {
	switch e.Kind {
	case models.KindError:
		v.stats.AddItem(side)
		v.record(ctx, models.Finding{Label: models.LabelError, Path: path, Detail: e.Err.Error()}, true)
		v.stats.AddError()
		return true
	case models.KindDangling:
		v.stats.AddItem(side)
		v.record(ctx, models.Finding{Label: models.LabelDangling, Path: path}, true)
		v.stats.AddError()
		return true
	}
	return false
}

// settleSpecial counts and reports a special entry
func (v *Verifier) settleSpecial(ctx context.Context, e models.Entry, path string, side models.Direction) bool {
	if e.Kind != models.KindSpecial {
		return false
	}
	v.stats.AddItem(side)
	v.record(ctx, models.Finding{Label: models.LabelSpecial, Path: path}, true)
	v.stats.AddSpecial()
	return true
}

// recordMismatch reports two concrete entries of different kinds
func (v *Verifier) recordMismatch(ctx context.Context, origPath string, o, b models.Entry) {
	f := models.Finding{Path: origPath}
	if o.Kind == models.KindSymlink || b.Kind == models.KindSymlink {
		f.Label = models.LabelSymlinkStatus
		f.Detail = "symlink mismatch"
	} else {
		f.Label = models.LabelDifferentFile
		f.Reason = models.ReasonType
		f.Detail = o.Kind.String() + " vs " + b.Kind.String()
	}
	v.record(ctx, f, true)
	v.stats.AddDifference()
}

// settleRemaining hands sides not yet counted to the reporter.
// An unreadable original never turns its backup into an extra; an unreadable
// backup turns an original directory into a missing subtree and leaves any
// other original entry merely counted.
func (v *Verifier) settleRemaining(ctx context.Context, rel string, follow bool, o, b models.Entry) error {
	switch {
	case o.Kind == models.KindError && b.IsConcrete():
		v.stats.AddBackupItem()
		return nil

	case b.Kind == models.KindError && o.IsConcrete():
		if o.Kind == models.KindDir {
			return v.report(ctx, rel, models.Missing, follow, true)
		}
		v.stats.AddOrigItem()
		return nil
	}

	if o.IsConcrete() {
		if err := v.report(ctx, rel, models.Missing, follow, true); err != nil {
			return err
		}
	}
	if b.IsConcrete() {
		return v.report(ctx, rel, models.Extra, follow, true)
	}
	return nil
}

// side returns the backend a direction refers to
func (v *Verifier) side(d models.Direction) storage.Backend {
	if d == models.Extra {
		return v.backup
	}
	return v.orig
}

// onOtherFilesystem reports whether a directory left its side's root device
func (v *Verifier) onOtherFilesystem(e models.Entry, d models.Direction) bool {
	if !v.opts.OneFilesystem || e.Kind != models.KindDir {
		return false
	}
	if d == models.Extra {
		return e.Dev != v.backupRootDev
	}
	return e.Dev != v.origRootDev
}

func (v *Verifier) debug(level int, format string, args ...interface{}) {
	if v.opts.Verbosity >= level {
		v.sink.Event(models.Debugf(format, args...), true)
	}
}

// record emits a finding and mirrors it into the log
func (v *Verifier) record(ctx context.Context, f models.Finding, visible bool) {
	v.sink.Event(f, visible)

	fields := logging.Fields{"label": string(f.Label), "path": f.Path}
	if f.Reason != "" {
		fields["reason"] = string(f.Reason)
	}
	switch f.Label {
	case models.LabelError, models.LabelDangling:
		v.logger.Error(ctx, f.String(), nil, fields)
	case models.LabelDifferentFile, models.LabelSymlinkTarget, models.LabelSymlinkStatus, models.LabelSpecial:
		v.logger.Warn(ctx, "difference found", fields)
	case models.LabelSkip, models.LabelSymlink, models.LabelDifferentFS:
		v.logger.Debug(ctx, "entry skipped", fields)
	default:
		v.logger.Info(ctx, "one-sided entry", fields)
	}
}

func join(rel, name string) string {
	if rel == "" {
		return name
	}
	return filepath.Join(rel, name)
}
