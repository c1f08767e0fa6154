package verify

import (
	"context"
	"fmt"

	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/storage"
)

// compareSymlinks compares the stored targets of two symlinks and, in follow
// mode, the entries they resolve to. Target comparison always happens first.
// When one target cannot be read, the other symlink is reported as present
// on its side only.
func (v *Verifier) compareSymlinks(ctx context.Context, rel string) error {
	origPath, backupPath := v.orig.FullPath(rel), v.backup.FullPath(rel)

	origTarget, err := v.orig.Readlink(ctx, rel)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		v.stats.AddOrigItem()
		v.record(ctx, models.Errorf(origPath, "Cannot read symlink target for [%s]: %s", origPath, storage.Describe(err)), true)
		v.stats.AddError()
		return v.report(ctx, rel, models.Extra, false, true)
	}

	backupTarget, err := v.backup.Readlink(ctx, rel)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		v.stats.AddBackupItem()
		v.record(ctx, models.Errorf(backupPath, "Cannot read symlink target for [%s]: %s", backupPath, storage.Describe(err)), true)
		v.stats.AddError()
		return v.report(ctx, rel, models.Missing, false, true)
	}

	v.stats.AddOrigItem()
	v.stats.AddBackupItem()

	if origTarget != backupTarget {
		v.record(ctx, models.Finding{
			Label:  models.LabelSymlinkTarget,
			Path:   origPath,
			Detail: fmt.Sprintf("targets differ: %q vs %q", origTarget, backupTarget),
		}, true)
		v.stats.AddDifference()
	} else {
		v.stats.AddSimilarity()
	}

	if !v.opts.Follow {
		v.record(ctx, models.Finding{
			Label:  models.LabelSymlink,
			Path:   origPath,
			Detail: "symlink, use --follow to compare content",
		}, true)
		v.stats.AddSkipped()
		return nil
	}

	return v.compare(ctx, rel, true)
}
