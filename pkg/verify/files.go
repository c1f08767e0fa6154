package verify

import (
	"context"

	"github.com/sdejongh/backupverify/pkg/compare"
	"github.com/sdejongh/backupverify/pkg/models"
)

// compareFiles counts both files and runs the content tiers on them
func (v *Verifier) compareFiles(ctx context.Context, rel string, o, b models.Entry) error {
	v.stats.AddOrigItem()
	v.stats.AddBackupItem()

	origPath, backupPath := v.orig.FullPath(rel), v.backup.FullPath(rel)
	v.debug(VerbosityFiles, "Comparing file [%s] to [%s]", origPath, backupPath)

	cmp, err := v.content.Compare(ctx, v.orig, v.backup, rel, o.Size, b.Size)
	if err != nil {
		return err
	}

	for _, f := range cmp.Errors {
		v.record(ctx, f, true)
		v.stats.AddError()
	}

	if cmp.OrigDigest != "" {
		v.debug(VerbosityFiles, "BLAKE3 %s [%s]", cmp.OrigDigest, origPath)
		v.debug(VerbosityFiles, "BLAKE3 %s [%s]", cmp.BackupDigest, backupPath)
	}

	switch cmp.Result {
	case compare.Different:
		v.record(ctx, models.Finding{Label: models.LabelDifferentFile, Reason: cmp.Reason, Path: origPath}, true)
		v.stats.AddDifference()
	case compare.Same:
		v.stats.AddSimilarity()
	}
	return nil
}
