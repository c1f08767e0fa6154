package verify

import (
	"context"
	"sort"

	"github.com/sdejongh/backupverify/pkg/models"
)

// compareDirectories counts both directories and walks their children.
// Names present on one side only go to the reporter; original names are
// visited in sorted order, then the leftover backup names in sorted order.
func (v *Verifier) compareDirectories(ctx context.Context, rel string, o, b models.Entry) error {
	origPath := v.orig.FullPath(rel)
	v.debug(VerbosityDirs, "Comparing [%s] to [%s]", origPath, v.backup.FullPath(rel))

	v.stats.AddOrigItem()
	v.stats.AddBackupItem()

	if v.onOtherFilesystem(o, models.Missing) || v.onOtherFilesystem(b, models.Extra) {
		v.record(ctx, models.Finding{Label: models.LabelDifferentFS, Path: origPath}, true)
		v.stats.AddSkipped()
		return nil
	}

	v.stats.AddSimilarity()

	backupNames := make(map[string]struct{}, len(b.Children))
	for _, name := range b.Children {
		backupNames[name] = struct{}{}
	}

	for _, name := range o.Children {
		child := join(rel, name)
		if _, ok := backupNames[name]; ok {
			delete(backupNames, name)
			if err := v.compare(ctx, child, false); err != nil {
				return err
			}
			continue
		}
		if err := v.report(ctx, child, models.Missing, false, true); err != nil {
			return err
		}
	}

	extras := make([]string, 0, len(backupNames))
	for name := range backupNames {
		extras = append(extras, name)
	}
	sort.Strings(extras)

	for _, name := range extras {
		if err := v.report(ctx, join(rel, name), models.Extra, false, true); err != nil {
			return err
		}
	}
	return nil
}
