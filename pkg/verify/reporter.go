package verify

import (
	"context"

	"github.com/sdejongh/backupverify/pkg/models"
)

// report counts and announces a subtree that exists on one side only.
// The entry has not been counted on entry. Descendants are announced only
// at file verbosity but are always counted and recorded.
func (v *Verifier) report(ctx context.Context, rel string, d models.Direction, follow, print bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	backend := v.side(d)
	path := backend.FullPath(rel)

	if v.opts.Ignore.Contains(rel) {
		v.record(ctx, models.Finding{Label: models.LabelSkip, Path: path}, print)
		v.stats.AddSkipped()
		return nil
	}

	v.stats.AddItem(d)

	e, err := Load(ctx, backend, rel, follow)
	if err != nil {
		return err
	}

	switch e.Kind {
	case models.KindError:
		v.record(ctx, models.Finding{Label: models.LabelError, Path: path, Detail: e.Err.Error()}, true)
		v.stats.AddError()
		return nil
	case models.KindDangling:
		v.record(ctx, models.Finding{Label: models.LabelDangling, Path: path}, true)
		v.stats.AddError()
		return nil
	case models.KindSpecial:
		v.record(ctx, models.Finding{Label: models.LabelSpecial, Path: path}, print)
		v.stats.AddSpecial()
		return nil
	}

	if v.onOtherFilesystem(e, d) {
		v.record(ctx, models.Finding{Label: models.LabelDifferentFS, Path: path}, true)
		v.stats.AddSkipped()
		return nil
	}

	v.record(ctx, models.Finding{Label: d.Label(e.Kind), Path: path}, print)
	v.stats.AddOneSided(d)

	printChildren := v.opts.Verbosity >= VerbosityFiles

	switch e.Kind {
	case models.KindDir:
		for _, name := range e.Children {
			if err := v.report(ctx, join(rel, name), d, false, printChildren); err != nil {
				return err
			}
		}
	case models.KindSymlink:
		if v.opts.Follow {
			return v.report(ctx, rel, d, true, printChildren)
		}
	}
	return nil
}
