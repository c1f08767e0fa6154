package verify

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/storage"
)

// LoadError describes why a path could not be classified
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return "Cannot " + e.Op + " [" + e.Path + "]: " + storage.Describe(e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load classifies one path of a tree.
// With follow set, a terminal symlink is dereferenced and a missing target
// yields KindDangling. The returned error is non-nil only when ctx is done;
// every filesystem failure is folded into a KindError entry.
func Load(ctx context.Context, backend storage.Backend, path string, follow bool) (models.Entry, error) {
	var info *storage.FileInfo
	var err error
	if follow {
		info, err = backend.Stat(ctx, path)
	} else {
		info, err = backend.Lstat(ctx, path)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Entry{}, ctxErr
		}
		if follow && errors.Is(err, fs.ErrNotExist) {
			return models.Entry{Kind: models.KindDangling}, nil
		}
		return models.Entry{
			Kind: models.KindError,
			Err:  &LoadError{Op: "stat", Path: backend.FullPath(path), Err: err},
		}, nil
	}

	switch {
	case info.IsSymlink():
		return models.Entry{Kind: models.KindSymlink}, nil

	case info.IsRegular():
		return models.Entry{Kind: models.KindFile, Size: info.Size}, nil

	case info.IsDir():
		names, err := backend.ReadDirNames(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return models.Entry{}, ctxErr
			}
			return models.Entry{
				Kind: models.KindError,
				Err:  &LoadError{Op: "read directory", Path: backend.FullPath(path), Err: err},
			}, nil
		}
		sort.Strings(names)
		return models.Entry{Kind: models.KindDir, Dev: info.Dev, Children: names}, nil

	default:
		return models.Entry{Kind: models.KindSpecial}, nil
	}
}
