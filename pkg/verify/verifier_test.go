package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/backupverify/pkg/compare"
	"github.com/sdejongh/backupverify/pkg/logging"
	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============== Tree comparison matrix ==============

type treeCase struct {
	name    string
	orig    []node
	backup  []node
	opts    Options
	content compare.Options
	lines   []string
	want    models.StatsSnapshot
}

var treeCases = []treeCase{
	{
		name: "empty directories",
		want: models.StatsSnapshot{OrigItems: 1, BackupItems: 1, Similarities: 1},
	},
	{
		name:   "identical tree",
		orig:   []node{file("hello.txt", "hello world\n"), dir("sub"), file("sub/nested.txt", "nested file\n")},
		backup: []node{file("hello.txt", "hello world\n"), dir("sub"), file("sub/nested.txt", "nested file\n")},
		want:   models.StatsSnapshot{OrigItems: 4, BackupItems: 4, Similarities: 4},
	},
	{
		name:   "missing file",
		orig:   []node{file("exists.txt", "I exist\n"), file("also_here.txt", "me too\n")},
		backup: []node{file("exists.txt", "I exist\n")},
		lines:  []string{"MISSING-FILE: a/also_here.txt"},
		want:   models.StatsSnapshot{OrigItems: 3, BackupItems: 2, Similarities: 2, Missing: 1},
	},
	{
		name:   "extra file and directory",
		orig:   []node{file("base.txt", "base content\n")},
		backup: []node{file("base.txt", "base content\n"), file("extra.txt", "extra\n"), file("extra_dir/file.txt", "x\n")},
		lines:  []string{"EXTRA-FILE: b/extra.txt", "EXTRA-DIR: b/extra_dir"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 5, Similarities: 2, Extras: 3},
	},
	{
		name:   "different size",
		orig:   []node{file("file.txt", "short")},
		backup: []node{file("file.txt", "this is a longer string")},
		lines:  []string{"DIFFERENT-FILE [SIZE]: a/file.txt"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Differences: 1},
	},
	{
		name:   "same size without content checks",
		orig:   []node{file("file.txt", "aaaa")},
		backup: []node{file("file.txt", "bbbb")},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 2},
	},
	{
		name:    "same size caught by sampling",
		orig:    []node{file("file.txt", "aaaa")},
		backup:  []node{file("file.txt", "bbbb")},
		content: compare.Options{Samples: 1},
		lines:   []string{"DIFFERENT-FILE [SAMPLE]: a/file.txt"},
		want:    models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Differences: 1},
	},
	{
		name:    "same size caught by hashing",
		orig:    []node{file("file.txt", "aaaa")},
		backup:  []node{file("file.txt", "bbbb")},
		content: compare.Options{HashAll: true},
		lines:   []string{"DIFFERENT-FILE [HASH]: a/file.txt"},
		want:    models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Differences: 1},
	},
	{
		name:   "file versus directory",
		orig:   []node{file("entry", "contents")},
		backup: []node{dir("entry"), file("entry/child", "data")},
		lines:  []string{"DIFFERENT-FILE [TYPE]: a/entry", "MISSING-FILE: a/entry", "EXTRA-DIR: b/entry"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 3, Similarities: 1, Differences: 1, Missing: 1, Extras: 2},
	},
	{
		name:   "file versus directory at file verbosity",
		orig:   []node{file("entry", "contents")},
		backup: []node{dir("entry"), file("entry/child", "data")},
		opts:   Options{Verbosity: VerbosityFiles},
		lines:  []string{"DIFFERENT-FILE [TYPE]: a/entry", "MISSING-FILE: a/entry", "EXTRA-DIR: b/entry", "EXTRA-FILE: b/entry/child"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 3, Similarities: 1, Differences: 1, Missing: 1, Extras: 2},
	},
	{
		name:  "missing directory",
		orig:  []node{dir("entry"), file("entry/child", "data")},
		lines: []string{"MISSING-DIR: a/entry"},
		want:  models.StatsSnapshot{OrigItems: 3, BackupItems: 1, Similarities: 1, Missing: 2},
	},
	{
		name:   "file versus symlink",
		orig:   []node{file("entry", "contents")},
		backup: []node{link("entry", "target"), file("target", "contents")},
		lines:  []string{"DIFFERENT-SYMLINK-STATUS: a/entry", "MISSING-FILE: a/entry", "EXTRA-SYMLINK: b/entry", "EXTRA-FILE: b/target"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 3, Similarities: 1, Differences: 1, Missing: 1, Extras: 2},
	},
	{
		name:   "file versus symlink with follow",
		orig:   []node{file("entry", "contents")},
		backup: []node{link("entry", "target"), file("target", "contents")},
		opts:   Options{Follow: true},
		lines:  []string{"DIFFERENT-SYMLINK-STATUS: a/entry", "MISSING-FILE: a/entry", "EXTRA-SYMLINK: b/entry", "EXTRA-FILE: b/target"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 4, Similarities: 1, Differences: 1, Missing: 1, Extras: 3},
	},
	{
		name:   "file versus dangling symlink with follow",
		orig:   []node{file("entry", "contents")},
		backup: []node{link("entry", "nonexistent")},
		opts:   Options{Follow: true},
		lines:  []string{"DIFFERENT-SYMLINK-STATUS: a/entry", "MISSING-FILE: a/entry", "EXTRA-SYMLINK: b/entry", "DANGLING-SYMLINK: b/entry"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 3, Similarities: 1, Differences: 1, Missing: 1, Extras: 1, Errors: 1},
	},
	{
		name:   "directory versus symlink",
		orig:   []node{dir("entry"), file("entry/child", "data")},
		backup: []node{link("entry", "target"), file("target", "contents")},
		lines:  []string{"DIFFERENT-SYMLINK-STATUS: a/entry", "MISSING-DIR: a/entry", "EXTRA-SYMLINK: b/entry", "EXTRA-FILE: b/target"},
		want:   models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 1, Differences: 1, Missing: 2, Extras: 2},
	},
	{
		name:   "matching symlinks",
		orig:   []node{link("entry", "target"), file("target", "contents")},
		backup: []node{link("entry", "target"), file("target", "contents")},
		lines:  []string{"SYMLINK: a/entry"},
		want:   models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 3, Skipped: 1},
	},
	{
		name:   "matching symlinks with follow",
		orig:   []node{link("entry", "target"), file("target", "contents")},
		backup: []node{link("entry", "target"), file("target", "contents")},
		opts:   Options{Follow: true},
		want:   models.StatsSnapshot{OrigItems: 4, BackupItems: 4, Similarities: 4},
	},
	{
		name:   "matching directory symlinks with follow",
		orig:   []node{link("entry", "target"), file("target/child", "data")},
		backup: []node{link("entry", "target"), file("target/child", "data")},
		opts:   Options{Follow: true},
		want:   models.StatsSnapshot{OrigItems: 6, BackupItems: 6, Similarities: 6},
	},
	{
		name:   "dangling symlinks with follow",
		orig:   []node{link("entry", "nonexistent")},
		backup: []node{link("entry", "nonexistent")},
		opts:   Options{Follow: true},
		lines:  []string{"DANGLING-SYMLINK: a/entry", "DANGLING-SYMLINK: b/entry"},
		want:   models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 2, Errors: 2},
	},
	{
		name:   "symlink targets differ",
		orig:   []node{link("entry", "target-a"), file("target-a", "contents")},
		backup: []node{link("entry", "target-b"), file("target-b", "contents")},
		lines:  []string{"DIFFERENT-SYMLINK-TARGET: a/entry", "SYMLINK: a/entry", "MISSING-FILE: a/target-a", "EXTRA-FILE: b/target-b"},
		want:   models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 1, Differences: 1, Missing: 1, Extras: 1, Skipped: 1},
	},
	{
		name:   "symlink targets differ but resolve to identical files",
		orig:   []node{link("entry", "target-a"), file("target-a", "same-content")},
		backup: []node{link("entry", "target-b"), file("target-b", "same-content")},
		opts:   Options{Follow: true},
		lines:  []string{"DIFFERENT-SYMLINK-TARGET: a/entry", "MISSING-FILE: a/target-a", "EXTRA-FILE: b/target-b"},
		want:   models.StatsSnapshot{OrigItems: 4, BackupItems: 4, Similarities: 2, Differences: 1, Missing: 1, Extras: 1},
	},
	{
		name: "directory symlink targets differ with follow",
		orig: []node{
			link("entry", "target-a"),
			file("target-a/child", "data"),
			file("target-a/child2", "original"),
		},
		backup: []node{
			link("entry", "target-b"),
			file("target-b/child", "data"),
			file("target-b/child2", "different"),
		},
		opts: Options{Follow: true},
		lines: []string{
			"DIFFERENT-SYMLINK-TARGET: a/entry",
			"DIFFERENT-FILE [SIZE]: a/entry/child2",
			"MISSING-DIR: a/target-a",
			"EXTRA-DIR: b/target-b",
		},
		want: models.StatsSnapshot{OrigItems: 8, BackupItems: 8, Similarities: 3, Differences: 2, Missing: 3, Extras: 3},
	},
	{
		name:   "same target dangling on one side with follow",
		orig:   []node{link("entry", "target"), file("target", "contents")},
		backup: []node{link("entry", "target")},
		opts:   Options{Follow: true},
		lines:  []string{"DANGLING-SYMLINK: b/entry", "MISSING-FILE: a/entry", "MISSING-FILE: a/target"},
		want:   models.StatsSnapshot{OrigItems: 4, BackupItems: 3, Similarities: 2, Missing: 2, Errors: 1},
	},
	{
		name: "missing directory with mixed content",
		orig: []node{
			file("gone/f1", "1"), file("gone/f2", "2"), file("gone/f3", "3"),
			dir("gone/sub"), link("gone/broken", "nowhere"),
		},
		lines: []string{"MISSING-DIR: a/gone"},
		want:  models.StatsSnapshot{OrigItems: 7, BackupItems: 1, Similarities: 1, Missing: 6},
	},
	{
		name: "missing directory with mixed content at file verbosity",
		orig: []node{
			file("gone/f1", "1"), file("gone/f2", "2"), file("gone/f3", "3"),
			dir("gone/sub"), link("gone/broken", "nowhere"),
		},
		opts: Options{Verbosity: VerbosityFiles},
		lines: []string{
			"MISSING-DIR: a/gone",
			"MISSING-SYMLINK: a/gone/broken",
			"MISSING-FILE: a/gone/f1",
			"MISSING-FILE: a/gone/f2",
			"MISSING-FILE: a/gone/f3",
			"MISSING-DIR: a/gone/sub",
		},
		want: models.StatsSnapshot{OrigItems: 7, BackupItems: 1, Similarities: 1, Missing: 6},
	},
	{
		name:   "file versus named pipe",
		orig:   []node{file("entry", "contents")},
		backup: []node{fifo("entry")},
		lines:  []string{"NOT_A_FILE_OR_DIR: b/entry", "MISSING-FILE: a/entry"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Missing: 1, Special: 1},
	},
	{
		name:   "named pipes on both sides",
		orig:   []node{fifo("entry")},
		backup: []node{fifo("entry")},
		lines:  []string{"NOT_A_FILE_OR_DIR: a/entry", "NOT_A_FILE_OR_DIR: b/entry"},
		want:   models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Special: 2},
	},
	{
		name:  "missing named pipe",
		orig:  []node{fifo("entry")},
		lines: []string{"NOT_A_FILE_OR_DIR: a/entry"},
		want:  models.StatsSnapshot{OrigItems: 2, BackupItems: 1, Similarities: 1, Special: 1},
	},
	{
		name:   "directory versus named pipe",
		orig:   []node{dir("entry"), file("entry/child", "data")},
		backup: []node{fifo("entry")},
		lines:  []string{"NOT_A_FILE_OR_DIR: b/entry", "MISSING-DIR: a/entry"},
		want:   models.StatsSnapshot{OrigItems: 3, BackupItems: 2, Similarities: 1, Missing: 2, Special: 1},
	},
}

func TestTreeComparison(t *testing.T) {
	for _, tc := range treeCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.orig, tc.backup)
			require.NoError(t, h.run(context.Background(), tc.opts, tc.content))

			assert.Equal(t, tc.lines, h.lines())
			assert.Equal(t, tc.want, h.stats())
		})

		t.Run(tc.name+" swapped", func(t *testing.T) {
			h := newHarness(t, tc.backup, tc.orig)
			require.NoError(t, h.run(context.Background(), tc.opts, tc.content))

			assert.Equal(t, swapSides(tc.want), h.stats())
		})
	}
}

func TestRepeatedRunsAreIdentical(t *testing.T) {
	orig := []node{file("a.txt", "one"), file("d/b.txt", "two"), link("l", "a.txt")}
	backup := []node{file("a.txt", "uno"), file("d/c.txt", "three"), link("l", "d")}

	h := newHarness(t, orig, backup)
	require.NoError(t, h.run(context.Background(), Options{Verbosity: VerbosityFiles}, compare.Options{}))
	firstStats, firstEvents := h.stats(), h.rec.all()

	h.rec = &recorder{}
	require.NoError(t, h.run(context.Background(), Options{Verbosity: VerbosityFiles}, compare.Options{}))

	assert.Equal(t, firstStats, h.stats())
	assert.Equal(t, firstEvents, h.rec.all())
}

func TestEmptyDirectoriesAreClean(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))

	snap := h.stats()
	assert.True(t, snap.Clean())
	assert.Equal(t, models.ExitClean, models.ExitCodeFor(snap))
	assert.Equal(t, 0.0, snap.MissingPercent())
	assert.Equal(t, 0.0, snap.DifferentPercent())
}

// ============== Debug output ==============

func TestDebugLines(t *testing.T) {
	tree := []node{file("f.txt", "data"), dir("sub")}

	t.Run("Silent by default", func(t *testing.T) {
		h := newHarness(t, tree, tree)
		require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))
		assert.Empty(t, h.debugLines())
	})

	t.Run("Directories at level one", func(t *testing.T) {
		h := newHarness(t, tree, tree)
		require.NoError(t, h.run(context.Background(), Options{Verbosity: VerbosityDirs}, compare.Options{}))

		assert.Equal(t, []string{
			fmt.Sprintf("Comparing [%s] to [%s]", h.orig.Root(), h.backup.Root()),
			fmt.Sprintf("Comparing [%s] to [%s]", h.orig.FullPath("sub"), h.backup.FullPath("sub")),
		}, h.debugLines())
	})

	t.Run("Files at level two", func(t *testing.T) {
		h := newHarness(t, tree, tree)
		require.NoError(t, h.run(context.Background(), Options{Verbosity: VerbosityFiles}, compare.Options{}))

		assert.Contains(t, h.debugLines(),
			fmt.Sprintf("Comparing file [%s] to [%s]", h.orig.FullPath("f.txt"), h.backup.FullPath("f.txt")))
	})
}

func TestHashDigestDebugLine(t *testing.T) {
	tree := []node{file("hello.txt", "hello world\n")}
	h := newHarness(t, tree, tree)

	require.NoError(t, h.run(context.Background(),
		Options{Verbosity: VerbosityFiles}, compare.Options{HashAll: true}))

	// BLAKE3-256 of "hello world\n"
	const digest = "dc5a4edb8240b018124052c330270696f96771a63b45250a5c17d3000e823355"

	debug := h.debugLines()
	assert.Contains(t, debug, fmt.Sprintf("BLAKE3 %s [%s]", digest, h.orig.FullPath("hello.txt")))
	assert.Contains(t, debug, fmt.Sprintf("BLAKE3 %s [%s]", digest, h.backup.FullPath("hello.txt")))
	assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 2}, h.stats())
}

// ============== Error recovery ==============

func TestUnreadableOriginalFile(t *testing.T) {
	tree := []node{file("secret.txt", "classified")}
	h := newHarness(t, tree, tree)
	h.orig.statErrs["secret.txt"] = denied("lstat", h.orig.FullPath("secret.txt"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{HashAll: true}))

	assert.Equal(t, []string{"ERROR: a/secret.txt"}, h.lines())
	assert.Equal(t, 0, h.countLabel(models.LabelExtraFile))
	assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Errors: 1}, h.stats())

	errLine := h.rec.all()[0].finding.String()
	assert.Equal(t, fmt.Sprintf("ERROR: Cannot stat [%s]: permission denied", h.orig.FullPath("secret.txt")), errLine)
}

func TestUnreadableOriginalContent(t *testing.T) {
	tree := []node{file("secret.txt", "classified")}
	h := newHarness(t, tree, tree)
	h.orig.openErrs["secret.txt"] = denied("open", h.orig.FullPath("secret.txt"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{HashAll: true}))

	assert.Equal(t, []string{"ERROR: a/secret.txt"}, h.lines())
	assert.Equal(t, 0, h.countLabel(models.LabelDifferentFile))
	assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Errors: 1}, h.stats())
	assert.Equal(t,
		fmt.Sprintf("ERROR: Cannot hash [%s]: permission denied", h.orig.FullPath("secret.txt")),
		h.rec.all()[0].finding.String())
}

func TestUnreadableSampleOnBothSides(t *testing.T) {
	tree := []node{file("f.bin", "0123456789")}
	h := newHarness(t, tree, tree)
	h.orig.openErrs["f.bin"] = denied("open", h.orig.FullPath("f.bin"))
	h.backup.openErrs["f.bin"] = denied("open", h.backup.FullPath("f.bin"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{Samples: 2}))

	assert.Equal(t, []string{"ERROR: a/f.bin", "ERROR: b/f.bin"}, h.lines())
	assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Errors: 2}, h.stats())
}

func TestUnreadableBackupFile(t *testing.T) {
	tree := []node{file("f.txt", "data")}
	h := newHarness(t, tree, tree)
	h.backup.statErrs["f.txt"] = denied("lstat", h.backup.FullPath("f.txt"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))

	assert.Equal(t, []string{"ERROR: b/f.txt"}, h.lines())
	assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Errors: 1}, h.stats())
}

func TestUnreadableBackupDirectory(t *testing.T) {
	tree := []node{file("docs/x.txt", "x"), file("docs/y.txt", "y")}
	h := newHarness(t, tree, tree)
	h.backup.readDirErrs["docs"] = denied("open", h.backup.FullPath("docs"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))

	assert.Equal(t, []string{"ERROR: b/docs", "MISSING-DIR: a/docs"}, h.lines())
	assert.Equal(t, models.StatsSnapshot{OrigItems: 4, BackupItems: 2, Similarities: 1, Missing: 3, Errors: 1}, h.stats())

	errLine := h.rec.all()[0].finding.String()
	assert.Equal(t, fmt.Sprintf("ERROR: Cannot read directory [%s]: permission denied", h.backup.FullPath("docs")), errLine)
}

func TestUnreadableOriginalDirectory(t *testing.T) {
	tree := []node{file("docs/x.txt", "x"), file("docs/y.txt", "y")}
	h := newHarness(t, tree, tree)
	h.orig.readDirErrs["docs"] = denied("open", h.orig.FullPath("docs"))

	require.NoError(t, h.run(context.Background(), Options{Verbosity: VerbosityFiles}, compare.Options{}))

	assert.Equal(t, []string{"ERROR: a/docs"}, h.lines())
	assert.Equal(t, 0, h.countLabel(models.LabelExtraDir))
	assert.Equal(t, 0, h.countLabel(models.LabelExtraFile))
	assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Errors: 1}, h.stats())
}

func TestUnreadableSymlinkTarget(t *testing.T) {
	tree := []node{link("entry", "target"), file("target", "contents")}
	h := newHarness(t, tree, tree)
	h.orig.readlinkErrs["entry"] = denied("readlink", h.orig.FullPath("entry"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))

	assert.Equal(t, []string{"ERROR: a/entry", "EXTRA-SYMLINK: b/entry"}, h.lines())
	assert.Equal(t, models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 2, Extras: 1, Errors: 1}, h.stats())
	assert.Equal(t,
		fmt.Sprintf("ERROR: Cannot read symlink target for [%s]: permission denied", h.orig.FullPath("entry")),
		h.rec.all()[0].finding.String())
}

func TestUnreadableEntryInsideMissingDirectory(t *testing.T) {
	h := newHarness(t, []node{file("gone/ok.txt", "1"), file("gone/locked.txt", "2")}, nil)
	h.orig.statErrs[filepath.Join("gone", "locked.txt")] = denied("lstat", h.orig.FullPath("gone/locked.txt"))

	require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))

	// errors stay visible below a missing directory
	assert.Equal(t, []string{"MISSING-DIR: a/gone", "ERROR: a/gone/locked.txt"}, h.lines())
	assert.Equal(t, models.StatsSnapshot{OrigItems: 4, BackupItems: 1, Similarities: 1, Missing: 2, Errors: 1}, h.stats())
}

// ============== Ignore and exclude ==============

func TestIgnoredPaths(t *testing.T) {
	t.Run("Present on both sides", func(t *testing.T) {
		h := newHarness(t, []node{file("skip.txt", "a")}, []node{file("skip.txt", "bbb")})
		ignore := NewIgnoreSet()
		ignore.AddPath("skip.txt")

		require.NoError(t, h.run(context.Background(), Options{Ignore: ignore}, compare.Options{}))

		assert.Equal(t, []string{"SKIP: a/skip.txt"}, h.lines())
		assert.Equal(t, models.StatsSnapshot{OrigItems: 1, BackupItems: 1, Similarities: 1, Skipped: 1}, h.stats())
	})

	t.Run("Backup only", func(t *testing.T) {
		h := newHarness(t, nil, []node{file("cache/blob", "x")})
		ignore := NewIgnoreSet()
		ignore.AddPath("cache")

		require.NoError(t, h.run(context.Background(), Options{Ignore: ignore}, compare.Options{}))

		assert.Equal(t, []string{"SKIP: b/cache"}, h.lines())
		assert.Equal(t, models.StatsSnapshot{OrigItems: 1, BackupItems: 1, Similarities: 1, Skipped: 1}, h.stats())
	})

	t.Run("Inside a missing directory", func(t *testing.T) {
		h := newHarness(t, []node{file("gone/ignored.txt", "1"), file("gone/other.txt", "2")}, nil)
		ignore := NewIgnoreSet()
		ignore.AddPath(filepath.Join("gone", "ignored.txt"))

		require.NoError(t, h.run(context.Background(), Options{Ignore: ignore}, compare.Options{}))

		assert.Equal(t, []string{"MISSING-DIR: a/gone"}, h.lines())
		assert.Contains(t, h.recorded(), "SKIP: a/gone/ignored.txt")
		assert.Equal(t, models.StatsSnapshot{OrigItems: 3, BackupItems: 1, Similarities: 1, Missing: 2, Skipped: 1}, h.stats())
	})
}

func TestExcludePatterns(t *testing.T) {
	orig := []node{file("keep.txt", "k"), file("x.tmp", "t"), file("sub/y.tmp", "t")}
	backup := []node{file("keep.txt", "k"), dir("sub")}

	h := newHarness(t, orig, backup)
	ignore := NewIgnoreSet()
	require.NoError(t, ignore.AddPattern("*.tmp"))

	require.NoError(t, h.run(context.Background(), Options{Ignore: ignore}, compare.Options{}))

	assert.Equal(t, []string{"SKIP: a/sub/y.tmp", "SKIP: a/x.tmp"}, h.lines())
	assert.Equal(t, models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 3, Skipped: 2}, h.stats())
}

// ============== One filesystem ==============

func TestDifferentFilesystem(t *testing.T) {
	t.Run("Both sides", func(t *testing.T) {
		tree := []node{file("mnt/child", "data")}
		h := newHarness(t, tree, tree)
		h.orig.devs["mnt"] = 0xdeadbeef

		require.NoError(t, h.run(context.Background(), Options{OneFilesystem: true}, compare.Options{}))

		assert.Equal(t, []string{"DIFFERENT-FS: a/mnt"}, h.lines())
		assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 2, Similarities: 1, Skipped: 1}, h.stats())
	})

	t.Run("Original only", func(t *testing.T) {
		h := newHarness(t, []node{file("mnt/child", "data")}, nil)
		h.orig.devs["mnt"] = 0xdeadbeef

		require.NoError(t, h.run(context.Background(), Options{OneFilesystem: true}, compare.Options{}))

		assert.Equal(t, []string{"DIFFERENT-FS: a/mnt"}, h.lines())
		assert.Equal(t, models.StatsSnapshot{OrigItems: 2, BackupItems: 1, Similarities: 1, Skipped: 1}, h.stats())
	})

	t.Run("Ignored without the flag", func(t *testing.T) {
		tree := []node{file("mnt/child", "data")}
		h := newHarness(t, tree, tree)
		h.orig.devs["mnt"] = 0xdeadbeef

		require.NoError(t, h.run(context.Background(), Options{}, compare.Options{}))

		assert.Empty(t, h.lines())
		assert.Equal(t, models.StatsSnapshot{OrigItems: 3, BackupItems: 3, Similarities: 3}, h.stats())
	})
}

// ============== Cancellation ==============

// cancelSink cancels the run when the first finding arrives
type cancelSink struct {
	recorder
	cancel context.CancelFunc
}

func (s *cancelSink) Event(f models.Finding, visible bool) {
	s.recorder.Event(f, visible)
	s.cancel()
}

func TestCancellation(t *testing.T) {
	t.Run("Before start", func(t *testing.T) {
		h := newHarness(t, []node{file("a", "1")}, []node{file("a", "1")})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := h.run(ctx, Options{}, compare.Options{})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, models.StatsSnapshot{}, h.stats())
	})

	t.Run("During traversal", func(t *testing.T) {
		h := newHarness(t, []node{file("m1", "1"), file("m2", "2"), file("m3", "3")}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sink := &cancelSink{cancel: cancel}
		v := New(h.orig, h.backup, compare.NewContentComparer(compare.Options{}), sink, nil, Options{})

		err := v.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)

		snap := v.Stats().Snapshot()
		assert.Equal(t, int64(1), snap.Missing)
		assert.Len(t, sink.all(), 1)
	})
}

// ============== Logging ==============

func TestRunLogsFindings(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.FormatText, logging.DebugLevel)

	h := newHarness(t, []node{file("lost.txt", "x")}, nil)
	v := New(h.orig, h.backup, compare.NewContentComparer(compare.Options{}), h.rec, logger, Options{})
	require.NoError(t, v.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "[INFO] verification started")
	assert.Contains(t, out, "[INFO] one-sided entry label=MISSING-FILE")
	assert.Contains(t, out, "[INFO] verification finished")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestRunLogLevelRouting(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.FormatText, logging.DebugLevel)

	h := newHarness(t, []node{
		file("changed.txt", "aa"),
		file("lost.txt", "x"),
		file("secret.txt", "classified"),
		link("entry", "target"),
		file("target", "contents"),
	}, []node{
		file("changed.txt", "b"),
		file("secret.txt", "classified"),
		link("entry", "target"),
		file("target", "contents"),
	})
	h.orig.statErrs["secret.txt"] = denied("lstat", h.orig.FullPath("secret.txt"))

	v := New(h.orig, h.backup, compare.NewContentComparer(compare.Options{}), h.rec, logger, Options{})
	require.NoError(t, v.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("[ERROR] ERROR: Cannot stat [%s]: permission denied label=ERROR path=%s",
		h.orig.FullPath("secret.txt"), h.orig.FullPath("secret.txt")))
	assert.Contains(t, out, fmt.Sprintf("[WARN] difference found label=DIFFERENT-FILE path=%s reason=SIZE",
		h.orig.FullPath("changed.txt")))
	assert.Contains(t, out, fmt.Sprintf("[DEBUG] entry skipped label=SYMLINK path=%s", h.orig.FullPath("entry")))
	assert.Contains(t, out, fmt.Sprintf("[INFO] one-sided entry label=MISSING-FILE path=%s", h.orig.FullPath("lost.txt")))

	t.Run("Warn level drops info and debug", func(t *testing.T) {
		var quiet bytes.Buffer
		logger := logging.NewWriterLogger(&quiet, logging.FormatText, logging.WarnLevel)
		v := New(h.orig, h.backup, compare.NewContentComparer(compare.Options{}), h.rec, logger, Options{})
		require.NoError(t, v.Run(context.Background()))

		out := quiet.String()
		assert.Contains(t, out, "[ERROR] ERROR: Cannot stat")
		assert.Contains(t, out, "[WARN] difference found")
		assert.NotContains(t, out, "[INFO]")
		assert.NotContains(t, out, "[DEBUG]")
	})
}
