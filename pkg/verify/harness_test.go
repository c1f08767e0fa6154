package verify

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sdejongh/backupverify/pkg/compare"
	"github.com/sdejongh/backupverify/pkg/models"
	"github.com/sdejongh/backupverify/pkg/storage"
	"github.com/stretchr/testify/require"
)

// ============== Tree fixtures ==============

type nodeKind int

const (
	nodeFile nodeKind = iota
	nodeDir
	nodeLink
	nodeFifo
)

type node struct {
	kind nodeKind
	name string
	data string
}

func file(name, data string) node   { return node{kind: nodeFile, name: name, data: data} }
func dir(name string) node          { return node{kind: nodeDir, name: name} }
func link(name, target string) node { return node{kind: nodeLink, name: name, data: target} }
func fifo(name string) node         { return node{kind: nodeFifo, name: name} }

func buildTree(t *testing.T, root string, nodes []node) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0755))

	for _, n := range nodes {
		path := filepath.Join(root, filepath.FromSlash(n.name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

		switch n.kind {
		case nodeFile:
			require.NoError(t, os.WriteFile(path, []byte(n.data), 0644))
		case nodeDir:
			require.NoError(t, os.MkdirAll(path, 0755))
		case nodeLink:
			if err := os.Symlink(n.data, path); err != nil {
				t.Skipf("symlinks not supported: %v", err)
			}
		case nodeFifo:
			makeFifo(t, path)
		}
	}
}

// ============== Event recorder ==============

type recordedEvent struct {
	finding models.Finding
	visible bool
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Event(f models.Finding, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{finding: f, visible: visible})
}

func (r *recorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ============== Fault injection ==============

func denied(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrPermission}
}

// faultyBackend fails selected operations on selected relative paths so
// unreadable entries can be simulated regardless of the test user.
type faultyBackend struct {
	storage.Backend
	statErrs     map[string]error
	readDirErrs  map[string]error
	readlinkErrs map[string]error
	openErrs     map[string]error
	devs         map[string]uint64
}

func newFaulty(b storage.Backend) *faultyBackend {
	return &faultyBackend{
		Backend:      b,
		statErrs:     map[string]error{},
		readDirErrs:  map[string]error{},
		readlinkErrs: map[string]error{},
		openErrs:     map[string]error{},
		devs:         map[string]uint64{},
	}
}

func (f *faultyBackend) adjust(path string, info *storage.FileInfo) *storage.FileInfo {
	if info == nil {
		return nil
	}
	if dev, ok := f.devs[path]; ok {
		copied := *info
		copied.Dev = dev
		return &copied
	}
	return info
}

func (f *faultyBackend) Lstat(ctx context.Context, path string) (*storage.FileInfo, error) {
	if err, ok := f.statErrs[path]; ok {
		return nil, err
	}
	info, err := f.Backend.Lstat(ctx, path)
	return f.adjust(path, info), err
}

func (f *faultyBackend) Stat(ctx context.Context, path string) (*storage.FileInfo, error) {
	if err, ok := f.statErrs[path]; ok {
		return nil, err
	}
	info, err := f.Backend.Stat(ctx, path)
	return f.adjust(path, info), err
}

func (f *faultyBackend) ReadDirNames(ctx context.Context, path string) ([]string, error) {
	if err, ok := f.readDirErrs[path]; ok {
		return nil, err
	}
	return f.Backend.ReadDirNames(ctx, path)
}

func (f *faultyBackend) Readlink(ctx context.Context, path string) (string, error) {
	if err, ok := f.readlinkErrs[path]; ok {
		return "", err
	}
	return f.Backend.Readlink(ctx, path)
}

func (f *faultyBackend) Open(ctx context.Context, path string) (storage.File, error) {
	if err, ok := f.openErrs[path]; ok {
		return nil, err
	}
	return f.Backend.Open(ctx, path)
}

// ============== Harness ==============

type harness struct {
	t      *testing.T
	orig   *faultyBackend
	backup *faultyBackend
	rec    *recorder
	v      *Verifier
}

func newHarness(t *testing.T, origNodes, backupNodes []node) *harness {
	t.Helper()

	base := t.TempDir()
	origDir := filepath.Join(base, "a")
	backupDir := filepath.Join(base, "b")
	buildTree(t, origDir, origNodes)
	buildTree(t, backupDir, backupNodes)

	orig, err := storage.NewLocal(origDir)
	require.NoError(t, err)
	backup, err := storage.NewLocal(backupDir)
	require.NoError(t, err)

	return &harness{
		t:      t,
		orig:   newFaulty(orig),
		backup: newFaulty(backup),
		rec:    &recorder{},
	}
}

func (h *harness) run(ctx context.Context, opts Options, content compare.Options) error {
	h.v = New(h.orig, h.backup, compare.NewContentComparer(content), h.rec, nil, opts)
	return h.v.Run(ctx)
}

func (h *harness) stats() models.StatsSnapshot {
	return h.v.Stats().Snapshot()
}

// short renders a path as a/... or b/... depending on its tree
func (h *harness) short(path string) string {
	for prefix, root := range map[string]string{"a": h.orig.Root(), "b": h.backup.Root()} {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(filepath.Join(prefix, rel))
	}
	return path
}

// brief renders a finding as "LABEL[ [REASON]]: a/path" without its detail
func (h *harness) brief(f models.Finding) string {
	head := string(f.Label)
	if f.Reason != "" {
		head += " [" + string(f.Reason) + "]"
	}
	return head + ": " + h.short(f.Path)
}

// lines returns the visible non-debug findings in emission order
func (h *harness) lines() []string {
	var out []string
	for _, e := range h.rec.all() {
		if e.visible && !e.finding.IsDebug() {
			out = append(out, h.brief(e.finding))
		}
	}
	return out
}

// recorded returns every non-debug finding, visible or not
func (h *harness) recorded() []string {
	var out []string
	for _, e := range h.rec.all() {
		if !e.finding.IsDebug() {
			out = append(out, h.brief(e.finding))
		}
	}
	return out
}

// debugLines returns the DEBUG messages in emission order
func (h *harness) debugLines() []string {
	var out []string
	for _, e := range h.rec.all() {
		if e.finding.IsDebug() {
			out = append(out, e.finding.Detail)
		}
	}
	return out
}

func (h *harness) countLabel(label models.Label) int {
	n := 0
	for _, e := range h.rec.all() {
		if e.finding.Label == label {
			n++
		}
	}
	return n
}

func swapSides(s models.StatsSnapshot) models.StatsSnapshot {
	s.OrigItems, s.BackupItems = s.BackupItems, s.OrigItems
	s.Missing, s.Extras = s.Extras, s.Missing
	return s
}
