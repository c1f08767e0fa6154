package output

import (
	"context"
	"io"
	"io/fs"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/sdejongh/backupverify/pkg/models"
	"golang.org/x/term"
)

// progressTemplate renders items done against the estimated total, plus bytes read
const progressTemplate = `{{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "bytes"}}`

// getUpdateInterval returns the refresh interval based on OS
// Windows terminals redraw slowly, so it refreshes less often
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Progress shows an item counter on a terminal while a run is in flight.
// Counts come from the live Stats; the total is estimated by a concurrent
// pre-scan of the original tree.
type Progress struct {
	bar   *pb.ProgressBar
	stats *models.Stats
	bytes atomic.Int64
	total atomic.Int64

	stop   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProgress creates a progress display writing to w
func NewProgress(w io.Writer, stats *models.Stats) *Progress {
	bar := pb.ProgressBarTemplate(progressTemplate).New(0)
	bar.SetWriter(w)
	bar.SetRefreshRate(getUpdateInterval())
	bar.Set("bytes", "")
	return &Progress{
		bar:   bar,
		stats: stats,
		stop:  make(chan struct{}),
	}
}

// AddBytes records content bytes read by the comparer
func (p *Progress) AddBytes(n int64) {
	p.bytes.Add(n)
}

// Start begins rendering and estimating the total from root
func (p *Progress) Start(ctx context.Context, root string) {
	p.bar.Start()

	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		n, _ := EstimateItems(ctx, root)
		p.total.Store(n)
	}()
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(getUpdateInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.refresh()
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (p *Progress) refresh() {
	done := p.stats.Snapshot().OrigItems
	if total := p.total.Load(); total > 0 {
		if done > total {
			total = done
		}
		p.bar.SetTotal(total)
	}
	p.bar.SetCurrent(done)
	p.bar.Set("bytes", humanize.Bytes(uint64(p.bytes.Load()))+" read")
}

// Stop finishes the display and waits for its goroutines
func (p *Progress) Stop() {
	close(p.stop)
	if p.cancel != nil {
		p.cancel()
	}
	p.refresh()
	p.bar.Finish()
	p.wg.Wait()
}

// EstimateItems counts the entries under root without following symlinks.
// Unreadable entries are skipped; the result is only an estimate.
func EstimateItems(ctx context.Context, root string) (int64, error) {
	var count atomic.Int64

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			return nil
		}
		count.Add(1)
		return nil
	}

	conf := fastwalk.Config{Follow: false, NumWorkers: runtime.NumCPU()}
	err := fastwalk.Walk(&conf, root, walkFn)
	return count.Load(), err
}
