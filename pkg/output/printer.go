package output

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/backupverify/pkg/models"
)

// Printer writes visible events and the summary to a buffered stream
type Printer struct {
	mu     sync.Mutex
	writer *bufio.Writer
	lines  int64
}

// NewPrinter creates a printer on w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{writer: bufio.NewWriter(w)}
}

// Event prints the finding if it is visible
func (p *Printer) Event(f models.Finding, visible bool) {
	if !visible {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer.WriteString(f.String())
	p.writer.WriteByte('\n')
	p.lines++
}

// Lines returns the number of event lines printed so far
func (p *Printer) Lines() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lines
}

// Summary prints the summary block
func (p *Printer) Summary(s models.StatsSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	WriteSummary(p.writer, s)
}

// Flush writes any buffered output
func (p *Printer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// WriteSummary writes the summary block for a counter snapshot
func WriteSummary(w io.Writer, s models.StatsSnapshot) {
	fmt.Fprintf(w, "SUMMARY:\n")
	fmt.Fprintf(w, "    Original items processed: %d\n", s.OrigItems)
	fmt.Fprintf(w, "    Backup items processed: %d\n", s.BackupItems)
	fmt.Fprintf(w, "    Missing: %d (%.2f%%)\n", s.Missing, s.MissingPercent())
	fmt.Fprintf(w, "    Different: %d (%.2f%%)\n", s.Differences, s.DifferentPercent())
	fmt.Fprintf(w, "    Extras: %d\n", s.Extras)
	fmt.Fprintf(w, "    Special files: %d\n", s.Special)
	fmt.Fprintf(w, "    Similarities: %d\n", s.Similarities)
	fmt.Fprintf(w, "    Skipped: %d\n", s.Skipped)
	fmt.Fprintf(w, "    Errors: %d\n", s.Errors)
}
