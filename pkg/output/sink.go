package output

import (
	"sync"

	"github.com/sdejongh/backupverify/pkg/models"
)

// Sink receives verification events.
// visible is false for events the current verbosity keeps off stdout.
type Sink interface {
	Event(f models.Finding, visible bool)
}

// Tee fans events out to several sinks
type Tee []Sink

// Event forwards the event to every sink
func (t Tee) Event(f models.Finding, visible bool) {
	for _, s := range t {
		s.Event(f, visible)
	}
}

// Collector keeps every non-debug event for the findings report
type Collector struct {
	mu       sync.Mutex
	findings []models.Finding
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Event records the finding regardless of visibility
func (c *Collector) Event(f models.Finding, visible bool) {
	if f.IsDebug() {
		return
	}
	c.mu.Lock()
	c.findings = append(c.findings, f)
	c.mu.Unlock()
}

// Findings returns a copy of the recorded findings in emission order
func (c *Collector) Findings() []models.Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Finding, len(c.findings))
	copy(out, c.findings)
	return out
}
