package export

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

// MemoryExporter records exported summaries in memory. Used by tests and
// by the worker when no spreadsheet is configured.
type MemoryExporter struct {
	mu        sync.Mutex
	summaries []core.MonthSummary
}

var _ SummaryExporter = (*MemoryExporter)(nil)

func NewMemoryExporter() *MemoryExporter {
	return &MemoryExporter{}
}

func (m *MemoryExporter) ExportSummary(_ context.Context, summary core.MonthSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, summary)
	return nil
}

// Exported returns a copy of everything exported so far.
func (m *MemoryExporter) Exported() []core.MonthSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.MonthSummary, len(m.summaries))
	copy(out, m.summaries)
	return out
}
