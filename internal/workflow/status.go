package workflow

import (
	"context"

	"shelfmark/internal/queue"
)

// StatusSummary captures the workflow state for status reporting.
type StatusSummary struct {
	Running    bool
	QueueStats map[queue.Status]int
	LastError  string
	LastItem   *queue.Item
}

// Status returns a point-in-time summary of workflow execution.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	summary := StatusSummary{Running: m.Running()}
	if m.store != nil {
		if stats, err := m.store.Stats(ctx); err == nil {
			summary.QueueStats = stats
		}
	}
	if err := m.LastError(); err != nil {
		summary.LastError = err.Error()
	}
	summary.LastItem = m.LastItem()
	return summary
}
