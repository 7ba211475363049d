// Package usage tracks LLM token usage for one generation run. A single
// ledger is constructed per run and threaded through every agent call
// via context, so delegated research cost is never lost across agent
// boundaries.
package usage

import (
	"context"
	"encoding/json"
	"os"
	"sync"
)

type contextKey struct{}

// Ledger accumulates usage events for one run. Safe for concurrent use;
// research fan-out records from multiple goroutines.
type Ledger struct {
	mu    sync.Mutex
	runID string
	stats Stats
}

// NewLedger creates an empty ledger for the given run.
func NewLedger(runID string) *Ledger {
	return &Ledger{
		runID: runID,
		stats: Stats{
			RunID:       runID,
			ByAgent:     make(map[string]TokenCounts),
			ByOperation: make(map[string]TokenCounts),
			ByModel:     make(map[string]TokenCounts),
		},
	}
}

// Track records one LLM transaction.
func (l *Ledger) Track(model, agent, operation string, input, output int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.Total.Add(input, output)
	l.stats.Calls++
	addToMap(l.stats.ByAgent, agent, input, output)
	addToMap(l.stats.ByOperation, operation, input, output)
	addToMap(l.stats.ByModel, model, input, output)
}

// Stats returns a copy of the aggregated stats.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.stats
	stats.ByAgent = copyCounts(stats.ByAgent)
	stats.ByOperation = copyCounts(stats.ByOperation)
	stats.ByModel = copyCounts(stats.ByModel)
	return stats
}

// Save writes the ledger to a JSON file, typically alongside the run's
// diagnostics output.
func (l *Ledger) Save(path string) error {
	data, err := json.MarshalIndent(l.Stats(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

func copyCounts(src map[string]TokenCounts) map[string]TokenCounts {
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

// NewContext returns a context carrying the ledger.
func NewContext(ctx context.Context, l *Ledger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the run ledger, or nil when absent.
func FromContext(ctx context.Context) *Ledger {
	val := ctx.Value(contextKey{})
	if val == nil {
		return nil
	}
	return val.(*Ledger)
}
