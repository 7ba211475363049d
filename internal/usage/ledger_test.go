package usage

import (
	"context"
	"sync"
	"testing"
)

func TestLedgerTrack(t *testing.T) {
	ledger := NewLedger("run-1")

	ledger.Track("gemini-2.5-flash", "researcher", "research", 100, 50)
	ledger.Track("gemini-2.5-flash", "generator", "render", 200, 80)

	stats := ledger.Stats()
	if stats.Total.Input != 300 || stats.Total.Output != 130 {
		t.Errorf("total = %+v", stats.Total)
	}
	if stats.Calls != 2 {
		t.Errorf("calls = %d, want 2", stats.Calls)
	}
	if stats.ByAgent["researcher"].Total != 150 {
		t.Errorf("researcher total = %d, want 150", stats.ByAgent["researcher"].Total)
	}
	if stats.ByOperation["render"].Input != 200 {
		t.Errorf("render input = %d, want 200", stats.ByOperation["render"].Input)
	}
}

func TestLedgerConcurrentTrack(t *testing.T) {
	ledger := NewLedger("run-2")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Track("m", "researcher", "research", 10, 1)
		}()
	}
	wg.Wait()

	stats := ledger.Stats()
	if stats.Total.Input != 500 {
		t.Errorf("concurrent input total = %d, want 500", stats.Total.Input)
	}
	if stats.Calls != 50 {
		t.Errorf("calls = %d, want 50", stats.Calls)
	}
}

func TestLedgerStatsIsCopy(t *testing.T) {
	ledger := NewLedger("run-3")
	ledger.Track("m", "generator", "render", 1, 1)

	stats := ledger.Stats()
	stats.ByAgent["generator"] = TokenCounts{Input: 999}

	if ledger.Stats().ByAgent["generator"].Input != 1 {
		t.Error("mutating the returned stats leaked into the ledger")
	}
}

func TestLedgerContextRoundTrip(t *testing.T) {
	ledger := NewLedger("run-4")
	ctx := NewContext(context.Background(), ledger)

	if got := FromContext(ctx); got != ledger {
		t.Error("FromContext did not return the stored ledger")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Error("FromContext on empty context should be nil")
	}
}
