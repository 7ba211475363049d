package usage

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
}

// Add accumulates one transaction into the counts.
func (tc *TokenCounts) Add(input, output int) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}

// Stats holds run totals broken down by dimension. Delegated research
// calls land in the same ledger as the primary agent's calls, so
// multi-agent cost stays attributable to one request.
type Stats struct {
	RunID       string                 `json:"run_id"`
	Total       TokenCounts            `json:"total"`
	ByAgent     map[string]TokenCounts `json:"by_agent"`
	ByOperation map[string]TokenCounts `json:"by_operation"`
	ByModel     map[string]TokenCounts `json:"by_model"`
	Calls       int                    `json:"calls"`
}
