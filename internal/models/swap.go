package models

import "time"

// SwapAttempt is the journal record of one executor run. Amounts are UI
// units rendered as decimal strings so no precision is lost in JSON.
type SwapAttempt struct {
	ID           string    `json:"id"`
	Signature    string    `json:"signature,omitempty"`
	Mint         string    `json:"mint"`
	Pool         string    `json:"pool,omitempty"`
	Direction    string    `json:"direction"` // "buy" or "sell"
	AmountIn     string    `json:"amount_in"`
	ExpectedOut  string    `json:"expected_out,omitempty"`
	MinAmountOut uint64    `json:"min_amount_out"` // raw units
	SlippageBps  uint16    `json:"slippage_bps"`
	State        string    `json:"state"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	DurationMS   int64     `json:"duration_ms"`
}

// Succeeded reports whether the attempt reached the confirmed state.
func (a *SwapAttempt) Succeeded() bool {
	return a.State == "confirmed"
}
