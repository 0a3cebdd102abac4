package swapengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/shopspring/decimal"
)

// RiskConfig defines risk management parameters. A zero limit disables that
// check.
type RiskConfig struct {
	MaxSwapSOL        float64 // max SOL value per swap
	DailyLimitSOL     float64 // rolling 24h window
	MaxSlippageBps    uint16
	MaxPriceImpactBps uint16
	MinBalanceSOL     float64 // kept in the wallet for fees and rent
}

// DefaultRiskConfig returns conservative risk settings
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxSwapSOL:        1.0,
		DailyLimitSOL:     10.0,
		MaxSlippageBps:    1000,
		MaxPriceImpactBps: 500,
		MinBalanceSOL:     0.01,
	}
}

// RiskCheckResult contains risk validation outcome
type RiskCheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`

	SwapValueSOL      decimal.Decimal `json:"swap_value_sol"`
	DailyUsedSOL      decimal.Decimal `json:"daily_used_sol"`
	DailyRemainingSOL decimal.Decimal `json:"daily_remaining_sol"`
}

// RiskStatus is a snapshot of limits and usage.
type RiskStatus struct {
	MaxSwapSOL        float64         `json:"max_swap_sol"`
	DailyLimitSOL     float64         `json:"daily_limit_sol"`
	DailyUsedSOL      decimal.Decimal `json:"daily_used_sol"`
	MaxSlippageBps    uint16          `json:"max_slippage_bps"`
	MaxPriceImpactBps uint16          `json:"max_price_impact_bps"`
}

// RiskManager enforces risk limits. Safe for concurrent use.
type RiskManager struct {
	config       RiskConfig
	dailyTracker *DailyLimitTracker

	// serializes check-and-hold so concurrent swaps cannot both pass
	// against the same remaining allowance
	reserveMu sync.Mutex
}

func NewRiskManager(config RiskConfig) *RiskManager {
	return &RiskManager{
		config:       config,
		dailyTracker: NewDailyLimitTracker(),
	}
}

// CheckSwap validates a priced swap. balanceSOL may be nil when the wallet
// balance is unknown, which skips the balance check.
func (rm *RiskManager) CheckSwap(qr *QuoteResult, balanceSOL *decimal.Decimal) *RiskCheckResult {
	value := swapValueSOL(qr)
	used := rm.dailyTracker.DailyUsage()

	result := &RiskCheckResult{
		Allowed:      true,
		SwapValueSOL: value,
		DailyUsedSOL: used,
	}
	if rm.config.DailyLimitSOL > 0 {
		result.DailyRemainingSOL = decimal.NewFromFloat(rm.config.DailyLimitSOL).Sub(used)
	}

	reject := func(format string, args ...any) *RiskCheckResult {
		result.Allowed = false
		result.Reason = fmt.Sprintf(format, args...)
		return result
	}

	if rm.config.MaxSwapSOL > 0 {
		limit := decimal.NewFromFloat(rm.config.MaxSwapSOL)
		if value.GreaterThan(limit) {
			return reject("swap value %s SOL exceeds max %s SOL per transaction", value, limit)
		}
	}

	if rm.config.DailyLimitSOL > 0 {
		limit := decimal.NewFromFloat(rm.config.DailyLimitSOL)
		if used.Add(value).GreaterThan(limit) {
			return reject("daily limit exceeded: used %s + %s > %s SOL", used, value, limit)
		}
	}

	if rm.config.MaxPriceImpactBps > 0 && qr.Quote != nil {
		maxPct := decimal.New(int64(rm.config.MaxPriceImpactBps), -2)
		if qr.Quote.PriceImpact.GreaterThan(maxPct) {
			return reject("price impact %s%% exceeds max %s%%", qr.Quote.PriceImpact, maxPct)
		}
	}

	if balanceSOL != nil && rm.config.MinBalanceSOL > 0 {
		remaining := *balanceSOL
		if qr.Quote != nil && qr.Quote.Direction == quote.Buy {
			remaining = remaining.Sub(value)
		}
		floor := decimal.NewFromFloat(rm.config.MinBalanceSOL)
		if remaining.LessThan(floor) {
			return reject("insufficient balance: would leave %s SOL, need %s SOL minimum", remaining, floor)
		}
	}

	if rm.config.MaxSlippageBps > 0 && qr.SlippageBps > rm.config.MaxSlippageBps {
		return reject("slippage %d bps exceeds max %d bps", qr.SlippageBps, rm.config.MaxSlippageBps)
	}

	return result
}

// RecordSwap counts a swap against the daily limit.
func (rm *RiskManager) RecordSwap(qr *QuoteResult) {
	rm.dailyTracker.RecordSwap(swapValueSOL(qr))
}

// Reserve runs CheckSwap and, when the swap is allowed, counts its value
// against the daily limit straight away. The hold stays unless the caller
// releases it. A nil reservation is returned for rejected swaps.
func (rm *RiskManager) Reserve(qr *QuoteResult, balanceSOL *decimal.Decimal) (*RiskCheckResult, *Reservation) {
	rm.reserveMu.Lock()
	defer rm.reserveMu.Unlock()

	check := rm.CheckSwap(qr, balanceSOL)
	if !check.Allowed {
		return check, nil
	}
	id := rm.dailyTracker.RecordSwap(swapValueSOL(qr))
	return check, &Reservation{tracker: rm.dailyTracker, id: id}
}

// Reservation is daily-limit usage held for an in-flight swap.
type Reservation struct {
	tracker *DailyLimitTracker
	id      uint64
	once    sync.Once
}

// Release returns the held amount. Only call it for swaps known not to have
// moved funds. Safe to call more than once and on a nil reservation.
func (r *Reservation) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() { r.tracker.remove(r.id) })
}

func (rm *RiskManager) Status() RiskStatus {
	return RiskStatus{
		MaxSwapSOL:        rm.config.MaxSwapSOL,
		DailyLimitSOL:     rm.config.DailyLimitSOL,
		DailyUsedSOL:      rm.dailyTracker.DailyUsage(),
		MaxSlippageBps:    rm.config.MaxSlippageBps,
		MaxPriceImpactBps: rm.config.MaxPriceImpactBps,
	}
}

// swapValueSOL is the native side of the swap: SOL spent on a buy, SOL
// received on a sell.
func swapValueSOL(qr *QuoteResult) decimal.Decimal {
	if qr == nil || qr.Quote == nil {
		return decimal.Zero
	}
	if qr.Quote.Direction == quote.Buy {
		return qr.Quote.AmountIn
	}
	return qr.Quote.AmountOut
}

// DailyLimitTracker tracks rolling 24-hour usage
type DailyLimitTracker struct {
	mu     sync.Mutex
	swaps  []swapRecord
	now    func() time.Time
	nextID uint64
}

type swapRecord struct {
	id        uint64
	timestamp time.Time
	amountSOL decimal.Decimal
}

func NewDailyLimitTracker() *DailyLimitTracker {
	return &DailyLimitTracker{now: time.Now}
}

// RecordSwap adds amountSOL to the window and returns the record's id.
func (t *DailyLimitTracker) RecordSwap(amountSOL decimal.Decimal) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	t.swaps = append(t.swaps, swapRecord{id: t.nextID, timestamp: t.now(), amountSOL: amountSOL})
	t.cleanup()
	return t.nextID
}

func (t *DailyLimitTracker) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.swaps {
		if s.id == id {
			t.swaps = append(t.swaps[:i], t.swaps[i+1:]...)
			return
		}
	}
}

// DailyUsage sums swaps recorded in the last 24 hours.
func (t *DailyLimitTracker) DailyUsage() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanup()
	total := decimal.Zero
	for _, s := range t.swaps {
		total = total.Add(s.amountSOL)
	}
	return total
}

// cleanup drops records older than 24 hours. Callers hold mu.
func (t *DailyLimitTracker) cleanup() {
	cutoff := t.now().Add(-24 * time.Hour)

	kept := t.swaps[:0]
	for _, s := range t.swaps {
		if s.timestamp.After(cutoff) {
			kept = append(kept, s)
		}
	}
	t.swaps = kept
}

// Reset clears all tracked swaps
func (t *DailyLimitTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.swaps = nil
}
