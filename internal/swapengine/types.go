package swapengine

import (
	"context"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// State is a step of one swap attempt.
type State string

const (
	StateQuoting           State = "quoting"
	StateBuilding          State = "building"
	StateAwaitingSignature State = "awaiting_signature"
	StateSubmitting        State = "submitting"
	StateConfirming        State = "confirming"

	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateFailed, StateTimedOut:
		return true
	}
	return false
}

// SwapRequest is a caller's intent: spend Amount (UI units) of SOL for Mint
// when buying, or Amount of Mint for SOL when selling.
type SwapRequest struct {
	Mint      solana.PublicKey
	Direction quote.Direction
	Amount    decimal.Decimal

	// SlippageBps of 0 means the executor default.
	SlippageBps uint16
}

// Transition records when an attempt entered a state.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// QuoteResult is a priced swap against one reserves snapshot, with raw
// amounts ready for the instruction.
type QuoteResult struct {
	Pool         *raydium.PoolKeys
	Reserves     *raydium.Reserves
	Quote        *quote.Quote
	AmountIn     uint64 // raw units of the input side
	AmountOut    uint64 // raw units of the output side
	MinAmountOut uint64
	SlippageBps  uint16
}

// SwapResult is returned for every attempt, successful or not.
type SwapResult struct {
	ID          string
	Signature   string
	Mint        solana.PublicKey
	Direction   quote.Direction
	State       State
	Quote       *QuoteResult
	Transitions []Transition
	Error       string

	StartedAt time.Time
	Duration  time.Duration

	hold *Reservation
}

func (r *SwapResult) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, Transition{State: s, At: time.Now()})
}

// TxState is the executor's view of a submitted transaction.
type TxState string

const (
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxFailed    TxState = "failed"
)

// Status is one confirmation poll result. Detail carries the on-chain error
// when State is TxFailed.
type Status struct {
	State  TxState
	Slot   uint64
	Detail string
}

// PoolSource finds the WSOL pool for a mint.
type PoolSource interface {
	Resolve(ctx context.Context, mint solana.PublicKey) (*raydium.PoolKeys, error)
}

// ReserveSource reads current vault balances.
type ReserveSource interface {
	Read(ctx context.Context, keys *raydium.PoolKeys) (*raydium.Reserves, error)
}

// TxBuilder wraps instructions in an unsigned transaction.
type TxBuilder interface {
	BuildTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error)
}

// Signer signs for the swap owner and returns the wire bytes.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(tx *solana.Transaction) ([]byte, error)
}

// BalanceSource reports the owner's native balance.
type BalanceSource interface {
	BalanceSOL(ctx context.Context) (decimal.Decimal, error)
}

// Submitter sends signed transactions and reports their status. A status the
// node does not know yet is TxPending, not an error.
type Submitter interface {
	SubmitTransaction(ctx context.Context, tx []byte) (string, error)
	GetStatus(ctx context.Context, signature string) (Status, error)
}

// AccountChecker reports whether an account exists.
type AccountChecker interface {
	GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)
}
