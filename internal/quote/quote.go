package quote

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrQuoteRejected is returned for inputs the constant-product formula cannot
// price: non-positive reserves or amounts, or a fee outside [0, 100).
var ErrQuoteRejected = errors.New("quote rejected")

// Direction of a swap relative to the native asset.
type Direction string

const (
	// Buy spends native SOL for the token.
	Buy Direction = "buy"
	// Sell spends the token for native SOL.
	Sell Direction = "sell"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Buy, Sell:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrQuoteRejected, s)
	}
}

// Quote is computed from a single reserves snapshot and goes stale as soon as
// reserves move. Amounts are in UI units.
type Quote struct {
	Direction   Direction       `json:"direction"`
	AmountIn    decimal.Decimal `json:"amount_in"`
	AmountOut   decimal.Decimal `json:"amount_out"`
	FeePercent  decimal.Decimal `json:"fee_percent"`
	PriceImpact decimal.Decimal `json:"price_impact_percent"`
	OutDecimals uint8           `json:"out_decimals"`
}

// Request describes a quote against a WSOL pool. Base is the token reserve and
// Quote the native reserve, both in UI units.
type Request struct {
	Direction      Direction
	AmountIn       decimal.Decimal
	Base           decimal.Decimal
	Quote          decimal.Decimal
	FeePercent     decimal.Decimal
	TokenDecimals  uint8
	NativeDecimals uint8
}

// Compute prices req in the requested direction.
func Compute(req Request) (*Quote, error) {
	var (
		out         decimal.Decimal
		err         error
		outDecimals uint8
		reserveIn   decimal.Decimal
		reserveOut  decimal.Decimal
	)

	switch req.Direction {
	case Buy:
		outDecimals = req.TokenDecimals
		reserveIn, reserveOut = req.Quote, req.Base
		out, err = TokensForNative(req.AmountIn, req.Base, req.Quote, req.FeePercent, req.TokenDecimals)
	case Sell:
		outDecimals = req.NativeDecimals
		reserveIn, reserveOut = req.Base, req.Quote
		out, err = NativeForTokens(req.AmountIn, req.Base, req.Quote, req.FeePercent, req.NativeDecimals)
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrQuoteRejected, req.Direction)
	}
	if err != nil {
		return nil, err
	}

	return &Quote{
		Direction:   req.Direction,
		AmountIn:    req.AmountIn,
		AmountOut:   out,
		FeePercent:  req.FeePercent,
		PriceImpact: PriceImpact(req.AmountIn, out, reserveIn, reserveOut),
		OutDecimals: outDecimals,
	}, nil
}

// TokensForNative returns the tokens received for nativeIn SOL:
//
//	effective = nativeIn * (1 - fee/100)
//	newQuote  = base*quote / (quote + effective)
//	out       = base - newQuote
//
// floored to tokenDecimals.
func TokensForNative(nativeIn, base, quote, feePercent decimal.Decimal, tokenDecimals uint8) (decimal.Decimal, error) {
	if err := validate(nativeIn, base, quote, feePercent); err != nil {
		return decimal.Zero, err
	}
	return constantProductOut(nativeIn.Rat(), quote.Rat(), base.Rat(), feePercent.Rat(), tokenDecimals), nil
}

// NativeForTokens is the mirror of TokensForNative: the fee is taken from
// tokensIn and the result is SOL floored to nativeDecimals.
func NativeForTokens(tokensIn, base, quote, feePercent decimal.Decimal, nativeDecimals uint8) (decimal.Decimal, error) {
	if err := validate(tokensIn, base, quote, feePercent); err != nil {
		return decimal.Zero, err
	}
	return constantProductOut(tokensIn.Rat(), base.Rat(), quote.Rat(), feePercent.Rat(), nativeDecimals), nil
}

func validate(amountIn, base, quote, feePercent decimal.Decimal) error {
	if amountIn.Sign() <= 0 {
		return fmt.Errorf("%w: amount in must be > 0, got %s", ErrQuoteRejected, amountIn)
	}
	if base.Sign() <= 0 || quote.Sign() <= 0 {
		return fmt.Errorf("%w: reserves must be > 0 (base=%s quote=%s)", ErrQuoteRejected, base, quote)
	}
	if feePercent.Sign() < 0 || feePercent.Cmp(decimal.NewFromInt(100)) >= 0 {
		return fmt.Errorf("%w: fee percent %s outside [0, 100)", ErrQuoteRejected, feePercent)
	}
	return nil
}

// constantProductOut keeps the whole computation in big.Rat so the only
// rounding is the final floor.
func constantProductOut(amountIn, reserveIn, reserveOut, feePercent *big.Rat, decimals uint8) decimal.Decimal {
	hundred := big.NewRat(100, 1)
	keep := new(big.Rat).Sub(hundred, feePercent)
	keep.Quo(keep, hundred)

	effective := new(big.Rat).Mul(amountIn, keep)
	k := new(big.Rat).Mul(reserveIn, reserveOut)
	newReserveOut := new(big.Rat).Quo(k, new(big.Rat).Add(reserveIn, effective))
	out := new(big.Rat).Sub(reserveOut, newReserveOut)

	return floorRat(out, decimals)
}

func floorRat(r *big.Rat, decimals uint8) decimal.Decimal {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(scale))

	// Div rounds toward -inf for positive divisors.
	units := new(big.Int).Div(scaled.Num(), scaled.Denom())
	return decimal.NewFromBigInt(units, -int32(decimals))
}

// FeePercent converts the pool's numerator/denominator into a percentage
// (25/10000 -> 0.25).
func FeePercent(numerator, denominator uint64) (decimal.Decimal, error) {
	if denominator == 0 {
		return decimal.Zero, fmt.Errorf("%w: fee denominator is zero", ErrQuoteRejected)
	}
	if numerator >= denominator {
		return decimal.Zero, fmt.Errorf("%w: fee %d/%d is 100%% or more", ErrQuoteRejected, numerator, denominator)
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(numerator), 0)
	den := decimal.NewFromBigInt(new(big.Int).SetUint64(denominator), 0)
	return num.Mul(decimal.NewFromInt(100)).Div(den), nil
}

// PriceImpact is how far the execution price falls short of the spot price,
// in percent. Zero when any input is non-positive.
func PriceImpact(amountIn, amountOut, reserveIn, reserveOut decimal.Decimal) decimal.Decimal {
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return decimal.Zero
	}
	spot := reserveOut.Div(reserveIn)
	execution := amountOut.Div(amountIn)
	impact := decimal.NewFromInt(1).Sub(execution.Div(spot)).Mul(decimal.NewFromInt(100))
	if impact.Sign() < 0 {
		return decimal.Zero
	}
	return impact.Round(4)
}

// ApplySlippage returns the minimum acceptable output for a tolerance in
// basis points (100 = 1%), rounded down.
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0
	}

	// minOut = amountOut * (10000 - slippageBps) / 10000
	minOut := new(big.Int).SetUint64(amountOut)
	minOut.Mul(minOut, new(big.Int).SetUint64(10000-uint64(slippageBps)))
	minOut.Div(minOut, big.NewInt(10000))
	return minOut.Uint64()
}

// ToRaw converts a UI amount to base units, dropping any precision beyond
// decimals.
func ToRaw(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative amount %s", ErrQuoteRejected, amount)
	}
	raw := amount.Shift(int32(decimals)).Floor().BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("%w: amount %s overflows u64 at %d decimals", ErrQuoteRejected, amount, decimals)
	}
	return raw.Uint64(), nil
}

func FromRaw(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}
