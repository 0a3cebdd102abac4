package swapengine

import (
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/gagliardetto/solana-go"
)

const maxSlippageBps = 10_000

// normalizeRequest rejects malformed requests before any RPC call and fills
// the default slippage.
func normalizeRequest(req SwapRequest, defaultSlippageBps uint16, wsol solana.PublicKey) (SwapRequest, error) {
	if req.Mint.IsZero() {
		return req, fmt.Errorf("%w: mint is required", ErrInvalidRequest)
	}
	if req.Mint.Equals(wsol) {
		return req, fmt.Errorf("%w: mint must not be wrapped SOL", ErrInvalidRequest)
	}
	if _, err := quote.ParseDirection(string(req.Direction)); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Amount.Sign() <= 0 {
		return req, fmt.Errorf("%w: amount must be > 0", ErrInvalidRequest)
	}
	if req.SlippageBps == 0 {
		req.SlippageBps = defaultSlippageBps
	}
	if req.SlippageBps >= maxSlippageBps {
		return req, fmt.Errorf("%w: slippage %d bps must be < %d", ErrInvalidRequest, req.SlippageBps, maxSlippageBps)
	}
	return req, nil
}
