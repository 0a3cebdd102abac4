package constants

import "time"

// Redis keys
const (
	RedisKeyRecentSwaps = "swaps:recent"
	RedisKeyMintPrefix  = "swaps:mint:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelSwaps = "swaps:live"
)

// Limits
const (
	MaxRecentSwaps = 100
)

// Feature flags read by the executor
const (
	FlagSwapsEnabled = "swaps.execute.enabled"
)

// Swap defaults
const (
	DefaultSlippageBps uint16 = 200
	LamportsPerSOL            = 1_000_000_000

	ConfirmInterval = 500 * time.Millisecond
	ConfirmAttempts = 40
	SubmitRetries   = 3
	SubmitBackoff   = time.Second
)

// DexName tags journal records.
const DexName = "Raydium AMM v4"

// Token mint addresses to symbols, used for log output only
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": "POPCAT",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

// Symbol returns the known symbol for mint, or the mint itself.
func Symbol(mint string) string {
	if s, ok := TokenSymbols[mint]; ok {
		return s
	}
	return mint
}
