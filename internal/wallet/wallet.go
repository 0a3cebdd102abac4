package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Chain is the slice of the RPC client the wallet needs.
type Chain interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error)
}

type WalletConfig struct {
	PrivateKey string // base58-encoded 64-byte key OR solana-keygen JSON array
	Chain      Chain
}

// Wallet holds one keypair and builds, signs and funds transactions for it.
type Wallet struct {
	chain Chain
	priv  solana.PrivateKey
	pub   solana.PublicKey
}

func NewWallet(cfg WalletConfig) (*Wallet, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("wallet: Chain is required")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, fmt.Errorf("wallet: PrivateKey is required")
	}

	priv, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		chain: cfg.Chain,
		priv:  priv,
		pub:   priv.PublicKey(),
	}, nil
}

func (w *Wallet) Address() string             { return w.pub.String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }

// BalanceSOL returns the wallet's native balance in SOL.
func (w *Wallet) BalanceSOL(ctx context.Context) (decimal.Decimal, error) {
	lamports, err := w.chain.GetBalance(ctx, w.pub)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet balance: %w", err)
	}
	return decimal.NewFromInt(int64(lamports)).Shift(-9), nil
}

// BuildTransaction wraps instructions in a transaction paid by the wallet
// against a fresh blockhash.
func (w *Wallet) BuildTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error) {
	recent, err := w.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent, solana.TransactionPayer(w.pub))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// Sign signs tx with the wallet key and returns the wire bytes.
func (w *Wallet) Sign(tx *solana.Transaction) ([]byte, error) {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return raw, nil
}
