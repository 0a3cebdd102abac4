package swapengine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ResolvedTokenAccount is a token account to use for a swap plus the
// instructions that make it usable.
type ResolvedTokenAccount struct {
	Account solana.PublicKey
	Created bool // created by PreIxs in the same transaction
	PreIxs  []solana.Instruction
}

type TokenAccountResolver interface {
	Resolve(ctx context.Context, owner solana.PublicKey, mint solana.PublicKey) (*ResolvedTokenAccount, error)
}

// ATAResolver resolves the owner's associated token account, creating it when
// it does not exist yet.
type ATAResolver struct {
	accounts AccountChecker
}

func NewATAResolver(accounts AccountChecker) *ATAResolver {
	return &ATAResolver{accounts: accounts}
}

func (r *ATAResolver) Resolve(ctx context.Context, owner solana.PublicKey, mint solana.PublicKey) (*ResolvedTokenAccount, error) {
	if r == nil || r.accounts == nil {
		return nil, fmt.Errorf("token account resolver: account reader is nil")
	}

	ata, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive ATA for %s: %w", mint, err)
	}

	data, err := r.accounts.GetAccount(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("lookup ATA %s: %w", ata, err)
	}
	if data != nil {
		return &ResolvedTokenAccount{Account: ata}, nil
	}

	return &ResolvedTokenAccount{
		Account: ata,
		Created: true,
		PreIxs:  []solana.Instruction{newCreateATAIx(owner, owner, mint)},
	}, nil
}
