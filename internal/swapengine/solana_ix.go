package swapengine

import (
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// FindAssociatedTokenAddress derives the owner's ATA for mint under the
// legacy token program.
func FindAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}

// newCreateATAIx creates owner's ATA for mint, paid by payer.
func newCreateATAIx(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

// newWrapSOLIxs moves lamports into a WSOL token account and syncs its token
// balance.
func newWrapSOLIxs(owner, wsolAccount solana.PublicKey, lamports uint64) []solana.Instruction {
	return []solana.Instruction{
		system.NewTransferInstruction(lamports, owner, wsolAccount).Build(),
		token.NewSyncNativeInstruction(wsolAccount).Build(),
	}
}

// newCloseAccountIx closes a token account and returns its lamports to owner.
// For WSOL this unwraps the balance.
func newCloseAccountIx(account, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(account, owner, owner, nil).Build()
}
