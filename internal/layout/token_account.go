package layout

import "github.com/gagliardetto/solana-go"

// SPL token account layout.
const (
	TokenAccountSize         = 165
	TokenAccountMintOffset   = 0
	TokenAccountOwnerOffset  = 32
	TokenAccountAmountOffset = 64
	TokenAccountStateOffset  = 108
)

// TokenAccount holds the fields of an SPL token account needed to read a vault
// balance.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// DecodeTokenAccount reads the mint, owner and amount. Token-2022 accounts
// carry extensions after the 165-byte base, so longer data is accepted.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if err := checkMinSize("token account", data, TokenAccountSize); err != nil {
		return nil, err
	}
	return &TokenAccount{
		Mint:   readPubkey(data, TokenAccountMintOffset),
		Owner:  readPubkey(data, TokenAccountOwnerOffset),
		Amount: readU64(data, TokenAccountAmountOffset),
	}, nil
}

// EncodeTokenAccount writes an initialized token account with the given fields.
func EncodeTokenAccount(a *TokenAccount) []byte {
	data := make([]byte, TokenAccountSize)
	putPubkey(data, TokenAccountMintOffset, a.Mint)
	putPubkey(data, TokenAccountOwnerOffset, a.Owner)
	putU64(data, TokenAccountAmountOffset, a.Amount)
	data[TokenAccountStateOffset] = 1 // initialized
	return data
}
