package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DeriveMarketAuthority computes the OpenBook vault signer for a market:
// create_program_address([market, u64le(nonce)], openbookProgram).
// It is a pure function; the nonce comes from the decoded market state.
func DeriveMarketAuthority(market solana.PublicKey, nonce uint64, openbookProgram solana.PublicKey) (solana.PublicKey, error) {
	nonceLE := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceLE, nonce)

	authority, err := solana.CreateProgramAddress(
		[][]byte{market.Bytes(), nonceLE},
		openbookProgram,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive market authority (market=%s nonce=%d): %w", market, nonce, err)
	}
	return authority, nil
}
