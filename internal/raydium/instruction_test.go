package raydium

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSwapData(t *testing.T) {
	data, err := EncodeSwapData(1_000_000_000, 19_559_782_342)
	require.NoError(t, err)
	require.Len(t, data, SwapDataSize)

	assert.Equal(t, byte(9), data[0])
	assert.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(19_559_782_342), binary.LittleEndian.Uint64(data[9:17]))
}

func TestEncodeSwapData_Bytes(t *testing.T) {
	data, err := EncodeSwapData(0x0102030405060708, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		9,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x01, 0, 0, 0, 0, 0, 0, 0,
	}, data)
}

func TestBuildSwapInstruction_AccountOrder(t *testing.T) {
	reader := newFakeReader()
	keys, _ := resolveFixture(t, reader, true, 1, 1)

	src, dst, owner := key(0xA1), key(0xA2), key(0xA3)
	ix, err := BuildSwapInstruction(keys, 10, 5, src, dst, owner)
	require.NoError(t, err)

	assert.Equal(t, DefaultPrograms().AmmV4, ix.ProgramID())

	type meta struct {
		pk       solana.PublicKey
		writable bool
		signer   bool
	}
	want := []meta{
		{keys.TokenProgram, false, false},
		{keys.AmmID, true, false},
		{keys.AuthorityV4, false, false},
		{keys.OpenOrders, true, false},
		{keys.TargetOrders, true, false},
		{keys.BaseVault, true, false},
		{keys.QuoteVault, true, false},
		{keys.OpenBookProgram, false, false},
		{keys.MarketID, true, false},
		{keys.Bids, true, false},
		{keys.Asks, true, false},
		{keys.EventQueue, true, false},
		{keys.MarketBaseVault, true, false},
		{keys.MarketQuoteVault, true, false},
		{keys.MarketAuthority, false, false},
		{src, true, false},
		{dst, true, false},
		{owner, false, true},
	}

	accounts := ix.Accounts()
	require.Len(t, accounts, 18)
	for i, w := range want {
		assert.Equal(t, w.pk, accounts[i].PublicKey, "account %d", i)
		assert.Equal(t, w.writable, accounts[i].IsWritable, "account %d writable", i)
		assert.Equal(t, w.signer, accounts[i].IsSigner, "account %d signer", i)
	}

	assert.Equal(t, solana.MustPublicKeyFromBase58(TokenProgramAddress), accounts[0].PublicKey)
	assert.Equal(t, solana.MustPublicKeyFromBase58(AuthorityV4Address), accounts[2].PublicKey)
	assert.Equal(t, solana.MustPublicKeyFromBase58(OpenBookProgramAddress), accounts[7].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Len(t, data, 17)
}

func TestBuildSwapInstruction_NilKeys(t *testing.T) {
	_, err := BuildSwapInstruction(nil, 1, 1, key(1), key(2), key(3))
	assert.Error(t, err)
}

func TestLoadPrograms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "programs.yaml")
	override := key(0x77).String()
	require.NoError(t, os.WriteFile(path, []byte("programs:\n  amm_v4: "+override+"\n"), 0o600))

	p, err := LoadPrograms(path)
	require.NoError(t, err)
	assert.Equal(t, key(0x77), p.AmmV4)
	assert.Equal(t, DefaultPrograms().OpenBook, p.OpenBook)

	res, err := NewResolver(ResolverConfig{Reader: newFakeReader(), Programs: &p})
	require.NoError(t, err)
	_, _ = res.FindPoolAddress(context.Background(), key(0x01))
	assert.Equal(t, key(0x77), res.Programs().AmmV4)
}

func TestLoadPrograms_Errors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("programs:\n  serum_v2: abc\n"), 0o600))
	_, err := LoadPrograms(unknown)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("programs:\n  openbook: not-base58-0OIl\n"), 0o600))
	_, err = LoadPrograms(bad)
	assert.Error(t, err)

	p, err := LoadPrograms("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrograms(), p)
}
