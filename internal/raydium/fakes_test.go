package raydium

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/layout"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	program  solana.PublicKey
	filters  []MemcmpFilter
	dataSize uint64
}

// fakeReader serves accounts from memory and answers searches by applying the
// memcmp filters to every stored account of the expected size.
type fakeReader struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey][]byte
	searches []searchCall
	multiErr error
}

func newFakeReader() *fakeReader {
	return &fakeReader{accounts: make(map[solana.PublicKey][]byte)}
}

func (f *fakeReader) put(pk solana.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[pk] = data
}

func (f *fakeReader) GetAccount(_ context.Context, address solana.PublicKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[address], nil
}

func (f *fakeReader) SearchAccounts(_ context.Context, program solana.PublicKey, filters []MemcmpFilter, dataSize uint64) ([]solana.PublicKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, searchCall{program: program, filters: filters, dataSize: dataSize})

	var out []solana.PublicKey
	for pk, data := range f.accounts {
		if uint64(len(data)) != dataSize {
			continue
		}
		ok := true
		for _, flt := range filters {
			end := flt.Offset + uint64(len(flt.Bytes))
			if end > uint64(len(data)) || !bytes.Equal(data[flt.Offset:end], flt.Bytes) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, pk)
		}
	}
	return out, nil
}

func (f *fakeReader) GetMultipleAccounts(_ context.Context, addresses []solana.PublicKey) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.multiErr != nil {
		return nil, f.multiErr
	}
	out := make([][]byte, len(addresses))
	for i, pk := range addresses {
		out[i] = f.accounts[pk]
	}
	return out, nil
}

func key(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, 32))
}

// validNonce returns the first nonce that yields an off-curve authority for
// market under the OpenBook program.
func validNonce(t *testing.T, market solana.PublicKey) uint64 {
	t.Helper()
	for n := uint64(0); n < 256; n++ {
		if _, err := DeriveMarketAuthority(market, n, DefaultPrograms().OpenBook); err == nil {
			return n
		}
	}
	t.Fatalf("no valid nonce for market %s", market)
	return 0
}

type poolFixture struct {
	ammID      solana.PublicKey
	market     solana.PublicKey
	tokenMint  solana.PublicKey
	baseVault  solana.PublicKey
	quoteVault solana.PublicKey
	nonce      uint64
}

// seedPool stores a pool + market pair. When tokenIsBase is false the WSOL
// mint occupies the base (coin) slot and the token the quote (pc) slot.
func seedPool(t *testing.T, r *fakeReader, tokenIsBase bool, baseAmount, quoteAmount uint64) poolFixture {
	t.Helper()
	wsol := DefaultPrograms().WrappedSOL

	fx := poolFixture{
		ammID:      key(0x10),
		market:     key(0x20),
		tokenMint:  key(0x30),
		baseVault:  key(0x40),
		quoteVault: key(0x41),
	}
	fx.nonce = validNonce(t, fx.market)

	baseMint, quoteMint := fx.tokenMint, wsol
	var baseDec, quoteDec uint64 = 6, 9
	if !tokenIsBase {
		baseMint, quoteMint = wsol, fx.tokenMint
		baseDec, quoteDec = 9, 6
	}

	pool := &layout.PoolState{
		Status:             6,
		CoinDecimals:       baseDec,
		PcDecimals:         quoteDec,
		SwapFeeNumerator:   25,
		SwapFeeDenominator: 10000,
		CoinVault:          fx.baseVault,
		PcVault:            fx.quoteVault,
		CoinMint:           baseMint,
		PcMint:             quoteMint,
		OpenOrders:         key(0x50),
		Market:             fx.market,
		MarketProgram:      DefaultPrograms().OpenBook,
		TargetOrders:       key(0x51),
	}
	market := &layout.MarketState{
		Flags:            layout.MarketFlags{Initialized: true, Market: true},
		OwnAddress:       fx.market,
		VaultSignerNonce: fx.nonce,
		BaseMint:         baseMint,
		QuoteMint:        quoteMint,
		BaseVault:        key(0x60),
		QuoteVault:       key(0x61),
		RequestQueue:     key(0x62),
		EventQueue:       key(0x63),
		Bids:             key(0x64),
		Asks:             key(0x65),
	}

	r.put(fx.ammID, layout.EncodePoolState(pool))
	r.put(fx.market, layout.EncodeMarketState(market))
	r.put(fx.baseVault, layout.EncodeTokenAccount(&layout.TokenAccount{Mint: baseMint, Amount: baseAmount}))
	r.put(fx.quoteVault, layout.EncodeTokenAccount(&layout.TokenAccount{Mint: quoteMint, Amount: quoteAmount}))
	return fx
}

func newTestResolver(t *testing.T, r AccountReader) *Resolver {
	t.Helper()
	res, err := NewResolver(ResolverConfig{Reader: r})
	require.NoError(t, err)
	return res
}
