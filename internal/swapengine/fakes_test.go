package swapengine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func key(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

var (
	testMint  = key(0xAA)
	testOwner = key(0x0F)
	programs  = raydium.DefaultPrograms()
)

func testPoolKeys() *raydium.PoolKeys {
	return &raydium.PoolKeys{
		AmmID:              key(1),
		BaseMint:           testMint,
		QuoteMint:          programs.WrappedSOL,
		BaseDecimals:       6,
		QuoteDecimals:      9,
		OpenOrders:         key(2),
		TargetOrders:       key(3),
		BaseVault:          key(4),
		QuoteVault:         key(5),
		MarketID:           key(6),
		MarketAuthority:    key(7),
		MarketBaseVault:    key(8),
		MarketQuoteVault:   key(9),
		Bids:               key(10),
		Asks:               key(11),
		EventQueue:         key(12),
		AmmProgram:         programs.AmmV4,
		AuthorityV4:        programs.AuthorityV4,
		OpenBookProgram:    programs.OpenBook,
		TokenProgram:       programs.TokenProgram,
		SwapFeeNumerator:   25,
		SwapFeeDenominator: 10000,
	}
}

type fakePools struct {
	mu    sync.Mutex
	keys  *raydium.PoolKeys
	err   error
	calls int
}

func (f *fakePools) Resolve(_ context.Context, mint solana.PublicKey) (*raydium.PoolKeys, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

type fakeReserves struct {
	res *raydium.Reserves
	err error
}

func (f *fakeReserves) Read(context.Context, *raydium.PoolKeys) (*raydium.Reserves, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

// fakeWallet builds empty transactions and records the instructions it was
// given.
type fakeWallet struct {
	mu      sync.Mutex
	ixs     []solana.Instruction
	balance decimal.Decimal
	signErr error
}

func (w *fakeWallet) PublicKey() solana.PublicKey { return testOwner }

func (w *fakeWallet) BuildTransaction(_ context.Context, ixs []solana.Instruction) (*solana.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ixs = ixs
	return &solana.Transaction{}, nil
}

func (w *fakeWallet) Sign(*solana.Transaction) ([]byte, error) {
	if w.signErr != nil {
		return nil, w.signErr
	}
	return []byte("signed-tx"), nil
}

func (w *fakeWallet) BalanceSOL(context.Context) (decimal.Decimal, error) {
	return w.balance, nil
}

// fakeSubmitter fails the first len(submitErrs) submissions with the listed
// errors (nil entries succeed) and then answers polls from statuses in order,
// repeating the last one.
type fakeSubmitter struct {
	mu         sync.Mutex
	submitErrs []error
	statuses   []Status
	statusErr  error
	submits    int
	polls      int
}

func (f *fakeSubmitter) SubmitTransaction(_ context.Context, tx []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submits <= len(f.submitErrs) && f.submitErrs[f.submits-1] != nil {
		return "", f.submitErrs[f.submits-1]
	}
	return "5igNature", nil
}

func (f *fakeSubmitter) GetStatus(context.Context, string) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return Status{}, f.statusErr
	}
	if len(f.statuses) == 0 {
		return Status{State: TxPending}, nil
	}
	i := f.polls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeSubmitter) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits, f.polls
}

// fakeAccounts hands out one account per mint; mints in missing are reported
// as created by the transaction.
type fakeAccounts struct {
	missing map[solana.PublicKey]bool
}

func accountFor(mint solana.PublicKey) solana.PublicKey {
	return key(mint[0] ^ 0xFF)
}

func (f *fakeAccounts) Resolve(_ context.Context, _ solana.PublicKey, mint solana.PublicKey) (*ResolvedTokenAccount, error) {
	return &ResolvedTokenAccount{Account: accountFor(mint), Created: f.missing[mint]}, nil
}

type fakeFlags struct {
	enabled bool
	err     error
}

func (f *fakeFlags) Enabled(context.Context, string, bool) (bool, error) {
	return f.enabled, f.err
}

type fakeJournal struct {
	mu        sync.Mutex
	recent    []*models.SwapAttempt
	published []*models.SwapAttempt
}

func (j *fakeJournal) AddRecentSwap(_ context.Context, a *models.SwapAttempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recent = append(j.recent, a)
	return nil
}

func (j *fakeJournal) GetRecentSwaps(context.Context, int64) ([]*models.SwapAttempt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.recent, nil
}

func (j *fakeJournal) GetRecentSwapsForMint(context.Context, string, int64) ([]*models.SwapAttempt, error) {
	return nil, nil
}

func (j *fakeJournal) PublishSwap(_ context.Context, a *models.SwapAttempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.published = append(j.published, a)
	return nil
}

func (j *fakeJournal) SubscribeSwaps(context.Context) (<-chan *models.SwapAttempt, error) {
	return nil, errors.New("not supported")
}

func (j *fakeJournal) Ping(context.Context) error { return nil }
func (j *fakeJournal) Close() error                { return nil }

type fakeStore struct {
	mu       sync.Mutex
	inserted []*models.SwapAttempt
	err      error
}

func (s *fakeStore) InsertSwap(_ context.Context, a *models.SwapAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, a)
	return s.err
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close() error               { return nil }

type harness struct {
	pools     *fakePools
	reserves  *fakeReserves
	wallet    *fakeWallet
	submitter *fakeSubmitter
	accounts  *fakeAccounts
	journal   *fakeJournal
	store     *fakeStore
	cfg       ExecutorConfig
}

func newHarness() *harness {
	h := &harness{
		pools: &fakePools{keys: testPoolKeys()},
		reserves: &fakeReserves{res: &raydium.Reserves{
			Base:          decimal.NewFromInt(1_000_000),
			Quote:         decimal.NewFromInt(500),
			TokenDecimals: 6,
			ReadAt:        time.Now(),
		}},
		wallet:    &fakeWallet{balance: decimal.NewFromInt(100)},
		submitter: &fakeSubmitter{},
		accounts:  &fakeAccounts{missing: map[solana.PublicKey]bool{}},
		journal:   &fakeJournal{},
		store:     &fakeStore{},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h.cfg = ExecutorConfig{
		Pools:           h.pools,
		Reserves:        h.reserves,
		Builder:         h.wallet,
		Signer:          h.wallet,
		Balance:         h.wallet,
		Submitter:       h.submitter,
		Accounts:        h.accounts,
		Journal:         h.journal,
		Store:           h.store,
		Logger:          logger,
		WrappedSOL:      programs.WrappedSOL,
		SubmitRetries:   3,
		SubmitBackoff:   time.Millisecond,
		ConfirmInterval: time.Millisecond,
		ConfirmAttempts: 5,
	}
	return h
}

func (h *harness) executor(t *testing.T) *Executor {
	t.Helper()
	e, err := NewExecutor(h.cfg)
	require.NoError(t, err)
	return e
}

func buyRequest(sol string) SwapRequest {
	return SwapRequest{Mint: testMint, Direction: quote.Buy, Amount: decimal.RequireFromString(sol)}
}

func sellRequest(tokens string) SwapRequest {
	return SwapRequest{Mint: testMint, Direction: quote.Sell, Amount: decimal.RequireFromString(tokens)}
}

func states(res *SwapResult) []State {
	out := make([]State, len(res.Transitions))
	for i, tr := range res.Transitions {
		out[i] = tr.State
	}
	return out
}
