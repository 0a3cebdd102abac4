package swapengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/observability"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutor_RequiresPoolsAndReserves(t *testing.T) {
	_, err := NewExecutor(ExecutorConfig{})
	assert.Error(t, err)

	e, err := NewExecutor(ExecutorConfig{Pools: &fakePools{}, Reserves: &fakeReserves{}})
	require.NoError(t, err)
	assert.Equal(t, uint16(200), e.slippageBps)
	assert.Equal(t, 3, e.submitRetries)
	assert.Equal(t, 40, e.confirmAttempts)
	assert.Equal(t, 500*time.Millisecond, e.confirmInterval)
}

func TestQuote_Buy(t *testing.T) {
	h := newHarness()
	qr, err := h.executor(t).Quote(context.Background(), buyRequest("10"))
	require.NoError(t, err)

	assert.Equal(t, "19559.782342", qr.Quote.AmountOut.String())
	assert.Equal(t, uint64(10_000_000_000), qr.AmountIn)
	assert.Equal(t, uint64(19_559_782_342), qr.AmountOut)
	assert.Equal(t, uint64(19_168_586_695), qr.MinAmountOut)
	assert.Equal(t, uint16(200), qr.SlippageBps)
	assert.Equal(t, "0.25", qr.Quote.FeePercent.String())
}

func TestQuote_Sell(t *testing.T) {
	h := newHarness()
	req := sellRequest("1000")
	req.SlippageBps = 100
	qr, err := h.executor(t).Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "0.498252992", qr.Quote.AmountOut.String())
	assert.Equal(t, uint64(1_000_000_000), qr.AmountIn)
	assert.Equal(t, uint64(498_252_992), qr.AmountOut)
	assert.Equal(t, uint64(493_270_462), qr.MinAmountOut)
}

func TestQuote_FeeOverride(t *testing.T) {
	h := newHarness()
	zero := decimal.Zero
	h.cfg.FeeOverride = &zero

	qr, err := h.executor(t).Quote(context.Background(), buyRequest("10"))
	require.NoError(t, err)
	assert.Equal(t, "19607.843137", qr.Quote.AmountOut.String())
}

func TestQuote_ZeroFeeDenominatorRejected(t *testing.T) {
	h := newHarness()
	h.pools.keys.SwapFeeDenominator = 0

	_, err := h.executor(t).Quote(context.Background(), buyRequest("10"))
	assert.ErrorIs(t, err, quote.ErrQuoteRejected)
}

func TestQuote_DustRejected(t *testing.T) {
	h := newHarness()

	// one raw token unit sells for less than one lamport
	_, err := h.executor(t).Quote(context.Background(), sellRequest("0.000001"))
	assert.ErrorIs(t, err, quote.ErrQuoteRejected)
}

func TestQuote_InvalidRequest(t *testing.T) {
	e := newHarness().executor(t)

	_, err := e.Quote(context.Background(), SwapRequest{Direction: quote.Buy, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Quote(context.Background(), buyRequest("0"))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExecute_HappyPathBuy(t *testing.T) {
	h := newHarness()
	h.accounts.missing[programs.WrappedSOL] = true
	h.submitter.statuses = []Status{{State: TxPending}, {State: TxConfirmed, Slot: 42}}
	reg := prometheus.NewRegistry()
	h.cfg.Metrics = observability.NewMetrics(reg)

	res, err := h.executor(t).Execute(context.Background(), buyRequest("10"))
	require.NoError(t, err)

	assert.Equal(t, StateConfirmed, res.State)
	assert.Equal(t, "5igNature", res.Signature)
	assert.NotEmpty(t, res.ID)
	assert.Empty(t, res.Error)
	assert.Equal(t, []State{
		StateQuoting, StateBuilding, StateAwaitingSignature,
		StateSubmitting, StateConfirming, StateConfirmed,
	}, states(res))

	submits, polls := h.submitter.counts()
	assert.Equal(t, 1, submits)
	assert.Equal(t, 2, polls)

	// transfer, sync native, swap, close wsol
	require.Len(t, h.wallet.ixs, 4)
	assert.Equal(t, solana.SystemProgramID, h.wallet.ixs[0].ProgramID())
	assert.Equal(t, solana.TokenProgramID, h.wallet.ixs[1].ProgramID())
	assert.Equal(t, programs.AmmV4, h.wallet.ixs[2].ProgramID())
	assert.Equal(t, solana.TokenProgramID, h.wallet.ixs[3].ProgramID())

	data, err := h.wallet.ixs[2].Data()
	require.NoError(t, err)
	want, err := raydium.EncodeSwapData(10_000_000_000, 19_168_586_695)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	swapAccounts := h.wallet.ixs[2].Accounts()
	require.Len(t, swapAccounts, 18)
	assert.Equal(t, accountFor(programs.WrappedSOL), swapAccounts[15].PublicKey)
	assert.Equal(t, accountFor(testMint), swapAccounts[16].PublicKey)
	assert.Equal(t, testOwner, swapAccounts[17].PublicKey)

	require.Len(t, h.journal.recent, 1)
	require.Len(t, h.journal.published, 1)
	require.Len(t, h.store.inserted, 1)
	a := h.journal.recent[0]
	assert.Equal(t, "confirmed", a.State)
	assert.True(t, a.Succeeded())
	assert.Equal(t, testMint.String(), a.Mint)
	assert.Equal(t, key(1).String(), a.Pool)
	assert.Equal(t, "19559.782342", a.ExpectedOut)
	assert.Equal(t, uint64(19_168_586_695), a.MinAmountOut)

	assert.Equal(t, 1.0, counterValue(t, reg, "amm_swap_attempts_total", map[string]string{"direction": "buy", "state": "confirmed"}))
}

func TestExecute_SellClosesCreatedWSOLAccount(t *testing.T) {
	h := newHarness()
	h.accounts.missing[programs.WrappedSOL] = true
	h.submitter.statuses = []Status{{State: TxConfirmed}}

	res, err := h.executor(t).Execute(context.Background(), sellRequest("1000"))
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, res.State)

	require.Len(t, h.wallet.ixs, 2)
	assert.Equal(t, programs.AmmV4, h.wallet.ixs[0].ProgramID())
	assert.Equal(t, solana.TokenProgramID, h.wallet.ixs[1].ProgramID())

	swapAccounts := h.wallet.ixs[0].Accounts()
	assert.Equal(t, accountFor(testMint), swapAccounts[15].PublicKey)
	assert.Equal(t, accountFor(programs.WrappedSOL), swapAccounts[16].PublicKey)
}

func TestExecute_SellWithoutTokenAccount(t *testing.T) {
	h := newHarness()
	h.accounts.missing[testMint] = true

	res, err := h.executor(t).Execute(context.Background(), sellRequest("1000"))
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, StateFailed, res.State)

	submits, _ := h.submitter.counts()
	assert.Zero(t, submits)
}

func TestExecute_SubmissionExhausted(t *testing.T) {
	h := newHarness()
	boom := errors.New("node unreachable")
	h.submitter.submitErrs = []error{boom, boom, boom}

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmission)
	assert.Contains(t, err.Error(), "node unreachable")
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, res.Signature)

	submits, polls := h.submitter.counts()
	assert.Equal(t, 3, submits)
	assert.Zero(t, polls)
}

func TestExecute_SubmissionRecovers(t *testing.T) {
	h := newHarness()
	boom := errors.New("blockhash not found")
	h.submitter.submitErrs = []error{boom, boom}
	h.submitter.statuses = []Status{{State: TxConfirmed}}

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, res.State)

	submits, _ := h.submitter.counts()
	assert.Equal(t, 3, submits)
}

func TestExecute_ConfirmationTimesOut(t *testing.T) {
	h := newHarness()

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, StateTimedOut, res.State)
	assert.Equal(t, "5igNature", res.Signature)

	_, polls := h.submitter.counts()
	assert.Equal(t, 5, polls)

	require.Len(t, h.journal.recent, 1)
	assert.Equal(t, "timed_out", h.journal.recent[0].State)
}

func TestExecute_PollErrorsCountAsPending(t *testing.T) {
	h := newHarness()
	h.submitter.statusErr = errors.New("503")

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, StateTimedOut, res.State)

	_, polls := h.submitter.counts()
	assert.Equal(t, 5, polls)
}

func TestExecute_OnChainFailure(t *testing.T) {
	h := newHarness()
	h.submitter.statuses = []Status{
		{State: TxPending},
		{State: TxFailed, Detail: `{"InstructionError":[2,{"Custom":30}]}`},
	}

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	assert.ErrorIs(t, err, ErrOnChainFailure)
	assert.Contains(t, err.Error(), "Custom")
	assert.Equal(t, StateFailed, res.State)

	_, polls := h.submitter.counts()
	assert.Equal(t, 2, polls)
}

func TestExecute_KillSwitch(t *testing.T) {
	for name, f := range map[string]*fakeFlags{
		"flag off":         {enabled: false},
		"flag store error": {enabled: true, err: errors.New("redis down")},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			h.cfg.Flags = f

			res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
			assert.ErrorIs(t, err, ErrSwapsDisabled)
			assert.Equal(t, StateFailed, res.State)
			assert.Equal(t, []State{StateQuoting, StateFailed}, states(res))
			assert.Zero(t, h.pools.calls)

			submits, _ := h.submitter.counts()
			assert.Zero(t, submits)
		})
	}
}

func TestExecute_FlagOnRuns(t *testing.T) {
	h := newHarness()
	h.cfg.Flags = &fakeFlags{enabled: true}
	h.submitter.statuses = []Status{{State: TxConfirmed}}

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, res.State)
}

func TestExecute_NoPool(t *testing.T) {
	h := newHarness()
	h.pools.err = raydium.ErrNoPoolFound

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	assert.ErrorIs(t, err, raydium.ErrNoPoolFound)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []State{StateQuoting, StateFailed}, states(res))
	assert.Nil(t, res.Quote)

	require.Len(t, h.journal.recent, 1)
	assert.Empty(t, h.journal.recent[0].Pool)
}

func TestExecute_ReserveErrorNotRetried(t *testing.T) {
	h := newHarness()
	h.reserves.err = raydium.ErrReserveUnavailable

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	assert.ErrorIs(t, err, raydium.ErrReserveUnavailable)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 1, h.pools.calls)
}

func TestExecute_RiskRejected(t *testing.T) {
	h := newHarness()
	h.cfg.Risk = NewRiskManager(DefaultRiskConfig())

	res, err := h.executor(t).Execute(context.Background(), buyRequest("10"))
	assert.ErrorIs(t, err, ErrRiskRejected)
	assert.Contains(t, err.Error(), "exceeds max")
	assert.Equal(t, StateFailed, res.State)
	assert.NotNil(t, res.Quote)
}

func TestExecute_RecordsConfirmedSwapAgainstDailyLimit(t *testing.T) {
	h := newHarness()
	risk := NewRiskManager(DefaultRiskConfig())
	h.cfg.Risk = risk
	h.submitter.statuses = []Status{{State: TxConfirmed}}

	_, err := h.executor(t).Execute(context.Background(), buyRequest("0.5"))
	require.NoError(t, err)
	assert.Equal(t, "0.5", risk.Status().DailyUsedSOL.String())
}

func TestExecute_WithoutWallet(t *testing.T) {
	h := newHarness()
	h.cfg.Signer = nil

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	assert.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
}

func TestExecute_ContextCancelledWhileConfirming(t *testing.T) {
	h := newHarness()
	h.cfg.ConfirmInterval = 20 * time.Millisecond
	h.cfg.ConfirmAttempts = 1000

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res, err := h.executor(t).Execute(ctx, buyRequest("1"))
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateTimedOut, res.State)
	assert.Equal(t, "5igNature", res.Signature)

	// the journal still gets the record
	require.Len(t, h.journal.recent, 1)
	assert.Equal(t, "timed_out", h.journal.recent[0].State)
}

func TestExecute_DeadlineWhileConfirmingIsTimedOut(t *testing.T) {
	h := newHarness()
	h.cfg.ConfirmInterval = 20 * time.Millisecond
	h.cfg.ConfirmAttempts = 1000

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	res, err := h.executor(t).Execute(ctx, buyRequest("1"))
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrOnChainFailure)
	assert.Equal(t, StateTimedOut, res.State)
	assert.Equal(t, "5igNature", res.Signature)
}

func TestExecute_CancelledBeforeSubmissionIsFailed(t *testing.T) {
	h := newHarness()
	h.submitter.submitErrs = []error{errors.New("node unreachable")}
	h.cfg.SubmitBackoff = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := h.executor(t).Execute(ctx, buyRequest("1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, res.Signature)
}

func TestExecute_TimedOutSwapKeepsDailyLimitHold(t *testing.T) {
	h := newHarness()
	risk := NewRiskManager(DefaultRiskConfig())
	h.cfg.Risk = risk

	res, err := h.executor(t).Execute(context.Background(), buyRequest("0.5"))
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, StateTimedOut, res.State)
	assert.Equal(t, "0.5", risk.Status().DailyUsedSOL.String())
}

func TestExecute_FailedSwapReleasesDailyLimitHold(t *testing.T) {
	for name, setup := range map[string]func(h *harness){
		"submission exhausted": func(h *harness) {
			boom := errors.New("node unreachable")
			h.submitter.submitErrs = []error{boom, boom, boom}
		},
		"on-chain failure": func(h *harness) {
			h.submitter.statuses = []Status{{State: TxFailed, Detail: "Custom"}}
		},
		"sign error": func(h *harness) {
			h.wallet.signErr = errors.New("locked")
		},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			risk := NewRiskManager(DefaultRiskConfig())
			h.cfg.Risk = risk
			setup(h)

			res, err := h.executor(t).Execute(context.Background(), buyRequest("0.5"))
			require.Error(t, err)
			assert.Equal(t, StateFailed, res.State)
			assert.True(t, risk.Status().DailyUsedSOL.IsZero())
		})
	}
}

func TestExecute_ConcurrentSwapsShareDailyLimit(t *testing.T) {
	h := newHarness()
	cfg := DefaultRiskConfig()
	cfg.DailyLimitSOL = 1
	risk := NewRiskManager(cfg)
	h.cfg.Risk = risk
	h.cfg.ConfirmInterval = 10 * time.Millisecond
	h.submitter.statuses = []Status{{State: TxPending}, {State: TxConfirmed}}
	e := h.executor(t)

	const n = 6
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := e.Execute(context.Background(), buyRequest("0.4"))
			errs <- err
		}()
	}

	var ok, rejected int
	for i := 0; i < n; i++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRiskRejected):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, n-2, rejected)
	assert.Equal(t, "0.8", risk.Status().DailyUsedSOL.String())
}

func TestExecute_StoreErrorDoesNotChangeOutcome(t *testing.T) {
	h := newHarness()
	h.store.err = errors.New("clickhouse down")
	h.submitter.statuses = []Status{{State: TxConfirmed}}

	res, err := h.executor(t).Execute(context.Background(), buyRequest("1"))
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, res.State)
}

func counterValue(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
