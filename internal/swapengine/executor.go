package swapengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/flags"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/observability"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/storage"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const journalTimeout = 5 * time.Second

// ExecutorConfig wires the executor. Pools and Reserves are required for
// quoting; Builder, Signer, Submitter and Accounts are required to execute.
type ExecutorConfig struct {
	Pools     PoolSource
	Reserves  ReserveSource
	Builder   TxBuilder
	Signer    Signer
	Balance   BalanceSource
	Submitter Submitter
	Accounts  TokenAccountResolver

	Risk    *RiskManager
	Flags   flags.Reader
	Journal storage.SwapJournal
	Store   storage.SwapStore
	Metrics *observability.Metrics
	Logger  *logrus.Logger

	WrappedSOL solana.PublicKey
	// FeeOverride replaces the fee read from pool state.
	FeeOverride *decimal.Decimal

	SlippageBps     uint16
	SubmitRetries   int
	SubmitBackoff   time.Duration
	ConfirmInterval time.Duration
	ConfirmAttempts int
}

// Executor runs one swap attempt at a time per call. It holds no per-attempt
// state, so concurrent calls are independent.
type Executor struct {
	pools     PoolSource
	reserves  ReserveSource
	builder   TxBuilder
	signer    Signer
	balance   BalanceSource
	submitter Submitter
	accounts  TokenAccountResolver

	risk    *RiskManager
	flags   flags.Reader
	journal storage.SwapJournal
	store   storage.SwapStore
	metrics *observability.Metrics
	logger  *logrus.Logger

	wsol        solana.PublicKey
	feeOverride *decimal.Decimal

	slippageBps     uint16
	submitRetries   int
	submitBackoff   time.Duration
	confirmInterval time.Duration
	confirmAttempts int
}

func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Pools == nil || cfg.Reserves == nil {
		return nil, fmt.Errorf("executor: Pools and Reserves are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.WrappedSOL.IsZero() {
		cfg.WrappedSOL = solana.MustPublicKeyFromBase58(raydium.WrappedSOLMintAddress)
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = constants.DefaultSlippageBps
	}
	if cfg.SubmitRetries <= 0 {
		cfg.SubmitRetries = constants.SubmitRetries
	}
	if cfg.SubmitBackoff <= 0 {
		cfg.SubmitBackoff = constants.SubmitBackoff
	}
	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = constants.ConfirmInterval
	}
	if cfg.ConfirmAttempts <= 0 {
		cfg.ConfirmAttempts = constants.ConfirmAttempts
	}

	return &Executor{
		pools:           cfg.Pools,
		reserves:        cfg.Reserves,
		builder:         cfg.Builder,
		signer:          cfg.Signer,
		balance:         cfg.Balance,
		submitter:       cfg.Submitter,
		accounts:        cfg.Accounts,
		risk:            cfg.Risk,
		flags:           cfg.Flags,
		journal:         cfg.Journal,
		store:           cfg.Store,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		wsol:            cfg.WrappedSOL,
		feeOverride:     cfg.FeeOverride,
		slippageBps:     cfg.SlippageBps,
		submitRetries:   cfg.SubmitRetries,
		submitBackoff:   cfg.SubmitBackoff,
		confirmInterval: cfg.ConfirmInterval,
		confirmAttempts: cfg.ConfirmAttempts,
	}, nil
}

// Quote prices req against the current reserves without touching the wallet.
func (e *Executor) Quote(ctx context.Context, req SwapRequest) (*QuoteResult, error) {
	req, err := normalizeRequest(req, e.slippageBps, e.wsol)
	if err != nil {
		return nil, err
	}
	return e.quote(ctx, req)
}

func (e *Executor) quote(ctx context.Context, req SwapRequest) (*QuoteResult, error) {
	keys, err := e.pools.Resolve(ctx, req.Mint)
	if err != nil {
		if errors.Is(err, raydium.ErrNoPoolFound) {
			e.metrics.ObservePoolLookup("not_found")
		} else {
			e.metrics.ObservePoolLookup("error")
		}
		return nil, err
	}
	e.metrics.ObservePoolLookup("found")

	reserves, err := e.reserves.Read(ctx, keys)
	if err != nil {
		return nil, err
	}

	fee, err := e.feePercent(keys)
	if err != nil {
		e.metrics.ObserveQuote(string(req.Direction), "rejected")
		return nil, err
	}

	q, err := quote.Compute(quote.Request{
		Direction:      req.Direction,
		AmountIn:       req.Amount,
		Base:           reserves.Base,
		Quote:          reserves.Quote,
		FeePercent:     fee,
		TokenDecimals:  reserves.TokenDecimals,
		NativeDecimals: raydium.WrappedSOLDecimals,
	})
	if err != nil {
		e.metrics.ObserveQuote(string(req.Direction), "rejected")
		return nil, err
	}

	inDecimals := uint8(raydium.WrappedSOLDecimals)
	if req.Direction == quote.Sell {
		inDecimals = reserves.TokenDecimals
	}
	amountIn, err := quote.ToRaw(req.Amount, inDecimals)
	if err != nil {
		return nil, err
	}
	amountOut, err := quote.ToRaw(q.AmountOut, q.OutDecimals)
	if err != nil {
		return nil, err
	}
	if amountIn == 0 || amountOut == 0 {
		e.metrics.ObserveQuote(string(req.Direction), "rejected")
		return nil, fmt.Errorf("%w: amount too small to trade (in=%d out=%d raw)", quote.ErrQuoteRejected, amountIn, amountOut)
	}
	e.metrics.ObserveQuote(string(req.Direction), "ok")

	return &QuoteResult{
		Pool:         keys,
		Reserves:     reserves,
		Quote:        q,
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		MinAmountOut: quote.ApplySlippage(amountOut, req.SlippageBps),
		SlippageBps:  req.SlippageBps,
	}, nil
}

func (e *Executor) feePercent(keys *raydium.PoolKeys) (decimal.Decimal, error) {
	if e.feeOverride != nil {
		return *e.feeOverride, nil
	}
	return quote.FeePercent(keys.SwapFeeNumerator, keys.SwapFeeDenominator)
}

// Execute runs one attempt through quoting, building, signing, submission and
// confirmation. The returned result is never nil and its State is terminal.
func (e *Executor) Execute(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	res := &SwapResult{
		ID:        uuid.NewString(),
		Mint:      req.Mint,
		Direction: req.Direction,
		StartedAt: time.Now(),
	}
	log := e.logger.WithFields(logrus.Fields{
		"swap_id":   res.ID,
		"mint":      req.Mint.String(),
		"symbol":    constants.Symbol(req.Mint.String()),
		"direction": req.Direction,
		"amount":    req.Amount.String(),
	})

	err := e.run(ctx, req, res, log)
	e.finish(ctx, req, res, err, log)
	return res, err
}

func (e *Executor) run(ctx context.Context, req SwapRequest, res *SwapResult, log *logrus.Entry) error {
	e.transition(res, StateQuoting, log)

	if err := e.checkEnabled(ctx); err != nil {
		return err
	}
	if e.builder == nil || e.signer == nil || e.submitter == nil || e.accounts == nil {
		return fmt.Errorf("executor: no wallet or submitter configured")
	}

	req, err := normalizeRequest(req, e.slippageBps, e.wsol)
	if err != nil {
		return err
	}

	qr, err := e.quote(ctx, req)
	if err != nil {
		return err
	}
	res.Quote = qr

	if err := e.checkRisk(ctx, qr, res); err != nil {
		return err
	}

	e.transition(res, StateBuilding, log)
	tx, err := e.buildTransaction(ctx, req, qr)
	if err != nil {
		return err
	}

	e.transition(res, StateAwaitingSignature, log)
	raw, err := e.signer.Sign(tx)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	e.transition(res, StateSubmitting, log)
	sig, err := e.submit(ctx, raw, log)
	if err != nil {
		return err
	}
	res.Signature = sig

	e.transition(res, StateConfirming, log.WithField("signature", sig))
	return e.confirm(ctx, sig, log)
}

// checkEnabled reads the kill switch. A flag store that cannot be read keeps
// execution off.
func (e *Executor) checkEnabled(ctx context.Context) error {
	if e.flags == nil {
		return nil
	}
	enabled, err := e.flags.Enabled(ctx, constants.FlagSwapsEnabled, true)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrSwapsDisabled, constants.FlagSwapsEnabled, err)
	}
	if !enabled {
		return fmt.Errorf("%w: %s is off", ErrSwapsDisabled, constants.FlagSwapsEnabled)
	}
	return nil
}

// checkRisk holds the swap's value against the daily limit when it passes;
// finish releases the hold for swaps that cannot have landed.
func (e *Executor) checkRisk(ctx context.Context, qr *QuoteResult, res *SwapResult) error {
	if e.risk == nil {
		return nil
	}

	var balance *decimal.Decimal
	if e.balance != nil {
		b, err := e.balance.BalanceSOL(ctx)
		if err != nil {
			return fmt.Errorf("wallet balance: %w", err)
		}
		balance = &b
	}

	check, hold := e.risk.Reserve(qr, balance)
	if !check.Allowed {
		return fmt.Errorf("%w: %s", ErrRiskRejected, check.Reason)
	}
	res.hold = hold
	return nil
}

// buildTransaction assembles setup, swap and cleanup instructions. Buys wrap
// SOL into the WSOL account first; the WSOL account is closed afterwards
// whenever this transaction created it, which unwraps any SOL it holds.
func (e *Executor) buildTransaction(ctx context.Context, req SwapRequest, qr *QuoteResult) (*solana.Transaction, error) {
	owner := e.signer.PublicKey()

	inMint, outMint := e.wsol, req.Mint
	if req.Direction == quote.Sell {
		inMint, outMint = req.Mint, e.wsol
	}

	src, err := e.accounts.Resolve(ctx, owner, inMint)
	if err != nil {
		return nil, fmt.Errorf("resolve source account: %w", err)
	}
	dst, err := e.accounts.Resolve(ctx, owner, outMint)
	if err != nil {
		return nil, fmt.Errorf("resolve destination account: %w", err)
	}
	if req.Direction == quote.Sell && src.Created {
		return nil, fmt.Errorf("%w: wallet has no token account for %s", ErrInvalidRequest, req.Mint)
	}

	var pre, post []solana.Instruction
	pre = append(pre, src.PreIxs...)
	pre = append(pre, dst.PreIxs...)

	if req.Direction == quote.Buy {
		pre = append(pre, newWrapSOLIxs(owner, src.Account, qr.AmountIn)...)
		if src.Created {
			post = append(post, newCloseAccountIx(src.Account, owner))
		}
	} else if dst.Created {
		post = append(post, newCloseAccountIx(dst.Account, owner))
	}

	swapIx, err := raydium.BuildSwapInstruction(qr.Pool, qr.AmountIn, qr.MinAmountOut, src.Account, dst.Account, owner)
	if err != nil {
		return nil, fmt.Errorf("build swap instruction: %w", err)
	}

	ixs := make([]solana.Instruction, 0, len(pre)+1+len(post))
	ixs = append(ixs, pre...)
	ixs = append(ixs, swapIx)
	ixs = append(ixs, post...)

	tx, err := e.builder.BuildTransaction(ctx, ixs)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}

// submit sends raw up to submitRetries times with linear backoff between
// attempts.
func (e *Executor) submit(ctx context.Context, raw []byte, log *logrus.Entry) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.submitRetries; attempt++ {
		sig, err := e.submitter.SubmitTransaction(ctx, raw)
		if err == nil {
			return sig, nil
		}
		lastErr = err

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("transaction submission failed")

		if attempt == e.submitRetries {
			break
		}
		e.metrics.IncSubmitRetry()
		if err := sleepCtx(ctx, time.Duration(attempt)*e.submitBackoff); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrSubmission, e.submitRetries, lastErr)
}

// confirm polls until the signature is confirmed, fails on chain, or the
// polling budget runs out. Poll errors count as pending. Leaving early on
// ctx is a timeout too: the transaction is out and may still land.
func (e *Executor) confirm(ctx context.Context, sig string, log *logrus.Entry) error {
	for poll := 1; poll <= e.confirmAttempts; poll++ {
		if err := sleepCtx(ctx, e.confirmInterval); err != nil {
			return fmt.Errorf("%w: %s after %d polls: %w", ErrTimedOut, sig, poll-1, err)
		}

		st, err := e.submitter.GetStatus(ctx, sig)
		if err != nil {
			log.WithError(err).WithField("poll", poll).Debug("status poll failed")
			continue
		}

		switch st.State {
		case TxConfirmed:
			return nil
		case TxFailed:
			return fmt.Errorf("%w: %s: %s", ErrOnChainFailure, sig, st.Detail)
		}
	}
	return fmt.Errorf("%w: %s not confirmed after %d polls", ErrTimedOut, sig, e.confirmAttempts)
}

func (e *Executor) transition(res *SwapResult, s State, log *logrus.Entry) {
	res.enter(s)
	log.WithField("state", s).Debug("swap state")
}

func (e *Executor) finish(ctx context.Context, req SwapRequest, res *SwapResult, err error, log *logrus.Entry) {
	switch {
	case err == nil:
		res.enter(StateConfirmed)
	case errors.Is(err, ErrTimedOut):
		res.enter(StateTimedOut)
		res.Error = err.Error()
	default:
		res.enter(StateFailed)
		res.Error = err.Error()
	}
	res.Duration = time.Since(res.StartedAt)

	fields := logrus.Fields{
		"state":       res.State,
		"signature":   res.Signature,
		"duration_ms": res.Duration.Milliseconds(),
	}
	switch res.State {
	case StateConfirmed:
		log.WithFields(fields).Info("swap confirmed")
	case StateTimedOut:
		// may still land, so the daily-limit hold stays
		log.WithFields(fields).Warn("swap not confirmed in time")
	default:
		res.hold.Release()
		log.WithFields(fields).WithError(err).Error("swap failed")
	}

	e.metrics.ObserveAttempt(string(req.Direction), string(res.State), res.Duration)
	e.record(ctx, req, res, log)
}

// record journals the attempt. Storage failures are logged and never change
// the outcome.
func (e *Executor) record(ctx context.Context, req SwapRequest, res *SwapResult, log *logrus.Entry) {
	if e.journal == nil && e.store == nil {
		return
	}

	attempt := toAttempt(req, res)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if e.journal != nil {
		if err := e.journal.AddRecentSwap(ctx, attempt); err != nil {
			log.WithError(err).Warn("failed to journal swap")
		}
		if err := e.journal.PublishSwap(ctx, attempt); err != nil {
			log.WithError(err).Warn("failed to publish swap")
		}
	}
	if e.store != nil {
		if err := e.store.InsertSwap(ctx, attempt); err != nil {
			log.WithError(err).Warn("failed to store swap")
		}
	}
}

func toAttempt(req SwapRequest, res *SwapResult) *models.SwapAttempt {
	a := &models.SwapAttempt{
		ID:          res.ID,
		Signature:   res.Signature,
		Mint:        req.Mint.String(),
		Direction:   string(req.Direction),
		AmountIn:    req.Amount.String(),
		SlippageBps: req.SlippageBps,
		State:       string(res.State),
		Error:       res.Error,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.StartedAt.Add(res.Duration),
		DurationMS:  res.Duration.Milliseconds(),
	}
	if qr := res.Quote; qr != nil {
		a.Pool = qr.Pool.AmmID.String()
		a.ExpectedOut = qr.Quote.AmountOut.String()
		a.MinAmountOut = qr.MinAmountOut
		a.SlippageBps = qr.SlippageBps
	}
	return a
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
