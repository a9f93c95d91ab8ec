// Package engine is the swap-request lifecycle: create, approve, reject.
// Every mutating operation runs to completion under one ledger-wide mutex,
// moves funds through the custody adapter and only then touches the store.
// A failure anywhere aborts the whole operation; custody moves already
// completed within the failed call are reverted before returning.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"swap_escrow/internal/custody"
	"swap_escrow/internal/model"
	"swap_escrow/internal/registry"
	"swap_escrow/internal/settlement"

	"github.com/sirupsen/logrus"
)

// Store is the durable request mapping the engine mutates. Append-only:
// Create writes a fresh record, SetStatus applies the one permitted
// pending -> terminal transition.
type Store interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, req model.SwapRequest) error
	Get(ctx context.Context, id uint64) (model.SwapRequest, error)
	SetStatus(ctx context.Context, id uint64, status model.Status, now time.Time) error
}

// Notifier receives lifecycle events keyed by request id topic.
type Notifier interface {
	Broadcast(topic string, payload any)
}

// Config is the immutable-after-init ledger configuration.
type Config struct {
	Owner      string
	Treasury   string
	FeeRateBps uint64
}

type Engine struct {
	mu  sync.Mutex
	cfg *Config // nil until Initialize

	store    Store
	bank     custody.Adapter
	registry registry.Registry
	hub      Notifier
	log      *logrus.Entry
}

func NewEngine(store Store, bank custody.Adapter, reg registry.Registry, hub Notifier) *Engine {
	return &Engine{
		store:    store,
		bank:     bank,
		registry: reg,
		hub:      hub,
		log:      logrus.WithField("component", "engine"),
	}
}

// Initialize sets the ledger configuration exactly once.
func (e *Engine) Initialize(owner, treasury string, feeRateBps uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg != nil {
		return model.ErrAlreadyInitialized
	}
	if owner == "" {
		return fmt.Errorf("%w: owner required", model.ErrValidation)
	}
	if treasury == "" {
		return fmt.Errorf("%w: treasury required", model.ErrValidation)
	}
	if feeRateBps > settlement.BpsDenominator {
		return fmt.Errorf("%w: fee rate %d exceeds %d bps", model.ErrValidation, feeRateBps, settlement.BpsDenominator)
	}
	e.cfg = &Config{Owner: owner, Treasury: treasury, FeeRateBps: feeRateBps}
	e.log.WithFields(logrus.Fields{
		"owner":        owner,
		"treasury":     treasury,
		"fee_rate_bps": feeRateBps,
	}).Info("ledger initialized")
	return nil
}

// Create deposits amountIn of tokenIn from caller into ledger custody and
// records a pending swap request. The deposit pull happens before the record
// exists; if anything after the pull fails the deposit is returned.
func (e *Engine) Create(ctx context.Context, caller, receiver, tokenIn, tokenOut string, amountIn uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg == nil {
		return 0, model.ErrNotInitialized
	}
	if caller == "" {
		return 0, fmt.Errorf("%w: caller required", model.ErrValidation)
	}
	if receiver == "" {
		return 0, fmt.Errorf("%w: receiver required", model.ErrValidation)
	}
	if amountIn == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	if !e.registry.Supported(tokenIn) {
		return 0, fmt.Errorf("%w: unsupported asset %q", model.ErrValidation, tokenIn)
	}
	if !e.registry.Supported(tokenOut) {
		return 0, fmt.Errorf("%w: unsupported asset %q", model.ErrValidation, tokenOut)
	}

	ledger := newLedgerTx(e.bank)
	if err := ledger.pull(ctx, caller, tokenIn, amountIn); err != nil {
		return 0, err
	}

	id, err := e.store.NextID(ctx)
	if err != nil {
		ledger.revert(ctx, e.log)
		return 0, err
	}

	now := time.Now().UTC()
	req := model.SwapRequest{
		ID:        id,
		Sender:    caller,
		Receiver:  receiver,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amountIn,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Create(ctx, req); err != nil {
		ledger.revert(ctx, e.log)
		return 0, err
	}

	e.hub.Broadcast(topic(id), model.NewRequestCreated(req))
	e.log.WithFields(logrus.Fields{
		"request_id": id,
		"sender":     caller,
		"receiver":   receiver,
		"token_in":   tokenIn,
		"token_out":  tokenOut,
		"amount_in":  amountIn,
	}).Info("swap request created")
	return id, nil
}

// Approve settles a pending request: the caller pays an extra fee in
// tokenIn, the treasury takes its cut of the fee-reduced deposit and the
// receiver gets amountIn times the fixed rate in tokenOut. The rate applies
// twice on different bases; that is the behavioral contract, kept as is.
func (e *Engine) Approve(ctx context.Context, caller string, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg == nil {
		return model.ErrNotInitialized
	}
	if caller == "" {
		return fmt.Errorf("%w: caller required", model.ErrValidation)
	}

	req, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	// only "not the sender" is required, not "is the designated receiver"
	if caller == req.Sender {
		return fmt.Errorf("%w: sender cannot approve own request", model.ErrValidation)
	}
	if req.Status.Terminal() {
		return fmt.Errorf("%w: request %d is already %s", model.ErrValidation, id, req.Status)
	}

	amountOut, err := settlement.AmountOut(req.AmountIn)
	if err != nil {
		return err
	}
	fee, err := settlement.FeeAmount(req.AmountIn, e.cfg.FeeRateBps)
	if err != nil {
		return err
	}
	if fee > req.AmountIn {
		return fmt.Errorf("%w: fee %d exceeds amount %d", model.ErrArithmeticOverflow, fee, req.AmountIn)
	}
	treasuryCut, err := settlement.FeeAmount(req.AmountIn-fee, e.cfg.FeeRateBps)
	if err != nil {
		return err
	}

	held, err := e.bank.Balance(ctx, custody.LedgerAccount, req.TokenOut)
	if err != nil {
		return fmt.Errorf("check liquidity: %w", err)
	}
	if held < amountOut {
		return fmt.Errorf("%w: need %d %s, ledger holds %d", model.ErrInsufficientLiquidity, amountOut, req.TokenOut, held)
	}

	ledger := newLedgerTx(e.bank)
	if err := ledger.pull(ctx, caller, req.TokenIn, fee); err != nil {
		return err
	}
	if err := ledger.push(ctx, e.cfg.Treasury, req.TokenIn, treasuryCut); err != nil {
		ledger.revert(ctx, e.log)
		return err
	}
	if err := ledger.push(ctx, req.Receiver, req.TokenOut, amountOut); err != nil {
		ledger.revert(ctx, e.log)
		return err
	}

	now := time.Now().UTC()
	if err := e.store.SetStatus(ctx, id, model.StatusApproved, now); err != nil {
		ledger.revert(ctx, e.log)
		return err
	}

	e.hub.Broadcast(topic(id), model.NewStatusChanged(id, model.StatusApproved))
	e.log.WithFields(logrus.Fields{
		"request_id":   id,
		"caller":       caller,
		"amount_out":   amountOut,
		"fee":          fee,
		"treasury_cut": treasuryCut,
	}).Info("swap request approved")
	return nil
}

// Reject refunds the full deposit to the sender and cancels the request.
func (e *Engine) Reject(ctx context.Context, caller string, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg == nil {
		return model.ErrNotInitialized
	}
	if caller == "" {
		return fmt.Errorf("%w: caller required", model.ErrValidation)
	}

	req, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	// mirror of the approve check: anyone but the receiver may reject
	if caller == req.Receiver {
		return fmt.Errorf("%w: receiver cannot reject request", model.ErrValidation)
	}
	if req.Status.Terminal() {
		return fmt.Errorf("%w: request %d is already %s", model.ErrValidation, id, req.Status)
	}

	ledger := newLedgerTx(e.bank)
	if err := ledger.push(ctx, req.Sender, req.TokenIn, req.AmountIn); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := e.store.SetStatus(ctx, id, model.StatusCancelled, now); err != nil {
		ledger.revert(ctx, e.log)
		return err
	}

	e.hub.Broadcast(topic(id), model.NewStatusChanged(id, model.StatusCancelled))
	e.log.WithFields(logrus.Fields{
		"request_id": id,
		"caller":     caller,
		"refund":     req.AmountIn,
	}).Info("swap request rejected")
	return nil
}

// Get returns the stored record for id.
func (e *Engine) Get(ctx context.Context, id uint64) (model.SwapRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg == nil {
		return model.SwapRequest{}, model.ErrNotInitialized
	}
	return e.store.Get(ctx, id)
}

func topic(id uint64) string {
	return strconv.FormatUint(id, 10)
}
