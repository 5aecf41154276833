package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

// MetaOwner is the store metadata key holding the market owner.
const MetaOwner = "owner"

var (
	// ErrNotInitialized is returned by Open on a store that was never
	// initialized.
	ErrNotInitialized = errors.New("market not initialized")

	// ErrAlreadyInitialized is returned by Initialize on a store that already
	// has an owner.
	ErrAlreadyInitialized = errors.New("market already initialized")
)

// CallIDGenerator generates unique call IDs for audit correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type CallIDGenerator interface {
	Generate() string
}

// Recorder receives execution metrics. See internal/metrics.
type Recorder interface {
	CallCompleted(op Op, outcome string)
	EventAppended(kind event.Kind)
	CustodyChanged(balance uint256.Int)
}

type nopRecorder struct{}

func (nopRecorder) CallCompleted(Op, string)   {}
func (nopRecorder) EventAppended(event.Kind)   {}
func (nopRecorder) CustodyChanged(uint256.Int) {}

// Engine hosts one market over one store.
//
// Every call runs to completion under the engine lock before the next one
// starts. A call's events, the wallet balances it changed and its audit
// record are committed in one transaction. A rejected call still commits its
// audit record.
//
// Thread-safety model:
//   - Execute, View, Subscribe: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Submit: safe from any goroutine while Run is active
type Engine struct {
	mu        sync.RWMutex
	store     *store.Store
	market    *market.Market
	wallet    *wallet.Book
	ids       CallIDGenerator
	logger    *slog.Logger
	recorder  Recorder
	queue     *callQueue
	observers []event.Observer

	// poisoned is set when a successful call could not be committed.
	poisoned error
}

// Option configures an Engine.
type Option func(*Engine)

// WithCallIDs sets the call ID generator. Default: UUIDv7Generator.
func WithCallIDs(g CallIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// Initialize records the market owner and the initial wallet balances in an
// empty store.
func Initialize(ctx context.Context, st *store.Store, owner market.Principal, accounts []wallet.Account) error {
	if owner == market.NoPrincipal || wallet.Reserved(owner) || !canonicalText(string(owner)) {
		return fmt.Errorf("initialize: invalid owner %q", owner)
	}
	for _, a := range accounts {
		if a.Principal == market.NoPrincipal || wallet.Reserved(a.Principal) || !canonicalText(string(a.Principal)) {
			return fmt.Errorf("initialize: invalid account %q", a.Principal)
		}
	}
	if err := st.SetMeta(ctx, MetaOwner, string(owner)); err != nil {
		if errors.Is(err, store.ErrMetaExists) {
			return ErrAlreadyInitialized
		}
		return fmt.Errorf("initialize: %w", err)
	}
	if err := st.SeedAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return nil
}

// Open restores the market held in st by replaying its event log.
func Open(ctx context.Context, st *store.Store, opts ...Option) (*Engine, error) {
	owner, err := st.Meta(ctx, MetaOwner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	events, err := st.ReadEvents(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	accounts, err := st.ReadAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	book := wallet.New()
	book.Load(accounts)
	m, err := market.Replay(market.Principal(owner), events, book.Payout())
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	e := &Engine{
		store:    st,
		market:   m,
		wallet:   book,
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		recorder: nopRecorder{},
		queue:    newCallQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.recorder.CustodyChanged(book.Balance(wallet.Custody))
	e.logger.Debug("engine restored",
		"owner", owner,
		"events", len(events),
		"accounts", len(accounts),
	)
	return e, nil
}

// Execute applies one call and commits its outcome.
//
// A market rejection is returned as the *market.Error and leaves state
// unchanged; an undecodable call as a *RuntimeError with ErrCodeInvalidCall.
// If the commit of a successful call fails the engine halts: every later
// call fails with ErrCodePersist.
func (e *Engine) Execute(ctx context.Context, c Call) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.poisoned != nil {
		return Result{}, &RuntimeError{
			Code:    ErrCodePersist,
			Message: "engine halted after a failed commit",
			Op:      c.Op,
			Cause:   e.poisoned,
		}
	}

	callID := e.ids.Generate()
	id, events, callErr := e.apply(c)

	record := store.CallRecord{
		ID:      callID,
		Op:      string(c.Op),
		Caller:  string(c.Caller),
		Args:    c.Args,
		Value:   c.Value.Dec(),
		Outcome: OutcomeOf(callErr),
	}
	if callErr != nil {
		record.Message = callErr.Error()
	}
	batch := store.Batch{Call: record, Events: events, Accounts: e.wallet.Dirty()}

	// The call is already applied in memory; finish the write even if the
	// caller gives up.
	if err := e.store.Commit(context.WithoutCancel(ctx), batch); err != nil {
		if callErr == nil {
			e.poisoned = err
			e.logger.Error("commit failed, engine halted", "call_id", callID, "op", c.Op, "error", err)
			return Result{}, &RuntimeError{
				Code:    ErrCodePersist,
				Message: "commit failed",
				CallID:  callID,
				Op:      c.Op,
				Cause:   err,
			}
		}
		// Nothing changed; only the audit record is lost.
		e.logger.Warn("audit record not stored", "call_id", callID, "op", c.Op, "error", err)
	}
	e.wallet.Commit()

	e.recorder.CallCompleted(c.Op, record.Outcome)
	e.logger.Info("call executed",
		"call_id", callID,
		"op", c.Op,
		"caller", c.Caller,
		"outcome", record.Outcome,
		"events", len(events),
	)
	if callErr != nil {
		return Result{CallID: callID}, callErr
	}

	for _, ev := range events {
		e.recorder.EventAppended(ev.Kind)
		for _, o := range e.observers {
			o.Observe(ev)
		}
	}
	e.recorder.CustodyChanged(e.wallet.Balance(wallet.Custody))
	return Result{CallID: callID, ID: id, Events: events}, nil
}

// apply runs the call against the wallet and market. On error both are
// left as they were.
func (e *Engine) apply(c Call) (uint64, []event.Event, error) {
	if !c.Op.Valid() {
		return 0, nil, invalidCall(c.Op, "unknown operation %q", c.Op)
	}
	if c.Caller == market.NoPrincipal || wallet.Reserved(c.Caller) || !canonicalText(string(c.Caller)) {
		return 0, nil, invalidCall(c.Op, "invalid caller %q", c.Caller)
	}

	before := e.market.Log().Len()
	// A closed market rejects the purchase before the buyer's wallet is
	// consulted.
	if c.Op == OpPurchaseProduct && !c.Value.IsZero() && e.market.IsOpen() {
		if err := e.wallet.Transfer(c.Caller, wallet.Custody, c.Value); err != nil {
			if errors.Is(err, wallet.ErrInsufficientFunds) {
				return 0, nil, &RuntimeError{
					Code:    ErrCodeInsufficientFunds,
					Message: "caller cannot cover the attached value",
					Op:      c.Op,
					Details: map[string]string{"caller": string(c.Caller), "value": c.Value.Dec()},
					Cause:   err,
				}
			}
			return 0, nil, fmt.Errorf("fund custody: %w", err)
		}
	}

	id, err := dispatch(e.market, c)
	if err != nil {
		e.wallet.Rollback()
		return 0, nil, err
	}
	return id, e.market.Log().Events(before), nil
}

// Subscribe registers an observer. It first receives every committed event
// from the beginning of history, then each newly committed event in order.
// Observers run under the engine lock and must not call back into it.
func (e *Engine) Subscribe(o event.Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ev := range e.market.Log().Events(0) {
		o.Observe(ev)
	}
	e.observers = append(e.observers, o)
}

// View runs fn with read access to the market and wallets. fn must not
// retain either or call back into the engine.
func (e *Engine) View(fn func(m *market.Market, w *wallet.Book)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.market, e.wallet)
}

// Events returns committed events with seq greater than after.
func (e *Engine) Events(after int64) []event.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.market.Log().Events(after)
}

// Store returns the backing store.
func (e *Engine) Store() *store.Store {
	return e.store
}
