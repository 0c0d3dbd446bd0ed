package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/sigcache"
	"github.com/blockberries/counterberry/signer"
	"github.com/blockberries/counterberry/telemetry"
	"github.com/blockberries/counterberry/types"
)

// Operation names used in logs, spans and metrics
const (
	opMutate  = "mutate"
	opRefresh = "refresh"
	opDecrypt = "decrypt"
)

const outcomeOK = "ok"
const outcomeStale = "stale"

// Controller owns the state of one encrypted counter and runs its three
// operations. At most one operation is in flight at a time.
type Controller struct {
	mu sync.RWMutex

	// Configuration
	config   *Config
	contract common.Address
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time

	// Components
	engine    Engine
	reader    Reader
	submitter Submitter
	signer    signer.Signer
	guard     *guard.Context
	cache     *sigcache.Cache

	// Counter state
	state     OperationState
	handle    types.Handle
	hasHandle bool
	clear     types.ClearValue
	hasClear  bool
	message   string

	listener func(Snapshot)
}

// New creates a controller for cfg.ContractAddress
func New(cfg *Config, c Collaborators) (*Controller, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.ValidateBasic(); err != nil {
		return nil, err
	}
	if c.Guard == nil {
		return nil, ErrNoGuard
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger.With().
		Str("component", "controller").
		Str("contract", cfg.ContractAddress.Hex()).
		Logger()

	cache := c.Cache
	if cache == nil {
		cache = sigcache.New(nil, c.Guard,
			sigcache.WithNow(now),
			sigcache.WithLogger(cfg.Logger),
			sigcache.WithMetrics(cfg.Metrics),
		)
	}

	return &Controller{
		config:    cfg,
		contract:  cfg.ContractAddress,
		logger:    logger,
		metrics:   cfg.Metrics,
		now:       now,
		engine:    c.Engine,
		reader:    c.Reader,
		submitter: c.Submitter,
		signer:    c.Signer,
		guard:     c.Guard,
		cache:     cache,
	}, nil
}

// SetSnapshotListener sets the function called with a fresh snapshot after
// every state or message change. It runs on the operation's goroutine.
func (c *Controller) SetSnapshotListener(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// ContractAddress returns the contract this controller is bound to
func (c *Controller) ContractAddress() common.Address {
	return c.contract
}

// Snapshot returns the current counter state
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ContractAddress: c.contract,
		Handle:          c.handle,
		HasHandle:       c.hasHandle,
		Clear:           c.clear,
		HasClear:        c.hasClear,
		IsDecrypted:     isDecrypted(c.hasHandle, c.handle, c.hasClear, c.clear),
		Message:         c.message,
		State:           c.state,
	}
}

// --- Capability predicates ---

// CanMutate returns true if Mutate would be admitted now
func (c *Controller) CanMutate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notReadyLocked(Mutating) == ""
}

// CanRefresh returns true if RefreshHandle would be admitted now
func (c *Controller) CanRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notReadyLocked(Refreshing) == ""
}

// CanDecrypt returns true if Decrypt would be admitted now
func (c *Controller) CanDecrypt() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notReadyLocked(Decrypting) == ""
}

func (c *Controller) engineReady() bool {
	return c.engine != nil && c.engine.Status() == EngineReady
}

func (c *Controller) signerConnected() bool {
	return c.signer != nil && c.guard.Connected()
}

// notReadyLocked returns why op cannot start, or "" if it can.
// A degraded engine disables every operation.
func (c *Controller) notReadyLocked(op OperationState) string {
	switch {
	case c.state != Idle:
		return c.state.String() + " in progress"
	case !c.engineReady():
		if c.engine == nil {
			return "no encryption engine"
		}
		return "encryption engine " + string(c.engine.Status())
	case c.contract == (common.Address{}):
		return "contract not deployed"
	}

	switch op {
	case Mutating:
		if !c.signerConnected() || c.submitter == nil {
			return "wallet not connected"
		}
	case Refreshing:
		if c.reader == nil {
			return "no ledger reader"
		}
	case Decrypting:
		if !c.hasHandle {
			return "no handle to decrypt"
		}
		if isDecrypted(c.hasHandle, c.handle, c.hasClear, c.clear) {
			return "already decrypted"
		}
		if !c.signerConnected() {
			return "wallet not connected"
		}
	}
	return ""
}

// --- Operation lifecycle ---

// opContext is the per-operation state threaded through an operation body
type opContext struct {
	id     string
	s0     types.NetworkSnapshot
	logger zerolog.Logger
}

type opFunc func(ctx context.Context, op *opContext) error

// admit moves the controller from Idle to state and captures the network snapshot.
// A rejection while busy leaves the snapshot untouched.
func (c *Controller) admit(state OperationState, name string) (types.NetworkSnapshot, string, error) {
	c.mu.Lock()
	reason := c.notReadyLocked(state)
	if reason != "" {
		busy := c.state != Idle
		err := newError(CodeNotReady, name+": not ready", errors.New(reason))
		if !busy {
			c.message = err.Error()
		}
		fn, snap := c.listener, c.snapshotLocked()
		c.mu.Unlock()
		if !busy {
			c.emit(fn, snap)
		}
		return types.NetworkSnapshot{}, "", err
	}

	prev := c.message
	c.state = state
	s0 := c.guard.Snapshot()
	fn, snap := c.listener, c.snapshotLocked()
	c.mu.Unlock()

	c.emit(fn, snap)
	return s0, prev, nil
}

// run admits an operation, executes body and always returns to Idle.
// It reports whether the body's result was committed.
func (c *Controller) run(ctx context.Context, state OperationState, name string, attrs []attribute.KeyValue, body opFunc) (bool, error) {
	s0, prevMessage, err := c.admit(state, name)
	if err != nil {
		c.metrics.ObserveRejection(name, string(CodeOf(err)))
		c.logger.Debug().Str("op", name).Err(err).Msg("operation rejected")
		return false, err
	}

	op := &opContext{id: uuid.NewString(), s0: s0}
	op.logger = c.logger.With().
		Str("op", name).
		Str("op_id", op.id).
		Uint64("chain_id", s0.ChainID).
		Str("signer", s0.Signer.Hex()).
		Logger()

	attrs = append(attrs,
		attribute.String("counter.op_id", op.id),
		attribute.String("counter.contract", c.contract.Hex()),
		attribute.Int64("counter.chain_id", int64(s0.ChainID)),
	)
	ctx, span := telemetry.Tracer().Start(ctx, "controller."+name, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	op.logger.Debug().Msg("operation started")

	err = body(ctx, op)

	outcome := outcomeOK
	committed := err == nil
	message := ""
	switch {
	case errors.Is(err, errStaleResult):
		outcome = outcomeStale
		err = nil
		message = prevMessage
		span.AddEvent("stale result discarded")
		op.logger.Info().Msg("network context changed, result ignored")
	case err != nil:
		outcome = string(CodeOf(err))
		message = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		op.logger.Warn().Err(err).Msg("operation failed")
	default:
		op.logger.Info().Dur("took", time.Since(start)).Msg("operation committed")
	}

	c.finish(committed, message)
	c.metrics.ObserveOperation(name, outcome, time.Since(start))
	return committed, err
}

// finish returns to Idle. A committed operation has already written its message.
func (c *Controller) finish(committed bool, message string) {
	c.mu.Lock()
	c.state = Idle
	if !committed {
		c.message = message
	}
	fn, snap := c.listener, c.snapshotLocked()
	c.mu.Unlock()
	c.emit(fn, snap)
}

// progress updates the message while an operation is in flight
func (c *Controller) progress(message string) {
	c.mu.Lock()
	c.message = message
	fn, snap := c.listener, c.snapshotLocked()
	c.mu.Unlock()
	c.emit(fn, snap)
}

// commit applies fn to the counter state if the network context still matches s0.
// The check and the write happen under one lock.
func (c *Controller) commit(s0 types.NetworkSnapshot, fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guard.Matches(s0) {
		return errStaleResult
	}
	fn()
	return nil
}

// fail returns err unless the network context has moved on, in which case the
// failure belongs to a context the user already left and is dropped.
func (c *Controller) fail(s0 types.NetworkSnapshot, err error) error {
	if !c.guard.Matches(s0) {
		return errStaleResult
	}
	return err
}

func (c *Controller) emit(fn func(Snapshot), snap Snapshot) {
	if fn != nil {
		fn(snap)
	}
}

// --- Metrics and Monitoring ---

// Metrics holds a point-in-time view of the controller
type Metrics struct {
	Contract     string
	State        string
	EngineStatus string
	ChainID      uint64
	Signer       string
	HasHandle    bool
	IsDecrypted  bool
	CanMutate    bool
	CanRefresh   bool
	CanDecrypt   bool
}

// GetMetrics returns current controller metrics
func (c *Controller) GetMetrics() *Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := ""
	if c.engine != nil {
		status = string(c.engine.Status())
	}
	s := c.guard.Snapshot()

	return &Metrics{
		Contract:     c.contract.Hex(),
		State:        c.state.String(),
		EngineStatus: status,
		ChainID:      s.ChainID,
		Signer:       s.Signer.Hex(),
		HasHandle:    c.hasHandle,
		IsDecrypted:  isDecrypted(c.hasHandle, c.handle, c.hasClear, c.clear),
		CanMutate:    c.notReadyLocked(Mutating) == "",
		CanRefresh:   c.notReadyLocked(Refreshing) == "",
		CanDecrypt:   c.notReadyLocked(Decrypting) == "",
	}
}

func formatDelta(delta int64) string {
	return fmt.Sprintf("%+d", delta)
}
