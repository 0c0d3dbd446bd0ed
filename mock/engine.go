package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockberries/counterberry/controller"
	"github.com/blockberries/counterberry/types"
)

// Engine errors
var (
	ErrEngineNotReady     = errors.New("engine not ready")
	ErrCapabilityRejected = errors.New("decryption capability rejected")
)

// Engine is an encryption engine backed by a Coprocessor
type Engine struct {
	mu     sync.RWMutex
	status controller.EngineStatus
	cop    *Coprocessor
	pub    []byte
	now    func() time.Time
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithEngineClock sets the clock used to check capability windows
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEngineStatus sets the initial status (default ready)
func WithEngineStatus(s controller.EngineStatus) EngineOption {
	return func(e *Engine) {
		e.status = s
	}
}

// NewEngine creates an engine with a fresh public key
func NewEngine(cop *Coprocessor, opts ...EngineOption) (*Engine, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate engine key: %w", err)
	}
	e := &Engine{
		status: controller.EngineReady,
		cop:    cop,
		pub:    crypto.FromECDSAPub(&key.PublicKey),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetStatus changes the reported status
func (e *Engine) SetStatus(s controller.EngineStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
}

// Status returns the engine status
func (e *Engine) Status() controller.EngineStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// PublicKey returns the engine public key
func (e *Engine) PublicKey() []byte {
	out := make([]byte, len(e.pub))
	copy(out, e.pub)
	return out
}

func (e *Engine) ready() error {
	if s := e.Status(); s != controller.EngineReady {
		return fmt.Errorf("%w: %s", ErrEngineNotReady, s)
	}
	return nil
}

// EncryptInput encrypts value for signer on contract
func (e *Engine) EncryptInput(ctx context.Context, value uint32, contract, signer common.Address) (*types.EncryptedInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.cop.RegisterInput(value, contract, signer), nil
}

// Decrypt returns the value behind handle after checking the capability
func (e *Engine) Decrypt(ctx context.Context, handle types.Handle, capability *types.Capability) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := capability.Verify(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCapabilityRejected, err)
	}
	if !capability.ValidAt(e.now()) {
		return 0, fmt.Errorf("%w: outside validity window", ErrCapabilityRejected)
	}
	if string(capability.Statement.PublicKey) != string(e.pub) {
		return 0, fmt.Errorf("%w: issued for another engine key", ErrCapabilityRejected)
	}

	v, err := e.cop.Plaintext(handle, capability.Statement.Contract)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// Ensure Engine implements controller.Engine
var _ controller.Engine = (*Engine)(nil)
