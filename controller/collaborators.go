package controller

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/sigcache"
	"github.com/blockberries/counterberry/signer"
	"github.com/blockberries/counterberry/types"
)

// EngineStatus is the readiness of the encryption engine
type EngineStatus string

// Engine statuses
const (
	EngineIdle    EngineStatus = "idle"
	EngineLoading EngineStatus = "loading"
	EngineReady   EngineStatus = "ready"
	EngineError   EngineStatus = "error"
)

// Engine is the homomorphic-encryption engine, consumed as an opaque collaborator.
// Status must not block; it is consulted while computing capability flags.
type Engine interface {
	Status() EngineStatus

	// PublicKey identifies the engine key that decryption capabilities are bound to
	PublicKey() []byte

	// EncryptInput encrypts value for use by signer against contract
	EncryptInput(ctx context.Context, value uint32, contract, signer common.Address) (*types.EncryptedInput, error)

	// Decrypt recovers the clear value behind handle using capability
	Decrypt(ctx context.Context, handle types.Handle, capability *types.Capability) (int64, error)
}

// Reader is the read-only ledger provider
type Reader interface {
	ReadHandle(ctx context.Context, contract common.Address) (types.Handle, error)
}

// Submitter sends mutating transactions through the connected wallet
type Submitter interface {
	SubmitMutation(ctx context.Context, contract common.Address, input *types.EncryptedInput, increment bool) (common.Hash, error)

	// WaitReceipt blocks until tx reaches a terminal state
	WaitReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error)
}

// Collaborators are the external dependencies of a controller.
// Guard is required; a nil Cache means a fresh in-memory cache.
type Collaborators struct {
	Engine    Engine
	Reader    Reader
	Submitter Submitter
	Signer    signer.Signer
	Guard     *guard.Context
	Cache     *sigcache.Cache
}
