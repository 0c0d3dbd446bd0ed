package mock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockberries/counterberry/types"
)

// Errors
var (
	ErrUnknownHandle = errors.New("unknown handle")
	ErrInvalidProof  = errors.New("invalid input proof")
	ErrNotAllowed    = errors.New("handle not readable by contract")
)

// inputBinding records who an encrypted input was produced for
type inputBinding struct {
	contract common.Address
	signer   common.Address
}

// Coprocessor stores the plaintext behind every handle it has issued.
// Values are 32-bit and arithmetic wraps.
type Coprocessor struct {
	mu     sync.RWMutex
	plain  map[types.Handle]uint32
	owners map[types.Handle]common.Address
	inputs map[types.Handle]inputBinding
	nonce  uint64
}

// NewCoprocessor creates an empty coprocessor
func NewCoprocessor() *Coprocessor {
	return &Coprocessor{
		plain:  make(map[types.Handle]uint32),
		owners: make(map[types.Handle]common.Address),
		inputs: make(map[types.Handle]inputBinding),
	}
}

func (c *Coprocessor) nextHandleLocked(tag string) types.Handle {
	c.nonce++
	return types.Handle(crypto.Keccak256Hash([]byte(tag), binary.BigEndian.AppendUint64(nil, c.nonce)))
}

// inputProof binds an input handle to its contract and signer
func inputProof(h types.Handle, contract, signer common.Address) []byte {
	return crypto.Keccak256(h.Bytes(), contract.Bytes(), signer.Bytes())
}

// RegisterInput stores value as a fresh input ciphertext for signer on contract
func (c *Coprocessor) RegisterInput(value uint32, contract, signer common.Address) *types.EncryptedInput {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.nextHandleLocked("input")
	c.plain[h] = value
	c.inputs[h] = inputBinding{contract: contract, signer: signer}
	return &types.EncryptedInput{Handle: h, Proof: inputProof(h, contract, signer)}
}

// Apply adds (or subtracts) the input to the value behind current and
// returns the handle of the result, readable by contract.
// The zero handle counts as 0.
func (c *Coprocessor) Apply(current types.Handle, input *types.EncryptedInput, contract, sender common.Address, increment bool) (types.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	binding, ok := c.inputs[input.Handle]
	if !ok {
		return types.Handle{}, ErrUnknownHandle
	}
	if binding.contract != contract || binding.signer != sender ||
		!bytes.Equal(input.Proof, inputProof(input.Handle, contract, sender)) {
		return types.Handle{}, ErrInvalidProof
	}

	var base uint32
	if !current.IsZero() {
		v, ok := c.plain[current]
		if !ok {
			return types.Handle{}, ErrUnknownHandle
		}
		base = v
	}

	delta := c.plain[input.Handle]
	next := base + delta
	if !increment {
		next = base - delta
	}

	h := c.nextHandleLocked("value")
	c.plain[h] = next
	c.owners[h] = contract
	return h, nil
}

// Plaintext returns the value behind h if contract may read it
func (c *Coprocessor) Plaintext(h types.Handle, contract common.Address) (uint32, error) {
	if h.IsZero() {
		return 0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.plain[h]
	if !ok {
		return 0, ErrUnknownHandle
	}
	if c.owners[h] != contract {
		return 0, ErrNotAllowed
	}
	return v, nil
}
