package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxDelta is the largest absolute value accepted for a single mutation
const MaxDelta = 1_000_000

// Receipt status values
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// Errors
var (
	ErrZeroDelta     = errors.New("delta must be non-zero")
	ErrDeltaTooLarge = errors.New("delta exceeds maximum")
)

// ValidateDelta checks that a mutation amount is usable.
// The absolute value is encrypted; the sign selects increment or decrement.
func ValidateDelta(delta int64) error {
	if delta == 0 {
		return ErrZeroDelta
	}
	if delta > MaxDelta || delta < -MaxDelta {
		return fmt.Errorf("%w: |%d| > %d", ErrDeltaTooLarge, delta, MaxDelta)
	}
	return nil
}

// SplitDelta returns the encrypted magnitude and direction of a valid delta
func SplitDelta(delta int64) (magnitude uint32, increment bool) {
	if delta < 0 {
		return uint32(-delta), false
	}
	return uint32(delta), true
}

// EncryptedInput is an engine-produced ciphertext reference plus its input proof,
// bound to one contract and one signer.
type EncryptedInput struct {
	Handle Handle
	Proof  []byte
}

// Receipt is the terminal result of a mutating transaction
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Status      uint64
}

// Succeeded returns true if the transaction executed without reverting
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == ReceiptStatusSuccessful
}
