package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HandleSize is the size of an encrypted handle in bytes
const HandleSize = 32

// Handle names a ciphertext stored on the ledger
type Handle [HandleSize]byte

// NewHandle creates a Handle from bytes, returning error if invalid.
// Use for untrusted input (ledger responses, files).
func NewHandle(data []byte) (Handle, error) {
	var h Handle
	if len(data) != HandleSize {
		return h, fmt.Errorf("handle must be %d bytes, got %d", HandleSize, len(data))
	}
	copy(h[:], data)
	return h, nil
}

// MustNewHandle creates a Handle, panicking if invalid.
// Use only for trusted internal data.
func MustNewHandle(data []byte) Handle {
	h, err := NewHandle(data)
	if err != nil {
		panic(err)
	}
	return h
}

// HandleFromHex parses a 0x-prefixed hex handle
func HandleFromHex(s string) (Handle, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid handle hex: %w", err)
	}
	return NewHandle(data)
}

// IsZero returns true if the handle is all zeros
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// Bytes returns a copy of the handle bytes
func (h Handle) Bytes() []byte {
	out := make([]byte, HandleSize)
	copy(out, h[:])
	return out
}

// Hex returns the 0x-prefixed hex encoding
func (h Handle) Hex() string {
	return hexutil.Encode(h[:])
}

// String implements fmt.Stringer
func (h Handle) String() string {
	return h.Hex()
}

// ClearValue is a decrypted counter value bound to the handle it came from
type ClearValue struct {
	Handle Handle
	Value  int64
}

// Matches returns true if the value was recovered from handle h
func (c ClearValue) Matches(h Handle) bool {
	return c.Handle == h
}
