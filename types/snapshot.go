package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NetworkSnapshot is the {chain, signer} context captured at an instant.
// Two snapshots describe the same context iff they are ==.
type NetworkSnapshot struct {
	ChainID uint64
	Signer  common.Address
}

// NewNetworkSnapshot creates a NetworkSnapshot
func NewNetworkSnapshot(chainID uint64, signer common.Address) NetworkSnapshot {
	return NetworkSnapshot{ChainID: chainID, Signer: signer}
}

// IsZero returns true if neither a chain nor a signer is known
func (s NetworkSnapshot) IsZero() bool {
	return s == NetworkSnapshot{}
}

// SameChain returns true if both snapshots are on the same chain
func (s NetworkSnapshot) SameChain(o NetworkSnapshot) bool {
	return s.ChainID == o.ChainID
}

// SameSigner returns true if both snapshots carry the same signer
func (s NetworkSnapshot) SameSigner(o NetworkSnapshot) bool {
	return s.Signer == o.Signer
}

// String implements fmt.Stringer
func (s NetworkSnapshot) String() string {
	return fmt.Sprintf("chain=%d signer=%s", s.ChainID, s.Signer.Hex())
}
