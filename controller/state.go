package controller

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/blockberries/counterberry/types"
)

// OperationState is the controller's position in its state machine
type OperationState uint8

// Operation states. Busy states are reachable only from Idle and return only to Idle.
const (
	Idle OperationState = iota
	Mutating
	Refreshing
	Decrypting
)

// String returns the state name
func (s OperationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Mutating:
		return "mutating"
	case Refreshing:
		return "refreshing"
	case Decrypting:
		return "decrypting"
	default:
		return "unknown"
	}
}

// Snapshot is the externally visible state of a controller
type Snapshot struct {
	ContractAddress common.Address

	Handle    types.Handle
	HasHandle bool

	// Clear may outlive the handle it was decrypted from; only IsDecrypted says
	// whether it describes the current handle.
	Clear    types.ClearValue
	HasClear bool

	IsDecrypted bool
	Message     string
	State       OperationState
}

// IsMutating returns true while a mutation is in flight
func (s Snapshot) IsMutating() bool { return s.State == Mutating }

// IsRefreshing returns true while a handle read is in flight
func (s Snapshot) IsRefreshing() bool { return s.State == Refreshing }

// IsDecrypting returns true while a decryption is in flight
func (s Snapshot) IsDecrypting() bool { return s.State == Decrypting }

// isDecrypted is true only while the clear value was recovered from the current handle
func isDecrypted(hasHandle bool, handle types.Handle, hasClear bool, clear types.ClearValue) bool {
	return hasHandle && hasClear && clear.Matches(handle)
}
