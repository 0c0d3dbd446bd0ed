package sigcache

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key identifies a capability slot
type Key struct {
	Contract common.Address
	Signer   common.Address
	// KeyID is the Keccak-256 of the engine public key
	KeyID common.Hash
}

// NewKey creates a Key for the given contract, signer and engine public key
func NewKey(contract, signer common.Address, publicKey []byte) Key {
	return Key{
		Contract: contract,
		Signer:   signer,
		KeyID:    crypto.Keccak256Hash(publicKey),
	}
}

// String returns the storage key
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Contract.Hex(), k.Signer.Hex(), k.KeyID.Hex())
}
