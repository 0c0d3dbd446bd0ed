package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureSize is the size of a recoverable secp256k1 signature
const SignatureSize = crypto.SignatureLength

// authorizationDomain separates decryption authorizations from any other
// payload the same key might sign.
const authorizationDomain = "counterberry/decrypt-authorization/v1"

// Errors
var (
	ErrInvalidStatement = errors.New("invalid authorization statement")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignerMismatch   = errors.New("signature does not match statement signer")
)

// AuthorizationStatement is what a signer approves to allow decryption of one
// contract's values, through one engine key, during a time window.
type AuthorizationStatement struct {
	PublicKey []byte
	Contract  common.Address
	Signer    common.Address
	ChainID   uint64
	StartTime int64 // unix seconds
	Duration  time.Duration
}

// NewAuthorizationStatement creates a statement starting at now
func NewAuthorizationStatement(
	publicKey []byte,
	contract common.Address,
	signer common.Address,
	chainID uint64,
	now time.Time,
	validity time.Duration,
) AuthorizationStatement {
	pk := make([]byte, len(publicKey))
	copy(pk, publicKey)
	return AuthorizationStatement{
		PublicKey: pk,
		Contract:  contract,
		Signer:    signer,
		ChainID:   chainID,
		StartTime: now.Unix(),
		Duration:  validity,
	}
}

// EndTime returns the first unix second at which the statement is no longer valid
func (s AuthorizationStatement) EndTime() int64 {
	return s.StartTime + int64(s.Duration/time.Second)
}

// ValidAt returns true if t lies inside [StartTime, EndTime)
func (s AuthorizationStatement) ValidAt(t time.Time) bool {
	now := t.Unix()
	return now >= s.StartTime && now < s.EndTime()
}

// Validate performs basic validation of the statement
func (s AuthorizationStatement) Validate() error {
	if len(s.PublicKey) == 0 {
		return fmt.Errorf("%w: empty public key", ErrInvalidStatement)
	}
	if s.Contract == (common.Address{}) {
		return fmt.Errorf("%w: zero contract address", ErrInvalidStatement)
	}
	if s.Signer == (common.Address{}) {
		return fmt.Errorf("%w: zero signer address", ErrInvalidStatement)
	}
	if s.Duration < time.Second {
		return fmt.Errorf("%w: validity window shorter than one second", ErrInvalidStatement)
	}
	return nil
}

// SignBytes returns the canonical encoding of the statement
func (s AuthorizationStatement) SignBytes() []byte {
	buf := make([]byte, 0, len(authorizationDomain)+8+20+20+8+8+4+len(s.PublicKey))
	buf = append(buf, authorizationDomain...)
	buf = binary.BigEndian.AppendUint64(buf, s.ChainID)
	buf = append(buf, s.Contract.Bytes()...)
	buf = append(buf, s.Signer.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.StartTime))
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.Duration/time.Second))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.PublicKey)))
	buf = append(buf, s.PublicKey...)
	return buf
}

// SignHash returns the 32-byte digest that is actually signed
func (s AuthorizationStatement) SignHash() []byte {
	return crypto.Keccak256(s.SignBytes())
}

// Capability is a signed AuthorizationStatement
type Capability struct {
	Statement AuthorizationStatement
	Signature []byte
}

// NewCapability creates a Capability, copying the signature
func NewCapability(stmt AuthorizationStatement, sig []byte) (*Capability, error) {
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidSignature, SignatureSize, len(sig))
	}
	copied := make([]byte, SignatureSize)
	copy(copied, sig)
	return &Capability{Statement: stmt, Signature: copied}, nil
}

// ValidAt returns true if the capability's window contains t
func (c *Capability) ValidAt(t time.Time) bool {
	return c != nil && c.Statement.ValidAt(t)
}

// BoundTo returns true if the capability was issued for contract and signer
func (c *Capability) BoundTo(contract, signer common.Address) bool {
	return c != nil && c.Statement.Contract == contract && c.Statement.Signer == signer
}

// RecoverSigner recovers the address that produced the signature
func (c *Capability) RecoverSigner() (common.Address, error) {
	if len(c.Signature) != SignatureSize {
		return common.Address{}, ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(c.Statement.SignHash(), c.Signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify checks the statement and that it was signed by Statement.Signer
func (c *Capability) Verify() error {
	if c == nil {
		return ErrInvalidSignature
	}
	if err := c.Statement.Validate(); err != nil {
		return err
	}
	addr, err := c.RecoverSigner()
	if err != nil {
		return err
	}
	if addr != c.Statement.Signer {
		return ErrSignerMismatch
	}
	return nil
}
