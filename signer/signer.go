package signer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blockberries/counterberry/types"
)

// Errors
var (
	ErrDeclined       = errors.New("authorization declined")
	ErrSignerMismatch = errors.New("statement names a different signer")
	ErrInvalidKey     = errors.New("invalid signer key")
)

// Signer approves decryption authorizations
type Signer interface {
	// Address returns the signing identity
	Address() common.Address

	// SignAuthorization returns a 65-byte signature over stmt.SignHash().
	// Returns an error wrapping ErrDeclined if the user refuses.
	SignAuthorization(ctx context.Context, stmt types.AuthorizationStatement) ([]byte, error)
}

// ApprovalFunc decides whether a statement should be signed
type ApprovalFunc func(ctx context.Context, stmt types.AuthorizationStatement) bool

// AutoApprove signs every well-formed statement
func AutoApprove(context.Context, types.AuthorizationStatement) bool { return true }
