package signer

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockberries/counterberry/types"
)

const keyFilePerm = 0600

// FileSigner is a file-based secp256k1 signer
type FileSigner struct {
	mu sync.Mutex

	keyFilePath string

	key     *ecdsa.PrivateKey
	address common.Address

	approve ApprovalFunc
	prompts uint64
}

// FileSignerKey represents the key file structure
type FileSignerKey struct {
	Address string `json:"address"`
	PrivKey string `json:"priv_key"`
}

// FileSignerOption configures a FileSigner
type FileSignerOption func(*FileSigner)

// WithApproval installs the function consulted before every signature
func WithApproval(fn ApprovalFunc) FileSignerOption {
	return func(s *FileSigner) {
		s.approve = fn
	}
}

// NewFileSigner loads the key at keyFilePath, generating one if it doesn't exist
func NewFileSigner(keyFilePath string, opts ...FileSignerOption) (*FileSigner, error) {
	s := newFileSigner(keyFilePath, opts)
	if err := s.loadKey(); err != nil {
		return nil, err
	}
	return s, nil
}

// GenerateFileSigner generates a new key and writes it to keyFilePath,
// replacing any existing key
func GenerateFileSigner(keyFilePath string, opts ...FileSignerOption) (*FileSigner, error) {
	s := newFileSigner(keyFilePath, opts)
	if err := s.generateKey(); err != nil {
		return nil, err
	}
	return s, nil
}

func newFileSigner(keyFilePath string, opts []FileSignerOption) *FileSigner {
	s := &FileSigner{
		keyFilePath: keyFilePath,
		approve:     AutoApprove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadKey loads the key from file, generating if it doesn't exist
func (s *FileSigner) loadKey() error {
	data, err := os.ReadFile(s.keyFilePath)
	if os.IsNotExist(err) {
		return s.generateKey()
	}
	if err != nil {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	var fk FileSignerKey
	if err := json.Unmarshal(data, &fk); err != nil {
		return fmt.Errorf("failed to parse key file: %w", err)
	}

	raw, err := hexutil.Decode(fk.PrivKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	if fk.Address != "" && common.HexToAddress(fk.Address) != addr {
		return fmt.Errorf("%w: address %s does not match key", ErrInvalidKey, fk.Address)
	}

	s.key = key
	s.address = addr
	return nil
}

func (s *FileSigner) generateKey() error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	s.key = key
	s.address = crypto.PubkeyToAddress(key.PublicKey)
	return s.saveKey()
}

// saveKey writes the key to a temporary file and renames it into place
func (s *FileSigner) saveKey() error {
	dir := filepath.Dir(s.keyFilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	fk := FileSignerKey{
		Address: s.address.Hex(),
		PrivKey: hexutil.Encode(crypto.FromECDSA(s.key)),
	}
	data, err := json.MarshalIndent(fk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	tmp := s.keyFilePath + ".tmp"
	if err := os.WriteFile(tmp, data, keyFilePerm); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := os.Rename(tmp, s.keyFilePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to install key file: %w", err)
	}
	return nil
}

// Address implements Signer
func (s *FileSigner) Address() common.Address {
	return s.address
}

// Prompts returns how many statements were presented for approval
func (s *FileSigner) Prompts() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts
}

// SignAuthorization implements Signer
func (s *FileSigner) SignAuthorization(ctx context.Context, stmt types.AuthorizationStatement) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stmt.Signer != s.address {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrSignerMismatch, s.address.Hex(), stmt.Signer.Hex())
	}
	if err := stmt.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts++
	if !s.approve(ctx, stmt) {
		return nil, ErrDeclined
	}

	sig, err := crypto.Sign(stmt.SignHash(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign authorization: %w", err)
	}
	return sig, nil
}

// Ensure FileSigner implements Signer
var _ Signer = (*FileSigner)(nil)
