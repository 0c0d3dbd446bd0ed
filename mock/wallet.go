package mock

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockberries/counterberry/controller"
	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/signer"
	"github.com/blockberries/counterberry/types"
)

// ErrNotConnected is returned when the wallet has no active account
var ErrNotConnected = errors.New("wallet not connected")

// Wallet holds several accounts, one of them active, and a selected chain.
// Its connection state is the guard.Source the controller checks results against.
type Wallet struct {
	*guard.Connection

	mu       sync.Mutex
	ledger   *Ledger
	keys     map[common.Address]*ecdsa.PrivateKey
	accounts []common.Address
	declined bool
	prompts  uint64
}

// NewWallet creates a wallet with n fresh accounts, connected to the
// ledger's chain with the first account active
func NewWallet(ledger *Ledger, n int) (*Wallet, error) {
	if n < 1 {
		return nil, fmt.Errorf("wallet needs at least one account, got %d", n)
	}
	w := &Wallet{
		ledger: ledger,
		keys:   make(map[common.Address]*ecdsa.PrivateKey, n),
	}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate account key: %w", err)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		w.keys[addr] = key
		w.accounts = append(w.accounts, addr)
	}
	w.Connection = guard.NewConnection(ledger.ChainID(), w.accounts[0])
	return w, nil
}

// Accounts returns the wallet's addresses in creation order
func (w *Wallet) Accounts() []common.Address {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]common.Address, len(w.accounts))
	copy(out, w.accounts)
	return out
}

// SwitchAccount makes the i-th account active
func (w *Wallet) SwitchAccount(i int) error {
	w.mu.Lock()
	if i < 0 || i >= len(w.accounts) {
		w.mu.Unlock()
		return fmt.Errorf("no account %d", i)
	}
	addr := w.accounts[i]
	w.mu.Unlock()

	w.SetAccount(addr)
	return nil
}

// SetDecline makes the wallet refuse (true) or approve (false) signature requests
func (w *Wallet) SetDecline(declined bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.declined = declined
}

// Prompts returns how many signature requests were shown
func (w *Wallet) Prompts() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prompts
}

// Address returns the active account
func (w *Wallet) Address() common.Address {
	return w.Account()
}

// SignAuthorization signs stmt with the active account
func (w *Wallet) SignAuthorization(ctx context.Context, stmt types.AuthorizationStatement) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	active := w.Account()
	if active == (common.Address{}) {
		return nil, ErrNotConnected
	}
	if stmt.Signer != active {
		return nil, fmt.Errorf("%w: statement for %s, active account %s", signer.ErrSignerMismatch, stmt.Signer.Hex(), active.Hex())
	}
	if err := stmt.Validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.prompts++
	key, declined := w.keys[active], w.declined
	w.mu.Unlock()

	if declined {
		return nil, signer.ErrDeclined
	}
	return crypto.Sign(stmt.SignHash(), key)
}

// SubmitMutation sends the mutation from the active account on the selected chain
func (w *Wallet) SubmitMutation(ctx context.Context, contract common.Address, input *types.EncryptedInput, increment bool) (common.Hash, error) {
	from := w.Account()
	if from == (common.Address{}) {
		return common.Hash{}, ErrNotConnected
	}
	return w.ledger.Submit(ctx, w.ChainID(), from, contract, input, increment)
}

// WaitReceipt waits for tx to be mined
func (w *Wallet) WaitReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	return w.ledger.WaitReceipt(ctx, tx)
}

// Ensure Wallet implements the collaborator interfaces
var (
	_ guard.Source         = (*Wallet)(nil)
	_ signer.Signer        = (*Wallet)(nil)
	_ controller.Submitter = (*Wallet)(nil)
)
