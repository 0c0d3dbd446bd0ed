package mock

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockberries/counterberry/controller"
	"github.com/blockberries/counterberry/types"
)

// Ledger errors
var (
	ErrUnknownContract = errors.New("no contract at address")
	ErrUnknownTx       = errors.New("unknown transaction")
	ErrWrongChain      = errors.New("transaction for another chain")
)

type pendingTx struct {
	from      common.Address
	contract  common.Address
	input     *types.EncryptedInput
	increment bool
}

// Ledger hosts counter contracts on a single chain. Transactions are mined
// when their receipt is awaited, one block per transaction.
type Ledger struct {
	mu      sync.Mutex
	chainID uint64
	cop     *Coprocessor

	handles map[common.Address]types.Handle
	pending map[common.Hash]pendingTx
	height  uint64
	nonce   uint64

	// failure injection
	readErr    error
	submitErr  error
	revertNext bool
	hold       chan struct{}
}

// NewLedger creates an empty ledger for chainID
func NewLedger(chainID uint64, cop *Coprocessor) *Ledger {
	return &Ledger{
		chainID: chainID,
		cop:     cop,
		handles: make(map[common.Address]types.Handle),
		pending: make(map[common.Hash]pendingTx),
	}
}

// ChainID returns the chain the ledger serves
func (l *Ledger) ChainID() uint64 {
	return l.chainID
}

// Deploy creates a counter contract holding the zero handle and returns its address
func (l *Ledger) Deploy() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nonce++
	addr := common.BytesToAddress(crypto.Keccak256([]byte("counter"), binary.BigEndian.AppendUint64(nil, l.nonce)))
	l.handles[addr] = types.Handle{}
	return addr
}

// Height returns the number of mined blocks
func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// SetReadError makes every ReadHandle fail with err until cleared with nil
func (l *Ledger) SetReadError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

// SetSubmitError makes every Submit fail with err until cleared with nil
func (l *Ledger) SetSubmitError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitErr = err
}

// RevertNext makes the next mined transaction revert
func (l *Ledger) RevertNext() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revertNext = true
}

// Hold stops mining; WaitReceipt blocks until Release
func (l *Ledger) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hold == nil {
		l.hold = make(chan struct{})
	}
}

// Release resumes mining
func (l *Ledger) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hold != nil {
		close(l.hold)
		l.hold = nil
	}
}

// ReadHandle returns the contract's current handle
func (l *Ledger) ReadHandle(ctx context.Context, contract common.Address) (types.Handle, error) {
	if err := ctx.Err(); err != nil {
		return types.Handle{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.readErr != nil {
		return types.Handle{}, l.readErr
	}
	h, ok := l.handles[contract]
	if !ok {
		return types.Handle{}, fmt.Errorf("%w: %s", ErrUnknownContract, contract.Hex())
	}
	return h, nil
}

// Submit queues a mutation sent by from on chainID
func (l *Ledger) Submit(ctx context.Context, chainID uint64, from, contract common.Address, input *types.EncryptedInput, increment bool) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.submitErr != nil {
		return common.Hash{}, l.submitErr
	}
	if chainID != l.chainID {
		return common.Hash{}, fmt.Errorf("%w: %d, ledger is %d", ErrWrongChain, chainID, l.chainID)
	}
	if _, ok := l.handles[contract]; !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownContract, contract.Hex())
	}

	l.nonce++
	tx := crypto.Keccak256Hash(from.Bytes(), contract.Bytes(), binary.BigEndian.AppendUint64(nil, l.nonce))
	l.pending[tx] = pendingTx{from: from, contract: contract, input: input, increment: increment}
	return tx, nil
}

// WaitReceipt mines tx and returns its receipt
func (l *Ledger) WaitReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	hold := l.hold
	l.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pending[tx]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTx, tx.Hex())
	}
	delete(l.pending, tx)
	l.height++

	receipt := &types.Receipt{TxHash: tx, BlockNumber: l.height, Status: types.ReceiptStatusFailed}
	if l.revertNext {
		l.revertNext = false
		return receipt, nil
	}
	next, err := l.cop.Apply(l.handles[p.contract], p.input, p.contract, p.from, p.increment)
	if err != nil {
		return receipt, nil
	}
	l.handles[p.contract] = next
	receipt.Status = types.ReceiptStatusSuccessful
	return receipt, nil
}

// Ensure Ledger implements controller.Reader
var _ controller.Reader = (*Ledger)(nil)
