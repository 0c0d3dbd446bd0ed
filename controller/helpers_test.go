package controller

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/sigcache"
	"github.com/blockberries/counterberry/signer"
	"github.com/blockberries/counterberry/types"
)

const testChainID = 31337

var testContract = common.HexToAddress("0x00000000000000000000000000000000000c0ffe")

// testClock is a manually advanced clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeLedger is an in-memory counter contract. It implements Reader and Submitter.
type fakeLedger struct {
	mu      sync.Mutex
	value   int64
	handle  types.Handle
	plain   map[types.Handle]int64
	pending map[common.Hash]int64
	nonce   uint64

	readErr   error
	submitErr error
	waitErr   error
	revert    bool

	readHook func()
	waitHook func()
	block    chan struct{}

	reads   int
	submits int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		plain:   map[types.Handle]int64{{}: 0},
		pending: make(map[common.Hash]int64),
	}
}

func (l *fakeLedger) ReadHandle(ctx context.Context, contract common.Address) (types.Handle, error) {
	l.mu.Lock()
	l.reads++
	h, err, hook := l.handle, l.readErr, l.readHook
	l.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return types.Handle{}, err
	}
	return h, nil
}

func (l *fakeLedger) SubmitMutation(ctx context.Context, contract common.Address, input *types.EncryptedInput, increment bool) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submits++
	if l.submitErr != nil {
		return common.Hash{}, l.submitErr
	}
	magnitude := int64(binary.BigEndian.Uint32(input.Proof))
	next := l.value + magnitude
	if !increment {
		next = l.value - magnitude
	}
	l.nonce++
	tx := crypto.Keccak256Hash([]byte("tx"), binary.BigEndian.AppendUint64(nil, l.nonce))
	l.pending[tx] = next
	return tx, nil
}

func (l *fakeLedger) WaitReceipt(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	block, hook := l.block, l.waitHook
	l.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if hook != nil {
		hook()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.waitErr != nil {
		return nil, l.waitErr
	}
	next, ok := l.pending[tx]
	if !ok {
		return nil, errors.New("unknown transaction")
	}
	delete(l.pending, tx)
	if l.revert {
		return &types.Receipt{TxHash: tx, BlockNumber: l.nonce, Status: types.ReceiptStatusFailed}, nil
	}
	l.value = next
	l.handle = types.Handle(crypto.Keccak256Hash([]byte("handle"), binary.BigEndian.AppendUint64(nil, l.nonce)))
	l.plain[l.handle] = next
	return &types.Receipt{TxHash: tx, BlockNumber: l.nonce, Status: types.ReceiptStatusSuccessful}, nil
}

func (l *fakeLedger) plainOf(h types.Handle) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.plain[h]
	return v, ok
}

// fakeEngine encodes the clear magnitude in the input proof and decrypts
// through the ledger's plaintext table.
type fakeEngine struct {
	mu         sync.Mutex
	status     EngineStatus
	pub        []byte
	ledger     *fakeLedger
	encryptErr error
	decryptErr error
	encHook    func()
	decHook    func()
	decrypts   int
}

func newFakeEngine(l *fakeLedger) *fakeEngine {
	return &fakeEngine{status: EngineReady, pub: []byte("test-engine-key"), ledger: l}
}

func (e *fakeEngine) setStatus(s EngineStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
}

func (e *fakeEngine) Status() EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *fakeEngine) PublicKey() []byte {
	return e.pub
}

func (e *fakeEngine) EncryptInput(ctx context.Context, value uint32, contract, signer common.Address) (*types.EncryptedInput, error) {
	e.mu.Lock()
	err, hook := e.encryptErr, e.encHook
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &types.EncryptedInput{
		Handle: types.Handle(crypto.Keccak256Hash(binary.BigEndian.AppendUint32(nil, value))),
		Proof:  binary.BigEndian.AppendUint32(nil, value),
	}, nil
}

func (e *fakeEngine) Decrypt(ctx context.Context, handle types.Handle, capability *types.Capability) (int64, error) {
	e.mu.Lock()
	e.decrypts++
	err, hook := e.decryptErr, e.decHook
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return 0, err
	}
	if err := capability.Verify(); err != nil {
		return 0, err
	}
	v, ok := e.ledger.plainOf(handle)
	if !ok {
		return 0, errors.New("unknown handle")
	}
	return v, nil
}

// fakeSigner signs for whichever account the statement names
type fakeSigner struct {
	mu       sync.Mutex
	conn     *guard.Connection
	keys     map[common.Address]*ecdsa.PrivateKey
	declined bool
	hook     func()
	prompts  int
}

func (s *fakeSigner) Address() common.Address {
	return s.conn.Account()
}

func (s *fakeSigner) SignAuthorization(ctx context.Context, stmt types.AuthorizationStatement) ([]byte, error) {
	s.mu.Lock()
	s.prompts++
	key, declined, hook := s.keys[stmt.Signer], s.declined, s.hook
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if declined {
		return nil, signer.ErrDeclined
	}
	if key == nil {
		return nil, signer.ErrSignerMismatch
	}
	return crypto.Sign(stmt.SignHash(), key)
}

func (s *fakeSigner) promptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts
}

// testRig bundles a controller with its fakes
type testRig struct {
	ctrl   *Controller
	engine *fakeEngine
	ledger *fakeLedger
	signer *fakeSigner
	conn   *guard.Connection
	src    *watchedSource
	clock  *testClock
	alice  common.Address
	bob    common.Address
}

// watchedSource runs a hook on every account read
type watchedSource struct {
	*guard.Connection
	mu   sync.Mutex
	hook func()
}

func (s *watchedSource) setHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

func (s *watchedSource) Account() common.Address {
	s.mu.Lock()
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return s.Connection.Account()
}

func makeTestKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

func makeTestRig(t *testing.T, mutators ...func(*Config)) *testRig {
	t.Helper()

	aliceKey, alice := makeTestKey(t)
	bobKey, bob := makeTestKey(t)

	conn := guard.NewConnection(testChainID, alice)
	src := &watchedSource{Connection: conn}
	g := guard.New(src)
	clock := newTestClock()
	ledger := newFakeLedger()
	engine := newFakeEngine(ledger)
	fs := &fakeSigner{
		conn: conn,
		keys: map[common.Address]*ecdsa.PrivateKey{alice: aliceKey, bob: bobKey},
	}

	cfg := DefaultConfig()
	cfg.ContractAddress = testContract
	cfg.Now = clock.Now
	for _, m := range mutators {
		m(cfg)
	}

	ctrl, err := New(cfg, Collaborators{
		Engine:    engine,
		Reader:    ledger,
		Submitter: ledger,
		Signer:    fs,
		Guard:     g,
		Cache:     sigcache.New(nil, g, sigcache.WithNow(clock.Now)),
	})
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}

	return &testRig{
		ctrl:   ctrl,
		engine: engine,
		ledger: ledger,
		signer: fs,
		conn:   conn,
		src:    src,
		clock:  clock,
		alice:  alice,
		bob:    bob,
	}
}

// mustRefresh refreshes and fails the test on error
func (r *testRig) mustRefresh(t *testing.T) {
	t.Helper()
	if err := r.ctrl.RefreshHandle(context.Background()); err != nil {
		t.Fatalf("RefreshHandle failed: %v", err)
	}
}

func (r *testRig) mustDecrypt(t *testing.T) {
	t.Helper()
	if err := r.ctrl.Decrypt(context.Background()); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
}

func (r *testRig) mustMutate(t *testing.T, delta int64) {
	t.Helper()
	if err := r.ctrl.Mutate(context.Background(), delta); err != nil {
		t.Fatalf("Mutate(%d) failed: %v", delta, err)
	}
}
