package guard

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blockberries/counterberry/types"
)

// Source publishes the current chain and account
type Source interface {
	ChainID() uint64
	Account() common.Address
}

// Context is a read-only view over a Source
type Context struct {
	src Source
}

// New creates a Context over src
func New(src Source) *Context {
	return &Context{src: src}
}

// Snapshot captures the current chain and signer
func (c *Context) Snapshot() types.NetworkSnapshot {
	return types.NewNetworkSnapshot(c.src.ChainID(), c.src.Account())
}

// ChainID returns the live chain id
func (c *Context) ChainID() uint64 {
	return c.src.ChainID()
}

// Signer returns the live signer identity
func (c *Context) Signer() common.Address {
	return c.src.Account()
}

// Connected returns true when both a chain and an account are selected
func (c *Context) Connected() bool {
	return c.src.ChainID() != 0 && c.src.Account() != (common.Address{})
}

// MatchesChain returns true if s was captured on the live chain
func (c *Context) MatchesChain(s types.NetworkSnapshot) bool {
	return s.ChainID == c.src.ChainID()
}

// MatchesSigner returns true if s was captured under the live signer
func (c *Context) MatchesSigner(s types.NetworkSnapshot) bool {
	return s.Signer == c.src.Account()
}

// Matches returns true if both chain and signer still match.
// A resumed step is committed only when Matches holds.
func (c *Context) Matches(s types.NetworkSnapshot) bool {
	return c.MatchesChain(s) && c.MatchesSigner(s)
}

// Connection is a mutable Source guarded by a mutex
type Connection struct {
	mu       sync.RWMutex
	chainID  uint64
	account  common.Address
	onChange []func(types.NetworkSnapshot)
}

// NewConnection creates a Connection with an initial chain and account
func NewConnection(chainID uint64, account common.Address) *Connection {
	return &Connection{chainID: chainID, account: account}
}

// ChainID implements Source
func (c *Connection) ChainID() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainID
}

// Account implements Source
func (c *Connection) Account() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// SetChain switches the selected chain
func (c *Connection) SetChain(chainID uint64) {
	c.mu.Lock()
	c.chainID = chainID
	s, fns := c.snapshotLocked()
	c.mu.Unlock()
	notify(fns, s)
}

// SetAccount switches the active account
func (c *Connection) SetAccount(account common.Address) {
	c.mu.Lock()
	c.account = account
	s, fns := c.snapshotLocked()
	c.mu.Unlock()
	notify(fns, s)
}

// Disconnect clears both chain and account
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.chainID = 0
	c.account = common.Address{}
	s, fns := c.snapshotLocked()
	c.mu.Unlock()
	notify(fns, s)
}

// OnChange registers fn to be called after every change.
// Callbacks run on the goroutine that made the change, outside the lock.
func (c *Connection) OnChange(fn func(types.NetworkSnapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Connection) snapshotLocked() (types.NetworkSnapshot, []func(types.NetworkSnapshot)) {
	fns := make([]func(types.NetworkSnapshot), len(c.onChange))
	copy(fns, c.onChange)
	return types.NewNetworkSnapshot(c.chainID, c.account), fns
}

func notify(fns []func(types.NetworkSnapshot), s types.NetworkSnapshot) {
	for _, fn := range fns {
		fn(s)
	}
}

// Ensure Connection implements Source
var _ Source = (*Connection)(nil)
