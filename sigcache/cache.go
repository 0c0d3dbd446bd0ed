package sigcache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockberries/counterberry/guard"
	"github.com/blockberries/counterberry/telemetry"
	"github.com/blockberries/counterberry/types"
)

// Lookup results reported to metrics
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultExpired  = "expired"
	ResultMismatch = "mismatch"
	ResultForeign  = "foreign"
	ResultError    = "error"
)

// Cache is the decryption capability cache
type Cache struct {
	store   Store
	guard   *guard.Context
	now     func() time.Time
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

// Option configures a Cache
type Option func(*Cache)

// WithNow sets the clock, for tests
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics records lookup results
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache over store. A nil store means a fresh MemoryStore.
func New(store Store, g *guard.Context, opts ...Option) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Cache{
		store:  store,
		guard:  g,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "sigcache").Logger()
	return c
}

// Lookup returns a usable capability for key, if one is cached.
// Expired and mis-bound entries are deleted as a side effect. An entry whose
// signer is not the live signer is a miss but is not deleted, unlike the other
// identity mismatches: it stays valid for that signer if the user switches back.
func (c *Cache) Lookup(ctx context.Context, key Key) (*types.Capability, bool) {
	entry, result := c.lookup(ctx, key)
	c.metrics.ObserveCacheLookup(result)
	return entry, result == ResultHit
}

func (c *Cache) lookup(ctx context.Context, key Key) (*types.Capability, string) {
	skey := key.String()

	entry, found, err := c.store.Get(ctx, skey)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", skey).Msg("capability read failed, treating as miss")
		return nil, ResultError
	}
	if !found {
		return nil, ResultMiss
	}

	if !entry.BoundTo(key.Contract, key.Signer) {
		c.evict(ctx, skey, "binding mismatch")
		return nil, ResultMismatch
	}
	if !entry.ValidAt(c.now()) {
		c.evict(ctx, skey, "expired")
		return nil, ResultExpired
	}
	// The key may predate an account switch.
	if c.guard != nil && entry.Statement.Signer != c.guard.Signer() {
		return nil, ResultForeign
	}
	return entry, ResultHit
}

// Store upserts a capability under key
func (c *Cache) Store(ctx context.Context, key Key, entry *types.Capability) error {
	return c.store.Put(ctx, key.String(), entry)
}

func (c *Cache) evict(ctx context.Context, skey, reason string) {
	if err := c.store.Delete(ctx, skey); err != nil {
		c.logger.Warn().Err(err).Str("key", skey).Msg("failed to evict capability")
		return
	}
	c.logger.Debug().Str("key", skey).Str("reason", reason).Msg("evicted capability")
}
