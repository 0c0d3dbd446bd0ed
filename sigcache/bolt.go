package sigcache

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/blockberries/counterberry/types"
)

const boltFilePerm = 0o600

var bucketCapabilities = []byte("capabilities")

// capabilityRecord is the RLP on-disk form of a capability
type capabilityRecord struct {
	PublicKey []byte
	Contract  common.Address
	Signer    common.Address
	ChainID   uint64
	StartTime uint64
	Duration  uint64 // seconds
	Signature []byte
}

func encodeCapability(c *types.Capability) ([]byte, error) {
	rec := capabilityRecord{
		PublicKey: c.Statement.PublicKey,
		Contract:  c.Statement.Contract,
		Signer:    c.Statement.Signer,
		ChainID:   c.Statement.ChainID,
		StartTime: uint64(c.Statement.StartTime),
		Duration:  uint64(c.Statement.Duration / time.Second),
		Signature: c.Signature,
	}
	data, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode capability: %w", err)
	}
	return data, nil
}

func decodeCapability(data []byte) (*types.Capability, error) {
	var rec capabilityRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	stmt := types.AuthorizationStatement{
		PublicKey: rec.PublicKey,
		Contract:  rec.Contract,
		Signer:    rec.Signer,
		ChainID:   rec.ChainID,
		StartTime: int64(rec.StartTime),
		Duration:  time.Duration(rec.Duration) * time.Second,
	}
	c, err := types.NewCapability(stmt, rec.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return c, nil
}

// BoltStore is a Store backed by a bbolt file
type BoltStore struct {
	db     *bbolt.DB
	logger zerolog.Logger
	noSync bool
}

// BoltOption configures a BoltStore
type BoltOption func(*BoltStore)

// WithBoltLogger sets the logger
func WithBoltLogger(logger zerolog.Logger) BoltOption {
	return func(s *BoltStore) {
		s.logger = logger
	}
}

// WithNoSync disables fsync per transaction. Use only in tests.
func WithNoSync(noSync bool) BoltOption {
	return func(s *BoltStore) {
		s.noSync = noSync
	}
}

// OpenBoltStore opens (or creates) the store at path
func OpenBoltStore(path string, opts ...BoltOption) (*BoltStore, error) {
	s := &BoltStore{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	db, err := bbolt.Open(path, boltFilePerm, &bbolt.Options{
		Timeout: time.Second,
		NoSync:  s.noSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open capability store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCapabilities)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create capability bucket: %w", err)
	}

	s.db = db
	s.logger.Debug().Str("path", path).Msg("opened capability store")
	return s, nil
}

// Close closes the underlying database
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get implements Store
func (s *BoltStore) Get(ctx context.Context, key string) (*types.Capability, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.db == nil {
		return nil, false, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketCapabilities).Get([]byte(key)); v != nil {
			// bbolt values are only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read capability: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	c, err := decodeCapability(data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// Put implements Store
func (s *BoltStore) Put(ctx context.Context, key string, c *types.Capability) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return ErrNilCapability
	}
	if s.db == nil {
		return ErrStoreClosed
	}

	data, err := encodeCapability(c)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCapabilities).Put([]byte(key), data)
	})
}

// Delete implements Store
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db == nil {
		return ErrStoreClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCapabilities).Delete([]byte(key))
	})
}
