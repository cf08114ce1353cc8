package fillstore

import (
	"context"
	"fmt"
	"math/big"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
)

// PebbleStore persists fill records and cancellations across restarts.
// Keys: f:<32-byte-hash> for filled amounts, c:<32-byte-hash> for cancels.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) a pebble database at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open fill store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func kFilled(h common.Hash) []byte    { return append([]byte("f:"), h[:]...) }
func kCancelled(h common.Hash) []byte { return append([]byte("c:"), h[:]...) }

// Filled returns the cumulative filled amount for an order.
func (s *PebbleStore) Filled(_ context.Context, orderHash common.Hash) (*big.Int, error) {
	val, closer, err := s.db.Get(kFilled(orderHash))
	if err == pebble.ErrNotFound {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get filled amount: %w", err)
	}
	defer closer.Close()

	return new(big.Int).SetBytes(val), nil
}

// AddFilled increments an order's filled amount. Writes are synced so a
// crash after settlement cannot forget a committed fill.
func (s *PebbleStore) AddFilled(ctx context.Context, orderHash common.Hash, delta *big.Int) (*big.Int, error) {
	total, err := s.Filled(ctx, orderHash)
	if err != nil {
		return nil, err
	}
	total.Add(total, delta)

	if err := s.db.Set(kFilled(orderHash), total.Bytes(), pebble.Sync); err != nil {
		return nil, fmt.Errorf("set filled amount: %w", err)
	}
	return total, nil
}

// IsCancelled reports whether the order has been cancelled.
func (s *PebbleStore) IsCancelled(_ context.Context, orderHash common.Hash) (bool, error) {
	_, closer, err := s.db.Get(kCancelled(orderHash))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cancellation: %w", err)
	}
	closer.Close()
	return true, nil
}

// Cancel marks the order as cancelled.
func (s *PebbleStore) Cancel(_ context.Context, orderHash common.Hash) error {
	if err := s.db.Set(kCancelled(orderHash), []byte{1}, pebble.Sync); err != nil {
		return fmt.Errorf("set cancellation: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error { return s.db.Close() }

var _ Store = (*PebbleStore)(nil)
var _ Store = (*MemoryStore)(nil)
