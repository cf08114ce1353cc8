package fillstore

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Store tracks cumulative filled amounts and cancellations keyed by order
// hash. It is the sole defense against replay and over-fill: filled amounts
// only ever grow, and entries persist for the lifetime of the exchange.
// The matching engine is the only writer.
type Store interface {
	// Filled returns the cumulative filled base amount for an order,
	// zero for orders never seen.
	Filled(ctx context.Context, orderHash common.Hash) (*big.Int, error)

	// AddFilled increments an order's filled amount by delta and returns
	// the new total. Deltas are always positive; fills never decrease.
	AddFilled(ctx context.Context, orderHash common.Hash, delta *big.Int) (*big.Int, error)

	// IsCancelled reports whether the order has been cancelled.
	IsCancelled(ctx context.Context, orderHash common.Hash) (bool, error)

	// Cancel marks the order as cancelled. Idempotent.
	Cancel(ctx context.Context, orderHash common.Hash) error

	// Close releases underlying resources.
	Close() error
}

// MemoryStore is an in-process Store for tests and paper settlement mode.
type MemoryStore struct {
	mu        sync.RWMutex
	filled    map[common.Hash]*big.Int
	cancelled map[common.Hash]bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		filled:    make(map[common.Hash]*big.Int),
		cancelled: make(map[common.Hash]bool),
	}
}

// Filled returns the cumulative filled amount for an order.
func (s *MemoryStore) Filled(_ context.Context, orderHash common.Hash) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.filled[orderHash]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

// AddFilled increments an order's filled amount.
func (s *MemoryStore) AddFilled(_ context.Context, orderHash common.Hash, delta *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, ok := s.filled[orderHash]
	if !ok {
		total = new(big.Int)
		s.filled[orderHash] = total
	}
	total.Add(total, delta)
	return new(big.Int).Set(total), nil
}

// IsCancelled reports whether the order has been cancelled.
func (s *MemoryStore) IsCancelled(_ context.Context, orderHash common.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled[orderHash], nil
}

// Cancel marks the order as cancelled.
func (s *MemoryStore) Cancel(_ context.Context, orderHash common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled[orderHash] = true
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
