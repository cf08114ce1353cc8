package storage

import (
	"context"

	"github.com/rexeee/mai-protocol/pkg/types"
)

// Storage is the interface for persisting settlement events.
type Storage interface {
	// StoreSettlement persists one settled leg.
	StoreSettlement(ctx context.Context, event *types.SettlementEvent) error

	// Close closes the storage connection.
	Close() error
}
