package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/storage"
	"github.com/rexeee/mai-protocol/pkg/types"
	"github.com/rexeee/mai-protocol/pkg/websocket"
)

// settlementSink persists settled legs and fans them out to websocket
// subscribers. Failures here never unwind a match: settlement already
// happened, so a storage error is logged and the event stream continues.
type settlementSink struct {
	storage storage.Storage
	hub     *websocket.Hub
	logger  *zap.Logger
}

func (s *settlementSink) Publish(ctx context.Context, events []*types.SettlementEvent) {
	for _, event := range events {
		if err := s.storage.StoreSettlement(ctx, event); err != nil {
			s.logger.Error("settlement-store-failed",
				zap.String("settlement-id", event.ID),
				zap.Error(err))
		}
	}

	s.hub.Broadcast(events)
}
