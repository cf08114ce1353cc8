package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/market"
	"github.com/rexeee/mai-protocol/pkg/types"
)

// Executor applies settlement plans through a Backend. The whole batch
// settles or the whole call fails; partial settlement across legs is
// impossible because the backend applies the plan atomically.
type Executor struct {
	backend  Backend
	operator common.Address // the exchange identity on the proxy whitelist
	logger   *zap.Logger
}

// NewExecutor creates an Executor acting as operator.
func NewExecutor(backend Backend, operator common.Address, logger *zap.Logger) *Executor {
	return &Executor{
		backend:  backend,
		operator: operator,
		logger:   logger,
	}
}

// Execute settles every leg against the market snapshot. Fails with
// NotAuthorized when the operator is not on the proxy whitelist.
func (e *Executor) Execute(ctx context.Context, snap *market.Snapshot, relayer common.Address, legs []Leg) error {
	start := time.Now()

	ok, err := e.backend.IsWhitelisted(ctx, e.operator)
	if err != nil {
		return fmt.Errorf("whitelist check: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: operator %s is not whitelisted on the transfer proxy",
			types.ErrNotAuthorized, e.operator.Hex())
	}

	// The in-memory ledger needs the market's token mapping before it can
	// mint or redeem; the chain backend resolves this on the contract side.
	if reg, ok := e.backend.(interface{ RegisterMarket(*market.Snapshot) }); ok {
		reg.RegisterMarket(snap)
	}

	plan := BuildPlan(snap, relayer, legs)

	err = e.backend.Execute(ctx, plan)
	if err != nil {
		SettlementErrorsTotal.Inc()
		return fmt.Errorf("execute settlement plan: %w", err)
	}

	TransfersTotal.Add(float64(len(plan)))
	SettlementDurationSeconds.Observe(time.Since(start).Seconds())
	e.logger.Debug("settlement-executed",
		zap.Int("legs", len(legs)),
		zap.Int("actions", len(plan)),
		zap.String("market", snap.MarketContract.Hex()))

	return nil
}
