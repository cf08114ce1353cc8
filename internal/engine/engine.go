package engine

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/fees"
	"github.com/rexeee/mai-protocol/internal/fillstore"
	"github.com/rexeee/mai-protocol/internal/market"
	"github.com/rexeee/mai-protocol/internal/order"
	"github.com/rexeee/mai-protocol/internal/settlement"
	"github.com/rexeee/mai-protocol/internal/signature"
	"github.com/rexeee/mai-protocol/pkg/types"
)

// SignedOrder pairs an order with its trader's off-chain signature.
type SignedOrder struct {
	Order     order.Order
	Signature signature.Signature
}

// OrderAsset scopes a match request to one market and one relayer identity.
type OrderAsset struct {
	MarketContract common.Address
	Relayer        common.Address
}

// MatchRequest is the single mutating entry point's payload: one taker
// order, the maker orders to fill it against, and the caller-supplied fill
// amounts, index-aligned with the makers.
type MatchRequest struct {
	TakerOrder  SignedOrder
	MakerOrders []SignedOrder
	FillAmounts []*big.Int
	OrderAsset  OrderAsset
}

// MatchResult is the outcome of a fully settled match call.
type MatchResult struct {
	MatchID        string
	TakerOrderHash common.Hash
	Market         *market.Snapshot
	Legs           []settlement.Leg
	Events         []*types.SettlementEvent
}

// Engine validates match requests, computes settlement legs, settles them
// through the executor, and owns the fill store. A match call is atomic: any
// validation or settlement failure aborts the whole call with no observable
// state change.
type Engine struct {
	hasher   *order.Hasher
	store    fillstore.Store
	markets  market.Source
	executor *settlement.Executor
	relayer  common.Address
	logger   *zap.Logger
	now      func() time.Time

	// Serializes match and cancel calls the way the host ledger would
	// serialize transactions; fill-record updates never interleave.
	mu sync.Mutex
}

// Config holds the engine's dependencies.
type Config struct {
	Hasher   *order.Hasher
	Store    fillstore.Store
	Markets  market.Source
	Executor *settlement.Executor
	Relayer  common.Address
	Logger   *zap.Logger
	Now      func() time.Time // defaults to time.Now
}

// New creates a matching engine.
func New(cfg *Config) (*Engine, error) {
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("hasher cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("fill store cannot be nil")
	}
	if cfg.Markets == nil {
		return nil, fmt.Errorf("market source cannot be nil")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		hasher:   cfg.Hasher,
		store:    cfg.Store,
		markets:  cfg.Markets,
		executor: cfg.Executor,
		relayer:  cfg.Relayer,
		logger:   cfg.Logger,
		now:      now,
	}, nil
}

// MatchOrders validates the batch, computes one settlement leg per maker,
// executes settlement, and only then commits fill-record updates. Maker legs
// are processed in the caller-supplied order; the aggregate fill is checked
// against the taker's remaining amount up front, so an oversized batch is
// rejected rather than truncated.
func (e *Engine) MatchOrders(ctx context.Context, req *MatchRequest) (*MatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()

	result, err := e.match(ctx, req)
	if err != nil {
		MatchesTotal.WithLabelValues("rejected").Inc()
		MatchErrorsTotal.WithLabelValues(types.ErrorKind(err)).Inc()
		return nil, err
	}

	MatchesTotal.WithLabelValues("settled").Inc()
	LegsSettledTotal.Add(float64(len(result.Legs)))
	MatchDurationSeconds.Observe(e.now().Sub(start).Seconds())

	e.logger.Info("orders-matched",
		zap.String("match-id", result.MatchID),
		zap.String("taker-order", result.TakerOrderHash.Hex()),
		zap.Int("legs", len(result.Legs)))

	return result, nil
}

func (e *Engine) match(ctx context.Context, req *MatchRequest) (*MatchResult, error) {
	if len(req.MakerOrders) == 0 {
		return nil, fmt.Errorf("no maker orders")
	}
	if len(req.MakerOrders) != len(req.FillAmounts) {
		return nil, fmt.Errorf("maker orders (%d) and fill amounts (%d) must align",
			len(req.MakerOrders), len(req.FillAmounts))
	}
	if req.OrderAsset.Relayer != e.relayer {
		return nil, fmt.Errorf("%w: request relayer %s is not this relayer",
			types.ErrNotAuthorized, req.OrderAsset.Relayer.Hex())
	}

	snap, err := e.markets.Snapshot(ctx, req.OrderAsset.MarketContract)
	if err != nil {
		return nil, fmt.Errorf("load market: %w", err)
	}

	taker := &req.TakerOrder
	takerHash, takerMeta, err := e.validateOrder(ctx, taker, snap, req.OrderAsset, true)
	if err != nil {
		return nil, fmt.Errorf("taker order: %w", err)
	}

	takerFilled, err := e.store.Filled(ctx, takerHash)
	if err != nil {
		return nil, fmt.Errorf("load taker fill record: %w", err)
	}
	takerRemaining := new(big.Int).Sub(taker.Order.Amount, takerFilled)

	// Aggregate check before any leg is considered: reject, never truncate.
	totalFill := new(big.Int)
	for i, fill := range req.FillAmounts {
		if fill == nil || fill.Sign() <= 0 {
			return nil, fmt.Errorf("fill amount %d must be positive", i)
		}
		totalFill.Add(totalFill, fill)
	}
	if totalFill.Cmp(takerRemaining) > 0 {
		return nil, fmt.Errorf("%w: batch fills %s exceed taker remaining %s",
			types.ErrFillExceedsRemaining, totalFill.String(), takerRemaining.String())
	}

	legs := make([]settlement.Leg, 0, len(req.MakerOrders))
	pending := make(map[common.Hash]*big.Int) // fills already claimed within this call
	gasCharged := make(map[common.Hash]bool)

	for i := range req.MakerOrders {
		maker := &req.MakerOrders[i]
		fill := req.FillAmounts[i]

		makerHash, makerMeta, err := e.validateOrder(ctx, maker, snap, req.OrderAsset, false)
		if err != nil {
			return nil, fmt.Errorf("maker order %d: %w", i, err)
		}

		// An order must never trade against its own trader: the taker and
		// maker fill records would both be credited for the same fill,
		// pushing the record past the declared amount and settling a wash
		// trade.
		if maker.Order.Trader == taker.Order.Trader {
			return nil, fmt.Errorf("maker order %d: trader %s is the taker's trader, orders cannot self trade",
				i, maker.Order.Trader.Hex())
		}

		makerFilled, err := e.store.Filled(ctx, makerHash)
		if err != nil {
			return nil, fmt.Errorf("load maker fill record: %w", err)
		}
		makerRemaining := new(big.Int).Sub(maker.Order.Amount, makerFilled)
		if p, ok := pending[makerHash]; ok {
			makerRemaining.Sub(makerRemaining, p)
		}
		if fill.Cmp(makerRemaining) > 0 {
			return nil, fmt.Errorf("%w: maker %d fill %s exceeds remaining %s",
				types.ErrFillExceedsRemaining, i, fill.String(), makerRemaining.String())
		}

		mode := matchMode(takerMeta.Side, makerMeta.Side)
		if !takerMeta.IsMarketOrder &&
			!priceCompatible(mode, takerMeta.Side, taker.Order.Price, maker.Order.Price) {
			return nil, fmt.Errorf("%w: maker %d price %s vs taker limit %s (%s)",
				types.ErrPriceIncompatible, i, maker.Order.Price.String(),
				taker.Order.Price.String(), mode.String())
		}

		leg := e.buildLeg(snap, mode, taker, maker, takerHash, makerHash, takerMeta, makerMeta, fill)

		// Gas allowances are charged exactly once per order lifetime,
		// on the order's first fill.
		if takerFilled.Sign() == 0 && !gasCharged[takerHash] {
			leg.TakerGas = new(big.Int).Set(taker.Order.GasAmount)
			gasCharged[takerHash] = true
		}
		if makerFilled.Sign() == 0 && !gasCharged[makerHash] {
			leg.MakerGas = new(big.Int).Set(maker.Order.GasAmount)
			gasCharged[makerHash] = true
		}

		if p, ok := pending[makerHash]; ok {
			p.Add(p, fill)
		} else {
			pending[makerHash] = new(big.Int).Set(fill)
		}

		legs = append(legs, *leg)
	}

	if err := e.executor.Execute(ctx, snap, e.relayer, legs); err != nil {
		return nil, err
	}

	// Settlement succeeded; commit the monotonic fill-record updates.
	for i := range legs {
		if _, err := e.store.AddFilled(ctx, legs[i].MakerOrderHash, legs[i].FillAmount); err != nil {
			return nil, fmt.Errorf("record maker fill: %w", err)
		}
	}
	if _, err := e.store.AddFilled(ctx, takerHash, totalFill); err != nil {
		return nil, fmt.Errorf("record taker fill: %w", err)
	}

	result := &MatchResult{
		MatchID:        uuid.New().String(),
		TakerOrderHash: takerHash,
		Market:         snap,
		Legs:           legs,
	}
	result.Events = e.buildEvents(result)

	return result, nil
}

func (e *Engine) buildLeg(
	snap *market.Snapshot,
	mode settlement.Mode,
	taker, maker *SignedOrder,
	takerHash, makerHash common.Hash,
	takerMeta, makerMeta order.Metadata,
	fill *big.Int,
) *settlement.Leg {
	f := fees.Compute(snap.MidNotional(fill),
		takerMeta.TakerFeeRate, makerMeta.MakerFeeRate, makerMeta.MakerRebateRate)

	leg := &settlement.Leg{
		Mode:           mode,
		Taker:          taker.Order.Trader,
		Maker:          maker.Order.Trader,
		TakerOrderHash: takerHash,
		MakerOrderHash: makerHash,
		FillAmount:     new(big.Int).Set(fill),
		Price:          new(big.Int).Set(maker.Order.Price),
		TakerFee:       f.TakerFee,
		MakerFee:       f.MakerFee,
		MakerRebate:    f.MakerRebate,
		TakerGas:       new(big.Int),
		MakerGas:       new(big.Int),
	}

	switch mode {
	case settlement.ModeExchange:
		leg.TakerIsBuyer = takerMeta.Side == order.SideBuy
		leg.Quote = snap.LongCost(maker.Order.Price, fill)
	case settlement.ModeMint, settlement.ModeRedeem:
		leg.LongCost = snap.LongCost(maker.Order.Price, fill)
		leg.ShortCost = snap.ShortCost(maker.Order.Price, fill)
	}

	return leg
}

func (e *Engine) validateOrder(
	ctx context.Context,
	signed *SignedOrder,
	snap *market.Snapshot,
	asset OrderAsset,
	isTaker bool,
) (common.Hash, order.Metadata, error) {
	o := &signed.Order
	hash := e.hasher.OrderHash(o)

	meta, err := o.Metadata()
	if err != nil {
		return hash, meta, err
	}

	if meta.Version != order.Version {
		return hash, meta, fmt.Errorf("%w: version %d", types.ErrUnsupportedOrderVersion, meta.Version)
	}
	if o.Amount == nil || o.Amount.Sign() <= 0 {
		return hash, meta, fmt.Errorf("order amount must be positive")
	}
	if o.GasAmount == nil || o.GasAmount.Sign() < 0 {
		return hash, meta, fmt.Errorf("gas amount must not be negative")
	}
	if err := fees.ValidateRates(meta); err != nil {
		return hash, meta, err
	}
	if meta.ExpiredAt != 0 && meta.ExpiredAt <= uint64(e.now().Unix()) {
		return hash, meta, fmt.Errorf("%w: at %d", types.ErrOrderExpired, meta.ExpiredAt)
	}
	if o.Relayer != asset.Relayer {
		return hash, meta, fmt.Errorf("%w: order relayer %s", types.ErrNotAuthorized, o.Relayer.Hex())
	}
	if o.MarketContract != asset.MarketContract {
		return hash, meta, fmt.Errorf("%w: order market %s, asset market %s",
			types.ErrMarketMismatch, o.MarketContract.Hex(), asset.MarketContract.Hex())
	}

	if !isTaker && meta.IsMarketOrder {
		return hash, meta, fmt.Errorf("%w: maker orders must carry a limit price", types.ErrPriceIncompatible)
	}
	// A market taker's price is ignored; everyone else must price inside
	// the market band.
	if !(isTaker && meta.IsMarketOrder) && !snap.ValidPrice(o.Price) {
		return hash, meta, fmt.Errorf("%w: price outside market band", types.ErrPriceIncompatible)
	}

	cancelled, err := e.store.IsCancelled(ctx, hash)
	if err != nil {
		return hash, meta, fmt.Errorf("load cancellation: %w", err)
	}
	if cancelled {
		return hash, meta, fmt.Errorf("%w: %s", types.ErrOrderCancelled, hash.Hex())
	}

	ok, err := signature.Verify(o.Trader, &signed.Signature, hash)
	if err != nil {
		return hash, meta, err
	}
	if !ok {
		return hash, meta, fmt.Errorf("%w: recovered signer is not the trader", types.ErrInvalidSignature)
	}

	return hash, meta, nil
}

// matchMode picks the settlement mode from the two order sides. Opposite
// sides trade existing long tokens; two buys mint a pair (maker long, taker
// short); two sells redeem one.
func matchMode(takerSide, makerSide order.Side) settlement.Mode {
	switch {
	case takerSide != makerSide:
		return settlement.ModeExchange
	case takerSide == order.SideBuy:
		return settlement.ModeMint
	default:
		return settlement.ModeRedeem
	}
}

// priceCompatible applies the monotone taker-cost rule: a maker may fill a
// taker only when settling at the maker's price costs the taker no more than
// settling at the taker's own limit would.
func priceCompatible(mode settlement.Mode, takerSide order.Side, takerPrice, makerPrice *big.Int) bool {
	switch mode {
	case settlement.ModeExchange:
		if takerSide == order.SideBuy {
			return makerPrice.Cmp(takerPrice) <= 0
		}
		return makerPrice.Cmp(takerPrice) >= 0
	case settlement.ModeMint:
		// The taker funds the short side, paying (cap - price): a
		// higher settlement price costs less.
		return makerPrice.Cmp(takerPrice) >= 0
	case settlement.ModeRedeem:
		// The taker surrenders the short side, receiving (cap - price):
		// a lower settlement price pays more.
		return makerPrice.Cmp(takerPrice) <= 0
	}
	return false
}

func (e *Engine) buildEvents(result *MatchResult) []*types.SettlementEvent {
	events := make([]*types.SettlementEvent, 0, len(result.Legs))
	now := e.now()
	for i := range result.Legs {
		leg := &result.Legs[i]
		events = append(events, &types.SettlementEvent{
			ID:             uuid.New().String(),
			MatchID:        result.MatchID,
			MarketContract: result.Market.MarketContract.Hex(),
			Mode:           leg.Mode.String(),
			Taker:          leg.Taker.Hex(),
			Maker:          leg.Maker.Hex(),
			TakerOrderHash: leg.TakerOrderHash.Hex(),
			MakerOrderHash: leg.MakerOrderHash.Hex(),
			FillAmount:     leg.FillAmount,
			Price:          leg.Price,
			TakerFee:       leg.TakerFee,
			MakerFee:       leg.MakerFee,
			MakerRebate:    leg.MakerRebate,
			SettledAt:      now,
		})
	}
	return events
}

// CancelOrder marks an order as cancelled after verifying the cancellation
// is signed by the order's trader. Cancelled orders fail matching with
// OrderCancelled from then on.
func (e *Engine) CancelOrder(ctx context.Context, signed *SignedOrder) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	hash := e.hasher.OrderHash(&signed.Order)

	ok, err := signature.Verify(signed.Order.Trader, &signed.Signature, hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: only the trader may cancel", types.ErrInvalidSignature)
	}

	if err := e.store.Cancel(ctx, hash); err != nil {
		return fmt.Errorf("record cancellation: %w", err)
	}

	CancellationsTotal.Inc()
	e.logger.Info("order-cancelled", zap.String("order-hash", hash.Hex()))
	return nil
}

// OrderStatus returns the cumulative filled amount and cancellation flag for
// an order hash.
func (e *Engine) OrderStatus(ctx context.Context, orderHash common.Hash) (*big.Int, bool, error) {
	filled, err := e.store.Filled(ctx, orderHash)
	if err != nil {
		return nil, false, fmt.Errorf("load fill record: %w", err)
	}
	cancelled, err := e.store.IsCancelled(ctx, orderHash)
	if err != nil {
		return nil, false, fmt.Errorf("load cancellation: %w", err)
	}
	return filled, cancelled, nil
}

// OrderHash exposes the engine's canonical order digest.
func (e *Engine) OrderHash(o *order.Order) common.Hash {
	return e.hasher.OrderHash(o)
}
