package httpserver

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/engine"
	"github.com/rexeee/mai-protocol/internal/order"
	"github.com/rexeee/mai-protocol/internal/signature"
	"github.com/rexeee/mai-protocol/pkg/types"
)

// Exchange is the matching core surface the HTTP API exposes.
type Exchange interface {
	MatchOrders(ctx context.Context, req *engine.MatchRequest) (*engine.MatchResult, error)
	CancelOrder(ctx context.Context, signed *engine.SignedOrder) error
	OrderStatus(ctx context.Context, orderHash common.Hash) (filled *big.Int, cancelled bool, err error)
}

// EventSink receives settlement events after a match settles. The sink must
// not fail the match: persistence and fan-out happen after the fact.
type EventSink interface {
	Publish(ctx context.Context, events []*types.SettlementEvent)
}

// ExchangeHandler handles match, cancel, and order status requests.
type ExchangeHandler struct {
	exchange Exchange
	events   EventSink
	logger   *zap.Logger
}

// NewExchangeHandler creates a new exchange handler. events may be nil.
func NewExchangeHandler(exchange Exchange, events EventSink, logger *zap.Logger) *ExchangeHandler {
	return &ExchangeHandler{
		exchange: exchange,
		events:   events,
		logger:   logger,
	}
}

// SignatureDTO is the wire form of a trader signature.
type SignatureDTO struct {
	Method uint8  `json:"method"`
	V      uint8  `json:"v"`
	R      string `json:"r"`
	S      string `json:"s"`
}

// OrderDTO is the wire form of a signed order. Amounts are decimal strings
// in raw base units; byte fields are 0x-prefixed hex.
type OrderDTO struct {
	Trader         string       `json:"trader"`
	Relayer        string       `json:"relayer"`
	MarketContract string       `json:"marketContract"`
	Amount         string       `json:"amount"`
	Price          string       `json:"price"`
	GasAmount      string       `json:"gasAmount"`
	Data           string       `json:"data"`
	Signature      SignatureDTO `json:"signature"`
}

// MatchRequestDTO is the wire form of a match call.
type MatchRequestDTO struct {
	TakerOrder  OrderDTO   `json:"takerOrder"`
	MakerOrders []OrderDTO `json:"makerOrders"`
	FillAmounts []string   `json:"fillAmounts"`
	OrderAsset  struct {
		MarketContract string `json:"marketContract"`
		Relayer        string `json:"relayer"`
	} `json:"orderAsset"`
}

// LegDTO is the wire form of one settled maker leg.
type LegDTO struct {
	Mode           string `json:"mode"`
	Maker          string `json:"maker"`
	MakerOrderHash string `json:"makerOrderHash"`
	FillAmount     string `json:"fillAmount"`
	Price          string `json:"price"`
	TakerFee       string `json:"takerFee"`
	MakerFee       string `json:"makerFee"`
	MakerRebate    string `json:"makerRebate"`
}

// MatchResponseDTO is the wire form of a settled match.
type MatchResponseDTO struct {
	MatchID        string   `json:"matchId"`
	TakerOrderHash string   `json:"takerOrderHash"`
	Legs           []LegDTO `json:"legs"`
}

// OrderStatusDTO is the wire form of an order's fill state.
type OrderStatusDTO struct {
	OrderHash string `json:"orderHash"`
	Filled    string `json:"filled"`
	Cancelled bool   `json:"cancelled"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HandleMatch handles POST /api/v1/match.
func (h *ExchangeHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	var dto MatchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.writeError(w, fmt.Sprintf("decode request: %v", err), "", http.StatusBadRequest)
		return
	}

	req, err := decodeMatchRequest(&dto)
	if err != nil {
		h.writeError(w, err.Error(), "", http.StatusBadRequest)
		return
	}

	result, err := h.exchange.MatchOrders(r.Context(), req)
	if err != nil {
		kind := types.ErrorKind(err)
		h.logger.Warn("match-rejected", zap.String("kind", kind), zap.Error(err))
		h.writeError(w, err.Error(), kind, statusForKind(kind))
		return
	}

	// Settlement already committed; a client hanging up must not abort
	// persistence of its own settled legs.
	if h.events != nil {
		h.events.Publish(context.WithoutCancel(r.Context()), result.Events)
	}

	resp := MatchResponseDTO{
		MatchID:        result.MatchID,
		TakerOrderHash: result.TakerOrderHash.Hex(),
		Legs:           make([]LegDTO, 0, len(result.Legs)),
	}
	for i := range result.Legs {
		leg := &result.Legs[i]
		resp.Legs = append(resp.Legs, LegDTO{
			Mode:           leg.Mode.String(),
			Maker:          leg.Maker.Hex(),
			MakerOrderHash: leg.MakerOrderHash.Hex(),
			FillAmount:     leg.FillAmount.String(),
			Price:          leg.Price.String(),
			TakerFee:       leg.TakerFee.String(),
			MakerFee:       leg.MakerFee.String(),
			MakerRebate:    leg.MakerRebate.String(),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleCancel handles POST /api/v1/orders/cancel. The body carries the full
// signed order; only the trader's signature authorizes the cancellation.
func (h *ExchangeHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var dto OrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.writeError(w, fmt.Sprintf("decode request: %v", err), "", http.StatusBadRequest)
		return
	}

	signed, err := decodeSignedOrder(&dto)
	if err != nil {
		h.writeError(w, err.Error(), "", http.StatusBadRequest)
		return
	}

	if err := h.exchange.CancelOrder(r.Context(), signed); err != nil {
		kind := types.ErrorKind(err)
		h.writeError(w, err.Error(), kind, statusForKind(kind))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleOrderStatus handles GET /api/v1/orders/{hash}.
func (h *ExchangeHandler) HandleOrderStatus(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "hash")
	if len(raw) != 66 || raw[:2] != "0x" {
		h.writeError(w, "order hash must be 32 bytes of 0x-prefixed hex", "", http.StatusBadRequest)
		return
	}
	hash := common.HexToHash(raw)

	filled, cancelled, err := h.exchange.OrderStatus(r.Context(), hash)
	if err != nil {
		h.writeError(w, err.Error(), "", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, OrderStatusDTO{
		OrderHash: hash.Hex(),
		Filled:    filled.String(),
		Cancelled: cancelled,
	})
}

func decodeMatchRequest(dto *MatchRequestDTO) (*engine.MatchRequest, error) {
	taker, err := decodeSignedOrder(&dto.TakerOrder)
	if err != nil {
		return nil, fmt.Errorf("taker order: %w", err)
	}

	makers := make([]engine.SignedOrder, 0, len(dto.MakerOrders))
	for i := range dto.MakerOrders {
		m, err := decodeSignedOrder(&dto.MakerOrders[i])
		if err != nil {
			return nil, fmt.Errorf("maker order %d: %w", i, err)
		}
		makers = append(makers, *m)
	}

	fills := make([]*big.Int, 0, len(dto.FillAmounts))
	for i, raw := range dto.FillAmounts {
		v, err := parseBig(raw)
		if err != nil {
			return nil, fmt.Errorf("fill amount %d: %w", i, err)
		}
		fills = append(fills, v)
	}

	market, err := parseAddress(dto.OrderAsset.MarketContract)
	if err != nil {
		return nil, fmt.Errorf("order asset market: %w", err)
	}
	relayer, err := parseAddress(dto.OrderAsset.Relayer)
	if err != nil {
		return nil, fmt.Errorf("order asset relayer: %w", err)
	}

	return &engine.MatchRequest{
		TakerOrder:  *taker,
		MakerOrders: makers,
		FillAmounts: fills,
		OrderAsset: engine.OrderAsset{
			MarketContract: market,
			Relayer:        relayer,
		},
	}, nil
}

func decodeSignedOrder(dto *OrderDTO) (*engine.SignedOrder, error) {
	trader, err := parseAddress(dto.Trader)
	if err != nil {
		return nil, fmt.Errorf("trader: %w", err)
	}
	relayer, err := parseAddress(dto.Relayer)
	if err != nil {
		return nil, fmt.Errorf("relayer: %w", err)
	}
	market, err := parseAddress(dto.MarketContract)
	if err != nil {
		return nil, fmt.Errorf("market contract: %w", err)
	}
	amount, err := parseBig(dto.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	price, err := parseBig(dto.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	gas, err := parseBig(dto.GasAmount)
	if err != nil {
		return nil, fmt.Errorf("gas amount: %w", err)
	}
	data, err := parseBytes32(dto.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	r, err := parseBytes32(dto.Signature.R)
	if err != nil {
		return nil, fmt.Errorf("signature r: %w", err)
	}
	s, err := parseBytes32(dto.Signature.S)
	if err != nil {
		return nil, fmt.Errorf("signature s: %w", err)
	}

	signed := &engine.SignedOrder{
		Order: order.Order{
			Trader:         trader,
			Relayer:        relayer,
			MarketContract: market,
			Amount:         amount,
			Price:          price,
			GasAmount:      gas,
			Data:           data,
		},
		Signature: signature.Signature{
			Method: signature.Method(dto.Signature.Method),
			V:      dto.Signature.V,
			R:      r,
			S:      s,
		},
	}
	return signed, nil
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", raw)
	}
	return common.HexToAddress(raw), nil
}

func parseBig(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", raw)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q must not be negative", raw)
	}
	return v, nil
}

func parseBytes32(raw string) ([32]byte, error) {
	var out [32]byte
	if len(raw) != 66 || raw[:2] != "0x" {
		return out, fmt.Errorf("%q is not 32 bytes of 0x-prefixed hex", raw)
	}
	decoded := common.FromHex(raw)
	if len(decoded) != 32 {
		return out, fmt.Errorf("%q is not 32 bytes of 0x-prefixed hex", raw)
	}
	copy(out[:], decoded)
	return out, nil
}

// statusForKind maps stable error kinds onto HTTP statuses. Stale state
// conflicts map to 409, authorization to 403, everything else that the
// request itself caused to 400.
func statusForKind(kind string) int {
	switch kind {
	case "OrderExpired", "OrderCancelled", "FillExceedsRemaining":
		return http.StatusConflict
	case "NotAuthorized":
		return http.StatusForbidden
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *ExchangeHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *ExchangeHandler) writeError(w http.ResponseWriter, message, kind string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message, Kind: kind}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
