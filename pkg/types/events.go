package types

import (
	"math/big"
	"time"
)

// SettlementEvent describes one settled maker/taker leg. Emitted after the
// whole batch has committed, persisted through storage and broadcast to
// websocket subscribers.
type SettlementEvent struct {
	ID             string    `json:"id"`
	MatchID        string    `json:"matchId"`
	MarketContract string    `json:"marketContract"`
	Mode           string    `json:"mode"` // exchange | mint | redeem
	Taker          string    `json:"taker"`
	Maker          string    `json:"maker"`
	TakerOrderHash string    `json:"takerOrderHash"`
	MakerOrderHash string    `json:"makerOrderHash"`
	FillAmount     *big.Int  `json:"fillAmount"`
	Price          *big.Int  `json:"price"`
	TakerFee       *big.Int  `json:"takerFee"`
	MakerFee       *big.Int  `json:"makerFee"`
	MakerRebate    *big.Int  `json:"makerRebate"`
	SettledAt      time.Time `json:"settledAt"`
}
