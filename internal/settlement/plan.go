package settlement

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rexeee/mai-protocol/internal/market"
)

// BuildPlan flattens legs into the ordered action list the backend applies.
// Per leg: fees and gas flow to the relayer first so the relayer can cover
// the market's mint fee, then collateral and position tokens move according
// to the leg mode. The order is part of the settlement contract; tests pin
// it.
func BuildPlan(snap *market.Snapshot, relayer common.Address, legs []Leg) []Action {
	var plan []Action

	transfer := func(token, from, to common.Address, amount *big.Int) {
		if amount == nil || amount.Sign() == 0 {
			return
		}
		plan = append(plan, Action{
			Kind:   ActionTransfer,
			Token:  token,
			From:   from,
			To:     to,
			Amount: amount,
		})
	}

	for i := range legs {
		leg := &legs[i]

		takerDue := new(big.Int).Add(leg.TakerFee, leg.TakerGas)
		makerDue := new(big.Int).Sub(leg.MakerFee, leg.MakerRebate)
		makerDue.Add(makerDue, leg.MakerGas)
		transfer(snap.Collateral, leg.Taker, relayer, takerDue)
		transfer(snap.Collateral, leg.Maker, relayer, makerDue)

		switch leg.Mode {
		case ModeExchange:
			buyer, seller := leg.Maker, leg.Taker
			if leg.TakerIsBuyer {
				buyer, seller = leg.Taker, leg.Maker
			}
			transfer(snap.Collateral, buyer, seller, leg.Quote)
			transfer(snap.LongToken, seller, buyer, leg.FillAmount)

		case ModeMint:
			transfer(snap.Collateral, leg.Maker, snap.MarketContract, leg.LongCost)
			transfer(snap.Collateral, leg.Taker, snap.MarketContract, leg.ShortCost)
			transfer(snap.Collateral, relayer, snap.MarketContract, snap.MintFee(leg.FillAmount))
			plan = append(plan, Action{
				Kind:   ActionMint,
				Market: snap.MarketContract,
				Amount: leg.FillAmount,
			})
			transfer(snap.LongToken, snap.MarketContract, leg.Maker, leg.FillAmount)
			transfer(snap.ShortToken, snap.MarketContract, leg.Taker, leg.FillAmount)

		case ModeRedeem:
			transfer(snap.LongToken, leg.Maker, snap.MarketContract, leg.FillAmount)
			transfer(snap.ShortToken, leg.Taker, snap.MarketContract, leg.FillAmount)
			plan = append(plan, Action{
				Kind:   ActionRedeem,
				Market: snap.MarketContract,
				Amount: leg.FillAmount,
			})
			transfer(snap.Collateral, snap.MarketContract, leg.Maker, leg.LongCost)
			transfer(snap.Collateral, snap.MarketContract, leg.Taker, leg.ShortCost)
		}
	}

	return plan
}
