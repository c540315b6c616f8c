// Package market provides the per-venue exchange snapshot and the order-book
// walker used for market-order price prediction.
//
// The walker answers one question: if a market order of a given size crossed
// this book right now, what volume-weighted average price would it fill at?
// Both directions are pure functions over an immutable book; the strategy
// layer calls them on every decision.
package market

import (
	"github.com/shopspring/decimal"

	"spreadcore/pkg/types"
)

// PredictMarketSellPrice walks the bids from best to worst, consuming
// baseAmount units of the base asset, and returns the volume-weighted
// average fill price. If the book runs out of liquidity the price reflects
// only what was available; callers size against balances so that an
// under-fill does not occur in practice. An empty walk returns zero.
func PredictMarketSellPrice(baseAmount decimal.Decimal, book types.OrderBook) decimal.Decimal {
	filledBase := decimal.Zero
	filledQuote := decimal.Zero
	for _, bid := range book.Bids {
		remainder := baseAmount.Sub(filledBase)
		if remainder.Sign() <= 0 {
			break
		}
		if bid.Amount.GreaterThan(remainder) {
			filledQuote = filledQuote.Add(bid.Price.Mul(remainder))
			filledBase = filledBase.Add(remainder)
		} else {
			filledQuote = filledQuote.Add(bid.Price.Mul(bid.Amount))
			filledBase = filledBase.Add(bid.Amount)
		}
	}
	if filledBase.IsZero() {
		return decimal.Zero
	}
	return filledQuote.Div(filledBase)
}

// PredictMarketBuyPrice walks the asks from best to worst with a budget
// denominated in the quote asset and returns the volume-weighted average
// fill price. Each level's notional is price·amount; a level that exceeds
// the remaining budget is consumed partially. An empty walk returns zero.
func PredictMarketBuyPrice(quoteAmount decimal.Decimal, book types.OrderBook) decimal.Decimal {
	filledBase := decimal.Zero
	filledQuote := decimal.Zero
	for _, ask := range book.Asks {
		remainder := quoteAmount.Sub(filledQuote)
		if remainder.Sign() <= 0 {
			break
		}
		if ask.Price.Mul(ask.Amount).GreaterThan(remainder) {
			filledQuote = filledQuote.Add(remainder)
			filledBase = filledBase.Add(remainder.Div(ask.Price))
		} else {
			filledQuote = filledQuote.Add(ask.Price.Mul(ask.Amount))
			filledBase = filledBase.Add(ask.Amount)
		}
	}
	if filledBase.IsZero() {
		return decimal.Zero
	}
	return filledQuote.Div(filledBase)
}
