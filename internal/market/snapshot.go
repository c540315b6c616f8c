package market

import (
	"github.com/shopspring/decimal"

	"spreadcore/pkg/types"
)

// Snapshot holds the latest known state of one venue: per-symbol order
// books, the free/used/total balances, and the strategy's own open limit
// orders keyed by client order id. Pure data, no I/O; the strategy engine
// is the only writer.
//
// The derived-metric fields cache the last computed limit/market prices and
// profits. They are written for observability and never read for decisions.
type Snapshot struct {
	Name        string
	OrderBooks  map[string]types.OrderBook
	Balance     *types.Balance
	LimitOrders map[string]types.Order

	BuyLimitPrice   decimal.Decimal
	SellLimitPrice  decimal.Decimal
	BuyMarketPrice  decimal.Decimal
	SellMarketPrice decimal.Decimal
	BuyProfit       decimal.Decimal
	SellProfit      decimal.Decimal
}

// NewSnapshot creates an empty snapshot for a venue.
func NewSnapshot(name string) *Snapshot {
	return &Snapshot{
		Name:        name,
		OrderBooks:  make(map[string]types.OrderBook),
		LimitOrders: make(map[string]types.Order),
	}
}

// FreeBase returns the free balance of the symbol's base asset.
// Zero if no balance has arrived or the asset is unknown.
func (s *Snapshot) FreeBase(symbol string) decimal.Decimal {
	base, _ := types.SplitSymbol(symbol)
	return s.free(base)
}

// FreeQuote returns the free balance of the symbol's quote asset.
func (s *Snapshot) FreeQuote(symbol string) decimal.Decimal {
	_, quote := types.SplitSymbol(symbol)
	return s.free(quote)
}

func (s *Snapshot) free(asset string) decimal.Decimal {
	if s.Balance == nil {
		return decimal.Zero
	}
	return s.Balance.Assets[asset].Free
}

// HasBalance reports whether a non-empty balance has been received.
func (s *Snapshot) HasBalance() bool {
	return s.Balance != nil && len(s.Balance.Assets) > 0
}

// HasOpenSide reports whether any tracked limit order on this venue has the
// given side, regardless of symbol.
func (s *Snapshot) HasOpenSide(side types.Side) bool {
	for _, order := range s.LimitOrders {
		if order.Side == side {
			return true
		}
	}
	return false
}
