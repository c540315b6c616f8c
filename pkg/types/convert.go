package types

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// DecimalFromFloat converts a wire float to a decimal through its shortest
// round-trip textual form. Assigning the binary value directly would drag
// float drift into the price paths; the text detour keeps 1.2 as exactly 1.2.
func DecimalFromFloat(f float64) decimal.Decimal {
	d, err := decimal.NewFromString(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OrderBookFromWire converts an order_book_update payload to the decimal
// order book. Levels that are not [price, amount] pairs are skipped.
func OrderBookFromWire(w WireOrderBook) OrderBook {
	return OrderBook{
		Symbol:    w.Symbol,
		Bids:      levelsFromWire(w.Bids),
		Asks:      levelsFromWire(w.Asks),
		Timestamp: w.Timestamp,
	}
}

func levelsFromWire(raw [][]float64) []PriceLevel {
	levels := make([]PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			continue
		}
		levels = append(levels, PriceLevel{
			Price:  DecimalFromFloat(pair[0]),
			Amount: DecimalFromFloat(pair[1]),
		})
	}
	return levels
}

// OrderFromWire converts one gate order record to the decimal form.
func OrderFromWire(w WireOrder) Order {
	return Order{
		ClientOrderID: w.ClientOrderID,
		Symbol:        w.Symbol,
		Side:          Side(w.Side),
		Type:          OrderType(w.Type),
		Price:         DecimalFromFloat(w.Price),
		Amount:        DecimalFromFloat(w.Amount),
		Filled:        DecimalFromFloat(w.Filled),
		Status:        OrderStatus(w.Status),
	}
}

// BalanceFromWire converts a balance payload to the decimal form.
func BalanceFromWire(w WireBalance) Balance {
	assets := make(map[string]AssetBalance, len(w.Assets))
	for name, a := range w.Assets {
		assets[name] = AssetBalance{
			Free:  DecimalFromFloat(a.Free),
			Used:  DecimalFromFloat(a.Used),
			Total: DecimalFromFloat(a.Total),
		}
	}
	return Balance{Assets: assets}
}
