package market

import (
	"testing"

	"github.com/shopspring/decimal"

	"spreadcore/pkg/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func level(price, amount string) types.PriceLevel {
	return types.PriceLevel{Price: d(price), Amount: d(amount)}
}

func testBook(bids, asks []types.PriceLevel) types.OrderBook {
	return types.OrderBook{
		Symbol:    "BTC/USDT",
		Bids:      bids,
		Asks:      asks,
		Timestamp: 1_700_000_000_000_000,
	}
}

func TestPredictMarketSellPrice(t *testing.T) {
	t.Parallel()

	book := testBook(
		[]types.PriceLevel{level("18000", "0.5"), level("17000", "2"), level("17500", "5.5")},
		[]types.PriceLevel{level("19000", "1"), level("19500", "1.5"), level("20000", "3")},
	)

	// 0.5 @ 18000 + 1.0 @ 17000 = 26000 quote for 1.5 base.
	got := PredictMarketSellPrice(d("1.5"), book)
	if got.Sub(d("17333")).Abs().GreaterThan(d("1")) {
		t.Fatalf("PredictMarketSellPrice(1.5) = %s, want ~17333", got)
	}
}

func TestPredictMarketBuyPrice(t *testing.T) {
	t.Parallel()

	book := testBook(
		[]types.PriceLevel{level("16500", "0.5"), level("16000", "2"), level("15000", "5.5")},
		[]types.PriceLevel{level("17000", "1"), level("18000", "2"), level("19000", "6"), level("20000", "10")},
	)

	// 17000 + 36000 fills the first two levels; the remaining 38000 buys
	// exactly 2.0 @ 19000. 91000 quote for 5 base.
	got := PredictMarketBuyPrice(d("91000"), book)
	if got.Sub(d("18200")).Abs().GreaterThan(d("1")) {
		t.Fatalf("PredictMarketBuyPrice(91000) = %s, want ~18200", got)
	}
}

func TestPredictMarketSellPriceSingleLevel(t *testing.T) {
	t.Parallel()

	book := testBook(
		[]types.PriceLevel{level("18400", "5"), level("18300", "20")},
		nil,
	)

	got := PredictMarketSellPrice(d("1.5"), book)
	if !got.Equal(d("18400")) {
		t.Fatalf("PredictMarketSellPrice(1.5) = %s, want 18400", got)
	}
}

// Walking deeper into strictly decreasing bids can only worsen the average
// sell price; into strictly increasing asks, only raise the buy price.
func TestWalkerMonotonicity(t *testing.T) {
	t.Parallel()

	book := testBook(
		[]types.PriceLevel{level("18000", "1"), level("17500", "2"), level("17000", "4")},
		[]types.PriceLevel{level("18500", "1"), level("19000", "2"), level("19500", "4")},
	)

	amounts := []string{"0.5", "1", "2", "4", "7"}
	prev := decimal.Decimal{}
	for i, amount := range amounts {
		price := PredictMarketSellPrice(d(amount), book)
		if i > 0 && price.GreaterThan(prev) {
			t.Fatalf("sell price rose from %s to %s at amount %s", prev, price, amount)
		}
		prev = price
	}

	budgets := []string{"1000", "18500", "30000", "60000", "130000"}
	for i, budget := range budgets {
		price := PredictMarketBuyPrice(d(budget), book)
		if i > 0 && price.LessThan(prev) {
			t.Fatalf("buy price fell from %s to %s at budget %s", prev, price, budget)
		}
		prev = price
	}
}

// Exhausting the book yields the price of what was available, silently.
func TestWalkerUnderFill(t *testing.T) {
	t.Parallel()

	book := testBook(
		[]types.PriceLevel{level("18000", "1")},
		[]types.PriceLevel{level("19000", "1")},
	)

	if got := PredictMarketSellPrice(d("10"), book); !got.Equal(d("18000")) {
		t.Fatalf("under-filled sell price = %s, want 18000", got)
	}
	if got := PredictMarketBuyPrice(d("1000000"), book); !got.Equal(d("19000")) {
		t.Fatalf("under-filled buy price = %s, want 19000", got)
	}
}

func TestWalkerEmptyBook(t *testing.T) {
	t.Parallel()

	book := testBook(nil, nil)
	if got := PredictMarketSellPrice(d("1"), book); !got.IsZero() {
		t.Fatalf("empty book sell price = %s, want 0", got)
	}
	if got := PredictMarketBuyPrice(d("1"), book); !got.IsZero() {
		t.Fatalf("empty book buy price = %s, want 0", got)
	}
}
