package market

import (
	"testing"

	"spreadcore/pkg/types"
)

func testBalance() *types.Balance {
	return &types.Balance{Assets: map[string]types.AssetBalance{
		"BTC":  {Free: d("1.5"), Used: d("0"), Total: d("1.5")},
		"USDT": {Free: d("25000"), Used: d("0"), Total: d("25000")},
	}}
}

func TestSnapshotFreeBalances(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot("binance")
	if !snap.FreeBase("BTC/USDT").IsZero() {
		t.Fatal("free base must be zero before any balance arrives")
	}

	snap.Balance = testBalance()

	if got := snap.FreeBase("BTC/USDT"); !got.Equal(d("1.5")) {
		t.Fatalf("FreeBase = %s, want 1.5", got)
	}
	if got := snap.FreeQuote("BTC/USDT"); !got.Equal(d("25000")) {
		t.Fatalf("FreeQuote = %s, want 25000", got)
	}
	if got := snap.FreeBase("ETH/USDT"); !got.IsZero() {
		t.Fatalf("FreeBase for unknown asset = %s, want 0", got)
	}
}

func TestSnapshotHasBalance(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot("exmo")
	if snap.HasBalance() {
		t.Fatal("empty snapshot must not report a balance")
	}
	snap.Balance = &types.Balance{Assets: map[string]types.AssetBalance{}}
	if snap.HasBalance() {
		t.Fatal("balance without assets must not count")
	}
	snap.Balance = testBalance()
	if !snap.HasBalance() {
		t.Fatal("balance with assets must count")
	}
}

func TestSnapshotHasOpenSide(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot("binance")
	snap.LimitOrders["id-1"] = types.Order{
		ClientOrderID: "id-1",
		Symbol:        "BTC/USDT",
		Side:          types.Buy,
		Status:        types.StatusOpen,
	}

	if !snap.HasOpenSide(types.Buy) {
		t.Fatal("buy side must be reported open")
	}
	if snap.HasOpenSide(types.Sell) {
		t.Fatal("sell side must not be reported open")
	}
}
