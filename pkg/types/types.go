// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the core — order and command
// records, order book snapshots, balances, and the inbound message shapes
// arriving from the gates. It has no dependencies on internal packages, so
// it can be imported by any layer. All prices, amounts, and balances are
// decimals; floats exist only in the wire shapes and are converted at the
// boundary (see convert.go).
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side represents the direction of an order: buy or sell.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType enumerates the supported order kinds.
type OrderType string

const (
	Limit  OrderType = "limit"
	Market OrderType = "market"
)

// OrderStatus is the lifecycle state reported by a gate. An order is alive
// only while its status is open; any other status removes it from tracking.
type OrderStatus string

const (
	StatusOpen     OrderStatus = "open"
	StatusClosed   OrderStatus = "closed"
	StatusCanceled OrderStatus = "canceled"
)

// Command actions emitted by the core.
const (
	ActionCreateOrders    = "create_orders"
	ActionCancelOrders    = "cancel_orders"
	ActionCancelAllOrders = "cancel_all_orders"
	ActionGetBalance      = "get_balance"
)

// ActionOrderBookUpdate is the inbound order book action from the gates.
const ActionOrderBookUpdate = "order_book_update"

// EventData marks order messages that carry authoritative order state.
// Other event values (errors, acks) are logged and skipped.
const EventData = "data"

// ————————————————————————————————————————————————————————————————————————
// Market data
// ————————————————————————————————————————————————————————————————————————

// PriceLevel is a single bid or ask level. Amount is in the base asset.
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook is a point-in-time view of one symbol's book on one venue.
// Bids are sorted descending by price, asks ascending; levels with zero
// amount are absent. Timestamp is microsecond UNIX time from the source.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// BestBid returns the top bid level, if any.
func (ob OrderBook) BestBid() (PriceLevel, bool) {
	if len(ob.Bids) == 0 {
		return PriceLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top ask level, if any.
func (ob OrderBook) BestAsk() (PriceLevel, bool) {
	if len(ob.Asks) == 0 {
		return PriceLevel{}, false
	}
	return ob.Asks[0], true
}

// SplitSymbol splits "BASE/QUOTE" into its two assets.
func SplitSymbol(symbol string) (base, quote string) {
	base, quote, _ = strings.Cut(symbol, "/")
	return base, quote
}

// ————————————————————————————————————————————————————————————————————————
// Balances
// ————————————————————————————————————————————————————————————————————————

// AssetBalance holds one asset's funds on one venue. The source guarantees
// free + used == total; the core trusts it and only reads free.
type AssetBalance struct {
	Free  decimal.Decimal `json:"free"`
	Used  decimal.Decimal `json:"used"`
	Total decimal.Decimal `json:"total"`
}

// Balance maps asset name to its funds on one venue.
type Balance struct {
	Assets map[string]AssetBalance `json:"assets"`
}

// ————————————————————————————————————————————————————————————————————————
// Orders
// ————————————————————————————————————————————————————————————————————————

// Order is one exchange order, keyed by the client order id the core minted.
// A record is inserted optimistically when the create command is built and
// overwritten by each gate echo carrying the same client id.
//
// Hedged tracks how much of Filled has already been covered by a market
// hedge on the paired venue. It is engine-internal state, never sent or
// received on the wire.
type Order struct {
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Price         decimal.Decimal `json:"price"`
	Amount        decimal.Decimal `json:"amount"`
	Filled        decimal.Decimal `json:"filled"`
	Status        OrderStatus     `json:"status"`

	Hedged decimal.Decimal `json:"-"`
}

// ————————————————————————————————————————————————————————————————————————
// Commands
// ————————————————————————————————————————————————————————————————————————

// Command is the envelope every outbound message carries. Timestamp is
// microsecond UNIX time. Data depends on the action: a list of OrderToCreate
// for create_orders, a list of OrderRef for cancel_orders, nil otherwise.
type Command struct {
	EventID   string  `json:"event_id"`
	Event     string  `json:"event"`
	Exchange  string  `json:"exchange"`
	Node      string  `json:"node"`
	Instance  string  `json:"instance"`
	Algo      string  `json:"algo"`
	Action    string  `json:"action"`
	Message   *string `json:"message"`
	Timestamp int64   `json:"timestamp"`
	Data      any     `json:"data"`
}

// OrderToCreate is the create_orders payload entry.
type OrderToCreate struct {
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
}

// OrderRef is the cancel_orders payload entry.
type OrderRef struct {
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
}

// ————————————————————————————————————————————————————————————————————————
// Inbound wire shapes
// ————————————————————————————————————————————————————————————————————————
// These map 1:1 to the JSON messages the gates publish. Prices and amounts
// arrive as JSON numbers (floats); the dispatcher converts them to decimals
// before anything touches the strategy.

// WireOrderBook is the order_book_update payload. Each level is [price, amount].
type WireOrderBook struct {
	Symbol    string      `json:"symbol"`
	Bids      [][]float64 `json:"bids"`
	Asks      [][]float64 `json:"asks"`
	Timestamp int64       `json:"timestamp"`
}

// BookUpdateMessage is an order book message from a gate.
type BookUpdateMessage struct {
	Exchange string        `json:"exchange"`
	Action   string        `json:"action"`
	Data     WireOrderBook `json:"data"`
}

// WireOrder is one order record as a gate reports it.
type WireOrder struct {
	ClientOrderID string  `json:"client_order_id"`
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	Price         float64 `json:"price"`
	Amount        float64 `json:"amount"`
	Filled        float64 `json:"filled"`
	Status        string  `json:"status"`
}

// OrdersMessage is an own-orders message from a gate. Only Event == "data"
// messages contribute order state.
type OrdersMessage struct {
	Exchange string      `json:"exchange"`
	Event    string      `json:"event"`
	Action   string      `json:"action"`
	Data     []WireOrder `json:"data"`
}

// WireAssetBalance is one asset's funds as a gate reports them.
type WireAssetBalance struct {
	Free  float64 `json:"free"`
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
}

// WireBalance is the balance payload.
type WireBalance struct {
	Assets map[string]WireAssetBalance `json:"assets"`
}

// BalanceMessage is a balance message from a gate.
type BalanceMessage struct {
	Exchange string      `json:"exchange"`
	Action   string      `json:"action"`
	Data     WireBalance `json:"data"`
}
