// Package strategy implements the two-venue spread strategy engine.
//
// The idea: post a limit order at the top of one venue's book, priced so
// that the moment it fills, an opposite market order on the other venue
// locks in at least the configured profit. The engine consumes three event
// streams per venue (order books, own orders, balances), mutates the two
// venue snapshots, and returns command batches; it performs no I/O and is
// not safe for concurrent use — the dispatcher serializes all calls.
//
// Per event:
//  1. A book update re-checks every resting limit order against the fresh
//     books and cancels the ones whose hedged profit has decayed, then
//     looks for new opportunities if a venue has no resting orders.
//  2. An order update overwrites the tracked record; any newly filled base
//     is immediately hedged with a market order on the paired venue.
//  3. A balance update only refreshes the snapshot.
package strategy

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spreadcore/internal/command"
	"spreadcore/internal/config"
	"spreadcore/internal/market"
	"spreadcore/pkg/types"
)

// Client order id suffixes. The opening limit leg and the closing market
// leg of one cycle are correlated through them in the gate logs.
const (
	suffixStart = "|spread_start"
	suffixEnd   = "|spread_end"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Spread is the strategy engine. All configuration percents are converted
// to ratio form at construction: min_profit 5 becomes 1.05, depth_limit 10
// becomes 1.10, balance_part_to_use 100 becomes 1, volatility_compensation
// 0.5 becomes 0.005.
type Spread struct {
	minProfit   decimal.Decimal
	balancePart decimal.Decimal
	depthLimit  decimal.Decimal
	volComp     decimal.Decimal
	minNotional decimal.Decimal

	exchange1 *market.Snapshot
	exchange2 *market.Snapshot

	factory *command.Factory
	logger  *slog.Logger
}

// New creates the engine with two empty venue snapshots.
func New(cfg config.StrategyConfig, exchange1Name, exchange2Name string,
	factory *command.Factory, logger *slog.Logger) *Spread {
	return &Spread{
		minProfit:   cfg.MinProfit.Div(hundred).Add(one),
		balancePart: cfg.BalancePartToUse.Div(hundred),
		depthLimit:  cfg.DepthLimit.Div(hundred).Add(one),
		volComp:     cfg.VolatilityCompensation.Div(hundred),
		minNotional: cfg.MinNotional,
		exchange1:   market.NewSnapshot(exchange1Name),
		exchange2:   market.NewSnapshot(exchange2Name),
		factory:     factory,
		logger:      logger.With("component", "strategy"),
	}
}

// Snapshot returns the snapshot for a venue name, nil if unknown.
func (s *Spread) Snapshot(exchangeName string) *market.Snapshot {
	switch exchangeName {
	case s.exchange1.Name:
		return s.exchange1
	case s.exchange2.Name:
		return s.exchange2
	}
	return nil
}

// UpdateOrderBook stores the book under its symbol on the named venue and
// re-evaluates the strategy. Unknown venues produce an empty batch.
func (s *Spread) UpdateOrderBook(exchangeName string, book types.OrderBook) []types.Command {
	snap := s.Snapshot(exchangeName)
	if snap == nil {
		s.logger.Warn("orderbook for unknown exchange", "exchange", exchangeName)
		return nil
	}
	snap.OrderBooks[book.Symbol] = book

	var commands []types.Command
	if len(s.exchange2.LimitOrders) > 0 {
		commands = append(commands, s.checkPositionsToActual(s.exchange2, s.exchange1)...)
	}
	if len(s.exchange1.LimitOrders) > 0 {
		commands = append(commands, s.checkPositionsToActual(s.exchange1, s.exchange2)...)
	}
	if len(s.exchange1.LimitOrders) == 0 || len(s.exchange2.LimitOrders) == 0 {
		commands = append(commands, s.executeSpreadStrategy()...)
	}
	return commands
}

// UpdateOrders applies authoritative order records from a gate. Each order
// is located by client id in either snapshot; market-order echoes are
// logged only, unknown ids are logged and skipped.
func (s *Spread) UpdateOrders(exchangeName string, orders []types.Order) []types.Command {
	var commands []types.Command
	for _, order := range orders {
		if order.Type == types.Market {
			s.logger.Info("market order update",
				"exchange", exchangeName,
				"client_order_id", order.ClientOrderID,
				"filled", order.Filled)
			continue
		}
		switch {
		case s.hasOrder(s.exchange1, order.ClientOrderID):
			commands = append(commands, s.applyOrderUpdate(s.exchange1, s.exchange2, order)...)
		case s.hasOrder(s.exchange2, order.ClientOrderID):
			commands = append(commands, s.applyOrderUpdate(s.exchange2, s.exchange1, order)...)
		default:
			s.logger.Warn("update for untracked order",
				"exchange", exchangeName,
				"client_order_id", order.ClientOrderID)
		}
	}
	return commands
}

func (s *Spread) hasOrder(snap *market.Snapshot, clientOrderID string) bool {
	_, ok := snap.LimitOrders[clientOrderID]
	return ok
}

func (s *Spread) applyOrderUpdate(limitVenue, marketVenue *market.Snapshot, order types.Order) []types.Command {
	prev := limitVenue.LimitOrders[order.ClientOrderID]
	order.Hedged = prev.Hedged
	limitVenue.LimitOrders[order.ClientOrderID] = order

	commands := s.monitorOrders(limitVenue, marketVenue)

	if order.Status != types.StatusOpen {
		delete(limitVenue.LimitOrders, order.ClientOrderID)
	}
	return commands
}

// UpdateBalances stores a venue balance. Balance updates never emit
// commands; empty payloads are discarded.
func (s *Spread) UpdateBalances(exchangeName string, balance types.Balance) []types.Command {
	if len(balance.Assets) == 0 {
		s.logger.Warn("empty balance update", "exchange", exchangeName)
		return nil
	}
	snap := s.Snapshot(exchangeName)
	if snap == nil {
		s.logger.Warn("balance for unknown exchange", "exchange", exchangeName)
		return nil
	}
	snap.Balance = &balance
	return nil
}

// monitorOrders walks the limit venue's resting orders: newly filled base
// is hedged with a market order on the paired venue, and orders that are no
// longer worth holding are cancelled. Deletions happen after the walk.
func (s *Spread) monitorOrders(limitVenue, marketVenue *market.Snapshot) []types.Command {
	var commands []types.Command
	var toDelete []string
	for _, clientOrderID := range sortedOrderIDs(limitVenue) {
		order := limitVenue.LimitOrders[clientOrderID]

		if delta := order.Filled.Sub(order.Hedged); delta.IsPositive() {
			commands = append(commands, s.factory.CreateOrder(
				marketVenue.Name,
				uuid.NewString()+suffixEnd,
				order.Symbol,
				delta,
				order.Price,
				order.Side.Opposite(),
				types.Market,
			))
			order.Hedged = order.Filled
			limitVenue.LimitOrders[clientOrderID] = order
			s.logger.Info("hedging fill",
				"limit_exchange", limitVenue.Name,
				"market_exchange", marketVenue.Name,
				"symbol", order.Symbol,
				"side", order.Side.Opposite(),
				"amount", delta)
		}

		if !s.checkOrderToActual(limitVenue, marketVenue, clientOrderID) {
			commands = append(commands, s.factory.CancelOrder(limitVenue.Name, clientOrderID, order.Symbol))
			toDelete = append(toDelete, clientOrderID)
		}
	}
	for _, clientOrderID := range toDelete {
		delete(limitVenue.LimitOrders, clientOrderID)
	}
	return commands
}

// checkPositionsToActual cancels every resting limit order on the limit
// venue whose expected hedged profit has decayed. Unlike monitorOrders it
// never hedges — hedging is driven by fill events only.
func (s *Spread) checkPositionsToActual(limitVenue, marketVenue *market.Snapshot) []types.Command {
	var commands []types.Command
	var toDelete []string
	for _, clientOrderID := range sortedOrderIDs(limitVenue) {
		if !s.checkOrderToActual(limitVenue, marketVenue, clientOrderID) {
			order := limitVenue.LimitOrders[clientOrderID]
			commands = append(commands, s.factory.CancelOrder(limitVenue.Name, clientOrderID, order.Symbol))
			toDelete = append(toDelete, clientOrderID)
		}
	}
	for _, clientOrderID := range toDelete {
		delete(limitVenue.LimitOrders, clientOrderID)
	}
	return commands
}

// checkOrderToActual reports whether a resting limit order would still
// clear the profit threshold if it filled now and was hedged at the current
// books, and whether it is still close enough to the top of its book.
//
// The sell branch walks the limit venue's own book and the buy branch the
// market venue's; the two depth formulas also differ. Both asymmetries are
// deliberate and match the behavior this engine replicates.
func (s *Spread) checkOrderToActual(limitVenue, marketVenue *market.Snapshot, clientOrderID string) bool {
	order, ok := limitVenue.LimitOrders[clientOrderID]
	if !ok {
		s.logger.Error("actuality check for unknown order", "client_order_id", clientOrderID)
		return false
	}
	limitBook, okLimit := limitVenue.OrderBooks[order.Symbol]
	marketBook, okMarket := marketVenue.OrderBooks[order.Symbol]
	if !okLimit || !okMarket {
		// Cannot evaluate yet; keep the order until both books arrive.
		return true
	}

	if order.Side == types.Sell {
		quoteAmount := order.Price.Mul(order.Amount)
		predictPrice := market.PredictMarketBuyPrice(quoteAmount, limitBook)
		if predictPrice.IsZero() {
			return false
		}
		profit := predictPrice.Div(order.Price)
		if profit.Add(s.volComp).LessThan(s.minProfit) {
			return false
		}
		if bid, ok := limitBook.BestBid(); ok &&
			bid.Price.Div(order.Price).GreaterThan(s.depthLimit) {
			return false
		}
		return true
	}

	predictPrice := market.PredictMarketSellPrice(order.Amount, marketBook)
	if predictPrice.IsZero() {
		return false
	}
	profit := predictPrice.Div(order.Price)
	if profit.Add(s.volComp).LessThan(s.minProfit) {
		return false
	}
	if ask, ok := limitBook.BestAsk(); ok &&
		order.Price.Div(ask.Price).Sub(one).Abs().GreaterThan(s.depthLimit) {
		return false
	}
	return true
}

// executeSpreadStrategy tries all four limit/market role assignments for
// every symbol both venues quote and concatenates whatever each produced.
func (s *Spread) executeSpreadStrategy() []types.Command {
	if !s.exchange1.HasBalance() || !s.exchange2.HasBalance() {
		return nil
	}
	var commands []types.Command
	for _, symbol := range s.commonSymbols() {
		commands = append(commands, s.calculateBuyLimitOrder(s.exchange1, s.exchange2, symbol)...)
		commands = append(commands, s.calculateSellLimitOrder(s.exchange1, s.exchange2, symbol)...)
		commands = append(commands, s.calculateBuyLimitOrder(s.exchange2, s.exchange1, symbol)...)
		commands = append(commands, s.calculateSellLimitOrder(s.exchange2, s.exchange1, symbol)...)
	}
	return commands
}

func (s *Spread) commonSymbols() []string {
	symbols := make([]string, 0, len(s.exchange1.OrderBooks))
	for symbol := range s.exchange1.OrderBooks {
		if _, ok := s.exchange2.OrderBooks[symbol]; ok {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// calculateBuyLimitOrder tries to post a buy limit at the top of the limit
// venue's bids, sized so the fill can be hedged by a market sell on the
// market venue at a profit above the threshold.
func (s *Spread) calculateBuyLimitOrder(marketVenue, limitVenue *market.Snapshot, symbol string) []types.Command {
	// One strategy buy per venue at a time, across all symbols.
	if limitVenue.HasOpenSide(types.Buy) {
		return nil
	}
	if !limitVenue.HasBalance() {
		return nil
	}
	bid, ok := limitVenue.OrderBooks[symbol].BestBid()
	if !ok {
		return nil
	}
	limitPrice := bid.Price

	amount := s.availableAmountToBuyFirst(limitVenue, marketVenue, symbol)
	marketPrice := market.PredictMarketSellPrice(amount, marketVenue.OrderBooks[symbol])

	if limitPrice.Mul(amount).LessThanOrEqual(s.minNotional) {
		return nil
	}

	profit := marketPrice.Div(limitPrice)

	limitVenue.BuyLimitPrice = limitPrice
	marketVenue.SellMarketPrice = marketPrice
	limitVenue.BuyProfit = profit

	if !profit.GreaterThan(s.minProfit) {
		s.logger.Debug("buy spread below threshold",
			"limit_exchange", limitVenue.Name,
			"symbol", symbol,
			"profit", profit,
			"min_profit", s.minProfit)
		return nil
	}

	clientOrderID := uuid.NewString() + suffixStart
	cmd := s.factory.CreateOrder(limitVenue.Name, clientOrderID, symbol, amount, limitPrice, types.Buy, types.Limit)
	s.registerOrder(limitVenue, cmd)
	s.logger.Info("posting buy limit",
		"exchange", limitVenue.Name,
		"symbol", symbol,
		"price", limitPrice,
		"amount", amount,
		"profit", profit)
	return []types.Command{cmd}
}

// calculateSellLimitOrder is the mirror case: a sell limit at the top of
// the limit venue's asks, hedged by a market buy on the market venue.
func (s *Spread) calculateSellLimitOrder(marketVenue, limitVenue *market.Snapshot, symbol string) []types.Command {
	if limitVenue.HasOpenSide(types.Sell) {
		return nil
	}
	if !limitVenue.HasBalance() {
		return nil
	}
	ask, ok := limitVenue.OrderBooks[symbol].BestAsk()
	if !ok {
		return nil
	}
	limitPrice := ask.Price

	amount := s.availableAmountToSellFirst(limitVenue, marketVenue, symbol)

	// The hedge buys amount base on the market venue; the walker budget is
	// denominated in quote, so convert through the limit price.
	marketPrice := market.PredictMarketBuyPrice(amount.Mul(limitPrice), marketVenue.OrderBooks[symbol])

	if limitPrice.Mul(amount).LessThanOrEqual(s.minNotional) {
		return nil
	}
	if marketPrice.IsZero() {
		return nil
	}

	profit := limitPrice.Div(marketPrice)

	limitVenue.SellLimitPrice = limitPrice
	marketVenue.BuyMarketPrice = marketPrice
	limitVenue.SellProfit = profit

	if !profit.GreaterThan(s.minProfit) {
		s.logger.Debug("sell spread below threshold",
			"limit_exchange", limitVenue.Name,
			"symbol", symbol,
			"profit", profit,
			"min_profit", s.minProfit)
		return nil
	}

	clientOrderID := uuid.NewString() + suffixStart
	cmd := s.factory.CreateOrder(limitVenue.Name, clientOrderID, symbol, amount, limitPrice, types.Sell, types.Limit)
	s.registerOrder(limitVenue, cmd)
	s.logger.Info("posting sell limit",
		"exchange", limitVenue.Name,
		"symbol", symbol,
		"price", limitPrice,
		"amount", amount,
		"profit", profit)
	return []types.Command{cmd}
}

// registerOrder inserts the just-built order into the venue's tracked set
// before any gate echo arrives. The duplicate guard and the actuality check
// rely on seeing the order immediately; the echo overwrites it later.
func (s *Spread) registerOrder(limitVenue *market.Snapshot, cmd types.Command) {
	payload := cmd.Data.([]types.OrderToCreate)[0]
	limitVenue.LimitOrders[payload.ClientOrderID] = types.Order{
		ClientOrderID: payload.ClientOrderID,
		Symbol:        payload.Symbol,
		Side:          payload.Side,
		Type:          payload.Type,
		Price:         payload.Price,
		Amount:        payload.Amount,
		Filled:        decimal.Zero,
		Status:        types.StatusOpen,
	}
}

// availableAmountToBuyFirst sizes a buy-limit-first cycle: the market
// venue's free quote converted to base at predicted market-buy execution,
// capped by the limit venue's free base, scaled by balance_part_to_use.
func (s *Spread) availableAmountToBuyFirst(limitVenue, marketVenue *market.Snapshot, symbol string) decimal.Decimal {
	quote := marketVenue.FreeQuote(symbol)
	predictPrice := market.PredictMarketBuyPrice(quote, marketVenue.OrderBooks[symbol])
	if predictPrice.IsZero() {
		return decimal.Zero
	}
	amountOnMarket := quote.Div(predictPrice)
	amountOnLimit := limitVenue.FreeBase(symbol)
	return decimal.Min(amountOnMarket, amountOnLimit).Mul(s.balancePart)
}

// availableAmountToSellFirst sizes a sell-limit-first cycle: the limit
// venue's free quote converted to base at the limit price, capped by the
// free base balance, scaled by balance_part_to_use.
func (s *Spread) availableAmountToSellFirst(limitVenue, marketVenue *market.Snapshot, symbol string) decimal.Decimal {
	ask, ok := limitVenue.OrderBooks[symbol].BestAsk()
	if !ok {
		return decimal.Zero
	}
	amountInQuote := limitVenue.FreeQuote(symbol).Div(ask.Price)
	// TODO: the base leg reads the limit venue's balance; review whether
	// the market venue balance was intended here.
	amountInBase := limitVenue.FreeBase(symbol)
	return decimal.Min(amountInBase, amountInQuote).Mul(s.balancePart)
}

func sortedOrderIDs(snap *market.Snapshot) []string {
	ids := make([]string, 0, len(snap.LimitOrders))
	for id := range snap.LimitOrders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
