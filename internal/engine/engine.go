// Package engine wires the transport streams to the strategy and routes
// command batches back out.
//
// Each venue gets a Gate: three inbound receivers (order books, balances,
// orders) and one outbound transmitter. All six receivers funnel raw frames
// into a single processing loop, so the strategy is never invoked
// concurrently and every inbound message is fully processed — snapshot
// mutation and command publication — before the next one is taken.
//
// Lifecycle: New() → Run(ctx) → [runs until ctx is cancelled]
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"spreadcore/internal/command"
	"spreadcore/internal/config"
	"spreadcore/internal/strategy"
	"spreadcore/internal/transport"
	"spreadcore/pkg/types"
)

const inboundBuffer = 256

type streamKind int

const (
	streamOrderbooks streamKind = iota
	streamBalances
	streamOrders
)

func (k streamKind) String() string {
	switch k {
	case streamOrderbooks:
		return "orderbooks"
	case streamBalances:
		return "balances"
	case streamOrders:
		return "orders"
	}
	return "unknown"
}

// inbound is one raw frame tagged with its origin.
type inbound struct {
	exchange string
	kind     streamKind
	payload  []byte
}

// publisher is the outbound half of a gate. Satisfied by
// *transport.Transmitter; tests substitute recorders.
type publisher interface {
	Publish(v any) error
}

// Gate bundles one venue's streams.
type Gate struct {
	name      string
	receivers []*transport.Receiver
	out       publisher
}

// NewGate builds a venue gate from its config block. Inbound frames are
// tagged and pushed into sink in arrival order.
func NewGate(cfg config.ExchangeConfig, sink chan<- inbound, logger *slog.Logger) *Gate {
	name := cfg.Exchange.Name
	push := func(kind streamKind) transport.Handler {
		return func(msg []byte) {
			sink <- inbound{exchange: name, kind: kind, payload: msg}
		}
	}
	subs := cfg.Aeron.Subscribers
	return &Gate{
		name: name,
		receivers: []*transport.Receiver{
			transport.NewReceiver(subs.Orderbooks.Channel, subs.Orderbooks.StreamID, push(streamOrderbooks), logger),
			transport.NewReceiver(subs.Balances.Channel, subs.Balances.StreamID, push(streamBalances), logger),
			transport.NewReceiver(subs.Orders.Channel, subs.Orders.StreamID, push(streamOrders), logger),
		},
		out: transport.NewTransmitter(cfg.Aeron.Publishers.Gate.Channel, cfg.Aeron.Publishers.Gate.StreamID, logger),
	}
}

// Core owns the two gates and the strategy.
type Core struct {
	gate1    *Gate
	gate2    *Gate
	strategy *strategy.Spread
	factory  *command.Factory
	sink     chan inbound
	logger   *slog.Logger
}

// New wires the engine from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Core {
	sink := make(chan inbound, inboundBuffer)
	factory := command.NewFactory(cfg.Instance, cfg.Algo)
	name1 := cfg.Exchanges[0].Exchange.Name
	name2 := cfg.Exchanges[1].Exchange.Name
	return &Core{
		gate1:    NewGate(cfg.Exchanges[0], sink, logger),
		gate2:    NewGate(cfg.Exchanges[1], sink, logger),
		strategy: strategy.New(cfg.Strategy, name1, name2, factory, logger),
		factory:  factory,
		sink:     sink,
		logger:   logger.With("component", "engine"),
	}
}

// Run starts the receiver loops and the processing loop and blocks until
// ctx is cancelled. On startup every venue gets a cancel_all_orders and a
// get_balance so the engine begins from a clean, known state.
func (c *Core) Run(ctx context.Context) error {
	c.startupSync()

	group, ctx := errgroup.WithContext(ctx)
	for _, gate := range []*Gate{c.gate1, c.gate2} {
		for _, receiver := range gate.receivers {
			receiver := receiver
			group.Go(func() error { return receiver.Run(ctx) })
		}
	}
	group.Go(func() error { return c.processLoop(ctx) })
	return group.Wait()
}

func (c *Core) startupSync() {
	for _, gate := range []*Gate{c.gate1, c.gate2} {
		c.sendCommands([]types.Command{
			c.factory.CancelAllOrders(gate.name),
			c.factory.GetBalance(gate.name),
		})
	}
}

func (c *Core) processLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.sink:
			c.process(msg)
		}
	}
}

// process decodes one inbound frame, normalizes it to decimals, dispatches
// it to the matching strategy entry point, and publishes the batch.
// Malformed frames are logged and dropped; nothing here panics or returns.
func (c *Core) process(msg inbound) {
	var commands []types.Command

	switch msg.kind {
	case streamOrderbooks:
		var m types.BookUpdateMessage
		if err := json.Unmarshal(msg.payload, &m); err != nil {
			c.logger.Error("bad orderbook message", "exchange", msg.exchange, "error", err)
			return
		}
		if m.Data.Symbol == "" {
			c.logger.Error("orderbook message without symbol", "exchange", msg.exchange)
			return
		}
		commands = c.strategy.UpdateOrderBook(m.Exchange, types.OrderBookFromWire(m.Data))

	case streamOrders:
		var m types.OrdersMessage
		if err := json.Unmarshal(msg.payload, &m); err != nil {
			c.logger.Error("bad orders message", "exchange", msg.exchange, "error", err)
			return
		}
		if m.Event != types.EventData {
			c.logger.Info("non-data orders message", "exchange", msg.exchange, "event", m.Event, "action", m.Action)
			return
		}
		orders := make([]types.Order, 0, len(m.Data))
		for _, w := range m.Data {
			orders = append(orders, types.OrderFromWire(w))
		}
		commands = c.strategy.UpdateOrders(m.Exchange, orders)

	case streamBalances:
		var m types.BalanceMessage
		if err := json.Unmarshal(msg.payload, &m); err != nil {
			c.logger.Error("bad balance message", "exchange", msg.exchange, "error", err)
			return
		}
		commands = c.strategy.UpdateBalances(m.Exchange, types.BalanceFromWire(m.Data))
	}

	c.sendCommands(commands)
}

// sendCommands routes each command to the venue its exchange field names.
// Unknown venues are logged at error and dropped — never cross-delivered.
func (c *Core) sendCommands(commands []types.Command) {
	for _, cmd := range commands {
		var out publisher
		switch cmd.Exchange {
		case c.gate1.name:
			out = c.gate1.out
		case c.gate2.name:
			out = c.gate2.out
		default:
			c.logger.Error("command for unknown exchange",
				"exchange", cmd.Exchange, "action", cmd.Action, "event_id", cmd.EventID)
			continue
		}

		c.publish(out, cmd)
		c.logger.Info("command",
			"exchange", cmd.Exchange, "action", cmd.Action, "event_id", cmd.EventID)
	}
}

// publish applies the per-error transport policy: retry immediately while
// the stream is back-pressured, warn and drop on everything else.
func (c *Core) publish(out publisher, cmd types.Command) {
	for {
		err := out.Publish(cmd)
		switch {
		case err == nil:
			return
		case errors.Is(err, transport.ErrBackPressured):
			continue
		case errors.Is(err, transport.ErrNotConnected):
			c.logger.Warn("no subscriber, command dropped",
				"exchange", cmd.Exchange, "action", cmd.Action)
			return
		default:
			c.logger.Warn("publish failed, command dropped",
				"exchange", cmd.Exchange, "action", cmd.Action, "error", err)
			return
		}
	}
}
