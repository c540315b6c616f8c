// Package command builds the outbound command records addressed to the
// gates. Every constructor is pure apart from the fresh event id and the
// microsecond timestamp stamped into the envelope.
package command

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spreadcore/pkg/types"
)

// Node is the envelope node field for everything this process emits.
const Node = "core"

// Factory stamps the process identity into each command envelope.
type Factory struct {
	Instance string
	Algo     string
}

// NewFactory creates a command factory for the given identity.
func NewFactory(instance, algo string) *Factory {
	return &Factory{Instance: instance, Algo: algo}
}

// TimeUS returns the current UNIX timestamp in microseconds.
func TimeUS() int64 {
	return time.Now().UnixMicro()
}

func (f *Factory) envelope(exchange, action string, data any) types.Command {
	return types.Command{
		EventID:   uuid.NewString(),
		Event:     "command",
		Exchange:  exchange,
		Node:      Node,
		Instance:  f.Instance,
		Algo:      f.Algo,
		Action:    action,
		Message:   nil,
		Timestamp: TimeUS(),
		Data:      data,
	}
}

// CreateOrder builds a create_orders command for a single order.
func (f *Factory) CreateOrder(exchange, clientOrderID, symbol string,
	amount, price decimal.Decimal, side types.Side, orderType types.OrderType) types.Command {
	return f.envelope(exchange, types.ActionCreateOrders, []types.OrderToCreate{{
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Amount:        amount,
		Price:         price,
		Side:          side,
		Type:          orderType,
	}})
}

// CancelOrder builds a cancel_orders command for a single order.
func (f *Factory) CancelOrder(exchange, clientOrderID, symbol string) types.Command {
	return f.envelope(exchange, types.ActionCancelOrders, []types.OrderRef{{
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
	}})
}

// CancelAllOrders builds a cancel_all_orders command.
func (f *Factory) CancelAllOrders(exchange string) types.Command {
	return f.envelope(exchange, types.ActionCancelAllOrders, nil)
}

// GetBalance builds a get_balance command.
func (f *Factory) GetBalance(exchange string) types.Command {
	return f.envelope(exchange, types.ActionGetBalance, nil)
}
