// Package transport implements the message-oriented publish/subscribe
// channels the core speaks to its gates over.
//
// Each stream is one websocket connection to a channel endpoint carrying
// single-message UTF-8 JSON frames; the stream id is announced in a small
// subscription setup frame right after dialing. Channel identifiers and
// stream ids are opaque configuration values — the core attaches no meaning
// to them beyond addressing.
//
// A Receiver owns one inbound stream: it dials, subscribes, and hands every
// raw frame to its handler, reconnecting with capped exponential backoff
// when the connection drops. A Transmitter owns one outbound stream and
// reports publish failures with typed errors so the dispatcher can apply
// the drop/retry policy per error kind.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pollInterval     = 100 * time.Microsecond // cooperative pause between frames
	maxReconnectWait = 30 * time.Second       // cap on exponential backoff
	writeTimeout     = 10 * time.Second       // deadline for outgoing frames
)

// Typed publish errors. The dispatcher warns and drops on ErrNotConnected,
// retries immediately on ErrBackPressured, and warns and drops on anything
// else.
var (
	ErrNotConnected  = errors.New("transport: no subscriber connected")
	ErrBackPressured = errors.New("transport: stream back-pressured")
)

// subscribeFrame is the setup frame announcing which stream this
// connection carries.
type subscribeFrame struct {
	StreamID int `json:"stream_id"`
}

// Handler consumes one raw inbound frame.
type Handler func(message []byte)

// Receiver polls a single inbound stream and invokes the handler for every
// frame. Malformed frames are the handler's concern; the receiver only
// guarantees delivery order within its stream.
type Receiver struct {
	channel  string
	streamID int
	handler  Handler
	logger   *slog.Logger
}

// NewReceiver creates a receiver for one inbound stream.
func NewReceiver(channel string, streamID int, handler Handler, logger *slog.Logger) *Receiver {
	return &Receiver{
		channel:  channel,
		streamID: streamID,
		handler:  handler,
		logger:   logger.With("component", "receiver", "channel", channel, "stream_id", streamID),
	}
}

// Run connects and polls until ctx is cancelled, reconnecting with
// exponential backoff on failure.
func (r *Receiver) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := r.connectAndPoll(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("stream disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func (r *Receiver) connectAndPoll(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.channel, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(subscribeFrame{StreamID: r.streamID}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	r.logger.Debug("stream connected")

	// Unblock the read when the context goes away.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		r.handler(msg)
		time.Sleep(pollInterval)
	}
}

// Transmitter publishes to a single outbound stream. It dials lazily on
// first publish and redials after a broken connection on the next call.
// Safe for use from one producer goroutine; the mutex only guards the
// connection swap against a concurrent Close.
type Transmitter struct {
	channel  string
	streamID int
	logger   *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewTransmitter creates a transmitter for one outbound stream.
func NewTransmitter(channel string, streamID int, logger *slog.Logger) *Transmitter {
	return &Transmitter{
		channel:  channel,
		streamID: streamID,
		logger:   logger.With("component", "transmitter", "channel", channel, "stream_id", streamID),
	}
}

// Publish marshals v to JSON and writes it as one frame. Returns
// ErrNotConnected when the channel cannot be reached, ErrBackPressured when
// the write stalled past its deadline.
func (t *Transmitter) Publish(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, _, err := websocket.DefaultDialer.Dial(t.channel, nil)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrNotConnected, t.channel)
		}
		if err := conn.WriteJSON(subscribeFrame{StreamID: t.streamID}); err != nil {
			conn.Close()
			return fmt.Errorf("%w: %s", ErrNotConnected, t.channel)
		}
		t.conn = conn
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrBackPressured, err)
		}
		t.conn.Close()
		t.conn = nil
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// Close shuts the connection down; later publishes redial.
func (t *Transmitter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}
