package logging

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakePublisher struct {
	records []map[string]any
	err     error
}

func (p *fakePublisher) Publish(v any) error {
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, v.(map[string]any))
	return nil
}

func newTestLogger(pub Publisher) *slog.Logger {
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewShippingHandler(inner, pub))
}

func TestShippingHandlerPublishesRecords(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	logger := newTestLogger(pub)

	logger.Info("command", "exchange", "binance", "action", "create_orders")

	if len(pub.records) != 1 {
		t.Fatalf("published %d records, want 1", len(pub.records))
	}
	record := pub.records[0]
	if record["message"] != "command" {
		t.Errorf("message = %v", record["message"])
	}
	if record["level"] != "INFO" {
		t.Errorf("level = %v", record["level"])
	}
	if record["exchange"] != "binance" || record["action"] != "create_orders" {
		t.Errorf("attrs = %v", record)
	}
	if _, ok := record["timestamp"].(int64); !ok {
		t.Errorf("timestamp = %v, want microsecond integer", record["timestamp"])
	}
}

func TestShippingHandlerCarriesLoggerAttrs(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	logger := newTestLogger(pub).With("component", "strategy")

	logger.Warn("empty balance update", "exchange", "exmo")

	if len(pub.records) != 1 {
		t.Fatalf("published %d records, want 1", len(pub.records))
	}
	if pub.records[0]["component"] != "strategy" {
		t.Errorf("component attr lost: %v", pub.records[0])
	}
	if pub.records[0]["exchange"] != "exmo" {
		t.Errorf("call attr lost: %v", pub.records[0])
	}
}

func TestShippingFailureDoesNotFailLogging(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("stream down")}
	logger := newTestLogger(pub)

	// Must not panic or error; the inner handler still runs.
	logger.Error("boom")
}
