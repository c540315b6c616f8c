// Package logging ships structured log records to the logs stream so the
// rest of the trading system sees what the core is doing without scraping
// its stdout.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Publisher is the outbound stream the records are shipped on.
type Publisher interface {
	Publish(v any) error
}

// ShippingHandler wraps another slog.Handler and mirrors every record as a
// JSON object on the logs stream. Shipping failures fall back to stderr
// once per failure and never block or fail the caller.
type ShippingHandler struct {
	inner slog.Handler
	pub   Publisher
	attrs []slog.Attr
}

// NewShippingHandler wraps inner with log shipping to pub.
func NewShippingHandler(inner slog.Handler, pub Publisher) *ShippingHandler {
	return &ShippingHandler{inner: inner, pub: pub}
}

func (h *ShippingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ShippingHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := map[string]any{
		"timestamp": record.Time.UnixMicro(),
		"level":     record.Level.String(),
		"message":   record.Message,
	}
	for _, attr := range h.attrs {
		fields[attr.Key] = attr.Value.Resolve().Any()
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields[attr.Key] = attr.Value.Resolve().Any()
		return true
	})
	if err := h.pub.Publish(fields); err != nil {
		os.Stderr.WriteString("log shipping failed: " + err.Error() + "\n")
	}
	return h.inner.Handle(ctx, record)
}

func (h *ShippingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ShippingHandler{inner: h.inner.WithAttrs(attrs), pub: h.pub, attrs: merged}
}

func (h *ShippingHandler) WithGroup(name string) slog.Handler {
	return &ShippingHandler{inner: h.inner.WithGroup(name), pub: h.pub, attrs: h.attrs}
}
