// Spread-arbitrage trading core — a two-venue strategy engine that posts
// limit orders where takers will hit them and hedges every fill with an
// opposite market order on the other venue.
//
// Architecture:
//
//	main.go                — entry point: bootstrap → config → logger → engine
//	internal/config        — bootstrap settings + full config (file or HTTP API)
//	internal/engine        — gates, single-threaded dispatch, outbound routing
//	internal/transport     — pub/sub receivers and transmitters per stream
//	internal/strategy      — the spread strategy state machine
//	internal/market        — order-book walker + per-venue snapshots
//	internal/command       — command envelope factory
//	internal/logging       — log shipping to the logs stream
//	pkg/types              — shared data model, float→decimal conversion
//
// How it makes money:
//
//	Post a maker limit at the top of one venue's book, sized so both venues
//	can carry the trade. The moment the limit fills, cross the other venue's
//	book with a market order. The order is only placed while the predicted
//	round trip clears the configured profit ratio, and is cancelled as soon
//	as the books drift enough to break that prediction.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"spreadcore/internal/config"
	"spreadcore/internal/engine"
	"spreadcore/internal/logging"
	"spreadcore/internal/transport"
)

func main() {
	// The outbound peers expect decimals as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	settingsPath := "settings.toml"
	if p := os.Getenv("CORE_SETTINGS"); p != "" {
		settingsPath = p
	}

	bootstrap, err := config.LoadBootstrap(settingsPath)
	if err != nil {
		slog.Error("failed to load bootstrap settings", "error", err, "path", settingsPath)
		os.Exit(1)
	}

	cfg, err := config.Receive(bootstrap)
	if err != nil {
		slog.Error("failed to receive configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)

	core := engine.New(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("spread core started",
		"instance", cfg.Instance,
		"algo", cfg.Algo,
		"exchange_1", cfg.Exchanges[0].Exchange.Name,
		"exchange_2", cfg.Exchanges[1].Exchange.Name,
	)

	if err := core.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("engine stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// buildLogger assembles the process logger: stdout handler in the
// configured format, wrapped with shipping to the logs stream.
func buildLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logs := cfg.Exchanges[0].Aeron.Publishers.Logs
	shipper := transport.NewTransmitter(logs.Channel, logs.StreamID, slog.New(handler))
	return slog.New(logging.NewShippingHandler(handler, shipper))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
