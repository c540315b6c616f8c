// Package config loads the core configuration in two stages. A small
// bootstrap file names where the full configuration lives (a JSON file on
// disk or an HTTP endpoint); the full configuration supplies the process
// identity, both venue transport layouts, and the strategy parameters.
package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Bootstrap source kinds.
const (
	SourceFile = "file"
	SourceAPI  = "api"
)

// defaultMinNotional is the exchange minimum-notional floor, in quote asset
// units, applied when the configuration leaves min_notional unset.
var defaultMinNotional = decimal.NewFromInt(10)

// Bootstrap selects where the full configuration comes from.
type Bootstrap struct {
	Configuration struct {
		Type string `mapstructure:"type"`
		Path string `mapstructure:"path"`
	} `mapstructure:"configuration"`
}

// Config is the full core configuration.
type Config struct {
	Instance  string            `json:"instance"`
	Algo      string            `json:"algo"`
	Assets    map[string]string `json:"assets"`
	Exchanges []ExchangeConfig  `json:"exchanges"`
	Strategy  StrategyConfig    `json:"strategy"`
	Logging   LoggingConfig     `json:"logging"`
}

// ExchangeConfig is one venue's block: its name plus the transport streams
// the gate for that venue listens and publishes on.
type ExchangeConfig struct {
	Exchange struct {
		Name string `json:"name"`
	} `json:"exchange"`
	Aeron AeronConfig `json:"aeron"`
}

// AeronConfig holds the per-venue stream layout. Channel strings and stream
// ids are opaque to the core.
type AeronConfig struct {
	Subscribers struct {
		Orderbooks Stream `json:"orderbooks"`
		Balances   Stream `json:"balances"`
		Orders     Stream `json:"orders"`
	} `json:"subscribers"`
	Publishers struct {
		Gate Stream `json:"gate"`
		Logs Stream `json:"logs"`
	} `json:"publishers"`
}

// Stream addresses one pub/sub stream.
type Stream struct {
	Channel  string `json:"channel"`
	StreamID int    `json:"stream_id"`
}

// StrategyConfig tunes the spread strategy. All four tuning values are
// percents: min_profit 5 means a 5% threshold, balance_part_to_use 100
// means the whole usable balance. MinNotional is in quote asset units.
type StrategyConfig struct {
	MinProfit              decimal.Decimal `json:"min_profit"`
	BalancePartToUse       decimal.Decimal `json:"balance_part_to_use"`
	DepthLimit             decimal.Decimal `json:"depth_limit"`
	VolatilityCompensation decimal.Decimal `json:"volatility_compensation"`
	MinNotional            decimal.Decimal `json:"min_notional"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// LoadBootstrap reads the bootstrap settings file (TOML).
func LoadBootstrap(path string) (*Bootstrap, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read bootstrap settings: %w", err)
	}
	var b Bootstrap
	if err := v.Unmarshal(&b); err != nil {
		return nil, fmt.Errorf("unmarshal bootstrap settings: %w", err)
	}
	return &b, nil
}

// Receive resolves the bootstrap to the full configuration.
func Receive(b *Bootstrap) (*Config, error) {
	if b.Configuration.Path == "" {
		return nil, fmt.Errorf("configuration path is empty")
	}
	switch b.Configuration.Type {
	case SourceFile:
		return fromFile(b.Configuration.Path)
	case SourceAPI:
		return fromAPI(b.Configuration.Path)
	default:
		return nil, fmt.Errorf("unknown configuration source %q", b.Configuration.Type)
	}
}

func fromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(data)
}

func fromAPI(url string) (*Config, error) {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})

	resp, err := client.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch config: status %d: %s", resp.StatusCode(), resp.String())
	}
	return parse(resp.Body())
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Strategy.MinNotional.IsZero() {
		cfg.Strategy.MinNotional = defaultMinNotional
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Instance == "" {
		return fmt.Errorf("instance is required")
	}
	if c.Algo == "" {
		return fmt.Errorf("algo is required")
	}
	if len(c.Exchanges) != 2 {
		return fmt.Errorf("exactly two exchanges are required, got %d", len(c.Exchanges))
	}
	names := map[string]bool{}
	for i, ex := range c.Exchanges {
		name := ex.Exchange.Name
		if name == "" {
			return fmt.Errorf("exchanges[%d].exchange.name is required", i)
		}
		if names[name] {
			return fmt.Errorf("duplicate exchange name %q", name)
		}
		names[name] = true
		for _, stream := range []struct {
			label string
			s     Stream
		}{
			{"subscribers.orderbooks", ex.Aeron.Subscribers.Orderbooks},
			{"subscribers.balances", ex.Aeron.Subscribers.Balances},
			{"subscribers.orders", ex.Aeron.Subscribers.Orders},
			{"publishers.gate", ex.Aeron.Publishers.Gate},
			{"publishers.logs", ex.Aeron.Publishers.Logs},
		} {
			if stream.s.Channel == "" {
				return fmt.Errorf("exchanges[%d].aeron.%s.channel is required", i, stream.label)
			}
		}
	}
	if c.Strategy.MinProfit.Sign() <= 0 {
		return fmt.Errorf("strategy.min_profit must be > 0")
	}
	if c.Strategy.BalancePartToUse.Sign() <= 0 {
		return fmt.Errorf("strategy.balance_part_to_use must be > 0")
	}
	if c.Strategy.DepthLimit.Sign() <= 0 {
		return fmt.Errorf("strategy.depth_limit must be > 0")
	}
	if c.Strategy.VolatilityCompensation.Sign() < 0 {
		return fmt.Errorf("strategy.volatility_compensation must be >= 0")
	}
	return nil
}
