// Package config exposes strongly typed application configuration structs loaded from YAML.
//
// Money-valued fields (sizes, prices, loss floors) are decimal strings
// in the file and converted to fixed-point through typed accessors, so a
// config typo surfaces as a conversion error instead of a silent float
// rounding.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mmengine-go/internal/fixed"
	"mmengine-go/internal/risk"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Engine configures the per-market tick pipeline.
type Engine struct {
	Market         string `yaml:"market"`
	DailyLossFloor string `yaml:"daily_loss_floor"`
}

// DailyLossFloorPoint parses the configured floor. Empty means disabled.
func (e Engine) DailyLossFloorPoint() (fixed.Point, error) {
	if e.DailyLossFloor == "" {
		return 0, nil
	}
	return fixed.FromString(e.DailyLossFloor)
}

// Breaker tunes the market anomaly breaker.
type Breaker struct {
	MaxSpreadBps       int64 `yaml:"max_spread_bps"`
	MaxMovePct         int64 `yaml:"max_move_pct"`
	ViolationThreshold int   `yaml:"violation_threshold"`
}

// Connection tunes the feed connection breaker.
type Connection struct {
	FailureThreshold int `yaml:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold"`
	CooldownMs       int `yaml:"cooldown_ms"`
}

// Strategy specifies which strategy is active along with its knobs.
type Strategy struct {
	Mode            string  `yaml:"mode"`
	SpreadBps       int64   `yaml:"spread_bps"`
	MinMarketBps    int64   `yaml:"min_market_bps"`
	OrderSize       string  `yaml:"order_size"`
	TargetInventory string  `yaml:"target_inventory"`
	RiskAversion    float64 `yaml:"risk_aversion"`
	Volatility      float64 `yaml:"volatility"`
	HorizonSecs     float64 `yaml:"horizon_secs"`
}

// OrderSizePoint parses the quoted size per side.
func (s Strategy) OrderSizePoint() (fixed.Point, error) {
	return fixed.FromString(s.OrderSize)
}

// TargetInventoryPoint parses the inventory target. Empty means flat.
func (s Strategy) TargetInventoryPoint() (fixed.Point, error) {
	if s.TargetInventory == "" {
		return 0, nil
	}
	return fixed.FromString(s.TargetInventory)
}

// Risk caps what a single order may commit, enforced by the executor.
type Risk struct {
	MaxNotionalPerTrade string `yaml:"max_notional_per_trade"`
	MaxOrderSize        string `yaml:"max_order_size"`
}

// Limits parses the caps. Empty fields disable the matching check.
func (r Risk) Limits() (risk.Limits, error) {
	var l risk.Limits
	if r.MaxNotionalPerTrade != "" {
		p, err := fixed.FromString(r.MaxNotionalPerTrade)
		if err != nil {
			return risk.Limits{}, fmt.Errorf("max_notional_per_trade: %w", err)
		}
		l.MaxNotionalPerTrade = p
	}
	if r.MaxOrderSize != "" {
		p, err := fixed.FromString(r.MaxOrderSize)
		if err != nil {
			return risk.Limits{}, fmt.Errorf("max_order_size: %w", err)
		}
		l.MaxOrderSize = p
	}
	return l, nil
}

// Feed selects and tunes the market data source.
type Feed struct {
	Provider      string `yaml:"provider"` // stub | websocket
	URL           string `yaml:"url"`
	Symbol        string `yaml:"symbol"`
	MaxAgeMs      int    `yaml:"max_age_ms"`
	MaxEmptyPolls uint64 `yaml:"max_empty_polls"`
	// ReconnectMaxIntervalMs caps the websocket reconnect backoff.
	ReconnectMaxIntervalMs int `yaml:"reconnect_max_interval_ms"`
}

// Executor tunes the paper execution layer.
type Executor struct {
	Mode          string `yaml:"mode"` // immediate | cross
	FeeBps        int64  `yaml:"fee_bps"`
	QueueCapacity int    `yaml:"queue_capacity"`
}

// Journal configures the fill journal.
type Journal struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Engine     Engine     `yaml:"engine"`
	Breaker    Breaker    `yaml:"breaker"`
	Connection Connection `yaml:"connection"`
	Risk       Risk       `yaml:"risk"`
	Strategy   Strategy   `yaml:"strategy"`
	Feed       Feed       `yaml:"feed"`
	Executor   Executor   `yaml:"executor"`
	Journal    Journal    `yaml:"journal"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
