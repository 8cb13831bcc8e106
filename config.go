package execution

import (
	"encoding/json"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default limits handed to the engine when the config blob leaves them
// unset.
const (
	DefaultMaxConcurrentOrders = 10_000
	DefaultWorkerThreads       = 4
	DefaultMaxPositionSize     = 1_000_000.0
	DefaultFeeRate             = 0.001
)

// defaultSymbols are the seed books created at initialization.
var defaultSymbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN"}

// Config carries the numeric limits and wiring the core enforces. The
// JSON tags are the Initialize blob contract; the YAML tags serve
// file-based deployments.
type Config struct {
	MaxConcurrentOrders int      `json:"max_concurrent_orders" yaml:"max_concurrent_orders"`
	OrderTimeoutMS      int64    `json:"order_timeout_ms" yaml:"order_timeout_ms"`
	EnableRiskChecks    bool     `json:"enable_risk_checks" yaml:"enable_risk_checks"`
	MaxPositionSize     float64  `json:"max_position_size" yaml:"max_position_size"`
	EnableSimulation    bool     `json:"enable_simulation" yaml:"enable_simulation"`
	WorkerThreads       int      `json:"worker_threads" yaml:"worker_threads"`
	FeeRate             float64  `json:"fee_rate" yaml:"fee_rate"`
	Symbols             []string `json:"symbols" yaml:"symbols"`
	FeedURL             string   `json:"feed_url" yaml:"feed_url"`
	JournalPath         string   `json:"journal_path" yaml:"journal_path"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentOrders: DefaultMaxConcurrentOrders,
		OrderTimeoutMS:      OrderTimeout.Milliseconds(),
		EnableRiskChecks:    true,
		MaxPositionSize:     DefaultMaxPositionSize,
		EnableSimulation:    true,
		WorkerThreads:       DefaultWorkerThreads,
		FeeRate:             DefaultFeeRate,
		Symbols:             append([]string(nil), defaultSymbols...),
	}
}

// ParseConfig overlays a JSON blob onto the defaults. An empty blob is
// valid and yields the defaults unchanged.
func ParseConfig(blob string) (Config, error) {
	cfg := DefaultConfig()
	if blob == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// LoadConfig reads a YAML config file and overlays it onto the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// OrderTimeoutDuration returns the configured order timeout.
func (c Config) OrderTimeoutDuration() time.Duration {
	return time.Duration(c.OrderTimeoutMS) * time.Millisecond
}

func (c *Config) normalize() {
	if c.MaxConcurrentOrders <= 0 {
		c.MaxConcurrentOrders = DefaultMaxConcurrentOrders
	}
	if c.OrderTimeoutMS <= 0 {
		c.OrderTimeoutMS = OrderTimeout.Milliseconds()
	}
	if c.WorkerThreads <= 0 {
		c.WorkerThreads = DefaultWorkerThreads
	}
	if c.MaxPositionSize <= 0 {
		c.MaxPositionSize = DefaultMaxPositionSize
	}
	if c.FeeRate < 0 {
		c.FeeRate = DefaultFeeRate
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), defaultSymbols...)
	}
}
