package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/crossfi-labs/stablearb/types"
)

// Config holds every process-wide setting. It is constructed once at
// startup, validated, and passed by pointer into the scheduler, evaluator
// and pipeline; nothing mutates it after Load returns.
type Config struct {
	// Polling
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// Execution
	Mode               types.ExecutionMode `yaml:"execution_mode"`
	StartAmount        float64             `yaml:"start_amount"`
	ProfitThreshold    float64             `yaml:"profit_threshold"`
	SlippageFraction   float64             `yaml:"slippage_fraction"`
	MinAmountOutFactor float64             `yaml:"min_amount_out_factor"`

	// Venues
	ChainA ChainConfig `yaml:"chain_a"`
	ChainB ChainConfig `yaml:"chain_b"`

	// Flat bridge cost per token, in token units, charged once per leg.
	BridgeCostUSDC float64 `yaml:"bridge_cost_usdc"`
	BridgeCostUSDT float64 `yaml:"bridge_cost_usdt"`

	// Infrastructure
	TradeLogPath       string          `yaml:"trade_log_path"`
	PrometheusEnabled  bool            `yaml:"prometheus_enabled"`
	PrometheusEndpoint string          `yaml:"prometheus_endpoint"`
	RPCRateLimit       RateLimitConfig `yaml:"rpc_rate_limit"`
}

// ChainConfig describes one venue: a chain, its pool and its router.
type ChainConfig struct {
	Name        string  `yaml:"name"`
	ChainID     uint64  `yaml:"chain_id"`
	RPCEndpoint string  `yaml:"rpc_endpoint"`
	Pool        string  `yaml:"pool"`
	Router      string  `yaml:"router"`
	USDC        string  `yaml:"usdc"`
	USDT        string  `yaml:"usdt"`
	SwapFee     float64 `yaml:"swap_fee"`
}

// RateLimitConfig bounds outbound RPC traffic.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// SecureConfig carries the signer credential, sourced from the
// environment only, never from the config file.
type SecureConfig struct {
	PrivateKey string
}

// PollEvery returns the polling interval as a duration.
func (c *Config) PollEvery() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PoolAddress returns the parsed pool address.
func (cc *ChainConfig) PoolAddress() common.Address { return common.HexToAddress(cc.Pool) }

// RouterAddress returns the parsed router address.
func (cc *ChainConfig) RouterAddress() common.Address { return common.HexToAddress(cc.Router) }

// USDCAddress returns the parsed USDC token address.
func (cc *ChainConfig) USDCAddress() common.Address { return common.HexToAddress(cc.USDC) }

// USDTAddress returns the parsed USDT token address.
func (cc *ChainConfig) USDTAddress() common.Address { return common.HexToAddress(cc.USDT) }

// ValidateConfig checks every setting and reports all violations at once.
func (c *Config) ValidateConfig() error {
	var errs []string

	if c.PollIntervalSeconds <= 0 {
		errs = append(errs, "poll_interval_seconds must be positive")
	}
	if !c.Mode.Valid() {
		errs = append(errs, fmt.Sprintf("execution_mode must be %q or %q", types.ModeSimulated, types.ModeLive))
	}
	if c.StartAmount <= 0 {
		errs = append(errs, "start_amount must be positive")
	}
	if c.ProfitThreshold < 0 {
		errs = append(errs, "profit_threshold must be non-negative")
	}
	if c.SlippageFraction < 0 || c.SlippageFraction >= 1 {
		errs = append(errs, "slippage_fraction must be in [0, 1)")
	}
	if c.MinAmountOutFactor <= 0 || c.MinAmountOutFactor > 1 {
		errs = append(errs, "min_amount_out_factor must be in (0, 1]")
	}
	if c.BridgeCostUSDC < 0 || c.BridgeCostUSDT < 0 {
		errs = append(errs, "bridge costs must be non-negative")
	}

	if err := c.ChainA.Validate("chain_a"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.ChainB.Validate("chain_b"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.RPCRateLimit.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks one venue's settings.
func (cc *ChainConfig) Validate(section string) error {
	var errs []string

	if cc.Name == "" {
		errs = append(errs, "name must be specified")
	}
	if cc.ChainID == 0 {
		errs = append(errs, "chain_id must be specified")
	}
	if cc.RPCEndpoint == "" {
		errs = append(errs, "rpc_endpoint must be specified")
	}
	for field, addr := range map[string]string{
		"pool": cc.Pool, "router": cc.Router, "usdc": cc.USDC, "usdt": cc.USDT,
	} {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Sprintf("%s must be a hex address", field))
		}
	}
	if cc.SwapFee < 0 || cc.SwapFee >= 1 {
		errs = append(errs, "swap_fee must be in [0, 1)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %s", section, strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the rate limit settings.
func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("rpc_rate_limit: requests_per_second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("rpc_rate_limit: burst_size must be positive")
	}
	return nil
}

// LoadConfig reads and validates a YAML config file. An empty path falls
// back to the STABLEARB_CONFIG variable, then to ./stablearb.yaml.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		cfgFile = GetEnvWithDefault(EnvConfigFile, "stablearb.yaml")
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadSecureConfig reads the signer credential from the environment.
// Only required in live mode.
func LoadSecureConfig() (*SecureConfig, error) {
	privateKey, err := GetRequiredEnv(EnvPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("private key not found: %w", err)
	}
	return &SecureConfig{PrivateKey: privateKey}, nil
}

// DefaultConfig returns the built-in defaults, overridden field by field
// by the YAML file.
func DefaultConfig() *Config {
	return &Config{
		PollIntervalSeconds: 10,
		Mode:                types.ModeSimulated,
		StartAmount:         1000,
		ProfitThreshold:     0.5,
		SlippageFraction:    0.0005,
		MinAmountOutFactor:  0.995,
		BridgeCostUSDC:      0.25,
		BridgeCostUSDT:      0.25,
		TradeLogPath:        "trades.log",
		PrometheusEnabled:   false,
		PrometheusEndpoint:  ":9090",
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
	}
}
