// Package config loads galileo's YAML configuration document.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the root of galileo.yaml.
type Config struct {
	Galileo GalileoConfig `yaml:"galileo"`
	Logging LoggingConfig `yaml:"logging"`
}

// GalileoConfig groups every domain-specific section under the `galileo.*`
// namespace named in spec.md §6.
type GalileoConfig struct {
	Engine    EngineConfig    `yaml:"engine"`
	Landers   []LanderConfig  `yaml:"landers"`
	IPs       IPConfig        `yaml:"ips"`
	Lighthouse LighthouseConfig `yaml:"lighthouse"`
	Flashloan FlashloanConfig `yaml:"flashloan"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Solana    SolanaConfig    `yaml:"solana"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Wallet    WalletConfig    `yaml:"wallet"`
}

// EngineConfig carries the external aggregator configs: a default variant
// plus any number of named variants (e.g. different slippage/route profiles).
type EngineConfig struct {
	Default  string                     `yaml:"default"`
	Variants map[string]AggregatorConfig `yaml:"variants"`
}

// AggregatorConfig describes one aggregator variant (base URL, timeout,
// slippage tolerance). galileo only ships a Jupiter-shaped client but the
// config keeps the shape open for other Ultra-compatible aggregators.
type AggregatorConfig struct {
	BaseURL     string        `yaml:"base_url"`
	TimeoutMs   int           `yaml:"timeout_ms"`
	SlippageBps int           `yaml:"slippage_bps"`
	Timeout     time.Duration `yaml:"-"`
}

// LanderConfig configures one submission channel.
type LanderConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	AuthToken string `yaml:"auth_token"`
	Enabled  bool   `yaml:"enabled"`
}

// IPConfig configures the IP lease pool's inventory source and cooldown
// policy.
type IPConfig struct {
	Source               string         `yaml:"source"` // "static" | "env"
	Static               []string       `yaml:"static"`
	EnvVar               string         `yaml:"env_var"`
	Mode                 string         `yaml:"mode"` // "sticky" | "round_robin" | "random"
	Cooldown             CooldownConfig `yaml:"cooldown"`
	MaxConcurrentPerKind map[string]int `yaml:"max_concurrent_per_kind"`
}

// CooldownConfig names the per-rate-limit-signal cooldown duration and a cap
// on consecutive cooldowns. An IP that reaches the cap has its memoized
// client dropped and rebuilt on its next lease; it stays in the inventory.
type CooldownConfig struct {
	Duration             time.Duration `yaml:"duration"`
	MaxConsecutiveCooldowns int        `yaml:"max_consecutive_cooldowns"`
}

// LighthouseConfig holds a Lighthouse program id. The value is parsed and
// stored only; internal/lighthouse always uses its built-in mainnet ProgramID.
type LighthouseConfig struct {
	ProgramID string `yaml:"program_id"`
}

// FlashloanConfig groups per-protocol flash-loan manager configuration.
type FlashloanConfig struct {
	Marginfi MarginfiConfig `yaml:"marginfi"`
}

// MarginfiConfig maps signer authority (base58 pubkey) to a known Marginfi
// account (base58 pubkey), the registry internal/flashloan/marginfi needs.
type MarginfiConfig struct {
	GroupID  string            `yaml:"group_id"`
	Accounts map[string]string `yaml:"accounts"`
}

// MetricsConfig is a pass-through: galileo's core does not implement a
// Prometheus exporter (out of scope per spec.md §1), it only parses and
// stores the bind address for an external exporter to use.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// SolanaConfig points at the cluster RPC/WS endpoints used by the blockhash
// snapshot source and the ALT cache.
type SolanaConfig struct {
	RPCURL       string `yaml:"rpc_url"`
	WebsocketURL string `yaml:"websocket_url"`
	Commitment   string `yaml:"commitment"`
}

// SchedulerConfig lists the base mints the strategy loop paces and the
// pacing/deadline durations the strategy engine applies per mint.
type SchedulerConfig struct {
	BaseMints        []string `yaml:"base_mints"`
	IdleDelayMs      int      `yaml:"idle_delay_ms"`
	RetryDelayMs     int      `yaml:"retry_delay_ms"`
	SubmitDeadlineMs int      `yaml:"submit_deadline_ms"`
	// GuardStrategy selects the GuardBudget decorator's formula: one of
	// "base_plus_tip", "base_plus_prioritization_fee",
	// "base_plus_tip_and_prioritization_fee". Empty defaults to
	// "base_plus_tip".
	GuardStrategy string `yaml:"guard_strategy"`
	// BaseGuardLamports seeds AssemblyContext.GuardRequired before the
	// GuardBudget decorator adds the tip/prioritization-fee budget on top;
	// this is the opportunity's own required profit floor, applied to
	// every configured base mint.
	BaseGuardLamports uint64 `yaml:"base_guard_lamports"`
}

// WalletConfig is a passthrough reference to an externally loaded signer;
// galileo's core never reads the keypair file itself (out of scope, see
// spec.md §1's "given a signer identity").
type WalletConfig struct {
	KeypairPath string `yaml:"keypair_path"`
}

// LoggingConfig configures the zap-backed logger in pkg/logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "json" | "console"
	Output     string `yaml:"output"` // "stdout" | "file"
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for name, variant := range cfg.Galileo.Engine.Variants {
		variant.Timeout = time.Duration(variant.TimeoutMs) * time.Millisecond
		cfg.Galileo.Engine.Variants[name] = variant
	}

	return &cfg, nil
}

// Resolve applies the `-c` / galileo.yaml / config/galileo.yaml resolution
// order from spec.md §6 and loads the result.
func Resolve(explicit string) (*Config, string, error) {
	candidates := []string{explicit, "galileo.yaml", "config/galileo.yaml"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cfg, err := Load(candidate)
		return cfg, candidate, err
	}
	return nil, "", fmt.Errorf("no config file found (tried -c, galileo.yaml, config/galileo.yaml)")
}

// Template returns the YAML written by `galileo init`.
func Template() string {
	return defaultTemplate
}

const defaultTemplate = `galileo:
  engine:
    default: jupiter
    variants:
      jupiter:
        base_url: https://quote-api.jup.ag/v6
        timeout_ms: 2000
        slippage_bps: 50
  landers:
    - name: rpc
      endpoint: https://api.mainnet-beta.solana.com
      enabled: true
    - name: jito
      endpoint: https://mainnet.block-engine.jito.wtf
      enabled: false
  ips:
    source: static
    static: []
    mode: round_robin
    cooldown:
      duration: 30s
      max_consecutive_cooldowns: 3
    max_concurrent_per_kind:
      quote: 4
      lander_submit: 2
  lighthouse:
    program_id: ""
  flashloan:
    marginfi:
      group_id: ""
      accounts: {}
  metrics:
    listen: "127.0.0.1:9090"
  solana:
    rpc_url: https://api.mainnet-beta.solana.com
    websocket_url: wss://api.mainnet-beta.solana.com
    commitment: confirmed
  scheduler:
    base_mints: []
    idle_delay_ms: 250
    retry_delay_ms: 1000
    submit_deadline_ms: 800
    guard_strategy: base_plus_tip
    base_guard_lamports: 0
  wallet:
    keypair_path: ""
logging:
  level: info
  format: json
  output: stdout
`
