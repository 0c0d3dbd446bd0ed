// Package config loads counterd process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blockberries/counterberry/controller"
	"github.com/blockberries/counterberry/telemetry"
)

// MemoryStore selects the in-memory signature cache instead of a bbolt file
const MemoryStore = "memory"

// Errors
var (
	ErrInvalidContract = errors.New("invalid contract address")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrInvalidSampling = errors.New("invalid trace sample ratio")
)

// Timeouts are the per-step controller bounds
type Timeouts struct {
	Encrypt   time.Duration `env:"ENCRYPT"   envDefault:"30s"`
	Submit    time.Duration `env:"SUBMIT"    envDefault:"30s"`
	Confirm   time.Duration `env:"CONFIRM"   envDefault:"2m"`
	Read      time.Duration `env:"READ"      envDefault:"15s"`
	Authorize time.Duration `env:"AUTHORIZE" envDefault:"5m"`
	Decrypt   time.Duration `env:"DECRYPT"   envDefault:"1m"`
}

// Config is the counterd configuration
type Config struct {
	HTTPAddr string `env:"COUNTERBERRY_HTTP_ADDR" envDefault:":8080"`
	ChainID  uint64 `env:"COUNTERBERRY_CHAIN_ID"  envDefault:"31337"`

	// ContractAddress is the counter to bind. Empty deploys a fresh one on the mock ledger.
	ContractAddress string `env:"COUNTERBERRY_CONTRACT_ADDRESS"`

	DataDir string `env:"COUNTERBERRY_DATA_DIR" envDefault:"./data"`
	// KeyFile defaults to DataDir/key.json
	KeyFile string `env:"COUNTERBERRY_KEY_FILE"`
	// SigCachePath defaults to DataDir/sigcache.db; "memory" keeps nothing on disk
	SigCachePath string `env:"COUNTERBERRY_SIGCACHE_PATH"`

	AuthorizationValidity time.Duration `env:"COUNTERBERRY_AUTHORIZATION_VALIDITY" envDefault:"8760h"`
	RefreshAfterMutate    bool          `env:"COUNTERBERRY_REFRESH_AFTER_MUTATE"    envDefault:"false"`
	Timeouts              Timeouts      `envPrefix:"COUNTERBERRY_TIMEOUT_"`

	OTLPEndpoint     string  `env:"COUNTERBERRY_OTLP_ENDPOINT"`
	TraceSampleRatio float64 `env:"COUNTERBERRY_TRACE_SAMPLE_RATIO" envDefault:"1"`
	ServiceName      string  `env:"COUNTERBERRY_SERVICE_NAME"       envDefault:"counterd"`
	LogLevel         string  `env:"COUNTERBERRY_LOG_LEVEL"          envDefault:"info"`
	LogConsole       bool    `env:"COUNTERBERRY_LOG_CONSOLE"        envDefault:"false"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks fields env cannot check on its own
func (c Config) Validate() error {
	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("%w: %q", ErrInvalidContract, c.ContractAddress)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampling, c.TraceSampleRatio)
	}
	return c.Controller(zerolog.Nop()).ValidateBasic()
}

// Contract returns the configured contract, or false if one should be deployed
func (c Config) Contract() (common.Address, bool) {
	if c.ContractAddress == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.ContractAddress), true
}

// Tracing returns the span export settings, tagged with the served chain
func (c Config) Tracing() telemetry.TracingConfig {
	return telemetry.TracingConfig{
		ServiceName: c.ServiceName,
		Endpoint:    c.OTLPEndpoint,
		SampleRatio: c.TraceSampleRatio,
		Attributes:  []attribute.KeyValue{attribute.Int64("counter.chain_id", int64(c.ChainID))},
	}
}

// KeyPath returns the signer key file path
func (c Config) KeyPath() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(c.DataDir, "key.json")
}

// SigCacheFile returns the bbolt path, or "" for the in-memory cache
func (c Config) SigCacheFile() string {
	switch c.SigCachePath {
	case MemoryStore:
		return ""
	case "":
		return filepath.Join(c.DataDir, "sigcache.db")
	default:
		return c.SigCachePath
	}
}

// Controller returns the controller configuration. The contract is supplied at bind time.
func (c Config) Controller(logger zerolog.Logger) *controller.Config {
	cfg := controller.DefaultConfig()
	cfg.AuthorizationValidity = c.AuthorizationValidity
	cfg.RefreshAfterMutate = c.RefreshAfterMutate
	cfg.Logger = logger
	cfg.Timeouts = controller.TimeoutConfig{
		Encrypt:   c.Timeouts.Encrypt,
		Submit:    c.Timeouts.Submit,
		Confirm:   c.Timeouts.Confirm,
		Read:      c.Timeouts.Read,
		Authorize: c.Timeouts.Authorize,
		Decrypt:   c.Timeouts.Decrypt,
	}
	return cfg
}

// Logger builds the process logger writing to w (stderr if nil)
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.LogConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", c.ServiceName).Logger()
}
