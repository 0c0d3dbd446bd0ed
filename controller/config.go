package controller

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/blockberries/counterberry/telemetry"
)

// DefaultAuthorizationValidity is how long a freshly signed capability lasts
const DefaultAuthorizationValidity = 365 * 24 * time.Hour

// Config holds configuration for a counter controller
type Config struct {
	// ContractAddress is the counter contract. Zero means not yet resolved;
	// every capability flag stays false until a controller is bound to a real one.
	ContractAddress common.Address

	// Timeouts
	Timeouts TimeoutConfig

	// AuthorizationValidity is the window requested for new capabilities
	AuthorizationValidity time.Duration

	// RefreshAfterMutate reads the new handle right after a committed mutation.
	// The read is admitted like any other operation; when it is refused the
	// mutation still succeeds and the handle stays cleared.
	RefreshAfterMutate bool

	Logger  zerolog.Logger
	Metrics *telemetry.Metrics

	// Now is the clock used for capability windows (for testing)
	Now func() time.Time
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Timeouts:              DefaultTimeoutConfig(),
		AuthorizationValidity: DefaultAuthorizationValidity,
		RefreshAfterMutate:    false,
		Logger:                zerolog.Nop(),
		Now:                   time.Now,
	}
}

// ValidateBasic performs basic validation of the config
func (cfg *Config) ValidateBasic() error {
	if cfg.AuthorizationValidity < time.Second {
		return fmt.Errorf("%w: authorization validity %s is shorter than one second", ErrInvalidConfig, cfg.AuthorizationValidity)
	}
	if !cfg.Timeouts.validate() {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}
