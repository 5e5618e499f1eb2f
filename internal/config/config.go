package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/wirepair/internal/netinfo"
)

// Config holds coordinator and client configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ClientQueueSize   int           `mapstructure:"client_queue_size" yaml:"client_queue_size"`
	SocketRateLimit   int           `mapstructure:"socket_rate_limit" yaml:"socket_rate_limit"`
	QRSize            int           `mapstructure:"qr_size" yaml:"qr_size"`
	EmulatorAliases   []string      `mapstructure:"emulator_aliases" yaml:"emulator_aliases"`
	Retry             RetryConfig   `mapstructure:"retry" yaml:"retry"`
	LiveKit           LiveKitConfig `mapstructure:"livekit" yaml:"livekit"`
}

// RetryConfig bounds event channel reconnection.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

// LiveKitConfig configures room provisioning. Empty URL disables it.
type LiveKitConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	APISecret string        `mapstructure:"api_secret" yaml:"api_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

// Enabled reports whether enough is configured to issue tokens.
func (c LiveKitConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != "" && c.APISecret != ""
}

// Default returns configuration with reasonable starter defaults.
// Addr ":0" lets the OS pick the port.
func Default() Config {
	return Config{
		Addr:              ":0",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		ClientQueueSize:   32,
		SocketRateLimit:   120,
		QRSize:            256,
		EmulatorAliases:   append([]string(nil), netinfo.DefaultEmulatorAliases...),
		Retry: RetryConfig{
			MaxAttempts: 5,
			Backoff:     2 * time.Second,
		},
		LiveKit: LiveKitConfig{
			TokenTTL: 6 * time.Hour,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ClientQueueSize != 0 {
		c.ClientQueueSize = other.ClientQueueSize
	}
	if other.SocketRateLimit != 0 {
		c.SocketRateLimit = other.SocketRateLimit
	}
	if other.QRSize != 0 {
		c.QRSize = other.QRSize
	}
	if other.EmulatorAliases != nil {
		c.EmulatorAliases = other.EmulatorAliases
	}
	if other.Retry.MaxAttempts != 0 {
		c.Retry.MaxAttempts = other.Retry.MaxAttempts
	}
	if other.Retry.Backoff != 0 {
		c.Retry.Backoff = other.Retry.Backoff
	}
	if other.LiveKit.URL != "" {
		c.LiveKit.URL = other.LiveKit.URL
	}
	if other.LiveKit.APIKey != "" {
		c.LiveKit.APIKey = other.LiveKit.APIKey
	}
	if other.LiveKit.APISecret != "" {
		c.LiveKit.APISecret = other.LiveKit.APISecret
	}
	if other.LiveKit.TokenTTL != 0 {
		c.LiveKit.TokenTTL = other.LiveKit.TokenTTL
	}
}

// Validate rejects values the coordinator cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.ClientQueueSize < 1 {
		errs = append(errs, fmt.Errorf("client_queue_size must be positive, got %d", c.ClientQueueSize))
	}
	if c.QRSize < 64 {
		errs = append(errs, fmt.Errorf("qr_size must be at least 64, got %d", c.QRSize))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.Backoff < 0 {
		errs = append(errs, fmt.Errorf("retry.backoff must not be negative, got %s", c.Retry.Backoff))
	}
	return errors.Join(errs...)
}
