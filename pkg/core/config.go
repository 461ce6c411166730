package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// ProductionURL is the Binance spot REST host.
	ProductionURL = "https://api.binance.com"
	// SandboxURL is the Binance spot testnet REST host.
	SandboxURL = "https://testnet.binance.vision"
)

// Credentials holds API authentication credentials.
// A client copies the value at construction and never mutates it afterwards.
type Credentials struct {
	// APIKey is sent in the X-MBX-APIKEY header on every call.
	APIKey string `json:"api_key" validate:"required"`
	// SecretKey signs requests and never leaves the process.
	SecretKey string `json:"secret_key" validate:"required"`
}

// Validate reports ErrNoCredentials unless both fields are set.
func (c Credentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return nil
}

// String masks both keys so credentials can be logged safely.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey:%s, SecretKey:%s}", maskKey(c.APIKey), maskKey(c.SecretKey))
}

// GoString masks keys for %#v as well.
func (c Credentials) GoString() string {
	return c.String()
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Config contains all configuration options for a client.
type Config struct {
	// BaseURL overrides the host derived from Sandbox.
	BaseURL string `json:"base_url" validate:"omitempty,url"`
	Sandbox bool   `json:"sandbox"`
	// Credentials are checked when a signed request is built, not here,
	// so market data clients may carry an API key alone.
	Credentials *Credentials `json:"credentials,omitempty" validate:"-"`

	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration `json:"connect_timeout" validate:"min=1ms"`
	// MaxRedirects applies to unsigned requests only; signed requests never follow redirects.
	MaxRedirects int `json:"max_redirects" validate:"min=0"`

	// RecvWindow is sent with signed requests; zero omits the parameter.
	RecvWindow time.Duration `json:"recv_window" validate:"min=0,max=60s"`
	// MaxClockOffset is the largest server clock offset SyncTime accepts.
	MaxClockOffset time.Duration `json:"max_clock_offset" validate:"min=0"`

	// AutoClientOrderID generates a newClientOrderId when the caller leaves it empty.
	AutoClientOrderID bool `json:"auto_client_order_id"`

	// RateLimitWeight is the request weight budget per RateLimitPeriod; zero disables pacing.
	RateLimitWeight int           `json:"rate_limit_weight" validate:"min=0"`
	RateLimitPeriod time.Duration `json:"rate_limit_period" validate:"min=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with defaults:
// 10s timeout, 5s connect timeout, 5s recvWindow, 1m max clock offset,
// 10 redirects for unsigned calls, generated client order ids and no pacing.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           10 * time.Second,
		ConnectTimeout:    5 * time.Second,
		MaxRedirects:      10,
		RecvWindow:        5 * time.Second,
		MaxClockOffset:    time.Minute,
		AutoClientOrderID: true,
		RateLimitPeriod:   time.Minute,
		LogLevel:          "info",
	}
}

var validate = validator.New()

// Validate checks struct tags and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.RecvWindow%time.Millisecond != 0 {
		return errors.New("RecvWindow must be a whole number of milliseconds")
	}
	if c.RateLimitWeight > 0 && c.RateLimitPeriod <= 0 {
		return errors.New("RateLimitPeriod must be positive when RateLimitWeight is set")
	}
	return nil
}

// URL returns BaseURL when set, otherwise the production or sandbox host.
func (c *Config) URL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithBaseURL overrides the API host and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRecvWindow sets the recvWindow sent with signed requests and returns the config for chaining.
func (c *Config) WithRecvWindow(window time.Duration) *Config {
	c.RecvWindow = window
	return c
}

// WithRateLimit enables client-side weight pacing and returns the config for chaining.
func (c *Config) WithRateLimit(weight int, period time.Duration) *Config {
	c.RateLimitWeight = weight
	c.RateLimitPeriod = period
	return c
}
