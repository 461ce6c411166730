package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spotwire/pkg/core"
	"spotwire/pkg/exchange/binance"
)

// Environment variables read after the env file is loaded.
const (
	envAPIKey    = "BINANCE_API_KEY"
	envSecretKey = "BINANCE_SECRET_KEY"
	envSandbox   = "BINANCE_SANDBOX"
	envBaseURL   = "BINANCE_BASE_URL"
)

type globalOptions struct {
	envFile    string
	baseURL    string
	sandbox    bool
	logLevel   string
	timeout    time.Duration
	recvWindow time.Duration
	syncTime   bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "spotwire",
		Short: "Binance spot REST client",
		Long: `spotwire issues public market data requests and signed trading and
account requests against the Binance spot REST API.

Credentials are read from BINANCE_API_KEY and BINANCE_SECRET_KEY, optionally
loaded from an env file. BINANCE_SANDBOX=true selects the testnet and
BINANCE_BASE_URL overrides the host.`,
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading BINANCE_* variables")
	f.StringVar(&opts.baseURL, "base-url", "", "API host (overrides BINANCE_BASE_URL)")
	f.BoolVar(&opts.sandbox, "sandbox", false, "use the testnet")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	f.DurationVar(&opts.recvWindow, "recv-window", 5*time.Second, "recvWindow for signed requests, 0 to omit")
	f.BoolVar(&opts.syncTime, "sync-time", false, "learn the server clock offset before signed calls")

	root.AddCommand(
		newCatalogCmd(),
		newPingCmd(opts),
		newTimeCmd(opts),
		newExchangeInfoCmd(opts),
		newPriceCmd(opts),
		newKlinesCmd(opts),
		newDepthCmd(opts),
		newOrderCmd(opts),
		newOpenOrdersCmd(opts),
		newAllOrdersCmd(opts),
		newMyTradesCmd(opts),
		newAccountCmd(opts),
		newBalancesCmd(opts),
		newListenKeyCmd(opts),
	)
	return root
}

func (o *globalOptions) config() (*core.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", o.envFile, err)
		}
	}

	cfg := core.DefaultConfig().
		WithTimeout(o.timeout).
		WithRecvWindow(o.recvWindow)
	cfg.LogLevel = o.logLevel

	sandbox, err := envBool(envSandbox)
	if err != nil {
		return nil, err
	}
	cfg.WithSandbox(o.sandbox || sandbox)

	if o.baseURL != "" {
		cfg.WithBaseURL(o.baseURL)
	} else if u := os.Getenv(envBaseURL); u != "" {
		cfg.WithBaseURL(u)
	}

	key, secret := os.Getenv(envAPIKey), os.Getenv(envSecretKey)
	if key != "" || secret != "" {
		cfg.WithCredentials(&core.Credentials{APIKey: key, SecretKey: secret})
	}
	return cfg, nil
}

func envBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// client builds a client for one command invocation. The caller closes it.
func (o *globalOptions) client(cmd *cobra.Command, extra ...binance.Option) (*binance.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	opts := append([]binance.Option{binance.WithLogger(o.logger(cmd))}, extra...)
	c, err := binance.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if o.syncTime {
		if _, err := c.SyncTime(cmd.Context()); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("sync time: %w", err)
		}
	}
	return c, nil
}

func (o *globalOptions) logger(cmd *cobra.Command) zerolog.Logger {
	level, err := zerolog.ParseLevel(o.logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()
}
