package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spotwire/internal/metrics"
	"spotwire/pkg/core"
	"spotwire/pkg/exchange/binance"
)

func newAccountCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Print account information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Account(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newBalancesCmd(opts *globalOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print spot balances as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			balances, err := c.SpotBalances(cmd.Context(), !all)
			if err != nil {
				return err
			}
			return renderBalances(cmd.OutOrStdout(), balances)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include zero balances")
	return cmd
}

func newListenKeyCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen-key",
		Short: "Manage user data stream listen keys",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create a listen key and print it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := opts.client(cmd)
				if err != nil {
					return err
				}
				defer c.Close()

				key, err := c.CreateListenKey(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), key.Key)
				return err
			},
		},
		&cobra.Command{
			Use:   "renew <key>",
			Short: "Keep a listen key alive for another 60 minutes",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withActiveKey(cmd, opts, args[0], (*binance.Client).RenewListenKey)
			},
		},
		&cobra.Command{
			Use:   "close <key>",
			Short: "Close a listen key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withActiveKey(cmd, opts, args[0], (*binance.Client).CloseListenKey)
			},
		},
		newKeepAliveCmd(opts),
	)
	return cmd
}

// withActiveKey runs fn against a key created elsewhere, assumed to be active.
func withActiveKey(cmd *cobra.Command, opts *globalOptions, key string,
	fn func(*binance.Client, context.Context, *binance.ListenKey) error,
) error {
	c, err := opts.client(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	now := time.Now()
	lk := &binance.ListenKey{Key: key, State: binance.ListenKeyActive, CreatedAt: now, RenewedAt: now}
	if err := fn(c, cmd.Context(), lk); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", lk.Key, lk.State)
	return err
}

type keepAliveOptions struct {
	checkInterval time.Duration
	renewMargin   time.Duration
	metricsAddr   string
}

func newKeepAliveCmd(opts *globalOptions) *cobra.Command {
	var ka keepAliveOptions
	cmd := &cobra.Command{
		Use:   "keepalive",
		Short: "Create a listen key and renew it until interrupted",
		Long: `keepalive creates a listen key, prints it, and renews it before the
30 minute keep-alive window runs out. On SIGINT or SIGTERM the key is closed.
With --metrics-addr the request metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			c, err := opts.client(cmd, binance.WithMetrics(reg))
			if err != nil {
				return err
			}
			defer c.Close()

			logger := opts.logger(cmd).With().Str("command", "keepalive").Logger()

			if ka.metricsAddr != "" {
				srv, err := serveMetrics(ka.metricsAddr, reg, logger)
				if err != nil {
					return err
				}
				defer srv.Close()
			}

			return ka.run(ctx, cmd, c, logger)
		},
	}
	cmd.Flags().DurationVar(&ka.checkInterval, "check-interval", time.Minute, "how often to check whether a renewal is due")
	cmd.Flags().DurationVar(&ka.renewMargin, "renew-margin", 5*time.Minute, "renew this long before the keep-alive window ends")
	cmd.Flags().StringVar(&ka.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

func (ka *keepAliveOptions) run(ctx context.Context, cmd *cobra.Command, c *binance.Client, logger zerolog.Logger) error {
	if ka.checkInterval <= 0 {
		return fmt.Errorf("check interval must be positive, got %s", ka.checkInterval)
	}

	key, err := c.CreateListenKey(ctx)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), key.Key); err != nil {
		return err
	}
	logger.Info().Msg("listen key created")

	ticker := time.NewTicker(ka.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.CloseListenKey(closeCtx, key); err != nil {
				return fmt.Errorf("close listen key: %w", err)
			}
			logger.Info().Msg("listen key closed")
			return nil
		case now := <-ticker.C:
			if !key.RenewDue(now.Add(ka.renewMargin)) {
				continue
			}
			if err := c.RenewListenKey(ctx, key); err != nil {
				if ctx.Err() != nil {
					continue
				}
				if core.IsHTTPError(err) || core.IsAPIError(err) {
					key.MarkExpired()
					return fmt.Errorf("listen key %s: %w", key.State, err)
				}
				logger.Warn().Err(err).Msg("listen key renewal failed, will retry")
				continue
			}
			logger.Info().Time("renewed_at", key.RenewedAt).Msg("listen key renewed")
		}
	}
}

func serveMetrics(addr string, g prometheus.Gatherer, logger zerolog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return srv, nil
}
