package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spotwire/pkg/exchange"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the endpoint catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderCatalog(cmd.OutOrStdout())
			return nil
		},
	}
}

func newPingCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			if err := c.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pong (%s)\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newTimeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Print the server time and the local clock offset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			offset, err := c.SyncTime(cmd.Context())
			if err != nil {
				return err
			}
			clk := c.Clock()
			server := time.UnixMilli(clk.NowMs()).UTC()
			fmt.Fprintf(cmd.OutOrStdout(), "server time: %s\noffset: %s\nsynced: %t\n",
				server.Format(time.RFC3339Nano), offset, clk.Synced())
			return nil
		},
	}
}

func newExchangeInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exchange-info [symbol...]",
		Short: "Print trading rules for all or the given symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.ExchangeInfo(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newPriceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price [symbol]",
		Short: "Print the latest price for one or all symbols",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			symbol := ""
			if len(args) == 1 {
				symbol = args[0]
			}
			res, err := c.SymbolPrice(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

type rangeFlags struct {
	limit   int
	startMs int64
	endMs   int64
}

func (r *rangeFlags) register(cmd *cobra.Command, limitHelp string) {
	cmd.Flags().IntVar(&r.limit, "limit", 0, limitHelp)
	cmd.Flags().Int64Var(&r.startMs, "start", 0, "start time in epoch milliseconds")
	cmd.Flags().Int64Var(&r.endMs, "end", 0, "end time in epoch milliseconds")
}

func (r *rangeFlags) options() []exchange.Option {
	var start, end time.Time
	if r.startMs > 0 {
		start = time.UnixMilli(r.startMs)
	}
	if r.endMs > 0 {
		end = time.UnixMilli(r.endMs)
	}
	return []exchange.Option{exchange.WithLimit(r.limit), exchange.WithTimeRange(start, end)}
}

func newKlinesCmd(opts *globalOptions) *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "klines <symbol> <interval>",
		Short: "Print candlesticks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Klines(cmd.Context(), args[0], args[1], rf.options()...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	rf.register(cmd, "number of candles (default 500)")
	return cmd
}

func newDepthCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "depth <symbol>",
		Short: "Print the order book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Depth(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "levels per side (default 100)")
	return cmd
}
