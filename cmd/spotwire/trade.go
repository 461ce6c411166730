package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spotwire/pkg/core"
	"spotwire/pkg/exchange"
	"spotwire/pkg/order"
)

type placeFlags struct {
	quantity      string
	price         string
	stopPrice     string
	timeInForce   string
	clientOrderID string
	dryRun        bool
}

// request parses the flags through the order builder, which also validates the result.
func (f *placeFlags) request(symbol, side, typ string) (*core.OrderRequest, error) {
	s, err := core.ParseOrderSide(side)
	if err != nil {
		return nil, core.NewValidationError("side", err.Error())
	}
	t, err := core.ParseOrderType(typ)
	if err != nil {
		return nil, core.NewValidationError("type", err.Error())
	}
	tif, err := core.ParseTimeInForce(f.timeInForce)
	if err != nil {
		return nil, core.NewValidationError("timeInForce", err.Error())
	}

	b := order.NewBuilder(symbol).
		Side(s).
		Type(t).
		Quantity(f.quantity).
		TimeInForce(tif).
		ClientOrderID(f.clientOrderID)
	if f.price != "" {
		b.Price(f.price)
	}
	if f.stopPrice != "" {
		b.StopPrice(f.stopPrice)
	}
	return b.Build()
}

func newOrderCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place, cancel and query orders",
	}
	cmd.AddCommand(newOrderPlaceCmd(opts), newOrderCancelCmd(opts), newOrderStatusCmd(opts))
	return cmd
}

func newOrderPlaceCmd(opts *globalOptions) *cobra.Command {
	var f placeFlags
	cmd := &cobra.Command{
		Use:   "place <symbol> <side> <type>",
		Short: "Place a new order",
		Example: `  spotwire order place BTCUSDT BUY LIMIT --quantity 0.001 --price 30000 --tif GTC
  spotwire order place BTCUSDT SELL MARKET --quantity 0.001`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			if f.dryRun {
				p, err := order.Params(req)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), p.Encode())
				return err
			}

			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.PlaceOrder(cmd.Context(), req)
			if err != nil {
				if e, ok := core.AsExchangeError(err); ok && e.OutcomeUnknown {
					fmt.Fprintf(cmd.ErrOrStderr(), "order outcome unknown, reconcile with: spotwire order status %s --client-id %s\n",
						core.FormatSymbol(req.Symbol), e.ClientOrderID)
				}
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&f.quantity, "quantity", "", "order quantity")
	cmd.Flags().StringVar(&f.price, "price", "", "limit price")
	cmd.Flags().StringVar(&f.stopPrice, "stop-price", "", "trigger price for STOP_LOSS and TAKE_PROFIT")
	cmd.Flags().StringVar(&f.timeInForce, "tif", "", "time in force: GTC, IOC, FOK")
	cmd.Flags().StringVar(&f.clientOrderID, "client-id", "", "newClientOrderId")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "validate and print the parameters without sending")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

type referenceFlags struct {
	orderID  int64
	clientID string
}

func (r *referenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&r.orderID, "order-id", 0, "exchange order id")
	cmd.Flags().StringVar(&r.clientID, "client-id", "", "client order id")
	cmd.MarkFlagsOneRequired("order-id", "client-id")
}

func newOrderCancelCmd(opts *globalOptions) *cobra.Command {
	var ref referenceFlags
	cmd := &cobra.Command{
		Use:   "cancel <symbol>",
		Short: "Cancel an active order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.CancelOrder(cmd.Context(), &core.CancelRequest{
				Symbol:            args[0],
				OrderID:           ref.orderID,
				OrigClientOrderID: ref.clientID,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	ref.register(cmd)
	return cmd
}

func newOrderStatusCmd(opts *globalOptions) *cobra.Command {
	var ref referenceFlags
	cmd := &cobra.Command{
		Use:   "status <symbol>",
		Short: "Query an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.OrderStatus(cmd.Context(), &core.OrderQuery{
				Symbol:            args[0],
				OrderID:           ref.orderID,
				OrigClientOrderID: ref.clientID,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	ref.register(cmd)
	return cmd
}

func newOpenOrdersCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open-orders [symbol]",
		Short: "List open orders for one or all symbols",
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
			res, err := c.OpenOrders(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newAllOrdersCmd(opts *globalOptions) *cobra.Command {
	var (
		rf      rangeFlags
		orderID int64
	)
	cmd := &cobra.Command{
		Use:   "all-orders <symbol>",
		Short: "List active, canceled and filled orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			o := append(rf.options(), exchange.WithOrderID(orderID))
			res, err := c.AllOrders(cmd.Context(), args[0], o...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	rf.register(cmd, "number of orders (default 500)")
	cmd.Flags().Int64Var(&orderID, "order-id", 0, "return orders with id >= this")
	return cmd
}

func newMyTradesCmd(opts *globalOptions) *cobra.Command {
	var (
		rf     rangeFlags
		fromID int64
	)
	cmd := &cobra.Command{
		Use:   "my-trades <symbol>",
		Short: "List account trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			o := append(rf.options(), exchange.WithFromID(fromID))
			res, err := c.MyTrades(cmd.Context(), args[0], o...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	rf.register(cmd, "number of trades (default 500)")
	cmd.Flags().Int64Var(&fromID, "from-id", 0, "return trades with id >= this")
	return cmd
}
