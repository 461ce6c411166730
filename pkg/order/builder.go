package order

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"spotwire/pkg/core"
)

// Builder provides a fluent interface for constructing order requests.
// It accumulates parse errors and reports them on Build.
//
// Example:
//
//	req, err := order.NewBuilder("BTCUSDT").
//	    Buy().
//	    Limit().
//	    Price("30000").
//	    Quantity("0.001").
//	    Build()
type Builder struct {
	req *core.OrderRequest
	err error
}

// NewBuilder creates a new order builder for the given trading symbol.
func NewBuilder(symbol string) *Builder {
	return &Builder{
		req: &core.OrderRequest{Symbol: symbol},
	}
}

// Side sets the order side.
func (b *Builder) Side(side core.OrderSide) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Side = side
	return b
}

// Buy sets the order side to buy.
func (b *Builder) Buy() *Builder {
	return b.Side(core.SideBuy)
}

// Sell sets the order side to sell.
func (b *Builder) Sell() *Builder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *Builder) Type(orderType core.OrderType) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Type = orderType
	return b
}

// Market sets the order type to market.
func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

// Limit sets the order type to limit.
func (b *Builder) Limit() *Builder {
	return b.Type(core.TypeLimit)
}

// StopLoss sets the order type to stop loss.
func (b *Builder) StopLoss() *Builder {
	return b.Type(core.TypeStopLoss)
}

// TakeProfit sets the order type to take profit.
func (b *Builder) TakeProfit() *Builder {
	return b.Type(core.TypeTakeProfit)
}

// Price sets the order price from a string representation.
func (b *Builder) Price(price string) *Builder {
	if b.err != nil {
		return b
	}
	d, err := parseDecimal(price)
	if err != nil {
		b.err = fmt.Errorf("parse price: %w", err)
		return b
	}
	b.req.Price = d
	return b
}

// PriceDecimal sets the order price from an apd.Decimal value.
func (b *Builder) PriceDecimal(price apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Price = new(apd.Decimal).Set(&price)
	return b
}

// StopPrice sets the trigger price from a string representation.
func (b *Builder) StopPrice(price string) *Builder {
	if b.err != nil {
		return b
	}
	d, err := parseDecimal(price)
	if err != nil {
		b.err = fmt.Errorf("parse stop price: %w", err)
		return b
	}
	b.req.StopPrice = d
	return b
}

// Quantity sets the order quantity from a string representation.
func (b *Builder) Quantity(qty string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Quantity.SetString(qty); err != nil {
		b.err = fmt.Errorf("parse quantity: %w", err)
	}
	return b
}

// QuantityDecimal sets the order quantity from an apd.Decimal value.
func (b *Builder) QuantityDecimal(qty apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Quantity.Set(&qty)
	return b
}

// TimeInForce sets the time-in-force policy for the order.
func (b *Builder) TimeInForce(tif core.TimeInForce) *Builder {
	if b.err != nil {
		return b
	}
	b.req.TimeInForce = tif
	return b
}

// GTC sets the time-in-force to Good-Till-Canceled.
func (b *Builder) GTC() *Builder {
	return b.TimeInForce(core.GTC)
}

// IOC sets the time-in-force to Immediate-Or-Cancel.
func (b *Builder) IOC() *Builder {
	return b.TimeInForce(core.IOC)
}

// FOK sets the time-in-force to Fill-Or-Kill.
func (b *Builder) FOK() *Builder {
	return b.TimeInForce(core.FOK)
}

// ClientOrderID sets a client-assigned identifier for order tracking.
func (b *Builder) ClientOrderID(id string) *Builder {
	if b.err != nil {
		return b
	}
	b.req.ClientOrderID = id
	return b
}

// Build validates and returns the constructed order request.
func (b *Builder) Build() (*core.OrderRequest, error) {
	if b.err != nil {
		return nil, core.NewValidationError("order", b.err.Error())
	}
	if err := Validate(b.req); err != nil {
		return nil, err
	}
	return b.req, nil
}

func parseDecimal(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d, nil
}
