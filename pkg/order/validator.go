// Package order validates order requests and turns them into exchange parameter sets.
//
// Every order type is described by a Rule in a single table; request assembly never
// branches on the type name directly.
package order

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/apd/v3"

	"spotwire/pkg/core"
)

// Field names an optional order field governed by a Rule.
type Field string

// Fields governed by the rule table. Names match the exchange parameters.
const (
	FieldPrice       Field = "price"
	FieldStopPrice   Field = "stopPrice"
	FieldTimeInForce Field = "timeInForce"
)

// MaxClientOrderIDLength is the exchange limit for newClientOrderId.
const MaxClientOrderIDLength = 36

// Rule lists which optional fields an order type requires or rejects.
type Rule struct {
	Required           []Field
	Forbidden          []Field
	DefaultTimeInForce core.TimeInForce
}

var rules = map[core.OrderType]Rule{
	core.TypeLimit: {
		Required:           []Field{FieldPrice},
		Forbidden:          []Field{FieldStopPrice},
		DefaultTimeInForce: core.GTC,
	},
	core.TypeMarket: {
		Forbidden: []Field{FieldPrice, FieldStopPrice, FieldTimeInForce},
	},
	core.TypeStopLoss: {
		Required:  []Field{FieldPrice, FieldStopPrice},
		Forbidden: []Field{FieldTimeInForce},
	},
	core.TypeTakeProfit: {
		Required:  []Field{FieldPrice, FieldStopPrice},
		Forbidden: []Field{FieldTimeInForce},
	},
}

// RuleFor returns the rule for t.
func RuleFor(t core.OrderType) (Rule, bool) {
	r, ok := rules[t]
	return r, ok
}

// Validate checks req against the common requirements and the rule for its type.
// It returns a validation *core.ExchangeError naming the first offending field.
func Validate(req *core.OrderRequest) error {
	if req == nil {
		return core.NewValidationError("order", "order request is nil")
	}
	if core.FormatSymbol(req.Symbol) == "" {
		return core.NewValidationError("symbol", "symbol is required")
	}
	if !req.Side.Valid() {
		return core.NewValidationError("side", "side must be BUY or SELL")
	}
	rule, ok := rules[req.Type]
	if !ok {
		return core.NewValidationError("type", fmt.Sprintf("unsupported order type %d", int(req.Type)))
	}
	if !positive(&req.Quantity) {
		return core.NewValidationError("quantity", "quantity must be greater than zero")
	}
	if len(req.ClientOrderID) > MaxClientOrderIDLength {
		return core.NewValidationError("newClientOrderId",
			fmt.Sprintf("client order id exceeds %d characters", MaxClientOrderIDLength))
	}

	for _, f := range rule.Required {
		if !present(req, f) {
			return core.NewValidationError(string(f),
				fmt.Sprintf("%s is required for %s orders", f, req.Type))
		}
	}
	for _, f := range rule.Forbidden {
		if present(req, f) {
			return core.NewValidationError(string(f),
				fmt.Sprintf("%s is not accepted for %s orders", f, req.Type))
		}
	}

	if req.Price != nil && !positive(req.Price) {
		return core.NewValidationError(string(FieldPrice), "price must be greater than zero")
	}
	if req.StopPrice != nil && !positive(req.StopPrice) {
		return core.NewValidationError(string(FieldStopPrice), "stopPrice must be greater than zero")
	}
	return nil
}

// Params validates req and returns its parameter set in wire order:
// symbol, side, type, quantity, price, timeInForce, stopPrice, newClientOrderId.
func Params(req *core.OrderRequest) (*core.Params, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	rule := rules[req.Type]

	p := core.NewParams(
		"symbol", core.FormatSymbol(req.Symbol),
		"side", req.Side.String(),
		"type", req.Type.String(),
		"quantity", core.FormatDecimal(&req.Quantity),
	)
	if req.Price != nil {
		p.Set(string(FieldPrice), core.FormatDecimal(req.Price))
	}
	if tif := timeInForce(req, rule); tif != 0 {
		p.Set(string(FieldTimeInForce), tif.String())
	}
	if req.StopPrice != nil {
		p.Set(string(FieldStopPrice), core.FormatDecimal(req.StopPrice))
	}
	p.SetIfNotEmpty("newClientOrderId", req.ClientOrderID)
	return p, nil
}

// ValidateReference checks the symbol plus order identifier pair used by cancel and status lookups.
func ValidateReference(symbol string, orderID int64, origClientOrderID string) error {
	if core.FormatSymbol(symbol) == "" {
		return core.NewValidationError("symbol", "symbol is required")
	}
	if orderID < 0 {
		return core.NewValidationError("orderId", "orderId must not be negative")
	}
	if orderID == 0 && origClientOrderID == "" {
		return core.NewValidationError("orderId", "either orderId or origClientOrderId is required")
	}
	return nil
}

func timeInForce(req *core.OrderRequest, rule Rule) core.TimeInForce {
	if req.TimeInForce != 0 {
		return req.TimeInForce
	}
	return rule.DefaultTimeInForce
}

func present(req *core.OrderRequest, f Field) bool {
	switch f {
	case FieldPrice:
		return req.Price != nil
	case FieldStopPrice:
		return req.StopPrice != nil
	case FieldTimeInForce:
		return req.TimeInForce != 0
	default:
		return false
	}
}

func positive(d *apd.Decimal) bool {
	return d.Form == apd.Finite && d.Sign() > 0
}

// SupportedTypes returns the order types that have a rule, in declaration order.
func SupportedTypes() []core.OrderType {
	types := make([]core.OrderType, 0, len(rules))
	for t := range rules {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// FromParams parses an order parameter set back into a request and validates it.
// It is the check applied to raw parameter sets that did not come from Params.
func FromParams(p *core.Params) (*core.OrderRequest, error) {
	if p.Len() == 0 {
		return nil, core.NewValidationError("order", "order parameters are empty")
	}
	req := &core.OrderRequest{}
	req.Symbol, _ = p.Get("symbol")
	req.ClientOrderID, _ = p.Get("newClientOrderId")

	if v, ok := p.Get("side"); ok {
		side, err := core.ParseOrderSide(v)
		if err != nil {
			return nil, core.NewValidationError("side", err.Error())
		}
		req.Side = side
	}
	if v, ok := p.Get("type"); ok {
		typ, err := core.ParseOrderType(v)
		if err != nil {
			return nil, core.NewValidationError("type", err.Error())
		}
		req.Type = typ
	}
	if v, ok := p.Get("quantity"); ok {
		if _, _, err := req.Quantity.SetString(v); err != nil {
			return nil, core.NewValidationError("quantity", fmt.Sprintf("parse quantity: %v", err))
		}
	}
	var err error
	if req.Price, err = optionalDecimal(p, FieldPrice); err != nil {
		return nil, err
	}
	if req.StopPrice, err = optionalDecimal(p, FieldStopPrice); err != nil {
		return nil, err
	}
	if v, ok := p.Get(string(FieldTimeInForce)); ok {
		tif, err := core.ParseTimeInForce(v)
		if err != nil {
			return nil, core.NewValidationError(string(FieldTimeInForce), err.Error())
		}
		req.TimeInForce = tif
	}

	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func optionalDecimal(p *core.Params, f Field) (*apd.Decimal, error) {
	v, ok := p.Get(string(f))
	if !ok {
		return nil, nil
	}
	d, _, err := apd.NewFromString(v)
	if err != nil {
		return nil, core.NewValidationError(string(f), fmt.Sprintf("parse %s: %v", f, err))
	}
	return d, nil
}

// Normalize validates a raw placement parameter set and rebuilds it in wire order:
// symbol formatted, enums upper-cased and the default timeInForce added. Keys that
// are not order fields (newOrderRespType, ...) follow in their original order.
func Normalize(p *core.Params) (*core.Params, error) {
	req, err := FromParams(p)
	if err != nil {
		return nil, err
	}
	out, err := Params(req)
	if err != nil {
		return nil, err
	}
	for _, k := range p.Keys() {
		if out.Has(k) || orderKeys[k] {
			continue
		}
		v, _ := p.Get(k)
		out.Set(k, v)
	}
	return out, nil
}

var orderKeys = map[string]bool{
	"symbol":                 true,
	"side":                   true,
	"type":                   true,
	"quantity":               true,
	string(FieldPrice):       true,
	string(FieldStopPrice):   true,
	string(FieldTimeInForce): true,
	"newClientOrderId":       true,
}
