package binance

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"spotwire/pkg/core"
)

// Balance is one asset entry of the account.
type Balance struct {
	Asset  string      `json:"asset"`
	Free   apd.Decimal `json:"free"`
	Locked apd.Decimal `json:"locked"`
}

// Total returns Free + Locked.
func (b *Balance) Total() (*apd.Decimal, error) {
	var total apd.Decimal
	if _, err := apd.BaseContext.WithPrecision(34).Add(&total, &b.Free, &b.Locked); err != nil {
		return nil, err
	}
	return &total, nil
}

// IsZero reports whether both Free and Locked are zero.
func (b *Balance) IsZero() bool {
	return b.Free.IsZero() && b.Locked.IsZero()
}

type binanceBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

type binanceAccount struct {
	Balances []binanceBalance `json:"balances"`
}

// SpotBalances fetches the account and returns its balances. With nonZeroOnly,
// assets whose free and locked amounts are both zero are skipped.
func (c *Client) SpotBalances(ctx context.Context, nonZeroOnly bool) ([]Balance, error) {
	res, err := c.Account(ctx)
	if err != nil {
		return nil, err
	}
	return ParseBalances(res, nonZeroOnly)
}

// ParseBalances decodes the balances of an account result.
func ParseBalances(res *core.Result, nonZeroOnly bool) ([]Balance, error) {
	var acct binanceAccount
	if err := res.Decode(&acct); err != nil {
		return nil, withOp(err, core.OpAccount)
	}

	out := make([]Balance, 0, len(acct.Balances))
	for _, raw := range acct.Balances {
		var b Balance
		b.Asset = raw.Asset
		if _, _, err := b.Free.SetString(raw.Free); err != nil {
			return nil, balanceDecodeError(res, raw.Asset, "free", err)
		}
		if _, _, err := b.Locked.SetString(raw.Locked); err != nil {
			return nil, balanceDecodeError(res, raw.Asset, "locked", err)
		}
		if nonZeroOnly && b.IsZero() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func balanceDecodeError(res *core.Result, asset, field string, err error) error {
	return core.NewDecodeError(res.StatusCode, fmt.Errorf("balance %s %s: %w", asset, field, err)).
		WithOperation(core.OpAccount)
}
