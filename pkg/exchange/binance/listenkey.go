package binance

import (
	"context"
	"errors"
	"time"

	"spotwire/pkg/core"
)

// ListenKeyRenewInterval is the longest a listen key may go without a keep-alive.
const ListenKeyRenewInterval = 30 * time.Minute

// ListenKeyState is the client-side view of a listen key.
type ListenKeyState int

const (
	// ListenKeyNone is the zero state, before CreateListenKey succeeds.
	ListenKeyNone ListenKeyState = iota
	// ListenKeyActive keys can be renewed and closed.
	ListenKeyActive
	// ListenKeyClosed is set by a successful CloseListenKey.
	ListenKeyClosed
	// ListenKeyExpired is never observed directly; the caller records it after
	// a failing call implies the key lapsed.
	ListenKeyExpired
)

// String returns the upper-case state name, or "UNKNOWN" for out-of-range values.
func (s ListenKeyState) String() string {
	switch s {
	case ListenKeyNone:
		return "NONE"
	case ListenKeyActive:
		return "ACTIVE"
	case ListenKeyClosed:
		return "CLOSED"
	case ListenKeyExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// ListenKey is a user data stream token. It is owned by the caller; the client
// only performs the create, renew and close calls. No renewal is scheduled.
type ListenKey struct {
	Key       string
	State     ListenKeyState
	CreatedAt time.Time
	RenewedAt time.Time
}

// RenewDue reports whether an active key has gone ListenKeyRenewInterval without renewal.
func (k *ListenKey) RenewDue(now time.Time) bool {
	if k == nil || k.State != ListenKeyActive {
		return false
	}
	return now.Sub(k.RenewedAt) >= ListenKeyRenewInterval
}

// MarkExpired records an expiry the caller inferred from a failed call.
// Only active keys change state; a nil key is ignored.
func (k *ListenKey) MarkExpired() {
	if k != nil && k.State == ListenKeyActive {
		k.State = ListenKeyExpired
	}
}

func (k *ListenKey) usable(op core.Operation) error {
	if k == nil || k.Key == "" {
		return core.NewValidationError("listenKey", "listen key is required").WithOperation(op)
	}
	if k.State != ListenKeyActive {
		return core.NewValidationError("listenKey", "listen key is "+k.State.String()).WithOperation(op)
	}
	return nil
}

// CreateListenKey starts a user data stream and returns an active key.
func (c *Client) CreateListenKey(ctx context.Context) (*ListenKey, error) {
	res, err := c.Call(ctx, core.OpCreateListenKey, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		ListenKey string `json:"listenKey"`
	}
	if err := res.Decode(&out); err != nil {
		return nil, withOp(err, core.OpCreateListenKey)
	}
	if out.ListenKey == "" {
		return nil, core.NewDecodeError(res.StatusCode, errors.New("missing listenKey")).WithOperation(core.OpCreateListenKey)
	}
	now := time.Now()
	return &ListenKey{Key: out.ListenKey, State: ListenKeyActive, CreatedAt: now, RenewedAt: now}, nil
}

// RenewListenKey keeps an active key alive. The state stays ACTIVE.
func (c *Client) RenewListenKey(ctx context.Context, key *ListenKey) error {
	if err := key.usable(core.OpRenewListenKey); err != nil {
		return err
	}
	if _, err := c.Call(ctx, core.OpRenewListenKey, core.NewParams("listenKey", key.Key)); err != nil {
		return err
	}
	key.RenewedAt = time.Now()
	return nil
}

// CloseListenKey closes the stream. On success the key becomes CLOSED.
func (c *Client) CloseListenKey(ctx context.Context, key *ListenKey) error {
	if err := key.usable(core.OpCloseListenKey); err != nil {
		return err
	}
	if _, err := c.Call(ctx, core.OpCloseListenKey, core.NewParams("listenKey", key.Key)); err != nil {
		return err
	}
	key.State = ListenKeyClosed
	return nil
}
