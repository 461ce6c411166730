// Package binance implements a signed REST client for the Binance spot API.
//
// The package includes:
//   - Signer: HMAC-SHA256 over the insertion-ordered form encoding
//   - Protocol: request assembly (placement, recvWindow, timestamp, signature) and response classification
//   - Client: one method per endpoint, order validation before any network activity
//   - ListenKey: create, renew and close calls for user data streams
//
// Example usage:
//
//	cfg := core.DefaultConfig().WithCredentials(&core.Credentials{APIKey: key, SecretKey: secret})
//	client, err := binance.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if _, err := client.SyncTime(ctx); err != nil {
//		return err
//	}
//	res, err := client.PlaceOrder(ctx, req)
//	if core.IsOutcomeUnknown(err) {
//		// look the order up by its client order id before retrying
//	}
package binance
