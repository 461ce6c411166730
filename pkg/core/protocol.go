package core

// Protocol defines the exchange-specific half of a client: turning catalog
// operations into signed wire requests and classifying raw responses.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "binance").
	Name() string

	// BuildRequest assembles the wire request for op. Signed operations are
	// timestamped and signed with creds; creds may be nil for unsigned ones.
	BuildRequest(op Operation, params *Params, creds *Credentials) (*Request, error)

	// ParseResponse classifies a raw response into a Result or an *ExchangeError.
	ParseResponse(op Operation, statusCode int, headers map[string]string, body []byte) (*Result, error)
}
