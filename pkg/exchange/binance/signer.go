package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"spotwire/pkg/core"
)

// SignatureContext is the request-scoped output of signing one parameter set.
type SignatureContext struct {
	TimestampMs    int64
	CanonicalQuery string
	Signature      string
}

// Signer computes HMAC-SHA256 signatures. It is safe for concurrent use.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer keyed by secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 digest of payload.
func (s *Signer) Sign(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// SignParams encodes params in insertion order and signs the encoding.
// params is not modified.
func (s *Signer) SignParams(params *core.Params) (canonical, signature string) {
	canonical = params.Encode()
	return canonical, s.Sign(canonical)
}

// Stamp adds timestampMs to a copy of params, signs it, and returns the signed
// copy with signature appended last together with the signature context.
// A caller-supplied signature parameter is dropped and never signed.
func (s *Signer) Stamp(params *core.Params, timestampMs int64) (*core.Params, SignatureContext) {
	signed := params.Clone().Del("signature")
	signed.Set("timestamp", strconv.FormatInt(timestampMs, 10))

	canonical, sig := s.SignParams(signed)
	signed.Set("signature", sig)

	return signed, SignatureContext{
		TimestampMs:    timestampMs,
		CanonicalQuery: canonical,
		Signature:      sig,
	}
}

// Sign is a convenience wrapper around Signer.Sign.
func Sign(payload, secret string) string {
	return NewSigner(secret).Sign(payload)
}
