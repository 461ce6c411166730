package core

import (
	"net/url"
	"strconv"
	"strings"
)

type param struct {
	key   string
	value string
}

// Params is an insertion-ordered parameter set.
// Encoding follows insertion order so the signed string is exactly the transmitted one.
type Params struct {
	items []param
}

// NewParams creates a parameter set from alternating key/value pairs.
func NewParams(kv ...string) *Params {
	p := &Params{items: make([]param, 0, len(kv)/2+3)}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// Set adds key or replaces its value in place, keeping the original position.
func (p *Params) Set(key, value string) *Params {
	for i := range p.items {
		if p.items[i].key == key {
			p.items[i].value = value
			return p
		}
	}
	p.items = append(p.items, param{key: key, value: value})
	return p
}

// SetInt is Set for integer values.
func (p *Params) SetInt(key string, value int64) *Params {
	return p.Set(key, strconv.FormatInt(value, 10))
}

// SetIfNotEmpty sets key only when value is non-empty.
func (p *Params) SetIfNotEmpty(key, value string) *Params {
	if value != "" {
		p.Set(key, value)
	}
	return p
}

// SetIfPositive sets key only when value is greater than zero.
func (p *Params) SetIfPositive(key string, value int64) *Params {
	if value > 0 {
		p.SetInt(key, value)
	}
	return p
}

// Get returns the value for key.
func (p *Params) Get(key string) (string, bool) {
	for _, it := range p.items {
		if it.key == key {
			return it.value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Del removes key if present.
func (p *Params) Del(key string) *Params {
	for i := range p.items {
		if p.items[i].key == key {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return p
		}
	}
	return p
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Keys returns parameter names in insertion order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, p.Len())
	if p == nil {
		return keys
	}
	for _, it := range p.items {
		keys = append(keys, it.key)
	}
	return keys
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := &Params{}
	if p != nil {
		c.items = append(make([]param, 0, len(p.items)+3), p.items...)
	}
	return c
}

// Encode returns the form-urlencoded representation in insertion order.
func (p *Params) Encode() string {
	if p.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, it := range p.items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(it.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(it.value))
	}
	return b.String()
}

// Request is a fully assembled call ready for the transport.
// Query and Body are already encoded; the transport must send them verbatim.
type Request struct {
	Operation Operation         `json:"operation"`
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Query     string            `json:"query,omitempty"`
	Body      string            `json:"body,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Weight    int               `json:"weight"`
	Signed    bool              `json:"signed"`
	// TimestampMs is the signed timestamp, zero for unsigned requests.
	TimestampMs int64 `json:"timestamp_ms,omitempty"`
}

// NewRequest creates a request for a catalog entry.
func NewRequest(op Operation, ep Endpoint) *Request {
	return &Request{
		Operation: op,
		Method:    ep.Method,
		Path:      ep.Path,
		Headers:   make(map[string]string),
		Weight:    ep.Weight,
		Signed:    ep.Signed,
	}
}

// SetHeader sets a request header.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// URL returns the path with the encoded query appended.
func (r *Request) URL() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}
