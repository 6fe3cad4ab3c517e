// Package delegation resolves SMS and SMTP settings for an account through
// a delegate chain: the account's own properties, then its manager's, then
// system defaults. Lookups return the first tier that defines a key; tiers
// are never merged.
package delegation

import "strings"

type Properties map[string]string

// Chain is one tier of a delegate chain.
type Chain struct {
	props    Properties
	delegate *Chain
}

// NewChain returns a tier over props that falls back to delegate (may be nil).
func NewChain(props Properties, delegate *Chain) *Chain {
	return &Chain{props: props, delegate: delegate}
}

// Get walks the chain and returns the first non-blank value for key.
func (c *Chain) Get(key string) (string, bool) {
	for t := c; t != nil; t = t.delegate {
		if v, ok := t.props[key]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// GetString is Get with a default.
func (c *Chain) GetString(key, dft string) string {
	if v, ok := c.Get(key); ok {
		return v
	}
	return dft
}

// Depth returns the number of tiers in the chain.
func (c *Chain) Depth() int {
	n := 0
	for t := c; t != nil; t = t.delegate {
		n++
	}
	return n
}

func defined(p Properties) bool {
	for _, v := range p {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
