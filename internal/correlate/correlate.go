// Package correlate matches asynchronous responses to the requests that
// caused them. Each request carries a fresh token; a response is accepted
// only once, and only if its token is still outstanding.
package correlate

import "github.com/google/uuid"

// Correlator holds outstanding request tokens in issue order.
type Correlator struct {
	pending  []string
	newToken func() string
}

// New returns a Correlator issuing random UUID tokens.
func New() *Correlator {
	return &Correlator{newToken: uuid.NewString}
}

// NewWithTokens returns a Correlator using gen for tokens. gen must not
// repeat a token that is still outstanding.
func NewWithTokens(gen func() string) *Correlator {
	return &Correlator{newToken: gen}
}

// Issue generates a token, records it as outstanding and returns it.
func (c *Correlator) Issue() string {
	token := c.newToken()
	c.pending = append(c.pending, token)
	return token
}

// Resolve removes token from the outstanding set and returns payload.
// Unknown, already resolved and empty tokens yield ("", false).
func (c *Correlator) Resolve(token, payload string) (string, bool) {
	for i, p := range c.pending {
		if p == token {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return payload, true
		}
	}
	return "", false
}

// Pending returns the number of outstanding requests.
func (c *Correlator) Pending() int {
	return len(c.pending)
}
