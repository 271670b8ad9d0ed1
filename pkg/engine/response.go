package engine

import (
	"net/http"
	"time"
)

// Response is delivered exactly once per dispatched Request. A transport
// failure or timeout is represented by Code == 0 rather than an escaping
// error: TimedOut distinguishes the two.
//
// Request is a non-owning back-reference to the originating Request:
// Requests own their metadata, Responses only borrow it. This avoids a
// retention cycle across long burst cycles — Response never prevents its
// Request from being collected once both are unreachable from the
// Client's own bookkeeping.
type Response struct {
	URL          string
	EffectiveURL string // post-redirect URL, equals URL when not followed/redirected
	Code         int    // HTTP status code; 0 signals transport failure or timeout
	ReturnCode   int    // transport-level return code, 0 on success
	Message      string // transport-level message (e.g. error text)
	Headers      http.Header
	Body         []byte
	RoundTrip    time.Duration
	TimedOut     bool

	Request *Request
}

// Succeeded reports whether the Response carries a real HTTP status (as
// opposed to a transport failure or timeout).
func (r *Response) Succeeded() bool {
	return r != nil && r.Code != 0
}
