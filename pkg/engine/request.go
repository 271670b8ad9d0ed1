package engine

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Method is an HTTP verb recognized by the engine.
type Method string

const (
	MethodGET    Method = http.MethodGet
	MethodPOST   Method = http.MethodPost
	MethodTRACE  Method = http.MethodTrace
	MethodHEAD   Method = http.MethodHead
	MethodPUT    Method = http.MethodPut
	MethodDELETE Method = http.MethodDelete
)

// CompletionCallback runs once a Response has been delivered for the
// Request it was attached to, before on_complete observers fire.
type CompletionCallback func(*Response)

// RequestOptions is the caller-facing option vocabulary accepted by
// Client.Request and its verb shims.
type RequestOptions struct {
	Method        Method
	Headers       map[string]string
	Body          []byte
	Parameters    map[string]string // meaning depends on verb: query params (GET) or form body (POST)
	Cookies       map[string]string
	NoCookieJar   bool
	FollowLocation bool
	HighPriority  bool
	Blocking      bool
	UpdateCookies bool
	Timeout       time.Duration
	Performer     any
}

// Request is a frozen unit of work dispatched through the transport. Once
// handed to forwardRequest its effective configuration (method, URL,
// headers, body, cookies, flags, timeout) never changes — later mutation
// of the originating RequestOptions has no effect on an in-flight Request.
type Request struct {
	ID       uint64
	Method   Method
	URL      string
	Headers  map[string]string
	Body     []byte
	Cookies  map[string]string

	FollowLocation bool
	HighPriority   bool
	Blocking       bool
	UpdateCookies  bool
	Timeout        time.Duration

	// Performer correlates this Request across logs and observers. Defaults
	// to a freshly generated UUID when the caller doesn't supply one, the
	// same correlation-id convention pkg/apispec and pkg/logcorrelation use.
	Performer any

	// callbacks run, in order, once the Response for this Request is
	// delivered, before on_complete observers fire.
	callbacks []CompletionCallback
}

// addCallback appends cb to the Request's completion callback list. Safe
// to call only before the Request is dispatched (forwardRequest freezes
// the Request by the time the transport can observe it).
func (r *Request) addCallback(cb CompletionCallback) {
	if cb == nil {
		return
	}
	r.callbacks = append(r.callbacks, cb)
}

// runCallbacks invokes every completion callback attached to r, in
// subscription order. Panics inside a callback are recovered so a single
// misbehaving callback cannot take down the completion handler.
func (r *Request) runCallbacks(resp *Response) {
	for _, cb := range r.callbacks {
		invokeCallbackSafely(cb, resp)
	}
}

func invokeCallbackSafely(cb CompletionCallback, resp *Response) {
	defer func() { _ = recover() }()
	cb(resp)
}

// performerOrDefault returns performer unchanged unless it's nil, in which
// case it mints a new UUID so every Request carries a correlation id even
// when the caller never set RequestOptions.Performer.
func performerOrDefault(performer any) any {
	if performer != nil {
		return performer
	}
	return uuid.NewString()
}
