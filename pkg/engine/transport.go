package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/waftester/waftester/pkg/detection"
	"github.com/waftester/waftester/pkg/httpclient"
	"github.com/waftester/waftester/pkg/iohelper"
	"github.com/waftester/waftester/pkg/workerpool"
)

// Transport is the minimal interface the Client drives requests through.
// The adapter owns connection reuse, transport-level timeouts, and
// redirect following when requested, and must report transport failures as
// Responses with Code == 0 rather than a Go error.
type Transport interface {
	QueueBack(req *Request, onComplete func(*Response))
	QueueFront(req *Request, onComplete func(*Response))
	Run()
	Abort()
	SetMaxConcurrency(n int)
	GetMaxConcurrency() int
}

// TransportOptions configures a PoolTransport.
type TransportOptions struct {
	// MaxConcurrency bounds in-flight requests. Defaults to
	// DefaultMaxConcurrency.
	MaxConcurrency int

	// HTTPClient overrides the underlying *http.Client. If nil, one is
	// built from httpclient.DefaultConfig().
	HTTPClient *http.Client

	// DetectSilentBans wraps the underlying client's transport with
	// pkg/detection so silent-ban/connection-drop awareness is available
	// to a Client driving tens of thousands of probes.
	DetectSilentBans bool

	// MaxBodyBytes caps how much of a response body is read. Zero means
	// iohelper's default cap.
	MaxBodyBytes int64
}

// queuedRequest pairs a Request with the callback the transport invokes
// once its Response is ready.
type queuedRequest struct {
	req        *Request
	onComplete func(*Response)
}

// PoolTransport is the production Transport implementation: a bounded
// worker pool (pkg/workerpool) dispatches requests through a pooled
// *http.Client (pkg/httpclient), giving the Client bounded concurrency and
// connection reuse without owning either primitive itself.
type PoolTransport struct {
	mu       sync.Mutex
	back     []*queuedRequest
	front    []*queuedRequest
	pool     *workerpool.Pool
	client   *http.Client
	maxBody  int64
	aborted  bool
	abortCtx context.Context
	cancel   context.CancelFunc
}

// NewPoolTransport builds a PoolTransport from opts.
func NewPoolTransport(opts TransportOptions) *PoolTransport {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	client := opts.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.DefaultConfig())
	}
	if opts.DetectSilentBans {
		client = detection.WrapClient(client)
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = iohelper.DefaultMaxBodySize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PoolTransport{
		pool:     workerpool.New(opts.MaxConcurrency),
		client:   client,
		maxBody:  maxBody,
		abortCtx: ctx,
		cancel:   cancel,
	}
}

// QueueBack enqueues req at the tail of the transport's work list.
func (t *PoolTransport) QueueBack(req *Request, onComplete func(*Response)) {
	t.mu.Lock()
	t.back = append(t.back, &queuedRequest{req: req, onComplete: onComplete})
	t.mu.Unlock()
}

// QueueFront enqueues req at the head: it is dispatched no later than any
// request already queued via QueueBack.
func (t *PoolTransport) QueueFront(req *Request, onComplete func(*Response)) {
	t.mu.Lock()
	t.front = append(t.front, &queuedRequest{req: req, onComplete: onComplete})
	t.mu.Unlock()
}

// Run drains every queued request, dispatching up to MaxConcurrency in
// parallel via the worker pool, and blocks until all of them have
// completed (and thus until the queue presented to Run is empty).
func (t *PoolTransport) Run() {
	for {
		batch := t.drain()
		if len(batch) == 0 {
			return
		}
		var wg sync.WaitGroup
		wg.Add(len(batch))
		for _, qr := range batch {
			qr := qr
			t.pool.Submit(func() {
				defer wg.Done()
				t.execute(qr)
			})
		}
		wg.Wait()
	}
}

// drain pops every currently queued request, front-queue first.
func (t *PoolTransport) drain() []*queuedRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	batch := make([]*queuedRequest, 0, len(t.front)+len(t.back))
	batch = append(batch, t.front...)
	batch = append(batch, t.back...)
	t.front = nil
	t.back = nil
	return batch
}

func (t *PoolTransport) execute(qr *queuedRequest) {
	resp := t.do(qr.req)
	if qr.onComplete != nil {
		qr.onComplete(resp)
	}
}

func (t *PoolTransport) do(req *Request) *Response {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(t.abortCtx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, bodyReader)
	if err != nil {
		return &Response{URL: req.URL, Message: err.Error(), Request: req}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for name, value := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	client := t.client
	if !req.FollowLocation {
		client = noRedirectClient(client)
	}

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		timedOut := ctx.Err() == context.DeadlineExceeded
		return &Response{
			URL: req.URL, Message: err.Error(), TimedOut: timedOut,
			RoundTrip: elapsed, Request: req,
		}
	}
	defer iohelper.DrainAndClose(httpResp.Body)
	body, _ := iohelper.ReadBody(httpResp.Body, t.maxBody)

	effective := req.URL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		effective = httpResp.Request.URL.String()
	}

	return &Response{
		URL:          req.URL,
		EffectiveURL: effective,
		Code:         httpResp.StatusCode,
		Headers:      httpResp.Header,
		Body:         body,
		RoundTrip:    elapsed,
		Request:      req,
	}
}

// Abort requests best-effort cancellation of outstanding work. In-flight
// completion callbacks may still execute.
func (t *PoolTransport) Abort() {
	t.mu.Lock()
	if t.aborted {
		t.mu.Unlock()
		return
	}
	t.aborted = true
	t.mu.Unlock()
	t.cancel()
}

// SetMaxConcurrency resizes the underlying worker pool.
func (t *PoolTransport) SetMaxConcurrency(n int) {
	t.pool.Resize(n)
}

// GetMaxConcurrency returns the worker pool's current capacity.
func (t *PoolTransport) GetMaxConcurrency() int {
	return t.pool.Cap()
}

// noRedirectClient returns a shallow copy of client with a CheckRedirect
// policy that stops following redirects, so the Response reflects the
// redirect itself rather than its target. Client.Transport is shared, not
// copied, so connection pooling is preserved.
func noRedirectClient(client *http.Client) *http.Client {
	c := *client
	c.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}
