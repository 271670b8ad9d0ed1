package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Declared event names. Subscribing to or firing any other name fails with
// ErrUnknownEvent.
const (
	EventAfterRun      = "after_run"
	EventAfterEachRun  = "after_each_run"
	EventOnQueue       = "on_queue"
	EventOnNewCookies  = "on_new_cookies"
	EventOnComplete    = "on_complete"
)

// Config configures a Client. Zero-value fields are defaulted in NewClient,
// mirroring pkg/httpclient.New's "apply sensible defaults for zero values"
// convention.
type Config struct {
	UserAgent      string
	DefaultHeaders map[string]string
	FromHeader     string // contact address sent as the From header
	CookieJarPath  string // optional file path the jar is loaded from / saved to
	DefaultCookies map[string]string

	MaxConcurrency     int
	DefaultTimeout     time.Duration
	EmergencyQueueSize int

	// RateLimit, if > 0, bounds requests/sec in addition to MaxConcurrency,
	// matching pkg/core/executor.go's token-bucket throttle.
	RateLimit int

	// DetectSilentBans wires pkg/detection into the transport's client.
	DetectSilentBans bool

	// Metrics, if set, receives a Prometheus observation for every queued
	// and completed request. Nil disables metrics entirely.
	Metrics *ClientMetrics

	// Label identifies this Client in the engine_queue_size gauge when
	// multiple Clients share a Metrics registry. Defaults to the Client's
	// generated id.
	Label string

	Transport Transport // overrides the built-in PoolTransport, mainly for tests
	Logger    *slog.Logger
}

// DefaultConfig returns the engine's baseline configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:     DefaultMaxConcurrency,
		DefaultTimeout:     DefaultHTTPTimeout,
		EmergencyQueueSize: DefaultEmergencyQueueSize,
	}
}

// Client is the process-wide HTTP orchestration core: it owns
// configuration, statistics, observers, the priority queue (via Transport),
// burst lifecycle, sandbox snapshot/restore, and the public request API.
// Completion callbacks — including those that mutate counters, the cookie
// jar, and custom-404 state — are serialized by mu; the only operation
// that may suspend inside a callback is enqueuing more requests.
type Client struct {
	*Observable

	id        string // unique per Client, for log correlation and the default metrics label
	cfg       Config
	transport Transport
	jar       *CookieJar
	detector  *Custom404Detector
	limiter   *rate.Limiter
	logger    *slog.Logger

	mu           sync.Mutex
	nextID       uint64
	queueSize    int64
	runActive    bool
	closed       bool

	stats stats
}

// ID returns the Client's unique identifier, useful for correlating log
// lines and metrics across multiple Clients in the same process.
func (c *Client) ID() string {
	return c.id
}

// label is the value used for the client label on shared metrics, so
// multiple Clients pointed at the same Config.Metrics registry don't
// collide. Defaults to the Client's id unless Config.Label overrides it.
func (c *Client) label() string {
	if c.cfg.Label != "" {
		return c.cfg.Label
	}
	return c.id
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultHTTPTimeout
	}
	if cfg.EmergencyQueueSize <= 0 {
		cfg.EmergencyQueueSize = DefaultEmergencyQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = NewPoolTransport(TransportOptions{
			MaxConcurrency:    cfg.MaxConcurrency,
			DetectSilentBans:  cfg.DetectSilentBans,
		})
	}

	c := &Client{
		Observable: NewObservable(cfg.Logger, EventAfterRun, EventAfterEachRun,
			EventOnQueue, EventOnNewCookies, EventOnComplete),
		id:        uuid.NewString(),
		cfg:       cfg,
		transport: transport,
		jar:       NewCookieJar(),
		logger:    cfg.Logger,
	}
	if cfg.CookieJarPath != "" {
		if err := c.jar.Load(cfg.CookieJarPath); err != nil {
			c.logger.Warn("failed to load cookie jar", slog.String("path", cfg.CookieJarPath), slog.String("error", err.Error()))
		}
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
	if len(cfg.DefaultCookies) > 0 {
		c.jar.Update(cfg.DefaultCookies)
	}
	c.detector = NewCustom404Detector(c)
	return c
}

// Configure applies cfg on top of the Client's current configuration.
// Observers, cookies, and in-flight requests are untouched.
func (c *Client) Configure(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.MaxConcurrency > 0 {
		c.cfg.MaxConcurrency = cfg.MaxConcurrency
		c.transport.SetMaxConcurrency(cfg.MaxConcurrency)
	}
	if cfg.DefaultTimeout > 0 {
		c.cfg.DefaultTimeout = cfg.DefaultTimeout
	}
	if cfg.EmergencyQueueSize > 0 {
		c.cfg.EmergencyQueueSize = cfg.EmergencyQueueSize
	}
	if cfg.UserAgent != "" {
		c.cfg.UserAgent = cfg.UserAgent
	}
	if cfg.FromHeader != "" {
		c.cfg.FromHeader = cfg.FromHeader
	}
	if cfg.DefaultHeaders != nil {
		c.cfg.DefaultHeaders = cfg.DefaultHeaders
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
}

// Reset restores the Client to a freshly-constructed state: statistics,
// cookie jar, and (if hooksToo) every observer are cleared.
func (c *Client) Reset(hooksToo bool) {
	c.mu.Lock()
	c.stats = stats{}
	c.queueSize = 0
	c.mu.Unlock()
	c.jar.Clear()
	if hooksToo {
		c.ClearObservers()
	}
}

// Request builds a Request from url and opts:
//  1. rejects an empty URL with ErrInvalidArgument,
//  2. unless opts.NoCookieJar, merges jar.ForURL(url) under opts.Cookies
//     (caller overrides jar on name collision),
//  3. merges the Client's default headers with opts.Headers (caller
//     overrides defaults),
//  4. attaches callback to the Request's completion list,
//  5. fires on_queue(request), then forwards it,
//  6. if opts.Blocking, executes synchronously and returns the Response;
//     otherwise returns the Request handle with resp == nil.
func (c *Client) Request(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	if url == "" {
		return nil, nil, fmt.Errorf("%w: empty URL", ErrInvalidArgument)
	}
	if c.isClosed() {
		return nil, nil, ErrClientClosed
	}
	if opts.Method == "" {
		opts.Method = MethodGET
	}

	cookies := make(map[string]string)
	if !opts.NoCookieJar {
		for k, v := range c.jar.ForURL(url) {
			cookies[k] = v
		}
	}
	for k, v := range opts.Cookies {
		cookies[k] = v
	}

	headers := make(map[string]string)
	c.mu.Lock()
	for k, v := range c.cfg.DefaultHeaders {
		headers[k] = v
	}
	if c.cfg.UserAgent != "" {
		headers["User-Agent"] = c.cfg.UserAgent
	}
	if c.cfg.FromHeader != "" {
		headers["From"] = c.cfg.FromHeader
	}
	c.mu.Unlock()
	for k, v := range opts.Headers {
		headers[k] = v
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.DefaultTimeout
	}

	req := &Request{
		Method:         opts.Method,
		URL:            url,
		Headers:        headers,
		Body:           opts.Body,
		Cookies:        cookies,
		FollowLocation: opts.FollowLocation,
		HighPriority:   opts.HighPriority,
		Blocking:       opts.Blocking,
		UpdateCookies:  opts.UpdateCookies,
		Timeout:        timeout,
		Performer:      performerOrDefault(opts.Performer),
	}
	req.addCallback(callback)

	_ = c.Fire(EventOnQueue, req)

	if req.Blocking {
		resultCh := make(chan *Response, 1)
		c.forwardRequest(req, func(resp *Response) { resultCh <- resp })
		c.Run()
		resp := <-resultCh
		return req, resp, nil
	}

	c.forwardRequest(req, nil)
	return req, nil, nil
}

// Get, Post, Trace, Head, Put, Delete are thin shims over Request that set
// Method and route Parameters appropriately (query string for GET/HEAD/
// TRACE/DELETE, form body for POST/PUT).
func (c *Client) Get(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	opts.Method = MethodGET
	return c.Request(applyParamsAsQuery(url, opts.Parameters), opts, callback)
}

func (c *Client) Post(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	opts.Method = MethodPOST
	if len(opts.Body) == 0 && len(opts.Parameters) > 0 {
		opts.Body = []byte(encodeForm(opts.Parameters))
		if opts.Headers == nil {
			opts.Headers = map[string]string{}
		}
		if _, ok := opts.Headers["Content-Type"]; !ok {
			opts.Headers["Content-Type"] = "application/x-www-form-urlencoded"
		}
	}
	return c.Request(url, opts, callback)
}

func (c *Client) Trace(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	opts.Method = MethodTRACE
	return c.Request(url, opts, callback)
}

func (c *Client) Head(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	opts.Method = MethodHEAD
	return c.Request(applyParamsAsQuery(url, opts.Parameters), opts, callback)
}

func (c *Client) Put(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	opts.Method = MethodPUT
	if len(opts.Body) == 0 && len(opts.Parameters) > 0 {
		opts.Body = []byte(encodeForm(opts.Parameters))
	}
	return c.Request(url, opts, callback)
}

func (c *Client) Delete(url string, opts RequestOptions, callback CompletionCallback) (*Request, *Response, error) {
	opts.Method = MethodDELETE
	return c.Request(applyParamsAsQuery(url, opts.Parameters), opts, callback)
}

// Cookie sends params as cookies on a GET request.
func (c *Client) Cookie(url string, params map[string]string, callback CompletionCallback) (*Request, *Response, error) {
	return c.Get(url, RequestOptions{Cookies: params}, callback)
}

// Header sends params as headers on a GET request.
func (c *Client) Header(url string, params map[string]string, callback CompletionCallback) (*Request, *Response, error) {
	return c.Get(url, RequestOptions{Headers: params}, callback)
}

// Queue dispatches an already-built Request (e.g. constructed by a caller
// directly rather than through Request/Get/Post) without reapplying cookie
// jar or default header merging.
func (c *Client) Queue(req *Request) {
	c.forwardRequest(req, nil)
}

// probe implements the requester interface Custom404Detector depends on:
// high-priority, redirect-following GETs issued through this same Client.
func (c *Client) probe(url string, onComplete func(*Response)) {
	opts := RequestOptions{
		Method:         MethodGET,
		HighPriority:   true,
		FollowLocation: true,
		NoCookieJar:    true,
	}
	c.Request(url, opts, func(resp *Response) {
		if onComplete != nil {
			onComplete(resp)
		}
	})
}

// forwardRequest assigns the Request's id, installs the shared completion
// handler (statistics, on_complete, cookie harvesting, timeout counting),
// queues it on the transport at head or tail per HighPriority, and performs
// an emergency run if the queue has crossed the configured threshold while
// no run is active.
func (c *Client) forwardRequest(req *Request, extra func(*Response)) {
	if c.isClosed() {
		return
	}
	req.ID = atomic.AddUint64(&c.nextID, 1)

	if c.limiter != nil {
		_ = c.limiter.Wait(context.Background())
	}

	onComplete := func(resp *Response) {
		c.handleCompletion(req, resp)
		if extra != nil {
			extra(resp)
		}
	}

	if req.HighPriority {
		c.transport.QueueFront(req, onComplete)
	} else {
		c.transport.QueueBack(req, onComplete)
	}

	newSize := atomic.AddInt64(&c.queueSize, 1)
	c.cfg.Metrics.observeQueued(req)
	c.cfg.Metrics.observeQueueSize(c.label(), newSize)

	c.mu.Lock()
	c.stats.recordQueuedLocked()
	active := c.runActive
	threshold := int64(c.cfg.EmergencyQueueSize)
	c.mu.Unlock()

	if !active && newSize >= threshold {
		// Emergency run: bounds memory under producers faster than the
		// transport. Wrapped the same as Run's own exception-isolation
		// shell so a misbehaving callback cannot halt the engine.
		func() {
			defer func() { _ = recover() }()
			c.Run()
		}()
	}
}

// handleCompletion runs under mu: updates counters, runs the request's own
// callbacks, fires on_complete, harvests Set-Cookie headers when requested,
// and counts timeouts.
func (c *Client) handleCompletion(req *Request, resp *Response) {
	newSize := atomic.AddInt64(&c.queueSize, -1)
	c.cfg.Metrics.observeCompletion(req, resp)
	c.cfg.Metrics.observeQueueSize(c.label(), newSize)

	c.mu.Lock()
	c.stats.recordLocked(resp)
	c.mu.Unlock()

	req.runCallbacks(resp)
	_ = c.Fire(EventOnComplete, resp)

	if req.UpdateCookies && resp != nil && resp.Headers != nil {
		c.jar.UpdateFromResponse(resp.URL, resp.Headers)
		_ = c.Fire(EventOnNewCookies, c.jar.Cookies(), resp)
	}
}

// Run begins a burst: resets burst counters, then drains the queue —
// executing the transport until idle, then firing every pending after_run
// callback (which may enqueue more work or register new after_run hooks) —
// until both the queue and the after_run observer list are empty. Finally
// fires after_each_run (not cleared between bursts), prunes the custom-404
// cache, and resets per-burst instantaneous fields. The whole body is
// exception-isolated so a misbehaving callback cannot halt the engine.
func (c *Client) Run() {
	defer func() { _ = recover() }()

	if c.isClosed() {
		return
	}

	c.mu.Lock()
	c.stats.startBurstLocked()
	c.runActive = true
	c.mu.Unlock()

	for {
		c.transport.Run()
		pending := c.snapshotAndClear(EventAfterRun)
		for _, cb := range pending {
			c.invokeAfterRun(cb)
		}
		if atomic.LoadInt64(&c.queueSize) == 0 && len(pending) == 0 {
			break
		}
	}

	_ = c.Fire(EventAfterEachRun)
	c.detector.Prune()
	c.cfg.Metrics.observeCustom404Records(c.detector.recordCount())

	c.mu.Lock()
	c.stats.endBurstLocked()
	c.runActive = false
	c.mu.Unlock()

	if c.cfg.CookieJarPath != "" {
		if err := c.jar.Save(c.cfg.CookieJarPath); err != nil {
			c.logger.Warn("failed to save cookie jar", slog.String("path", c.cfg.CookieJarPath), slog.String("error", err.Error()))
		}
	}
}

// SaveCookies persists the jar to Config.CookieJarPath immediately, without
// waiting for a burst to finish. A no-op if CookieJarPath is unset.
func (c *Client) SaveCookies() error {
	if c.cfg.CookieJarPath == "" {
		return nil
	}
	return c.jar.Save(c.cfg.CookieJarPath)
}

func (c *Client) invokeAfterRun(cb Callback) {
	defer func() {
		if r := recover(); r != nil {
			c.recordFailure(EventAfterRun, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := cb(); err != nil {
		c.recordFailure(EventAfterRun, err)
	}
}

// Abort requests best-effort cancellation of outstanding work through the
// transport.
func (c *Client) Abort() {
	c.transport.Abort()
}

// isClosed reports whether Close has been called.
func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close aborts outstanding work and permanently disables the Client: every
// subsequent Request returns ErrClientClosed, and Queue/Run silently become
// no-ops. Close is idempotent and safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.transport.Abort()
}

// UpdateCookies merges cookies (in any shape CookieJar.Update accepts)
// into the jar.
func (c *Client) UpdateCookies(cookies any) {
	c.jar.Update(cookies)
}

// ParseAndSetCookies parses resp's Set-Cookie headers and merges them into
// the jar, firing on_new_cookies.
func (c *Client) ParseAndSetCookies(resp *Response) {
	if resp == nil || resp.Headers == nil {
		return
	}
	c.jar.UpdateFromResponse(resp.URL, resp.Headers)
	_ = c.Fire(EventOnNewCookies, c.jar.Cookies(), resp)
}

// Cookies returns every cookie currently in the jar.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies()
}

// Custom404 answers "is resp.Body a custom 404" for resp.URL, invoking
// callback once fingerprinting — if needed — completes.
func (c *Client) Custom404(resp *Response, callback func(bool)) error {
	if resp == nil {
		return fmt.Errorf("%w: nil response", ErrInvalidArgument)
	}
	c.detector.Classify(resp.URL, resp.Code, resp.Body, callback)
	return nil
}

// CheckedForCustom404 reports whether url's directory has completed
// fingerprinting.
func (c *Client) CheckedForCustom404(url string) bool {
	return c.detector.CheckedForCustom404(url)
}

// NeedsCustom404Check reports whether url's directory has neither started
// nor completed fingerprinting.
func (c *Client) NeedsCustom404Check(url string) bool {
	return c.detector.NeedsCustom404Check(url)
}

func applyParamsAsQuery(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + encodeForm(params)
}

func encodeForm(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}
