package engine

import (
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeTransport is an in-memory Transport stand-in that completes every
// queued request synchronously inside Run, so Client tests don't depend on
// real network I/O or timing.
type fakeTransport struct {
	mu       sync.Mutex
	back     []*queuedRequest
	front    []*queuedRequest
	maxConc  int
	respond  func(*Request) *Response
	aborted  bool
}

func newFakeTransport(respond func(*Request) *Response) *fakeTransport {
	return &fakeTransport{maxConc: DefaultMaxConcurrency, respond: respond}
}

func (f *fakeTransport) QueueBack(req *Request, onComplete func(*Response)) {
	f.mu.Lock()
	f.back = append(f.back, &queuedRequest{req: req, onComplete: onComplete})
	f.mu.Unlock()
}

func (f *fakeTransport) QueueFront(req *Request, onComplete func(*Response)) {
	f.mu.Lock()
	f.front = append(f.front, &queuedRequest{req: req, onComplete: onComplete})
	f.mu.Unlock()
}

func (f *fakeTransport) Run() {
	for {
		f.mu.Lock()
		batch := append(f.front, f.back...)
		f.front, f.back = nil, nil
		f.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, qr := range batch {
			resp := f.respond(qr.req)
			if qr.onComplete != nil {
				qr.onComplete(resp)
			}
		}
	}
}

func (f *fakeTransport) Abort()                     { f.aborted = true }
func (f *fakeTransport) SetMaxConcurrency(n int)     { f.maxConc = n }
func (f *fakeTransport) GetMaxConcurrency() int      { return f.maxConc }

func okResponder(req *Request) *Response {
	return &Response{URL: req.URL, Code: 200, Body: []byte("ok"), Request: req}
}

func TestClient_RequestNonBlockingQueuesAndCompletes(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})

	done := make(chan *Response, 1)
	_, resp, err := c.Request("https://example.com/", RequestOptions{}, func(r *Response) {
		done <- r
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp != nil {
		t.Errorf("non-blocking Request should return a nil Response immediately, got %+v", resp)
	}
	c.Run()

	select {
	case got := <-done:
		if got.Code != 200 {
			t.Errorf("expected code 200, got %d", got.Code)
		}
	case <-time.After(time.Second):
		t.Fatal("completion callback never ran")
	}
}

func TestClient_BlockingRequestReturnsResponse(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})

	_, resp, err := c.Request("https://example.com/", RequestOptions{Blocking: true}, nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp == nil || resp.Code != 200 {
		t.Errorf("blocking Request should return the completed Response, got %+v", resp)
	}
}

func TestClient_EmptyURLRejected(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})
	if _, _, err := c.Request("", RequestOptions{}, nil); err == nil {
		t.Error("expected an error for an empty URL")
	}
}

func TestClient_CookieJarAppliedToOutgoingRequest(t *testing.T) {
	t.Parallel()
	var capturedCookies map[string]string
	respond := func(req *Request) *Response {
		capturedCookies = req.Cookies
		return okResponder(req)
	}
	c := NewClient(Config{Transport: newFakeTransport(respond)})
	c.UpdateCookies(map[string]string{"session": "abc"})

	_, _, _ = c.Request("https://example.com/", RequestOptions{Blocking: true}, nil)

	if capturedCookies["session"] != "abc" {
		t.Errorf("expected jar cookie to be attached to the outgoing request, got %v", capturedCookies)
	}
}

func TestClient_ResponseCookiesUpdateJar(t *testing.T) {
	t.Parallel()
	respond := func(req *Request) *Response {
		h := http.Header{}
		h.Add("Set-Cookie", "token=xyz; Path=/")
		return &Response{URL: req.URL, Code: 200, Headers: h, Request: req}
	}
	c := NewClient(Config{Transport: newFakeTransport(respond)})

	_, _, _ = c.Request("https://example.com/", RequestOptions{Blocking: true, UpdateCookies: true}, nil)

	cookies := c.jar.ForURL("https://example.com/")
	if cookies["token"] != "xyz" {
		t.Errorf("expected Set-Cookie from the response to land in the jar, got %v", cookies)
	}
}

func TestClient_HighPriorityGoesToFront(t *testing.T) {
	t.Parallel()
	ft := newFakeTransport(okResponder)
	c := NewClient(Config{Transport: ft})

	c.Queue(&Request{Method: MethodGET, URL: "https://example.com/back"})
	req2 := &Request{Method: MethodGET, URL: "https://example.com/front", HighPriority: true}
	c.forwardRequest(req2, nil)

	ft.mu.Lock()
	frontLen := len(ft.front)
	ft.mu.Unlock()
	if frontLen != 1 {
		t.Errorf("expected the high-priority request on the front queue, front has %d entries", frontLen)
	}
}

func TestClient_StatisticsCountsRequestsAndResponses(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})

	for i := 0; i < 5; i++ {
		c.Queue(&Request{Method: MethodGET, URL: "https://example.com/"})
	}
	c.Run()

	stats := c.Statistics()
	if stats["request_count"].(int64) != 5 {
		t.Errorf("expected request_count=5, got %v", stats["request_count"])
	}
	if stats["response_count"].(int64) != 5 {
		t.Errorf("expected response_count=5, got %v", stats["response_count"])
	}
}

func TestClient_Custom404Integration(t *testing.T) {
	t.Parallel()
	body := []byte("Sorry, nothing at this address. Please check the URL.")
	respond := func(req *Request) *Response {
		return &Response{URL: req.URL, Code: 200, Body: body, Request: req}
	}
	c := NewClient(Config{Transport: newFakeTransport(respond)})

	resp := &Response{URL: "https://example.com/some/page", Code: 200, Body: body}
	done := make(chan bool, 1)
	if err := c.Custom404(resp, func(is404 bool) { done <- is404 }); err != nil {
		t.Fatalf("Custom404: %v", err)
	}
	c.Run()

	select {
	case got := <-done:
		if !got {
			t.Errorf("expected the soft-404 body to classify as a custom 404")
		}
	case <-time.After(time.Second):
		t.Fatal("Custom404 callback never ran")
	}
}

func TestClient_ObserverRunsOnQueueAndComplete(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})

	var queued, completed int
	_, _ = c.Subscribe(EventOnQueue, func(args ...any) error { queued++; return nil })
	_, _ = c.Subscribe(EventOnComplete, func(args ...any) error { completed++; return nil })

	_, _, _ = c.Request("https://example.com/", RequestOptions{Blocking: true}, nil)

	if queued != 1 {
		t.Errorf("expected on_queue to fire once, fired %d", queued)
	}
	if completed != 1 {
		t.Errorf("expected on_complete to fire once, fired %d", completed)
	}
}

func TestClient_ResetClearsStatisticsAndCookies(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})
	c.UpdateCookies(map[string]string{"a": "1"})
	_, _, _ = c.Request("https://example.com/", RequestOptions{Blocking: true}, nil)

	c.Reset(false)

	if stats := c.Statistics(); stats["request_count"].(int64) != 0 {
		t.Errorf("expected statistics cleared after Reset, got %v", stats["request_count"])
	}
	if len(c.Cookies()) != 0 {
		t.Errorf("expected cookie jar cleared after Reset, got %d cookies", len(c.Cookies()))
	}
}

func TestClient_CookieJarPathPersistsAcrossRuns(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "jar.json")

	c1 := NewClient(Config{Transport: newFakeTransport(okResponder), CookieJarPath: path})
	c1.UpdateCookies(&http.Cookie{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"})
	c1.Run() // empty burst, but should still persist the jar to disk

	c2 := NewClient(Config{Transport: newFakeTransport(okResponder), CookieJarPath: path})
	got := c2.jar.ForURL("https://example.com/")
	if got["sid"] != "abc" {
		t.Errorf("expected the second Client to load the cookie saved by the first, got %v", got)
	}
}

func TestClient_RequestDefaultsPerformerToUUID(t *testing.T) {
	t.Parallel()
	var captured *Request
	respond := func(req *Request) *Response {
		captured = req
		return okResponder(req)
	}
	c := NewClient(Config{Transport: newFakeTransport(respond)})

	_, _, _ = c.Request("https://example.com/", RequestOptions{Blocking: true}, nil)

	performer, ok := captured.Performer.(string)
	if !ok || performer == "" {
		t.Fatalf("expected a non-empty string Performer, got %#v", captured.Performer)
	}
	if _, err := uuid.Parse(performer); err != nil {
		t.Errorf("expected Performer to be a UUID, got %q: %v", performer, err)
	}
}

func TestClient_RequestKeepsCallerSuppliedPerformer(t *testing.T) {
	t.Parallel()
	var captured *Request
	respond := func(req *Request) *Response {
		captured = req
		return okResponder(req)
	}
	c := NewClient(Config{Transport: newFakeTransport(respond)})

	_, _, _ = c.Request("https://example.com/", RequestOptions{Blocking: true, Performer: "scan-42"}, nil)

	if captured.Performer != "scan-42" {
		t.Errorf("expected caller-supplied Performer to survive, got %#v", captured.Performer)
	}
}

func TestClient_EmergencyRunFiresWithoutExplicitRun(t *testing.T) {
	t.Parallel()
	ft := newFakeTransport(okResponder)
	c := NewClient(Config{Transport: ft, EmergencyQueueSize: 3})

	c.Queue(&Request{Method: MethodGET, URL: "https://example.com/1"})
	c.Queue(&Request{Method: MethodGET, URL: "https://example.com/2"})

	stats := c.Statistics()
	if stats["response_count"].(int64) != 0 {
		t.Fatalf("expected no run yet below the emergency threshold, got %v responses", stats["response_count"])
	}

	// Queuing the third request crosses EmergencyQueueSize with no run
	// active, which should force an immediate run that drains all three.
	c.Queue(&Request{Method: MethodGET, URL: "https://example.com/3"})

	stats = c.Statistics()
	if stats["response_count"].(int64) != 3 {
		t.Errorf("expected the emergency run to drain all 3 requests, got %v responses", stats["response_count"])
	}
	if stats["queue_size"].(int64) != 0 {
		t.Errorf("expected queue_size back to 0 after the emergency run, got %v", stats["queue_size"])
	}
}

func TestClient_CloseRejectsFurtherRequests(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})
	c.Close()

	if _, _, err := c.Request("https://example.com/", RequestOptions{}, nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("expected ErrClientClosed after Close, got %v", err)
	}
}

func TestClient_CloseMakesQueueAndRunNoOps(t *testing.T) {
	t.Parallel()
	ft := newFakeTransport(okResponder)
	c := NewClient(Config{Transport: ft})
	c.Close()

	c.Queue(&Request{Method: MethodGET, URL: "https://example.com/"})
	c.Run()

	ft.mu.Lock()
	queued := len(ft.back) + len(ft.front)
	ft.mu.Unlock()
	if queued != 0 {
		t.Errorf("expected Queue to be a no-op after Close, transport received %d requests", queued)
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{Transport: newFakeTransport(okResponder)})
	c.Close()
	c.Close()
	if !c.isClosed() {
		t.Error("expected Client to remain closed")
	}
}

func TestClient_IDIsUniqueAndUUID(t *testing.T) {
	t.Parallel()
	c1 := NewClient(Config{Transport: newFakeTransport(okResponder)})
	c2 := NewClient(Config{Transport: newFakeTransport(okResponder)})

	if c1.ID() == "" || c2.ID() == "" {
		t.Fatal("expected a non-empty Client ID")
	}
	if c1.ID() == c2.ID() {
		t.Errorf("expected distinct Clients to get distinct IDs, both got %q", c1.ID())
	}
	if _, err := uuid.Parse(c1.ID()); err != nil {
		t.Errorf("expected Client.ID to be a UUID, got %q: %v", c1.ID(), err)
	}
}

func TestApplyParamsAsQuery_EscapesValues(t *testing.T) {
	t.Parallel()
	got := applyParamsAsQuery("https://example.com/search", map[string]string{"q": "a&b=c"})
	if got != "https://example.com/search?q=a%26b%3Dc" {
		t.Errorf("expected percent-escaped query value, got %q", got)
	}
}

func TestApplyParamsAsQuery_AppendsToExistingQuery(t *testing.T) {
	t.Parallel()
	got := applyParamsAsQuery("https://example.com/search?x=1", map[string]string{"q": "v"})
	if got != "https://example.com/search?x=1&q=v" {
		t.Errorf("expected params appended with &, got %q", got)
	}
}
