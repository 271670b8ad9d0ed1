package engine

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"
)

// custom404Waiter is a deferred classification request parked on an
// in-progress fingerprint record until fingerprinting completes.
type custom404Waiter struct {
	url      string
	body     []byte
	callback func(bool)
}

// custom404Signature is the per-probe-generator accumulator: body holds
// the first sample seen for that generator, rdiff holds the accumulated
// refinement across every subsequent sample.
type custom404Signature struct {
	body  *Signature
	rdiff *Signature
}

// custom404Record is the per-directory fingerprint state: a record is
// created the first time any URL in its directory is classified, and
// transitions (initial) -> in_progress -> analyzed.
type custom404Record struct {
	analyzed   bool
	inProgress bool
	waiting    []custom404Waiter
	signatures [custom404ProbeGeneratorCount]custom404Signature

	real404Count   int
	completedCount int
	expectedCount  int

	lastUsed uint64 // logical clock tick, for LRU-style pruning
}

// Custom404Detector fingerprints each directory's soft-404 behavior and
// answers "is this body a 404" for arbitrary later responses. Concurrent
// classification requests targeting the same directory are deduplicated:
// exactly one fingerprinting probe set is launched per directory.
type Custom404Detector struct {
	mu       sync.Mutex
	client   requester
	records  map[string]*custom404Record
	regular  map[string]bool // directories where every probe returned a real 404 (no custom handler)
	clock    uint64
	cacheCap int
	precision int
	threshold float64
}

// requester is the subset of Client the detector needs: the ability to
// launch high-priority, redirect-following probe requests.
type requester interface {
	probe(url string, onComplete func(*Response))
}

// NewCustom404Detector constructs a detector that launches its probes
// through client.
func NewCustom404Detector(client requester) *Custom404Detector {
	return &Custom404Detector{
		client:    client,
		records:   make(map[string]*custom404Record),
		regular:   make(map[string]bool),
		cacheCap:  DefaultCustom404CacheSize,
		precision: DefaultCustom404Precision,
		threshold: DefaultCustom404SignatureThreshold,
	}
}

// urlForCustom404 yields the canonical directory key for u: if u's last
// path segment has an extension, the key is u's directory; otherwise the
// key is the parent of that path. Trailing slash always included.
func urlForCustom404(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	dir := directoryOf(u.Path)
	last := lastSegment(u.Path)
	if !strings.Contains(last, ".") {
		dir = directoryOf(strings.TrimSuffix(dir, "/"))
	}
	u.Path = dir
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func directoryOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "/"
	}
	return path[:idx+1]
}

func lastSegment(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	return trimmed[idx+1:]
}

// randomToken returns a fresh opaque hex token.
func randomToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// probeGenerators builds the five probe URLs used to fingerprint directory
// key dirKey (already including a trailing slash).
func probeGenerators(dirKey string, precision int) []string {
	rnd := randomToken()
	ext := rnd
	if precision < len(ext) {
		ext = ext[:precision]
	}
	parent := parentOf(dirKey)
	return []string{
		dirKey + randomToken() + "." + ext,   // 1: random file w/ ext under directory
		dirKey + randomToken(),               // 2: random extensionless path
		parent + randomToken(),               // 3: random file in parent
		parent + randomToken() + "." + ext,   // 4: random file w/ ext in parent
		dirKey + randomToken() + "/",         // 5: random sub-directory
	}
}

func parentOf(dirKey string) string {
	trimmed := strings.TrimSuffix(dirKey, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return "/"
	}
	return trimmed[:idx+1]
}

// Classify answers "is this body a custom 404" for u, invoking callback
// once fingerprinting — if needed — completes. status is the HTTP status
// of the response body belongs to, used only to seed/confirm the
// directory's analysis; classification itself is body-based.
func (d *Custom404Detector) Classify(u string, status int, body []byte, callback func(bool)) {
	dirKey := urlForCustom404(u)

	d.mu.Lock()
	rec, ok := d.records[dirKey]
	if !ok {
		rec = &custom404Record{}
		d.records[dirKey] = rec
	}
	d.clock++
	rec.lastUsed = d.clock

	switch {
	case rec.analyzed:
		d.mu.Unlock()
		callback(d.isBody404Locked(dirKey, body))
		return
	case rec.inProgress:
		rec.waiting = append(rec.waiting, custom404Waiter{url: u, body: body, callback: callback})
		d.mu.Unlock()
		return
	default:
		rec.inProgress = true
		rec.expectedCount = custom404ProbeGeneratorCount * d.precision
		d.mu.Unlock()
		d.launchProbes(dirKey, body, callback)
	}
}

// launchProbes fires expectedCount high-priority, redirect-following GETs
// — one per (generator, precision-sample) pair — to fingerprint dirKey.
func (d *Custom404Detector) launchProbes(dirKey string, originalBody []byte, originalCallback func(bool)) {
	for sample := 0; sample < d.precision; sample++ {
		urls := probeGenerators(dirKey, DefaultCustom404Precision)
		for i, probeURL := range urls {
			genIndex := i
			d.client.probe(probeURL, func(resp *Response) {
				d.recordProbe(dirKey, genIndex, resp, originalBody, originalCallback)
			})
		}
	}
}

// recordProbe folds one probe response into its generator's signature and,
// once every expected probe for the directory has completed, finalizes the
// record and drains deferred waiters.
func (d *Custom404Detector) recordProbe(dirKey string, genIndex int, resp *Response, originalBody []byte, originalCallback func(bool)) {
	d.mu.Lock()
	rec, ok := d.records[dirKey]
	if !ok {
		d.mu.Unlock()
		return
	}

	if resp != nil && resp.Code == 404 {
		rec.real404Count++
	}
	if resp != nil {
		sig := &rec.signatures[genIndex]
		if sig.body == nil {
			sig.body = NewSignature(resp.Body, d.threshold)
		} else {
			sig.rdiff = sig.body.Refine(resp.Body)
		}
	}
	rec.completedCount++
	finished := rec.completedCount >= rec.expectedCount
	var waiting []custom404Waiter
	if finished {
		if rec.real404Count >= rec.expectedCount {
			d.regular[dirKey] = true
		}
		rec.analyzed = true
		rec.inProgress = false
		waiting = rec.waiting
		rec.waiting = nil
	}
	d.mu.Unlock()

	if !finished {
		return
	}

	// Intentional: the *outer* response.body passed to the original
	// Classify call is what gets classified here, not any per-probe body
	// accumulated along the way.
	originalCallback(d.isBody404Locked(dirKey, originalBody))
	for _, w := range waiting {
		w.callback(d.isBody404Locked(dirKey, w.body))
	}
}

// isBody404Locked classifies body against dirKey's own signatures first,
// then every other analyzed directory's signatures. Returns false if no
// signature matches. Takes its own lock internally (callers must not hold
// d.mu).
func (d *Custom404Detector) isBody404Locked(dirKey string, body []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rec, ok := d.records[dirKey]; ok && rec.analyzed {
		if matchesAny(rec, body, d.threshold) {
			return true
		}
	}
	for other, rec := range d.records {
		if other == dirKey || !rec.analyzed {
			continue
		}
		if matchesAny(rec, body, d.threshold) {
			return true
		}
	}
	return false
}

func matchesAny(rec *custom404Record, body []byte, threshold float64) bool {
	for _, sig := range rec.signatures {
		if sig.body == nil {
			continue
		}
		reference := sig.rdiff
		if reference == nil {
			reference = sig.body
		}
		candidate := sig.body.Refine(body)
		if reference.Similar(candidate) {
			return true
		}
	}
	return false
}

// CheckedForCustom404 reports whether u's directory has completed
// fingerprinting.
func (d *Custom404Detector) CheckedForCustom404(u string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[urlForCustom404(u)]
	return ok && rec.analyzed
}

// NeedsCustom404Check reports whether u's directory has neither completed
// nor started fingerprinting.
func (d *Custom404Detector) NeedsCustom404Check(u string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[urlForCustom404(u)]
	return !ok || (!rec.analyzed && !rec.inProgress)
}

// Prune runs at the end of each burst: while the record count exceeds the
// configured cache size, analyzed records are dropped in least-recently-used
// order (in-progress records are never evicted).
func (d *Custom404Detector) Prune() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.records) <= d.cacheCap {
		return
	}

	type candidate struct {
		key      string
		lastUsed uint64
	}
	var candidates []candidate
	for k, rec := range d.records {
		if rec.analyzed && !rec.inProgress {
			candidates = append(candidates, candidate{k, rec.lastUsed})
		}
	}
	// Oldest (smallest lastUsed) first.
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].lastUsed < candidates[i].lastUsed {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	for _, c := range candidates {
		if len(d.records) <= d.cacheCap {
			break
		}
		delete(d.records, c.key)
		delete(d.regular, c.key)
	}
}

// recordCount exposes the current record count for tests asserting the
// cache-bound property.
func (d *Custom404Detector) recordCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}
