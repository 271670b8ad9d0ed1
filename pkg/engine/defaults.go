// Package engine implements the HTTP orchestration core that drives the
// scanner's audit probes: a high-concurrency request engine, a
// selectively-applied cookie jar, and a custom-404 (soft-404) detector.
//
// Callers — the HTML/path extractors, audit checks, and discovery probes
// elsewhere in this module — speak to the core exclusively through Client,
// Request/Response, and the Transport interface. Rendering, JavaScript
// execution, TLS implementation, DNS caching policy, and on-disk
// persistence of anything but the cookie jar are out of scope.
package engine

import "time"

// Default tunables, collected here as a single source of truth so nothing
// downstream hardcodes a magic number.
const (
	// DefaultMaxConcurrency bounds how many requests the transport adapter
	// dispatches in parallel.
	DefaultMaxConcurrency = 20

	// DefaultHTTPTimeout is the per-request timeout applied when a Request
	// does not specify its own.
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultEmergencyQueueSize is the queue_size threshold that forces an
	// immediate run when no run is currently active, bounding memory under
	// producers faster than the transport.
	DefaultEmergencyQueueSize = 10000

	// DefaultCustom404CacheSize is the maximum number of analyzed
	// directory records the custom-404 detector retains.
	DefaultCustom404CacheSize = 50

	// DefaultCustom404SignatureThreshold is the relative-difference
	// threshold (ratio) below which two signatures are considered similar.
	DefaultCustom404SignatureThreshold = 0.1

	// DefaultCustom404Precision is the number of random samples each
	// probe generator contributes when fingerprinting a directory.
	DefaultCustom404Precision = 2
)

// custom404ProbeGeneratorCount is the fixed number of probe generators the
// detector uses to fingerprint a directory. It is not user-configurable.
const custom404ProbeGeneratorCount = 5
