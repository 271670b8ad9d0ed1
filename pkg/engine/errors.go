package engine

import "errors"

// Sentinel errors for engine failure modes that propagate synchronously to
// callers. Every other fault (transport failure, timeout, cookie parse
// error, observer callback failure, signature mismatch) is surfaced as
// data — a Response field, a logged diagnostic, or a false classification —
// never as one of these. Callers should use errors.Is() to check for these.
var (
	// ErrInvalidArgument indicates a programmer error: an empty URL passed
	// to Request, or similar caller-side misuse.
	ErrInvalidArgument = errors.New("engine: invalid argument")

	// ErrUnknownEvent indicates a Subscribe or Fire call against an event
	// name the Observable was not constructed with.
	ErrUnknownEvent = errors.New("engine: unknown event")

	// ErrObserverNoCallback indicates Subscribe was called without a
	// callback function.
	ErrObserverNoCallback = errors.New("engine: subscribe requires a callback")

	// ErrClientClosed indicates an operation was attempted on a Client
	// after Close was called.
	ErrClientClosed = errors.New("engine: client closed")
)
