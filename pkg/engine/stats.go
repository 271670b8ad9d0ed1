package engine

import "time"

// stats holds the Client's monotonic counters in two sliding views: burst
// (reset at the start of each Run) and total (never reset). All fields are
// mutated only while Client.mu is held, and Statistics() reads them under
// the same lock, so a reader never observes a burst half-updated by a
// completion handler running concurrently.
type stats struct {
	totalRequests  int64
	totalResponses int64
	totalTimeouts  int64
	totalTimeSum   time.Duration
	firstRunStart  time.Time

	burstRequests  int64
	burstResponses int64
	burstTimeouts  int64
	burstTimeSum   time.Duration
	burstStart     time.Time
}

// recordQueuedLocked increments the issued-request counters. Called from
// forwardRequest while c.mu is held.
func (s *stats) recordQueuedLocked() {
	s.totalRequests++
	s.burstRequests++
}

// recordLocked folds one completed Response into both views. Called from
// handleCompletion while c.mu is held.
func (s *stats) recordLocked(resp *Response) {
	s.totalResponses++
	s.burstResponses++
	if resp != nil {
		s.totalTimeSum += resp.RoundTrip
		s.burstTimeSum += resp.RoundTrip
		if resp.TimedOut {
			s.totalTimeouts++
			s.burstTimeouts++
		}
	}
}

func (s *stats) startBurstLocked() {
	s.burstRequests, s.burstResponses, s.burstTimeouts = 0, 0, 0
	s.burstTimeSum = 0
	s.burstStart = time.Now()
	if s.firstRunStart.IsZero() {
		s.firstRunStart = s.burstStart
	}
}

func (s *stats) endBurstLocked() {
	// burstStart/burstTimeSum are left as-is so Statistics() can still
	// report the just-finished burst's rates until the next Run begins.
}

func (s *stats) totalRuntimeLocked() time.Duration {
	if s.firstRunStart.IsZero() {
		return 0
	}
	return time.Since(s.firstRunStart)
}

func (s *stats) burstRuntimeLocked() time.Duration {
	if s.burstStart.IsZero() {
		return 0
	}
	return time.Since(s.burstStart)
}

func averageResponseTime(sum time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return sum / time.Duration(count)
}

func responsesPerSecond(count int64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(count) / seconds
}

// Statistics returns a snapshot map of every named counter and derived
// rate: total_runtime, burst_runtime, total_average_response_time,
// burst_average_response_time, total_responses_per_second,
// burst_responses_per_second, plus the raw counters. Rates are 0 when
// their denominator is 0.
func (c *Client) Statistics() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalRuntime := c.stats.totalRuntimeLocked()
	burstRuntime := c.stats.burstRuntimeLocked()

	return map[string]any{
		"request_count":      c.stats.totalRequests,
		"response_count":     c.stats.totalResponses,
		"time_out_count":     c.stats.totalTimeouts,
		"burst_request_count":  c.stats.burstRequests,
		"burst_response_count": c.stats.burstResponses,
		"burst_time_out_count": c.stats.burstTimeouts,
		"queue_size": c.queueSize,

		"total_runtime": totalRuntime,
		"burst_runtime": burstRuntime,

		"total_average_response_time": averageResponseTime(c.stats.totalTimeSum, c.stats.totalResponses),
		"burst_average_response_time": averageResponseTime(c.stats.burstTimeSum, c.stats.burstResponses),

		"total_responses_per_second": responsesPerSecond(c.stats.totalResponses, totalRuntime),
		"burst_responses_per_second": responsesPerSecond(c.stats.burstResponses, burstRuntime),
	}
}
