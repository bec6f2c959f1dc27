package httpchat

import (
	"context"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures the transient-error retry policy, grounded on the
// teacher's RetryConfig/RetryProvider in internal/llm/retry.go.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryConfig mirrors the teacher's defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: 30 * time.Second}
}

// RetryEvent describes one retry attempt, passed to SpawnWithRetry's
// onRetry callback. Session's RetryingIndex/LastRetryTime fields are not
// updated from it.
type RetryEvent struct {
	Attempt     int
	MaxAttempts int
	Wait        time.Duration
}

// SpawnWithRetry runs Spawn, retransmitting a fresh request on a transient
// Errored event instead of delivering it to the caller. onRetry is called
// (synchronously, before the wait) once per retry attempt; pass nil to
// ignore. Cancellation via ctx stops retries immediately.
func SpawnWithRetry(ctx context.Context, p Params, cfg RetryConfig, onRetry func(RetryEvent)) (<-chan Event, error) {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		var lastErr string

		for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
			in, err := Spawn(ctx, p)
			if err != nil {
				// Spawn fails on request-construction errors and on transport
				// errors before any response arrives; neither is retried here:
				// surface and stop.
				out <- Event{Type: EventErrored, StreamID: p.StreamID, Err: err.Error()}
				out <- Event{Type: EventCompleted, StreamID: p.StreamID}
				return
			}

			var buffered []Event
			var transientErr string
			forwarded := false
		drain:
			for ev := range in {
				if ev.Type == EventErrored && isRetryable(ev.Err) {
					transientErr = ev.Err
					continue
				}
				if ev.Type == EventCompleted && transientErr != "" {
					// Swallow the Completed that follows a retryable Errored; a
					// fresh attempt will produce its own.
					break drain
				}
				buffered = append(buffered, ev)
				if ev.Type == EventCompleted {
					forwarded = true
				}
			}

			if transientErr == "" {
				for _, ev := range buffered {
					out <- ev
				}
				if forwarded {
					return
				}
				return
			}

			lastErr = transientErr
			if ctx.Err() != nil {
				out <- Event{Type: EventErrored, StreamID: p.StreamID, Err: ctx.Err().Error()}
				out <- Event{Type: EventCompleted, StreamID: p.StreamID}
				return
			}
			if attempt >= cfg.MaxAttempts {
				break
			}

			wait := calculateBackoff(cfg, attempt, lastErr)
			zerolog.Ctx(ctx).Warn().
				Int("attempt", attempt).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("wait", wait).
				Str("error", lastErr).
				Msg("retrying transient chat stream error")
			if onRetry != nil {
				onRetry(RetryEvent{Attempt: attempt, MaxAttempts: cfg.MaxAttempts, Wait: wait})
			}
			select {
			case <-ctx.Done():
				out <- Event{Type: EventErrored, StreamID: p.StreamID, Err: ctx.Err().Error()}
				out <- Event{Type: EventCompleted, StreamID: p.StreamID}
				return
			case <-time.After(wait):
			}
		}

		out <- Event{Type: EventErrored, StreamID: p.StreamID, Err: lastErr}
		out <- Event{Type: EventCompleted, StreamID: p.StreamID}
	}()
	return out, nil
}

// isRetryable classifies an error body/message as transient, grounded on
// the teacher's isRetryable in internal/llm/retry.go.
func isRetryable(errText string) bool {
	s := strings.ToLower(errText)
	for _, marker := range []string{
		"429", "rate limit", "too many requests", "high concurrency",
		"502", "bad gateway", "503", "service unavailable", "overloaded",
		"connection refused", "connection reset", "timeout", "deadline exceeded",
		"temporary failure", "no such host",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

var retryAfterRegex = regexp.MustCompile(`(?i)retry[- ]?after[:\s]+(\d+)`)

func calculateBackoff(cfg RetryConfig, attempt int, errText string) time.Duration {
	if matches := retryAfterRegex.FindStringSubmatch(errText); len(matches) > 1 {
		if secs, err := strconv.Atoi(matches[1]); err == nil && secs > 0 {
			wait := time.Duration(secs) * time.Second
			if wait > cfg.MaxBackoff {
				wait = cfg.MaxBackoff
			}
			return wait
		}
	}

	backoff := float64(cfg.BaseBackoff) * math.Pow(2, float64(attempt-1))
	jitter := backoff * (0.5 + rand.Float64()*0.5)
	wait := time.Duration(jitter)
	if wait > cfg.MaxBackoff {
		wait = cfg.MaxBackoff
	}
	return wait
}
