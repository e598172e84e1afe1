package resilience

import "time"

// RetryPolicy controls the in-process retry loop for one upstream.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// BreakerPolicy controls the per-operation circuit breaker. Disabled
// skips the breaker entirely and leaves only the retry loop.
type BreakerPolicy struct {
	Disabled         bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// Policy bundles the retry and breaker tuning for one dependency. Each
// client gets its own Executor, so overload on one upstream never trips
// the breaker guarding another.
type Policy struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
}

// PineconePolicy covers the index data plane. Upserts and deletes are
// idempotent and batched, so retries are generous and the breaker waits
// for a larger failure sample before tripping.
func PineconePolicy() Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    4,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{
			MinRequests:      20,
			FailureRatio:     0.6,
			OpenTimeout:      20 * time.Second,
			HalfOpenMaxCalls: 3,
		},
	}
}

// OpenAIPolicy covers chat and embedding calls. Rate limits clear on
// their own, so backoff ramps fast while the breaker tolerates a longer
// failure run before cutting off answers.
func OpenAIPolicy() Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     8 * time.Second,
			Multiplier:     4.0,
		},
		Breaker: BreakerPolicy{
			MinRequests:      10,
			FailureRatio:     0.7,
			OpenTimeout:      45 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	}
}

// TavilyPolicy covers web search. A failed search degrades a single
// answer, so there is one quick retry and the breaker trips early.
func TavilyPolicy() Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    2,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     100 * time.Millisecond,
			Multiplier:     1.0,
		},
		Breaker: BreakerPolicy{
			MinRequests:      6,
			FailureRatio:     0.5,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	}
}

// QueuePolicy covers NATS publishes. The connection reconnects and
// buffers on its own, so the retry loop stays short and no breaker sits
// in front of it.
func QueuePolicy() Policy {
	return Policy{
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     200 * time.Millisecond,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{Disabled: true},
	}
}

func (p Policy) normalize() Policy {
	out := p
	if out.Retry.MaxAttempts <= 0 {
		out.Retry.MaxAttempts = 1
	}
	if out.Retry.InitialBackoff <= 0 {
		out.Retry.InitialBackoff = 100 * time.Millisecond
	}
	if out.Retry.MaxBackoff < out.Retry.InitialBackoff {
		out.Retry.MaxBackoff = out.Retry.InitialBackoff
	}
	if out.Retry.Multiplier < 1.0 {
		out.Retry.Multiplier = 1.0
	}
	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = 5
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = 0.5
	}
	if out.Breaker.OpenTimeout <= 0 {
		out.Breaker.OpenTimeout = 30 * time.Second
	}
	if out.Breaker.HalfOpenMaxCalls == 0 {
		out.Breaker.HalfOpenMaxCalls = 1
	}
	return out
}
