package ringlog

import (
	"math/rand"
	"time"
)

// Retry strategies for the network sink's send path.
const (
	RetryConstant    = "constant"
	RetryLinear      = "linear"
	RetryExponential = "exponential"
)

const (
	defaultRetryStrategy     = RetryExponential
	defaultRetryInitialDelay = 100 * time.Millisecond
	defaultRetryMaxDelay     = 30 * time.Second
	defaultRetryMaxAttempts  = 5
	defaultRetryJitter       = 0.1
)

// RetryOptions configure the backoff applied between failed batch sends.
//
// # Invalid options are coerced
type RetryOptions struct {
	// Strategy selects how the delay grows with the attempt count:
	// "constant", "linear" (initial * (attempts+1)), or "exponential"
	// (initial * 2^attempts). The default is "exponential".
	Strategy string

	// InitialDelay is the delay for the first retry. The default is 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay, whatever the strategy. The default
	// is 30s.
	MaxDelay time.Duration

	// MaxAttempts bounds the number of sends attempted in one flush cycle.
	// The default is 5.
	MaxAttempts int

	// JitterFactor adds a uniformly random amount of up to delay *
	// JitterFactor on top of the computed delay, de-synchronizing retry
	// storms. Must be in [0, 1]. The default is 0.1.
	JitterFactor float64
}

// DefaultRetryOptions returns RetryOptions with all default values.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		Strategy:     defaultRetryStrategy,
		InitialDelay: defaultRetryInitialDelay,
		MaxDelay:     defaultRetryMaxDelay,
		MaxAttempts:  defaultRetryMaxAttempts,
		JitterFactor: defaultRetryJitter,
	}
}

// resolve ensures that all options have valid values.
func (o *RetryOptions) resolve() {
	if o.Strategy != RetryConstant && o.Strategy != RetryLinear && o.Strategy != RetryExponential {
		o.Strategy = defaultRetryStrategy
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = defaultRetryInitialDelay
	}
	if o.MaxDelay < o.InitialDelay {
		o.MaxDelay = defaultRetryMaxDelay
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = defaultRetryMaxAttempts
	}
	if o.JitterFactor < 0 || o.JitterFactor > 1 {
		o.JitterFactor = defaultRetryJitter
	}
}

// retryState tracks the attempt counters and the current backoff delay for
// one sink. attempts grows monotonically within a flush cycle and resets to
// zero only after a fully successful batch send. currentDelay is the clamped
// pre-jitter delay, so it never exceeds MaxDelay.
type retryState struct {
	opts                RetryOptions
	attempts            int
	consecutiveFailures int
	currentDelay        time.Duration

	// jitter returns a value in [0, 1); injectable for deterministic tests.
	jitter func() float64
}

func newRetryState(opts RetryOptions) *retryState {
	return &retryState{
		opts:         opts,
		currentDelay: opts.InitialDelay,
		jitter:       rand.Float64,
	}
}

// fail records one failed attempt and returns the delay to sleep before the
// next one.
func (r *retryState) fail() time.Duration {
	base := backoffDelay(r.opts.Strategy, r.opts.InitialDelay, r.opts.MaxDelay, r.attempts)
	r.attempts++
	r.consecutiveFailures++
	r.currentDelay = base

	d := base
	if r.opts.JitterFactor > 0 {
		d += time.Duration(float64(base) * r.opts.JitterFactor * r.jitter())
	}
	return d
}

func (r *retryState) exhausted() bool {
	return r.attempts >= r.opts.MaxAttempts
}

// reset clears the counters after a fully successful send.
func (r *retryState) reset() {
	r.attempts = 0
	r.consecutiveFailures = 0
	r.currentDelay = r.opts.InitialDelay
}

// backoffDelay computes the pre-jitter delay for the given zero-based attempt
// count, clamped to max.
func backoffDelay(strategy string, initial, max time.Duration, attempts int) time.Duration {
	var d time.Duration
	switch strategy {
	case RetryConstant:
		d = initial
	case RetryLinear:
		d = initial * time.Duration(attempts+1)
	default: // exponential
		if attempts >= 62 {
			return max
		}
		d = initial << uint(attempts)
	}
	if d <= 0 || d > max {
		return max
	}
	return d
}
