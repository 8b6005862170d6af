package sdk

import "time"

// SupportedSchemaMajor is the flowcraft://schema major version this SDK
// decodes. Compatible fails when the server reports another one.
const SupportedSchemaMajor = "1"

type options struct {
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
	scope        Scope
}

func defaultOptions() options {
	return options{
		timeout:      30 * time.Second,
		maxAttempts:  3,
		initialDelay: 500 * time.Millisecond,
	}
}

// Option configures the SDK client.
type Option func(*options)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry sets the attempts and first backoff delay for tool calls.
// Tool error results are never retried.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}

// WithScope sets a default scope for every metrics call. Fields set on the
// per-call Scope win.
func WithScope(s Scope) Option {
	return func(o *options) { o.scope = s }
}
