package repository

import "time"

type options struct {
	metricsUpdateInterval time.Duration
	now                   func() time.Time
}

func newOptions(opts []Option) options {
	o := options{metricsUpdateInterval: defaultMetricsUpdateInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a store.
type Option func(*options)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithClock overrides the time source used for CreatedAt/UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
