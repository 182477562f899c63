package eventproxy

import (
	"github.com/joeycumines/logiface"
)

// Option configures a [Factory].
type Option func(*options)

type options struct {
	logger  *logiface.Logger[logiface.Event]
	metrics *Metrics
	timers  Timers
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger configures structured logging, for proxy lifecycle events and
// middleware failures. Logging is disabled by default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics configures metrics collection, see [NewMetrics].
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithTimers configures the timer source used by [Factory.Throttle] and
// [Factory.Debounce], typically an [eventloop.JS] bound to the loop that
// dispatches events.
//
// [eventloop.JS]: https://pkg.go.dev/github.com/joeycumines/go-eventloop#JS
func WithTimers(timers Timers) Option {
	return func(o *options) {
		o.timers = timers
	}
}
