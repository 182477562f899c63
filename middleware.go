package eventproxy

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-eventproxy/dom"
)

// DefaultDelay is the window used by [Throttle] and [Debounce] when given a
// non-positive delay.
const DefaultDelay = 500 * time.Millisecond

// Timers schedules deferred callbacks, and is implemented by [eventloop.JS].
// Callbacks are expected to run on the same goroutine that dispatches events.
type Timers interface {
	SetTimeout(fn eventloop.SetTimeoutFunc, delayMs int) (uint64, error)
	ClearTimeout(id uint64) error
}

var _ Timers = (*eventloop.JS)(nil)

func delayMillis(delay time.Duration) int {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return int(delay.Milliseconds())
}

// Throttle returns a middleware that continues the chain at most once per
// delay. The first event of a burst is kept, and continued after delay, any
// further events until then are dropped.
//
// Each call returns a middleware with independent state.
func Throttle(timers Timers, delay time.Duration) Middleware {
	if timers == nil {
		panic("eventproxy: nil timers passed to Throttle")
	}
	delayMs := delayMillis(delay)
	ready := true
	return func(p *EventProxy, e *dom.Event, next Next) {
		if !ready {
			p.getMetrics().observeDropped(`throttle`)
			return
		}
		ready = false
		if _, err := timers.SetTimeout(func() {
			ready = true
			if next != nil {
				next()
			}
		}, delayMs); err != nil {
			ready = true
			p.Logger().Err().
				Err(err).
				Str(`event`, e.Type).
				Log(`throttle failed to schedule continuation`)
		}
	}
}

// Debounce returns a middleware that continues the chain only once events
// stop arriving for delay, with the last event received.
//
// Each call returns a middleware with independent state.
func Debounce(timers Timers, delay time.Duration) Middleware {
	if timers == nil {
		panic("eventproxy: nil timers passed to Debounce")
	}
	delayMs := delayMillis(delay)
	var (
		pending    bool
		timerID    uint64
		generation uint64
	)
	return func(p *EventProxy, e *dom.Event, next Next) {
		if pending {
			pending = false
			_ = timers.ClearTimeout(timerID)
			p.getMetrics().observeDropped(`debounce`)
		}
		generation++
		current := generation
		id, err := timers.SetTimeout(func() {
			if !pending || generation != current {
				return
			}
			pending = false
			if next != nil {
				next()
			}
		}, delayMs)
		if err != nil {
			p.Logger().Err().
				Err(err).
				Str(`event`, e.Type).
				Log(`debounce failed to schedule continuation`)
			return
		}
		pending, timerID = true, id
	}
}

// RemoveClass returns a middleware that removes class from every element in
// the document matching the proxy's target selector, then continues.
func RemoveClass(class string) Middleware {
	return func(p *EventProxy, e *dom.Event, next Next) {
		if p != nil && p.doc != nil {
			elements, err := p.doc.QuerySelectorAll(p.targetSelector)
			if err != nil {
				p.Logger().Err().
					Err(err).
					Str(`class`, class).
					Log(`remove class failed to query target selector`)
			}
			for _, element := range elements {
				element.RemoveClass(class)
			}
		}
		if next != nil {
			next()
		}
	}
}

var removeActive = RemoveClass(`active`)

// RemoveActive is a middleware that removes the "active" class from all
// elements matching the proxy's target selector, then continues. It is
// typically installed ahead of a handler that marks the trigger element as
// active.
func RemoveActive(p *EventProxy, e *dom.Event, next Next) {
	removeActive(p, e, next)
}

// TriggerCategory is the default category for [RateLimit], limiting each
// trigger element independently.
func TriggerCategory(e *dom.Event) any {
	return e.TriggerElement
}

// RateLimit returns a middleware that drops events exceeding any rate
// configured on limiter, within the event's category. If category is nil,
// [TriggerCategory] is used.
func RateLimit(limiter *catrate.Limiter, category func(e *dom.Event) any) Middleware {
	if limiter == nil {
		panic("eventproxy: nil limiter passed to RateLimit")
	}
	if category == nil {
		category = TriggerCategory
	}
	return func(p *EventProxy, e *dom.Event, next Next) {
		if until, ok := limiter.Allow(category(e)); !ok {
			p.getMetrics().observeDropped(`rate-limit`)
			p.Logger().Warning().
				Str(`event`, e.Type).
				Stringer(`trigger`, e.TriggerElement).
				Time(`until`, until).
				Log(`event dropped by rate limit`)
			return
		}
		if next != nil {
			next()
		}
	}
}

// NewRateLimit validates rates, then returns [RateLimit] over a new limiter.
// Rates map a window to the maximum number of events within it, and must be
// positive. Longer windows must allow more events, at a lower average rate.
func NewRateLimit(rates map[time.Duration]int, category func(e *dom.Event) any) (mw Middleware, err error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: no rates", ErrInvalidRateLimits)
	}
	defer func() {
		if r := recover(); r != nil {
			mw, err = nil, fmt.Errorf("%w: %v", ErrInvalidRateLimits, r)
		}
	}()
	return RateLimit(catrate.NewLimiter(rates), category), nil
}
