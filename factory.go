package eventproxy

import (
	"time"

	"github.com/joeycumines/go-eventproxy/dom"
)

// Factory creates event proxies for a document, sharing configuration. It
// also provides the rate limiting middleware constructors, bound to the
// configured [Timers].
type Factory struct {
	doc  *dom.Document
	opts *options
}

// NewFactory returns a factory creating proxies within doc.
func NewFactory(doc *dom.Document, opts ...Option) *Factory {
	return &Factory{
		doc:  doc,
		opts: resolveOptions(opts),
	}
}

// New is shorthand for NewFactory(doc).New(eventName, selectors...).
func New(doc *dom.Document, eventName string, selectors ...string) (*EventProxy, error) {
	return NewFactory(doc).New(eventName, selectors...)
}

// New creates an inert proxy for eventName.
//
// Selectors are positional. A single selector is the target selector, and the
// listener will bind to the document body. Given two, the first selects the
// ancestor (the proxy element) and the second is the target selector, unless
// it is empty, in which case the first is used as the target selector.
//
// The ancestor is resolved immediately, and [ErrProxyNotFound] is returned if
// nothing matches. Invalid selectors return an error wrapping
// [dom.ErrInvalidSelector].
func (f *Factory) New(eventName string, selectors ...string) (*EventProxy, error) {
	return newEventProxy(f.doc, eventName, selectors, f.opts)
}

// Document returns the factory's document.
func (f *Factory) Document() *dom.Document { return f.doc }

// Throttle is [Throttle] using the timers configured via [WithTimers]. It
// panics if none were configured.
func (f *Factory) Throttle(delay time.Duration) Middleware {
	return Throttle(f.mustTimers(`Throttle`), delay)
}

// Debounce is [Debounce] using the timers configured via [WithTimers]. It
// panics if none were configured.
func (f *Factory) Debounce(delay time.Duration) Middleware {
	return Debounce(f.mustTimers(`Debounce`), delay)
}

func (f *Factory) mustTimers(name string) Timers {
	if f.opts.timers == nil {
		panic("eventproxy: " + name + " requires WithTimers")
	}
	return f.opts.timers
}
