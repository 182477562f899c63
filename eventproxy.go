package eventproxy

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/joeycumines/go-eventproxy/dom"
	"github.com/joeycumines/logiface"
)

// EventProxy delegates one event type, from descendants of an ancestor
// element that match a target selector, through a chain of middleware.
//
// A proxy is created inert, see [Factory.New]. [EventProxy.On] and
// [EventProxy.One] bind a single capture phase listener on the ancestor,
// [EventProxy.Off] unbinds it (keeping the chain), and [EventProxy.Destroy]
// releases everything, after which every method is a no-op.
//
// EventProxy is NOT safe for concurrent use. It, and the events it receives,
// should be driven from a single goroutine, typically an event loop.
type EventProxy struct {
	doc      *dom.Document
	ancestor *dom.Element
	chain    *Chain
	listener dom.ListenerFunc
	bound    *binding
	logger   *logiface.Logger[logiface.Event]
	metrics  *Metrics

	id             string
	eventName      string
	proxySelector  string
	targetSelector string

	destroyed bool
}

// binding is a registration of EventProxy.listener, its identity is used to
// detect that a walk has been unbound.
type binding struct {
	id dom.ListenerID
}

func newEventProxy(doc *dom.Document, eventName string, selectors []string, o *options) (*EventProxy, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if eventName == `` {
		return nil, ErrNoEventName
	}

	proxySelector, targetSelector, err := parseSelectors(selectors)
	if err != nil {
		return nil, err
	}

	if _, err := doc.Compile(targetSelector); err != nil {
		return nil, fmt.Errorf("eventproxy: target selector: %w", err)
	}

	ancestor := doc.Body()
	if proxySelector != `` {
		ancestor, err = doc.QuerySelector(proxySelector)
		if err != nil {
			return nil, fmt.Errorf("eventproxy: proxy selector: %w", err)
		}
		if ancestor == nil {
			return nil, fmt.Errorf("%w: %q", ErrProxyNotFound, proxySelector)
		}
	}

	x := &EventProxy{
		doc:            doc,
		ancestor:       ancestor,
		chain:          new(Chain),
		logger:         o.logger,
		metrics:        o.metrics,
		id:             uuid.NewString(),
		eventName:      eventName,
		proxySelector:  proxySelector,
		targetSelector: targetSelector,
	}
	x.listener = x.delegate

	x.logger.Debug().
		Str(`proxy`, x.id).
		Str(`event`, eventName).
		Str(`proxy_selector`, proxySelector).
		Str(`target_selector`, targetSelector).
		Log(`event proxy created`)

	return x, nil
}

// parseSelectors implements the positional overload: a single selector is
// the target, with the ancestor defaulting to the body. Given two, an empty
// target means the first is the target.
func parseSelectors(selectors []string) (proxySelector, targetSelector string, err error) {
	switch len(selectors) {
	case 0:
	case 1:
		targetSelector = selectors[0]
	case 2:
		proxySelector, targetSelector = selectors[0], selectors[1]
		if targetSelector == `` {
			proxySelector, targetSelector = ``, proxySelector
		}
	default:
		return ``, ``, ErrTooManySelectors
	}
	if targetSelector == `` {
		return ``, ``, ErrNoTargetSelector
	}
	return proxySelector, targetSelector, nil
}

// ID returns a unique identifier for the proxy, used in logs.
func (x *EventProxy) ID() string { return x.id }

// EventName returns the bound event type.
func (x *EventProxy) EventName() string { return x.eventName }

// ProxySelector returns the ancestor selector, empty if the ancestor is the
// document body.
func (x *EventProxy) ProxySelector() string { return x.proxySelector }

// TargetSelector returns the selector that walked elements must match.
func (x *EventProxy) TargetSelector() string { return x.targetSelector }

// Document returns the document the proxy was created for.
func (x *EventProxy) Document() *dom.Document { return x.doc }

// Ancestor returns the element the listener binds to.
func (x *EventProxy) Ancestor() *dom.Element { return x.ancestor }

// Listening returns true if the listener is currently bound.
func (x *EventProxy) Listening() bool { return x.bound != nil }

// Destroyed returns true after [EventProxy.Destroy].
func (x *EventProxy) Destroyed() bool { return x.destroyed }

// Len returns the number of middleware in the chain.
func (x *EventProxy) Len() int { return x.chain.Len() }

// Logger returns the configured logger, which may be nil (nil loggers are
// safe to use).
func (x *EventProxy) Logger() *logiface.Logger[logiface.Event] {
	if x == nil {
		return nil
	}
	return x.logger
}

func (x *EventProxy) getMetrics() *Metrics {
	if x == nil {
		return nil
	}
	return x.metrics
}

// SetTargetSelector replaces the target selector. Takes effect on the next
// element tested, including while listening.
func (x *EventProxy) SetTargetSelector(selector string) error {
	if selector == `` {
		return ErrNoTargetSelector
	}
	if _, err := x.doc.Compile(selector); err != nil {
		return fmt.Errorf("eventproxy: target selector: %w", err)
	}
	x.targetSelector = selector
	return nil
}

// Use appends mw to the chain, and returns the proxy. The chain is shared by
// reference with the bound listener, so middleware added while listening
// applies to subsequent events.
func (x *EventProxy) Use(mw Middleware) *EventProxy {
	if mw == nil {
		panic("eventproxy: nil middleware passed to Use")
	}
	if x.destroyed {
		return x
	}
	x.chain.Append(mw)
	return x
}

// On unbinds any existing listener, appends a middleware calling handler
// (then continuing the chain), and binds the listener on the ancestor, for
// the capture phase. Returns the proxy.
func (x *EventProxy) On(handler Handler) *EventProxy {
	if handler == nil {
		panic("eventproxy: nil handler passed to On")
	}
	if x.destroyed {
		return x
	}

	x.Off()

	x.Use(func(_ *EventProxy, e *dom.Event, next Next) {
		handler(e)
		if next != nil {
			next()
		}
	})

	x.bound = &binding{
		id: x.ancestor.AddEventListener(x.eventName, x.listener, dom.ListenerOptions{Capture: true}),
	}
	x.metrics.addListening(1)

	x.logger.Debug().
		Str(`proxy`, x.id).
		Str(`event`, x.eventName).
		Stringer(`ancestor`, x.ancestor).
		Log(`event proxy listening`)

	return x
}

// One behaves like [EventProxy.On], then appends a middleware that calls
// [EventProxy.Off], meaning the listener is removed after the first chain
// run that reaches it. Any further elements that would have matched, during
// the same event, are skipped.
func (x *EventProxy) One(handler Handler) *EventProxy {
	if handler == nil {
		panic("eventproxy: nil handler passed to One")
	}
	if x.destroyed {
		return x
	}
	return x.On(handler).Use(offMiddleware)
}

func offMiddleware(p *EventProxy, _ *dom.Event, _ Next) {
	p.Off()
}

// Off unbinds the listener, if bound. The chain is retained, and a subsequent
// On will bind again. Safe to call from within a chain run: the current run
// completes, but no further elements are tested for the current event.
func (x *EventProxy) Off() {
	b := x.bound
	if b == nil {
		return
	}
	x.bound = nil

	x.ancestor.RemoveEventListener(x.eventName, b.id, true)
	x.metrics.addListening(-1)

	x.logger.Debug().
		Str(`proxy`, x.id).
		Str(`event`, x.eventName).
		Log(`event proxy stopped listening`)
}

// Destroy unbinds the listener, and releases the chain. The proxy is unusable
// afterwards, all methods become no-ops. Idempotent.
func (x *EventProxy) Destroy() {
	if x.destroyed {
		return
	}
	x.Off()
	x.destroyed = true
	x.chain = nil
	x.listener = nil

	x.logger.Debug().
		Str(`proxy`, x.id).
		Log(`event proxy destroyed`)
}

// delegate is the listener bound to the ancestor. It walks from the event's
// origin up to (but excluding) the ancestor, running the whole chain once per
// element matching the target selector, innermost first.
func (x *EventProxy) delegate(e *dom.Event) {
	b, chain := x.bound, x.chain
	if b == nil || chain == nil {
		return
	}

	x.metrics.observeEvent(x.eventName)

	for node := e.Target; node != nil && node != x.ancestor; node = node.Parent() {
		if x.bound != b {
			// unbound during the walk, e.g. by One
			return
		}

		ok, err := node.Matches(x.targetSelector)
		if err != nil {
			x.logger.Err().
				Str(`proxy`, x.id).
				Err(err).
				Log(`event proxy failed to match target selector`)
			return
		}
		if !ok {
			continue
		}

		e.ProxyElement = x.ancestor
		e.TriggerElement = node

		x.metrics.observeChainRun(x.eventName)
		x.logger.Trace().
			Str(`proxy`, x.id).
			Str(`event`, x.eventName).
			Stringer(`trigger`, node).
			Log(`running middleware chain`)

		chain.Invoke(x, e)
	}
}
