package eventproxy

import (
	"github.com/joeycumines/go-eventproxy/dom"
)

type (
	// Middleware intercepts a delegated event. The proxy that owns the chain
	// is passed as p, and next continues the chain (it may be called later,
	// e.g. from a timer, or not at all, which ends the chain for this event).
	// A nil next indicates that this is the last link of the chain.
	Middleware func(p *EventProxy, e *dom.Event, next Next)

	// Next continues a chain with the next link.
	Next func()

	// Handler is a terminal callback, see [EventProxy.On].
	Handler func(e *dom.Event)

	// Chain is an ordered, append-only sequence of middleware. Each position
	// acts as a link, holding one middleware, followed by the position after
	// it. The position past the last middleware is the empty tail, which
	// does nothing when invoked.
	//
	// The zero value is an empty chain, ready to use.
	Chain struct {
		links []Middleware
	}
)

// Append adds mw as the new last link, replacing the empty tail.
func (x *Chain) Append(mw Middleware) {
	x.links = append(x.links, mw)
}

// Len returns the number of links, excluding the empty tail.
func (x *Chain) Len() int {
	if x == nil {
		return 0
	}
	return len(x.links)
}

// Invoke runs the chain, from its first link, for a single event.
func (x *Chain) Invoke(p *EventProxy, e *dom.Event) {
	x.invoke(0, p, e)
}

func (x *Chain) invoke(i int, p *EventProxy, e *dom.Event) {
	if x == nil || i >= len(x.links) {
		return
	}
	mw := x.links[i]
	var next Next
	if i+1 < len(x.links) {
		next = func() { x.invoke(i+1, p, e) }
	}
	mw(p, e, next)
}
