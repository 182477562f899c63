// Package eventproxy implements event delegation with a middleware chain.
//
// An [EventProxy] binds a single listener, for one event type, to an ancestor
// element. When an event dispatched on a descendant reaches that ancestor
// (during the capture phase, so descendants cannot prevent it), the proxy
// walks from the event's target up towards the ancestor, and for every element
// along the way that matches its target selector, runs its whole middleware
// chain, innermost element first.
//
// # Middleware
//
// A [Middleware] receives the owning proxy, the event (annotated with
// [dom.Event.ProxyElement] and [dom.Event.TriggerElement]) and a [Next]
// continuation. It decides whether, when, and how many times to continue.
// Declining to call next ends the chain for that event, and is how rate
// limiting middleware drops events. The last link receives a nil next.
//
// Middleware run in the order they were added by [EventProxy.Use], and may be
// added before or after the proxy starts listening:
//
//	factory := eventproxy.NewFactory(doc, eventproxy.WithTimers(js))
//
//	proxy, err := factory.New(`click`, `#menu`, `.item`)
//	if err != nil {
//	    return err
//	}
//
//	proxy.
//	    Use(factory.Throttle(100 * time.Millisecond)).
//	    Use(eventproxy.RemoveActive).
//	    On(func(e *dom.Event) {
//	        e.TriggerElement.AddClass(`active`)
//	    })
//
// # Rate Limiting
//
// [Throttle] keeps the first event of each window, [Debounce] keeps the last
// event of a burst, and [RateLimit] applies multi-window limits per category.
// Throttle and Debounce defer the continuation using [Timers], which is
// implemented by the JS adapter of the go-eventloop package, so continuations
// run on the loop goroutine.
//
// # Thread Safety
//
// Proxies and the middleware provided by this package are not safe for
// concurrent use. Create, mutate and dispatch to them from the event loop
// goroutine (e.g. via Loop.Submit), as for DOM code in a browser.
package eventproxy
