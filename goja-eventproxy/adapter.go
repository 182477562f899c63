// Copyright 2026 Joseph Cumines
//
// goja-eventproxy: Goja bindings for delegated event proxies

package gojaeventproxy

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-eventproxy"
	"github.com/joeycumines/go-eventproxy/dom"
)

// Adapter binds an [eventproxy.Factory] to a Goja runtime. The factory's
// timers are an [eventloop.JS] created for the loop, so throttle and debounce
// continuations run on the loop goroutine.
type Adapter struct {
	js       *eventloop.JS
	runtime  *goja.Runtime
	loop     *eventloop.Loop
	factory  *eventproxy.Factory
	elements map[*dom.Element]*goja.Object
}

// nativeMiddleware marks JS function objects wrapping a Go middleware, so
// they may be added to a chain without a round trip through the runtime.
type nativeMiddleware struct {
	mw eventproxy.Middleware
}

// New creates an adapter for doc. Options are passed to
// [eventproxy.NewFactory], after the adapter's own [eventproxy.WithTimers].
func New(loop *eventloop.Loop, runtime *goja.Runtime, doc *dom.Document, opts ...eventproxy.Option) (*Adapter, error) {
	if loop == nil {
		return nil, fmt.Errorf("loop cannot be nil")
	}
	if runtime == nil {
		return nil, fmt.Errorf("runtime cannot be nil")
	}
	if doc == nil {
		return nil, fmt.Errorf("document cannot be nil")
	}

	js, err := eventloop.NewJS(loop)
	if err != nil {
		return nil, fmt.Errorf("failed to create JS adapter: %w", err)
	}

	return &Adapter{
		js:       js,
		runtime:  runtime,
		loop:     loop,
		factory:  eventproxy.NewFactory(doc, append([]eventproxy.Option{eventproxy.WithTimers(js)}, opts...)...),
		elements: make(map[*dom.Element]*goja.Object),
	}, nil
}

// Loop returns the event loop
func (a *Adapter) Loop() *eventloop.Loop {
	return a.loop
}

// Runtime returns the Goja runtime
func (a *Adapter) Runtime() *goja.Runtime {
	return a.runtime
}

// JS returns the JS adapter, used as the timers of the factory.
func (a *Adapter) JS() *eventloop.JS {
	return a.js
}

// Factory returns the factory used to create proxies.
func (a *Adapter) Factory() *eventproxy.Factory {
	return a.factory
}

// Document returns the bound document.
func (a *Adapter) Document() *dom.Document {
	return a.factory.Document()
}

// Bind installs the `$e` and `document` globals.
//
// After calling Bind(), the following become available in JavaScript:
//   - $e(eventName, proxySelector?, targetSelector) → proxy
//   - $e.throttleMiddleware(delayMs?) → middleware
//   - $e.debounceMiddleware(delayMs?) → middleware
//   - $e.removeActiveMiddleware : middleware
//   - document.body : element
//   - document.querySelector(selector) → element | null
//   - document.querySelectorAll(selector) → element[]
//   - document.dispatch(selector, type, init?) → boolean
//
// Proxies have the methods use, on, one, off and destroy.
func (a *Adapter) Bind() error {
	factory := a.runtime.ToValue(a.create).ToObject(a.runtime)
	if err := factory.Set("throttleMiddleware", a.throttleMiddleware); err != nil {
		return err
	}
	if err := factory.Set("debounceMiddleware", a.debounceMiddleware); err != nil {
		return err
	}
	if err := factory.Set("removeActiveMiddleware", a.wrapMiddleware(eventproxy.RemoveActive)); err != nil {
		return err
	}
	if err := a.runtime.Set("$e", factory); err != nil {
		return err
	}
	return a.runtime.Set("document", a.documentObject())
}

// create binding for $e
func (a *Adapter) create(call goja.FunctionCall) goja.Value {
	eventName := stringArg(call.Argument(0))
	var selectors []string
	if len(call.Arguments) > 1 {
		for _, arg := range call.Arguments[1:] {
			selectors = append(selectors, stringArg(arg))
		}
	}

	proxy, err := a.factory.New(eventName, selectors...)
	if err != nil {
		panic(a.runtime.NewTypeError("%s", err))
	}

	return a.proxyObject(proxy)
}

func (a *Adapter) throttleMiddleware(call goja.FunctionCall) goja.Value {
	return a.wrapMiddleware(a.factory.Throttle(a.delayArg(call.Argument(0))))
}

func (a *Adapter) debounceMiddleware(call goja.FunctionCall) goja.Value {
	return a.wrapMiddleware(a.factory.Debounce(a.delayArg(call.Argument(0))))
}

// delayArg converts an optional millisecond delay, where zero and undefined
// select the default.
func (a *Adapter) delayArg(v goja.Value) time.Duration {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	delayMs := v.ToInteger()
	if delayMs < 0 {
		panic(a.runtime.NewTypeError("delay cannot be negative"))
	}
	return time.Duration(delayMs) * time.Millisecond
}

// wrapMiddleware exposes mw as a JS function, callable as a middleware by
// other JS middleware, i.e. with `this` a proxy, and (event, next?).
func (a *Adapter) wrapMiddleware(mw eventproxy.Middleware) *goja.Object {
	fn := a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		proxy, err := a.unwrapProxy(call.This)
		if err != nil {
			panic(a.runtime.NewTypeError("middleware: %s", err))
		}
		event, err := a.unwrapEvent(call.Argument(0))
		if err != nil {
			panic(a.runtime.NewTypeError("middleware: %s", err))
		}
		var next eventproxy.Next
		if callable, ok := goja.AssertFunction(call.Argument(1)); ok {
			next = func() {
				if _, err := callable(goja.Undefined()); err != nil {
					panic(err)
				}
			}
		}
		mw(proxy, event, next)
		return goja.Undefined()
	}).ToObject(a.runtime)
	_ = fn.Set("_middleware", &nativeMiddleware{mw: mw})
	return fn
}

// toMiddleware converts a value passed to use, panicking with a TypeError if
// it is not a function.
func (a *Adapter) toMiddleware(this *goja.Object, v goja.Value) eventproxy.Middleware {
	if obj, ok := v.(*goja.Object); ok {
		if m := obj.Get("_middleware"); m != nil {
			if native, ok := m.Export().(*nativeMiddleware); ok {
				return native.mw
			}
		}
	}

	callable, ok := goja.AssertFunction(v)
	if !ok {
		panic(a.runtime.NewTypeError("use requires a function as first argument"))
	}

	return func(_ *eventproxy.EventProxy, e *dom.Event, next eventproxy.Next) {
		nextValue := goja.Undefined()
		if next != nil {
			nextValue = a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
				next()
				return goja.Undefined()
			})
		}
		if _, err := callable(this, a.eventObject(e), nextValue); err != nil {
			panic(err)
		}
	}
}

// toHandler converts a value passed to on or one.
func (a *Adapter) toHandler(this *goja.Object, v goja.Value, name string) eventproxy.Handler {
	callable, ok := goja.AssertFunction(v)
	if !ok {
		panic(a.runtime.NewTypeError("%s requires a function as first argument", name))
	}
	return func(e *dom.Event) {
		if _, err := callable(this, a.eventObject(e)); err != nil {
			panic(err)
		}
	}
}

func stringArg(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ``
	}
	return v.String()
}
