// Copyright 2026 Joseph Cumines

package gojaeventproxy

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/joeycumines/go-eventproxy"
	"github.com/joeycumines/go-eventproxy/dom"
)

// proxyObject creates a JS object wrapping proxy.
//
// JavaScript usage:
//
//	const p = $e('click', '#menu', '.item');
//	p.use(fn).on(handler);  // chainable
//	p.off();                // returns p
//	p.destroy();            // returns undefined
//	p.listening;            // boolean
func (a *Adapter) proxyObject(proxy *eventproxy.EventProxy) *goja.Object {
	obj := a.runtime.NewObject()

	_ = obj.Set("_proxy", proxy)

	a.defineGetter(obj, "id", func() any { return proxy.ID() })
	a.defineGetter(obj, "eventName", func() any { return proxy.EventName() })
	a.defineGetter(obj, "proxySelector", func() any { return proxy.ProxySelector() })
	a.defineGetter(obj, "targetSelector", func() any { return proxy.TargetSelector() })
	a.defineGetter(obj, "listening", func() any { return proxy.Listening() })
	a.defineGetter(obj, "destroyed", func() any { return proxy.Destroyed() })
	a.defineGetter(obj, "proxyElement", func() any { return a.elementValue(proxy.Ancestor()) })

	_ = obj.Set("use", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		proxy.Use(a.toMiddleware(obj, call.Argument(0)))
		return obj
	}))

	_ = obj.Set("on", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		proxy.On(a.toHandler(obj, call.Argument(0), "on"))
		return obj
	}))

	_ = obj.Set("one", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		proxy.One(a.toHandler(obj, call.Argument(0), "one"))
		return obj
	}))

	_ = obj.Set("off", a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
		proxy.Off()
		return obj
	}))

	_ = obj.Set("destroy", a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
		proxy.Destroy()
		return goja.Undefined()
	}))

	_ = obj.Set("setTargetSelector", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		if err := proxy.SetTargetSelector(stringArg(call.Argument(0))); err != nil {
			panic(a.runtime.NewTypeError("%s", err))
		}
		return obj
	}))

	return obj
}

// unwrapProxy extracts the proxy from an object created by proxyObject.
func (a *Adapter) unwrapProxy(val goja.Value) (*eventproxy.EventProxy, error) {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("expected proxy object")
	}
	v := obj.Get("_proxy")
	if v == nil || goja.IsUndefined(v) {
		return nil, fmt.Errorf("not a proxy object")
	}
	proxy, ok := v.Export().(*eventproxy.EventProxy)
	if !ok || proxy == nil {
		return nil, fmt.Errorf("not a proxy object")
	}
	return proxy, nil
}

// eventObject returns the JS object for e, created on first use, then cached
// on the event so every middleware of every chain run sees the same object.
func (a *Adapter) eventObject(e *dom.Event) *goja.Object {
	if obj, ok := e.Value(a).(*goja.Object); ok {
		return obj
	}

	obj := a.runtime.NewObject()
	e.SetValue(a, obj)

	_ = obj.Set("_event", e)
	_ = obj.Set("type", e.Type)
	_ = obj.Set("bubbles", e.Bubbles)
	_ = obj.Set("cancelable", e.Cancelable)
	_ = obj.Set("timeStamp", e.TimeStamp.UnixMilli())

	a.defineGetter(obj, "detail", func() any { return e.Detail })
	a.defineGetter(obj, "target", func() any { return a.elementValue(e.Target) })
	a.defineGetter(obj, "currentTarget", func() any { return a.elementValue(e.CurrentTarget) })
	a.defineGetter(obj, "proxyElement", func() any { return a.elementValue(e.ProxyElement) })
	a.defineGetter(obj, "triggerElement", func() any { return a.elementValue(e.TriggerElement) })
	a.defineGetter(obj, "eventPhase", func() any { return int(e.Phase) })
	a.defineGetter(obj, "defaultPrevented", func() any { return e.DefaultPrevented })

	_ = obj.Set("preventDefault", a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
		e.PreventDefault()
		return goja.Undefined()
	}))
	_ = obj.Set("stopPropagation", a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
		e.StopPropagation()
		return goja.Undefined()
	}))
	_ = obj.Set("stopImmediatePropagation", a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
		e.StopImmediatePropagation()
		return goja.Undefined()
	}))

	return obj
}

// unwrapEvent extracts the event from an object created by eventObject.
func (a *Adapter) unwrapEvent(val goja.Value) (*dom.Event, error) {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("expected event object")
	}
	v := obj.Get("_event")
	if v == nil || goja.IsUndefined(v) {
		return nil, fmt.Errorf("not an event object")
	}
	e, ok := v.Export().(*dom.Event)
	if !ok || e == nil {
		return nil, fmt.Errorf("not an event object")
	}
	return e, nil
}

// elementValue returns null for a nil element.
func (a *Adapter) elementValue(el *dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	return a.elementObject(el)
}

// elementObject returns the JS object for el, which is cached, to preserve
// identity (e.g. e.triggerElement === document.querySelector(...)).
func (a *Adapter) elementObject(el *dom.Element) *goja.Object {
	if obj, ok := a.elements[el]; ok {
		return obj
	}

	obj := a.runtime.NewObject()
	a.elements[el] = obj

	_ = obj.Set("_element", el)
	_ = obj.Set("tagName", el.TagName())

	a.defineGetter(obj, "id", func() any { return el.ID() })
	a.defineGetter(obj, "className", func() any {
		v, _ := el.Attr(`class`)
		return v
	})
	a.defineGetter(obj, "parentElement", func() any { return a.elementValue(el.Parent()) })

	_ = obj.Set("getAttribute", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		if v, ok := el.Attr(stringArg(call.Argument(0))); ok {
			return a.runtime.ToValue(v)
		}
		return goja.Null()
	}))
	_ = obj.Set("setAttribute", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		el.SetAttr(stringArg(call.Argument(0)), stringArg(call.Argument(1)))
		return goja.Undefined()
	}))
	_ = obj.Set("removeAttribute", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		el.RemoveAttr(stringArg(call.Argument(0)))
		return goja.Undefined()
	}))
	_ = obj.Set("matches", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		ok, err := el.Matches(stringArg(call.Argument(0)))
		if err != nil {
			panic(a.runtime.NewTypeError("%s", err))
		}
		return a.runtime.ToValue(ok)
	}))
	_ = obj.Set("contains", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		other, err := a.unwrapElement(call.Argument(0))
		if err != nil {
			return a.runtime.ToValue(false)
		}
		return a.runtime.ToValue(el.Contains(other))
	}))
	_ = obj.Set("toString", a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
		return a.runtime.ToValue(el.String())
	}))

	classList := a.runtime.NewObject()
	_ = classList.Set("add", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			el.AddClass(stringArg(arg))
		}
		return goja.Undefined()
	}))
	_ = classList.Set("remove", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			el.RemoveClass(stringArg(arg))
		}
		return goja.Undefined()
	}))
	_ = classList.Set("contains", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		return a.runtime.ToValue(el.HasClass(stringArg(call.Argument(0))))
	}))
	_ = classList.Set("toggle", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		class := stringArg(call.Argument(0))
		if el.RemoveClass(class) {
			return a.runtime.ToValue(false)
		}
		el.AddClass(class)
		return a.runtime.ToValue(true)
	}))
	_ = obj.Set("classList", classList)

	return obj
}

// unwrapElement extracts the element from an object created by
// elementObject.
func (a *Adapter) unwrapElement(val goja.Value) (*dom.Element, error) {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("expected element object")
	}
	v := obj.Get("_element")
	if v == nil || goja.IsUndefined(v) {
		return nil, fmt.Errorf("not an element object")
	}
	el, ok := v.Export().(*dom.Element)
	if !ok || el == nil {
		return nil, fmt.Errorf("not an element object")
	}
	return el, nil
}

// documentObject creates the `document` global.
//
// JavaScript usage:
//
//	document.body
//	document.querySelector('#menu')         // → element | null
//	document.querySelectorAll('.item')      // → element[]
//	document.dispatch('#menu .item', 'click', {bubbles: true, cancelable: true, detail: 1})
func (a *Adapter) documentObject() *goja.Object {
	doc := a.Document()
	obj := a.runtime.NewObject()

	a.defineGetter(obj, "body", func() any { return a.elementValue(doc.Body()) })

	_ = obj.Set("querySelector", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		el, err := doc.QuerySelector(stringArg(call.Argument(0)))
		if err != nil {
			panic(a.runtime.NewTypeError("%s", err))
		}
		return a.elementValue(el)
	}))

	_ = obj.Set("querySelectorAll", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		elements, err := doc.QuerySelectorAll(stringArg(call.Argument(0)))
		if err != nil {
			panic(a.runtime.NewTypeError("%s", err))
		}
		values := make([]any, len(elements))
		for i, el := range elements {
			values[i] = a.elementObject(el)
		}
		return a.runtime.NewArray(values...)
	}))

	_ = obj.Set("dispatch", a.runtime.ToValue(func(call goja.FunctionCall) goja.Value {
		selector := stringArg(call.Argument(0))
		eventType := stringArg(call.Argument(1))
		if eventType == `` {
			panic(a.runtime.NewTypeError("dispatch requires an event type"))
		}

		bubbles, cancelable := true, true
		var detail any
		if init, ok := call.Argument(2).(*goja.Object); ok {
			if v := init.Get("bubbles"); v != nil && !goja.IsUndefined(v) {
				bubbles = v.ToBoolean()
			}
			if v := init.Get("cancelable"); v != nil && !goja.IsUndefined(v) {
				cancelable = v.ToBoolean()
			}
			if v := init.Get("detail"); v != nil && !goja.IsUndefined(v) {
				detail = v.Export()
			}
		}

		e := dom.NewEventWithOptions(eventType, bubbles, cancelable)
		e.Detail = detail

		ok, err := doc.Dispatch(selector, e)
		if err != nil {
			panic(a.runtime.NewTypeError("%s", err))
		}
		return a.runtime.ToValue(ok)
	}))

	return obj
}

func (a *Adapter) defineGetter(obj *goja.Object, name string, get func() any) {
	_ = obj.DefineAccessorProperty(name,
		a.runtime.ToValue(func(goja.FunctionCall) goja.Value {
			return a.runtime.ToValue(get())
		}),
		nil,
		goja.FLAG_FALSE,
		goja.FLAG_TRUE,
	)
}
