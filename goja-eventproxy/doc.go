// Package gojaeventproxy exposes the [eventproxy] package to the [goja]
// JavaScript runtime, as the `$e` global, with a minimal `document` global to
// query and dispatch events against the bound [dom.Document].
//
// JavaScript usage:
//
//	$e('click', '#menu', '.item')
//	    .use($e.throttleMiddleware(100))
//	    .use($e.removeActiveMiddleware)
//	    .on(function (e) {
//	        e.triggerElement.classList.add('active');
//	    });
//
//	document.dispatch('#menu .item', 'click');
//
// JavaScript middleware are called with `this` set to the proxy, and receive
// the event and a `next` function, which is undefined for the last middleware
// of a chain. Exceptions thrown by JavaScript middleware or handlers propagate
// to whichever code dispatched the event.
//
// Throttle and debounce timers are scheduled using [eventloop.JS], so the
// runtime must only be used from the loop goroutine, e.g. via
// [eventloop.Loop.Submit].
package gojaeventproxy
