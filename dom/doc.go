// Package dom implements a small, in-memory host DOM over
// [golang.org/x/net/html] nodes, sufficient to drive event delegation from Go.
//
// # Elements
//
// A [Document] wraps a parsed node tree, and hands out stable [*Element]
// wrappers (one per node), so element identity may be compared with ==.
// Selector matching uses CSS selectors (via cascadia), compiled once per
// document and cached. XPath queries are available via [Document.QueryXPath].
//
// # Events
//
// Listeners are registered per element, keyed by event type, capture flag and
// a [ListenerID]. Go function values cannot be compared for equality, so the
// ID stands in for the listener's identity, and must be supplied (along with
// the matching capture flag) to remove it.
//
// [Element.DispatchEvent] follows the DOM dispatch algorithm, in simplified
// form:
//
//  1. Capture: capture listeners on each ancestor, outermost first.
//  2. At target: capture listeners, then non-capture listeners, on the target.
//  3. Bubble: if [Event.Bubbles], non-capture listeners on each ancestor,
//     innermost first.
//
// Listeners removed during a dispatch, that have not yet been invoked, are not
// invoked. Panics raised by listeners propagate to the DispatchEvent caller.
//
// # Thread Safety
//
// Listener registration is guarded by a mutex, and is safe for concurrent use.
// Dispatch, and tree mutation (attributes and classes), are NOT, and should
// happen on a single goroutine, typically an event loop.
package dom
