package dom

import (
	"time"
)

// Phase is the dispatch phase an [Event] is currently in.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return `none`
	case PhaseCapturing:
		return `capturing`
	case PhaseAtTarget:
		return `at-target`
	case PhaseBubbling:
		return `bubbling`
	default:
		return `unknown`
	}
}

// Event is dispatched by [Element.DispatchEvent].
//
// Event is NOT safe for concurrent access.
type Event struct { //nolint:govet // betteralign:ignore
	// Type is the name of the event, e.g. "click".
	Type string

	// Target is the element the event was dispatched on (its origin).
	Target *Element

	// CurrentTarget is the element whose listeners are being invoked, and is
	// nil outside of dispatch.
	CurrentTarget *Element

	// ProxyElement is the ancestor a delegated listener is bound to. It is
	// set by delegation, prior to running a middleware chain.
	ProxyElement *Element

	// TriggerElement is the node, along the path from Target up to
	// ProxyElement, that matched the delegation's target selector.
	TriggerElement *Element

	// Detail is arbitrary data, as per CustomEvent.
	Detail any

	// TimeStamp is when the event was created.
	TimeStamp time.Time

	// Phase is the current dispatch phase.
	Phase Phase

	// Bubbles indicates whether the event bubbles up the tree.
	Bubbles bool

	// Cancelable indicates whether PreventDefault has any effect.
	Cancelable bool

	// DefaultPrevented is true if PreventDefault() was called on a
	// cancelable event.
	DefaultPrevented bool

	values                      map[any]any
	propagationStopped          bool
	immediatePropagationStopped bool
}

// NewEvent creates an event that does not bubble, and is not cancelable.
func NewEvent(eventType string) *Event {
	return &Event{Type: eventType, TimeStamp: time.Now()}
}

// NewEventWithOptions creates an event with the specified options.
func NewEventWithOptions(eventType string, bubbles, cancelable bool) *Event {
	return &Event{
		Type:       eventType,
		Bubbles:    bubbles,
		Cancelable: cancelable,
		TimeStamp:  time.Now(),
	}
}

// NewCustomEvent creates a bubbling event carrying detail.
func NewCustomEvent(eventType string, detail any) *Event {
	e := NewEventWithOptions(eventType, true, false)
	e.Detail = detail
	return e
}

// PreventDefault marks the event as having its default action canceled, if
// it is cancelable.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.DefaultPrevented = true
	}
}

// StopPropagation prevents the event from reaching further elements. The
// remaining listeners of the current element are still invoked.
func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

// StopImmediatePropagation prevents any further listeners from being invoked.
func (e *Event) StopImmediatePropagation() {
	e.propagationStopped = true
	e.immediatePropagationStopped = true
}

// IsPropagationStopped returns true if StopPropagation or
// StopImmediatePropagation was called.
func (e *Event) IsPropagationStopped() bool { return e.propagationStopped }

// IsImmediatePropagationStopped returns true if StopImmediatePropagation was
// called.
func (e *Event) IsImmediatePropagationStopped() bool { return e.immediatePropagationStopped }

// Value returns a value previously stored with SetValue. Keys should be
// unexported types, as with context.Context.
func (e *Event) Value(key any) any {
	return e.values[key]
}

// SetValue associates a value with the event, for the lifetime of the event.
func (e *Event) SetValue(key, val any) {
	if e.values == nil {
		e.values = make(map[any]any)
	}
	e.values[key] = val
}
