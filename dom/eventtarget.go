package dom

// ListenerFunc is a callback for [Element.AddEventListener].
type ListenerFunc func(event *Event)

// ListenerID uniquely identifies a registered listener, within a document.
// In Go, functions cannot be reliably compared for equality, so an ID is
// generated for each registration, and is required to remove it.
type ListenerID uint64

// ListenerOptions mirrors the DOM addEventListener options object.
type ListenerOptions struct {
	// Capture registers the listener for the capture phase. The same value
	// must be supplied to RemoveEventListener.
	Capture bool
	// Once removes the listener after its first invocation.
	Once bool
}

type listenerEntry struct { //nolint:govet // betteralign:ignore
	id       ListenerID
	listener ListenerFunc
	capture  bool
	once     bool
	removed  bool // guarded by Document.mu
}

// AddEventListener registers a listener for events of the specified type,
// returning an ID that may be used to remove it. Returns 0 (registering
// nothing) if listener is nil.
//
// Thread Safety: Safe to call concurrently.
func (e *Element) AddEventListener(eventType string, listener ListenerFunc, options ListenerOptions) ListenerID {
	if listener == nil {
		return 0
	}

	id := ListenerID(e.doc.nextListenerID.Add(1))

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string][]*listenerEntry)
	}
	e.listeners[eventType] = append(e.listeners[eventType], &listenerEntry{
		id:       id,
		listener: listener,
		capture:  options.Capture,
		once:     options.Once,
	})

	return id
}

// RemoveEventListener removes the listener identified by id, which must have
// been registered with the same event type and capture flag. Returns true if
// a listener was removed. Removing an unknown listener is a no-op.
//
// Thread Safety: Safe to call concurrently.
func (e *Element) RemoveEventListener(eventType string, id ListenerID, capture bool) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.removeListenerLocked(eventType, func(entry *listenerEntry) bool {
		return entry.id == id && entry.capture == capture
	})
}

// RemoveAllEventListeners removes all listeners for the specified event type,
// or for all types, if eventType is empty.
//
// Thread Safety: Safe to call concurrently.
func (e *Element) RemoveAllEventListeners(eventType string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for t, entries := range e.listeners {
		if eventType != `` && t != eventType {
			continue
		}
		for _, entry := range entries {
			entry.removed = true
		}
		delete(e.listeners, t)
	}
}

// ListenerCount returns the number of listeners registered for the event
// type, in the given phase.
//
// Thread Safety: Safe to call concurrently.
func (e *Element) ListenerCount(eventType string, capture bool) (n int) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for _, entry := range e.listeners[eventType] {
		if entry.capture == capture {
			n++
		}
	}
	return n
}

func (e *Element) removeListenerLocked(eventType string, match func(entry *listenerEntry) bool) bool {
	entries := e.listeners[eventType]
	for i, entry := range entries {
		if match(entry) {
			entry.removed = true
			// copy, as the backing array may be held by an in-progress dispatch
			next := make([]*listenerEntry, 0, len(entries)-1)
			next = append(next, entries[:i]...)
			next = append(next, entries[i+1:]...)
			if len(next) == 0 {
				delete(e.listeners, eventType)
			} else {
				e.listeners[eventType] = next
			}
			return true
		}
	}
	return false
}

// DispatchEvent dispatches event with e as its target, through the capture,
// at-target and (if the event bubbles) bubble phases. See the package
// documentation for details.
//
// Returns false if the event is cancelable and PreventDefault was called.
//
// Panics raised by listeners propagate to the caller, leaving the event
// partially dispatched.
func (e *Element) DispatchEvent(event *Event) bool {
	if event == nil {
		return true
	}

	event.Target = e
	event.propagationStopped = false
	event.immediatePropagationStopped = false

	// ancestors, innermost first
	var path []*Element
	for p := e.Parent(); p != nil; p = p.Parent() {
		path = append(path, p)
	}

	defer func() {
		event.Phase = PhaseNone
		event.CurrentTarget = nil
	}()

	event.Phase = PhaseCapturing
	for i := len(path) - 1; i >= 0 && !event.propagationStopped; i-- {
		path[i].invokeListeners(event, true)
	}

	if !event.propagationStopped {
		event.Phase = PhaseAtTarget
		e.invokeListeners(event, true)
		if !event.propagationStopped {
			e.invokeListeners(event, false)
		}
	}

	if event.Bubbles {
		event.Phase = PhaseBubbling
		for i := 0; i < len(path) && !event.propagationStopped; i++ {
			path[i].invokeListeners(event, false)
		}
	}

	return !event.Cancelable || !event.DefaultPrevented
}

func (e *Element) invokeListeners(event *Event, capture bool) {
	e.doc.mu.RLock()
	entries := e.listeners[event.Type]
	e.doc.mu.RUnlock()

	if len(entries) == 0 {
		return
	}

	event.CurrentTarget = e

	for _, entry := range entries {
		if event.immediatePropagationStopped {
			return
		}
		if entry.capture != capture {
			continue
		}

		e.doc.mu.Lock()
		removed := entry.removed
		if !removed && entry.once {
			e.removeListenerLocked(event.Type, func(v *listenerEntry) bool { return v == entry })
		}
		e.doc.mu.Unlock()

		if removed {
			continue
		}

		entry.listener(event)

		// listeners may have re-targeted CurrentTarget via nested dispatch
		event.CurrentTarget = e
	}
}
