package eventproxy

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-eventproxy/dom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testHTML = `<!DOCTYPE html>
<html>
<body>
  <div id="app">
    <ul id="list">
      <li id="a" class="item active"><span id="a-label" class="label">A</span></li>
      <li id="b" class="item"><span id="b-label" class="label">B</span></li>
      <li id="outer" class="item">
        <div id="inner" class="item"><em id="deep">deep</em></div>
      </li>
    </ul>
    <button id="button" class="item">outside list</button>
  </div>
</body>
</html>`

var errFakeTimerNotFound = errors.New(`fake timer not found`)

// fakeTimers is a deterministic, manually advanced implementation of Timers.
// Callbacks run synchronously, on the goroutine calling Advance.
type fakeTimers struct {
	timers map[uint64]*fakeTimer
	err    error
	now    time.Duration
	nextID uint64
}

type fakeTimer struct {
	fn   func()
	when time.Duration
	id   uint64
}

var _ Timers = (*fakeTimers)(nil)

func newFakeTimers() *fakeTimers {
	return &fakeTimers{timers: make(map[uint64]*fakeTimer)}
}

func (x *fakeTimers) SetTimeout(fn eventloop.SetTimeoutFunc, delayMs int) (uint64, error) {
	if x.err != nil {
		return 0, x.err
	}
	if fn == nil {
		return 0, nil
	}
	if delayMs < 0 {
		delayMs = 0
	}
	x.nextID++
	x.timers[x.nextID] = &fakeTimer{
		fn:   fn,
		when: x.now + time.Duration(delayMs)*time.Millisecond,
		id:   x.nextID,
	}
	return x.nextID, nil
}

func (x *fakeTimers) ClearTimeout(id uint64) error {
	if _, ok := x.timers[id]; !ok {
		return errFakeTimerNotFound
	}
	delete(x.timers, id)
	return nil
}

// Now returns the virtual time elapsed.
func (x *fakeTimers) Now() time.Duration { return x.now }

// Pending returns the number of scheduled timers.
func (x *fakeTimers) Pending() int { return len(x.timers) }

// AdvanceTo runs every timer due at or before t, in deadline order (then
// scheduling order), including timers scheduled by those callbacks.
func (x *fakeTimers) AdvanceTo(t time.Duration) {
	for {
		var due []*fakeTimer
		for _, v := range x.timers {
			if v.when <= t {
				due = append(due, v)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].when != due[j].when {
				return due[i].when < due[j].when
			}
			return due[i].id < due[j].id
		})
		next := due[0]
		delete(x.timers, next.id)
		x.now = next.when
		next.fn()
	}
	if t > x.now {
		x.now = t
	}
}

// Advance is AdvanceTo(Now() + d).
func (x *fakeTimers) Advance(d time.Duration) { x.AdvanceTo(x.now + d) }

func mustParse(t testing.TB) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(testHTML)
	require.NoError(t, err)
	return doc
}

func mustElement(t testing.TB, doc *dom.Document, selector string) *dom.Element {
	t.Helper()
	e, err := doc.QuerySelector(selector)
	require.NoError(t, err)
	require.NotNil(t, e, selector)
	return e
}

func mustProxy(t testing.TB, f *Factory, eventName string, selectors ...string) *EventProxy {
	t.Helper()
	p, err := f.New(eventName, selectors...)
	require.NoError(t, err)
	return p
}

// click dispatches a bubbling click on the element matching selector.
func click(t testing.TB, doc *dom.Document, selector string) *dom.Event {
	t.Helper()
	e := dom.NewEventWithOptions(`click`, true, true)
	_, err := doc.Dispatch(selector, e)
	require.NoError(t, err)
	return e
}

// triggers returns a handler recording the id of each trigger element.
func triggers(ids *[]string) Handler {
	return func(e *dom.Event) {
		*ids = append(*ids, e.TriggerElement.ID())
	}
}

// counter returns a middleware incrementing n, then continuing.
func counter(n *int) Middleware {
	return func(_ *EventProxy, _ *dom.Event, next Next) {
		*n++
		if next != nil {
			next()
		}
	}
}

func newTestMetrics(t testing.TB) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}
