package eventproxy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joeycumines/go-eventproxy/dom"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_New_selectors(t *testing.T) {
	doc := mustParse(t)
	f := NewFactory(doc)

	for _, tc := range [...]struct {
		name      string
		selectors []string
		proxy     string
		target    string
		ancestor  string
	}{
		{
			name:      `target only`,
			selectors: []string{`.item`},
			target:    `.item`,
			ancestor:  `body`,
		},
		{
			name:      `proxy and target`,
			selectors: []string{`#list`, `.item`},
			proxy:     `#list`,
			target:    `.item`,
			ancestor:  `ul#list`,
		},
		{
			name:      `empty target`,
			selectors: []string{`#list`, ``},
			target:    `#list`,
			ancestor:  `body`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := f.New(`click`, tc.selectors...)
			require.NoError(t, err)
			assert.Equal(t, `click`, p.EventName())
			assert.Equal(t, tc.proxy, p.ProxySelector())
			assert.Equal(t, tc.target, p.TargetSelector())
			assert.Equal(t, tc.ancestor, p.Ancestor().String())
			assert.Same(t, doc, p.Document())
			assert.NotEmpty(t, p.ID())
			assert.False(t, p.Listening())
			assert.False(t, p.Destroyed())
			assert.Equal(t, 0, p.Len())
		})
	}
}

func TestFactory_New_uniqueIDs(t *testing.T) {
	f := NewFactory(mustParse(t))
	a := mustProxy(t, f, `click`, `.item`)
	b := mustProxy(t, f, `click`, `.item`)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestFactory_New_errors(t *testing.T) {
	doc := mustParse(t)
	f := NewFactory(doc)

	for _, tc := range [...]struct {
		name      string
		eventName string
		selectors []string
		target    error
	}{
		{name: `no event name`, selectors: []string{`.item`}, target: ErrNoEventName},
		{name: `no selectors`, eventName: `click`, target: ErrNoTargetSelector},
		{name: `empty selector`, eventName: `click`, selectors: []string{``}, target: ErrNoTargetSelector},
		{name: `both empty`, eventName: `click`, selectors: []string{``, ``}, target: ErrNoTargetSelector},
		{name: `too many`, eventName: `click`, selectors: []string{`#app`, `#list`, `.item`}, target: ErrTooManySelectors},
		{name: `proxy not found`, eventName: `click`, selectors: []string{`#missing`, `.item`}, target: ErrProxyNotFound},
		{name: `invalid target`, eventName: `click`, selectors: []string{`#list`, `[`}, target: dom.ErrInvalidSelector},
		{name: `invalid proxy`, eventName: `click`, selectors: []string{`[`, `.item`}, target: dom.ErrInvalidSelector},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := f.New(tc.eventName, tc.selectors...)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tc.target)
			assert.True(t, IsConfigError(err))
		})
	}

	t.Run(`nil document`, func(t *testing.T) {
		p, err := New(nil, `click`, `.item`)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrNilDocument)
		assert.True(t, IsConfigError(err))
	})

	assert.False(t, IsConfigError(nil))
	assert.False(t, IsConfigError(errors.New(`some other error`)))
}

func TestEventProxy_On_bodyDefault(t *testing.T) {
	doc := mustParse(t)
	p, err := New(doc, `click`, `.item`)
	require.NoError(t, err)

	var (
		ids   []string
		proxy *dom.Element
	)
	assert.Same(t, p, p.On(func(e *dom.Event) {
		ids = append(ids, e.TriggerElement.ID())
		proxy = e.ProxyElement
	}))
	assert.True(t, p.Listening())
	assert.Equal(t, 1, doc.Body().ListenerCount(`click`, true))

	click(t, doc, `#a-label`)
	assert.Equal(t, []string{`a`}, ids)
	assert.Same(t, doc.Body(), proxy)

	click(t, doc, `#button`)
	assert.Equal(t, []string{`a`, `button`}, ids)

	// non-matching elements, all the way up
	click(t, doc, `#app`)
	assert.Equal(t, []string{`a`, `button`}, ids)
}

func TestEventProxy_On_singleSelectorListensOnBody(t *testing.T) {
	// a single selector must be treated as the target, not the ancestor
	doc := mustParse(t)
	p, err := New(doc, `click`, `li`)
	require.NoError(t, err)
	var ids []string
	p.On(triggers(&ids))

	click(t, doc, `#b-label`)

	assert.Equal(t, []string{`b`}, ids)
	assert.Equal(t, 0, mustElement(t, doc, `li`).ListenerCount(`click`, true))
}

func TestEventProxy_On_nestedMatchesInnermostFirst(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.On(triggers(&ids))

	click(t, doc, `#deep`)

	assert.Equal(t, []string{`inner`, `outer`}, ids)
}

func TestEventProxy_On_excludesAncestor(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#app`, `div`)
	var ids []string
	p.On(triggers(&ids))

	click(t, doc, `#deep`)
	assert.Equal(t, []string{`inner`}, ids)

	click(t, doc, `#app`)
	assert.Equal(t, []string{`inner`}, ids)
}

func TestEventProxy_On_outsideAncestor(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.On(triggers(&ids))

	click(t, doc, `#button`)

	assert.Empty(t, ids)
}

func TestEventProxy_On_otherEventTypes(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `.item`)
	var ids []string
	p.On(triggers(&ids))

	_, err := doc.Dispatch(`#a`, dom.NewEventWithOptions(`keyup`, true, true))
	require.NoError(t, err)

	assert.Empty(t, ids)
}

func TestEventProxy_On_capturePhase(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var calls []string
	p.On(func(e *dom.Event) {
		calls = append(calls, `proxy:`+e.Phase.String())
	})
	mustElement(t, doc, `#a-label`).AddEventListener(`click`, func(e *dom.Event) {
		calls = append(calls, `target`)
		e.StopPropagation()
	}, dom.ListenerOptions{})

	click(t, doc, `#a-label`)

	assert.Equal(t, []string{`proxy:capturing`, `target`}, calls)
}

func TestEventProxy_On_nonBubblingEvents(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `focus`, `#list`, `.item`)
	var ids []string
	p.On(triggers(&ids))

	_, err := doc.Dispatch(`#b-label`, dom.NewEvent(`focus`))
	require.NoError(t, err)

	assert.Equal(t, []string{`b`}, ids)
}

func TestEventProxy_On_twice(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var runs, first, second int
	p.Use(counter(&runs))
	p.On(func(*dom.Event) { first++ })
	p.On(func(*dom.Event) { second++ })

	assert.Equal(t, 1, p.Ancestor().ListenerCount(`click`, true))
	assert.Equal(t, 3, p.Len())

	click(t, doc, `#b`)

	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestEventProxy_Use_order(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var calls []string
	step := func(name string) Middleware {
		return func(_ *EventProxy, _ *dom.Event, next Next) {
			calls = append(calls, name)
			if next != nil {
				next()
			}
		}
	}

	p.Use(step(`before-1`)).
		Use(step(`before-2`)).
		On(func(*dom.Event) { calls = append(calls, `handler`) }).
		Use(step(`after`))

	click(t, doc, `#b`)

	assert.Equal(t, []string{`before-1`, `before-2`, `handler`, `after`}, calls)
}

func TestEventProxy_Use_receivesProxyAndAnnotatedEvent(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `li`)
	var (
		gotProxy *EventProxy
		gotEvent *dom.Event
	)
	p.Use(func(proxy *EventProxy, e *dom.Event, next Next) {
		gotProxy, gotEvent = proxy, e
		assert.NotNil(t, next)
	})
	p.On(func(*dom.Event) { t.Error(`handler should not be reached`) })

	e := click(t, doc, `#a-label`)

	assert.Same(t, p, gotProxy)
	assert.Same(t, e, gotEvent)
	assert.Equal(t, `a-label`, e.Target.ID())
	assert.Equal(t, `a`, e.TriggerElement.ID())
	assert.Equal(t, `list`, e.ProxyElement.ID())
}

func TestEventProxy_Use_nilPanics(t *testing.T) {
	p := mustProxy(t, NewFactory(mustParse(t)), `click`, `.item`)
	assert.PanicsWithValue(t, `eventproxy: nil middleware passed to Use`, func() { p.Use(nil) })
	assert.PanicsWithValue(t, `eventproxy: nil handler passed to On`, func() { p.On(nil) })
	assert.PanicsWithValue(t, `eventproxy: nil handler passed to One`, func() { p.One(nil) })
}

func TestEventProxy_One(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	assert.Same(t, p, p.One(triggers(&ids)))
	assert.True(t, p.Listening())

	click(t, doc, `#a`)
	assert.Equal(t, []string{`a`}, ids)
	assert.False(t, p.Listening())
	assert.Equal(t, 0, p.Ancestor().ListenerCount(`click`, true))

	click(t, doc, `#a`)
	click(t, doc, `#b`)
	assert.Equal(t, []string{`a`}, ids)
}

func TestEventProxy_One_nestedMatchesSuppressed(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.One(triggers(&ids))

	click(t, doc, `#deep`)

	assert.Equal(t, []string{`inner`}, ids)
}

func TestEventProxy_One_droppedEventsDoNotUnbind(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var (
		ids  []string
		drop = true
	)
	p.Use(func(_ *EventProxy, _ *dom.Event, next Next) {
		if !drop {
			next()
		}
	})
	p.One(triggers(&ids))

	click(t, doc, `#a`)
	assert.Empty(t, ids)
	assert.True(t, p.Listening())

	drop = false
	click(t, doc, `#b`)
	assert.Equal(t, []string{`b`}, ids)
	assert.False(t, p.Listening())
}

func TestEventProxy_Off(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)

	// no-op while unbound
	p.Off()
	assert.False(t, p.Listening())

	var ids []string
	p.On(triggers(&ids))
	p.Off()
	p.Off()
	assert.False(t, p.Listening())
	assert.Equal(t, 0, p.Ancestor().ListenerCount(`click`, true))

	click(t, doc, `#a`)
	assert.Empty(t, ids)

	// the chain is retained
	assert.Equal(t, 1, p.Len())
	var more []string
	p.On(triggers(&more))
	assert.Equal(t, 2, p.Len())

	click(t, doc, `#a`)
	assert.Equal(t, []string{`a`}, ids)
	assert.Equal(t, []string{`a`}, more)
}

func TestEventProxy_Off_duringWalk(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.On(func(e *dom.Event) {
		ids = append(ids, e.TriggerElement.ID())
		p.Off()
	})

	click(t, doc, `#deep`)

	assert.Equal(t, []string{`inner`}, ids)
}

func TestEventProxy_Off_rebindDuringWalk(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.Use(func(_ *EventProxy, e *dom.Event, next Next) {
		ids = append(ids, e.TriggerElement.ID())
		if len(ids) == 1 {
			// replaces the binding, the current walk must stop
			p.On(func(*dom.Event) {})
		}
	})
	p.On(func(*dom.Event) {})

	click(t, doc, `#deep`)
	assert.Equal(t, []string{`inner`}, ids)

	click(t, doc, `#deep`)
	assert.Equal(t, []string{`inner`, `inner`, `outer`}, ids)
}

func TestEventProxy_Destroy(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.On(triggers(&ids))

	p.Destroy()
	assert.True(t, p.Destroyed())
	assert.False(t, p.Listening())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Ancestor().ListenerCount(`click`, true))

	// everything is a no-op afterwards
	p.Destroy()
	assert.Same(t, p, p.Use(counter(new(int))))
	assert.Same(t, p, p.On(triggers(&ids)))
	assert.Same(t, p, p.One(triggers(&ids)))
	p.Off()
	assert.False(t, p.Listening())
	assert.Equal(t, 0, p.Len())

	click(t, doc, `#a`)
	assert.Empty(t, ids)
}

func TestEventProxy_Destroy_beforeOn(t *testing.T) {
	p := mustProxy(t, NewFactory(mustParse(t)), `click`, `.item`)
	p.Destroy()
	assert.True(t, p.Destroyed())
	assert.False(t, p.Listening())
}

func TestEventProxy_Destroy_duringRun(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var (
		ids   []string
		after int
	)
	p.On(func(e *dom.Event) {
		ids = append(ids, e.TriggerElement.ID())
		p.Destroy()
	})
	p.Use(counter(&after))

	assert.NotPanics(t, func() { click(t, doc, `#deep`) })

	assert.Equal(t, []string{`inner`}, ids)
	// the current run completes
	assert.Equal(t, 1, after)
	assert.True(t, p.Destroyed())

	click(t, doc, `#deep`)
	assert.Equal(t, []string{`inner`}, ids)
}

func TestEventProxy_panicsPropagate(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var (
		ids      []string
		panicked = true
	)
	p.On(func(e *dom.Event) {
		ids = append(ids, e.TriggerElement.ID())
		if panicked {
			panic(`boom`)
		}
	})

	assert.PanicsWithValue(t, `boom`, func() { click(t, doc, `#a`) })
	assert.True(t, p.Listening())

	panicked = false
	click(t, doc, `#b`)
	assert.Equal(t, []string{`a`, `b`}, ids)
}

func TestEventProxy_SetTargetSelector(t *testing.T) {
	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc), `click`, `#list`, `.item`)
	var ids []string
	p.On(triggers(&ids))

	require.NoError(t, p.SetTargetSelector(`#b`))
	assert.Equal(t, `#b`, p.TargetSelector())

	click(t, doc, `#a-label`)
	click(t, doc, `#b-label`)
	assert.Equal(t, []string{`b`}, ids)

	assert.ErrorIs(t, p.SetTargetSelector(``), ErrNoTargetSelector)
	err := p.SetTargetSelector(`[`)
	assert.ErrorIs(t, err, dom.ErrInvalidSelector)
	assert.True(t, IsConfigError(err))
	assert.Equal(t, `#b`, p.TargetSelector())
}

func TestEventProxy_independentProxies(t *testing.T) {
	doc := mustParse(t)
	f := NewFactory(doc)
	var items, labels []string
	mustProxy(t, f, `click`, `#list`, `.item`).On(triggers(&items))
	labelProxy := mustProxy(t, f, `click`, `#list`, `.label`).On(triggers(&labels))

	assert.Equal(t, 2, mustElement(t, doc, `#list`).ListenerCount(`click`, true))

	click(t, doc, `#a-label`)
	labelProxy.Off()
	click(t, doc, `#b-label`)

	assert.Equal(t, []string{`a`, `b`}, items)
	assert.Equal(t, []string{`a-label`}, labels)
}

func TestEventProxy_metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	doc := mustParse(t)
	f := NewFactory(doc, WithMetrics(m))
	p := mustProxy(t, f, `click`, `#list`, `.item`)

	assert.Equal(t, float64(0), testutil.ToFloat64(m.listening))
	p.On(func(*dom.Event) {})
	p.On(func(*dom.Event) {})
	assert.Equal(t, float64(1), testutil.ToFloat64(m.listening))

	click(t, doc, `#deep`)
	click(t, doc, `#button`)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues(`click`)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.chainRuns.WithLabelValues(`click`)))

	p.Destroy()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.listening))

	count, err := testutil.GatherAndCount(reg,
		`eventproxy_events_total`,
		`eventproxy_chain_runs_total`,
		`eventproxy_listening`,
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = NewMetrics(reg)
	assert.Error(t, err, `duplicate registration`)
}

func TestEventProxy_nilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeEvent(`click`)
		m.observeChainRun(`click`)
		m.observeDropped(`throttle`)
		m.addListening(1)
	})

	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Len(t, m.Collectors(), 4)
}

func TestEventProxy_logging(t *testing.T) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()

	doc := mustParse(t)
	p := mustProxy(t, NewFactory(doc, WithLogger(logger)), `click`, `#list`, `.item`)
	assert.Same(t, logger, p.Logger())

	p.On(func(*dom.Event) {})
	click(t, doc, `#a`)
	p.Destroy()

	out := buf.String()
	for _, msg := range []string{
		`event proxy created`,
		`event proxy listening`,
		`running middleware chain`,
		`event proxy stopped listening`,
		`event proxy destroyed`,
	} {
		assert.Contains(t, out, `"msg":"`+msg+`"`)
	}
	assert.Contains(t, out, `"proxy":"`+p.ID()+`"`)
	assert.Contains(t, out, `"trigger":"li#a.item.active"`)
}

func TestEventProxy_nilLogger(t *testing.T) {
	var p *EventProxy
	assert.Nil(t, p.Logger())
	assert.Nil(t, p.getMetrics())
	assert.NotPanics(t, func() {
		p.Logger().Err().Str(`k`, `v`).Log(`nothing`)
	})
}
