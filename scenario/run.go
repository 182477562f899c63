package scenario

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-eventproxy"
	"github.com/joeycumines/go-eventproxy/dom"
	"github.com/joeycumines/logiface"
)

type (
	// Report is the result of [Scenario.Run].
	Report struct {
		Name        string
		Records     []Record
		Undelivered []Undelivered
		// Dispatched is the number of events delivered to an element.
		Dispatched int
		Elapsed    time.Duration
	}

	// Record is an event that reached the handler of a binding.
	Record struct {
		Binding string
		Type    string
		Target  string
		Trigger string
		Detail  string
		// Index is the position of the event in the scenario.
		Index int
		// At is the scheduled offset of the event.
		At time.Duration
		// Elapsed is when the handler ran, relative to the start of the run.
		Elapsed time.Duration
	}

	// Undelivered is an event whose target matched no element.
	Undelivered struct {
		Err    error
		Target string
		Index  int
	}

	// RunOption configures [Scenario.Run].
	RunOption func(*runConfig)

	runConfig struct {
		logger  *logiface.Logger[logiface.Event]
		metrics *eventproxy.Metrics
	}

	eventIndexKey struct{}
)

// WithLogger configures logging, for the run and its proxies.
func WithLogger(logger *logiface.Logger[logiface.Event]) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics configures metrics for the proxies of the run.
func WithMetrics(metrics *eventproxy.Metrics) RunOption {
	return func(c *runConfig) {
		c.metrics = metrics
	}
}

// Run replays the scenario on a new event loop, returning once every event
// has been dispatched and the settle period has elapsed, or ctx is done.
func (x *Scenario) Run(ctx context.Context, opts ...RunOption) (*Report, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	var cfg runConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	src, err := x.html()
	if err != nil {
		return nil, fmt.Errorf("scenario: html: %w", err)
	}
	doc, err := dom.Parse(src)
	_ = src.Close()
	if err != nil {
		return nil, fmt.Errorf("scenario: html: %w", err)
	}

	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("scenario: create loop: %w", err)
	}
	js, err := eventloop.NewJS(loop)
	if err != nil {
		return nil, fmt.Errorf("scenario: create JS adapter: %w", err)
	}

	state := &run{
		scenario: x,
		doc:      doc,
		js:       js,
		logger:   cfg.logger,
		factory: eventproxy.NewFactory(doc,
			eventproxy.WithLogger(cfg.logger),
			eventproxy.WithMetrics(cfg.metrics),
			eventproxy.WithTimers(js),
		),
		report:   &Report{Name: x.Name},
		finished: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- loop.Run(ctx)
	}()

	stop := func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = loop.Shutdown(shutdownCtx)
		<-runDone
	}

	setupDone := make(chan error, 1)
	if err := loop.Submit(func() { setupDone <- state.setup() }); err != nil {
		cancel()
		<-runDone
		return nil, fmt.Errorf("scenario: submit: %w", err)
	}

	select {
	case err = <-setupDone:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		select {
		case <-state.finished:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	stop()

	if err != nil {
		return nil, err
	}

	state.report.Elapsed = time.Since(state.start)

	cfg.logger.Info().
		Str(`scenario`, x.Name).
		Int(`dispatched`, state.report.Dispatched).
		Int(`handled`, len(state.report.Records)).
		Int(`undelivered`, len(state.report.Undelivered)).
		Dur(`elapsed`, state.report.Elapsed).
		Log(`scenario complete`)

	return state.report, nil
}

// run is the state of a single Scenario.Run, accessed only from the loop
// goroutine until the loop has stopped.
type run struct {
	start    time.Time
	scenario *Scenario
	doc      *dom.Document
	js       *eventloop.JS
	factory  *eventproxy.Factory
	logger   *logiface.Logger[logiface.Event]
	report   *Report
	finished chan struct{}
	// pending is the number of events not yet dispatched
	pending int
}

func (x *run) setup() error {
	x.start = time.Now()

	for i := range x.scenario.Bindings {
		if err := x.bind(i, &x.scenario.Bindings[i]); err != nil {
			return err
		}
	}

	var end time.Duration
	x.pending = len(x.scenario.Events)
	for i := range x.scenario.Events {
		event := &x.scenario.Events[i]
		end = max(end, event.At.Duration)
		if _, err := x.js.SetTimeout(func() { x.dispatch(i, event) }, millis(event.At.Duration)); err != nil {
			return fmt.Errorf("scenario: event %d: %w", i, err)
		}
	}

	return x.finishAfter(end + x.scenario.Settle.Duration)
}

// finishAfter closes finished after d, once every event was dispatched.
func (x *run) finishAfter(d time.Duration) error {
	_, err := x.js.SetTimeout(func() {
		if x.pending > 0 {
			if err := x.finishAfter(time.Millisecond); err != nil {
				x.logger.Err().Err(err).Log(`scenario failed to reschedule finish`)
				close(x.finished)
			}
			return
		}
		close(x.finished)
	}, millis(d))
	if err != nil {
		return fmt.Errorf("scenario: schedule finish: %w", err)
	}
	return nil
}

func (x *run) bind(index int, b *Binding) error {
	name := b.Name
	if name == `` {
		name = strconv.Itoa(index)
	}

	selectors := []string{b.Target}
	if b.Proxy != `` {
		selectors = []string{b.Proxy, b.Target}
	}

	proxy, err := x.factory.New(b.Event, selectors...)
	if err != nil {
		return fmt.Errorf("scenario: binding %d (%s): %w", index, name, err)
	}

	for i := range b.Middleware {
		mw, err := x.middleware(&b.Middleware[i])
		if err != nil {
			return fmt.Errorf("scenario: binding %d (%s): middleware %d: %w", index, name, i, err)
		}
		proxy.Use(mw)
	}

	handler := func(e *dom.Event) {
		if b.AddClass != `` {
			e.TriggerElement.AddClass(b.AddClass)
		}
		record := Record{
			Binding: name,
			Type:    e.Type,
			Target:  e.Target.String(),
			Trigger: e.TriggerElement.String(),
			Elapsed: time.Since(x.start),
			Index:   -1,
		}
		if i, ok := e.Value(eventIndexKey{}).(int); ok {
			record.Index = i
			record.At = x.scenario.Events[i].At.Duration
		}
		if detail, ok := e.Detail.(string); ok {
			record.Detail = detail
		}
		x.report.Records = append(x.report.Records, record)

		x.logger.Debug().
			Str(`binding`, record.Binding).
			Str(`type`, record.Type).
			Str(`trigger`, record.Trigger).
			Int(`index`, record.Index).
			Log(`scenario event handled`)
	}

	if b.Once {
		proxy.One(handler)
	} else {
		proxy.On(handler)
	}

	return nil
}

func (x *run) middleware(m *Middleware) (eventproxy.Middleware, error) {
	switch m.Type {
	case MiddlewareThrottle:
		return x.factory.Throttle(m.Delay.Duration), nil
	case MiddlewareDebounce:
		return x.factory.Debounce(m.Delay.Duration), nil
	case MiddlewareRemoveClass:
		if m.Class == `` {
			return eventproxy.RemoveActive, nil
		}
		return eventproxy.RemoveClass(m.Class), nil
	case MiddlewareRateLimit:
		rates, err := m.rates()
		if err != nil {
			return nil, err
		}
		return eventproxy.NewRateLimit(rates, nil)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMiddleware, m.Type)
	}
}

func (x *run) dispatch(index int, event *Event) {
	x.pending--

	e := dom.NewEventWithOptions(event.Type, boolOr(event.Bubbles, true), boolOr(event.Cancelable, true))
	if event.Detail != `` {
		e.Detail = event.Detail
	}
	e.SetValue(eventIndexKey{}, index)

	if _, err := x.doc.Dispatch(event.Target, e); err != nil {
		x.report.Undelivered = append(x.report.Undelivered, Undelivered{
			Err:    err,
			Target: event.Target,
			Index:  index,
		})
		x.logger.Warning().
			Int(`index`, index).
			Str(`target`, event.Target).
			Err(err).
			Log(`scenario event not delivered`)
		return
	}

	x.report.Dispatched++
}

func millis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if time.Duration(ms)*time.Millisecond < d {
		ms++
	}
	return int(ms)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
