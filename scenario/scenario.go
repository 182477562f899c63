// Package scenario replays scripted DOM events through event proxies, on a
// real event loop, recording every handled event.
//
// Scenarios are TOML documents:
//
//	name = "menu"
//	settle = "150ms"
//	html = '''
//	<ul id="menu"><li id="a" class="item">A</li><li id="b" class="item">B</li></ul>
//	'''
//
//	[[binding]]
//	name = "items"
//	event = "click"
//	proxy = "#menu"
//	target = ".item"
//	add_class = "active"
//	middleware = [
//	    { type = "remove-class", class = "active" },
//	    { type = "throttle", delay = "100ms" },
//	]
//
//	[[event]]
//	at = "0s"
//	type = "click"
//	target = "#a"
//
// Supported middleware types are throttle, debounce (both with an optional
// delay), remove-class (with an optional class, defaulting to "active") and
// rate-limit (with rates, mapping a window to a maximum count).
package scenario

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/andybalholm/cascadia"
	"github.com/joeycumines/go-eventproxy"
)

// Middleware types.
const (
	MiddlewareThrottle    = `throttle`
	MiddlewareDebounce    = `debounce`
	MiddlewareRemoveClass = `remove-class`
	MiddlewareRateLimit   = `rate-limit`
)

type (
	// Scenario is a document, a set of proxy bindings, and a timeline of
	// events to dispatch.
	Scenario struct {
		Name     string    `toml:"name"`
		HTML     string    `toml:"html"`
		HTMLFile string    `toml:"html_file"`
		Settle   Duration  `toml:"settle"`
		Bindings []Binding `toml:"binding"`
		Events   []Event   `toml:"event"`

		// dir resolves HTMLFile, if relative
		dir string
	}

	// Binding configures one proxy, handled by recording the event, and
	// optionally adding a class to the trigger element.
	Binding struct {
		Name       string       `toml:"name"`
		Event      string       `toml:"event"`
		Proxy      string       `toml:"proxy"`
		Target     string       `toml:"target"`
		AddClass   string       `toml:"add_class"`
		Middleware []Middleware `toml:"middleware"`
		Once       bool         `toml:"once"`
	}

	// Middleware configures one link of a binding's chain, added in order,
	// before the handler.
	Middleware struct {
		Rates map[string]int `toml:"rates"`
		Type  string         `toml:"type"`
		Class string         `toml:"class"`
		Delay Duration       `toml:"delay"`
	}

	// Event is dispatched on the first element matching Target, At after the
	// start of the run. Events bubble and are cancelable unless configured
	// otherwise.
	Event struct {
		Bubbles    *bool    `toml:"bubbles"`
		Cancelable *bool    `toml:"cancelable"`
		Type       string   `toml:"type"`
		Target     string   `toml:"target"`
		Detail     string   `toml:"detail"`
		At         Duration `toml:"at"`
	}

	// Duration is a time.Duration encoded as a string, e.g. "150ms".
	Duration struct {
		time.Duration
	}
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Duration) UnmarshalText(text []byte) error {
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	x.Duration = d
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (x Duration) MarshalText() ([]byte, error) {
	return []byte(x.Duration.String()), nil
}

// Load decodes a scenario. Unknown keys are an error. The scenario is
// validated.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("%w: unknown keys: %v", ErrDecode, undecoded)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile is [Load] for a file. A relative html_file is resolved against
// the directory of path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Validate checks the scenario for errors that can be detected without
// running it. Selectors are compiled, but not matched against the document.
func (x *Scenario) Validate() error {
	if (x.HTML == ``) == (x.HTMLFile == ``) {
		return fmt.Errorf("%w: exactly one of html or html_file is required", ErrInvalidScenario)
	}
	if x.Settle.Duration < 0 {
		return fmt.Errorf("%w: negative settle", ErrInvalidScenario)
	}
	if len(x.Bindings) == 0 {
		return fmt.Errorf("%w: at least one binding is required", ErrInvalidScenario)
	}
	for i, b := range x.Bindings {
		if err := b.validate(); err != nil {
			return fmt.Errorf("binding %d (%s): %w", i, b.Name, err)
		}
	}
	for i, e := range x.Events {
		if err := e.validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func (x *Binding) validate() error {
	if x.Event == `` {
		return fmt.Errorf("%w: event is required", ErrInvalidBinding)
	}
	if x.Target == `` {
		return fmt.Errorf("%w: target is required", ErrInvalidBinding)
	}
	for _, sel := range [...]string{x.Proxy, x.Target} {
		if sel == `` {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("%w: selector %q: %v", ErrInvalidBinding, sel, err)
		}
	}
	for i, m := range x.Middleware {
		if err := m.validate(); err != nil {
			return fmt.Errorf("middleware %d: %w", i, err)
		}
	}
	return nil
}

func (x *Middleware) validate() error {
	switch x.Type {
	case MiddlewareThrottle, MiddlewareDebounce:
		if x.Delay.Duration < 0 {
			return fmt.Errorf("%w: %s: negative delay", ErrInvalidMiddleware, x.Type)
		}
	case MiddlewareRemoveClass:
	case MiddlewareRateLimit:
		rates, err := x.rates()
		if err != nil {
			return err
		}
		if _, err := eventproxy.NewRateLimit(rates, nil); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMiddleware, err)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMiddleware, x.Type)
	}
	return nil
}

func (x *Middleware) rates() (map[time.Duration]int, error) {
	if len(x.Rates) == 0 {
		return nil, fmt.Errorf("%w: %s: rates are required", ErrInvalidMiddleware, x.Type)
	}
	rates := make(map[time.Duration]int, len(x.Rates))
	for k, v := range x.Rates {
		d, err := time.ParseDuration(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMiddleware, x.Type, err)
		}
		rates[d] = v
	}
	return rates, nil
}

func (x *Event) validate() error {
	if x.Type == `` {
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}
	if x.Target == `` {
		return fmt.Errorf("%w: target is required", ErrInvalidEvent)
	}
	if _, err := cascadia.Compile(x.Target); err != nil {
		return fmt.Errorf("%w: selector %q: %v", ErrInvalidEvent, x.Target, err)
	}
	if x.At.Duration < 0 {
		return fmt.Errorf("%w: negative at", ErrInvalidEvent)
	}
	return nil
}

func (x *Scenario) html() (io.ReadCloser, error) {
	if x.HTMLFile == `` {
		return io.NopCloser(strings.NewReader(x.HTML)), nil
	}
	path := x.HTMLFile
	if !filepath.IsAbs(path) && x.dir != `` {
		path = filepath.Join(x.dir, path)
	}
	return os.Open(path)
}
