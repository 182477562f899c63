package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is the root of an element tree, and the owner of every [Element]
// wrapper and listener registration within it.
type Document struct {
	root      *html.Node
	body      *Element
	elements  map[*html.Node]*Element
	selectors map[string]cascadia.Selector
	// listener IDs are unique per document, starting at 1
	nextListenerID atomic.Uint64
	mu             sync.RWMutex
}

// Parse reads an HTML document. The parser always synthesizes html, head and
// body elements, so [Document.Body] is never nil for a parsed document.
func Parse(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return NewDocument(root)
}

// ParseString is a convenience wrapper around [Parse].
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an existing node tree. The tree must contain a body
// element.
func NewDocument(root *html.Node) (*Document, error) {
	if root == nil {
		return nil, fmt.Errorf("dom: nil root node")
	}
	d := &Document{
		root:      root,
		elements:  make(map[*html.Node]*Element),
		selectors: make(map[string]cascadia.Selector),
	}
	sel, err := d.Compile(`body`)
	if err != nil {
		return nil, err
	}
	n := sel.MatchFirst(root)
	if n == nil {
		return nil, ErrNoBody
	}
	d.body = d.Element(n)
	return d, nil
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the body element.
func (d *Document) Body() *Element { return d.body }

// Element returns the stable wrapper for n, or nil if n is nil or not an
// element node.
func (d *Document) Element(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}

	d.mu.RLock()
	e := d.elements[n]
	d.mu.RUnlock()
	if e != nil {
		return e
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if e = d.elements[n]; e == nil {
		e = &Element{doc: d, node: n}
		d.elements[n] = e
	}
	return e
}

// Compile parses a CSS selector (or selector group), caching the result.
// Errors wrap [ErrInvalidSelector].
func (d *Document) Compile(selector string) (cascadia.Selector, error) {
	d.mu.RLock()
	sel, ok := d.selectors[selector]
	d.mu.RUnlock()
	if ok {
		return sel, nil
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}

	d.mu.Lock()
	d.selectors[selector] = sel
	d.mu.Unlock()
	return sel, nil
}

// QuerySelector returns the first element (in document order) matching
// selector, or nil if there is none.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	sel, err := d.Compile(selector)
	if err != nil {
		return nil, err
	}
	return d.Element(sel.MatchFirst(d.root)), nil
}

// QuerySelectorAll returns every element matching selector, in document order.
func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	sel, err := d.Compile(selector)
	if err != nil {
		return nil, err
	}
	return d.wrapAll(sel.MatchAll(d.root)), nil
}

// QueryXPath evaluates an XPath expression against the document, returning
// the matching elements. Non-element results (e.g. text nodes) are skipped.
func (d *Document) QueryXPath(expr string) ([]*Element, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidXPath, expr, err)
	}
	return d.wrapAll(nodes), nil
}

// Dispatch dispatches event on the first element matching selector, returning
// the result of [Element.DispatchEvent]. If nothing matches, the error wraps
// [ErrNotFound].
func (d *Document) Dispatch(selector string, event *Event) (bool, error) {
	target, err := d.QuerySelector(selector)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, fmt.Errorf("%w: %q", ErrNotFound, selector)
	}
	return target.DispatchEvent(event), nil
}

func (d *Document) wrapAll(nodes []*html.Node) []*Element {
	elements := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if e := d.Element(n); e != nil {
			elements = append(elements, e)
		}
	}
	return elements
}
