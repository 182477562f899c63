package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Element wraps an element node of a [Document]. Obtain instances via the
// document, so that each node maps to exactly one Element.
type Element struct {
	doc       *Document
	node      *html.Node
	listeners map[string][]*listenerEntry // guarded by doc.mu
}

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Node returns the underlying node.
func (e *Element) Node() *html.Node { return e.node }

// TagName returns the lower case tag name, e.g. "div".
func (e *Element) TagName() string { return e.node.Data }

// ID returns the value of the id attribute, or an empty string.
func (e *Element) ID() string {
	v, _ := e.Attr(`id`)
	return v
}

// Parent returns the parent element, or nil at the top of the element tree.
func (e *Element) Parent() *Element {
	return e.doc.Element(e.node.Parent)
}

// Contains reports whether other is e or a descendant of e.
func (e *Element) Contains(other *Element) bool {
	for ; other != nil; other = other.Parent() {
		if other == e {
			return true
		}
	}
	return false
}

// Matches reports whether the element matches the CSS selector.
func (e *Element) Matches(selector string) (bool, error) {
	sel, err := e.doc.Compile(selector)
	if err != nil {
		return false, err
	}
	return sel.Match(e.node), nil
}

// QuerySelectorAll returns the descendants of e matching selector.
func (e *Element) QuerySelectorAll(selector string) ([]*Element, error) {
	sel, err := e.doc.Compile(selector)
	if err != nil {
		return nil, err
	}
	var nodes []*html.Node
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, sel.MatchAll(c)...)
	}
	return e.doc.wrapAll(nodes), nil
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == `` && a.Key == name {
			return a.Val, true
		}
	}
	return ``, false
}

// SetAttr sets (or adds) the named attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == `` && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr removes the named attribute, if present.
func (e *Element) RemoveAttr(name string) {
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Namespace == `` && a.Key == name
	})
}

// Classes returns the element's class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr(`class`)
	return strings.Fields(v)
}

// HasClass reports whether the class list contains class.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.Classes(), class)
}

// AddClass adds class to the class list, if not already present.
func (e *Element) AddClass(class string) {
	classes := e.Classes()
	if class == `` || slices.Contains(classes, class) {
		return
	}
	e.SetAttr(`class`, strings.Join(append(classes, class), ` `))
}

// RemoveClass removes every occurrence of class from the class list,
// returning true if it was present.
func (e *Element) RemoveClass(class string) bool {
	classes := e.Classes()
	n := len(classes)
	classes = slices.DeleteFunc(classes, func(c string) bool { return c == class })
	if len(classes) == n {
		return false
	}
	e.SetAttr(`class`, strings.Join(classes, ` `))
	return true
}

// String returns a short description, e.g. `li#item-1.item.active`.
func (e *Element) String() string {
	if e == nil {
		return `<nil>`
	}
	var b strings.Builder
	b.WriteString(e.node.Data)
	if id := e.ID(); id != `` {
		b.WriteByte('#')
		b.WriteString(id)
	}
	for _, c := range e.Classes() {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}
