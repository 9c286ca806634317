// Package htmldoc implements dom.Document over a parsed HTML tree so the
// tracker can run outside a browser. Listeners are recorded rather than
// wired to real input and can be triggered with Fire.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/vincentbai/monotrack/internal/dom"
)

type listenerEntry struct {
	id    int
	event string
	fn    dom.Listener
}

type cookiePair struct {
	name  string
	value string
}

// Document is a parsed HTML page plus the request state a browser would
// expose through location.search and document.cookie.
type Document struct {
	root      *html.Node
	query     string
	jar       []cookiePair
	written   []string
	listeners map[*html.Node][]listenerEntry
	nextID    int
}

// Parse reads an HTML page. query is the raw URL query and cookie the
// request's Cookie header.
func Parse(r io.Reader, query, cookie string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{
		root:      root,
		query:     strings.TrimPrefix(query, "?"),
		jar:       parseJar(cookie),
		listeners: make(map[*html.Node][]listenerEntry),
	}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(page, query, cookie string) (*Document, error) {
	return Parse(strings.NewReader(page), query, cookie)
}

func parseJar(header string) []cookiePair {
	var jar []cookiePair
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		jar = append(jar, cookiePair{name: name, value: value})
	}
	return jar
}

func (d *Document) Walk(fn func(dom.Element) bool) {
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if !fn(&Element{node: n, doc: d}) {
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(d.root)
}

func (d *Document) QueryString() string {
	return d.query
}

// Cookie returns the jar in document.cookie form.
func (d *Document) Cookie() string {
	parts := make([]string, 0, len(d.jar))
	for _, c := range d.jar {
		parts = append(parts, c.name+"="+c.value)
	}
	return strings.Join(parts, "; ")
}

// SetCookie updates the jar the way assigning document.cookie does and
// remembers the raw string for WrittenCookies.
func (d *Document) SetCookie(cookie string) {
	d.written = append(d.written, cookie)
	pair, _, _ := strings.Cut(cookie, ";")
	name, value, _ := strings.Cut(strings.TrimSpace(pair), "=")
	for i := range d.jar {
		if d.jar[i].name == name {
			d.jar[i].value = value
			return
		}
	}
	d.jar = append(d.jar, cookiePair{name: name, value: value})
}

// WrittenCookies returns every cookie string passed to SetCookie, in order.
func (d *Document) WrittenCookies() []string {
	return append([]string(nil), d.written...)
}

// ElementByID returns the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) (*Element, bool) {
	var found *Element
	d.Walk(func(el dom.Element) bool {
		if v, ok := el.Attribute("id"); ok && v == id {
			found = el.(*Element)
			return false
		}
		return true
	})
	return found, found != nil
}

// Fire invokes the listeners registered for event on el and reports how
// many ran.
func (d *Document) Fire(el dom.Element, event string) int {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		return 0
	}
	entries := append([]listenerEntry(nil), d.listeners[e.node]...)
	fired := 0
	for _, entry := range entries {
		if entry.event == event {
			entry.fn()
			fired++
		}
	}
	return fired
}

// ListenerCount returns how many listeners are attached to el.
func (d *Document) ListenerCount(el dom.Element) int {
	e, ok := el.(*Element)
	if !ok {
		return 0
	}
	return len(d.listeners[e.node])
}

// Render writes the current tree as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

func (d *Document) removeListener(n *html.Node, id int) {
	entries := d.listeners[n]
	for i, entry := range entries {
		if entry.id == id {
			d.listeners[n] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(d.listeners[n]) == 0 {
		delete(d.listeners, n)
	}
}

// Element wraps an html.Node of type ElementNode.
type Element struct {
	node *html.Node
	doc  *Document
}

func (e *Element) TagName() string {
	return strings.ToLower(e.node.Data)
}

func (e *Element) Attribute(name string) (string, bool) {
	for _, attr := range e.node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

func (e *Element) SetAttribute(name, value string) {
	for i, attr := range e.node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, name) {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

// TextContent concatenates the text of every descendant text node.
func (e *Element) TextContent() string {
	var b strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(e.node)
	return b.String()
}

func (e *Element) SetTextContent(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	if text != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func (e *Element) AddEventListener(event string, fn dom.Listener) func() {
	d := e.doc
	d.nextID++
	id := d.nextID
	d.listeners[e.node] = append(d.listeners[e.node], listenerEntry{id: id, event: event, fn: fn})
	return func() { d.removeListener(e.node, id) }
}
