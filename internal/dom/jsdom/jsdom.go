//go:build js && wasm

// Package jsdom implements dom.Document over the live browser page.
package jsdom

import (
	"strings"
	"syscall/js"

	"github.com/vincentbai/monotrack/internal/dom"
)

// Document is the page's global document object.
type Document struct {
	document js.Value
	window   js.Value
}

// New returns the current page's document.
func New() *Document {
	return &Document{
		document: js.Global().Get("document"),
		window:   js.Global().Get("window"),
	}
}

// Walk uses a TreeWalker over element nodes, which every engine that can
// run WebAssembly supports.
func (d *Document) Walk(fn func(dom.Element) bool) {
	root := d.document.Get("documentElement")
	if root.IsUndefined() || root.IsNull() {
		return
	}
	if !fn(Wrap(root)) {
		return
	}
	const showElement = 0x1
	walker := d.document.Call("createTreeWalker", root, showElement)
	for node := walker.Call("nextNode"); !node.IsNull(); node = walker.Call("nextNode") {
		if !fn(Wrap(node)) {
			return
		}
	}
}

func (d *Document) QueryString() string {
	return strings.TrimPrefix(d.window.Get("location").Get("search").String(), "?")
}

func (d *Document) Cookie() string {
	return d.document.Get("cookie").String()
}

func (d *Document) SetCookie(cookie string) {
	d.document.Set("cookie", cookie)
}

// Element is a DOM element handle.
type Element struct {
	value js.Value
}

// Wrap adapts a JS element value. It returns nil for null or undefined so
// callers can reject missing elements.
func Wrap(v js.Value) *Element {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	return &Element{value: v}
}

// Value exposes the underlying handle.
func (e *Element) Value() js.Value {
	return e.value
}

func (e *Element) TagName() string {
	return strings.ToLower(e.value.Get("tagName").String())
}

func (e *Element) Attribute(name string) (string, bool) {
	if !e.value.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.value.Call("getAttribute", name).String(), true
}

func (e *Element) SetAttribute(name, value string) {
	e.value.Call("setAttribute", name, value)
}

func (e *Element) SetTextContent(text string) {
	e.value.Set("textContent", text)
}

func (e *Element) AddEventListener(event string, fn dom.Listener) func() {
	cb := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn()
		return nil
	})
	e.value.Call("addEventListener", event, cb)
	return func() {
		e.value.Call("removeEventListener", event, cb)
		cb.Release()
	}
}
