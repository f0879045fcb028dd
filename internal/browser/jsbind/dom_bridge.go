// internal/browser/jsbind/dom_bridge.go
package jsbind

import (
	"bytes"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/style"
)

// DOMBridge exposes one dom.Document to a goja runtime.
type DOMBridge struct {
	vm     *goja.Runtime
	logger *zap.Logger
	doc    *dom.Document

	// identity map so the same node always yields the same JS object
	wrappers map[*html.Node]*goja.Object
	jsListen []jsListener

	timers    []timer
	nextTimer int64
}

// NewDOMBridge initializes the bridge and installs window, document,
// console and timers into the runtime.
func NewDOMBridge(vm *goja.Runtime, doc *dom.Document, logger *zap.Logger) *DOMBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &DOMBridge{
		vm:       vm,
		logger:   logger.Named("dom_bridge"),
		doc:      doc,
		wrappers: make(map[*html.Node]*goja.Object),
	}
	b.initializeRuntime()
	return b
}

func (b *DOMBridge) Runtime() *goja.Runtime { return b.vm }

func (b *DOMBridge) initializeRuntime() {
	global := b.vm.GlobalObject()
	window := b.newWindow()
	for _, name := range []string{"window", "self"} {
		if err := global.Set(name, window); err != nil {
			b.logger.Error("Failed to set global", zap.String("name", name), zap.Error(err))
		}
	}
	if err := global.Set("document", b.WrapNode(b.doc.Root)); err != nil {
		b.logger.Error("Failed to set 'document' global", zap.Error(err))
	}
	b.initConsole()
	b.initTimers()
}

// --- Window ---

// newWindow installs the window members on the global object, which is the
// window itself as in a browser.
func (b *DOMBridge) newWindow() *goja.Object {
	w := b.vm.GlobalObject()
	location := b.vm.NewObject()
	b.accessor(location, "href",
		func() goja.Value { return b.vm.ToValue(b.doc.URL.String()) },
		func(v goja.Value) { b.navigate(v.String(), "") })
	b.accessor(location, "hash",
		func() goja.Value {
			if b.doc.URL.Fragment == "" {
				return b.vm.ToValue("")
			}
			return b.vm.ToValue("#" + b.doc.URL.Fragment)
		},
		func(v goja.Value) { b.navigate("#"+strings.TrimPrefix(v.String(), "#"), "") })
	location.Set("assign", func(call goja.FunctionCall) goja.Value {
		b.navigate(call.Argument(0).String(), "")
		return goja.Undefined()
	})
	location.Set("replace", location.Get("assign"))
	location.Set("toString", func(goja.FunctionCall) goja.Value { return b.vm.ToValue(b.doc.URL.String()) })
	b.accessor(w, "location", func() goja.Value { return location },
		func(v goja.Value) { b.navigate(v.String(), "") })

	w.Set("alert", func(call goja.FunctionCall) goja.Value {
		b.logger.Info("[JS Alert]", zap.String("message", call.Argument(0).String()))
		return goja.Undefined()
	})
	w.Set("confirm", func(call goja.FunctionCall) goja.Value {
		b.logger.Info("[JS Confirm]", zap.String("message", call.Argument(0).String()))
		return b.vm.ToValue(true)
	})
	w.Set("open", func(call goja.FunctionCall) goja.Value {
		target := "_blank"
		if t := call.Argument(1); !goja.IsUndefined(t) && t.String() != "" {
			target = t.String()
		}
		b.navigate(call.Argument(0).String(), target)
		return goja.Null()
	})
	w.Set("scrollTo", func(call goja.FunctionCall) goja.Value {
		b.doc.SetScroll(nil, call.Argument(0).ToFloat(), call.Argument(1).ToFloat())
		return goja.Undefined()
	})
	b.accessor(w, "pageXOffset", func() goja.Value {
		x, _ := b.doc.ScrollOffset(b.doc.DocumentElement())
		return b.vm.ToValue(x)
	}, nil)
	b.accessor(w, "pageYOffset", func() goja.Value {
		_, y := b.doc.ScrollOffset(b.doc.DocumentElement())
		return b.vm.ToValue(y)
	}, nil)
	w.Set("addEventListener", b.addEventListener(b.doc.Root))
	w.Set("removeEventListener", b.removeEventListener(b.doc.Root))
	return w
}

func (b *DOMBridge) navigate(href, target string) {
	if err := b.doc.Navigate(href, target); err != nil {
		panic(b.vm.NewTypeError(err.Error()))
	}
}

// accessor defines a getter/setter pair. A nil setter makes the property
// read-only.
func (b *DOMBridge) accessor(obj *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	setter := goja.Undefined()
	if set != nil {
		setter = b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	if err := obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		b.logger.Error("Failed to define accessor", zap.String("property", name), zap.Error(err))
	}
}

// --- Nodes ---

// WrapNodeList converts nodes into a JS array.
func (b *DOMBridge) WrapNodeList(nodes []*html.Node) goja.Value {
	items := make([]interface{}, len(nodes))
	for i, n := range nodes {
		items[i] = b.WrapNode(n)
	}
	return b.vm.NewArray(items...)
}

// WrapNode returns the JS object for node, creating it on first use.
func (b *DOMBridge) WrapNode(node *html.Node) goja.Value {
	if node == nil {
		return goja.Null()
	}
	if obj, ok := b.wrappers[node]; ok {
		return obj
	}
	obj := b.vm.NewObject()
	b.wrappers[node] = obj
	obj.DefineDataProperty("__go_node__", b.vm.ToValue(node), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)

	obj.Set("nodeType", nodeType(node))
	obj.Set("nodeName", nodeName(node))
	b.accessor(obj, "parentNode", func() goja.Value { return b.WrapNode(node.Parent) }, nil)
	b.accessor(obj, "textContent",
		func() goja.Value { return b.vm.ToValue(dom.TextContent(node)) },
		func(v goja.Value) { b.doc.SetTextContent(node, v.String()) })
	obj.Set("addEventListener", b.addEventListener(node))
	obj.Set("removeEventListener", b.removeEventListener(node))
	obj.Set("dispatchEvent", b.dispatchEvent(node))

	switch node.Type {
	case html.DocumentNode:
		b.wrapDocument(obj, node)
	case html.ElementNode:
		b.wrapElement(obj, node)
	}
	return obj
}

// unwrap returns the node behind a wrapped JS object.
func (b *DOMBridge) unwrap(v goja.Value) *html.Node {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	raw := obj.Get("__go_node__")
	if raw == nil {
		return nil
	}
	n, _ := raw.Export().(*html.Node)
	return n
}

func nodeType(n *html.Node) int {
	switch n.Type {
	case html.ElementNode:
		return 1
	case html.TextNode:
		return 3
	case html.CommentNode:
		return 8
	case html.DocumentNode:
		return 9
	}
	return 0
}

func nodeName(n *html.Node) string {
	switch n.Type {
	case html.ElementNode:
		return strings.ToUpper(n.Data)
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DocumentNode:
		return "#document"
	}
	return ""
}

func (b *DOMBridge) wrapDocument(obj *goja.Object, node *html.Node) {
	b.accessor(obj, "body", func() goja.Value { return b.WrapNode(b.doc.Body()) }, nil)
	b.accessor(obj, "documentElement", func() goja.Value { return b.WrapNode(b.doc.DocumentElement()) }, nil)
	b.accessor(obj, "activeElement", func() goja.Value { return b.WrapNode(b.doc.ActiveElement()) }, nil)
	b.accessor(obj, "URL", func() goja.Value { return b.vm.ToValue(b.doc.URL.String()) }, nil)
	obj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return b.WrapNode(b.doc.ByID(call.Argument(0).String()))
	})
	b.queryMethods(obj, node)
}

func (b *DOMBridge) queryMethods(obj *goja.Object, scope *html.Node) {
	obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		found := b.query(scope, call.Argument(0).String(), true)
		if len(found) == 0 {
			return goja.Null()
		}
		return b.WrapNode(found[0])
	})
	obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return b.WrapNodeList(b.query(scope, call.Argument(0).String(), false))
	})
	obj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return b.WrapNodeList(b.query(scope, call.Argument(0).String(), false))
	})
}

// query matches descendants of scope in tree order without entering shadow
// trees.
func (b *DOMBridge) query(scope *html.Node, selector string, first bool) []*html.Node {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		panic(b.vm.NewTypeError("'' is not a valid selector"))
	}
	var out []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || strings.EqualFold(c.Data, "template") {
				continue
			}
			if style.MatchesSelector(c, selector) {
				out = append(out, c)
				if first {
					return true
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(scope)
	return out
}

func (b *DOMBridge) wrapElement(obj *goja.Object, node *html.Node) {
	obj.Set("tagName", strings.ToUpper(node.Data))
	b.attrProperty(obj, node, "id", "id")
	b.attrProperty(obj, node, "className", "class")
	b.attrProperty(obj, node, "name", "name")
	b.attrProperty(obj, node, "type", "type")
	b.attrProperty(obj, node, "href", "href")

	b.accessor(obj, "value",
		func() goja.Value { return b.vm.ToValue(b.doc.Value(node)) },
		func(v goja.Value) { b.doc.SetValue(node, v.String()) })
	b.accessor(obj, "checked",
		func() goja.Value { return b.vm.ToValue(b.doc.Checked(node)) },
		func(v goja.Value) { b.doc.SetChecked(node, v.ToBoolean()) })
	b.accessor(obj, "selected",
		func() goja.Value { return b.vm.ToValue(b.doc.Selected(node)) },
		func(v goja.Value) { b.doc.SetSelected(node, v.ToBoolean()) })
	b.accessor(obj, "disabled",
		func() goja.Value { return b.vm.ToValue(dom.IsDisabled(node)) },
		func(v goja.Value) {
			if v.ToBoolean() {
				b.doc.SetAttribute(node, "disabled", "")
			} else {
				b.doc.RemoveAttribute(node, "disabled")
			}
		})
	b.accessor(obj, "form", func() goja.Value { return b.WrapNode(b.doc.FormOf(node)) }, nil)
	b.accessor(obj, "innerHTML", func() goja.Value { return b.vm.ToValue(innerHTML(node)) }, nil)
	b.accessor(obj, "children", func() goja.Value {
		var kids []*html.Node
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				kids = append(kids, c)
			}
		}
		return b.WrapNodeList(kids)
	}, nil)
	b.accessor(obj, "selectionStart", func() goja.Value {
		s, _ := b.doc.Selection(node)
		return b.vm.ToValue(s)
	}, nil)
	b.accessor(obj, "selectionEnd", func() goja.Value {
		_, e := b.doc.Selection(node)
		return b.vm.ToValue(e)
	}, nil)
	obj.Set("setSelectionRange", func(call goja.FunctionCall) goja.Value {
		b.doc.SetSelection(node, int(call.Argument(0).ToInteger()), int(call.Argument(1).ToInteger()))
		return goja.Undefined()
	})
	b.accessor(obj, "style", func() goja.Value { return b.vm.NewDynamicObject(&inlineStyle{b: b, node: node}) }, nil)

	obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := dom.Attribute(node, call.Argument(0).String()); ok {
			return b.vm.ToValue(v)
		}
		return goja.Null()
	})
	obj.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		_, ok := dom.Attribute(node, call.Argument(0).String())
		return b.vm.ToValue(ok)
	})
	obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		b.doc.SetAttribute(node, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	obj.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		b.doc.RemoveAttribute(node, call.Argument(0).String())
		return goja.Undefined()
	})
	obj.Set("remove", func(goja.FunctionCall) goja.Value {
		b.doc.Remove(node)
		return goja.Undefined()
	})
	obj.Set("focus", func(goja.FunctionCall) goja.Value {
		if err := b.doc.Focus(node); err != nil {
			b.logger.Debug("focus() ignored", zap.Error(err))
		}
		return goja.Undefined()
	})
	obj.Set("blur", func(goja.FunctionCall) goja.Value {
		if err := b.doc.Blur(node); err != nil {
			panic(b.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	obj.Set("click", func(goja.FunctionCall) goja.Value {
		b.doc.Dispatch(node, &dom.Event{Type: "click", Interface: "MouseEvent", Bubbles: true, Cancelable: true, Composed: true, Mouse: &dom.MouseData{}})
		return goja.Undefined()
	})
	obj.Set("setPointerCapture", func(call goja.FunctionCall) goja.Value {
		if err := b.doc.Window().SetPointerCapture(node, call.Argument(0).ToInteger()); err != nil {
			panic(b.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	obj.Set("releasePointerCapture", func(call goja.FunctionCall) goja.Value {
		b.doc.Window().ReleasePointerCapture(call.Argument(0).ToInteger())
		return goja.Undefined()
	})
	obj.Set("getBoundingClientRect", func(goja.FunctionCall) goja.Value {
		r := b.doc.ClientRect(node)
		rect := b.vm.NewObject()
		for k, v := range map[string]float64{
			"left": r.X, "top": r.Y, "x": r.X, "y": r.Y,
			"width": r.Width, "height": r.Height, "right": r.Right(), "bottom": r.Bottom(),
		} {
			rect.Set(k, v)
		}
		return rect
	})
	b.queryMethods(obj, node)
}

// attrProperty reflects a content attribute as a string property.
func (b *DOMBridge) attrProperty(obj *goja.Object, node *html.Node, prop, attr string) {
	b.accessor(obj, prop,
		func() goja.Value {
			v, _ := dom.Attribute(node, attr)
			return b.vm.ToValue(v)
		},
		func(v goja.Value) { b.doc.SetAttribute(node, attr, v.String()) })
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// --- Console & timers ---

func (b *DOMBridge) initConsole() {
	console := b.vm.NewObject()
	logFunc := func(level zapcore.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = b.stringify(arg)
			}
			b.logger.Log(level, "[JS Console]", zap.String("message", strings.Join(args, " ")))
			return goja.Undefined()
		}
	}
	console.Set("log", logFunc(zap.InfoLevel))
	console.Set("info", logFunc(zap.InfoLevel))
	console.Set("warn", logFunc(zap.WarnLevel))
	console.Set("error", logFunc(zap.ErrorLevel))
	console.Set("debug", logFunc(zap.DebugLevel))
	b.vm.GlobalObject().Set("console", console)
}

// stringify renders plain objects and arrays as JSON.
func (b *DOMBridge) stringify(v goja.Value) string {
	obj, ok := v.(*goja.Object)
	if !ok || b.unwrap(v) != nil {
		return v.String()
	}
	if _, isFn := goja.AssertFunction(v); isFn {
		return v.String()
	}
	out, err := obj.MarshalJSON()
	if err != nil {
		return v.String()
	}
	return string(out)
}

type timer struct {
	id       int64
	fn       goja.Callable
	args     []goja.Value
	canceled bool
}

// initTimers queues setTimeout callbacks. The queue drains after the script
// or handler that scheduled them returns; there is no clock.
func (b *DOMBridge) initTimers() {
	setTimeout := func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return b.vm.ToValue(0)
		}
		b.nextTimer++
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}
		b.timers = append(b.timers, timer{id: b.nextTimer, fn: fn, args: args})
		return b.vm.ToValue(b.nextTimer)
	}
	clearTimeout := func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).ToInteger()
		for i := range b.timers {
			if b.timers[i].id == id {
				b.timers[i].canceled = true
			}
		}
		return goja.Undefined()
	}
	b.vm.GlobalObject().Set("setTimeout", setTimeout)
	b.vm.GlobalObject().Set("clearTimeout", clearTimeout)
}

// drainTimers runs queued callbacks, including ones they queue, stopping at
// the first error.
func (b *DOMBridge) drainTimers() error {
	for len(b.timers) > 0 {
		t := b.timers[0]
		b.timers = b.timers[1:]
		if t.canceled {
			continue
		}
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			b.timers = nil
			return err
		}
	}
	return nil
}
