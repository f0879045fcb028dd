// internal/browser/jsbind/events.go
package jsbind

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/parser"
)

type jsListener struct {
	node    *html.Node
	typ     string
	fn      goja.Value
	capture bool
	remove  func()
}

// listenerOptions accepts the boolean and the dictionary forms.
func listenerOptions(v goja.Value) dom.ListenerOptions {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return dom.ListenerOptions{}
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return dom.ListenerOptions{Capture: v.ToBoolean()}
	}
	var opts dom.ListenerOptions
	if c := obj.Get("capture"); c != nil {
		opts.Capture = c.ToBoolean()
	}
	if o := obj.Get("once"); o != nil {
		opts.Once = o.ToBoolean()
	}
	return opts
}

func (b *DOMBridge) addEventListener(node *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		typ := call.Argument(0).String()
		fnVal := call.Argument(1)
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return goja.Undefined()
		}
		opts := listenerOptions(call.Argument(2))
		for _, l := range b.jsListen {
			if l.node == node && l.typ == typ && l.capture == opts.Capture && l.fn.StrictEquals(fnVal) {
				return goja.Undefined()
			}
		}
		this := b.WrapNode(node)
		key := jsListener{node: node, typ: typ, fn: fnVal, capture: opts.Capture}
		remove := b.doc.AddEventListener(node, typ, func(ev *dom.Event) {
			if opts.Once {
				b.forget(key)
			}
			if _, err := fn(this, b.WrapEvent(ev)); err != nil {
				b.logger.Warn("event listener threw", zap.String("type", typ), zap.Error(newScriptError(typ+" listener", err)))
			}
		}, opts)
		key.remove = remove
		b.jsListen = append(b.jsListen, key)
		return goja.Undefined()
	}
}

func (b *DOMBridge) forget(entry jsListener) {
	for i, l := range b.jsListen {
		if l.node == entry.node && l.typ == entry.typ && l.capture == entry.capture && l.fn.StrictEquals(entry.fn) {
			b.jsListen = append(b.jsListen[:i:i], b.jsListen[i+1:]...)
			return
		}
	}
}

func (b *DOMBridge) removeEventListener(node *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		typ := call.Argument(0).String()
		fnVal := call.Argument(1)
		capture := listenerOptions(call.Argument(2)).Capture
		for i, l := range b.jsListen {
			if l.node == node && l.typ == typ && l.capture == capture && l.fn.StrictEquals(fnVal) {
				l.remove()
				b.jsListen = append(b.jsListen[:i:i], b.jsListen[i+1:]...)
				break
			}
		}
		return goja.Undefined()
	}
}

// dispatchEvent accepts {type, bubbles, cancelable} dictionaries and
// dispatches an untrusted event.
func (b *DOMBridge) dispatchEvent(node *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		obj, ok := call.Argument(0).(*goja.Object)
		if !ok {
			panic(b.vm.NewTypeError("dispatchEvent requires an event"))
		}
		ev := &dom.Event{Type: obj.Get("type").String(), Interface: "Event"}
		if v := obj.Get("bubbles"); v != nil {
			ev.Bubbles = v.ToBoolean()
		}
		if v := obj.Get("cancelable"); v != nil {
			ev.Cancelable = v.ToBoolean()
		}
		return b.vm.ToValue(b.doc.Dispatch(node, ev))
	}
}

// WrapEvent exposes ev to script. Live fields are accessors so handlers see
// the current phase and cancellation state.
func (b *DOMBridge) WrapEvent(ev *dom.Event) goja.Value {
	o := b.vm.NewObject()
	o.Set("type", ev.Type)
	o.Set("bubbles", ev.Bubbles)
	o.Set("cancelable", ev.Cancelable)
	o.Set("composed", ev.Composed)
	o.Set("isTrusted", ev.IsTrusted)
	o.Set("detail", ev.Detail)
	o.Set("data", ev.Data)
	o.Set("timeStamp", ev.Seq)
	b.accessor(o, "target", func() goja.Value { return b.WrapNode(ev.Target) }, nil)
	b.accessor(o, "srcElement", func() goja.Value { return b.WrapNode(ev.Target) }, nil)
	b.accessor(o, "currentTarget", func() goja.Value { return b.WrapNode(ev.CurrentTarget) }, nil)
	b.accessor(o, "relatedTarget", func() goja.Value { return b.WrapNode(ev.RelatedTarget) }, nil)
	b.accessor(o, "eventPhase", func() goja.Value { return b.vm.ToValue(int(ev.Phase)) }, nil)
	b.accessor(o, "defaultPrevented", func() goja.Value { return b.vm.ToValue(ev.DefaultPrevented()) }, nil)
	b.accessor(o, "returnValue",
		func() goja.Value { return b.vm.ToValue(!ev.DefaultPrevented()) },
		func(v goja.Value) {
			if !v.ToBoolean() {
				ev.PreventDefault()
			}
		})
	o.Set("preventDefault", func(goja.FunctionCall) goja.Value {
		ev.PreventDefault()
		return goja.Undefined()
	})
	o.Set("stopPropagation", func(goja.FunctionCall) goja.Value {
		ev.StopPropagation()
		return goja.Undefined()
	})
	o.Set("stopImmediatePropagation", func(goja.FunctionCall) goja.Value {
		ev.StopImmediatePropagation()
		return goja.Undefined()
	})

	if m := ev.Mouse; m != nil {
		o.Set("clientX", m.ClientX)
		o.Set("clientY", m.ClientY)
		o.Set("screenX", m.ScreenX)
		o.Set("screenY", m.ScreenY)
		o.Set("button", m.Button)
		o.Set("buttons", m.Buttons)
		o.Set("altKey", m.AltKey)
		o.Set("ctrlKey", m.CtrlKey)
		o.Set("shiftKey", m.ShiftKey)
		o.Set("metaKey", m.MetaKey)
		o.Set("wheelDelta", m.WheelDelta)
		o.Set("fromElement", b.WrapNode(m.FromElement))
		o.Set("toElement", b.WrapNode(m.ToElement))
	}
	if k := ev.Keyboard; k != nil {
		o.Set("keyCode", k.KeyCode)
		o.Set("charCode", k.CharCode)
		o.Set("which", k.Which)
		o.Set("key", k.Key)
		o.Set("code", k.Code)
		o.Set("altKey", k.AltKey)
		o.Set("ctrlKey", k.CtrlKey)
		o.Set("shiftKey", k.ShiftKey)
		o.Set("metaKey", k.MetaKey)
		o.Set("location", k.Location)
		o.Set("repeat", k.Repeat)
	}
	if t := ev.Touch; t != nil {
		o.Set("touches", b.wrapTouches(t.Touches))
		o.Set("targetTouches", b.wrapTouches(t.TargetTouches))
		o.Set("changedTouches", b.wrapTouches(t.ChangedTouches))
		o.Set("scale", t.Scale)
		o.Set("rotation", t.Rotation)
		o.Set("altKey", t.AltKey)
		o.Set("ctrlKey", t.CtrlKey)
		o.Set("shiftKey", t.ShiftKey)
		o.Set("metaKey", t.MetaKey)
	}
	if p := ev.Pointer; p != nil {
		o.Set("pointerId", p.PointerID)
		o.Set("width", p.Width)
		o.Set("height", p.Height)
		o.Set("pressure", p.Pressure)
		o.Set("tiltX", p.TiltX)
		o.Set("tiltY", p.TiltY)
		o.Set("pointerType", p.PointerType)
		o.Set("isPrimary", p.IsPrimary)
	}
	return o
}

func (b *DOMBridge) wrapTouches(list []dom.Touch) goja.Value {
	items := make([]interface{}, len(list))
	for i, t := range list {
		o := b.vm.NewObject()
		o.Set("identifier", t.Identifier)
		o.Set("target", b.WrapNode(t.Target))
		o.Set("clientX", t.ClientX)
		o.Set("clientY", t.ClientY)
		o.Set("pageX", t.PageX)
		o.Set("pageY", t.PageY)
		o.Set("screenX", t.ScreenX)
		o.Set("screenY", t.ScreenY)
		items[i] = o
	}
	return b.vm.NewArray(items...)
}

// inlineStyle backs element.style, reading and writing the style attribute.
// Property names are accepted in camelCase or hyphenated form.
type inlineStyle struct {
	b    *DOMBridge
	node *html.Node
}

func cssName(key string) string {
	var sb strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte('-')
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *inlineStyle) decls() []parser.Declaration {
	v, _ := dom.Attribute(s.node, "style")
	return parser.ParseInline(v)
}

func (s *inlineStyle) write(decls []parser.Declaration) {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		p := string(d.Property) + ": " + string(d.Value)
		if d.Important {
			p += " !important"
		}
		parts = append(parts, p)
	}
	s.b.doc.SetAttribute(s.node, "style", strings.Join(parts, "; "))
}

func (s *inlineStyle) Get(key string) goja.Value {
	name := cssName(key)
	for _, d := range s.decls() {
		if string(d.Property) == name {
			return s.b.vm.ToValue(string(d.Value))
		}
	}
	if key == "cssText" {
		v, _ := dom.Attribute(s.node, "style")
		return s.b.vm.ToValue(v)
	}
	return s.b.vm.ToValue("")
}

func (s *inlineStyle) Set(key string, val goja.Value) bool {
	if key == "cssText" {
		s.b.doc.SetAttribute(s.node, "style", val.String())
		return true
	}
	name := cssName(key)
	var out []parser.Declaration
	for _, d := range s.decls() {
		if string(d.Property) != name {
			out = append(out, d)
		}
	}
	if !goja.IsNull(val) && !goja.IsUndefined(val) {
		if v := strings.TrimSpace(val.String()); v != "" {
			out = append(out, parser.Declaration{Property: parser.Property(name), Value: parser.Value(v)})
		}
	}
	s.write(out)
	return true
}

func (s *inlineStyle) Has(key string) bool {
	name := cssName(key)
	for _, d := range s.decls() {
		if string(d.Property) == name {
			return true
		}
	}
	return false
}

func (s *inlineStyle) Delete(key string) bool {
	return s.Set(key, goja.Null())
}

func (s *inlineStyle) Keys() []string {
	decls := s.decls()
	keys := make([]string, len(decls))
	for i, d := range decls {
		keys[i] = string(d.Property)
	}
	return keys
}
