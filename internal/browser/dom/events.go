// internal/browser/dom/events.go
package dom

import (
	"strings"

	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Phase is the dispatch phase an event is in.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

func (p Phase) String() string {
	switch p {
	case PhaseCapturing:
		return "capturing"
	case PhaseAtTarget:
		return "at-target"
	case PhaseBubbling:
		return "bubbling"
	default:
		return "none"
	}
}

// MouseData carries MouseEvent fields. Wheel and pointer events use it too.
type MouseData struct {
	ClientX, ClientY float64
	ScreenX, ScreenY float64
	Button           int
	Buttons          int
	AltKey           bool
	CtrlKey          bool
	ShiftKey         bool
	MetaKey          bool
	WheelDelta       int
	// FromElement and ToElement are set by the legacy IE event model.
	FromElement *html.Node
	ToElement   *html.Node
}

// KeyboardData carries KeyboardEvent fields.
type KeyboardData struct {
	KeyCode  int
	CharCode int
	Which    int
	Key      string
	Code     string
	AltKey   bool
	CtrlKey  bool
	ShiftKey bool
	MetaKey  bool
	Location int
	Repeat   bool
}

// Touch is one touch point.
type Touch struct {
	Identifier       int64
	Target           *html.Node
	ClientX, ClientY float64
	PageX, PageY     float64
	ScreenX, ScreenY float64
}

// TouchData carries TouchEvent fields.
type TouchData struct {
	Touches        []Touch
	TargetTouches  []Touch
	ChangedTouches []Touch
	AltKey         bool
	CtrlKey        bool
	ShiftKey       bool
	MetaKey        bool
	Scale          float64
	Rotation       float64
}

// PointerData carries the pointer-specific fields of PointerEvent and
// MSPointerEvent. Positional fields live in the event's MouseData.
type PointerData struct {
	PointerID     int64
	Width, Height float64
	Pressure      float64
	Rotation      float64
	TiltX, TiltY  float64
	PointerType   string
	IsPrimary     bool
}

// Event is a DOM event as seen by listeners. Exactly one of the category
// payloads is normally set; pointer events carry Mouse and Pointer.
type Event struct {
	Type          string
	Interface     string
	Target        *html.Node
	CurrentTarget *html.Node
	RelatedTarget *html.Node
	Bubbles       bool
	Cancelable    bool
	Composed      bool
	IsTrusted     bool
	Phase         Phase
	Detail        int
	Data          string
	Seq           int64

	Mouse    *MouseData
	Keyboard *KeyboardData
	Touch    *TouchData
	Pointer  *PointerData

	originalTarget  *html.Node
	originalRelated *html.Node
	canceled        bool
	stopped         bool
	stoppedNow      bool
	dispatched      bool
}

// PreventDefault cancels the event if it is cancelable.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.canceled = true
	}
}

func (e *Event) DefaultPrevented() bool { return e.canceled }

func (e *Event) StopPropagation() { e.stopped = true }

func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedNow = true
}

// OriginalTarget is the unretargeted dispatch target.
func (e *Event) OriginalTarget() *html.Node { return e.originalTarget }

// Listener receives events dispatched to the node it is registered on.
type Listener func(ev *Event)

type ListenerOptions struct {
	Capture bool
	Once    bool
}

type listener struct {
	id   int
	fn   Listener
	opts ListenerOptions
}

// AddEventListener registers fn on target (an element or the document
// node) and returns a function that removes it.
func (d *Document) AddEventListener(target *html.Node, typ string, fn Listener, opts ListenerOptions) func() {
	d.nextListener++
	id := d.nextListener
	byType, ok := d.listeners[target]
	if !ok {
		byType = make(map[string][]listener)
		d.listeners[target] = byType
	}
	byType[typ] = append(byType[typ], listener{id: id, fn: fn, opts: opts})
	return func() { d.removeListener(target, typ, id) }
}

func (d *Document) removeListener(target *html.Node, typ string, id int) {
	list := d.listeners[target][typ]
	for i, l := range list {
		if l.id == id {
			d.listeners[target][typ] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// HasListeners reports whether any listener or inline handler for typ is
// registered on n.
func (d *Document) HasListeners(n *html.Node, typ string) bool {
	if len(d.listeners[n][typ]) > 0 {
		return true
	}
	_, ok := attrLookup(n, "on"+typ)
	return ok
}

// eventPath returns the composed path from target outward. Non-composed
// events stop at the shadow root of the target's tree.
func eventPath(target *html.Node, composed bool) []*html.Node {
	var path []*html.Node
	for n := target; n != nil; n = shadowdom.ComposedParent(n) {
		path = append(path, n)
		if shadowdom.IsShadowRoot(n) && !composed {
			break
		}
	}
	return path
}

// Dispatch runs the capture, target and bubble phases for ev at target and
// reports whether the default action should proceed. The caller owns the
// IsTrusted flag.
func (d *Document) Dispatch(target *html.Node, ev *Event) bool {
	if ev.dispatched {
		d.logger.Warn("event re-dispatched", zap.String("type", ev.Type))
	}
	ev.dispatched = true
	d.win.seq++
	ev.Seq = d.win.seq
	ev.originalTarget = target
	ev.originalRelated = ev.RelatedTarget
	ev.Target = target

	path := eventPath(target, ev.Composed)
	ran := false

	// Capture: outermost first, stopping short of nodes that see themselves
	// as the target.
	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		node := path[i]
		d.retarget(ev, node)
		if ev.Target == node {
			ev.Phase = PhaseAtTarget
		} else {
			ev.Phase = PhaseCapturing
		}
		ran = d.invoke(node, ev, true) || ran
	}
	for i := 0; i < len(path) && !ev.stopped; i++ {
		node := path[i]
		d.retarget(ev, node)
		if ev.Target == node {
			ev.Phase = PhaseAtTarget
		} else if !ev.Bubbles {
			continue
		} else {
			ev.Phase = PhaseBubbling
		}
		ran = d.invoke(node, ev, false) || ran
	}

	ev.Phase = PhaseNone
	ev.CurrentTarget = nil
	ev.Target = shadowdom.Retarget(target, d.Root)
	ev.RelatedTarget = shadowdom.Retarget(ev.originalRelated, d.Root)
	if ran {
		d.Invalidate()
	}
	for _, obs := range d.win.observers {
		if obs.fn != nil {
			obs.fn(d, ev)
		}
	}
	return !ev.canceled
}

func (d *Document) retarget(ev *Event, node *html.Node) {
	ev.CurrentTarget = node
	ev.Target = shadowdom.Retarget(ev.originalTarget, node)
	if ev.originalRelated != nil {
		ev.RelatedTarget = shadowdom.Retarget(ev.originalRelated, node)
	}
}

// invoke runs the listeners on node for the given pass. Inline handler
// attributes act as non-capturing listeners registered first.
func (d *Document) invoke(node *html.Node, ev *Event, capture bool) bool {
	ran := false
	if !capture && node.Type == html.ElementNode {
		if body, ok := attrLookup(node, "on"+strings.ToLower(ev.Type)); ok && body != "" {
			ran = true
			d.runInline(node, ev, body)
			if ev.stoppedNow {
				return ran
			}
		}
	}
	list := append([]listener(nil), d.listeners[node][ev.Type]...)
	for _, l := range list {
		if l.opts.Capture != capture {
			continue
		}
		if l.opts.Once {
			d.removeListener(node, ev.Type, l.id)
		}
		ran = true
		d.call(l.fn, ev)
		if ev.stoppedNow {
			break
		}
	}
	return ran
}

func (d *Document) runInline(node *html.Node, ev *Event, body string) {
	if d.win.scripts == nil {
		d.logger.Debug("no script host for inline handler", zap.String("type", ev.Type))
		return
	}
	proceed, err := d.win.scripts.RunHandler(d, node, ev, body)
	if err != nil {
		d.logger.Warn("inline event handler failed",
			zap.String("type", ev.Type),
			zap.String("element", XPath(node)),
			zap.Error(err))
		return
	}
	if !proceed {
		ev.PreventDefault()
	}
}

// call isolates listener panics the way a browser reports uncaught
// exceptions without aborting dispatch.
func (d *Document) call(fn Listener, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("event listener panicked", zap.String("type", ev.Type), zap.Any("panic", r))
		}
	}()
	fn(ev)
}

// FireTrusted dispatches a browser-generated event such as focus or blur.
func (d *Document) FireTrusted(target *html.Node, typ, iface string, bubbles, cancelable bool, related *html.Node) bool {
	ev := &Event{
		Type:          typ,
		Interface:     iface,
		Bubbles:       bubbles,
		Cancelable:    cancelable,
		Composed:      true,
		IsTrusted:     true,
		RelatedTarget: related,
	}
	return d.Dispatch(target, ev)
}
