// internal/trace/recorder.go
//
// Package trace records the events dispatched in a window, exports them as
// JSON and converts them into Chrome DevTools Protocol input commands that
// replay the same gesture against a real browser.
package trace

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

// Entry is one dispatched event. Element references are XPath expressions
// within the event's document; Frame locates that document's frame element
// in its parent, empty for the top-level document.
type Entry struct {
	Seq              int64  `json:"seq"`
	Type             string `json:"type"`
	Interface        string `json:"interface,omitempty"`
	Target           string `json:"target"`
	Related          string `json:"related,omitempty"`
	Frame            string `json:"frame,omitempty"`
	Trusted          bool   `json:"trusted,omitempty"`
	DefaultPrevented bool   `json:"default_prevented,omitempty"`
	Detail           int    `json:"detail,omitempty"`
	Data             string `json:"data,omitempty"`

	Mouse   *Mouse   `json:"mouse,omitempty"`
	Key     *Key     `json:"key,omitempty"`
	Touch   *Touch   `json:"touch,omitempty"`
	Pointer *Pointer `json:"pointer,omitempty"`
}

// Modifiers holds the modifier flags an event carried.
type Modifiers struct {
	Alt   bool `json:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty"`
	Shift bool `json:"shift,omitempty"`
}

// Mouse positions are in top-level viewport coordinates: frame offsets are
// already applied.
type Mouse struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Button     int     `json:"button"`
	Buttons    int     `json:"buttons,omitempty"`
	WheelDelta int     `json:"wheel_delta,omitempty"`
	Modifiers
}

type Key struct {
	Key      string `json:"key,omitempty"`
	Code     string `json:"code,omitempty"`
	KeyCode  int    `json:"key_code,omitempty"`
	CharCode int    `json:"char_code,omitempty"`
	Location int    `json:"location,omitempty"`
	Repeat   bool   `json:"repeat,omitempty"`
	Modifiers
}

type TouchPoint struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type Touch struct {
	Touches []TouchPoint `json:"touches,omitempty"`
	Changed []TouchPoint `json:"changed"`
	Modifiers
}

type Pointer struct {
	ID       int64   `json:"id"`
	Type     string  `json:"type"`
	Primary  bool    `json:"primary,omitempty"`
	Pressure float64 `json:"pressure,omitempty"`
}

// Recorder collects entries from every document of the windows it is
// attached to. It is safe to read while another goroutine records.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	types   map[string]bool
	trusted bool
	logger  *zap.Logger
}

type Option func(*Recorder)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTypes limits recording to the named event types.
func WithTypes(types ...string) Option {
	return func(r *Recorder) {
		if len(types) == 0 {
			return
		}
		r.types = make(map[string]bool, len(types))
		for _, t := range types {
			r.types[t] = true
		}
	}
}

// WithTrusted also records the trusted events the document fires itself,
// such as focus and blur.
func WithTrusted(enabled bool) Option {
	return func(r *Recorder) { r.trusted = enabled }
}

func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("trace")
	return r
}

// Attach starts recording win and returns a function that stops it.
func (r *Recorder) Attach(win *dom.Window) func() {
	return win.Observe(r.Record)
}

// Record adds ev, dispatched in d, unless filtered out.
func (r *Recorder) Record(d *dom.Document, ev *dom.Event) {
	if ev.IsTrusted && !r.trusted {
		return
	}
	if r.types != nil && !r.types[ev.Type] {
		return
	}
	e := newEntry(d, ev)
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	r.logger.Debug("event recorded", zap.String("type", e.Type), zap.String("target", e.Target))
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

func newEntry(d *dom.Document, ev *dom.Event) Entry {
	e := Entry{
		Seq:              ev.Seq,
		Type:             ev.Type,
		Interface:        ev.Interface,
		Target:           dom.XPath(ev.Target),
		Related:          dom.XPath(ev.RelatedTarget),
		Trusted:          ev.IsTrusted,
		DefaultPrevented: ev.DefaultPrevented(),
		Detail:           ev.Detail,
		Data:             ev.Data,
	}
	if frame := d.FrameElement(); frame != nil {
		e.Frame = dom.XPath(frame)
	}
	ox, oy := frameOffset(d)

	if m := ev.Mouse; m != nil {
		e.Mouse = &Mouse{
			X:          m.ClientX + ox,
			Y:          m.ClientY + oy,
			Button:     m.Button,
			Buttons:    m.Buttons,
			WheelDelta: m.WheelDelta,
			Modifiers:  Modifiers{Alt: m.AltKey, Ctrl: m.CtrlKey, Meta: m.MetaKey, Shift: m.ShiftKey},
		}
	}
	if k := ev.Keyboard; k != nil {
		e.Key = &Key{
			Key:       k.Key,
			Code:      k.Code,
			KeyCode:   k.KeyCode,
			CharCode:  k.CharCode,
			Location:  k.Location,
			Repeat:    k.Repeat,
			Modifiers: Modifiers{Alt: k.AltKey, Ctrl: k.CtrlKey, Meta: k.MetaKey, Shift: k.ShiftKey},
		}
	}
	if t := ev.Touch; t != nil {
		e.Touch = &Touch{
			Touches:   points(t.Touches, ox, oy),
			Changed:   points(t.ChangedTouches, ox, oy),
			Modifiers: Modifiers{Alt: t.AltKey, Ctrl: t.CtrlKey, Meta: t.MetaKey, Shift: t.ShiftKey},
		}
	}
	if p := ev.Pointer; p != nil {
		e.Pointer = &Pointer{ID: p.PointerID, Type: p.PointerType, Primary: p.IsPrimary, Pressure: p.Pressure}
	}
	return e
}

func points(ts []dom.Touch, ox, oy float64) []TouchPoint {
	if len(ts) == 0 {
		return nil
	}
	out := make([]TouchPoint, len(ts))
	for i, t := range ts {
		out[i] = TouchPoint{ID: t.Identifier, X: t.ClientX + ox, Y: t.ClientY + oy}
	}
	return out
}

// frameOffset is the position of d's viewport in the top-level viewport.
func frameOffset(d *dom.Document) (x, y float64) {
	for d != nil {
		frame, parent := d.FrameElement(), d.Parent()
		if frame == nil || parent == nil {
			break
		}
		r := parent.ClientRect(frame)
		x, y = x+r.X, y+r.Y
		if box := parent.Layout().Box(frame); box != nil {
			border := box.BorderBox()
			x += box.Dimensions.Content.X - border.X
			y += box.Dimensions.Content.Y - border.Y
		}
		d = parent
	}
	return x, y
}
