// internal/bot/events/types.go
package events

import (
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Category groups event types by the args they take and the strategy that
// builds them.
type Category int

const (
	CategoryHTML Category = iota
	CategoryMouse
	CategoryKeyboard
	CategoryTouch
	CategoryPointer
)

func (c Category) String() string {
	switch c {
	case CategoryMouse:
		return "mouse"
	case CategoryKeyboard:
		return "keyboard"
	case CategoryTouch:
		return "touch"
	case CategoryPointer:
		return "pointer"
	default:
		return "html"
	}
}

// Type is a registry key for one semantic event. Its DOM name can depend on
// the engine; see Name.
type Type struct {
	name       string
	msName     string
	geckoName  string
	Bubbles    bool
	Cancelable bool
	Composed   bool
	Category   Category
}

// Name returns the DOM event name on the given engine.
func (t Type) Name(caps platform.Capabilities) string {
	switch {
	case t.msName != "" && caps.Pointer == platform.PointerMS:
		return t.msName
	case t.geckoName != "" && caps.Wheel == platform.WheelDOMMouseScroll:
		return t.geckoName
	}
	return t.name
}

// String is the engine-neutral name.
func (t Type) String() string { return t.name }

// IsOverOut reports whether the type may carry a related target.
func (t Type) IsOverOut() bool {
	switch t.name {
	case "mouseover", "mouseout", "pointerover", "pointerout":
		return true
	}
	return false
}

func htmlType(name string, bubbles, cancelable, composed bool) Type {
	return Type{name: name, Bubbles: bubbles, Cancelable: cancelable, Composed: composed, Category: CategoryHTML}
}

func mouseType(name string, bubbles, cancelable bool) Type {
	return Type{name: name, Bubbles: bubbles, Cancelable: cancelable, Composed: true, Category: CategoryMouse}
}

func keyType(name string) Type {
	return Type{name: name, Bubbles: true, Cancelable: true, Composed: true, Category: CategoryKeyboard}
}

func touchType(name string) Type {
	return Type{name: name, Bubbles: true, Cancelable: true, Composed: true, Category: CategoryTouch}
}

func pointerType(name, msName string, bubbles, cancelable bool) Type {
	return Type{name: name, msName: msName, Bubbles: bubbles, Cancelable: cancelable, Composed: true, Category: CategoryPointer}
}

// HTML events.
var (
	Blur           = htmlType("blur", false, false, true)
	Change         = htmlType("change", true, false, false)
	Focus          = htmlType("focus", false, false, true)
	FocusIn        = htmlType("focusin", true, false, true)
	FocusOut       = htmlType("focusout", true, false, true)
	Input          = htmlType("input", true, false, true)
	PropertyChange = htmlType("propertychange", false, false, false)
	Reset          = htmlType("reset", true, true, false)
	Select         = htmlType("select", true, false, false)
	Submit         = htmlType("submit", true, true, false)
	TextInput      = htmlType("textInput", true, true, true)
)

// Mouse events.
var (
	Click       = mouseType("click", true, true)
	ContextMenu = mouseType("contextmenu", true, true)
	DblClick    = mouseType("dblclick", true, true)
	MouseDown   = mouseType("mousedown", true, true)
	MouseMove   = mouseType("mousemove", true, false)
	MouseOut    = mouseType("mouseout", true, true)
	MouseOver   = mouseType("mouseover", true, true)
	MouseUp     = mouseType("mouseup", true, true)
	MouseWheel  = Type{name: "mousewheel", geckoName: "DOMMouseScroll", Bubbles: true, Cancelable: true, Composed: true, Category: CategoryMouse}
	// MousePixelScroll only exists on engines using DOMMouseScroll.
	MousePixelScroll = mouseType("MozMousePixelScroll", true, true)
)

// Keyboard events.
var (
	KeyDown  = keyType("keydown")
	KeyPress = keyType("keypress")
	KeyUp    = keyType("keyup")
)

// Touch events.
var (
	TouchStart  = touchType("touchstart")
	TouchMove   = touchType("touchmove")
	TouchEnd    = touchType("touchend")
	TouchCancel = touchType("touchcancel")
)

// Pointer events, named MSPointer* on engines with prefixed pointers.
var (
	PointerDown        = pointerType("pointerdown", "MSPointerDown", true, true)
	PointerMove        = pointerType("pointermove", "MSPointerMove", true, true)
	PointerOver        = pointerType("pointerover", "MSPointerOver", true, true)
	PointerOut         = pointerType("pointerout", "MSPointerOut", true, true)
	PointerUp          = pointerType("pointerup", "MSPointerUp", true, true)
	PointerCancel      = pointerType("pointercancel", "MSPointerCancel", true, true)
	GotPointerCapture  = pointerType("gotpointercapture", "MSGotPointerCapture", true, false)
	LostPointerCapture = pointerType("lostpointercapture", "MSLostPointerCapture", true, false)
)

var registry = map[string]Type{}

func init() {
	for _, t := range []Type{
		Blur, Change, Focus, FocusIn, FocusOut, Input, PropertyChange, Reset, Select, Submit, TextInput,
		Click, ContextMenu, DblClick, MouseDown, MouseMove, MouseOut, MouseOver, MouseUp, MouseWheel, MousePixelScroll,
		KeyDown, KeyPress, KeyUp,
		TouchStart, TouchMove, TouchEnd, TouchCancel,
		PointerDown, PointerMove, PointerOver, PointerOut, PointerUp, PointerCancel, GotPointerCapture, LostPointerCapture,
	} {
		registry[t.name] = t
	}
}

// Lookup finds a registered type by its engine-neutral name.
func Lookup(name string) (Type, bool) {
	t, ok := registry[name]
	return t, ok
}
