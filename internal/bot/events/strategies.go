// internal/bot/events/strategies.go
package events

import (
	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

type mouseStrategy interface {
	build(ev *dom.Event, t Type, a MouseArgs, caps platform.Capabilities)
}

type keyboardStrategy interface {
	build(ev *dom.Event, t Type, a KeyboardArgs)
}

type touchStrategy interface {
	build(ev *dom.Event, d *dom.Document, a TouchArgs) error
}

type pointerStrategy interface {
	build(ev *dom.Event, a PointerArgs) error
}

func mouseData(a MouseArgs) *dom.MouseData {
	return &dom.MouseData{
		ClientX:  a.ClientX,
		ClientY:  a.ClientY,
		ScreenX:  a.ClientX,
		ScreenY:  a.ClientY,
		Button:   a.Button,
		Buttons:  a.Buttons,
		AltKey:   a.Alt,
		CtrlKey:  a.Ctrl,
		ShiftKey: a.Shift,
		MetaKey:  a.Meta,
	}
}

// mouseDetail is the click count, or the scroll amount for wheel events
// that report it through detail.
func mouseDetail(t Type, a MouseArgs, caps platform.Capabilities) int {
	switch t {
	case DblClick:
		return 2
	case Click, MouseDown, MouseUp:
		return 1
	case MouseWheel:
		if caps.Wheel == platform.WheelDOMMouseScroll {
			return a.WheelDelta / -40
		}
	case MousePixelScroll:
		return a.WheelDelta
	}
	return 0
}

// initMouse mirrors document.createEvent("MouseEvents") followed by
// initMouseEvent.
type initMouse struct{}

func (initMouse) build(ev *dom.Event, t Type, a MouseArgs, caps platform.Capabilities) {
	ev.Interface = "MouseEvent"
	if t == MouseWheel || t == MousePixelScroll {
		ev.Interface = "WheelEvent"
		if caps.Wheel == platform.WheelDOMMouseScroll {
			ev.Interface = "MouseScrollEvent"
		}
	}
	ev.Mouse = mouseData(a)
	if t == MouseWheel && caps.Wheel == platform.WheelMouseWheel {
		ev.Mouse.WheelDelta = a.WheelDelta
	}
	ev.Detail = mouseDetail(t, a, caps)
	ev.RelatedTarget = a.RelatedTarget
}

// legacyIEMouse mirrors createEventObject: no relatedTarget, fromElement
// and toElement instead.
type legacyIEMouse struct{}

func (legacyIEMouse) build(ev *dom.Event, t Type, a MouseArgs, caps platform.Capabilities) {
	ev.Interface = "MSEventObj"
	ev.Mouse = mouseData(a)
	ev.Mouse.WheelDelta = a.WheelDelta
	ev.Detail = mouseDetail(t, a, caps)
	switch t {
	case MouseOver:
		ev.Mouse.FromElement = a.RelatedTarget
	case MouseOut:
		ev.Mouse.ToElement = a.RelatedTarget
	}
}

func keyboardData(a KeyboardArgs) *dom.KeyboardData {
	return &dom.KeyboardData{
		KeyCode:  a.KeyCode,
		CharCode: a.CharCode,
		Which:    a.KeyCode,
		Location: a.Location,
		Repeat:   a.Repeat,
		AltKey:   a.Alt,
		CtrlKey:  a.Ctrl,
		ShiftKey: a.Shift,
		MetaKey:  a.Meta,
	}
}

// constructorKeyboard mirrors new KeyboardEvent(type, init).
type constructorKeyboard struct{}

func (constructorKeyboard) build(ev *dom.Event, t Type, a KeyboardArgs) {
	ev.Interface = "KeyboardEvent"
	ev.Keyboard = keyboardData(a)
	ev.Keyboard.Key = a.Key
	ev.Keyboard.Code = a.Code
	if t == KeyPress && a.CharCode != 0 {
		ev.Keyboard.Which = a.CharCode
	}
}

// geckoKeyboard mirrors initKeyEvent, where which follows charCode on
// keypress.
type geckoKeyboard struct{}

func (geckoKeyboard) build(ev *dom.Event, t Type, a KeyboardArgs) {
	ev.Interface = "KeyboardEvent"
	ev.Keyboard = keyboardData(a)
	if t == KeyPress && a.CharCode != 0 {
		ev.Keyboard.Which = a.CharCode
	}
}

// genericKeyboard mirrors createEvent("Events") with keyCode assigned as an
// expando. charCode does not exist on these objects.
type genericKeyboard struct{}

func (genericKeyboard) build(ev *dom.Event, t Type, a KeyboardArgs) {
	ev.Interface = "Events"
	ev.Keyboard = keyboardData(a)
	if t == KeyPress && a.CharCode != 0 {
		ev.Keyboard.KeyCode = a.CharCode
		ev.Keyboard.Which = a.CharCode
	}
	ev.Keyboard.CharCode = 0
}

func touchList(d *dom.Document, pts []TouchPoint) []dom.Touch {
	sx, sy := d.ScrollOffset(d.DocumentElement())
	out := make([]dom.Touch, len(pts))
	for i, p := range pts {
		out[i] = dom.Touch{
			Identifier: p.Identifier,
			Target:     p.Target,
			ClientX:    p.ClientX,
			ClientY:    p.ClientY,
			PageX:      p.ClientX + sx,
			PageY:      p.ClientY + sy,
			ScreenX:    p.ClientX,
			ScreenY:    p.ClientY,
		}
	}
	return out
}

func touchData(d *dom.Document, a TouchArgs) *dom.TouchData {
	return &dom.TouchData{
		Touches:        touchList(d, a.Touches),
		TargetTouches:  touchList(d, a.TargetTouches),
		ChangedTouches: touchList(d, a.ChangedTouches),
		Scale:          a.Scale,
		Rotation:       a.Rotation,
		AltKey:         a.Alt,
		CtrlKey:        a.Ctrl,
		ShiftKey:       a.Shift,
		MetaKey:        a.Meta,
	}
}

type noTouch struct{}

func (noTouch) build(*dom.Event, *dom.Document, TouchArgs) error {
	return bot.NewError(bot.UnsupportedOperation, "touch events are not supported on this platform")
}

// nativeTouch mirrors the Touch and TouchList constructors.
type nativeTouch struct{}

func (nativeTouch) build(ev *dom.Event, d *dom.Document, a TouchArgs) error {
	ev.Interface = "TouchEvent"
	ev.Touch = touchData(d, a)
	ev.RelatedTarget = a.RelatedTarget
	return nil
}

// genericTouch attaches array-like touch lists to a MouseEvent, whose
// coordinates are those of the first changed touch.
type genericTouch struct{}

func (genericTouch) build(ev *dom.Event, d *dom.Document, a TouchArgs) error {
	ev.Interface = "MouseEvent"
	ev.Touch = touchData(d, a)
	first := a.ChangedTouches[0]
	ev.Mouse = mouseData(MouseArgs{ClientX: first.ClientX, ClientY: first.ClientY, Modifiers: a.Modifiers})
	ev.RelatedTarget = a.RelatedTarget
	return nil
}

type noPointer struct{}

func (noPointer) build(*dom.Event, PointerArgs) error {
	return bot.NewError(bot.UnsupportedOperation, "pointer events are not supported on this platform")
}

func pointerData(a PointerArgs) *dom.PointerData {
	return &dom.PointerData{
		PointerID:   a.PointerID,
		Width:       a.Width,
		Height:      a.Height,
		Pressure:    a.Pressure,
		Rotation:    a.Rotation,
		PointerType: a.PointerType,
		IsPrimary:   a.IsPrimary,
	}
}

// msPointer reports pointerType as the numeric MSPOINTER_TYPE constant.
type msPointer struct{}

var msPointerTypes = map[string]string{"touch": "2", "pen": "3", "mouse": "4"}

func (msPointer) build(ev *dom.Event, a PointerArgs) error {
	ev.Interface = "MSPointerEvent"
	ev.Mouse = mouseData(a.MouseArgs)
	ev.Pointer = pointerData(a)
	if v, ok := msPointerTypes[a.PointerType]; ok {
		ev.Pointer.PointerType = v
	}
	ev.RelatedTarget = a.RelatedTarget
	return nil
}

type w3cPointer struct{}

func (w3cPointer) build(ev *dom.Event, a PointerArgs) error {
	ev.Interface = "PointerEvent"
	ev.Mouse = mouseData(a.MouseArgs)
	ev.Pointer = pointerData(a)
	ev.RelatedTarget = a.RelatedTarget
	return nil
}

type htmlStrategy struct {
	iface string
}

func (s htmlStrategy) build(ev *dom.Event, t Type, a HTMLArgs) {
	ev.Interface = s.iface
	switch t {
	case TextInput:
		if s.iface == "Event" {
			ev.Interface = "TextEvent"
		}
	case Focus, Blur, FocusIn, FocusOut:
		if s.iface == "Event" {
			ev.Interface = "FocusEvent"
		}
	case Input:
		if s.iface == "Event" {
			ev.Interface = "InputEvent"
		}
	}
	ev.Data = a.Data
}
