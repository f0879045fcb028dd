// internal/bot/device/touchscreen.go
package device

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// firstTouchID is the first identifier handed out; 0 means "not pressed"
// and 1 is the mouse.
const firstTouchID int64 = 2

// Touchscreen simulates up to two fingers. While pressed, touch events keep
// targeting the element the press started on.
type Touchscreen struct {
	*Device

	id1, id2 int64
	x1, y1   float64
	x2, y2   float64
	counter  int64

	hasMovedAfterPress       bool
	cancelled                bool
	fireMouseEventsOnRelease bool
}

func NewTouchscreen(d *Device) *Touchscreen {
	d.logger = d.logger.Named("touchscreen")
	return &Touchscreen{Device: d, counter: firstTouchID, fireMouseEventsOnRelease: true}
}

// IsPressed reports whether a finger is down.
func (ts *Touchscreen) IsPressed() bool { return ts.id1 != 0 }

// IDs returns the identifiers of the pressed fingers; the second is 0 for a
// single finger.
func (ts *Touchscreen) IDs() (int64, int64) { return ts.id1, ts.id2 }

// Positions returns the client positions of both fingers.
func (ts *Touchscreen) Positions() (x1, y1, x2, y2 float64) {
	return ts.x1, ts.y1, ts.x2, ts.y2
}

// Press puts one finger, or two with twoFingers, on the current element.
func (ts *Touchscreen) Press(twoFingers bool) error {
	if !ts.caps.SupportsTouch() {
		return bot.NewError(bot.UnsupportedOperation, "touch is not supported on %s", ts.caps.Name)
	}
	if ts.IsPressed() {
		return bot.NewError(bot.InvalidElementState, "cannot press touchscreen when already pressed")
	}
	if ts.element == nil {
		return bot.NewError(bot.InvalidElementState, "touchscreen has not been moved over an element")
	}
	ts.hasMovedAfterPress = false
	ts.id1 = ts.nextID()
	if twoFingers {
		ts.id2 = ts.nextID()
	}
	ts.win.SetPointerActive(ts.id1, true)
	if ts.id2 != 0 {
		ts.win.SetPointerActive(ts.id2, true)
	}

	if ts.caps.Touch == platform.TouchPointer {
		ts.fireMouseEventsOnRelease = true
		return ts.firePointers(ts.pressPointer)
	}
	ok, err := ts.fireTouch(events.TouchStart)
	if err != nil {
		return err
	}
	ts.fireMouseEventsOnRelease = ok
	return nil
}

// Release lifts every finger. Unless the gesture moved or a handler
// cancelled it, a tap is completed with the compatibility mouse events and a
// click.
func (ts *Touchscreen) Release() error {
	if !ts.IsPressed() {
		return bot.NewError(bot.InvalidElementState, "cannot release touchscreen when not already pressed")
	}
	defer func() {
		ts.releaseCapture()
		ts.win.SetPointerActive(ts.id1, false)
		ts.win.SetPointerActive(ts.id2, false)
		ts.id1, ts.id2 = 0, 0
		ts.cancelled = false
	}()

	if ts.caps.Touch == platform.TouchPointer {
		if ts.cancelled {
			return nil
		}
		return ts.firePointers(ts.releasePointer)
	}
	return ts.fireTouchRelease()
}

// Move places the fingers at coordinates relative to el's client rect. The
// second position is used only by a two finger press. While pressed, touch
// events keep their original target; pointer emulation retargets.
func (ts *Touchscreen) Move(el *html.Node, x1, y1, x2, y2 float64) error {
	doc, err := ts.owner(el)
	if err != nil {
		return err
	}
	emulated := ts.caps.Touch == platform.TouchPointer
	if !ts.IsPressed() || emulated {
		ts.SetElement(el)
	}
	r := doc.ClientRect(el)
	ts.x1, ts.y1 = r.X+x1, r.Y+y1
	ts.x2, ts.y2 = r.X+x2, r.Y+y2
	if !ts.IsPressed() {
		return nil
	}
	if emulated {
		if ts.cancelled {
			return nil
		}
		if ts.touchActionEnabled(el) {
			return ts.firePointers(ts.movePointer)
		}
		ts.cancelled = true
		return ts.firePointers(ts.cancelPointer)
	}
	ts.hasMovedAfterPress = true
	_, err = ts.fireTouch(events.TouchMove)
	return err
}

func (ts *Touchscreen) nextID() int64 {
	id := ts.counter
	ts.counter++
	return id
}

func (ts *Touchscreen) fireTouch(t events.Type) (bool, error) {
	points := []TouchPoint{{ID: ts.id1, X: ts.x1, Y: ts.y1}}
	if ts.id2 != 0 {
		points = append(points, TouchPoint{ID: ts.id2, X: ts.x2, Y: ts.y2})
	}
	return ts.FireTouchEvent(t, false, points...)
}

func (ts *Touchscreen) fireTouchRelease() error {
	proceed, err := ts.fireTouch(events.TouchEnd)
	if err != nil {
		return err
	}
	if !ts.fireMouseEventsOnRelease || !proceed || ts.hasMovedAfterPress {
		return nil
	}
	if _, err := ts.mouse(events.MouseMove, ts.x1, ts.y1, 0, ts.id1); err != nil {
		return err
	}
	performFocus, err := ts.mouse(events.MouseDown, ts.x1, ts.y1, 1, ts.id1)
	if err != nil {
		return err
	}
	if performFocus {
		if _, err := ts.FocusOnElement(nil); err != nil {
			return err
		}
	}
	if err := ts.MaybeToggleOption(); err != nil {
		return err
	}
	if _, err := ts.mouse(events.MouseUp, ts.x1, ts.y1, 0, ts.id1); err != nil {
		return err
	}
	if ts.caps.Mobile && isTag(ts.element, "option") {
		return nil
	}
	return ts.ClickElement(ts.x1, ts.y1, platform.ButtonLeft, false, ts.id1)
}

// firePointers runs one emulation step for each finger. The second finger
// only takes part where touch actions are enabled.
func (ts *Touchscreen) firePointers(step func(x, y float64, id int64, primary bool) error) error {
	if err := step(ts.x1, ts.y1, ts.id1, true); err != nil {
		return err
	}
	if ts.id2 != 0 && ts.touchActionEnabled(ts.element) {
		return step(ts.x2, ts.y2, ts.id2, false)
	}
	return nil
}

func (ts *Touchscreen) pressPointer(x, y float64, id int64, primary bool) error {
	if _, err := ts.mouse(events.MouseMove, x, y, 0, id); err != nil {
		return err
	}
	if _, err := ts.pointer(events.PointerOver, x, y, 0, id, primary); err != nil {
		return err
	}
	if _, err := ts.mouse(events.MouseOver, x, y, 0, id); err != nil {
		return err
	}
	if _, err := ts.pointer(events.PointerDown, x, y, 0, id, primary); err != nil {
		return err
	}
	performFocus, err := ts.mouse(events.MouseDown, x, y, 1, id)
	if err != nil || !performFocus {
		return err
	}
	if oracle.IsSelectable(ts.element) {
		if _, err := ts.pointer(events.GotPointerCapture, x, y, 0, id, primary); err != nil {
			return err
		}
	}
	_, err = ts.FocusOnElement(nil)
	return err
}

func (ts *Touchscreen) releasePointer(x, y float64, id int64, primary bool) error {
	if _, err := ts.pointer(events.PointerUp, x, y, 0, id, primary); err != nil {
		return err
	}
	if _, err := ts.mouse(events.MouseUp, x, y, 0, id); err != nil {
		return err
	}
	if primary {
		if err := ts.ClickElement(x, y, platform.ButtonLeft, false, id); err != nil {
			return err
		}
	}
	if oracle.IsSelectable(ts.element) {
		if _, err := ts.pointer(events.LostPointerCapture, x, y, 0, id, primary); err != nil {
			return err
		}
	}
	if _, err := ts.pointer(events.PointerOut, x, y, -1, id, primary); err != nil {
		return err
	}
	_, err := ts.mouse(events.MouseOut, x, y, 0, id)
	return err
}

func (ts *Touchscreen) movePointer(x, y float64, id int64, primary bool) error {
	if _, err := ts.pointer(events.PointerMove, x, y, -1, id, primary); err != nil {
		return err
	}
	_, err := ts.mouse(events.MouseMove, x, y, 1, id)
	return err
}

func (ts *Touchscreen) cancelPointer(x, y float64, id int64, primary bool) error {
	if _, err := ts.pointer(events.PointerCancel, x, y, 0, id, primary); err != nil {
		return err
	}
	if _, err := ts.pointer(events.PointerOut, x, y, -1, id, primary); err != nil {
		return err
	}
	_, err := ts.mouse(events.MouseOut, x, y, 0, id)
	return err
}

func (ts *Touchscreen) mouse(t events.Type, x, y float64, buttons int, id int64) (bool, error) {
	args := events.MouseArgs{ClientX: x, ClientY: y, Buttons: buttons}
	return ts.FireMouseEvent(t, args, id, false)
}

func (ts *Touchscreen) pointer(t events.Type, x, y float64, button int, id int64, primary bool) (bool, error) {
	args := events.PointerArgs{
		MouseArgs:   events.MouseArgs{ClientX: x, ClientY: y, Button: button},
		PointerID:   id,
		Width:       1,
		Height:      1,
		PointerType: "touch",
		IsPrimary:   primary,
	}
	return ts.FirePointerEvent(t, args, false)
}

// touchActionEnabled reports whether el or an ancestor opts into touch
// actions by declaring a touch-action other than auto.
func (ts *Touchscreen) touchActionEnabled(el *html.Node) bool {
	prop := ts.caps.TouchActionProperty
	if prop == "" {
		prop = "touch-action"
	}
	for n := el; n != nil && n.Type == html.ElementNode; n = shadowdom.ComposedParent(n) {
		v, err := oracle.GetEffectiveStyle(ts.win, n, prop)
		if err != nil {
			return false
		}
		if v != "" && v != "auto" {
			return true
		}
	}
	return false
}
