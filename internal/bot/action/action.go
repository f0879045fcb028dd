// internal/bot/action/action.go
//
// Package action drives the devices through complete user gestures. Every
// gesture checks that its element can be acted on, scrolls it into view and
// defaults the coordinates to the centre of the element's interactable area.
package action

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/device"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// DefaultSteps is the number of moves a drag, swipe or multi-touch gesture
// takes when the caller has no preference.
const DefaultSteps = 2

func checkShown(win *dom.Window, el *html.Node) error {
	shown, err := oracle.IsShown(win, el, true)
	if err != nil {
		return err
	}
	if !shown {
		return bot.NewError(bot.ElementNotVisible, "element is not currently visible and may not be manipulated")
	}
	return nil
}

func checkInteractable(win *dom.Window, caps platform.Capabilities, el *html.Node) error {
	ok, err := oracle.IsInteractable(win, caps, el)
	if err != nil {
		return err
	}
	if !ok {
		return bot.NewError(bot.InvalidElementState, "element is not currently interactable and may not be manipulated")
	}
	return nil
}

// prepare checks el is shown, scrolls the target point into view and
// returns it relative to el.
func prepare(win *dom.Window, el *html.Node, pt *oracle.Point) (oracle.Point, error) {
	if err := checkShown(win, el); err != nil {
		return oracle.Point{}, err
	}
	if _, err := ScrollIntoView(win, el, pt); err != nil {
		return oracle.Point{}, err
	}
	if pt != nil {
		return *pt, nil
	}
	return center(win, el)
}

func center(win *dom.Window, el *html.Node) (oracle.Point, error) {
	w, h, err := oracle.GetInteractableSize(win, el)
	if err != nil {
		return oracle.Point{}, err
	}
	return oracle.Point{X: w / 2, Y: h / 2}, nil
}

// MoveMouse moves the mouse to pt inside el, the centre when pt is nil.
func MoveMouse(m *device.Mouse, el *html.Node, pt *oracle.Point) error {
	p, err := prepare(m.Window(), el, pt)
	if err != nil {
		return err
	}
	return m.Move(el, p.X, p.Y)
}

// Click moves to el and clicks the left button. force clicks even when the
// element stops being interactable during the gesture.
func Click(m *device.Mouse, el *html.Node, pt *oracle.Point, force bool) error {
	return clickWith(m, el, pt, platform.ButtonLeft, force)
}

func RightClick(m *device.Mouse, el *html.Node, pt *oracle.Point) error {
	return clickWith(m, el, pt, platform.ButtonRight, false)
}

func clickWith(m *device.Mouse, el *html.Node, pt *oracle.Point, button platform.Button, force bool) error {
	if err := MoveMouse(m, el, pt); err != nil {
		return err
	}
	if err := m.PressButton(button); err != nil {
		return err
	}
	return m.ReleaseButton(force)
}

// DoubleClick clicks the left button twice without moving in between.
func DoubleClick(m *device.Mouse, el *html.Node, pt *oracle.Point) error {
	if err := MoveMouse(m, el, pt); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := m.PressButton(platform.ButtonLeft); err != nil {
			return err
		}
		if err := m.ReleaseButton(false); err != nil {
			return err
		}
	}
	return nil
}

// ScrollMouse moves to el and turns the wheel by ticks; positive scrolls
// down.
func ScrollMouse(m *device.Mouse, el *html.Node, ticks int, pt *oracle.Point) error {
	if err := MoveMouse(m, el, pt); err != nil {
		return err
	}
	return m.Scroll(ticks)
}

// Drag presses the left button on el and moves it by dx, dy in steps
// moves. The offset of every move is corrected for el having moved since
// the press, so a dragged element stays under the pointer.
func Drag(m *device.Mouse, el *html.Node, dx, dy float64, steps int, pt *oracle.Point) error {
	if steps < 1 {
		return bot.NewError(bot.UnknownError, "there must be at least one step as part of a drag")
	}
	win := m.Window()
	start, err := prepare(win, el, pt)
	if err != nil {
		return err
	}
	initial, err := oracle.GetClientRect(win, el)
	if err != nil {
		return err
	}
	if err := m.Move(el, start.X, start.Y); err != nil {
		return err
	}
	if err := m.PressButton(platform.ButtonLeft); err != nil {
		return err
	}
	for i := 1; i <= steps; i++ {
		current, err := oracle.GetClientRect(win, el)
		if err != nil {
			return err
		}
		x := stepOffset(dx, i, steps) + start.X + initial.X - current.X
		y := stepOffset(dy, i, steps) + start.Y + initial.Y - current.Y
		if err := m.Move(el, x, y); err != nil {
			return err
		}
	}
	return m.ReleaseButton(false)
}

// stepOffset is the whole pixel offset reached after step i of n.
func stepOffset(total float64, i, n int) float64 {
	v := float64(i) * total / float64(n)
	if v < 0 {
		return -float64(int(-v))
	}
	return float64(int(v))
}

// Type focuses el and types values with the keyboard.
func Type(k *device.Keyboard, el *html.Node, values []keys.Value, persistModifiers bool) error {
	if err := checkShown(k.Window(), el); err != nil {
		return err
	}
	return k.Type(el, values, persistModifiers)
}

// Clear empties an editable element, firing change when a value was
// removed.
func Clear(d *device.Device, el *html.Node) error {
	win := d.Window()
	if err := checkInteractable(win, d.Capabilities(), el); err != nil {
		return err
	}
	if !oracle.IsEditable(el) {
		return bot.NewError(bot.InvalidElementState, "element must be user-editable in order to clear it")
	}
	doc, err := win.Owner(el)
	if err != nil {
		return bot.Wrap(bot.NoSuchElement, err, "clearing element")
	}
	if dom.IsContentEditable(el) && !isTag(el, "input", "textarea") {
		if _, err := d.FocusOnElement(el); err != nil {
			return err
		}
		doc.SetTextContent(el, "")
		return nil
	}
	if doc.Value(el) == "" {
		return nil
	}
	if _, err := d.FocusOnElement(el); err != nil {
		return err
	}
	doc.SetValue(el, "")
	if d.Capabilities().InputEvents {
		if _, err := d.FireHTMLEvent(el, events.Input); err != nil {
			return err
		}
	}
	_, err = d.FireHTMLEvent(el, events.Change)
	return err
}

// FocusOnElement gives el focus, as a click would, without firing mouse
// events.
func FocusOnElement(d *device.Device, el *html.Node) error {
	if err := checkInteractable(d.Window(), d.Capabilities(), el); err != nil {
		return err
	}
	_, err := d.FocusOnElement(el)
	return err
}

// Submit submits the form owning el.
func Submit(d *device.Device, el *html.Node) error {
	form := d.FindAncestorForm(el)
	if form == nil {
		return bot.NewError(bot.NoSuchElement, "element was not in a form, so could not submit")
	}
	return d.SubmitForm(form)
}

func isTag(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}
