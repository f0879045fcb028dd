// internal/bot/device/mouse.go
package device

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

const (
	// wheelDelta is the mousewheel delta of one tick toward the user.
	wheelDelta = 120
	// pixelDelta is the MozMousePixelScroll delta of one tick.
	pixelDelta = 57
)

// Mouse simulates a mouse with at most one button held.
type Mouse struct {
	*Device

	button         platform.Button
	pressed        bool
	elementPressed *html.Node
	clientX        float64
	clientY        float64

	nextClickIsDoubleClick bool
	hasEverInteracted      bool
}

func NewMouse(d *Device) *Mouse {
	d.logger = d.logger.Named("mouse")
	return &Mouse{Device: d, button: platform.ButtonNone}
}

// Button returns the pressed button and whether one is pressed.
func (m *Mouse) Button() (platform.Button, bool) { return m.button, m.pressed }

// Position is the last client position of the mouse.
func (m *Mouse) Position() (float64, float64) { return m.clientX, m.clientY }

// PressButton presses button over the current element, firing mousedown and
// focusing the element unless the mousedown was cancelled or its handlers
// moved focus themselves.
func (m *Mouse) PressButton(button platform.Button) error {
	if m.pressed {
		return bot.NewError(bot.InvalidElementState, "cannot press more than one button or an already pressed button")
	}
	if button == platform.ButtonNone {
		return bot.NewError(bot.InvalidElementState, "cannot press the none button")
	}
	if m.element == nil {
		return bot.NewError(bot.InvalidElementState, "mouse has not been moved over an element")
	}
	m.button = button
	m.pressed = true
	m.elementPressed = m.element
	m.win.SetPointerActive(MousePointerID, true)

	performFocus, err := m.fireMousedown()
	if err != nil {
		return err
	}
	if performFocus {
		if _, err := m.FocusOnElement(nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mouse) fireMousedown() (bool, error) {
	if m.caps.SelectMouseDownFocuses && isTag(m.element, "select", "option") {
		return true, nil
	}
	doc, err := m.Document()
	if err != nil {
		return false, err
	}
	before := doc.ActiveElement()
	performDefault, err := m.fire(events.MouseDown, nil, 0, false)
	if err != nil || !performDefault {
		return false, err
	}
	if doc.ActiveElement() != before {
		return false, nil
	}
	return true, nil
}

// ReleaseButton releases the pressed button. A left release over the element
// it was pressed on clicks it and, every second time, double clicks it; a
// right release opens the context menu. Button state and pointer capture are
// cleared even when firing fails.
func (m *Mouse) ReleaseButton(force bool) error {
	if !m.pressed {
		return bot.NewError(bot.InvalidElementState, "cannot release a button when no button is pressed")
	}
	defer func() {
		m.releaseCapture()
		m.win.SetPointerActive(MousePointerID, false)
		m.pressed = false
		m.button = platform.ButtonNone
		m.elementPressed = nil
	}()

	if err := m.MaybeToggleOption(); err != nil {
		return err
	}
	// A mouseup completing a click still clicks when its handlers make the
	// element non-interactable.
	interactableBeforeUp := m.IsInteractable()
	if _, err := m.fire(events.MouseUp, nil, 0, force); err != nil {
		return err
	}

	switch {
	case m.button == platform.ButtonLeft && m.element == m.elementPressed:
		if !(m.caps.Mobile && isTag(m.elementPressed, "option")) {
			if err := m.ClickElement(m.clientX, m.clientY, m.button, interactableBeforeUp || force, MousePointerID); err != nil {
				return err
			}
		}
		return m.maybeDoubleClick()
	case m.button == platform.ButtonRight:
		_, err := m.fire(events.ContextMenu, nil, 0, false)
		return err
	}
	return nil
}

func (m *Mouse) maybeDoubleClick() error {
	if m.nextClickIsDoubleClick {
		if _, err := m.fire(events.DblClick, nil, 0, false); err != nil {
			return err
		}
	}
	m.nextClickIsDoubleClick = !m.nextClickIsDoubleClick
	return nil
}

// Move moves the mouse to x, y relative to the top-left corner of el's
// client rect, firing out and over events when the element changes and
// then mousemove.
func (m *Mouse) Move(el *html.Node, x, y float64) error {
	doc, err := m.owner(el)
	if err != nil {
		return err
	}
	r := doc.ClientRect(el)
	m.clientX, m.clientY = r.X+x, r.Y+y

	from := m.element
	if el != from {
		if from != nil {
			if fromDoc, err := m.win.Owner(from); err != nil || fromDoc.Closed() {
				from = nil
			}
		}
		if from != nil && m.shouldFireMouseOut(from) {
			if _, err := m.fire(events.MouseOut, el, 0, false); err != nil {
				return err
			}
		}
		m.SetElement(el)
		if !m.caps.MouseOverAfterMove {
			if _, err := m.fire(events.MouseOver, from, 0, true); err != nil {
				return err
			}
		}
	}
	if _, err := m.fire(events.MouseMove, nil, 0, true); err != nil {
		return err
	}
	if m.caps.MouseOverAfterMove && el != from {
		if _, err := m.fire(events.MouseOver, from, 0, true); err != nil {
			return err
		}
	}
	m.nextClickIsDoubleClick = false
	return nil
}

func (m *Mouse) shouldFireMouseOut(from *html.Node) bool {
	if !m.hasEverInteracted {
		return false
	}
	doc, err := m.win.Owner(from)
	if err != nil {
		return false
	}
	if from == doc.DocumentElement() || from == doc.Body() {
		return false
	}
	return m.interactable(from)
}

// Scroll fires one wheel event per tick at the current element. Positive
// ticks scroll down. Uncancelled ticks scroll the element's scroll
// container.
func (m *Mouse) Scroll(ticks int) error {
	if ticks == 0 {
		return bot.NewError(bot.UnknownError, "must scroll a non-zero number of ticks")
	}
	delta, pixels := wheelDelta, pixelDelta
	n := ticks
	if ticks > 0 {
		delta = -wheelDelta
	} else {
		pixels = -pixelDelta
		n = -ticks
	}
	for i := 0; i < n; i++ {
		proceed, err := m.fire(events.MouseWheel, nil, delta, false)
		if err != nil {
			return err
		}
		if m.caps.Wheel == platform.WheelDOMMouseScroll {
			more, err := m.fire(events.MousePixelScroll, nil, pixels, false)
			if err != nil {
				return err
			}
			proceed = proceed && more
		}
		if proceed {
			m.scrollContainer(float64(pixels))
		}
	}
	return nil
}

func (m *Mouse) scrollContainer(dy float64) {
	doc, err := m.Document()
	if err != nil {
		return
	}
	box := doc.Layout().ScrollContainer(m.element)
	if box == nil || box.Node == nil {
		return
	}
	x, y := doc.ScrollOffset(box.Node)
	doc.SetScroll(box.Node, x, y+dy)
}

// fire mirrors a mouse event with its pointer event on engines that have
// them; a cancelled pointer event suppresses the mouse event.
func (m *Mouse) fire(t events.Type, related *html.Node, wheel int, force bool) (bool, error) {
	m.hasEverInteracted = true
	if pt, ok := pointerFor(t); ok && m.caps.SupportsPointerEvents() {
		button, err := m.buttonValue(m.caps.PointerButtons, pt)
		if err != nil {
			return false, err
		}
		args := events.PointerArgs{
			MouseArgs: events.MouseArgs{
				ClientX:       m.clientX,
				ClientY:       m.clientY,
				Button:        button,
				Buttons:       m.buttonsMask(t),
				RelatedTarget: related,
			},
			PointerID:   MousePointerID,
			Width:       1,
			Height:      1,
			Pressure:    m.pressure(t),
			PointerType: "mouse",
			IsPrimary:   true,
		}
		proceed, err := m.FirePointerEvent(pt, args, force)
		if err != nil || !proceed {
			return false, err
		}
	}

	button := 0
	if t != events.MouseWheel && t != events.MousePixelScroll {
		var err error
		if button, err = m.buttonValue(m.caps.Buttons, t); err != nil {
			return false, err
		}
	}
	args := events.MouseArgs{
		ClientX:       m.clientX,
		ClientY:       m.clientY,
		Button:        button,
		Buttons:       m.buttonsMask(t),
		RelatedTarget: related,
		WheelDelta:    wheel,
	}
	ok, err := m.FireMouseEvent(t, args, MousePointerID, force)
	if err != nil {
		m.logger.Debug("mouse event failed", zap.Stringer("type", t), zap.Error(err))
	}
	return ok, err
}

// buttonValue looks up MouseEvent.button for t in table.
func (m *Mouse) buttonValue(table platform.ButtonTable, t events.Type) (int, error) {
	b := platform.ButtonNone
	if m.pressed {
		b = m.button
	}
	v, ok := table.Value(buttonRow(t), b)
	if !ok {
		return 0, bot.NewError(bot.UnknownError, "event %s does not permit the %s button", t, b)
	}
	return v, nil
}

func buttonRow(t events.Type) platform.ButtonRow {
	switch t {
	case events.Click, events.DblClick:
		return platform.RowClick
	case events.ContextMenu:
		return platform.RowContextMenu
	case events.MouseDown, events.MouseUp, events.PointerDown, events.PointerUp:
		return platform.RowMouseUp
	case events.MouseOut, events.MouseOver, events.PointerOut, events.PointerOver:
		return platform.RowMouseOut
	}
	return platform.RowMouseMove
}

// buttonsMask is MouseEvent.buttons: the buttons held once t has happened.
func (m *Mouse) buttonsMask(t events.Type) int {
	if !m.pressed || t == events.MouseUp || t == events.Click || t == events.DblClick || t == events.ContextMenu {
		return 0
	}
	switch m.button {
	case platform.ButtonLeft:
		return 1
	case platform.ButtonRight:
		return 2
	case platform.ButtonMiddle:
		return 4
	}
	return 0
}

func (m *Mouse) pressure(t events.Type) float64 {
	if m.buttonsMask(t) != 0 {
		return 0.5
	}
	return 0
}

func pointerFor(t events.Type) (events.Type, bool) {
	switch t {
	case events.MouseDown:
		return events.PointerDown, true
	case events.MouseMove:
		return events.PointerMove, true
	case events.MouseOut:
		return events.PointerOut, true
	case events.MouseOver:
		return events.PointerOver, true
	case events.MouseUp:
		return events.PointerUp, true
	}
	return events.Type{}, false
}
