// internal/bot/device/snapshot.go
package device

import (
	"github.com/chromedp/cdproto/input"
	json "github.com/json-iterator/go"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Element references in snapshots are XPath expressions resolved against
// the window on restore. Modifiers are the raw input.Modifier
// bit set.

type MouseState struct {
	Element                string          `json:"element,omitempty"`
	Button                 platform.Button `json:"button"`
	Pressed                bool            `json:"pressed"`
	ElementPressed         string          `json:"element_pressed,omitempty"`
	ClientX                float64         `json:"client_x"`
	ClientY                float64         `json:"client_y"`
	NextClickIsDoubleClick bool            `json:"next_click_is_double_click"`
	HasEverInteracted      bool            `json:"has_ever_interacted"`
	Modifiers              int64           `json:"modifiers"`
}

type KeyboardState struct {
	Element   string   `json:"element,omitempty"`
	Pressed   []string `json:"pressed,omitempty"`
	Cursor    int      `json:"cursor"`
	Modifiers int64    `json:"modifiers"`
}

type TouchState struct {
	Element                  string  `json:"element,omitempty"`
	ID1                      int64   `json:"id1"`
	ID2                      int64   `json:"id2"`
	X1                       float64 `json:"x1"`
	Y1                       float64 `json:"y1"`
	X2                       float64 `json:"x2"`
	Y2                       float64 `json:"y2"`
	Counter                  int64   `json:"counter"`
	HasMovedAfterPress       bool    `json:"has_moved_after_press"`
	Cancelled                bool    `json:"cancelled"`
	FireMouseEventsOnRelease bool    `json:"fire_mouse_events_on_release"`
	Modifiers                int64   `json:"modifiers"`
}

// Encode and Decode serialize any of the state types.
func Encode(state any) ([]byte, error) { return json.Marshal(state) }

func Decode(data []byte, state any) error { return json.Unmarshal(data, state) }

func (d *Device) ref(n *html.Node) string {
	if n == nil {
		return ""
	}
	return dom.XPath(n)
}

func (d *Device) resolve(xpath string) (*html.Node, error) {
	if xpath == "" {
		return nil, nil
	}
	n, err := d.win.Resolve(xpath)
	if err != nil {
		return nil, bot.Wrap(bot.NoSuchElement, err, "restoring device state")
	}
	return n, nil
}

func (m *Mouse) Snapshot() MouseState {
	return MouseState{
		Element:                m.ref(m.element),
		Button:                 m.button,
		Pressed:                m.pressed,
		ElementPressed:         m.ref(m.elementPressed),
		ClientX:                m.clientX,
		ClientY:                m.clientY,
		NextClickIsDoubleClick: m.nextClickIsDoubleClick,
		HasEverInteracted:      m.hasEverInteracted,
		Modifiers:              int64(m.mods.Bits()),
	}
}

// Restore replaces the mouse state. Modifiers are left alone: they belong
// to the keyboard.
func (m *Mouse) Restore(s MouseState) error {
	el, err := m.resolve(s.Element)
	if err != nil {
		return err
	}
	pressedOn, err := m.resolve(s.ElementPressed)
	if err != nil {
		return err
	}
	m.SetElement(el)
	m.button, m.pressed, m.elementPressed = s.Button, s.Pressed, pressedOn
	m.clientX, m.clientY = s.ClientX, s.ClientY
	m.nextClickIsDoubleClick = s.NextClickIsDoubleClick
	m.hasEverInteracted = s.HasEverInteracted
	m.win.SetPointerActive(MousePointerID, s.Pressed)
	return nil
}

func (k *Keyboard) Snapshot() KeyboardState {
	s := KeyboardState{
		Element:   k.ref(k.element),
		Cursor:    k.cursor,
		Modifiers: int64(k.mods.Bits()),
	}
	for _, key := range k.Pressed() {
		s.Pressed = append(s.Pressed, key.String())
	}
	return s
}

// Restore replaces the keyboard state and the shared modifier state. Held
// keys outside the key table are restored as bare characters.
func (k *Keyboard) Restore(s KeyboardState) error {
	el, err := k.resolve(s.Element)
	if err != nil {
		return err
	}
	k.SetElement(el)
	k.editable = el != nil && oracle.IsEditable(el)
	k.cursor = s.Cursor
	k.pressed = make(map[string]keys.Key)
	k.order = nil
	for _, name := range s.Pressed {
		key, ok := keys.ByName(name)
		if !ok {
			r := []rune(name)
			if len(r) != 1 {
				return bot.NewError(bot.UnknownError, "unknown key %q in keyboard state", name)
			}
			key, _ = keys.FromChar(r[0])
		}
		k.pressed[key.String()] = key
		k.order = append(k.order, key.String())
	}
	k.mods.Reset(input.Modifier(s.Modifiers))
	return nil
}

func (ts *Touchscreen) Snapshot() TouchState {
	return TouchState{
		Element:                  ts.ref(ts.element),
		ID1:                      ts.id1,
		ID2:                      ts.id2,
		X1:                       ts.x1,
		Y1:                       ts.y1,
		X2:                       ts.x2,
		Y2:                       ts.y2,
		Counter:                  ts.counter,
		HasMovedAfterPress:       ts.hasMovedAfterPress,
		Cancelled:                ts.cancelled,
		FireMouseEventsOnRelease: ts.fireMouseEventsOnRelease,
		Modifiers:                int64(ts.mods.Bits()),
	}
}

func (ts *Touchscreen) Restore(s TouchState) error {
	el, err := ts.resolve(s.Element)
	if err != nil {
		return err
	}
	ts.SetElement(el)
	ts.id1, ts.id2 = s.ID1, s.ID2
	ts.x1, ts.y1, ts.x2, ts.y2 = s.X1, s.Y1, s.X2, s.Y2
	ts.counter = max(s.Counter, firstTouchID)
	ts.hasMovedAfterPress = s.HasMovedAfterPress
	ts.cancelled = s.Cancelled
	ts.fireMouseEventsOnRelease = s.FireMouseEventsOnRelease
	for _, id := range []int64{s.ID1, s.ID2} {
		if id != 0 {
			ts.win.SetPointerActive(id, true)
		}
	}
	return nil
}

// CaptureState lists pointer captures by id for diagnostics.
func (c *PointerCapture) CaptureState() map[int64]string {
	out := make(map[int64]string, c.Len())
	for _, id := range c.IDs() {
		el, _ := c.Target(id)
		out[id] = dom.XPath(el)
	}
	return out
}
