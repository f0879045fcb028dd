// internal/bot/device/modifiers.go
package device

import (
	"github.com/chromedp/cdproto/input"

	"github.com/xkilldash9x/synthinput/internal/bot/events"
)

// Modifiers is the modifier key state shared by reference between a Keyboard
// and the pointing devices cooperating with it. Only the Keyboard writes it.
type Modifiers struct {
	bits input.Modifier
}

func NewModifiers() *Modifiers { return &Modifiers{} }

func (m *Modifiers) IsPressed(mod input.Modifier) bool {
	return m != nil && m.bits&mod != 0
}

func (m *Modifiers) SetPressed(mod input.Modifier, pressed bool) {
	if pressed {
		m.bits |= mod
	} else {
		m.bits &^= mod
	}
}

// Bits is the bitset in the encoding the DevTools input domain uses.
func (m *Modifiers) Bits() input.Modifier {
	if m == nil {
		return input.ModifierNone
	}
	return m.bits
}

func (m *Modifiers) Reset(bits input.Modifier) { m.bits = bits }

// Args converts the state to the flags carried by UI events.
func (m *Modifiers) Args() events.Modifiers {
	return events.Modifiers{
		Alt:   m.IsPressed(input.ModifierAlt),
		Ctrl:  m.IsPressed(input.ModifierCtrl),
		Shift: m.IsPressed(input.ModifierShift),
		Meta:  m.IsPressed(input.ModifierMeta),
	}
}
