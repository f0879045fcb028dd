// internal/trace/cdp.go
package trace

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// ToCDP converts the raw input events of a trace into the Input domain
// commands that make a browser generate them. Events a browser derives
// itself (click, over/out, pointer events, focus) carry no command of their
// own and are skipped, as are legacy DOMMouseScroll entries in favour of
// their pixel scroll twin.
func ToCDP(entries []Entry) []chromedp.Action {
	var out []chromedp.Action
	for _, e := range entries {
		if e.Trusted {
			continue
		}
		if a := toAction(e); a != nil {
			out = append(out, a)
		}
	}
	return out
}

func toAction(e Entry) chromedp.Action {
	switch e.Type {
	case "mousemove", "mousedown", "mouseup", "mousewheel", "MozMousePixelScroll":
		return mouseAction(e)
	case "keydown", "keypress", "keyup":
		return keyAction(e)
	case "touchstart", "touchmove", "touchend", "touchcancel":
		return touchAction(e)
	}
	return nil
}

func mouseAction(e Entry) chromedp.Action {
	m := e.Mouse
	if m == nil {
		return nil
	}
	var typ input.MouseType
	switch e.Type {
	case "mousemove":
		typ = input.MouseMoved
	case "mousedown":
		typ = input.MousePressed
	case "mouseup":
		typ = input.MouseReleased
	default:
		typ = input.MouseWheel
	}
	p := input.DispatchMouseEvent(typ, m.X, m.Y).
		WithModifiers(m.Modifiers.bits()).
		WithButtons(int64(m.Buttons))
	switch typ {
	case input.MousePressed, input.MouseReleased:
		p = p.WithButton(mouseButton(m.Button)).WithClickCount(int64(max(e.Detail, 1)))
	case input.MouseWheel:
		// mousewheel reports -120 per notch down; the pixel scroll event
		// reports pixels with the scroll direction's sign.
		dy := float64(m.WheelDelta)
		if e.Type == "mousewheel" {
			dy = -dy
		}
		p = p.WithDeltaY(dy)
	}
	return p
}

// mouseButton maps a W3C MouseEvent.button value.
func mouseButton(b int) input.MouseButton {
	switch b {
	case 0:
		return input.Left
	case 1:
		return input.Middle
	case 2:
		return input.Right
	}
	return input.None
}

func keyAction(e Entry) chromedp.Action {
	k := e.Key
	if k == nil {
		return nil
	}
	var p *input.DispatchKeyEventParams
	switch e.Type {
	case "keydown":
		p = input.DispatchKeyEvent(input.KeyRawDown).
			WithCode(k.Code).
			WithWindowsVirtualKeyCode(int64(k.KeyCode)).
			WithNativeVirtualKeyCode(int64(k.KeyCode)).
			WithLocation(int64(k.Location)).
			WithAutoRepeat(k.Repeat)
	case "keypress":
		if k.CharCode == 0 {
			return nil
		}
		text := string(rune(k.CharCode))
		p = input.DispatchKeyEvent(input.KeyChar).WithText(text).WithUnmodifiedText(text)
	default:
		p = input.DispatchKeyEvent(input.KeyUp).
			WithCode(k.Code).
			WithWindowsVirtualKeyCode(int64(k.KeyCode)).
			WithNativeVirtualKeyCode(int64(k.KeyCode)).
			WithLocation(int64(k.Location))
	}
	return p.WithKey(k.Key).WithModifiers(k.Modifiers.bits())
}

func touchAction(e Entry) chromedp.Action {
	t := e.Touch
	if t == nil {
		return nil
	}
	var typ input.TouchType
	switch e.Type {
	case "touchstart":
		typ = input.TouchStart
	case "touchmove":
		typ = input.TouchMove
	case "touchend":
		typ = input.TouchEnd
	default:
		typ = input.TouchCancel
	}
	// Start and move list every finger still down; end and cancel must not
	// list any.
	points := []*input.TouchPoint{}
	if typ == input.TouchStart || typ == input.TouchMove {
		fingers := t.Touches
		if len(fingers) == 0 {
			fingers = t.Changed
		}
		for _, pt := range fingers {
			points = append(points, &input.TouchPoint{X: pt.X, Y: pt.Y, ID: float64(pt.ID)})
		}
	}
	return input.DispatchTouchEvent(typ, points).WithModifiers(t.Modifiers.bits())
}

func (m Modifiers) bits() input.Modifier {
	var b input.Modifier
	if m.Alt {
		b |= input.ModifierAlt
	}
	if m.Ctrl {
		b |= input.ModifierCtrl
	}
	if m.Meta {
		b |= input.ModifierMeta
	}
	if m.Shift {
		b |= input.ModifierShift
	}
	return b
}

// Replay runs the trace's input commands in the chromedp context ctx.
func Replay(ctx context.Context, entries []Entry) error {
	actions := ToCDP(entries)
	if len(actions) == 0 {
		return nil
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return fmt.Errorf("failed to replay trace: %w", err)
	}
	return nil
}
