// internal/bot/events/args.go
package events

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
)

// Args is the tagged union of per-category event arguments.
type Args interface {
	Category() Category
	related() *html.Node
}

// Modifiers is the modifier key state carried by UI events.
type Modifiers struct {
	Alt, Ctrl, Shift, Meta bool
}

type MouseArgs struct {
	ClientX, ClientY float64
	Button           int
	Buttons          int
	Modifiers
	RelatedTarget *html.Node
	// WheelDelta is the wheel delta for mousewheel and DOMMouseScroll, and
	// the pixel delta for MozMousePixelScroll.
	WheelDelta int
}

type KeyboardArgs struct {
	KeyCode  int
	CharCode int
	Key      string
	Code     string
	Location int
	Repeat   bool
	Modifiers
	// PreventDefault dispatches the event already cancelled.
	PreventDefault bool
}

// TouchPoint is one finger of a touch event, in client coordinates.
type TouchPoint struct {
	Identifier       int64
	ClientX, ClientY float64
	Target           *html.Node
}

type TouchArgs struct {
	Touches        []TouchPoint
	TargetTouches  []TouchPoint
	ChangedTouches []TouchPoint
	Scale          float64
	Rotation       float64
	Modifiers
	RelatedTarget *html.Node
}

type PointerArgs struct {
	MouseArgs
	PointerID     int64
	Width, Height float64
	Pressure      float64
	Rotation      float64
	PointerType   string
	IsPrimary     bool
}

// HTMLArgs carries the data of textInput and input events.
type HTMLArgs struct {
	Data string
}

func (MouseArgs) Category() Category    { return CategoryMouse }
func (KeyboardArgs) Category() Category { return CategoryKeyboard }
func (TouchArgs) Category() Category    { return CategoryTouch }
func (PointerArgs) Category() Category  { return CategoryPointer }
func (HTMLArgs) Category() Category     { return CategoryHTML }

func (a MouseArgs) related() *html.Node   { return a.RelatedTarget }
func (KeyboardArgs) related() *html.Node  { return nil }
func (a TouchArgs) related() *html.Node   { return a.RelatedTarget }
func (a PointerArgs) related() *html.Node { return a.RelatedTarget }
func (HTMLArgs) related() *html.Node      { return nil }

// Validate checks that args fit the event type. A nil args is accepted for
// HTML events only.
func Validate(t Type, args Args) error {
	if args == nil {
		if t.Category != CategoryHTML {
			return bot.NewError(bot.InvalidElementState, "%s event requires %s args", t, t.Category)
		}
		return nil
	}
	if args.Category() != t.Category {
		return bot.NewError(bot.InvalidElementState, "%s event cannot take %s args", t, args.Category())
	}
	if args.related() != nil && !t.IsOverOut() {
		return bot.NewError(bot.InvalidElementState, "relatedTarget is only allowed on over and out events, not %s", t)
	}
	if ta, ok := args.(TouchArgs); ok && len(ta.ChangedTouches) == 0 {
		return bot.NewError(bot.InvalidElementState, "%s event requires at least one changed touch", t)
	}
	return nil
}
