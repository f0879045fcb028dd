// internal/platform/capabilities.go
package platform

// MouseModel selects how mouse events are constructed.
type MouseModel int

const (
	// MouseInit builds a MouseEvent and initializes it with initMouseEvent.
	MouseInit MouseModel = iota
	// MouseLegacyIE builds an IE event object carrying fromElement and
	// toElement instead of relatedTarget.
	MouseLegacyIE
)

// KeyboardModel selects how keyboard events are constructed.
type KeyboardModel int

const (
	// KeyboardConstructor uses the KeyboardEvent constructor carrying key
	// and code.
	KeyboardConstructor KeyboardModel = iota
	// KeyboardGecko uses initKeyEvent, with charCode set only on keypress.
	KeyboardGecko
	// KeyboardGeneric builds a generic Events object and assigns keyCode
	// directly.
	KeyboardGeneric
)

// TouchMode selects how touch gestures reach the page.
type TouchMode int

const (
	TouchNone TouchMode = iota
	// TouchGeneric fakes touch lists on a MouseEvent-shaped object.
	TouchGeneric
	// TouchNative uses the native Touch and TouchList constructors.
	TouchNative
	// TouchPointer emulates touch with MSPointer and mouse sequences.
	TouchPointer
)

// PointerModel selects the names of pointer events, if any.
type PointerModel int

const (
	PointerNone PointerModel = iota
	// PointerMS fires the prefixed MSPointer* events.
	PointerMS
	// PointerW3C fires the unprefixed pointer* events.
	PointerW3C
)

// OptionRouting selects the redirection table applied to events aimed at
// <option> elements.
type OptionRouting int

const (
	// OptionDirect sends every event to the option.
	OptionDirect OptionRouting = iota
	// OptionWebKit sends clicks and mouseups of single selects to the
	// select and suppresses everything else.
	OptionWebKit
	// OptionLegacyIE sends most events to the select.
	OptionLegacyIE
)

// KeypressRule selects which keys produce a keypress after keydown.
type KeypressRule int

const (
	// KeypressWebKit fires keypress for character keys and ENTER.
	KeypressWebKit KeypressRule = iota
	// KeypressIE adds ESC.
	KeypressIE
	// KeypressGecko fires keypress for every key except SHIFT, CONTROL and
	// ALT, even after a cancelled keydown.
	KeypressGecko
)

// WheelModel selects the wheel event names.
type WheelModel int

const (
	// WheelMouseWheel fires mousewheel with wheelDelta.
	WheelMouseWheel WheelModel = iota
	// WheelDOMMouseScroll fires DOMMouseScroll followed by
	// MozMousePixelScroll.
	WheelDOMMouseScroll
)

// Button indexes the columns of a ButtonTable.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
	ButtonNone
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// ButtonRow names the event families of a ButtonTable.
type ButtonRow int

const (
	RowClick ButtonRow = iota
	RowContextMenu
	RowMouseUp
	RowMouseOut
	RowMouseMove
	rowCount
)

// ButtonTable holds the value of MouseEvent.button per event family and
// pressed button.
type ButtonTable [rowCount][4]int

// Value returns the button value and whether the combination is allowed.
func (t ButtonTable) Value(row ButtonRow, b Button) (int, bool) {
	if row < 0 || row >= rowCount || b < ButtonLeft || b > ButtonNone {
		return 0, false
	}
	v := t[row][b]
	return v, v != NoButton
}

// Capabilities describes one browser engine. Every per-engine decision made
// by the factory and the devices is a lookup against this value.
type Capabilities struct {
	Name string `json:"name"`

	Mouse    MouseModel    `json:"mouse"`
	Keyboard KeyboardModel `json:"keyboard"`
	Touch    TouchMode     `json:"touch"`
	Pointer  PointerModel  `json:"pointer"`
	Wheel    WheelModel    `json:"wheel"`

	OptionRouting OptionRouting `json:"option_routing"`
	Keypress      KeypressRule  `json:"keypress"`
	Buttons       ButtonTable   `json:"buttons"`
	// PointerButtons is consulted for pointer and MSPointer events.
	PointerButtons ButtonTable `json:"pointer_buttons"`

	// GeckoKeyCodes selects the Gecko column of the key code table.
	GeckoKeyCodes bool `json:"gecko_key_codes"`
	// MouseOverAfterMove fires MOUSEOVER after MOUSEMOVE when the target
	// changes.
	MouseOverAfterMove bool `json:"mouse_over_after_move"`
	// InputEvents fires input after text edits.
	InputEvents bool `json:"input_events"`
	// TextInputEvent fires textInput before character insertion.
	TextInputEvent bool `json:"text_input_event"`
	// Newline is inserted by ENTER in a textarea.
	Newline string `json:"newline"`
	// LegacyBlurErrors makes blurring a torn-down element raise an
	// unspecified error.
	LegacyBlurErrors bool `json:"legacy_blur_errors"`
	// PointerEventsCSS reports support for the pointer-events property.
	PointerEventsCSS bool `json:"pointer_events_css"`
	// GeckoImplicitSubmit reports the engine submits forms on ENTER itself.
	GeckoImplicitSubmit bool `json:"gecko_implicit_submit"`
	// SelectMouseDownFocuses skips mousedown on <select> and <option> and
	// focuses directly, as desktop WebKit does.
	SelectMouseDownFocuses bool `json:"select_mouse_down_focuses"`
	// TouchActionProperty is the CSS property consulted by pointer
	// emulated touch moves.
	TouchActionProperty string `json:"touch_action_property"`
	Mobile              bool   `json:"mobile"`
}

// SupportsTouch reports whether touch gestures can be fired at all.
func (c Capabilities) SupportsTouch() bool { return c.Touch != TouchNone }

// SupportsPointerEvents reports whether pointer events mirror mouse events.
func (c Capabilities) SupportsPointerEvents() bool { return c.Pointer != PointerNone }
