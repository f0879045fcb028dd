// internal/platform/presets.go
package platform

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// NoButton marks a cell whose event cannot carry that button.
const NoButton = math.MinInt32

// DefaultName is the preset used when none is configured.
const DefaultName = "chrome"

const nb = NoButton

var (
	webkitButtons = ButtonTable{
		RowClick:       {0, 1, 2, nb},
		RowContextMenu: {nb, nb, 2, nb},
		RowMouseUp:     {0, 1, 2, nb},
		RowMouseOut:    {0, 1, 2, 0},
		RowMouseMove:   {0, 1, 2, 0},
	}
	geckoButtons = ButtonTable{
		RowClick:       {0, 1, 2, nb},
		RowContextMenu: {nb, nb, 2, nb},
		RowMouseUp:     {0, 1, 2, nb},
		RowMouseOut:    {0, 0, 0, 0},
		RowMouseMove:   {0, 0, 0, 0},
	}
	legacyIEButtons = ButtonTable{
		RowClick:       {0, 0, 0, nb},
		RowContextMenu: {nb, nb, 0, nb},
		RowMouseUp:     {1, 4, 2, nb},
		RowMouseOut:    {0, 0, 0, 0},
		RowMouseMove:   {1, 4, 2, 0},
	}
	// Pointer down and up report the pressed button; moves, overs and outs
	// report -1 for "no change".
	pointerButtons = ButtonTable{
		RowClick:       {0, 1, 2, nb},
		RowContextMenu: {nb, nb, 2, nb},
		RowMouseUp:     {0, 1, 2, nb},
		RowMouseOut:    {-1, -1, -1, -1},
		RowMouseMove:   {-1, -1, -1, -1},
	}
)

var presets = map[string]Capabilities{
	"chrome": {
		Mouse:                  MouseInit,
		Keyboard:               KeyboardConstructor,
		Touch:                  TouchNative,
		Pointer:                PointerW3C,
		Wheel:                  WheelMouseWheel,
		OptionRouting:          OptionWebKit,
		Keypress:               KeypressWebKit,
		Buttons:                webkitButtons,
		PointerButtons:         pointerButtons,
		InputEvents:            true,
		TextInputEvent:         true,
		Newline:                "\n",
		PointerEventsCSS:       true,
		SelectMouseDownFocuses: true,
		TouchActionProperty:    "touch-action",
	},
	"safari": {
		Mouse:                  MouseInit,
		Keyboard:               KeyboardConstructor,
		Touch:                  TouchNone,
		Pointer:                PointerW3C,
		Wheel:                  WheelMouseWheel,
		OptionRouting:          OptionWebKit,
		Keypress:               KeypressWebKit,
		Buttons:                webkitButtons,
		PointerButtons:         pointerButtons,
		InputEvents:            true,
		TextInputEvent:         true,
		Newline:                "\n",
		PointerEventsCSS:       true,
		SelectMouseDownFocuses: true,
		TouchActionProperty:    "touch-action",
	},
	"firefox": {
		Mouse:               MouseInit,
		Keyboard:            KeyboardGecko,
		Touch:               TouchNone,
		Pointer:             PointerW3C,
		Wheel:               WheelDOMMouseScroll,
		OptionRouting:       OptionDirect,
		Keypress:            KeypressGecko,
		Buttons:             geckoButtons,
		PointerButtons:      pointerButtons,
		GeckoKeyCodes:       true,
		InputEvents:         true,
		Newline:             "\n",
		PointerEventsCSS:    true,
		GeckoImplicitSubmit: true,
		TouchActionProperty: "touch-action",
	},
	"ie8": {
		Mouse:               MouseLegacyIE,
		Keyboard:            KeyboardGeneric,
		Touch:               TouchNone,
		Pointer:             PointerNone,
		Wheel:               WheelMouseWheel,
		OptionRouting:       OptionLegacyIE,
		Keypress:            KeypressIE,
		Buttons:             legacyIEButtons,
		PointerButtons:      legacyIEButtons,
		MouseOverAfterMove:  true,
		Newline:             "\r\n",
		LegacyBlurErrors:    true,
		TouchActionProperty: "-ms-touch-action",
	},
	"ie10": {
		Mouse:               MouseInit,
		Keyboard:            KeyboardGeneric,
		Touch:               TouchPointer,
		Pointer:             PointerMS,
		Wheel:               WheelMouseWheel,
		OptionRouting:       OptionLegacyIE,
		Keypress:            KeypressIE,
		Buttons:             webkitButtons,
		PointerButtons:      pointerButtons,
		InputEvents:         true,
		Newline:             "\r\n",
		TouchActionProperty: "-ms-touch-action",
	},
	"android": {
		Mouse:               MouseInit,
		Keyboard:            KeyboardConstructor,
		Touch:               TouchNative,
		Pointer:             PointerW3C,
		Wheel:               WheelMouseWheel,
		OptionRouting:       OptionWebKit,
		Keypress:            KeypressWebKit,
		Buttons:             webkitButtons,
		PointerButtons:      pointerButtons,
		InputEvents:         true,
		TextInputEvent:      true,
		Newline:             "\n",
		PointerEventsCSS:    true,
		TouchActionProperty: "touch-action",
		Mobile:              true,
	},
	"android-legacy": {
		Mouse:               MouseInit,
		Keyboard:            KeyboardConstructor,
		Touch:               TouchGeneric,
		Pointer:             PointerNone,
		Wheel:               WheelMouseWheel,
		OptionRouting:       OptionWebKit,
		Keypress:            KeypressWebKit,
		Buttons:             webkitButtons,
		PointerButtons:      webkitButtons,
		InputEvents:         true,
		TextInputEvent:      true,
		Newline:             "\n",
		PointerEventsCSS:    true,
		TouchActionProperty: "touch-action",
		Mobile:              true,
	},
}

// Preset returns the named capability set. Names are case-insensitive.
func Preset(name string) (Capabilities, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultName
	}
	c, ok := presets[key]
	if !ok {
		return Capabilities{}, fmt.Errorf("unknown platform %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	c.Name = key
	return c, nil
}

// MustPreset is Preset for names known at compile time.
func MustPreset(name string) Capabilities {
	c, err := Preset(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Names lists the presets in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
