// internal/browser/style/values.go
package style

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/synthinput/internal/browser/parser"
)

// StyleMap is a computed (or cascaded) style: property -> value.
type StyleMap map[parser.Property]parser.Value

// Lookup returns the value of property, or fallback when unset.
func (sm StyleMap) Lookup(property, fallback string) string {
	if v, ok := sm[parser.Property(property)]; ok {
		return strings.ToLower(strings.TrimSpace(string(v)))
	}
	return fallback
}

type DisplayType int

const (
	DisplayInline DisplayType = iota
	DisplayBlock
	DisplayInlineBlock
	DisplayNone
	DisplayListItem
	DisplayContents
	DisplayFlex
	DisplayInlineFlex
	DisplayGrid
	DisplayTable
)

func (sm StyleMap) Display() DisplayType {
	switch sm.Lookup("display", "inline") {
	case "block", "flow-root":
		return DisplayBlock
	case "inline-block":
		return DisplayInlineBlock
	case "none":
		return DisplayNone
	case "list-item":
		return DisplayListItem
	case "contents":
		return DisplayContents
	case "flex":
		return DisplayFlex
	case "inline-flex":
		return DisplayInlineFlex
	case "grid":
		return DisplayGrid
	case "table":
		return DisplayTable
	default:
		return DisplayInline
	}
}

// IsBlockLevel reports whether the display type stacks vertically in flow.
func (d DisplayType) IsBlockLevel() bool {
	switch d {
	case DisplayBlock, DisplayListItem, DisplayFlex, DisplayGrid, DisplayTable:
		return true
	}
	return false
}

type PositionType int

const (
	PositionStatic PositionType = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

func (sm StyleMap) Position() PositionType {
	switch sm.Lookup("position", "static") {
	case "relative":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	case "sticky":
		return PositionSticky
	default:
		return PositionStatic
	}
}

func (sm StyleMap) Visibility() string { return sm.Lookup("visibility", "visible") }

// IsVisible is false for visibility hidden or collapse.
func (sm StyleMap) IsVisible() bool {
	v := sm.Visibility()
	return v != "hidden" && v != "collapse"
}

// Opacity is the element's own opacity clamped to [0, 1].
func (sm StyleMap) Opacity() float64 {
	raw := sm.Lookup("opacity", "1")
	var v float64
	if strings.HasSuffix(raw, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
		if err != nil {
			return 1
		}
		v = f / 100
	} else {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 1
		}
		v = f
	}
	return clamp(v, 0, 1)
}

func (sm StyleMap) OverflowX() string { return sm.Lookup("overflow-x", "visible") }
func (sm StyleMap) OverflowY() string { return sm.Lookup("overflow-y", "visible") }

func (sm StyleMap) PointerEvents() string { return sm.Lookup("pointer-events", "auto") }
func (sm StyleMap) Direction() string     { return sm.Lookup("direction", "ltr") }

// TouchAction merges the standard and the -ms- prefixed property.
func (sm StyleMap) TouchAction() string {
	if v := sm.Lookup("touch-action", "auto"); v != "auto" {
		return v
	}
	return sm.Lookup("-ms-touch-action", "auto")
}

func (sm StyleMap) BoxSizing() string { return sm.Lookup("box-sizing", "content-box") }

// FontSize returns the computed font size in px.
func (sm StyleMap) FontSize() float64 {
	v := ParseAbsoluteLength(sm.Lookup("font-size", "16px"))
	if v <= 0 {
		return BaseFontSize
	}
	return v
}

// LineHeight returns the used line height in px.
func (sm StyleMap) LineHeight() float64 {
	fs := sm.FontSize()
	raw := sm.Lookup("line-height", "normal")
	if raw == "normal" {
		return fs * 1.2
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f * fs
	}
	if v := ParseLengthWithUnits(raw, fs, BaseFontSize, fs, 0, 0); v > 0 {
		return v
	}
	return fs * 1.2
}

// Length resolves a length property against reference (the containing
// dimension used for percentages). auto reports false.
func (sm StyleMap) Length(property string, reference, vw, vh float64) (float64, bool) {
	raw := sm.Lookup(property, "auto")
	if raw == "auto" || raw == "" || raw == "none" || raw == "normal" {
		return 0, false
	}
	return ParseLengthWithUnits(raw, sm.FontSize(), BaseFontSize, reference, vw, vh), true
}

// BorderWidth returns the used width of one border side. A side without a
// visible style has no width.
func (sm StyleMap) BorderWidth(side string) float64 {
	switch sm.Lookup("border-"+side+"-style", "none") {
	case "none", "hidden":
		return 0
	}
	switch w := sm.Lookup("border-"+side+"-width", "medium"); w {
	case "thin":
		return 1
	case "medium":
		return 3
	case "thick":
		return 5
	default:
		return ParseLengthWithUnits(w, sm.FontSize(), BaseFontSize, 0, 0, 0)
	}
}

// ParseLengthWithUnits converts a CSS length to px.
func ParseLengthWithUnits(value string, parentFontSize, rootFontSize, referenceDimension, viewportWidth, viewportHeight float64) float64 {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "auto" || value == "normal" {
		return 0
	}
	num := func(suffix string) (float64, bool) {
		if !strings.HasSuffix(value, suffix) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, suffix), 64)
		return f, err == nil
	}
	if v, ok := num("%"); ok {
		return referenceDimension * v / 100
	}
	if v, ok := num("px"); ok {
		return v
	}
	if v, ok := num("rem"); ok {
		return v * rootFontSize
	}
	if v, ok := num("em"); ok {
		return v * parentFontSize
	}
	if v, ok := num("vw"); ok {
		return viewportWidth * v / 100
	}
	if v, ok := num("vh"); ok {
		return viewportHeight * v / 100
	}
	if v, ok := num("vmin"); ok {
		return min(viewportWidth, viewportHeight) * v / 100
	}
	if v, ok := num("vmax"); ok {
		return max(viewportWidth, viewportHeight) * v / 100
	}
	if v, ok := num("pt"); ok {
		return v * 4 / 3
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return 0
}

// ParseAbsoluteLength converts absolute lengths only; relative units yield 0.
func ParseAbsoluteLength(value string) float64 {
	return ParseLengthWithUnits(value, 0, 0, 0, 0, 0)
}

// MeasureText estimates the advance width of text at the given font size.
func MeasureText(text string, fontSize float64) float64 {
	return float64(len([]rune(text))) * fontSize * 0.6
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
