package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLengthWithUnits(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"10px", 10},
		{"2em", 32},
		{"1.5rem", 24},
		{"50%", 50},
		{"10vw", 102.4},
		{"10vh", 76.8},
		{"10vmin", 76.8},
		{"12pt", 16},
		{"7", 7},
		{"auto", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParseLengthWithUnits(tt.input, 16, 16, 100, 1024, 768), 0.001)
		})
	}
}

func TestStyleMapAccessors(t *testing.T) {
	sm := StyleMap{
		"display":          "INLINE-BLOCK",
		"position":         "fixed",
		"opacity":          "40%",
		"visibility":       "collapse",
		"-ms-touch-action": "none",
		"line-height":      "2",
		"font-size":        "10px",
		"width":            "50%",
	}
	assert.Equal(t, DisplayInlineBlock, sm.Display())
	assert.Equal(t, PositionFixed, sm.Position())
	assert.InDelta(t, 0.4, sm.Opacity(), 0.0001)
	assert.False(t, sm.IsVisible())
	assert.Equal(t, "none", sm.TouchAction())
	assert.Equal(t, 20.0, sm.LineHeight())

	w, ok := sm.Length("width", 300, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, 150.0, w)
	_, ok = sm.Length("height", 300, 0, 0)
	assert.False(t, ok, "unset height is auto")

	assert.Equal(t, 1.0, StyleMap{"opacity": "3"}.Opacity(), "opacity is clamped")
	assert.Equal(t, 1.0, StyleMap{"opacity": "bogus"}.Opacity())
	assert.InDelta(t, 19.2, StyleMap{}.LineHeight(), 0.0001)
}

func TestBorderWidth(t *testing.T) {
	sm := StyleMap{
		"border-top-style": "solid", "border-top-width": "thin",
		"border-left-style": "none", "border-left-width": "10px",
		"border-right-style": "inset", "border-right-width": "4px",
		"border-bottom-style": "solid",
	}
	assert.Equal(t, 1.0, sm.BorderWidth("top"))
	assert.Equal(t, 0.0, sm.BorderWidth("left"), "no style, no width")
	assert.Equal(t, 4.0, sm.BorderWidth("right"))
	assert.Equal(t, 3.0, sm.BorderWidth("bottom"), "medium by default")
}

func TestDisplayIsBlockLevel(t *testing.T) {
	assert.True(t, DisplayBlock.IsBlockLevel())
	assert.True(t, DisplayListItem.IsBlockLevel())
	assert.False(t, DisplayInlineBlock.IsBlockLevel())
	assert.False(t, DisplayContents.IsBlockLevel())
}

func TestMeasureText(t *testing.T) {
	assert.InDelta(t, 48.0, MeasureText("hello", 16), 0.001)
	assert.Equal(t, 0.0, MeasureText("", 16))
}
