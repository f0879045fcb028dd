// internal/bot/events/factory_test.go
package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

const page = `<html><body style="height: 3000px">
<div id="a" style="width: 50px; height: 50px"></div>
<div id="b" style="width: 50px; height: 50px"></div>
</body></html>`

func setup(t *testing.T, preset string) (*events.Factory, *dom.Document, *[]*dom.Event) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	win := dom.NewWindow(dom.WithLogger(logger))
	doc, err := win.LoadHTML("http://example.test/", page)
	require.NoError(t, err)
	var seen []*dom.Event
	win.Observe(func(_ *dom.Document, ev *dom.Event) { seen = append(seen, ev) })
	return events.NewFactory(win, platform.MustPreset(preset), events.WithLogger(logger)), doc, &seen
}

func TestFireReportsCancellation(t *testing.T) {
	f, doc, seen := setup(t, "chrome")
	a := doc.ByID("a")

	ok, err := f.Fire(a, events.Click, events.MouseArgs{ClientX: 5, ClientY: 6})
	require.NoError(t, err)
	assert.True(t, ok)

	doc.AddEventListener(a, "click", func(ev *dom.Event) { ev.PreventDefault() }, dom.ListenerOptions{})
	ok, err = f.Fire(a, events.Click, events.MouseArgs{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, *seen, 2)
	ev := (*seen)[0]
	assert.False(t, ev.IsTrusted)
	assert.Equal(t, "MouseEvent", ev.Interface)
	assert.Equal(t, 1, ev.Detail)
	assert.Equal(t, 5.0, ev.Mouse.ClientX)
	assert.True(t, ev.Bubbles)
	assert.True(t, ev.Cancelable)
}

func TestDblClickDetail(t *testing.T) {
	f, doc, seen := setup(t, "chrome")
	_, err := f.Fire(doc.ByID("a"), events.DblClick, events.MouseArgs{})
	require.NoError(t, err)
	assert.Equal(t, 2, (*seen)[0].Detail)
}

func TestWheelNaming(t *testing.T) {
	f, doc, seen := setup(t, "chrome")
	_, err := f.Fire(doc.ByID("a"), events.MouseWheel, events.MouseArgs{WheelDelta: -120})
	require.NoError(t, err)
	ev := (*seen)[0]
	assert.Equal(t, "mousewheel", ev.Type)
	assert.Equal(t, -120, ev.Mouse.WheelDelta)
	assert.Zero(t, ev.Detail)

	f, doc, seen = setup(t, "firefox")
	_, err = f.Fire(doc.ByID("a"), events.MouseWheel, events.MouseArgs{WheelDelta: -120})
	require.NoError(t, err)
	_, err = f.Fire(doc.ByID("a"), events.MousePixelScroll, events.MouseArgs{WheelDelta: 57})
	require.NoError(t, err)
	require.Len(t, *seen, 2)
	assert.Equal(t, "DOMMouseScroll", (*seen)[0].Type)
	assert.Equal(t, 3, (*seen)[0].Detail)
	assert.Equal(t, "MozMousePixelScroll", (*seen)[1].Type)
	assert.Equal(t, 57, (*seen)[1].Detail)
}

func TestRelatedTargetOnlyOnOverOut(t *testing.T) {
	f, doc, seen := setup(t, "chrome")
	a, b := doc.ByID("a"), doc.ByID("b")

	_, err := f.Fire(a, events.Click, events.MouseArgs{RelatedTarget: b})
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))

	_, err = f.Fire(a, events.MouseOut, events.MouseArgs{RelatedTarget: b})
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Same(t, b, (*seen)[0].RelatedTarget)
}

func TestArgsMustMatchCategory(t *testing.T) {
	f, doc, _ := setup(t, "chrome")
	a := doc.ByID("a")

	_, err := f.Fire(a, events.KeyDown, events.MouseArgs{})
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))
	_, err = f.Fire(a, events.Click, nil)
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))
	_, err = f.Fire(a, events.Change, nil)
	assert.NoError(t, err)
}

func TestLegacyIEMouseUsesFromAndToElement(t *testing.T) {
	f, doc, seen := setup(t, "ie8")
	a, b := doc.ByID("a"), doc.ByID("b")

	_, err := f.Fire(b, events.MouseOver, events.MouseArgs{RelatedTarget: a})
	require.NoError(t, err)
	_, err = f.Fire(a, events.MouseOut, events.MouseArgs{RelatedTarget: b})
	require.NoError(t, err)

	over, out := (*seen)[0], (*seen)[1]
	assert.Equal(t, "MSEventObj", over.Interface)
	assert.Nil(t, over.RelatedTarget)
	assert.Same(t, a, over.Mouse.FromElement)
	assert.Same(t, b, out.Mouse.ToElement)
}

func TestKeyboardStrategies(t *testing.T) {
	args := events.KeyboardArgs{KeyCode: 0, CharCode: 'a', Key: "a", Code: "KeyA"}
	tests := []struct {
		preset    string
		iface     string
		keyCode   int
		charCode  int
		which     int
		key, code string
	}{
		{"chrome", "KeyboardEvent", 0, 'a', 'a', "a", "KeyA"},
		{"firefox", "KeyboardEvent", 0, 'a', 'a', "", ""},
		{"ie10", "Events", 'a', 0, 'a', "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			f, doc, seen := setup(t, tt.preset)
			_, err := f.Fire(doc.ByID("a"), events.KeyPress, args)
			require.NoError(t, err)
			k := (*seen)[0].Keyboard
			assert.Equal(t, tt.iface, (*seen)[0].Interface)
			assert.Equal(t, tt.keyCode, k.KeyCode)
			assert.Equal(t, tt.charCode, k.CharCode)
			assert.Equal(t, tt.which, k.Which)
			assert.Equal(t, tt.key, k.Key)
			assert.Equal(t, tt.code, k.Code)
		})
	}
}

func TestPreCancelledKeyboardEvent(t *testing.T) {
	f, doc, _ := setup(t, "firefox")
	ok, err := f.Fire(doc.ByID("a"), events.KeyPress, events.KeyboardArgs{KeyCode: 13, PreventDefault: true})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTouchStrategies(t *testing.T) {
	f, doc, _ := setup(t, "firefox")
	a := doc.ByID("a")
	pt := events.TouchPoint{Identifier: 2, ClientX: 10, ClientY: 20, Target: a}
	args := events.TouchArgs{Touches: []events.TouchPoint{pt}, TargetTouches: []events.TouchPoint{pt}, ChangedTouches: []events.TouchPoint{pt}}

	_, err := f.Fire(a, events.TouchStart, args)
	assert.True(t, bot.IsCode(err, bot.UnsupportedOperation))

	f, doc, seen := setup(t, "android")
	a = doc.ByID("a")
	pt.Target = a
	args = events.TouchArgs{Touches: []events.TouchPoint{pt}, TargetTouches: []events.TouchPoint{pt}, ChangedTouches: []events.TouchPoint{pt}}
	doc.SetScroll(nil, 0, 100)
	_, err = f.Fire(a, events.TouchStart, args)
	require.NoError(t, err)
	ev := (*seen)[len(*seen)-1]
	assert.Equal(t, "TouchEvent", ev.Interface)
	require.Len(t, ev.Touch.ChangedTouches, 1)
	assert.Equal(t, int64(2), ev.Touch.ChangedTouches[0].Identifier)
	assert.Equal(t, 120.0, ev.Touch.ChangedTouches[0].PageY)

	f, doc, seen = setup(t, "android-legacy")
	pt.Target = doc.ByID("a")
	_, err = f.Fire(pt.Target, events.TouchEnd, events.TouchArgs{ChangedTouches: []events.TouchPoint{pt}})
	require.NoError(t, err)
	ev = (*seen)[0]
	assert.Equal(t, "MouseEvent", ev.Interface)
	assert.Equal(t, 10.0, ev.Mouse.ClientX)
	assert.Empty(t, ev.Touch.Touches)

	_, err = f.Fire(pt.Target, events.TouchEnd, events.TouchArgs{})
	assert.True(t, bot.IsCode(err, bot.InvalidElementState), "a touch event needs a changed touch")
}

func TestPointerNaming(t *testing.T) {
	f, doc, seen := setup(t, "ie10")
	args := events.PointerArgs{PointerID: 1, PointerType: "mouse", IsPrimary: true}
	_, err := f.Fire(doc.ByID("a"), events.PointerDown, args)
	require.NoError(t, err)
	ev := (*seen)[0]
	assert.Equal(t, "MSPointerDown", ev.Type)
	assert.Equal(t, "MSPointerEvent", ev.Interface)
	assert.Equal(t, "4", ev.Pointer.PointerType)

	f, doc, seen = setup(t, "chrome")
	_, err = f.Fire(doc.ByID("a"), events.PointerDown, args)
	require.NoError(t, err)
	assert.Equal(t, "pointerdown", (*seen)[0].Type)
	assert.Equal(t, "mouse", (*seen)[0].Pointer.PointerType)

	f, doc, _ = setup(t, "ie8")
	_, err = f.Fire(doc.ByID("a"), events.PointerDown, args)
	assert.True(t, bot.IsCode(err, bot.UnsupportedOperation))
}

func TestHTMLEventInterfaces(t *testing.T) {
	f, doc, seen := setup(t, "chrome")
	a := doc.ByID("a")
	_, err := f.Fire(a, events.TextInput, events.HTMLArgs{Data: "x"})
	require.NoError(t, err)
	_, err = f.Fire(a, events.Focus, nil)
	require.NoError(t, err)
	assert.Equal(t, "TextEvent", (*seen)[0].Interface)
	assert.Equal(t, "x", (*seen)[0].Data)
	assert.Equal(t, "FocusEvent", (*seen)[1].Interface)
	assert.False(t, (*seen)[1].Bubbles)
}

func TestDetachedTargetIsUnknownError(t *testing.T) {
	f, _, _ := setup(t, "chrome")
	orphan := &html.Node{Type: html.ElementNode, Data: "div"}
	_, err := f.Fire(orphan, events.Click, events.MouseArgs{})
	assert.True(t, bot.IsCode(err, bot.UnknownError))
	_, err = f.Fire(nil, events.Click, events.MouseArgs{})
	assert.True(t, bot.IsCode(err, bot.UnknownError))
}

func TestLookup(t *testing.T) {
	ty, ok := events.Lookup("mousewheel")
	require.True(t, ok)
	assert.Equal(t, "DOMMouseScroll", ty.Name(platform.MustPreset("firefox")))
	assert.Equal(t, events.CategoryMouse, ty.Category)
	_, ok = events.Lookup("nope")
	assert.False(t, ok)
}
