// internal/bot/device/mouse_test.go
package device_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/device"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

const twoBoxes = `<div id="a" style="width:100px;height:40px">a</div>
<div id="b" style="width:100px;height:40px">b</div>`

func (r *rig) mouse() *device.Mouse { return device.NewMouse(r.device()) }

func click(t *testing.T, m *device.Mouse) {
	t.Helper()
	require.NoError(t, m.PressButton(platform.ButtonLeft))
	require.NoError(t, m.ReleaseButton(false))
}

func TestClickSequenceMirrorsPointerEvents(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()

	require.NoError(t, m.Move(r.el("a"), 10, 10))
	click(t, m)

	want := []string{
		"pointerover@a", "mouseover@a", "pointermove@a", "mousemove@a",
		"pointerdown@a", "mousedown@a", "pointerup@a", "mouseup@a", "click@a",
	}
	if diff := cmp.Diff(want, r.fired()); diff != "" {
		t.Errorf("click sequence mismatch (-want +got):\n%s", diff)
	}
	x, y := m.Position()
	assert.Equal(t, 18.0, x)
	assert.Equal(t, 18.0, y)
}

func TestDoubleClickToggles(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))

	click(t, m)
	assert.Len(t, r.events("click"), 1)
	assert.Empty(t, r.events("dblclick"))

	click(t, m)
	assert.Len(t, r.events("click"), 2)
	assert.Len(t, r.events("dblclick"), 1)

	click(t, m)
	assert.Len(t, r.events("click"), 3)
	assert.Len(t, r.events("dblclick"), 1)

	// Moving resets the pending double click.
	require.NoError(t, m.Move(r.el("a"), 6, 6))
	click(t, m)
	assert.Len(t, r.events("dblclick"), 1)
}

func TestMoveFiresOutAndOverWithRelatedTargets(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))
	r.reset()

	require.NoError(t, m.Move(r.el("b"), 5, 5))
	assert.Equal(t, []string{"mouseout@a", "mouseover@b"}, r.fired("mouseout", "mouseover"))
	assert.Equal(t, r.el("b"), r.events("mouseout")[0].RelatedTarget)
	assert.Equal(t, r.el("a"), r.events("mouseover")[0].RelatedTarget)
	assert.Equal(t, r.el("b"), m.Element())
}

func TestFirstMoveFiresNoMouseOut(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	m.SetElement(r.el("a"))

	require.NoError(t, m.Move(r.el("b"), 5, 5))
	assert.Empty(t, r.fired("mouseout"))
}

func TestLegacyMouseOverFollowsMove(t *testing.T) {
	r := newRig(t, "ie8", twoBoxes)
	m := r.mouse()

	require.NoError(t, m.Move(r.el("a"), 5, 5))
	assert.Equal(t, []string{"mousemove@a", "mouseover@a"}, r.fired())
}

func TestButtonStateErrors(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()

	err := m.ReleaseButton(false)
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))

	require.NoError(t, m.Move(r.el("a"), 5, 5))
	require.NoError(t, m.PressButton(platform.ButtonLeft))
	err = m.PressButton(platform.ButtonRight)
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))

	require.NoError(t, m.ReleaseButton(false))
	_, pressed := m.Button()
	assert.False(t, pressed)
}

func TestRightClickOpensContextMenu(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))

	require.NoError(t, m.PressButton(platform.ButtonRight))
	require.NoError(t, m.ReleaseButton(false))

	assert.Empty(t, r.events("click"))
	menus := r.events("contextmenu")
	require.Len(t, menus, 1)
	assert.Equal(t, 2, menus[0].Mouse.Button)
}

func TestReleaseOverAnotherElementDoesNotClick(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))
	require.NoError(t, m.PressButton(platform.ButtonLeft))
	require.NoError(t, m.Move(r.el("b"), 5, 5))
	require.NoError(t, m.ReleaseButton(false))

	assert.Empty(t, r.events("click"))
	assert.Equal(t, []string{"mouseup@b"}, r.fired("mouseup"))
}

func TestCancelledPointerDownSuppressesMouseDown(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	r.doc.AddEventListener(r.el("a"), "pointerdown", func(ev *dom.Event) { ev.PreventDefault() }, dom.ListenerOptions{})
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))
	click(t, m)

	assert.Empty(t, r.events("mousedown"))
	assert.Len(t, r.events("click"), 1)
}

func TestMouseDownFocusesUnlessHandlerMovedFocus(t *testing.T) {
	r := newRig(t, "chrome", `<input id="field"><input id="other"><input id="third">`)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("field"), 5, 5))
	click(t, m)
	assert.Equal(t, r.el("field"), r.doc.ActiveElement())

	r.doc.AddEventListener(r.el("other"), "mousedown", func(*dom.Event) {
		require.NoError(t, r.doc.Focus(r.el("third")))
	}, dom.ListenerOptions{})
	require.NoError(t, m.Move(r.el("other"), 5, 5))
	click(t, m)
	assert.Equal(t, r.el("third"), r.doc.ActiveElement())
}

func TestPointerCaptureIsReleasedAfterRelease(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	r.doc.AddEventListener(r.el("a"), "pointerdown", func(*dom.Event) {
		require.NoError(t, r.win.SetPointerCapture(r.el("a"), device.MousePointerID))
	}, dom.ListenerOptions{})
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))
	require.NoError(t, m.PressButton(platform.ButtonLeft))
	assert.Equal(t, []string{"gotpointercapture@a"}, r.fired("gotpointercapture"))

	require.NoError(t, m.Move(r.el("b"), 5, 5))
	assert.Equal(t, []string{"mousemove@a"}, r.fired("mousemove")[1:])

	require.NoError(t, m.ReleaseButton(false))
	assert.Zero(t, r.capture.Len())
	assert.Equal(t, []string{"lostpointercapture@a"}, r.fired("lostpointercapture"))
}

func TestScrollFiresOneWheelEventPerTick(t *testing.T) {
	r := newRig(t, "chrome", `<div id="big" style="height:2000px">x</div>`)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("big"), 5, 5))

	require.NoError(t, m.Scroll(3))
	wheels := r.events("mousewheel")
	require.Len(t, wheels, 3)
	for _, ev := range wheels {
		assert.Equal(t, -120, ev.Mouse.WheelDelta)
	}
	_, y := r.doc.ScrollOffset(r.doc.DocumentElement())
	assert.Equal(t, 171.0, y)

	r.reset()
	require.NoError(t, m.Scroll(-2))
	wheels = r.events("mousewheel")
	require.Len(t, wheels, 2)
	for _, ev := range wheels {
		assert.Equal(t, 120, ev.Mouse.WheelDelta)
	}
	_, y = r.doc.ScrollOffset(r.doc.DocumentElement())
	assert.Equal(t, 57.0, y)

	err := m.Scroll(0)
	assert.True(t, bot.IsCode(err, bot.UnknownError))
}

func TestGeckoScrollAddsPixelEvents(t *testing.T) {
	r := newRig(t, "firefox", `<div id="big" style="height:2000px">x</div>`)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("big"), 5, 5))
	r.reset()

	require.NoError(t, m.Scroll(1))
	assert.Equal(t, []string{"DOMMouseScroll@big", "MozMousePixelScroll@big"}, r.fired())
	assert.Equal(t, 57, r.events("MozMousePixelScroll")[0].Detail)
}

func TestCancelledWheelDoesNotScroll(t *testing.T) {
	r := newRig(t, "chrome", `<div id="big" style="height:2000px">x</div>`)
	r.doc.AddEventListener(r.el("big"), "mousewheel", func(ev *dom.Event) { ev.PreventDefault() }, dom.ListenerOptions{})
	m := r.mouse()
	require.NoError(t, m.Move(r.el("big"), 5, 5))
	require.NoError(t, m.Scroll(2))

	_, y := r.doc.ScrollOffset(r.doc.DocumentElement())
	assert.Zero(t, y)
}

func TestClickingAnOptionSelectsIt(t *testing.T) {
	r := newRig(t, "firefox", `<select id="s"><option id="o1">a</option><option id="o2">b</option></select>`)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("o2"), 1, 1))
	click(t, m)

	assert.True(t, r.doc.Selected(r.el("o2")))
	assert.Equal(t, []string{"input@s", "change@s"}, r.fired(events.Input.String(), events.Change.String()))
}

func TestMouseSnapshotRoundTrip(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("a"), 5, 5))
	require.NoError(t, m.PressButton(platform.ButtonLeft))
	state := m.Snapshot()

	data, err := device.Encode(state)
	require.NoError(t, err)
	var decoded device.MouseState
	require.NoError(t, device.Decode(data, &decoded))
	assert.Empty(t, cmp.Diff(state, decoded))

	restored := r.mouse()
	require.NoError(t, restored.Restore(decoded))
	assert.Empty(t, cmp.Diff(state, restored.Snapshot()))
	require.NoError(t, restored.ReleaseButton(false))
	assert.Len(t, r.events("click"), 1)

	decoded.Element = "//div[@id='missing']"
	err = r.mouse().Restore(decoded)
	assert.True(t, bot.IsCode(err, bot.NoSuchElement))
}

func TestMouseSnapshotKeepsCombinedModifiers(t *testing.T) {
	r := newRig(t, "chrome", twoBoxes)
	m := r.mouse()
	require.NoError(t, m.Move(r.el("b"), 5, 5))
	r.mods.SetPressed(keys.Shift.Modifier(), true)
	r.mods.SetPressed(keys.Alt.Modifier(), true)
	state := m.Snapshot()
	want := int64(keys.Shift.Modifier() | keys.Alt.Modifier())
	assert.Equal(t, want, state.Modifiers)

	data, err := device.Encode(state)
	require.NoError(t, err)
	var decoded device.MouseState
	require.NoError(t, device.Decode(data, &decoded))
	assert.Empty(t, cmp.Diff(state, decoded))
	assert.Equal(t, want, decoded.Modifiers)
}
