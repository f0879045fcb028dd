// internal/bot/device/touchscreen_test.go
package device_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/device"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

const pad = `<div id="pad" style="width:200px;height:100px">pad</div>
<div id="other" style="width:200px;height:100px">other</div>`

var touchAndMouse = []string{
	"touchstart", "touchmove", "touchend", "touchcancel",
	"mousemove", "mousedown", "mouseup", "mouseover", "mouseout", "click",
}

func (r *rig) touchscreen() *device.Touchscreen { return device.NewTouchscreen(r.device()) }

func TestTouchUnsupportedOnDesktopGecko(t *testing.T) {
	r := newRig(t, "firefox", pad)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	err := ts.Press(false)
	assert.True(t, bot.IsCode(err, bot.UnsupportedOperation))
}

func TestTouchStateErrors(t *testing.T) {
	r := newRig(t, "chrome", pad)
	ts := r.touchscreen()

	err := ts.Press(false)
	assert.True(t, bot.IsCode(err, bot.InvalidElementState), "press before any move")

	err = ts.Release()
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))

	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	require.NoError(t, ts.Press(false))
	err = ts.Press(false)
	assert.True(t, bot.IsCode(err, bot.InvalidElementState))
}

func TestTapFiresCompatibilityMouseEvents(t *testing.T) {
	r := newRig(t, "chrome", pad)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	require.NoError(t, ts.Press(false))
	require.NoError(t, ts.Release())

	want := []string{
		"touchstart@pad", "touchend@pad",
		"mousemove@pad", "mousedown@pad", "mouseup@pad", "click@pad",
	}
	if diff := cmp.Diff(want, r.fired(touchAndMouse...)); diff != "" {
		t.Errorf("tap sequence mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, ts.IsPressed())
}

func TestMovedTouchDoesNotClick(t *testing.T) {
	r := newRig(t, "chrome", pad)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	require.NoError(t, ts.Press(false))
	require.NoError(t, ts.Move(r.el("other"), 10, 10, 0, 0))
	require.NoError(t, ts.Release())

	assert.Equal(t, []string{"touchstart@pad", "touchmove@pad", "touchend@pad"}, r.fired(touchAndMouse...))
	move := r.events("touchmove")[0]
	require.Len(t, move.Touch.ChangedTouches, 1)
	rect := r.doc.ClientRect(r.el("other"))
	assert.Equal(t, rect.Y+10, move.Touch.ChangedTouches[0].ClientY)
}

func TestCancelledTouchStartSuppressesMouseEvents(t *testing.T) {
	r := newRig(t, "chrome", pad)
	r.doc.AddEventListener(r.el("pad"), "touchstart", func(ev *dom.Event) { ev.PreventDefault() }, dom.ListenerOptions{})
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	require.NoError(t, ts.Press(false))
	require.NoError(t, ts.Release())

	assert.Equal(t, []string{"touchstart@pad", "touchend@pad"}, r.fired(touchAndMouse...))
}

func TestTouchIdentifiers(t *testing.T) {
	r := newRig(t, "chrome", pad)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 50, 50))

	require.NoError(t, ts.Press(false))
	id1, id2 := ts.IDs()
	assert.Equal(t, int64(2), id1)
	assert.Zero(t, id2)
	require.NoError(t, ts.Release())

	require.NoError(t, ts.Press(true))
	id1, id2 = ts.IDs()
	assert.Equal(t, int64(3), id1)
	assert.Equal(t, int64(4), id2)

	start := r.events("touchstart")[1]
	assert.Len(t, start.Touch.Touches, 2)
	assert.Len(t, start.Touch.ChangedTouches, 2)

	require.NoError(t, ts.Release())
	id1, id2 = ts.IDs()
	assert.Zero(t, id1)
	assert.Zero(t, id2)
	end := r.events("touchend")[1]
	assert.Empty(t, end.Touch.Touches)
	assert.Len(t, end.Touch.ChangedTouches, 2)
}

func TestPointerEmulationWithoutTouchAction(t *testing.T) {
	r := newRig(t, "ie10", pad)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))

	require.NoError(t, ts.Press(false))
	assert.Equal(t, []string{
		"mousemove@pad", "MSPointerOver@pad", "mouseover@pad", "MSPointerDown@pad", "mousedown@pad",
	}, r.fired())
	r.reset()

	require.NoError(t, ts.Move(r.el("pad"), 20, 20, 0, 0))
	assert.Equal(t, []string{"MSPointerCancel@pad", "MSPointerOut@pad", "mouseout@pad"}, r.fired())
	r.reset()

	require.NoError(t, ts.Move(r.el("pad"), 30, 30, 0, 0))
	require.NoError(t, ts.Release())
	assert.Empty(t, r.fired())
}

func TestPointerEmulationWithTouchAction(t *testing.T) {
	r := newRig(t, "ie10", `<div id="pad" style="width:200px;height:100px;-ms-touch-action:none">pad</div>`)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	require.NoError(t, ts.Press(false))
	r.reset()

	require.NoError(t, ts.Move(r.el("pad"), 20, 20, 0, 0))
	assert.Equal(t, []string{"MSPointerMove@pad", "mousemove@pad"}, r.fired())
	r.reset()

	require.NoError(t, ts.Release())
	assert.Equal(t, []string{
		"MSPointerUp@pad", "mouseup@pad", "click@pad", "MSPointerOut@pad", "mouseout@pad",
	}, r.fired())

	ptr := r.events("MSPointerUp")[0].Pointer
	require.NotNil(t, ptr)
	assert.True(t, ptr.IsPrimary)
	assert.Equal(t, int64(2), ptr.PointerID)
}

func TestTouchSnapshotRoundTrip(t *testing.T) {
	r := newRig(t, "chrome", pad)
	ts := r.touchscreen()
	require.NoError(t, ts.Move(r.el("pad"), 5, 5, 0, 0))
	require.NoError(t, ts.Press(false))
	state := ts.Snapshot()

	data, err := device.Encode(state)
	require.NoError(t, err)
	var decoded device.TouchState
	require.NoError(t, device.Decode(data, &decoded))

	restored := r.touchscreen()
	require.NoError(t, restored.Restore(decoded))
	assert.Empty(t, cmp.Diff(state, restored.Snapshot()))
	assert.True(t, restored.IsPressed())

	r.reset()
	require.NoError(t, restored.Release())
	assert.Equal(t, []string{"touchend@pad"}, r.fired("touchend"))
	assert.Len(t, r.events("click"), 1)
}
