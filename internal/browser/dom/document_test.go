package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

func loadWindow(t *testing.T, body string, opts ...dom.Option) (*dom.Window, *dom.Document) {
	t.Helper()
	opts = append([]dom.Option{dom.WithLogger(zaptest.NewLogger(t))}, opts...)
	w := dom.NewWindow(opts...)
	d, err := w.LoadHTML("http://example.test/page.html", "<html><body>"+body+"</body></html>")
	require.NoError(t, err)
	return w, d
}

func mustFind(t *testing.T, d *dom.Document, xpath string) *html.Node {
	t.Helper()
	n, err := d.Find(xpath)
	require.NoError(t, err)
	return n
}

// record collects "type@id" for every event reaching the document node.
func record(d *dom.Document, types ...string) *[]string {
	var log []string
	for _, typ := range types {
		d.AddEventListener(d.Root, typ, func(ev *dom.Event) {
			id, _ := dom.Attribute(ev.Target, "id")
			log = append(log, ev.Type+"@"+id)
		}, dom.ListenerOptions{Capture: true})
	}
	return &log
}

func TestFindReportsNoSuchElement(t *testing.T) {
	_, d := loadWindow(t, `<p id="a">x</p>`)

	_, err := d.Find("//p[@id='missing']")
	assert.True(t, bot.IsCode(err, bot.NoSuchElement))

	_, err = d.Find("//p[")
	assert.True(t, bot.IsCode(err, bot.NoSuchElement))

	assert.NotNil(t, d.ByID("a"))
	assert.Nil(t, d.ByID("missing"))
}

func TestActiveElementDefaultsToBody(t *testing.T) {
	_, d := loadWindow(t, `<input id="a">`)
	assert.Equal(t, d.Body(), d.ActiveElement())
}

func TestFocusTransfersWithRelatedTargets(t *testing.T) {
	_, d := loadWindow(t, `<input id="a"><input id="b"><div id="plain"></div>`)
	a, b := d.ByID("a"), d.ByID("b")

	var related []string
	d.AddEventListener(a, "blur", func(ev *dom.Event) {
		id, _ := dom.Attribute(ev.RelatedTarget, "id")
		related = append(related, "blur->"+id)
	}, dom.ListenerOptions{})
	log := record(d, "focus", "blur", "focusin", "focusout")

	require.NoError(t, d.Focus(a))
	require.NoError(t, d.Focus(b))

	assert.Equal(t, []string{"focus@a", "focusin@a", "blur@a", "focusout@a", "focus@b", "focusin@b"}, *log)
	assert.Equal(t, []string{"blur->b"}, related)
	assert.Equal(t, b, d.ActiveElement())

	// Already focused and non-focusable targets are no-ops.
	*log = nil
	require.NoError(t, d.Focus(b))
	require.NoError(t, d.Focus(d.ByID("plain")))
	assert.Empty(t, *log)
	assert.Equal(t, b, d.ActiveElement())
}

func TestFocusSkipsDisabledControls(t *testing.T) {
	_, d := loadWindow(t, `<fieldset disabled><input id="a"></fieldset>`)
	require.NoError(t, d.Focus(d.ByID("a")))
	assert.Equal(t, d.Body(), d.ActiveElement())
}

func TestBlurDetachedElement(t *testing.T) {
	t.Run("legacy engines fail", func(t *testing.T) {
		_, d := loadWindow(t, `<input id="a">`, dom.WithLegacyBlurErrors(true))
		a := d.ByID("a")
		require.NoError(t, d.Focus(a))
		d.Remove(a)
		assert.ErrorIs(t, d.Blur(a), dom.ErrUnspecified)
		assert.Equal(t, d.Body(), d.ActiveElement())
	})
	t.Run("modern engines ignore it", func(t *testing.T) {
		_, d := loadWindow(t, `<input id="a">`)
		a := d.ByID("a")
		d.Remove(a)
		assert.NoError(t, d.Blur(a))
	})
}

func TestIsFocusable(t *testing.T) {
	_, d := loadWindow(t, `
		<a id="link">l</a><div id="tab" tabindex="0"></div><div id="neg" tabindex="-1"></div>
		<div id="ce" contenteditable><span id="inner">x</span></div><div id="plain"></div>`)

	assert.True(t, dom.IsFocusable(d.ByID("link")))
	assert.True(t, dom.IsFocusable(d.ByID("tab")))
	assert.False(t, dom.IsFocusable(d.ByID("neg")))
	assert.True(t, dom.IsFocusable(d.ByID("ce")))
	assert.True(t, dom.IsContentEditable(d.ByID("inner")))
	assert.False(t, dom.IsFocusable(d.ByID("plain")))
}

func TestSetScrollClampsAndFiresScroll(t *testing.T) {
	_, d := loadWindow(t, `
		<div id="box" style="width:100px;height:100px;overflow:scroll">
			<div style="width:300px;height:500px"></div>
		</div>
		<div id="rtl" style="direction:rtl;width:100px;height:100px;overflow:auto">
			<div style="position:relative;left:-200px;width:100px;height:10px"></div>
		</div>`)
	box := d.ByID("box")
	var scrolls int
	d.AddEventListener(box, "scroll", func(*dom.Event) { scrolls++ }, dom.ListenerOptions{})

	d.SetScroll(box, 50, 1000)
	x, y := d.ScrollOffset(box)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 400.0, y)
	assert.Equal(t, 1, scrolls)

	d.SetScroll(box, 50, 400)
	assert.Equal(t, 1, scrolls, "unchanged offsets do not fire scroll")

	rtl := d.ByID("rtl")
	d.SetScroll(rtl, 50, 0)
	x, _ = d.ScrollOffset(rtl)
	assert.Equal(t, 0.0, x, "rtl containers cannot scroll right")
	d.SetScroll(rtl, -500, 0)
	x, _ = d.ScrollOffset(rtl)
	assert.Equal(t, -200.0, x)
}

func TestDocumentScrollMovesClientRects(t *testing.T) {
	_, d := loadWindow(t, `<div id="tall" style="height:2000px"></div><div id="after" style="height:10px"></div>`)
	after := d.ByID("after")
	before := d.ClientRect(after)

	d.SetScroll(nil, 0, 100)
	moved := d.ClientRect(after)
	assert.InDelta(t, before.Y-100, moved.Y, 0.01)
}

func TestSetAttributeInvalidatesLayout(t *testing.T) {
	_, d := loadWindow(t, `<div id="a" style="width:10px;height:10px"></div>`)
	a := d.ByID("a")
	assert.InDelta(t, 10, d.ClientRect(a).Width, 0.01)

	d.SetAttribute(a, "style", "width:40px;height:10px")
	assert.InDelta(t, 40, d.ClientRect(a).Width, 0.01)

	d.SetAttribute(a, "hidden", "")
	assert.Nil(t, d.Layout().Box(a))
	d.RemoveAttribute(a, "hidden")
	assert.NotNil(t, d.Layout().Box(a))
}

func TestTextContent(t *testing.T) {
	_, d := loadWindow(t, `<p id="p">Hello <b>big</b> world</p>`)
	p := d.ByID("p")
	assert.Equal(t, "Hello big world", dom.TextContent(p))

	d.SetTextContent(p, "replaced")
	assert.Equal(t, "replaced", dom.TextContent(p))
	assert.Nil(t, mustFind(t, d, "//p").FirstChild.NextSibling)
}

func TestFramesAndOwners(t *testing.T) {
	w, d := loadWindow(t, `
		<iframe id="f" name="inner" style="width:200px;height:100px;border:0"
			srcdoc="&lt;button id='deep'&gt;go&lt;/button&gt;"></iframe>
		<div id="notframe"></div>`)

	frame := d.ByID("f")
	fd, err := w.FrameDocument(frame)
	require.NoError(t, err)
	assert.Equal(t, frame, fd.FrameElement())
	assert.Equal(t, d, fd.Parent())

	deep := fd.ByID("deep")
	require.NotNil(t, deep)
	owner, err := w.Owner(deep)
	require.NoError(t, err)
	assert.Same(t, fd, owner)

	vw, vh := fd.Layout().Viewport.Width, fd.Layout().Viewport.Height
	assert.Equal(t, 200.0, vw)
	assert.Equal(t, 100.0, vh)

	_, err = w.FrameDocument(d.ByID("notframe"))
	assert.True(t, bot.IsCode(err, bot.NoSuchFrame))

	resolved, err := w.Resolve("//button[@id='deep']")
	require.NoError(t, err)
	assert.Same(t, deep, resolved)

	_, err = w.Owner(&html.Node{Type: html.ElementNode, Data: "div"})
	assert.ErrorIs(t, err, dom.ErrDetached)
}

func TestPointerCaptureRequiresActivePointer(t *testing.T) {
	w, d := loadWindow(t, `<div id="a"></div>`)
	sink := &captureSink{captured: map[int64]*html.Node{}}
	w.SetCaptureSink(sink)
	a := d.ByID("a")

	assert.ErrorIs(t, w.SetPointerCapture(a, 1), dom.ErrInvalidPointer)

	w.SetPointerActive(1, true)
	require.NoError(t, w.SetPointerCapture(a, 1))
	assert.Same(t, a, sink.captured[1])

	w.ReleasePointerCapture(1)
	w.SetPointerActive(1, false)
	assert.Empty(t, sink.captured)
	assert.ErrorIs(t, w.SetPointerCapture(a, 1), dom.ErrInvalidPointer)
}

type captureSink struct {
	captured map[int64]*html.Node
}

func (c *captureSink) SetCapture(id int64, el *html.Node) { c.captured[id] = el }
func (c *captureSink) Release(id int64)                   { delete(c.captured, id) }
