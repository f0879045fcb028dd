// internal/browser/layout/layout_test.go
package layout_test

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/synthinput/internal/browser/layout"
	"github.com/xkilldash9x/synthinput/internal/browser/style"
	"golang.org/x/net/html"
)

// -- Test Helpers --

type offsets map[*html.Node][2]float64

func (o offsets) ScrollOffset(n *html.Node) (float64, float64) {
	v := o[n]
	return v[0], v[1]
}

// setupLayoutTest parses the document, loads its styles and runs layout at
// the default 1024x768 viewport.
func setupLayoutTest(t *testing.T, body string) (*html.Node, *layout.Tree) {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader("<html><head></head><body>" + body + "</body></html>"))
	require.NoError(t, err, "Failed to parse test HTML")

	se := style.NewEngine()
	se.Load(doc)
	tree := layout.NewEngine(se).Layout(doc)
	require.NotNil(t, tree.Root)
	return doc, tree
}

func byID(t *testing.T, doc *html.Node, id string) *html.Node {
	t.Helper()
	n := htmlquery.FindOne(doc, "//*[@id='"+id+"']")
	require.NotNil(t, n, "no element with id %q", id)
	return n
}

func assertRect(t *testing.T, expected, actual layout.Rect) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, 0.01, "X")
	assert.InDelta(t, expected.Y, actual.Y, 0.01, "Y")
	assert.InDelta(t, expected.Width, actual.Width, 0.01, "Width")
	assert.InDelta(t, expected.Height, actual.Height, 0.01, "Height")
}

// -- Block and Inline Flow --

func TestBlockFlow(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="a" style="height:50px"></div><div id="b" style="height:20px; width:100px; margin-left:10px"></div>`)

	assertRect(t, layout.Rect{X: 8, Y: 8, Width: 1008, Height: 50}, tree.PageRect(byID(t, doc, "a")))
	assertRect(t, layout.Rect{X: 18, Y: 58, Width: 100, Height: 20}, tree.PageRect(byID(t, doc, "b")))
}

func TestAutoMarginsCenter(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="c" style="width:200px; height:10px; margin:0 auto"></div>`)
	assertRect(t, layout.Rect{X: 412, Y: 8, Width: 200, Height: 10}, tree.PageRect(byID(t, doc, "c")))
}

func TestInlineText(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<span id="s">hello world</span>`)
	// Two five-letter words at 16px plus one space.
	assertRect(t, layout.Rect{X: 8, Y: 8, Width: 105.6, Height: 19.2}, tree.PageRect(byID(t, doc, "s")))
}

func TestTextWrapping(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="box" style="width:50px; font-size:10px">aaaa bbbb cccc</div>`)
	box := byID(t, doc, "box")

	assertRect(t, layout.Rect{X: 8, Y: 8, Width: 50, Height: 36}, tree.PageRect(box))
	assertRect(t, layout.Rect{X: 8, Y: 8, Width: 24, Height: 36}, tree.PageRect(box.FirstChild))
}

func TestEmptyInlineHasNoWidth(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div><span id="e"></span></div>`)
	r := tree.PageRect(byID(t, doc, "e"))
	assert.Equal(t, 0.0, r.Width)
	assert.True(t, r.IsEmpty())
}

func TestInlineBlockShrinksToFit(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="ib" style="display:inline-block; font-size:10px">abc</div><span id="after">x</span>`)
	assertRect(t, layout.Rect{X: 8, Y: 8, Width: 18, Height: 12}, tree.PageRect(byID(t, doc, "ib")))
	assert.InDelta(t, 26.0, tree.PageRect(byID(t, doc, "after")).X, 0.01, "inline content follows on the same line")
}

// -- Positioning --

const positioned = `<div id="rel" style="position:relative; margin-top:100px; padding:10px; height:200px">` +
	`<div id="abs" style="position:absolute; left:5px; top:20px; width:30px; height:40px"></div>` +
	`<div id="corner" style="position:absolute; right:0; bottom:0; width:10px; height:10px"></div>` +
	`</div>`

func TestAbsolutePositioning(t *testing.T) {
	doc, tree := setupLayoutTest(t, positioned)

	assertRect(t, layout.Rect{X: 8, Y: 108, Width: 1008, Height: 220}, tree.PageRect(byID(t, doc, "rel")))
	assertRect(t, layout.Rect{X: 13, Y: 128, Width: 30, Height: 40}, tree.PageRect(byID(t, doc, "abs")))
	assertRect(t, layout.Rect{X: 1006, Y: 318, Width: 10, Height: 10}, tree.PageRect(byID(t, doc, "corner")))

	abs := tree.Box(byID(t, doc, "abs"))
	assert.Equal(t, tree.Box(byID(t, doc, "rel")), abs.ContainingBlock)
	assert.False(t, abs.Fixed)
}

func TestAbsoluteStaticPosition(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div style="height:50px"></div><div id="abs" style="position:absolute; width:10px; height:10px"></div>`)
	assertRect(t, layout.Rect{X: 8, Y: 58, Width: 10, Height: 10}, tree.PageRect(byID(t, doc, "abs")))
}

func TestRelativeOffsetMovesSubtree(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="r" style="position:relative; top:5px; left:7px; height:10px"><span id="rs">x</span></div>`)
	assertRect(t, layout.Rect{X: 15, Y: 13, Width: 1008, Height: 10}, tree.PageRect(byID(t, doc, "r")))
	rs := tree.PageRect(byID(t, doc, "rs"))
	assert.InDelta(t, 15.0, rs.X, 0.01)
	assert.InDelta(t, 13.0, rs.Y, 0.01)
}

func TestFixedIgnoresDocumentScroll(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="tall" style="height:3000px"></div>`+
		`<div id="fx" style="position:fixed; top:10px; left:10px; width:50px; height:20px"><span id="in">x</span></div>`)
	root := tree.Root.Node
	scroll := offsets{root: {0, 500}}

	fx := byID(t, doc, "fx")
	assert.True(t, tree.Box(fx).Fixed)
	assert.True(t, tree.Box(byID(t, doc, "in")).Fixed, "fixed propagates to descendants")
	assert.Nil(t, tree.Box(fx).ContainingBlock)
	assertRect(t, layout.Rect{X: 10, Y: 10, Width: 50, Height: 20}, tree.ClientRect(fx, scroll))

	tall := tree.ClientRect(byID(t, doc, "tall"), scroll)
	assert.InDelta(t, -492.0, tall.Y, 0.01)

	w, h := tree.DocumentSize()
	assert.Equal(t, 1024.0, w)
	assert.InDelta(t, 3016.0, h, 0.01)
	assertRect(t, tree.Viewport, tree.ClientRect(root, scroll))
}

// -- Scroll Containers --

func TestScrollContainer(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="sc" style="overflow:auto; height:100px; width:200px"><div id="inner" style="height:300px"></div></div>`)
	sc, inner := byID(t, doc, "sc"), byID(t, doc, "inner")

	box := tree.Box(sc)
	require.True(t, box.IsScrollContainer())
	assert.InDelta(t, 300.0, box.ScrollHeight(), 0.01)
	assert.InDelta(t, 200.0, box.ScrollWidth(), 0.01)
	assert.Equal(t, 100.0, box.ClientHeight())
	assert.Equal(t, box, tree.ScrollContainer(inner))

	r := tree.ClientRect(inner, offsets{sc: {0, 50}})
	assert.InDelta(t, -42.0, r.Y, 0.01)
}

func TestRTLScrollWidthCountsLeftwardOverflow(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="sc" style="overflow:auto; direction:rtl; width:100px; height:50px">`+
		`<div style="position:relative; left:-150px; width:100px; height:10px"></div></div>`)
	box := tree.Box(byID(t, doc, "sc"))
	assert.InDelta(t, 250.0, box.ScrollWidth(), 0.01)
}

// -- Rendering Rules --

func TestUnrenderedElements(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="none" style="display:none"><span id="kid">x</span></div>`+
		`<div id="c" style="display:contents"><span id="ck">y</span></div>`+
		`<input id="hid" type="hidden"><p id="h" hidden>gone</p>`)

	assert.Nil(t, tree.Box(byID(t, doc, "none")))
	assert.Nil(t, tree.Box(byID(t, doc, "kid")))
	assert.Nil(t, tree.Box(byID(t, doc, "c")))
	assert.NotNil(t, tree.Box(byID(t, doc, "ck")), "display:contents children still render")
	assert.Nil(t, tree.Box(byID(t, doc, "hid")))
	assert.Nil(t, tree.Box(byID(t, doc, "h")))
	assert.Equal(t, layout.Rect{}, tree.PageRect(byID(t, doc, "none")))
}

func TestDetailsRendersSummaryWhenClosed(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<details id="d"><summary id="sum">S</summary><p id="body">hidden</p></details>`+
		`<details open><summary>S</summary><p id="shown">visible</p></details>`)

	assert.NotNil(t, tree.Box(byID(t, doc, "sum")))
	assert.Nil(t, tree.Box(byID(t, doc, "body")))
	assert.NotNil(t, tree.Box(byID(t, doc, "shown")))
}

func TestReplacedElements(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<img id="img" width="40" height="30"><iframe id="fr"></iframe><br><input id="in">`)

	assertRect(t, layout.Rect{X: 8, Y: 8, Width: 40, Height: 30}, tree.PageRect(byID(t, doc, "img")))
	assertRect(t, layout.Rect{X: 48, Y: 8, Width: 304, Height: 154}, tree.PageRect(byID(t, doc, "fr")))

	in := tree.PageRect(byID(t, doc, "in"))
	assert.Equal(t, 170.0, in.Width, "inputs are border-box sized")
	assert.InDelta(t, 25.2, in.Height, 0.01)
	assert.InDelta(t, 164.0, in.Y, 0.01, "below the iframe line plus the input's top margin")
}

func TestShadowTreeRendersInPlace(t *testing.T) {
	doc, tree := setupLayoutTest(t, `<div id="host"><template shadowrootmode="open"><p id="sp">shadow</p><slot></slot></template><span id="light">light</span></div>`)

	sp := tree.PageRect(byID(t, doc, "sp"))
	assert.InDelta(t, 24.0, sp.Y, 0.01)
	light := tree.PageRect(byID(t, doc, "light"))
	assert.InDelta(t, 59.2, light.Y, 0.01, "slotted content follows the shadow paragraph")
	assert.Nil(t, tree.Box(byID(t, doc, "host").FirstChild), "the shadow root template has no box")
}
