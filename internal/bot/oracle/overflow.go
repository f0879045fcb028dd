// internal/bot/oracle/overflow.go
package oracle

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/style"
)

// OverflowState classifies how ancestor overflow affects a region.
type OverflowState int

const (
	// OverflowNone means the region is not clipped by any ancestor.
	OverflowNone OverflowState = iota
	// OverflowScroll means the region is clipped but an ancestor can be
	// scrolled to reveal it.
	OverflowScroll
	// OverflowHidden means no scrolling reveals the region.
	OverflowHidden
)

func (s OverflowState) String() string {
	switch s {
	case OverflowScroll:
		return "scroll"
	case OverflowHidden:
		return "hidden"
	default:
		return "none"
	}
}

type overflowStyle struct{ x, y string }

func (o overflowStyle) visible() bool { return o.x == "visible" && o.y == "visible" }

// overflowWalk holds the per-document state of one GetOverflowState call.
type overflowWalk struct {
	win      *dom.Window
	d        *dom.Document
	htmlElem *html.Node
	body     *html.Node
	htmlVis  bool
	fixed    bool
}

// GetOverflowState reports whether region of el (the whole element when nil)
// is visible, scrollable into view, or hidden by the overflow of its
// containers.
func GetOverflowState(win *dom.Window, el *html.Node, region *Rect) (OverflowState, error) {
	d, err := owner(win, el)
	if err != nil {
		return OverflowNone, err
	}
	r, err := GetClientRegion(win, el, region)
	if err != nil {
		return OverflowNone, err
	}
	htmlElem := d.DocumentElement()
	hs := d.Style(htmlElem)
	w := &overflowWalk{
		win:      win,
		d:        d,
		htmlElem: htmlElem,
		body:     d.Body(),
		htmlVis:  hs.OverflowX() == "visible" && hs.OverflowY() == "visible",
	}
	return w.state(el, r), nil
}

// overflowParent returns the nearest ancestor whose overflow can clip e.
// Fixed elements are clipped only by the document.
func (w *overflowWalk) overflowParent(e *html.Node) *html.Node {
	pos := w.d.Style(e).Position()
	if pos == style.PositionFixed {
		w.fixed = true
		if e == w.htmlElem {
			return nil
		}
		return w.htmlElem
	}
	for p := parentElement(e); p != nil; p = parentElement(p) {
		if w.canBeOverflowed(p, pos) {
			return p
		}
	}
	return nil
}

func (w *overflowWalk) canBeOverflowed(c *html.Node, childPos style.PositionType) bool {
	if c == w.htmlElem {
		return true
	}
	sm := w.d.Style(c)
	switch sm.Display() {
	case style.DisplayInline, style.DisplayInlineBlock, style.DisplayInlineFlex, style.DisplayContents:
		return false
	}
	if childPos == style.PositionAbsolute && sm.Position() == style.PositionStatic {
		return false
	}
	return true
}

// overflowStyles applies the propagation of body overflow to the viewport.
func (w *overflowWalk) overflowStyles(e *html.Node) overflowStyle {
	src := e
	if w.htmlVis {
		if e == w.htmlElem && w.body != nil {
			src = w.body
		} else if e == w.body {
			return overflowStyle{"visible", "visible"}
		}
	}
	sm := w.d.Style(src)
	o := overflowStyle{sm.OverflowX(), sm.OverflowY()}
	if e == w.htmlElem {
		if o.x == "visible" {
			o.x = "auto"
		}
		if o.y == "visible" {
			o.y = "auto"
		}
	}
	return o
}

func (w *overflowWalk) scroll(e *html.Node) (float64, float64) {
	if e == w.htmlElem || e == w.body {
		return w.d.ScrollOffset(w.htmlElem)
	}
	return w.d.ScrollOffset(e)
}

func (w *overflowWalk) state(el *html.Node, region Rect) OverflowState {
	for c := w.overflowParent(el); c != nil; c = w.overflowParent(c) {
		o := w.overflowStyles(c)
		if o.visible() {
			continue
		}
		cr := w.d.ClientRect(c)
		if cr.Width == 0 || cr.Height == 0 {
			return OverflowHidden
		}
		rtl := w.d.Style(c).Direction() == "rtl"

		// Underflow is the direction scrolling cannot reach: above or left of
		// the container, or right of it in a right-to-left container.
		underX := region.Right() < cr.X
		if rtl {
			underX = region.X > cr.Right()
		}
		underY := region.Bottom() < cr.Y
		if (underX && o.x == "hidden") || (underY && o.y == "hidden") {
			return OverflowHidden
		}
		if (underX && o.x != "visible") || (underY && o.y != "visible") {
			sx, sy := w.scroll(c)
			unscrollX := region.Right() < cr.X-sx
			if rtl {
				unscrollX = region.X > cr.Right()-sx
			}
			unscrollY := region.Bottom() < cr.Y-sy
			if (unscrollX && o.x != "visible") || (unscrollY && o.y != "visible") {
				return OverflowHidden
			}
			return w.containerState(c)
		}

		overX := region.X >= cr.Right()
		if rtl {
			overX = region.Right() <= cr.X
		}
		overY := region.Y >= cr.Bottom()
		if (overX && o.x == "hidden") || (overY && o.y == "hidden") {
			return OverflowHidden
		}
		if (overX && o.x != "visible") || (overY && o.y != "visible") {
			if w.fixed {
				// Fixed content does not move with the document scroll, so
				// it cannot be revealed past the scrollable extent.
				dw, dh := w.d.Layout().DocumentSize()
				sx, sy := w.scroll(c)
				if region.X >= dw-sx || region.Y >= dh-sy {
					return OverflowHidden
				}
			}
			return w.containerState(c)
		}
	}
	return OverflowNone
}

// containerState is HIDDEN when the scrollable container is itself hidden,
// else SCROLL.
func (w *overflowWalk) containerState(c *html.Node) OverflowState {
	s, err := GetOverflowState(w.win, c, nil)
	if err == nil && s == OverflowHidden {
		return OverflowHidden
	}
	return OverflowScroll
}
