// internal/bot/action/scroll.go
package action

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/layout"
)

// ScrollIntoView scrolls every container of el, innermost first, then the
// document and the documents of enclosing frames, by the least amount that
// brings pt (the whole element when nil) into view. It reports whether the
// target is in view afterwards.
func ScrollIntoView(win *dom.Window, el *html.Node, pt *oracle.Point) (bool, error) {
	in, err := oracle.IsScrolledIntoView(win, el, pt)
	if err != nil || in {
		return in, err
	}
	doc, err := win.Owner(el)
	if err != nil {
		return false, bot.Wrap(bot.NoSuchElement, err, "scrolling into view")
	}
	var region *oracle.Rect
	if pt != nil {
		region = &oracle.Rect{X: pt.X, Y: pt.Y, Width: 1, Height: 1}
	}

	target := el
	for doc != nil {
		scrollWithin(doc, target, region)
		frame, parent := doc.FrameElement(), doc.Parent()
		if frame == nil || parent == nil {
			break
		}
		// Continue with the region expressed relative to the frame element.
		r := regionRect(doc, target, region)
		if box := parent.Layout().Box(frame); box != nil {
			content, border := box.Dimensions.Content, box.BorderBox()
			r = r.Translate(content.X-border.X, content.Y-border.Y)
		}
		region = &oracle.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
		doc, target = parent, frame
	}
	return oracle.IsScrolledIntoView(win, el, pt)
}

// regionRect is region, relative to el, in client coordinates.
func regionRect(doc *dom.Document, el *html.Node, region *oracle.Rect) layout.Rect {
	r := doc.ClientRect(el)
	if region == nil {
		return r
	}
	return layout.Rect{X: r.X + region.X, Y: r.Y + region.Y, Width: region.Width, Height: region.Height}
}

func scrollWithin(doc *dom.Document, el *html.Node, region *oracle.Rect) {
	tree := doc.Layout()
	b := tree.Box(el)
	if b == nil {
		return
	}
	for cb := b.ContainingBlock; cb != nil; cb = cb.ContainingBlock {
		if cb != tree.Root && !cb.IsScrollContainer() {
			continue
		}
		var view layout.Rect
		if cb == tree.Root {
			view = layout.Rect{Width: tree.Viewport.Width, Height: tree.Viewport.Height}
		} else {
			border := cb.BorderBox()
			padding := cb.Dimensions.PaddingBox()
			view = doc.ClientRect(cb.Node).Translate(padding.X-border.X, padding.Y-border.Y)
			view.Width, view.Height = padding.Width, padding.Height
		}
		r := regionRect(doc, el, region)
		dx, dy := reveal(r.X, r.Right(), view.X, view.Right()), reveal(r.Y, r.Bottom(), view.Y, view.Bottom())
		if dx != 0 || dy != 0 {
			sx, sy := doc.ScrollOffset(cb.Node)
			doc.SetScroll(cb.Node, sx+dx, sy+dy)
		}
		if cb == tree.Root {
			return
		}
	}
}

// reveal is the scroll delta that brings [lo, hi] into [vlo, vhi], aligning
// the near edge when the range does not fit.
func reveal(lo, hi, vlo, vhi float64) float64 {
	switch {
	case lo < vlo:
		return lo - vlo
	case hi > vhi:
		return min(hi-vhi, lo-vlo)
	}
	return 0
}
