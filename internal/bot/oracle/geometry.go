// internal/bot/oracle/geometry.go
package oracle

import (
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/layout"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
)

// Rect is a rectangle in client (viewport) coordinates.
type Rect = layout.Rect

// Point is a position relative to an element's top-left corner.
type Point struct {
	X, Y float64
}

func owner(win *dom.Window, el *html.Node) (*dom.Document, error) {
	if err := requireElement(el); err != nil {
		return nil, err
	}
	d, err := win.Owner(el)
	if err != nil {
		return nil, bot.Wrap(bot.NoSuchElement, err, "element is not attached to the window")
	}
	return d, nil
}

// GetClientRect returns the border box of el relative to its document's
// viewport. Image map elements report the area they cover on the image.
func GetClientRect(win *dom.Window, el *html.Node) (Rect, error) {
	d, err := owner(win, el)
	if err != nil {
		return Rect{}, err
	}
	if _, r, ok := imageMap(d, el); ok {
		return r, nil
	}
	return d.ClientRect(el), nil
}

// GetClientRegion returns region, given relative to el, in client
// coordinates. A nil region is the whole element.
func GetClientRegion(win *dom.Window, el *html.Node, region *Rect) (Rect, error) {
	r, err := GetClientRect(win, el)
	if err != nil {
		return Rect{}, err
	}
	if region == nil {
		return r, nil
	}
	return Rect{X: r.X + region.X, Y: r.Y + region.Y, Width: region.Width, Height: region.Height}, nil
}

// imageMap resolves <map> and <area> elements to the image using the map and
// the rect they occupy. ok is false for any other element.
func imageMap(d *dom.Document, el *html.Node) (img *html.Node, r Rect, ok bool) {
	var m *html.Node
	switch {
	case isTag(el, "map"):
		m = el
	case isTag(el, "area"):
		m = closest(el, "map")
	default:
		return nil, Rect{}, false
	}
	if m == nil {
		return nil, Rect{}, true
	}
	name, _ := dom.Attribute(m, "name")
	if name == "" {
		return nil, Rect{}, true
	}
	for _, c := range htmlquery.Find(d.Root, "//img[@usemap]") {
		if v, _ := dom.Attribute(c, "usemap"); strings.EqualFold(strings.TrimSpace(v), "#"+name) {
			img = c
			break
		}
	}
	if img == nil {
		return nil, Rect{}, true
	}
	ir := d.ClientRect(img)
	if isTag(el, "map") {
		return img, ir, true
	}
	rel, full := areaRect(el)
	if full {
		return img, ir, true
	}
	return img, rel.Translate(ir.X, ir.Y), true
}

// areaRect computes the bounding box of an <area> relative to its image.
// full is set for shape=default, which covers the whole image.
func areaRect(area *html.Node) (r Rect, full bool) {
	shape, _ := dom.Attribute(area, "shape")
	shape = strings.ToLower(strings.TrimSpace(shape))
	raw, _ := dom.Attribute(area, "coords")
	var coords []float64
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Rect{}, false
		}
		coords = append(coords, v)
	}
	switch {
	case shape == "default":
		return Rect{}, true
	case (shape == "rect" || shape == "rectangle" || shape == "") && len(coords) == 4:
		return Rect{X: coords[0], Y: coords[1], Width: coords[2] - coords[0], Height: coords[3] - coords[1]}, false
	case (shape == "circle" || shape == "circ") && len(coords) == 3:
		x, y, rad := coords[0], coords[1], coords[2]
		return Rect{X: x - rad, Y: y - rad, Width: 2 * rad, Height: 2 * rad}, false
	case (shape == "poly" || shape == "polygon") && len(coords) > 2 && len(coords)%2 == 0:
		minX, minY, maxX, maxY := coords[0], coords[1], coords[0], coords[1]
		for i := 2; i < len(coords); i += 2 {
			minX, maxX = min(minX, coords[i]), max(maxX, coords[i])
			minY, maxY = min(minY, coords[i+1]), max(maxY, coords[i+1])
		}
		return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, false
	}
	return Rect{}, false
}

// GetInteractableSize returns the size of el, or of its first rendered child
// with a size when el itself has none. The default click point is the
// center of this size.
func GetInteractableSize(win *dom.Window, el *html.Node) (width, height float64, err error) {
	r, err := GetClientRect(win, el)
	if err != nil {
		return 0, 0, err
	}
	if r.Width > 0 && r.Height > 0 {
		return r.Width, r.Height, nil
	}
	for _, c := range shadowdom.RenderedChildren(el) {
		if c.Type != html.ElementNode {
			continue
		}
		if w, h, err := GetInteractableSize(win, c); err == nil && w > 0 && h > 0 {
			return w, h, nil
		}
	}
	return r.Width, r.Height, nil
}

// IsScrolledIntoView reports whether el, or the point pt inside it, is
// unclipped by overflow and inside the viewport of its document and of every
// enclosing frame.
func IsScrolledIntoView(win *dom.Window, el *html.Node, pt *Point) (bool, error) {
	var region *Rect
	if pt != nil {
		region = &Rect{X: pt.X, Y: pt.Y, Width: 1, Height: 1}
	}
	state, err := GetOverflowState(win, el, region)
	if err != nil {
		return false, err
	}
	if state != OverflowNone {
		return false, nil
	}
	r, err := GetClientRegion(win, el, region)
	if err != nil {
		return false, err
	}
	d, _ := win.Owner(el)
	for d != nil {
		vp := d.Layout().Viewport
		if r.Right() <= 0 || r.Bottom() <= 0 || r.X >= vp.Width || r.Y >= vp.Height {
			return false, nil
		}
		frame, parent := d.FrameElement(), d.Parent()
		if frame == nil || parent == nil {
			break
		}
		box := parent.Layout().Box(frame)
		fr := parent.ClientRect(frame)
		if box != nil {
			content := box.Dimensions.Content
			border := box.BorderBox()
			fr = fr.Translate(content.X-border.X, content.Y-border.Y)
		}
		r = r.Translate(fr.X, fr.Y)
		d = parent
	}
	return true, nil
}
