// internal/browser/layout/layout.go
package layout

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"github.com/xkilldash9x/synthinput/internal/browser/style"
	"golang.org/x/net/html"
)

// -- Core Structures: Box Model and Dimensions --

// Dimensions defines the geometry of a layout box. Coordinates are page
// coordinates with no scrolling applied; boxes inside a fixed subtree use
// viewport coordinates.
type Dimensions struct {
	Content Rect

	Padding Edges
	Border  Edges
	Margin  Edges
}

// MarginBox returns the rectangle enclosing the margin area.
func (d Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// BorderBox returns the rectangle enclosing the border area.
func (d Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// PaddingBox returns the rectangle enclosing the padding area.
func (d Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

type Edges struct {
	Top, Right, Bottom, Left float64
}

func (e Edges) Horizontal() float64 { return e.Left + e.Right }
func (e Edges) Vertical() float64   { return e.Top + e.Bottom }

// LayoutBox is a node in the layout tree. Boxes exist for rendered elements
// and text nodes; display:none and display:contents elements have none.
type LayoutBox struct {
	Node       *html.Node
	Style      style.StyleMap
	Position   style.PositionType
	Dimensions Dimensions
	Parent     *LayoutBox
	Children   []*LayoutBox

	// ContainingBlock is nil for the root and for fixed boxes, whose
	// containing block is the viewport.
	ContainingBlock *LayoutBox
	// Fixed is set for position:fixed boxes and everything they contain.
	Fixed bool
	// Overflow is the scrollable overflow rectangle of a scroll container,
	// the union of its padding box and the border boxes it contains.
	Overflow Rect

	placed     bool
	widthAuto  bool
	contentEnd float64
	static     staticPos
}

type staticPos struct {
	ref    *LayoutBox
	dx, dy float64
}

// BorderBox is the box's page rect as getBoundingClientRect reports it
// before scrolling.
func (b *LayoutBox) BorderBox() Rect {
	if b.Node != nil && b.Node.Type == html.TextNode {
		return b.Dimensions.Content
	}
	return b.Dimensions.BorderBox()
}

// IsScrollContainer reports whether overflow clips the box's content in
// either direction.
func (b *LayoutBox) IsScrollContainer() bool {
	if b.Style == nil || b.Node == nil || b.Node.Type != html.ElementNode {
		return false
	}
	return b.Style.OverflowX() != "visible" || b.Style.OverflowY() != "visible"
}

// ClientWidth and ClientHeight are the padding box dimensions.
func (b *LayoutBox) ClientWidth() float64  { return b.Dimensions.PaddingBox().Width }
func (b *LayoutBox) ClientHeight() float64 { return b.Dimensions.PaddingBox().Height }

// ScrollWidth counts overflow toward the inline end: rightward for ltr,
// leftward for rtl.
func (b *LayoutBox) ScrollWidth() float64 {
	pb := b.Dimensions.PaddingBox()
	ov := b.Overflow.Union(pb)
	if b.Style.Direction() == "rtl" {
		return pb.Right() - ov.X
	}
	return ov.Right() - pb.X
}

func (b *LayoutBox) ScrollHeight() float64 {
	pb := b.Dimensions.PaddingBox()
	return b.Overflow.Union(pb).Bottom() - pb.Y
}

// ScrollOffsets supplies the current scroll position of a scroll container.
// The root element's offsets are the document scroll.
type ScrollOffsets interface {
	ScrollOffset(n *html.Node) (x, y float64)
}

// Tree is the result of laying out one document.
type Tree struct {
	Root     *LayoutBox
	Viewport Rect
	boxes    map[*html.Node]*LayoutBox
}

// Box returns the layout box of n, nil when n is not rendered.
func (t *Tree) Box(n *html.Node) *LayoutBox {
	if t == nil {
		return nil
	}
	return t.boxes[n]
}

// DocumentSize is the scrollable extent of the document, at least the
// viewport.
func (t *Tree) DocumentSize() (float64, float64) {
	if t == nil || t.Root == nil {
		return 0, 0
	}
	return max(t.Root.ScrollWidth(), t.Viewport.Width), max(t.Root.ScrollHeight(), t.Viewport.Height)
}

// PageRect returns the unscrolled border box of n. Unrendered nodes report
// an empty rect at the origin.
func (t *Tree) PageRect(n *html.Node) Rect {
	b := t.Box(n)
	if b == nil {
		return Rect{}
	}
	return b.BorderBox()
}

// ClientRect returns the border box of n relative to the viewport after
// applying the scroll offsets of every scroll container that moves it. The
// root element reports the viewport.
func (t *Tree) ClientRect(n *html.Node, so ScrollOffsets) Rect {
	b := t.Box(n)
	if b == nil {
		return Rect{}
	}
	if b == t.Root {
		return t.Viewport
	}
	r := b.BorderBox()
	for cb := b.ContainingBlock; cb != nil; cb = cb.ContainingBlock {
		if (cb == t.Root || cb.IsScrollContainer()) && so != nil {
			sx, sy := so.ScrollOffset(cb.Node)
			r.X -= sx
			r.Y -= sy
		}
	}
	return r
}

// ScrollContainer returns the nearest scroll container that moves n, the
// root box when none, and nil for fixed content.
func (t *Tree) ScrollContainer(n *html.Node) *LayoutBox {
	b := t.Box(n)
	if b == nil {
		return nil
	}
	for cb := b.ContainingBlock; cb != nil; cb = cb.ContainingBlock {
		if cb == t.Root || cb.IsScrollContainer() {
			return cb
		}
	}
	return nil
}

// -- Engine Core --

type Engine struct {
	style *style.Engine

	vw, vh   float64
	tree     *Tree
	all      []*LayoutBox
	deferred []*LayoutBox
}

func NewEngine(se *style.Engine) *Engine {
	return &Engine{style: se}
}

// Layout builds the layout tree for doc (a document node or the root
// element).
func (e *Engine) Layout(doc *html.Node) *Tree {
	e.vw, e.vh = e.style.Viewport()
	e.tree = &Tree{
		Viewport: Rect{Width: e.vw, Height: e.vh},
		boxes:    make(map[*html.Node]*LayoutBox),
	}
	e.all, e.deferred = nil, nil

	root := rootElement(doc)
	if root == nil {
		return e.tree
	}
	sm := e.style.Computed(root)
	if sm.Display() == style.DisplayNone {
		return e.tree
	}
	rb := e.newBox(root, sm, nil)
	e.tree.Root = rb
	e.layoutBlockBox(rb, 0, 0, e.vw, e.vh, true, false)

	for len(e.deferred) > 0 {
		b := e.deferred[0]
		e.deferred = e.deferred[1:]
		e.layoutPositioned(b)
	}
	e.computeOverflow()

	t := e.tree
	e.tree, e.all = nil, nil
	return t
}

func rootElement(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == html.ElementNode {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (e *Engine) newBox(n *html.Node, sm style.StyleMap, parent *LayoutBox) *LayoutBox {
	b := &LayoutBox{Node: n, Style: sm, Parent: parent}
	if n.Type == html.ElementNode {
		b.Position = sm.Position()
	}
	if parent != nil {
		parent.Children = append(parent.Children, b)
	}
	e.tree.boxes[n] = b
	e.all = append(e.all, b)
	return b
}

// renderedChildren applies shadow composition and closed <details>.
func renderedChildren(n *html.Node) []*html.Node {
	kids := shadowdom.RenderedChildren(n)
	if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "details") || hasAttr(n, "open") {
		return kids
	}
	for _, c := range kids {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, "summary") {
			return []*html.Node{c}
		}
	}
	return nil
}

// -- Block Layout --

// flowContext tracks the block cursor and the current line box of one block
// container.
type flowContext struct {
	container   *LayoutBox
	x0, width   float64
	heightRef   float64
	heightKnown bool

	y        float64
	cx       float64
	lineH    float64
	lineUsed bool
	space    bool
	maxRight float64

	open []*LayoutBox
}

func (fc *flowContext) newLine() {
	fc.y += fc.lineH
	fc.cx = fc.x0
	fc.lineH = 0
	fc.lineUsed = false
	fc.space = false
}

func (fc *flowContext) endLine() {
	if fc.lineUsed {
		fc.newLine()
	}
	fc.space = false
}

// place records an inline fragment on the current line.
func (fc *flowContext) place(r Rect, owner *LayoutBox) {
	if owner != nil {
		owner.Dimensions.Content = unionInit(owner.Dimensions.Content, r, owner)
	}
	for _, ib := range fc.open {
		ib.Dimensions.Content = unionInit(ib.Dimensions.Content, r, ib)
	}
	fc.lineH = max(fc.lineH, r.Height)
	fc.lineUsed = true
	fc.maxRight = max(fc.maxRight, r.Right())
}

// unionInit treats the first fragment as the initial rect.
func unionInit(cur, r Rect, owner *LayoutBox) Rect {
	if !owner.placed {
		owner.placed = true
		return r
	}
	return cur.Union(r)
}

func (e *Engine) edges(sm style.StyleMap, refWidth float64) (margin, border, padding Edges, autoL, autoR bool) {
	l := func(prop string) float64 {
		v, _ := sm.Length(prop, refWidth, e.vw, e.vh)
		return v
	}
	margin = Edges{Top: l("margin-top"), Right: l("margin-right"), Bottom: l("margin-bottom"), Left: l("margin-left")}
	autoL = sm.Lookup("margin-left", "0") == "auto"
	autoR = sm.Lookup("margin-right", "0") == "auto"
	border = Edges{Top: sm.BorderWidth("top"), Right: sm.BorderWidth("right"), Bottom: sm.BorderWidth("bottom"), Left: sm.BorderWidth("left")}
	padding = Edges{Top: l("padding-top"), Right: l("padding-right"), Bottom: l("padding-bottom"), Left: l("padding-left")}
	return
}

// height resolves a vertical length; percentages of an unknown height are
// auto.
func (e *Engine) height(sm style.StyleMap, prop string, ref float64, known bool) (float64, bool) {
	raw := sm.Lookup(prop, "auto")
	if strings.HasSuffix(raw, "%") && !known {
		return 0, false
	}
	return sm.Length(prop, ref, e.vw, e.vh)
}

// layoutBlockBox lays out b with its margin box starting at (x, y) inside a
// containing block of the given size. With shrink set, an auto width
// shrinks to fit the content.
func (e *Engine) layoutBlockBox(b *LayoutBox, x, y, cbWidth, cbHeight float64, cbHeightKnown, shrink bool) {
	sm := b.Style
	margin, border, padding, autoL, autoR := e.edges(sm, cbWidth)
	d := &b.Dimensions
	d.Margin, d.Border, d.Padding = margin, border, padding

	borderBox := sm.BoxSizing() == "border-box"
	iw, ih, replaced := e.intrinsicSize(b)

	width, hasWidth := sm.Length("width", cbWidth, e.vw, e.vh)
	if hasWidth && borderBox {
		width = max(0, width-border.Horizontal()-padding.Horizontal())
	}
	avail := max(0, cbWidth-margin.Horizontal()-border.Horizontal()-padding.Horizontal())
	if !hasWidth {
		if replaced {
			width = iw
		} else {
			width = avail
		}
	}
	b.widthAuto = !hasWidth && !replaced
	if hasWidth && !shrink && autoL && autoR {
		free := cbWidth - width - border.Horizontal() - padding.Horizontal()
		if free > 0 {
			d.Margin.Left, d.Margin.Right = free/2, free/2
		}
	}

	d.Content.X = x + d.Margin.Left + border.Left + padding.Left
	d.Content.Y = y + margin.Top + border.Top + padding.Top
	d.Content.Width = width

	height, hasHeight := e.height(sm, "height", cbHeight, cbHeightKnown)
	if hasHeight && borderBox {
		height = max(0, height-border.Vertical()-padding.Vertical())
	}

	if replaced {
		if !hasHeight {
			height = ih
		}
		d.Content.Height = height
		b.contentEnd = d.Content.X + width
		return
	}

	fc := &flowContext{
		container:   b,
		x0:          d.Content.X,
		width:       width,
		heightRef:   height,
		heightKnown: hasHeight,
		y:           d.Content.Y,
		cx:          d.Content.X,
		maxRight:    d.Content.X,
	}
	if b == e.tree.Root {
		fc.heightRef, fc.heightKnown = e.vh, true
	}
	for _, c := range renderedChildren(b.Node) {
		e.flowNode(fc, b, c)
	}
	fc.endLine()

	b.contentEnd = fc.maxRight
	if shrink && !hasWidth {
		d.Content.Width = min(avail, max(0, fc.maxRight-d.Content.X))
	}
	if hasHeight {
		d.Content.Height = height
	} else {
		d.Content.Height = max(0, fc.y-d.Content.Y)
	}
}

func (e *Engine) flowNode(fc *flowContext, parent *LayoutBox, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		e.flowText(fc, parent, n)
		return
	case html.ElementNode:
	default:
		return
	}
	sm := e.style.Computed(n)
	display := sm.Display()
	if display == style.DisplayNone {
		return
	}
	if display == style.DisplayContents {
		for _, c := range renderedChildren(n) {
			e.flowNode(fc, parent, c)
		}
		return
	}

	b := e.newBox(n, sm, parent)
	if b.Position == style.PositionAbsolute || b.Position == style.PositionFixed {
		sx, sy := fc.cx, fc.y
		if display.IsBlockLevel() {
			sx = fc.x0
			if fc.lineUsed {
				sy = fc.y + fc.lineH
			}
		}
		b.static = staticPos{ref: fc.container, dx: sx - fc.container.Dimensions.Content.X, dy: sy - fc.container.Dimensions.Content.Y}
		e.deferred = append(e.deferred, b)
		return
	}
	b.ContainingBlock = fc.container
	b.Fixed = fc.container.Fixed

	if strings.EqualFold(n.Data, "br") {
		lh := sm.LineHeight()
		fc.place(Rect{X: fc.cx, Y: fc.y, Height: lh}, b)
		fc.newLine()
		return
	}

	_, _, replaced := e.intrinsicSize(b)
	switch {
	case display.IsBlockLevel():
		fc.endLine()
		e.layoutBlockBox(b, fc.x0, fc.y, fc.width, fc.heightRef, fc.heightKnown, false)
		mb := b.Dimensions.MarginBox()
		fc.y = mb.Bottom()
		right := mb.Right()
		if b.widthAuto {
			right = b.contentEnd + b.Dimensions.Padding.Right + b.Dimensions.Border.Right + b.Dimensions.Margin.Right
		}
		fc.maxRight = max(fc.maxRight, right)
		for _, ib := range fc.open {
			ib.Dimensions.Content = unionInit(ib.Dimensions.Content, b.BorderBox(), ib)
		}
		e.applyRelative(b)
	case display == style.DisplayInlineBlock || display == style.DisplayInlineFlex || replaced:
		e.layoutBlockBox(b, 0, 0, fc.width, fc.heightRef, fc.heightKnown, true)
		mb := b.Dimensions.MarginBox()
		adv := 0.0
		if fc.space && fc.lineUsed {
			adv = style.MeasureText(" ", parent.Style.FontSize())
		}
		if fc.lineUsed && fc.cx+adv+mb.Width > fc.x0+fc.width {
			fc.newLine()
			adv = 0
		}
		fc.cx += adv
		e.translate(b, fc.cx-mb.X, fc.y-mb.Y)
		fc.place(b.Dimensions.MarginBox(), nil)
		fc.cx += mb.Width
		fc.space = false
		e.applyRelative(b)
	default:
		e.flowInline(fc, b)
		e.applyRelative(b)
	}
}

func (e *Engine) flowInline(fc *flowContext, b *LayoutBox) {
	margin, border, padding, _, _ := e.edges(b.Style, fc.width)
	d := &b.Dimensions
	d.Margin, d.Border, d.Padding = margin, border, padding

	if fc.space && fc.lineUsed {
		fc.cx += style.MeasureText(" ", b.Style.FontSize())
		fc.space = false
	}
	fc.cx += margin.Left + border.Left + padding.Left
	start := Rect{X: fc.cx, Y: fc.y, Height: b.Style.LineHeight()}

	fc.open = append(fc.open, b)
	for _, c := range renderedChildren(b.Node) {
		e.flowNode(fc, b, c)
	}
	fc.open = fc.open[:len(fc.open)-1]

	if !b.placed {
		// Empty inline: zero width on the current line.
		d.Content = start
		b.placed = true
		fc.lineH = max(fc.lineH, start.Height)
		fc.lineUsed = true
	}
	fc.cx += padding.Right + border.Right + margin.Right
	for _, ib := range fc.open {
		ib.Dimensions.Content = unionInit(ib.Dimensions.Content, b.BorderBox(), ib)
	}
}

func (e *Engine) flowText(fc *flowContext, parent *LayoutBox, n *html.Node) {
	sm := e.style.Computed(n)
	b := e.newBox(n, sm, parent)
	b.ContainingBlock = fc.container
	b.Fixed = fc.container.Fixed

	text := n.Data
	words := strings.Fields(text)
	if len(words) == 0 {
		if text != "" && fc.lineUsed {
			fc.space = true
		}
		b.Dimensions.Content = Rect{X: fc.cx, Y: fc.y}
		return
	}
	if isSpace(text[0]) && fc.lineUsed {
		fc.space = true
	}
	fs, lh := sm.FontSize(), sm.LineHeight()
	sp := style.MeasureText(" ", fs)
	for _, w := range words {
		ww := style.MeasureText(w, fs)
		adv := 0.0
		if fc.space && fc.lineUsed {
			adv = sp
		}
		if fc.lineUsed && fc.cx+adv+ww > fc.x0+fc.width {
			fc.newLine()
			adv = 0
		}
		fc.cx += adv
		fc.place(Rect{X: fc.cx, Y: fc.y, Width: ww, Height: lh}, b)
		fc.cx += ww
		fc.space = true
	}
	fc.space = isSpace(text[len(text)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}

// -- Positioning --

func (e *Engine) layoutPositioned(b *LayoutBox) {
	sm := b.Style
	cbRect := e.tree.Viewport
	var cb *LayoutBox
	if b.Position == style.PositionFixed {
		b.Fixed = true
	} else {
		cb = e.tree.Root
		for p := b.Parent; p != nil; p = p.Parent {
			if p.Position != style.PositionStatic && p.Node.Type == html.ElementNode {
				cb = p
				cbRect = p.Dimensions.PaddingBox()
				break
			}
		}
		b.Fixed = cb != nil && cb.Fixed
	}
	b.ContainingBlock = cb

	left, hasL := sm.Length("left", cbRect.Width, e.vw, e.vh)
	right, hasR := sm.Length("right", cbRect.Width, e.vw, e.vh)
	top, hasT := e.height(sm, "top", cbRect.Height, true)
	bottom, hasB := e.height(sm, "bottom", cbRect.Height, true)

	_, hasWidth := sm.Length("width", cbRect.Width, e.vw, e.vh)
	avail := cbRect.Width
	if hasWidth {
		avail = cbRect.Width
	} else if hasL && hasR {
		avail = max(0, cbRect.Width-left-right)
	} else if hasL {
		avail = max(0, cbRect.Width-left)
	}
	stretch := hasL && hasR && !hasWidth
	e.layoutBlockBox(b, 0, 0, avail, cbRect.Height, true, !stretch)

	_, hasHeight := e.height(sm, "height", cbRect.Height, true)
	if hasT && hasB && !hasHeight {
		d := &b.Dimensions
		d.Content.Height = max(0, cbRect.Height-top-bottom-d.Margin.Vertical()-d.Border.Vertical()-d.Padding.Vertical())
	}

	mb := b.Dimensions.MarginBox()
	var x, y float64
	switch {
	case hasL:
		x = cbRect.X + left
	case hasR:
		x = cbRect.Right() - right - mb.Width
	default:
		x = b.static.ref.Dimensions.Content.X + b.static.dx
	}
	switch {
	case hasT:
		y = cbRect.Y + top
	case hasB:
		y = cbRect.Bottom() - bottom - mb.Height
	default:
		y = b.static.ref.Dimensions.Content.Y + b.static.dy
	}
	e.translate(b, x-mb.X, y-mb.Y)
}

func (e *Engine) applyRelative(b *LayoutBox) {
	if b.Position != style.PositionRelative {
		return
	}
	cbw := 0.0
	if b.ContainingBlock != nil {
		cbw = b.ContainingBlock.Dimensions.Content.Width
	}
	var dx, dy float64
	if l, ok := b.Style.Length("left", cbw, e.vw, e.vh); ok {
		dx = l
	} else if r, ok := b.Style.Length("right", cbw, e.vw, e.vh); ok {
		dx = -r
	}
	if t, ok := e.height(b.Style, "top", 0, false); ok {
		dy = t
	} else if bt, ok := e.height(b.Style, "bottom", 0, false); ok {
		dy = -bt
	}
	if dx != 0 || dy != 0 {
		e.translate(b, dx, dy)
	}
}

// translate moves a laid-out subtree. Out-of-flow children are laid out
// later from their containing block and are left alone.
func (e *Engine) translate(b *LayoutBox, dx, dy float64) {
	b.Dimensions.Content.X += dx
	b.Dimensions.Content.Y += dy
	b.contentEnd += dx
	for _, c := range b.Children {
		if c.Position == style.PositionAbsolute || c.Position == style.PositionFixed {
			continue
		}
		e.translate(c, dx, dy)
	}
}

// -- Replaced Elements --

// intrinsicSize reports the natural content size of replaced elements.
func (e *Engine) intrinsicSize(b *LayoutBox) (w, h float64, replaced bool) {
	n := b.Node
	if n == nil || n.Type != html.ElementNode {
		return 0, 0, false
	}
	attrSize := func(dw, dh float64) (float64, float64) {
		w, h := dw, dh
		if v, ok := attrFloat(n, "width"); ok {
			w = v
		}
		if v, ok := attrFloat(n, "height"); ok {
			h = v
		}
		return w, h
	}
	lh := b.Style.LineHeight()
	fs := b.Style.FontSize()
	switch strings.ToLower(n.Data) {
	case "img":
		w, h = attrSize(0, 0)
		return w, h, true
	case "iframe", "canvas", "video", "svg", "object", "embed":
		w, h = attrSize(300, 150)
		return w, h, true
	case "meter", "progress":
		return 80, 16, true
	case "select":
		return 0, lh, true
	case "textarea":
		return 0, lh * 2, true
	case "input":
		t := strings.ToLower(attr(n, "type"))
		switch t {
		case "image":
			w, h = attrSize(0, 0)
			return w, h, true
		case "submit", "reset", "button":
			label, ok := attrLookup(n, "value")
			if !ok {
				switch t {
				case "submit":
					label = "Submit"
				case "reset":
					label = "Reset"
				}
			}
			return style.MeasureText(label, fs), lh, true
		}
		return 0, lh, true
	}
	return 0, 0, false
}

// -- Overflow --

func (e *Engine) computeOverflow() {
	root := e.tree.Root
	for _, b := range e.all {
		if b == root || b.IsScrollContainer() {
			b.Overflow = b.Dimensions.PaddingBox()
		}
	}
	root.Overflow = root.Overflow.Union(e.tree.Viewport)
	for _, b := range e.all {
		if b == root {
			continue
		}
		r := b.BorderBox()
		if r.Width <= 0 && r.Height <= 0 {
			continue
		}
		for cb := b.ContainingBlock; cb != nil; cb = cb.ContainingBlock {
			if cb == root || cb.IsScrollContainer() {
				cb.Overflow = cb.Overflow.Union(r)
				break
			}
		}
	}
}

// -- Helpers --

func attrLookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := attrLookup(n, key)
	return v
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attrLookup(n, key)
	return ok
}

func attrFloat(n *html.Node, key string) (float64, bool) {
	v, ok := attrLookup(n, key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
