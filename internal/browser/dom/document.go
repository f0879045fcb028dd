// internal/browser/dom/document.go
package dom

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/layout"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"github.com/xkilldash9x/synthinput/internal/browser/style"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Submission records a form submitted through the native submit path.
type Submission struct {
	Form   string     `json:"form"`
	Action string     `json:"action"`
	Method string     `json:"method"`
	Data   url.Values `json:"data"`
}

// Document is one parsed HTML document: the top-level page or a frame. It
// owns the live state the parser cannot express (control values, focus,
// listeners, scroll offsets) and lazily computes style and layout.
type Document struct {
	Root *html.Node
	URL  *url.URL

	win          *Window
	frameElement *html.Node
	parent       *Document
	logger       *zap.Logger

	styles  *style.Engine
	layouts *layout.Engine
	tree    *layout.Tree

	controls     map[*html.Node]*controlState
	listeners    map[*html.Node]map[string][]listener
	nextListener int
	active       *html.Node
	scroll       map[*html.Node][2]float64
	submissions  []Submission
}

func newDocument(w *Window, root *html.Node, u *url.URL, frame *html.Node, parent *Document) *Document {
	se := style.NewEngine()
	d := &Document{
		Root:         root,
		URL:          u,
		win:          w,
		frameElement: frame,
		parent:       parent,
		logger:       w.logger.Named("document"),
		styles:       se,
		layouts:      layout.NewEngine(se),
		controls:     make(map[*html.Node]*controlState),
		listeners:    make(map[*html.Node]map[string][]listener),
		scroll:       make(map[*html.Node][2]float64),
	}
	se.Load(root)
	return d
}

func (d *Document) Window() *Window { return d.win }

// FrameElement is the <iframe> hosting this document, nil at the top level.
func (d *Document) FrameElement() *html.Node { return d.frameElement }

func (d *Document) Parent() *Document { return d.parent }

func (d *Document) Closed() bool { return d.win.closed }

func (d *Document) Submissions() []Submission {
	return append([]Submission(nil), d.submissions...)
}

// Invalidate drops computed style and layout. It is called after any
// mutation made through the document and after script handlers ran.
func (d *Document) Invalidate() {
	d.styles.Load(d.Root)
	d.tree = nil
}

func (d *Document) viewport() (float64, float64) {
	if d.frameElement == nil || d.parent == nil {
		return d.win.Viewport()
	}
	if b := d.parent.Layout().Box(d.frameElement); b != nil {
		return b.Dimensions.Content.Width, b.Dimensions.Content.Height
	}
	return 0, 0
}

// Layout returns the current layout tree, recomputing it after mutations.
func (d *Document) Layout() *layout.Tree {
	if d.tree == nil {
		w, h := d.viewport()
		d.styles.SetViewport(w, h)
		d.tree = d.layouts.Layout(d.Root)
	}
	return d.tree
}

// Style returns the computed style of n.
func (d *Document) Style(n *html.Node) style.StyleMap {
	d.Layout()
	return d.styles.Computed(n)
}

// DocumentElement returns <html>.
func (d *Document) DocumentElement() *html.Node {
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (d *Document) Body() *html.Node {
	return htmlquery.FindOne(d.Root, "/html/body")
}

// ClientRect is the border box of n in this document's viewport coordinates.
func (d *Document) ClientRect(n *html.Node) layout.Rect {
	return d.Layout().ClientRect(n, d)
}

// ScrollOffset implements layout.ScrollOffsets. The document element carries
// the document scroll.
func (d *Document) ScrollOffset(n *html.Node) (float64, float64) {
	off := d.scroll[n]
	return off[0], off[1]
}

// SetScroll scrolls n (nil, <html> or <body> for the document) to x, y,
// clamped to its scrollable range, and fires scroll when the offset changed.
// Right-to-left containers scroll into negative x.
func (d *Document) SetScroll(n *html.Node, x, y float64) {
	tree := d.Layout()
	root := d.DocumentElement()
	if n == nil || n == d.Body() {
		n = root
	}
	b := tree.Box(n)
	if b == nil {
		return
	}
	var maxX, maxY float64
	if n == root {
		w, h := tree.DocumentSize()
		maxX, maxY = w-tree.Viewport.Width, h-tree.Viewport.Height
	} else {
		if !b.IsScrollContainer() {
			return
		}
		maxX, maxY = b.ScrollWidth()-b.ClientWidth(), b.ScrollHeight()-b.ClientHeight()
	}
	minX := 0.0
	if b.Style.Direction() == "rtl" {
		minX, maxX = -max(maxX, 0), 0
	}
	x = min(max(x, minX), max(maxX, 0))
	y = min(max(y, 0), max(maxY, 0))
	if old := d.scroll[n]; old == [2]float64{x, y} {
		return
	}
	d.scroll[n] = [2]float64{x, y}
	target := n
	if n == root {
		target = d.Root
	}
	d.FireTrusted(target, "scroll", "Event", false, false, nil)
}

// Find returns the first node matching xpath.
func (d *Document) Find(xpath string) (*html.Node, error) {
	n, err := htmlquery.Query(d.Root, xpath)
	if err != nil {
		return nil, bot.Wrap(bot.NoSuchElement, err, "invalid xpath %q", xpath)
	}
	if n == nil {
		return nil, bot.NewError(bot.NoSuchElement, "no element matches %q", xpath)
	}
	return n, nil
}

func (d *Document) FindAll(xpath string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(d.Root, xpath)
	if err != nil {
		return nil, bot.Wrap(bot.NoSuchElement, err, "invalid xpath %q", xpath)
	}
	return nodes, nil
}

// ByID returns the first element with the given id in the light tree.
func (d *Document) ByID(id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if v, ok := attrLookup(c, "id"); ok && v == id {
				found = c
				return
			}
			if !shadowdom.IsShadowRoot(c) {
				walk(c)
			}
		}
	}
	walk(d.Root)
	return found
}

// IsConnected reports whether n is in this document's tree.
func (d *Document) IsConnected(n *html.Node) bool {
	return n != nil && ownerRoot(n) == d.Root
}

func (d *Document) SetAttribute(n *html.Node, key, val string) {
	key = strings.ToLower(key)
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr[i].Val = val
			d.Invalidate()
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	d.Invalidate()
}

func (d *Document) RemoveAttribute(n *html.Node, key string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr = append(n.Attr[:i:i], n.Attr[i+1:]...)
			d.Invalidate()
			return
		}
	}
}

// Attribute returns the value of an attribute and whether it is present.
func Attribute(n *html.Node, key string) (string, bool) { return attrLookup(n, key) }

// TextContent concatenates the text descendants of n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || c.Type == html.ElementNode {
			sb.WriteString(TextContent(c))
		}
	}
	return sb.String()
}

// SetTextContent replaces the children of n with a single text node.
func (d *Document) SetTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	d.Invalidate()
}

// Remove detaches n from its parent.
func (d *Document) Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
		if d.active == n || contains(n, d.active) {
			d.active = nil
		}
		d.Invalidate()
	}
}

func contains(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// ActiveElement is the focused element, or <body> when nothing is focused.
func (d *Document) ActiveElement() *html.Node {
	if d.active != nil {
		return d.active
	}
	return d.Body()
}

// IsFocusable reports whether el can receive focus through focus().
func IsFocusable(el *html.Node) bool {
	if el == nil || el.Type != html.ElementNode {
		return false
	}
	if isTag(el, "a", "area", "button", "input", "label", "select", "textarea") {
		return true
	}
	if v, ok := attrLookup(el, "tabindex"); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i >= 0 {
			return true
		}
	}
	return IsContentEditable(el)
}

// IsContentEditable walks up to the nearest contenteditable declaration.
func IsContentEditable(el *html.Node) bool {
	for n := el; n != nil && n.Type == html.ElementNode; n = shadowdom.ComposedParent(n) {
		v, ok := attrLookup(n, "contenteditable")
		if !ok {
			continue
		}
		switch strings.ToLower(v) {
		case "", "true", "plaintext-only":
			return true
		case "false":
			return false
		}
	}
	return false
}

// Focus moves focus to el, blurring the previously focused element. Focusing
// the active element, a disabled control or a non-focusable node does
// nothing.
func (d *Document) Focus(el *html.Node) error {
	if !d.IsConnected(el) {
		return fmt.Errorf("focus: %w", ErrDetached)
	}
	if el == d.active || !IsFocusable(el) || IsDisabled(el) {
		return nil
	}
	prev := d.active
	if prev != nil {
		d.active = nil
		d.FireTrusted(prev, "blur", "FocusEvent", false, false, el)
		d.FireTrusted(prev, "focusout", "FocusEvent", true, false, el)
	}
	d.active = el
	d.FireTrusted(el, "focus", "FocusEvent", false, false, prev)
	d.FireTrusted(el, "focusin", "FocusEvent", true, false, prev)
	d.logger.Debug("focus moved", zap.String("element", XPath(el)))
	return nil
}

// Blur removes focus from el if it has it. Blurring a detached element fails
// with ErrUnspecified on windows with legacy blur errors.
func (d *Document) Blur(el *html.Node) error {
	if !d.IsConnected(el) {
		if d.win.legacyBlurErrors {
			return ErrUnspecified
		}
		return nil
	}
	if el != d.active {
		return nil
	}
	d.active = nil
	d.FireTrusted(el, "blur", "FocusEvent", false, false, nil)
	d.FireTrusted(el, "focusout", "FocusEvent", true, false, nil)
	return nil
}
