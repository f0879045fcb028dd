// internal/bot/oracle/shown.go
package oracle

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"github.com/xkilldash9x/synthinput/internal/browser/style"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

func requireElement(n *html.Node) error {
	if n == nil || n.Type != html.ElementNode {
		return bot.NewError(bot.UnknownError, "argument to the oracle must be an element")
	}
	return nil
}

func isTag(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if strings.EqualFold(n.Data, t) {
			return true
		}
	}
	return false
}

// parentElement is the composed-tree parent element of n, nil at the top of
// a document.
func parentElement(n *html.Node) *html.Node {
	for p := shadowdom.ComposedParent(n); p != nil; p = shadowdom.ComposedParent(p) {
		if shadowdom.IsShadowRoot(p) {
			continue
		}
		if p.Type == html.ElementNode {
			return p
		}
		return nil
	}
	return nil
}

func closest(n *html.Node, tag string) *html.Node {
	for p := parentElement(n); p != nil; p = parentElement(p) {
		if isTag(p, tag) {
			return p
		}
	}
	return nil
}

// styleOf returns the computed style of el in its owning document, nil when
// el is detached.
func styleOf(win *dom.Window, el *html.Node) style.StyleMap {
	d, err := win.Owner(el)
	if err != nil {
		return nil
	}
	return d.Style(el)
}

// GetEffectiveStyle returns the computed value of property on el, "" when
// el is detached or the property is unset.
func GetEffectiveStyle(win *dom.Window, el *html.Node, property string) (string, error) {
	if err := requireElement(el); err != nil {
		return "", err
	}
	return styleOf(win, el).Lookup(property, ""), nil
}

// GetOpacity multiplies the opacity of el and all of its ancestors.
func GetOpacity(win *dom.Window, el *html.Node) (float64, error) {
	if err := requireElement(el); err != nil {
		return 0, err
	}
	opacity := 1.0
	for n := el; n != nil; n = parentElement(n) {
		sm := styleOf(win, n)
		if sm == nil {
			break
		}
		opacity *= sm.Opacity()
	}
	return opacity, nil
}

// IsShown reports whether el is visible to a user. ignoreOpacity treats
// fully transparent elements as shown.
func IsShown(win *dom.Window, el *html.Node, ignoreOpacity bool) (bool, error) {
	if err := requireElement(el); err != nil {
		return false, err
	}
	d, err := win.Owner(el)
	if err != nil {
		return false, nil
	}

	// The body represents the document; the user can always see it.
	if isTag(el, "body") {
		return true, nil
	}
	if isTag(el, "option", "optgroup") {
		sel := closest(el, "select")
		if sel == nil {
			return false, nil
		}
		return IsShown(win, sel, true)
	}
	if img, rect, ok := imageMap(d, el); ok {
		if img == nil || rect.IsEmpty() {
			return false, nil
		}
		return IsShown(win, img, ignoreOpacity)
	}
	if isTag(el, "input") && dom.InputType(el) == "hidden" {
		return false, nil
	}
	if isTag(el, "noscript") {
		return false, nil
	}
	if !d.Style(el).IsVisible() {
		return false, nil
	}
	if !displayed(d, el) {
		return false, nil
	}
	if !ignoreOpacity {
		if op, _ := GetOpacity(win, el); op == 0 {
			return false, nil
		}
	}
	if !positiveSize(win, d, el) {
		return false, nil
	}
	return !hiddenByOverflow(win, d, el), nil
}

// displayed is false when el or a composed ancestor has display:none, or
// when el sits inside a closed <details> other than as its summary.
func displayed(d *dom.Document, el *html.Node) bool {
	for n := el; n != nil; {
		if d.Style(n).Display() == style.DisplayNone {
			return false
		}
		parent := parentElement(n)
		if isTag(parent, "details") {
			if _, open := dom.Attribute(parent, "open"); !open && !isFirstSummary(parent, n) {
				return false
			}
		}
		n = parent
	}
	return true
}

func isFirstSummary(details, n *html.Node) bool {
	for c := details.FirstChild; c != nil; c = c.NextSibling {
		if isTag(c, "summary") {
			return c == n
		}
	}
	return false
}

// positiveSize is true for elements with area, and for zero-sized elements
// whose overflow is not hidden and that contain text or a positively sized
// child.
func positiveSize(win *dom.Window, d *dom.Document, el *html.Node) bool {
	r, err := GetClientRect(win, el)
	if err == nil && r.Width > 0 && r.Height > 0 {
		return true
	}
	sm := d.Style(el)
	if sm.OverflowX() == "hidden" && sm.OverflowY() == "hidden" {
		return false
	}
	for _, c := range shadowdom.RenderedChildren(el) {
		if c.Type == html.TextNode {
			return true
		}
		if c.Type == html.ElementNode && positiveSize(win, d, c) {
			return true
		}
	}
	return false
}

// hiddenByOverflow is true when el is clipped by an unscrollable ancestor
// and none of its children escape the clip.
func hiddenByOverflow(win *dom.Window, d *dom.Document, el *html.Node) bool {
	state, err := GetOverflowState(win, el, nil)
	if err != nil || state != OverflowHidden {
		return false
	}
	for _, c := range shadowdom.RenderedChildren(el) {
		if c.Type != html.ElementNode {
			continue
		}
		if !hiddenByOverflow(win, d, c) && positiveSize(win, d, c) {
			return false
		}
	}
	return true
}

// IsInteractable is shown with opacity ignored, enabled, and not excluded by
// pointer-events:none on engines that honour the property.
func IsInteractable(win *dom.Window, caps platform.Capabilities, el *html.Node) (bool, error) {
	shown, err := IsShown(win, el, true)
	if err != nil || !shown {
		return false, err
	}
	if !IsEnabled(el) {
		return false, nil
	}
	if caps.PointerEventsCSS {
		if v, _ := GetEffectiveStyle(win, el, "pointer-events"); v == "none" {
			return false, nil
		}
	}
	return true, nil
}
