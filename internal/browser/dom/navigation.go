// internal/browser/dom/navigation.go
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Navigate follows href from this document into the browsing context named
// by target. javascript: URLs run through the script host instead.
func (d *Document) Navigate(href, target string) error {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		src, err := url.PathUnescape(href[len("javascript:"):])
		if err != nil {
			src = href[len("javascript:"):]
		}
		d.win.navigations = append(d.win.navigations, Navigation{Kind: "javascript", URL: href, Target: target, Frame: d.frameXPath()})
		if d.win.scripts == nil {
			return nil
		}
		if err := d.win.scripts.Eval(d, src); err != nil {
			d.logger.Warn("javascript url failed", zap.Error(err))
		}
		d.Invalidate()
		return nil
	}
	u, err := d.URL.Parse(href)
	if err != nil {
		return fmt.Errorf("invalid href %q: %w", href, err)
	}
	return d.navigateURL(u, target, "")
}

func (d *Document) navigateURL(u *url.URL, target, method string) error {
	switch strings.ToLower(target) {
	case "", "_self":
		d.load(u, method, target)
	case "_parent":
		p := d
		if d.parent != nil {
			p = d.parent
		}
		p.load(u, method, target)
	case "_top":
		d.win.doc.load(u, method, target)
	case "_blank":
		d.win.open(u, "_blank")
	default:
		if fd := d.win.namedFrame(target); fd != nil {
			fd.load(u, method, target)
			return nil
		}
		d.win.open(u, target)
	}
	return nil
}

// load points the document at u. A change of fragment alone is recorded as
// a hash navigation.
func (d *Document) load(u *url.URL, method, target string) {
	kind := "load"
	if method == "" && d.URL != nil && u.Fragment != "" && sameDocument(d.URL, u) {
		kind = "hash"
	}
	d.URL = u
	nav := Navigation{Kind: kind, URL: u.String(), Target: target, Method: method, Frame: d.frameXPath()}
	d.win.navigations = append(d.win.navigations, nav)
	d.logger.Debug("navigation", zap.String("kind", kind), zap.String("url", nav.URL))
}

func sameDocument(a, b *url.URL) bool {
	x, y := *a, *b
	x.Fragment, y.Fragment = "", ""
	x.RawFragment, y.RawFragment = "", ""
	return x.String() == y.String()
}

func (d *Document) frameXPath() string {
	if d.frameElement == nil {
		return ""
	}
	return XPath(d.frameElement)
}

// namedFrame finds a frame document by the name of its frame element.
func (w *Window) namedFrame(name string) *Document {
	for _, d := range w.Documents() {
		for _, f := range htmlquery.Find(d.Root, "//iframe | //frame") {
			if attr(f, "name") == name {
				fd, err := w.FrameDocument(f)
				if err == nil {
					return fd
				}
			}
		}
	}
	return nil
}

// FollowHref navigates an anchor or area element.
func (d *Document) FollowHref(el *html.Node) error {
	href, ok := attrLookup(el, "href")
	if !ok {
		return nil
	}
	return d.Navigate(href, attr(el, "target"))
}
