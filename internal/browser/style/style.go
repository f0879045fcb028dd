// internal/browser/style/style.go
package style

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/synthinput/internal/browser/parser"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"golang.org/x/net/html"
)

// BaseFontSize is the root font size in px.
const BaseFontSize = 16.0

// DefaultUserAgentCSS covers the elements the engine needs to size and hide.
const DefaultUserAgentCSS = `
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, li, form, fieldset, legend,
header, footer, section, article, nav, main, aside, details, summary, dl, dt, dd,
table, tr, blockquote, pre, hr, address, figure, figcaption, menu, map {
    display: block;
}
head, script, style, title, meta, link, base, template, noscript, datalist,
option, optgroup, param, source, track, area { display: none; }
span, a, b, i, em, strong, small, label, code, abbr, cite, q, sub, sup, u, s, font, mark, slot {
    display: inline;
}
li { display: list-item; }
td, th { display: inline-block; }
slot { display: contents; }
[hidden] { display: none; }
body { margin: 8px; }
h1 { font-size: 2em; margin: 0.67em 0; }
h2 { font-size: 1.5em; margin: 0.83em 0; }
p { margin: 1em 0; }
ul, ol { padding-left: 40px; margin: 1em 0; }
fieldset { margin: 0 2px; padding: 0.35em 0.75em 0.625em; border: 2px groove; }
input, button, textarea, select, img, iframe, canvas, video, svg, object, embed, meter, progress {
    display: inline-block;
}
input, button, textarea, select {
    box-sizing: border-box;
    margin: 2px 0;
    padding: 1px 2px;
    border-width: 2px;
    border-style: inset;
}
input { width: 170px; }
input[type="checkbox"], input[type="radio"] {
    width: 13px;
    height: 13px;
    padding: 0;
    margin: 3px;
    border-width: 0;
    border-style: none;
}
input[type="hidden"] { display: none; }
button, input[type="submit"], input[type="button"], input[type="reset"], input[type="image"] {
    width: auto;
    padding: 1px 6px;
    border-style: outset;
}
textarea { width: 180px; height: 36px; }
select { width: 120px; }
select[multiple], select[size] { height: 70px; }
iframe { width: 300px; height: 150px; border-width: 2px; border-style: inset; }
`

// inherited lists properties that flow from composed parent to child when
// not set.
var inherited = map[parser.Property]bool{
	"color":          true,
	"cursor":         true,
	"direction":      true,
	"font-family":    true,
	"font-size":      true,
	"font-style":     true,
	"font-weight":    true,
	"line-height":    true,
	"pointer-events": true,
	"text-align":     true,
	"visibility":     true,
	"white-space":    true,
}

// initial values for properties read by the engine.
var initial = map[parser.Property]parser.Value{
	"display":          "inline",
	"visibility":       "visible",
	"opacity":          "1",
	"overflow-x":       "visible",
	"overflow-y":       "visible",
	"position":         "static",
	"pointer-events":   "auto",
	"direction":        "ltr",
	"touch-action":     "auto",
	"-ms-touch-action": "auto",
	"box-sizing":       "content-box",
	"width":            "auto",
	"height":           "auto",
	"top":              "auto",
	"right":            "auto",
	"bottom":           "auto",
	"left":             "auto",
	"line-height":      "normal",
}

// Engine resolves computed styles for one document. Results are cached until
// Invalidate is called.
type Engine struct {
	userAgent []parser.StyleSheet
	// scope root (document node or shadow root) -> author sheets in tree order
	scoped map[*html.Node][]parser.StyleSheet
	extra  []parser.StyleSheet

	viewportWidth, viewportHeight float64

	cache map[*html.Node]StyleMap
}

func NewEngine() *Engine {
	return &Engine{
		userAgent:      []parser.StyleSheet{parser.NewParser(DefaultUserAgentCSS).Parse()},
		scoped:         make(map[*html.Node][]parser.StyleSheet),
		cache:          make(map[*html.Node]StyleMap),
		viewportWidth:  1024,
		viewportHeight: 768,
	}
}

// AddAuthorSheet adds a document-level stylesheet that is not part of the
// tree (e.g. injected by a test).
func (se *Engine) AddAuthorSheet(sheet parser.StyleSheet) {
	se.extra = append(se.extra, sheet)
	se.Invalidate()
}

// SetViewport sets the dimensions used for viewport-relative units.
func (se *Engine) SetViewport(width, height float64) {
	se.viewportWidth, se.viewportHeight = width, height
	se.Invalidate()
}

func (se *Engine) Viewport() (float64, float64) {
	return se.viewportWidth, se.viewportHeight
}

// Load collects <style> elements under root, keyed by the tree scope they
// apply to, and drops all cached results.
func (se *Engine) Load(root *html.Node) {
	se.scoped = make(map[*html.Node][]parser.StyleSheet)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.EqualFold(c.Data, "style") {
				scope := shadowdom.Scope(c)
				se.scoped[scope] = append(se.scoped[scope], parser.NewParser(textContent(c)).Parse())
				continue
			}
			walk(c)
		}
	}
	walk(root)
	se.Invalidate()
}

// Invalidate drops cached computed styles.
func (se *Engine) Invalidate() {
	se.cache = make(map[*html.Node]StyleMap)
}

// Computed returns the computed style of an element. Non-element nodes
// inherit their parent's style.
func (se *Engine) Computed(n *html.Node) StyleMap {
	if n == nil {
		return rootDefaults()
	}
	if n.Type != html.ElementNode {
		return se.Computed(elementParent(n))
	}
	if cs, ok := se.cache[n]; ok {
		return cs
	}
	var parent StyleMap
	if p := elementParent(n); p != nil {
		parent = se.Computed(p)
	} else {
		parent = rootDefaults()
	}
	cs := se.cascade(n)
	se.inherit(cs, parent)
	se.resolve(cs, parent)
	se.cache[n] = cs
	return cs
}

// elementParent walks the composed tree to the nearest element ancestor.
func elementParent(n *html.Node) *html.Node {
	for p := shadowdom.ComposedParent(n); p != nil; p = shadowdom.ComposedParent(p) {
		if p.Type == html.ElementNode && !shadowdom.IsShadowRoot(p) {
			return p
		}
	}
	return nil
}

func rootDefaults() StyleMap {
	return StyleMap{"font-size": "16px", "visibility": "visible", "pointer-events": "auto", "direction": "ltr"}
}

type matched struct {
	decl     parser.Declaration
	priority int
	a, b, c  int
	order    int
}

const (
	originUserAgent = iota
	originAuthor
	originInline
)

// priority orders declarations by origin and importance.
func priority(origin int, important bool) int {
	if !important {
		return origin
	}
	switch origin {
	case originAuthor:
		return 3
	case originInline:
		return 4
	default:
		return 5
	}
}

// CalculateStyles runs the cascade for a single element, returning the
// winning declared values with shorthands expanded. No inheritance applied.
func (se *Engine) CalculateStyles(n *html.Node) StyleMap {
	return se.cascade(n)
}

func (se *Engine) cascade(n *html.Node) StyleMap {
	var all []matched
	order := 0
	collect := func(sheets []parser.StyleSheet, origin int) {
		for _, sheet := range sheets {
			for _, rule := range sheet.Rules {
				for _, group := range rule.SelectorGroups {
					sel, ok := matchGroup(n, group)
					if !ok {
						continue
					}
					a, b, c := sel.CalculateSpecificity()
					for _, d := range rule.Declarations {
						for _, ed := range expandShorthand(d) {
							all = append(all, matched{decl: ed, priority: priority(origin, ed.Important), a: a, b: b, c: c, order: order})
							order++
						}
					}
				}
			}
		}
	}
	collect(se.userAgent, originUserAgent)
	scope := shadowdom.Scope(n)
	collect(se.scoped[scope], originAuthor)
	if !shadowdom.IsShadowRoot(scope) {
		collect(se.extra, originAuthor)
	}
	if attr, ok := attrValue(n, "style"); ok {
		for _, d := range parser.ParseInline(attr) {
			for _, ed := range expandShorthand(d) {
				all = append(all, matched{decl: ed, priority: priority(originInline, ed.Important), order: order})
				order++
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		x, y := all[i], all[j]
		if x.priority != y.priority {
			return x.priority < y.priority
		}
		if x.a != y.a {
			return x.a < y.a
		}
		if x.b != y.b {
			return x.b < y.b
		}
		if x.c != y.c {
			return x.c < y.c
		}
		return x.order < y.order
	})
	out := make(StyleMap, len(all))
	for _, m := range all {
		out[m.decl.Property] = m.decl.Value
	}
	return out
}

func (se *Engine) inherit(cs, parent StyleMap) {
	reset := make(map[parser.Property]bool)
	for prop, v := range cs {
		switch strings.ToLower(string(v)) {
		case "inherit":
			if pv, ok := parent[prop]; ok {
				cs[prop] = pv
			} else {
				delete(cs, prop)
			}
		case "unset":
			delete(cs, prop)
		case "initial":
			delete(cs, prop)
			reset[prop] = true
		}
	}
	for prop := range inherited {
		if _, ok := cs[prop]; !ok && !reset[prop] {
			if pv, ok := parent[prop]; ok {
				cs[prop] = pv
			}
		}
	}
	for prop, v := range initial {
		if _, ok := cs[prop]; !ok {
			cs[prop] = v
		}
	}
}

// resolve converts font-size to px and applies the overflow pairing rule.
func (se *Engine) resolve(cs, parent StyleMap) {
	parentSize := parent.FontSize()
	if raw, ok := cs["font-size"]; ok {
		size := ParseLengthWithUnits(string(raw), parentSize, BaseFontSize, parentSize, se.viewportWidth, se.viewportHeight)
		switch strings.TrimSpace(string(raw)) {
		case "small":
			size = 13
		case "medium":
			size = 16
		case "large":
			size = 18
		case "x-large":
			size = 24
		}
		if size <= 0 {
			size = parentSize
		}
		cs["font-size"] = parser.Value(formatPx(size))
	}
	ox, oy := cs.Lookup("overflow-x", "visible"), cs.Lookup("overflow-y", "visible")
	if (ox == "visible") != (oy == "visible") {
		if ox == "visible" {
			cs["overflow-x"] = "auto"
		} else {
			cs["overflow-y"] = "auto"
		}
	}
}

func expandShorthand(d parser.Declaration) []parser.Declaration {
	mk := func(p string, v string) parser.Declaration {
		return parser.Declaration{Property: parser.Property(p), Value: parser.Value(v), Important: d.Important}
	}
	val := strings.TrimSpace(string(d.Value))
	fields := strings.Fields(val)
	switch d.Property {
	case "margin", "padding":
		t, r, b, l := boxValues(fields)
		p := string(d.Property)
		return []parser.Declaration{mk(p+"-top", t), mk(p+"-right", r), mk(p+"-bottom", b), mk(p+"-left", l)}
	case "border-width":
		t, r, b, l := boxValues(fields)
		return []parser.Declaration{mk("border-top-width", t), mk("border-right-width", r), mk("border-bottom-width", b), mk("border-left-width", l)}
	case "border-style":
		t, r, b, l := boxValues(fields)
		return []parser.Declaration{mk("border-top-style", t), mk("border-right-style", r), mk("border-bottom-style", b), mk("border-left-style", l)}
	case "border", "border-top", "border-right", "border-bottom", "border-left":
		width, style := "medium", "none"
		for _, f := range fields {
			switch {
			case isBorderStyle(f):
				style = f
			case isLength(f):
				width = f
			}
		}
		sides := []string{"top", "right", "bottom", "left"}
		if d.Property != "border" {
			sides = []string{strings.TrimPrefix(string(d.Property), "border-")}
		}
		var out []parser.Declaration
		for _, side := range sides {
			out = append(out, mk("border-"+side+"-width", width), mk("border-"+side+"-style", style))
		}
		return out
	case "overflow":
		if len(fields) == 0 {
			return nil
		}
		y := fields[0]
		if len(fields) > 1 {
			y = fields[1]
		}
		return []parser.Declaration{mk("overflow-x", fields[0]), mk("overflow-y", y)}
	case "inset":
		t, r, b, l := boxValues(fields)
		return []parser.Declaration{mk("top", t), mk("right", r), mk("bottom", b), mk("left", l)}
	}
	return []parser.Declaration{d}
}

func boxValues(f []string) (t, r, b, l string) {
	switch len(f) {
	case 0:
		return "0", "0", "0", "0"
	case 1:
		return f[0], f[0], f[0], f[0]
	case 2:
		return f[0], f[1], f[0], f[1]
	case 3:
		return f[0], f[1], f[2], f[1]
	default:
		return f[0], f[1], f[2], f[3]
	}
}

func isBorderStyle(s string) bool {
	switch s {
	case "none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset":
		return true
	}
	return false
}

func isLength(s string) bool {
	switch s {
	case "thin", "medium", "thick":
		return true
	}
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '.' || c == '-'
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
