// internal/browser/style/selectors.go
package style

import (
	"strings"

	"github.com/xkilldash9x/synthinput/internal/browser/parser"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"golang.org/x/net/html"
)

// matchGroup returns the first complex selector in group that matches n.
func matchGroup(n *html.Node, group parser.SelectorGroup) (parser.ComplexSelector, bool) {
	if n == nil || n.Type != html.ElementNode {
		return parser.ComplexSelector{}, false
	}
	for _, cs := range group {
		if len(cs.Selectors) > 0 && matchFrom(n, cs, len(cs.Selectors)-1) {
			return cs, true
		}
	}
	return parser.ComplexSelector{}, false
}

// MatchesSelector parses sel and reports whether it matches n.
func MatchesSelector(n *html.Node, sel string) bool {
	sheet := parser.NewParser(sel + "{x:y}").Parse()
	if len(sheet.Rules) == 0 {
		return false
	}
	for _, g := range sheet.Rules[0].SelectorGroups {
		if _, ok := matchGroup(n, g); ok {
			return true
		}
	}
	return false
}

func matchFrom(n *html.Node, cs parser.ComplexSelector, i int) bool {
	if n == nil || i < 0 || n.Type != html.ElementNode {
		return false
	}
	cur := cs.Selectors[i]
	if !matchesSimple(n, cur.SimpleSelector) {
		return false
	}
	if i == 0 {
		return true
	}
	switch cur.Combinator {
	case parser.CombinatorDescendant:
		for p := parentElement(n); p != nil; p = parentElement(p) {
			if matchFrom(p, cs, i-1) {
				return true
			}
		}
		return false
	case parser.CombinatorChild:
		return matchFrom(parentElement(n), cs, i-1)
	case parser.CombinatorAdjacentSibling:
		return matchFrom(prevElement(n), cs, i-1)
	case parser.CombinatorGeneralSibling:
		for s := prevElement(n); s != nil; s = prevElement(s) {
			if matchFrom(s, cs, i-1) {
				return true
			}
		}
		return false
	}
	return false
}

// parentElement stays within the node's tree scope.
func parentElement(n *html.Node) *html.Node {
	p := n.Parent
	if p == nil || p.Type != html.ElementNode || shadowdom.IsShadowRoot(p) {
		return nil
	}
	return p
}

func prevElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && !shadowdom.IsShadowRoot(s) {
			return s
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && !shadowdom.IsShadowRoot(s) {
			return s
		}
	}
	return nil
}

func matchesSimple(n *html.Node, sel parser.SimpleSelector) bool {
	if sel.TagName != "" && sel.TagName != "*" && !strings.EqualFold(n.Data, sel.TagName) {
		return false
	}
	if sel.ID != "" {
		if id, _ := attrValue(n, "id"); id != sel.ID {
			return false
		}
	}
	if len(sel.Classes) > 0 {
		cls, _ := attrValue(n, "class")
		have := strings.Fields(cls)
		for _, want := range sel.Classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	for _, a := range sel.Attributes {
		if !matchesAttribute(n, a) {
			return false
		}
	}
	for _, pc := range sel.PseudoClasses {
		if !matchesPseudo(n, pc) {
			return false
		}
	}
	return true
}

func matchesAttribute(n *html.Node, sel parser.AttributeSelector) bool {
	actual, found := attrValue(n, sel.Name)
	if !found {
		return false
	}
	switch sel.Operator {
	case "":
		return true
	case "=":
		return actual == sel.Value
	case "~=":
		return contains(strings.Fields(actual), sel.Value)
	case "|=":
		return actual == sel.Value || strings.HasPrefix(actual, sel.Value+"-")
	case "^=":
		return sel.Value != "" && strings.HasPrefix(actual, sel.Value)
	case "$=":
		return sel.Value != "" && strings.HasSuffix(actual, sel.Value)
	case "*=":
		return sel.Value != "" && strings.Contains(actual, sel.Value)
	}
	return false
}

// matchesPseudo supports the structural and attribute-backed pseudo-classes.
// Dynamic states (hover, focus) never match; they depend on live input.
func matchesPseudo(n *html.Node, pc string) bool {
	switch {
	case pc == "first-child":
		return prevElement(n) == nil
	case pc == "last-child":
		return nextElement(n) == nil
	case pc == "only-child":
		return prevElement(n) == nil && nextElement(n) == nil
	case pc == "root":
		return n.Parent != nil && n.Parent.Type == html.DocumentNode
	case pc == "empty":
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || (c.Type == html.TextNode && c.Data != "") {
				return false
			}
		}
		return true
	case pc == "checked":
		_, checked := attrValue(n, "checked")
		_, selected := attrValue(n, "selected")
		return checked || (strings.EqualFold(n.Data, "option") && selected)
	case pc == "disabled":
		_, ok := attrValue(n, "disabled")
		return ok
	case pc == "enabled":
		_, ok := attrValue(n, "disabled")
		return !ok && isFormControl(n)
	case pc == "link" || pc == "any-link":
		_, ok := attrValue(n, "href")
		return ok && (strings.EqualFold(n.Data, "a") || strings.EqualFold(n.Data, "area"))
	case strings.HasPrefix(pc, "not(") && strings.HasSuffix(pc, ")"):
		inner := strings.TrimSuffix(strings.TrimPrefix(pc, "not("), ")")
		return !MatchesSelector(n, inner)
	}
	return false
}

func isFormControl(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "input", "button", "select", "textarea", "option", "optgroup", "fieldset":
		return true
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
