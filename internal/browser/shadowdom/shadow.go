// internal/browser/shadowdom/shadow.go
package shadowdom

import (
	"strings"

	"golang.org/x/net/html"
)

// Declarative shadow roots are kept in place: the <template shadowrootmode>
// element itself acts as the shadow root, and its children form the shadow
// tree. Nothing is cloned, so node identity survives event dispatch.

func getAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

// IsShadowRoot reports whether n is a declarative shadow root template that
// is attached to an element host.
func IsShadowRoot(n *html.Node) bool {
	if !isElement(n, "template") || !hasAttr(n, "shadowrootmode") {
		return false
	}
	return n.Parent != nil && n.Parent.Type == html.ElementNode
}

// ShadowRoot returns the first declarative shadow root directly under host.
func ShadowRoot(host *html.Node) *html.Node {
	if host == nil || host.Type != html.ElementNode {
		return nil
	}
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if IsShadowRoot(c) {
			return c
		}
	}
	return nil
}

// IsHost reports whether n carries a shadow root.
func IsHost(n *html.Node) bool {
	return ShadowRoot(n) != nil
}

// Host returns the element hosting the shadow root.
func Host(root *html.Node) *html.Node {
	if !IsShadowRoot(root) {
		return nil
	}
	return root.Parent
}

// Mode is "open" or "closed".
func Mode(root *html.Node) string {
	return strings.ToLower(getAttr(root, "shadowrootmode"))
}

// Scope returns the shadow root containing n, or the document node when n
// lives in the light tree. A node that is itself a shadow root belongs to
// the scope of its host.
func Scope(n *html.Node) *html.Node {
	var last *html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		if IsShadowRoot(p) {
			return p
		}
		last = p
	}
	if last == nil {
		return n
	}
	return last
}

// InShadowTree reports whether n is inside some shadow root.
func InShadowTree(n *html.Node) bool {
	return IsShadowRoot(Scope(n))
}

// slotName is the name a slottable is assigned by, "" for the default slot.
func slotName(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return getAttr(n, "slot")
}

// Slots returns the <slot> elements of a shadow root in tree order.
func Slots(root *html.Node) []*html.Node {
	var slots []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if IsShadowRoot(c) {
				continue
			}
			if isElement(c, "slot") {
				slots = append(slots, c)
			}
			walk(c)
		}
	}
	walk(root)
	return slots
}

// findSlot returns the first slot in root named name.
func findSlot(root *html.Node, name string) *html.Node {
	for _, s := range Slots(root) {
		if getAttr(s, "name") == name {
			return s
		}
	}
	return nil
}

// AssignedSlot returns the slot n is rendered into, or nil when n is not a
// child of a shadow host or no slot accepts it.
func AssignedSlot(n *html.Node) *html.Node {
	if n == nil || n.Parent == nil || IsShadowRoot(n) {
		return nil
	}
	root := ShadowRoot(n.Parent)
	if root == nil {
		return nil
	}
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
		return nil
	}
	if n.Type != html.ElementNode && n.Type != html.TextNode {
		return nil
	}
	return findSlot(root, slotName(n))
}

// AssignedNodes returns the light children of the host assigned to slot.
func AssignedNodes(slot *html.Node) []*html.Node {
	if !isElement(slot, "slot") {
		return nil
	}
	root := Scope(slot)
	if !IsShadowRoot(root) {
		return nil
	}
	host := root.Parent
	var nodes []*html.Node
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if AssignedSlot(c) == slot {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// ComposedParent is the parent of n in the flattened tree: the assigned slot
// for a slotted light child, the host for a shadow root, and the plain
// parent otherwise. Unassigned children of a host report the host.
func ComposedParent(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if IsShadowRoot(n) {
		return n.Parent
	}
	if slot := AssignedSlot(n); slot != nil {
		return slot
	}
	return n.Parent
}

// RenderedChildren returns the children of n as they take part in layout.
// Hosts render their shadow tree, slots render assigned nodes or fallback
// content, and shadow roots render their own children.
func RenderedChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	switch {
	case IsHost(n):
		root := ShadowRoot(n)
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			out = append(out, c)
		}
		return out
	case isElement(n, "slot") && IsShadowRoot(Scope(n)):
		if assigned := AssignedNodes(n); len(assigned) > 0 {
			return assigned
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsShadowRoot(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsInclusiveAncestorScope reports whether scope a contains scope b, walking
// b outward through its hosts.
func IsInclusiveAncestorScope(a, b *html.Node) bool {
	for s := b; s != nil; {
		if s == a {
			return true
		}
		if !IsShadowRoot(s) {
			return false
		}
		s = Scope(s.Parent)
	}
	return false
}

// Retarget returns the node that observers in the scope of observer see as
// the target: target itself, or the outermost host that hides it.
func Retarget(target, observer *html.Node) *html.Node {
	if target == nil || observer == nil {
		return target
	}
	obsScope := Scope(observer)
	if IsShadowRoot(observer) {
		obsScope = observer
	}
	t := target
	for {
		sc := Scope(t)
		if !IsShadowRoot(sc) || IsInclusiveAncestorScope(sc, obsScope) {
			return t
		}
		t = sc.Parent
	}
}
