package shadowdom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// --- Helpers ---

func parseHTML(t *testing.T, h string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + h + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && getAttr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := byID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func TestGetAttr(t *testing.T) {
	doc := parseHTML(t, `<div id="test" CLASS="TestClass"></div>`)
	node := byID(doc, "test")

	assert.Equal(t, "test", getAttr(node, "id"))
	assert.Equal(t, "TestClass", getAttr(node, "class"))
	assert.Equal(t, "", getAttr(node, "missing"))
	assert.Equal(t, "", getAttr(nil, "id"))
}

func TestDetectShadowHost(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected bool
	}{
		{"Valid Host Open", `<div id="h"><template shadowrootmode="open"></template></div>`, true},
		{"Valid Host Closed", `<div id="h"><template shadowrootmode="closed"></template></div>`, true},
		{"Case Insensitive", `<div id="h"><template ShadowRootMode="open"></template></div>`, true},
		{"No Template", `<div id="h"><span></span></div>`, false},
		{"Template Without Attribute", `<div id="h"><template></template></div>`, false},
		{"Nested Is Not Direct", `<div id="h"><span><template shadowrootmode="open"></template></span></div>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := byID(parseHTML(t, tt.html), "h")
			assert.Equal(t, tt.expected, IsHost(host))
		})
	}
}

const slotted = `<div id="host">` +
	`<template shadowrootmode="open">` +
	`<header id="hdr"><slot id="title-slot" name="title"></slot></header>` +
	`<main id="body"><slot id="default-slot"><em id="fallback">nothing</em></slot></main>` +
	`<slot id="empty-slot" name="unused"><i id="fb2">fb</i></slot>` +
	`</template>` +
	`<h1 id="t" slot="title">Title</h1>` +
	`<p id="p1">one</p>` +
	`<p id="p2" slot="nope">orphan</p>` +
	`</div>`

func TestSlotAssignment(t *testing.T) {
	doc := parseHTML(t, slotted)
	host := byID(doc, "host")
	root := ShadowRoot(host)
	require.NotNil(t, root)
	assert.Equal(t, host, Host(root))
	assert.Equal(t, "open", Mode(root))

	titleSlot := byID(doc, "title-slot")
	defaultSlot := byID(doc, "default-slot")

	assert.Equal(t, titleSlot, AssignedSlot(byID(doc, "t")))
	assert.Equal(t, defaultSlot, AssignedSlot(byID(doc, "p1")))
	assert.Nil(t, AssignedSlot(byID(doc, "p2")), "no slot named nope")

	assigned := AssignedNodes(defaultSlot)
	require.Len(t, assigned, 1)
	assert.Equal(t, byID(doc, "p1"), assigned[0])

	t.Run("RenderedChildren", func(t *testing.T) {
		rendered := RenderedChildren(host)
		require.Len(t, rendered, 3)
		assert.Equal(t, "header", rendered[0].Data)

		slotKids := RenderedChildren(defaultSlot)
		assert.Equal(t, []*html.Node{byID(doc, "p1")}, slotKids)

		fallback := RenderedChildren(byID(doc, "empty-slot"))
		require.Len(t, fallback, 1)
		assert.Equal(t, byID(doc, "fb2"), fallback[0])
	})
}

func TestComposedParentAndScope(t *testing.T) {
	doc := parseHTML(t, slotted)
	host := byID(doc, "host")
	root := ShadowRoot(host)

	assert.Equal(t, byID(doc, "title-slot"), ComposedParent(byID(doc, "t")))
	assert.Equal(t, host, ComposedParent(root))
	assert.Equal(t, host, ComposedParent(byID(doc, "p2")))
	assert.Equal(t, root, ComposedParent(byID(doc, "hdr")))

	assert.Equal(t, root, Scope(byID(doc, "hdr")))
	assert.Equal(t, doc, Scope(host))
	assert.Equal(t, doc, Scope(byID(doc, "p1")), "slotted nodes stay in the light tree")
	assert.True(t, InShadowTree(byID(doc, "fallback")))
	assert.False(t, InShadowTree(byID(doc, "t")))
}

func TestRetarget(t *testing.T) {
	doc := parseHTML(t, `<div id="outer"><div id="host"><template shadowrootmode="open">`+
		`<div id="inner"><div id="host2"><template shadowrootmode="closed"><b id="deep">x</b></template></div></div>`+
		`</template></div></div>`)
	deep := byID(doc, "deep")
	inner := byID(doc, "inner")

	assert.Equal(t, byID(doc, "host"), Retarget(deep, byID(doc, "outer")))
	assert.Equal(t, byID(doc, "host2"), Retarget(deep, inner))
	assert.Equal(t, deep, Retarget(deep, deep))
	assert.Equal(t, inner, Retarget(inner, deep), "outer-scope targets are visible from nested scopes")
}
