// internal/browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"golang.org/x/net/html"
)

// XPath generates an XPath expression selecting exactly n within its
// document. Light-tree ids are used as anchors; ids inside shadow trees are
// not, since they need not be unique across scopes.
func XPath(node *html.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == html.DocumentNode {
		return "/"
	}

	var path []string
	anchored := false
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if id := attr(n, "id"); id != "" && !strings.Contains(id, "'") && !shadowdom.InShadowTree(n) && uniqueID(n, id) {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			anchored = true
			break
		}
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	xpath := strings.Join(path, "/")
	if !anchored {
		xpath = "/" + xpath
	}
	return xpath
}

// uniqueID reports whether no other element in n's tree carries id.
func uniqueID(n *html.Node, id string) bool {
	count := 0
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && attr(c, "id") == id {
			count++
		}
		for k := c.FirstChild; k != nil && count < 2; k = k.NextSibling {
			walk(k)
		}
	}
	walk(ownerRoot(n))
	return count == 1
}
