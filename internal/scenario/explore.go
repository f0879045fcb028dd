// internal/scenario/explore.go
package scenario

import (
	"fmt"
	"hash"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot/action"
	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/session"
)

// DefaultExploreLimit caps an explore step without an explicit limit.
const DefaultExploreLimit = 10

const interactiveXPath = `
    //a[@href] | //button | //input | //textarea | //select |
    //summary |
    //*[@contenteditable and (normalize-space(@contenteditable)='true' or normalize-space(@contenteditable)='')] |
    //*[(@role='button' or @role='link' or @role='tab' or @role='menuitem' or @role='checkbox' or @role='radio')]
`

// explorer interacts with every interactable element it has not touched
// before, in document order: text fields get typed into, selects get an
// option chosen and everything else is clicked. Elements are remembered by
// fingerprint across explore steps of one scenario.
type explorer struct {
	logger     *zap.Logger
	interacted map[string]bool
}

func newExplorer(logger *zap.Logger) *explorer {
	return &explorer{logger: logger.Named("explorer"), interacted: make(map[string]bool)}
}

type candidate struct {
	node        *html.Node
	fingerprint string
	description string
}

func (e *explorer) explore(s *session.Session, limit int) error {
	if limit == 0 {
		limit = DefaultExploreLimit
	}
	done := 0
	// The page can change after each interaction, so candidates are
	// rediscovered every round.
	for done < limit {
		next := e.discover(s)
		if len(next) == 0 {
			break
		}
		c := next[0]
		e.interacted[c.fingerprint] = true
		if err := e.interact(s, c.node); err != nil {
			e.logger.Debug("Interaction failed", zap.String("element", c.description), zap.Error(err))
			continue
		}
		e.logger.Debug("Interaction successful", zap.String("element", c.description))
		done++
	}
	e.logger.Info("Exploration finished", zap.Int("interactions", done))
	return nil
}

func (e *explorer) discover(s *session.Session) []candidate {
	var out []candidate
	for _, doc := range s.Window().Documents() {
		for _, n := range documentOrder(doc.Root, htmlquery.Find(doc.Root, interactiveXPath)) {
			if skipElement(n) {
				continue
			}
			fp, desc := fingerprint(n)
			if fp == "" || e.interacted[fp] {
				continue
			}
			if ok, err := oracle.IsInteractable(s.Window(), s.Capabilities(), n); err != nil || !ok {
				continue
			}
			out = append(out, candidate{node: n, fingerprint: fp, description: desc})
		}
	}
	return out
}

// documentOrder sorts nodes matched by a union expression into the order
// they appear under root.
func documentOrder(root *html.Node, nodes []*html.Node) []*html.Node {
	index := make(map[*html.Node]int)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		index[n] = len(index)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	sort.SliceStable(nodes, func(i, j int) bool { return index[nodes[i]] < index[nodes[j]] })
	return nodes
}

func (e *explorer) interact(s *session.Session, el *html.Node) error {
	switch {
	case strings.EqualFold(el.Data, "select"):
		opt := pickOption(el)
		if opt == nil {
			return fmt.Errorf("no selectable option in %s", describe(el))
		}
		return action.Click(s.Mouse(), opt, nil, false)
	case isTextInput(el):
		return action.Type(s.Keyboard(), el, []keys.Value{keys.Text(inputPayload(el))}, false)
	}
	return action.Click(s.Mouse(), el, nil, false)
}

func skipElement(n *html.Node) bool {
	name := strings.ToLower(n.Data)
	if name == "html" || name == "body" {
		return true
	}
	if hasAttr(n, "disabled") || attr(n, "aria-disabled") == "true" {
		return true
	}
	if isTextInput(n) && hasAttr(n, "readonly") {
		return true
	}
	return name == "input" && strings.EqualFold(attr(n, "type"), "hidden")
}

// pickOption skips the first option when there are several, since it is
// usually a placeholder.
func pickOption(sel *html.Node) *html.Node {
	var options []*html.Node
	for _, opt := range htmlquery.Find(sel, ".//option") {
		disabled := hasAttr(opt, "disabled")
		if p := opt.Parent; p != nil && strings.EqualFold(p.Data, "optgroup") && hasAttr(p, "disabled") {
			disabled = true
		}
		if !disabled {
			options = append(options, opt)
		}
	}
	switch len(options) {
	case 0:
		return nil
	case 1:
		return options[0]
	}
	return options[1]
}

// inputPayload guesses plausible text from the field's type and labels.
func inputPayload(el *html.Node) string {
	inputType := strings.ToLower(attr(el, "type"))
	hints := strings.ToLower(strings.Join([]string{attr(el, "name"), attr(el, "id"), attr(el, "placeholder"), attr(el, "aria-label")}, " "))

	switch {
	case inputType == "email" || strings.Contains(hints, "email"):
		return "test.user@example.com"
	case inputType == "password" || strings.Contains(hints, "pass"):
		return "SynthInput123!"
	case inputType == "tel" || strings.Contains(hints, "phone") || strings.Contains(hints, "mobile"):
		return "555-0199"
	case inputType == "url" || strings.Contains(hints, "website") || strings.Contains(hints, "url"):
		return "https://example.com/test"
	case inputType == "search" || strings.Contains(hints, "search") || strings.Contains(hints, "query"):
		return "test query"
	case inputType == "number" || inputType == "range":
		return "42"
	case strings.Contains(hints, "name") || strings.Contains(hints, "user") || strings.Contains(hints, "login"):
		return "Test User"
	case strings.EqualFold(el.Data, "textarea"):
		return "This is a test message typed by synthinput."
	}
	return "synthetic input"
}

func isTextInput(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "input":
		switch strings.ToLower(attr(n, "type")) {
		case "hidden", "submit", "button", "reset", "image", "checkbox", "radio", "file":
			return false
		}
		return true
	case "textarea":
		return true
	}
	return oracle.IsContentEditable(n)
}

var hasherPool = sync.Pool{
	New: func() any { return fnv.New64a() },
}

var fingerprintAttrs = []string{"action", "aria-label", "data-testid", "href", "method", "name", "placeholder", "role", "title", "type", "value"}

// fingerprint identifies an element by its tag, id, stable classes,
// behavioural attributes and text. Elements described by their tag alone
// are skipped.
func fingerprint(n *html.Node) (string, string) {
	var sb strings.Builder
	tag := strings.ToLower(n.Data)
	sb.WriteString(tag)

	if id := attr(n, "id"); id != "" {
		sb.WriteString("#" + id)
	}
	if cls := strings.Fields(attr(n, "class")); len(cls) > 0 {
		sort.Strings(cls)
		var stable []string
		for _, c := range cls {
			// Short classes with digits look generated.
			if len(c) > 5 || !strings.ContainsAny(c, "0123456789") {
				stable = append(stable, c)
			}
		}
		if len(stable) > 0 && len(stable) < 5 {
			sb.WriteString("." + strings.Join(stable, "."))
		}
	}
	for _, key := range fingerprintAttrs {
		val := strings.TrimSpace(attr(n, key))
		if val == "" {
			continue
		}
		if len(val) > 128 {
			val = val[:128]
		}
		fmt.Fprintf(&sb, `[%s="%s"]`, key, strings.ReplaceAll(val, `"`, "'"))
	}
	if text := strings.TrimSpace(htmlquery.InnerText(n)); text != "" {
		if len(text) > 64 {
			text = text[:64] + "..."
		}
		fmt.Fprintf(&sb, `[text="%s"]`, strings.ReplaceAll(text, `"`, "'"))
	}

	desc := sb.String()
	if desc == tag {
		return "", ""
	}
	h := hasherPool.Get().(hash.Hash64)
	defer func() {
		h.Reset()
		hasherPool.Put(h)
	}()
	_, _ = h.Write([]byte(desc))
	return strconv.FormatUint(h.Sum64(), 16), desc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
