// internal/bot/oracle/state.go
package oracle

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

var disabledSupported = []string{"button", "input", "optgroup", "option", "select", "textarea"}

var textualInputTypes = map[string]bool{
	"text": true, "search": true, "tel": true, "url": true,
	"email": true, "password": true, "number": true,
}

// IsEnabled reports whether el is not disabled. Options and optgroups follow
// their parent; anything inside a disabled fieldset is disabled except the
// contents of its first legend.
func IsEnabled(el *html.Node) bool {
	if !isTag(el, disabledSupported...) {
		return true
	}
	if _, ok := dom.Attribute(el, "disabled"); ok {
		return false
	}
	if isTag(el, "option", "optgroup") && el.Parent != nil && el.Parent.Type == html.ElementNode {
		return IsEnabled(el.Parent)
	}
	for e := el; e != nil; e = e.Parent {
		p := e.Parent
		if !isTag(p, "fieldset") {
			continue
		}
		if _, ok := dom.Attribute(p, "disabled"); !ok {
			continue
		}
		if !isTag(e, "legend") {
			return false
		}
		for s := e.PrevSibling; s != nil; s = s.PrevSibling {
			if isTag(s, "legend") {
				return false
			}
		}
	}
	return true
}

// IsContentEditable reports whether el is editable through contenteditable.
func IsContentEditable(el *html.Node) bool {
	return dom.IsContentEditable(el)
}

// IsTextual reports whether el accepts typed text: a textarea, a text-like
// input, or a contenteditable element.
func IsTextual(el *html.Node) bool {
	if isTag(el, "textarea") {
		return true
	}
	if isTag(el, "input") {
		return textualInputTypes[dom.InputType(el)]
	}
	return IsContentEditable(el)
}

// IsEditable is textual and not read-only.
func IsEditable(el *html.Node) bool {
	if !IsTextual(el) {
		return false
	}
	if isTag(el, "input", "textarea") {
		if _, ro := dom.Attribute(el, "readonly"); ro {
			return false
		}
	}
	return true
}

// IsSelectable reports whether el has a selected or checked state.
func IsSelectable(el *html.Node) bool {
	if isTag(el, "option") {
		return true
	}
	switch dom.InputType(el) {
	case "checkbox", "radio":
		return true
	}
	return false
}

// IsSelected returns the checked state of a checkbox or radio button, or the
// selectedness of an option.
func IsSelected(win *dom.Window, el *html.Node) (bool, error) {
	d, err := owner(win, el)
	if err != nil {
		return false, err
	}
	if !IsSelectable(el) {
		return false, bot.NewError(bot.InvalidElementState, "element is not selectable")
	}
	if isTag(el, "option") {
		return d.Selected(el), nil
	}
	return d.Checked(el), nil
}
