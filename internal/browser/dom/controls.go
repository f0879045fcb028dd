// internal/browser/dom/controls.go
package dom

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/xkilldash9x/synthinput/internal/bot"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// controlState holds the dirty value and checkedness of a form control. Unset
// fields fall back to the element's attributes.
type controlState struct {
	value    *string
	checked  *bool
	selected *bool

	selStart, selEnd int
	hasSel           bool
}

func (d *Document) state(el *html.Node) *controlState {
	cs, ok := d.controls[el]
	if !ok {
		cs = &controlState{}
		d.controls[el] = cs
	}
	return cs
}

// InputType is the lowercased type of an <input>, "text" when missing.
func InputType(el *html.Node) string {
	if !isTag(el, "input") {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(attr(el, "type")))
	if t == "" {
		return "text"
	}
	return t
}

// IsDisabled reports whether a form control is disabled directly or through
// a disabled ancestor fieldset, optgroup or select.
func IsDisabled(el *html.Node) bool {
	if !isTag(el, "button", "input", "select", "textarea", "option", "optgroup", "fieldset") {
		return false
	}
	if hasAttr(el, "disabled") {
		return true
	}
	for p := el.Parent; p != nil; p = p.Parent {
		if isTag(p, "fieldset", "optgroup", "select") && hasAttr(p, "disabled") {
			return true
		}
	}
	return false
}

// SupportsSelection reports whether el exposes a text selection.
func SupportsSelection(el *html.Node) bool {
	if isTag(el, "textarea") {
		return true
	}
	switch InputType(el) {
	case "text", "search", "url", "tel", "password":
		return true
	}
	return false
}

// Value returns the current value of a form control.
func (d *Document) Value(el *html.Node) string {
	switch {
	case isTag(el, "input"):
		if cs := d.controls[el]; cs != nil && cs.value != nil {
			return *cs.value
		}
		v, ok := attrLookup(el, "value")
		if !ok && (InputType(el) == "checkbox" || InputType(el) == "radio") {
			return "on"
		}
		return v
	case isTag(el, "textarea"):
		if cs := d.controls[el]; cs != nil && cs.value != nil {
			return *cs.value
		}
		return TextContent(el)
	case isTag(el, "select"):
		for _, o := range d.Options(el) {
			if d.Selected(o) {
				return d.Value(o)
			}
		}
		return ""
	case isTag(el, "option"):
		if v, ok := attrLookup(el, "value"); ok {
			return v
		}
		return strings.Join(strings.Fields(TextContent(el)), " ")
	case isTag(el, "button"):
		return attr(el, "value")
	}
	return ""
}

// SetValue sets the value of an input or textarea and collapses the selection
// to its end. On a select it selects the first option with that value.
func (d *Document) SetValue(el *html.Node, v string) {
	if isTag(el, "select") {
		for _, o := range d.Options(el) {
			if d.Value(o) == v {
				d.SetSelected(o, true)
				return
			}
		}
		return
	}
	cs := d.state(el)
	cs.value = &v
	n := len([]rune(v))
	cs.selStart, cs.selEnd, cs.hasSel = n, n, true
	d.Invalidate()
}

// Selection returns the selection range in runes. It defaults to a caret at
// the end of the value.
func (d *Document) Selection(el *html.Node) (int, int) {
	n := len([]rune(d.Value(el)))
	cs := d.controls[el]
	if cs == nil || !cs.hasSel {
		return n, n
	}
	return min(cs.selStart, n), min(cs.selEnd, n)
}

func (d *Document) SetSelection(el *html.Node, start, end int) {
	n := len([]rune(d.Value(el)))
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	cs := d.state(el)
	cs.selStart, cs.selEnd, cs.hasSel = start, end, true
}

// Checked reports the checkedness of a checkbox or radio button.
func (d *Document) Checked(el *html.Node) bool {
	if cs := d.controls[el]; cs != nil && cs.checked != nil {
		return *cs.checked
	}
	return hasAttr(el, "checked")
}

// SetChecked sets checkedness. Checking a radio button unchecks the rest of
// its group.
func (d *Document) SetChecked(el *html.Node, checked bool) {
	cs := d.state(el)
	cs.checked = &checked
	if checked && InputType(el) == "radio" {
		for _, other := range d.RadioGroup(el) {
			if other != el {
				off := false
				d.state(other).checked = &off
			}
		}
	}
	d.Invalidate()
}

// RadioGroup returns the radio buttons sharing el's name and form owner.
func (d *Document) RadioGroup(el *html.Node) []*html.Node {
	name := attr(el, "name")
	if name == "" {
		return []*html.Node{el}
	}
	form := d.FormOf(el)
	var group []*html.Node
	for _, r := range htmlquery.Find(d.Root, "//input") {
		if InputType(r) == "radio" && attr(r, "name") == name && d.FormOf(r) == form {
			group = append(group, r)
		}
	}
	return group
}

// SelectOf returns the <select> an option belongs to.
func SelectOf(opt *html.Node) *html.Node {
	for p := opt.Parent; p != nil; p = p.Parent {
		if isTag(p, "select") {
			return p
		}
		if !isTag(p, "optgroup") {
			return nil
		}
	}
	return nil
}

func IsMultiple(sel *html.Node) bool { return hasAttr(sel, "multiple") }

func (d *Document) Options(sel *html.Node) []*html.Node {
	return htmlquery.Find(sel, ".//option")
}

func (d *Document) explicitlySelected(opt *html.Node) bool {
	if cs := d.controls[opt]; cs != nil && cs.selected != nil {
		return *cs.selected
	}
	return hasAttr(opt, "selected")
}

// Selected reports whether an option is selected. A single select with no
// explicit selection selects its first enabled option; with several, the
// last one wins.
func (d *Document) Selected(opt *html.Node) bool {
	sel := SelectOf(opt)
	if sel == nil || IsMultiple(sel) {
		return d.explicitlySelected(opt)
	}
	var chosen, first *html.Node
	for _, o := range d.Options(sel) {
		if first == nil && !IsDisabled(o) {
			first = o
		}
		if d.explicitlySelected(o) {
			chosen = o
		}
	}
	if chosen == nil {
		chosen = first
	}
	return chosen == opt
}

// SetSelected sets an option's selectedness. Selecting in a single select
// deselects its siblings.
func (d *Document) SetSelected(opt *html.Node, selected bool) {
	if sel := SelectOf(opt); sel != nil && selected && !IsMultiple(sel) {
		for _, o := range d.Options(sel) {
			off := false
			d.state(o).selected = &off
		}
	}
	d.state(opt).selected = &selected
	d.Invalidate()
}

// FormOf returns the form owner of a control: the form named by its form
// attribute, else the nearest ancestor form.
func (d *Document) FormOf(el *html.Node) *html.Node {
	if id, ok := attrLookup(el, "form"); ok && !isTag(el, "form") {
		if f := d.ByID(id); isTag(f, "form") {
			return f
		}
		return nil
	}
	for p := el.Parent; p != nil; p = p.Parent {
		if isTag(p, "form") {
			return p
		}
	}
	return nil
}

// FormControls returns the listed elements whose form owner is form.
func (d *Document) FormControls(form *html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range htmlquery.Find(d.Root, "//input | //textarea | //select | //button") {
		if d.FormOf(n) == form {
			out = append(out, n)
		}
	}
	return out
}

// FormData serializes the successful controls of form.
func (d *Document) FormData(form *html.Node) url.Values {
	data := url.Values{}
	for _, c := range d.FormControls(form) {
		name := attr(c, "name")
		if name == "" || IsDisabled(c) {
			continue
		}
		switch {
		case isTag(c, "input"):
			switch InputType(c) {
			case "checkbox", "radio":
				if d.Checked(c) {
					data[name] = append(data[name], d.Value(c))
				}
			case "submit", "button", "image", "reset", "file":
			default:
				data[name] = append(data[name], d.Value(c))
			}
		case isTag(c, "textarea"):
			data[name] = append(data[name], d.Value(c))
		case isTag(c, "select"):
			for _, o := range d.Options(c) {
				if d.Selected(o) {
					data[name] = append(data[name], d.Value(o))
				}
			}
		}
	}
	return data
}

// IsSubmitMasked reports whether a control with id or name "submit" hides
// the form's submit method.
func IsSubmitMasked(form *html.Node) bool {
	return htmlquery.FindOne(form, ".//*[@id='submit' or @name='submit']") != nil
}

// FormSubmitter resolves the form's native submit method. It fails with
// ErrSubmitMasked when a descendant control shadows it.
func (d *Document) FormSubmitter(form *html.Node) (func() error, error) {
	if !isTag(form, "form") {
		return nil, bot.NewError(bot.InvalidElementState, "Element is not a form, so could not submit.")
	}
	if IsSubmitMasked(form) {
		return nil, ErrSubmitMasked
	}
	return func() error { return d.submitNative(form) }, nil
}

// submitNative submits form without firing submit, as form.submit() does.
func (d *Document) submitNative(form *html.Node) error {
	method := strings.ToUpper(attr(form, "method"))
	if method != http.MethodPost {
		method = http.MethodGet
	}
	base := d.URL
	target, err := base.Parse(attr(form, "action"))
	if err != nil {
		return fmt.Errorf("invalid form action: %w", err)
	}
	data := d.FormData(form)
	sub := Submission{Form: XPath(form), Action: target.String(), Method: method, Data: data}
	d.submissions = append(d.submissions, sub)
	d.logger.Info("form submitted",
		zap.String("action", sub.Action),
		zap.String("method", method),
		zap.Int("fields", len(data)))

	if method == http.MethodGet {
		t := *target
		t.RawQuery = data.Encode()
		t.Fragment, t.RawFragment = "", ""
		target = &t
	}
	return d.navigateURL(target, attr(form, "target"), method)
}

// ResetForm restores every control of form to its default state.
func (d *Document) ResetForm(form *html.Node) {
	for _, c := range d.FormControls(form) {
		delete(d.controls, c)
		if isTag(c, "select") {
			for _, o := range d.Options(c) {
				delete(d.controls, o)
			}
		}
	}
	d.Invalidate()
}
