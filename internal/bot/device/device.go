// internal/bot/device/device.go
package device

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/shadowdom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Dispatcher builds synthetic events and fires them into a window.
// *events.Factory implements it.
type Dispatcher interface {
	Fire(target *html.Node, t events.Type, args events.Args) (bool, error)
	Window() *dom.Window
	Capabilities() platform.Capabilities
}

// Device is the state and behaviour shared by every input device: the
// current element, modifier state and pointer capture. Keyboard, Mouse and
// Touchscreen each embed their own Device.
type Device struct {
	disp    Dispatcher
	win     *dom.Window
	caps    platform.Capabilities
	mods    *Modifiers
	capture *PointerCapture
	logger  *zap.Logger

	element *html.Node
	// selectEl is the <select> owning element when element is an <option>.
	selectEl *html.Node
}

type Option func(*Device)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithModifiers shares modifier state with other devices.
func WithModifiers(m *Modifiers) Option {
	return func(d *Device) {
		if m != nil {
			d.mods = m
		}
	}
}

// WithPointerCapture shares the pointer capture map with other devices.
func WithPointerCapture(c *PointerCapture) Option {
	return func(d *Device) {
		if c != nil {
			d.capture = c
		}
	}
}

// New creates a Device firing through disp. Without options it gets private
// modifier state and capture map, and a no-op logger.
func New(disp Dispatcher, opts ...Option) *Device {
	d := &Device{
		disp:   disp,
		win:    disp.Window(),
		caps:   disp.Capabilities(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.mods == nil {
		d.mods = NewModifiers()
	}
	if d.capture == nil {
		d.capture = NewPointerCapture()
	}
	return d
}

func (d *Device) Window() *dom.Window                 { return d.win }
func (d *Device) Capabilities() platform.Capabilities { return d.caps }
func (d *Device) Modifiers() *Modifiers               { return d.mods }
func (d *Device) Capture() *PointerCapture            { return d.capture }
func (d *Device) Element() *html.Node                 { return d.element }

// SetElement changes the current element. An <option> also records its
// owning <select>, which changes where mouse events are routed.
func (d *Device) SetElement(el *html.Node) {
	d.element = el
	d.selectEl = nil
	if isTag(el, "option") {
		d.selectEl = dom.SelectOf(el)
	}
}

// Document is the document owning the current element.
func (d *Device) Document() (*dom.Document, error) {
	return d.owner(d.element)
}

func (d *Device) owner(el *html.Node) (*dom.Document, error) {
	if el == nil {
		return nil, bot.NewError(bot.InvalidElementState, "no element has been set on the device")
	}
	doc, err := d.win.Owner(el)
	if err != nil {
		return nil, bot.Wrap(bot.NoSuchElement, err, "element is not attached to the window")
	}
	return doc, nil
}

func (d *Device) interactable(el *html.Node) bool {
	ok, err := oracle.IsInteractable(d.win, d.caps, el)
	return err == nil && ok
}

// IsInteractable reports whether the current element can receive input.
func (d *Device) IsInteractable() bool { return d.interactable(d.element) }

// FireMouseEvent fires t at the current element. It returns false without
// firing when the element is not interactable and force is unset. A pointer
// capturing pointerID receives every type except click and mousedown; an
// <option> routes through its select per Capabilities.OptionRouting. A
// routed-away event reports success.
func (d *Device) FireMouseEvent(t events.Type, args events.MouseArgs, pointerID int64, force bool) (bool, error) {
	if !force && !d.interactable(d.element) {
		return false, nil
	}
	if args.RelatedTarget != nil && !t.IsOverOut() {
		return false, bot.NewError(bot.InvalidElementState, "event type does not allow related target: %s", t)
	}
	args.Modifiers = d.mods.Args()
	target := d.element
	if captured, ok := d.capture.Target(pointerID); ok && t != events.Click && t != events.MouseDown {
		target = captured
	} else if d.selectEl != nil {
		target = d.optionTarget(t)
	}
	if target == nil {
		return true, nil
	}
	return d.disp.Fire(target, t, args)
}

// FirePointerEvent fires a pointer event with the same interactability,
// capture and option routing rules as FireMouseEvent. Captures made by page
// handlers during the dispatch are announced with gotpointercapture.
func (d *Device) FirePointerEvent(t events.Type, args events.PointerArgs, force bool) (bool, error) {
	if !force && !d.interactable(d.element) {
		return false, nil
	}
	if args.RelatedTarget != nil && !t.IsOverOut() {
		return false, bot.NewError(bot.InvalidElementState, "event type does not allow related target: %s", t)
	}
	args.Modifiers = d.mods.Args()
	target := d.element
	if captured, ok := d.capture.Target(args.PointerID); ok {
		target = captured
	} else if d.selectEl != nil {
		target = d.optionTarget(t)
	}
	if target == nil {
		return true, nil
	}
	ok, err := d.disp.Fire(target, t, args)
	if err != nil {
		return ok, err
	}
	for _, id := range d.capture.takeGained() {
		el, captured := d.capture.Target(id)
		if !captured {
			continue
		}
		gotArgs := events.PointerArgs{PointerID: id, PointerType: args.PointerType, IsPrimary: args.IsPrimary}
		if _, err := d.disp.Fire(el, events.GotPointerCapture, gotArgs); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

// FireKeyboardEvent fires t at the current element with the current
// modifier state.
func (d *Device) FireKeyboardEvent(t events.Type, args events.KeyboardArgs, force bool) (bool, error) {
	if !force && !d.interactable(d.element) {
		return false, nil
	}
	args.Modifiers = d.mods.Args()
	return d.disp.Fire(d.element, t, args)
}

// TouchPoint is one finger position in client coordinates.
type TouchPoint struct {
	ID   int64
	X, Y float64
}

// FireTouchEvent fires t at the current element for one or two fingers.
// Every finger is a changed touch; on start and move they are also current
// touches of the target.
func (d *Device) FireTouchEvent(t events.Type, force bool, points ...TouchPoint) (bool, error) {
	if !force && !d.interactable(d.element) {
		return false, nil
	}
	args := events.TouchArgs{Modifiers: d.mods.Args()}
	for _, p := range points {
		tp := events.TouchPoint{Identifier: p.ID, ClientX: p.X, ClientY: p.Y, Target: d.element}
		args.ChangedTouches = append(args.ChangedTouches, tp)
		if t == events.TouchStart || t == events.TouchMove {
			args.Touches = append(args.Touches, tp)
			args.TargetTouches = append(args.TargetTouches, tp)
		}
	}
	return d.disp.Fire(d.element, t, args)
}

// FireHTMLEvent fires a plain event such as change or submit at el.
func (d *Device) FireHTMLEvent(el *html.Node, t events.Type) (bool, error) {
	return d.disp.Fire(el, t, nil)
}

// optionTarget implements the option routing table. nil suppresses the
// event.
func (d *Device) optionTarget(t events.Type) *html.Node {
	multiple := dom.IsMultiple(d.selectEl)
	switch d.caps.OptionRouting {
	case platform.OptionLegacyIE:
		switch t {
		case events.MouseOver, events.PointerOver:
			return nil
		case events.ContextMenu, events.MouseMove, events.PointerMove:
			if multiple {
				return d.selectEl
			}
			return nil
		default:
			return d.selectEl
		}
	case platform.OptionWebKit:
		switch t {
		case events.Click, events.MouseUp:
			if multiple {
				return d.element
			}
			return d.selectEl
		default:
			if multiple {
				return d.element
			}
			return nil
		}
	}
	return d.element
}

// releaseCapture clears the capture map, announcing lost captures on
// engines with pointer events.
func (d *Device) releaseCapture() {
	old := d.capture.Clear()
	if len(old) == 0 {
		return
	}
	if !d.caps.SupportsPointerEvents() {
		return
	}
	ids := make([]int64, 0, len(old))
	for id := range old {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		el := old[id]
		if _, err := d.win.Owner(el); err != nil {
			continue
		}
		if _, err := d.disp.Fire(el, events.LostPointerCapture, events.PointerArgs{PointerID: id}); err != nil {
			d.logger.Debug("lostpointercapture failed", zap.Int64("pointer", id), zap.Error(err))
		}
	}
}

// ClickElement fires click at the current element and then performs the
// activation behaviour a browser would: submitting the form of a submit
// control, resetting the form of a reset control, following a link, or
// toggling a checkbox or radio button. A cancelled click does none of these.
func (d *Device) ClickElement(x, y float64, button platform.Button, force bool, pointerID int64) error {
	if !force && !d.interactable(d.element) {
		return nil
	}
	doc, err := d.Document()
	if err != nil {
		return err
	}

	submitter, resetter, anchor := activationTargets(d.element)

	checkable := dom.InputType(d.element) == "checkbox" || dom.InputType(d.element) == "radio"
	wasChecked := checkable && doc.Checked(d.element)

	value, ok := d.caps.Buttons.Value(platform.RowClick, button)
	if !ok {
		return bot.NewError(bot.UnknownError, "%s button cannot fire a click", button)
	}
	args := events.MouseArgs{ClientX: x, ClientY: y, Button: value}
	proceed, err := d.FireMouseEvent(events.Click, args, pointerID, force)
	if err != nil || !proceed {
		return err
	}

	switch {
	case submitter != nil:
		if form := d.FindAncestorForm(submitter); form != nil {
			return d.SubmitForm(form)
		}
	case resetter != nil:
		if form := d.FindAncestorForm(resetter); form != nil {
			if ok, err := d.FireHTMLEvent(form, events.Reset); err != nil || !ok {
				return err
			}
			doc.ResetForm(form)
		}
	case anchor != nil:
		return doc.FollowHref(anchor)
	case checkable:
		if wasChecked && dom.InputType(d.element) == "radio" {
			return nil
		}
		doc.SetChecked(d.element, !wasChecked)
		return d.fireValueChanged(d.element)
	}
	return nil
}

// activationTargets finds the nearest inclusive ancestor of el with an
// activation behaviour. At most one of the results is set.
func activationTargets(el *html.Node) (submitter, resetter, anchor *html.Node) {
	for n := el; n != nil && n.Type == html.ElementNode; n = shadowdom.ComposedParent(n) {
		switch {
		case IsFormSubmitElement(n):
			return n, nil, nil
		case isResetElement(n):
			return nil, n, nil
		case isTag(n, "a", "area") && hasAttr(n, "href"):
			return nil, nil, n
		}
	}
	return nil, nil, nil
}

// fireValueChanged fires input, where supported, then change at el.
func (d *Device) fireValueChanged(el *html.Node) error {
	if d.caps.InputEvents {
		if _, err := d.FireHTMLEvent(el, events.Input); err != nil {
			return err
		}
	}
	_, err := d.FireHTMLEvent(el, events.Change)
	return err
}

// FocusOnElement focuses the nearest focusable inclusive ancestor of el (the
// current element when nil), blurring the active element first. It reports
// whether focus moved.
func (d *Device) FocusOnElement(el *html.Node) (bool, error) {
	if el == nil {
		el = d.element
	}
	doc, err := d.owner(el)
	if err != nil {
		return false, err
	}
	target := el
	for n := el; n != nil && n.Type == html.ElementNode; n = shadowdom.ComposedParent(n) {
		if dom.IsFocusable(n) {
			target = n
			break
		}
	}
	active := doc.ActiveElement()
	if target == active {
		return false, nil
	}
	if active != nil && !isTag(active, "body") {
		if err := doc.Blur(active); err != nil {
			if !errors.Is(err, dom.ErrUnspecified) {
				return false, bot.Wrap(bot.UnknownError, err, "blur failed")
			}
			d.logger.Debug("ignored blur error on detached element", zap.Error(err))
		}
	}
	if err := doc.Focus(target); err != nil {
		return false, bot.Wrap(bot.UnknownError, err, "focus failed")
	}
	return doc.ActiveElement() == target, nil
}

// SubmitForm fires submit at form and, unless cancelled, runs the form's
// native submission. Controls whose id or name is "submit" mask that method;
// their attributes are stripped for the lookup and restored before
// submitting.
func (d *Device) SubmitForm(form *html.Node) error {
	if !isTag(form, "form") {
		return bot.NewError(bot.InvalidElementState, "Element is not a form, so could not submit.")
	}
	doc, err := d.owner(form)
	if err != nil {
		return err
	}
	proceed, err := d.FireHTMLEvent(form, events.Submit)
	if err != nil || !proceed {
		return err
	}
	submit, err := doc.FormSubmitter(form)
	if errors.Is(err, dom.ErrSubmitMasked) {
		submit, err = unmaskedSubmitter(doc, form)
	}
	if err != nil {
		return err
	}
	return submit()
}

func unmaskedSubmitter(doc *dom.Document, form *html.Node) (func() error, error) {
	saved := make(map[*html.Node][]html.Attribute)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			var kept []html.Attribute
			masked := false
			for _, a := range c.Attr {
				key := strings.ToLower(a.Key)
				if (key == "id" || key == "name") && a.Val == "submit" {
					masked = true
					continue
				}
				kept = append(kept, a)
			}
			if masked {
				saved[c] = c.Attr
				c.Attr = kept
			}
			walk(c)
		}
	}
	walk(form)
	doc.Invalidate()
	submit, err := doc.FormSubmitter(form)
	for n, attrs := range saved {
		n.Attr = attrs
	}
	doc.Invalidate()
	return submit, err
}

// MaybeToggleOption selects the current option, or toggles it in a multiple
// select, firing change at the select. Selecting an already selected option
// of a single select does nothing.
func (d *Device) MaybeToggleOption() error {
	if d.selectEl == nil || !d.interactable(d.element) {
		return nil
	}
	doc, err := d.Document()
	if err != nil {
		return err
	}
	wasSelected := doc.Selected(d.element)
	if wasSelected && !dom.IsMultiple(d.selectEl) {
		return nil
	}
	doc.SetSelected(d.element, !wasSelected)
	return d.fireValueChanged(d.selectEl)
}

// FindAncestorForm returns the form owner of el: el itself when it is a
// form, the form named by its form attribute, or the nearest enclosing form.
func (d *Device) FindAncestorForm(el *html.Node) *html.Node {
	if isTag(el, "form") {
		return el
	}
	doc, err := d.win.Owner(el)
	if err != nil {
		return nil
	}
	return doc.FormOf(el)
}

// IsFormSubmitElement reports whether clicking el submits its form.
func IsFormSubmitElement(el *html.Node) bool {
	switch {
	case isTag(el, "input"):
		t := dom.InputType(el)
		return t == "submit" || t == "image"
	case isTag(el, "button"):
		t, _ := dom.Attribute(el, "type")
		t = strings.ToLower(strings.TrimSpace(t))
		return t == "" || t == "submit"
	}
	return false
}

func isResetElement(el *html.Node) bool {
	switch {
	case isTag(el, "input"):
		return dom.InputType(el) == "reset"
	case isTag(el, "button"):
		t, _ := dom.Attribute(el, "type")
		return strings.EqualFold(strings.TrimSpace(t), "reset")
	}
	return false
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

func hasAttr(n *html.Node, key string) bool {
	_, ok := dom.Attribute(n, key)
	return ok
}
