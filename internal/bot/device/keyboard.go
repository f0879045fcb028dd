// internal/bot/device/keyboard.go
package device

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/bot/keys"
	"github.com/xkilldash9x/synthinput/internal/bot/oracle"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Keyboard simulates a keyboard typing into the current element. It is the
// only writer of the shared modifier state.
type Keyboard struct {
	*Device

	pressed map[string]keys.Key
	// order records press order so snapshots are deterministic.
	order    []string
	editable bool
	// cursor is the moving end of the selection.
	cursor int
}

func NewKeyboard(d *Device) *Keyboard {
	d.logger = d.logger.Named("keyboard")
	k := &Keyboard{Device: d, pressed: make(map[string]keys.Key)}
	if d.element != nil {
		k.editable = oracle.IsEditable(d.element)
	}
	return k
}

// IsPressed reports whether key is held.
func (k *Keyboard) IsPressed(key keys.Key) bool {
	_, ok := k.pressed[key.String()]
	return ok
}

// Pressed lists the held keys in the order they were pressed.
func (k *Keyboard) Pressed() []keys.Key {
	out := make([]keys.Key, 0, len(k.order))
	for _, name := range k.order {
		out = append(out, k.pressed[name])
	}
	return out
}

// Cursor is the caret position used to extend selections.
func (k *Keyboard) Cursor() int { return k.cursor }

// MoveCursor makes el the keyboard's element and focuses it. When focus
// moved to an editable element the caret goes to the end of its value.
func (k *Keyboard) MoveCursor(el *html.Node) error {
	doc, err := k.owner(el)
	if err != nil {
		return err
	}
	k.SetElement(el)
	k.editable = oracle.IsEditable(el)
	changed, err := k.FocusOnElement(el)
	if err != nil {
		return err
	}
	if !k.editable {
		k.cursor = 0
		return nil
	}
	if changed {
		end := len([]rune(k.text(doc)))
		if dom.SupportsSelection(el) {
			doc.SetSelection(el, end, end)
		}
	}
	_, k.cursor = k.selection(doc)
	return nil
}

// ensureElement targets the active element when no element has been set.
func (k *Keyboard) ensureElement() error {
	if k.element != nil {
		return nil
	}
	doc := k.win.Document()
	if doc == nil {
		return bot.NewError(bot.InvalidElementState, "window has no document")
	}
	active := doc.ActiveElement()
	k.SetElement(active)
	k.editable = oracle.IsEditable(active)
	return nil
}

// PressKey fires keydown and, where the engine would, keypress for key, then
// performs its editing behaviour on an editable element unless either event
// was cancelled.
func (k *Keyboard) PressKey(key keys.Key) error {
	if key.IsModifier() && k.IsPressed(key) {
		return bot.NewError(bot.InvalidElementState, "cannot press a modifier key that is already pressed: %s", key)
	}
	if err := k.ensureElement(); err != nil {
		return err
	}
	hasCode := key.KeyCode(k.caps.GeckoKeyCodes) != 0

	performDefault := hasCode
	if hasCode {
		var err error
		if performDefault, err = k.fireKey(events.KeyDown, key, false); err != nil {
			return err
		}
	}
	if (performDefault || k.caps.Keypress == platform.KeypressGecko) && k.requiresKeyPress(key) {
		var err error
		if performDefault, err = k.fireKey(events.KeyPress, key, !performDefault); err != nil {
			return err
		}
	}
	if performDefault && k.editable && oracle.IsEnabled(k.element) {
		if err := k.maybeSubmitForm(key); err != nil {
			return err
		}
		if err := k.maybeEditText(key); err != nil {
			return err
		}
	}
	k.setPressed(key, true)
	return nil
}

// ReleaseKey fires keyup for a held key.
func (k *Keyboard) ReleaseKey(key keys.Key) error {
	if !k.IsPressed(key) {
		return bot.NewError(bot.InvalidElementState, "cannot release a key that is not pressed: %s", key)
	}
	if err := k.ensureElement(); err != nil {
		return err
	}
	if key.KeyCode(k.caps.GeckoKeyCodes) != 0 {
		if _, err := k.fireKey(events.KeyUp, key, false); err != nil {
			return err
		}
	}
	k.setPressed(key, false)
	return nil
}

// Type focuses el and types values: each Text one character at a time,
// holding SHIFT around characters that need it; modifier keys toggle; other
// keys are pressed and released. Modifiers still held at the end are
// released in the order of keys.Modifiers unless persist is set.
func (k *Keyboard) Type(el *html.Node, values []keys.Value, persist bool) error {
	if err := k.MoveCursor(el); err != nil {
		return err
	}
	for _, v := range values {
		if err := k.typeValue(v); err != nil {
			return err
		}
	}
	if persist {
		return nil
	}
	for _, mod := range keys.Modifiers() {
		if k.IsPressed(mod) {
			if err := k.ReleaseKey(mod); err != nil {
				return err
			}
		}
	}
	return nil
}

func (k *Keyboard) typeValue(v keys.Value) error {
	switch v := v.(type) {
	case keys.Text:
		for _, r := range string(v) {
			key, needShift := keys.FromChar(r)
			shiftHeld := k.IsPressed(keys.Shift)
			if needShift && !shiftHeld {
				if err := k.PressKey(keys.Shift); err != nil {
					return err
				}
			}
			if err := k.PressKey(key); err != nil {
				return err
			}
			if err := k.ReleaseKey(key); err != nil {
				return err
			}
			if needShift && !shiftHeld {
				if err := k.ReleaseKey(keys.Shift); err != nil {
					return err
				}
			}
		}
	case keys.Key:
		if v.IsModifier() {
			if k.IsPressed(v) {
				return k.ReleaseKey(v)
			}
			return k.PressKey(v)
		}
		if err := k.PressKey(v); err != nil {
			return err
		}
		return k.ReleaseKey(v)
	}
	return nil
}

func (k *Keyboard) setPressed(key keys.Key, pressed bool) {
	name := key.String()
	if pressed {
		if _, ok := k.pressed[name]; !ok {
			k.order = append(k.order, name)
		}
		k.pressed[name] = key
	} else {
		delete(k.pressed, name)
		for i, n := range k.order {
			if n == name {
				k.order = append(k.order[:i:i], k.order[i+1:]...)
				break
			}
		}
	}
	if mod := key.Modifier(); mod != 0 {
		k.mods.SetPressed(mod, pressed)
	}
}

func (k *Keyboard) requiresKeyPress(key keys.Key) bool {
	if key.IsCharacter() || key.Equal(keys.Enter) {
		return true
	}
	switch k.caps.Keypress {
	case platform.KeypressIE:
		return key.Equal(keys.Esc)
	case platform.KeypressGecko:
		return !key.Equal(keys.Shift) && !key.Equal(keys.Control) && !key.Equal(keys.Alt)
	}
	return false
}

func (k *Keyboard) fireKey(t events.Type, key keys.Key, preventDefault bool) (bool, error) {
	shift := k.mods.IsPressed(keys.Shift.Modifier())
	args := events.KeyboardArgs{
		KeyCode:        key.KeyCode(k.caps.GeckoKeyCodes),
		Key:            key.DOMKeyFor(shift),
		Code:           key.DOMCode,
		Location:       keyLocation(key),
		PreventDefault: preventDefault,
	}
	if t == events.KeyPress {
		switch {
		case key.IsCharacter():
			args.CharCode = int(key.Character(shift))
		case key.Equal(keys.Enter):
			args.CharCode = keys.Enter.Code
		}
	}
	ok, err := k.FireKeyboardEvent(t, args, false)
	if err != nil {
		k.logger.Debug("key event failed", zap.Stringer("type", t), zap.Stringer("key", key), zap.Error(err))
	}
	return ok, err
}

func keyLocation(key keys.Key) int {
	switch {
	case strings.HasPrefix(key.Name, "NUM_") && key.Name != "NUM_LOCK":
		return 3
	case key.Equal(keys.MetaRight):
		return 2
	case key.IsModifier():
		return 1
	}
	return 0
}

// maybeSubmitForm submits the form of an <input> on ENTER when the form has
// a submit control or a single input.
func (k *Keyboard) maybeSubmitForm(key keys.Key) error {
	if !key.Equal(keys.Enter) || k.caps.GeckoImplicitSubmit || !isTag(k.element, "input") {
		return nil
	}
	form := k.FindAncestorForm(k.element)
	if form == nil {
		return nil
	}
	doc, err := k.Document()
	if err != nil {
		return err
	}
	inputs, hasSubmit := 0, false
	for _, c := range doc.FormControls(form) {
		if isTag(c, "input") {
			inputs++
		}
		if IsFormSubmitElement(c) {
			hasSubmit = true
		}
	}
	if hasSubmit || inputs == 1 {
		return k.SubmitForm(form)
	}
	return nil
}

func (k *Keyboard) maybeEditText(key keys.Key) error {
	if key.IsCharacter() {
		return k.insert(string(key.Character(k.mods.IsPressed(keys.Shift.Modifier()))))
	}
	switch key.Name {
	case keys.Enter.Name:
		if isTag(k.element, "textarea") || (dom.IsContentEditable(k.element) && !isTag(k.element, "input")) {
			return k.insert(k.newline())
		}
	case keys.Backspace.Name, keys.Delete.Name:
		return k.deleteText(key.Equal(keys.Backspace))
	case keys.Left.Name, keys.Right.Name:
		k.moveHorizontal(key.Equal(keys.Left))
	case keys.Home.Name, keys.End.Name:
		k.moveHomeOrEnd(key.Equal(keys.Home))
	}
	return nil
}

func (k *Keyboard) newline() string {
	if k.caps.Newline == "" {
		return "\n"
	}
	return k.caps.Newline
}

// text returns the editable text of the current element.
func (k *Keyboard) text(doc *dom.Document) string {
	if isTag(k.element, "input", "textarea") {
		return doc.Value(k.element)
	}
	return dom.TextContent(k.element)
}

// selection returns the selection of the current element; elements without
// a selection API behave as a caret at the end.
func (k *Keyboard) selection(doc *dom.Document) (int, int) {
	if dom.SupportsSelection(k.element) {
		return doc.Selection(k.element)
	}
	n := len([]rune(k.text(doc)))
	return n, n
}

func (k *Keyboard) insert(s string) error {
	doc, err := k.Document()
	if err != nil {
		return err
	}
	el := k.element
	if k.caps.TextInputEvent {
		proceed, err := k.disp.Fire(el, events.TextInput, events.HTMLArgs{Data: s})
		if err != nil || !proceed {
			return err
		}
	}
	text := []rune(k.text(doc))
	start, end := k.selection(doc)
	updated := string(text[:start]) + s + string(text[end:])
	pos := start + len([]rune(s))
	k.setText(doc, updated, pos)
	return k.fireInput(el, s)
}

func (k *Keyboard) deleteText(backward bool) error {
	doc, err := k.Document()
	if err != nil {
		return err
	}
	text := []rune(k.text(doc))
	start, end := k.selection(doc)
	if start == end {
		if backward && start > 0 {
			start--
		} else if !backward && end < len(text) {
			end++
		}
	}
	if start == end {
		return nil
	}
	k.setText(doc, string(text[:start])+string(text[end:]), start)
	return k.fireInput(k.element, "")
}

func (k *Keyboard) setText(doc *dom.Document, text string, caret int) {
	el := k.element
	if isTag(el, "input", "textarea") {
		doc.SetValue(el, text)
		if dom.SupportsSelection(el) {
			doc.SetSelection(el, caret, caret)
		}
	} else {
		setEditableText(doc, el, text)
	}
	k.cursor = caret
}

// setEditableText rewrites the trailing text of a contenteditable element,
// keeping element children that precede it.
func setEditableText(doc *dom.Document, el *html.Node, text string) {
	prefix := dom.TextContent(el)
	last := el.LastChild
	if last != nil && last.Type == html.TextNode {
		prefix = strings.TrimSuffix(prefix, last.Data)
	}
	if !strings.HasPrefix(text, prefix) {
		doc.SetTextContent(el, text)
		return
	}
	tail := text[len(prefix):]
	switch {
	case last != nil && last.Type == html.TextNode:
		last.Data = tail
	case tail != "":
		el.AppendChild(&html.Node{Type: html.TextNode, Data: tail})
	}
	doc.Invalidate()
}

func (k *Keyboard) fireInput(el *html.Node, data string) error {
	if !k.caps.InputEvents {
		return nil
	}
	_, err := k.disp.Fire(el, events.Input, events.HTMLArgs{Data: data})
	return err
}

func (k *Keyboard) moveHorizontal(left bool) {
	if !dom.SupportsSelection(k.element) {
		return
	}
	doc, err := k.Document()
	if err != nil {
		return
	}
	length := len([]rune(doc.Value(k.element)))
	start, end := doc.Selection(k.element)
	shift := k.mods.IsPressed(keys.Shift.Modifier())
	var pos int
	switch {
	case left && shift:
		pos = max(k.cursor-1, 0)
		if pos < start {
			start = pos
		} else {
			end = pos
		}
	case left:
		pos = start
		if start == end {
			pos = max(start-1, 0)
		}
		start, end = pos, pos
	case shift:
		pos = min(k.cursor+1, length)
		if pos > end {
			end = pos
		} else {
			start = pos
		}
	default:
		pos = end
		if start == end {
			pos = min(end+1, length)
		}
		start, end = pos, pos
	}
	doc.SetSelection(k.element, start, end)
	k.cursor = pos
}

func (k *Keyboard) moveHomeOrEnd(home bool) {
	if !dom.SupportsSelection(k.element) {
		return
	}
	doc, err := k.Document()
	if err != nil {
		return
	}
	length := len([]rune(doc.Value(k.element)))
	start, end := doc.Selection(k.element)
	shift := k.mods.IsPressed(keys.Shift.Modifier())
	if home {
		switch {
		case !shift:
			doc.SetSelection(k.element, 0, 0)
		case k.cursor == start:
			doc.SetSelection(k.element, 0, end)
		default:
			doc.SetSelection(k.element, 0, start)
		}
		k.cursor = 0
		return
	}
	switch {
	case !shift:
		doc.SetSelection(k.element, length, length)
	case k.cursor == start:
		doc.SetSelection(k.element, end, length)
	default:
		doc.SetSelection(k.element, start, length)
	}
	k.cursor = length
}
