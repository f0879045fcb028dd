// internal/bot/keys/keys.go
package keys

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/chromedp/cdproto/input"
)

// Key is an immutable keyboard key. Code is the keyCode reported by
// WebKit and IE; GeckoCode differs on a handful of punctuation keys.
type Key struct {
	Name      string `json:"name"`
	Code      int    `json:"code"`
	GeckoCode int    `json:"gecko_code,omitempty"`
	Char      rune   `json:"char,omitempty"`
	ShiftChar rune   `json:"shift_char,omitempty"`
	// DOMKey and DOMCode are KeyboardEvent.key and .code for the unshifted
	// key.
	DOMKey  string `json:"dom_key"`
	DOMCode string `json:"dom_code,omitempty"`
}

// Value is an element of a typing sequence: a Key or a Text.
type Value interface {
	isValue()
}

// Text is a run of characters typed one key at a time.
type Text string

func (Key) isValue()  {}
func (Text) isValue() {}

// KeyCode returns the keyCode for the given code family.
func (k Key) KeyCode(gecko bool) int {
	if gecko && k.GeckoCode != 0 {
		return k.GeckoCode
	}
	return k.Code
}

// IsCharacter reports whether pressing the key produces a character.
func (k Key) IsCharacter() bool { return k.Char != 0 }

// IsModifier reports whether the key is Shift, Control, Alt or Meta.
func (k Key) IsModifier() bool { return k.Modifier() != 0 }

// Modifier returns the modifier bit the key toggles, or 0.
func (k Key) Modifier() input.Modifier {
	switch k.Name {
	case "SHIFT":
		return input.ModifierShift
	case "CONTROL":
		return input.ModifierCtrl
	case "ALT":
		return input.ModifierAlt
	case "META":
		return input.ModifierMeta
	}
	return 0
}

// Character returns the character produced with or without Shift held.
func (k Key) Character(shift bool) rune {
	if shift && k.ShiftChar != 0 {
		return k.ShiftChar
	}
	return k.Char
}

// DOMKeyFor is KeyboardEvent.key with Shift held or not.
func (k Key) DOMKeyFor(shift bool) string {
	if k.IsCharacter() {
		return string(k.Character(shift))
	}
	return k.DOMKey
}

// Equal compares keys by identity in the key table. Unmapped character keys
// compare by character.
func (k Key) Equal(o Key) bool {
	if k.Name != "" || o.Name != "" {
		return k.Name == o.Name
	}
	return k.Char == o.Char
}

func (k Key) String() string {
	if k.Name != "" {
		return k.Name
	}
	return string(k.Char)
}

func newKey(name string, code int, char, shiftChar rune, domKey, domCode string) Key {
	return Key{Name: name, Code: code, Char: char, ShiftChar: shiftChar, DOMKey: domKey, DOMCode: domCode}
}

func gecko(k Key, code int) Key {
	k.GeckoCode = code
	return k
}

var (
	Backspace   = newKey("BACKSPACE", 8, 0, 0, "Backspace", "Backspace")
	Tab         = newKey("TAB", 9, 0, 0, "Tab", "Tab")
	Enter       = newKey("ENTER", 13, 0, 0, "Enter", "Enter")
	Shift       = newKey("SHIFT", 16, 0, 0, "Shift", "ShiftLeft")
	Control     = newKey("CONTROL", 17, 0, 0, "Control", "ControlLeft")
	Alt         = newKey("ALT", 18, 0, 0, "Alt", "AltLeft")
	Pause       = newKey("PAUSE", 19, 0, 0, "Pause", "Pause")
	CapsLock    = newKey("CAPS_LOCK", 20, 0, 0, "CapsLock", "CapsLock")
	Esc         = newKey("ESC", 27, 0, 0, "Escape", "Escape")
	Space       = newKey("SPACE", 32, ' ', 0, " ", "Space")
	PageUp      = newKey("PAGE_UP", 33, 0, 0, "PageUp", "PageUp")
	PageDown    = newKey("PAGE_DOWN", 34, 0, 0, "PageDown", "PageDown")
	End         = newKey("END", 35, 0, 0, "End", "End")
	Home        = newKey("HOME", 36, 0, 0, "Home", "Home")
	Left        = newKey("LEFT", 37, 0, 0, "ArrowLeft", "ArrowLeft")
	Up          = newKey("UP", 38, 0, 0, "ArrowUp", "ArrowUp")
	Right       = newKey("RIGHT", 39, 0, 0, "ArrowRight", "ArrowRight")
	Down        = newKey("DOWN", 40, 0, 0, "ArrowDown", "ArrowDown")
	PrintScreen = newKey("PRINT_SCREEN", 44, 0, 0, "PrintScreen", "PrintScreen")
	Insert      = newKey("INSERT", 45, 0, 0, "Insert", "Insert")
	Delete      = newKey("DELETE", 46, 0, 0, "Delete", "Delete")
	Meta        = newKey("META", 91, 0, 0, "Meta", "MetaLeft")
	MetaRight   = newKey("META_RIGHT", 92, 0, 0, "Meta", "MetaRight")
	ContextMenu = newKey("CONTEXT_MENU", 93, 0, 0, "ContextMenu", "ContextMenu")
	NumLock     = newKey("NUM_LOCK", 144, 0, 0, "NumLock", "NumLock")

	NumMultiply = newKey("NUM_MULTIPLY", 106, '*', 0, "*", "NumpadMultiply")
	NumPlus     = newKey("NUM_PLUS", 107, '+', 0, "+", "NumpadAdd")
	NumMinus    = newKey("NUM_MINUS", 109, '-', 0, "-", "NumpadSubtract")
	NumPeriod   = newKey("NUM_PERIOD", 110, '.', 0, ".", "NumpadDecimal")
	NumDivision = newKey("NUM_DIVISION", 111, '/', 0, "/", "NumpadDivide")

	Semicolon    = gecko(newKey("SEMICOLON", 186, ';', ':', ";", "Semicolon"), 59)
	Equals       = gecko(newKey("EQUALS", 187, '=', '+', "=", "Equal"), 61)
	Comma        = newKey("COMMA", 188, ',', '<', ",", "Comma")
	Separator    = gecko(newKey("SEPARATOR", 189, '-', '_', "-", "Minus"), 173)
	Period       = newKey("PERIOD", 190, '.', '>', ".", "Period")
	Slash        = newKey("SLASH", 191, '/', '?', "/", "Slash")
	Backtick     = newKey("BACKTICK", 192, '`', '~', "`", "Backquote")
	OpenBracket  = newKey("OPEN_BRACKET", 219, '[', '{', "[", "BracketLeft")
	Backslash    = newKey("BACKSLASH", 220, '\\', '|', "\\", "Backslash")
	CloseBracket = newKey("CLOSE_BRACKET", 221, ']', '}', "]", "BracketRight")
	Apostrophe   = newKey("APOSTROPHE", 222, '\'', '"', "'", "Quote")
)

var table []Key

// byChar holds the key for every character reachable from the main block,
// preferring main keys over numpad keys.
var byChar = map[rune]charKey{}

type charKey struct {
	key   Key
	shift bool
}

var byName = map[string]Key{}

func register(k Key) {
	table = append(table, k)
	byName[k.Name] = k
	if k.Char != 0 {
		if _, ok := byChar[k.Char]; !ok {
			byChar[k.Char] = charKey{k, false}
		}
	}
	if k.ShiftChar != 0 {
		if _, ok := byChar[k.ShiftChar]; !ok {
			byChar[k.ShiftChar] = charKey{k, true}
		}
	}
}

func init() {
	for _, k := range []Key{
		Backspace, Tab, Enter, Shift, Control, Alt, Pause, CapsLock, Esc, Space,
		PageUp, PageDown, End, Home, Left, Up, Right, Down, PrintScreen,
		Insert, Delete, Meta, MetaRight, ContextMenu, NumLock,
	} {
		register(k)
	}

	shifted := ")!@#$%^&*("
	for i := 0; i < 10; i++ {
		d := rune('0' + i)
		register(newKey(string(d), 48+i, d, rune(shifted[i]), string(d), "Digit"+string(d)))
	}
	for c := 'a'; c <= 'z'; c++ {
		up := unicode.ToUpper(c)
		register(newKey(string(up), int(up), c, up, string(c), "Key"+string(up)))
	}
	for _, k := range []Key{
		Semicolon, Equals, Comma, Separator, Period, Slash, Backtick,
		OpenBracket, Backslash, CloseBracket, Apostrophe,
	} {
		register(k)
	}

	for i := 0; i < 10; i++ {
		d := rune('0' + i)
		register(newKey("NUM_"+string(d), 96+i, d, 0, string(d), "Numpad"+string(d)))
	}
	for _, k := range []Key{NumMultiply, NumPlus, NumMinus, NumPeriod, NumDivision} {
		register(k)
	}
	for i := 1; i <= 12; i++ {
		name := "F" + strconv.Itoa(i)
		register(newKey(name, 111+i, 0, 0, name, name))
	}
}

// FromChar maps a character to the key that types it and whether Shift
// must be held. Newline maps to Enter and tab to Tab. Characters outside the
// table yield a code-less key carrying the character.
func FromChar(r rune) (Key, bool) {
	switch r {
	case '\n', '\r':
		return Enter, false
	case '\t':
		return Tab, false
	}
	if e, ok := byChar[r]; ok {
		return e.key, e.shift
	}
	return Key{Char: r, DOMKey: string(r)}, false
}

// ByName looks a key up by its table name, case-insensitively.
func ByName(name string) (Key, bool) {
	k, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return k, ok
}

// All returns the key table ordered by key code, then name.
func All() []Key {
	out := append([]Key(nil), table...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Modifiers lists the modifier keys in the order they are released at the
// end of a typing sequence.
func Modifiers() []Key {
	return []Key{Shift, Control, Alt, Meta}
}
