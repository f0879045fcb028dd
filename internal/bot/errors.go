// internal/bot/errors.go
package bot

import (
	"errors"
	"fmt"
)

// Code classifies an engine failure. The set is intentionally small so the
// command layer can translate it into a wire status without further context.
type Code int

const (
	UnknownError Code = iota
	ElementNotVisible
	InvalidElementState
	NoSuchElement
	NoSuchFrame
	UnsupportedOperation
)

var codeNames = map[Code]string{
	UnknownError:         "unknown error",
	ElementNotVisible:    "element not visible",
	InvalidElementState:  "invalid element state",
	NoSuchElement:        "no such element",
	NoSuchFrame:          "no such frame",
	UnsupportedOperation: "unsupported operation",
}

// legacy JSON wire protocol status codes.
var wireStatus = map[Code]int{
	NoSuchElement:        7,
	NoSuchFrame:          8,
	UnsupportedOperation: 9,
	ElementNotVisible:    11,
	InvalidElementState:  12,
	UnknownError:         13,
}

// W3C WebDriver error strings.
var w3cNames = map[Code]string{
	NoSuchElement:        "no such element",
	NoSuchFrame:          "no such frame",
	UnsupportedOperation: "unsupported operation",
	ElementNotVisible:    "element not interactable",
	InvalidElementState:  "invalid element state",
	UnknownError:         "unknown error",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// WireStatus returns the numeric status used by the legacy JSON wire protocol.
func (c Code) WireStatus() int {
	if s, ok := wireStatus[c]; ok {
		return s
	}
	return wireStatus[UnknownError]
}

// W3C returns the W3C WebDriver error name for the code.
func (c Code) W3C() string {
	if s, ok := w3cNames[c]; ok {
		return s
	}
	return w3cNames[UnknownError]
}

// Error is the single error type raised by the oracle, the event factory and
// the devices.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap provides compatibility for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an unexpected native failure.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf reports the code carried by err, or UnknownError when err is not a
// *Error. A nil error has no code and reports false.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return UnknownError, false
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Code, true
	}
	return UnknownError, true
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	return be.Code == code
}
