// internal/browser/jsbind/errors.go
package jsbind

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// ScriptError is raised when page script throws, fails to compile or is
// interrupted. Callers classify it with errors.As.
type ScriptError struct {
	// Source names what was running, e.g. "onclick" or "inline script".
	Source  string
	Message string
	Err     error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ErrInterrupted is wrapped by ScriptErrors produced by the execution timeout.
var ErrInterrupted = errors.New("script interrupted")

func newScriptError(source string, err error) *ScriptError {
	var ex *goja.Exception
	var interrupted *goja.InterruptedError
	switch {
	case errors.As(err, &interrupted):
		return &ScriptError{Source: source, Message: interrupted.String(), Err: fmt.Errorf("%w: %v", ErrInterrupted, err)}
	case errors.As(err, &ex):
		return &ScriptError{Source: source, Message: ex.Value().String(), Err: err}
	}
	return &ScriptError{Source: source, Message: err.Error(), Err: err}
}
