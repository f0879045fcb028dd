package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormattingAndUnwrap(t *testing.T) {
	cause := errors.New("native blur failed")
	err := Wrap(UnknownError, cause, "blurring %s", "input")

	assert.Equal(t, "unknown error: blurring input: native blur failed", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := NewError(InvalidElementState, "key %q already pressed", "Shift")
	assert.Equal(t, `invalid element state: key "Shift" already pressed`, plain.Error())
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := NewError(ElementNotVisible, "hidden")
	outer := fmt.Errorf("click failed: %w", inner)

	assert.True(t, IsCode(outer, ElementNotVisible))
	assert.False(t, IsCode(outer, InvalidElementState))
	assert.False(t, IsCode(errors.New("plain"), UnknownError))

	code, ok := CodeOf(outer)
	require.True(t, ok)
	assert.Equal(t, ElementNotVisible, code)

	code, ok = CodeOf(errors.New("foreign"))
	assert.True(t, ok)
	assert.Equal(t, UnknownError, code)

	_, ok = CodeOf(nil)
	assert.False(t, ok)
}

func TestWireMappings(t *testing.T) {
	tests := []struct {
		code   Code
		status int
		w3c    string
	}{
		{NoSuchElement, 7, "no such element"},
		{NoSuchFrame, 8, "no such frame"},
		{UnsupportedOperation, 9, "unsupported operation"},
		{ElementNotVisible, 11, "element not interactable"},
		{InvalidElementState, 12, "invalid element state"},
		{UnknownError, 13, "unknown error"},
		{Code(99), 13, "unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.code.WireStatus())
			assert.Equal(t, tt.w3c, tt.code.W3C())
		})
	}
}
