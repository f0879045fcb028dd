// internal/browser/jsbind/host.go
package jsbind

import (
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

// Host runs inline event handler attributes, <script> elements and
// javascript: URLs with goja. Every document gets its own runtime and
// globals, as frames do in a browser.
type Host struct {
	logger  *zap.Logger
	timeout time.Duration
	bridges map[*dom.Document]*DOMBridge
}

type Option func(*Host)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTimeout interrupts any single script run that exceeds d. Zero
// disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) { h.timeout = d }
}

func NewHost(opts ...Option) *Host {
	h := &Host{
		logger:  zap.NewNop(),
		timeout: 2 * time.Second,
		bridges: make(map[*dom.Document]*DOMBridge),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("jsbind")
	return h
}

var _ dom.ScriptHost = (*Host)(nil)

// Bridge returns the runtime bound to d, creating it on first use.
func (h *Host) Bridge(d *dom.Document) *DOMBridge {
	b, ok := h.bridges[d]
	if !ok {
		b = NewDOMBridge(goja.New(), d, h.logger)
		h.bridges[d] = b
	}
	return b
}

// RunHandler compiles body as the function body of an inline handler and
// calls it with this bound to el. A handler returning false cancels the
// event.
func (h *Host) RunHandler(d *dom.Document, el *html.Node, ev *dom.Event, body string) (bool, error) {
	b := h.Bridge(d)
	source := "on" + ev.Type
	var result goja.Value
	err := h.guard(b, func() error {
		fnVal, err := b.vm.RunScript(source, "(function(event) {\n"+body+"\n})")
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return nil
		}
		result, err = fn(b.WrapNode(el), b.WrapEvent(ev))
		return err
	})
	if err != nil {
		return true, newScriptError(source, err)
	}
	if result != nil && result.StrictEquals(b.vm.ToValue(false)) {
		return false, nil
	}
	return true, nil
}

// Eval runs src in the global scope of d's runtime.
func (h *Host) Eval(d *dom.Document, src string) error {
	b := h.Bridge(d)
	err := h.guard(b, func() error {
		_, err := b.vm.RunScript("inline script", src)
		return err
	})
	if err != nil {
		return newScriptError("inline script", err)
	}
	return nil
}

// guard bounds fn with the execution timeout and drains timers queued while
// it ran.
func (h *Host) guard(b *DOMBridge, fn func() error) error {
	if h.timeout > 0 {
		timer := time.AfterFunc(h.timeout, func() { b.vm.Interrupt("execution timeout") })
		defer func() {
			timer.Stop()
			b.vm.ClearInterrupt()
		}()
	}
	if err := fn(); err != nil {
		return err
	}
	return b.drainTimers()
}
