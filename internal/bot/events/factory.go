// internal/bot/events/factory.go
package events

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/platform"
)

// Factory builds synthetic events for one engine and dispatches them into a
// window. Strategies are chosen once, at construction.
type Factory struct {
	win    *dom.Window
	caps   platform.Capabilities
	logger *zap.Logger

	mouse    mouseStrategy
	keyboard keyboardStrategy
	touch    touchStrategy
	pointer  pointerStrategy
	html     htmlStrategy
}

type Option func(*Factory)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory selects the build strategies described by caps.
func NewFactory(win *dom.Window, caps platform.Capabilities, opts ...Option) *Factory {
	f := &Factory{win: win, caps: caps, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Named("events")

	switch caps.Mouse {
	case platform.MouseLegacyIE:
		f.mouse = legacyIEMouse{}
		f.html = htmlStrategy{iface: "MSEventObj"}
	default:
		f.mouse = initMouse{}
		f.html = htmlStrategy{iface: "Event"}
	}
	switch caps.Keyboard {
	case platform.KeyboardGecko:
		f.keyboard = geckoKeyboard{}
	case platform.KeyboardGeneric:
		f.keyboard = genericKeyboard{}
	default:
		f.keyboard = constructorKeyboard{}
	}
	switch caps.Touch {
	case platform.TouchNative:
		f.touch = nativeTouch{}
	case platform.TouchGeneric:
		f.touch = genericTouch{}
	default:
		// Pointer emulated touch never builds TouchEvents.
		f.touch = noTouch{}
	}
	switch caps.Pointer {
	case platform.PointerMS:
		f.pointer = msPointer{}
	case platform.PointerW3C:
		f.pointer = w3cPointer{}
	default:
		f.pointer = noPointer{}
	}
	return f
}

// Window is the execution context events are dispatched into.
func (f *Factory) Window() *dom.Window { return f.win }

func (f *Factory) Capabilities() platform.Capabilities { return f.caps }

// Build constructs the native event for t without dispatching it.
func (f *Factory) Build(target *html.Node, t Type, args Args) (*dom.Event, error) {
	if err := Validate(t, args); err != nil {
		return nil, err
	}
	d, err := f.owner(target)
	if err != nil {
		return nil, err
	}
	ev := &dom.Event{
		Type:       t.Name(f.caps),
		Bubbles:    t.Bubbles,
		Cancelable: t.Cancelable,
		Composed:   t.Composed,
	}
	switch a := args.(type) {
	case MouseArgs:
		f.mouse.build(ev, t, a, f.caps)
	case KeyboardArgs:
		f.keyboard.build(ev, t, a)
	case TouchArgs:
		if err := f.touch.build(ev, d, a); err != nil {
			return nil, err
		}
	case PointerArgs:
		if err := f.pointer.build(ev, a); err != nil {
			return nil, err
		}
	case HTMLArgs:
		f.html.build(ev, t, a)
	case nil:
		f.html.build(ev, t, HTMLArgs{})
	}
	return ev, nil
}

// Fire builds an untrusted event, dispatches it at target and reports
// whether the default action should proceed.
func (f *Factory) Fire(target *html.Node, t Type, args Args) (bool, error) {
	ev, err := f.Build(target, t, args)
	if err != nil {
		return false, err
	}
	if ka, ok := args.(KeyboardArgs); ok && ka.PreventDefault {
		ev.PreventDefault()
	}
	d, _ := f.owner(target)
	ok := d.Dispatch(target, ev)
	f.logger.Debug("fired", zap.String("type", ev.Type), zap.String("target", dom.XPath(target)), zap.Bool("default", ok))
	return ok, nil
}

func (f *Factory) owner(target *html.Node) (*dom.Document, error) {
	if target == nil {
		return nil, bot.NewError(bot.UnknownError, "cannot fire an event without a target")
	}
	d, err := f.win.Owner(target)
	if err != nil {
		if errors.Is(err, dom.ErrDetached) {
			return nil, bot.Wrap(bot.UnknownError, err, "target is not in the window")
		}
		return nil, err
	}
	if d.Closed() {
		return nil, bot.NewError(bot.UnknownError, "target window is closed")
	}
	return d, nil
}
