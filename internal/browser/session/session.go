// internal/browser/session/session.go
package session

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/bot"
	"github.com/xkilldash9x/synthinput/internal/bot/device"
	"github.com/xkilldash9x/synthinput/internal/bot/events"
	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/jsbind"
	"github.com/xkilldash9x/synthinput/internal/config"
	"github.com/xkilldash9x/synthinput/internal/platform"
	"github.com/xkilldash9x/synthinput/internal/trace"
)

// Session binds one window to a mouse, a keyboard and a touchscreen that
// share modifier state and pointer capture, as the devices of one browser
// do. Like the window it wraps, a Session is single-threaded.
type Session struct {
	id     string
	logger *zap.Logger
	caps   platform.Capabilities

	win      *dom.Window
	factory  *events.Factory
	mods     *device.Modifiers
	capture  *device.PointerCapture
	mouse    *device.Mouse
	keyboard *device.Keyboard
	touch    *device.Touchscreen

	recorder *trace.Recorder
	detach   func()

	scriptTimeout time.Duration
	closeOnce     sync.Once
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder records every event dispatched in the session's window.
func WithRecorder(r *trace.Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithScriptTimeout bounds each page script run.
func WithScriptTimeout(d time.Duration) Option {
	return func(s *Session) { s.scriptTimeout = d }
}

// New creates a session for the engine configured in cfg.
func New(cfg config.Interface, opts ...Option) (*Session, error) {
	caps, err := cfg.Engine().Capabilities()
	if err != nil {
		return nil, bot.Wrap(bot.UnknownError, err, "resolving platform")
	}

	s := &Session{
		id:            uuid.New().String(),
		logger:        zap.NewNop(),
		caps:          caps,
		scriptTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("session").With(zap.String("session_id", s.id), zap.String("platform", caps.Name))

	if s.recorder == nil && cfg.Trace().Enabled {
		s.recorder = trace.NewRecorder(
			trace.WithLogger(s.logger),
			trace.WithTypes(cfg.Trace().Events...),
			trace.WithTrusted(cfg.Trace().Trusted),
		)
	}

	engine := cfg.Engine()
	s.win = dom.NewWindow(
		dom.WithLogger(s.logger),
		dom.WithViewport(float64(engine.ViewportWidth), float64(engine.ViewportHeight)),
		dom.WithScriptHost(jsbind.NewHost(jsbind.WithLogger(s.logger), jsbind.WithTimeout(s.scriptTimeout))),
		dom.WithLegacyBlurErrors(caps.LegacyBlurErrors),
	)
	s.factory = events.NewFactory(s.win, caps, events.WithLogger(s.logger))
	s.mods = device.NewModifiers()
	s.capture = device.NewPointerCapture()
	s.win.SetCaptureSink(s.capture)

	s.mouse = device.NewMouse(s.Device())
	s.keyboard = device.NewKeyboard(s.Device())
	s.touch = device.NewTouchscreen(s.Device())

	if s.recorder != nil {
		s.detach = s.recorder.Attach(s.win)
	}
	s.logger.Debug("session created")
	return s, nil
}

func (s *Session) ID() string                          { return s.id }
func (s *Session) Capabilities() platform.Capabilities { return s.caps }
func (s *Session) Window() *dom.Window                 { return s.win }
func (s *Session) Mouse() *device.Mouse                { return s.mouse }
func (s *Session) Keyboard() *device.Keyboard          { return s.keyboard }
func (s *Session) Touchscreen() *device.Touchscreen    { return s.touch }
func (s *Session) Modifiers() *device.Modifiers        { return s.mods }

// Recorder is nil when tracing is off.
func (s *Session) Recorder() *trace.Recorder { return s.recorder }

// Device returns a new device sharing the session's modifiers and pointer
// capture, for helpers such as clearing or submitting that need no device
// state of their own.
func (s *Session) Device() *device.Device {
	return device.New(s.factory,
		device.WithLogger(s.logger),
		device.WithModifiers(s.mods),
		device.WithPointerCapture(s.capture),
	)
}

// Load replaces the window's document.
func (s *Session) Load(rawURL string, r io.Reader) (*dom.Document, error) {
	doc, err := s.win.Load(rawURL, r)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document loaded", zap.String("url", doc.URL.String()))
	return doc, nil
}

func (s *Session) LoadHTML(rawURL, src string) (*dom.Document, error) {
	return s.Load(rawURL, strings.NewReader(src))
}

// URL is the top document's address, empty before a load.
func (s *Session) URL() string {
	if doc := s.win.Document(); doc != nil && doc.URL != nil {
		return doc.URL.String()
	}
	return ""
}

// Find resolves xpath to a single element in any document of the window.
func (s *Session) Find(xpath string) (*html.Node, error) {
	if s.win.Document() == nil {
		return nil, bot.NewError(bot.NoSuchElement, "no document loaded")
	}
	return s.win.Resolve(xpath)
}

// Submissions lists the forms submitted in every document of the window.
func (s *Session) Submissions() []dom.Submission {
	var out []dom.Submission
	for _, d := range s.win.Documents() {
		out = append(out, d.Submissions()...)
	}
	return out
}

// Close stops recording and closes the window. It is safe to call twice.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.detach != nil {
			s.detach()
		}
		s.win.Close()
		s.logger.Debug("session closed")
	})
}

// State is the serializable device state of a session.
type State struct {
	ID       string               `json:"id"`
	Platform string               `json:"platform"`
	URL      string               `json:"url,omitempty"`
	Mouse    device.MouseState    `json:"mouse"`
	Keyboard device.KeyboardState `json:"keyboard"`
	Touch    device.TouchState    `json:"touch"`
}

func (s *Session) Snapshot() State {
	return State{
		ID:       s.id,
		Platform: s.caps.Name,
		URL:      s.URL(),
		Mouse:    s.mouse.Snapshot(),
		Keyboard: s.keyboard.Snapshot(),
		Touch:    s.touch.Snapshot(),
	}
}

// Restore applies st to the devices. The state must come from a session of
// the same platform; its element references are resolved against the
// current document.
func (s *Session) Restore(st State) error {
	if st.Platform != s.caps.Name {
		return bot.NewError(bot.UnknownError, "state was taken on platform %q, session is %q", st.Platform, s.caps.Name)
	}
	if err := s.keyboard.Restore(st.Keyboard); err != nil {
		return err
	}
	if err := s.mouse.Restore(st.Mouse); err != nil {
		return err
	}
	if err := s.touch.Restore(st.Touch); err != nil {
		return err
	}
	s.logger.Debug("state restored", zap.String("from", st.ID))
	return nil
}

// Save writes the session state as JSON.
func (s *Session) Save(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	return nil
}

// ReadState decodes a state written by Save.
func ReadState(r io.Reader) (State, error) {
	var st State
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return State{}, fmt.Errorf("failed to decode session state: %w", err)
	}
	return st, nil
}
