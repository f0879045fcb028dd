// internal/browser/dom/window.go
package dom

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/xkilldash9x/synthinput/internal/bot"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	// ErrSubmitMasked is returned by FormSubmitter when a form control named
	// or identified as "submit" shadows the form's native submit method.
	ErrSubmitMasked = errors.New("form submit method is masked by a control named submit")
	// ErrUnspecified mirrors the legacy engine failure raised when blurring an
	// element that is no longer attached to the document.
	ErrUnspecified = errors.New("unspecified error")
	// ErrDetached is returned for operations on nodes outside any document
	// of the window.
	ErrDetached = errors.New("node is not attached to a document")
	// ErrInvalidPointer is returned when capturing a pointer that is not
	// currently active.
	ErrInvalidPointer = errors.New("pointer is not active")
)

// ScriptHost runs page script on behalf of the DOM. RunHandler returns false
// when the handler asked to cancel the event.
type ScriptHost interface {
	RunHandler(d *Document, el *html.Node, ev *Event, body string) (bool, error)
	Eval(d *Document, src string) error
}

// PointerCaptureSink receives capture requests made by page script.
type PointerCaptureSink interface {
	SetCapture(pointerID int64, el *html.Node)
	Release(pointerID int64)
}

// Observer is notified after every dispatch in any document of the window.
type Observer func(d *Document, ev *Event)

type observer struct {
	id int
	fn Observer
}

// Navigation records a location change requested through the window.
type Navigation struct {
	Kind   string `json:"kind"` // load, hash, javascript or open
	URL    string `json:"url"`
	Target string `json:"target,omitempty"`
	Method string `json:"method,omitempty"`
	// Frame is the XPath of the frame element, empty for the top document.
	Frame string `json:"frame,omitempty"`
}

// Window is a top-level browsing context. It is the explicit execution
// context every engine operation takes. A Window and all of its documents
// are single-threaded.
type Window struct {
	Name string

	logger           *zap.Logger
	width, height    float64
	legacyBlurErrors bool
	scripts          ScriptHost

	doc    *Document
	docs   map[*html.Node]*Document
	frames map[*html.Node]*Document

	opener *Window
	popups []*Window
	closed bool

	navigations []Navigation

	capture        PointerCaptureSink
	activePointers map[int64]bool

	seq          int64
	observers    []observer
	nextObserver int
}

type Option func(*Window)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Window) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithViewport(width, height float64) Option {
	return func(w *Window) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

func WithScriptHost(h ScriptHost) Option {
	return func(w *Window) { w.scripts = h }
}

// WithLegacyBlurErrors makes blurring a detached element fail with
// ErrUnspecified.
func WithLegacyBlurErrors(enabled bool) Option {
	return func(w *Window) { w.legacyBlurErrors = enabled }
}

func NewWindow(opts ...Option) *Window {
	w := &Window{
		logger:         zap.NewNop(),
		width:          1024,
		height:         768,
		docs:           make(map[*html.Node]*Document),
		frames:         make(map[*html.Node]*Document),
		activePointers: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("window")
	return w
}

// Load parses r as the window's top-level document. Inline <script> elements
// run through the script host, and srcdoc frames are loaded with it.
func (w *Window) Load(rawURL string, r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	w.docs = make(map[*html.Node]*Document)
	w.frames = make(map[*html.Node]*Document)
	w.doc = w.attach(root, u, nil, nil)
	w.logger.Debug("document loaded", zap.String("url", u.String()))
	w.boot(w.doc)
	return w.doc, nil
}

// LoadHTML is Load for an in-memory document.
func (w *Window) LoadHTML(rawURL, src string) (*Document, error) {
	return w.Load(rawURL, strings.NewReader(src))
}

func parseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = "about:blank"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid document url %q: %w", raw, err)
	}
	return u, nil
}

func (w *Window) attach(root *html.Node, u *url.URL, frame *html.Node, parent *Document) *Document {
	d := newDocument(w, root, u, frame, parent)
	w.docs[root] = d
	if frame != nil {
		w.frames[frame] = d
	}
	return d
}

// boot loads child frames and runs inline scripts in tree order.
func (w *Window) boot(d *Document) {
	for _, n := range htmlquery.Find(d.Root, "//iframe[@srcdoc] | //frame[@srcdoc]") {
		root, err := htmlquery.Parse(strings.NewReader(attr(n, "srcdoc")))
		if err != nil {
			w.logger.Warn("failed to parse srcdoc frame", zap.Error(err))
			continue
		}
		u, _ := url.Parse("about:srcdoc")
		w.boot(w.attach(root, u, n, d))
	}
	if w.scripts == nil {
		return
	}
	for _, s := range htmlquery.Find(d.Root, "//script") {
		if t := strings.ToLower(attr(s, "type")); t != "" && !strings.Contains(t, "javascript") && t != "module" {
			continue
		}
		if err := w.scripts.Eval(d, htmlquery.InnerText(s)); err != nil {
			w.logger.Warn("inline script failed", zap.Error(err))
		}
	}
	d.Invalidate()
}

// Document returns the top-level document.
func (w *Window) Document() *Document { return w.doc }

func (w *Window) Logger() *zap.Logger { return w.logger }

func (w *Window) Viewport() (float64, float64) { return w.width, w.height }

// Owner returns the document of this window containing n.
func (w *Window) Owner(n *html.Node) (*Document, error) {
	if n == nil {
		return nil, ErrDetached
	}
	if d, ok := w.docs[ownerRoot(n)]; ok {
		return d, nil
	}
	return nil, ErrDetached
}

// Documents returns the top document followed by frame documents in load
// order of their frame elements.
func (w *Window) Documents() []*Document {
	if w.doc == nil {
		return nil
	}
	out := []*Document{w.doc}
	var walk func(*Document)
	walk = func(d *Document) {
		for _, f := range htmlquery.Find(d.Root, "//iframe | //frame") {
			if fd, ok := w.frames[f]; ok {
				out = append(out, fd)
				walk(fd)
			}
		}
	}
	walk(w.doc)
	return out
}

// FrameDocument returns the content document of a frame element.
func (w *Window) FrameDocument(frame *html.Node) (*Document, error) {
	if frame == nil || frame.Type != html.ElementNode {
		return nil, bot.NewError(bot.NoSuchFrame, "not a frame element")
	}
	if d, ok := w.frames[frame]; ok {
		return d, nil
	}
	tag := strings.ToLower(frame.Data)
	if tag != "iframe" && tag != "frame" {
		return nil, bot.NewError(bot.NoSuchFrame, "element <%s> is not a frame", tag)
	}
	parent, err := w.Owner(frame)
	if err != nil {
		return nil, bot.Wrap(bot.NoSuchFrame, err, "frame is detached")
	}
	root, _ := htmlquery.Parse(strings.NewReader(""))
	u, _ := url.Parse("about:blank")
	return w.attach(root, u, frame, parent), nil
}

// Resolve finds the single element matching xpath in any document of the
// window, searching the top document first.
func (w *Window) Resolve(xpath string) (*html.Node, error) {
	for _, d := range w.Documents() {
		n, err := htmlquery.Query(d.Root, xpath)
		if err != nil {
			return nil, bot.Wrap(bot.NoSuchElement, err, "invalid xpath %q", xpath)
		}
		if n != nil {
			return n, nil
		}
	}
	return nil, bot.NewError(bot.NoSuchElement, "no element matches %q", xpath)
}

func (w *Window) Close() {
	w.closed = true
	w.logger.Debug("window closed", zap.String("name", w.Name))
}

func (w *Window) Closed() bool { return w.closed }

func (w *Window) Opener() *Window { return w.opener }

func (w *Window) Popups() []*Window { return append([]*Window(nil), w.popups...) }

func (w *Window) Navigations() []Navigation {
	return append([]Navigation(nil), w.navigations...)
}

// Observe registers fn to be called after every dispatch. The returned
// function unregisters it.
func (w *Window) Observe(fn Observer) func() {
	w.nextObserver++
	id := w.nextObserver
	w.observers = append(w.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range w.observers {
			if o.id == id {
				w.observers = append(w.observers[:i:i], w.observers[i+1:]...)
				return
			}
		}
	}
}

// SetCaptureSink installs the pointer capture map page script writes to.
func (w *Window) SetCaptureSink(s PointerCaptureSink) { w.capture = s }

// SetPointerActive marks a pointer as pressed (active) or released.
func (w *Window) SetPointerActive(pointerID int64, active bool) {
	if active {
		w.activePointers[pointerID] = true
		return
	}
	delete(w.activePointers, pointerID)
}

// SetPointerCapture routes subsequent events of pointerID to el.
func (w *Window) SetPointerCapture(el *html.Node, pointerID int64) error {
	if !w.activePointers[pointerID] {
		return fmt.Errorf("%w: %d", ErrInvalidPointer, pointerID)
	}
	if w.capture != nil {
		w.capture.SetCapture(pointerID, el)
	}
	return nil
}

func (w *Window) ReleasePointerCapture(pointerID int64) {
	if w.capture != nil {
		w.capture.Release(pointerID)
	}
}

// open creates a popup window browsing to u.
func (w *Window) open(u *url.URL, name string) *Window {
	if name != "" && name != "_blank" {
		for _, p := range w.popups {
			if p.Name == name && !p.closed {
				p.navigateTop(u, "", "load")
				return p
			}
		}
	}
	p := NewWindow(WithLogger(w.logger), WithViewport(w.width, w.height),
		WithScriptHost(w.scripts), WithLegacyBlurErrors(w.legacyBlurErrors))
	if name != "_blank" {
		p.Name = name
	}
	p.opener = w
	root, _ := htmlquery.Parse(strings.NewReader(""))
	p.doc = p.attach(root, u, nil, nil)
	w.popups = append(w.popups, p)
	w.navigations = append(w.navigations, Navigation{Kind: "open", URL: u.String(), Target: name})
	return p
}

func (w *Window) navigateTop(u *url.URL, method, kind string) {
	w.doc.URL = u
	w.navigations = append(w.navigations, Navigation{Kind: kind, URL: u.String(), Method: method})
}

// ownerRoot returns the document node at the top of n's tree.
func ownerRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func attrLookup(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := attrLookup(n, key)
	return v
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attrLookup(n, key)
	return ok
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
