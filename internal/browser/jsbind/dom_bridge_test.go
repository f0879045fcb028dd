// internal/browser/jsbind/dom_bridge_test.go
package jsbind_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
	"github.com/xkilldash9x/synthinput/internal/browser/jsbind"
)

// -- Test Setup Utilities --

type testEnv struct {
	host *jsbind.Host
	win  *dom.Window
	doc  *dom.Document
	logs *observer.ObservedLogs
}

func setup(t *testing.T, body string, opts ...jsbind.Option) *testEnv {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	host := jsbind.NewHost(append([]jsbind.Option{jsbind.WithLogger(logger)}, opts...)...)
	win := dom.NewWindow(dom.WithLogger(logger), dom.WithScriptHost(host))
	doc, err := win.LoadHTML("http://example.test/app/index.html", "<html><body>"+body+"</body></html>")
	require.NoError(t, err)
	return &testEnv{host: host, win: win, doc: doc, logs: logs}
}

func (e *testEnv) eval(t *testing.T, src string) any {
	t.Helper()
	v, err := e.host.Bridge(e.doc).Runtime().RunString(src)
	require.NoError(t, err)
	return v.Export()
}

func (e *testEnv) click(el *html.Node) bool {
	return e.doc.Dispatch(el, &dom.Event{
		Type: "click", Interface: "MouseEvent", Bubbles: true, Cancelable: true, Composed: true,
		Mouse: &dom.MouseData{ClientX: 12, ClientY: 34},
	})
}

// -- Tests --

func TestInlineHandlerSeesThisAndEvent(t *testing.T) {
	env := setup(t, `<input id="in" onclick="this.value = event.type + ':' + event.clientX + ',' + event.clientY">`)
	in := env.doc.ByID("in")

	assert.True(t, env.click(in))
	assert.Equal(t, "click:12,34", env.doc.Value(in))
}

func TestInlineHandlerReturningFalseCancels(t *testing.T) {
	env := setup(t, `<a id="a" href="/x" onclick="return false">x</a><a id="b" onclick="return 0">y</a>`)
	assert.False(t, env.click(env.doc.ByID("a")))
	assert.True(t, env.click(env.doc.ByID("b")), "only a literal false cancels")
}

func TestScriptsRegisterListeners(t *testing.T) {
	env := setup(t, `<button id="b">go</button><div id="out"></div>
		<script>
			var hits = [];
			document.getElementById('b').addEventListener('click', function (e) {
				hits.push(e.target.id + '@' + e.currentTarget.tagName + ':' + e.eventPhase);
			});
			document.body.addEventListener('click', function (e) {
				hits.push('body:' + e.eventPhase);
				e.preventDefault();
			}, {capture: true});
		</script>`)

	assert.False(t, env.click(env.doc.ByID("b")))
	assert.Equal(t, []any{"body:1", "b@BUTTON:2"}, env.eval(t, "hits"))
}

func TestRemoveEventListenerAndOnce(t *testing.T) {
	env := setup(t, `<button id="b">go</button>
		<script>
			var n = 0, once = 0;
			function inc() { n++; }
			var b = document.getElementById('b');
			b.addEventListener('click', inc);
			b.addEventListener('click', inc);
			b.addEventListener('click', function () { once++; }, {once: true});
		</script>`)
	b := env.doc.ByID("b")

	env.click(b)
	env.eval(t, "b.removeEventListener('click', inc)")
	env.click(b)

	assert.EqualValues(t, 1, env.eval(t, "n"), "duplicate registrations collapse")
	assert.EqualValues(t, 1, env.eval(t, "once"))
}

func TestQuerySelectorUsesCSSMatching(t *testing.T) {
	env := setup(t, `<ul id="list"><li class="x">1</li><li class="x y">2</li><li>3</li></ul>
		<div id="host"><template shadowrootmode="open"><li class="x">hidden</li></template></div>`)

	assert.EqualValues(t, 2, env.eval(t, "document.querySelectorAll('li.x').length"))
	assert.Equal(t, "2", env.eval(t, "document.querySelector('#list > .y').textContent"))
	assert.Equal(t, true, env.eval(t, "document.getElementById('list') === document.querySelector('ul')"))
	assert.EqualValues(t, 3, env.eval(t, "document.getElementById('list').querySelectorAll('li').length"))
	assert.Nil(t, env.eval(t, "document.querySelector('table')"))
}

func TestLocationNavigates(t *testing.T) {
	env := setup(t, ``)

	env.eval(t, "window.location.href = 'next.html'")
	env.eval(t, "location.hash = 'top'")
	env.eval(t, "window.open('/popup', 'side')")

	navs := env.win.Navigations()
	require.Len(t, navs, 3)
	assert.Equal(t, "http://example.test/app/next.html", navs[0].URL)
	assert.Equal(t, "hash", navs[1].Kind)
	assert.Equal(t, "open", navs[2].Kind)
	assert.Equal(t, "http://example.test/app/next.html#top", env.eval(t, "location.href"))
}

func TestStylePropertyWritesInlineStyle(t *testing.T) {
	env := setup(t, `<div id="d" style="width: 10px; height: 10px" onclick="this.style.display = 'none'"></div>`)
	d := env.doc.ByID("d")
	require.NotNil(t, env.doc.Layout().Box(d))

	env.click(d)
	assert.Nil(t, env.doc.Layout().Box(d), "handlers that hide elements take effect immediately")
	assert.Equal(t, "10px", env.eval(t, "document.getElementById('d').style.width"))

	env.eval(t, "document.getElementById('d').style.backgroundColor = 'red'")
	v, _ := dom.Attribute(d, "style")
	assert.Contains(t, v, "background-color: red")
}

func TestTimersDrainAfterHandler(t *testing.T) {
	env := setup(t, `<button id="b" onclick="
		log.push('handler');
		setTimeout(function (x) { log.push('timer ' + x); }, 10, 'arg');
		var id = setTimeout(function () { log.push('cancelled'); }, 0);
		clearTimeout(id);
		log.push('after');
	">b</button><script>var log = [];</script>`)

	env.click(env.doc.ByID("b"))
	assert.Equal(t, []any{"handler", "after", "timer arg"}, env.eval(t, "log"))
}

func TestHandlerErrorsAreReportedNotFatal(t *testing.T) {
	env := setup(t, `<button id="b" onclick="undefinedFn()">b</button><button id="s" onclick="if (">s</button>`)

	assert.True(t, env.click(env.doc.ByID("b")))
	assert.True(t, env.click(env.doc.ByID("s")))
	assert.Equal(t, 2, env.logs.FilterMessage("inline event handler failed").Len())
}

func TestRunHandlerReturnsScriptError(t *testing.T) {
	env := setup(t, `<button id="b">b</button>`)
	_, err := env.host.RunHandler(env.doc, env.doc.ByID("b"), &dom.Event{Type: "click"}, "throw new Error('nope')")

	var se *jsbind.ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "onclick", se.Source)
	assert.Contains(t, se.Message, "nope")
}

func TestRunawayScriptIsInterrupted(t *testing.T) {
	env := setup(t, ``, jsbind.WithTimeout(50*time.Millisecond))
	err := env.host.Eval(env.doc, "while (true) {}")
	assert.ErrorIs(t, err, jsbind.ErrInterrupted)

	// The runtime stays usable.
	require.NoError(t, env.host.Eval(env.doc, "var ok = 1"))
}

func TestSetPointerCaptureDuringPointerDown(t *testing.T) {
	env := setup(t, `<div id="d" onpointerdown="this.setPointerCapture(event.pointerId)"></div>`)
	sink := &sink{}
	env.win.SetCaptureSink(sink)
	d := env.doc.ByID("d")

	env.win.SetPointerActive(1, true)
	env.doc.Dispatch(d, &dom.Event{Type: "pointerdown", Bubbles: true, Cancelable: true,
		Mouse: &dom.MouseData{}, Pointer: &dom.PointerData{PointerID: 1, PointerType: "mouse", IsPrimary: true}})
	assert.Same(t, d, sink.el)

	sink.el = nil
	env.win.SetPointerActive(1, false)
	env.doc.Dispatch(d, &dom.Event{Type: "pointerdown", Pointer: &dom.PointerData{PointerID: 1}})
	assert.Nil(t, sink.el, "inactive pointers cannot be captured")
	assert.Equal(t, 1, env.logs.FilterMessage("inline event handler failed").Len())
}

type sink struct{ el *html.Node }

func (s *sink) SetCapture(_ int64, el *html.Node) { s.el = el }
func (s *sink) Release(int64)                     { s.el = nil }

func TestConsoleLogsThroughZap(t *testing.T) {
	env := setup(t, `<script>console.warn('careful', {a: 1}, [1, 2])</script>`)
	entries := env.logs.FilterMessage("[JS Console]").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, `careful {"a":1} [1,2]`, entries[0].ContextMap()["message"])
}

func TestFocusAndFormStateFromScript(t *testing.T) {
	env := setup(t, `<form id="f"><input id="a" type="checkbox"><select id="s"><option>x</option><option value="y">Y</option></select></form>`)

	env.eval(t, "document.getElementById('a').checked = true")
	env.eval(t, "document.getElementById('s').value = 'y'")
	env.eval(t, "document.getElementById('a').focus()")

	assert.True(t, env.doc.Checked(env.doc.ByID("a")))
	assert.Equal(t, "y", env.doc.Value(env.doc.ByID("s")))
	assert.Same(t, env.doc.ByID("a"), env.doc.ActiveElement())
	assert.Equal(t, "f", env.eval(t, "document.activeElement.form.id"))
}
