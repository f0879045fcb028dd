package dom_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

const nested = `<div id="outer"><div id="inner"><button id="btn">b</button></div></div>`

func trace(d *dom.Document, log *[]string, n *html.Node, typ string, capture bool) {
	id, _ := dom.Attribute(n, "id")
	if n == d.Root {
		id = "#document"
	}
	d.AddEventListener(n, typ, func(ev *dom.Event) {
		*log = append(*log, id+":"+ev.Phase.String())
	}, dom.ListenerOptions{Capture: capture})
}

func TestDispatchPhases(t *testing.T) {
	_, d := loadWindow(t, nested)
	var log []string
	for _, n := range []*html.Node{d.Root, d.ByID("outer"), d.ByID("btn")} {
		trace(d, &log, n, "click", true)
		trace(d, &log, n, "click", false)
	}

	ok := d.Dispatch(d.ByID("btn"), &dom.Event{Type: "click", Bubbles: true, Cancelable: true})
	assert.True(t, ok)
	assert.Equal(t, []string{
		"#document:capturing", "outer:capturing", "btn:at-target",
		"btn:at-target", "outer:bubbling", "#document:bubbling",
	}, log)
}

func TestDispatchNonBubblingSkipsAncestorsOnBubble(t *testing.T) {
	_, d := loadWindow(t, nested)
	var log []string
	trace(d, &log, d.ByID("outer"), "focus", true)
	trace(d, &log, d.ByID("outer"), "focus", false)
	trace(d, &log, d.ByID("btn"), "focus", false)

	d.Dispatch(d.ByID("btn"), &dom.Event{Type: "focus"})
	assert.Equal(t, []string{"outer:capturing", "btn:at-target"}, log)
}

func TestStopPropagation(t *testing.T) {
	_, d := loadWindow(t, nested)
	var log []string
	btn := d.ByID("btn")
	d.AddEventListener(btn, "click", func(ev *dom.Event) {
		log = append(log, "first")
		ev.StopPropagation()
	}, dom.ListenerOptions{})
	d.AddEventListener(btn, "click", func(*dom.Event) { log = append(log, "second") }, dom.ListenerOptions{})
	trace(d, &log, d.ByID("outer"), "click", false)

	d.Dispatch(btn, &dom.Event{Type: "click", Bubbles: true})
	assert.Equal(t, []string{"first", "second"}, log, "same-node listeners still run")

	log = nil
	d.AddEventListener(btn, "mouseup", func(ev *dom.Event) {
		log = append(log, "first")
		ev.StopImmediatePropagation()
	}, dom.ListenerOptions{})
	d.AddEventListener(btn, "mouseup", func(*dom.Event) { log = append(log, "second") }, dom.ListenerOptions{})
	d.Dispatch(btn, &dom.Event{Type: "mouseup", Bubbles: true})
	assert.Equal(t, []string{"first"}, log)
}

func TestPreventDefaultRequiresCancelable(t *testing.T) {
	_, d := loadWindow(t, nested)
	btn := d.ByID("btn")
	d.AddEventListener(d.Root, "click", func(ev *dom.Event) { ev.PreventDefault() }, dom.ListenerOptions{})

	assert.False(t, d.Dispatch(btn, &dom.Event{Type: "click", Bubbles: true, Cancelable: true}))
	assert.True(t, d.Dispatch(btn, &dom.Event{Type: "click", Bubbles: true, Cancelable: false}))
}

func TestOnceAndRemove(t *testing.T) {
	_, d := loadWindow(t, nested)
	btn := d.ByID("btn")
	var once, removed int
	d.AddEventListener(btn, "click", func(*dom.Event) { once++ }, dom.ListenerOptions{Once: true})
	remove := d.AddEventListener(btn, "click", func(*dom.Event) { removed++ }, dom.ListenerOptions{})

	d.Dispatch(btn, &dom.Event{Type: "click"})
	remove()
	d.Dispatch(btn, &dom.Event{Type: "click"})

	assert.Equal(t, 1, once)
	assert.Equal(t, 1, removed)
	assert.False(t, d.HasListeners(btn, "click"))
}

func TestShadowRetargeting(t *testing.T) {
	_, d := loadWindow(t, `<div id="host"><template shadowrootmode="open"><span id="inside">x</span></template></div>`)
	host := d.ByID("host")
	inside := mustFind(t, d, "//span[@id='inside']")

	var seenAtHost, seenAtDoc *html.Node
	var seenInside *html.Node
	d.AddEventListener(host, "click", func(ev *dom.Event) { seenAtHost = ev.Target }, dom.ListenerOptions{})
	d.AddEventListener(d.Root, "click", func(ev *dom.Event) { seenAtDoc = ev.Target }, dom.ListenerOptions{})
	d.AddEventListener(inside, "click", func(ev *dom.Event) { seenInside = ev.Target }, dom.ListenerOptions{})

	ev := &dom.Event{Type: "click", Bubbles: true, Composed: true}
	d.Dispatch(inside, ev)
	assert.Same(t, inside, seenInside)
	assert.Same(t, host, seenAtHost)
	assert.Same(t, host, seenAtDoc)
	assert.Same(t, host, ev.Target, "after dispatch the target is retargeted for the document")
	assert.Same(t, inside, ev.OriginalTarget())

	seenAtDoc = nil
	d.Dispatch(inside, &dom.Event{Type: "click", Bubbles: true, Composed: false})
	assert.Nil(t, seenAtDoc, "non-composed events stop at the shadow root")
}

func TestListenerPanicIsLoggedAndDispatchContinues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	_, d := loadWindow(t, nested, dom.WithLogger(zap.New(core)))
	btn := d.ByID("btn")
	reached := false
	d.AddEventListener(btn, "click", func(*dom.Event) { panic("boom") }, dom.ListenerOptions{})
	d.AddEventListener(d.Root, "click", func(*dom.Event) { reached = true }, dom.ListenerOptions{})

	d.Dispatch(btn, &dom.Event{Type: "click", Bubbles: true})
	assert.True(t, reached)
	require.Equal(t, 1, logs.FilterMessage("event listener panicked").Len())
}

func TestObserversSeeEverySequencedDispatch(t *testing.T) {
	w, d := loadWindow(t, nested)
	var types []string
	var seqs []int64
	stop := w.Observe(func(_ *dom.Document, ev *dom.Event) {
		types = append(types, ev.Type)
		seqs = append(seqs, ev.Seq)
	})
	btn := d.ByID("btn")
	d.Dispatch(btn, &dom.Event{Type: "mousedown"})
	d.Dispatch(btn, &dom.Event{Type: "mouseup"})
	stop()
	d.Dispatch(btn, &dom.Event{Type: "click"})

	assert.Equal(t, []string{"mousedown", "mouseup"}, types)
	require.Len(t, seqs, 2)
	assert.Less(t, seqs[0], seqs[1])
}

// fakeScripts treats handler bodies as directives.
type fakeScripts struct {
	ran   []string
	evals []string
}

func (f *fakeScripts) RunHandler(_ *dom.Document, el *html.Node, ev *dom.Event, body string) (bool, error) {
	f.ran = append(f.ran, ev.Type+":"+body)
	switch body {
	case "cancel":
		return false, nil
	case "fail":
		return true, errors.New("ReferenceError: nope is not defined")
	case "stop":
		ev.StopImmediatePropagation()
	}
	return true, nil
}

func (f *fakeScripts) Eval(_ *dom.Document, src string) error {
	f.evals = append(f.evals, src)
	return nil
}

func TestInlineHandlers(t *testing.T) {
	scripts := &fakeScripts{}
	core, logs := observer.New(zapcore.WarnLevel)
	_, d := loadWindow(t, `<form id="f" onsubmit="cancel"><button id="b" onclick="fail">x</button></form>
		<a id="a" onclick="stop">a</a><script>boot()</script>`,
		dom.WithScriptHost(scripts), dom.WithLogger(zap.New(core)))

	assert.Equal(t, []string{"boot()"}, scripts.evals)

	assert.False(t, d.Dispatch(d.ByID("f"), &dom.Event{Type: "submit", Bubbles: true, Cancelable: true}))
	assert.True(t, d.Dispatch(d.ByID("b"), &dom.Event{Type: "click", Bubbles: true, Cancelable: true}))
	assert.Equal(t, 1, logs.FilterMessage("inline event handler failed").Len())

	listenerRan := false
	a := d.ByID("a")
	d.AddEventListener(a, "click", func(*dom.Event) { listenerRan = true }, dom.ListenerOptions{})
	d.Dispatch(a, &dom.Event{Type: "click", Bubbles: true})
	assert.False(t, listenerRan, "inline handlers run before listeners")
	assert.Contains(t, scripts.ran, "click:stop")
	assert.True(t, d.HasListeners(d.ByID("b"), "click"))
}
