package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

func TestNavigateResolvesAgainstDocumentURL(t *testing.T) {
	w, d := loadWindow(t, `<a id="a" href="next.html">n</a>`)
	require.NoError(t, d.FollowHref(d.ByID("a")))

	navs := w.Navigations()
	require.Len(t, navs, 1)
	assert.Equal(t, dom.Navigation{Kind: "load", URL: "http://example.test/next.html"}, navs[0])
	assert.Equal(t, "http://example.test/next.html", d.URL.String())
}

func TestHashOnlyNavigation(t *testing.T) {
	w, d := loadWindow(t, `<a id="a" href="#section">n</a>`)
	require.NoError(t, d.FollowHref(d.ByID("a")))
	assert.Equal(t, "hash", w.Navigations()[0].Kind)
	assert.Equal(t, "section", d.URL.Fragment)
}

func TestNavigateTargets(t *testing.T) {
	w, d := loadWindow(t, `
		<a id="blank" href="/b" target="_blank">b</a>
		<a id="named" href="/n" target="popup">n</a>
		<a id="again" href="/n2" target="popup">n</a>
		<a id="framed" href="/f" target="inner">f</a>
		<iframe name="inner" srcdoc="&lt;a id='up' href='/top' target='_top'&gt;t&lt;/a&gt;"></iframe>`)

	require.NoError(t, d.FollowHref(d.ByID("blank")))
	require.NoError(t, d.FollowHref(d.ByID("named")))
	require.NoError(t, d.FollowHref(d.ByID("again")))
	require.NoError(t, d.FollowHref(d.ByID("framed")))

	popups := w.Popups()
	require.Len(t, popups, 2)
	assert.Equal(t, "", popups[0].Name)
	assert.Equal(t, "popup", popups[1].Name)
	assert.Equal(t, "http://example.test/n2", popups[1].Document().URL.String(), "named targets reuse the window")
	assert.Same(t, w, popups[1].Opener())

	frame, err := d.Find("//iframe")
	require.NoError(t, err)
	fd, err := w.FrameDocument(frame)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/f", fd.URL.String())

	require.NoError(t, fd.FollowHref(fd.ByID("up")))
	assert.Equal(t, "http://example.test/top", d.URL.String())

	kinds := []string{}
	for _, n := range w.Navigations() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []string{"open", "open", "load", "load"}, kinds)
	assert.Equal(t, "/html[1]/body[1]/iframe[1]", w.Navigations()[2].Frame)
}

func TestJavascriptURLRunsScript(t *testing.T) {
	scripts := &fakeScripts{}
	w, d := loadWindow(t, `<a id="a" href="javascript:go(%22x%22)">js</a>`, dom.WithScriptHost(scripts))

	require.NoError(t, d.FollowHref(d.ByID("a")))
	assert.Equal(t, []string{`go("x")`}, scripts.evals)
	assert.Equal(t, "http://example.test/page.html", d.URL.String())
	assert.Equal(t, "javascript", w.Navigations()[0].Kind)
}

func TestFollowHrefWithoutHrefDoesNothing(t *testing.T) {
	w, d := loadWindow(t, `<a id="a">plain</a>`)
	require.NoError(t, d.FollowHref(d.ByID("a")))
	assert.Empty(t, w.Navigations())
}
