package dom_test

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/synthinput/internal/browser/dom"
)

const xpathHTML = `
	<html>
	<body>
		<div id="header">
			<h1>Welcome</h1>
		</div>
		<div class="content">
			<p>P1</p><p>P2</p>
			<ul>
				<li>Item 1</li>
				<li>Item 2</li>
				<li id="special">Item 3</li>
			</ul>
		</div>
		<div class="content"><p>P3</p><span id="dup"></span><span id="dup"></span></div>
		<div id="host"><template shadowrootmode="open"><b id="inner">x</b></template></div>
	</body>
	</html>
	`

func TestXPath(t *testing.T) {
	doc, err := htmlquery.Parse(strings.NewReader(xpathHTML))
	require.NoError(t, err)

	tests := []struct {
		name          string
		targetXPath   string
		expectedXPath string
	}{
		{"Body", "//body", "/html[1]/body[1]"},
		{"Element with ID", "//div[@id='header']", `//*[@id='header']`},
		{"Child of ID element", "//h1", `//*[@id='header']/h1[1]`},
		{"Specific index", "(//p)[2]", "/html[1]/body[1]/div[2]/p[2]"},
		{"Ambiguous classes", "(//div[@class='content'])[2]/p", "/html[1]/body[1]/div[3]/p[1]"},
		{"List item", "//ul/li[2]", "/html[1]/body[1]/div[2]/ul[1]/li[2]"},
		{"List item with ID", "//li[@id='special']", `//*[@id='special']`},
		{"Duplicate ids fall back to position", "(//span[@id='dup'])[2]", "/html[1]/body[1]/div[3]/span[2]"},
		{"Shadow tree ids are not anchors", "//b[@id='inner']", `//*[@id='host']/template[1]/b[1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := htmlquery.FindOne(doc, tt.targetXPath)
			require.NotNil(t, target, "setup: nothing matches %s", tt.targetXPath)

			got := dom.XPath(target)
			assert.Equal(t, tt.expectedXPath, got)
			assert.Same(t, target, htmlquery.FindOne(doc, got), "generated XPath must select the original node")
		})
	}

	assert.Equal(t, "/", dom.XPath(doc))
	assert.Equal(t, "", dom.XPath(nil))
}
