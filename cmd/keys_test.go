// cmd/keys_test.go
package cmd

import (
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyCodes(t *testing.T, args ...string) (string, map[string]int) {
	t.Helper()
	out, err := executeCommand(t, append([]string{"keys", "--json"}, args...)...)
	require.NoError(t, err)

	var table struct {
		Platform string   `json:"platform"`
		Keys     []keyRow `json:"keys"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	codes := make(map[string]int, len(table.Keys))
	for _, k := range table.Keys {
		codes[k.Name] = k.KeyCode
	}
	return table.Platform, codes
}

func TestKeysCmd(t *testing.T) {
	dir := isolate(t)

	name, codes := keyCodes(t)
	assert.Equal(t, "chrome", name)
	assert.Equal(t, 13, codes["ENTER"])
	assert.Equal(t, 186, codes["SEMICOLON"])

	name, codes = keyCodes(t, "--platform", "FireFox")
	assert.Equal(t, "firefox", name)
	assert.Equal(t, 59, codes["SEMICOLON"])
	assert.Equal(t, 13, codes["ENTER"])

	cfgPath := writeFile(t, dir, "custom.yaml", "engine:\n  platform: firefox\n")
	name, _ = keyCodes(t, "--config", cfgPath)
	assert.Equal(t, "firefox", name)
}

func TestKeysCmd_Table(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t, "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "Key table for chrome")
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `SEMICOLON\s+186\s+";"\s+":"`, out)
	assert.Regexp(t, `ENTER\s+13\s+-\s+-\s+Enter`, out)
}
