// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty working and home directory so no stray
// synthctl.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SYNTHCTL_LOGGER_LEVEL", "error")
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Chdir(dir)
	return dir
}

// executeCommand runs a fresh command tree and returns what it printed.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCmd_VersionFlag(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t, "version", "--config", "does-not-exist.yaml")
	require.NoError(t, err, "version needs no configuration")
	assert.Equal(t, "synthctl version "+Version+"\n", out)
}

func TestRootCmd_NoArgs(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "synthctl drives synthetic user input")
	for _, sub := range []string{"run", "inspect", "keys", "replay", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRequiredArgsAndFlags(t *testing.T) {
	isolate(t)

	_, err := executeCommand(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s), only received 0")

	_, err = executeCommand(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "html", "xpath" not set`)

	_, err = executeCommand(t, "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s), received 0")
}

func TestConfigErrors(t *testing.T) {
	dir := isolate(t)

	_, err := executeCommand(t, "keys", "--config", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")

	_, err = executeCommand(t, "keys", "--platform", "lynx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown platform "lynx"`)

	t.Setenv("SYNTHCTL_RUNNER_CONCURRENCY", "0")
	_, err = executeCommand(t, "keys")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runner.concurrency must be a positive integer")
}

func TestGetConfigFromContext(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.ErrorContains(t, err, "configuration not found")

	//nolint:staticcheck // a nil context is what an unconfigured command carries
	_, err = getConfigFromContext(nil)
	assert.ErrorContains(t, err, "context is not set")
}
