package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigCUE = `
levels: ["U", "C", "S", "TS"]
clamp:      "TS"
homeNation: "USA"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.cue"), []byte(content), 0644))
	return dir
}

func TestValidateCommandAcceptsGoodConfig(t *testing.T) {
	dir := writeTestConfig(t, testConfigCUE)

	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"validate", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "configuration valid")
}

func TestValidateCommandRejectsBadConfig(t *testing.T) {
	dir := writeTestConfig(t, `
levels: ["U", "S"]
clamp:      "ULTRA"
homeNation: "USA"
`)

	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"validate", dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateCommandJSONOutput(t *testing.T) {
	dir := writeTestConfig(t, testConfigCUE)

	out := new(bytes.Buffer)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--format", "json", "validate", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"valid": true`)
}
