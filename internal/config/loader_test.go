package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deploymentCUE = `
levels: ["U", "C", "S", "TS"]
clamp:      "TS"
homeNation: "USA"
`

const databasesCUE = `
databases: {
	intel: {
		classificationEnabled: true
		ceiling:               "S"
	}
	staging: {
		classificationEnabled: false
	}
}
`

func TestLoadUnifiesSplitFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.cue"), []byte(deploymentCUE), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "databases.cue"), []byte(databasesCUE), 0644))

	dep, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"U", "C", "S", "TS"}, dep.Levels)
	assert.Equal(t, "TS", dep.Clamp)
	assert.Equal(t, "USA", dep.HomeNation)
	require.Contains(t, dep.Databases, "intel")
	assert.Equal(t, "S", dep.Databases["intel"].Ceiling)
	assert.False(t, dep.Databases["staging"].ClassificationEnabled)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	bad := `
levels: ["U", "S"]
clamp:      "ULTRA"
homeNation: "USA"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.cue"), []byte(bad), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clamp")
}

func TestLoadEmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
