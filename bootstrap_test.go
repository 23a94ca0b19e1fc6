package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestParsesSteps(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(`
steps:
  - name: greeting
    staticInit: true
  - name: cycle
`))
	require.NoError(t, err)
	require.Len(t, m.Steps, 2)
	assert.Equal(t, "greeting", m.Steps[0].Name)
	assert.True(t, m.Steps[0].StaticInit)
	assert.False(t, m.Steps[1].StaticInit)
}

func TestRunManifestSkipsEmptySteps(t *testing.T) {
	b := NewBootstrap()
	ran := false
	b.Register("empty", func(ctx *Context) error {
		ran = true
		return nil
	})

	dir := t.TempDir()
	err := b.RunManifest(&Manifest{Steps: []StepSpec{{Name: "empty"}}}, dir)
	require.NoError(t, err)
	assert.True(t, ran)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunManifestWritesGeneratedFileForNonEmptyStep(t *testing.T) {
	b := NewBootstrap()
	b.Register("greeting", func(ctx *Context) error {
		p := GetRecordingProxy[greeterIface](ctx, "greetingpkg.NewReal()", "example.com/greetingpkg")
		p.SayHello("ada")
		return nil
	})

	dir := t.TempDir()
	err := b.RunManifest(&Manifest{Steps: []StepSpec{{Name: "greeting"}}}, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "greeting_startup.go")
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "SayHello")
}

func TestRunManifestErrorsForUnregisteredStep(t *testing.T) {
	b := NewBootstrap()
	err := b.RunManifest(&Manifest{Steps: []StepSpec{{Name: "missing"}}}, t.TempDir())
	assert.Error(t, err)
}
