package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stencil/internal/config"
	"stencil/internal/diffview"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFixture(t *testing.T) (*config.Config, *Engine, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	var buf bytes.Buffer
	return cfg, New(cfg, WithOutput(&buf)), &buf
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRenderOneWritesOutput(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	writeFile(t, cfg.TemplatePath("greeting"), "Hello {{.name}}!\n")
	writeFile(t, cfg.VariablePath("greeting", "default"), `{"name": "World"}`)

	ok := eng.RenderOne("greeting", "default", false)

	assert.True(t, ok)
	assert.Equal(t, "Hello World!\n", readFile(t, cfg.OutputPath("greeting", "default")))
	assert.Contains(t, buf.String(), "greeting/default.md (changed)")
}

func TestRenderOneIdempotent(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	writeFile(t, cfg.TemplatePath("greeting"), "Hello {{.name}}!\n")
	writeFile(t, cfg.VariablePath("greeting", "default"), `{"name": "World"}`)

	require.True(t, eng.RenderOne("greeting", "default", false))
	first := readFile(t, cfg.OutputPath("greeting", "default"))
	buf.Reset()

	require.True(t, eng.RenderOne("greeting", "default", false))

	assert.Equal(t, first, readFile(t, cfg.OutputPath("greeting", "default")))
	assert.Contains(t, buf.String(), "(unchanged)")
	assert.NoFileExists(t, diffview.SnapshotPath(cfg.OutputPath("greeting", "default")),
		"no snapshot when nothing changed")
}

func TestRenderOneChangeDetection(t *testing.T) {
	cfg, eng, _ := newFixture(t)
	writeFile(t, cfg.TemplatePath("greeting"), "Hello {{.name}}!\n")
	writeFile(t, cfg.VariablePath("greeting", "default"), `{"name": "Alpha"}`)
	require.True(t, eng.RenderOne("greeting", "default", false))

	writeFile(t, cfg.VariablePath("greeting", "default"), `{"name": "Beta"}`)
	require.True(t, eng.RenderOne("greeting", "default", false))

	outputPath := cfg.OutputPath("greeting", "default")
	assert.Equal(t, "Hello Beta!\n", readFile(t, outputPath))
	assert.Equal(t, "Hello Alpha!\n", readFile(t, diffview.SnapshotPath(outputPath)))
}

func TestRenderOneWritesErrorDocument(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	writeFile(t, cfg.TemplatePath("doc"), "{{.missing}}")
	writeFile(t, cfg.VariablePath("doc", "default"), `{}`)

	ok := eng.RenderOne("doc", "default", false)

	assert.False(t, ok)
	content := readFile(t, cfg.OutputPath("doc", "default"))
	assert.Contains(t, content, "<!-- RENDER ERROR: doc/default -->")
	assert.Contains(t, buf.String(), "doc/default.md (changed)")
}

func TestRenderOneShowsDiffOnChange(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	writeFile(t, cfg.TemplatePath("greeting"), "Hello {{.name}}!\n")
	writeFile(t, cfg.VariablePath("greeting", "default"), `{"name": "Alpha"}`)
	require.True(t, eng.RenderOne("greeting", "default", true))
	buf.Reset()

	writeFile(t, cfg.VariablePath("greeting", "default"), `{"name": "Beta"}`)
	require.True(t, eng.RenderOne("greeting", "default", true))

	out := buf.String()
	assert.Contains(t, out, "-Hello Alpha!")
	assert.Contains(t, out, "+Hello Beta!")
}

func TestRenderAllEmpty(t *testing.T) {
	_, eng, buf := newFixture(t)

	assert.False(t, eng.RenderAll(false))
	assert.Contains(t, buf.String(), "No templates found")
}

func TestRenderAllSortedWithHeaders(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	for _, name := range []string{"zeta", "alpha"} {
		writeFile(t, cfg.TemplatePath(name), "hi")
		writeFile(t, cfg.VariablePath(name, "default"), `{}`)
	}

	assert.True(t, eng.RenderAll(false))

	out := buf.String()
	assert.Less(t, bytes.Index([]byte(out), []byte("alpha:")), bytes.Index([]byte(out), []byte("zeta:")))
}

func TestRenderAllErrorIsolation(t *testing.T) {
	cfg, eng, _ := newFixture(t)
	writeFile(t, cfg.TemplatePath("doc"), "Hello {{.name}}!\n")
	writeFile(t, cfg.VariablePath("doc", "default"), `{"name": "World"}`)
	writeFile(t, cfg.VariablePath("doc", "broken"), `{not json`)

	ok := eng.RenderAll(false)

	assert.False(t, ok, "one failed variant fails the batch")
	assert.Equal(t, "Hello World!\n", readFile(t, cfg.OutputPath("doc", "default")),
		"valid sibling still rendered")
	assert.Contains(t, readFile(t, cfg.OutputPath("doc", "broken")), "<!-- RENDER ERROR: doc/broken -->")
}

func TestRenderTemplateUnknown(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	writeFile(t, cfg.TemplatePath("known"), "hi")
	writeFile(t, cfg.VariablePath("known", "default"), `{}`)

	assert.False(t, eng.RenderTemplate("mystery", "", false))

	out := buf.String()
	assert.Contains(t, out, "Template 'mystery' not found.")
	assert.Contains(t, out, "Available: known")
}

func TestRenderTemplateUnknownVariant(t *testing.T) {
	cfg, eng, buf := newFixture(t)
	writeFile(t, cfg.TemplatePath("doc"), "hi")
	writeFile(t, cfg.VariablePath("doc", "default"), `{}`)

	assert.False(t, eng.RenderTemplate("doc", "verbose", false))
	assert.Contains(t, buf.String(), "Variant 'verbose' not found for doc")
	assert.NoFileExists(t, cfg.OutputPath("doc", "verbose"))
}

func TestRenderTemplateAllVariants(t *testing.T) {
	cfg, eng, _ := newFixture(t)
	writeFile(t, cfg.TemplatePath("doc"), "v")
	writeFile(t, cfg.VariablePath("doc", "default"), `{}`)
	writeFile(t, cfg.VariablePath("doc", "alt"), `{}`)

	assert.True(t, eng.RenderTemplate("doc", "", false))
	assert.FileExists(t, cfg.OutputPath("doc", "default"))
	assert.FileExists(t, cfg.OutputPath("doc", "alt"))
}

func TestQuietSuppressesOutput(t *testing.T) {
	cfg := config.Default(t.TempDir())
	var buf bytes.Buffer
	eng := New(cfg, WithOutput(&buf), WithQuiet(true))
	writeFile(t, cfg.TemplatePath("doc"), "hi")
	writeFile(t, cfg.VariablePath("doc", "default"), `{}`)

	assert.True(t, eng.RenderAll(false))
	assert.Empty(t, buf.String())
	assert.FileExists(t, cfg.OutputPath("doc", "default"), "quiet still renders")
}
