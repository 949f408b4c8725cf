package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"stencil/internal/config"
)

func writeFixture(t *testing.T, cfg *config.Config) {
	t.Helper()
	for _, path := range []string{cfg.TemplatePath("planner")} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{{.title}}"), 0o644))
	}
	for _, variant := range []string{"default", "compact"} {
		path := cfg.VariablePath("planner", variant)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
}

func TestRunListTable(t *testing.T) {
	cfg := config.Default(t.TempDir())
	writeFixture(t, cfg)

	var buf bytes.Buffer
	require.NoError(t, runList(cfg, "table", &buf))

	out := buf.String()
	assert.Contains(t, out, "planner:")
	assert.Contains(t, out, "- compact")
	assert.Contains(t, out, "- default")
}

func TestRunListJSON(t *testing.T) {
	cfg := config.Default(t.TempDir())
	writeFixture(t, cfg)

	var buf bytes.Buffer
	require.NoError(t, runList(cfg, "json", &buf))

	var catalog map[string][]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &catalog))
	assert.Equal(t, []string{"compact", "default"}, catalog["planner"])
}

func TestRunListYAML(t *testing.T) {
	cfg := config.Default(t.TempDir())
	writeFixture(t, cfg)

	var buf bytes.Buffer
	require.NoError(t, runList(cfg, "yaml", &buf))

	var catalog map[string][]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &catalog))
	assert.Equal(t, []string{"compact", "default"}, catalog["planner"])
}

func TestRunListEmpty(t *testing.T) {
	cfg := config.Default(t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, runList(cfg, "table", &buf))
	assert.Contains(t, buf.String(), "No templates found.")
}

func TestRunListUnknownFormat(t *testing.T) {
	cfg := config.Default(t.TempDir())

	var buf bytes.Buffer
	err := runList(cfg, "csv", &buf)
	assert.ErrorContains(t, err, "unknown format")
}
