package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith-dev/docsmith/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "guide"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "guide", cfg.Name)
	assert.Equal(t, DefaultSource, cfg.Source)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultNotFoundPage, cfg.NotFoundPage)
	assert.Equal(t, DefaultPort, cfg.Serve.Port)
	assert.Equal(t, DefaultHost, cfg.Serve.Host)
	assert.Equal(t, "localhost:3000", cfg.Address())
	assert.Equal(t, "http://localhost:3000", cfg.URL())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)

	var de *errors.DocsmithError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "E001", de.Code)
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": }`)

	_, err := Load(dir)
	require.Error(t, err)

	var de *errors.DocsmithError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "E002", de.Code)
}

func TestLoadInvalidLanguage(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"language": "not a tag!!"}`)

	_, err := Load(dir)
	require.Error(t, err)

	var de *errors.DocsmithError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "E003", de.Code)
}

func TestLoadValidLanguage(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"language": "pt-BR"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", cfg.Language)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCSMITH_PORT", "8080")
	t.Setenv("DOCSMITH_HOST", "0.0.0.0")
	t.Setenv("DOCSMITH_OUTPUT", "public")

	dir := t.TempDir()
	writeConfig(t, dir, `{"serve": {"port": 4000}}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.Equal(t, "0.0.0.0", cfg.Serve.Host)
	assert.Equal(t, "public", cfg.Output)
}

func TestPathsResolveAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"source": "docs", "output": "site"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "docs"), cfg.SourcePath())
	assert.Equal(t, filepath.Join(dir, "site"), cfg.OutputPath())
	assert.Equal(t, dir, cfg.Dir())
}

func TestAbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "elsewhere")
	writeConfig(t, dir, `{"output": `+strconvQuote(out)+`}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, out, cfg.OutputPath())
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
