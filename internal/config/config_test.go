package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlgen/internal/config"
)

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sqlgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("header: myapp\nno-color: true\n"), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "myapp", f.Header)
	assert.True(t, f.NoColor)
}

func TestApplyDefaultsDoesNotOverrideExplicitFlags(t *testing.T) {
	f := &config.File{Header: "fromfile", NoColor: true}
	header := "fromcli"
	manifest := ""
	outHeader := ""
	outSource := ""
	noColor := false

	config.ApplyDefaults(f, &header, &manifest, &outHeader, &outSource, &noColor)

	assert.Equal(t, "fromcli", header)
	assert.True(t, noColor)
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	f := &config.File{Manifest: "manifest.go"}
	header := ""
	manifest := ""
	outHeader := ""
	outSource := ""
	noColor := false

	config.ApplyDefaults(f, &header, &manifest, &outHeader, &outSource, &noColor)

	assert.Equal(t, "manifest.go", manifest)
}
