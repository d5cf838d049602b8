package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSaveFlags_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveFlags(path, map[string]bool{"watch-items": false}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flags:")
	assert.Contains(t, string(data), "watch-items: false")
}

func TestSaveFlags_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# top comment
list:
  overscan_item_count: 4 # keep me
flags:
  persist-caches: true
`
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	require.NoError(t, SaveFlags(path, map[string]bool{"persist-caches": false}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# top comment")
	assert.Contains(t, content, "overscan_item_count: 4 # keep me")
	assert.Contains(t, content, "persist-caches: false")
	assert.NotContains(t, content, "persist-caches: true")
}

func TestSaveList_RoundTripsThroughViper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	list := Defaults().List
	list.OverscanItemCount = 7
	list.ScrollRestoration = false
	require.NoError(t, SaveList(path, list))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, list, cfg.List)
	require.True(t, cfg.UI.ShowScrollbar)
}

func TestSaveFlags_RejectsNonMappingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

	err := SaveFlags(path, map[string]bool{"x": true})
	require.ErrorContains(t, err, "not a mapping")
}

func TestSaveFlags_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveFlags(path, map[string]bool{"a": true}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeDocument_ReportsWriteErrors(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("flags:\n  watch-items: true\n"), &doc))

	err := encodeDocument(failingWriter{}, &doc)
	require.ErrorContains(t, err, "marshaling config")
	require.ErrorContains(t, err, "disk full")
}
