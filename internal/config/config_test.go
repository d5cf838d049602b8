package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, 3.0, cfg.List.EstimatedItemHeight)
	require.Equal(t, 2, cfg.List.OverscanItemCount)
	require.True(t, cfg.List.ScrollRestoration)
	require.True(t, cfg.List.MeasureItems)
	require.Equal(t, 1, cfg.List.ItemsBeforeFirstProjection)
	require.Equal(t, 32, cfg.List.MaxScrollIterations)
	require.Equal(t, 16*time.Millisecond, cfg.UI.FrameInterval)
	require.Equal(t, "dark", cfg.UI.MarkdownStyle)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, tracing.ExporterFile, cfg.Tracing.Exporter)
	require.True(t, cfg.Flags[flags.FlagPersistCaches])
	require.NoError(t, Validate(cfg))
}

func TestValidateList(t *testing.T) {
	valid := Defaults().List

	tests := []struct {
		name    string
		mutate  func(*ListConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*ListConfig) {}},
		{name: "zero estimate", mutate: func(l *ListConfig) { l.EstimatedItemHeight = 0 }, wantErr: "estimated_item_height"},
		{name: "negative overscan", mutate: func(l *ListConfig) { l.OverscanItemCount = -1 }, wantErr: "overscan_item_count"},
		{name: "negative initial position", mutate: func(l *ListConfig) { l.InitialScrollPosition = -5 }, wantErr: "initial_scroll_position"},
		{name: "negative items before projection", mutate: func(l *ListConfig) { l.ItemsBeforeFirstProjection = -1 }, wantErr: "items_before_first_projection"},
		{name: "zero iterations", mutate: func(l *ListConfig) { l.MaxScrollIterations = 0 }, wantErr: "max_scroll_iterations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			tt.mutate(&l)
			err := ValidateList(l)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     tracing.Config
		wantErr string
	}{
		{name: "empty is valid", cfg: tracing.Config{}},
		{name: "sample rate too high", cfg: tracing.Config{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "unknown exporter", cfg: tracing.Config{Exporter: "zipkin"}, wantErr: "exporter must be"},
		{name: "file exporter needs path when enabled", cfg: tracing.Config{Enabled: true, Exporter: "file"}, wantErr: "file_path is required"},
		{name: "file exporter without path when disabled", cfg: tracing.Config{Exporter: "file"}},
		{name: "otlp needs endpoint", cfg: tracing.Config{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint is required"},
		{name: "stdout", cfg: tracing.Config{Enabled: true, Exporter: "stdout", SampleRate: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateUI(t *testing.T) {
	ui := Defaults().UI
	require.NoError(t, ValidateUI(ui))

	ui.MarkdownStyle = "neon"
	require.ErrorContains(t, ValidateUI(ui), "markdown_style")

	ui = Defaults().UI
	ui.FrameInterval = 0
	require.ErrorContains(t, ValidateUI(ui), "frame_interval")
}

func TestValidate_NegativeDebounce(t *testing.T) {
	cfg := Defaults()
	cfg.Watch.Debounce = -time.Second
	require.ErrorContains(t, Validate(cfg), "watch.debounce")
}

func TestLoad_TemplateMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	want := Defaults()
	require.Equal(t, want.List, cfg.List)
	require.Equal(t, want.UI, cfg.UI)
	require.Equal(t, want.Watch, cfg.Watch)
	require.Equal(t, want.Flags, cfg.Flags)
}

func TestLoad_OverridesAndValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("list:\n  overscan_item_count: 5\nui:\n  frame_interval: 40ms\n"), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.List.OverscanItemCount)
	require.Equal(t, 40*time.Millisecond, cfg.UI.FrameInterval)
	require.Equal(t, 3.0, cfg.List.EstimatedItemHeight)

	v.Set("list.estimated_item_height", -1)
	_, err = Load(v)
	require.ErrorContains(t, err, "estimated_item_height")
}

func TestWriteDefaultConfig_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	doc := string(out)
	require.Equal(t, "vscroll configuration", gjson.Get(doc, "title").String())
	require.Equal(t, "number", gjson.Get(doc, "properties.list.properties.estimated_item_height.type").String())
	require.True(t, gjson.Get(doc, "properties.tracing.properties.exporter.enum").IsArray())
	require.Equal(t, "boolean", gjson.Get(doc, "properties.ui.properties.show_scrollbar.type").String())
}
