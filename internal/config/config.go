// Package config provides configuration types and defaults for vscroll.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/tracing"
)

// Config holds all configuration options for vscroll.
type Config struct {
	List    ListConfig      `mapstructure:"list" yaml:"list" json:"list"`
	Store   StoreConfig     `mapstructure:"store" yaml:"store" json:"store"`
	Tracing tracing.Config  `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
	UI      UIConfig        `mapstructure:"ui" yaml:"ui" json:"ui"`
	Watch   WatchConfig     `mapstructure:"watch" yaml:"watch" json:"watch"`
	Flags   map[string]bool `mapstructure:"flags" yaml:"flags,omitempty" json:"flags,omitempty"`
}

// ListConfig holds the virtual list options. Sizes are in terminal rows.
type ListConfig struct {
	EstimatedItemHeight        float64 `mapstructure:"estimated_item_height" yaml:"estimated_item_height" json:"estimated_item_height" jsonschema:"exclusiveMinimum=0"`
	OverscanItemCount          int     `mapstructure:"overscan_item_count" yaml:"overscan_item_count" json:"overscan_item_count" jsonschema:"minimum=0"`
	InitialScrollPosition      float64 `mapstructure:"initial_scroll_position" yaml:"initial_scroll_position" json:"initial_scroll_position" jsonschema:"minimum=0"`
	ScrollRestoration          bool    `mapstructure:"scroll_restoration" yaml:"scroll_restoration" json:"scroll_restoration"`
	MeasureItems               bool    `mapstructure:"measure_items" yaml:"measure_items" json:"measure_items"`
	ItemsBeforeFirstProjection int     `mapstructure:"items_before_first_projection" yaml:"items_before_first_projection" json:"items_before_first_projection" jsonschema:"minimum=0"`
	MaxScrollIterations        int     `mapstructure:"max_scroll_iterations" yaml:"max_scroll_iterations" json:"max_scroll_iterations" jsonschema:"minimum=1"`
}

// StoreConfig locates the cache snapshot database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path" json:"path,omitempty"`
}

// UIConfig holds terminal host options.
type UIConfig struct {
	Markdown      bool          `mapstructure:"markdown" yaml:"markdown" json:"markdown"`
	MarkdownStyle string        `mapstructure:"markdown_style" yaml:"markdown_style" json:"markdown_style" jsonschema:"enum=dark,enum=light,enum=notty"`
	ShowScrollbar bool          `mapstructure:"show_scrollbar" yaml:"show_scrollbar" json:"show_scrollbar"`
	FrameInterval time.Duration `mapstructure:"frame_interval" yaml:"frame_interval" json:"frame_interval"`
}

// WatchConfig controls reloading of item files.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

// DefaultDir returns ~/.config/vscroll, or an empty string without a home
// directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vscroll")
}

// DefaultStorePath returns the snapshot database path under DefaultDir.
func DefaultStorePath() string {
	dir := DefaultDir()
	if dir == "" {
		return filepath.Join(".vscroll", "caches.db")
	}
	return filepath.Join(dir, "caches.db")
}

// DefaultTracesFilePath returns the JSONL trace file path under DefaultDir.
func DefaultTracesFilePath() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with the default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		List: ListConfig{
			EstimatedItemHeight:        3,
			OverscanItemCount:          2,
			ScrollRestoration:          true,
			MeasureItems:               true,
			ItemsBeforeFirstProjection: 1,
			MaxScrollIterations:        32,
		},
		Store:   StoreConfig{Path: DefaultStorePath()},
		Tracing: tc,
		UI: UIConfig{
			Markdown:      true,
			MarkdownStyle: "dark",
			ShowScrollbar: true,
			FrameInterval: 16 * time.Millisecond,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 100 * time.Millisecond,
		},
		Flags: flags.Defaults(),
	}
}

// SetDefaults registers every default on v so that env variables and flags
// can override keys missing from the file.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("list.estimated_item_height", d.List.EstimatedItemHeight)
	v.SetDefault("list.overscan_item_count", d.List.OverscanItemCount)
	v.SetDefault("list.initial_scroll_position", d.List.InitialScrollPosition)
	v.SetDefault("list.scroll_restoration", d.List.ScrollRestoration)
	v.SetDefault("list.measure_items", d.List.MeasureItems)
	v.SetDefault("list.items_before_first_projection", d.List.ItemsBeforeFirstProjection)
	v.SetDefault("list.max_scroll_iterations", d.List.MaxScrollIterations)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("ui.markdown", d.UI.Markdown)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.show_scrollbar", d.UI.ShowScrollbar)
	v.SetDefault("ui.frame_interval", d.UI.FrameInterval)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func Validate(cfg Config) error {
	if err := ValidateList(cfg.List); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	if err := ValidateUI(cfg.UI); err != nil {
		return err
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	return nil
}

// ValidateList checks list options.
func ValidateList(l ListConfig) error {
	switch {
	case !(l.EstimatedItemHeight > 0):
		return fmt.Errorf("list.estimated_item_height must be positive, got %v", l.EstimatedItemHeight)
	case l.OverscanItemCount < 0:
		return fmt.Errorf("list.overscan_item_count must not be negative, got %d", l.OverscanItemCount)
	case l.InitialScrollPosition < 0:
		return fmt.Errorf("list.initial_scroll_position must not be negative, got %v", l.InitialScrollPosition)
	case l.ItemsBeforeFirstProjection < 0:
		return fmt.Errorf("list.items_before_first_projection must not be negative, got %d", l.ItemsBeforeFirstProjection)
	case l.MaxScrollIterations < 1:
		return fmt.Errorf("list.max_scroll_iterations must be at least 1, got %d", l.MaxScrollIterations)
	}
	return nil
}

// ValidateTracing checks tracing configuration. Empty values use defaults.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// ValidateUI checks terminal host options.
func ValidateUI(u UIConfig) error {
	switch u.MarkdownStyle {
	case "", "dark", "light", "notty":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\", \"light\", or \"notty\", got %q", u.MarkdownStyle)
	}
	if u.FrameInterval <= 0 {
		return fmt.Errorf("ui.frame_interval must be positive, got %v", u.FrameInterval)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# vscroll configuration

# Virtual list settings. Sizes are terminal rows.
list:
  estimated_item_height: 3          # size assumed for items not yet rendered
  overscan_item_count: 2            # extra items rendered above and below (minimum 2)
  initial_scroll_position: 0        # offset applied on first open when not restoring
  scroll_restoration: true          # resume each file where it was left
  measure_items: true               # false renders every item at estimated_item_height
  items_before_first_projection: 1  # items shown before the first layout pass
  max_scroll_iterations: 32         # frame cap for jump-to-item

# Snapshot database used when the persist-caches flag is on
# store:
#   path: ~/.config/vscroll/caches.db

# Terminal host
ui:
  markdown: true          # render markdown items with glamour
  markdown_style: dark    # "dark" (default), "light" or "notty"
  show_scrollbar: true
  frame_interval: 16ms    # frame tick while layout work is pending

# Reload item files when they change on disk
watch:
  enabled: true
  debounce: 100ms

# Feature flags
flags:
  persist-caches: true
  watch-items: true

# Tracing (OpenTelemetry)
# tracing:
#   enabled: true
#   exporter: file        # "none", "file", "stdout" or "otlp"
#   file_path: ~/.config/vscroll/traces/traces.jsonl
#
# Example: send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "created default config", "path", configPath)
	return nil
}
