package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/registry"
	"github.com/zjrosen/vscroll/internal/store"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/ui/listview"
	"github.com/zjrosen/vscroll/internal/watcher"
)

func init() {
	// Query the background color before the program owns stdin, otherwise the
	// OSC 11 reply lands in the jump prompt.
	// https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const (
	envPrefix         = "VSCROLL"
	localConfigPath   = ".vscroll/config.yaml"
	persistTimeout    = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
	defaultDebugLog   = "debug.log"
	debugLogPrefix    = "vscroll"
	envDebug          = envPrefix + "_DEBUG"
	envDebugLogPath   = envPrefix + "_LOG"
	envLogLevel       = envPrefix + "_LOG_LEVEL"
	storeFlagName     = "store"
	debugFlagName     = "debug"
	configFlagName    = "config"
	noWatchFlagName   = "no-watch"
	noPersistFlagName = "no-persist"
)

var (
	version   = "dev"
	cfgFile   string
	storeFile string
	debugFlag bool

	v          *viper.Viper
	cfg        config.Config
	cfgErr     error
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "vscroll [files...]",
	Short: "A virtual scrolling viewer for large item files",
	Long: `vscroll shows JSON, JSON lines, markdown and text files as a virtual list:
only the items on screen are rendered, item heights are measured as they
appear, and each file's scroll position is restored when you come back to it.`,
	Version:            version,
	Args:               cobra.MinimumNArgs(1),
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: teardownLogging,
	RunE:               runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, configFlagName, "c", "",
		"config file (default: ~/.config/vscroll/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeFile, storeFlagName, "",
		"cache snapshot database (default: ~/.config/vscroll/caches.db)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, debugFlagName, false,
		"write debug logs to debug.log and enable the log overlay (L)")
	rootCmd.Flags().Bool(noWatchFlagName, false,
		"do not reload files when they change")
	rootCmd.Flags().Bool(noPersistFlagName, false,
		"do not read or write cache snapshots")
}

func initConfig() {
	_ = godotenv.Load()

	v = viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	config.SetDefaults(v)

	// Config lookup order:
	// 1. --config
	// 2. .vscroll/config.yaml (current directory)
	// 3. ~/.config/vscroll/config.yaml (user config)
	path := resolveConfigPath(cfgFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if writeErr := config.WriteDefaultConfig(path); writeErr != nil {
			// Continue with defaults.
			path = ""
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			cfgErr = fmt.Errorf("reading config %s: %w", path, err)
			return
		}
	}

	cfg, cfgErr = config.Load(v)
}

// resolveConfigPath picks the config file to read, which may not exist yet.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(localConfigPath); err == nil {
		return localConfigPath
	}
	if dir := config.DefaultDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return localConfigPath
}

// configPath returns the config file in use.
func configPath() string {
	if v != nil && v.ConfigFileUsed() != "" {
		return v.ConfigFileUsed()
	}
	return resolveConfigPath(cfgFile)
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if !debugFlag && os.Getenv(envDebug) == "" {
		return nil
	}
	logPath := os.Getenv(envDebugLogPath)
	if logPath == "" {
		logPath = defaultDebugLog
	}
	cleanup, err := log.InitWithTeaLog(logPath, debugLogPrefix)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	logCleanup = cleanup
	if lvl := os.Getenv(envLogLevel); lvl != "" {
		log.SetMinLevel(log.ParseLevel(lvl))
	}
	log.Info(log.CatConfig, "vscroll starting", "command", cmd.Name(), "config", configPath(), "logPath", logPath)
	return nil
}

func teardownLogging(*cobra.Command, []string) error {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	return nil
}

// storePath resolves --store, then the config, then the default.
func storePath() string {
	switch {
	case storeFile != "":
		return storeFile
	case cfg.Store.Path != "":
		return cfg.Store.Path
	default:
		return config.DefaultStorePath()
	}
}

// loadFiles reads every path. Paths become absolute so that they match the
// watcher's events and stay valid cache keys from any directory.
func loadFiles(paths []string) ([]listview.File, error) {
	files := make([]listview.File, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		f := listview.LoadFile(abs)
		if f.Err != nil {
			log.ErrorErr(log.CatUI, "loading items failed", f.Err, "path", abs)
		}
		files = append(files, f)
	}
	return files, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return fmt.Errorf("invalid configuration: %w", cfgErr)
	}
	fl := flags.New(cfg.Flags)

	files, err := loadFiles(args)
	if err != nil {
		return err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	var (
		snapshots *store.Store
		regOpts   = []registry.Option{
			registry.WithEstimatedItemHeight(cfg.List.EstimatedItemHeight),
			registry.WithTracer(provider.Tracer()),
		}
	)
	if noPersist, _ := cmd.Flags().GetBool(noPersistFlagName); fl.Enabled(flags.FlagPersistCaches) && !noPersist {
		snapshots, err = store.Open(storePath())
		if err != nil {
			// Scrolling works without snapshots; only restoration across runs is lost.
			log.ErrorErr(log.CatStore, "snapshot store unavailable", err, "path", storePath())
		} else {
			defer func() { _ = snapshots.Close() }()
			regOpts = append(regOpts, registry.WithLoader(snapshots))
		}
	}
	reg := registry.New(regOpts...)
	defer reg.Close()

	opts := []listview.Option{listview.WithTracer(provider.Tracer())}

	if noWatch, _ := cmd.Flags().GetBool(noWatchFlagName); fl.Enabled(flags.FlagWatchItems) && cfg.Watch.Enabled && !noWatch {
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		if changes, stop, err := startWatcher(paths); err != nil {
			log.ErrorErr(log.CatWatcher, "watcher unavailable", err)
		} else {
			defer stop()
			opts = append(opts, listview.WithChanges(changes))
		}
	}

	if logCleanup != nil {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if l := log.NewListener(ctx); l != nil {
			opts = append(opts, listview.WithLogListener(l))
		}
	}

	zone.NewGlobal()
	model := listview.New(reg, files, listview.Config{List: cfg.List, UI: cfg.UI}, opts...)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if fm, ok := final.(listview.Model); ok {
		fm.Close()
	} else {
		model.Close()
	}

	if snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if _, perr := reg.Persist(ctx, snapshots); perr != nil {
			log.ErrorErr(log.CatStore, "persisting caches failed", perr)
		}
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func startWatcher(paths []string) (<-chan string, func(), error) {
	w, err := watcher.New(watcher.Config{Paths: paths, DebounceDur: cfg.Watch.Debounce})
	if err != nil {
		return nil, nil, err
	}
	changes, err := w.Start()
	if err != nil {
		return nil, nil, err
	}
	return changes, func() { _ = w.Stop() }, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}
