package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/presentation"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Show or change feature flags",
}

var flagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feature flags as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfgErr != nil {
			return fmt.Errorf("invalid configuration: %w", cfgErr)
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatFlags(presentation.FromFlags(flags.New(cfg.Flags)))
	},
}

var flagsSetCmd = &cobra.Command{
	Use:     "set <name>=<true|false>",
	Short:   "Turn a feature flag on or off in the config file",
	Example: "  vscroll flags set watch-items=false",
	Args:    cobra.ExactArgs(1),
	RunE:    runFlagsSet,
}

func init() {
	flagsCmd.AddCommand(flagsListCmd)
	flagsCmd.AddCommand(flagsSetCmd)
	rootCmd.AddCommand(flagsCmd)
}

func runFlagsSet(cmd *cobra.Command, args []string) error {
	name, raw, ok := strings.Cut(args[0], "=")
	if !ok {
		return fmt.Errorf("expected <name>=<true|false>, got %q", args[0])
	}
	known := flags.New(nil).Names()
	if !slices.Contains(known, name) {
		return fmt.Errorf("unknown flag %q (known: %s)", name, strings.Join(known, ", "))
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("flag %s: %q is not a boolean", name, raw)
	}

	current := flags.New(cfg.Flags).All()
	current[name] = value
	path := configPath()
	if err := config.SaveFlags(path, current); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s=%t (%s)\n", name, value, path)
	return err
}
