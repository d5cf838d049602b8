package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vscroll/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), configPath())
		return err
	},
}

var configListCmd = &cobra.Command{
	Use:   "set-list",
	Short: "Change virtual list settings in the config file",
	Example: `  vscroll config set-list --estimated-item-height 4 --overscan 3
  vscroll config set-list --measure=false`,
	Args: cobra.NoArgs,
	RunE: runConfigSetList,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	f := configListCmd.Flags()
	f.Float64("estimated-item-height", 0, "rows assumed for unmeasured items")
	f.Int("overscan", 0, "items rendered beyond each viewport edge")
	f.Bool("restore", true, "resume each file at its saved scroll position")
	f.Bool("measure", true, "measure rendered items instead of using the estimate")
	f.Int("max-scroll-iterations", 0, "frame cap for jump-to-item")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := resolveConfigPath(cfgFile)
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "config exists: %s (use --force to overwrite)\n", path)
		return err
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return err
}

func runConfigSetList(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return fmt.Errorf("invalid configuration: %w", cfgErr)
	}
	list := cfg.List
	f := cmd.Flags()
	if f.Changed("estimated-item-height") {
		list.EstimatedItemHeight, _ = f.GetFloat64("estimated-item-height")
	}
	if f.Changed("overscan") {
		list.OverscanItemCount, _ = f.GetInt("overscan")
	}
	if f.Changed("restore") {
		list.ScrollRestoration, _ = f.GetBool("restore")
	}
	if f.Changed("measure") {
		list.MeasureItems, _ = f.GetBool("measure")
	}
	if f.Changed("max-scroll-iterations") {
		list.MaxScrollIterations, _ = f.GetInt("max-scroll-iterations")
	}
	if err := config.ValidateList(list); err != nil {
		return err
	}

	path := configPath()
	if err := config.SaveList(path, list); err != nil {
		return err
	}
	cfg.List = list
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "updated list settings in %s\n", path)
	return err
}
