package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vscroll/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
