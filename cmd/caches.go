package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vscroll/internal/presentation"
	"github.com/zjrosen/vscroll/internal/store"
)

var cachesCmd = &cobra.Command{
	Use:   "caches",
	Short: "Inspect saved item cache snapshots",
}

var cachesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots as JSON",
	Args:  cobra.NoArgs,
	RunE:  runCachesList,
}

var cachesDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete the snapshot for a file",
	Long: `Delete the snapshot saved for a cache key. Keys are the absolute paths
shown by "vscroll caches list".`,
	Args: cobra.ExactArgs(1),
	RunE: runCachesDelete,
}

func init() {
	cachesCmd.AddCommand(cachesListCmd)
	cachesCmd.AddCommand(cachesDeleteCmd)
	rootCmd.AddCommand(cachesCmd)
}

func openStore() (*store.Store, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", cfgErr)
	}
	s, err := store.Open(storePath())
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}
	return s, nil
}

func runCachesList(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	summaries, err := s.List(cmd.Context())
	if err != nil {
		return err
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).FormatCaches(presentation.FromSummaries(summaries))
}

func runCachesDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no snapshot for %q", args[0])
		}
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return err
}
