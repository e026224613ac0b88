package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pulse-works/citypulse/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the payload cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cmd.Context(), cfg.Cache)
		if err != nil {
			return eris.Wrap(err, "open cache")
		}
		defer store.Close() //nolint:errcheck

		deleted, err := store.DeleteExpired(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "purge cache")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired entries.\n", deleted)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
