package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pulse-works/citypulse/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Geocode a city and print the candidate places",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if len(result.Candidates) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No places found for %q.\n", result.Query)
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), formatCandidates(result.Candidates))
		return nil
	},
}

// formatCandidates renders one line per candidate: label, coordinates, and
// the opaque token usable with `citypulse weather --place`.
func formatCandidates(candidates []model.Place) string {
	var b strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&b, "%s  (%.4f, %.4f)\n  token: %s\n", c.DisplayLabel, c.Lat, c.Lon, c.Token())
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
