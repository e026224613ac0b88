package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pulse-works/citypulse/internal/model"
)

var weatherPlaceToken string

var weatherCmd = &cobra.Command{
	Use:   "weather <query>",
	Short: "Print the current weather dashboard for a city",
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

		selected := env.Service.ResolveSelection(weatherPlaceToken, result.Candidates)
		if selected == nil && len(result.Candidates) == 1 {
			selected = &result.Candidates[0]
		}
		if selected == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Several places match %q. Re-run with --place <token>:\n\n", result.Query)
			fmt.Fprint(cmd.OutOrStdout(), formatCandidates(result.Candidates))
			return nil
		}

		dash, err := env.Service.BuildDashboard(cmd.Context(), *selected)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), formatDashboard(dash))
		return nil
	},
}

// formatDashboard renders the dashboard as plain text.
func formatDashboard(d model.Dashboard) string {
	var b strings.Builder
	w := d.Weather

	fmt.Fprintf(&b, "%s\n", d.Place.DisplayLabel)
	fmt.Fprintf(&b, "  %.1f%s (feels like %.1f%s)  %s\n", w.Temperature, w.UnitSymbol, w.FeelsLike, w.UnitSymbol, w.Description)
	fmt.Fprintf(&b, "  humidity %d%%  wind %.1f %s\n", w.Humidity, w.WindSpeed, w.WindUnit)
	fmt.Fprintf(&b, "  sunrise %s  sunset %s\n",
		w.SunriseLocal().Format("15:04"), w.SunsetLocal().Format("15:04"))

	if aqi := d.AirQuality; aqi != nil {
		fmt.Fprintf(&b, "  air quality: %s (%d/5)", aqi.AQILabel, aqi.AQIIndex)
		if aqi.PM25 != nil {
			fmt.Fprintf(&b, "  pm2.5 %.1f", *aqi.PM25)
		}
		if aqi.PM10 != nil {
			fmt.Fprintf(&b, "  pm10 %.1f", *aqi.PM10)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func init() {
	weatherCmd.Flags().StringVar(&weatherPlaceToken, "place", "", "place token from a previous search")
	rootCmd.AddCommand(weatherCmd)
}
