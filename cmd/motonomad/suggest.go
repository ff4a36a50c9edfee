package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"motonomad-hq/gateway/pkg/cli"
	"motonomad-hq/gateway/pkg/tripplanner"
)

const flagDateLayout = "2006-01-02"

var suggestFlags struct {
	name      string
	start     string
	end       string
	transport string
	model     string
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate route suggestions for a trip",
	Long: `Ask the planner model for a short route description and up to five
highlights worth visiting. Answers are in Polish.

Examples:
  motonomad suggest --name "Alpy" --start 2025-06-01 --end 2025-06-07 --transport motorcycle
  motonomad suggest --name "Lizbona" --start 2025-09-10 --end 2025-09-12 --transport airplane --output json`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().StringVar(&suggestFlags.name, "name", "", "trip name or destination (required)")
	suggestCmd.Flags().StringVar(&suggestFlags.start, "start", "", "start date, YYYY-MM-DD (required)")
	suggestCmd.Flags().StringVar(&suggestFlags.end, "end", "", "end date, YYYY-MM-DD (required)")
	suggestCmd.Flags().StringVar(&suggestFlags.transport, "transport", string(tripplanner.TransportMotorcycle), "transport: motorcycle, airplane, train, car")
	suggestCmd.Flags().StringVarP(&suggestFlags.model, "model", "m", "", "model identifier (default from planner.model)")
}

var transportTypes = []tripplanner.TransportType{
	tripplanner.TransportMotorcycle,
	tripplanner.TransportAirplane,
	tripplanner.TransportTrain,
	tripplanner.TransportCar,
}

// tripFromFlags validates the suggest flags.
func tripFromFlags() (tripplanner.TripRequest, error) {
	var trip tripplanner.TripRequest

	trip.Name = strings.TrimSpace(suggestFlags.name)
	if trip.Name == "" {
		return trip, cli.NewConfigError("name", "trip name is required")
	}

	start, err := time.Parse(flagDateLayout, suggestFlags.start)
	if err != nil {
		return trip, cli.NewConfigError("start", fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", suggestFlags.start))
	}
	end, err := time.Parse(flagDateLayout, suggestFlags.end)
	if err != nil {
		return trip, cli.NewConfigError("end", fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", suggestFlags.end))
	}
	if end.Before(start) {
		return trip, cli.NewConfigError("end", "end date is before start date")
	}
	trip.StartDate, trip.EndDate = start, end

	trip.TransportType = tripplanner.TransportType(strings.ToLower(suggestFlags.transport))
	if !slices.Contains(transportTypes, trip.TransportType) {
		return trip, cli.NewConfigError("transport", fmt.Sprintf("invalid transport %q (must be one of: motorcycle, airplane, train, car)", suggestFlags.transport))
	}

	return trip, nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	trip, err := tripFromFlags()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	settings := tripplanner.Settings{
		Model:       a.cfg.Planner.Model,
		Temperature: a.cfg.Planner.Temperature,
		MaxTokens:   a.cfg.Planner.MaxTokens,
	}
	if suggestFlags.model != "" {
		settings.Model = suggestFlags.model
	}

	planner := tripplanner.New(a.client, settings, a.logger)
	suggestion, err := planner.Suggest(commandContext(cmd), trip)
	if err != nil {
		return wrapCommandError("suggest", err)
	}

	if format, _ := cli.ParseFormat(outputFormat); format == cli.FormatJSON {
		return output(cmd, suggestion)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d dni)\n\n", trip.Name, trip.Days())
	if suggestion.Description != "" {
		fmt.Fprintln(out, suggestion.Description)
		fmt.Fprintln(out)
	}
	for i, h := range suggestion.Highlights {
		fmt.Fprintf(out, "%d. %s\n", i+1, h)
	}
	return nil
}
