package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/internal/ui"
	"github.com/law-makers/leadcrawl/internal/utils/output"
	"github.com/law-makers/leadcrawl/pkg/models"
)

var (
	location  string
	fields    []string
	hideTable bool
)

var allFields = []string{"address", "phone", "website", "email"}

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <search term>",
	Short: "Collect businesses for a search term and location",
	Long: `Searches the map for the given term, opens each result once and collects
its contact details until --max businesses are gathered or the result list
runs dry.

Selecting "email" also collects the website, because addresses are harvested
from the business website and its contact pages.

Results are written as .xlsx by default. When the workbook cannot be written
the records fall back to .csv and then to plain .txt. Press Ctrl+C to stop
early and keep what was collected so far.`,
	Example: `  # Twenty bakeries in Kadıköy with every field
  leadcrawl scrape bakery --location "Kadıköy, İstanbul"

  # Only names and phone numbers, saved as CSV
  leadcrawl scrape dentist -l Ankara --fields phone -o dentists.csv

  # E-mails checked against DNS and stored in MySQL
  leadcrawl scrape "hardware store" -l İzmir --max 50 --verify-mx --mysql-dsn "user:pass@tcp(localhost:3306)/leads"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&location, "location", "l", "", "City or area appended to the search term")
	scrapeCmd.Flags().IntP("max", "n", config.DefaultMaxItems, fmt.Sprintf("Maximum businesses to collect (1-%d)", config.DefaultMaxMaxItems))
	scrapeCmd.Flags().StringSliceVarP(&fields, "fields", "f", allFields, "Optional fields to collect: address, phone, website, email")
	scrapeCmd.Flags().StringP("output", "o", config.DefaultOutputPath, "Output file (.xlsx, .csv, .txt or .json); defaults to leads_<timestamp>.xlsx")
	scrapeCmd.Flags().Bool("verify-mx", false, "Drop e-mail addresses whose domain has no MX record")
	scrapeCmd.Flags().String("mysql-dsn", "", "Also upsert results into this MySQL database")
	scrapeCmd.Flags().BoolVar(&hideTable, "no-table", false, "Do not print the collected businesses")
}

// parseFields maps field names to DataOptions.
func parseFields(names []string) (models.DataOptions, error) {
	var opts models.DataOptions
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "address":
			opts.CollectAddress = true
		case "phone":
			opts.CollectPhone = true
		case "website":
			opts.CollectWebsite = true
		case "email", "emails", "e-mail":
			opts.CollectEmail = true
		case "all":
			opts = models.AllData()
		case "", "name":
		default:
			return opts, fmt.Errorf("unknown field %q (must be one of %s)", name, strings.Join(allFields, ", "))
		}
	}
	return opts, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	appCtx := GetAppFromCmd(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := appCtx.Config

	opts, err := parseFields(fields)
	if err != nil {
		return err
	}
	rc := models.RunConfig{
		SearchTerm: strings.Join(args, " "),
		Location:   location,
		MaxItems:   cfg.MaxItems,
		Options:    opts.Normalize(),
	}

	log.Debug().
		Str("query", rc.Query()).
		Int("max", rc.MaxItems).
		Interface("options", rc.Options).
		Msg("Starting scrape")

	rep := progress.NewChannelReporter(256)
	done := renderProgress(rep.Events(), os.Stderr, cfg.LogLevel != "error" && !cfg.JSONLog)

	start := time.Now()
	runner := appCtx.Runner(rep)
	setActiveRun(runner)
	records, runErr := runner.Run(cmd.Context(), rc)
	clearActiveRun(runner)
	rep.Close()
	<-done

	if dropped := rep.Dropped(); dropped > 0 {
		log.Debug().Int64("dropped", dropped).Msg("Progress events dropped")
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("Scrape ended early")
	}
	if runner.Stopped() || errors.Is(cmd.Context().Err(), context.Canceled) {
		fmt.Fprintln(os.Stderr, ui.Info("Interrupted, keeping the businesses collected so far"))
	}

	if len(records) == 0 {
		fmt.Println("\n" + ui.Info("No businesses collected."))
		return runErr
	}

	file, err := output.Export(records, cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	persistCtx := context.WithoutCancel(cmd.Context())
	store, err := appCtx.EnsureStore(persistCtx)
	switch {
	case err != nil:
		fmt.Fprintln(os.Stderr, ui.Error("MySQL unavailable: "+err.Error()))
	case store != nil:
		n, err := store.Save(persistCtx, rc.Query(), records)
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.Error("Failed to store results: "+err.Error()))
		} else {
			fmt.Printf("%s %d business(es) stored in MySQL\n", ui.Success("✓"), n)
		}
	}

	fmt.Println()
	if !hideTable {
		printRecords(os.Stdout, records)
		fmt.Println()
	}
	printSummary(os.Stdout, records, file, time.Since(start))
	return runErr
}
