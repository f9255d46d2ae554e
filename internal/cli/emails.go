package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/leadcrawl/internal/ui"
	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
)

// emailsCmd represents the emails command
var emailsCmd = &cobra.Command{
	Use:   "emails <url>",
	Short: "Harvest e-mail addresses from one website",
	Long: `Opens the website in a browser, scans it and its contact pages for
e-mail addresses, and prints them personal addresses first.`,
	Example: `  # Addresses published by a single business
  leadcrawl emails https://example-bakery.com

  # Only keep addresses whose domain accepts mail
  leadcrawl emails https://example-bakery.com --verify-mx`,
	Args: cobra.ExactArgs(1),
	RunE: runEmails,
}

func init() {
	rootCmd.AddCommand(emailsCmd)

	emailsCmd.Flags().Bool("verify-mx", false, "Drop e-mail addresses whose domain has no MX record")
}

func runEmails(cmd *cobra.Command, args []string) error {
	site := strings.TrimSpace(args[0])
	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		return fmt.Errorf("invalid URL: must start with http:// or https://")
	}
	if !urlutil.IsBusinessWebsite(site) {
		return fmt.Errorf("%s is a map, social or listing platform, not a business website", site)
	}

	appCtx := GetAppFromCmd(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	fmt.Printf("%s %s\n", ui.Info("Crawling"), ui.Value(site))
	found, err := appCtx.Runner(nil).HarvestSite(cmd.Context(), site)
	if err != nil {
		return fmt.Errorf("failed to crawl website: %w", err)
	}

	if len(found) == 0 {
		fmt.Println("\n" + ui.Info("No e-mail addresses found."))
		return nil
	}

	fmt.Printf("\n%s %s\n", ui.Bold("Found"), ui.Value(fmt.Sprintf("%d address(es):", len(found))))
	for i, addr := range found {
		fmt.Printf("  %s %s\n", ui.Dim(fmt.Sprintf("%d.", i+1)), ui.Value(addr))
	}
	return nil
}
