package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/leadcrawl/internal/app"
	"github.com/law-makers/leadcrawl/internal/config"
	"github.com/law-makers/leadcrawl/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leadcrawl",
	Short: "Collect business contacts from map search results",
	Long: `Leadcrawl searches Google Maps for a business category in a location, opens
every result and collects name, address, phone, website and e-mail addresses.
E-mail addresses are harvested from each business's own website.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.main(). Cancelling ctx stops a running scrape after
// the business in progress.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		appCtx, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, appCtx)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		appCtx := GetAppFromCmd(cmd)
		if appCtx == nil {
			return
		}
		_ = appCtx.Close(context.WithoutCancel(cmd.Context()))
		SetApp(cmd, nil)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) { renderHelp(os.Stdout, cmd, true) })
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error { renderHelp(os.Stderr, cmd, false); return nil })

	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for leadcrawl")
	rootCmd.Flags().Bool("version", false, "Version for leadcrawl")
}
