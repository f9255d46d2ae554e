// Package cli provides the command-line interface for the leadcrawl application.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/law-makers/leadcrawl/internal/app"
)

// Commands share one Application per invocation. It is created in the root
// PersistentPreRunE and closed in PersistentPostRun.
var globalApp *app.Application

// SetApp stores the Application for the running command.
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	globalApp = a
}

// GetApp retrieves the Application of the running command.
func GetApp() *app.Application {
	return globalApp
}

// GetAppFromCmd is GetApp for call sites that have the command at hand.
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	if cmd == nil {
		return nil
	}
	return globalApp
}
