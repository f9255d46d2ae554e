package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")
	cmd.PersistentFlags().StringSlice("proxy", nil, "Proxy servers to rotate through (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Page load timeout")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("chrome-path", "", "Path to a Chrome/Chromium executable")
	cmd.PersistentFlags().Bool("show-browser", false, "Run Chrome with a visible window")
	cmd.PersistentFlags().Float64("pacing", 1.0, "Multiplier applied to every human-like pause")
	cmd.PersistentFlags().String("env-file", DefaultEnvFile, "Path to a .env file (optional)")
}
