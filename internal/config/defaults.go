package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel        = "info"
	DefaultJSONLog         = false
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultHeadless        = true
	DefaultWindowWidth     = 1366
	DefaultWindowHeight    = 768
	DefaultPageLoadTimeout = 30 * time.Second
	DefaultLaunchTimeout   = 45 * time.Second

	DefaultMapsBaseURL     = "https://www.google.com/maps/search/"
	DefaultMaxItems        = 20
	DefaultMaxMaxItems     = 500
	DefaultMaxRetry        = 3
	DefaultFeedWait        = 10 * time.Second
	DefaultPanelWait       = 5 * time.Second
	DefaultMinScrollBudget = 100

	DefaultCrawlMaxInternalLinks = 10
	DefaultCrawlMaxContactPages  = 2
	DefaultCrawlMaxExtraPages    = 3
	DefaultCrawlRateLimitRPS     = 1.0
	DefaultCrawlRateLimitBurst   = 2

	DefaultCacheTTL        = 30 * time.Minute
	DefaultCacheMaxEntries = 1000

	DefaultVerifyMX   = false
	DefaultDNSTimeout = 3 * time.Second

	DefaultOutputPath = ""
	DefaultEnvFile    = ".env"
)

// DefaultDNSServers are queried in order when MX verification is enabled.
var DefaultDNSServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// DefaultPacing mirrors how long a human pauses between the different steps.
func DefaultPacing() Pacing {
	return Pacing{
		Default:     Range{Min: 2 * time.Second, Max: 5 * time.Second},
		Click:       Range{Min: 1 * time.Second, Max: 2 * time.Second},
		Short:       Range{Min: 500 * time.Millisecond, Max: 1 * time.Second},
		WebsiteLoad: Range{Min: 3 * time.Second, Max: 5 * time.Second},
		ContactPage: Range{Min: 2 * time.Second, Max: 4 * time.Second},
		ExtraPage:   Range{Min: 1 * time.Second, Max: 3 * time.Second},
		Scroll:      Range{Min: 1 * time.Second, Max: 2 * time.Second},
		StallWait:   Range{Min: 1500 * time.Millisecond, Max: 3 * time.Second},
		Nudge:       Range{Min: 200 * time.Millisecond, Max: 200 * time.Millisecond},
	}
}
