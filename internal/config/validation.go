package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if c.PageLoadTimeout <= 0 {
		return fmt.Errorf("page load timeout must be > 0")
	}
	if c.MaxItems <= 0 || c.MaxItems > DefaultMaxMaxItems {
		return fmt.Errorf("max items must be between 1 and %d", DefaultMaxMaxItems)
	}
	if c.MaxRetry <= 0 {
		return fmt.Errorf("max retry must be > 0")
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive")
	}
	if !strings.HasPrefix(c.MapsBaseURL, "http://") && !strings.HasPrefix(c.MapsBaseURL, "https://") {
		return fmt.Errorf("maps base url must be http(s), got %q", c.MapsBaseURL)
	}
	if c.CrawlMaxContactPages < 0 || c.CrawlMaxExtraPages < 0 || c.CrawlMaxInternalLinks < 0 {
		return fmt.Errorf("crawl limits must not be negative")
	}
	if c.CrawlRateLimitRPS <= 0 {
		return fmt.Errorf("crawl rate limit must be > 0")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be > 0")
	}
	if c.VerifyMX && len(c.DNSServers) == 0 {
		return fmt.Errorf("mx verification needs at least one dns server")
	}
	return c.Pacing.validate()
}
