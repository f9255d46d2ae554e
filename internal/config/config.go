package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser
	Headless        bool
	ChromePath      string
	UserAgent       string
	WindowWidth     int
	WindowHeight    int
	PageLoadTimeout time.Duration
	LaunchTimeout   time.Duration
	Proxies         []string

	// Pacing
	Pacing Pacing

	// Maps feed
	MapsBaseURL     string
	MaxItems        int
	MaxRetry        int
	FeedWait        time.Duration
	PanelWait       time.Duration
	MinScrollBudget int

	// Website crawl
	CrawlMaxInternalLinks int
	CrawlMaxContactPages  int
	CrawlMaxExtraPages    int
	CrawlRateLimitRPS     float64
	CrawlRateLimitBurst   int

	// Caching
	CacheTTL        time.Duration
	CacheMaxEntries int

	// E-mail verification
	VerifyMX   bool
	DNSServers []string
	DNSTimeout time.Duration

	// Sinks
	MySQLDSN   string
	OutputPath string
}

// Defaults returns a Config populated only with built-in defaults.
func Defaults() *Config {
	return &Config{
		LogLevel:              DefaultLogLevel,
		JSONLog:               DefaultJSONLog,
		Headless:              DefaultHeadless,
		UserAgent:             DefaultUserAgent,
		WindowWidth:           DefaultWindowWidth,
		WindowHeight:          DefaultWindowHeight,
		PageLoadTimeout:       DefaultPageLoadTimeout,
		LaunchTimeout:         DefaultLaunchTimeout,
		Pacing:                DefaultPacing(),
		MapsBaseURL:           DefaultMapsBaseURL,
		MaxItems:              DefaultMaxItems,
		MaxRetry:              DefaultMaxRetry,
		FeedWait:              DefaultFeedWait,
		PanelWait:             DefaultPanelWait,
		MinScrollBudget:       DefaultMinScrollBudget,
		CrawlMaxInternalLinks: DefaultCrawlMaxInternalLinks,
		CrawlMaxContactPages:  DefaultCrawlMaxContactPages,
		CrawlMaxExtraPages:    DefaultCrawlMaxExtraPages,
		CrawlRateLimitRPS:     DefaultCrawlRateLimitRPS,
		CrawlRateLimitBurst:   DefaultCrawlRateLimitBurst,
		CacheTTL:              DefaultCacheTTL,
		CacheMaxEntries:       DefaultCacheMaxEntries,
		VerifyMX:              DefaultVerifyMX,
		DNSServers:            append([]string(nil), DefaultDNSServers...),
		DNSTimeout:            DefaultDNSTimeout,
		OutputPath:            DefaultOutputPath,
	}
}

// Load builds a Config by combining defaults, an optional .env file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so both persistent and local flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	envFile := DefaultEnvFile
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", envFile).Msg("Failed to read env file")
	}

	applyEnv(cfg)

	if cmd != nil {
		applyFlags(cmd, cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LEADCRAWL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LEADCRAWL_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("LEADCRAWL_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("LEADCRAWL_PROXIES"); v != "" {
		cfg.Proxies = splitList(v)
	}
	if v, ok := envBool("LEADCRAWL_HEADLESS"); ok {
		cfg.Headless = v
	}
	if v, ok := envDuration("LEADCRAWL_PAGE_TIMEOUT"); ok {
		cfg.PageLoadTimeout = v
	}
	if v := os.Getenv("LEADCRAWL_MAPS_URL"); v != "" {
		cfg.MapsBaseURL = v
	}
	if v, ok := envFloat("LEADCRAWL_PACING_SCALE"); ok {
		cfg.Pacing = cfg.Pacing.Scale(v)
	}
	if v, ok := envFloat("LEADCRAWL_CRAWL_RPS"); ok {
		cfg.CrawlRateLimitRPS = v
	}
	if v, ok := envBool("LEADCRAWL_VERIFY_MX"); ok {
		cfg.VerifyMX = v
	}
	if v := os.Getenv("LEADCRAWL_DNS_SERVERS"); v != "" {
		cfg.DNSServers = splitList(v)
	}
	if v := os.Getenv("LEADCRAWL_MYSQL_DSN"); v != "" {
		cfg.MySQLDSN = v
	}
	if v := os.Getenv("LEADCRAWL_OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
}

func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	changed := func(name string) (string, bool) {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}

	if _, ok := changed("verbose"); ok {
		cfg.LogLevel = "debug"
	}
	if _, ok := changed("quiet"); ok {
		cfg.LogLevel = "error"
	}
	if v, ok := changed("json"); ok {
		cfg.JSONLog = v == "true"
	}
	if v, ok := changed("user-agent"); ok && v != "" {
		cfg.UserAgent = v
	}
	if v, ok := changed("chrome-path"); ok && v != "" {
		cfg.ChromePath = v
	}
	if f := flags.Lookup("proxy"); f != nil && f.Changed {
		if list, err := flags.GetStringSlice("proxy"); err == nil {
			cfg.Proxies = list
		}
	}
	if v, ok := changed("show-browser"); ok && v == "true" {
		cfg.Headless = false
	}
	if v, ok := changed("timeout"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PageLoadTimeout = d
		}
	}
	if v, ok := changed("pacing"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pacing = cfg.Pacing.Scale(f)
		}
	}
	if v, ok := changed("max"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxItems = n
		}
	}
	if v, ok := changed("verify-mx"); ok {
		cfg.VerifyMX = v == "true"
	}
	if v, ok := changed("mysql-dsn"); ok {
		cfg.MySQLDSN = v
	}
	if v, ok := changed("output"); ok && v != "" {
		cfg.OutputPath = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring malformed boolean")
		return false, false
	}
	return b, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring malformed number")
		return 0, false
	}
	return f, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring malformed duration")
		return 0, false
	}
	return d, true
}
