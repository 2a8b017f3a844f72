package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/pagesweep/models"
)

// Engine kinds.
const (
	EngineBrowser = "browser"
	EngineHTTP    = "http"
)

// DefaultTargetURL is the hockey-teams listing the tool was built for.
const DefaultTargetURL = "https://www.scrapethissite.com/pages/forms/"

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Delay   DelayConfig
	Scraper ScraperConfig
	Engine  EngineConfig
	Cache   CacheConfig
	Export  ExportConfig
	Webhook WebhookConfig
	Log     LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// Detach leaves the browser running after the scrape completes.
	Detach bool

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy server URL. Empty means direct connections.
	Proxy string

	// RotateUserAgent picks a random entry of UserAgents for the session.
	RotateUserAgent bool
	UserAgents      []string

	// DisableJavaScript turns off script execution for the page.
	DisableJavaScript bool

	// Stealth injects the anti-detection script before every document.
	Stealth bool

	// Languages is sent as Accept-Language when Stealth is on.
	Languages []string // default: ["en-US", "en"]

	// BlockedResourceTypes lists resource types the hijack router fails.
	BlockedResourceTypes []string

	// NavigationsPerSecond caps clicks and navigations. Zero disables the cap.
	NavigationsPerSecond float64

	// ActionTimeout bounds each navigate, click or select, and separately
	// the wait for the DOM to settle afterwards.
	ActionTimeout time.Duration // default: 10s
}

// DelayConfig controls the optional random pause before each navigation.
type DelayConfig struct {
	Random bool
	Min    time.Duration // default: 3s
	Max    time.Duration // default: 7s
}

// ScraperConfig controls the pagination sweep.
type ScraperConfig struct {
	TargetURL string

	PaginationSelector string // default: "ul.pagination li a"
	RowSelector        string // default: "table.table tbody tr.team"
	CellSelector       string // default: "td"
	PageSizeSelector   string // default: "#per_page"
	PageSizeValue      string // default: "100"

	// FirstPageLabel is the label of the page shown after navigation; it is
	// extracted without clicking.
	FirstPageLabel string // default: "1"

	PollInterval  time.Duration // default: 500ms
	LocateTimeout time.Duration // default: 5s

	// SettleDelay is the pause after clicking a pagination control.
	SettleDelay time.Duration // default: 3s

	// PageSizeDelay is the pause after changing the page size.
	PageSizeDelay time.Duration // default: 5s
}

// EngineConfig selects how pages are loaded.
type EngineConfig struct {
	// Kind is "browser" (Rod) or "http" (static DOM over utls fetches).
	Kind string // default: "browser"

	// HTTPTimeout is the deadline for a single HTTP fetch.
	HTTPTimeout time.Duration // default: 15s
}

// CacheConfig controls the HTTP engine's page cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached pages. Zero disables caching.
	MaxEntries int // default: 100

	// TTL is how long a cached page stays fresh.
	TTL time.Duration // default: 5m
}

// ExportConfig controls output files.
type ExportConfig struct {
	Dir     string   // default: "."
	Name    string   // default: "nhl_teams"
	Formats []string // default: ["json", "csv"]
}

// WebhookConfig controls the completion notification.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration // default: 10s
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:             true,
			Languages:            []string{"en-US", "en"},
			BlockedResourceTypes: []string{"Image", "Font", "Media"},
			ActionTimeout:        10 * time.Second,
		},
		Delay: DelayConfig{
			Min: 3 * time.Second,
			Max: 7 * time.Second,
		},
		Scraper: ScraperConfig{
			TargetURL:          DefaultTargetURL,
			PaginationSelector: "ul.pagination li a",
			RowSelector:        "table.table tbody tr.team",
			CellSelector:       "td",
			PageSizeSelector:   "#per_page",
			PageSizeValue:      "100",
			FirstPageLabel:     "1",
			PollInterval:       500 * time.Millisecond,
			LocateTimeout:      5 * time.Second,
			SettleDelay:        3 * time.Second,
			PageSizeDelay:      5 * time.Second,
		},
		Engine: EngineConfig{
			Kind:        EngineBrowser,
			HTTPTimeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			MaxEntries: 100,
			TTL:        5 * time.Minute,
		},
		Export: ExportConfig{
			Dir:     ".",
			Name:    "nhl_teams",
			Formats: []string{"json", "csv"},
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the JSON5 file at path and
// PAGESWEEP_* environment variables, in that order. An empty path or a
// missing file skips the file layer; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the scraper cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Engine.Kind {
	case EngineBrowser, EngineHTTP:
	default:
		problems = append(problems, fmt.Sprintf("engine must be %q or %q, got %q", EngineBrowser, EngineHTTP, c.Engine.Kind))
	}
	if c.Scraper.TargetURL == "" {
		problems = append(problems, "target_url is empty")
	}
	for name, sel := range map[string]string{
		"pagination selector": c.Scraper.PaginationSelector,
		"row selector":        c.Scraper.RowSelector,
		"cell selector":       c.Scraper.CellSelector,
	} {
		if strings.TrimSpace(sel) == "" {
			problems = append(problems, name+" is empty")
		}
	}
	if c.Delay.Min < 0 || c.Delay.Max < c.Delay.Min {
		problems = append(problems, fmt.Sprintf("delay range [%s, %s] is invalid", c.Delay.Min, c.Delay.Max))
	}
	if c.Browser.RotateUserAgent && len(c.Browser.UserAgents) == 0 {
		problems = append(problems, "rotate_user_agent is set but user_agents is empty")
	}
	if c.Browser.ActionTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("action_timeout must be positive, got %s", c.Browser.ActionTimeout))
	}
	if c.Export.Name == "" {
		problems = append(problems, "output_name is empty")
	}

	if len(problems) > 0 {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			"invalid configuration: "+strings.Join(problems, "; "), nil)
	}
	return nil
}

func applyEnv(c *Config) {
	c.Browser.Headless = envBoolOr("PAGESWEEP_HEADLESS", c.Browser.Headless)
	c.Browser.Detach = envBoolOr("PAGESWEEP_DETACH", c.Browser.Detach)
	c.Browser.NoSandbox = envBoolOr("PAGESWEEP_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.BrowserBin = envOr("PAGESWEEP_BROWSER_BIN", c.Browser.BrowserBin)
	c.Browser.Proxy = envOr("PAGESWEEP_PROXY", c.Browser.Proxy)
	c.Browser.RotateUserAgent = envBoolOr("PAGESWEEP_ROTATE_USER_AGENT", c.Browser.RotateUserAgent)
	c.Browser.UserAgents = envSliceOr("PAGESWEEP_USER_AGENTS", c.Browser.UserAgents)
	c.Browser.DisableJavaScript = envBoolOr("PAGESWEEP_DISABLE_JAVASCRIPT", c.Browser.DisableJavaScript)
	c.Browser.Stealth = envBoolOr("PAGESWEEP_STEALTH", c.Browser.Stealth)
	c.Browser.BlockedResourceTypes = envSliceOr("PAGESWEEP_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)
	c.Browser.NavigationsPerSecond = envFloatOr("PAGESWEEP_NAVIGATIONS_PER_SECOND", c.Browser.NavigationsPerSecond)
	c.Browser.ActionTimeout = envDurationOr("PAGESWEEP_ACTION_TIMEOUT", c.Browser.ActionTimeout)

	c.Delay.Random = envBoolOr("PAGESWEEP_RANDOM_DELAY", c.Delay.Random)
	c.Delay.Min = envDurationOr("PAGESWEEP_MIN_DELAY", c.Delay.Min)
	c.Delay.Max = envDurationOr("PAGESWEEP_MAX_DELAY", c.Delay.Max)

	c.Scraper.TargetURL = envOr("PAGESWEEP_TARGET_URL", c.Scraper.TargetURL)
	c.Scraper.FirstPageLabel = envOr("PAGESWEEP_FIRST_PAGE_LABEL", c.Scraper.FirstPageLabel)
	c.Scraper.PageSizeValue = envOr("PAGESWEEP_PAGE_SIZE", c.Scraper.PageSizeValue)
	c.Scraper.PollInterval = envDurationOr("PAGESWEEP_POLL_INTERVAL", c.Scraper.PollInterval)
	c.Scraper.LocateTimeout = envDurationOr("PAGESWEEP_LOCATE_TIMEOUT", c.Scraper.LocateTimeout)
	c.Scraper.SettleDelay = envDurationOr("PAGESWEEP_SETTLE_DELAY", c.Scraper.SettleDelay)
	c.Scraper.PageSizeDelay = envDurationOr("PAGESWEEP_PAGE_SIZE_DELAY", c.Scraper.PageSizeDelay)

	c.Engine.Kind = envOr("PAGESWEEP_ENGINE", c.Engine.Kind)
	c.Engine.HTTPTimeout = envDurationOr("PAGESWEEP_HTTP_TIMEOUT", c.Engine.HTTPTimeout)

	c.Cache.MaxEntries = envIntOr("PAGESWEEP_CACHE_MAX_ENTRIES", c.Cache.MaxEntries)
	c.Cache.TTL = envDurationOr("PAGESWEEP_CACHE_TTL", c.Cache.TTL)

	c.Export.Dir = envOr("PAGESWEEP_OUTPUT_DIR", c.Export.Dir)
	c.Export.Name = envOr("PAGESWEEP_OUTPUT_NAME", c.Export.Name)
	c.Export.Formats = envSliceOr("PAGESWEEP_OUTPUT_FORMATS", c.Export.Formats)

	c.Webhook.URL = envOr("PAGESWEEP_WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Secret = envOr("PAGESWEEP_WEBHOOK_SECRET", c.Webhook.Secret)
	c.Webhook.Timeout = envDurationOr("PAGESWEEP_WEBHOOK_TIMEOUT", c.Webhook.Timeout)

	c.Log.Level = envOr("PAGESWEEP_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("PAGESWEEP_LOG_FORMAT", c.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
