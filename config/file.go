package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/titanous/json5"
	"github.com/use-agent/pagesweep/models"
)

// fileConfig is the on-disk layout. The first block of keys is shared with
// the config.json of earlier releases; delays there are plain seconds.
// Nil fields leave the current value untouched.
type fileConfig struct {
	UseHeadless       *bool    `json:"use_headless"`
	UseDetach         *bool    `json:"use_detach"`
	RotateUserAgent   *bool    `json:"rotate_user_agent"`
	UserAgents        []string `json:"user_agents"`
	UseProxy          *bool    `json:"use_proxy"`
	Proxy             *string  `json:"proxy"`
	DisableJavaScript *bool    `json:"disable_javascript"`
	UseStealth        *bool    `json:"use_stealth"`
	RandomDelay       *bool    `json:"random_delay"`
	MinDelay          *float64 `json:"min_delay"`
	MaxDelay          *float64 `json:"max_delay"`

	Engine               *string  `json:"engine"`
	TargetURL            *string  `json:"target_url"`
	NoSandbox            *bool    `json:"no_sandbox"`
	BrowserBin           *string  `json:"browser_bin"`
	Languages            []string `json:"languages"`
	BlockedResources     []string `json:"blocked_resources"`
	NavigationsPerSecond *float64 `json:"navigations_per_second"`
	ActionTimeout        *string  `json:"action_timeout"`

	PaginationSelector *string `json:"pagination_selector"`
	RowSelector        *string `json:"row_selector"`
	CellSelector       *string `json:"cell_selector"`
	PageSizeSelector   *string `json:"page_size_selector"`
	PageSizeValue      *string `json:"page_size_value"`
	FirstPageLabel     *string `json:"first_page_label"`
	PollInterval       *string `json:"poll_interval"`
	LocateTimeout      *string `json:"locate_timeout"`
	SettleDelay        *string `json:"settle_delay"`
	PageSizeDelay      *string `json:"page_size_delay"`

	HTTPTimeout     *string `json:"http_timeout"`
	CacheMaxEntries *int    `json:"cache_max_entries"`
	CacheTTL        *string `json:"cache_ttl"`

	OutputDir     *string  `json:"output_dir"`
	OutputName    *string  `json:"output_name"`
	OutputFormats []string `json:"output_formats"`

	WebhookURL     *string `json:"webhook_url"`
	WebhookSecret  *string `json:"webhook_secret"`
	WebhookTimeout *string `json:"webhook_timeout"`

	LogLevel  *string `json:"log_level"`
	LogFormat *string `json:"log_format"`
}

func applyFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("reading config file %s", path), err)
	}

	var f fileConfig
	if err := json5.Unmarshal(data, &f); err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("parsing config file %s", path), err)
	}
	if err := f.apply(c); err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("config file %s", path), err)
	}
	return nil
}

func (f *fileConfig) apply(c *Config) error {
	setBool(&c.Browser.Headless, f.UseHeadless)
	setBool(&c.Browser.Detach, f.UseDetach)
	setBool(&c.Browser.RotateUserAgent, f.RotateUserAgent)
	setSlice(&c.Browser.UserAgents, f.UserAgents)
	// proxy only takes effect together with use_proxy.
	if f.UseProxy != nil && *f.UseProxy && f.Proxy != nil {
		c.Browser.Proxy = *f.Proxy
	}
	setBool(&c.Browser.DisableJavaScript, f.DisableJavaScript)
	setBool(&c.Browser.Stealth, f.UseStealth)
	setBool(&c.Delay.Random, f.RandomDelay)
	setSeconds(&c.Delay.Min, f.MinDelay)
	setSeconds(&c.Delay.Max, f.MaxDelay)

	setString(&c.Engine.Kind, f.Engine)
	setString(&c.Scraper.TargetURL, f.TargetURL)
	setBool(&c.Browser.NoSandbox, f.NoSandbox)
	setString(&c.Browser.BrowserBin, f.BrowserBin)
	setSlice(&c.Browser.Languages, f.Languages)
	setSlice(&c.Browser.BlockedResourceTypes, f.BlockedResources)
	if f.NavigationsPerSecond != nil {
		c.Browser.NavigationsPerSecond = *f.NavigationsPerSecond
	}

	setString(&c.Scraper.PaginationSelector, f.PaginationSelector)
	setString(&c.Scraper.RowSelector, f.RowSelector)
	setString(&c.Scraper.CellSelector, f.CellSelector)
	setString(&c.Scraper.PageSizeSelector, f.PageSizeSelector)
	setString(&c.Scraper.PageSizeValue, f.PageSizeValue)
	setString(&c.Scraper.FirstPageLabel, f.FirstPageLabel)

	setString(&c.Export.Dir, f.OutputDir)
	setString(&c.Export.Name, f.OutputName)
	setSlice(&c.Export.Formats, f.OutputFormats)

	setString(&c.Webhook.URL, f.WebhookURL)
	setString(&c.Webhook.Secret, f.WebhookSecret)

	setString(&c.Log.Level, f.LogLevel)
	setString(&c.Log.Format, f.LogFormat)

	if f.CacheMaxEntries != nil {
		c.Cache.MaxEntries = *f.CacheMaxEntries
	}

	durations := []struct {
		key string
		dst *time.Duration
		src *string
	}{
		{"action_timeout", &c.Browser.ActionTimeout, f.ActionTimeout},
		{"poll_interval", &c.Scraper.PollInterval, f.PollInterval},
		{"locate_timeout", &c.Scraper.LocateTimeout, f.LocateTimeout},
		{"settle_delay", &c.Scraper.SettleDelay, f.SettleDelay},
		{"page_size_delay", &c.Scraper.PageSizeDelay, f.PageSizeDelay},
		{"http_timeout", &c.Engine.HTTPTimeout, f.HTTPTimeout},
		{"cache_ttl", &c.Cache.TTL, f.CacheTTL},
		{"webhook_timeout", &c.Webhook.Timeout, f.WebhookTimeout},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setSlice(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

func setSeconds(dst *time.Duration, src *float64) {
	if src != nil {
		*dst = time.Duration(*src * float64(time.Second))
	}
}
