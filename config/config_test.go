package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/use-agent/pagesweep/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") differs from Default() (-want +got):\n%s", diff)
	}
	if cfg.Scraper.TargetURL != DefaultTargetURL {
		t.Errorf("TargetURL = %q", cfg.Scraper.TargetURL)
	}
	if cfg.Scraper.LocateTimeout != 5*time.Second || cfg.Scraper.PollInterval != 500*time.Millisecond {
		t.Errorf("locate timing = %s / %s", cfg.Scraper.LocateTimeout, cfg.Scraper.PollInterval)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_FileLayer(t *testing.T) {
	path := writeFile(t, `{
		// browser options
		use_headless: false,
		use_detach: true,
		rotate_user_agent: true,
		user_agents: ["UA-1", "UA-2"],
		use_proxy: true,
		proxy: "http://127.0.0.1:8888",
		use_stealth: true,
		random_delay: true,
		min_delay: 1.5,
		max_delay: 2,
		engine: "http",
		settle_delay: "250ms",
		action_timeout: "2s",
		output_formats: ["csv"],
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Browser.Headless || !cfg.Browser.Detach || !cfg.Browser.Stealth {
		t.Errorf("browser flags = %+v", cfg.Browser)
	}
	if diff := cmp.Diff([]string{"UA-1", "UA-2"}, cfg.Browser.UserAgents); diff != "" {
		t.Errorf("user agents (-want +got):\n%s", diff)
	}
	if cfg.Browser.Proxy != "http://127.0.0.1:8888" {
		t.Errorf("Proxy = %q", cfg.Browser.Proxy)
	}
	if !cfg.Delay.Random || cfg.Delay.Min != 1500*time.Millisecond || cfg.Delay.Max != 2*time.Second {
		t.Errorf("delay = %+v", cfg.Delay)
	}
	if cfg.Engine.Kind != EngineHTTP {
		t.Errorf("engine = %q", cfg.Engine.Kind)
	}
	if cfg.Scraper.SettleDelay != 250*time.Millisecond {
		t.Errorf("SettleDelay = %s", cfg.Scraper.SettleDelay)
	}
	if cfg.Browser.ActionTimeout != 2*time.Second {
		t.Errorf("ActionTimeout = %s", cfg.Browser.ActionTimeout)
	}
	if diff := cmp.Diff([]string{"csv"}, cfg.Export.Formats); diff != "" {
		t.Errorf("formats (-want +got):\n%s", diff)
	}
	// untouched keys keep their defaults
	if cfg.Scraper.RowSelector != Default().Scraper.RowSelector {
		t.Errorf("RowSelector = %q", cfg.Scraper.RowSelector)
	}
}

func TestLoad_ProxyRequiresUseProxy(t *testing.T) {
	path := writeFile(t, `{"use_proxy": false, "proxy": "http://127.0.0.1:8888"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Browser.Proxy != "" {
		t.Errorf("Proxy = %q, want empty", cfg.Browser.Proxy)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, `{"engine": "http", "output_name": "from_file", "min_delay": 1}`)
	t.Setenv("PAGESWEEP_ENGINE", "browser")
	t.Setenv("PAGESWEEP_OUTPUT_FORMATS", "json, markdown")
	t.Setenv("PAGESWEEP_MIN_DELAY", "2s")
	t.Setenv("PAGESWEEP_HEADLESS", "not-a-bool")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Kind != EngineBrowser {
		t.Errorf("engine = %q, want env value", cfg.Engine.Kind)
	}
	if cfg.Export.Name != "from_file" {
		t.Errorf("output name = %q, want file value", cfg.Export.Name)
	}
	if diff := cmp.Diff([]string{"json", "markdown"}, cfg.Export.Formats); diff != "" {
		t.Errorf("formats (-want +got):\n%s", diff)
	}
	if cfg.Delay.Min != 2*time.Second {
		t.Errorf("min delay = %s", cfg.Delay.Min)
	}
	if !cfg.Browser.Headless {
		t.Error("unparsable env value should keep the previous setting")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{use_headless: }`},
		{"bad duration", `{settle_delay: "soon"}`},
		{"unknown engine", `{engine: "telnet"}`},
		{"inverted delays", `{min_delay: 9, max_delay: 1}`},
		{"rotation without agents", `{rotate_user_agent: true}`},
		{"empty row selector", `{row_selector: " "}`},
		{"zero action timeout", `{action_timeout: "0s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if !models.HasCode(err, models.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want code %s", err, models.ErrCodeInvalidInput)
			}
		})
	}
}
