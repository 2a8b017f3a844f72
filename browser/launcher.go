// Package browser provides a page.Session backed by a Chromium instance
// driven through go-rod: headless or visible, proxied, stealth-patched, with
// optional user-agent rotation.
package browser

import (
	"log/slog"
	"math/rand/v2"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pagesweep/config"
	"github.com/use-agent/pagesweep/models"
)

// Launch starts a browser configured by cfg and opens the single tab the
// scrape runs in.
func Launch(cfg config.BrowserConfig) (*Session, error) {
	l := newLauncher(cfg)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	p, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}

	s := &Session{
		browser:       b,
		page:          p,
		launcher:      l,
		detach:        cfg.Detach,
		actionTimeout: cfg.ActionTimeout,
	}
	if err := s.prepare(cfg); err != nil {
		_ = b.Close()
		l.Kill()
		return nil, err
	}
	return s, nil
}

func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	// A detached browser must outlive this process.
	if cfg.Detach {
		l = l.Leakless(false)
	}
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	if ua := PickUserAgent(cfg); ua != "" {
		l.Set(flags.Flag("user-agent"), ua)
	}

	if cfg.Stealth {
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-features"), "TranslateUI")
		l.Set(flags.Flag("disable-popup-blocking"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("no-first-run"))
	}
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	return l
}

// PickUserAgent returns a random configured user agent when rotation is on,
// or "" to keep the default.
func PickUserAgent(cfg config.BrowserConfig) string {
	if !cfg.RotateUserAgent || len(cfg.UserAgents) == 0 {
		return ""
	}
	return cfg.UserAgents[rand.IntN(len(cfg.UserAgents))]
}
