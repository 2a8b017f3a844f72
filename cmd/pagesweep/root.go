package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/use-agent/pagesweep/browser"
	"github.com/use-agent/pagesweep/cache"
	"github.com/use-agent/pagesweep/config"
	"github.com/use-agent/pagesweep/engine"
	"github.com/use-agent/pagesweep/export"
	"github.com/use-agent/pagesweep/models"
	"github.com/use-agent/pagesweep/page"
	"github.com/use-agent/pagesweep/scraper"
	"github.com/use-agent/pagesweep/webhook"
)

// options holds command-line overrides. Only flags the user actually set
// replace file and environment values.
type options struct {
	configPath string
	url        string
	engine     string
	out        string
	name       string
	formats    []string
	preview    int
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "pagesweep",
		Short:        "pagesweep walks a paginated team statistics table and exports every row.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), &opts)
			if err != nil {
				return err
			}
			initLogger(cfg.Log)

			_, err = runScrape(cmd.Context(), cfg, cmd.OutOrStdout(), opts.preview)
			return err
		},
	}

	bindFlags(cmd.Flags(), &opts)
	return cmd
}

func bindFlags(f *pflag.FlagSet, opts *options) {
	f.StringVar(&opts.configPath, "config", "pagesweep.json5", "JSON5 config file; skipped when missing")
	f.StringVar(&opts.url, "url", "", "page holding the table (overrides target_url)")
	f.StringVar(&opts.engine, "engine", "", `"browser" or "http" (overrides engine)`)
	f.StringVar(&opts.out, "out", "", "export directory (overrides output_dir)")
	f.StringVar(&opts.name, "name", "", "export file name without extension (overrides output_name)")
	f.StringSliceVar(&opts.formats, "formats", nil, "comma separated export formats: "+joinFormats())
	f.IntVar(&opts.preview, "preview", 5, "sample records printed as a table; 0 disables")
}

// loadConfig layers changed flags over the loaded configuration.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("url") {
		cfg.Scraper.TargetURL = opts.url
	}
	if flags.Changed("engine") {
		cfg.Engine.Kind = opts.engine
	}
	if flags.Changed("out") {
		cfg.Export.Dir = opts.out
	}
	if flags.Changed("name") {
		cfg.Export.Name = opts.name
	}
	if flags.Changed("formats") {
		cfg.Export.Formats = opts.formats
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runScrape performs one run: open a session, sweep, export, notify. Only a
// session that cannot be opened is returned as an error; everything after
// that is logged and whatever was collected is still exported.
func runScrape(ctx context.Context, cfg *config.Config, stdout io.Writer, preview int) (*webhook.Summary, error) {
	runID := newRunID()
	slog.Info("pagesweep starting",
		"run_id", runID,
		"url", cfg.Scraper.TargetURL,
		"engine", cfg.Engine.Kind,
		"formats", cfg.Export.Formats,
	)

	session, err := openSession(cfg)
	if err != nil {
		slog.Error("failed to open session", "engine", cfg.Engine.Kind, "error", err)
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("closing session", "error", err)
		}
	}()

	// A nil *browser.Pacer must not end up inside the interface.
	var pacer scraper.Pacer
	if p := browser.NewPacer(cfg.Delay, cfg.Browser.NavigationsPerSecond); p != nil {
		pacer = p
	}

	sc := scraper.New(session, cfg.Scraper, pacer)
	records := sc.Run(ctx)
	renderPreview(stdout, records, preview)

	summary := &webhook.Summary{
		TargetURL: cfg.Scraper.TargetURL,
		Records:   len(records),
		Pages:     sc.Visited(),
		Files:     exportAll(records, cfg.Export),
		Complete:  sc.Err() == nil,
	}
	if err := sc.Err(); err != nil {
		summary.Error = err.Error()
	}

	if cfg.Webhook.URL != "" {
		// Delivery still happens after an interrupt.
		wctx := context.WithoutCancel(ctx)
		ev := webhook.NewCompleted(runID, *summary)
		if err := webhook.Deliver(wctx, cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout, ev); err != nil {
			slog.Warn("webhook delivery failed", "url", cfg.Webhook.URL, "error", err)
		} else {
			slog.Info("webhook delivered", "url", cfg.Webhook.URL)
		}
	}

	slog.Info("pagesweep finished",
		"run_id", runID,
		"records", summary.Records,
		"files", len(summary.Files),
		"complete", summary.Complete,
	)
	return summary, nil
}

// openSession provisions the configured engine.
func openSession(cfg *config.Config) (page.Session, error) {
	if cfg.Engine.Kind == config.EngineHTTP {
		e, err := engine.NewHTTPEngine(engine.Options{
			Proxy:     cfg.Browser.Proxy,
			UserAgent: browser.PickUserAgent(cfg.Browser),
			Languages: cfg.Browser.Languages,
			Timeout:   cfg.Engine.HTTPTimeout,
			Cache:     cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL),
		})
		if err != nil {
			return nil, err
		}
		return page.NewStatic(e), nil
	}
	return browser.Launch(cfg.Browser)
}

// exportAll writes records in every configured format and returns the
// paths written. A bad format or an empty result skips that format.
func exportAll(records []models.TeamRecord, cfg config.ExportConfig) []string {
	var files []string
	for _, format := range cfg.Formats {
		path, err := export.Write(records, cfg.Dir, cfg.Name, format)
		switch {
		case errors.Is(err, export.ErrNoData):
			slog.Warn("no data to export", "format", format)
		case err != nil:
			slog.Error("export failed", "format", format, "error", err)
		default:
			slog.Info("exported", "format", format, "path", path, "records", len(records))
			files = append(files, path)
		}
	}
	return files
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UTC().Format("20060102T150405.000000000")
	}
	return hex.EncodeToString(b[:])
}
