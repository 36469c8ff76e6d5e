package fill

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"formautofill/models"
	"formautofill/pkg/db"
	"formautofill/pkg/fetcher"
	"formautofill/pkg/locale"
	"formautofill/pkg/mapping"
	"formautofill/pkg/orchestrator"
	"formautofill/pkg/pagemeta"
	"formautofill/pkg/pipeline"
	"formautofill/pkg/schema"
)

// FillAction runs the full pipeline over one page: fetch or read HTML,
// extract a schema per form, plan each form, apply the plans, and write the
// filled document.
func FillAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	settings, err := models.LoadSettings(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	pageURL := c.String("url")
	filePath := c.String("file")
	if (pageURL == "") == (filePath == "") {
		return fmt.Errorf("exactly one of --url or --file is required")
	}

	ctx := c.Context
	var rawHTML []byte
	if pageURL != "" {
		fetchCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		rawHTML, err = fetcher.NewFetcher().GetHtmlBytes(fetchCtx, pageURL)
		if err != nil {
			return fmt.Errorf("failed to fetch page: %w", err)
		}
	} else {
		rawHTML, err = os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read page file: %w", err)
		}
		pageURL = "file://" + filePath
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML)))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	reqLocale := resolveLocale(c, settings, pageURL, string(rawHTML), logger)

	// The mapping store is a hint source; a broken database degrades to no
	// hints rather than failing the fill.
	var store *mapping.Store
	database, err := db.Open(c.String("db"))
	if err != nil {
		logger.Warn("failed to open mapping database, continuing without hints", "error", err)
	} else {
		defer database.Close()
		store = mapping.NewStore(database, logger)
	}

	orch := orchestrator.New(settings, logger)

	if c.Bool("dry-run") {
		return dryRun(ctx, c, doc, orch, store, settings, pageURL, reqLocale)
	}

	p := &pipeline.Pipeline{
		Orchestrator: orch,
		Mappings:     store,
		Profile:      settings.Profile,
		Workers:      c.Int("workers"),
		Logger:       logger,
	}
	results := p.Run(ctx, doc, pageURL, reqLocale)

	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("failed to serialize filled document: %w", err)
	}

	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logger.Info("filled document written", "path", out, "forms", len(results))
	} else {
		fmt.Print(html)
	}
	return nil
}

// dryRun prints the plans as YAML without touching the document.
func dryRun(ctx context.Context, c *cli.Context, doc *goquery.Document, orch *orchestrator.Orchestrator, store *mapping.Store, settings models.AppSettings, pageURL, reqLocale string) error {
	schemas := schema.Extract(doc)
	var domainMapping *models.DomainMapping
	if store != nil {
		if host := hostOf(pageURL); host != "" {
			m := store.Load(host)
			domainMapping = &m
		}
	}

	var plans []models.FillPlan
	for _, s := range schemas {
		plans = append(plans, orch.MakePlan(ctx, orchestrator.Request{
			Schema:  s,
			Mapping: domainMapping,
			Profile: settings.Profile,
			Locale:  reqLocale,
		}))
	}

	out, err := yaml.Marshal(plans)
	if err != nil {
		return fmt.Errorf("failed to marshal plans: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// resolveLocale picks the request locale: flag beats settings, and a
// settings locale of "auto" (or empty) defers to language detection over the
// page text.
func resolveLocale(c *cli.Context, settings models.AppSettings, pageURL, rawHTML string, logger *slog.Logger) string {
	if flagLocale := c.String("locale"); flagLocale != "" {
		return flagLocale
	}
	if settings.Locale != "" && settings.Locale != "auto" {
		return settings.Locale
	}

	fallback := models.DefaultSettings().Locale
	meta, err := pagemeta.FromHTML(pageURL, rawHTML)
	if err != nil {
		logger.Warn("readability pass failed, using fallback locale", "error", err)
		return fallback
	}
	detected := locale.NewDetector().Detect(meta.Sample(2000), fallback)
	logger.Info("locale detected from page", "locale", detected, "title", meta.Title)
	return detected
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
