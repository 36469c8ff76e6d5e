// Package pipeline runs the full autofill pass over one parsed page: extract
// a schema per form, obtain a plan per schema concurrently, and apply the
// plans back onto the document.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"formautofill/models"
	"formautofill/pkg/applier"
	"formautofill/pkg/mapping"
	"formautofill/pkg/orchestrator"
	"formautofill/pkg/schema"
)

// FormResult pairs one form's schema with the plan that was produced for it
// and the outcome of applying that plan.
type FormResult struct {
	Schema models.FormSchema
	Plan   models.FillPlan
	Apply  applier.Result
}

// Pipeline coordinates one page at a time. Forms on the page are planned
// independently and concurrently; application is sequential because the
// parsed document is not safe for concurrent mutation.
type Pipeline struct {
	Orchestrator *orchestrator.Orchestrator
	Mappings     *mapping.Store
	Profile      *models.UserProfile
	Workers      int
	EventSink    applier.EventSink
	Logger       *slog.Logger

	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

type job struct {
	schema models.FormSchema
}

// Run executes one autofill pass. Starting a new run cancels the context of
// any previous run still in flight, so a superseded run's late responses are
// dropped instead of applied to a page that has moved on.
func (p *Pipeline) Run(ctx context.Context, doc *goquery.Document, pageURL, locale string) []FormResult {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancelPrev != nil {
		p.cancelPrev()
	}
	p.cancelPrev = cancel
	p.mu.Unlock()

	schemas := schema.Extract(doc)
	if len(schemas) == 0 {
		logger.Info("no form controls found, skipping inference", "url", pageURL)
		return nil
	}

	var domainMapping *models.DomainMapping
	if p.Mappings != nil {
		if domain := hostOf(pageURL); domain != "" {
			m := p.Mappings.Load(domain)
			domainMapping = &m
		}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(schemas) {
		workers = len(schemas)
	}

	jobs := make(chan job, len(schemas))
	planned := make(chan FormResult, len(schemas))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				plan := p.Orchestrator.MakePlan(ctx, orchestrator.Request{
					Schema:  j.schema,
					Mapping: domainMapping,
					Profile: p.Profile,
					Locale:  locale,
				})
				planned <- FormResult{Schema: j.schema, Plan: plan}
			}
		}()
	}

	for _, s := range schemas {
		jobs <- job{schema: s}
	}
	close(jobs)
	wg.Wait()
	close(planned)

	a := applier.New(doc, applier.WithEventSink(p.EventSink), applier.WithLogger(logger))

	var results []FormResult
	for r := range planned {
		r.Apply = a.Apply(r.Plan)
		logger.Info("form filled",
			"form_id", r.Plan.FormID,
			"applied", len(r.Apply.Applied),
			"skipped", len(r.Apply.Skipped),
			"notes", r.Plan.Notes)
		results = append(results, r)
	}
	return results
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
