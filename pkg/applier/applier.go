// Package applier mutates a parsed document according to a validated fill
// plan. It resolves each plan item to a concrete element, applies the value
// using the protocol for that control's kind, and reports the events a live
// page would need for host-framework reactivity through an injected sink.
package applier

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"formautofill/models"
	"formautofill/pkg/schema"
)

// EventType enumerates the DOM events the applier records.
type EventType string

const (
	EventInput  EventType = "input"
	EventChange EventType = "change"
	EventClick  EventType = "click"
)

// Event is one recorded dispatch against a resolved element.
type Event struct {
	Selector string
	Type     EventType
}

// EventSink receives every event the applier would dispatch on a live page.
// Passed at construction instead of any global hook.
type EventSink func(Event)

// SkipReason explains why an item was not applied.
type SkipReason string

const (
	SkipNeedsConfirmation SkipReason = "requires confirmation"
	SkipUnresolved        SkipReason = "no element resolved"
	SkipUnsupported       SkipReason = "unsupported control"
	SkipNoMatch           SkipReason = "no matching option"
	SkipFailed            SkipReason = "apply failed"
)

// Skipped is one plan item left unapplied, with the reason.
type Skipped struct {
	FieldID string
	Reason  SkipReason
}

// Result summarizes one Apply pass.
type Result struct {
	Applied []string
	Skipped []Skipped
	Events  []Event
}

// Applier applies fill plans onto a single parsed document.
type Applier struct {
	doc    *goquery.Document
	sink   EventSink
	logger *slog.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithEventSink subscribes a callback to recorded events.
func WithEventSink(sink EventSink) Option {
	return func(a *Applier) { a.sink = sink }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Applier) { a.logger = logger }
}

// New builds an applier over the document.
func New(doc *goquery.Document, opts ...Option) *Applier {
	a := &Applier{doc: doc, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply walks the plan in listed order. Items that are sensitive or require
// confirmation are never applied automatically; items whose identifier no
// longer resolves are silently skipped, since schemas can go stale between
// extraction and fill. A failure on one item never aborts the rest.
func (a *Applier) Apply(p models.FillPlan) Result {
	var res Result
	for _, item := range p.Items {
		if item.Sensitive || item.RequiresConfirmation {
			res.Skipped = append(res.Skipped, Skipped{FieldID: item.FieldID, Reason: SkipNeedsConfirmation})
			continue
		}

		el := a.resolve(item.FieldID)
		if el == nil {
			res.Skipped = append(res.Skipped, Skipped{FieldID: item.FieldID, Reason: SkipUnresolved})
			continue
		}

		reason, ok := a.applyItem(el, item, &res)
		if ok {
			res.Applied = append(res.Applied, item.FieldID)
		} else {
			res.Skipped = append(res.Skipped, Skipped{FieldID: item.FieldID, Reason: reason})
		}
	}
	return res
}

// resolve finds the target element: literal CSS selector, then name, then
// id, then the ARIA-proxy checkbox button special case.
func (a *Applier) resolve(fieldID string) *goquery.Selection {
	if fieldID == "" {
		return nil
	}
	if el := a.doc.Find(fieldID).First(); el.Length() > 0 {
		return el
	}
	if el := a.doc.Find(`[name="` + escapeAttr(fieldID) + `"]`).First(); el.Length() > 0 {
		return el
	}
	if el := a.doc.Find(`[id="` + escapeAttr(fieldID) + `"]`).First(); el.Length() > 0 {
		return el
	}
	// Covers proxy ids the extractor substituted for hidden native controls.
	var proxy *goquery.Selection
	a.doc.Find(`button[role="checkbox"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if id, _ := s.Attr("id"); id == fieldID {
			proxy = s
			return false
		}
		return true
	})
	return proxy
}

// applyItem dispatches on the probed control kind (tag plus type attribute),
// not on runtime type identity. A panic from the underlying platform is
// confined to the one item.
func (a *Applier) applyItem(el *goquery.Selection, item models.FillItem, res *Result) (reason SkipReason, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("apply failed for item", "field_id", item.FieldID, "panic", r)
			reason, ok = SkipFailed, false
		}
	}()

	switch goquery.NodeName(el) {
	case "input":
		t, _ := el.Attr("type")
		switch strings.ToLower(t) {
		case "checkbox":
			return a.applyCheckbox(el, item, res)
		case "radio":
			return a.applyRadio(el, item, res)
		default:
			return a.applyText(el, item, res)
		}
	case "textarea":
		return a.applyTextarea(el, item, res)
	case "select":
		return a.applySelect(el, item, res)
	case "button":
		role, _ := el.Attr("role")
		switch role {
		case "checkbox":
			return a.applyProxyCheckbox(el, item, res)
		case "combobox":
			return a.applyProxyCombobox(el, item, res)
		}
		return SkipUnsupported, false
	default:
		return SkipUnsupported, false
	}
}

func (a *Applier) applyText(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	if item.Value.IsBool {
		return SkipUnsupported, false
	}
	el.SetAttr("value", item.Value.Str)
	sel := schema.CSSPath(el)
	// Hosts may listen to either; dispatching both covers controlled and
	// uncontrolled component patterns alike.
	a.emit(res, Event{Selector: sel, Type: EventInput})
	a.emit(res, Event{Selector: sel, Type: EventChange})
	return "", true
}

func (a *Applier) applyTextarea(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	if item.Value.IsBool {
		return SkipUnsupported, false
	}
	el.SetText(item.Value.Str)
	sel := schema.CSSPath(el)
	a.emit(res, Event{Selector: sel, Type: EventInput})
	a.emit(res, Event{Selector: sel, Type: EventChange})
	return "", true
}

// applyCheckbox handles a native checkbox. A visually hidden one is driven
// through its sibling ARIA proxy, and only when the proxy's current state
// differs from the desired one; clicking an already-correct control would
// double-toggle.
func (a *Applier) applyCheckbox(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	if !item.Value.IsBool {
		return SkipUnsupported, false
	}
	desired := item.Value.Bool

	if isHidden(el) {
		proxy := el.Parent().Find(`button[role="checkbox"]`).First()
		if proxy.Length() > 0 {
			a.toggleProxy(proxy, el, desired, res)
			return "", true
		}
	}

	setChecked(el, desired)
	return "", true
}

// applyProxyCheckbox handles a proxy button referenced directly by id.
func (a *Applier) applyProxyCheckbox(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	if !item.Value.IsBool {
		return SkipUnsupported, false
	}
	native := el.Parent().Find(`input[type="checkbox"]`).First()
	a.toggleProxy(el, native, item.Value.Bool, res)
	return "", true
}

// toggleProxy simulates activation of an ARIA checkbox proxy, keeping the
// hidden native control in sync. native may be empty.
func (a *Applier) toggleProxy(proxy, native *goquery.Selection, desired bool, res *Result) {
	current := false
	if v, _ := proxy.Attr("aria-checked"); v == "true" {
		current = true
	}
	if current == desired {
		return
	}
	if desired {
		proxy.SetAttr("aria-checked", "true")
	} else {
		proxy.SetAttr("aria-checked", "false")
	}
	if native != nil && native.Length() > 0 {
		setChecked(native, desired)
	}
	a.emit(res, Event{Selector: schema.CSSPath(proxy), Type: EventClick})
}

func (a *Applier) applyRadio(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	name, _ := el.Attr("name")
	if name == "" {
		return SkipUnsupported, false
	}
	want := item.Value.String()

	group := a.doc.Find(`input[type="radio"][name="` + escapeAttr(name) + `"]`)
	var match *goquery.Selection
	group.EachWithBreak(func(i int, r *goquery.Selection) bool {
		if v, _ := r.Attr("value"); v == want {
			match = r
			return false
		}
		return true
	})
	if match == nil {
		// No option matches: no selection changes.
		return SkipNoMatch, false
	}

	group.Each(func(i int, r *goquery.Selection) { r.RemoveAttr("checked") })
	setChecked(match, true)
	a.emit(res, Event{Selector: schema.CSSPath(match), Type: EventChange})
	return "", true
}

func (a *Applier) applySelect(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	if item.Value.IsBool {
		return SkipUnsupported, false
	}
	want := item.Value.Str

	options := el.Find("option")
	var chosen *goquery.Selection
	if want != "" {
		options.EachWithBreak(func(i int, opt *goquery.Selection) bool {
			if optionValue(opt) == want {
				chosen = opt
				return false
			}
			return true
		})
	}
	if chosen == nil {
		// The planner's empty-string sentinel, or an absent value, resolves
		// into the first non-empty option.
		options.EachWithBreak(func(i int, opt *goquery.Selection) bool {
			if optionValue(opt) != "" {
				chosen = opt
				return false
			}
			return true
		})
	}
	if chosen == nil {
		return SkipNoMatch, false
	}

	options.Each(func(i int, opt *goquery.Selection) { opt.RemoveAttr("selected") })
	chosen.SetAttr("selected", "selected")

	sel := schema.CSSPath(el)
	a.emit(res, Event{Selector: sel, Type: EventInput})
	a.emit(res, Event{Selector: sel, Type: EventChange})

	// Keep the visual proxy's label in sync with the selection.
	if trigger := el.Parent().Find(`button[role="combobox"]`).First(); trigger.Length() > 0 {
		trigger.SetText(strings.TrimSpace(chosen.Text()))
	}
	return "", true
}

// applyProxyCombobox handles a combobox trigger referenced directly by id:
// the real select is looked up in the same container.
func (a *Applier) applyProxyCombobox(el *goquery.Selection, item models.FillItem, res *Result) (SkipReason, bool) {
	if item.Value.IsBool {
		return SkipUnsupported, false
	}
	native := el.Parent().Find("select").First()
	if native.Length() > 0 {
		return a.applySelect(native, item, res)
	}
	el.SetText(item.Value.Str)
	a.emit(res, Event{Selector: schema.CSSPath(el), Type: EventClick})
	return "", true
}

func (a *Applier) emit(res *Result, ev Event) {
	if res != nil {
		res.Events = append(res.Events, ev)
	}
	if a.sink != nil {
		a.sink(ev)
	}
}

func setChecked(el *goquery.Selection, checked bool) {
	if checked {
		el.SetAttr("checked", "checked")
	} else {
		el.RemoveAttr("checked")
	}
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

func isHidden(el *goquery.Selection) bool {
	if _, ok := el.Attr("hidden"); ok {
		return true
	}
	if v, _ := el.Attr("aria-hidden"); v == "true" {
		return true
	}
	if style, ok := el.Attr("style"); ok {
		compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
			return true
		}
	}
	if class, ok := el.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if c == "sr-only" || c == "visually-hidden" || c == "hidden" {
				return true
			}
		}
	}
	return false
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
