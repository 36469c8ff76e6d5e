// Package mapping persists per-domain field→meaning corrections learned from
// user edits. The inference client reads them back as hints.
package mapping

import (
	"fmt"
	"log/slog"
	"time"

	"formautofill/models"
	"formautofill/pkg/db"
)

// Store reads and writes DomainMapping rows. Access is read-then-write with
// no optimistic-concurrency check; the last writer wins.
type Store struct {
	db     *db.DB
	logger *slog.Logger
}

// NewStore wraps an open database.
func NewStore(database *db.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: database, logger: logger}
}

// Load returns the mapping for a domain. A domain with nothing persisted, or
// with unreadable rows, yields an empty rule set rather than an error: the
// mapping is a hint, never a prerequisite.
func (s *Store) Load(domain string) models.DomainMapping {
	mapping := models.DomainMapping{Domain: domain, Rules: []models.DomainMappingRule{}}

	rows, err := s.db.Query(`
		SELECT selector, meaning, COALESCE(value_template, ''), last_updated_at
		FROM domain_rules WHERE domain = ? ORDER BY rule_id
	`, domain)
	if err != nil {
		s.logger.Warn("failed to load domain mapping", "domain", domain, "error", err)
		return mapping
	}
	defer rows.Close()

	for rows.Next() {
		var r models.DomainMappingRule
		var meaning string
		if err := rows.Scan(&r.Selector, &meaning, &r.ValueTemplate, &r.LastUpdatedAt); err != nil {
			s.logger.Warn("skipping unreadable mapping rule", "domain", domain, "error", err)
			continue
		}
		r.Meaning = models.Meaning(meaning)
		mapping.Rules = append(mapping.Rules, r)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("failed while reading domain mapping", "domain", domain, "error", err)
	}
	return mapping
}

// Save persists every rule of the mapping, replacing rules that already exist
// for the same (domain, selector).
func (s *Store) Save(mapping models.DomainMapping) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range mapping.Rules {
		_, err := tx.Exec(`
			INSERT INTO domain_rules (domain, selector, meaning, value_template, last_updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(domain, selector) DO UPDATE SET
				meaning = excluded.meaning,
				value_template = excluded.value_template,
				last_updated_at = excluded.last_updated_at
		`, mapping.Domain, r.Selector, string(r.Meaning), r.ValueTemplate, r.LastUpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save rule for %s: %w", r.Selector, err)
		}
	}
	return tx.Commit()
}

// Upsert replaces the rule for the selector if present (keyed by exact
// selector equality), otherwise appends one. The updated mapping is returned;
// the caller decides when to Save.
func Upsert(mapping models.DomainMapping, selector string, meaning models.Meaning, valueTemplate string) models.DomainMapping {
	rule := models.DomainMappingRule{
		Selector:      selector,
		Meaning:       meaning,
		ValueTemplate: valueTemplate,
		LastUpdatedAt: time.Now().UnixMilli(),
	}
	for i, r := range mapping.Rules {
		if r.Selector == selector {
			next := make([]models.DomainMappingRule, len(mapping.Rules))
			copy(next, mapping.Rules)
			next[i] = rule
			mapping.Rules = next
			return mapping
		}
	}
	mapping.Rules = append(append([]models.DomainMappingRule{}, mapping.Rules...), rule)
	return mapping
}

// Learn applies a batch of user corrections to a domain's mapping and
// persists the result. String values become value templates; boolean
// corrections carry the meaning only.
func (s *Store) Learn(domain string, corrections []models.FillItem) error {
	mapping := s.Load(domain)
	for _, c := range corrections {
		template := ""
		if !c.Value.IsBool {
			template = c.Value.Str
		}
		mapping = Upsert(mapping, c.FieldID, c.Meaning, template)
	}
	return s.Save(mapping)
}
