package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Domain rules: learned field->meaning corrections, unique per selector
-- within a domain. Written only by explicit user corrections; no automatic
-- pruning or expiry.
CREATE TABLE IF NOT EXISTS domain_rules (
    rule_id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    selector TEXT NOT NULL,
    meaning TEXT NOT NULL,
    value_template TEXT,
    last_updated_at INTEGER NOT NULL,   -- epoch millis
    UNIQUE(domain, selector)
);

CREATE INDEX IF NOT EXISTS idx_domain_rules_domain ON domain_rules(domain);
`
