package models

// DomainMappingRule is one learned field→meaning correction for a domain.
type DomainMappingRule struct {
	Selector      string  `json:"selector" yaml:"selector"`
	Meaning       Meaning `json:"meaning" yaml:"meaning"`
	ValueTemplate string  `json:"valueTemplate,omitempty" yaml:"valueTemplate,omitempty"`
	LastUpdatedAt int64   `json:"lastUpdatedAt" yaml:"lastUpdatedAt"` // epoch millis
}

// DomainMapping is the persisted rule set for one origin. Rules are unique by
// selector; upserting an existing selector replaces its rule.
type DomainMapping struct {
	Domain string              `json:"domain" yaml:"domain"`
	Rules  []DomainMappingRule `json:"rules" yaml:"rules"`
}

// Rule returns the rule for the given selector, if any.
func (m *DomainMapping) Rule(selector string) (DomainMappingRule, bool) {
	for _, r := range m.Rules {
		if r.Selector == selector {
			return r, true
		}
	}
	return DomainMappingRule{}, false
}
