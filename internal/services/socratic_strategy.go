package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StrategyRule pairs a case-insensitive title substring with the teaching
// strategy it selects. Rules are evaluated in order, first match wins; a rule
// with an empty Contains matches everything and terminates the scan.
type StrategyRule struct {
	Contains string `yaml:"contains"`
	Strategy string `yaml:"strategy"`
}

// defaultStrategyRules is the built-in table. The final catch-all entry is
// mandatory: Strategy() must be total over every module title.
var defaultStrategyRules = []StrategyRule{
	{Contains: "communication", Strategy: "Guide discovery of communication principles through real-world examples"},
	{Contains: "media", Strategy: "Question assumptions about media influence and bias"},
	{Contains: "society", Strategy: "Explore social connections through critical questioning"},
	{Contains: "", Strategy: "Use strategic questioning to reveal underlying concepts"},
}

type StrategyTable struct {
	rules []StrategyRule
}

func NewStrategyTable(rules []StrategyRule) (*StrategyTable, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("strategy table requires at least one rule")
	}
	last := rules[len(rules)-1]
	if strings.TrimSpace(last.Contains) != "" {
		return nil, fmt.Errorf("strategy table must end with a catch-all rule")
	}
	for i, rule := range rules {
		if strings.TrimSpace(rule.Strategy) == "" {
			return nil, fmt.Errorf("strategy rule %d has an empty strategy", i)
		}
	}
	return &StrategyTable{rules: rules}, nil
}

func DefaultStrategyTable() *StrategyTable {
	table, err := NewStrategyTable(defaultStrategyRules)
	if err != nil {
		// The built-in table is validated by tests; failing here means the
		// source itself is broken.
		panic(err)
	}
	return table
}

// LoadStrategyTable reads a replacement rule table from the YAML file at
// path. The file holds an ordered list of {contains, strategy} entries and
// must end with a catch-all.
func LoadStrategyTable(path string) (*StrategyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy rules: %w", err)
	}
	var rules []StrategyRule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse strategy rules: %w", err)
	}
	return NewStrategyTable(rules)
}

// Strategy resolves the Socratic teaching strategy for a module title.
// First matching rule wins; the catch-all guarantees a result.
func (t *StrategyTable) Strategy(moduleTitle string) string {
	title := strings.ToLower(moduleTitle)
	for _, rule := range t.rules {
		needle := strings.ToLower(strings.TrimSpace(rule.Contains))
		if needle == "" || strings.Contains(title, needle) {
			return rule.Strategy
		}
	}
	// Unreachable: construction enforces a trailing catch-all.
	return t.rules[len(t.rules)-1].Strategy
}
