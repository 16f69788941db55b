package domain

import (
	"fmt"
	"strings"
)

// RuleKind tags a manual override rule variant
type RuleKind string

const (
	// RuleKeyword assigns Target to records whose normalized name contains Keyword
	RuleKeyword RuleKind = "keyword"
	// RuleCategoryFallback assigns Target to broken or empty records of Category
	RuleCategoryFallback RuleKind = "category-fallback"
)

// Rule is one entry of the declarative correction table
type Rule struct {
	Kind     RuleKind `yaml:"kind" json:"kind"`
	Keyword  string   `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Category string   `yaml:"category,omitempty" json:"category,omitempty"`
	Target   string   `yaml:"target" json:"target"`
	Note     string   `yaml:"note,omitempty" json:"note,omitempty"`
}

// RuleSet is the versioned, ordered list of manual overrides.
// Order matters: the first matching keyword rule wins.
type RuleSet struct {
	Version      int      `yaml:"version" json:"version"`
	Rules        []Rule   `yaml:"rules" json:"rules"`
	Placeholders []string `yaml:"placeholders,omitempty" json:"placeholders,omitempty"`
}

// CurrentRuleSetVersion is the rule file format this build understands
const CurrentRuleSetVersion = 1

// Validate checks every rule has the fields its kind requires
func (rs RuleSet) Validate() error {
	if rs.Version != 0 && rs.Version != CurrentRuleSetVersion {
		return fmt.Errorf("unsupported rule set version %d (want %d)", rs.Version, CurrentRuleSetVersion)
	}
	for i, r := range rs.Rules {
		if strings.TrimSpace(r.Target) == "" {
			return fmt.Errorf("rule %d: target is required", i)
		}
		switch r.Kind {
		case RuleKeyword:
			if strings.TrimSpace(r.Keyword) == "" {
				return fmt.Errorf("rule %d: keyword rule needs a keyword", i)
			}
		case RuleCategoryFallback:
			if strings.TrimSpace(r.Category) == "" {
				return fmt.Errorf("rule %d: category-fallback rule needs a category", i)
			}
		default:
			return fmt.Errorf("rule %d: unknown kind %q", i, r.Kind)
		}
	}
	return nil
}

// compiledRule is a rule with its keyword normalized the same way record
// names are.
type compiledRule struct {
	Rule
	index      int
	keywordKey string
}

func compileRules(rs RuleSet, n *Normalizer) (keyword, fallback []compiledRule) {
	for i, r := range rs.Rules {
		c := compiledRule{Rule: r, index: i}
		switch r.Kind {
		case RuleKeyword:
			c.keywordKey = n.Key(r.Keyword)
			if c.keywordKey == "" {
				continue
			}
			keyword = append(keyword, c)
		case RuleCategoryFallback:
			fallback = append(fallback, c)
		}
	}
	return keyword, fallback
}

// matchesName reports whether the rule keyword occurs in a normalized name
func (c compiledRule) matchesName(nameKey string) bool {
	return nameKey != "" && strings.Contains(nameKey, c.keywordKey)
}
