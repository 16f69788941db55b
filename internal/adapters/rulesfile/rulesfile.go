// Package rulesfile loads the declarative manual-override table from YAML.
package rulesfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// DefaultPath is where the rules file lives when none is configured
const DefaultPath = "catalogsync.rules.yaml"

// Load reads and validates a rule set. A missing or empty file is an empty
// rule set; unknown fields are rejected so typos do not silently disable a
// rule.
func Load(path string) (domain.RuleSet, error) {
	path = expandHome(path)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.RuleSet{Version: domain.CurrentRuleSetVersion}, nil
	}
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates rule set YAML
func Parse(data []byte) (domain.RuleSet, error) {
	var rs domain.RuleSet
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rs); err != nil && !errors.Is(err, io.EOF) {
		return domain.RuleSet{}, &application.ValidationError{
			Field:   "rules",
			Message: fmt.Sprintf("failed to parse YAML: %v", err),
		}
	}
	if rs.Version == 0 {
		rs.Version = domain.CurrentRuleSetVersion
	}
	if err := rs.Validate(); err != nil {
		return domain.RuleSet{}, &application.ValidationError{Field: "rules", Message: err.Error()}
	}
	return rs, nil
}

// Save writes rs to path, creating parent directories
func Save(path string, rs domain.RuleSet) error {
	if err := rs.Validate(); err != nil {
		return &application.ValidationError{Field: "rules", Message: err.Error()}
	}
	path = expandHome(path)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rs); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}

// Example is the starter rule set written by `rules init`
func Example() domain.RuleSet {
	return domain.RuleSet{
		Version: domain.CurrentRuleSetVersion,
		Rules: []domain.Rule{
			{
				Kind:    domain.RuleKeyword,
				Keyword: "spark plug",
				Target:  "/assets/engine/iridium-spark-plugs-set.webp",
				Note:    "all spark plug variants share one photo",
			},
			{
				Kind:     domain.RuleCategoryFallback,
				Category: "electrical",
				Target:   "/assets/electrical/alternator.jpg",
			},
		},
		Placeholders: []string{"dental-image"},
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
