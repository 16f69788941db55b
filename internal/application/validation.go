package application

import (
	"fmt"
	"strings"

	"catalogsync/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "assetRef" -> "asset ref")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"id":       "id",
		"recordId": "record ID",
		"assetRef": "asset ref",
		"toRef":    "target asset ref",
		"name":     "name",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidatePlanEntry checks an entry carries what the executor needs
func ValidatePlanEntry(e domain.PlanEntry) error {
	if err := ValidateRequired("recordId", e.RecordID); err != nil {
		return err
	}
	return ValidateRequired("toRef", e.ToRef)
}

// ValidateThreshold checks a match threshold lies in [0,1]
func ValidateThreshold(fieldName string, v float64) error {
	if v < 0 || v > 1 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("must be between 0 and 1, got: %g", v),
		}
	}
	return nil
}
