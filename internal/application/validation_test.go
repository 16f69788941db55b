package application

import (
	"errors"
	"testing"

	"catalogsync/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
		wantMsg   string
	}{
		{
			name:      "valid value",
			fieldName: "assetRef",
			value:     "/assets/engine/turbo.jpg",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "assetRef",
			value:     "",
			wantErr:   true,
			wantMsg:   "assetRef: asset ref is required",
		},
		{
			name:      "whitespace only",
			fieldName: "id",
			value:     "   ",
			wantErr:   true,
			wantMsg:   "id: id is required",
		},
		{
			name:      "unknown field name kept as is",
			fieldName: "sku",
			value:     "",
			wantErr:   true,
			wantMsg:   "sku: sku is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
				if err.Error() != tt.wantMsg {
					t.Errorf("expected message %q, got %q", tt.wantMsg, err.Error())
				}
			}
		})
	}
}

func TestValidatePlanEntry(t *testing.T) {
	tests := []struct {
		name      string
		entry     domain.PlanEntry
		wantField string
	}{
		{
			name:  "complete entry",
			entry: domain.PlanEntry{RecordID: "1", ToRef: "/assets/engine/turbo.jpg"},
		},
		{
			name:      "missing id",
			entry:     domain.PlanEntry{ToRef: "/assets/engine/turbo.jpg"},
			wantField: "recordId",
		},
		{
			name:      "missing target",
			entry:     domain.PlanEntry{RecordID: "1", FromRef: "/assets/engine/turbo.jpg"},
			wantField: "toRef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlanEntry(tt.entry)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if valErr.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, valErr.Field)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if err := ValidateThreshold("threshold", v); err != nil {
			t.Errorf("ValidateThreshold(%v) unexpected error: %v", v, err)
		}
	}
	for _, v := range []float64{-0.1, 1.01} {
		if err := ValidateThreshold("threshold", v); err == nil {
			t.Errorf("ValidateThreshold(%v) expected error", v)
		}
	}
}
