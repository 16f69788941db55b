package domain

import (
	"testing"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"plug", "plug", 0},
		{"plug", "plugs", 1},
		{"rotor", "motor", 1},
		{"kitten", "sitting", 3},
		{"brake", "break", 2},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := EditDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("EditDistance(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		record   []string
		asset    []string
		expected float64
	}{
		{
			name:     "identical sequences",
			record:   []string{"window", "motor", "assembly"},
			asset:    []string{"window", "motor", "assembly"},
			expected: 1.0,
		},
		{
			name:     "disjoint vocabularies",
			record:   []string{"window", "motor", "assembly"},
			asset:    []string{"alternator"},
			expected: 0.0,
		},
		{
			name:     "substring match counts",
			record:   []string{"spark", "plug"},
			asset:    []string{"iridium", "spark", "plugs"},
			expected: 1.0,
		},
		{
			name:     "one edit away counts",
			record:   []string{"rotor", "disc"},
			asset:    []string{"motor"},
			expected: 0.5,
		},
		{
			name:     "empty record tokens",
			record:   nil,
			asset:    []string{"anything"},
			expected: 0.0,
		},
		{
			name:     "empty asset tokens",
			record:   []string{"pump"},
			asset:    nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.record, tt.asset); got != tt.expected {
				t.Errorf("Score() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestMatcher_ThresholdIsConfigurable(t *testing.T) {
	rec := CatalogRecord{ID: "1", Name: "Rotor Disc"}
	asset := AssetDescriptor{Category: "brakes", Filename: "motor.jpg", Path: "/assets/brakes/motor.jpg"}

	loose := NewMatcher(MatchOptions{})
	strict := NewMatcher(MatchOptions{Threshold: 0.75})

	score := loose.ScorePair(rec, asset)
	if score.Score != 0.5 {
		t.Fatalf("expected score 0.5, got %v", score.Score)
	}
	if !loose.IsGoodMatch(score.Score) {
		t.Error("expected 0.5 to be a good match at the default threshold")
	}
	if strict.IsGoodMatch(score.Score) {
		t.Error("expected 0.5 to miss a 0.75 threshold")
	}
}

func TestMatcher_IsPlaceholder(t *testing.T) {
	m := NewMatcher(MatchOptions{Placeholders: []string{"Dental-Image", "placeholder"}})

	tests := []struct {
		ref      string
		expected bool
	}{
		{"/assets/electrical/dental-image.jpg", true},
		{"/assets/misc/PLACEHOLDER.png", true},
		{"/assets/engine/iridium-spark-plugs-set.webp", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := m.IsPlaceholder(tt.ref); got != tt.expected {
			t.Errorf("IsPlaceholder(%q) = %v, expected %v", tt.ref, got, tt.expected)
		}
	}
}
