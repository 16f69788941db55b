package domain

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the score at or above which a pair is a good match
const DefaultThreshold = 0.5

// MatchScore is the similarity of one record/asset pair for the current run
type MatchScore struct {
	RecordID  string  `json:"recordId"`
	AssetPath string  `json:"assetPath"`
	Score     float64 `json:"score"`
}

// EditDistance is the Levenshtein distance between two strings with unit
// insertion, deletion and substitution costs, counted in runes.
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// tokensMatch reports whether two tokens are considered the same word:
// one contains the other, or they are at most one edit apart.
func tokensMatch(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return EditDistance(a, b) <= 1
}

// Score is the fraction of record tokens that match at least one asset token
func Score(recordTokens, assetTokens []string) float64 {
	if len(recordTokens) == 0 {
		return 0
	}
	matched := 0
	for _, rt := range recordTokens {
		for _, at := range assetTokens {
			if tokensMatch(rt, at) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(max(1, len(recordTokens)))
}

// MatchOptions configures a Matcher
type MatchOptions struct {
	Threshold      float64
	StopWords      []string // nil selects DefaultStopWords
	MinTokenLength int
	Placeholders   []string // asset ref substrings known to be stand-in images
}

// Matcher scores records against assets with a configurable threshold
type Matcher struct {
	normalizer   *Normalizer
	threshold    float64
	placeholders []string
}

// NewMatcher creates a matcher; a zero threshold selects DefaultThreshold
func NewMatcher(opts MatchOptions) *Matcher {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var placeholders []string
	for _, p := range opts.Placeholders {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			placeholders = append(placeholders, p)
		}
	}
	return &Matcher{
		normalizer:   NewNormalizer(opts.StopWords, opts.MinTokenLength),
		threshold:    threshold,
		placeholders: placeholders,
	}
}

// Normalizer returns the normalizer the matcher tokenizes with
func (m *Matcher) Normalizer() *Normalizer {
	return m.normalizer
}

// Threshold returns the good-match threshold
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// IsGoodMatch reports whether score clears the threshold
func (m *Matcher) IsGoodMatch(score float64) bool {
	return score >= m.threshold
}

// ScorePair scores a record name against an asset filename
func (m *Matcher) ScorePair(rec CatalogRecord, asset AssetDescriptor) MatchScore {
	return MatchScore{
		RecordID:  rec.ID,
		AssetPath: asset.Path,
		Score:     Score(m.normalizer.Tokens(rec.Name), m.normalizer.AssetTokens(asset.Filename)),
	}
}

// IsPlaceholder reports whether an asset reference points at a known
// stand-in image
func (m *Matcher) IsPlaceholder(ref string) bool {
	if ref == "" {
		return false
	}
	ref = strings.ToLower(ref)
	for _, p := range m.placeholders {
		if strings.Contains(ref, p) {
			return true
		}
	}
	return false
}
