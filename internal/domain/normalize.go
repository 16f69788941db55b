package domain

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopWords appear in both product names and filenames without
// telling products apart.
var DefaultStopWords = []string{
	"set", "kit", "pack", "pair",
	"front", "rear", "left", "right",
	"premium", "high", "performance", "universal",
}

// DefaultMinTokenLength drops tokens of two characters or fewer
const DefaultMinTokenLength = 3

// Normalizer turns record names and asset filenames into comparable tokens
type Normalizer struct {
	stopWords   map[string]struct{}
	minTokenLen int
}

// NewNormalizer builds a normalizer. A nil stopWords slice selects
// DefaultStopWords; minTokenLen <= 0 selects DefaultMinTokenLength.
func NewNormalizer(stopWords []string, minTokenLen int) *Normalizer {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	if minTokenLen <= 0 {
		minTokenLen = DefaultMinTokenLength
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Normalizer{stopWords: set, minTokenLen: minTokenLen}
}

// Tokens normalizes a record name
func (n *Normalizer) Tokens(name string) []string {
	return n.tokenize(name)
}

// AssetTokens normalizes an asset filename or path. Directories and the
// file extension are removed before tokenizing.
func (n *Normalizer) AssetTokens(filename string) []string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	base := path.Base(filename)
	if base == "." || base == "/" {
		return nil
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return n.tokenize(base)
}

// Key joins the tokens of s into a single space-separated string, the form
// keyword rules are matched against.
func (n *Normalizer) Key(s string) string {
	return strings.Join(n.tokenize(s), " ")
}

func (n *Normalizer) tokenize(s string) []string {
	if s == "" {
		return nil
	}
	folded := strings.ToLower(foldAccents(s))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := n.stopWords[f]; stop {
			continue
		}
		if len([]rune(f)) < n.minTokenLen {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// foldAccents strips combining marks so "Bremsbeläge" and "Bremsbelage"
// normalize alike. Transformers carry state, so one is built per call.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
