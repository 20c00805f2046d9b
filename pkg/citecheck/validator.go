package citecheck

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMinQuoteLength is the rune count a quoted span must exceed
	// before it is checked. Short quotes ("may", "shall") are too common in
	// civic documents to verify meaningfully.
	DefaultMinQuoteLength = 20

	// DefaultPreviewLength caps the quote preview embedded in a warning.
	DefaultPreviewLength = 60
)

// quotePatterns match spans delimited by straight or typographic double
// quotes. Pairing is left to right; an unterminated quote matches nothing.
var quotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile("“([^“”]+)”"),
}

// Config tunes a Validator. Zero values select the package defaults.
type Config struct {
	// MinQuoteLength is the rune threshold; spans at or below it are exempt.
	MinQuoteLength int

	// PreviewLength is the rune cap for quote previews in warnings.
	PreviewLength int
}

// Validator checks quoted spans in analysis text for verbatim presence in
// source text. Safe for concurrent use.
type Validator struct {
	minQuoteLength int
	previewLength  int
}

// New creates a Validator, applying defaults for zero config fields.
func New(config Config) *Validator {
	if config.MinQuoteLength <= 0 {
		config.MinQuoteLength = DefaultMinQuoteLength
	}
	if config.PreviewLength <= 0 {
		config.PreviewLength = DefaultPreviewLength
	}
	return &Validator{
		minQuoteLength: config.MinQuoteLength,
		previewLength:  config.PreviewLength,
	}
}

// Validate extracts quoted spans from analysisText and returns one warning
// for each span longer than the threshold that is not contained verbatim in
// sourceText. It returns nil when every checked quote is supported. It never
// returns an error: hallucination detection is advisory, not blocking.
func Validate(analysisText, sourceText string) []string {
	return New(Config{}).Validate(analysisText, sourceText)
}

// Validate implements the check described on the package-level Validate.
func (v *Validator) Validate(analysisText, sourceText string) []string {
	var warnings []string
	for _, quote := range extractQuotes(analysisText) {
		if utf8.RuneCountInString(quote) <= v.minQuoteLength {
			continue
		}
		if strings.Contains(sourceText, quote) {
			continue
		}
		warnings = append(warnings,
			fmt.Sprintf("Quote not found in source: %q", truncateRunes(quote, v.previewLength)))
	}
	return warnings
}

// extractQuotes returns the contents of every balanced quoted span in order
// of appearance, straight quotes first, then typographic.
func extractQuotes(text string) []string {
	var quotes []string
	for _, pattern := range quotePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			quotes = append(quotes, match[1])
		}
	}
	return quotes
}

// truncateRunes shortens s to at most limit runes, marking the cut.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
