package citecheck

import (
	"strings"
	"testing"
)

const sourceText = "The quick brown fox jumps over the lazy dog."

// ============================================================================
// Contract Tests
// ============================================================================

func TestValidate_ShortQuoteExempt(t *testing.T) {
	analysis := `The text states "quick brown fox".`

	warnings := Validate(analysis, sourceText)
	if len(warnings) != 0 {
		t.Errorf("Expected zero warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestValidate_LongAbsentQuoteFlagged(t *testing.T) {
	analysis := `The text explicitly says "the slow purple cat jumps over the moon and stars".`

	warnings := Validate(analysis, sourceText)
	if len(warnings) != 1 {
		t.Fatalf("Expected exactly one warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "Quote not found") {
		t.Errorf("Expected warning to contain %q, got %q", "Quote not found", warnings[0])
	}
}

func TestValidate_LongPresentQuotePasses(t *testing.T) {
	analysis := `It reads "quick brown fox jumps over the lazy" in the middle.`

	warnings := Validate(analysis, sourceText)
	if len(warnings) != 0 {
		t.Errorf("Expected zero warnings for a verbatim quote, got %v", warnings)
	}
}

func TestValidate_ThresholdBoundary(t *testing.T) {
	// Exactly 20 runes is exempt; 21 runes is checked.
	exempt := strings.Repeat("a", 20)
	checked := strings.Repeat("a", 21)

	warnings := Validate(`Quote: "`+exempt+`".`, "unrelated")
	if len(warnings) != 0 {
		t.Errorf("Expected a 20-rune quote to be exempt, got %v", warnings)
	}

	warnings = Validate(`Quote: "`+checked+`".`, "unrelated")
	if len(warnings) != 1 {
		t.Errorf("Expected a 21-rune quote to be checked, got %v", warnings)
	}
}

func TestValidate_ExactMatchOnly(t *testing.T) {
	// Whitespace differences count as misses. The check is conservative.
	analysis := `It says "the quick  brown fox jumps over the lazy dog".`

	warnings := Validate(analysis, sourceText)
	if len(warnings) != 1 {
		t.Errorf("Expected whitespace mismatch to warn, got %v", warnings)
	}
}

// ============================================================================
// Extraction Tests
// ============================================================================

func TestExtractQuotes_Multiple(t *testing.T) {
	text := `First "alpha beta" then "gamma delta" appear.`

	quotes := extractQuotes(text)
	if len(quotes) != 2 {
		t.Fatalf("Expected 2 quotes, got %d: %v", len(quotes), quotes)
	}
	if quotes[0] != "alpha beta" || quotes[1] != "gamma delta" {
		t.Errorf("Expected extracted quotes in order, got %v", quotes)
	}
}

func TestExtractQuotes_Typographic(t *testing.T) {
	analysis := "The ordinance reads “the council shall convene within thirty days” here."

	warnings := Validate(analysis, "completely different text")
	if len(warnings) != 1 {
		t.Fatalf("Expected typographic quote to be checked, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "Quote not found") {
		t.Errorf("Expected warning to contain %q, got %q", "Quote not found", warnings[0])
	}
}

func TestExtractQuotes_Unterminated(t *testing.T) {
	text := `An unmatched "dangling quote with no closing mark`

	quotes := extractQuotes(text)
	if len(quotes) != 0 {
		t.Errorf("Expected unterminated quote to be ignored, got %v", quotes)
	}
}

func TestValidate_MultipleMixed(t *testing.T) {
	analysis := `Supported: "quick brown fox jumps over the lazy" and invented: "the council approved a forty million dollar stadium".`

	warnings := Validate(analysis, sourceText)
	if len(warnings) != 1 {
		t.Fatalf("Expected exactly one warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "the council approved") {
		t.Errorf("Expected warning to reference the invented quote, got %q", warnings[0])
	}
}

// ============================================================================
// Configuration Tests
// ============================================================================

func TestValidator_CustomThreshold(t *testing.T) {
	v := New(Config{MinQuoteLength: 5})

	warnings := v.Validate(`Quote: "absent text".`, "source")
	if len(warnings) != 1 {
		t.Errorf("Expected lowered threshold to flag short quote, got %v", warnings)
	}
}

func TestValidator_PreviewTruncation(t *testing.T) {
	long := strings.Repeat("z", 200)
	v := New(Config{PreviewLength: 30})

	warnings := v.Validate(`Quote: "`+long+`".`, "source")
	if len(warnings) != 1 {
		t.Fatalf("Expected one warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "...") {
		t.Errorf("Expected truncated preview marker, got %q", warnings[0])
	}
	if strings.Contains(warnings[0], long) {
		t.Error("Expected preview to be truncated, full quote embedded")
	}
}

func TestValidate_EmptyInputs(t *testing.T) {
	if warnings := Validate("", sourceText); warnings != nil {
		t.Errorf("Expected nil warnings for empty analysis, got %v", warnings)
	}
	if warnings := Validate("no quotes at all here", ""); warnings != nil {
		t.Errorf("Expected nil warnings without quotes, got %v", warnings)
	}
}
