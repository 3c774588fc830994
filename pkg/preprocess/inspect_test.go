package preprocess

import (
	"strings"
	"testing"
)

// TestInspect_Entities tests the individual entity detectors.
func TestInspect_Entities(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name     string
		text     string
		piiTypes []string
	}{
		{
			name:     "email",
			text:     "Contact jane.doe@example.com for details",
			piiTypes: []string{"email"},
		},
		{
			name:     "phone international",
			text:     "Call +61 2 9374 4000 tomorrow",
			piiTypes: []string{"phone"},
		},
		{
			name:     "short number is not a phone",
			text:     "Call 123-4567 tomorrow",
			piiTypes: nil,
		},
		{
			// The loose phone pattern also fires on the digit run; the
			// stable ordering keeps the output deterministic.
			name:     "credit card with luhn",
			text:     "Card 4111 1111 1111 1111 expires soon",
			piiTypes: []string{"phone", "credit_card"},
		},
		{
			name:     "luhn-invalid card is dropped",
			text:     "Card 4111 1111 1111 1112 expires soon",
			piiTypes: []string{"phone"},
		},
		{
			name:     "address",
			text:     "Ship to 42 Wallaby Way Street please",
			piiTypes: []string{"address"},
		},
		{
			name:     "ssn",
			text:     "SSN is 123-45-6789",
			piiTypes: []string{"phone", "ssn"},
		},
		{
			name:     "abn with prefix",
			text:     "Our ABN 51 824 753 556 is registered",
			piiTypes: []string{"phone", "abn"},
		},
		{
			name:     "tfn with keyword",
			text:     "TFN: 123456789 on file",
			piiTypes: []string{"phone", "id_number", "tfn"},
		},
		{
			name:     "clean text",
			text:     "The quick brown fox jumps over the lazy dog.",
			piiTypes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp := inspector.Inspect(tt.text)
			got := insp.PIITypes()
			if len(got) != len(tt.piiTypes) {
				t.Fatalf("PIITypes() = %v; want %v", got, tt.piiTypes)
			}
			for i := range got {
				if got[i] != tt.piiTypes[i] {
					t.Errorf("PIITypes()[%d] = %q; want %q (stable order)", i, got[i], tt.piiTypes[i])
				}
			}
		})
	}
}

// TestInspect_TFNKeywordConfidence tests the TFN keyword signal.
func TestInspect_TFNKeywordConfidence(t *testing.T) {
	inspector := NewInspector()

	if insp := inspector.Inspect("TFN 123456789"); !insp.TFNKeywordSeen {
		t.Error("expected TFN keyword to be noticed")
	}
	if insp := inspector.Inspect("reference 123456789"); insp.TFNKeywordSeen {
		t.Error("bare number should not set the TFN keyword signal")
	}
}

// TestInspect_ProfanityAndRisk tests the keyword detectors.
func TestInspect_ProfanityAndRisk(t *testing.T) {
	inspector := NewInspector()

	insp := inspector.Inspect("This is complete SHIT and I will attack the server")
	if len(insp.Profanities) != 1 || insp.Profanities[0] != "shit" {
		t.Errorf("Profanities = %v; want [shit]", insp.Profanities)
	}
	if len(insp.RiskFlags) != 1 || insp.RiskFlags[0] != "violence" {
		t.Errorf("RiskFlags = %v; want [violence]", insp.RiskFlags)
	}

	// Substrings must not match whole-word profanities.
	insp = inspector.Inspect("the classic shittake confusion")
	if len(insp.Profanities) != 0 {
		t.Errorf("Profanities = %v; want none for substring", insp.Profanities)
	}
}

// TestNewInspector_PrecompilesProfanities tests that the word matchers are
// built at construction, not per call.
func TestNewInspector_PrecompilesProfanities(t *testing.T) {
	inspector := NewInspector()
	if len(inspector.profanities) == 0 {
		t.Fatal("no profanity patterns compiled")
	}
	for _, pattern := range inspector.profanities {
		if pattern.re == nil {
			t.Errorf("word %q has no compiled matcher", pattern.word)
		}
	}
}

// TestInspect_Copyright tests the copyright heuristic's three triggers.
func TestInspect_Copyright(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"copyright symbol", "© 2024 Example Corp", true},
		{"rights notice", "This text is All Rights Reserved by the author", true},
		{"long quoted span", `He wrote "` + strings.Repeat("a", 130) + `" in the book`, true},
		{"short quote", `He said "hello" and left`, false},
		{"plain text", "nothing to see here", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.Inspect(tt.text).PossibleCopyright; got != tt.want {
				t.Errorf("PossibleCopyright = %v; want %v", got, tt.want)
			}
		})
	}
}

// TestLuhnValid tests the checksum directly.
func TestLuhnValid(t *testing.T) {
	tests := []struct {
		digits string
		want   bool
	}{
		{"4111111111111111", true},
		{"5500005555555559", true},
		{"4111111111111112", false},
		{"1234567890123456", false},
	}

	for _, tt := range tests {
		if got := luhnValid(tt.digits); got != tt.want {
			t.Errorf("luhnValid(%q) = %v; want %v", tt.digits, got, tt.want)
		}
	}
}
