package preprocess

import (
	"regexp"
	"strings"
)

// Inspector runs the regex-based entity detectors over message text. All
// patterns are compiled once at construction; an Inspector is safe for
// concurrent use.
type Inspector struct {
	email      *regexp.Regexp
	phone      *regexp.Regexp
	idNumber   *regexp.Regexp
	creditCard *regexp.Regexp
	address    *regexp.Regexp
	abn        *regexp.Regexp
	tfn        *regexp.Regexp
	tfnKeyword *regexp.Regexp
	ssn        *regexp.Regexp
	quotedSpan *regexp.Regexp

	profanities []profanityPattern
	riskGroups  map[string][]string
}

// profanityPattern pairs a list word with its whole-word matcher.
type profanityPattern struct {
	word string
	re   *regexp.Regexp
}

func compileProfanities(words []string) []profanityPattern {
	patterns := make([]profanityPattern, len(words))
	for i, word := range words {
		patterns[i] = profanityPattern{
			word: word,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
		}
	}
	return patterns
}

// NewInspector creates an inspector with the built-in detector patterns.
func NewInspector() *Inspector {
	return &Inspector{
		email:      regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phone:      regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`),
		idNumber:   regexp.MustCompile(`\b\d{8,16}\b`),
		creditCard: regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),
		address:    regexp.MustCompile(`(?i)\b\d{1,5}\s+(?:[A-Za-z]+\s+){1,40}?(?:Street|St|Road|Rd|Avenue|Ave|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct)\b`),
		abn:        regexp.MustCompile(`(?i)\b(?:ABN\s*:?\s*)?\d{2}\s?\d{3}\s?\d{3}\s?\d{3}\b`),
		tfn:        regexp.MustCompile(`(?i)\b(?:TFN\s*:?\s*)?\d{8,9}\b`),
		tfnKeyword: regexp.MustCompile(`(?i)\bTFN\s*:?\s*\d{8,9}\b`),
		ssn:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		quotedSpan: regexp.MustCompile(`"([^"]{120,})"`),

		profanities: compileProfanities([]string{
			"fuck", "shit", "damn", "bitch", "asshole", "bastard", "crap",
		}),
		riskGroups: map[string][]string{
			"violence":  {"kill", "murder", "attack", "weapon", "bomb", "assault", "shoot"},
			"hate":      {"hate crime", "racist", "bigot", "slur", "supremacist"},
			"self_harm": {"suicide", "self-harm", "self harm", "kill myself", "overdose"},
			"adult":     {"porn", "explicit sexual", "nude", "erotic"},
		},
	}
}

// Inspect runs every entity detector over the text and returns the raw
// detection results.
func (i *Inspector) Inspect(text string) *Inspection {
	insp := &Inspection{}
	if text == "" {
		return insp
	}

	insp.Emails = dedupe(i.email.FindAllString(text, -1))
	insp.Phones = i.detectPhones(text)
	insp.IDNumbers = dedupe(i.idNumber.FindAllString(text, -1))
	insp.CreditCards = i.detectCreditCards(text)
	insp.Addresses = dedupe(i.address.FindAllString(text, -1))
	insp.ABNs = i.detectABNs(text)
	insp.TFNs = dedupe(i.tfn.FindAllString(text, -1))
	insp.TFNKeywordSeen = i.tfnKeyword.MatchString(text)
	insp.SSNs = dedupe(i.ssn.FindAllString(text, -1))

	insp.Profanities = i.detectProfanities(text)
	insp.RiskFlags = i.detectRiskFlags(text)
	insp.PossibleCopyright = i.detectPossibleCopyright(text)

	return insp
}

// detectPhones keeps loose international matches that carry at least 8
// digits, filtering out short numeric runs the pattern also catches.
func (i *Inspector) detectPhones(text string) []string {
	var phones []string
	for _, candidate := range i.phone.FindAllString(text, -1) {
		if digitCount(candidate) >= 8 {
			phones = append(phones, strings.TrimSpace(candidate))
		}
	}
	return dedupe(phones)
}

// detectCreditCards keeps 13-19 digit sequences that pass the Luhn check.
func (i *Inspector) detectCreditCards(text string) []string {
	var cards []string
	for _, candidate := range i.creditCard.FindAllString(text, -1) {
		digits := stripNonDigits(candidate)
		if len(digits) >= 13 && len(digits) <= 19 && luhnValid(digits) {
			cards = append(cards, strings.TrimSpace(candidate))
		}
	}
	return dedupe(cards)
}

// detectABNs keeps candidates whose digit count is exactly 11.
func (i *Inspector) detectABNs(text string) []string {
	var abns []string
	for _, candidate := range i.abn.FindAllString(text, -1) {
		if digitCount(candidate) == 11 {
			abns = append(abns, strings.TrimSpace(candidate))
		}
	}
	return dedupe(abns)
}

// detectProfanities matches the fixed word list whole-word and
// case-insensitively.
func (i *Inspector) detectProfanities(text string) []string {
	var found []string
	for _, pattern := range i.profanities {
		if pattern.re.MatchString(text) {
			found = append(found, pattern.word)
		}
	}
	return found
}

// detectRiskFlags returns the risk categories whose keyword groups match.
// Category order is fixed so the output is deterministic.
func (i *Inspector) detectRiskFlags(text string) []string {
	lower := strings.ToLower(text)
	var flags []string
	for _, category := range []string{"violence", "hate", "self_harm", "adult"} {
		for _, keyword := range i.riskGroups[category] {
			if strings.Contains(lower, keyword) {
				flags = append(flags, category)
				break
			}
		}
	}
	return flags
}

// detectPossibleCopyright applies the copyright heuristic: a copyright
// symbol, an "all rights reserved" notice, or a quoted span of at least 120
// characters.
func (i *Inspector) detectPossibleCopyright(text string) bool {
	if strings.Contains(text, "©") {
		return true
	}
	if strings.Contains(strings.ToLower(text), "all rights reserved") {
		return true
	}
	return i.quotedSpan.MatchString(text)
}

// luhnValid applies the Luhn checksum to a digit string.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func digitCount(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
