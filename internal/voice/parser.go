// Package voice turns spoken transcripts into entry candidates.
//
// Parsing is a set of independent, best-effort extractions over the lower-cased
// transcript. Each field has its own function so it can be tested in isolation.
package voice

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"fintrack/internal/core"
)

// ErrInvalidTranscript is returned for transcripts that are not valid UTF-8.
var ErrInvalidTranscript = errors.New("invalid transcript")

var (
	amountRegex      = regexp.MustCompile(`(?:rs\.?|₹)?\s?(\d+(\.\d+)?)`)
	categoryRegex    = regexp.MustCompile(`(?:category|in|under)\s+([a-zA-Z &]+)`)
	descriptionRegex = regexp.MustCompile(`(?:into|for|on)\s+(.+?)(?:\s+(?:category|in|under)|$)`)
)

// Candidate is what a transcript yields. Amount is the verbatim numeric text and
// Category the raw spoken phrase, not yet normalised. Empty strings mean "not found".
type Candidate struct {
	Kind        core.Kind
	Amount      string
	Description string
	Category    string
}

// Parse extracts a candidate from a transcript. Missing fields are left empty.
//
// Examples:
//
//	Parse("expense 1200 into gym membership category health")
//	  -> {expense, "1200", "Gym Membership", "Health"}
//	Parse("income 2500")
//	  -> {income, "2500", "", ""}
func Parse(transcript string) (Candidate, error) {
	if !utf8.ValidString(transcript) {
		return Candidate{}, ErrInvalidTranscript
	}
	lower := strings.ToLower(transcript)

	return Candidate{
		Kind:        parseKind(lower),
		Amount:      parseAmount(lower),
		Description: titleCase(parseDescription(lower)),
		Category:    titleCase(parseCategoryPhrase(lower)),
	}, nil
}

func parseKind(text string) core.Kind {
	if strings.Contains(text, "income") {
		return core.Income
	}
	return core.Expense
}

func parseAmount(text string) string {
	if m := amountRegex.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}

func parseCategoryPhrase(text string) string {
	if m := categoryRegex.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func parseDescription(text string) string {
	if m := descriptionRegex.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// titleCase upper-cases the first rune of every space-separated token and leaves
// the rest of the token as it is.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Split(s, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
