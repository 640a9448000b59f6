package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// WordOverlapRatio returns the Jaccard overlap of the whitespace-separated
// words of a and b as a percentage in [0, 100].
func WordOverlapRatio(a, b string) float64 {
	aLower := strings.ToLower(strings.TrimSpace(a))
	bLower := strings.ToLower(strings.TrimSpace(b))

	// Exact match
	if aLower == bLower {
		return 100
	}

	aWords := wordSet(aLower)
	bWords := wordSet(bLower)
	if len(aWords) == 0 || len(bWords) == 0 {
		return 0
	}

	intersection := 0
	for w := range aWords {
		if bWords[w] {
			intersection++
		}
	}
	union := len(aWords) + len(bWords) - intersection

	return float64(intersection) / float64(union) * 100
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// ContainsWord reports whether word appears in text as a whole word,
// ignoring case.
func ContainsWord(text, word string) bool {
	word = strings.TrimSpace(word)
	if word == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(word) + `($|[^\p{L}\p{N}])`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// DigitsOnly strips every non-digit character
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric strips every character that is not a letter or digit
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// DisplayCase turns a lowercase keyword into its display label: short
// abbreviations ("sco", "dss") are upper-cased, words are title-cased.
func DisplayCase(keyword string) string {
	words := strings.Fields(strings.ToLower(keyword))
	for i, w := range words {
		if len(w) <= 3 {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SignificantTokens splits s into lowercase alphanumeric tokens longer than
// minLen that are not in stopwords.
func SignificantTokens(s string, minLen int, stopwords map[string]bool) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if len(f) <= minLen || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}
