package verify

import (
	"strings"
	"unicode"
)

// normalizeWords lower-cases s, drops everything but letters, digits and
// spaces, and splits on whitespace.
func normalizeWords(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
	return strings.Fields(cleaned)
}

func wordSet(s string) map[string]struct{} {
	words := normalizeWords(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// TitleSimilarity returns the Dice coefficient of the two titles' word sets:
// 2|A∩B| / (|A|+|B|). Case and punctuation are ignored. Returns 0 when either
// title has no words.
func TitleSimilarity(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(setA)+len(setB))
}
