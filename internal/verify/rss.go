package verify

import (
	"fmt"
	"strings"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// rssWords returns the distinct title words longer than two characters.
func rssWords(title string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, w := range normalizeWords(title) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// RSS cross-references the event title against recent headlines. The score
// for a headline is the share of title words it contains; the best headline
// decides the result.
func RSS(ev models.Event, headlines []string) models.VerifierResult {
	words := rssWords(ev.Title)
	if len(words) == 0 {
		return models.VerifierResult{Source: models.SourceRSS, Details: "event title too short to cross-reference"}
	}
	if len(headlines) == 0 {
		return models.VerifierResult{Source: models.SourceRSS, Details: "no recent headlines available"}
	}

	bestRatio := 0.0
	bestHeadline := ""
	for _, h := range headlines {
		normalized := strings.Join(normalizeWords(h), " ")
		hits := 0
		for _, w := range words {
			if strings.Contains(normalized, w) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(words))
		if ratio > bestRatio {
			bestRatio = ratio
			bestHeadline = h
		}
	}

	switch {
	case bestRatio >= RSSCorroboratedRatio:
		return models.VerifierResult{
			Verified:   true,
			Confidence: rssCorroboratedConfidence,
			Source:     models.SourceRSS,
			Details:    fmt.Sprintf("corroborated by headline %q", bestHeadline),
		}
	case bestRatio > 0:
		return models.VerifierResult{
			Confidence: rssPartialConfidence,
			Source:     models.SourceRSS,
			Details:    fmt.Sprintf("partial mention in headline %q (%.0f%% of title words)", bestHeadline, bestRatio*100),
		}
	}
	return models.VerifierResult{Source: models.SourceRSS, Details: "no mentions in recent headlines"}
}
