package verify

import (
	"fmt"
	"math"
	"time"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// candidate is one evidence event reduced to what the matcher needs.
type candidate struct {
	title string
	raw   string
	at    time.Time
}

// match is the best candidate found for an event.
type match struct {
	candidate
	score     float64
	hoursDiff float64
}

// DateScore maps an absolute hour difference to a score:
// <1h → 1.0, <24h → 0.5, <72h → 0.2, otherwise 0.
func DateScore(hoursDiff float64) float64 {
	switch {
	case hoursDiff < 1:
		return 1.0
	case hoursDiff < 24:
		return 0.5
	case hoursDiff < 72:
		return 0.2
	}
	return 0
}

// bestMatch returns the highest-scoring candidate above MatchThreshold.
// Ties keep the first candidate seen.
func bestMatch(title string, at time.Time, candidates []candidate) (match, bool) {
	var best match
	found := false
	for _, c := range candidates {
		hours := math.Abs(at.Sub(c.at).Hours())
		score := TitleSimilarity(title, c.title)*TitleWeight + DateScore(hours)*DateWeight
		if score > MatchThreshold && (!found || score > best.score) {
			best = match{candidate: c, score: score, hoursDiff: hours}
			found = true
		}
	}
	return best, found
}

// ceilings holds the per-source confidence levels for the matcher outcome.
type ceilings struct {
	source          models.Source
	label           string
	exact           float64
	mismatch        float64
	weak            float64
	correctionScore float64
}

var (
	liveCeilings = ceilings{
		source:          models.SourceLiveAPI,
		label:           "live scoreboard",
		exact:           liveExactConfidence,
		mismatch:        liveMismatchConfidence,
		weak:            liveWeakConfidence,
		correctionScore: LiveCorrectionScore,
	}
	// Local data is refreshed less often than the live service, so its
	// ceiling stays below the live one.
	sportDataCeilings = ceilings{
		source:          models.SourceSportData,
		label:           "local sport data",
		exact:           sportDataExactConfidence,
		mismatch:        sportDataMismatchConfidence,
		weak:            sportDataWeakConfidence,
		correctionScore: SportDataCorrectionScore,
	}
)

func matchAgainst(ev models.Event, candidates []candidate, c ceilings) models.VerifierResult {
	at, ok := ev.ParsedTime()
	if !ok {
		return models.VerifierResult{Source: c.source, Details: "event time missing or invalid"}
	}

	best, found := bestMatch(ev.Title, at, candidates)
	if !found {
		return models.VerifierResult{Source: c.source, Details: "no matching event found in " + c.label}
	}

	matched := best.at.Sub(at)
	switch {
	case best.hoursDiff <= exactMatchWindow.Hours():
		return models.VerifierResult{
			Verified:   true,
			Confidence: c.exact,
			Source:     c.source,
			Details:    fmt.Sprintf("matched %q in %s", best.title, c.label),
		}
	case best.hoursDiff <= correctionWindow.Hours() && best.score > c.correctionScore:
		return models.VerifierResult{
			Confidence: c.mismatch,
			Source:     c.source,
			Details:    fmt.Sprintf("%s lists %q %s off (%s)", c.label, best.title, formatOffset(matched), best.raw),
			Correction: &models.Correction{
				Field:      models.FieldTime,
				OldValue:   ev.Time,
				NewValue:   best.raw,
				Confidence: models.Clamp01(best.score),
			},
		}
	}
	return models.VerifierResult{
		Confidence: c.weak,
		Source:     c.source,
		Details:    fmt.Sprintf("weak match %q in %s (score %.2f)", best.title, c.label, best.score),
	}
}

// formatOffset renders a signed offset as "+5h" or "-30m".
func formatOffset(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	if d >= time.Hour {
		return fmt.Sprintf("%s%.0fh", sign, d.Hours())
	}
	return fmt.Sprintf("%s%.0fm", sign, d.Minutes())
}

// LiveScore matches an event against the pre-fetched live scoreboard events
// for its sport.
func LiveScore(ev models.Event, sportKey string, live map[string][]models.LiveEvent) models.VerifierResult {
	if sportKey == "" {
		return models.VerifierResult{Source: models.SourceLiveAPI, Details: "no sport detected for event"}
	}
	events := live[sportKey]
	if len(events) == 0 {
		return models.VerifierResult{
			Source:  models.SourceLiveAPI,
			Details: fmt.Sprintf("no live scoreboard data for %s", sportKey),
		}
	}

	candidates := make([]candidate, 0, len(events))
	for _, le := range events {
		if at, ok := models.ParseTime(le.Date); ok {
			candidates = append(candidates, candidate{title: le.Name, raw: le.Date, at: at})
		}
	}
	return matchAgainst(ev, candidates, liveCeilings)
}

// SportData matches an event against the locally cached tournament listings
// for its sport.
func SportData(ev models.Event, sportKey string, data map[string]models.SportData) models.VerifierResult {
	if sportKey == "" {
		return models.VerifierResult{Source: models.SourceSportData, Details: "no sport detected for event"}
	}
	sd, ok := data[sportKey]
	if !ok {
		return models.VerifierResult{
			Source:  models.SourceSportData,
			Details: fmt.Sprintf("no local sport data for %s", sportKey),
		}
	}

	var candidates []candidate
	for _, t := range sd.Tournaments {
		for _, se := range t.Events {
			if at, ok := models.ParseTime(se.Time); ok {
				candidates = append(candidates, candidate{title: se.Title, raw: se.Time, at: at})
			}
		}
	}
	if len(candidates) == 0 {
		return models.VerifierResult{
			Source:  models.SourceSportData,
			Details: fmt.Sprintf("local sport data for %s has no dated events", sportKey),
		}
	}
	return matchAgainst(ev, candidates, sportDataCeilings)
}
