package verify

import (
	"math"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// Classify maps an aggregate confidence to a status.
func Classify(confidence float64) models.Status {
	switch {
	case confidence >= VerifiedThreshold:
		return models.StatusVerified
	case confidence >= PlausibleThreshold:
		return models.StatusPlausible
	}
	return models.StatusUnverified
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregate combines the results of one event's verifier chain. Malformed
// results are ignored. The highest single confidence wins; when two or more
// evidence sources report verified the corroboration bonus is added. The
// static verifier checks structure, not evidence, so it never counts towards
// corroboration. Sources lists, in order, every result with confidence > 0.
func Aggregate(results []models.VerifierResult) models.Verdict {
	best := 0.0
	corroborating := 0
	sources := []models.Source{}
	for i := range results {
		r := &results[i]
		if r.Validate() != nil {
			continue
		}
		if r.Confidence > best {
			best = r.Confidence
		}
		if r.Verified && r.Source != models.SourceStatic {
			corroborating++
		}
		if r.Confidence > 0 {
			sources = append(sources, r.Source)
		}
	}

	if corroborating >= 2 {
		best = math.Min(1.0, best+CorroborationBonus)
	}
	confidence := round2(models.Clamp01(best))
	return models.Verdict{
		Confidence: confidence,
		Status:     Classify(confidence),
		Sources:    sources,
	}
}

// BestCorrection returns the highest-confidence correction whose own
// confidence exceeds CorrectionApplyThreshold, or nil. Ties keep the first.
func BestCorrection(results []models.VerifierResult) *models.Correction {
	var best *models.Correction
	for i := range results {
		c := results[i].Correction
		if c == nil || c.Confidence <= CorrectionApplyThreshold {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
