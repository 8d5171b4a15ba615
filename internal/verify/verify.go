// Package verify implements the individual schedule verifiers and the
// confidence aggregator.
//
// Each verifier inspects one event against one kind of evidence and returns a
// models.VerifierResult with a confidence in [0, 1]. Verifiers never return
// errors: missing evidence, bad input and failed external calls all degrade to
// a low or zero confidence with an explanatory detail.
//
// The chain for one event is
//
//	static → live-api → rss-cross-ref → sport-data → (web-search)
//
// and Aggregate folds the results into a single Verdict:
//
//	confidence = max(result confidence) + 0.1 if ≥2 evidence sources verified, capped at 1.0
//
// rounded to two decimals and classified as verified (≥0.7), plausible (≥0.3)
// or unverified.
package verify

import "time"

// Empirically chosen thresholds. They are independent of each other.
const (
	// MatchThreshold is the minimum combined title/date score for a candidate to count.
	MatchThreshold = 0.3
	// TitleWeight and DateWeight combine the two candidate scores.
	TitleWeight = 0.6
	DateWeight  = 0.4

	// LiveCorrectionScore is the combined score a live-api candidate must exceed to propose a correction.
	LiveCorrectionScore = 0.7
	// SportDataCorrectionScore is the same bar for locally cached sport data.
	SportDataCorrectionScore = 0.6

	// CorrectionApplyThreshold is the correction confidence that must be exceeded for automatic use.
	CorrectionApplyThreshold = 0.7

	// CorroborationBonus is added when two or more evidence sources verify the same event.
	CorroborationBonus = 0.1

	// VerifiedThreshold and PlausibleThreshold bound the status classes.
	VerifiedThreshold  = 0.7
	PlausibleThreshold = 0.3

	// RSSCorroboratedRatio is the headline word overlap that counts as corroboration.
	RSSCorroboratedRatio = 0.5
)

// Confidence ceilings per source.
const (
	staticPassConfidence = 0.4
	staticFailConfidence = 0.1

	liveExactConfidence    = 0.9
	liveMismatchConfidence = 0.7
	liveWeakConfidence     = 0.3

	sportDataExactConfidence    = 0.8
	sportDataMismatchConfidence = 0.5
	sportDataWeakConfidence     = 0.2

	rssCorroboratedConfidence = 0.5
	rssPartialConfidence      = 0.2
)

// Time windows.
const (
	exactMatchWindow = time.Hour
	correctionWindow = 48 * time.Hour
	farFutureLimit   = 365 * 24 * time.Hour
	pastLimit        = 7 * 24 * time.Hour
)
