// Package engine runs the verifier chain over curated event groups.
//
// For each event the chain is static → live-api → rss-cross-ref → sport-data.
// When the aggregate over those four is still unverified and web search is
// enabled, the web-search verifier runs too (bounded by a per-run budget) and
// the aggregate is recomputed over all five results.
//
// Processing is sequential: the decision to escalate to web search depends on
// the running aggregate, and the search budget is shared across the run.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rewired-gh/fixtureverify/internal/logger"
	"github.com/rewired-gh/fixtureverify/internal/models"
	"github.com/rewired-gh/fixtureverify/internal/verify"
)

// Evidence is the pre-fetched evidence for one run.
type Evidence struct {
	Live      map[string][]models.LiveEvent
	Headlines []string
	SportData map[string]models.SportData
}

// Observer receives every verifier result and event verdict.
type Observer interface {
	ObserveResult(r models.VerifierResult)
	ObserveVerdict(v models.Verdict)
}

// Options configure an Engine.
type Options struct {
	WebSearchEnabled bool
	Search           verify.SearchFunc
	SearchBudget     int
	Sports           *SportDetector
	Observer         Observer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine holds the evidence and run-scoped state (the web-search budget).
type Engine struct {
	evidence  Evidence
	webSearch bool
	search    verify.SearchFunc
	budget    *verify.Budget
	sports    *SportDetector
	observer  Observer
	now       func() time.Time
}

// New creates an Engine for one run.
func New(evidence Evidence, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sports == nil {
		opts.Sports = NewSportDetector(nil)
	}
	return &Engine{
		evidence:  evidence,
		webSearch: opts.WebSearchEnabled && opts.Search != nil,
		search:    opts.Search,
		budget:    verify.NewBudget(opts.SearchBudget),
		sports:    opts.Sports,
		observer:  opts.Observer,
		now:       opts.Now,
	}
}

// SearchesUsed returns how many web searches this run has issued.
func (e *Engine) SearchesUsed() int {
	return e.budget.Used()
}

// staticContext builds the static-check context for event idx of g.
func staticContext(g *models.EventGroup, idx int, now time.Time) verify.StaticContext {
	siblings := make([]models.Event, 0, len(g.Events)-1)
	siblings = append(siblings, g.Events[:idx]...)
	siblings = append(siblings, g.Events[idx+1:]...)
	return verify.StaticContext{
		StartDate: g.StartDate,
		EndDate:   g.EndDate,
		Now:       now,
		Siblings:  siblings,
	}
}

// VerifyEvent runs the verifier chain for event idx of g.
func (e *Engine) VerifyEvent(ctx context.Context, g *models.EventGroup, idx int, now time.Time) models.EventResult {
	ev := g.Events[idx]
	sportKey := e.sports.Resolve(ev.Sport, g.Sport, ev.Title)

	results := []models.VerifierResult{
		verify.Static(ev, staticContext(g, idx, now)),
		verify.LiveScore(ev, sportKey, e.evidence.Live),
		verify.RSS(ev, e.evidence.Headlines),
		verify.SportData(ev, sportKey, e.evidence.SportData),
	}
	verdict := verify.Aggregate(results)

	if verdict.Status == models.StatusUnverified && e.webSearch {
		res := verify.WebSearch(ctx, ev, e.search, e.budget)
		if res.Confidence == 0 && res.Details != "" {
			logger.Debug("web search for %q: %s", ev.Title, res.Details)
		}
		results = append(results, res)
		verdict = verify.Aggregate(results)
	}

	if e.observer != nil {
		for _, r := range results {
			e.observer.ObserveResult(r)
		}
		e.observer.ObserveVerdict(verdict)
	}

	return models.EventResult{
		Index:      idx,
		Title:      ev.Title,
		Time:       ev.Time,
		SportKey:   sportKey,
		Verdict:    verdict,
		Results:    results,
		Correction: verify.BestCorrection(results),
	}
}

// VerifyGroup runs the chain over every event in g and folds the results.
func (e *Engine) VerifyGroup(ctx context.Context, g *models.EventGroup) models.GroupResult {
	now := e.now()
	result := models.GroupResult{
		FileID:      g.FileID,
		Sport:       g.Sport,
		Events:      make([]models.EventResult, 0, len(g.Events)),
		Corrections: []models.EventCorrection{},
	}

	var sum float64
	for i := range g.Events {
		er := e.VerifyEvent(ctx, g, i, now)
		result.Events = append(result.Events, er)
		result.EventsChecked++
		sum += er.Verdict.Confidence

		switch er.Verdict.Status {
		case models.StatusVerified:
			result.Verified++
		case models.StatusPlausible:
			result.Plausible++
		default:
			result.Unverified++
		}

		if er.Correction != nil {
			result.Corrections = append(result.Corrections, models.EventCorrection{
				EventIndex: i,
				Title:      er.Title,
				Correction: *er.Correction,
			})
		}
	}

	if result.EventsChecked > 0 {
		result.OverallConfidence = sum / float64(result.EventsChecked)
	}
	if result.Sport == "" {
		result.Sport = dominantSport(result.Events)
	}

	logger.Debug("VerifyGroup %s: checked=%d verified=%d plausible=%d unverified=%d confidence=%.2f corrections=%d",
		g.FileID, result.EventsChecked, result.Verified, result.Plausible, result.Unverified,
		result.OverallConfidence, len(result.Corrections))

	return result
}

// dominantSport returns the most common resolved sport key among events,
// preferring the first seen on ties.
func dominantSport(events []models.EventResult) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, er := range events {
		if er.SportKey == "" {
			continue
		}
		counts[er.SportKey]++
		if counts[er.SportKey] > bestCount {
			best, bestCount = er.SportKey, counts[er.SportKey]
		}
	}
	return best
}

// GroupError is a per-group failure during a run (unreadable or unwritable
// group file). It never aborts the run.
type GroupError struct {
	FileID string
	Err    error
}

func (e GroupError) Error() string {
	return fmt.Sprintf("group %s: %v", e.FileID, e.Err)
}

func (e GroupError) Unwrap() error {
	return e.Err
}
