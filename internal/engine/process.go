package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rewired-gh/fixtureverify/internal/logger"
	"github.com/rewired-gh/fixtureverify/internal/models"
	"github.com/rewired-gh/fixtureverify/internal/verify"
)

// DefaultNeedsResearchRatio is the unverified share above which a group is
// flagged for re-discovery.
const DefaultNeedsResearchRatio = 0.5

// ProcessOptions control how a group result is folded back into the group.
type ProcessOptions struct {
	RunID              string
	ApplyCorrections   bool
	NeedsResearchRatio float64
}

// GroupOutcome is everything one group contributes to a run.
type GroupOutcome struct {
	Result  models.GroupResult
	Applied []models.EventCorrection
	Issues  []models.Issue
}

// Summary returns the persisted per-group slice of the outcome.
func (o GroupOutcome) Summary() models.GroupSummary {
	return models.GroupSummary{
		FileID:              o.Result.FileID,
		Sport:               o.Result.Sport,
		EventsChecked:       o.Result.EventsChecked,
		Verified:            o.Result.Verified,
		Plausible:           o.Result.Plausible,
		Unverified:          o.Result.Unverified,
		OverallConfidence:   o.Result.OverallConfidence,
		CorrectionsProposed: len(o.Result.Corrections),
		CorrectionsApplied:  len(o.Applied),
	}
}

// ProcessGroup verifies g and writes the outcome back onto it: corrections
// (when enabled), the needsResearch flag and the verification summary. Issues
// are collected against the group as it was before corrections.
func (e *Engine) ProcessGroup(ctx context.Context, g *models.EventGroup, opts ProcessOptions) GroupOutcome {
	result := e.VerifyGroup(ctx, g)
	now := e.now()

	issues := CollectIssues(g, result, now)

	var applied []models.EventCorrection
	if opts.ApplyCorrections {
		applied = ApplyCorrections(g, result.Corrections)
	}

	ratio := opts.NeedsResearchRatio
	if ratio <= 0 {
		ratio = DefaultNeedsResearchRatio
	}
	g.NeedsResearch = result.UnverifiedRatio() > ratio
	if g.NeedsResearch {
		logger.Info("Group %s flagged for research: %d/%d events unverified", g.FileID, result.Unverified, result.EventsChecked)
	}

	g.VerificationSummary = &models.VerificationSummary{
		VerifiedAt:          now,
		RunID:               opts.RunID,
		EventsChecked:       result.EventsChecked,
		Verified:            result.Verified,
		Plausible:           result.Plausible,
		Unverified:          result.Unverified,
		OverallConfidence:   result.OverallConfidence,
		CorrectionsProposed: len(result.Corrections),
		CorrectionsApplied:  len(applied),
	}

	return GroupOutcome{Result: result, Applied: applied, Issues: issues}
}

// ApplyCorrections writes each eligible correction into its event. A
// correction is skipped unless its confidence exceeds the apply threshold and
// the event's time still equals the correction's old value, so re-applying
// the same corrections is a no-op.
func ApplyCorrections(g *models.EventGroup, corrections []models.EventCorrection) []models.EventCorrection {
	var applied []models.EventCorrection
	for _, ec := range corrections {
		c := ec.Correction
		if c.Field != models.FieldTime || c.Confidence <= verify.CorrectionApplyThreshold {
			continue
		}
		if ec.EventIndex < 0 || ec.EventIndex >= len(g.Events) {
			continue
		}
		ev := &g.Events[ec.EventIndex]
		if ev.Time != c.OldValue || c.NewValue == "" || c.NewValue == c.OldValue {
			continue
		}
		logger.Info("Correcting %s / %q: time %s -> %s (confidence %.2f)", g.FileID, ev.Title, c.OldValue, c.NewValue, c.Confidence)
		ev.Time = c.NewValue
		applied = append(applied, ec)
	}
	return applied
}

// CollectIssues derives health-report issues for g from the static checks and
// the proposed corrections in result.
func CollectIssues(g *models.EventGroup, result models.GroupResult, now time.Time) []models.Issue {
	var issues []models.Issue

	if g.StartDate != "" && g.EndDate != "" {
		start, okStart := models.ParseTime(g.StartDate)
		end, okEnd := models.ParseTime(g.EndDate)
		if okStart && okEnd && start.After(end) {
			issues = append(issues, models.Issue{
				Type:     models.IssueConfigDateOrder,
				Severity: models.SeverityError,
				FileID:   g.FileID,
				Message:  fmt.Sprintf("start date %s is after end date %s", g.StartDate, g.EndDate),
			})
		}
	}

	for i, ev := range g.Events {
		for _, f := range verify.CheckStatic(ev, staticContext(g, i, now)) {
			issue := models.Issue{FileID: g.FileID, Event: ev.Title, Message: f.Message}
			switch f.Code {
			case verify.FindingMissingTime:
				issue.Type, issue.Severity = models.IssueMissingEventTime, models.SeverityError
			case verify.FindingInvalidTime:
				issue.Type, issue.Severity = models.IssueInvalidEventTime, models.SeverityError
			case verify.FindingOutsideRange:
				issue.Type, issue.Severity = models.IssueEventOutsideRange, models.SeverityWarning
			case verify.FindingDuplicate:
				issue.Type, issue.Severity = models.IssueDuplicateEventTime, models.SeverityWarning
			default:
				continue
			}
			issues = append(issues, issue)
		}
	}

	for _, ec := range result.Corrections {
		issues = append(issues, models.Issue{
			Type:     models.IssueScheduleMismatch,
			Severity: models.SeverityWarning,
			FileID:   g.FileID,
			Event:    ec.Title,
			Message: fmt.Sprintf("claimed %s, evidence suggests %s (confidence %.2f)",
				ec.Correction.OldValue, ec.Correction.NewValue, ec.Correction.Confidence),
		})
	}

	return issues
}

// NewRun folds group outcomes into a VerificationRun.
func NewRun(id string, ts time.Time, outcomes []GroupOutcome, partial bool) models.VerificationRun {
	run := models.VerificationRun{
		ID:             id,
		Timestamp:      ts,
		ConfigsChecked: len(outcomes),
		Partial:        partial,
		Results:        make([]models.GroupSummary, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		s := o.Summary()
		run.EventsChecked += s.EventsChecked
		run.Results = append(run.Results, s)
	}
	return run
}
