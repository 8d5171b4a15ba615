package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// StaticContext is the group-level context for the static checks.
type StaticContext struct {
	StartDate string
	EndDate   string
	Now       time.Time
	// Siblings are the other events of the same group, excluding the event itself.
	Siblings []models.Event
}

// FindingCode classifies a static finding.
type FindingCode string

const (
	FindingMissingTime  FindingCode = "missing_time"
	FindingInvalidTime  FindingCode = "invalid_time"
	FindingOutsideRange FindingCode = "outside_range"
	FindingFarFuture    FindingCode = "far_future"
	FindingFarPast      FindingCode = "far_past"
	FindingDuplicate    FindingCode = "duplicate"
)

// Finding is one structural problem with an event.
type Finding struct {
	Code    FindingCode
	Message string
}

// CheckStatic runs the structural checks and returns every finding. A missing
// or unparsable time short-circuits the remaining checks.
func CheckStatic(ev models.Event, sctx StaticContext) []Finding {
	if ev.Time == "" {
		return []Finding{{Code: FindingMissingTime, Message: "event time is missing"}}
	}
	at, ok := ev.ParsedTime()
	if !ok {
		return []Finding{{Code: FindingInvalidTime, Message: fmt.Sprintf("event time %q cannot be parsed", ev.Time)}}
	}

	var findings []Finding

	group := models.EventGroup{StartDate: sctx.StartDate, EndDate: sctx.EndDate}
	if start, end, ok := group.DateRange(); ok {
		if at.Before(start) || at.After(end) {
			findings = append(findings, Finding{
				Code:    FindingOutsideRange,
				Message: fmt.Sprintf("event is outside the group date range %s..%s", sctx.StartDate, sctx.EndDate),
			})
		}
	}

	now := sctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	if at.Sub(now) > farFutureLimit {
		findings = append(findings, Finding{Code: FindingFarFuture, Message: "event is more than 1 year in the future"})
	}
	if now.Sub(at) > pastLimit {
		findings = append(findings, Finding{Code: FindingFarPast, Message: "event is more than 7 days in the past"})
	}

	if ev.Venue != "" {
		for _, sib := range sctx.Siblings {
			if sib.Venue != ev.Venue {
				continue
			}
			if sibAt, ok := sib.ParsedTime(); ok && sibAt.Equal(at) {
				findings = append(findings, Finding{
					Code:    FindingDuplicate,
					Message: fmt.Sprintf("shares time and venue with %q", sib.Title),
				})
				break
			}
		}
	}

	return findings
}

// Static is the cheapest verifier and always runs first. It performs no I/O.
func Static(ev models.Event, sctx StaticContext) models.VerifierResult {
	findings := CheckStatic(ev, sctx)
	if len(findings) == 0 {
		return models.VerifierResult{
			Verified:   true,
			Confidence: staticPassConfidence,
			Source:     models.SourceStatic,
			Details:    "passed structural checks",
		}
	}

	code := findings[0].Code
	if code == FindingMissingTime || code == FindingInvalidTime {
		return models.VerifierResult{Source: models.SourceStatic, Details: findings[0].Message}
	}

	messages := make([]string, len(findings))
	for i, f := range findings {
		messages[i] = f.Message
	}
	return models.VerifierResult{
		Confidence: staticFailConfidence,
		Source:     models.SourceStatic,
		Details:    strings.Join(messages, "; "),
	}
}
