package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

func mismatchFixture() (*models.EventGroup, Evidence) {
	g := &models.EventGroup{
		FileID:    "pl",
		Sport:     "football",
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
		Events: []models.Event{
			{Title: "Arsenal vs Chelsea", Time: "2026-03-07T10:00:00Z", Venue: "Emirates"},
			{Title: "Spurs vs Everton", Time: "2026-03-08T15:00:00Z", Venue: "Tottenham Hotspur Stadium"},
		},
	}
	evidence := Evidence{Live: map[string][]models.LiveEvent{
		"football": {{Name: "Arsenal vs Chelsea", Date: "2026-03-07T15:00:00Z"}},
	}}
	return g, evidence
}

func TestProcessGroup_AppliesCorrectionAndSummarizes(t *testing.T) {
	g, evidence := mismatchFixture()
	e := New(evidence, Options{Now: fixedClock})

	out := e.ProcessGroup(context.Background(), g, ProcessOptions{RunID: "run-1", ApplyCorrections: true})

	require.Len(t, out.Applied, 1)
	assert.Equal(t, "2026-03-07T15:00:00Z", g.Events[0].Time)
	require.NotNil(t, g.VerificationSummary)
	assert.Equal(t, "run-1", g.VerificationSummary.RunID)
	assert.Equal(t, 2, g.VerificationSummary.EventsChecked)
	assert.Equal(t, 1, g.VerificationSummary.CorrectionsProposed)
	assert.Equal(t, 1, g.VerificationSummary.CorrectionsApplied)
	assert.Equal(t, fixedNow, g.VerificationSummary.VerifiedAt)

	summary := out.Summary()
	assert.Equal(t, 1, summary.CorrectionsApplied)
	assert.Equal(t, "football", summary.Sport)

	var mismatches int
	for _, is := range out.Issues {
		if is.Type == models.IssueScheduleMismatch {
			mismatches++
			assert.Equal(t, "Arsenal vs Chelsea", is.Event)
		}
	}
	assert.Equal(t, 1, mismatches)
}

func TestProcessGroup_RerunIsIdempotent(t *testing.T) {
	g, evidence := mismatchFixture()
	e := New(evidence, Options{Now: fixedClock})

	first := e.ProcessGroup(context.Background(), g, ProcessOptions{ApplyCorrections: true})
	require.Len(t, first.Applied, 1)

	// Re-applying the same corrections finds the old value gone.
	assert.Empty(t, ApplyCorrections(g, first.Result.Corrections))
	assert.Equal(t, "2026-03-07T15:00:00Z", g.Events[0].Time)

	second := e.ProcessGroup(context.Background(), g, ProcessOptions{ApplyCorrections: true})
	assert.Empty(t, second.Applied)
	assert.Equal(t, models.StatusVerified, second.Result.Events[0].Verdict.Status)
}

func TestProcessGroup_CorrectionsDisabled(t *testing.T) {
	g, evidence := mismatchFixture()
	out := New(evidence, Options{Now: fixedClock}).ProcessGroup(context.Background(), g, ProcessOptions{})

	assert.Empty(t, out.Applied)
	assert.Len(t, out.Result.Corrections, 1)
	assert.Equal(t, "2026-03-07T10:00:00Z", g.Events[0].Time)
}

func TestApplyCorrections_SkipsIneligible(t *testing.T) {
	g := &models.EventGroup{FileID: "x", Events: []models.Event{{Title: "a", Time: "2026-03-07T10:00:00Z"}}}
	corrections := []models.EventCorrection{
		{EventIndex: 0, Correction: models.Correction{Field: models.FieldTime, OldValue: "2026-03-07T10:00:00Z", NewValue: "2026-03-07T12:00:00Z", Confidence: 0.7}},
		{EventIndex: 0, Correction: models.Correction{Field: "venue", OldValue: "2026-03-07T10:00:00Z", NewValue: "Wembley", Confidence: 0.9}},
		{EventIndex: 3, Correction: models.Correction{Field: models.FieldTime, OldValue: "2026-03-07T10:00:00Z", NewValue: "2026-03-07T12:00:00Z", Confidence: 0.9}},
		{EventIndex: 0, Correction: models.Correction{Field: models.FieldTime, OldValue: "2026-03-07T09:00:00Z", NewValue: "2026-03-07T12:00:00Z", Confidence: 0.9}},
	}
	assert.Empty(t, ApplyCorrections(g, corrections))
	assert.Equal(t, "2026-03-07T10:00:00Z", g.Events[0].Time)
}

func TestProcessGroup_NeedsResearch(t *testing.T) {
	g := &models.EventGroup{FileID: "x", Events: []models.Event{{Title: "a"}, {Title: "b"}, {Title: "Spurs vs Everton", Time: "2026-03-08T15:00:00Z"}}}
	e := New(Evidence{}, Options{Now: fixedClock})

	e.ProcessGroup(context.Background(), g, ProcessOptions{})
	assert.True(t, g.NeedsResearch, "2/3 unverified is above 50%")

	g.Events[0].Time = "2026-03-09T15:00:00Z"
	e.ProcessGroup(context.Background(), g, ProcessOptions{})
	assert.False(t, g.NeedsResearch, "1/3 unverified clears the flag")
}

func TestProcessGroup_NeedsResearchExactlyHalfIsNotFlagged(t *testing.T) {
	g := &models.EventGroup{FileID: "x", Events: []models.Event{{Title: "a"}, {Title: "Spurs vs Everton", Time: "2026-03-08T15:00:00Z"}}}
	New(Evidence{}, Options{Now: fixedClock}).ProcessGroup(context.Background(), g, ProcessOptions{})
	assert.False(t, g.NeedsResearch)
}

func TestCollectIssues(t *testing.T) {
	g := &models.EventGroup{
		FileID:    "tour",
		StartDate: "2026-03-31",
		EndDate:   "2026-03-01",
		Events: []models.Event{
			{Title: "No time"},
			{Title: "Bad time", Time: "tbc"},
			{Title: "Heat 1", Time: "2026-03-06T10:00:00Z", Venue: "Track"},
			{Title: "Heat 2", Time: "2026-03-06T10:00:00Z", Venue: "Track"},
			{Title: "Way later", Time: fixedNow.Add(400 * 24 * time.Hour).Format(time.RFC3339)},
		},
	}
	issues := CollectIssues(g, models.GroupResult{}, fixedNow)

	counts := make(map[models.IssueType]int)
	for _, is := range issues {
		require.NoError(t, is.Validate())
		counts[is.Type]++
	}
	assert.Equal(t, 1, counts[models.IssueConfigDateOrder])
	assert.Equal(t, 1, counts[models.IssueMissingEventTime])
	assert.Equal(t, 1, counts[models.IssueInvalidEventTime])
	assert.Equal(t, 2, counts[models.IssueDuplicateEventTime])
	// Reversed range puts every dated event outside it.
	assert.Equal(t, 3, counts[models.IssueEventOutsideRange])
	assert.Zero(t, counts[models.IssueScheduleMismatch])
}

func TestNewRun(t *testing.T) {
	outcomes := []GroupOutcome{
		{Result: models.GroupResult{FileID: "a", EventsChecked: 2, Verified: 1, Unverified: 1, OverallConfidence: 0.45}},
		{
			Result:  models.GroupResult{FileID: "b", EventsChecked: 3, Verified: 3, OverallConfidence: 0.9, Corrections: make([]models.EventCorrection, 2)},
			Applied: make([]models.EventCorrection, 1),
		},
	}
	run := NewRun("run-1", fixedNow, outcomes, true)

	require.NoError(t, run.Validate())
	assert.Equal(t, 2, run.ConfigsChecked)
	assert.Equal(t, 5, run.EventsChecked)
	assert.True(t, run.Partial)
	assert.Equal(t, 2, run.Results[1].CorrectionsProposed)
	assert.Equal(t, 1, run.Results[1].CorrectionsApplied)
}
