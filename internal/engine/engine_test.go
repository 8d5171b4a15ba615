package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/fixtureverify/internal/models"
	"github.com/rewired-gh/fixtureverify/internal/verify"
)

var fixedNow = time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type recordingObserver struct {
	results  []models.VerifierResult
	verdicts []models.Verdict
}

func (o *recordingObserver) ObserveResult(r models.VerifierResult) { o.results = append(o.results, r) }
func (o *recordingObserver) ObserveVerdict(v models.Verdict)       { o.verdicts = append(o.verdicts, v) }

func TestVerifyGroup_EndToEnd(t *testing.T) {
	g := &models.EventGroup{
		FileID: "premier-league",
		Sport:  "football",
		Events: []models.Event{
			{Title: "Arsenal vs Chelsea", Time: "2026-03-07T15:00:00Z", Venue: "Emirates"},
			{Title: "Mystery Cup Final"},
		},
	}
	evidence := Evidence{Live: map[string][]models.LiveEvent{
		"football": {{Name: "Arsenal vs Chelsea", Date: "2026-03-07T15:00:00Z"}},
	}}
	e := New(evidence, Options{Now: fixedClock})

	result := e.VerifyGroup(context.Background(), g)

	require.Len(t, result.Events, 2)
	assert.Equal(t, 0.9, result.Events[0].Verdict.Confidence)
	assert.Equal(t, models.StatusVerified, result.Events[0].Verdict.Status)
	assert.Equal(t, []models.Source{models.SourceStatic, models.SourceLiveAPI}, result.Events[0].Verdict.Sources)
	assert.Equal(t, 0.0, result.Events[1].Verdict.Confidence)
	assert.Equal(t, models.StatusUnverified, result.Events[1].Verdict.Status)

	assert.Equal(t, 2, result.EventsChecked)
	assert.Equal(t, 1, result.Verified)
	assert.Equal(t, 0, result.Plausible)
	assert.Equal(t, 1, result.Unverified)
	assert.InDelta(t, 0.45, result.OverallConfidence, 1e-9)
	assert.Empty(t, result.Corrections)
}

func TestVerifyGroup_OverallConfidenceIsPlainMean(t *testing.T) {
	g := &models.EventGroup{
		FileID: "premier-league",
		Sport:  "football",
		Events: []models.Event{
			{Title: "Arsenal vs Chelsea", Time: "2026-03-07T15:00:00Z", Venue: "Emirates"},
			{Title: "Mystery Cup Final"},
			{Title: "Mystery Derby", Time: "2026-03-07T18:00:00Z", Venue: "Elsewhere"},
		},
	}
	evidence := Evidence{Live: map[string][]models.LiveEvent{
		"football": {{Name: "Arsenal vs Chelsea", Date: "2026-03-07T15:00:00Z"}},
	}}

	result := New(evidence, Options{Now: fixedClock}).VerifyGroup(context.Background(), g)

	require.Len(t, result.Events, 3)
	assert.Equal(t, 0.4, result.Events[2].Verdict.Confidence)
	assert.InDelta(t, (0.9+0.0+0.4)/3, result.OverallConfidence, 1e-12)
	assert.NotEqual(t, 0.43, result.OverallConfidence)
}

func TestVerifyGroup_Empty(t *testing.T) {
	e := New(Evidence{}, Options{Now: fixedClock})
	result := e.VerifyGroup(context.Background(), &models.EventGroup{FileID: "empty"})

	assert.Equal(t, 0, result.EventsChecked)
	assert.Equal(t, 0.0, result.OverallConfidence)
	assert.NotNil(t, result.Corrections)
}

func TestVerifyGroup_CollectsHighConfidenceCorrection(t *testing.T) {
	g := &models.EventGroup{
		FileID: "pl",
		Sport:  "football",
		Events: []models.Event{{Title: "Arsenal vs Chelsea", Time: "2026-03-07T10:00:00Z"}},
	}
	evidence := Evidence{
		Live: map[string][]models.LiveEvent{"football": {{Name: "Arsenal vs Chelsea", Date: "2026-03-07T15:00:00Z"}}},
		SportData: map[string]models.SportData{"football": {Tournaments: []models.Tournament{{
			Events: []models.SportDataEvent{{Title: "Arsenal vs Chelsea", Time: "2026-03-07T16:00:00Z"}},
		}}}},
	}
	result := New(evidence, Options{Now: fixedClock}).VerifyGroup(context.Background(), g)

	// Both sources propose a fix with score 0.8; the first one (live) wins.
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, 0, result.Corrections[0].EventIndex)
	assert.Equal(t, "2026-03-07T15:00:00Z", result.Corrections[0].Correction.NewValue)
	assert.Equal(t, models.StatusVerified, result.Events[0].Verdict.Status)
}

func TestVerifyEvent_EscalatesToWebSearchOnlyWhenUnverified(t *testing.T) {
	var searched []string
	search := func(ctx context.Context, ev models.Event) (*verify.SearchResult, error) {
		searched = append(searched, ev.Title)
		return &verify.SearchResult{Verified: true, Confidence: 0.75, Details: "official site"}, nil
	}
	g := &models.EventGroup{
		FileID: "pl",
		Sport:  "football",
		Events: []models.Event{
			{Title: "Arsenal vs Chelsea", Time: "2026-03-07T15:00:00Z"},
			{Title: "Spurs vs Everton"},
		},
	}
	evidence := Evidence{Live: map[string][]models.LiveEvent{
		"football": {{Name: "Arsenal vs Chelsea", Date: "2026-03-07T15:00:00Z"}},
	}}
	e := New(evidence, Options{WebSearchEnabled: true, Search: search, SearchBudget: 3, Now: fixedClock})

	result := e.VerifyGroup(context.Background(), g)

	assert.Equal(t, []string{"Spurs vs Everton"}, searched)
	assert.Len(t, result.Events[0].Results, 4)
	require.Len(t, result.Events[1].Results, 5)
	assert.Equal(t, models.SourceWebSearch, result.Events[1].Results[4].Source)
	assert.Equal(t, 0.75, result.Events[1].Verdict.Confidence)
	assert.Equal(t, models.StatusVerified, result.Events[1].Verdict.Status)
	assert.Equal(t, 1, e.SearchesUsed())
}

func TestVerifyEvent_PlausibleDoesNotEscalate(t *testing.T) {
	search := func(ctx context.Context, ev models.Event) (*verify.SearchResult, error) {
		t.Fatal("plausible events must not trigger web search")
		return nil, nil
	}
	g := &models.EventGroup{FileID: "pl", Events: []models.Event{{Title: "Spurs vs Everton", Time: "2026-03-08T15:00:00Z"}}}
	e := New(Evidence{}, Options{WebSearchEnabled: true, Search: search, SearchBudget: 3, Now: fixedClock})

	er := e.VerifyEvent(context.Background(), g, 0, fixedNow)
	assert.Equal(t, models.StatusPlausible, er.Verdict.Status)
	assert.Len(t, er.Results, 4)
}

func TestVerifyEvent_WebSearchDisabled(t *testing.T) {
	search := func(ctx context.Context, ev models.Event) (*verify.SearchResult, error) {
		t.Fatal("disabled web search must not be called")
		return nil, nil
	}
	g := &models.EventGroup{FileID: "x", Events: []models.Event{{Title: "No time"}}}
	e := New(Evidence{}, Options{Search: search, SearchBudget: 3, Now: fixedClock})

	er := e.VerifyEvent(context.Background(), g, 0, fixedNow)
	assert.Len(t, er.Results, 4)
}

func TestVerifyGroup_BudgetSharedAcrossRun(t *testing.T) {
	calls := 0
	search := func(ctx context.Context, ev models.Event) (*verify.SearchResult, error) {
		calls++
		return nil, errors.New("upstream timeout")
	}
	e := New(Evidence{}, Options{WebSearchEnabled: true, Search: search, SearchBudget: 2, Now: fixedClock})

	for _, id := range []string{"a", "b"} {
		g := &models.EventGroup{FileID: id, Events: []models.Event{{Title: "x"}, {Title: "y"}}}
		result := e.VerifyGroup(context.Background(), g)
		assert.Equal(t, 2, result.Unverified)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, e.SearchesUsed())
}

func TestVerifyGroup_ResolvesSportFromTitle(t *testing.T) {
	g := &models.EventGroup{FileID: "mixed", Events: []models.Event{
		{Title: "Monaco Grand Prix", Time: "2026-03-07T13:00:00Z"},
	}}
	evidence := Evidence{Live: map[string][]models.LiveEvent{"f1": {{Name: "Monaco Grand Prix", Date: "2026-03-07T13:00:00Z"}}}}
	result := New(evidence, Options{Now: fixedClock}).VerifyGroup(context.Background(), g)

	assert.Equal(t, "f1", result.Events[0].SportKey)
	assert.Equal(t, "f1", result.Sport)
	assert.Equal(t, 1, result.Verified)
}

func TestVerifyGroup_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	g := &models.EventGroup{FileID: "x", Events: []models.Event{{Title: "a"}, {Title: "b"}}}
	New(Evidence{}, Options{Observer: obs, Now: fixedClock}).VerifyGroup(context.Background(), g)

	assert.Len(t, obs.results, 8)
	assert.Len(t, obs.verdicts, 2)
}

func TestGroupError(t *testing.T) {
	base := errors.New("permission denied")
	err := GroupError{FileID: "pl", Err: base}
	assert.Equal(t, "group pl: permission denied", err.Error())
	assert.ErrorIs(t, err, base)
}
