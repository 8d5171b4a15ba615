package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

func TestRecorder_ObserveResultAndVerdict(t *testing.T) {
	r := NewRecorder()

	r.ObserveResult(models.VerifierResult{Source: models.SourceLiveAPI, Verified: true, Confidence: 0.9})
	r.ObserveResult(models.VerifierResult{Source: models.SourceLiveAPI, Confidence: 0})
	r.ObserveResult(models.VerifierResult{Source: models.SourceRSS, Confidence: 0.2})
	r.ObserveVerdict(models.Verdict{Status: models.StatusVerified})
	r.ObserveVerdict(models.Verdict{Status: models.StatusVerified})
	r.ObserveVerdict(models.Verdict{Status: models.StatusUnverified})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.verifierResults.WithLabelValues("live-api", OutcomeVerified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.verifierResults.WithLabelValues("live-api", OutcomeNoEvidence)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.verifierResults.WithLabelValues("rss-cross-ref", OutcomeUnverified)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("unverified")))
}

func TestRecorder_ObserveRun(t *testing.T) {
	r := NewRecorder()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	groups := []models.GroupSummary{
		{FileID: "league", EventsChecked: 3, Verified: 3, OverallConfidence: 0.9, CorrectionsProposed: 2, CorrectionsApplied: 1},
		{FileID: "cup", EventsChecked: 1, Unverified: 1, OverallConfidence: 0.1},
	}
	for _, g := range groups {
		r.ObserveGroup(g)
	}
	r.ObserveRun(models.VerificationRun{
		ID: "run-1", Timestamp: ts, ConfigsChecked: 2, EventsChecked: 4, Partial: true, Results: groups,
	}, 2, 1500*time.Millisecond)

	assert.InDelta(t, 0.7, testutil.ToFloat64(r.runConfidence), 1e-9)
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(r.runTimestamp))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.runDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runPartial))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.webSearches))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.corrections.WithLabelValues("proposed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.corrections.WithLabelValues("applied")))
	assert.Equal(t, 0.9, testutil.ToFloat64(r.groupConfidence.WithLabelValues("league")))

	// An empty run resets the confidence gauge instead of dividing by zero
	r.ObserveRun(models.VerificationRun{ID: "run-2", Timestamp: ts}, 0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runConfidence))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runPartial))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveVerdict(models.Verdict{Status: models.StatusPlausible})

	path := filepath.Join(t.TempDir(), "fixtureverify.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.True(t, strings.Contains(out, `fixtureverify_events_total{status="plausible"} 1`), out)
	assert.Contains(t, out, "# HELP fixtureverify_last_run_confidence")
}

func TestRecorders_AreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.ObserveVerdict(models.Verdict{Status: models.StatusVerified})
	assert.Equal(t, 0.0, testutil.ToFloat64(b.events.WithLabelValues("verified")))
}
