package hints

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

func runWith(id int, summaries ...models.GroupSummary) models.VerificationRun {
	return models.VerificationRun{
		ID:        fmt.Sprintf("run-%d", id),
		Timestamp: time.Date(2026, 3, 1, id, 0, 0, 0, time.UTC),
		Results:   summaries,
	}
}

func summary(sport string, checked, verified, unverified, applied int) models.GroupSummary {
	return models.GroupSummary{
		FileID:             sport + "-file",
		Sport:              sport,
		EventsChecked:      checked,
		Verified:           verified,
		Plausible:          checked - verified - unverified,
		Unverified:         unverified,
		CorrectionsApplied: applied,
	}
}

func historyOf(runs ...models.VerificationRun) models.History {
	h := models.NewHistory()
	for _, r := range runs {
		h = h.Append(r, models.MaxHistoryRuns)
	}
	return h
}

func kinds(hs []Hint) []Kind {
	out := make([]Kind, len(hs))
	for i, h := range hs {
		out[i] = h.Kind
	}
	return out
}

func TestBuild_EmptyHistory(t *testing.T) {
	assert.Nil(t, Build(models.NewHistory()))
}

func TestBuild_AllVerifiedEmitsNothing(t *testing.T) {
	var runs []models.VerificationRun
	for i := 0; i < 5; i++ {
		runs = append(runs, runWith(i, summary("football", 4, 4, 0, 0), summary("tennis", 3, 3, 0, 0)))
	}
	assert.Empty(t, Build(historyOf(runs...)))
}

func TestBuild_NothingCheckedEmitsNothing(t *testing.T) {
	h := historyOf(runWith(0), runWith(1, summary("football", 0, 0, 0, 0)))
	assert.Empty(t, Build(h))
}

func TestBuild_LowAccuracy(t *testing.T) {
	h := historyOf(
		runWith(0, summary("football", 10, 10, 0, 0)),
		runWith(1, summary("football", 10, 5, 0, 0)),
		runWith(2, summary("football", 10, 5, 0, 0)),
		runWith(3, summary("football", 10, 6, 0, 0)),
	)
	hs := Build(h)

	// Last three: 16/30 ≈ 0.53. The older perfect run is outside the window.
	require.Contains(t, kinds(hs), KindLowAccuracy)
	assert.Contains(t, hs[0].Text, "official sources")
	assert.NotContains(t, kinds(hs), KindSportAccuracy, "football is 26/40 over five runs")
}

func TestBuild_SportAccuracy(t *testing.T) {
	h := historyOf(
		runWith(0, summary("cycling", 4, 1, 0, 0), summary("football", 20, 20, 0, 0)),
		runWith(1, summary("cycling", 4, 1, 0, 0), summary("football", 20, 20, 0, 0), summary("chess", 1, 0, 0, 0)),
	)
	hs := Build(h)

	require.Equal(t, []Kind{KindSportAccuracy}, kinds(hs))
	assert.Equal(t, "cycling", hs[0].Sport)
	assert.Contains(t, hs[0].Text, "official event website")
}

func TestBuild_SportWindowIsFiveRuns(t *testing.T) {
	runs := []models.VerificationRun{runWith(0, summary("golf", 10, 0, 0, 0))}
	for i := 1; i <= 5; i++ {
		runs = append(runs, runWith(i, summary("football", 10, 10, 0, 0)))
	}
	assert.Empty(t, Build(historyOf(runs...)))
}

func TestBuild_Timezone(t *testing.T) {
	h := historyOf(runWith(0, summary("football", 10, 10, 0, 2)))
	hs := Build(h)

	require.Equal(t, []Kind{KindTimezone}, kinds(hs))
	assert.Contains(t, hs[0].Text, "timezone offsets")
}

func TestBuild_SecondarySources(t *testing.T) {
	h := historyOf(runWith(0, summary("football", 10, 7, 3, 0)), runWith(1, summary("football", 10, 7, 4, 0)))
	hs := Build(h)

	// 7/20 unverified = 0.35 > 0.3; accuracy 0.7 is fine.
	assert.Equal(t, []Kind{KindSecondarySources}, kinds(hs))
}

func TestBuild_MultipleRulesFireTogether(t *testing.T) {
	h := historyOf(runWith(0, summary("tennis", 10, 2, 6, 1)))
	hs := Build(h)

	assert.Equal(t, []Kind{KindLowAccuracy, KindSportAccuracy, KindTimezone, KindSecondarySources}, kinds(hs))
	assert.Len(t, Texts(hs), 4)
}
