// Package hints turns verification history into correction directives for the
// event discovery process.
//
// Hints are recomputed from history on every call and never persisted on
// their own. Each rule fires independently:
//
//	low_accuracy       Σverified/Σchecked over the last 3 runs < 0.6
//	sport_accuracy     per-sport accuracy over the last 5 runs < 0.5 (sports with ≥2 checked events)
//	timezone           any correction applied in the last 3 runs
//	secondary_sources  Σunverified/Σchecked over the last 3 runs > 0.3
package hints

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// Kind identifies which rule produced a hint.
type Kind string

const (
	KindLowAccuracy      Kind = "low_accuracy"
	KindSportAccuracy    Kind = "sport_accuracy"
	KindTimezone         Kind = "timezone"
	KindSecondarySources Kind = "secondary_sources"
)

// Hint is a natural-language directive for upstream event entry.
type Hint struct {
	Kind  Kind   `json:"kind"`
	Sport string `json:"sport,omitempty"`
	Text  string `json:"text"`
}

const (
	recentRuns        = 3
	sportRuns         = 5
	minSportChecked   = 2
	lowAccuracy       = 0.6
	lowSportAccuracy  = 0.5
	highUnverifiedPct = 0.3
)

type tally struct {
	checked, verified, unverified, applied int
}

func (t *tally) add(s models.GroupSummary) {
	t.checked += s.EventsChecked
	t.verified += s.Verified
	t.unverified += s.Unverified
	t.applied += s.CorrectionsApplied
}

// Build returns the hints for h, or nil when history is empty or no rule fires.
func Build(h models.History) []Hint {
	if len(h.Runs) < 1 {
		return nil
	}

	var recent tally
	for _, run := range h.Last(recentRuns) {
		for _, s := range run.Results {
			recent.add(s)
		}
	}

	// Nothing checked means nothing to complain about.
	accuracy, unverifiedRatio := 1.0, 0.0
	if recent.checked > 0 {
		accuracy = float64(recent.verified) / float64(recent.checked)
		unverifiedRatio = float64(recent.unverified) / float64(recent.checked)
	}

	var out []Hint
	if accuracy < lowAccuracy {
		out = append(out, Hint{
			Kind: KindLowAccuracy,
			Text: fmt.Sprintf("Only %.0f%% of recently added events could be verified. "+
				"Double-check every event date and time against official sources before adding it.", accuracy*100),
		})
	}

	perSport := make(map[string]*tally)
	for _, run := range h.Last(sportRuns) {
		for _, s := range run.Results {
			if s.Sport == "" {
				continue
			}
			t, ok := perSport[s.Sport]
			if !ok {
				t = &tally{}
				perSport[s.Sport] = t
			}
			t.add(s)
		}
	}
	sports := make([]string, 0, len(perSport))
	for sport := range perSport {
		sports = append(sports, sport)
	}
	sort.Strings(sports)
	for _, sport := range sports {
		t := perSport[sport]
		if t.checked < minSportChecked {
			continue
		}
		sportAccuracy := float64(t.verified) / float64(t.checked)
		if sportAccuracy < lowSportAccuracy {
			out = append(out, Hint{
				Kind:  KindSportAccuracy,
				Sport: sport,
				Text: fmt.Sprintf("%s events are only %.0f%% verified. "+
					"Verify %s dates and times against the official event website.", sport, sportAccuracy*100, sport),
			})
		}
	}

	if recent.applied > 0 {
		out = append(out, Hint{
			Kind: KindTimezone,
			Text: fmt.Sprintf("%d event times were corrected recently. "+
				"Always include timezone offsets in event times (for example 2026-03-07T15:00:00+01:00).", recent.applied),
		})
	}

	if unverifiedRatio > highUnverifiedPct {
		out = append(out, Hint{
			Kind: KindSecondarySources,
			Text: fmt.Sprintf("%.0f%% of recently checked events could not be verified by any source. "+
				"Use official schedules, not secondary sources.", unverifiedRatio*100),
		})
	}

	return out
}

// Texts returns just the directive text of each hint.
func Texts(hs []Hint) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Text
	}
	return out
}
