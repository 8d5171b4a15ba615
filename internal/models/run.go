package models

import (
	"errors"
	"time"
)

// HistoryVersion is the current persisted history schema version.
const HistoryVersion = 1

// MaxHistoryRuns is the hard cap on retained runs.
const MaxHistoryRuns = 50

// EventResult is the verification outcome for a single event.
type EventResult struct {
	Index      int              `json:"index"`
	Title      string           `json:"title"`
	Time       string           `json:"time,omitempty"`
	SportKey   string           `json:"sportKey,omitempty"`
	Verdict    Verdict          `json:"verdict"`
	Results    []VerifierResult `json:"results"`
	Correction *Correction      `json:"correction,omitempty"`
}

// EventCorrection ties a group-level proposed correction to its event.
type EventCorrection struct {
	EventIndex int        `json:"eventIndex"`
	Title      string     `json:"title"`
	Correction Correction `json:"correction"`
}

// GroupResult is the verification outcome for one event group in one run.
type GroupResult struct {
	FileID            string            `json:"fileId"`
	Sport             string            `json:"sport,omitempty"`
	EventsChecked     int               `json:"eventsChecked"`
	Verified          int               `json:"verified"`
	Plausible         int               `json:"plausible"`
	Unverified        int               `json:"unverified"`
	OverallConfidence float64           `json:"overallConfidence"`
	Events            []EventResult     `json:"events"`
	Corrections       []EventCorrection `json:"corrections"`
}

// UnverifiedRatio returns unverified/eventsChecked, or 0 for an empty group.
func (r *GroupResult) UnverifiedRatio() float64 {
	if r.EventsChecked == 0 {
		return 0
	}
	return float64(r.Unverified) / float64(r.EventsChecked)
}

// GroupSummary is the persisted, per-group slice of a run.
type GroupSummary struct {
	FileID              string  `json:"fileId"`
	Sport               string  `json:"sport,omitempty"`
	EventsChecked       int     `json:"eventsChecked"`
	Verified            int     `json:"verified"`
	Plausible           int     `json:"plausible"`
	Unverified          int     `json:"unverified"`
	OverallConfidence   float64 `json:"overallConfidence"`
	CorrectionsProposed int     `json:"correctionsProposed"`
	CorrectionsApplied  int     `json:"correctionsApplied"`
}

// VerificationRun is one pass over all event groups.
type VerificationRun struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	ConfigsChecked int            `json:"configsChecked"`
	EventsChecked  int            `json:"eventsChecked"`
	Partial        bool           `json:"partial,omitempty"`
	Results        []GroupSummary `json:"results"`
}

// Validate checks that all run fields are valid.
func (r *VerificationRun) Validate() error {
	if r.ID == "" {
		return errors.New("run ID must not be empty")
	}
	if r.Timestamp.IsZero() {
		return errors.New("run timestamp must be set")
	}
	if r.ConfigsChecked != len(r.Results) {
		return errors.New("configs checked must equal number of group results")
	}
	total := 0
	for _, res := range r.Results {
		if res.Verified+res.Plausible+res.Unverified != res.EventsChecked {
			return errors.New("group status counts must sum to events checked")
		}
		total += res.EventsChecked
	}
	if total != r.EventsChecked {
		return errors.New("events checked must equal the sum over groups")
	}
	return nil
}

// History is the bounded, versioned record of past runs, oldest first.
type History struct {
	Version int               `json:"version"`
	Runs    []VerificationRun `json:"runs"`
}

// NewHistory returns an empty history at the current version.
func NewHistory() History {
	return History{Version: HistoryVersion, Runs: []VerificationRun{}}
}

// Append returns a copy of h with run added, evicting the oldest runs so that
// at most maxRuns remain. maxRuns outside 1..MaxHistoryRuns means MaxHistoryRuns.
func (h History) Append(run VerificationRun, maxRuns int) History {
	if maxRuns < 1 || maxRuns > MaxHistoryRuns {
		maxRuns = MaxHistoryRuns
	}
	runs := make([]VerificationRun, 0, len(h.Runs)+1)
	runs = append(runs, h.Runs...)
	runs = append(runs, run)
	if len(runs) > maxRuns {
		runs = runs[len(runs)-maxRuns:]
	}
	return History{Version: HistoryVersion, Runs: runs}
}

// Last returns up to the n most recent runs, oldest first.
func (h History) Last(n int) []VerificationRun {
	if n <= 0 {
		return nil
	}
	if n >= len(h.Runs) {
		return h.Runs
	}
	return h.Runs[len(h.Runs)-n:]
}
