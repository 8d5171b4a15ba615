// Package models defines the core domain entities for fixtureverify.
// These models represent curated event groups, the evidence checked against them,
// per-verifier results, and the bounded history of verification runs.
// All models include built-in validation to ensure data integrity throughout the application.
//
// Terminology:
//   - Event: a single scheduled sporting event with a claimed start time.
//   - Group: a curated file of events that share a sport and a date range
//     (a tournament, a season block, a race weekend).
package models

import (
	"errors"
	"time"
)

// dateLayout is the layout used for group start/end dates.
const dateLayout = "2006-01-02"

// Event is a single curated event. Time is kept as the raw string from the
// group file so that missing and unparsable values can be reported instead of
// rejected at load time.
type Event struct {
	Title   string `json:"title" yaml:"title"`
	Time    string `json:"time,omitempty" yaml:"time,omitempty"`
	EndTime string `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Venue   string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Sport   string `json:"sport,omitempty" yaml:"sport,omitempty"`
}

// timeLayouts lists the accepted event time formats, most specific first.
// Values without an explicit offset are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// ParseTime parses an event time string. The boolean is false when the value
// is empty or matches none of the accepted layouts.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsedTime returns the event start time.
func (e *Event) ParsedTime() (time.Time, bool) {
	return ParseTime(e.Time)
}

// EventGroup is one curated event file. The verification summary and the
// needsResearch flag are owned by the verification run and overwritten on
// every pass.
type EventGroup struct {
	FileID              string               `json:"fileId" yaml:"fileId"`
	Name                string               `json:"name,omitempty" yaml:"name,omitempty"`
	Sport               string               `json:"sport,omitempty" yaml:"sport,omitempty"`
	StartDate           string               `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate             string               `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	Events              []Event              `json:"events" yaml:"events"`
	NeedsResearch       bool                 `json:"needsResearch,omitempty" yaml:"needsResearch,omitempty"`
	VerificationSummary *VerificationSummary `json:"verificationSummary,omitempty" yaml:"verificationSummary,omitempty"`
}

// VerificationSummary is the per-group block written back after each run.
type VerificationSummary struct {
	VerifiedAt          time.Time `json:"verifiedAt" yaml:"verifiedAt"`
	RunID               string    `json:"runId" yaml:"runId"`
	EventsChecked       int       `json:"eventsChecked" yaml:"eventsChecked"`
	Verified            int       `json:"verified" yaml:"verified"`
	Plausible           int       `json:"plausible" yaml:"plausible"`
	Unverified          int       `json:"unverified" yaml:"unverified"`
	OverallConfidence   float64   `json:"overallConfidence" yaml:"overallConfidence"`
	CorrectionsProposed int       `json:"correctionsProposed" yaml:"correctionsProposed"`
	CorrectionsApplied  int       `json:"correctionsApplied" yaml:"correctionsApplied"`
}

// DateRange returns the parsed group range. The end date is inclusive, so the
// returned end is the last instant of that day. ok is false unless both dates
// are present and parse.
func (g *EventGroup) DateRange() (start, end time.Time, ok bool) {
	if g.StartDate == "" || g.EndDate == "" {
		return time.Time{}, time.Time{}, false
	}
	start, okStart := ParseTime(g.StartDate)
	end, okEnd := ParseTime(g.EndDate)
	if !okStart || !okEnd {
		return time.Time{}, time.Time{}, false
	}
	if len(g.EndDate) == len(dateLayout) {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, true
}

// Validate checks the structural fields of a group. Event-level defects are
// not validation errors; they are reported by the verifiers.
func (g *EventGroup) Validate() error {
	if g.FileID == "" {
		return errors.New("group file ID must not be empty")
	}
	if g.StartDate != "" {
		if _, ok := ParseTime(g.StartDate); !ok {
			return errors.New("group start date must be a valid date")
		}
	}
	if g.EndDate != "" {
		if _, ok := ParseTime(g.EndDate); !ok {
			return errors.New("group end date must be a valid date")
		}
	}
	return nil
}

// LiveEvent is one entry from the live scoreboard service.
type LiveEvent struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// SportData is the locally cached listing for one sport.
type SportData struct {
	Tournaments []Tournament `json:"tournaments"`
}

// Tournament groups the cached events of one competition.
type Tournament struct {
	Name   string           `json:"name,omitempty"`
	Events []SportDataEvent `json:"events"`
}

// SportDataEvent is one cached event in a tournament listing.
type SportDataEvent struct {
	Title string `json:"title"`
	Time  string `json:"time"`
}
