package models

import "errors"

// IssueType classifies a health issue contributed to the status report.
type IssueType string

const (
	IssueScheduleMismatch   IssueType = "schedule_mismatch"
	IssueMissingEventTime   IssueType = "missing_event_time"
	IssueInvalidEventTime   IssueType = "invalid_event_time"
	IssueEventOutsideRange  IssueType = "event_outside_range"
	IssueDuplicateEventTime IssueType = "duplicate_event_time"
	IssueConfigDateOrder    IssueType = "config_date_order"
)

// Severity of a health issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one finding for the health report.
type Issue struct {
	Type     IssueType `json:"type" yaml:"type"`
	Severity Severity  `json:"severity" yaml:"severity"`
	FileID   string    `json:"fileId" yaml:"fileId"`
	Event    string    `json:"event,omitempty" yaml:"event,omitempty"`
	Message  string    `json:"message" yaml:"message"`
}

// Validate checks that the issue has a type, severity and owner.
func (i *Issue) Validate() error {
	if i.Type == "" {
		return errors.New("issue type must not be empty")
	}
	if i.Severity != SeverityWarning && i.Severity != SeverityError {
		return errors.New("issue severity must be 'warning' or 'error'")
	}
	if i.FileID == "" {
		return errors.New("issue file ID must not be empty")
	}
	return nil
}
