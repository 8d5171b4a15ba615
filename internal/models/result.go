package models

import (
	"errors"
	"math"
)

// Source identifies which verifier produced a result.
type Source string

const (
	SourceStatic    Source = "static"
	SourceLiveAPI   Source = "live-api"
	SourceRSS       Source = "rss-cross-ref"
	SourceSportData Source = "sport-data"
	SourceWebSearch Source = "web-search"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceStatic, SourceLiveAPI, SourceRSS, SourceSportData, SourceWebSearch:
		return true
	}
	return false
}

// Status is the three-way classification of an aggregate confidence.
type Status string

const (
	StatusVerified   Status = "verified"
	StatusPlausible  Status = "plausible"
	StatusUnverified Status = "unverified"
)

// FieldTime is the only field corrections currently target.
const FieldTime = "time"

// Correction is a proposed replacement value for an event field.
type Correction struct {
	Field      string  `json:"field"`
	OldValue   string  `json:"oldValue"`
	NewValue   string  `json:"newValue"`
	Confidence float64 `json:"confidence"`
}

// Validate checks that the correction is usable.
func (c *Correction) Validate() error {
	if c.Field != FieldTime {
		return errors.New("correction field must be 'time'")
	}
	if c.NewValue == "" {
		return errors.New("correction new value must not be empty")
	}
	if c.NewValue == c.OldValue {
		return errors.New("correction new value must differ from old value")
	}
	if math.IsNaN(c.Confidence) || c.Confidence < 0.0 || c.Confidence > 1.0 {
		return errors.New("correction confidence must be between 0.0 and 1.0")
	}
	return nil
}

// VerifierResult is the output of one verifier for one event.
type VerifierResult struct {
	Verified   bool        `json:"verified"`
	Confidence float64     `json:"confidence"`
	Source     Source      `json:"source"`
	Details    string      `json:"details"`
	Correction *Correction `json:"correction,omitempty"`
}

// Validate checks that the result is well formed.
func (r *VerifierResult) Validate() error {
	if !r.Source.Valid() {
		return errors.New("result source must be a known verifier")
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0.0 || r.Confidence > 1.0 {
		return errors.New("result confidence must be between 0.0 and 1.0")
	}
	if r.Correction != nil {
		if err := r.Correction.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Verdict is the aggregate over all verifier results for one event.
type Verdict struct {
	Confidence float64  `json:"confidence"`
	Status     Status   `json:"status"`
	Sources    []Source `json:"sources"`
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
