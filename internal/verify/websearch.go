package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// SearchResult is what a search callback reports for one event.
type SearchResult struct {
	Verified   bool               `json:"verified"`
	Confidence float64            `json:"confidence"`
	Details    string             `json:"details"`
	Correction *models.Correction `json:"correction,omitempty"`
}

// SearchFunc is the injected, possibly slow, external search.
type SearchFunc func(ctx context.Context, ev models.Event) (*SearchResult, error)

// Budget is a count-based cap on web searches for one run.
type Budget struct {
	mu        sync.Mutex
	remaining int
	used      int
}

// NewBudget returns a budget allowing n searches. Negative n allows none.
func NewBudget(n int) *Budget {
	if n < 0 {
		n = 0
	}
	return &Budget{remaining: n}
}

// Take consumes one search if any remain.
func (b *Budget) Take() bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	b.used++
	return true
}

// Remaining returns the searches left.
func (b *Budget) Remaining() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Used returns the searches consumed so far.
func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// WebSearch delegates to search when one is configured and the budget allows.
// A callback error degrades to confidence 0 and is reported in Details.
func WebSearch(ctx context.Context, ev models.Event, search SearchFunc, budget *Budget) models.VerifierResult {
	if search == nil {
		return models.VerifierResult{Source: models.SourceWebSearch, Details: "web search not configured"}
	}
	if !budget.Take() {
		return models.VerifierResult{Source: models.SourceWebSearch, Details: "web search budget exhausted"}
	}

	res, err := search(ctx, ev)
	if err != nil {
		return models.VerifierResult{Source: models.SourceWebSearch, Details: fmt.Sprintf("web search failed: %v", err)}
	}
	if res == nil {
		return models.VerifierResult{Source: models.SourceWebSearch, Details: "web search returned no result"}
	}

	out := models.VerifierResult{
		Verified:   res.Verified,
		Confidence: models.Clamp01(res.Confidence),
		Source:     models.SourceWebSearch,
		Details:    res.Details,
	}
	if res.Correction != nil {
		c := *res.Correction
		c.Field = models.FieldTime
		if c.OldValue == "" {
			c.OldValue = ev.Time
		}
		c.Confidence = models.Clamp01(c.Confidence)
		if c.Validate() == nil {
			out.Correction = &c
		}
	}
	return out
}
