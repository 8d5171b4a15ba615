package engine

import (
	"sort"
	"strings"
)

// DefaultSportKeywords maps evidence sport keys to title keywords. Keywords
// are matched as lower-case substrings of the event title.
var DefaultSportKeywords = map[string][]string{
	"football":   {"premier league", "champions league", "la liga", "serie a", "bundesliga", " fc", "fc ", "football"},
	"basketball": {"nba", "euroleague", "basketball"},
	"tennis":     {"atp", "wta", "wimbledon", "roland garros", "us open tennis", "australian open"},
	"f1":         {"grand prix", "formula 1", "formula one", "f1"},
	"cycling":    {"tour de france", "giro", "vuelta", "paris-roubaix", "stage"},
	"golf":       {"pga", "masters tournament", "ryder cup", "open championship"},
	"rugby":      {"six nations", "rugby"},
	"cricket":    {"test match", "t20", "cricket"},
}

// SportDetector resolves the evidence sport key for an event.
type SportDetector struct {
	sports   []string
	keywords map[string][]string
}

// NewSportDetector builds a detector from a sport → keywords table. A nil or
// empty table uses DefaultSportKeywords. Sports are tried in name order so
// detection is deterministic.
func NewSportDetector(keywords map[string][]string) *SportDetector {
	if len(keywords) == 0 {
		keywords = DefaultSportKeywords
	}
	d := &SportDetector{keywords: make(map[string][]string, len(keywords))}
	for sport, words := range keywords {
		key := strings.ToLower(strings.TrimSpace(sport))
		if key == "" {
			continue
		}
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(w); strings.TrimSpace(w) != "" {
				lowered = append(lowered, w)
			}
		}
		d.keywords[key] = lowered
		d.sports = append(d.sports, key)
	}
	sort.Strings(d.sports)
	return d
}

// Resolve returns the explicit sport when one is given (event first, then
// group), otherwise the first sport whose keyword appears in the title.
// Returns "" when nothing matches.
func (d *SportDetector) Resolve(eventSport, groupSport, title string) string {
	if s := strings.ToLower(strings.TrimSpace(eventSport)); s != "" {
		return s
	}
	if s := strings.ToLower(strings.TrimSpace(groupSport)); s != "" {
		return s
	}
	lower := strings.ToLower(title)
	for _, sport := range d.sports {
		for _, w := range d.keywords[sport] {
			if strings.Contains(lower, w) {
				return sport
			}
		}
	}
	return ""
}
