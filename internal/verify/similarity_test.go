package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Arsenal vs Chelsea", "Arsenal vs Chelsea", 1.0},
		{"disjoint", "Arsenal vs Chelsea", "Lakers at Celtics", 0},
		{"empty left", "", "Arsenal vs Chelsea", 0},
		{"empty right", "Arsenal vs Chelsea", "", 0},
		{"punctuation only", "!!!", "Arsenal", 0},
		{"case and apostrophe", "Men's Sprint", "Mens Sprint", 1.0},
		{"duplicates collapse", "Stage Stage 5", "stage 5", 1.0},
		{"partial overlap", "Arsenal vs Chelsea", "Chelsea vs Spurs", 2.0 * 2 / 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TitleSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalizeWords(t *testing.T) {
	assert.Equal(t, []string{"tour", "de", "france", "stage", "12"}, normalizeWords("  Tour de France — Stage 12! "))
	assert.Empty(t, normalizeWords("--"))
}
