package slugify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Futebol", "futebol"},
		{"spaces to hyphens", "La Liga Hypermotion", "la-liga-hypermotion"},
		{"underscores collapse", "fox_sports__nba", "fox-sports-nba"},
		{"accents transliterate", "Seleção Española", "selecao-espanola"},
		{"symbols stripped", "NBA: playoffs (2026)!", "nba-playoffs-2026"},
		{"surrounding whitespace", "  Messi  ", "messi"},
		{"empty falls back", "", "tag"},
		{"only symbols falls back", "!!!", "tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMake_Idempotent(t *testing.T) {
	inputs := []string{"Futebol Internacional", "Seleção Española", "NBA: playoffs!", "", "a b_c-d"}
	for _, in := range inputs {
		once := Make(in)
		assert.Equal(t, once, Make(once), "input %q", in)
	}
}

func TestMake_LengthBoundAndNonEmpty(t *testing.T) {
	long := strings.Repeat("campeonato ", 40)
	s := Make(long)

	assert.LessOrEqual(t, len(s), maxLen)
	assert.NotEmpty(t, s)
	assert.False(t, strings.HasSuffix(s, "-"))

	// Truncation is stable too.
	assert.Equal(t, s, Make(s))
}
