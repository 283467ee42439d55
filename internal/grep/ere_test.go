package grep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToERE(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		want      string
		wantExact bool
	}{
		{"digit class", `\d+`, "([0-9])+", true},
		{"dot matches any rune", `a.b`, "a.[\x80-\xbf]*b", false},
		{"dot-all flag", `(?s)a.b`, "a.[\x80-\xbf]*b", false},
		{"word boundaries are dropped", `\bfoo\b`, "foo", false},
		{"end anchor allows CR", `foo$`, "foo\r?$", true},
		{"begin anchor", `^foo`, "^foo", true},
		{"non-capturing group", `(?:ab)+`, "(ab)+", true},
		{"lazy repeat", `a*?b`, "(a)*b", true},
		{"bounded repeat", `a{2,3}`, "(a){2,3}", true},
		{"open repeat", `a{2,}`, "(a){2,}", true},
		{"repeat beyond grep bounds", `a{2,300}`, "(a)+", false},
		{"alternation", `foo|bar`, "(foo|bar)", true},
		{"escaped specials", `a\.\(\$`, `a\.\(\$`, true},
		{"bracket specials", `[\]\^a\-]`, "[]a^-]", true},
		{"caret and dash only", `[\^\-]`, "[-^]", true},
		{"single member class", `[.]`, `\.`, true},
		{"ASCII fold", `(?i)ab`, "[Aa][Bb]", true},
		{"fold leaving ASCII", `(?i)k`, "([Kk]|K)", true},
		{"non-ASCII fold", `(?i)é`, "(É|é)", true},
		{"negated class", `[^a]`, "." + "[\x80-\xbf]*", false},
		{"NUL literal", `a\x00b`, "a.b", false},
		{"unicode class", `\pL`, "([A-Za-z]|[\x80-\xff][\x80-\xbf]*)", false},
		{"optional group", `(?:foo)?`, "(foo)?", true},
		{"no match selects everything", `[^\x00-\x{10FFFF}]`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toERE(tt.src)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.pattern)
			assert.Equal(t, tt.wantExact, got.exact)
		})
	}
}

func TestToERE_InvalidSource(t *testing.T) {
	_, err := toERE(`a(`)
	assert.Error(t, err)
}
