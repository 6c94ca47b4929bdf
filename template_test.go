package sbatcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlaceholders(t *testing.T) {
	text := "run {{ model }} --seed {{seed}} --out {{ model }}/{{  dir  }}"
	require.Equal(t, []string{"model", "seed", "dir"}, placeholders(text))
	require.Empty(t, placeholders("no tokens here"))
}

func TestSubstitute(t *testing.T) {
	vars := map[string]interface{}{"name": "world", "count": 3}
	out, missing := substitute("hello {{ name }} x{{ count }} {{ gone }}!", vars)
	require.Equal(t, "hello world x3 !", out)
	require.Equal(t, []string{"gone"}, missing)
}

func TestSubstituteSinglePass(t *testing.T) {
	// values that look like placeholders stay verbatim
	out, missing := substitute("{{ a }}", map[string]interface{}{"a": "{{ b }}", "b": "boom"})
	require.Equal(t, "{{ b }}", out)
	require.Empty(t, missing)
}

func TestSubstituteIgnoresMalformedTokens(t *testing.T) {
	out, missing := substitute("{{ 9lives }} {{ok}} {{ bad-name }}", map[string]interface{}{"ok": "y"})
	require.Equal(t, "{{ 9lives }} y {{ bad-name }}", out)
	require.Empty(t, missing)
}

func TestUnusedVars(t *testing.T) {
	vars := map[string]interface{}{"used": 1, "zzz": 2, "aaa": 3}
	require.Equal(t, []string{"aaa", "zzz"}, unusedVars("run {{ used }}", vars))
	require.Empty(t, unusedVars("{{ used }} {{ zzz }} {{ aaa }}", vars))
}
