package sbatcher

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/samber/lo"
	"github.com/thoas/go-funk"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// placeholders returns the distinct placeholder names referenced in text,
// in first-appearance order.
func placeholders(text string) []string {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	return lo.Uniq(lo.Map(matches, func(m []string, _ int) string { return m[1] }))
}

// substitute expands every {{ name }} token in a single pass; substituted
// values are never rescanned. Names with no variable expand to the empty
// string and come back in missing, sorted.
func substitute(text string, vars map[string]interface{}) (string, []string) {
	missingSet := map[string]struct{}{}
	out := placeholderRe.ReplaceAllStringFunc(text, func(tok string) string {
		name := placeholderRe.FindStringSubmatch(tok)[1]
		value, ok := vars[name]
		if !ok {
			missingSet[name] = struct{}{}
			return ""
		}
		return fmt.Sprint(value)
	})
	missing := lo.Keys(missingSet)
	sort.Strings(missing)
	return out, missing
}

// unusedVars lists the provided variables the text never references, sorted.
func unusedVars(text string, vars map[string]interface{}) []string {
	unused := funk.SubtractString(lo.Keys(vars), placeholders(text))
	sort.Strings(unused)
	return unused
}
