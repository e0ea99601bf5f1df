// internal/notify/template/render.go
package template

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes every {{key}} token with data[key]. Tokens with no
// matching key are left in place verbatim: a missing field degrades visibly in
// the message instead of breaking the send.
func Render(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := token[2 : len(token)-2]
		if val, ok := data[key]; ok {
			return val
		}
		return token
	})
}

// Placeholders returns the distinct placeholder keys referenced by a template
// string, in order of first appearance.
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
