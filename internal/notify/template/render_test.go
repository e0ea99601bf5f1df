// internal/notify/template/render_test.go
package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_AllKeysPresent(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		data     map[string]string
		expected string
	}{
		{
			name:     "single placeholder",
			tmpl:     "Hello {{name}}",
			data:     map[string]string{"name": "Ava"},
			expected: "Hello Ava",
		},
		{
			name: "multiple placeholders",
			tmpl: "{{studentName}} requested a letter for {{purpose}}",
			data: map[string]string{
				"studentName": "Ava",
				"purpose":     "job",
			},
			expected: "Ava requested a letter for job",
		},
		{
			name:     "repeated placeholder",
			tmpl:     "{{name}} and {{name}} again",
			data:     map[string]string{"name": "Ava"},
			expected: "Ava and Ava again",
		},
		{
			name:     "no placeholders",
			tmpl:     "static message",
			data:     map[string]string{"name": "Ava"},
			expected: "static message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Render(tt.tmpl, tt.data)
			assert.Equal(t, tt.expected, result)
			assert.NotContains(t, result, "{{")
		})
	}
}

func TestRender_FailOpenOnMissingKey(t *testing.T) {
	result := Render("Hello {{name}}, deadline is {{deadline}}", map[string]string{
		"name": "Ava",
	})

	assert.Equal(t, "Hello Ava, deadline is {{deadline}}", result)
	// The missing token stays verbatim so the gap is visible in the message.
	assert.Contains(t, result, "{{deadline}}")
}

func TestRender_EmptyData(t *testing.T) {
	tmpl := "Hello {{name}}"
	assert.Equal(t, tmpl, Render(tmpl, nil))
	assert.Equal(t, tmpl, Render(tmpl, map[string]string{}))
}

func TestRender_EmptyValueIsSubstituted(t *testing.T) {
	result := Render("Reason: {{reason}}", map[string]string{"reason": ""})
	assert.Equal(t, "Reason: ", result)
}

func TestRender_CatalogTemplatesFullyResolvable(t *testing.T) {
	catalog, err := NewCatalog()
	assert.NoError(t, err)

	// With every referenced key supplied, no template leaves residue.
	for _, kind := range catalog.Kinds() {
		tmpl, err := catalog.Get(kind)
		assert.NoError(t, err)

		for _, body := range append(collectStrings(tmpl), tmpl.Subject, tmpl.Title) {
			data := map[string]string{}
			for _, key := range Placeholders(body) {
				data[key] = "value"
			}
			rendered := Render(body, data)
			assert.False(t, strings.Contains(rendered, "{{"),
				"kind %s left residue in %q", kind, rendered)
		}
	}
}

func collectStrings(tmpl Template) []string {
	var out []string
	for _, body := range tmpl.Bodies {
		out = append(out, body)
	}
	return out
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("{{a}} {{b}} {{a}}")
	assert.Equal(t, []string{"a", "b"}, keys)

	assert.Empty(t, Placeholders("no tokens here"))
}
