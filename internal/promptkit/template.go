// Package promptkit holds the small shared helpers for building prompts and
// reading model replies.
package promptkit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var ifBlockRe = regexp.MustCompile(`(?s)\{\{#if ([A-Za-z0-9_]+)\}\}(.*?)\{\{/if\}\}`)

// Render substitutes {{NAME}} placeholders in a prompt template.
// {{#if NAME}}...{{/if}} sections are kept when the variable is non-empty
// and removed otherwise. Sections do not nest.
func Render(template string, vars map[string]string) string {
	out := ifBlockRe.ReplaceAllStringFunc(template, func(block string) string {
		m := ifBlockRe.FindStringSubmatch(block)
		if strings.TrimSpace(vars[m[1]]) == "" {
			return ""
		}
		return m[2]
	})
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}

// JSONBlock marshals v as indented JSON for inclusion in a prompt.
func JSONBlock(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

// BulletList renders items as a markdown bullet list, or "(none)" for an
// empty list so prompts never contain dangling headings.
func BulletList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
