package llm

import (
	"regexp"
	"strings"
)

var (
	conditionalExpr = regexp.MustCompile(`(?s)\[if:([A-Za-z0-9_]+)\](.*?)(?:\[else\](.*?))?\[/if\]`)
	variableExpr    = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)
)

// BuildPrompt expands a prompt template against the variable set. Supported
// constructs: {name} substitution and [if:name]A[else]B[/if] conditional
// blocks (the else branch is optional). Unknown variables expand to nothing.
func BuildPrompt(template string, vars map[string]string) string {
	expanded := conditionalExpr.ReplaceAllStringFunc(template, func(block string) string {
		parts := conditionalExpr.FindStringSubmatch(block)
		if parts == nil {
			return block
		}
		if truthy(vars[parts[1]]) {
			return parts[2]
		}
		return parts[3]
	})

	expanded = variableExpr.ReplaceAllStringFunc(expanded, func(ref string) string {
		name := ref[1 : len(ref)-1]
		return vars[name]
	})

	return strings.TrimSpace(expanded)
}

func truthy(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value != "" && value != "0" && value != "false"
}
