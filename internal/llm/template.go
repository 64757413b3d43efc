package llm

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {identifier} placeholders. Literal braces in
// template bodies (for example a JSON example like {"tasks": []}) do not
// match and are left intact.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// RenderTemplate substitutes every {name} placeholder in template with
// its value from vars. Every placeholder the template references must be
// bound; the first unbound one yields a MissingVariableError.
func RenderTemplate(template string, vars map[string]string) (string, error) {
	var missing string

	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := strings.Trim(m, "{}")
		value, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return value
	})

	if missing != "" {
		return "", &MissingVariableError{Name: missing}
	}

	return rendered, nil
}
