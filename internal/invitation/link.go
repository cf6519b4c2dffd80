package invitation

import (
	"fmt"
	"regexp"
)

// linkVarPattern matches placeholders like {token} in link templates.
var linkVarPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]{1,64})\}`)

// ResolveLink replaces all {placeholder} occurrences in tmpl with values
// from the variables map. Returns an error if any placeholder has no
// matching variable.
func ResolveLink(tmpl string, variables map[string]string) (string, error) {
	var missingVar string
	result := linkVarPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		// Extract the variable name (strip the braces).
		varName := match[1 : len(match)-1]
		val, ok := variables[varName]
		if !ok {
			missingVar = varName
			return match
		}
		return val
	})
	if missingVar != "" {
		return "", fmt.Errorf("link template variable %q is not defined", missingVar)
	}
	return result, nil
}

// LinkVars returns the unique placeholder names found in a link template.
func LinkVars(tmpl string) []string {
	matches := linkVarPattern.FindAllStringSubmatch(tmpl, -1)
	seen := map[string]bool{}
	var vars []string
	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	return vars
}
