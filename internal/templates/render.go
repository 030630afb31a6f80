package templates

import "regexp"

// Placeholder tokens look like {{name}} or {{ starts_at }}.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Render substitutes {{variable}} placeholders in bodyText with values from
// bindings. A placeholder whose key has no binding is left verbatim so a
// malformed template degrades visibly instead of aborting a batch send.
// Render is pure and safe for concurrent use.
func Render(bodyText string, bindings map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(bodyText, func(tok string) string {
		key := placeholderRe.FindStringSubmatch(tok)[1]
		if v, ok := bindings[key]; ok {
			return v
		}
		return tok
	})
}

// Variables returns the distinct placeholder keys used in bodyText, in order
// of first appearance.
func Variables(bodyText string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(bodyText, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}
