// Package util provides small string helpers for front-end command arguments.
package util

import "strings"

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// Unquote trims white space and surrounding quotes and unescapes inner
// quotes, turning `"Lead ""Vox"""` into `Lead "Vox"`.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return FixEscapeQuotes(s)
}
