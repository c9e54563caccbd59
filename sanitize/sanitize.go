// Package sanitize neutralizes markup in user-supplied text.
package sanitize

import "strings"

var replacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces the five HTML-significant characters with entities. It does not trim.
func Escape(s string) string {
	if s == "" {
		return ""
	}
	return replacer.Replace(s)
}
