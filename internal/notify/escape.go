package notify

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// escapeHTML replaces the five HTML-significant characters with entities.
// Every user-supplied value rendered into an email goes through it.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
