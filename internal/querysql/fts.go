package querysql

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MatchExpression turns free text into an FTS5 query that requires every
// whitespace-separated term to appear as a token prefix.
//
//	"fire bol" -> "fire"* "bol"*
//
// Terms are quoted so FTS5 operators in user input are matched literally.
// Returns "" when search contains no terms.
func MatchExpression(search string) string {
	terms := strings.Fields(norm.NFC.String(search))
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}
