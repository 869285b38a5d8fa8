package postgres

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes LIKE wildcards in s. Use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
