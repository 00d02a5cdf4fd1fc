package database

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a search term into a LIKE pattern matching it as a
// literal substring.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// ContainsAny narrows db to rows where any of columns contains term,
// ignoring case. Column names are trusted identifiers.
func ContainsAny(db *gorm.DB, term string, columns ...string) *gorm.DB {
	if len(columns) == 0 {
		return db
	}
	pattern := ContainsPattern(term)
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE LOWER(?) ESCAPE '\\'"
		args[i] = pattern
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}
