package service

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText trims s and converts it to NFC so visually equal strings compare equal.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern; use with ESCAPE '\'.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(normalizeText(q))) + "%"
}
