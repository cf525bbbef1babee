package parser

import (
	"regexp"
	"strings"
)

var (
	footnotePattern   = regexp.MustCompile(`\[\d+\]`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Z}]+`)
	yearPattern       = regexp.MustCompile(`\b(?:18|19|20)\d{2}\b`)
)

// NormalizeText strips footnote markers such as "[12]", collapses whitespace
// runs into a single space and trims the result. Empty output reports false.
func NormalizeText(s string) (string, bool) {
	// Removing one marker can expose another ("[[1]2]"), so repeat until stable.
	for footnotePattern.MatchString(s) {
		s = footnotePattern.ReplaceAllString(s, "")
	}
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ExtractFirstYear returns the first standalone year between 1800 and 2099.
func ExtractFirstYear(s string) (string, bool) {
	year := yearPattern.FindString(s)
	return year, year != ""
}
