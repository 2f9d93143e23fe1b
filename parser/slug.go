package parser

import (
	"regexp"
	"strings"
)

var (
	nonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonLowerAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify builds a results category id: upper-cased, runs of other
// characters replaced by "_". Empty input yields "CAT".
func Slugify(s string) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "_"), "_")
	if slug == "" {
		return "CAT"
	}
	return slug
}

// LowerSlug builds an imported category id: lower-cased with "-" separators.
// Empty input yields "cat".
func LowerSlug(s string) string {
	slug := strings.Trim(nonLowerAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "cat"
	}
	return slug
}
