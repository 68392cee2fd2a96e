package domain

import (
	"regexp"
	"strings"
)

var slugExpr = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the artifact-name slug from a directory name.
func Slugify(name string) string {
	slug := slugExpr.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
