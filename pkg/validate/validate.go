// Package validate holds the identifier predicates shared by every engine.
package validate

import "regexp"

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9_-]+$`)
	envKeyPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)
)

// Slug reports whether value is a valid slug: lowercase letters, digits,
// hyphens and underscores, non-empty.
func Slug(value string) bool {
	return value != "" && slugPattern.MatchString(value)
}

// EnvKey reports whether value is a valid environment-style secret key:
// uppercase letters, digits and underscores, non-empty.
func EnvKey(value string) bool {
	return value != "" && envKeyPattern.MatchString(value)
}
