package domain

import "regexp"

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ValidID reports whether id is a lowercase hex UUID of version 1-5 with the
// RFC 4122 variant.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
