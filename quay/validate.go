package quay

import (
	"regexp"
	"strings"
)

// namePattern is the allowed character set for organization and
// repository names. Both values are interpolated into request URLs, so
// anything outside this set is rejected before any cache or network
// access.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

// validateName checks one input field and returns a *ValidationError on
// the first rule it breaks. Repository names may contain namespace-style
// slashes, but never dot segments: "." and ".." are within the allowed
// character set yet would let a crafted name walk the API path.
func validateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "cannot be empty"}
	}

	if !namePattern.MatchString(value) {
		return &ValidationError{
			Field: field,
			Reason: "contains invalid characters. " +
				"Only alphanumeric characters, dots, underscores, slashes, and hyphens are allowed.",
		}
	}

	for _, segment := range strings.Split(value, "/") {
		if segment == "." || segment == ".." {
			return &ValidationError{Field: field, Reason: "contains a path traversal segment"}
		}
	}

	return nil
}
