package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var totalTimeRegex = regexp.MustCompile(`^(?:[01]\d|2[0-3]):(?:[0-5]\d):(?:[0-5]\d)$`)

// ValidateID reports whether id is a well-formed record id
func ValidateID(id string) bool {
	return uuid.Validate(id) == nil
}

// ValidateTotalTime checks the hh:mm:ss format of a statistics duration
func ValidateTotalTime(value string) bool {
	return totalTimeRegex.MatchString(value)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
