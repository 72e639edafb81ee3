package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinUsernameLength applies to the username after trimming
const MinUsernameLength = 3

var dniRegex = regexp.MustCompile(`^[0-9]{8}$`)

// ValidateDNI reports whether v is an 8-digit national ID
func ValidateDNI(v string) bool {
	return dniRegex.MatchString(v)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeUsername trims surrounding whitespace; usernames keep their case
func SanitizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// ValidUsername reports whether a sanitized username is long enough
func ValidUsername(username string) bool {
	return utf8.RuneCountInString(username) >= MinUsernameLength
}
