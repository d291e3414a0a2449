package biocard

import (
	"errors"
	"regexp"
	"strings"
)

var (
	usernamePattern        = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	pronounsDisallowedRune = regexp.MustCompile(`[^a-zA-Z\s/.,-]`)
)

var ErrInvalidUsername = errors.New("username must be 3-20 characters, a-z, 0-9, or _")

// NormalizeUsername validates the username and returns its stored (lower-cased) form.
func NormalizeUsername(username string) (string, error) {
	if !usernamePattern.MatchString(username) {
		return "", ErrInvalidUsername
	}
	return strings.ToLower(username), nil
}

// SanitizePronouns drops every character outside letters, whitespace and "/.,-"
// and truncates the result to MaxPronounsLen characters.
func SanitizePronouns(value string) string {
	safe := pronounsDisallowedRune.ReplaceAllString(value, "")
	if len(safe) > MaxPronounsLen {
		safe = safe[:MaxPronounsLen]
	}
	return safe
}
