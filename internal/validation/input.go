// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	tagNameRegex  = regexp.MustCompile(`^[\p{L}\p{N}_\-:.()']+$`)
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-32 characters and contain only letters, numbers and underscores")
	}
	return nil
}

// ValidatePassword checks password length. Strength rules are left to clients.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if n > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}
	return nil
}

// ValidateLength checks that the trimmed value has between min and max characters.
func ValidateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		if min == 1 {
			return fmt.Errorf("%s is required", field)
		}
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	if n > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}

// NormalizeTagName lower-cases a tag and joins words with underscores.
func NormalizeTagName(name string) (string, error) {
	name = strings.Join(strings.Fields(strings.ToLower(name)), "_")
	if err := ValidateLength("tag name", name, 1, 64); err != nil {
		return "", err
	}
	if !tagNameRegex.MatchString(name) {
		return "", fmt.Errorf("tag %q contains invalid characters", name)
	}
	return name, nil
}
