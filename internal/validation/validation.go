// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxLoginNameLength = 64
	// MaxCommentLength bounds the text of a single comment, in characters.
	MaxCommentLength = 5000
	maxNameLength    = 100
)

var loginNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateLoginName checks that a login name is a single printable token.
func ValidateLoginName(loginName string) error {
	if loginName == "" {
		return fmt.Errorf("login name is required")
	}
	if len(loginName) > maxLoginNameLength {
		return fmt.Errorf("login name must not exceed %d characters", maxLoginNameLength)
	}
	if !loginNameRegex.MatchString(loginName) {
		return fmt.Errorf("login name can only contain letters, numbers, dots, underscores, and hyphens")
	}
	return nil
}

// ValidateDisplayName checks a first or last name.
func ValidateDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name must not exceed %d characters", maxNameLength)
	}
	return nil
}

// ValidateCommentText checks a comment body is present and within the length limit.
func ValidateCommentText(text string) error {
	if text == "" {
		return fmt.Errorf("comment is empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLength)
	}
	return nil
}

// AllNonEmpty reports whether every value is non-empty after trimming.
func AllNonEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
