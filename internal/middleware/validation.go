package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateText validates free-text assistant input.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateSubject validates a ticket subject.
func ValidateSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return errors.New("subject cannot be empty")
	}
	if len(subject) > 256 {
		return errors.New("subject exceeds maximum length")
	}
	if !utf8.ValidString(subject) {
		return errors.New("subject must be valid UTF-8")
	}
	return nil
}
