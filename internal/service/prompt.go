package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"unicode"
	"unicode/utf8"
)

// Input limits for generation requests.
const (
	maxPromptLength = 500
	maxColorLength  = 50
)

// ComposePrompt builds the final provider prompt from user input.
// Pure string assembly; validation happens before this is called.
func ComposePrompt(prompt, color string) string {
	return fmt.Sprintf("A modern icon in %s of a %s", color, prompt)
}

// validateInput rejects generation input before any side effect occurs.
func (s *IconService) validateInput(prompt, color string, count int) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if color == "" {
		return ErrEmptyColor
	}
	if utf8.RuneCountInString(prompt) > maxPromptLength {
		return ErrPromptTooLong
	}
	if utf8.RuneCountInString(color) > maxColorLength {
		return ErrColorTooLong
	}
	if hasControlChars(prompt) || hasControlChars(color) {
		return ErrInvalidInput
	}
	if count < 0 {
		return ErrInvalidCount
	}
	if count > s.maxIcons {
		return ErrTooManyIcons
	}
	return nil
}

// hasControlChars reports whether s contains control characters.
// Keeps provider prompts and stored metadata free of escape sequences.
func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// randomOffset returns a uniformly random offset in [0, total).
func randomOffset(total int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(total))
	if err != nil {
		return 0, fmt.Errorf("random offset: %w", err)
	}
	return n.Int64(), nil
}
