// Package utils provides common utility functions.
package utils

import "strings"

// zeroWidth lists the invisible code points stripped from page text.
var zeroWidth = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// StripZeroWidth removes zero-width spaces, joiners and byte order marks.
func (s *StringHelper) StripZeroWidth(str string) string {
	return zeroWidth.Replace(str)
}

// NormalizeWhitespace replaces every run of whitespace with a single space and trims the ends.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString truncates string to max length in runes.
func (s *StringHelper) TruncateString(str string, maxLength int) string {
	runes := []rune(str)
	if len(runes) <= maxLength {
		return str
	}

	return string(runes[:maxLength]) + "..."
}
