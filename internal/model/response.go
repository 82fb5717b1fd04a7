package model

import "strings"

// Sentinel glyphs a model uses to flag a warning or error instead of returning code.
const (
	WarningGlyph = "⚠️"
	ErrorGlyph   = "❌"
)

// UnknownUserID is used when neither the request nor the identity carry a user ID.
const UnknownUserID = "unknown"

// IsFailedResponse reports whether model output must be treated as a failure:
// it is empty or starts with one of the sentinel glyphs.
func IsFailedResponse(text string) bool {
	if text == "" {
		return true
	}
	return strings.HasPrefix(text, WarningGlyph) || strings.HasPrefix(text, ErrorGlyph)
}
