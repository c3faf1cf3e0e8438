package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateDocumentID validates a stored document identifier.
// Identifiers become file names, object keys and primary keys, so the
// rules reject anything that could escape a directory or key prefix:
//   - No empty identifiers
//   - Maximum length of 128 characters
//   - No control characters or null bytes
//   - No path separators or traversal sequences
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}

	const maxIDLength = 128
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "document id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "document id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "document id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateCarrierFrequency checks that f is a usable population carrier
// frequency: finite and within [0, 1].
func ValidateCarrierFrequency(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return New(ErrCodeInvalidInput, "carrier frequency must be a finite number")
	}
	if f < 0 || f > 1 {
		return New(ErrCodeInvalidInput, "carrier frequency %g outside [0, 1]", f)
	}
	return nil
}
