package errors

import (
	"math"
	"net/url"
	"strings"
	"unicode"
)

// Canvas dimension limits accepted from users.
const (
	MinDimension = 100
	MaxDimension = 10000
)

// ValidateURL validates a backend base URL.
// It must be absolute and use http or https.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}

	return nil
}

// ValidateDimensions validates a requested canvas size.
// Zero means "use the default" and is accepted.
func ValidateDimensions(width, height float64) error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", width}, {"height", height}} {
		if d.v == 0 {
			continue
		}
		if math.IsNaN(d.v) || d.v < MinDimension || d.v > MaxDimension {
			return New(ErrCodeInvalidInput, "%s must be between %d and %d", d.name, MinDimension, MaxDimension)
		}
	}
	return nil
}

// ValidatePath validates a local file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}
