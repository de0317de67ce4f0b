// Package validation provides input validation helpers for the scamcheck API.
package validation

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20

// MaxAnswers caps how many answers a single stateless assessment may carry.
const MaxAnswers = 64

// slugRegex matches category identifiers and option values: lowercase words joined by '-' or '_'.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+([-_][a-z0-9]+)*$`)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidSlug reports whether s is a well-formed category or option identifier.
func IsValidSlug(s string) bool {
	return len(s) <= 64 && slugRegex.MatchString(s)
}

// SanitizeString trims whitespace, strips null bytes and limits length.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) > maxLen {
		// Cut on a rune boundary.
		for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
			maxLen--
		}
		s = s[:maxLen]
	}
	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate runs validators and collects their errors.
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errs ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidSlug checks that a non-empty field is a well-formed identifier.
func ValidSlug(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidSlug(value) {
			return &ValidationError{Field: field, Message: "must be a lowercase identifier (a-z, 0-9, '-', '_')"}
		}
		return nil
	}
}

// CategoryParamMiddleware rejects malformed :category URL parameters early.
func CategoryParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Param("category")
		if category != "" && !IsValidSlug(category) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_category",
				"message": "category must be a lowercase identifier",
			})
			return
		}
		c.Next()
	}
}
