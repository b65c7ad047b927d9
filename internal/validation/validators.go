package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/plateful/plateful-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators
	// These should never fail in normal operation, but panic loudly if they do
	if err := Validate.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		panic(fmt.Sprintf("failed to register calendar_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("servings", validateServings); err != nil {
		panic(fmt.Sprintf("failed to register servings validator: %v", err))
	}
}

// validateCalendarDate validates that a string is a YYYY-MM-DD calendar date
func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

// validateServings validates that a servings count is within sane bounds
func validateServings(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 1 && n <= 100
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ParseCalendarDate parses a YYYY-MM-DD value into a calendar date.
// The result is a UTC midnight time; no timezone conversion is applied.
func ParseCalendarDate(value string) (time.Time, error) {
	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	return date, nil
}

// ValidateServings validates a servings count
func ValidateServings(n int) error {
	if n < 1 || n > 100 {
		return fmt.Errorf("invalid servings: %d (must be between 1 and 100)", n)
	}
	return nil
}
