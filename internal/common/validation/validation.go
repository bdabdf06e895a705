// internal/common/validation/validation.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationResult collects field errors for one request.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) add(field, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
}

const maxStartupNameLength = 200

// ValidateCreateAssessment checks the fields of a new assessment request.
func ValidateCreateAssessment(startupName, contactEmail string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	name := strings.TrimSpace(startupName)
	if name == "" {
		result.add("startup_name", "required field missing", "REQUIRED_FIELD_MISSING")
	} else if utf8.RuneCountInString(name) > maxStartupNameLength {
		result.add("startup_name", fmt.Sprintf("value must be at most %d characters", maxStartupNameLength), "MAX_LENGTH_VIOLATION")
	}

	if contactEmail != "" && !ValidateEmail(contactEmail) {
		result.add("contact_email", "value is not a valid email address", "INVALID_EMAIL")
	}

	return result
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	emailPattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailPattern.MatchString(email)
}
