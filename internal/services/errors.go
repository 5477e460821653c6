package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/gradebook-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Gradebook specific errors
	ErrGradebookNotFound = errors.New("gradebook not found")

	// Category specific errors
	ErrCategoryNotFound       = errors.New("gradebook category not found")
	ErrCategoryNotEmpty       = errors.New("category still contains subcategories or items")
	ErrCategoryParentMissing  = errors.New("parent category does not exist")
	ErrCategoryWrongGradebook = errors.New("parent category belongs to a different gradebook")

	// Item specific errors
	ErrItemNotFound       = errors.New("gradebook item not found")
	ErrItemScopeImmutable = errors.New("item scope cannot change via update")

	// Structural errors
	ErrStructureCycle     = errors.New("category parent chain contains a cycle")
	ErrDuplicateSortOrder = errors.New("sort order already used within scope")

	// Score/enrollment errors
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// StructuralError reports a mutation that would break a gradebook
// invariant: a cycle, a dangling scope reference, or a sort-order clash.
// The mutation is rejected entirely; nothing is partially applied.
type StructuralError struct {
	Invariant string                 `json:"invariant"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

func (se *StructuralError) Error() string {
	return fmt.Sprintf("structural invariant violation (%s): %s", se.Invariant, se.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewStructuralError(invariant, message string, context map[string]interface{}) *StructuralError {
	return &StructuralError{
		Invariant: invariant,
		Message:   message,
		Context:   context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrGradebookNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsStructural checks if error represents a structural invariant violation
func IsStructural(err error) bool {
	if errors.Is(err, ErrStructureCycle) || errors.Is(err, ErrDuplicateSortOrder) {
		return true
	}
	var se *StructuralError
	return errors.As(err, &se)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCategoryNotEmpty) ||
		errors.Is(err, ErrDuplicateSortOrder)
}
