package utils

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/gradebook-service/internal/errors"
	"github.com/go-playground/validator/v10"
)

// Validator wraps a validator/v10 instance with the gradebook's custom
// rules registered, converting failures to the shared ValidationErrors type.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate checks struct tags and returns ValidationErrors on failure.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateActivityModule(fl validator.FieldLevel) bool {
	validModules := []string{"assignment", "quiz", "discussion"}

	value := fl.Field().String()
	for _, validModule := range validModules {
		if validModule == value {
			return true
		}
	}
	return false
}

func ValidateWeightPercentage(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	return value >= 0 && value <= 100
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("activity_module", ValidateActivityModule)
	validate.RegisterValidation("weight_percentage", ValidateWeightPercentage)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
