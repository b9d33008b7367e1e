package services

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
		return emailRegex.MatchString(fl.Field().String())
	})
	// bcrypt only reads the first 72 bytes, so longer passwords are refused
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// checkInput validates in and turns the result into a single client-facing
// ValidationError. A missing required field always wins over other failures,
// and missing fields share one message.
func checkInput(in any, missing string) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error()}
	}
	for _, fe := range ve {
		if fe.Tag() == "required" {
			return &ValidationError{Field: fe.Field(), Message: missing}
		}
	}

	fe := ve[0]
	return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email_format":
		return "Please provide a valid email address"
	case "min":
		return "Password must be at least " + fe.Param() + " characters long"
	case "maxbytes":
		return "Password must be at most " + fe.Param() + " bytes long"
	case "max":
		return "Name cannot be more than " + fe.Param() + " characters"
	case "oneof":
		return "Role must be either student or teacher"
	default:
		return "Validation failed on field '" + fe.Field() + "' for tag '" + fe.Tag() + "'"
	}
}
