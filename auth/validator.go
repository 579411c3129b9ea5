package auth

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FieldError is one failed rule, reported back to the client.
type FieldError struct {
	Field   string `json:"param"`
	Message string `json:"msg"`
}

var registerMessages = map[string]string{
	"Username": "Username is required",
	"Email":    "Please include a valid email",
	"Password": "Password must be at least 6 characters",
}

// ValidateRegister checks the registration rules and returns one entry per failing field.
func ValidateRegister(req RegisterRequest) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return []FieldError{{Message: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msg := registerMessages[fe.Field()]
		if fe.Field() == "Password" && fe.Tag() == "max" {
			msg = "Password must be at most 72 characters"
		}
		fieldErrors = append(fieldErrors, FieldError{Field: jsonName(fe.Field()), Message: msg})
	}
	return fieldErrors
}

func jsonName(field string) string {
	switch field {
	case "Username":
		return "username"
	case "Email":
		return "email"
	case "Password":
		return "password"
	default:
		return field
	}
}
