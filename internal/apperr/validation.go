package apperr

import "net/http"

const ValidationMessage = "Validation error"

const CodeValidation = "validation_error"

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationDetails is the details payload of every 400 validation failure.
// Form holds object-level messages that belong to no single field.
type ValidationDetails struct {
	Fields []FieldError `json:"fields,omitempty"`
	Form   []string     `json:"form,omitempty"`
	JSON   string       `json:"json,omitempty"`
}

func Validation(details ValidationDetails) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: ValidationMessage,
		Details: details,
		Expose:  true,
	}
}

func FieldInvalid(field, rule, message string) *Error {
	return Validation(ValidationDetails{
		Fields: []FieldError{{Field: field, Rule: rule, Message: message}},
	})
}

func FormInvalid(message string) *Error {
	return Validation(ValidationDetails{Form: []string{message}})
}
