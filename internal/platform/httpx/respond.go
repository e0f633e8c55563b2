// Package httpx provides JSON envelope helpers shared by all API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the uniform success payload shape.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data,omitempty"`
	Pagination *shared.Pagination `json:"pagination,omitempty"`
}

// ErrorBody carries machine-readable error information.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the uniform failure payload shape.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// JSON writes an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a success envelope around data.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// OKList writes a success envelope with pagination metadata.
func OKList(w http.ResponseWriter, data any, p shared.Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &p})
}

// Fail writes an error envelope.
func Fail(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorEnvelope{Success: false, Error: ErrorBody{Code: code, Message: message}})
}

// DecodeJSON decodes the request body into target and runs struct validation.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if err := validate.Struct(target); err != nil {
		return errors.Join(ErrValidation, err)
	}
	return nil
}

// Validate runs struct validation on a value populated outside DecodeJSON
// (query or path parameters).
func Validate(target any) error {
	if err := validate.Struct(target); err != nil {
		return errors.Join(ErrValidation, err)
	}
	return nil
}
