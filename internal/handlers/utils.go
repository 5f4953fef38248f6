package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type contextKey string

const contextSessionKey contextKey = "session"

// Session is the decoded identity carried by a valid session token.
type Session struct {
	AdminID int
	Email   string
}

func sessionFromContext(ctx context.Context) (Session, error) {
	session, ok := ctx.Value(contextSessionKey).(Session)
	if !ok || session.AdminID < 1 {
		return Session{}, errors.New("missing session")
	}
	return session, nil
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldError describes a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries field-level detail for a rejected body.
type ValidationErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details"`
}

// validate checks request structs. Field names in error details use
// the JSON tag so clients can match them to their form fields.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeValidationError renders a 400 with one entry per violated field.
func writeValidationError(w http.ResponseWriter, err error) {
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	details := make([]FieldError, 0, len(violations))
	for _, violation := range violations {
		details = append(details, FieldError{
			Field:   violation.Field(),
			Message: violationMessage(violation),
		})
	}
	writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "Invalid data",
		Details: details,
	})
}

func violationMessage(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", violation.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(violation.Param()), ", "))
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "gte":
		return fmt.Sprintf("must be at least %s", violation.Param())
	default:
		return fmt.Sprintf("failed %s validation", violation.Tag())
	}
}

// Healthz is a trivial liveness probe.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
