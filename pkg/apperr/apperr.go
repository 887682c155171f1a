// Package apperr defines the error taxonomy shared by services, middleware
// and handlers. Every error that reaches the HTTP boundary is converted with
// From and rendered as {"msg": ...} with the status of its kind.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified application error. The predefined values below are
// templates: use WithCause / WithFields to get a copy carrying details.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	Fields     map[string]string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so copies made by WithCause still satisfy errors.Is
// against the template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an error template.
func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy with a different client-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithFields returns a copy carrying field-level validation messages.
func (e *Error) WithFields(fields map[string]string) *Error {
	cp := *e
	cp.Fields = fields
	return &cp
}

var (
	// ErrValidation: malformed or missing required input.
	ErrValidation = New(http.StatusBadRequest, "ValidationFailure", "Datos inválidos")

	// ErrDuplicateAccount: the email is already registered.
	ErrDuplicateAccount = New(http.StatusBadRequest, "DuplicateAccount", "El usuario ya existe")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = New(http.StatusBadRequest, "InvalidCredentials", "Credenciales inválidas")

	// ErrUnauthenticated: no token on an authenticated route.
	ErrUnauthenticated = New(http.StatusUnauthorized, "Unauthenticated", "Acceso denegado. No hay token.")

	// ErrInvalidToken: malformed, expired or badly signed token.
	ErrInvalidToken = New(http.StatusBadRequest, "InvalidToken", "Token no es válido")

	// ErrNotFound: order absent or owned by someone else.
	ErrNotFound = New(http.StatusNotFound, "NotFound", "No encontrada")

	// ErrRateLimited: too many attempts from one client.
	ErrRateLimited = New(http.StatusTooManyRequests, "RateLimited", "Demasiadas solicitudes, intente más tarde")

	// ErrStore is the catch-all for persistence and other unexpected failures.
	ErrStore = New(http.StatusInternalServerError, "StoreFailure", "Error en servidor")
)

// From converts any error into an *Error. Unclassified errors become ErrStore.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return ErrStore.WithCause(err)
}

// Validation builds a validation error for a single problem.
func Validation(format string, args ...any) *Error {
	return ErrValidation.WithCause(fmt.Errorf(format, args...))
}
