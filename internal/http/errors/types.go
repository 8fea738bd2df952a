package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind es la categoría del error; determina el status HTTP.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindRateLimit      Kind = "rate_limit"
	KindNotFound       Kind = "not_found"
	KindDependency     Kind = "dependency"
	KindInternal       Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindConflict:       http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindRateLimit:      http.StatusTooManyRequests,
	KindNotFound:       http.StatusNotFound,
	KindDependency:     http.StatusInternalServerError,
	KindInternal:       http.StatusInternalServerError,
}

// AppError define la estructura estándar para errores de la API.
type AppError struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
	// Data viaja en el campo data del envelope (p.ej. reasons de validación).
	Data any
	// Err es la causa; se loguea, nunca se expone al cliente.
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un AppError con el status que corresponde a kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, HTTPStatus: kindStatus[kind]}
}

// Wrap crea un AppError envolviendo un error existente.
func Wrap(err error, kind Kind, code, message string) *AppError {
	e := New(kind, code, message)
	e.Err = err
	return e
}

// FromError convierte cualquier error en AppError. Lo que no es AppError
// termina como 500 interno conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithMessage devuelve una COPIA con otro mensaje.
func (e *AppError) WithMessage(msg string) *AppError {
	n := *e
	n.Message = msg
	return &n
}

// WithData devuelve una COPIA con data adjunta.
func (e *AppError) WithData(data any) *AppError {
	n := *e
	n.Data = data
	return &n
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	n := *e
	n.Err = err
	return &n
}

// IsServer reporta si el error es 5xx (lleva errorId).
func (e *AppError) IsServer() bool { return e.HTTPStatus >= http.StatusInternalServerError }

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

// 400
var (
	ErrBadRequest      = New(KindValidation, "BAD_REQUEST", "Invalid request")
	ErrInvalidJSON     = New(KindValidation, "INVALID_JSON", "Request body must be valid JSON")
	ErrMissingFields   = New(KindValidation, "MISSING_FIELDS", "Missing required fields")
	ErrInvalidEmail    = New(KindValidation, "INVALID_EMAIL", "Invalid email address")
	ErrWeakPassword    = New(KindValidation, "WEAK_PASSWORD", "Password does not meet the requirements")
	ErrInvalidToken    = New(KindValidation, "INVALID_TOKEN", "Invalid or expired token")
	ErrAlreadyVerified = New(KindValidation, "ALREADY_VERIFIED", "Email is already verified")
	ErrEmailTaken      = New(KindConflict, "EMAIL_TAKEN", "An account with this email already exists")
)

// 401
var (
	ErrUnauthorized       = New(KindAuthentication, "UNAUTHORIZED", "Authentication required")
	ErrInvalidCredentials = New(KindAuthentication, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountInactive    = New(KindAuthentication, "ACCOUNT_INACTIVE", "Account is deactivated")
	ErrSessionInvalid     = New(KindAuthentication, "SESSION_INVALID", "Invalid or expired session")
	ErrWrongPassword      = New(KindAuthentication, "WRONG_PASSWORD", "Current password is incorrect")
)

// 403
var ErrForbidden = New(KindAuthorization, "FORBIDDEN", "Insufficient permissions")

// 404
var (
	ErrNotFound     = New(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrUserNotFound = New(KindNotFound, "USER_NOT_FOUND", "User not found")
)

// 405
var ErrMethodNotAllowed = &AppError{Kind: KindValidation, Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed", HTTPStatus: http.StatusMethodNotAllowed}

// 429
var ErrRateLimited = New(KindRateLimit, "RATE_LIMITED", "Too many requests, please try again later")

// 5xx
var (
	ErrInternal           = New(KindInternal, "INTERNAL", "Internal server error")
	ErrNotificationFailed = New(KindDependency, "NOTIFICATION_FAILED", "Could not send the email, please try again later")
	ErrStoreUnavailable   = New(KindDependency, "STORE_UNAVAILABLE", "Service temporarily unavailable")
)
