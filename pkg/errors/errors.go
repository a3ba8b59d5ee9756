// Package errors defines the categorized error type used across the
// reconciliation engine. Every failure that can reach an operator is wrapped
// into a ReviewError carrying a category, a stable code, context values, and
// a suggestion for fixing it.
//
// The taxonomy mirrors how the engine treats failures: extraction errors
// block review, resolution gaps block commit, reconciliation discrepancies
// warn, and commit failures preserve session state for retry.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryExtraction     ErrorCategory = "extraction"
	CategoryParse          ErrorCategory = "parse"
	CategoryResolution     ErrorCategory = "resolution"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryCommit         ErrorCategory = "commit"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Extraction errors (upstream OCR failures carried into review)
	CodeExtractionFailed ErrorCode = "extraction_failed"

	// Parse errors (loading extraction or account snapshots)
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeFileNotFound  ErrorCode = "file_not_found"

	// Resolution errors (entity matching gaps)
	CodeUnmatchedPayment  ErrorCode = "unmatched_payment"
	CodeNoActiveLoan      ErrorCode = "no_active_loan"
	CodeUnresolvedAccount ErrorCode = "unresolved_account"

	// Reconciliation errors
	CodeGateBlocked      ErrorCode = "gate_blocked"
	CodeDataInconsistent ErrorCode = "data_inconsistent"

	// Commit errors (outbound persistence boundary)
	CodeCommitFailed   ErrorCode = "commit_failed"
	CodeCommitInFlight ErrorCode = "commit_in_flight"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReviewError is the base error type for all engine errors
type ReviewError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReviewError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (sugerencia: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReviewError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate process exit code for the error
func (e *ReviewError) GetExitCode() int {
	switch e.Category {
	case CategoryParse:
		return 2
	case CategoryExtraction, CategoryResolution:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	case CategoryCommit:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReviewError) WithContext(key string, value interface{}) *ReviewError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReviewError) WithSuggestion(suggestion string) *ReviewError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReviewError
func New(category ErrorCategory, code ErrorCode, message string) *ReviewError {
	return &ReviewError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReviewError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReviewError {
	if err == nil {
		return nil
	}

	return &ReviewError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ParseError creates an error for a malformed extraction or snapshot file
func ParseError(code ErrorCode, path string, err error) *ReviewError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("archivo no encontrado: %s", path)
		suggestion = "verifique la ruta del archivo"
	default:
		message = fmt.Sprintf("no se pudo leer %s", path)
		suggestion = "verifique que el archivo sea el JSON producido por la extracción"
	}

	result := New(CategoryParse, code, message)
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("path", path)
}

// ResolutionError creates an error for an entity-resolution gap
func ResolutionError(code ErrorCode, detail string) *ReviewError {
	var message, suggestion string

	switch code {
	case CodeUnmatchedPayment:
		message = fmt.Sprintf("pago sin match: %s", detail)
		suggestion = "asigne el cliente manualmente o elimine la línea"
	case CodeNoActiveLoan:
		message = fmt.Sprintf("el cliente no tiene créditos activos: %s", detail)
		suggestion = "un pago debe resolverse a un crédito activo"
	case CodeUnresolvedAccount:
		message = fmt.Sprintf("cuenta sin resolver: %s", detail)
		suggestion = "seleccione la cuenta destino antes de confirmar"
	default:
		message = fmt.Sprintf("resolución incompleta: %s", detail)
		suggestion = "revise las líneas pendientes"
	}

	return New(CategoryResolution, code, message).
		WithSuggestion(suggestion).
		WithContext("detail", detail)
}

// CommitError creates an error for a failed or refused commit. The overlay
// is preserved on every commit failure, so the suggestion is always retry.
func CommitError(code ErrorCode, err error) *ReviewError {
	var message, suggestion string

	switch code {
	case CodeCommitInFlight:
		message = "ya hay una confirmación en curso"
		suggestion = "espere a que termine antes de reintentar"
	case CodeGateBlocked:
		message = "el lote tiene problemas bloqueantes sin resolver"
		suggestion = "resuelva los problemas listados y vuelva a confirmar"
	default:
		message = "la confirmación falló"
		suggestion = "sus ediciones se conservaron; puede reintentar"
	}

	result := New(CategoryCommit, code, message)
	if err != nil {
		result = Wrap(err, CategoryCommit, code, message)
	}
	return result.WithSuggestion(suggestion)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(setting string, value interface{}, err error) *ReviewError {
	message := fmt.Sprintf("configuración inválida para '%s': %v", setting, value)

	result := New(CategoryConfiguration, CodeInvalidConfig, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	}
	return result.
		WithSuggestion("revise la documentación de configuración").
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ReviewError {
	message := fmt.Sprintf("error interno durante %s", operation)

	result := New(CategoryInternal, CodeUnexpectedError, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	}
	return result.
		WithSuggestion("probablemente un bug; repórtelo con los detalles").
		WithContext("operation", operation)
}

// IsReviewError checks if an error is a ReviewError
func IsReviewError(err error) bool {
	_, ok := err.(*ReviewError)
	return ok
}

// AsReviewError extracts a ReviewError from an error chain
func AsReviewError(err error) (*ReviewError, bool) {
	var reviewErr *ReviewError
	if errors.As(err, &reviewErr) {
		return reviewErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a ReviewError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReviewError {
	if err == nil {
		return nil
	}

	if reviewErr, ok := AsReviewError(err); ok {
		return reviewErr
	}

	return Wrap(err, category, code, message)
}

// FormatContext renders the context map for logs, in stable-ish key order
func (e *ReviewError) FormatContext() string {
	if len(e.Context) == 0 {
		return ""
	}

	parts := make([]string, 0, len(e.Context))
	for key, value := range e.Context {
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return strings.Join(parts, " ")
}
