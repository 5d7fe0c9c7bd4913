package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Configuration errors
	ErrInvalidK               = errors.New("k should be a positive integer with a value of 2 or higher")
	ErrNoQuasiIdentifiers     = errors.New("the list of quasi-identifiers cannot be empty")
	ErrUnknownQuasiIdentifier = errors.New("quasi-identifiers must be a subset of the declared features")
	ErrUnknownCategorical     = errors.New("categorical features must be a subset of the declared features")
	ErrUnknownGroupMember     = errors.New("grouped feature members must be declared quasi-identifiers")
	ErrMissingCategorical     = errors.New("categorical_features must be defined when data contains non-numeric columns")
	ErrNonNumericTarget       = errors.New("regression mode requires a numeric target vector")
	ErrNoData                 = errors.New("no data provided")

	// Shape errors
	ErrRowCountMismatch = errors.New("features and target must have the same number of rows")
	ErrRaggedRow        = errors.New("all rows must have the same number of columns")

	// Training errors
	ErrModelNotFitted = errors.New("partition model has not been fitted")
	ErrTrainingFailed = errors.New("partition model training failed")
	ErrEmptyLeafSet   = errors.New("trained partition model produced no leaves")

	// Privacy errors
	ErrKAnonymityViolated = errors.New("output violates the k-anonymity invariant")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeShape         ErrorType = "shape"
	ErrorTypeTraining      ErrorType = "training"
	ErrorTypePrivacy       ErrorType = "privacy"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:      errType,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewConfigurationError creates a configuration error. Configuration errors
// are detected before any training happens and are never retryable.
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewShapeMismatchError creates a shape mismatch error
func NewShapeMismatchError(message string) *AppError {
	return NewAppError(ErrorTypeShape, CodeShapeMismatch, message)
}

// NewTrainingError creates a training error
func NewTrainingError(code, message string) *AppError {
	return NewAppError(ErrorTypeTraining, code, message)
}

// NewPrivacyError creates a privacy error
func NewPrivacyError(code, message string) *AppError {
	return NewAppError(ErrorTypePrivacy, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConfiguration
	}
	return false
}

// IsShapeMismatchError reports whether err is a shape mismatch error
func IsShapeMismatchError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeShape
	}
	return false
}

// Error codes for different error scenarios
const (
	// Configuration error codes
	CodeInvalidK           = "INVALID_K"
	CodeNoQuasiIdentifiers = "NO_QUASI_IDENTIFIERS"
	CodeUnknownFeature     = "UNKNOWN_FEATURE"
	CodeMissingCategorical = "MISSING_CATEGORICAL_FEATURES"
	CodeInvalidTarget      = "INVALID_TARGET"
	CodeNoData             = "NO_DATA"

	// Shape error codes
	CodeShapeMismatch = "SHAPE_MISMATCH"
	CodeRaggedRow     = "RAGGED_ROW"

	// Training error codes
	CodeModelNotFitted = "MODEL_NOT_FITTED"
	CodeTrainingFailed = "TRAINING_FAILED"
	CodeEmptyLeafSet   = "EMPTY_LEAF_SET"

	// Privacy error codes
	CodeKAnonymityViolated = "K_ANONYMITY_VIOLATED"

	// Internal error codes
	CodeInternalError = "INTERNAL_ERROR"
)
