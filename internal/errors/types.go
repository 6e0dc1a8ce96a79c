package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeAllocation ErrorType = "allocation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeSyntax                = "ERR_SYNTAX"
	ErrCodeUnknownElement        = "ERR_UNKNOWN_ELEMENT"
	ErrCodeUnknownAttribute      = "ERR_UNKNOWN_ATTRIBUTE"
	ErrCodeVoidChildren          = "ERR_VOID_CHILDREN"
	ErrCodeAmbiguousQuoting      = "ERR_AMBIGUOUS_QUOTING"
	ErrCodeUnknownComponent      = "ERR_UNKNOWN_COMPONENT"
	ErrCodeValidationFailed      = "ERR_VALIDATION_FAILED"
	ErrCodeDuplicateRegistration = "ERR_DUPLICATE_REGISTRATION"
	ErrCodeSchemaFrozen          = "ERR_SCHEMA_FROZEN"
	ErrCodeInvalidEntry          = "ERR_INVALID_ENTRY"
	ErrCodeRender                = "ERR_RENDER"
	ErrCodeAllocation            = "ERR_ALLOCATION"
	ErrCodeConfigInvalid         = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound          = "ERR_FILE_NOT_FOUND"
	ErrCodeUnprintable           = "ERR_UNPRINTABLE"
	ErrCodeInternalError         = "ERR_INTERNAL"
)

// TemplateError is a structured error with a source location.
type TemplateError struct {
	Type     ErrorType
	Code     string
	Message  string
	Template string
	Line     int
	Column   int
	Offset   int
	// Expected names the construct the parser was looking for.
	Expected string
	// Found is the offending input, quoted for display.
	Found   string
	Hint    string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if loc := e.Location(); loc != "" {
		parts = append(parts, loc)
	}

	msg := e.Message
	if msg == "" && e.Expected != "" {
		msg = "expected " + e.Expected
		if e.Found != "" {
			msg += ", found " + e.Found
		}
	}
	parts = append(parts, msg)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Location formats the template position as name:line:column.
func (e *TemplateError) Location() string {
	if e.Template == "" && e.Line == 0 {
		return ""
	}
	location := e.Template
	if e.Line > 0 {
		location += fmt.Sprintf(":%d", e.Line)
		if e.Column > 0 {
			location += fmt.Sprintf(":%d", e.Column)
		}
	}
	return location
}

// Unwrap returns the underlying cause error.
func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *TemplateError) Is(target error) bool {
	var t *TemplateError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *TemplateError) WithContext(key string, value interface{}) *TemplateError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds template location information.
func (e *TemplateError) WithLocation(template string, line, column int) *TemplateError {
	e.Template = template
	e.Line = line
	e.Column = column

	return e
}

// WithHint attaches a corrective hint.
func (e *TemplateError) WithHint(hint string) *TemplateError {
	e.Hint = hint

	return e
}

// Error creation functions

// NewSyntaxError creates a syntax error describing the expected construct.
func NewSyntaxError(template string, offset, line, column int, expected, found string) *TemplateError {
	return &TemplateError{
		Type:     ErrorTypeSyntax,
		Code:     ErrCodeSyntax,
		Template: template,
		Offset:   offset,
		Line:     line,
		Column:   column,
		Expected: expected,
		Found:    found,
	}
}

// NewSchemaError creates a schema registration error.
func NewSchemaError(code, message string) *TemplateError {
	return &TemplateError{
		Type:    ErrorTypeSchema,
		Code:    code,
		Message: message,
	}
}

// NewRenderError creates an error raised while executing a plan.
func NewRenderError(template, message string, cause error) *TemplateError {
	return &TemplateError{
		Type:     ErrorTypeRender,
		Code:     ErrCodeRender,
		Template: template,
		Message:  message,
		Cause:    cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *TemplateError {
	return &TemplateError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TemplateError {
	return &TemplateError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *TemplateError {
	return &TemplateError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrDuplicateRegistration reports a schema entry registered twice.
func ErrDuplicateRegistration(element string) *TemplateError {
	return NewSchemaError(
		ErrCodeDuplicateRegistration,
		fmt.Sprintf("element %q is already registered", element),
	).WithContext("element", element).
		WithHint("register each element once; extend an existing element with RegisterGlobalAttributes")
}

// ErrSchemaFrozen reports a registration attempted after validation began.
func ErrSchemaFrozen(what string) *TemplateError {
	return NewSchemaError(
		ErrCodeSchemaFrozen,
		fmt.Sprintf("cannot register %s: schema is frozen after the first validation", what),
	).WithHint("register schema extensions at startup, before compiling any template")
}

// Classification helpers

// IsSyntaxError checks if an error is a template syntax error.
func IsSyntaxError(err error) bool {
	return HasErrorType(err, ErrorTypeSyntax)
}

// IsValidationError checks if an error carries schema violations.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRenderError checks if an error was raised during rendering.
func IsRenderError(err error) bool {
	return HasErrorType(err, ErrorTypeRender)
}

// HasErrorCode checks whether err or any error it wraps has the given code.
func HasErrorCode(err error, code string) bool {
	var te *TemplateError
	for err != nil {
		if errors.As(err, &te) {
			if te.Code == code {
				return true
			}
			err = te.Cause
			continue
		}
		break
	}

	return false
}

// HasErrorType checks whether err is a TemplateError of the given type.
func HasErrorType(err error, errType ErrorType) bool {
	var te *TemplateError
	if errors.As(err, &te) {
		return te.Type == errType
	}

	return false
}

// ErrorHandler provides centralized error reporting.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error with appropriate logging.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		for _, v := range ve.Violations {
			h.logger.Warn(ctx, err, "Template validation failed",
				"template", ve.Template,
				"code", v.Kind.Code(),
				"line", v.Line,
				"column", v.Column,
				"element", v.Element,
				"attribute", v.Attribute)
		}
		return
	}

	var te *TemplateError
	if errors.As(err, &te) {
		switch te.Type {
		case ErrorTypeSyntax:
			h.logger.Warn(ctx, err, "Template syntax error",
				"template", te.Template,
				"line", te.Line,
				"column", te.Column,
				"expected", te.Expected)
		case ErrorTypeSchema, ErrorTypeConfig:
			h.logger.Warn(ctx, err, "Configuration error",
				"type", te.Type,
				"code", te.Code)
		default:
			h.logger.Error(ctx, err, "Error occurred",
				"type", te.Type,
				"code", te.Code,
				"template", te.Template)
		}
		return
	}

	h.logger.Error(ctx, err, "Unhandled error occurred")
}
