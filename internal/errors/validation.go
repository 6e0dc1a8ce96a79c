package errors

import (
	"fmt"
	"strings"
)

// ViolationKind names one schema rule a template broke.
type ViolationKind int

const (
	UnknownElement ViolationKind = iota
	VoidElementHasChildren
	UnknownAttribute
	AmbiguousQuoting
	UnknownComponent
)

// String returns the string representation of the kind.
func (k ViolationKind) String() string {
	switch k {
	case UnknownElement:
		return "UnknownElement"
	case VoidElementHasChildren:
		return "VoidElementHasChildren"
	case UnknownAttribute:
		return "UnknownAttribute"
	case AmbiguousQuoting:
		return "AmbiguousQuoting"
	case UnknownComponent:
		return "UnknownComponent"
	default:
		return "Unknown"
	}
}

// Code returns the error code reported for the kind.
func (k ViolationKind) Code() string {
	switch k {
	case UnknownElement:
		return ErrCodeUnknownElement
	case VoidElementHasChildren:
		return ErrCodeVoidChildren
	case UnknownAttribute:
		return ErrCodeUnknownAttribute
	case AmbiguousQuoting:
		return ErrCodeAmbiguousQuoting
	case UnknownComponent:
		return ErrCodeUnknownComponent
	default:
		return ErrCodeValidationFailed
	}
}

// Violation is a single validation finding.
type Violation struct {
	Kind      ViolationKind
	Line      int
	Column    int
	Offset    int
	Element   string
	Attribute string
	Message   string
	Hint      string
	// Suggestions holds close matches for a misspelled name.
	Suggestions []string
}

// Error implements the error interface.
func (v Violation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%d: %s: %s", v.Line, v.Column, v.Kind, v.Message)
	if len(v.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", quoteList(v.Suggestions))
	}
	return b.String()
}

// ValidationError enumerates every violation found in one template.
type ValidationError struct {
	Template   string
	Violations []Violation
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	switch len(ve.Violations) {
	case 0:
		return "no validation errors"
	case 1:
		return fmt.Sprintf("%s:%s", ve.Template, ve.Violations[0].Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: validation failed with %d errors", ve.Template, len(ve.Violations))
	for _, v := range ve.Violations {
		b.WriteString("\n  ")
		b.WriteString(ve.Template)
		b.WriteByte(':')
		b.WriteString(v.Error())
	}
	return b.String()
}

// Add appends a violation.
func (ve *ValidationError) Add(v Violation) {
	ve.Violations = append(ve.Violations, v)
}

// HasErrors returns true if there are any violations.
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Violations) > 0
}

// Has reports whether any violation is of the given kind.
func (ve *ValidationError) Has(kind ViolationKind) bool {
	for _, v := range ve.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the violation kinds in report order.
func (ve *ValidationError) Kinds() []ViolationKind {
	kinds := make([]ViolationKind, len(ve.Violations))
	for i, v := range ve.Violations {
		kinds[i] = v.Kind
	}
	return kinds
}

// Err returns ve when it holds violations and nil otherwise.
func (ve *ValidationError) Err() error {
	if !ve.HasErrors() {
		return nil
	}
	return ve
}

// ToTemplateErrors flattens the violations into located TemplateErrors.
func (ve *ValidationError) ToTemplateErrors() []*TemplateError {
	out := make([]*TemplateError, 0, len(ve.Violations))
	for _, v := range ve.Violations {
		te := &TemplateError{
			Type:     ErrorTypeValidation,
			Code:     v.Kind.Code(),
			Message:  v.Message,
			Template: ve.Template,
			Line:     v.Line,
			Column:   v.Column,
			Offset:   v.Offset,
			Hint:     v.Hint,
		}
		if len(v.Suggestions) > 0 {
			te.WithContext("suggestions", v.Suggestions)
		}
		out = append(out, te)
	}
	return out
}

// AllocationFailure is the panic value raised when the output buffer cannot
// grow. A render that hits it is abandoned; it is never returned as an error.
type AllocationFailure struct {
	Requested int
	Limit     int
	Cause     error
}

// Error implements the error interface.
func (a *AllocationFailure) Error() string {
	if a.Cause != nil {
		return fmt.Sprintf("[%s] output buffer allocation failed for %d bytes: %v", ErrCodeAllocation, a.Requested, a.Cause)
	}
	return fmt.Sprintf("[%s] output buffer limit %d exceeded by write of %d bytes", ErrCodeAllocation, a.Limit, a.Requested)
}

// Unwrap returns the underlying cause.
func (a *AllocationFailure) Unwrap() error {
	return a.Cause
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
