// Package errors provides the classified error primitives used across
// docforge for fatal failures (I/O, parse, git, execution). Recoverable
// per-node findings are document.ErrorRecord values, not errors; anything
// returned as an error from a stage is treated as fatal by the pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category is the broad classification of a failure.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryFileSystem Category = "filesystem"
	CategoryParse      Category = "parse"
	CategoryBuild      Category = "build"
	CategoryGit        Category = "git"
	CategoryExecution  Category = "execution"
)

// Severity is the impact level of a classified error.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// ClassifiedError is a structured error carrying category, severity and
// free-form context for log output.
type ClassifiedError struct {
	category Category
	severity Severity
	message  string
	cause    error
	context  map[string]any
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap supports errors.Is/errors.As chains.
func (e *ClassifiedError) Unwrap() error { return e.cause }

// Category returns the error category.
func (e *ClassifiedError) Category() Category { return e.category }

// Severity returns the error severity.
func (e *ClassifiedError) Severity() Severity { return e.severity }

// Message returns the message without category/severity decoration.
func (e *ClassifiedError) Message() string { return e.message }

// Context returns the attached context map (may be nil).
func (e *ClassifiedError) Context() map[string]any { return e.context }

// IsFatal reports whether the error should abort the pipeline.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// Builder constructs ClassifiedError values fluently:
//
//	err := errors.Wrap(ioErr, errors.CategoryFileSystem, "read source file").
//		WithContext("path", path).
//		Fatal().
//		Build()
type Builder struct {
	err ClassifiedError
}

// New starts a builder with the given category and message.
func New(category Category, message string) *Builder {
	return &Builder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// Wrap starts a builder wrapping an underlying cause.
func Wrap(cause error, category Category, message string) *Builder {
	b := New(category, message)
	b.err.cause = cause
	return b
}

// WithContext attaches a context key/value pair.
func (b *Builder) WithContext(key string, value any) *Builder {
	if b.err.context == nil {
		b.err.context = make(map[string]any)
	}
	b.err.context[key] = value
	return b
}

// WithSeverity overrides the default error severity.
func (b *Builder) WithSeverity(s Severity) *Builder {
	b.err.severity = s
	return b
}

// Fatal marks the error as pipeline-aborting.
func (b *Builder) Fatal() *Builder { return b.WithSeverity(SeverityFatal) }

// Warning downgrades the error to a warning.
func (b *Builder) Warning() *Builder { return b.WithSeverity(SeverityWarning) }

// Build returns the finished error.
func (b *Builder) Build() *ClassifiedError {
	e := b.err
	return &e
}

// AsClassified extracts a ClassifiedError from an error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCategory reports whether err (anywhere in its chain) carries the category.
func IsCategory(err error, category Category) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == category
}
