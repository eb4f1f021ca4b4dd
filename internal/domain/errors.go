package domain

import (
	"errors"
	"fmt"
)

// Category classifies a run failure.
type Category string

const (
	CategoryConfig      Category = "config"
	CategoryInvocation  Category = "invocation"
	CategoryPolicy      Category = "policy"
	CategoryAttribution Category = "attribution"
	CategoryCoverage    Category = "coverage"
)

type classifiedError struct {
	category Category
	code     string
	hint     string
	cause    error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error { return e.cause }

// Wrap attaches a category, a stable code and an optional hint to cause.
// A nil cause yields nil.
func Wrap(cause error, category Category, code, hint string) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{category: category, code: code, hint: hint, cause: cause}
}

// Errorf builds a classified error from a format string.
func Errorf(category Category, code, format string, args ...any) error {
	return Wrap(fmt.Errorf(format, args...), category, code, "")
}

// CategoryOf returns the category of err, or "" for unclassified errors.
func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

// CodeOf returns the code of err, or "".
func CodeOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}

// HintOf returns the remediation hint of err, or "".
func HintOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.hint
	}
	return ""
}
