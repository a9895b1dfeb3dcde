package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationResult collects the problems found in input data.
// Errors make the data unusable; warnings are reported and loading continues.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge appends the problems of other
func (r *ValidationResult) Merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Err returns a *DataLoadError listing the errors, or nil when the result is valid
func (r *ValidationResult) Err(source string) error {
	if r.Valid() {
		return nil
	}
	return &DataLoadError{Source: source, Problems: r.Errors}
}

// DataLoadError reports input data that failed validation
type DataLoadError struct {
	Source   string
	Problems []string
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s validation failed:", e.Source)
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// describe turns struct validation failures into one message per field
func describe(prefix string, err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s: %s is empty", prefix, fe.Field()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s: %s=%v must be greater than %s", prefix, fe.Field(), fe.Value(), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s: %s=%v fails %s=%s", prefix, fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		}
	}
	return messages
}

// inRange checks a value against an inclusive [min, max] range using a dynamic rule
func inRange(v float64, bounds []float64) bool {
	return validate.Var(v, fmt.Sprintf("gte=%v,lte=%v", bounds[0], bounds[1])) == nil
}
