package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrValidation is matched by every validation failure raised by this package.
var ErrValidation = errors.New("validation failed")

// ErrNotFound reports a record that does not exist in the requested project.
var ErrNotFound = errors.New("record not found")

// ValidationError is a single rule violation, optionally tied to a field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match without unwrapping chains.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects every violation found during one Validate call.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Is(target error) bool { return target == ErrValidation }

// Fields groups messages by field name. Errors without a field use "non_field_errors".
func (v ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		key := e.Field
		if key == "" {
			key = "non_field_errors"
		}
		out[key] = append(out[key], e.Message)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

func (v *ValidationErrors) add(field, msg string) {
	*v = append(*v, &ValidationError{Field: field, Message: msg})
}

// err returns nil when nothing was collected so callers can return it directly.
func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// FieldErrors flattens any validation error into a field -> messages map.
// Returns nil when err is not a validation error.
func FieldErrors(err error) map[string][]string {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields()
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}.Fields()
	}
	return nil
}
