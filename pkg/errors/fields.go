package errors

import (
	stdErrors "errors"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string
	Message string
}

func (f *FieldError) Error() string {
	return f.Field + ": " + f.Message
}

// Field builds a FieldError; combine several with multierr.Append.
func Field(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// FieldErrors returns every FieldError contained in a multierr-combined error.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if stdErrors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// FromFieldErrors folds combined field violations into one VALIDATION_ERROR whose
// details map each field to its message(s). Returns nil when err is nil.
func FromFieldErrors(err error) error {
	if err == nil {
		return nil
	}
	grouped := map[string][]string{}
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if stdErrors.As(e, &fe) {
			grouped[fe.Field] = append(grouped[fe.Field], fe.Message)
			continue
		}
		grouped["_"] = append(grouped["_"], e.Error())
	}

	details := make(map[string]string, len(grouped))
	fields := make([]string, 0, len(grouped))
	for field, msgs := range grouped {
		details[field] = strings.Join(msgs, "; ")
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return Wrap(CodeValidation, err, "invalid "+strings.Join(fields, ", ")).WithDetails(details)
}
