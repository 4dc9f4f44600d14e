package apperr

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Messages maps "field.tag" to the message shown for that failed rule.
type Messages map[string]string

// FromValidator turns validator.ValidationErrors into a *ValidationError,
// keeping the first failed rule per field. Other errors pass through.
func FromValidator(err error, msgs Messages) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		msg, ok := msgs[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + fe.Field()
		}
		fields[fe.Field()] = msg
	}
	return Collect(fields)
}
