package lifecycle

import "errors"

// ValidationError marks a request rejected for missing or invalid fields.
// The boundary maps it to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
