package notify

import "fmt"

// MissingRequiredFieldError is returned by payload builders when a required
// argument is absent. It fails fast, before anything reaches a queue, so a
// malformed event can never hit a transport.
type MissingRequiredFieldError struct {
	Builder string
	Field   string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Builder, e.Field)
}

// NotificationFailureError identifies the first delivery outcome whose
// response status fell in the 400-500 range, both bounds inclusive.
type NotificationFailureError struct {
	Backend    string
	Identifier string
	StatusCode int
}

func (e *NotificationFailureError) Error() string {
	return fmt.Sprintf("failed to post to %s: %s, status: %d", e.Backend, e.Identifier, e.StatusCode)
}

// IsFailureStatus reports whether a delivery status code counts as a
// notification failure.
func IsFailureStatus(code int) bool {
	return code >= 400 && code <= 500
}
