package quay

import "fmt"

// ValidationError reports an organization or repository name that failed
// input validation before any cache or network access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// APIError reports a non-2xx response from the Quay API. StatusCode is
// the original HTTP status, or 0 when none applies.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError reports a network-level failure: connection refused,
// timeout, DNS failure, or a response body that could not be decoded.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx status to an APIError with a message a
// pipeline author can act on. The message never includes the token.
func classifyStatus(code int, organization, repository string) *APIError {
	var message string

	switch code {
	case 401:
		message = "Authentication failed. Please check your Quay.io credentials."
	case 403:
		message = fmt.Sprintf("Access denied to repository %s/%s. Ensure you have permission and valid credentials.",
			organization, repository)
	case 404:
		message = fmt.Sprintf("Repository %s/%s not found. Please verify the organization and repository names.",
			organization, repository)
	case 429:
		message = "Rate limit exceeded. Please try again later."
	default:
		message = fmt.Sprintf("Quay.io API error (HTTP %d)", code)
	}

	return &APIError{StatusCode: code, Message: message}
}
