package utils

import (
	"errors"
	"fmt"
	"strings"

	"tors/backend"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// Suggest attaches a suggestion to errors from the backend taxonomy. Other
// errors are returned unchanged.
func Suggest(err error) error {
	if err == nil {
		return nil
	}
	var withSuggestion *ErrorWithSuggestion
	if errors.As(err, &withSuggestion) {
		return err
	}

	var nf *backend.NotFoundError
	var invalid *backend.InvalidInputError
	var transport *backend.TransportError
	var remote *backend.RemoteError
	var persist *backend.PersistenceError

	switch {
	case errors.As(err, &nf):
		if nf.Kind == "category" {
			return WrapWithSuggestion(err, "Use 'tors listcategories' to see all categories")
		}
		return WrapWithSuggestion(err, "Use 'tors listtasks' to see all tasks")
	case errors.As(err, &invalid):
		switch invalid.What {
		case "field":
			return WrapWithSuggestion(err, "Valid fields: name, description, eta")
		case "theme":
			return WrapWithSuggestion(err, "Valid themes: Desert, Oasis, Forest, Snow")
		case "id":
			return WrapWithSuggestion(err, "IDs are positive whole numbers")
		}
		return err
	case errors.As(err, &transport):
		return WrapWithSuggestion(err, getSmartSuggestion(transport.Err.Error()))
	case errors.As(err, &remote):
		if remote.StatusCode == 401 || remote.StatusCode == 403 {
			return WrapWithSuggestion(err, "Verify your API key with 'tors apikey get'")
		}
		return err
	case errors.As(err, &persist):
		return WrapWithSuggestion(err, "Check the permissions and contents of "+persist.Path)
	}
	return err
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the server is running and accessible"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "deadline exceeded") {
		return "The server may be slow or unreachable. Try again later"
	}

	return "Check your internet connection and try again"
}

// ErrAPIKeyMissing returns an error when remote mode has no API key.
func ErrAPIKeyMissing() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("no API key configured for remote mode"),
		Suggestion: "Set remote.api_key in the config, export TORS_API_KEY, or run 'tors apikey set'",
	}
}

// ErrBaseURLMissing returns an error when remote mode has no base URL.
func ErrBaseURLMissing() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("no base URL configured for remote mode"),
		Suggestion: "Set remote.base_url in the config or export TORS_BASE_URL",
	}
}

// ErrMissingArgument returns an error for an argument that was neither
// passed nor prompted for.
func ErrMissingArgument(name string) error {
	return &ErrorWithSuggestion{
		Err:        &backend.InvalidInputError{What: "arguments", Value: "missing " + name},
		Suggestion: "Pass the value as an argument or run without --no-prompt",
	}
}
