package llm

import (
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Error wraps a backend failure with the HTTP-equivalent status code so
// that classification does not have to know about provider SDK types.
// StatusCode is 0 when the provider gave no status (e.g. a transport
// failure before any response).
type Error struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s backend: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapError folds any SDK error into *Error, extracting the status code
// where the SDK exposes one.
func wrapError(provider string, err error) error {
	if err == nil {
		return nil
	}

	status := 0

	var gerr genai.APIError
	if errors.As(err, &gerr) {
		status = gerr.Code
	}

	var aerr *anthropicsdk.Error
	if errors.As(err, &aerr) {
		status = aerr.StatusCode
	}

	var oerr *openaisdk.Error
	if errors.As(err, &oerr) {
		status = oerr.StatusCode
	}

	return &Error{Provider: provider, StatusCode: status, Err: err}
}
