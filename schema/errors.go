package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential indicates no API credential is configured.
	ErrMissingCredential = errors.New("api key not found; set it in settings")
	// ErrInvalidCredential indicates the completion service rejected the credential.
	ErrInvalidCredential = errors.New("invalid api key; check the key in settings")
	// ErrRateLimited indicates the completion service throttled the request.
	ErrRateLimited = errors.New("rate limit exceeded; wait a moment and try again")
	// ErrAccessDenied indicates insufficient balance or a forbidden request.
	ErrAccessDenied = errors.New("insufficient api balance or access denied")
	// ErrServiceError indicates any other non-2xx completion response.
	ErrServiceError = errors.New("completion service error")
	// ErrTransport indicates the completion request got no response.
	ErrTransport = errors.New("completion transport failure")
	// ErrEmptyResponse indicates the completion carried no text.
	ErrEmptyResponse = errors.New("empty response from completion service")
	// ErrUnknownAction indicates an action id outside the prompt catalog.
	ErrUnknownAction = errors.New("unknown ai action")
	// ErrEmptyInput indicates an action was requested without input text.
	ErrEmptyInput = errors.New("empty input")
	// ErrProjectNotFound indicates a project id is not in the store.
	ErrProjectNotFound = errors.New("project not found")
	// ErrEmptyName indicates a blank project name.
	ErrEmptyName = errors.New("empty project name")
	// ErrUnknownToolbarAction indicates a toolbar id outside the toolbar set.
	ErrUnknownToolbarAction = errors.New("unknown toolbar action")
	// ErrUnknownEditOp indicates an unsupported edit operation.
	ErrUnknownEditOp = errors.New("unknown edit operation")
	// ErrSessionClosed indicates an operation on a session that is not open.
	ErrSessionClosed = errors.New("session is not open")
)

// ServiceError is a non-2xx completion response not covered by a dedicated error.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

// Unwrap lets errors.Is match ErrServiceError.
func (e *ServiceError) Unwrap() error {
	return ErrServiceError
}
