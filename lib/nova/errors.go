package nova

import (
	"errors"
	"fmt"
)

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrPermission     = errors.New("write mode is required")
	ErrValidation     = errors.New("invalid record")
	ErrRemote         = errors.New("remote panel error")
	ErrDataShape      = errors.New("unexpected response shape")
)

// AuthenticationError is returned when the login handshake does not
// produce an authenticated session.
type AuthenticationError struct {
	Status int
	Reason string
	// Err is the transport failure, if any.
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Reason, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("login failed (status %d): %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("login failed: %s", e.Reason)
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// PermissionError is returned by every state-changing operation when the
// client was created without write mode. It is always returned before any
// request is sent.
type PermissionError struct {
	Op string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: edit mode is required", e.Op)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermission
}

type ValidationError struct {
	Resource string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Resource == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Resource, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RemoteError carries a non-2xx response of the panel.
type RemoteError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, body)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// DataShapeError means the panel answered, but not with the fields the
// decoder needs.
type DataShapeError struct {
	Resource  string
	Attribute string
	Reason    string
}

func (e *DataShapeError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("%s: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Attribute, e.Reason)
}

func (e *DataShapeError) Is(target error) bool {
	return target == ErrDataShape
}

// RowError records a listing row that could not be decoded.
type RowError struct {
	Resource string
	RowID    int
	Err      error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Resource, e.RowID, e.Err.Error())
}

func (e *RowError) Unwrap() error {
	return e.Err
}
