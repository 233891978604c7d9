// Package chatease implements the client for the ChatEase board API.
// This file defines the error taxonomy shared by the client and its callers:
//
//   - ValidationError:  the outbound request is structurally wrong; detected
//     before any network I/O.
//   - TransportError:   the network call itself failed (connection refused,
//     timeout, context cancellation).
//   - APIError:         the service responded with a non-2xx status; carries
//     the status code and the raw body for operator diagnosis.
//   - ProtocolError:    the service responded 2xx but the payload did not
//     match the documented shape (non-JSON body, missing or mistyped field).
//     This signals API contract drift rather than a network blip and should
//     be logged distinctly by callers.
package chatease

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned by GetWorkspaceName when the service rejects
// the API token / workspace slug pair with HTTP 401.
var ErrUnauthorized = errors.New("unauthorized (401): invalid api token or workspace slug")

// ValidationError reports a structurally invalid board request field.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid board request: %s %s", e.Field, e.Reason)
}

// TransportError wraps a network-level failure of an outbound call.
type TransportError struct {
	Op  string // "board/name" or "board"
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("chatease request %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying network error.
func (e *TransportError) Unwrap() error { return e.Err }

// APIError reports a non-2xx response from the ChatEase API. Body holds the
// raw response body when one was read (board creation keeps it so operators
// can see the service-side reason).
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("chatease api error: %d - %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status code: %d", e.Status)
}

// ProtocolError reports a 2xx response whose payload does not match the
// documented response shape. Field names the missing or mistyped field when
// one is known; Reason covers non-JSON bodies.
type ProtocolError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("chatease api response missing field: %s", e.Field)
	}
	return fmt.Sprintf("invalid response format: %s", e.Reason)
}
