// Client for the ChatEase board API.
//
// Two operations are exposed: GetWorkspaceName (used at admin time to verify
// a credential pair) and CreateBoard (used by the submission flow). Both are
// authenticated with the X-Chatease-API-Token header, POST JSON, and apply a
// 10s timeout. Responses are decoded then validated field by field rather
// than trusted: a 2xx body that does not match the documented shape yields a
// *ProtocolError naming the offending field.
package chatease

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production ChatEase endpoint.
	DefaultBaseURL = "https://chatease.jp"

	// HeaderAPIToken carries the workspace API token on every call.
	HeaderAPIToken = "X-Chatease-API-Token"

	// requestTimeout bounds each outbound call; there are no retries.
	requestTimeout = 10 * time.Second
)

// ErrMissingAPIToken and ErrMissingWorkspaceSlug reject client construction
// with incomplete credentials; the resolver should have caught this earlier.
var (
	ErrMissingAPIToken      = errors.New("apiToken is required")
	ErrMissingWorkspaceSlug = errors.New("workspaceSlug is required")
)

// Client calls the ChatEase board API for a single workspace.
// It is safe for concurrent use.
type Client struct {
	apiToken      string
	workspaceSlug string
	baseURL       string
	httpc         *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests, staging).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// New constructs a Client for the given credential pair.
func New(apiToken, workspaceSlug string, opts ...Option) (*Client, error) {
	if apiToken == "" {
		return nil, ErrMissingAPIToken
	}
	if workspaceSlug == "" {
		return nil, ErrMissingWorkspaceSlug
	}
	c := &Client{
		apiToken:      apiToken,
		workspaceSlug: workspaceSlug,
		baseURL:       DefaultBaseURL,
		httpc:         &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetWorkspaceName resolves the human-readable workspace name for the
// client's credential pair.
//
// POST /api/v1/board/name with {"workspaceSlug": ...}. HTTP 401 maps to
// ErrUnauthorized, any other non-2xx to *APIError carrying the status code,
// and a 2xx body without a string "name" field to *ProtocolError.
func (c *Client) GetWorkspaceName(ctx context.Context) (string, error) {
	body, status, err := c.postJSON(ctx, "/api/v1/board/name", map[string]string{
		"workspaceSlug": c.workspaceSlug,
	})
	if err != nil {
		return "", &TransportError{Op: "board/name", Err: err}
	}
	if status == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return "", &APIError{Status: status}
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &ProtocolError{Reason: "not a JSON object"}
	}
	name, ok := decoded["name"].(string)
	if !ok {
		return "", &ProtocolError{Field: "name"}
	}
	return name, nil
}

// CreateBoard validates req, injects the workspace slug, and creates a board.
//
// Validation failures abort before any network call. A non-2xx response
// yields *APIError with the status code and raw body; a 2xx response must
// decode to an object with string slug/hostURL/guestURL fields or a
// *ProtocolError naming the first missing field is returned.
func (c *Client) CreateBoard(ctx context.Context, req BoardRequest) (*Board, error) {
	if err := ValidateBoardRequest(req); err != nil {
		return nil, err
	}

	payload := struct {
		BoardRequest
		WorkspaceSlug string `json:"workspaceSlug"`
	}{BoardRequest: req, WorkspaceSlug: c.workspaceSlug}

	body, status, err := c.postJSON(ctx, "/api/v1/board", payload)
	if err != nil {
		return nil, &TransportError{Op: "board", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Body: strings.TrimSpace(string(body))}
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ProtocolError{Reason: "not a JSON object"}
	}

	board := &Board{}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"slug", &board.Slug},
		{"hostURL", &board.HostURL},
		{"guestURL", &board.GuestURL},
	} {
		v, ok := decoded[f.name].(string)
		if !ok {
			return nil, &ProtocolError{Field: f.name}
		}
		*f.dst = v
	}
	return board, nil
}

// postJSON sends an authenticated JSON POST and returns the raw response
// body and status. Errors are raw network/encode errors; callers wrap them.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAPIToken, c.apiToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
