// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case; generic codes mirror HTTP
// status semantics, domain-specific ones cover failures a status alone
// cannot convey. Handlers pick the most specific code and pass it to fail().
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeFlowFailed     = "flow_failed"
	ErrCodeSettingsFailed = "settings_failed"
	ErrCodeFormSaveFailed = "form_save_failed"
	ErrCodeUnknownSetting = "unknown_setting"
)
