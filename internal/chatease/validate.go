package chatease

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// isoDateRE pins the wire format to exactly YYYY-MM-DD before the calendar
// check; time.Parse alone would also accept single-digit months and days.
var isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateBoardRequest checks an outbound board request before it is sent.
// Checks run in a fixed order, each producing a distinct *ValidationError:
// guest email, board unique key, then initial status. It fails closed: any
// structurally wrong field aborts before any network call.
func ValidateBoardRequest(req BoardRequest) error {
	if req.Guest.Email == "" {
		return &ValidationError{Field: "guest.email", Reason: "is required"}
	}
	if !IsValidEmail(req.Guest.Email) {
		return &ValidationError{Field: "guest.email", Reason: "is invalid: " + req.Guest.Email}
	}

	if !isValidBoardUniqueKey(req.BoardUniqueKey) {
		return &ValidationError{
			Field:  "boardUniqueKey",
			Reason: "must be a non-empty string without whitespace and at most 255 chars",
		}
	}

	if req.InitialStatus != nil {
		if err := validateInitialStatus(*req.InitialStatus); err != nil {
			return err
		}
	}
	return nil
}

// validateInitialStatus enforces the closed status-key set and the TimeLimit
// requirement for scheduled keys.
func validateInitialStatus(status InitialStatus) error {
	if status.StatusKey == "" {
		return &ValidationError{Field: "initialStatus.statusKey", Reason: "is required"}
	}

	if _, scheduled := scheduledStatusKeys[status.StatusKey]; scheduled {
		if status.TimeLimit == "" {
			return &ValidationError{
				Field:  "initialStatus.timeLimit",
				Reason: "is required when statusKey is scheduled_for_*",
			}
		}
		if !IsValidISODate(status.TimeLimit) {
			return &ValidationError{
				Field:  "initialStatus.timeLimit",
				Reason: "must be a valid date in YYYY-MM-DD format, got: " + status.TimeLimit,
			}
		}
		return nil
	}

	if _, ok := nonScheduledStatusKeys[status.StatusKey]; ok {
		// TimeLimit may be present; the API ignores it.
		return nil
	}

	return &ValidationError{Field: "initialStatus.statusKey", Reason: "is unknown: " + status.StatusKey}
}

// IsValidISODate reports whether s is a real calendar date in YYYY-MM-DD
// form. Pattern-valid but non-existent dates (2024-02-30) are rejected.
func IsValidISODate(s string) bool {
	if !isoDateRE.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsValidEmail reports whether s is an RFC-syntactically valid bare address.
// Display-name forms ("Jane <jane@example.com>") are rejected.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// isValidBoardUniqueKey enforces the unique-key shape: non-empty, equal to
// its trimmed form, at most 255 bytes, no whitespace anywhere.
func isValidBoardUniqueKey(key string) bool {
	if key == "" {
		return false
	}
	if strings.TrimSpace(key) != key {
		return false
	}
	if len(key) > 255 {
		return false
	}
	return !strings.ContainsFunc(key, unicode.IsSpace)
}
