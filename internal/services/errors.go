// Package services implements the business logic of the contact-intake
// flow: the step state machine, credential resolution, settings fallbacks,
// and admin-time workspace validation.
//
// This file centralizes service-level error values. Their texts are part of
// the product surface: validation messages are shown to visitors verbatim
// and configuration messages to operators, so the wording is fixed and
// covered by tests.
package services

import "errors"

// Visitor-facing validation and flow errors.
var (
	// ErrCaptchaFailed is reported when the captcha token is missing,
	// invalid, or could not be verified.
	ErrCaptchaFailed = errors.New("captcha verification failed, please try again")

	// ErrNameRequired is reported when the name field is empty after
	// sanitization.
	ErrNameRequired = errors.New("please enter your name")

	// ErrEmailInvalid is reported when the email field is empty or not a
	// valid address.
	ErrEmailInvalid = errors.New("please enter a valid email address")

	// ErrMessageRequired is reported when the message field is empty after
	// sanitization.
	ErrMessageRequired = errors.New("please enter your message")

	// ErrInvalidToken is reported when the anti-forgery token is missing,
	// expired, or bound to a different form or visitor.
	ErrInvalidToken = errors.New("invalid submission, please try again")

	// ErrSessionExpired is reported at the submit step when no confirmed
	// values exist in the session.
	ErrSessionExpired = errors.New("your session has expired, please enter your details again")
)

// Operator-facing configuration errors.
var (
	// ErrCredentialsUnset means neither the form nor the global settings
	// carry a credential pair.
	ErrCredentialsUnset = errors.New("api token and workspace slug are not configured")

	// ErrFormCredentialsPartial means the form sets exactly one of the pair.
	// There is no fall-through to the global tier in this state.
	ErrFormCredentialsPartial = errors.New("form-specific api token and workspace slug must both be set")

	// ErrGlobalCredentialsPartial means the global settings set exactly one
	// of the pair.
	ErrGlobalCredentialsPartial = errors.New("api token and workspace slug must both be set")
)

// Admin surface errors.
var (
	// ErrFormNotFound indicates the requested form definition does not exist.
	ErrFormNotFound = errors.New("form not found")

	// ErrUnknownSetting is returned when the admin API writes a setting name
	// outside the accepted set.
	ErrUnknownSetting = errors.New("unknown setting name")
)
