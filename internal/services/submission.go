// Package services – SubmissionService
//
// This file implements the three-step intake flow: input → confirm →
// submit → complete. Confirmed values live in the session store between the
// confirm and submit requests; any failure routes the visitor back to the
// input step, preserving entered values wherever possible.
//
// The submit step claims the session entry atomically before calling the
// board API, so two racing submits for the same visitor cannot both create
// a board. When the remote call fails, the claimed values are written back
// so the visitor does not retype them.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bagooon/chatease-intake/internal/captcha"
	"github.com/bagooon/chatease-intake/internal/chatease"
	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/notify"
	"github.com/bagooon/chatease-intake/internal/repo"
	"github.com/bagooon/chatease-intake/internal/session"
	"github.com/bagooon/chatease-intake/internal/utils"

	"github.com/rs/zerolog/log"
)

// Flow steps as reported to the client.
const (
	StepInput    = "input"
	StepConfirm  = "confirm"
	StepComplete = "complete"
)

// BoardAPI is the slice of the board client used by the flow and the
// admin-time validator.
type BoardAPI interface {
	GetWorkspaceName(ctx context.Context) (string, error)
	CreateBoard(ctx context.Context, req chatease.BoardRequest) (*chatease.Board, error)
}

// BoardAPIFactory builds a BoardAPI for a resolved credential pair.
type BoardAPIFactory func(apiToken, workspaceSlug string) (BoardAPI, error)

// RawSubmission carries the unsanitized confirm-step input.
type RawSubmission struct {
	Company      string
	Name         string
	Email        string
	Message      string
	CaptchaToken string
	RemoteIP     string
}

// StepResult is the outcome of one flow request: the step the client should
// render, the values to prefill, the ordered error messages (empty on
// success), and the created board after a completed submit.
type StepResult struct {
	Step   string
	Values domain.SubmissionValues
	Errors []string
	Board  *chatease.Board
}

// failed reports whether the result carries validation errors.
func (r *StepResult) failed() bool { return len(r.Errors) > 0 }

// SubmissionService orchestrates the intake flow for all forms.
type SubmissionService struct {
	DB          *gorm.DB
	Sessions    session.Store
	Credentials *CredentialResolver
	Settings    *SettingsResolver
	Captcha     captcha.Verifier
	Notifier    notify.Notifier
	NewClient   BoardAPIFactory

	// Now is the clock used for deadlines and unique keys; nil means
	// time.Now.
	Now func() time.Time
}

// Restore returns the input step prefilled with any values still held in
// the visitor's session.
func (s *SubmissionService) Restore(ctx context.Context, form domain.FormIdentity, visitorID string) (*StepResult, error) {
	values, err := s.Sessions.Get(ctx, sessionKey(form, visitorID))
	if err != nil {
		return nil, err
	}
	res := &StepResult{Step: StepInput}
	if values != nil {
		res.Values = *values
	}
	return res, nil
}

// Confirm sanitizes and validates the submitted fields. All failures are
// collected in a fixed order (captcha, name, email, message); any failure
// returns the visitor to the input step without touching the session. A
// clean pass persists the values and advances to the confirm step.
func (s *SubmissionService) Confirm(ctx context.Context, form domain.FormIdentity, visitorID string, raw RawSubmission) (*StepResult, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Confirm",
		trace.WithAttributes(attribute.String("form.key", form.Key())),
	)
	defer span.End()

	values := domain.SubmissionValues{
		Company: utils.SanitizeText(raw.Company),
		Name:    utils.SanitizeText(raw.Name),
		Email:   utils.SanitizeText(raw.Email),
		Message: utils.SanitizeMultiline(raw.Message),
	}

	res := &StepResult{Step: StepInput, Values: values}

	human, err := s.Captcha.Verify(ctx, raw.CaptchaToken, raw.RemoteIP)
	if err != nil {
		// Fail closed: an unreachable verifier counts as a failed check.
		log.Warn().Err(err).Str("form", form.Key()).Msg("captcha verification error")
		human = false
	}
	if !human {
		res.Errors = append(res.Errors, ErrCaptchaFailed.Error())
	}
	if values.Name == "" {
		res.Errors = append(res.Errors, ErrNameRequired.Error())
	}
	if !utils.IsEmail(values.Email) {
		res.Errors = append(res.Errors, ErrEmailInvalid.Error())
	}
	if values.Message == "" {
		res.Errors = append(res.Errors, ErrMessageRequired.Error())
	}
	if res.failed() {
		return res, nil
	}

	if err := s.Sessions.Set(ctx, sessionKey(form, visitorID), values); err != nil {
		return nil, err
	}
	res.Step = StepConfirm
	return res, nil
}

// Submit creates the remote board from the confirmed session values.
//
// The session entry is claimed (read and removed atomically) up front. An
// empty claim means the session expired: the visitor gets a single error
// and restarts. Any later failure writes the claimed values back and
// reports one wrapped error; on success the session stays cleared, the
// submission is recorded, and the notification is sent best effort.
func (s *SubmissionService) Submit(ctx context.Context, form domain.FormIdentity, visitorID string) (*StepResult, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("form.key", form.Key())),
	)
	defer span.End()

	key := sessionKey(form, visitorID)
	values, err := s.Sessions.Claim(ctx, key)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return &StepResult{
			Step:   StepInput,
			Errors: []string{ErrSessionExpired.Error()},
		}, nil
	}

	// Any failure from here on returns the visitor to input with the
	// claimed values restored.
	failWith := func(msg string) *StepResult {
		if err := s.Sessions.Set(ctx, key, *values); err != nil {
			log.Error().Err(err).Str("form", form.Key()).Msg("restore session after failed submit")
		}
		return &StepResult{Step: StepInput, Values: *values, Errors: []string{msg}}
	}

	creds, err := s.Credentials.Resolve(ctx, form)
	if err != nil {
		if isConfigError(err) {
			return failWith(err.Error()), nil
		}
		return nil, err
	}

	var formDef *domain.FormDefinition
	if form.FormPostID > 0 {
		formDef, err = s.Settings.Config.GetForm(ctx, uint(form.FormPostID))
		if err != nil {
			return nil, err
		}
	}

	req, err := s.buildBoardRequest(ctx, formDef, *values)
	if err != nil {
		return nil, err
	}

	client, err := s.NewClient(creds.APIToken, creds.WorkspaceSlug)
	if err != nil {
		return failWith(integrationError(err)), nil
	}

	board, err := client.CreateBoard(ctx, req)
	if err != nil {
		logBoardFailure(form, err)
		return failWith(integrationError(err)), nil
	}

	s.recordAndNotify(ctx, form, formDef, *values, board)

	return &StepResult{Step: StepComplete, Values: *values, Board: board}, nil
}

// Back returns the visitor from the confirm step to input, keeping the
// session so the values stay prefilled.
func (s *SubmissionService) Back(ctx context.Context, form domain.FormIdentity, visitorID string) (*StepResult, error) {
	return s.Restore(ctx, form, visitorID)
}

// buildBoardRequest assembles the outbound board payload from the resolved
// settings and the confirmed values.
func (s *SubmissionService) buildBoardRequest(ctx context.Context, formDef *domain.FormDefinition, values domain.SubmissionValues) (chatease.BoardRequest, error) {
	title, err := s.Settings.BoardTitle(ctx, formDef)
	if err != nil {
		return chatease.BoardRequest{}, err
	}
	days, err := s.Settings.DeadlineDays(ctx, formDef)
	if err != nil {
		return chatease.BoardRequest{}, err
	}

	now := s.clock()
	return chatease.BoardRequest{
		Title: title,
		Guest: chatease.Guest{
			Name:  values.GuestName(),
			Email: values.Email,
		},
		BoardUniqueKey: newBoardUniqueKey(now),
		InitialStatus: &chatease.InitialStatus{
			StatusKey: chatease.StatusScheduledForResponse,
			TimeLimit: now.AddDate(0, 0, days).Format("2006-01-02"),
		},
		InitialGuestComment: &chatease.InitialGuestComment{Content: values.Message},
	}, nil
}

// recordAndNotify writes the audit row and sends the operator notification.
// Both are best effort: failures are logged and do not affect the outcome.
func (s *SubmissionService) recordAndNotify(ctx context.Context, form domain.FormIdentity, formDef *domain.FormDefinition, values domain.SubmissionValues, board *chatease.Board) {
	var formID uint
	formTitle := ""
	if formDef != nil {
		formID = formDef.ID
		formTitle = formDef.Title
	}

	if _, err := repo.CreateSubmission(ctx, s.DB, formID, board.Slug, values.GuestName(), values.Email); err != nil {
		log.Error().Err(err).Str("form", form.Key()).Str("board", board.Slug).Msg("record submission")
	}

	to, err := s.Settings.NotifyEmail(ctx, formDef)
	if err != nil {
		log.Error().Err(err).Str("form", form.Key()).Msg("resolve notify address")
		return
	}
	n := notify.Notification{
		To:        to,
		FormTitle: formTitle,
		GuestName: values.GuestName(),
		Email:     values.Email,
		Message:   values.Message,
		BoardURL:  board.HostURL,
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Str("form", form.Key()).Msg("submission notification failed")
	}
}

func (s *SubmissionService) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// sessionKey scopes the form's session entry to one visitor.
func sessionKey(form domain.FormIdentity, visitorID string) string {
	return visitorID + ":" + form.SessionKey()
}

// newBoardUniqueKey builds a fresh per-attempt unique key:
// form-<yyyymmdd-hhmmss>-<8 random hex>.
func newBoardUniqueKey(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("form-%s-%s", now.Format("20060102-150405"), suffix)
}

// integrationError renders a remote failure for the visitor while keeping
// the cause visible to operators reading the same message in logs.
func integrationError(err error) string {
	return "board integration failed: " + err.Error()
}

// isConfigError reports whether err is one of the credential sentinels.
func isConfigError(err error) bool {
	return errors.Is(err, ErrCredentialsUnset) ||
		errors.Is(err, ErrFormCredentialsPartial) ||
		errors.Is(err, ErrGlobalCredentialsPartial)
}

// logBoardFailure logs a failed board creation, flagging protocol drift
// distinctly from network problems.
func logBoardFailure(form domain.FormIdentity, err error) {
	var perr *chatease.ProtocolError
	kind := "transport"
	if errors.As(err, &perr) {
		kind = "protocol"
	}
	log.Error().Err(err).
		Str("form", form.Key()).
		Str("kind", kind).
		Msg("board creation failed")
}
