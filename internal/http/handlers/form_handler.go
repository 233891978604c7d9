// Visitor flow HTTP handlers.
//
// This file exposes the public three-step contact flow:
//   - GET  /forms/{id}          (form metadata + restored values + token)
//   - POST /forms/{id}/confirm  (validate input, advance to confirm)
//   - POST /forms/{id}/submit   (create the remote board)
//   - POST /forms/{id}/back     (return to input, values preserved)
//
// Handlers are transport-thin: they resolve the visitor identity, check the
// anti-forgery token, call the flow service, and shape the step response.
// Flow outcomes, including validation failures, are HTTP 200 with the step
// and error list in the body; envelope errors are reserved for transport
// problems.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/http/middleware"
	"github.com/bagooon/chatease-intake/internal/services"
)

// visitorCookieMaxAge keeps the anonymous visitor ID for a year.
const visitorCookieMaxAge = 365 * 24 * 60 * 60

// FlowService defines the step operations consumed by the flow handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type FlowService interface {
	Restore(ctx context.Context, form domain.FormIdentity, visitorID string) (*services.StepResult, error)
	Confirm(ctx context.Context, form domain.FormIdentity, visitorID string, raw services.RawSubmission) (*services.StepResult, error)
	Submit(ctx context.Context, form domain.FormIdentity, visitorID string) (*services.StepResult, error)
	Back(ctx context.Context, form domain.FormIdentity, visitorID string) (*services.StepResult, error)
}

// TokenIssuer mints and checks the per-form anti-forgery token.
type TokenIssuer interface {
	Issue(scope, visitorID string) string
	Verify(token, scope, visitorID string) bool
}

// FormHandler serves the visitor-facing flow endpoints.
type FormHandler struct {
	Flow        FlowService
	Config      services.ConfigStore
	Settings    *services.SettingsResolver
	Credentials *services.CredentialResolver
	Tokens      TokenIssuer
	// CaptchaSiteKey is exposed in form metadata so the frontend can render
	// the widget; empty when captcha is disabled.
	CaptchaSiteKey func(ctx context.Context) string
}

//
// DTOs
//

// FormMetadataResponse describes one form for the frontend: labels, titles,
// the resolved workspace name for the intro line, the captcha site key, a
// fresh anti-forgery token, and any session-restored values.
type FormMetadataResponse struct {
	FormID        int                     `json:"form_id"`
	Title         string                  `json:"title,omitempty"`
	Labels        domain.FormLabels       `json:"labels"`
	WorkspaceName string                  `json:"workspace_name,omitempty"`
	CaptchaKey    string                  `json:"captcha_site_key,omitempty"`
	Token         string                  `json:"token"`
	Step          string                  `json:"step"`
	Values        domain.SubmissionValues `json:"values"`
}

// ConfirmRequest is the JSON payload of the confirm step.
type ConfirmRequest struct {
	Token        string `json:"token" binding:"required"`
	Company      string `json:"company"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captcha_token"`
}

// StepRequest is the JSON payload of the submit and back steps.
type StepRequest struct {
	Token string `json:"token" binding:"required"`
}

// BoardResult exposes the visitor-side outcome of a created board.
type BoardResult struct {
	GuestURL string `json:"guest_url"`
}

// StepResponse is the uniform flow response: the step to render, the values
// to prefill, ordered error messages, the created board on completion, and
// a fresh token for the next request.
type StepResponse struct {
	Step   string                  `json:"step"`
	Values domain.SubmissionValues `json:"values"`
	Errors []string                `json:"errors,omitempty"`
	Board  *BoardResult            `json:"board,omitempty"`
	Token  string                  `json:"token"`
}

//
// Handlers
//

// GetForm returns the metadata for a form instance.
//
// @Summary  Form metadata
// @Tags     forms
// @Produce  json
// @Param    id path int true "Form ID (0 for the default form)"
// @Success  200 {object} FormMetadataResponse
// @Failure  404 {object} ErrorResponse
// @Router   /forms/{id} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	form, formDef, okID := h.formIdentity(c)
	if !okID {
		return
	}
	visitorID := h.visitorID(c)
	ctx := c.Request.Context()

	labels, err := h.Settings.Labels(ctx, formDef)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load form")
		return
	}

	// The workspace name is presentation only; resolution errors simply
	// leave it empty.
	workspaceName := ""
	if creds, err := h.Credentials.Resolve(ctx, form); err == nil {
		workspaceName = creds.WorkspaceName
	}

	restored, err := h.Flow.Restore(ctx, form, visitorID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load form")
		return
	}

	resp := FormMetadataResponse{
		FormID:        form.FormPostID,
		Labels:        labels,
		WorkspaceName: workspaceName,
		Token:         h.Tokens.Issue(form.TokenScope(), visitorID),
		Step:          restored.Step,
		Values:        restored.Values,
	}
	if formDef != nil {
		resp.Title = formDef.Title
	}
	if h.CaptchaSiteKey != nil {
		resp.CaptchaKey = h.CaptchaSiteKey(ctx)
	}
	ok(c, http.StatusOK, resp)
}

// Confirm validates the submitted fields and advances the flow.
//
// @Summary  Confirm step
// @Tags     forms
// @Accept   json
// @Produce  json
// @Param    id      path int            true "Form ID"
// @Param    payload body ConfirmRequest true "Submitted fields"
// @Success  200 {object} StepResponse
// @Router   /forms/{id}/confirm [post]
func (h *FormHandler) Confirm(c *gin.Context) {
	form, _, okID := h.formIdentity(c)
	if !okID {
		return
	}
	visitorID := h.visitorID(c)

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if !h.Tokens.Verify(req.Token, form.TokenScope(), visitorID) {
		h.stepError(c, form, visitorID, services.ErrInvalidToken.Error())
		return
	}

	res, err := h.Flow.Confirm(c.Request.Context(), form, visitorID, services.RawSubmission{
		Company:      req.Company,
		Name:         req.Name,
		Email:        req.Email,
		Message:      req.Message,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.ClientIP(),
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeFlowFailed, "could not process submission")
		return
	}
	middleware.CountStepOutcome("confirm", len(res.Errors) > 0)
	h.writeStep(c, form, visitorID, res)
}

// Submit creates the remote board from the confirmed values.
//
// @Summary  Submit step
// @Tags     forms
// @Accept   json
// @Produce  json
// @Param    id      path int         true "Form ID"
// @Param    payload body StepRequest true "Anti-forgery token"
// @Success  200 {object} StepResponse
// @Router   /forms/{id}/submit [post]
func (h *FormHandler) Submit(c *gin.Context) {
	form, _, okID := h.formIdentity(c)
	if !okID {
		return
	}
	visitorID := h.visitorID(c)

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if !h.Tokens.Verify(req.Token, form.TokenScope(), visitorID) {
		h.stepError(c, form, visitorID, services.ErrInvalidToken.Error())
		return
	}

	res, err := h.Flow.Submit(c.Request.Context(), form, visitorID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeFlowFailed, "could not process submission")
		return
	}
	middleware.CountStepOutcome("submit", len(res.Errors) > 0)
	h.writeStep(c, form, visitorID, res)
}

// Back returns the visitor to the input step, keeping entered values.
//
// @Summary  Back step
// @Tags     forms
// @Accept   json
// @Produce  json
// @Param    id      path int         true "Form ID"
// @Param    payload body StepRequest true "Anti-forgery token"
// @Success  200 {object} StepResponse
// @Router   /forms/{id}/back [post]
func (h *FormHandler) Back(c *gin.Context) {
	form, _, okID := h.formIdentity(c)
	if !okID {
		return
	}
	visitorID := h.visitorID(c)

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if !h.Tokens.Verify(req.Token, form.TokenScope(), visitorID) {
		h.stepError(c, form, visitorID, services.ErrInvalidToken.Error())
		return
	}

	res, err := h.Flow.Back(c.Request.Context(), form, visitorID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeFlowFailed, "could not process submission")
		return
	}
	middleware.CountStepOutcome("back", len(res.Errors) > 0)
	h.writeStep(c, form, visitorID, res)
}

//
// Helpers
//

// formIdentity parses the :id path param and, for positive IDs, checks the
// form exists (404 otherwise). Returns the identity, the loaded definition
// (nil for the default form), and whether to proceed.
func (h *FormHandler) formIdentity(c *gin.Context) (domain.FormIdentity, *domain.FormDefinition, bool) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form id")
		return domain.FormIdentity{}, nil, false
	}
	form := domain.NewFormIdentity(id)

	var formDef *domain.FormDefinition
	if id > 0 {
		formDef, err = h.Config.GetForm(c.Request.Context(), uint(id))
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load form")
			return domain.FormIdentity{}, nil, false
		}
		if formDef == nil {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
			return domain.FormIdentity{}, nil, false
		}
	}
	return form, formDef, true
}

// visitorID reads the visitor cookie, minting and setting one when absent.
func (h *FormHandler) visitorID(c *gin.Context) string {
	if id, err := c.Cookie(middleware.VisitorCookie); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.VisitorCookie, id, visitorCookieMaxAge, "/", "", false, true)
	return id
}

// writeStep shapes a StepResult into the uniform response with a fresh token.
func (h *FormHandler) writeStep(c *gin.Context, form domain.FormIdentity, visitorID string, res *services.StepResult) {
	resp := StepResponse{
		Step:   res.Step,
		Values: res.Values,
		Errors: res.Errors,
		Token:  h.Tokens.Issue(form.TokenScope(), visitorID),
	}
	if res.Board != nil {
		resp.Board = &BoardResult{GuestURL: res.Board.GuestURL}
	}
	ok(c, http.StatusOK, resp)
}

// stepError short-circuits to the input step with a single error message,
// used for token failures before the flow service is consulted.
func (h *FormHandler) stepError(c *gin.Context, form domain.FormIdentity, visitorID, msg string) {
	ok(c, http.StatusOK, StepResponse{
		Step:   services.StepInput,
		Errors: []string{msg},
		Token:  h.Tokens.Issue(form.TokenScope(), visitorID),
	})
}
