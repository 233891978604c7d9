// Admin HTTP handlers.
//
// This file exposes the operator surface:
//   - GET  /admin/settings               (read global settings)
//   - PUT  /admin/settings               (save + validate credentials)
//   - GET  /admin/forms                  (list form definitions)
//   - POST /admin/forms                  (create + validate credentials)
//   - GET  /admin/forms/{id}             (read one form)
//   - PUT  /admin/forms/{id}             (update + validate credentials)
//   - DELETE /admin/forms/{id}           (soft delete)
//   - GET  /admin/forms/{id}/submissions (audit trail)
//
// Saving either tier re-validates its credential pair against the board
// API: a full pair stores the returned workspace name, an incomplete or
// rejected pair clears it, and both-empty clears it silently. Saves always
// persist; the validation outcome travels in the response body so the
// operator sees broken credentials without losing their edit.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/repo"
	"github.com/bagooon/chatease-intake/internal/services"
)

// WorkspaceService validates credential pairs at admin time.
type WorkspaceService interface {
	ValidateForm(ctx context.Context, apiToken, workspaceSlug string) (string, error)
	ValidateGlobal(ctx context.Context, apiToken, workspaceSlug string) (string, error)
}

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	DB        *gorm.DB
	Workspace WorkspaceService
}

//
// DTOs
//

// SettingsResponse wraps the stored settings plus the current workspace
// validation state.
type SettingsResponse struct {
	Settings      map[string]string `json:"settings"`
	WorkspaceName string            `json:"workspace_name,omitempty"`
	// WorkspaceError carries the validation failure of the last save, empty
	// when the pair validated or was intentionally left empty.
	WorkspaceError string `json:"workspace_error,omitempty"`
}

// FormRequest is the JSON payload for creating or updating a form.
type FormRequest struct {
	Title        string `json:"title"`
	LabelCompany string `json:"label_company"`
	LabelName    string `json:"label_name"`
	LabelEmail   string `json:"label_email"`
	LabelMessage string `json:"label_message"`

	BoardTitle   string `json:"board_title"`
	DeadlineDays int    `json:"deadline_days"`
	NotifyEmail  string `json:"notify_email"`

	APIToken      string `json:"api_token"`
	WorkspaceSlug string `json:"workspace_slug"`
}

// FormResponse wraps a saved form plus the validation outcome of its
// credential pair.
type FormResponse struct {
	Form           domain.FormDefinition `json:"form"`
	WorkspaceError string                `json:"workspace_error,omitempty"`
}

//
// Settings
//

// GetSettings returns the stored global settings.
//
// @Summary  Read global settings
// @Tags     admin
// @Produce  json
// @Success  200 {object} SettingsResponse
// @Router   /admin/settings [get]
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := repo.ListSettings(c.Request.Context(), h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, "could not load settings")
		return
	}
	ok(c, http.StatusOK, SettingsResponse{
		Settings:      settings,
		WorkspaceName: settings[repo.SettingWorkspaceName],
	})
}

// PutSettings saves the submitted settings and re-validates the global
// credential pair.
//
// @Summary  Save global settings
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    payload body map[string]string true "Setting values by name"
// @Success  200 {object} SettingsResponse
// @Failure  400 {object} ErrorResponse
// @Router   /admin/settings [put]
func (h *AdminHandler) PutSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	for name := range req {
		if _, known := repo.KnownSettings[name]; !known {
			fail(c, http.StatusBadRequest, ErrCodeUnknownSetting, services.ErrUnknownSetting.Error()+": "+name)
			return
		}
	}
	// The workspace name is derived, never written directly.
	delete(req, repo.SettingWorkspaceName)

	for name, value := range req {
		if err := repo.PutSetting(ctx, h.DB, name, value); err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, "could not save settings")
			return
		}
	}

	token, err := repo.GetSetting(ctx, h.DB, repo.SettingAPIToken)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, "could not save settings")
		return
	}
	slug, err := repo.GetSetting(ctx, h.DB, repo.SettingWorkspaceSlug)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, "could not save settings")
		return
	}

	name, verr := h.Workspace.ValidateGlobal(ctx, token, slug)
	if err := repo.PutSetting(ctx, h.DB, repo.SettingWorkspaceName, name); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, "could not save settings")
		return
	}
	h.respondSettings(c, name, verr)
}

func (h *AdminHandler) respondSettings(c *gin.Context, workspaceName string, verr error) {
	settings, err := repo.ListSettings(c.Request.Context(), h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSettingsFailed, "could not load settings")
		return
	}
	resp := SettingsResponse{Settings: settings, WorkspaceName: workspaceName}
	if verr != nil {
		resp.WorkspaceError = verr.Error()
	}
	ok(c, http.StatusOK, resp)
}

//
// Forms
//

// ListForms returns all form definitions.
//
// @Summary  List forms
// @Tags     admin
// @Produce  json
// @Success  200 {array} domain.FormDefinition
// @Router   /admin/forms [get]
func (h *AdminHandler) ListForms(c *gin.Context) {
	forms, err := repo.ListForms(c.Request.Context(), h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list forms")
		return
	}
	ok(c, http.StatusOK, forms)
}

// CreateForm stores a new form definition.
//
// @Summary  Create form
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    payload body FormRequest true "Form definition"
// @Success  201 {object} FormResponse
// @Failure  400 {object} ErrorResponse
// @Router   /admin/forms [post]
func (h *AdminHandler) CreateForm(c *gin.Context) {
	ctx := c.Request.Context()

	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	form := req.toModel()
	workspaceName, verr := h.Workspace.ValidateForm(ctx, form.APIToken, form.WorkspaceSlug)
	form.WorkspaceName = workspaceName

	if err := repo.CreateForm(ctx, h.DB, form); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeFormSaveFailed, "could not save form")
		return
	}
	h.respondForm(c, http.StatusCreated, form, verr)
}

// GetFormDefinition returns one form definition.
//
// @Summary  Read form
// @Tags     admin
// @Produce  json
// @Param    id path int true "Form ID"
// @Success  200 {object} domain.FormDefinition
// @Failure  404 {object} ErrorResponse
// @Router   /admin/forms/{id} [get]
func (h *AdminHandler) GetFormDefinition(c *gin.Context) {
	id, okID := h.formID(c)
	if !okID {
		return
	}
	form, err := repo.GetForm(c.Request.Context(), h.DB, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load form")
		return
	}
	if form == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrFormNotFound.Error())
		return
	}
	ok(c, http.StatusOK, form)
}

// UpdateForm replaces a form definition.
//
// @Summary  Update form
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    id      path int         true "Form ID"
// @Param    payload body FormRequest true "Form definition"
// @Success  200 {object} FormResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/forms/{id} [put]
func (h *AdminHandler) UpdateForm(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := h.formID(c)
	if !okID {
		return
	}

	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	form := req.toModel()
	form.ID = id
	workspaceName, verr := h.Workspace.ValidateForm(ctx, form.APIToken, form.WorkspaceSlug)
	form.WorkspaceName = workspaceName

	err := repo.UpdateForm(ctx, h.DB, form)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrFormNotFound.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeFormSaveFailed, "could not save form")
		return
	}
	h.respondForm(c, http.StatusOK, form, verr)
}

// DeleteForm removes a form definition.
//
// @Summary  Delete form
// @Tags     admin
// @Param    id path int true "Form ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/forms/{id} [delete]
func (h *AdminHandler) DeleteForm(c *gin.Context) {
	id, okID := h.formID(c)
	if !okID {
		return
	}
	err := repo.DeleteForm(c.Request.Context(), h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrFormNotFound.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete form")
		return
	}
	noContent(c)
}

// ListSubmissions returns the audit trail of a form, newest first.
//
// @Summary  List submissions
// @Tags     admin
// @Produce  json
// @Param    id    path  int true  "Form ID (0 for the default form)"
// @Param    limit query int false "Max rows (default 100)"
// @Success  200 {array} domain.SubmissionRecord
// @Router   /admin/forms/{id}/submissions [get]
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	recs, err := repo.ListSubmissions(c.Request.Context(), h.DB, uint(id), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list submissions")
		return
	}
	ok(c, http.StatusOK, recs)
}

//
// Helpers
//

func (h *AdminHandler) formID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form id")
		return 0, false
	}
	return uint(id), true
}

func (h *AdminHandler) respondForm(c *gin.Context, status int, form *domain.FormDefinition, verr error) {
	resp := FormResponse{Form: *form}
	if verr != nil {
		resp.WorkspaceError = verr.Error()
	}
	ok(c, status, resp)
}

func (r FormRequest) toModel() *domain.FormDefinition {
	return &domain.FormDefinition{
		Title:         r.Title,
		LabelCompany:  r.LabelCompany,
		LabelName:     r.LabelName,
		LabelEmail:    r.LabelEmail,
		LabelMessage:  r.LabelMessage,
		BoardTitle:    r.BoardTitle,
		DeadlineDays:  r.DeadlineDays,
		NotifyEmail:   r.NotifyEmail,
		APIToken:      r.APIToken,
		WorkspaceSlug: r.WorkspaceSlug,
	}
}
