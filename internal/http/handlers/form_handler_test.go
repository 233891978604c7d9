package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bagooon/chatease-intake/internal/chatease"
	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/services"
)

type fakeFlow struct {
	lastOp      string
	lastForm    domain.FormIdentity
	lastVisitor string
	lastRaw     services.RawSubmission

	result *services.StepResult
	err    error
}

func (f *fakeFlow) Restore(_ context.Context, form domain.FormIdentity, visitorID string) (*services.StepResult, error) {
	f.lastOp, f.lastForm, f.lastVisitor = "restore", form, visitorID
	return f.result, f.err
}

func (f *fakeFlow) Confirm(_ context.Context, form domain.FormIdentity, visitorID string, raw services.RawSubmission) (*services.StepResult, error) {
	f.lastOp, f.lastForm, f.lastVisitor, f.lastRaw = "confirm", form, visitorID, raw
	return f.result, f.err
}

func (f *fakeFlow) Submit(_ context.Context, form domain.FormIdentity, visitorID string) (*services.StepResult, error) {
	f.lastOp, f.lastForm, f.lastVisitor = "submit", form, visitorID
	return f.result, f.err
}

func (f *fakeFlow) Back(_ context.Context, form domain.FormIdentity, visitorID string) (*services.StepResult, error) {
	f.lastOp, f.lastForm, f.lastVisitor = "back", form, visitorID
	return f.result, f.err
}

// fakeTokens accepts exactly "good-token" and issues "issued:<scope>".
type fakeTokens struct{}

func (fakeTokens) Issue(scope, _ string) string { return "issued:" + scope }
func (fakeTokens) Verify(token, _, _ string) bool {
	return token == "good-token"
}

type fakeConfig struct {
	globals map[string]string
	forms   map[uint]*domain.FormDefinition
}

func (f *fakeConfig) GetGlobal(_ context.Context, name string) (string, error) {
	return f.globals[name], nil
}

func (f *fakeConfig) GetForm(_ context.Context, id uint) (*domain.FormDefinition, error) {
	return f.forms[id], nil
}

func newFlowRouter(t *testing.T, flow *fakeFlow, cfg *fakeConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		cfg = &fakeConfig{globals: map[string]string{}}
	}
	h := &FormHandler{
		Flow:        flow,
		Config:      cfg,
		Settings:    &services.SettingsResolver{Config: cfg},
		Credentials: &services.CredentialResolver{Config: cfg},
		Tokens:      fakeTokens{},
	}

	r := gin.New()
	r.GET("/forms/:id", h.GetForm)
	r.POST("/forms/:id/confirm", h.Confirm)
	r.POST("/forms/:id/submit", h.Submit)
	r.POST("/forms/:id/back", h.Back)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "chatease_visitor", Value: "visitor-1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeStep(t *testing.T, w *httptest.ResponseRecorder) StepResponse {
	t.Helper()
	var resp StepResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode step response: %v", err)
	}
	return resp
}

func TestGetForm_DefaultForm(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{
		Step:   services.StepInput,
		Values: domain.SubmissionValues{Name: "Jane"},
	}}
	cfg := &fakeConfig{globals: map[string]string{"workspace_name": "Acme Support"}}
	r := newFlowRouter(t, flow, cfg)

	w := doJSON(t, r, http.MethodGet, "/forms/0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var resp FormMetadataResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FormID != 0 || resp.Step != services.StepInput {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Values.Name != "Jane" {
		t.Fatalf("restored values = %+v", resp.Values)
	}
	if resp.Token != "issued:chatease_contact_form_default" {
		t.Fatalf("token = %q", resp.Token)
	}
	if resp.Labels.Email == "" || resp.Labels.Message == "" {
		t.Fatalf("labels not defaulted: %+v", resp.Labels)
	}
	if flow.lastVisitor != "visitor-1" {
		t.Fatalf("visitor = %q", flow.lastVisitor)
	}
}

func TestGetForm_MintsVisitorCookie(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{Step: services.StepInput}}
	r := newFlowRouter(t, flow, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forms/0", nil))

	var minted string
	for _, c := range w.Result().Cookies() {
		if c.Name == "chatease_visitor" {
			minted = c.Value
			if !c.HttpOnly {
				t.Fatal("visitor cookie not httpOnly")
			}
		}
	}
	if minted == "" {
		t.Fatal("visitor cookie not set")
	}
	if flow.lastVisitor != minted {
		t.Fatalf("flow saw %q, cookie is %q", flow.lastVisitor, minted)
	}
}

func TestGetForm_UnknownPositiveID(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{Step: services.StepInput}}
	r := newFlowRouter(t, flow, &fakeConfig{globals: map[string]string{}})

	w := doJSON(t, r, http.MethodGet, "/forms/42", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestGetForm_InvalidID(t *testing.T) {
	r := newFlowRouter(t, &fakeFlow{}, nil)
	w := doJSON(t, r, http.MethodGet, "/forms/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetForm_FormTitleAndLabels(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{Step: services.StepInput}}
	cfg := &fakeConfig{
		globals: map[string]string{},
		forms: map[uint]*domain.FormDefinition{
			7: {ID: 7, Title: "Sales contact", LabelName: "Full name"},
		},
	}
	r := newFlowRouter(t, flow, cfg)

	w := doJSON(t, r, http.MethodGet, "/forms/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp FormMetadataResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "Sales contact" {
		t.Fatalf("title = %q", resp.Title)
	}
	if resp.Labels.Name != "Full name" {
		t.Fatalf("labels = %+v", resp.Labels)
	}
	if resp.Token != "issued:chatease_contact_form_form_7" {
		t.Fatalf("token = %q", resp.Token)
	}
}

func TestConfirm_BadToken(t *testing.T) {
	flow := &fakeFlow{}
	r := newFlowRouter(t, flow, nil)

	w := doJSON(t, r, http.MethodPost, "/forms/0/confirm", `{"token":"stale","name":"Jane"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeStep(t, w)
	if resp.Step != services.StepInput {
		t.Fatalf("step = %q", resp.Step)
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != services.ErrInvalidToken.Error() {
		t.Fatalf("errors = %v", resp.Errors)
	}
	if flow.lastOp != "" {
		t.Fatal("flow consulted despite bad token")
	}
	// A fresh token is still issued so the visitor can retry.
	if resp.Token == "" {
		t.Fatal("no retry token")
	}
}

func TestConfirm_MissingToken(t *testing.T) {
	r := newFlowRouter(t, &fakeFlow{}, nil)
	w := doJSON(t, r, http.MethodPost, "/forms/0/confirm", `{"name":"Jane"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestConfirm_PassesFieldsToFlow(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{
		Step:   services.StepConfirm,
		Values: domain.SubmissionValues{Name: "Jane", Email: "jane@example.com"},
	}}
	r := newFlowRouter(t, flow, nil)

	body := `{"token":"good-token","company":"Acme","name":"Jane","email":"jane@example.com","message":"Hello","captcha_token":"cap"}`
	w := doJSON(t, r, http.MethodPost, "/forms/0/confirm", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	if flow.lastOp != "confirm" {
		t.Fatalf("op = %q", flow.lastOp)
	}
	if flow.lastRaw.Company != "Acme" || flow.lastRaw.CaptchaToken != "cap" {
		t.Fatalf("raw = %+v", flow.lastRaw)
	}
	if flow.lastRaw.RemoteIP == "" {
		t.Fatal("client IP not forwarded")
	}

	resp := decodeStep(t, w)
	if resp.Step != services.StepConfirm || resp.Values.Name != "Jane" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestConfirm_ValidationErrorsAre200(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{
		Step:   services.StepInput,
		Errors: []string{services.ErrNameRequired.Error(), services.ErrEmailInvalid.Error()},
	}}
	r := newFlowRouter(t, flow, nil)

	w := doJSON(t, r, http.MethodPost, "/forms/0/confirm", `{"token":"good-token"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeStep(t, w)
	if len(resp.Errors) != 2 {
		t.Fatalf("errors = %v", resp.Errors)
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{
		Step:   services.StepComplete,
		Values: domain.SubmissionValues{Name: "Jane"},
		Board:  &chatease.Board{Slug: "b-1", GuestURL: "https://boards.example.com/guest/b-1"},
	}}
	r := newFlowRouter(t, flow, nil)

	w := doJSON(t, r, http.MethodPost, "/forms/0/submit", `{"token":"good-token"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	resp := decodeStep(t, w)
	if resp.Step != services.StepComplete {
		t.Fatalf("step = %q", resp.Step)
	}
	if resp.Board == nil || resp.Board.GuestURL != "https://boards.example.com/guest/b-1" {
		t.Fatalf("board = %+v", resp.Board)
	}
}

func TestSubmit_InfrastructureError(t *testing.T) {
	flow := &fakeFlow{err: context.DeadlineExceeded}
	r := newFlowRouter(t, flow, nil)

	w := doJSON(t, r, http.MethodPost, "/forms/0/submit", `{"token":"good-token"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeFlowFailed) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestBack_ReturnsToInput(t *testing.T) {
	flow := &fakeFlow{result: &services.StepResult{
		Step:   services.StepInput,
		Values: domain.SubmissionValues{Name: "Jane", Message: "Hi"},
	}}
	r := newFlowRouter(t, flow, nil)

	w := doJSON(t, r, http.MethodPost, "/forms/0/back", `{"token":"good-token"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeStep(t, w)
	if resp.Step != services.StepInput || resp.Values.Message != "Hi" {
		t.Fatalf("resp = %+v", resp)
	}
	if flow.lastOp != "back" {
		t.Fatalf("op = %q", flow.lastOp)
	}
}
