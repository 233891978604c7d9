// Package domain defines the persistence models and value types for the
// contact-intake flow. FormDefinition and Setting back the configuration
// store, SubmissionRecord is the audit trail of completed submissions, and
// SubmissionValues/FormIdentity are the in-flight value types passed between
// the session store, the state machine, and the board client.
package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultBoardTitle is used when neither the form nor the operator configured
// a board title.
const DefaultBoardTitle = "Contact form inquiry"

// SubmissionValues holds one visitor's in-progress submission. It is created
// empty at the input step, overwritten wholesale at the confirm step, and
// deleted from the session after a successful board creation.
type SubmissionValues struct {
	Company string `json:"company"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// GuestName composes the board guest name: "company name" when a company was
// entered, the bare name otherwise.
func (v SubmissionValues) GuestName() string {
	if v.Company != "" {
		return v.Company + " " + v.Name
	}
	return v.Name
}

// FormIdentity identifies one embedded form instance. FormPostID 0 is the
// default (global) form; positive IDs reference a FormDefinition row.
type FormIdentity struct {
	FormPostID int
}

// NewFormIdentity builds a FormIdentity, coercing negative IDs to the
// default form.
func NewFormIdentity(formPostID int) FormIdentity {
	if formPostID < 0 {
		formPostID = 0
	}
	return FormIdentity{FormPostID: formPostID}
}

// Key returns the stable string form of the identity: "form_<id>" for a
// concrete form, "default" for the global form.
func (f FormIdentity) Key() string {
	if f.FormPostID > 0 {
		return fmt.Sprintf("form_%d", f.FormPostID)
	}
	return "default"
}

// SessionKey returns the session-store key for this form instance.
func (f FormIdentity) SessionKey() string {
	return "chatease_form_" + f.Key()
}

// TokenScope returns the anti-forgery token scope for this form instance.
func (f FormIdentity) TokenScope() string {
	return "chatease_contact_form_" + f.Key()
}

// FormLabels carries the visitor-facing field labels for one form.
type FormLabels struct {
	Company string `json:"company"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// FormDefinition is a stored contact form with its presentation metadata and
// the optional form-specific credential pair. Empty label/title/email fields
// fall back to global settings or built-in defaults at resolution time.
//
// WorkspaceName is a cache of the remote workspace name, written only after a
// successful admin-time validation call and cleared whenever the credential
// pair changes or fails validation.
type FormDefinition struct {
	ID           uint   `json:"id"            gorm:"primaryKey"`
	Title        string `json:"title"         gorm:"type:varchar(255);not null;default:''"`
	LabelCompany string `json:"label_company" gorm:"type:varchar(255);not null;default:''"`
	LabelName    string `json:"label_name"    gorm:"type:varchar(255);not null;default:''"`
	LabelEmail   string `json:"label_email"   gorm:"type:varchar(255);not null;default:''"`
	LabelMessage string `json:"label_message" gorm:"type:varchar(255);not null;default:''"`

	BoardTitle   string `json:"board_title"   gorm:"type:varchar(255);not null;default:''"`
	DeadlineDays int    `json:"deadline_days" gorm:"not null;default:0"`
	NotifyEmail  string `json:"notify_email"  gorm:"type:varchar(255);not null;default:''"`

	APIToken      string `json:"api_token"      gorm:"type:varchar(255);not null;default:''"`
	WorkspaceSlug string `json:"workspace_slug" gorm:"type:varchar(255);not null;default:''"`
	WorkspaceName string `json:"workspace_name" gorm:"type:varchar(255);not null;default:''"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for FormDefinition.
func (FormDefinition) TableName() string { return "forms" }

// Setting is a single global option row (name → value).
type Setting struct {
	Name      string    `json:"name"  gorm:"type:varchar(64);primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null;default:''"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }

// SubmissionRecord is the audit row written after a board was successfully
// created for a submission. It stores the remote board slug so operators can
// correlate inquiries with boards; it is never read back by the flow itself.
type SubmissionRecord struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	FormID     uint      `json:"form_id"     gorm:"not null;index"`
	BoardSlug  string    `json:"board_slug"  gorm:"type:varchar(255);not null"`
	GuestName  string    `json:"guest_name"  gorm:"type:varchar(255);not null"`
	GuestEmail string    `json:"guest_email" gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for SubmissionRecord.
func (SubmissionRecord) TableName() string { return "submissions" }
