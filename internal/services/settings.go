// Package services – presentation and delivery settings
//
// Field labels, board title, response deadline, and notification address
// each resolve through the same chain: form value → global setting →
// built-in default. The resolver takes the loaded FormDefinition (nil for
// the default form) so one DB read serves all fields.
package services

import (
	"context"

	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/repo"
	"github.com/bagooon/chatease-intake/internal/utils"
)

// Built-in label defaults used when neither the form nor the global
// settings provide one.
const (
	DefaultLabelCompany = "Company"
	DefaultLabelName    = "Name"
	DefaultLabelEmail   = "Email"
	DefaultLabelMessage = "Message"

	// DefaultDeadlineDays is the response deadline applied when neither
	// tier configures one.
	DefaultDeadlineDays = 1
)

// SettingsResolver resolves per-form presentation and delivery settings.
type SettingsResolver struct {
	Config ConfigStore
	// AdminEmail is the final notification fallback, from deployment config.
	AdminEmail string
}

// Labels returns the four field labels for a form. form may be nil.
func (r *SettingsResolver) Labels(ctx context.Context, form *domain.FormDefinition) (domain.FormLabels, error) {
	labels := domain.FormLabels{}
	specs := []struct {
		dst    *string
		form   string
		global string
		def    string
	}{
		{&labels.Company, formField(form, func(f *domain.FormDefinition) string { return f.LabelCompany }), repo.SettingLabelCompany, DefaultLabelCompany},
		{&labels.Name, formField(form, func(f *domain.FormDefinition) string { return f.LabelName }), repo.SettingLabelName, DefaultLabelName},
		{&labels.Email, formField(form, func(f *domain.FormDefinition) string { return f.LabelEmail }), repo.SettingLabelEmail, DefaultLabelEmail},
		{&labels.Message, formField(form, func(f *domain.FormDefinition) string { return f.LabelMessage }), repo.SettingLabelMessage, DefaultLabelMessage},
	}
	for _, s := range specs {
		v, err := r.fallback(ctx, s.form, s.global, s.def)
		if err != nil {
			return domain.FormLabels{}, err
		}
		*s.dst = v
	}
	return labels, nil
}

// BoardTitle returns the title for boards created from a form.
func (r *SettingsResolver) BoardTitle(ctx context.Context, form *domain.FormDefinition) (string, error) {
	return r.fallback(ctx,
		formField(form, func(f *domain.FormDefinition) string { return f.BoardTitle }),
		repo.SettingBoardTitle, domain.DefaultBoardTitle)
}

// DeadlineDays returns the response deadline in days for a form.
func (r *SettingsResolver) DeadlineDays(ctx context.Context, form *domain.FormDefinition) (int, error) {
	if form != nil && form.DeadlineDays > 0 {
		return form.DeadlineDays, nil
	}
	raw, err := r.Config.GetGlobal(ctx, repo.SettingDeadlineDays)
	if err != nil {
		return 0, err
	}
	if days := utils.AtoiDefault(raw, 0); days > 0 {
		return days, nil
	}
	return DefaultDeadlineDays, nil
}

// NotifyEmail returns the operator notification address for a form, or ""
// when nothing is configured anywhere.
func (r *SettingsResolver) NotifyEmail(ctx context.Context, form *domain.FormDefinition) (string, error) {
	return r.fallback(ctx,
		formField(form, func(f *domain.FormDefinition) string { return f.NotifyEmail }),
		repo.SettingNotifyEmail, r.AdminEmail)
}

// fallback returns formValue, then the named global setting, then def.
func (r *SettingsResolver) fallback(ctx context.Context, formValue, setting, def string) (string, error) {
	if formValue != "" {
		return formValue, nil
	}
	v, err := r.Config.GetGlobal(ctx, setting)
	if err != nil {
		return "", err
	}
	if v != "" {
		return v, nil
	}
	return def, nil
}

// formField reads a field from a possibly nil form definition.
func formField(form *domain.FormDefinition, get func(*domain.FormDefinition) string) string {
	if form == nil {
		return ""
	}
	return get(form)
}
