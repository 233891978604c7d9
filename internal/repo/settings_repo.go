// Package repo implements the data persistence layer, backed by GORM.
// This file provides the global settings rows: a flat name → value table
// holding the operator-wide configuration (credentials, captcha keys,
// notification address, deadline days).
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bagooon/chatease-intake/internal/domain"
)

// Global setting names. Values are stored as strings; numeric settings are
// parsed leniently at resolution time.
const (
	SettingAPIToken         = "api_token"
	SettingWorkspaceSlug    = "workspace_slug"
	SettingWorkspaceName    = "workspace_name"
	SettingRecaptchaSiteKey = "recaptcha_site_key"
	SettingRecaptchaSecret  = "recaptcha_secret_key"
	SettingNotifyEmail      = "notify_email"
	SettingDeadlineDays     = "response_deadline_days"
	SettingLabelCompany     = "label_company"
	SettingLabelName        = "label_name"
	SettingLabelEmail       = "label_email"
	SettingLabelMessage     = "label_message"
	SettingBoardTitle       = "board_title"
)

// KnownSettings is the closed set of accepted setting names; the admin API
// rejects writes outside it.
var KnownSettings = map[string]struct{}{
	SettingAPIToken:         {},
	SettingWorkspaceSlug:    {},
	SettingWorkspaceName:    {},
	SettingRecaptchaSiteKey: {},
	SettingRecaptchaSecret:  {},
	SettingNotifyEmail:      {},
	SettingDeadlineDays:     {},
	SettingLabelCompany:     {},
	SettingLabelName:        {},
	SettingLabelEmail:       {},
	SettingLabelMessage:     {},
	SettingBoardTitle:       {},
}

// GetSetting returns the value stored under name, or "" when the row does
// not exist. Absence is not an error.
func GetSetting(ctx context.Context, db *gorm.DB, name string) (string, error) {
	var s domain.Setting
	err := db.WithContext(ctx).First(&s, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// PutSetting inserts or updates the value stored under name.
func PutSetting(ctx context.Context, db *gorm.DB, name, value string) error {
	s := domain.Setting{Name: name, Value: value, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}

// ListSettings returns all stored settings as a name → value map.
func ListSettings(ctx context.Context, db *gorm.DB) (map[string]string, error) {
	var rows []domain.Setting
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}
