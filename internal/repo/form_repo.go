// Package repo implements the data persistence layer, backed by GORM.
// This file provides repository functions for stored form definitions.
//
// The repository follows a thin approach: persistence and simple query
// composition only, with business rules (label fallbacks, credential
// resolution) left to the services package.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bagooon/chatease-intake/internal/domain"
)

// CreateForm inserts a new form definition and returns it with its assigned ID.
func CreateForm(ctx context.Context, db *gorm.DB, form *domain.FormDefinition) error {
	return db.WithContext(ctx).Create(form).Error
}

// GetForm returns the form with the given ID, or (nil, nil) when no such
// form exists. Soft-deleted forms are treated as absent.
func GetForm(ctx context.Context, db *gorm.DB, id uint) (*domain.FormDefinition, error) {
	var form domain.FormDefinition
	err := db.WithContext(ctx).First(&form, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// ListForms returns all form definitions ordered by ID.
func ListForms(ctx context.Context, db *gorm.DB) ([]domain.FormDefinition, error) {
	var forms []domain.FormDefinition
	err := db.WithContext(ctx).Order("id ASC").Find(&forms).Error
	return forms, err
}

// UpdateForm saves all fields of form. The caller must have loaded the form
// first; updating an unknown ID reports gorm.ErrRecordNotFound.
func UpdateForm(ctx context.Context, db *gorm.DB, form *domain.FormDefinition) error {
	res := db.WithContext(ctx).Model(&domain.FormDefinition{}).
		Where("id = ?", form.ID).
		Select("*").Omit("id", "created_at", "deleted_at").
		Updates(form)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteForm soft-deletes the form with the given ID. Deleting an unknown ID
// reports gorm.ErrRecordNotFound.
func DeleteForm(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.FormDefinition{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
