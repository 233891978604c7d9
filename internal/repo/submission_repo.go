// Package repo implements the data persistence layer, backed by GORM.
// This file provides the submission audit trail: one row per successfully
// created board, written after the fact and never read by the flow itself.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bagooon/chatease-intake/internal/domain"
)

// CreateSubmission records a completed submission and returns the stored row.
func CreateSubmission(ctx context.Context, db *gorm.DB, formID uint, boardSlug, guestName, guestEmail string) (*domain.SubmissionRecord, error) {
	rec := &domain.SubmissionRecord{
		ID:         uuid.NewString(),
		FormID:     formID,
		BoardSlug:  boardSlug,
		GuestName:  guestName,
		GuestEmail: guestEmail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSubmissions returns the most recent submissions for a form, newest
// first. formID 0 selects submissions of the default form.
func ListSubmissions(ctx context.Context, db *gorm.DB, formID uint, limit int) ([]domain.SubmissionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var recs []domain.SubmissionRecord
	err := db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// CountSubmissions returns the number of recorded submissions for a form.
func CountSubmissions(ctx context.Context, db *gorm.DB, formID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SubmissionRecord{}).
		Where("form_id = ?", formID).
		Count(&n).Error
	return n, err
}
