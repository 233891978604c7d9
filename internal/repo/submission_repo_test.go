package repo

import (
	"context"
	"testing"
	"time"

	"github.com/bagooon/chatease-intake/internal/domain"
)

func TestCreateSubmission(t *testing.T) {
	ctx := context.Background()
	db := newRepoDB(t, &domain.SubmissionRecord{})

	start := time.Now().UTC().Add(-time.Minute)
	rec, err := CreateSubmission(ctx, db, 3, "b-123", "Acme Jane", "jane@example.com")
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if rec.ID == "" || rec.FormID != 3 || rec.BoardSlug != "b-123" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt unset: %v", rec.CreatedAt)
	}

	var got domain.SubmissionRecord
	if err := db.First(&got, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.GuestEmail != "jane@example.com" {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestListSubmissions_NewestFirstAndScoped(t *testing.T) {
	ctx := context.Background()
	db := newRepoDB(t, &domain.SubmissionRecord{})

	for i := 0; i < 3; i++ {
		if _, err := CreateSubmission(ctx, db, 1, "b-1", "g", "g@example.com"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := CreateSubmission(ctx, db, 2, "b-2", "g", "g@example.com"); err != nil {
		t.Fatalf("seed other form: %v", err)
	}

	recs, err := ListSubmissions(ctx, db, 1, 10)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d", len(recs))
	}
	for _, r := range recs {
		if r.FormID != 1 {
			t.Fatalf("leaked form: %+v", r)
		}
	}

	n, err := CountSubmissions(ctx, db, 1)
	if err != nil || n != 3 {
		t.Fatalf("CountSubmissions = %d, %v", n, err)
	}
}
