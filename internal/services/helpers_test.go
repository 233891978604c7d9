package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bagooon/chatease-intake/internal/chatease"
	"github.com/bagooon/chatease-intake/internal/domain"
	"github.com/bagooon/chatease-intake/internal/notify"
)

// fakeConfig is an in-memory ConfigStore.
type fakeConfig struct {
	globals map[string]string
	forms   map[uint]*domain.FormDefinition
}

func (f *fakeConfig) GetGlobal(ctx context.Context, name string) (string, error) {
	return f.globals[name], nil
}

func (f *fakeConfig) GetForm(ctx context.Context, id uint) (*domain.FormDefinition, error) {
	return f.forms[id], nil
}

// fakeCaptcha verifies according to a fixed outcome.
type fakeCaptcha struct {
	pass   bool
	err    error
	calls  int
	tokens []string
}

func (f *fakeCaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	f.calls++
	f.tokens = append(f.tokens, token)
	return f.pass, f.err
}

// fakeBoardAPI records calls and returns canned results.
type fakeBoardAPI struct {
	name    string
	nameErr error

	board    *chatease.Board
	boardErr error

	createCalls int
	lastReq     chatease.BoardRequest
}

func (f *fakeBoardAPI) GetWorkspaceName(ctx context.Context) (string, error) {
	return f.name, f.nameErr
}

func (f *fakeBoardAPI) CreateBoard(ctx context.Context, req chatease.BoardRequest) (*chatease.Board, error) {
	f.createCalls++
	f.lastReq = req
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	return f.board, nil
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	err   error
	calls []notify.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, n notify.Notification) error {
	f.calls = append(f.calls, n)
	return f.err
}

// newServiceDB opens an isolated in-memory SQLite database with the full
// schema applied.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(&domain.FormDefinition{}, &domain.Setting{}, &domain.SubmissionRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}
