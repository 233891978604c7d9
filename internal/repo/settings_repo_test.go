package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bagooon/chatease-intake/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Release the file handle before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestGetSetting_AbsentIsEmpty(t *testing.T) {
	db := newRepoDB(t, &domain.Setting{})
	v, err := GetSetting(context.Background(), db, SettingAPIToken)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Fatalf("absent setting = %q", v)
	}
}

func TestPutSetting_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	db := newRepoDB(t, &domain.Setting{})

	if err := PutSetting(ctx, db, SettingWorkspaceSlug, "acme"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if v, _ := GetSetting(ctx, db, SettingWorkspaceSlug); v != "acme" {
		t.Fatalf("after insert = %q", v)
	}

	if err := PutSetting(ctx, db, SettingWorkspaceSlug, "globex"); err != nil {
		t.Fatalf("PutSetting update: %v", err)
	}
	if v, _ := GetSetting(ctx, db, SettingWorkspaceSlug); v != "globex" {
		t.Fatalf("after update = %q", v)
	}

	var n int64
	db.Model(&domain.Setting{}).Count(&n)
	if n != 1 {
		t.Fatalf("row count = %d", n)
	}
}

func TestListSettings(t *testing.T) {
	ctx := context.Background()
	db := newRepoDB(t, &domain.Setting{})

	_ = PutSetting(ctx, db, SettingAPIToken, "tok")
	_ = PutSetting(ctx, db, SettingNotifyEmail, "ops@example.com")

	m, err := ListSettings(ctx, db)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if len(m) != 2 || m[SettingAPIToken] != "tok" || m[SettingNotifyEmail] != "ops@example.com" {
		t.Fatalf("settings = %v", m)
	}
}
