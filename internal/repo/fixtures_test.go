package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// newRepoDB opens a migrated temp-file database seeded with two users:
// 1 "Alice Admin" and 2 "Bob Engineer".
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	// Release the file handle before TempDir cleanup.
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	for _, u := range []domain.User{
		{ID: 1, Name: "Alice Admin", Email: "alice@example.com", Role: "admin"},
		{ID: 2, Name: "Bob Engineer", Email: "bob@example.com", Role: "engineer"},
	} {
		u := u
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return db
}

var baseTime = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

type reqOpt func(*domain.MaintenanceRequest)

// seedRequest inserts a Pending, Medium, General request created by user 1
// at baseTime plus offset minutes, then applies opts.
func seedRequest(t *testing.T, db *gorm.DB, number string, offset int, opts ...reqOpt) *domain.MaintenanceRequest {
	t.Helper()
	at := baseTime.Add(time.Duration(offset) * time.Minute)
	r := &domain.MaintenanceRequest{
		RequestNumber: number,
		ClientName:    "Acme Corp",
		ClientEmail:   "ops@acme.test",
		Title:         "Request " + number,
		Description:   "Something needs fixing",
		Category:      domain.CategoryGeneral,
		Priority:      domain.PriorityMedium,
		Status:        domain.StatusPending,
		CreatedByID:   1,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	for _, o := range opts {
		o(r)
	}
	if err := CreateRequest(context.Background(), db, r); err != nil {
		t.Fatalf("seed request %s: %v", number, err)
	}
	return r
}

func ptr[T any](v T) *T { return &v }
