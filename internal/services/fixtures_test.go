package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
)

var (
	admin    = domain.Actor{ID: 1, Role: "admin"}
	engineer = domain.Actor{ID: 2, Role: "engineer"}
)

// newServiceDB opens a migrated temp-file database with users 1 (Alice
// Admin) and 2 (Bob Engineer).
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, repo.AutoMigrate(db))
	require.NoError(t, db.Create(&[]domain.User{
		{ID: 1, Name: "Alice Admin", Email: "alice@example.com", Role: "admin"},
		{ID: 2, Name: "Bob Engineer", Email: "bob@example.com", Role: "engineer"},
	}).Error)
	return db
}

// fakeClock advances by step on every read so timestamps are strictly
// increasing and deterministic.
type fakeClock struct {
	mu   sync.Mutex
	at   time.Time
	step time.Duration
}

func newClock(at time.Time) *fakeClock { return &fakeClock{at: at, step: time.Second} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.at
	c.at = c.at.Add(c.step)
	return now
}

func newService(t *testing.T, at time.Time) (*RequestService, *gorm.DB) {
	t.Helper()
	db := newServiceDB(t)
	clock := newClock(at)
	return NewRequestService(db, &NumberGenerator{Sequence: StoreSequence{}}, clock.Now), db
}

func acmeInput() CreateRequestInput {
	return CreateRequestInput{
		ClientName:  "Acme Corp",
		ClientEmail: "ops@acme.test",
		Title:       "Core switch failing",
		Description: "Port errors on the core switch",
		Priority:    "High",
		Category:    "Network",
	}
}

func ptr[T any](v T) *T { return &v }
