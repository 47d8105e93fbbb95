// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MaintenanceRequest model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a caller's transaction. They follow the "thin repository"
// approach: no business rules, only persistence and query composition.
//
// Error semantics:
//   - A missing request yields gorm.ErrRecordNotFound (exported as ErrNotFound).
//   - Any other driver error is returned unchanged.
package repo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// requestView selects requests joined with assignee and creator names.
func requestView(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("maintenance_requests AS r").
		Select("r.*, a.name AS assigned_engineer_name, c.name AS created_by_name").
		Joins("LEFT JOIN users a ON a.id = r.assigned_engineer_id").
		Joins("LEFT JOIN users c ON c.id = r.created_by_id")
}

// CreateRequest inserts r. Associations are never written through this call.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.MaintenanceRequest) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

// GetRequest loads a request with display names, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id uint) (*domain.MaintenanceRequest, error) {
	var r domain.MaintenanceRequest
	if err := requestView(ctx, db).Where("r.id = ?", id).Take(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRequestByNumber loads the oldest request carrying number, or ErrNotFound.
func GetRequestByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.MaintenanceRequest, error) {
	var r domain.MaintenanceRequest
	err := requestView(ctx, db).
		Where("r.request_number = ?", number).
		Order("r.id ASC").
		Take(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RequestExists reports whether a request with id is present.
func RequestExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.MaintenanceRequest{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// LockRequestStatus reads the current status of a request, taking a row lock
// where the driver supports one (SQLite serializes writers instead).
func LockRequestStatus(ctx context.Context, db *gorm.DB, id uint) (domain.Status, error) {
	var row struct{ Status domain.Status }
	err := db.WithContext(ctx).
		Model(&domain.MaintenanceRequest{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("status").
		Where("id = ?", id).
		Take(&row).Error
	return row.Status, err
}

// UpdateRequestStatus writes status and updated_at, plus completed_date when
// completed is non-nil. Returns ErrNotFound if no row matched.
func UpdateRequestStatus(ctx context.Context, db *gorm.DB, id uint, status domain.Status, completed *time.Time, now time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if completed != nil {
		updates["completed_date"] = *completed
	}
	return UpdateRequestColumns(ctx, db, id, updates)
}

// UpdateRequestColumns applies a column→value map to one request. Callers are
// responsible for restricting which columns appear in updates.
func UpdateRequestColumns(ctx context.Context, db *gorm.DB, id uint, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.MaintenanceRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRequest removes a request together with its history and work logs.
// Children are deleted explicitly so the cascade does not depend on FK
// enforcement being switched on. Run it inside a transaction.
func DeleteRequest(ctx context.Context, db *gorm.DB, id uint) error {
	db = db.WithContext(ctx)
	if err := db.Where("request_id = ?", id).Delete(&domain.StatusHistoryEntry{}).Error; err != nil {
		return err
	}
	if err := db.Where("request_id = ?", id).Delete(&domain.WorkLogEntry{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&domain.MaintenanceRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MaxSequence returns the highest numeric suffix among request numbers that
// start with prefix (e.g. "MR-ACX-20240115-"), or 0 when there are none.
// Suffixes that are not purely digits are ignored.
func MaxSequence(ctx context.Context, db *gorm.DB, prefix string) (int, error) {
	var numbers []string
	err := db.WithContext(ctx).
		Model(&domain.MaintenanceRequest{}).
		Where("request_number LIKE ?", prefix+"%").
		Pluck("request_number", &numbers).Error
	if err != nil {
		return 0, err
	}
	max := 0
	for _, n := range numbers {
		suffix := strings.TrimPrefix(n, prefix)
		if suffix == "" || strings.ContainsFunc(suffix, func(r rune) bool { return r < '0' || r > '9' }) {
			continue
		}
		if v, err := strconv.Atoi(suffix); err == nil && v > max {
			max = v
		}
	}
	return max, nil
}
