// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only work log store.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// AppendWorkLog inserts one work log entry.
func AppendWorkLog(ctx context.Context, db *gorm.DB, e *domain.WorkLogEntry) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

// ListWorkLogs returns the newest entries first (logged_at DESC, id DESC).
// A limit <= 0 returns every entry.
func ListWorkLogs(ctx context.Context, db *gorm.DB, requestID uint, limit int) ([]domain.WorkLogEntry, error) {
	out := []domain.WorkLogEntry{}
	q := db.WithContext(ctx).
		Table("request_work_logs AS w").
		Select("w.*, u.name AS engineer_name").
		Joins("LEFT JOIN users u ON u.id = w.engineer_id").
		Where("w.request_id = ?", requestID).
		Order("w.logged_at DESC, w.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
