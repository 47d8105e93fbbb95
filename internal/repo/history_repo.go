// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only status history store.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// AppendStatusHistory inserts one history row. There is deliberately no
// update or delete counterpart; rows disappear only with their request.
func AppendStatusHistory(ctx context.Context, db *gorm.DB, e *domain.StatusHistoryEntry) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

// ListStatusHistory returns the full trail of a request, oldest first, with
// the name of the user who made each change.
func ListStatusHistory(ctx context.Context, db *gorm.DB, requestID uint) ([]domain.StatusHistoryEntry, error) {
	out := []domain.StatusHistoryEntry{}
	err := db.WithContext(ctx).
		Table("request_status_history AS h").
		Select("h.*, u.name AS changed_by_name").
		Joins("LEFT JOIN users u ON u.id = h.changed_by_id").
		Where("h.request_id = ?", requestID).
		Order("h.changed_at ASC, h.id ASC").
		Find(&out).Error
	return out, err
}
