package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// UserExists reports whether a user account with id exists.
func UserExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
