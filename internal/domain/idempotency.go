package domain

import "time"

// Idempotency remembers which resource a previous unsafe request produced,
// keyed by (actor_id, scope, key), so a retried create can be answered with
// the original resource instead of a duplicate.
type Idempotency struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	ActorID    uint      `gorm:"not null;uniqueIndex:ux_actor_scope_key,priority:1"`
	Scope      string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_actor_scope_key,priority:2"`
	Key        string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_actor_scope_key,priority:3"`
	ResourceID uint      `gorm:"not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index:idx_idempotency_expires"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency_keys" }
