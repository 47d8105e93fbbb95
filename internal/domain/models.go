// Package domain defines the persistence models for maintenance requests,
// their status history and work logs. These types are mapped with GORM and
// shared by the repository, service and HTTP layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a dashboard account. Accounts are owned by the authentication
// subsystem; this module only reads them to resolve display names and to
// check that an assignee exists.
type User struct {
	ID        uint      `json:"id"    gorm:"primaryKey"`
	Name      string    `json:"name"  gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Role      string    `json:"role"  gorm:"type:varchar(32);not null;default:'engineer'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// MaintenanceRequest is a client-originated work order.
//
// RequestNumber is generated once at creation and never rewritten. Status is
// written only by the transition recorder (and by creation, which also writes
// the first history row). CreatedAt/UpdatedAt come from the service clock.
//
// AssignedEngineerName and CreatedByName are read-only projections filled by
// queries that join users; they have no columns of their own.
type MaintenanceRequest struct {
	ID            uint   `json:"id"             gorm:"primaryKey"`
	RequestNumber string `json:"request_number" gorm:"type:varchar(32);not null;index:idx_mr_request_number"`

	ClientName    string  `json:"client_name"              gorm:"type:varchar(255);not null"`
	ClientEmail   string  `json:"client_email"             gorm:"type:varchar(255);not null"`
	ClientPhone   *string `json:"client_phone,omitempty"   gorm:"type:varchar(64)"`
	ClientCompany *string `json:"client_company,omitempty" gorm:"type:varchar(255)"`

	Title       string   `json:"title"           gorm:"type:varchar(255);not null"`
	Description string   `json:"description"     gorm:"type:text;not null"`
	Notes       *string  `json:"notes,omitempty" gorm:"type:text"`
	Category    Category `json:"category"        gorm:"type:varchar(32);not null;default:'General'"`
	Priority    Priority `json:"priority"        gorm:"type:varchar(16);not null;default:'Medium';index:idx_mr_priority"`

	Status        Status     `json:"status"                   gorm:"type:varchar(32);not null;default:'Pending';index:idx_mr_status"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty" gorm:"index:idx_mr_scheduled_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	AssignedEngineerID *uint `json:"assigned_engineer_id,omitempty" gorm:"index:idx_mr_assignee"`
	CreatedByID        uint  `json:"created_by_id"                  gorm:"not null;index:idx_mr_creator"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_mr_created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AssignedEngineerName *string `json:"assigned_engineer_name,omitempty" gorm:"->;-:migration"`
	CreatedByName        *string `json:"created_by_name,omitempty"        gorm:"->;-:migration"`

	AssignedEngineer *User `json:"-" gorm:"foreignKey:AssignedEngineerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	CreatedBy        *User `json:"-" gorm:"foreignKey:CreatedByID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for MaintenanceRequest.
func (MaintenanceRequest) TableName() string { return "maintenance_requests" }

// StatusHistoryEntry is one immutable row of a request's audit trail.
// OldStatus is nil only for the row written at creation time.
type StatusHistoryEntry struct {
	ID           uint      `json:"id"                      gorm:"primaryKey"`
	RequestID    uint      `json:"request_id"              gorm:"not null;index:idx_history_request,priority:1"`
	OldStatus    *Status   `json:"old_status"              gorm:"type:varchar(32)"`
	NewStatus    Status    `json:"new_status"              gorm:"type:varchar(32);not null"`
	ChangedByID  uint      `json:"changed_by_id"           gorm:"not null"`
	ChangeReason *string   `json:"change_reason,omitempty" gorm:"type:text"`
	ChangedAt    time.Time `json:"changed_at"              gorm:"not null;index:idx_history_request,priority:2"`

	ChangedByName *string `json:"changed_by_name,omitempty" gorm:"->;-:migration"`

	Request *MaintenanceRequest `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for StatusHistoryEntry.
func (StatusHistoryEntry) TableName() string { return "request_status_history" }

// WorkLogEntry records effort spent on a request. Entries are append-only.
type WorkLogEntry struct {
	ID          uint             `json:"id"                    gorm:"primaryKey"`
	RequestID   uint             `json:"request_id"            gorm:"not null;index:idx_worklog_request,priority:1"`
	Description string           `json:"description"           gorm:"type:text;not null"`
	HoursSpent  *decimal.Decimal `json:"hours_spent,omitempty" gorm:"type:decimal(6,2)"`
	EngineerID  uint             `json:"engineer_id"           gorm:"not null;index:idx_worklog_engineer"`
	LoggedAt    time.Time        `json:"logged_at"             gorm:"not null;index:idx_worklog_request,priority:2"`

	EngineerName *string `json:"engineer_name,omitempty" gorm:"->;-:migration"`

	Request *MaintenanceRequest `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WorkLogEntry.
func (WorkLogEntry) TableName() string { return "request_work_logs" }
