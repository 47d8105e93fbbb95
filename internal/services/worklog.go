package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/observability"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
)

// maxHours matches the decimal(6,2) column.
var maxHours = decimal.RequireFromString("9999.99")

// WorkLogInput is one effort entry to append.
type WorkLogInput struct {
	Description string           `json:"description" validate:"required,max=5000"`
	HoursSpent  *decimal.Decimal `json:"hours_spent,omitempty"`
	// EngineerID defaults to the acting user when zero.
	EngineerID uint `json:"engineer_id,omitempty"`
}

// WorkLogJournal appends and reads effort entries. Entries are never edited
// or removed except when their request is deleted.
type WorkLogJournal struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Append records in against requestID. Hours are rounded to two places.
func (j *WorkLogJournal) Append(ctx context.Context, actor domain.Actor, requestID uint, in WorkLogInput) (*domain.WorkLogEntry, error) {
	ctx, span := otel.Tracer("services/WorkLogJournal").Start(ctx, "Append",
		trace.WithAttributes(attribute.Int64("request.id", int64(requestID))),
	)
	defer span.End()

	in.Description = sanitizeText(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	var hours *decimal.Decimal
	if in.HoursSpent != nil {
		if in.HoursSpent.IsNegative() {
			return nil, invalid("hours_spent", "must not be negative")
		}
		h := in.HoursSpent.Round(2)
		if h.GreaterThan(maxHours) {
			return nil, invalid("hours_spent", "must be at most "+maxHours.String())
		}
		hours = &h
	}
	engineer := in.EngineerID
	if engineer == 0 {
		engineer = actor.ID
	}
	if engineer == 0 {
		return nil, invalid("engineer_id", "is required")
	}

	entry := &domain.WorkLogEntry{
		RequestID:   requestID,
		Description: in.Description,
		HoursSpent:  hours,
		EngineerID:  engineer,
		LoggedAt:    j.now(),
	}
	err := j.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.RequestExists(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRequestNotFound
		}
		if in.EngineerID != 0 && in.EngineerID != actor.ID {
			exists, err := repo.UserExists(ctx, tx, in.EngineerID)
			if err != nil {
				return err
			}
			if !exists {
				return invalid("engineer_id", "unknown engineer")
			}
		}
		return repo.AppendWorkLog(ctx, tx, entry)
	})
	if err != nil {
		span.RecordError(err)
		return nil, storeFailure(ctx, "add_work_log", requestID, actor, err)
	}
	observability.WorkLogsAdded.Inc()
	return entry, nil
}

// List returns up to limit entries newest first; limit <= 0 returns all.
func (j *WorkLogJournal) List(ctx context.Context, requestID uint, limit int) ([]domain.WorkLogEntry, error) {
	ctx, span := otel.Tracer("services/WorkLogJournal").Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int64("request.id", int64(requestID)),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	ok, err := repo.RequestExists(ctx, j.DB, requestID)
	if err != nil {
		return nil, storeFailure(ctx, "list_work_logs", requestID, domain.Actor{}, err)
	}
	if !ok {
		return nil, ErrRequestNotFound
	}
	logs, err := repo.ListWorkLogs(ctx, j.DB, requestID, limit)
	if err != nil {
		return nil, storeFailure(ctx, "list_work_logs", requestID, domain.Actor{}, err)
	}
	return logs, nil
}

func (j *WorkLogJournal) now() time.Time {
	if j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}
