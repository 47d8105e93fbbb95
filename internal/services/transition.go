// Package services – status transitions
//
// TransitionRecorder is the only code path that changes a request's status.
// The status update and its history row are written in one transaction, so
// the audit trail always matches what was persisted. Any status may move to
// any other status, including itself.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/observability"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
)

// TransitionCommand asks for one status change.
type TransitionCommand struct {
	RequestID uint
	NewStatus string
	Actor     domain.Actor
	Reason    string
	// CompletedDate is written only when NewStatus is Completed.
	CompletedDate *time.Time
}

// TransitionRecorder persists status changes together with their history.
type TransitionRecorder struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Transition applies cmd and returns the refreshed request.
func (t *TransitionRecorder) Transition(ctx context.Context, cmd TransitionCommand) (*domain.MaintenanceRequest, error) {
	ctx, span := otel.Tracer("services/TransitionRecorder").Start(ctx, "Transition",
		trace.WithAttributes(
			attribute.Int64("request.id", int64(cmd.RequestID)),
			attribute.String("request.new_status", cmd.NewStatus),
		),
	)
	defer span.End()

	next, ok := domain.ParseStatus(cmd.NewStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}
	if cmd.Actor.ID == 0 {
		return nil, invalid("changed_by", "is required")
	}
	now := t.now()
	reason := sanitizeOptional(&cmd.Reason)

	var completed *time.Time
	if next == domain.StatusCompleted && cmd.CompletedDate != nil {
		c := cmd.CompletedDate.UTC()
		completed = &c
	}

	var prev domain.Status
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.LockRequestStatus(ctx, tx, cmd.RequestID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		prev = cur

		if err := repo.UpdateRequestStatus(ctx, tx, cmd.RequestID, next, completed, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		return repo.AppendStatusHistory(ctx, tx, &domain.StatusHistoryEntry{
			RequestID:    cmd.RequestID,
			OldStatus:    &cur,
			NewStatus:    next,
			ChangedByID:  cmd.Actor.ID,
			ChangeReason: reason,
			ChangedAt:    now,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, storeFailure(ctx, "transition_status", cmd.RequestID, cmd.Actor, err)
	}
	observability.StatusTransitions.WithLabelValues(string(prev), string(next)).Inc()

	r, err := repo.GetRequest(ctx, t.DB, cmd.RequestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storeFailure(ctx, "transition_status.reload", cmd.RequestID, cmd.Actor, err)
	}
	return r, nil
}

func (t *TransitionRecorder) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}
