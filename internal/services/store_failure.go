package services

import (
	"context"
	"errors"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// storeFailure passes expected outcomes through unchanged and turns anything
// else into a logged *StoreError.
func storeFailure(ctx context.Context, op string, requestID uint, actor domain.Actor, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	switch {
	case errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrGeneration),
		errors.As(err, &se):
		return err
	}
	loggerFrom(ctx).Error().
		Err(err).
		Str("op", op).
		Uint("request_id", requestID).
		Uint("actor_id", actor.ID).
		Str("actor_role", actor.Role).
		Msg("store operation failed")
	return &StoreError{Op: op, RequestID: requestID, Err: err}
}
