// Package services – RequestService
//
// RequestService is the facade the HTTP layer calls. It validates and
// sanitizes input, then composes the number generator, the query builder,
// the transition recorder and the work log journal. Every method reaches the
// store through the caller's context; nothing is cached between calls.
//
// Errors: ErrRequestNotFound, ErrInvalidStatus and *ValidationError are
// returned as-is. Other failures are logged with operation, request id and
// actor, then surfaced as *StoreError.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/observability"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
)

const creationReason = "Request created"

// CreateRequestInput carries the fields a client may set on creation.
type CreateRequestInput struct {
	ClientName         string     `json:"client_name"                    validate:"required,max=255"`
	ClientEmail        string     `json:"client_email"                   validate:"required,email,max=255"`
	ClientPhone        *string    `json:"client_phone,omitempty"         validate:"omitempty,max=64"`
	ClientCompany      *string    `json:"client_company,omitempty"       validate:"omitempty,max=255"`
	Title              string     `json:"title"                          validate:"required,max=255"`
	Description        string     `json:"description"                    validate:"required,max=10000"`
	Notes              *string    `json:"notes,omitempty"                validate:"omitempty,max=10000"`
	Priority           string     `json:"priority"                       validate:"required"`
	Category           string     `json:"category,omitempty"`
	AssignedEngineerID *uint      `json:"assigned_engineer_id,omitempty"`
	ScheduledDate      *time.Time `json:"scheduled_date,omitempty"`
}

// RequestPatch lists the mutable non-status fields. Nil means unchanged.
// Status and request number can never be patched.
type RequestPatch struct {
	Title              *string    `json:"title,omitempty"                validate:"omitempty,max=255"`
	Description        *string    `json:"description,omitempty"          validate:"omitempty,max=10000"`
	Notes              *string    `json:"notes,omitempty"                validate:"omitempty,max=10000"`
	Category           *string    `json:"category,omitempty"`
	Priority           *string    `json:"priority,omitempty"`
	AssignedEngineerID *uint      `json:"assigned_engineer_id,omitempty"`
	UnassignEngineer   bool       `json:"unassign_engineer,omitempty"`
	ScheduledDate      *time.Time `json:"scheduled_date,omitempty"`
	ClearScheduledDate bool       `json:"clear_scheduled_date,omitempty"`
}

// ListResult is one page of requests plus paging metadata.
type ListResult struct {
	Items      []domain.MaintenanceRequest `json:"items"`
	Total      int64                       `json:"total"`
	Page       int                         `json:"page"`
	Limit      int                         `json:"limit"`
	TotalPages int                         `json:"total_pages"`
	SortBy     string                      `json:"sort_by"`
	SortOrder  string                      `json:"sort_order"`
}

// RequestDetail is a request hydrated with its journal and audit trail.
type RequestDetail struct {
	*domain.MaintenanceRequest
	WorkLogs      []domain.WorkLogEntry       `json:"work_logs"`
	StatusHistory []domain.StatusHistoryEntry `json:"status_history"`
}

// DeleteHook is told about each deleted request after the delete commits.
type DeleteHook func(ctx context.Context, actor domain.Actor, deleted domain.MaintenanceRequest)

// RequestService implements the maintenance request lifecycle.
type RequestService struct {
	DB          *gorm.DB
	Numbers     *NumberGenerator
	Transitions *TransitionRecorder
	Journal     *WorkLogJournal
	Now         func() time.Time

	// WorkLogDetailLimit caps work logs returned by GetRequest; 0 returns all.
	WorkLogDetailLimit int
	OnDelete           DeleteHook
}

// NewRequestService wires the lifecycle components around db and numbers,
// sharing one clock.
func NewRequestService(db *gorm.DB, numbers *NumberGenerator, now func() time.Time) *RequestService {
	if now == nil {
		now = time.Now
	}
	if numbers == nil {
		numbers = &NumberGenerator{Sequence: StoreSequence{}}
	}
	if numbers.Now == nil {
		numbers.Now = now
	}
	return &RequestService{
		DB:                 db,
		Numbers:            numbers,
		Transitions:        &TransitionRecorder{DB: db, Now: now},
		Journal:            &WorkLogJournal{DB: db, Now: now},
		Now:                now,
		WorkLogDetailLimit: 50,
	}
}

// CreateRequest validates in, issues a request number and stores the request
// with its creation history row in one transaction.
func (s *RequestService) CreateRequest(ctx context.Context, actor domain.Actor, in CreateRequestInput) (*domain.MaintenanceRequest, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "CreateRequest",
		trace.WithAttributes(attribute.Int64("actor.id", int64(actor.ID))),
	)
	defer span.End()

	if actor.ID == 0 {
		return nil, invalid("created_by", "is required")
	}
	in.ClientName = sanitizeText(in.ClientName)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	in.ClientPhone = sanitizeOptional(in.ClientPhone)
	in.ClientCompany = sanitizeOptional(in.ClientCompany)
	in.Title = sanitizeText(in.Title)
	in.Description = sanitizeText(in.Description)
	in.Notes = sanitizeOptional(in.Notes)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	priority, ok := domain.ParsePriority(in.Priority)
	if !ok {
		return nil, invalid("priority", "must be one of: Low, Medium, High, Critical")
	}
	category := domain.CategoryGeneral
	if strings.TrimSpace(in.Category) != "" {
		if category, ok = domain.ParseCategory(in.Category); !ok {
			return nil, invalid("category", "must be one of: Hardware, Software, Network, General")
		}
	}

	now := s.now()
	r := &domain.MaintenanceRequest{
		ClientName:         in.ClientName,
		ClientEmail:        in.ClientEmail,
		ClientPhone:        in.ClientPhone,
		ClientCompany:      in.ClientCompany,
		Title:              in.Title,
		Description:        in.Description,
		Notes:              in.Notes,
		Category:           category,
		Priority:           priority,
		Status:             domain.StatusPending,
		ScheduledDate:      utcPtr(in.ScheduledDate),
		AssignedEngineerID: in.AssignedEngineerID,
		CreatedByID:        actor.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkAssignee(ctx, tx, in.AssignedEngineerID); err != nil {
			return err
		}
		number, err := s.Numbers.Generate(ctx, tx, in.ClientName)
		if err != nil {
			return err
		}
		r.RequestNumber = number
		if err := repo.CreateRequest(ctx, tx, r); err != nil {
			return err
		}
		reason := creationReason
		return repo.AppendStatusHistory(ctx, tx, &domain.StatusHistoryEntry{
			RequestID:    r.ID,
			NewStatus:    domain.StatusPending,
			ChangedByID:  actor.ID,
			ChangeReason: &reason,
			ChangedAt:    now,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, storeFailure(ctx, "create_request", 0, actor, err)
	}
	observability.RequestsCreated.Inc()
	span.SetAttributes(attribute.String("request.number", r.RequestNumber))

	created, err := repo.GetRequest(ctx, s.DB, r.ID)
	if err != nil {
		return nil, storeFailure(ctx, "create_request.reload", r.ID, actor, err)
	}
	return created, nil
}

// ListRequests returns one page of requests matching f. Invalid sort or paging
// values fall back to defaults; they never cause an error.
func (s *RequestService) ListRequests(ctx context.Context, f domain.FilterParams) (*ListResult, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "ListRequests",
		trace.WithAttributes(
			attribute.Int("page", f.Page),
			attribute.Int("limit", f.Limit),
			attribute.String("sort_by", f.SortBy),
		),
	)
	defer span.End()

	items, total, q, err := repo.ListRequests(ctx, s.DB, f)
	if err != nil {
		span.RecordError(err)
		return nil, storeFailure(ctx, "list_requests", 0, domain.Actor{}, err)
	}
	pages := 0
	if total > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       q.PageNum,
		Limit:      q.Limit,
		TotalPages: pages,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}, nil
}

// GetRequest loads a request with its latest work logs (newest first) and its
// full status history (oldest first).
func (s *RequestService) GetRequest(ctx context.Context, id uint) (*RequestDetail, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "GetRequest",
		trace.WithAttributes(attribute.Int64("request.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetRequest(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storeFailure(ctx, "get_request", id, domain.Actor{}, err)
	}
	return s.hydrate(ctx, r)
}

// GetRequestByNumber resolves a request number to its detail view. Numbers
// are not store-unique; the oldest request carrying the number wins.
func (s *RequestService) GetRequestByNumber(ctx context.Context, number string) (*RequestDetail, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "GetRequestByNumber",
		trace.WithAttributes(attribute.String("request.number", number)),
	)
	defer span.End()

	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, invalid("request_number", "is required")
	}
	r, err := repo.GetRequestByNumber(ctx, s.DB, number)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storeFailure(ctx, "get_request_by_number", 0, domain.Actor{}, err)
	}
	return s.hydrate(ctx, r)
}

func (s *RequestService) hydrate(ctx context.Context, r *domain.MaintenanceRequest) (*RequestDetail, error) {
	logs, err := repo.ListWorkLogs(ctx, s.DB, r.ID, s.WorkLogDetailLimit)
	if err != nil {
		return nil, storeFailure(ctx, "get_request.work_logs", r.ID, domain.Actor{}, err)
	}
	history, err := repo.ListStatusHistory(ctx, s.DB, r.ID)
	if err != nil {
		return nil, storeFailure(ctx, "get_request.history", r.ID, domain.Actor{}, err)
	}
	return &RequestDetail{MaintenanceRequest: r, WorkLogs: logs, StatusHistory: history}, nil
}

// UpdateRequestFields applies p to request id. An empty patch is a
// validation error.
func (s *RequestService) UpdateRequestFields(ctx context.Context, actor domain.Actor, id uint, p RequestPatch) (*domain.MaintenanceRequest, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "UpdateRequestFields",
		trace.WithAttributes(attribute.Int64("request.id", int64(id))),
	)
	defer span.End()

	updates, err := patchColumns(p)
	if err != nil {
		return nil, err
	}
	updates["updated_at"] = s.now()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !p.UnassignEngineer {
			if err := s.checkAssignee(ctx, tx, p.AssignedEngineerID); err != nil {
				return err
			}
		}
		if err := repo.UpdateRequestColumns(ctx, tx, id, updates); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, storeFailure(ctx, "update_request", id, actor, err)
	}

	r, err := repo.GetRequest(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storeFailure(ctx, "update_request.reload", id, actor, err)
	}
	return r, nil
}

// patchColumns validates p and maps it onto column names.
func patchColumns(p RequestPatch) (map[string]any, error) {
	if p.AssignedEngineerID != nil && p.UnassignEngineer {
		return nil, invalid("assigned_engineer_id", "cannot be set while unassigning")
	}
	if p.ScheduledDate != nil && p.ClearScheduledDate {
		return nil, invalid("scheduled_date", "cannot be set while clearing")
	}
	if err := validateStruct(p); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if p.Title != nil {
		v := sanitizeText(*p.Title)
		if v == "" {
			return nil, invalid("title", "must not be empty")
		}
		updates["title"] = v
	}
	if p.Description != nil {
		v := sanitizeText(*p.Description)
		if v == "" {
			return nil, invalid("description", "must not be empty")
		}
		updates["description"] = v
	}
	if p.Notes != nil {
		updates["notes"] = sanitizeOptional(p.Notes)
	}
	if p.Category != nil {
		c, ok := domain.ParseCategory(*p.Category)
		if !ok {
			return nil, invalid("category", "must be one of: Hardware, Software, Network, General")
		}
		updates["category"] = c
	}
	if p.Priority != nil {
		pr, ok := domain.ParsePriority(*p.Priority)
		if !ok {
			return nil, invalid("priority", "must be one of: Low, Medium, High, Critical")
		}
		updates["priority"] = pr
	}
	switch {
	case p.UnassignEngineer:
		updates["assigned_engineer_id"] = nil
	case p.AssignedEngineerID != nil:
		updates["assigned_engineer_id"] = *p.AssignedEngineerID
	}
	switch {
	case p.ClearScheduledDate:
		updates["scheduled_date"] = nil
	case p.ScheduledDate != nil:
		updates["scheduled_date"] = p.ScheduledDate.UTC()
	}
	if len(updates) == 0 {
		return nil, invalid("", "no updatable fields supplied")
	}
	return updates, nil
}

// TransitionStatus moves request id to newStatus through the recorder.
func (s *RequestService) TransitionStatus(ctx context.Context, actor domain.Actor, id uint, newStatus, reason string, completedDate *time.Time) (*domain.MaintenanceRequest, error) {
	return s.Transitions.Transition(ctx, TransitionCommand{
		RequestID:     id,
		NewStatus:     newStatus,
		Actor:         actor,
		Reason:        reason,
		CompletedDate: completedDate,
	})
}

// AddWorkLog appends an effort entry to request id.
func (s *RequestService) AddWorkLog(ctx context.Context, actor domain.Actor, id uint, in WorkLogInput) (*domain.WorkLogEntry, error) {
	return s.Journal.Append(ctx, actor, id, in)
}

// DeleteRequest removes request id with its history and work logs, then
// notifies OnDelete.
func (s *RequestService) DeleteRequest(ctx context.Context, actor domain.Actor, id uint) error {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "DeleteRequest",
		trace.WithAttributes(attribute.Int64("request.id", int64(id))),
	)
	defer span.End()

	var deleted *domain.MaintenanceRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRequest(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if err := repo.DeleteRequest(ctx, tx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		deleted = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return storeFailure(ctx, "delete_request", id, actor, err)
	}
	if s.OnDelete != nil {
		s.OnDelete(ctx, actor, *deleted)
	}
	return nil
}

// Stats reports the request count and latest update time, for ETags.
func (s *RequestService) Stats(ctx context.Context) (int64, *time.Time, error) {
	count, maxTS, err := repo.RequestsStats(ctx, s.DB)
	if err != nil {
		return 0, nil, storeFailure(ctx, "requests_stats", 0, domain.Actor{}, err)
	}
	return count, maxTS, nil
}

func (s *RequestService) checkAssignee(ctx context.Context, db *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := repo.UserExists(ctx, db, *id)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("assigned_engineer_id", "unknown engineer")
	}
	return nil
}

func (s *RequestService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
