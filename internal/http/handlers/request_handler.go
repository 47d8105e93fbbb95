// Maintenance request HTTP handlers.
//
// This file exposes REST endpoints for maintenance requests:
//   - POST   /requests                    (create, Idempotency-Key aware)
//   - GET    /requests                    (filter/sort/page, weak ETag)
//   - GET    /requests/{id}               (detail with work logs and history)
//   - GET    /requests/by-number/{number} (detail by request number)
//   - PATCH  /requests/{id}               (update non-status fields)
//   - POST   /requests/{id}/status        (status transition)
//   - POST   /requests/{id}/work-logs     (append a work log entry)
//   - DELETE /requests/{id}
//
// Handlers are transport-thin: they parse input, call the request service
// and map service errors onto the standard error envelope.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/http/middleware"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
	"github.com/Izzudinalqassam/techops-dashboard/internal/services"
	"github.com/Izzudinalqassam/techops-dashboard/internal/utils"
)

// RequestService is the lifecycle facade consumed by the handlers.
// *services.RequestService satisfies it.
type RequestService interface {
	CreateRequest(ctx context.Context, actor domain.Actor, in services.CreateRequestInput) (*domain.MaintenanceRequest, error)
	ListRequests(ctx context.Context, f domain.FilterParams) (*services.ListResult, error)
	GetRequest(ctx context.Context, id uint) (*services.RequestDetail, error)
	GetRequestByNumber(ctx context.Context, number string) (*services.RequestDetail, error)
	UpdateRequestFields(ctx context.Context, actor domain.Actor, id uint, p services.RequestPatch) (*domain.MaintenanceRequest, error)
	TransitionStatus(ctx context.Context, actor domain.Actor, id uint, newStatus, reason string, completedDate *time.Time) (*domain.MaintenanceRequest, error)
	AddWorkLog(ctx context.Context, actor domain.Actor, id uint, in services.WorkLogInput) (*domain.WorkLogEntry, error)
	DeleteRequest(ctx context.Context, actor domain.Actor, id uint) error
	// Stats returns the request count and latest updated_at, for ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// IdempotencyStore remembers which request a (actor, scope, key) created.
// Find returns repo.ErrNotFound when nothing live is stored.
type IdempotencyStore interface {
	Find(ctx context.Context, actorID uint, scope, key string, now time.Time) (*domain.Idempotency, error)
	Save(ctx context.Context, actorID uint, scope, key string, resourceID uint, status int, now time.Time) error
}

// RequestHandler serves the maintenance request endpoints.
type RequestHandler struct {
	svc  RequestService
	idem IdempotencyStore
	now  func() time.Time
}

// NewRequestHandler binds the handlers to svc. idem may be nil, in which case
// Idempotency-Key is validated but not honored.
func NewRequestHandler(svc RequestService, idem IdempotencyStore) *RequestHandler {
	return &RequestHandler{svc: svc, idem: idem, now: func() time.Time { return time.Now().UTC() }}
}

//
// DTOs
//

// TransitionRequest is the JSON payload for a status change.
type TransitionRequest struct {
	Status        string     `json:"status" example:"In Progress"`
	Reason        string     `json:"reason,omitempty" example:"Engineer assigned"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// Pagination carries paging metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// Sort echoes the sort actually applied, after allow-listing.
type Sort struct {
	By    string `json:"by" example:"createdAt"`
	Order string `json:"order" example:"desc"`
}

// ListRequestsResponse wraps one page of requests.
type ListRequestsResponse struct {
	Requests   []domain.MaintenanceRequest `json:"requests"`
	Pagination Pagination                  `json:"pagination"`
	Sort       Sort                        `json:"sort"`
}

//
// Helpers
//

func actorOrFail(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing or invalid "+middleware.HeaderUserID)
	}
	return a, ok
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// filterFromQuery reads list parameters. Unparseable page/limit fall back to
// defaults like any other out-of-range value; the query builder does the rest.
func filterFromQuery(c *gin.Context) (domain.FilterParams, error) {
	f := domain.FilterParams{
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      utils.AtoiDefault(c.Query("page"), repo.DefaultPage),
		Limit:     utils.AtoiDefault(c.Query("limit"), repo.DefaultLimit),
	}
	var err error
	if f.AssignedTo, err = utils.ParseOptionalUint(c.Query("assignedTo")); err != nil {
		return f, errors.New("assignedTo must be a user id")
	}
	if f.CreatedBy, err = utils.ParseOptionalUint(c.Query("createdBy")); err != nil {
		return f, errors.New("createdBy must be a user id")
	}
	return f, nil
}

// listETag fingerprints the table state together with the normalized query.
func listETag(count int64, maxUpdated *time.Time, f domain.FilterParams) string {
	sortBy, order := repo.NormalizeSort(f.SortBy, f.SortOrder)
	page, limit := repo.NormalizePaging(f.Page, f.Limit)

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%d|%d",
		f.Status, f.Priority, f.Category, strings.TrimSpace(f.Search), sortBy, order,
		uintKey(f.AssignedTo)+","+uintKey(f.CreatedBy), page, limit)

	var ts int64
	if maxUpdated != nil {
		ts = maxUpdated.UnixNano()
	}
	return fmt.Sprintf(`W/"requests:%d:%d:%x"`, count, ts, h.Sum64())
}

func uintKey(p *uint) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*p), 10)
}

// failFrom maps a service error to the error envelope. Only caller-actionable
// messages are echoed; everything else becomes a generic 500.
func failFrom(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrRequestNotFound.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, ErrCodeValidation, verr.Error())
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, services.ErrValidation.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

//
// Handlers
//

// CreateRequest godoc
// @ID          createRequest
// @Summary     Create a maintenance request
// @Description Creates a request in Pending status and assigns its request number. Supports idempotency via the Idempotency-Key header (same key → same request).
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  int     true  "Acting user id"  example(1)
// @Param       X-User-Role      header  string  false "Acting user role"  example(admin)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    services.CreateRequestInput  true  "Request payload"
//
// @Success     201  {object}  domain.MaintenanceRequest
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous identical request"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, valid := actorOrFail(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()
	scope := middleware.IdempotencyScope(c)
	key, hasKey := middleware.GetIdempotencyKey(c)

	if hasKey && h.idem != nil && middleware.IsReplay(c) {
		if rec, err := h.idem.Find(ctx, actor.ID, scope, key, h.now()); err == nil {
			if prior, err := h.svc.GetRequest(ctx, rec.ResourceID); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, rec.Status, prior.MaintenanceRequest)
				return
			}
		}
	}

	var in services.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	req, err := h.svc.CreateRequest(ctx, actor, in)
	if err != nil {
		failFrom(c, err)
		return
	}

	if hasKey && h.idem != nil {
		if err := h.idem.Save(ctx, actor.ID, scope, key, req.ID, http.StatusCreated, h.now()); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Uint("request_id", req.ID).Msg("idempotency record not saved")
		}
	}
	ok(c, http.StatusCreated, req)
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List maintenance requests
// @Description Filters, sorts and pages requests. Unknown sortBy falls back to createdAt; "all" disables an enum filter. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID      header  int     true  "Acting user id"  example(1)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Status filter"  Enums(all, Pending, In Progress, On Hold, Completed, Cancelled)
// @Param       priority       query   string  false "Priority filter"  Enums(all, Low, Medium, High, Critical)
// @Param       category       query   string  false "Category filter"
// @Param       assignedTo     query   int     false "Assigned engineer id"
// @Param       createdBy      query   int     false "Creator id"
// @Param       search         query   string  false "Case-insensitive match on title, description and notes"
// @Param       sortBy         query   string  false "Sort key"  Enums(createdAt, updatedAt, scheduledDate, priority, status, title)
// @Param       sortOrder      query   string  false "Sort direction"  Enums(asc, desc)
// @Param       page           query   int     false "Page number"  minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object}  handlers.ListRequestsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := filterFromQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	// ETag pre-check is best effort; a stats failure just skips it.
	if count, maxTS, err := h.svc.Stats(ctx); err == nil {
		etag := listETag(count, maxTS, f)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	res, err := h.svc.ListRequests(ctx, f)
	if err != nil {
		failFrom(c, err)
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{
		Requests: res.Items,
		Pagination: Pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
			HasNext:    res.Page < res.TotalPages,
		},
		Sort: Sort{By: res.SortBy, Order: res.SortOrder},
	})
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Get a maintenance request
// @Description Returns the request with its work logs (newest first) and status history (oldest first).
// @Tags        Requests
// @Produce     json
// @Param       X-User-ID  header  int  true  "Acting user id"  example(1)
// @Param       id         path    int  true  "Request id"  example(42)
// @Success     200  {object}  services.RequestDetail
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	detail, err := h.svc.GetRequest(c.Request.Context(), id)
	if err != nil {
		failFrom(c, err)
		return
	}
	ok(c, http.StatusOK, detail)
}

// GetRequestByNumber godoc
// @ID          getRequestByNumber
// @Summary     Get a maintenance request by number
// @Tags        Requests
// @Produce     json
// @Param       X-User-ID  header  int     true  "Acting user id"  example(1)
// @Param       number     path    string  true  "Request number"  example(MR-ACX-20240115-001)
// @Success     200  {object}  services.RequestDetail
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /requests/by-number/{number} [get]
func (h *RequestHandler) GetRequestByNumber(c *gin.Context) {
	detail, err := h.svc.GetRequestByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		failFrom(c, err)
		return
	}
	ok(c, http.StatusOK, detail)
}

// UpdateRequest godoc
// @ID          updateRequest
// @Summary     Update request fields
// @Description Patches non-status fields. Status changes go through the status endpoint; the request number is immutable.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  int  true  "Acting user id"  example(1)
// @Param       id         path    int  true  "Request id"  example(42)
// @Param       body       body    services.RequestPatch  true  "Fields to change"
// @Success     200  {object}  domain.MaintenanceRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id} [patch]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	actor, valid := actorOrFail(c)
	if !valid {
		return
	}
	id, valid := idParam(c)
	if !valid {
		return
	}
	var p services.RequestPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	req, err := h.svc.UpdateRequestFields(c.Request.Context(), actor, id, p)
	if err != nil {
		failFrom(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// TransitionStatus godoc
// @ID          transitionStatus
// @Summary     Change request status
// @Description Sets the status and appends one status history row atomically. Any status may follow any other.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  int  true  "Acting user id"  example(1)
// @Param       id         path    int  true  "Request id"  example(42)
// @Param       body       body    handlers.TransitionRequest  true  "Target status"
// @Success     200  {object}  domain.MaintenanceRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/status [post]
func (h *RequestHandler) TransitionStatus(c *gin.Context) {
	actor, valid := actorOrFail(c)
	if !valid {
		return
	}
	id, valid := idParam(c)
	if !valid {
		return
	}
	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	req, err := h.svc.TransitionStatus(c.Request.Context(), actor, id, body.Status, body.Reason, body.CompletedDate)
	if err != nil {
		failFrom(c, err)
		return
	}
	ok(c, http.StatusOK, req)
}

// AddWorkLog godoc
// @ID          addWorkLog
// @Summary     Append a work log entry
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  int  true  "Acting user id"  example(2)
// @Param       id         path    int  true  "Request id"  example(42)
// @Param       body       body    services.WorkLogInput  true  "Work log entry"
// @Success     201  {object}  domain.WorkLogEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/work-logs [post]
func (h *RequestHandler) AddWorkLog(c *gin.Context) {
	actor, valid := actorOrFail(c)
	if !valid {
		return
	}
	id, valid := idParam(c)
	if !valid {
		return
	}
	var in services.WorkLogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	entry, err := h.svc.AddWorkLog(c.Request.Context(), actor, id, in)
	if err != nil {
		failFrom(c, err)
		return
	}
	ok(c, http.StatusCreated, entry)
}

// DeleteRequest godoc
// @ID          deleteRequest
// @Summary     Delete a maintenance request
// @Description Removes the request together with its work logs and status history.
// @Tags        Requests
// @Param       X-User-ID  header  int  true  "Acting user id"  example(1)
// @Param       id         path    int  true  "Request id"  example(42)
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	actor, valid := actorOrFail(c)
	if !valid {
		return
	}
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svc.DeleteRequest(c.Request.Context(), actor, id); err != nil {
		failFrom(c, err)
		return
	}
	noContent(c)
}
