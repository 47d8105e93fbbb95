// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file builds and runs the filtered, sorted and paged
// maintenance request listing.
//
// Every user-supplied value is emitted as a positional argument. The only
// text spliced into the SQL is a sort column and direction taken from a fixed
// allow-list, so an unknown sortBy can never reach the database.
package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"gorm.io/gorm"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

// Paging defaults and caps for request listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// DefaultSortBy is used when sortBy is missing or not allow-listed.
const DefaultSortBy = "createdAt"

// sortColumns maps accepted sortBy values to SQL expressions.
var sortColumns = map[string]string{
	"createdAt":     "r.created_at",
	"updatedAt":     "r.updated_at",
	"scheduledDate": "r.scheduled_date",
	"priority":      priorityRankExpr,
	"status":        "r.status",
	"title":         "r.title",
}

// snake_case spellings accepted for the same keys.
var sortAliases = map[string]string{
	"created_at":     "createdAt",
	"updated_at":     "updatedAt",
	"scheduled_date": "scheduledDate",
}

// priorityRankExpr orders by severity instead of alphabetically.
const priorityRankExpr = "CASE r.priority WHEN 'Low' THEN 1 WHEN 'Medium' THEN 2 WHEN 'High' THEN 3 WHEN 'Critical' THEN 4 ELSE 0 END"

// QueryPlan is a parameterized statement ready for execution.
type QueryPlan struct {
	SQL  string
	Args []any
}

// ListQuery is the normalized outcome of BuildRequestQuery.
type ListQuery struct {
	Page      QueryPlan
	Count     QueryPlan
	PageNum   int
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// NormalizeSort resolves sortBy/sortOrder against the allow-list, falling back
// to createdAt and desc.
func NormalizeSort(sortBy, sortOrder string) (string, string) {
	key := strings.TrimSpace(sortBy)
	if alias, ok := sortAliases[key]; ok {
		key = alias
	}
	if _, ok := sortColumns[key]; !ok {
		key = DefaultSortBy
	}
	order := "desc"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		order = "asc"
	}
	return key, order
}

// NormalizePaging replaces non-positive page/limit with defaults and caps the
// limit at MaxLimit.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// BuildRequestQuery turns f into a page plan and a count plan that share the
// same predicates in the same argument order.
func BuildRequestQuery(flavor sqlbuilder.Flavor, f domain.FilterParams) ListQuery {
	sortBy, order := NormalizeSort(f.SortBy, f.SortOrder)
	page, limit := NormalizePaging(f.Page, f.Limit)
	offset := (page - 1) * limit
	dir := strings.ToUpper(order)

	sb := flavor.NewSelectBuilder()
	sb.Select("r.*", "a.name AS assigned_engineer_name", "c.name AS created_by_name")
	sb.From("maintenance_requests AS r")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "users AS a", "a.id = r.assigned_engineer_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "users AS c", "c.id = r.created_by_id")
	if where := predicates(sb, f); len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy(sortColumns[sortBy]+" "+dir, "r.id "+dir)
	sb.Limit(limit).Offset(offset)
	pageSQL, pageArgs := sb.Build()

	countSb := flavor.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("maintenance_requests AS r")
	if where := predicates(countSb, f); len(where) > 0 {
		countSb.Where(where...)
	}
	countSQL, countArgs := countSb.Build()

	return ListQuery{
		Page:      QueryPlan{SQL: pageSQL, Args: pageArgs},
		Count:     QueryPlan{SQL: countSQL, Args: countArgs},
		PageNum:   page,
		Limit:     limit,
		Offset:    offset,
		SortBy:    sortBy,
		SortOrder: order,
	}
}

// predicates returns the WHERE conditions for f, registering values on sb.
func predicates(sb *sqlbuilder.SelectBuilder, f domain.FilterParams) []string {
	var where []string
	if v, ok := enumFilter(f.Status); ok {
		where = append(where, sb.Equal("r.status", v))
	}
	if v, ok := enumFilter(f.Priority); ok {
		where = append(where, sb.Equal("r.priority", v))
	}
	if v, ok := enumFilter(f.Category); ok {
		where = append(where, sb.Equal("r.category", v))
	}
	if f.AssignedTo != nil {
		where = append(where, sb.Equal("r.assigned_engineer_id", *f.AssignedTo))
	}
	if f.CreatedBy != nil {
		where = append(where, sb.Equal("r.created_by_id", *f.CreatedBy))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(searchTerm(sb.Flavor(), term)) + "%"
		where = append(where, sb.Or(
			likeExpr(sb, "r.title", pattern),
			likeExpr(sb, "r.description", pattern),
			likeExpr(sb, "r.notes", pattern),
		))
	}
	return where
}

// enumFilter reports whether an enum filter is active. Empty and "all" are
// not; any other value is compared verbatim.
func enumFilter(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, domain.FilterAll) {
		return "", false
	}
	return v, true
}

// searchTerm folds term on SQLite to match the folded column; PostgreSQL's
// ILIKE compares case-insensitively on its own.
func searchTerm(flavor sqlbuilder.Flavor, term string) string {
	if flavor == sqlbuilder.PostgreSQL {
		return term
	}
	return foldString(term)
}

func likeExpr(sb *sqlbuilder.SelectBuilder, col, pattern string) string {
	if sb.Flavor() == sqlbuilder.PostgreSQL {
		return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, col, sb.Var(pattern))
	}
	return fmt.Sprintf(`%s(%s) LIKE %s ESCAPE '\'`, foldFunc, col, sb.Var(pattern))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// FlavorFor picks the placeholder style matching db's dialect.
func FlavorFor(db *gorm.DB) sqlbuilder.Flavor {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == DriverPostgres {
		return sqlbuilder.PostgreSQL
	}
	return sqlbuilder.SQLite
}

// ListRequests runs the count plan and, when it is non-zero, the page plan.
// Both go through gorm's Raw so callbacks and tracing see them.
func ListRequests(ctx context.Context, db *gorm.DB, f domain.FilterParams) ([]domain.MaintenanceRequest, int64, ListQuery, error) {
	q := BuildRequestQuery(FlavorFor(db), f)

	var total int64
	if err := db.WithContext(ctx).Raw(q.Count.SQL, q.Count.Args...).Scan(&total).Error; err != nil {
		return nil, 0, q, err
	}
	items := []domain.MaintenanceRequest{}
	if total == 0 {
		return items, 0, q, nil
	}

	rows, err := db.WithContext(ctx).Raw(q.Page.SQL, q.Page.Args...).Rows()
	if err != nil {
		return nil, 0, q, err
	}
	defer rows.Close()
	for rows.Next() {
		var r domain.MaintenanceRequest
		if err := db.ScanRows(rows, &r); err != nil {
			return nil, 0, q, err
		}
		items = append(items, r)
	}
	return items, total, q, rows.Err()
}
