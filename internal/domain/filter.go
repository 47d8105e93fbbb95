package domain

// FilterAll is the sentinel value that disables an enum filter.
const FilterAll = "all"

// FilterParams carries the recognized list parameters for maintenance
// requests. Zero values mean "not supplied"; normalization into a safe query
// (allow-listed sort, bounded paging) is done by the query builder.
type FilterParams struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	Category   string `form:"category"`
	AssignedTo *uint  `form:"assignedTo"`
	CreatedBy  *uint  `form:"createdBy"`
	Search     string `form:"search"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// Actor is the authenticated caller as supplied by upstream auth.
type Actor struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}
