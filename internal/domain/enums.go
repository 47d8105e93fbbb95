package domain

import "strings"

// Status is the lifecycle state of a maintenance request.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusOnHold     Status = "On Hold"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every recognized status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus resolves raw (case-insensitive, surrounding space ignored) to a
// canonical Status.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range Statuses {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Priority ranks how urgent a request is.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities lists the recognized priorities from least to most severe.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority resolves raw to a canonical Priority.
func ParsePriority(raw string) (Priority, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range Priorities {
		if strings.EqualFold(raw, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Rank returns 1 (Low) through 4 (Critical), or 0 for an unknown value.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i + 1
		}
	}
	return 0
}

// Category classifies the kind of work requested.
type Category string

const (
	CategoryHardware Category = "Hardware"
	CategorySoftware Category = "Software"
	CategoryNetwork  Category = "Network"
	CategoryGeneral  Category = "General"
)

// Categories lists the recognized categories.
var Categories = []Category{CategoryHardware, CategorySoftware, CategoryNetwork, CategoryGeneral}

// ParseCategory resolves raw to a canonical Category.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}
