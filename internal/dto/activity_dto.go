package dto

import "time"

// ActivityLogQuery filters GET /api/activity.
type ActivityLogQuery struct {
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
	EntityID   uint   `query:"entity_id"`
	// Since is a YYYY-MM-DD date; entries from that day onwards are returned.
	Since string `query:"since"`
}

// ActivityEntry is one audit log entry.
type ActivityEntry struct {
	ID         uint           `json:"id"`
	ActorID    uint           `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *uint          `json:"entity_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PaginationMeta describes a page of results.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityLogPage is a page of audit entries.
type ActivityLogPage struct {
	Items      []ActivityEntry `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}
