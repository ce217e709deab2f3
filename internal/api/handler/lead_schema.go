package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type updateStatusRequest struct {
	// Status is validated against the closed vocabulary by the service, not
	// here: an unknown value must map to 400 with a domain message.
	Status  string `json:"status"`
	Comment string `json:"comment" validate:"max=2000"`
}

// --- Response types ---
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type authorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type statusLogResponse struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Comment   string         `json:"comment"`
	ChangedBy authorResponse `json:"changed_by"`
	ChangedAt time.Time      `json:"changed_at"`
}

type leadViewResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	AssignedTo   string              `json:"assigned_to"`
	LeadStatus   string              `json:"lead_status"`
	LastFollowUp time.Time           `json:"last_follow_up"`
	UpdatedAt    time.Time           `json:"updated_at"`
	StatusLogs   []statusLogResponse `json:"status_logs"`
}

type updateStatusResponse struct {
	Lead          leadViewResponse `json:"lead"`
	StatusChanged bool             `json:"status_changed"`
	OldStatus     string           `json:"old_status"`
	NewStatus     string           `json:"new_status"`
}

type statusLogsResponse struct {
	StatusLogs []statusLogResponse `json:"status_logs"`
}

// leadSummaryResponse is the lightweight item used in list responses.
// It intentionally omits status_logs to keep payloads small.
type leadSummaryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	AssignedTo   string    `json:"assigned_to"`
	LeadStatus   string    `json:"lead_status"`
	LastFollowUp time.Time `json:"last_follow_up"`
	CreatedAt    time.Time `json:"created_at"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listLeadsResponse struct {
	Data       []leadSummaryResponse `json:"data"`
	Pagination paginationResponse    `json:"pagination"`
}

// activityItemResponse is a status change in the cross-lead activity feed.
type activityItemResponse struct {
	ID        string         `json:"id"`
	LeadID    string         `json:"lead_id"`
	Status    string         `json:"status"`
	Comment   string         `json:"comment"`
	ChangedBy authorResponse `json:"changed_by"`
	ChangedAt time.Time      `json:"changed_at"`
}

type activityResponse struct {
	Activity []activityItemResponse `json:"activity"`
}
