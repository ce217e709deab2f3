package ports

import (
	"context"
	"time"

	"github.com/admitflow/crm-backend/internal/core/domain"
)

// AuthorView is the resolved author snapshot attached to a log view. Name and
// Email stay empty when the author no longer resolves to a live user.
type AuthorView struct {
	ID    string
	Name  string
	Email string
}

// StatusLogView is a single audit entry annotated with its author.
type StatusLogView struct {
	ID        string
	LeadID    string
	Status    string
	Comment   string
	ChangedBy AuthorView
	ChangedAt time.Time
}

// LeadView is the full read-model of a lead: current identity and status plus
// the complete newest-first change history.
type LeadView struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	AssignedTo   string
	LeadStatus   string
	LastFollowUp time.Time
	UpdatedAt    time.Time
	StatusLogs   []StatusLogView
}

// UpdateStatusInput carries one status-transition request.
type UpdateStatusInput struct {
	Principal domain.Principal
	LeadID    string
	Status    string
	Comment   string
}

// UpdateStatusResult is returned after a transition. StatusChanged is false
// when the requested status equals the lead's previous status; the entry is
// still appended to the trail.
type UpdateStatusResult struct {
	Lead          LeadView
	StatusChanged bool
	OldStatus     string
	NewStatus     string
}

// ListLeadsInput carries all parameters for the list endpoint.
type ListLeadsInput struct {
	Principal domain.Principal
	Status    string
	Search    string
	DateFrom  time.Time
	DateTo    time.Time
	Page      int
	Limit     int
}

// LeadSummary is the lightweight view used in list responses (no history).
type LeadSummary struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	AssignedTo   string
	LeadStatus   string
	LastFollowUp time.Time
	CreatedAt    time.Time
}

// ListLeadsResult is returned by ListLeads.
type ListLeadsResult struct {
	Items      []LeadSummary
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// LeadService defines the use-case operations of the status subsystem.
type LeadService interface {
	// UpdateStatus drives one transition: load, authorize, validate, atomic
	// update + audit append, project.
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error)
	// GetStatusHistory returns a lead's audit trail, newest first, after the
	// same authorization check as UpdateStatus.
	GetStatusHistory(ctx context.Context, principal domain.Principal, leadID string) ([]StatusLogView, error)
	// ListLeads returns a page of leads scoped to the principal's visibility.
	ListLeads(ctx context.Context, input ListLeadsInput) (*ListLeadsResult, error)
	// RecentActivity returns the latest status changes across all leads.
	// Elevated roles only.
	RecentActivity(ctx context.Context, principal domain.Principal, limit int) ([]StatusLogView, error)
}
