package ports

import (
	"context"
	"time"

	"github.com/admitflow/crm-backend/internal/core/domain"
)

// ListLeadsFilter carries all query parameters for listing leads.
// AssignedTo is always enforced by the service layer for non-elevated roles.
type ListLeadsFilter struct {
	AssignedTo string    // empty = no filter (elevated); non-empty = scoped to one counselor
	Status     string    // optional: filter by lead status
	Search     string    // optional: partial match on name, email or phone
	DateFrom   time.Time // optional: created_at >= DateFrom
	DateTo     time.Time // optional: created_at <= DateTo
	Page       int       // 1-based
	Limit      int       // max rows per page (capped at 100 by service)
}

// LeadRepository defines persistence operations for leads. Status mutation is
// not part of this interface: the status update travels with its audit append
// through StatusLogRepository so the two stay in one transaction.
type LeadRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Lead, error)
	// List returns a page of leads matching filter and the total count.
	List(ctx context.Context, filter ListLeadsFilter) ([]*domain.Lead, int64, error)
}
