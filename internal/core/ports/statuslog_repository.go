package ports

import (
	"context"

	"github.com/admitflow/crm-backend/internal/core/domain"
)

// StatusLogRepository is the append-only audit store of status changes.
type StatusLogRepository interface {
	// AppendStatusChange atomically reads the lead's prior status, sets the
	// new status, refreshes its last_follow_up and updated_at timestamps, and
	// appends an audit entry. All of it commits or fails as one transaction:
	// the prior status is read inside that critical section, so under
	// concurrent updates each caller gets the status its own transition
	// actually replaced. The returned entry carries the generated id and the
	// server-assigned timestamp, stamped inside the transaction.
	AppendStatusChange(
		ctx context.Context,
		leadID string,
		status domain.LeadStatus,
		comment string,
		changedBy string,
	) (*domain.StatusLogEntry, domain.LeadStatus, error)

	// ListForLead returns the full audit trail of one lead, newest first.
	ListForLead(ctx context.Context, leadID string) ([]domain.StatusLogEntry, error)

	// ListRecent returns the latest status changes across all leads, newest
	// first, limited to at most limit entries.
	ListRecent(ctx context.Context, limit int) ([]domain.StatusLogEntry, error)
}
