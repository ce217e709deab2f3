package service

import (
	"github.com/admitflow/crm-backend/internal/core/domain"
)

// AccessGuard decides whether a principal may touch a given lead. The same
// rule governs reads and writes: elevated roles bypass ownership, everyone
// else must be the lead's assignee.
//
// The guard assumes the lead exists - callers check existence first so a
// missing lead surfaces as ErrLeadNotFound, never ErrForbidden.
type AccessGuard struct{}

func NewAccessGuard() *AccessGuard {
	return &AccessGuard{}
}

// Authorize returns nil when the principal may view or modify the lead, and
// domain.ErrForbidden otherwise. Stateless, no I/O.
func (g *AccessGuard) Authorize(principal domain.Principal, lead *domain.Lead) error {
	if principal.Elevated() {
		return nil
	}
	if principal.ID != "" && principal.ID == lead.AssignedTo {
		return nil
	}
	return domain.ErrForbidden
}
