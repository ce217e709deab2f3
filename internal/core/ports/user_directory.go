package ports

import (
	"context"

	"github.com/admitflow/crm-backend/internal/core/domain"
)

// UserDirectory resolves user identities referenced by audit entries.
type UserDirectory interface {
	// FindByIDs returns the users for the given ids, keyed by id. Ids that no
	// longer resolve are simply absent from the map - not an error.
	FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
}
