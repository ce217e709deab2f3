package service

import (
	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/ports"
)

// Pure read-model builders. They consume data already fetched by the
// repositories and perform no I/O of their own.

// ProjectLeadView builds the full lead view from a lead, its newest-first
// audit entries, and the resolved authors keyed by user id.
func ProjectLeadView(lead *domain.Lead, entries []domain.StatusLogEntry, authors map[string]domain.User) ports.LeadView {
	return ports.LeadView{
		ID:           lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		AssignedTo:   lead.AssignedTo,
		LeadStatus:   string(lead.LeadStatus),
		LastFollowUp: lead.LastFollowUp,
		UpdatedAt:    lead.UpdatedAt,
		StatusLogs:   ProjectStatusLogs(entries, authors),
	}
}

// ProjectStatusLogs annotates audit entries with author snapshots. Entries
// whose author is absent from the map keep the raw changed_by id with name and
// email left empty.
func ProjectStatusLogs(entries []domain.StatusLogEntry, authors map[string]domain.User) []ports.StatusLogView {
	views := make([]ports.StatusLogView, len(entries))
	for i, e := range entries {
		author := ports.AuthorView{ID: e.ChangedBy}
		if u, ok := authors[e.ChangedBy]; ok {
			author.Name = u.Name
			author.Email = u.Email
		}
		views[i] = ports.StatusLogView{
			ID:        e.ID,
			LeadID:    e.LeadID,
			Status:    string(e.Status),
			Comment:   e.Comment,
			ChangedBy: author,
			ChangedAt: e.ChangedAt,
		}
	}
	return views
}

// authorIDs collects the distinct changed_by ids of a batch of entries,
// preserving first-seen order.
func authorIDs(entries []domain.StatusLogEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ChangedBy]; ok {
			continue
		}
		seen[e.ChangedBy] = struct{}{}
		ids = append(ids, e.ChangedBy)
	}
	return ids
}
