package handler

import (
	"github.com/admitflow/crm-backend/internal/core/ports"
)

// --- Service result → HTTP response ---

func toUpdateStatusResponse(r *ports.UpdateStatusResult) updateStatusResponse {
	return updateStatusResponse{
		Lead:          toLeadViewResponse(r.Lead),
		StatusChanged: r.StatusChanged,
		OldStatus:     r.OldStatus,
		NewStatus:     r.NewStatus,
	}
}

func toLeadViewResponse(v ports.LeadView) leadViewResponse {
	return leadViewResponse{
		ID:           v.ID,
		Name:         v.Name,
		Email:        v.Email,
		Phone:        v.Phone,
		AssignedTo:   v.AssignedTo,
		LeadStatus:   v.LeadStatus,
		LastFollowUp: v.LastFollowUp.UTC(),
		UpdatedAt:    v.UpdatedAt.UTC(),
		StatusLogs:   toStatusLogResponses(v.StatusLogs),
	}
}

func toStatusLogResponses(views []ports.StatusLogView) []statusLogResponse {
	out := make([]statusLogResponse, len(views))
	for i, v := range views {
		out[i] = statusLogResponse{
			ID:        v.ID,
			Status:    v.Status,
			Comment:   v.Comment,
			ChangedBy: toAuthorResponse(v.ChangedBy),
			ChangedAt: v.ChangedAt.UTC(),
		}
	}
	return out
}

func toAuthorResponse(a ports.AuthorView) authorResponse {
	return authorResponse{ID: a.ID, Name: a.Name, Email: a.Email}
}

func toListLeadsResponse(r *ports.ListLeadsResult) listLeadsResponse {
	items := make([]leadSummaryResponse, len(r.Items))
	for i, l := range r.Items {
		items[i] = leadSummaryResponse{
			ID:           l.ID,
			Name:         l.Name,
			Email:        l.Email,
			Phone:        l.Phone,
			AssignedTo:   l.AssignedTo,
			LeadStatus:   l.LeadStatus,
			LastFollowUp: l.LastFollowUp.UTC(),
			CreatedAt:    l.CreatedAt.UTC(),
		}
	}
	return listLeadsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toActivityResponse(views []ports.StatusLogView) activityResponse {
	items := make([]activityItemResponse, len(views))
	for i, v := range views {
		items[i] = activityItemResponse{
			ID:        v.ID,
			LeadID:    v.LeadID,
			Status:    v.Status,
			Comment:   v.Comment,
			ChangedBy: toAuthorResponse(v.ChangedBy),
			ChangedAt: v.ChangedAt.UTC(),
		}
	}
	return activityResponse{Activity: items}
}
