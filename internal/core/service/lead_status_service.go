package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/admitflow/crm-backend/internal/api/metrics"
	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/ports"
)

const (
	defaultPageLimit    = 20
	maxPageLimit        = 100
	defaultActivityFeed = 50
	maxActivityFeed     = 200
)

// LeadStatusService drives lead status transitions and exposes the audit
// trail. Stateless between requests: same-lead write ordering is enforced by
// the persistence layer, not here.
type LeadStatusService struct {
	leads ports.LeadRepository
	logs  ports.StatusLogRepository
	users ports.UserDirectory
	guard *AccessGuard
	log   zerolog.Logger
}

func NewLeadStatusService(
	leads ports.LeadRepository,
	logs ports.StatusLogRepository,
	users ports.UserDirectory,
	guard *AccessGuard,
	log zerolog.Logger,
) *LeadStatusService {
	return &LeadStatusService{leads: leads, logs: logs, users: users, guard: guard, log: log}
}

// UpdateStatus performs one status transition. Any valid status may follow any
// other, including itself: a no-op transition still appends an audit entry and
// comes back with StatusChanged=false.
func (s *LeadStatusService) UpdateStatus(ctx context.Context, input ports.UpdateStatusInput) (*ports.UpdateStatusResult, error) {
	start := time.Now()

	// 1. Load the lead. Existence is checked before authorization so a missing
	// lead is always a 404, never a 403.
	lead, err := s.leads.FindByID(ctx, input.LeadID)
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			metrics.StatusUpdateErrorsTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.StatusUpdateErrorsTotal.WithLabelValues("persistence").Inc()
		return nil, fmt.Errorf("update status: load lead: %w", err)
	}

	// 2. Authorize.
	if err := s.guard.Authorize(input.Principal, lead); err != nil {
		metrics.AccessDeniedTotal.WithLabelValues("update_status").Inc()
		metrics.StatusUpdateErrorsTotal.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	// 3. Validate the target status.
	newStatus, err := domain.ParseLeadStatus(input.Status)
	if err != nil {
		metrics.StatusUpdateErrorsTotal.WithLabelValues("invalid_status").Inc()
		return nil, err
	}

	// 4-6. The prior-status read, the lead-row mutation, and the audit append
	// share one transaction. Concurrent updates to the same lead serialize
	// there, so the prior status each caller reports is the one its own
	// transition actually replaced, not a stale load. A failure here may still
	// have mutated the lead, so log everything needed for manual
	// reconciliation.
	entry, oldStatus, err := s.logs.AppendStatusChange(ctx, lead.ID, newStatus, input.Comment, input.Principal.ID)
	if err != nil {
		metrics.StatusUpdateErrorsTotal.WithLabelValues("persistence").Inc()
		metrics.StatusUpdateDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.log.Error().Err(err).
			Str("lead_id", lead.ID).
			Str("attempted_status", string(newStatus)).
			Str("principal_id", input.Principal.ID).
			Msg("status update failed after authorization, audit trail may need reconciliation")
		return nil, fmt.Errorf("update status: %w", err)
	}

	lead.LeadStatus = newStatus
	lead.LastFollowUp = entry.ChangedAt
	lead.UpdatedAt = entry.ChangedAt

	// 7. Build the full projection.
	view, err := s.projectLead(ctx, lead)
	if err != nil {
		metrics.StatusUpdateErrorsTotal.WithLabelValues("persistence").Inc()
		return nil, err
	}

	changed := oldStatus != newStatus
	metrics.StatusUpdatesTotal.WithLabelValues(string(newStatus), fmt.Sprintf("%t", changed)).Inc()
	metrics.StatusUpdateDuration.WithLabelValues(string(newStatus)).Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("lead_id", lead.ID).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(newStatus)).
		Str("changed_by", input.Principal.ID).
		Bool("status_changed", changed).
		Msg("lead status updated")

	return &ports.UpdateStatusResult{
		Lead:          view,
		StatusChanged: changed,
		OldStatus:     string(oldStatus),
		NewStatus:     string(newStatus),
	}, nil
}

// GetStatusHistory returns a lead's audit trail, newest first. Authorization
// is identical to UpdateStatus: read and write share one rule.
func (s *LeadStatusService) GetStatusHistory(ctx context.Context, principal domain.Principal, leadID string) ([]ports.StatusLogView, error) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("status history: load lead: %w", err)
	}

	if err := s.guard.Authorize(principal, lead); err != nil {
		metrics.AccessDeniedTotal.WithLabelValues("list_history").Inc()
		return nil, err
	}

	entries, err := s.logs.ListForLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}

	authors, err := s.resolveAuthors(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}

	return ProjectStatusLogs(entries, authors), nil
}

// ListLeads returns a page of leads. Elevated roles see every lead; counselors
// only the leads assigned to them.
func (s *LeadStatusService) ListLeads(ctx context.Context, input ports.ListLeadsInput) (*ports.ListLeadsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := ports.ListLeadsFilter{
		Status:   input.Status,
		Search:   input.Search,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Page:     page,
		Limit:    limit,
	}
	if !input.Principal.Elevated() {
		filter.AssignedTo = input.Principal.ID
	}

	leads, total, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	items := make([]ports.LeadSummary, len(leads))
	for i, l := range leads {
		items[i] = ports.LeadSummary{
			ID:           l.ID,
			Name:         l.Name,
			Email:        l.Email,
			Phone:        l.Phone,
			AssignedTo:   l.AssignedTo,
			LeadStatus:   string(l.LeadStatus),
			LastFollowUp: l.LastFollowUp,
			CreatedAt:    l.CreatedAt,
		}
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &ports.ListLeadsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// RecentActivity returns the latest status changes across all leads, newest
// first. Restricted to elevated roles: the feed spans leads the caller does
// not own.
func (s *LeadStatusService) RecentActivity(ctx context.Context, principal domain.Principal, limit int) ([]ports.StatusLogView, error) {
	if !principal.Elevated() {
		metrics.AccessDeniedTotal.WithLabelValues("recent_activity").Inc()
		return nil, domain.ErrForbidden
	}

	if limit <= 0 {
		limit = defaultActivityFeed
	}
	if limit > maxActivityFeed {
		limit = maxActivityFeed
	}

	entries, err := s.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	authors, err := s.resolveAuthors(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	return ProjectStatusLogs(entries, authors), nil
}

// projectLead fetches the lead's trail and authors and builds the full view.
func (s *LeadStatusService) projectLead(ctx context.Context, lead *domain.Lead) (ports.LeadView, error) {
	entries, err := s.logs.ListForLead(ctx, lead.ID)
	if err != nil {
		return ports.LeadView{}, fmt.Errorf("project lead: %w", err)
	}
	authors, err := s.resolveAuthors(ctx, entries)
	if err != nil {
		return ports.LeadView{}, fmt.Errorf("project lead: %w", err)
	}
	return ProjectLeadView(lead, entries, authors), nil
}

// resolveAuthors batch-resolves the authors of a set of entries. Unresolvable
// authors are tolerated: their entries keep the raw changed_by id.
func (s *LeadStatusService) resolveAuthors(ctx context.Context, entries []domain.StatusLogEntry) (map[string]domain.User, error) {
	ids := authorIDs(entries)
	if len(ids) == 0 {
		return nil, nil
	}
	authors, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	return authors, nil
}
