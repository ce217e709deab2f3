package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubLeadRepo struct {
	byID      map[string]*domain.Lead
	findErr   error
	afterFind func() // called after a successful FindByID, for gating tests
}

func newStubLeadRepo(leads ...*domain.Lead) *stubLeadRepo {
	r := &stubLeadRepo{byID: make(map[string]*domain.Lead)}
	for _, l := range leads {
		clone := *l
		r.byID[l.ID] = &clone
	}
	return r
}

func (r *stubLeadRepo) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	clone := *l
	if r.afterFind != nil {
		r.afterFind()
	}
	return &clone, nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubLeadRepo) List(_ context.Context, f ports.ListLeadsFilter) ([]*domain.Lead, int64, error) {
	var matched []*domain.Lead
	for _, l := range r.byID {
		if f.AssignedTo != "" && l.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Status != "" && string(l.LeadStatus) != f.Status {
			continue
		}
		if f.Search != "" {
			nameMatch := strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.Search))
			emailMatch := strings.Contains(strings.ToLower(l.Email), strings.ToLower(f.Search))
			if !nameMatch && !emailMatch {
				continue
			}
		}
		clone := *l
		matched = append(matched, &clone)
	}

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return nil, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

// stubLogRepo mirrors the transactional contract of the Mongo repository: one
// locked step reads the prior status, mutates the lead row, and records the
// entry, so interleaved appends each see the status they actually replaced.
type stubLogRepo struct {
	mu        sync.Mutex
	leads     *stubLeadRepo
	byLead    map[string][]domain.StatusLogEntry // newest first
	all       []domain.StatusLogEntry            // newest first, across leads
	appendErr error
	seq       int
}

func newStubLogRepo(leads *stubLeadRepo) *stubLogRepo {
	return &stubLogRepo{leads: leads, byLead: make(map[string][]domain.StatusLogEntry)}
}

func (r *stubLogRepo) AppendStatusChange(
	_ context.Context,
	leadID string,
	status domain.LeadStatus,
	comment string,
	changedBy string,
) (*domain.StatusLogEntry, domain.LeadStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return nil, "", r.appendErr
	}
	lead, ok := r.leads.byID[leadID]
	if !ok {
		return nil, "", domain.ErrLeadNotFound
	}
	prior := lead.LeadStatus

	r.seq++
	entry := domain.StatusLogEntry{
		ID:        fmt.Sprintf("log_%d", r.seq),
		LeadID:    leadID,
		Status:    status,
		Comment:   comment,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
	}

	lead.LeadStatus = status
	lead.LastFollowUp = entry.ChangedAt
	lead.UpdatedAt = entry.ChangedAt

	r.byLead[leadID] = append([]domain.StatusLogEntry{entry}, r.byLead[leadID]...)
	r.all = append([]domain.StatusLogEntry{entry}, r.all...)
	return &entry, prior, nil
}

func (r *stubLogRepo) ListForLead(_ context.Context, leadID string) ([]domain.StatusLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StatusLogEntry(nil), r.byLead[leadID]...), nil
}

func (r *stubLogRepo) ListRecent(_ context.Context, limit int) ([]domain.StatusLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.all) {
		limit = len(r.all)
	}
	return append([]domain.StatusLogEntry(nil), r.all[:limit]...), nil
}

type stubUserDir struct {
	users map[string]domain.User
	err   error
}

func (d *stubUserDir) FindByIDs(_ context.Context, ids []string) (map[string]domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make(map[string]domain.User)
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var (
	admin     = domain.Principal{ID: "user_admin", Name: "Admin", Role: domain.RoleAdmin}
	counselor = domain.Principal{ID: "user_c1", Name: "Counselor One", Role: domain.RoleCounselor}
	outsider  = domain.Principal{ID: "user_c2", Name: "Counselor Two", Role: domain.RoleCounselor}
)

func newFixture(leads ...*domain.Lead) (*LeadStatusService, *stubLeadRepo, *stubLogRepo) {
	leadRepo := newStubLeadRepo(leads...)
	logRepo := newStubLogRepo(leadRepo)
	users := &stubUserDir{users: map[string]domain.User{
		"user_admin": {ID: "user_admin", Name: "Admin", Email: "admin@example.com"},
		"user_c1":    {ID: "user_c1", Name: "Counselor One", Email: "c1@example.com"},
	}}
	svc := NewLeadStatusService(leadRepo, logRepo, users, NewAccessGuard(), discardLogger)
	return svc, leadRepo, logRepo
}

func newLead(id, assignedTo string, status domain.LeadStatus) *domain.Lead {
	return &domain.Lead{
		ID:         id,
		Name:       "Ravi Kumar",
		Email:      "ravi@example.com",
		Phone:      "+91 98765 43210",
		AssignedTo: assignedTo,
		LeadStatus: status,
		CreatedAt:  time.Now().UTC().Add(-24 * time.Hour),
	}
}

// ---------------------------------------------------------------------------
// UpdateStatus
// ---------------------------------------------------------------------------

func TestUpdateStatus_AllValidStatuses(t *testing.T) {
	for _, target := range []string{"New", "Interested", "Not Interested", "Partial"} {
		svc, leadRepo, _ := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

		result, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
			Principal: admin,
			LeadID:    "lead_1",
			Status:    target,
		})
		if err != nil {
			t.Fatalf("UpdateStatus(%q) unexpected error: %v", target, err)
		}
		if result.NewStatus != target {
			t.Errorf("NewStatus = %q, want %q", result.NewStatus, target)
		}
		if got := string(leadRepo.byID["lead_1"].LeadStatus); got != target {
			t.Errorf("stored lead status = %q, want %q", got, target)
		}
		if result.Lead.LeadStatus != target {
			t.Errorf("projected lead status = %q, want %q", result.Lead.LeadStatus, target)
		}
	}
}

func TestUpdateStatus_InvalidStatusLeavesEverythingUnchanged(t *testing.T) {
	svc, leadRepo, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	_, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: admin,
		LeadID:    "lead_1",
		Status:    "Bogus",
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if leadRepo.byID["lead_1"].LeadStatus != domain.StatusNew {
		t.Error("lead must be unchanged after invalid status")
	}
	if len(logRepo.byLead["lead_1"]) != 0 {
		t.Error("no audit entry must be written for invalid status")
	}
}

func TestUpdateStatus_LeadNotFound(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: admin,
		LeadID:    "missing",
		Status:    "Interested",
	})
	if !errors.Is(err, domain.ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestUpdateStatus_NonAssignedCounselorDenied(t *testing.T) {
	svc, leadRepo, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	_, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: outsider,
		LeadID:    "lead_1",
		Status:    "Interested",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if leadRepo.byID["lead_1"].LeadStatus != domain.StatusNew {
		t.Error("lead must be unchanged after denial")
	}
	if len(logRepo.byLead["lead_1"]) != 0 {
		t.Error("no audit entry must be written after denial")
	}
}

func TestUpdateStatus_AssigneeAllowed(t *testing.T) {
	svc, _, _ := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	result, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: counselor,
		LeadID:    "lead_1",
		Status:    "Partial",
		Comment:   "application half done",
	})
	if err != nil {
		t.Fatalf("assignee update failed: %v", err)
	}
	if !result.StatusChanged {
		t.Error("expected StatusChanged=true")
	}
	if result.Lead.StatusLogs[0].Comment != "application half done" {
		t.Errorf("comment lost: %+v", result.Lead.StatusLogs[0])
	}
}

func TestUpdateStatus_NoOpTransitionStillLogged(t *testing.T) {
	svc, _, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusInterested))

	result, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: admin,
		LeadID:    "lead_1",
		Status:    "Interested",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StatusChanged {
		t.Error("re-affirmation must report StatusChanged=false")
	}
	if result.OldStatus != "Interested" || result.NewStatus != "Interested" {
		t.Errorf("old/new mismatch: %q -> %q", result.OldStatus, result.NewStatus)
	}
	if len(logRepo.byLead["lead_1"]) != 1 {
		t.Fatalf("no-op transition must still append an entry, got %d", len(logRepo.byLead["lead_1"]))
	}
}

func TestUpdateStatus_HistoryGrowsNewestFirst(t *testing.T) {
	svc, leadRepo, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	sequence := []string{"Interested", "Partial", "Not Interested", "Interested"}
	for _, s := range sequence {
		if _, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
			Principal: admin,
			LeadID:    "lead_1",
			Status:    s,
		}); err != nil {
			t.Fatalf("update to %q failed: %v", s, err)
		}
	}

	entries := logRepo.byLead["lead_1"]
	if len(entries) != len(sequence) {
		t.Fatalf("expected %d entries, got %d", len(sequence), len(entries))
	}
	// Newest first: the head of the trail matches the lead's current status.
	if entries[0].Status != leadRepo.byID["lead_1"].LeadStatus {
		t.Errorf("newest entry %q != current status %q", entries[0].Status, leadRepo.byID["lead_1"].LeadStatus)
	}
	for i, s := range sequence {
		if got := string(entries[len(sequence)-1-i].Status); got != s {
			t.Errorf("entry %d = %q, want %q", i, got, s)
		}
	}
}

func TestUpdateStatus_PersistenceFailureSurfaced(t *testing.T) {
	svc, _, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))
	logRepo.appendErr = errors.New("transaction aborted")

	_, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: admin,
		LeadID:    "lead_1",
		Status:    "Interested",
	})
	if err == nil {
		t.Fatal("expected error when append fails")
	}
	if errors.Is(err, domain.ErrInvalidStatus) || errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrLeadNotFound) {
		t.Fatalf("persistence failure must not map to a client error, got %v", err)
	}
}

// Concrete end-to-end scenario: counselor transition then admin re-affirmation.
func TestUpdateStatus_CounselorThenAdminScenario(t *testing.T) {
	svc, _, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	first, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: counselor,
		LeadID:    "lead_1",
		Status:    "Interested",
		Comment:   "called, follow up Friday",
	})
	if err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if !first.StatusChanged || first.OldStatus != "New" || first.NewStatus != "Interested" {
		t.Errorf("first result wrong: %+v", first)
	}
	if len(first.Lead.StatusLogs) != 1 {
		t.Fatalf("expected 1 entry after first update, got %d", len(first.Lead.StatusLogs))
	}

	second, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: admin,
		LeadID:    "lead_1",
		Status:    "Interested",
	})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if second.StatusChanged {
		t.Error("second update must report StatusChanged=false")
	}
	if len(second.Lead.StatusLogs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(second.Lead.StatusLogs))
	}
	for _, e := range logRepo.byLead["lead_1"] {
		if e.Status != domain.StatusInterested {
			t.Errorf("both entries must show Interested, got %q", e.Status)
		}
	}
	// Empty comment is stored as empty string, never dropped.
	if second.Lead.StatusLogs[0].Comment != "" {
		t.Errorf("expected empty comment, got %q", second.Lead.StatusLogs[0].Comment)
	}
}

// Two requests race on the same lead: both load it while it is still New, then
// both move it to Interested. The prior status is read inside the append's
// critical section, so exactly one caller may observe a real transition.
func TestUpdateStatus_ConcurrentSameLeadOnlyOneTransition(t *testing.T) {
	svc, leadRepo, logRepo := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	// Hold both requests at the load step until each has seen the stale lead.
	var bothLoaded sync.WaitGroup
	bothLoaded.Add(2)
	leadRepo.afterFind = func() {
		bothLoaded.Done()
		bothLoaded.Wait()
	}

	results := make(chan *ports.UpdateStatusResult, 2)
	for i := 0; i < 2; i++ {
		go func() {
			result, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
				Principal: admin,
				LeadID:    "lead_1",
				Status:    "Interested",
			})
			if err != nil {
				t.Errorf("concurrent update failed: %v", err)
			}
			results <- result
		}()
	}

	changedCount := 0
	for i := 0; i < 2; i++ {
		result := <-results
		if result == nil {
			t.Fatal("missing result")
		}
		if result.StatusChanged {
			changedCount++
			if result.OldStatus != "New" {
				t.Errorf("transition must report the replaced status, got old=%q", result.OldStatus)
			}
		} else if result.OldStatus != "Interested" {
			t.Errorf("re-affirmation must report old=Interested, got %q", result.OldStatus)
		}
	}
	if changedCount != 1 {
		t.Fatalf("expected exactly 1 StatusChanged=true, got %d", changedCount)
	}
	if len(logRepo.byLead["lead_1"]) != 2 {
		t.Fatalf("both updates must be audited, got %d entries", len(logRepo.byLead["lead_1"]))
	}
	if leadRepo.byID["lead_1"].LeadStatus != domain.StatusInterested {
		t.Errorf("final status = %q, want Interested", leadRepo.byID["lead_1"].LeadStatus)
	}
}

// ---------------------------------------------------------------------------
// GetStatusHistory
// ---------------------------------------------------------------------------

func TestGetStatusHistory_ResolvesAuthors(t *testing.T) {
	svc, _, _ := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	if _, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
		Principal: counselor,
		LeadID:    "lead_1",
		Status:    "Interested",
	}); err != nil {
		t.Fatalf("seed update failed: %v", err)
	}

	logs, err := svc.GetStatusHistory(context.Background(), admin, "lead_1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
	if logs[0].ChangedBy.Name != "Counselor One" || logs[0].ChangedBy.Email != "c1@example.com" {
		t.Errorf("author not resolved: %+v", logs[0].ChangedBy)
	}
}

func TestGetStatusHistory_UnresolvableAuthorKeepsRawID(t *testing.T) {
	leadRepo := newStubLeadRepo(newLead("lead_1", "user_c1", domain.StatusNew))
	logRepo := newStubLogRepo(leadRepo)
	svc := NewLeadStatusService(leadRepo, logRepo, &stubUserDir{}, NewAccessGuard(), discardLogger)

	if _, _, err := logRepo.AppendStatusChange(context.Background(), "lead_1", domain.StatusInterested, "", "user_deleted"); err != nil {
		t.Fatalf("seed append failed: %v", err)
	}

	logs, err := svc.GetStatusHistory(context.Background(), admin, "lead_1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if logs[0].ChangedBy.ID != "user_deleted" || logs[0].ChangedBy.Name != "" {
		t.Errorf("expected raw id with no derived fields, got %+v", logs[0].ChangedBy)
	}
}

func TestGetStatusHistory_DeniedForOutsider(t *testing.T) {
	svc, _, _ := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	_, err := svc.GetStatusHistory(context.Background(), outsider, "lead_1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGetStatusHistory_LeadNotFound(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.GetStatusHistory(context.Background(), admin, "missing")
	if !errors.Is(err, domain.ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ListLeads / RecentActivity
// ---------------------------------------------------------------------------

func TestListLeads_CounselorScopedToOwnLeads(t *testing.T) {
	l1 := newLead("lead_1", "user_c1", domain.StatusNew)
	l2 := newLead("lead_2", "user_c2", domain.StatusNew)
	svc, _, _ := newFixture(l1, l2)

	result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{Principal: counselor})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 {
		t.Fatalf("expected 1 lead, got total=%d items=%d", result.Total, len(result.Items))
	}
	if result.Items[0].ID != "lead_1" {
		t.Errorf("wrong lead: %+v", result.Items[0])
	}
}

func TestListLeads_ElevatedSeesAll(t *testing.T) {
	svc, _, _ := newFixture(
		newLead("lead_1", "user_c1", domain.StatusNew),
		newLead("lead_2", "user_c2", domain.StatusNew),
	)

	result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{Principal: admin})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("expected total=2, got %d", result.Total)
	}
}

func TestListLeads_LimitCapped(t *testing.T) {
	svc, _, _ := newFixture(newLead("lead_1", "user_c1", domain.StatusNew))

	result, err := svc.ListLeads(context.Background(), ports.ListLeadsInput{Principal: admin, Limit: 10_000})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Limit != maxPageLimit {
		t.Errorf("limit not capped: %d", result.Limit)
	}
	if result.Page != 1 {
		t.Errorf("page must default to 1, got %d", result.Page)
	}
}

func TestRecentActivity_CounselorDenied(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.RecentActivity(context.Background(), counselor, 10)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRecentActivity_NewestFirstAcrossLeads(t *testing.T) {
	svc, _, _ := newFixture(
		newLead("lead_1", "user_c1", domain.StatusNew),
		newLead("lead_2", "user_c1", domain.StatusNew),
	)

	for _, update := range []struct{ lead, status string }{
		{"lead_1", "Interested"},
		{"lead_2", "Partial"},
		{"lead_1", "Not Interested"},
	} {
		if _, err := svc.UpdateStatus(context.Background(), ports.UpdateStatusInput{
			Principal: admin,
			LeadID:    update.lead,
			Status:    update.status,
		}); err != nil {
			t.Fatalf("seed update failed: %v", err)
		}
	}

	feed, err := svc.RecentActivity(context.Background(), admin, 2)
	if err != nil {
		t.Fatalf("activity failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(feed))
	}
	if feed[0].LeadID != "lead_1" || feed[0].Status != "Not Interested" {
		t.Errorf("newest entry wrong: %+v", feed[0])
	}
	if feed[1].LeadID != "lead_2" || feed[1].Status != "Partial" {
		t.Errorf("second entry wrong: %+v", feed[1])
	}
}
