package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/ports"
)

const collectionStatusLogs = "status_logs"

// StatusLogRepository implements ports.StatusLogRepository using MongoDB.
// The lead-row mutation and its audit append run inside one session
// transaction, which is what serializes conflicting writes against the same
// lead: concurrent transactions touching the same lead document abort on
// write conflict and are retried by the driver's transaction helper.
type StatusLogRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewStatusLogRepository(client *mongo.Client, db *mongo.Database) *StatusLogRepository {
	return &StatusLogRepository{client: client, db: db}
}

var _ ports.StatusLogRepository = (*StatusLogRepository)(nil)

type appendResult struct {
	entry *domain.StatusLogEntry
	prior domain.LeadStatus
}

// AppendStatusChange atomically reads the lead's prior status, sets the new
// status, refreshes its timestamps, and inserts the audit entry. Audit entries
// are insert-only: nothing in this repository updates or deletes a status_logs
// document.
func (r *StatusLogRepository) AppendStatusChange(
	ctx context.Context,
	leadID string,
	status domain.LeadStatus,
	comment string,
	changedBy string,
) (*domain.StatusLogEntry, domain.LeadStatus, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, "", fmt.Errorf("append status change: start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// Stamped per attempt: a transaction retried after a write conflict
		// must not carry a stale timestamp, or changed_at order could diverge
		// from commit order.
		at := time.Now().UTC()
		entry := &domain.StatusLogEntry{
			ID:        uuid.NewString(),
			LeadID:    leadID,
			Status:    status,
			Comment:   comment,
			ChangedBy: changedBy,
			ChangedAt: at,
		}

		update := bson.M{"$set": bson.M{
			"lead_status":    string(status),
			"last_follow_up": at,
			"updated_at":     at,
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
		var prior domain.Lead
		err := r.db.Collection(collectionLeads).
			FindOneAndUpdate(sc, bson.M{"_id": leadID}, update, opts).
			Decode(&prior)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.ErrLeadNotFound
			}
			return nil, err
		}

		if _, err := r.db.Collection(collectionStatusLogs).InsertOne(sc, entry); err != nil {
			return nil, err
		}
		return appendResult{entry: entry, prior: prior.LeadStatus}, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("append status change: %w", err)
	}

	res := result.(appendResult)
	return res.entry, res.prior, nil
}

// ListForLead returns the full audit trail of one lead, newest first.
func (r *StatusLogRepository) ListForLead(ctx context.Context, leadID string) ([]domain.StatusLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "changed_at", Value: -1}})
	cursor, err := r.db.Collection(collectionStatusLogs).Find(ctx, bson.M{"lead_id": leadID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.StatusLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRecent returns the latest entries across all leads, newest first.
func (r *StatusLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.StatusLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "changed_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.db.Collection(collectionStatusLogs).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.StatusLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureIndexes creates necessary indexes on the status_logs collection.
func (r *StatusLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "changed_at", Value: -1}}},
		{Keys: bson.D{{Key: "changed_at", Value: -1}}},
	}

	_, err := r.db.Collection(collectionStatusLogs).Indexes().CreateMany(ctx, indexes)
	return err
}
