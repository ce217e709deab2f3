package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/admitflow/crm-backend/internal/core/domain"
	"github.com/admitflow/crm-backend/internal/core/ports"
)

const collectionLeads = "leads"

type LeadRepository struct {
	col *mongo.Collection
}

func NewLeadRepository(db *mongo.Database) *LeadRepository {
	return &LeadRepository{col: db.Collection(collectionLeads)}
}

// FindByID retrieves a lead by its id.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Lead
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}
	return &l, nil
}

// List returns a page of leads matching filter plus the total match count.
func (r *LeadRepository) List(ctx context.Context, filter ports.ListLeadsFilter) ([]*domain.Lead, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.AssignedTo != "" {
		query["assigned_to"] = filter.AssignedTo
	}
	if filter.Status != "" {
		query["lead_status"] = filter.Status
	}
	if filter.Search != "" {
		regex := bson.M{"$regex": filter.Search, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"email": regex},
			bson.M{"phone": regex},
		}
	}
	if createdAt := dateRange(filter.DateFrom, filter.DateTo); len(createdAt) > 0 {
		query["created_at"] = createdAt
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var leads []*domain.Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func dateRange(from, to time.Time) bson.M {
	rng := bson.M{}
	if !from.IsZero() {
		rng["$gte"] = from
	}
	if !to.IsZero() {
		rng["$lte"] = to
	}
	return rng
}

// EnsureIndexes creates necessary indexes on the leads collection.
func (r *LeadRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "lead_status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
