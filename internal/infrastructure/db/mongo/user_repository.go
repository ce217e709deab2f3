package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/admitflow/crm-backend/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository resolves user projections for audit author stitching. Users
// are owned by an upstream account system; this repository only reads.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

// FindByIDs returns the users matching ids, keyed by id. Missing ids are
// silently absent from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make(map[string]domain.User, len(ids))
	for cursor.Next(ctx) {
		var u domain.User
		if err := cursor.Decode(&u); err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
