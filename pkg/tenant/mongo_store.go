package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// MongoUserStore resolves identities from the users collection. Employee
// accounts carry a tenant_id pointing at the owning account; owner accounts
// leave it empty and resolve to themselves.
type MongoUserStore struct {
	coll *mongo.Collection
}

// NewMongoUserStore creates a store over the given database.
// Panics if db is nil.
func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	if db == nil {
		panic("tenant: mongo database is required")
	}
	return &MongoUserStore{coll: db.Collection(usersCollection)}
}

type userDoc struct {
	ID       string `bson:"_id"`
	TenantID string `bson:"tenant_id,omitempty"`
}

// OwnerTenantID implements UserStore.
func (s *MongoUserStore) OwnerTenantID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	var doc userDoc
	proj := options.FindOne().SetProjection(bson.M{"_id": 1, "tenant_id": 1})
	err := s.coll.FindOne(ctx, bson.M{"_id": userID.String()}, proj).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return uuid.Nil, false, ErrUserNotFound
		}
		return uuid.Nil, false, err
	}

	if doc.TenantID == "" {
		return userID, false, nil
	}

	tenantID, err := uuid.Parse(doc.TenantID)
	if err != nil {
		return uuid.Nil, false, errors.Join(ErrLookupFailed, err)
	}
	return tenantID, true, nil
}
