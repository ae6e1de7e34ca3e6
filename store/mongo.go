package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection        = "users"
	initiativesCollection  = "initiatives"
	applicationsCollection = "volunteer_applications"
	donationsCollection    = "donations"
)

// Mongo implements Store on a MongoDB database.
type Mongo struct {
	db           *mongo.Database
	users        *mongo.Collection
	initiatives  *mongo.Collection
	applications *mongo.Collection
	donations    *mongo.Collection
}

// NewMongo wraps db. Call EnsureIndexes once at startup.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		db:           db,
		users:        db.Collection(usersCollection),
		initiatives:  db.Collection(initiativesCollection),
		applications: db.Collection(applicationsCollection),
		donations:    db.Collection(donationsCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the API relies on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{m.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "country", Value: 1}}},
		}},
		{m.initiatives, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
		}},
		{m.applications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "initiative", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{m.donations, []mongo.IndexModel{
			{Keys: bson.D{{Key: "payment_status", Value: 1}, {Key: "created_at", Value: 1}}},
		}},
	}
	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

// findOne decodes the single document matching filter into out.
func findOne(ctx context.Context, coll *mongo.Collection, filter any, out any, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find one in %s: %w", coll.Name(), err)
	}
	return nil
}

// findAll decodes every document matching filter into out, which must be a
// pointer to a slice.
func findAll(ctx context.Context, coll *mongo.Collection, filter any, out any, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return nil
}

func aggregate(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out any) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s aggregate: %w", coll.Name(), err)
	}
	return nil
}

// mustMatch turns an update that matched nothing into ErrNotFound.
func mustMatch(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func idsFilter(ids []primitive.ObjectID) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}

var _ Store = (*Mongo)(nil)
