package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Tharoon321/worldpeace-api/models"
)

func (m *Mongo) CreateInitiative(ctx context.Context, in *models.Initiative) error {
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	if in.Participants == nil {
		in.Participants = []models.Participant{}
	}
	if _, err := m.initiatives.InsertOne(ctx, in); err != nil {
		return fmt.Errorf("insert initiative: %w", err)
	}
	return nil
}

func (m *Mongo) InitiativeByID(ctx context.Context, id primitive.ObjectID) (models.Initiative, error) {
	var in models.Initiative
	err := findOne(ctx, m.initiatives, bson.M{"_id": id}, &in)
	return in, err
}

func (m *Mongo) InitiativesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Initiative, error) {
	out := []models.Initiative{}
	if len(ids) == 0 {
		return out, nil
	}
	err := findAll(ctx, m.initiatives, idsFilter(ids), &out)
	return out, err
}

func initiativeFilter(f InitiativeFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Country != "" {
		filter["location.country"] = f.Country
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func (m *Mongo) ListInitiatives(ctx context.Context, f InitiativeFilter, p Page) ([]models.Initiative, int64, error) {
	filter := initiativeFilter(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.skip()).
		SetLimit(int64(p.Limit))

	out := []models.Initiative{}
	if err := findAll(ctx, m.initiatives, filter, &out, opts); err != nil {
		return nil, 0, err
	}
	total, err := m.initiatives.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count initiatives: %w", err)
	}
	return out, total, nil
}

func (m *Mongo) UpdateInitiative(ctx context.Context, id primitive.ObjectID, u models.InitiativeUpdate, at time.Time) error {
	set := bson.M{"updated_at": at}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.StartDate != nil {
		set["start_date"] = *u.StartDate
	}
	if u.EndDate != nil {
		set["end_date"] = *u.EndDate
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Impact != nil {
		set["impact"] = *u.Impact
	}
	return mustMatch(m.initiatives.UpdateByID(ctx, id, bson.M{"$set": set}))
}

func (m *Mongo) DeleteInitiative(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.initiatives.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete initiative: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddParticipant pushes only when the user is not already listed, so two
// concurrent joins cannot both append.
func (m *Mongo) AddParticipant(ctx context.Context, initiativeID, userID primitive.ObjectID, at time.Time) error {
	filter := bson.M{
		"_id":               initiativeID,
		"participants.user": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$push": bson.M{"participants": models.Participant{User: userID, JoinedAt: at}},
		"$set":  bson.M{"updated_at": at},
	}
	res, err := m.initiatives.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("join initiative: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := m.initiatives.CountDocuments(ctx, bson.M{"_id": initiativeID})
	if err != nil {
		return fmt.Errorf("count initiative: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadyJoined
}
