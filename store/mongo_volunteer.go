package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Tharoon321/worldpeace-api/models"
)

func (m *Mongo) CreateApplication(ctx context.Context, a *models.VolunteerApplication) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	if _, err := m.applications.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (m *Mongo) ApplicationByID(ctx context.Context, id primitive.ObjectID) (models.VolunteerApplication, error) {
	var a models.VolunteerApplication
	err := findOne(ctx, m.applications, bson.M{"_id": id}, &a)
	return a, err
}

func (m *Mongo) ApplicationExists(ctx context.Context, userID, initiativeID primitive.ObjectID) (bool, error) {
	n, err := m.applications.CountDocuments(ctx,
		bson.M{"user": userID, "initiative": initiativeID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count applications: %w", err)
	}
	return n > 0, nil
}

func (m *Mongo) ApplicationsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.VolunteerApplication, error) {
	out := []models.VolunteerApplication{}
	opts := options.Find().SetSort(bson.D{{Key: "applied_at", Value: -1}})
	err := findAll(ctx, m.applications, bson.M{"user": userID}, &out, opts)
	return out, err
}

func (m *Mongo) ReviewApplication(ctx context.Context, id primitive.ObjectID, r models.ApplicationReview) error {
	set := bson.M{"status": r.Status}
	if r.ReviewedBy != nil {
		set["reviewed_by"] = *r.ReviewedBy
		set["reviewed_at"] = r.At
	}
	if r.Notes != "" {
		set["review_notes"] = r.Notes
	}
	return mustMatch(m.applications.UpdateByID(ctx, id, bson.M{"$set": set}))
}
