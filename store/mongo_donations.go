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

func (m *Mongo) CreateDonation(ctx context.Context, d *models.Donation) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if _, err := m.donations.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (m *Mongo) DonationByID(ctx context.Context, id primitive.ObjectID) (models.Donation, error) {
	var d models.Donation
	err := findOne(ctx, m.donations, bson.M{"_id": id}, &d)
	return d, err
}

func (m *Mongo) SettleDonation(ctx context.Context, id primitive.ObjectID, status, paymentID string, at time.Time) error {
	filter := bson.M{"_id": id, "payment_status": models.PaymentPending}
	set := bson.M{"payment_status": status, "settled_at": at}
	if paymentID != "" {
		set["payment_id"] = paymentID
	}
	return mustMatch(m.donations.UpdateOne(ctx, filter, bson.M{"$set": set}))
}

func (m *Mongo) PendingDonations(ctx context.Context, createdBefore time.Time) ([]models.Donation, error) {
	out := []models.Donation{}
	filter := bson.M{
		"payment_status": models.PaymentPending,
		"created_at":     bson.M{"$lt": createdBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(500)
	err := findAll(ctx, m.donations, filter, &out, opts)
	return out, err
}
