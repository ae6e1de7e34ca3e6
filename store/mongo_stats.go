package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Tharoon321/worldpeace-api/models"
)

var completedDonations = bson.D{{Key: "$match", Value: bson.M{"payment_status": models.PaymentCompleted}}}

func (m *Mongo) DonationTotals(ctx context.Context) (models.Totals, error) {
	pipeline := mongo.Pipeline{
		completedDonations,
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	var rows []models.Totals
	if err := aggregate(ctx, m.donations, pipeline, &rows); err != nil {
		return models.Totals{}, err
	}
	if len(rows) == 0 {
		return models.Totals{}, nil
	}
	return rows[0], nil
}

func (m *Mongo) DonationsByCountry(ctx context.Context) ([]models.CountryTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"payment_status": models.PaymentCompleted,
			"donor":          bson.M{"$ne": nil},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "donor",
			"foreignField": "_id",
			"as":           "donor_data",
		}}},
		{{Key: "$unwind", Value: "$donor_data"}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$donor_data.country",
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}}}},
	}
	rows := []models.CountryTotal{}
	err := aggregate(ctx, m.donations, pipeline, &rows)
	return rows, err
}

func (m *Mongo) PlatformCounts(ctx context.Context) (models.PlatformCounts, error) {
	var c models.PlatformCounts
	var err error

	if c.ActiveUsers, err = m.users.CountDocuments(ctx, bson.M{"is_active": true}); err != nil {
		return c, fmt.Errorf("count active users: %w", err)
	}
	listed := bson.M{"status": bson.M{"$in": bson.A{models.InitiativeActive, models.InitiativeCompleted}}}
	if c.ListedInitiatives, err = m.initiatives.CountDocuments(ctx, listed); err != nil {
		return c, fmt.Errorf("count initiatives: %w", err)
	}
	if c.ApprovedVolunteers, err = m.applications.CountDocuments(ctx, bson.M{"status": models.ApplicationApproved}); err != nil {
		return c, fmt.Errorf("count volunteers: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":             nil,
			"lives_touched":   bson.M{"$sum": "$impact.lives_touched"},
			"volunteer_hours": bson.M{"$sum": "$impact.volunteer_hours"},
		}}},
	}
	var impact []models.Impact
	if err := aggregate(ctx, m.initiatives, pipeline, &impact); err != nil {
		return c, err
	}
	if len(impact) > 0 {
		c.TotalLivesTouched = impact[0].LivesTouched
		c.TotalVolunteerHours = impact[0].VolunteerHours
	}

	countries, err := m.users.Distinct(ctx, "country", bson.M{})
	if err != nil {
		return c, fmt.Errorf("distinct countries: %w", err)
	}
	c.Countries = int64(len(countries))
	return c, nil
}

func (m *Mongo) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var s models.AdminStats
	var err error

	if s.Overview.TotalUsers, err = m.users.CountDocuments(ctx, bson.M{"is_active": true}); err != nil {
		return s, fmt.Errorf("count users: %w", err)
	}
	if s.Overview.TotalInitiatives, err = m.initiatives.CountDocuments(ctx, bson.M{}); err != nil {
		return s, fmt.Errorf("count initiatives: %w", err)
	}
	if s.Overview.TotalVolunteerApplications, err = m.applications.CountDocuments(ctx, bson.M{}); err != nil {
		return s, fmt.Errorf("count applications: %w", err)
	}

	totals, err := m.DonationTotals(ctx)
	if err != nil {
		return s, err
	}
	s.Overview.TotalDonations = totals.Total
	s.Overview.DonationCount = totals.Count

	s.UsersByCountry = []models.GroupCount{}
	byCountry := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$country", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: 10}},
	}
	if err := aggregate(ctx, m.users, byCountry, &s.UsersByCountry); err != nil {
		return s, err
	}

	s.InitiativesByCategory = []models.GroupCount{}
	byCategory := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	if err := aggregate(ctx, m.initiatives, byCategory, &s.InitiativesByCategory); err != nil {
		return s, err
	}
	return s, nil
}
