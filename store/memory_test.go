package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
)

func TestPageTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Page{Number: 1, Limit: tt.limit}.TotalPages(tt.total), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := models.User{Name: "Amina", Email: "amina@example.org", Country: "Kenya", IsActive: true}
	require.NoError(t, m.CreateUser(ctx, &u))
	assert.False(t, u.ID.IsZero())

	dup := models.User{Name: "Other", Email: "amina@example.org"}
	assert.ErrorIs(t, m.CreateUser(ctx, &dup), ErrDuplicate)

	got, err := m.UserByEmail(ctx, "amina@example.org")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.UserByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SetRole(ctx, u.ID, models.RoleVolunteer))
	got, err = m.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, got.Role)

	assert.ErrorIs(t, m.SetRole(ctx, primitive.NewObjectID(), models.RoleAdmin), ErrNotFound)
}

func TestMemoryAddParticipant(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := models.Initiative{Title: "Circle", Category: "dialogue", Organizer: primitive.NewObjectID()}
	require.NoError(t, m.CreateInitiative(ctx, &in))

	user := primitive.NewObjectID()
	now := time.Now()
	require.NoError(t, m.AddParticipant(ctx, in.ID, user, now))
	assert.ErrorIs(t, m.AddParticipant(ctx, in.ID, user, now), ErrAlreadyJoined)
	assert.ErrorIs(t, m.AddParticipant(ctx, primitive.NewObjectID(), user, now), ErrNotFound)

	got, err := m.InitiativeByID(ctx, in.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, user, got.Participants[0].User)

	// returned documents are copies
	got.Participants = append(got.Participants, models.Participant{User: primitive.NewObjectID()})
	again, err := m.InitiativeByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Len(t, again.Participants, 1)
}

func TestMemoryListInitiatives(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, cat := range []string{"education", "education", "justice"} {
		in := models.Initiative{
			Title:     cat,
			Category:  cat,
			Location:  models.Location{Country: "Kenya"},
			Status:    models.InitiativePlanning,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, m.CreateInitiative(ctx, &in))
	}

	list, total, err := m.ListInitiatives(ctx, InitiativeFilter{}, Page{Number: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, "justice", list[0].Category, "newest first")

	list, total, err = m.ListInitiatives(ctx, InitiativeFilter{Category: "education"}, Page{Number: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, base, list[0].CreatedAt)

	list, total, err = m.ListInitiatives(ctx, InitiativeFilter{Country: "Peru"}, Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	list, _, err = m.ListInitiatives(ctx, InitiativeFilter{}, Page{Number: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryApplications(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	user, initiative := primitive.NewObjectID(), primitive.NewObjectID()

	a := models.VolunteerApplication{User: user, Initiative: initiative, Motivation: "help", Status: models.ApplicationPending}
	require.NoError(t, m.CreateApplication(ctx, &a))

	exists, err := m.ApplicationExists(ctx, user, initiative)
	require.NoError(t, err)
	assert.True(t, exists)

	dup := models.VolunteerApplication{User: user, Initiative: initiative}
	assert.ErrorIs(t, m.CreateApplication(ctx, &dup), ErrDuplicate)

	reviewer := primitive.NewObjectID()
	at := time.Now().UTC()
	require.NoError(t, m.ReviewApplication(ctx, a.ID, models.ApplicationReview{
		Status: models.ApplicationApproved, ReviewedBy: &reviewer, Notes: "ok", At: at,
	}))
	got, err := m.ApplicationByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, got.Status)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, reviewer, *got.ReviewedBy)
	assert.Equal(t, "ok", got.ReviewNotes)

	apps, err := m.ApplicationsByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	assert.ErrorIs(t, m.ReviewApplication(ctx, primitive.NewObjectID(), models.ApplicationReview{Status: "rejected"}), ErrNotFound)
}

func TestMemorySettleDonationOnlyWhilePending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()

	d := models.Donation{Amount: 10, Currency: "USD", PaymentStatus: models.PaymentPending, CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, m.CreateDonation(ctx, &d))

	pending, err := m.PendingDonations(ctx, now)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, m.SettleDonation(ctx, d.ID, models.PaymentCompleted, "sim_1", now))
	assert.ErrorIs(t, m.SettleDonation(ctx, d.ID, models.PaymentFailed, "", now), ErrNotFound)

	got, err := m.DonationByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.PaymentStatus)
	assert.Equal(t, "sim_1", got.PaymentID)
	require.NotNil(t, got.SettledAt)

	pending, err = m.PendingDonations(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	kenya := models.User{Email: "a@example.org", Country: "Kenya", IsActive: true}
	peru := models.User{Email: "b@example.org", Country: "Peru", IsActive: true}
	inactive := models.User{Email: "c@example.org", Country: "Peru"}
	for _, u := range []*models.User{&kenya, &peru, &inactive} {
		require.NoError(t, m.CreateUser(ctx, u))
	}

	for _, d := range []models.Donation{
		{Donor: &kenya.ID, Amount: 10, PaymentStatus: models.PaymentCompleted},
		{Donor: &peru.ID, Amount: 50, PaymentStatus: models.PaymentCompleted},
		{Donor: &peru.ID, Amount: 99, PaymentStatus: models.PaymentPending},
		{Amount: 5, PaymentStatus: models.PaymentCompleted},
	} {
		require.NoError(t, m.CreateDonation(ctx, &d))
	}

	totals, err := m.DonationTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Totals{Total: 65, Count: 3}, totals)

	byCountry, err := m.DonationsByCountry(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CountryTotal{
		{Country: "Peru", Total: 50, Count: 1},
		{Country: "Kenya", Total: 10, Count: 1},
	}, byCountry)

	counts, err := m.PlatformCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.ActiveUsers)
	assert.Equal(t, int64(2), counts.Countries)
}
