// Package store persists users, initiatives, volunteer applications and
// donations. Mongo is the production implementation; Memory backs tests and
// local runs without a database.
package store

import (
	"context"
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate")
	ErrAlreadyJoined = errors.New("already joined")
)

// Page selects a 1-based page of Limit items.
type Page struct {
	Number int
	Limit  int
}

func (p Page) skip() int64 {
	if p.Number < 1 {
		return 0
	}
	return int64(p.Number-1) * int64(p.Limit)
}

// TotalPages returns ceil(total/limit).
func (p Page) TotalPages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(total) / float64(p.Limit)))
}

type InitiativeFilter struct {
	Category string
	Country  string
	Status   string
}

type UserFilter struct {
	// Search matches name or email case-insensitively.
	Search string
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListUsers(ctx context.Context, f UserFilter, p Page) ([]models.User, int64, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
	SetResetOTP(ctx context.Context, id primitive.ObjectID, otpHash string, exp time.Time) error
	ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

type InitiativeStore interface {
	CreateInitiative(ctx context.Context, in *models.Initiative) error
	InitiativeByID(ctx context.Context, id primitive.ObjectID) (models.Initiative, error)
	InitiativesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Initiative, error)
	ListInitiatives(ctx context.Context, f InitiativeFilter, p Page) ([]models.Initiative, int64, error)
	UpdateInitiative(ctx context.Context, id primitive.ObjectID, u models.InitiativeUpdate, at time.Time) error
	DeleteInitiative(ctx context.Context, id primitive.ObjectID) error
	// AddParticipant appends userID to the initiative. It returns
	// ErrAlreadyJoined when the user is already a participant.
	AddParticipant(ctx context.Context, initiativeID, userID primitive.ObjectID, at time.Time) error
}

type VolunteerStore interface {
	// CreateApplication returns ErrDuplicate when the user already applied
	// to the same initiative.
	CreateApplication(ctx context.Context, a *models.VolunteerApplication) error
	ApplicationByID(ctx context.Context, id primitive.ObjectID) (models.VolunteerApplication, error)
	ApplicationExists(ctx context.Context, userID, initiativeID primitive.ObjectID) (bool, error)
	ApplicationsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.VolunteerApplication, error)
	ReviewApplication(ctx context.Context, id primitive.ObjectID, r models.ApplicationReview) error
}

type DonationStore interface {
	CreateDonation(ctx context.Context, d *models.Donation) error
	DonationByID(ctx context.Context, id primitive.ObjectID) (models.Donation, error)
	// SettleDonation moves a pending donation to status. It returns
	// ErrNotFound when the donation is missing or no longer pending.
	SettleDonation(ctx context.Context, id primitive.ObjectID, status, paymentID string, at time.Time) error
	PendingDonations(ctx context.Context, createdBefore time.Time) ([]models.Donation, error)
}

type StatsStore interface {
	DonationTotals(ctx context.Context) (models.Totals, error)
	DonationsByCountry(ctx context.Context) ([]models.CountryTotal, error)
	PlatformCounts(ctx context.Context) (models.PlatformCounts, error)
	AdminStats(ctx context.Context) (models.AdminStats, error)
}

// Store is the full persistence surface used by the API.
type Store interface {
	UserStore
	InitiativeStore
	VolunteerStore
	DonationStore
	StatsStore
	Ping(ctx context.Context) error
}
