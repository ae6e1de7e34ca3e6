package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Tharoon321/worldpeace-api/models"
)

var withoutSecrets = bson.M{"password_hash": 0, "reset_otp": 0, "reset_otp_exp": 0}

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := m.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *Mongo) UserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := findOne(ctx, m.users, bson.M{"_id": id}, &u)
	return u, err
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := findOne(ctx, m.users, bson.M{"email": email}, &u)
	return u, err
}

func (m *Mongo) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1, "country": 1})
	err := findAll(ctx, m.users, idsFilter(ids), &users, opts)
	return users, err
}

func (m *Mongo) ListUsers(ctx context.Context, f UserFilter, p Page) ([]models.User, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}}
	}

	opts := options.Find().
		SetProjection(withoutSecrets).
		SetSort(bson.D{{Key: "joined_at", Value: -1}}).
		SetSkip(p.skip()).
		SetLimit(int64(p.Limit))

	users := []models.User{}
	if err := findAll(ctx, m.users, filter, &users, opts); err != nil {
		return nil, 0, err
	}
	total, err := m.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

func (m *Mongo) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return mustMatch(m.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login": at}}))
}

func (m *Mongo) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	return mustMatch(m.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"role": role}}))
}

func (m *Mongo) SetResetOTP(ctx context.Context, id primitive.ObjectID, otpHash string, exp time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"reset_otp":     otpHash,
			"reset_otp_exp": exp,
		},
	}
	return mustMatch(m.users.UpdateByID(ctx, id, update))
}

func (m *Mongo) ResetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	update := bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
		},
		"$unset": bson.M{
			"reset_otp":     "",
			"reset_otp_exp": "",
		},
	}
	return mustMatch(m.users.UpdateByID(ctx, id, update))
}
