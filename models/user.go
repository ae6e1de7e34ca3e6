package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleUser      = "user"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// User is a registered member of the platform.
// Password and reset OTP are hashed and never leave the server.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password_hash" json:"-"`
	Role        string             `bson:"role" json:"role"`
	Country     string             `bson:"country" json:"country"`
	Interests   []string           `bson:"interests" json:"interests"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	ResetOTP    string             `bson:"reset_otp,omitempty" json:"-"`
	ResetOTPExp time.Time          `bson:"reset_otp_exp,omitempty" json:"-"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joinedAt"`
	LastLogin   *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
}

// UserProfile is the sanitized projection returned by the auth endpoints.
type UserProfile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Country   string     `json:"country"`
	Role      string     `json:"role"`
	Interests []string   `json:"interests"`
	JoinedAt  *time.Time `json:"joinedAt,omitempty"`
}

// Profile returns the client-safe view of u. joinedAt is only included when
// withJoined is set, which is what /auth/me does.
func (u User) Profile(withJoined bool) UserProfile {
	p := UserProfile{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Country:   u.Country,
		Role:      u.Role,
		Interests: u.Interests,
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if withJoined {
		joined := u.JoinedAt
		p.JoinedAt = &joined
	}
	return p
}

// UserRef is the populated form of a user reference: just enough to render
// an organizer or participant.
type UserRef struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name,omitempty"`
	Country string             `json:"country,omitempty"`
}

// Ref builds the populated reference for u.
func (u User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Country: u.Country}
}
