package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application states.
const (
	ApplicationPending   = "pending"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
	ApplicationWithdrawn = "withdrawn"
)

// IsReviewDecision reports whether s is a status an admin review may set.
func IsReviewDecision(s string) bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

type Availability struct {
	HoursPerWeek float64    `bson:"hours_per_week,omitempty" json:"hoursPerWeek,omitempty"`
	StartDate    *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate      *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
}

// VolunteerApplication is a request by a user to volunteer for an initiative.
// There is at most one per (user, initiative).
type VolunteerApplication struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User         primitive.ObjectID  `bson:"user" json:"user"`
	Initiative   primitive.ObjectID  `bson:"initiative" json:"initiative"`
	Skills       []string            `bson:"skills" json:"skills"`
	Availability *Availability       `bson:"availability,omitempty" json:"availability,omitempty"`
	Motivation   string              `bson:"motivation" json:"motivation"`
	Status       string              `bson:"status" json:"status"`
	ReviewedBy   *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewNotes  string              `bson:"review_notes,omitempty" json:"reviewNotes,omitempty"`
	AppliedAt    time.Time           `bson:"applied_at" json:"appliedAt"`
	ReviewedAt   *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
}

// ApplicationReview is a status change on an application. Reviewer and
// review time are recorded only when ReviewedBy is set.
type ApplicationReview struct {
	Status     string
	ReviewedBy *primitive.ObjectID
	Notes      string
	At         time.Time
}

// ApplicationView is an application with its initiative populated.
type ApplicationView struct {
	ID           primitive.ObjectID  `json:"id"`
	User         primitive.ObjectID  `json:"user"`
	Initiative   *InitiativeSummary  `json:"initiative"`
	Skills       []string            `json:"skills"`
	Availability *Availability       `json:"availability,omitempty"`
	Motivation   string              `json:"motivation"`
	Status       string              `json:"status"`
	ReviewedBy   *primitive.ObjectID `json:"reviewedBy,omitempty"`
	ReviewNotes  string              `json:"reviewNotes,omitempty"`
	AppliedAt    time.Time           `json:"appliedAt"`
	ReviewedAt   *time.Time          `json:"reviewedAt,omitempty"`
}
