package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories shared by initiatives and user interests.
var Categories = []string{
	"education",
	"dialogue",
	"environment",
	"humanitarian",
	"cultural",
	"justice",
}

// Initiative lifecycle states. Transitions are plain assignments.
const (
	InitiativePlanning  = "planning"
	InitiativeActive    = "active"
	InitiativeCompleted = "completed"
	InitiativeCancelled = "cancelled"
)

var initiativeStatuses = []string{
	InitiativePlanning,
	InitiativeActive,
	InitiativeCompleted,
	InitiativeCancelled,
}

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool { return contains(Categories, c) }

// IsInitiativeStatus reports whether s is a known initiative status.
func IsInitiativeStatus(s string) bool { return contains(initiativeStatuses, s) }

type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

type Location struct {
	Country     string       `bson:"country,omitempty" json:"country,omitempty"`
	City        string       `bson:"city,omitempty" json:"city,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Impact struct {
	LivesTouched   int64 `bson:"lives_touched" json:"livesTouched"`
	VolunteerHours int64 `bson:"volunteer_hours" json:"volunteerHours"`
}

// Participant records one user joining an initiative.
type Participant struct {
	User     primitive.ObjectID `bson:"user" json:"user"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

// Initiative is a peace program or event with an organizer and participants.
type Initiative struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	Location     Location           `bson:"location" json:"location"`
	StartDate    time.Time          `bson:"start_date" json:"startDate"`
	EndDate      *time.Time         `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Participants []Participant      `bson:"participants" json:"participants"`
	Organizer    primitive.ObjectID `bson:"organizer" json:"organizer"`
	Status       string             `bson:"status" json:"status"`
	Impact       Impact             `bson:"impact" json:"impact"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether userID already joined.
func (in Initiative) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range in.Participants {
		if p.User == userID {
			return true
		}
	}
	return false
}

// InitiativeUpdate carries the fields a partial update may set. Nil means
// leave unchanged.
type InitiativeUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Location    *Location
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
	Impact      *Impact
}

// Empty reports whether no field is set.
func (u InitiativeUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil &&
		u.Location == nil && u.StartDate == nil && u.EndDate == nil &&
		u.Status == nil && u.Impact == nil
}

// Apply copies the set fields onto in.
func (u InitiativeUpdate) Apply(in *Initiative) {
	if u.Title != nil {
		in.Title = *u.Title
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Location != nil {
		in.Location = *u.Location
	}
	if u.StartDate != nil {
		in.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		end := *u.EndDate
		in.EndDate = &end
	}
	if u.Status != nil {
		in.Status = *u.Status
	}
	if u.Impact != nil {
		in.Impact = *u.Impact
	}
}

// ParticipantView is a participant with its user populated.
type ParticipantView struct {
	User     *UserRef  `json:"user"`
	JoinedAt time.Time `json:"joinedAt"`
}

// InitiativeView is the populated representation returned by the API.
type InitiativeView struct {
	ID           primitive.ObjectID `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Location     Location           `json:"location"`
	StartDate    time.Time          `json:"startDate"`
	EndDate      *time.Time         `json:"endDate,omitempty"`
	Participants []ParticipantView  `json:"participants"`
	Organizer    *UserRef           `json:"organizer"`
	Status       string             `json:"status"`
	Impact       Impact             `json:"impact"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// InitiativeSummary is the slice of an initiative embedded in a volunteer
// application listing.
type InitiativeSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Category  string             `json:"category"`
	Location  Location           `json:"location"`
	StartDate time.Time          `json:"startDate"`
	Status    string             `json:"status"`
}

// Summary returns the summary projection of in.
func (in Initiative) Summary() *InitiativeSummary {
	return &InitiativeSummary{
		ID:        in.ID,
		Title:     in.Title,
		Category:  in.Category,
		Location:  in.Location,
		StartDate: in.StartDate,
		Status:    in.Status,
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain calendar dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
