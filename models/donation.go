package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment states of a donation.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// MinDonationAmount is the smallest accepted donation.
const MinDonationAmount = 1

// Donation is a contribution, optionally tied to a donor and an initiative.
type Donation struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Donor         *primitive.ObjectID `bson:"donor" json:"donor,omitempty"`
	Amount        float64             `bson:"amount" json:"amount"`
	Currency      string              `bson:"currency" json:"currency"`
	Initiative    *primitive.ObjectID `bson:"initiative" json:"initiative,omitempty"`
	IsAnonymous   bool                `bson:"is_anonymous" json:"isAnonymous"`
	Message       string              `bson:"message,omitempty" json:"message,omitempty"`
	PaymentStatus string              `bson:"payment_status" json:"paymentStatus"`
	PaymentID     string              `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"createdAt"`
	SettledAt     *time.Time          `bson:"settled_at,omitempty" json:"settledAt,omitempty"`
}

// Public hides the donor of an anonymous donation.
func (d Donation) Public() Donation {
	if d.IsAnonymous {
		d.Donor = nil
	}
	return d
}
