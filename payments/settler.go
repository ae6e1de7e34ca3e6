// Package payments settles pending donations. No real payment gateway is
// integrated: SimulatedProcessor approves every charge.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/metrics"
	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/store"
)

const settleTimeout = 10 * time.Second

// Processor charges a donation and returns the provider's payment id.
type Processor interface {
	Charge(ctx context.Context, d models.Donation) (string, error)
}

// SimulatedProcessor always succeeds with a synthetic sim_ payment id.
type SimulatedProcessor struct{}

func (SimulatedProcessor) Charge(context.Context, models.Donation) (string, error) {
	return "sim_" + uuid.NewString(), nil
}

// Settler completes pending donations a fixed delay after creation.
type Settler struct {
	store     store.DonationStore
	processor Processor
	delay     time.Duration
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time

	mu      sync.Mutex
	timers  map[primitive.ObjectID]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func NewSettler(s store.DonationStore, p Processor, delay time.Duration, pub events.Publisher, log logrus.FieldLogger) *Settler {
	return &Settler{
		store:     s,
		processor: p,
		delay:     delay,
		publisher: pub,
		log:       log.WithField("component", "settler"),
		now:       time.Now,
		timers:    make(map[primitive.ObjectID]*time.Timer),
	}
}

// Schedule settles the donation after the configured delay. Scheduling the
// same donation twice, or after Stop, is a no-op.
func (s *Settler) Schedule(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.timers[id]; ok {
		return
	}

	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		if err := s.Settle(ctx, id); err != nil {
			s.log.WithError(err).WithField("donation_id", id.Hex()).Error("settle donation")
		}
	})
}

func (s *Settler) scheduled(id primitive.ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// Settle charges a pending donation and records the outcome. A processor
// error marks the donation failed. Donations that are no longer pending are
// left untouched.
func (s *Settler) Settle(ctx context.Context, id primitive.ObjectID) error {
	d, err := s.store.DonationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load donation: %w", err)
	}
	if d.PaymentStatus != models.PaymentPending {
		return nil
	}

	status := models.PaymentCompleted
	paymentID, err := s.processor.Charge(ctx, d)
	if err != nil {
		s.log.WithError(err).WithField("donation_id", id.Hex()).Warn("payment failed")
		status = models.PaymentFailed
	}

	err = s.store.SettleDonation(ctx, id, status, paymentID, s.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		// settled concurrently by the sweeper or a timer
		return nil
	}
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}

	metrics.RecordSettlement(status)
	s.log.WithFields(logrus.Fields{
		"donation_id": id.Hex(),
		"status":      status,
		"payment_id":  paymentID,
	}).Info("donation settled")
	events.Emit(ctx, s.publisher, s.log, events.DonationSettled, id.Hex(), map[string]any{
		"donationId": id.Hex(),
		"status":     status,
		"paymentId":  paymentID,
		"amount":     d.Amount,
		"currency":   d.Currency,
	})
	return nil
}

// SettlePending settles donations still pending past the settlement delay
// that have no timer scheduled, typically left over from a restart. It
// returns how many were settled.
func (s *Settler) SettlePending(ctx context.Context) (int, error) {
	pending, err := s.store.PendingDonations(ctx, s.now().Add(-s.delay))
	if err != nil {
		return 0, fmt.Errorf("list pending donations: %w", err)
	}
	settled := 0
	for _, d := range pending {
		if s.scheduled(d.ID) {
			continue
		}
		if err := s.Settle(ctx, d.ID); err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}

// Stop cancels outstanding timers and waits for running settlements.
func (s *Settler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
