package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/metrics"
	"github.com/Tharoon321/worldpeace-api/middleware"
	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/store"
)

const donationStatsKey = "stats:donations"

// DonationInput is the request body for a donation.
type DonationInput struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency" binding:"omitempty,len=3,alpha"`
	InitiativeID string  `json:"initiativeId"`
	IsAnonymous  bool    `json:"isAnonymous"`
	Message      string  `json:"message" binding:"max=500"`
}

// CreateDonation records a pending donation and hands it to the settler.
// The donor is whoever OptionalAuth resolved, or nobody.
func (h *Handler) CreateDonation(c *gin.Context) {
	var input DonationInput
	if !bindJSON(c, &input) {
		return
	}
	if input.Amount < models.MinDonationAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid amount is required"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	var initiative *primitive.ObjectID
	if input.InitiativeID != "" {
		id, err := primitive.ObjectIDFromHex(input.InitiativeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid initiative id"})
			return
		}
		if _, err := h.store.InitiativeByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
				return
			}
			h.internalError(c, err, "create donation: load initiative")
			return
		}
		initiative = &id
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = h.opts.DefaultCurrency
	}

	d := models.Donation{
		Donor:         middleware.DonorID(c),
		Amount:        input.Amount,
		Currency:      currency,
		Initiative:    initiative,
		IsAnonymous:   input.IsAnonymous,
		Message:       strings.TrimSpace(input.Message),
		PaymentStatus: models.PaymentPending,
		CreatedAt:     h.now().UTC(),
	}
	if err := h.store.CreateDonation(ctx, &d); err != nil {
		h.internalError(c, err, "create donation")
		return
	}

	metrics.RecordDonationCreated()
	if h.settler != nil {
		h.settler.Schedule(d.ID)
	}
	h.emit(ctx, events.DonationCreated, d.ID.Hex(), gin.H{
		"donationId": d.ID.Hex(),
		"amount":     d.Amount,
		"currency":   d.Currency,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Donation initiated successfully",
		"donationId": d.ID.Hex(),
		"status":     d.PaymentStatus,
	})
}

// GetDonation returns a donation so clients can follow its settlement.
func (h *Handler) GetDonation(c *gin.Context) {
	id, ok := parseID(c, "id", "donation")
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	d, err := h.store.DonationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Donation not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "get donation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"donation": d.Public()})
}

// DonationStats aggregates completed donations overall and by donor country.
func (h *Handler) DonationStats(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := cached(ctx, h, donationStatsKey, h.loadDonationStats)
	if err != nil {
		h.internalError(c, err, "donation stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) loadDonationStats(ctx context.Context) (models.DonationStats, error) {
	totals, err := h.store.DonationTotals(ctx)
	if err != nil {
		return models.DonationStats{}, err
	}
	byCountry, err := h.store.DonationsByCountry(ctx)
	if err != nil {
		return models.DonationStats{}, err
	}
	if byCountry == nil {
		byCountry = []models.CountryTotal{}
	}
	return models.DonationStats{
		TotalAmount:        totals.Total,
		TotalDonations:     totals.Count,
		DonationsByCountry: byCountry,
	}, nil
}
