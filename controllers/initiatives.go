package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/middleware"
	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/store"
)

// CreateInitiativeInput is the request body for creating an initiative.
// Required fields are checked by hand so a missing one gets a single message.
type CreateInitiativeInput struct {
	Title       string          `json:"title" binding:"max=100"`
	Description string          `json:"description" binding:"max=1000"`
	Category    string          `json:"category"`
	Location    models.Location `json:"location"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
}

// UpdateInitiativeInput allows partial updates
type UpdateInitiativeInput struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string          `json:"description" binding:"omitempty,min=1,max=1000"`
	Category    *string          `json:"category"`
	Location    *models.Location `json:"location"`
	StartDate   *string          `json:"startDate"`
	EndDate     *string          `json:"endDate"`
	Status      *string          `json:"status"`
	Impact      *models.Impact   `json:"impact"`
}

// ListInitiatives returns a filtered page of initiatives, newest first.
func (h *Handler) ListInitiatives(c *gin.Context) {
	page := pageParams(c, 10)
	filter := store.InitiativeFilter{
		Category: c.Query("category"),
		Country:  c.Query("country"),
		Status:   c.Query("status"),
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	list, total, err := h.store.ListInitiatives(ctx, filter, page)
	if err != nil {
		h.internalError(c, err, "list initiatives")
		return
	}
	views, err := h.initiativeViews(ctx, list, false)
	if err != nil {
		h.internalError(c, err, "list initiatives: populate")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"initiatives":      views,
		"totalPages":       page.TotalPages(total),
		"currentPage":      page.Number,
		"totalInitiatives": total,
	})
}

// GetInitiative returns one initiative with organizer and participants populated.
func (h *Handler) GetInitiative(c *gin.Context) {
	id, ok := parseID(c, "id", "initiative")
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	in, err := h.store.InitiativeByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "get initiative")
		return
	}

	view, err := h.initiativeView(ctx, in)
	if err != nil {
		h.internalError(c, err, "get initiative: populate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"initiative": view})
}

// CreateInitiative creates an initiative organized by the caller.
func (h *Handler) CreateInitiative(c *gin.Context) {
	var input CreateInitiativeInput
	if !bindJSON(c, &input) {
		return
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" || input.Category == "" || input.StartDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Required fields missing"})
		return
	}
	if !models.IsCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	start, err := models.ParseDate(input.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
		return
	}
	var end *time.Time
	if input.EndDate != "" {
		t, err := models.ParseDate(input.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
			return
		}
		end = &t
	}

	organizer, _ := middleware.CurrentUser(c)
	now := h.now().UTC()
	in := models.Initiative{
		Title:        title,
		Description:  description,
		Category:     input.Category,
		Location:     input.Location,
		StartDate:    start,
		EndDate:      end,
		Participants: []models.Participant{},
		Organizer:    organizer.ID,
		Status:       models.InitiativePlanning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.store.CreateInitiative(ctx, &in); err != nil {
		h.internalError(c, err, "create initiative")
		return
	}

	h.emit(ctx, events.InitiativeCreated, in.ID.Hex(), gin.H{
		"initiativeId": in.ID.Hex(),
		"organizerId":  organizer.ID.Hex(),
		"category":     in.Category,
	})

	view, err := h.initiativeView(ctx, in)
	if err != nil {
		h.internalError(c, err, "create initiative: populate")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Initiative created successfully",
		"initiative": view,
	})
}

// JoinInitiative adds the caller to the participants.
func (h *Handler) JoinInitiative(c *gin.Context) {
	id, ok := parseID(c, "id", "initiative")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	ctx, cancel := h.ctx(c)
	defer cancel()

	err := h.store.AddParticipant(ctx, id, user.ID, h.now().UTC())
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
		return
	case errors.Is(err, store.ErrAlreadyJoined):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already joined this initiative"})
		return
	case err != nil:
		h.internalError(c, err, "join initiative")
		return
	}

	h.emit(ctx, events.InitiativeJoined, id.Hex(), gin.H{
		"initiativeId": id.Hex(),
		"userId":       user.ID.Hex(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined initiative"})
}

// loadOwnedInitiative fetches the initiative and checks that the caller may
// modify it: the organizer or an admin.
func (h *Handler) loadOwnedInitiative(c *gin.Context, id primitive.ObjectID) (models.Initiative, bool) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	in, err := h.store.InitiativeByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
		return in, false
	}
	if err != nil {
		h.internalError(c, err, "load initiative")
		return in, false
	}

	user, _ := middleware.CurrentUser(c)
	if in.Organizer != user.ID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the organizer can modify this initiative"})
		return in, false
	}
	return in, true
}

// UpdateInitiative applies a partial update.
func (h *Handler) UpdateInitiative(c *gin.Context) {
	id, ok := parseID(c, "id", "initiative")
	if !ok {
		return
	}
	var input UpdateInitiativeInput
	if !bindJSON(c, &input) {
		return
	}

	update := models.InitiativeUpdate{
		Title:       trimmed(input.Title),
		Description: trimmed(input.Description),
		Category:    input.Category,
		Location:    input.Location,
		Status:      input.Status,
		Impact:      input.Impact,
	}
	if input.Category != nil && !models.IsCategory(*input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	if input.Status != nil && !models.IsInitiativeStatus(*input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	if input.StartDate != nil {
		t, err := models.ParseDate(*input.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
			return
		}
		update.StartDate = &t
	}
	if input.EndDate != nil {
		t, err := models.ParseDate(*input.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
			return
		}
		update.EndDate = &t
	}
	if update.Impact != nil && (update.Impact.LivesTouched < 0 || update.Impact.VolunteerHours < 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Impact counters cannot be negative"})
		return
	}
	if update.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	in, ok := h.loadOwnedInitiative(c, id)
	if !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	now := h.now().UTC()
	if err := h.store.UpdateInitiative(ctx, id, update, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
			return
		}
		h.internalError(c, err, "update initiative")
		return
	}
	update.Apply(&in)
	in.UpdatedAt = now

	view, err := h.initiativeView(ctx, in)
	if err != nil {
		h.internalError(c, err, "update initiative: populate")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Initiative updated successfully",
		"initiative": view,
	})
}

// DeleteInitiative removes an initiative.
func (h *Handler) DeleteInitiative(c *gin.Context) {
	id, ok := parseID(c, "id", "initiative")
	if !ok {
		return
	}
	if _, ok := h.loadOwnedInitiative(c, id); !ok {
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.store.DeleteInitiative(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, err, "delete initiative")
		return
	}
	c.Status(http.StatusNoContent)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
