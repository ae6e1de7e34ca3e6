package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/events"
	"github.com/Tharoon321/worldpeace-api/middleware"
	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/store"
)

type AvailabilityInput struct {
	HoursPerWeek float64 `json:"hoursPerWeek" binding:"gte=0,lte=168"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
}

// ApplyInput is the request body for a volunteer application.
type ApplyInput struct {
	InitiativeID string             `json:"initiativeId"`
	Skills       []string           `json:"skills"`
	Availability *AvailabilityInput `json:"availability"`
	Motivation   string             `json:"motivation" binding:"max=1000"`
}

// ReviewInput is an admin decision on an application.
type ReviewInput struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=1000"`
}

func (in *AvailabilityInput) toModel() (*models.Availability, error) {
	if in == nil {
		return nil, nil
	}
	a := &models.Availability{HoursPerWeek: in.HoursPerWeek}
	if in.StartDate != "" {
		t, err := models.ParseDate(in.StartDate)
		if err != nil {
			return nil, err
		}
		a.StartDate = &t
	}
	if in.EndDate != "" {
		t, err := models.ParseDate(in.EndDate)
		if err != nil {
			return nil, err
		}
		a.EndDate = &t
	}
	return a, nil
}

// Apply submits a pending volunteer application for an initiative.
func (h *Handler) Apply(c *gin.Context) {
	var input ApplyInput
	if !bindJSON(c, &input) {
		return
	}

	motivation := strings.TrimSpace(input.Motivation)
	if input.InitiativeID == "" || motivation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Initiative and motivation are required"})
		return
	}
	initiativeID, err := primitive.ObjectIDFromHex(input.InitiativeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid initiative id"})
		return
	}
	availability, err := input.Availability.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid availability dates"})
		return
	}

	user, _ := middleware.CurrentUser(c)

	ctx, cancel := h.ctx(c)
	defer cancel()

	in, err := h.store.InitiativeByID(ctx, initiativeID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "apply: load initiative")
		return
	}

	exists, err := h.store.ApplicationExists(ctx, user.ID, initiativeID)
	if err != nil {
		h.internalError(c, err, "apply: check existing")
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already applied for this initiative"})
		return
	}

	skills := input.Skills
	if skills == nil {
		skills = []string{}
	}
	app := models.VolunteerApplication{
		User:         user.ID,
		Initiative:   initiativeID,
		Skills:       skills,
		Availability: availability,
		Motivation:   motivation,
		Status:       models.ApplicationPending,
		AppliedAt:    h.now().UTC(),
	}
	if err := h.store.CreateApplication(ctx, &app); err != nil {
		// lost a race with a concurrent apply; the unique index caught it
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already applied for this initiative"})
			return
		}
		h.internalError(c, err, "apply: insert application")
		return
	}

	h.emit(ctx, events.VolunteerApplied, initiativeID.Hex(), gin.H{
		"applicationId": app.ID.Hex(),
		"initiativeId":  initiativeID.Hex(),
		"userId":        user.ID.Hex(),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Volunteer application submitted successfully",
		"application": applicationView(app, in.Summary()),
	})
}

// MyApplications lists the caller's applications, newest first.
func (h *Handler) MyApplications(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	ctx, cancel := h.ctx(c)
	defer cancel()

	apps, err := h.store.ApplicationsByUser(ctx, user.ID)
	if err != nil {
		h.internalError(c, err, "list applications")
		return
	}
	views, err := h.applicationViews(ctx, apps)
	if err != nil {
		h.internalError(c, err, "list applications: populate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": views})
}

func (h *Handler) loadApplication(c *gin.Context) (models.VolunteerApplication, bool) {
	id, ok := parseID(c, "id", "application")
	if !ok {
		return models.VolunteerApplication{}, false
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	app, err := h.store.ApplicationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return app, false
	}
	if err != nil {
		h.internalError(c, err, "load application")
		return app, false
	}
	return app, true
}

// WithdrawApplication lets an applicant withdraw a pending or approved application.
func (h *Handler) WithdrawApplication(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if app.User != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}
	if app.Status != models.ApplicationPending && app.Status != models.ApplicationApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Application cannot be withdrawn"})
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	review := models.ApplicationReview{Status: models.ApplicationWithdrawn, At: h.now().UTC()}
	if err := h.store.ReviewApplication(ctx, app.ID, review); err != nil {
		h.internalError(c, err, "withdraw application")
		return
	}
	app.Status = models.ApplicationWithdrawn

	views, err := h.applicationViews(ctx, []models.VolunteerApplication{app})
	if err != nil {
		h.internalError(c, err, "withdraw application: populate")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Application withdrawn",
		"application": views[0],
	})
}

// ReviewApplication records an admin decision on a pending application.
// Approving promotes a plain user to the volunteer role.
func (h *Handler) ReviewApplication(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}
	var input ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	if !models.IsReviewDecision(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be approved or rejected"})
		return
	}
	if app.Status != models.ApplicationPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending applications can be reviewed"})
		return
	}

	reviewer, _ := middleware.CurrentUser(c)

	ctx, cancel := h.ctx(c)
	defer cancel()

	now := h.now().UTC()
	review := models.ApplicationReview{
		Status:     input.Status,
		ReviewedBy: &reviewer.ID,
		Notes:      strings.TrimSpace(input.Notes),
		At:         now,
	}
	if err := h.store.ReviewApplication(ctx, app.ID, review); err != nil {
		h.internalError(c, err, "review application")
		return
	}
	app.Status = review.Status
	app.ReviewedBy = review.ReviewedBy
	app.ReviewedAt = &now
	if review.Notes != "" {
		app.ReviewNotes = review.Notes
	}

	if review.Status == models.ApplicationApproved {
		if err := h.promoteToVolunteer(c, app.User); err != nil {
			h.internalError(c, err, "review application: promote user")
			return
		}
	}

	h.emit(ctx, events.VolunteerReviewed, app.Initiative.Hex(), gin.H{
		"applicationId": app.ID.Hex(),
		"userId":        app.User.Hex(),
		"status":        app.Status,
	})

	views, err := h.applicationViews(ctx, []models.VolunteerApplication{app})
	if err != nil {
		h.internalError(c, err, "review application: populate")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Application " + app.Status,
		"application": views[0],
	})
}

func (h *Handler) promoteToVolunteer(c *gin.Context, userID primitive.ObjectID) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.store.UserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.Role != models.RoleUser {
		return nil
	}
	return h.store.SetRole(ctx, userID, models.RoleVolunteer)
}
