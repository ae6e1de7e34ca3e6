package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
)

type initiativeListResponse struct {
	Initiatives      []models.InitiativeView `json:"initiatives"`
	TotalPages       int64                   `json:"totalPages"`
	CurrentPage      int                     `json:"currentPage"`
	TotalInitiatives int64                   `json:"totalInitiatives"`
}

// Register A, create an initiative, B joins, B applies, B lists applications.
func TestJoinAndApplyScenario(t *testing.T) {
	env := newTestEnv(t)

	tokenA, idA := env.register(t, "Amina", "amina@example.org", "Kenya")
	in := env.createInitiative(t, tokenA, "Schools for Peace", "education")
	require.NotNil(t, in.Organizer)
	assert.Equal(t, idA, in.Organizer.ID)
	assert.Equal(t, "Amina", in.Organizer.Name)
	assert.Equal(t, models.InitiativePlanning, in.Status)

	tokenB, idB := env.register(t, "Bruno", "bruno@example.org", "Brazil")
	rec := env.do(http.MethodPost, "/api/initiatives/"+in.ID.Hex()+"/join", nil, tokenB)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/initiatives/"+in.ID.Hex(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got initiativeResponse
	decode(t, rec, &got)
	require.Len(t, got.Initiative.Participants, 1)
	assert.Equal(t, idB, got.Initiative.Participants[0].User.ID)
	assert.Equal(t, "Bruno", got.Initiative.Participants[0].User.Name)
	assert.Equal(t, "Brazil", got.Initiative.Participants[0].User.Country)

	rec = env.do(http.MethodPost, "/api/volunteer/apply", gin.H{
		"initiativeId": in.ID.Hex(),
		"skills":       []string{"teaching"},
		"availability": gin.H{"hoursPerWeek": 5},
		"motivation":   "I want to help children learn",
	}, tokenB)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/volunteer/my-applications", nil, tokenB)
	require.Equal(t, http.StatusOK, rec.Code)
	var apps applicationsResponse
	decode(t, rec, &apps)
	require.Len(t, apps.Applications, 1)
	assert.Equal(t, models.ApplicationPending, apps.Applications[0].Status)
	require.NotNil(t, apps.Applications[0].Initiative)
	assert.Equal(t, in.ID, apps.Applications[0].Initiative.ID)
	assert.Equal(t, "Schools for Peace", apps.Applications[0].Initiative.Title)
}

func TestJoinTwice(t *testing.T) {
	env := newTestEnv(t)
	tokenA, _ := env.register(t, "Amina", "amina@example.org", "Kenya")
	in := env.createInitiative(t, tokenA, "Dialogue Circle", "dialogue")
	tokenB, _ := env.register(t, "Bruno", "bruno@example.org", "Brazil")

	path := "/api/initiatives/" + in.ID.Hex() + "/join"
	rec := env.do(http.MethodPost, path, nil, tokenB)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, path, nil, tokenB)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Already joined this initiative", errorOf(t, rec))

	stored, err := env.store.InitiativeByID(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 1)
}

func TestJoinUnknownInitiative(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Amina", "amina@example.org", "Kenya")

	rec := env.do(http.MethodPost, "/api/initiatives/"+primitive.NewObjectID().Hex()+"/join", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Initiative not found", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/initiatives/not-an-id/join", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/initiatives/"+primitive.NewObjectID().Hex()+"/join", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetInitiative(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/initiatives/"+primitive.NewObjectID().Hex(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/initiatives/xyz", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid initiative id", errorOf(t, rec))
}

func TestCreateInitiativeValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Amina", "amina@example.org", "Kenya")

	rec := env.do(http.MethodPost, "/api/initiatives", gin.H{"title": "No dates", "description": "x", "category": "education"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Required fields missing", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/initiatives", gin.H{
		"title": "Bad category", "description": "x", "category": "sports", "startDate": "2026-01-01",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid category", errorOf(t, rec))

	rec = env.do(http.MethodPost, "/api/initiatives", gin.H{
		"title": "Bad date", "description": "x", "category": "education", "startDate": "next tuesday",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/initiatives", gin.H{
		"title": "Anonymous", "description": "x", "category": "education", "startDate": "2026-01-01",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListInitiatives(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Amina", "amina@example.org", "Kenya")
	for i := 0; i < 3; i++ {
		env.createInitiative(t, token, fmt.Sprintf("Education %d", i), "education")
	}
	env.createInitiative(t, token, "Green Belt", "environment")

	rec := env.do(http.MethodGet, "/api/initiatives?limit=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page initiativeListResponse
	decode(t, rec, &page)
	assert.Len(t, page.Initiatives, 2)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, int64(4), page.TotalInitiatives)
	require.NotNil(t, page.Initiatives[0].Organizer)
	assert.Equal(t, "Amina", page.Initiatives[0].Organizer.Name)

	rec = env.do(http.MethodGet, "/api/initiatives?category=education&limit=2&page=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = initiativeListResponse{}
	decode(t, rec, &page)
	assert.Len(t, page.Initiatives, 1)
	assert.Equal(t, int64(3), page.TotalInitiatives)
	assert.Equal(t, 2, page.CurrentPage)

	// malformed paging falls back to defaults
	rec = env.do(http.MethodGet, "/api/initiatives?page=abc&limit=-4", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = initiativeListResponse{}
	decode(t, rec, &page)
	assert.Len(t, page.Initiatives, 4)
	assert.Equal(t, int64(1), page.TotalPages)
}

func TestUpdateAndDeleteInitiative(t *testing.T) {
	env := newTestEnv(t)
	tokenA, _ := env.register(t, "Amina", "amina@example.org", "Kenya")
	in := env.createInitiative(t, tokenA, "Peace Walk", "cultural")
	tokenB, _ := env.register(t, "Bruno", "bruno@example.org", "Brazil")

	path := "/api/initiatives/" + in.ID.Hex()

	rec := env.do(http.MethodPut, path, gin.H{"status": "active"}, tokenB)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, path, gin.H{}, tokenA)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", errorOf(t, rec))

	rec = env.do(http.MethodPut, path, gin.H{"status": "archived"}, tokenA)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", errorOf(t, rec))

	rec = env.do(http.MethodPut, path, gin.H{"category": "sports"}, tokenA)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid category", errorOf(t, rec))

	rec = env.do(http.MethodPut, path, gin.H{
		"status": "active",
		"impact": gin.H{"livesTouched": 120, "volunteerHours": 40},
	}, tokenA)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated initiativeResponse
	decode(t, rec, &updated)
	assert.Equal(t, models.InitiativeActive, updated.Initiative.Status)
	assert.Equal(t, int64(120), updated.Initiative.Impact.LivesTouched)
	assert.Equal(t, "Peace Walk", updated.Initiative.Title)

	rec = env.do(http.MethodDelete, path, nil, tokenB)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := env.registerAdmin(t)
	rec = env.do(http.MethodDelete, path, nil, admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
